package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/polkiloo/orderpay/internal/adapter/gateway"
	domainErrors "github.com/polkiloo/orderpay/internal/domain/errors"
	"github.com/polkiloo/orderpay/internal/domain/model"
	"github.com/polkiloo/orderpay/internal/domain/repository"
	"github.com/polkiloo/orderpay/internal/metrics"
)

// OutcomeKind classifies what a gateway callback did to the ledger.
type OutcomeKind string

const (
	OutcomeAppliedSuccess   OutcomeKind = "APPLIED_SUCCESS"
	OutcomeAppliedFailure   OutcomeKind = "APPLIED_FAILURE"
	OutcomeAlreadyProcessed OutcomeKind = "ALREADY_PROCESSED"
	OutcomeNotFound         OutcomeKind = "NOT_FOUND"
	OutcomeIgnored          OutcomeKind = "IGNORED"
	OutcomeLateSuccess      OutcomeKind = "LATE_SUCCESS"
)

// ReconciliationOutcome is returned for every callback; Ack is what the
// gateway expects in the response body.
type ReconciliationOutcome struct {
	Kind      OutcomeKind
	Reference string
	Ack       gateway.Ack
}

// Reconciler applies asynchronous gateway callbacks to the payment ledger.
type Reconciler struct {
	payments   repository.PaymentRepository
	orders     repository.OrderRepository
	gateways   *gateway.Registry
	settlement *Settlement
	metrics    *metrics.Metrics
	logger     *zap.Logger
	tracer     trace.Tracer
}

// NewReconciler constructs Reconciler.
func NewReconciler(
	payments repository.PaymentRepository,
	orders repository.OrderRepository,
	gateways *gateway.Registry,
	settlement *Settlement,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Reconciler {
	return &Reconciler{
		payments:   payments,
		orders:     orders,
		gateways:   gateways,
		settlement: settlement,
		metrics:    m,
		logger:     logger.Named("reconciler"),
		tracer:     otel.Tracer("orderpay/reconciler"),
	}
}

// Reconcile parses and applies one callback. Redelivery of the same
// callback yields ALREADY_PROCESSED and changes nothing.
//
// Once the gateway is known the result always carries an acknowledgement:
// AckRejected for an invalid payload, AckNotFound for an unknown reference and
// AckRetry for any other error, which means the callback should be redelivered.
func (r *Reconciler) Reconcile(ctx context.Context, code string, payload []byte) (ReconciliationOutcome, error) {
	ctx, span := r.tracer.Start(ctx, "payment.callback", trace.WithAttributes(attribute.String("payment.gateway", code)))
	defer span.End()

	adapter, err := r.gateways.Resolve(code)
	if err != nil {
		return ReconciliationOutcome{}, err
	}
	gw := adapter.Code()

	cb, err := adapter.ParseCallback(payload)
	if err != nil {
		r.logger.Warn("rejected callback", zap.String("gateway", gw), zap.Error(err))
		r.metrics.CallbackHandled(gw, "rejected")
		return ReconciliationOutcome{Ack: adapter.Acknowledge(gateway.AckRejected)}, err
	}
	span.SetAttributes(attribute.String("payment.reference", cb.Reference))

	retry := func(err error) (ReconciliationOutcome, error) {
		r.logger.Error("callback not applied; awaiting redelivery",
			zap.String("gateway", gw), zap.String("reference", cb.Reference), zap.Error(err))
		r.metrics.CallbackHandled(gw, "retry")
		return ReconciliationOutcome{Reference: cb.Reference, Ack: adapter.Acknowledge(gateway.AckRetry)}, err
	}

	attempt, err := r.payments.GetByReference(ctx, cb.Reference)
	if err != nil && !errors.Is(err, domainErrors.ErrNotFound) {
		return retry(err)
	}
	if attempt == nil || err != nil || gateway.Normalize(attempt.Gateway) != gw {
		r.logger.Warn("callback for unknown attempt", zap.String("gateway", gw), zap.String("reference", cb.Reference))
		r.metrics.CallbackHandled(gw, string(OutcomeNotFound))
		return ReconciliationOutcome{
			Kind:      OutcomeNotFound,
			Reference: cb.Reference,
			Ack:       adapter.Acknowledge(gateway.AckNotFound),
		}, fmt.Errorf("%w: %s", domainErrors.ErrAttemptNotFound, cb.Reference)
	}

	outcome, err := r.apply(ctx, attempt, cb, payload, true)
	if err != nil {
		return retry(err)
	}
	r.metrics.CallbackHandled(gw, string(outcome))
	return ReconciliationOutcome{
		Kind:      outcome,
		Reference: cb.Reference,
		Ack:       adapter.Acknowledge(gateway.AckAccepted),
	}, nil
}

func (r *Reconciler) apply(ctx context.Context, attempt *model.OrderPayment, cb gateway.CallbackResult, payload []byte, again bool) (OutcomeKind, error) {
	log := r.logger.With(zap.String("reference", attempt.Reference), zap.String("gateway", attempt.Gateway))

	switch attempt.Status {
	case model.PaymentStatusSuccess:
		r.recordWebhook(ctx, attempt.Reference, payload)
		if !cb.Success {
			log.Warn("failure callback for settled attempt ignored", zap.String("reason", cb.FailureReason))
			return OutcomeIgnored, nil
		}
		// redelivery also heals an advancement that did not complete
		if _, err := r.settlement.Confirm(ctx, *attempt); err != nil {
			return "", err
		}
		r.alreadyResolved(log, attempt)
		return OutcomeAlreadyProcessed, nil

	case model.PaymentStatusFailed:
		r.recordWebhook(ctx, attempt.Reference, payload)
		if attempt.OrderAdvancedAt == nil {
			// a failure whose order update was lost is applied on redelivery
			if _, err := r.settlement.Fail(ctx, *attempt, attempt.FailureReason); err != nil {
				return "", err
			}
		}
		if cb.Success {
			log.Error("gateway reports success for failed attempt; refund needed",
				zap.String("failure_reason", attempt.FailureReason),
				zap.String("gateway_transaction", cb.GatewayTransactionID),
			)
			return OutcomeLateSuccess, nil
		}
		r.alreadyResolved(log, attempt)
		return OutcomeAlreadyProcessed, nil
	}

	order, err := r.orders.GetByID(ctx, attempt.OrderID)
	if err != nil {
		return "", err
	}

	res := model.Resolution{
		GatewayReference: cb.GatewayTransactionID,
		WebhookPayload:   payload,
	}
	if cb.Success {
		res.Status = model.PaymentStatusSuccess
	} else {
		res.Status = model.PaymentStatusFailed
		res.FailureReason = cb.FailureReason
	}

	var resolved bool
	if cb.Success && r.orderAlreadyPaid(ctx, attempt) {
		err = domainErrors.ErrAlreadyExists
	} else {
		resolved, err = r.settlement.Resolve(ctx, attempt, order.Number, res)
	}
	if errors.Is(err, domainErrors.ErrAlreadyExists) {
		return r.duplicate(ctx, attempt, order.Number, res)
	}
	if err != nil {
		return "", err
	}

	if !resolved {
		if !again {
			return OutcomeAlreadyProcessed, nil
		}
		current, err := r.payments.GetByReference(ctx, attempt.Reference)
		if err != nil {
			return "", err
		}
		return r.apply(ctx, current, cb, payload, false)
	}

	if cb.Success {
		log.Info("payment confirmed by callback")
		if _, err := r.settlement.Confirm(ctx, *attempt); err != nil {
			return "", err
		}
		return OutcomeAppliedSuccess, nil
	}

	log.Info("payment declined by callback", zap.String("reason", cb.FailureReason))
	if _, err := r.settlement.Fail(ctx, *attempt, cb.FailureReason); err != nil {
		return "", err
	}
	return OutcomeAppliedFailure, nil
}

// duplicate closes a second successful attempt for an already paid order.
// The money was taken twice, so the attempt is failed and flagged for refund.
func (r *Reconciler) duplicate(ctx context.Context, attempt *model.OrderPayment, number string, res model.Resolution) (OutcomeKind, error) {
	res.Status = model.PaymentStatusFailed
	res.FailureReason = model.FailureReasonDuplicate
	res.Settled = true
	if _, err := r.settlement.Resolve(ctx, attempt, number, res); err != nil {
		return "", err
	}
	r.logger.Error("duplicate payment captured; refund needed",
		zap.String("order", number),
		zap.String("reference", attempt.Reference),
		zap.String("gateway", attempt.Gateway),
		zap.String("gateway_transaction", res.GatewayReference),
	)
	return OutcomeLateSuccess, nil
}

func (r *Reconciler) alreadyResolved(log *zap.Logger, attempt *model.OrderPayment) {
	log.Info("duplicate callback ignored", zap.Error(&domainErrors.AlreadyResolvedError{
		Reference: attempt.Reference,
		Status:    string(attempt.Status),
	}))
}

func (r *Reconciler) orderAlreadyPaid(ctx context.Context, attempt *model.OrderPayment) bool {
	attempts, err := r.payments.ListByOrder(ctx, attempt.OrderID)
	if err != nil {
		return false
	}
	for _, a := range attempts {
		if a.Reference != attempt.Reference && a.Status == model.PaymentStatusSuccess {
			return true
		}
	}
	return false
}

func (r *Reconciler) recordWebhook(ctx context.Context, reference string, payload []byte) {
	if err := r.payments.RecordWebhook(ctx, reference, payload); err != nil {
		r.logger.Warn("record webhook failed", zap.String("reference", reference), zap.Error(err))
	}
}
