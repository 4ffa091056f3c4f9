package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/polkiloo/orderpay/internal/adapter/gateway"
	domainErrors "github.com/polkiloo/orderpay/internal/domain/errors"
	"github.com/polkiloo/orderpay/internal/domain/lifecycle"
	"github.com/polkiloo/orderpay/internal/domain/model"
	"github.com/polkiloo/orderpay/internal/domain/repository"
	"github.com/polkiloo/orderpay/internal/metrics"
	"github.com/polkiloo/orderpay/internal/pkg/ids"
)

// InitiatePaymentCommand starts a payment for an order.
type InitiatePaymentCommand struct {
	OrderNumber string
	Gateway     string
	Variant     string
	PayerPhone  string
	ReturnURL   string
}

// RetryPaymentCommand starts a fresh attempt after a failed or stale one.
// Empty Gateway reuses the gateway and variant of the previous attempt.
type RetryPaymentCommand struct {
	OrderNumber       string
	PreviousReference string
	Gateway           string
	Variant           string
	PayerPhone        string
	ReturnURL         string
}

// PaymentSettings holds the orchestrator timing knobs.
type PaymentSettings struct {
	GatewayTimeout time.Duration
	StaleAfter     time.Duration
}

// PaymentUseCase orchestrates payment attempts across gateways.
type PaymentUseCase struct {
	orders     repository.OrderRepository
	payments   repository.PaymentRepository
	gateways   *gateway.Registry
	ids        ids.Generator
	policy     *RetryPolicy
	settlement *Settlement
	metrics    *metrics.Metrics
	logger     *zap.Logger
	tracer     trace.Tracer
	settings   PaymentSettings
	now        func() time.Time
}

// NewPaymentUseCase constructs PaymentUseCase.
func NewPaymentUseCase(
	orders repository.OrderRepository,
	payments repository.PaymentRepository,
	gateways *gateway.Registry,
	gen ids.Generator,
	policy *RetryPolicy,
	settlement *Settlement,
	m *metrics.Metrics,
	logger *zap.Logger,
	settings PaymentSettings,
) *PaymentUseCase {
	if settings.GatewayTimeout <= 0 {
		settings.GatewayTimeout = 10 * time.Second
	}
	if settings.StaleAfter <= 0 {
		settings.StaleAfter = 15 * time.Minute
	}
	return &PaymentUseCase{
		orders:     orders,
		payments:   payments,
		gateways:   gateways,
		ids:        gen,
		policy:     policy,
		settlement: settlement,
		metrics:    m,
		logger:     logger.Named("payments"),
		tracer:     otel.Tracer("orderpay/payments"),
		settings:   settings,
		now:        time.Now,
	}
}

// InitiatePayment creates a PENDING attempt and asks the gateway to collect
// the order total. Gateway failures never surface as errors: the attempt is
// resolved FAILED and the result tells the payer what to do next.
func (u *PaymentUseCase) InitiatePayment(ctx context.Context, cmd InitiatePaymentCommand) (model.PaymentInitiationResult, error) {
	return u.initiate(ctx, cmd, "")
}

// RetryPayment starts a new attempt after previous one failed or went stale.
// The previous attempt is never reused: a stale PENDING one is resolved
// FAILED as SUPERSEDED in the same transaction that inserts its successor.
func (u *PaymentUseCase) RetryPayment(ctx context.Context, cmd RetryPaymentCommand) (model.PaymentInitiationResult, error) {
	order, err := findOrder(ctx, u.orders, cmd.OrderNumber)
	if err != nil {
		return model.PaymentInitiationResult{}, err
	}
	prev, err := u.payments.GetByReference(ctx, cmd.PreviousReference)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return model.PaymentInitiationResult{}, fmt.Errorf("%w: %s", domainErrors.ErrAttemptNotFound, cmd.PreviousReference)
		}
		return model.PaymentInitiationResult{}, err
	}
	if prev.OrderID != order.ID {
		return model.PaymentInitiationResult{}, fmt.Errorf("%w: %s", domainErrors.ErrAttemptNotFound, cmd.PreviousReference)
	}

	supersede := ""
	switch prev.Status {
	case model.PaymentStatusSuccess:
		return model.PaymentInitiationResult{}, domainErrors.NewValidationError("reference", "previous attempt already succeeded", nil)
	case model.PaymentStatusPending:
		if u.now().Sub(prev.CreatedAt) < u.settings.StaleAfter {
			return model.PaymentInitiationResult{}, domainErrors.NewValidationError("reference", "previous attempt is still in progress", nil)
		}
		supersede = prev.Reference
	}

	next := InitiatePaymentCommand{
		OrderNumber: cmd.OrderNumber,
		Gateway:     cmd.Gateway,
		Variant:     cmd.Variant,
		PayerPhone:  cmd.PayerPhone,
		ReturnURL:   cmd.ReturnURL,
	}
	if strings.TrimSpace(next.Gateway) == "" {
		next.Gateway = prev.Gateway
		if next.Variant == "" {
			next.Variant = prev.Variant
		}
	}
	return u.initiate(ctx, next, supersede)
}

func (u *PaymentUseCase) initiate(ctx context.Context, cmd InitiatePaymentCommand, supersede string) (model.PaymentInitiationResult, error) {
	ctx, span := u.tracer.Start(ctx, "payment.initiate", trace.WithAttributes(
		attribute.String("order.number", cmd.OrderNumber),
		attribute.String("payment.gateway", cmd.Gateway),
	))
	defer span.End()

	adapter, variant, err := u.gateways.ResolveVariant(cmd.Gateway, cmd.Variant)
	if err != nil {
		return model.PaymentInitiationResult{}, err
	}
	order, err := findOrder(ctx, u.orders, cmd.OrderNumber)
	if err != nil {
		return model.PaymentInitiationResult{}, err
	}

	req := gateway.InitiationRequest{
		Reference:   u.ids.PaymentReference(),
		OrderNumber: order.Number,
		Amount:      order.TotalAmount,
		Currency:    order.Currency,
		Variant:     variant,
		PayerPhone:  cmd.PayerPhone,
		ReturnURL:   cmd.ReturnURL,
	}
	if v, ok := adapter.(gateway.RequestValidator); ok {
		if err := v.ValidateRequest(req); err != nil {
			return model.PaymentInitiationResult{}, err
		}
	}

	attempt, attempts, err := u.openAttempt(ctx, order.ID, adapter, req, supersede)
	if err != nil {
		return model.PaymentInitiationResult{}, err
	}
	span.SetAttributes(attribute.String("payment.reference", attempt.Reference))

	result := model.PaymentInitiationResult{
		OrderNumber: order.Number,
		Reference:   attempt.Reference,
		Gateway:     adapter.Code(),
	}

	callCtx, cancel := context.WithTimeout(ctx, u.settings.GatewayTimeout)
	started := u.now()
	outcome, exchange, callErr := adapter.Initiate(callCtx, req)
	cancel()
	u.metrics.ObserveGateway(adapter.Code(), u.now().Sub(started))

	gatewayRef := gatewayReference(outcome)
	if err := u.payments.RecordExchange(ctx, attempt.Reference, exchange.Request, exchange.Response, gatewayRef, started); err != nil {
		u.logger.Error("record initiation exchange failed", zap.String("reference", attempt.Reference), zap.Error(err))
	}

	if callErr != nil {
		span.RecordError(callErr)
		span.SetStatus(codes.Error, "gateway call failed")
		u.logger.Warn("gateway initiation failed",
			zap.String("gateway", adapter.Code()),
			zap.String("reference", attempt.Reference),
			zap.Error(callErr),
		)
		u.metrics.AttemptInitiated(adapter.Code(), "error")
		reason := "GATEWAY_UNAVAILABLE: " + callErr.Error()
		return u.finishFailure(ctx, attempt, order.Number, reason, false, attempts, result)
	}

	switch out := outcome.(type) {
	case gateway.Redirect:
		u.metrics.AttemptInitiated(adapter.Code(), "redirect")
		result.Success = true
		result.RedirectURL = out.URL
		result.NextAction = model.NextActionRedirect
		return result, nil
	case gateway.Instructions:
		u.metrics.AttemptInitiated(adapter.Code(), "instructions")
		result.Success = true
		result.Instructions = out.Text
		result.NextAction = model.NextActionAdditionalInput
		return result, nil
	case gateway.ImmediateFailure:
		u.metrics.AttemptInitiated(adapter.Code(), "declined")
		return u.finishFailure(ctx, attempt, order.Number, out.Reason, out.Retryable, attempts, result)
	case gateway.ImmediateSuccess:
		u.metrics.AttemptInitiated(adapter.Code(), "captured")
		return u.finishSuccess(ctx, attempt, order.Number, out.GatewayReference, result)
	default:
		return result, fmt.Errorf("gateway %s returned unsupported outcome %T", adapter.Code(), outcome)
	}
}

// openAttempt inserts the PENDING attempt under the order lock after
// checking that the order can take a payment through this gateway.
func (u *PaymentUseCase) openAttempt(ctx context.Context, orderID int64, adapter gateway.Adapter, req gateway.InitiationRequest, supersede string) (*model.OrderPayment, int, error) {
	var (
		attempt *model.OrderPayment
		count   int
	)
	_, err := u.orders.Update(ctx, orderID, func(o *model.Order, attempts []model.OrderPayment) (repository.OrderChange, error) {
		if o.Stage.Terminal() {
			return repository.OrderChange{}, domainErrors.NewValidationError("order", fmt.Sprintf("order is %s", o.Stage), nil)
		}
		if o.PaymentStatus == model.PaymentStatusSuccess {
			return repository.OrderChange{}, domainErrors.NewValidationError("order", "order is already paid", nil)
		}

		var change repository.OrderChange
		for _, a := range attempts {
			if a.Status != model.PaymentStatusPending {
				continue
			}
			if a.Reference == supersede {
				change.Resolutions = append(change.Resolutions, model.Resolution{
					Reference:     a.Reference,
					Status:        model.PaymentStatusFailed,
					FailureReason: model.FailureReasonSuperseded,
					ResolvedAt:    u.now(),
					Settled:       true,
				})
				continue
			}
			if gateway.Normalize(a.Gateway) == gateway.Normalize(adapter.Code()) {
				return repository.OrderChange{}, domainErrors.NewValidationError("gateway", fmt.Sprintf("a %s payment is already pending", adapter.Code()), nil)
			}
			if adapter.Exclusive() || u.exclusive(a.Gateway) {
				return repository.OrderChange{}, domainErrors.NewValidationError("gateway", fmt.Sprintf("a %s payment is pending and cannot run alongside %s", a.Gateway, adapter.Code()), nil)
			}
		}
		if supersede != "" && len(change.Resolutions) == 0 {
			prev := findAttempt(attempts, supersede)
			if prev == nil || prev.Status != model.PaymentStatusFailed {
				return repository.OrderChange{}, domainErrors.NewValidationError("reference", "previous attempt was resolved meanwhile", nil)
			}
		}

		lifecycle.ReopenPayment(o, u.now())
		attempt = &model.OrderPayment{
			OrderID:   o.ID,
			Reference: req.Reference,
			Gateway:   gateway.Normalize(adapter.Code()),
			Variant:   req.Variant,
			Status:    model.PaymentStatusPending,
			Amount:    o.TotalAmount,
			Currency:  o.Currency,
		}
		change.NewAttempt = attempt
		count = len(attempts) + 1
		return change, nil
	})
	if err != nil {
		return nil, 0, err
	}
	u.logger.Info("payment attempt opened",
		zap.String("order", req.OrderNumber),
		zap.String("reference", attempt.Reference),
		zap.String("gateway", attempt.Gateway),
	)
	return attempt, count, nil
}

func (u *PaymentUseCase) exclusive(code string) bool {
	a, err := u.gateways.Resolve(code)
	return err == nil && a.Exclusive()
}

func (u *PaymentUseCase) finishFailure(ctx context.Context, attempt *model.OrderPayment, number, reason string, retryable bool, attempts int, result model.PaymentInitiationResult) (model.PaymentInitiationResult, error) {
	// a failed initiation leaves the order payment as it was
	resolved, err := u.settlement.Resolve(ctx, attempt, number, model.Resolution{
		Status:        model.PaymentStatusFailed,
		FailureReason: reason,
		Settled:       true,
	})
	if err != nil {
		return result, err
	}
	if !resolved {
		return u.settledElsewhere(ctx, attempt.Reference, result)
	}

	result.Success = false
	result.Message = reason
	result.NextAction = model.NextActionChooseAnotherMethod
	if u.policy.Allow(retryable, attempts, attempt.Gateway) {
		result.NextAction = model.NextActionRetry
	}
	return result, nil
}

func (u *PaymentUseCase) finishSuccess(ctx context.Context, attempt *model.OrderPayment, number, gatewayRef string, result model.PaymentInitiationResult) (model.PaymentInitiationResult, error) {
	resolved, err := u.settlement.Resolve(ctx, attempt, number, model.Resolution{
		Status:           model.PaymentStatusSuccess,
		GatewayReference: gatewayRef,
	})
	if err != nil {
		return result, err
	}
	if !resolved {
		return u.settledElsewhere(ctx, attempt.Reference, result)
	}
	if _, err := u.settlement.Confirm(ctx, *attempt); err != nil {
		// the sweeper completes the advancement; the money is already captured
		u.logger.Error("order advancement after capture failed", zap.String("reference", attempt.Reference), zap.Error(err))
	}
	result.Success = true
	result.NextAction = model.NextActionNone
	return result, nil
}

// settledElsewhere reports an attempt a concurrent callback resolved first.
func (u *PaymentUseCase) settledElsewhere(ctx context.Context, reference string, result model.PaymentInitiationResult) (model.PaymentInitiationResult, error) {
	current, err := u.payments.GetByReference(ctx, reference)
	if err != nil {
		return result, err
	}
	if current.Status == model.PaymentStatusSuccess {
		result.Success = true
		result.NextAction = model.NextActionNone
		return result, nil
	}
	result.Success = false
	result.Message = current.FailureReason
	result.NextAction = model.NextActionChooseAnotherMethod
	return result, nil
}

func gatewayReference(outcome gateway.InitiationOutcome) string {
	switch out := outcome.(type) {
	case gateway.Redirect:
		return out.GatewayReference
	case gateway.Instructions:
		return out.GatewayReference
	case gateway.ImmediateSuccess:
		return out.GatewayReference
	default:
		return ""
	}
}
