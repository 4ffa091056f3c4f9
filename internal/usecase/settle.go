package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	domainErrors "github.com/polkiloo/orderpay/internal/domain/errors"
	"github.com/polkiloo/orderpay/internal/domain/lifecycle"
	"github.com/polkiloo/orderpay/internal/domain/model"
	"github.com/polkiloo/orderpay/internal/domain/repository"
	"github.com/polkiloo/orderpay/internal/metrics"
	"github.com/polkiloo/orderpay/internal/notify"
)

// Settlement applies resolved attempts to their orders. Both operations run
// under the order lock and are idempotent, so the reconciler, the orchestrator
// and the sweeper may all call them for the same attempt.
type Settlement struct {
	orders    repository.OrderRepository
	payments  repository.PaymentRepository
	publisher notify.Publisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewSettlement constructs Settlement.
func NewSettlement(orders repository.OrderRepository, payments repository.PaymentRepository, publisher notify.Publisher, m *metrics.Metrics, logger *zap.Logger) *Settlement {
	return &Settlement{
		orders:    orders,
		payments:  payments,
		publisher: publisher,
		metrics:   m,
		logger:    logger.Named("settlement"),
		now:       time.Now,
	}
}

// Resolve moves a pending attempt to a terminal status and publishes the fact.
// It reports false when another resolver won the race. A second SUCCESS for
// the same order is reported as ErrAlreadyExists.
func (s *Settlement) Resolve(ctx context.Context, attempt *model.OrderPayment, order string, res model.Resolution) (bool, error) {
	res.Reference = attempt.Reference
	if res.ResolvedAt.IsZero() {
		res.ResolvedAt = s.now()
	}
	ok, err := s.payments.Resolve(ctx, res)
	if err != nil || !ok {
		return ok, err
	}
	attempt.Status = res.Status
	attempt.FailureReason = res.FailureReason
	at := res.ResolvedAt
	attempt.ResolvedAt = &at

	s.announce(ctx, order, *attempt)
	return true, nil
}

// announce publishes a resolution that has already committed.
func (s *Settlement) announce(ctx context.Context, order string, attempt model.OrderPayment) {
	ev := model.PaymentResolved{
		OrderNumber: order,
		Reference:   attempt.Reference,
		Gateway:     attempt.Gateway,
		Status:      attempt.Status,
		Reason:      attempt.FailureReason,
	}
	if attempt.ResolvedAt != nil {
		ev.At = *attempt.ResolvedAt
	}
	s.publisher.PaymentResolved(ctx, ev)
}

// Confirm completes the order side of a SUCCESS attempt: payment status,
// first confirmation time, paid items, PENDING -> PAYMENT_CONFIRMED and the
// advancement marker. Running it again after completion changes nothing.
func (s *Settlement) Confirm(ctx context.Context, attempt model.OrderPayment) (*model.Order, error) {
	var (
		result lifecycle.Result
		noop   bool
	)
	order, err := s.orders.Update(ctx, attempt.OrderID, func(o *model.Order, attempts []model.OrderPayment) (repository.OrderChange, error) {
		current, err := settling(attempts, attempt.Reference, model.PaymentStatusSuccess)
		if err != nil {
			return repository.OrderChange{}, err
		}
		if current.OrderAdvancedAt != nil {
			noop = true
			return repository.OrderChange{}, nil
		}
		result = lifecycle.ConfirmPayment(o, s.now())
		return repository.OrderChange{Events: result.Events, Advanced: []int64{current.ID}}, nil
	})
	if err != nil {
		return nil, s.refused(attempt.Reference, err)
	}
	if noop {
		return order, nil
	}
	s.logger.Info("order payment confirmed",
		zap.String("order", order.Number),
		zap.String("reference", attempt.Reference),
		zap.String("stage", string(order.Stage)),
	)
	s.publishStage(ctx, order.Number, nil, result)
	return order, nil
}

// Fail applies a FAILED attempt to its order: the order payment becomes
// FAILED only when no other attempt is pending or successful. The attempt is
// marked settled in the same transaction, so running it again changes nothing.
func (s *Settlement) Fail(ctx context.Context, attempt model.OrderPayment, reason string) (*model.Order, error) {
	order, err := s.orders.Update(ctx, attempt.OrderID, func(o *model.Order, attempts []model.OrderPayment) (repository.OrderChange, error) {
		current, err := settling(attempts, attempt.Reference, model.PaymentStatusFailed)
		if err != nil {
			return repository.OrderChange{}, err
		}
		if current.OrderAdvancedAt != nil {
			return repository.OrderChange{}, nil
		}
		res := lifecycle.ApplyPaymentFailure(o, attempts, s.now(), reason)
		return repository.OrderChange{Events: res.Events, Advanced: []int64{current.ID}}, nil
	})
	if err != nil {
		return nil, s.refused(attempt.Reference, err)
	}
	return order, nil
}

// settling finds the attempt an order update settles and checks its status.
func settling(attempts []model.OrderPayment, reference string, want model.PaymentStatus) (*model.OrderPayment, error) {
	current := findAttempt(attempts, reference)
	if current != nil && current.Status == want {
		return current, nil
	}
	status := "missing"
	if current != nil {
		status = string(current.Status)
	}
	return nil, &domainErrors.InconsistentStateError{
		Reference: reference,
		Detail:    fmt.Sprintf("%s settlement requested for attempt in status %s", want, status),
	}
}

func (s *Settlement) refused(reference string, err error) error {
	var inconsistent *domainErrors.InconsistentStateError
	if errors.As(err, &inconsistent) {
		s.metrics.Inconsistent()
		s.logger.Error("refusing to settle order", zap.String("reference", reference), zap.Error(err))
	}
	return err
}

func (s *Settlement) publishStage(ctx context.Context, number string, itemID *int64, res lifecycle.Result) {
	if res.From == res.To {
		return
	}
	s.publisher.StageChanged(ctx, model.StageChanged{
		OrderNumber: number,
		ItemID:      itemID,
		From:        res.From,
		To:          res.To,
		At:          s.now(),
	})
}

func findAttempt(attempts []model.OrderPayment, reference string) *model.OrderPayment {
	for i := range attempts {
		if attempts[i].Reference == reference {
			return &attempts[i]
		}
	}
	return nil
}
