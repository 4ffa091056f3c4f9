package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/polkiloo/orderpay/internal/domain/model"
	"github.com/polkiloo/orderpay/internal/domain/repository"
	"github.com/polkiloo/orderpay/internal/metrics"
)

// advanceGrace leaves a freshly resolved attempt to the resolver that is still
// applying it to the order.
const advanceGrace = time.Minute

// SweepUseCase resolves work left behind by lost callbacks and crashes.
type SweepUseCase struct {
	payments      repository.PaymentRepository
	settlement    *Settlement
	metrics       *metrics.Metrics
	logger        *zap.Logger
	pendingExpiry time.Duration
	now           func() time.Time
}

// NewSweepUseCase constructs SweepUseCase.
func NewSweepUseCase(payments repository.PaymentRepository, settlement *Settlement, m *metrics.Metrics, logger *zap.Logger, pendingExpiry time.Duration) *SweepUseCase {
	if pendingExpiry <= 0 {
		pendingExpiry = 30 * time.Minute
	}
	return &SweepUseCase{
		payments:      payments,
		settlement:    settlement,
		metrics:       m,
		logger:        logger.Named("sweep"),
		pendingExpiry: pendingExpiry,
		now:           time.Now,
	}
}

// ExpiredAttempts resolves pending attempts older than the expiry as FAILED
// and returns them so their orders can be updated.
func (u *SweepUseCase) ExpiredAttempts(ctx context.Context, limit int) ([]model.OrderPayment, error) {
	now := u.now()
	expired, err := u.payments.ExpireStale(ctx, now.Add(-u.pendingExpiry), limit, now)
	if err != nil {
		return nil, err
	}
	if len(expired) > 0 {
		u.metrics.SweepResolved(metrics.SweepExpired, len(expired))
		u.logger.Info("expired pending attempts", zap.Int("count", len(expired)))
	}
	return expired, nil
}

// UnadvancedAttempts lists resolved attempts whose result never reached the
// order. Expiries dropped by an interrupted sweep come back here.
func (u *SweepUseCase) UnadvancedAttempts(ctx context.Context, limit int) ([]model.OrderPayment, error) {
	return u.payments.Unsettled(ctx, u.now().Add(-advanceGrace), limit)
}

// FailExpired applies an expiry to the attempt's order.
func (u *SweepUseCase) FailExpired(ctx context.Context, attempt model.OrderPayment) error {
	order, err := u.settlement.Fail(ctx, attempt, model.FailureReasonExpired)
	if err != nil {
		return err
	}
	u.settlement.announce(ctx, order.Number, attempt)
	u.metrics.SweepResolved(metrics.SweepReapplied, 1)
	return nil
}

// CompleteAdvancement finishes the order side of a resolved attempt.
func (u *SweepUseCase) CompleteAdvancement(ctx context.Context, attempt model.OrderPayment) error {
	if attempt.Status == model.PaymentStatusFailed {
		order, err := u.settlement.Fail(ctx, attempt, attempt.FailureReason)
		if err != nil {
			return err
		}
		if attempt.FailureReason == model.FailureReasonExpired {
			u.settlement.announce(ctx, order.Number, attempt)
		}
		u.metrics.SweepResolved(metrics.SweepReapplied, 1)
		u.logger.Warn("applied interrupted payment failure", zap.String("reference", attempt.Reference))
		return nil
	}
	if _, err := u.settlement.Confirm(ctx, attempt); err != nil {
		return err
	}
	u.metrics.SweepResolved(metrics.SweepAdvanced, 1)
	u.logger.Warn("completed interrupted order advancement", zap.String("reference", attempt.Reference))
	return nil
}
