package app

import (
	"context"

	"github.com/polkiloo/orderpay/internal/domain/model"
	"github.com/polkiloo/orderpay/internal/usecase"
)

// Pinger reports storage reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OrderPayFacade fronts the use cases for the HTTP layer and the sweeper.
type OrderPayFacade struct {
	orders     *usecase.OrderUseCase
	payments   *usecase.PaymentUseCase
	reconciler *usecase.Reconciler
	lifecycle  *usecase.LifecycleUseCase
	sweep      *usecase.SweepUseCase
	pinger     Pinger
}

func NewOrderPayFacade(
	orders *usecase.OrderUseCase,
	payments *usecase.PaymentUseCase,
	reconciler *usecase.Reconciler,
	lifecycle *usecase.LifecycleUseCase,
	sweep *usecase.SweepUseCase,
	pinger Pinger,
) *OrderPayFacade {
	return &OrderPayFacade{
		orders:     orders,
		payments:   payments,
		reconciler: reconciler,
		lifecycle:  lifecycle,
		sweep:      sweep,
		pinger:     pinger,
	}
}

func (f *OrderPayFacade) CreateOrder(ctx context.Context, cmd usecase.CreateOrderCommand) (*model.Order, error) {
	return f.orders.Create(ctx, cmd)
}

func (f *OrderPayFacade) InitiatePayment(ctx context.Context, cmd usecase.InitiatePaymentCommand) (model.PaymentInitiationResult, error) {
	return f.payments.InitiatePayment(ctx, cmd)
}

func (f *OrderPayFacade) RetryPayment(ctx context.Context, cmd usecase.RetryPaymentCommand) (model.PaymentInitiationResult, error) {
	return f.payments.RetryPayment(ctx, cmd)
}

func (f *OrderPayFacade) Tracking(ctx context.Context, number string) (*usecase.TrackingView, error) {
	return f.orders.Tracking(ctx, number)
}

func (f *OrderPayFacade) Reconcile(ctx context.Context, gateway string, payload []byte) (usecase.ReconciliationOutcome, error) {
	return f.reconciler.Reconcile(ctx, gateway, payload)
}

func (f *OrderPayFacade) Order(ctx context.Context, number string) (*model.Order, error) {
	return f.orders.Get(ctx, number)
}

func (f *OrderPayFacade) OrderPayments(ctx context.Context, number string) ([]model.OrderPayment, error) {
	return f.orders.Payments(ctx, number)
}

func (f *OrderPayFacade) Timeline(ctx context.Context, number string) ([]model.TrackingEvent, error) {
	return f.orders.Timeline(ctx, number)
}

func (f *OrderPayFacade) Payment(ctx context.Context, reference string) (*model.OrderPayment, error) {
	return f.orders.Payment(ctx, reference)
}

func (f *OrderPayFacade) Transition(ctx context.Context, cmd usecase.StageCommand) (*model.Order, error) {
	return f.lifecycle.Transition(ctx, cmd)
}

func (f *OrderPayFacade) RecordMilestone(ctx context.Context, cmd usecase.MilestoneCommand) (model.TrackingEvent, error) {
	return f.lifecycle.RecordMilestone(ctx, cmd)
}

// Ping succeeds when no storage check is configured.
func (f *OrderPayFacade) Ping(ctx context.Context) error {
	if f.pinger == nil {
		return nil
	}
	return f.pinger.Ping(ctx)
}

func (f *OrderPayFacade) ExpiredAttempts(ctx context.Context, limit int) ([]model.OrderPayment, error) {
	return f.sweep.ExpiredAttempts(ctx, limit)
}

func (f *OrderPayFacade) UnadvancedAttempts(ctx context.Context, limit int) ([]model.OrderPayment, error) {
	return f.sweep.UnadvancedAttempts(ctx, limit)
}

func (f *OrderPayFacade) FailExpired(ctx context.Context, attempt model.OrderPayment) error {
	return f.sweep.FailExpired(ctx, attempt)
}

func (f *OrderPayFacade) CompleteAdvancement(ctx context.Context, attempt model.OrderPayment) error {
	return f.sweep.CompleteAdvancement(ctx, attempt)
}
