// Package facadestub holds HTTP facade stubs shared by transport tests.
package facadestub

import (
	"context"

	domainErrors "github.com/polkiloo/orderpay/internal/domain/errors"
	"github.com/polkiloo/orderpay/internal/domain/model"
	testhelpers "github.com/polkiloo/orderpay/internal/test"
	"github.com/polkiloo/orderpay/internal/usecase"
)

// CheckoutFacadeStub provides controllable behaviour for checkout endpoints.
type CheckoutFacadeStub struct {
	CreateFn   func(context.Context, usecase.CreateOrderCommand) (*model.Order, error)
	InitiateFn func(context.Context, usecase.InitiatePaymentCommand) (model.PaymentInitiationResult, error)
	RetryFn    func(context.Context, usecase.RetryPaymentCommand) (model.PaymentInitiationResult, error)
	TrackingFn func(context.Context, string) (*usecase.TrackingView, error)
}

// CreateOrder delegates to provided function or returns a sample order.
func (s CheckoutFacadeStub) CreateOrder(ctx context.Context, cmd usecase.CreateOrderCommand) (*model.Order, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, cmd)
	}
	return testhelpers.SampleOrder(), nil
}

// InitiatePayment delegates to provided function or redirects.
func (s CheckoutFacadeStub) InitiatePayment(ctx context.Context, cmd usecase.InitiatePaymentCommand) (model.PaymentInitiationResult, error) {
	if s.InitiateFn != nil {
		return s.InitiateFn(ctx, cmd)
	}
	return model.PaymentInitiationResult{
		Success:     true,
		OrderNumber: cmd.OrderNumber,
		Reference:   "01REF",
		Gateway:     cmd.Gateway,
		RedirectURL: "https://pay.example/01REF",
		NextAction:  model.NextActionRedirect,
	}, nil
}

// RetryPayment delegates to provided function or redirects.
func (s CheckoutFacadeStub) RetryPayment(ctx context.Context, cmd usecase.RetryPaymentCommand) (model.PaymentInitiationResult, error) {
	if s.RetryFn != nil {
		return s.RetryFn(ctx, cmd)
	}
	return model.PaymentInitiationResult{Success: true, OrderNumber: cmd.OrderNumber, Reference: "01RETRY", NextAction: model.NextActionRedirect}, nil
}

// Tracking delegates to provided function or returns an unpaid view.
func (s CheckoutFacadeStub) Tracking(ctx context.Context, number string) (*usecase.TrackingView, error) {
	if s.TrackingFn != nil {
		return s.TrackingFn(ctx, number)
	}
	return &usecase.TrackingView{OrderNumber: number, Status: model.CustomerStatusUnpaid}, nil
}

// CallbackFacadeStub simulates the reconciler.
type CallbackFacadeStub struct {
	ReconcileFn func(context.Context, string, []byte) (usecase.ReconciliationOutcome, error)
}

// Reconcile delegates to provided function or applies nothing.
func (s CallbackFacadeStub) Reconcile(ctx context.Context, gateway string, payload []byte) (usecase.ReconciliationOutcome, error) {
	if s.ReconcileFn != nil {
		return s.ReconcileFn(ctx, gateway, payload)
	}
	return usecase.ReconciliationOutcome{Kind: usecase.OutcomeAppliedSuccess}, nil
}

// AdminFacadeStub simulates admin reads and stage changes.
type AdminFacadeStub struct {
	OrderFn      func(context.Context, string) (*model.Order, error)
	PaymentsFn   func(context.Context, string) ([]model.OrderPayment, error)
	TimelineFn   func(context.Context, string) ([]model.TrackingEvent, error)
	PaymentFn    func(context.Context, string) (*model.OrderPayment, error)
	TransitionFn func(context.Context, usecase.StageCommand) (*model.Order, error)
	MilestoneFn  func(context.Context, usecase.MilestoneCommand) (model.TrackingEvent, error)
}

// Order returns the sample order by default.
func (s AdminFacadeStub) Order(ctx context.Context, number string) (*model.Order, error) {
	if s.OrderFn != nil {
		return s.OrderFn(ctx, number)
	}
	return testhelpers.SampleOrder(), nil
}

// OrderPayments returns no attempts by default.
func (s AdminFacadeStub) OrderPayments(ctx context.Context, number string) ([]model.OrderPayment, error) {
	if s.PaymentsFn != nil {
		return s.PaymentsFn(ctx, number)
	}
	return nil, nil
}

// Timeline returns no events by default.
func (s AdminFacadeStub) Timeline(ctx context.Context, number string) ([]model.TrackingEvent, error) {
	if s.TimelineFn != nil {
		return s.TimelineFn(ctx, number)
	}
	return nil, nil
}

// Payment reports not found by default.
func (s AdminFacadeStub) Payment(ctx context.Context, reference string) (*model.OrderPayment, error) {
	if s.PaymentFn != nil {
		return s.PaymentFn(ctx, reference)
	}
	return nil, domainErrors.ErrNotFound
}

// Transition returns the sample order by default.
func (s AdminFacadeStub) Transition(ctx context.Context, cmd usecase.StageCommand) (*model.Order, error) {
	if s.TransitionFn != nil {
		return s.TransitionFn(ctx, cmd)
	}
	o := testhelpers.SampleOrder()
	o.Stage = cmd.Stage
	return o, nil
}

// RecordMilestone echoes the note by default.
func (s AdminFacadeStub) RecordMilestone(ctx context.Context, cmd usecase.MilestoneCommand) (model.TrackingEvent, error) {
	if s.MilestoneFn != nil {
		return s.MilestoneFn(ctx, cmd)
	}
	return model.TrackingEvent{Type: model.EventMilestone, Description: cmd.Note.Description, Location: cmd.Note.Location}, nil
}

// HealthFacadeStub reports configured ping error.
type HealthFacadeStub struct {
	Err error
}

// Ping returns configured error.
func (s HealthFacadeStub) Ping(context.Context) error { return s.Err }

// OrderPayFacadeStub aggregates facade dependencies for HTTP layer tests.
type OrderPayFacadeStub struct {
	CheckoutFacadeStub
	CallbackFacadeStub
	AdminFacadeStub
	HealthFacadeStub
}
