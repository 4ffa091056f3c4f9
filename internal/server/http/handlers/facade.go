package handlers

import (
	"context"

	"github.com/polkiloo/orderpay/internal/domain/model"
	"github.com/polkiloo/orderpay/internal/usecase"
)

// CheckoutFacade describes the customer facing operations.
type CheckoutFacade interface {
	CreateOrder(ctx context.Context, cmd usecase.CreateOrderCommand) (*model.Order, error)
	InitiatePayment(ctx context.Context, cmd usecase.InitiatePaymentCommand) (model.PaymentInitiationResult, error)
	RetryPayment(ctx context.Context, cmd usecase.RetryPaymentCommand) (model.PaymentInitiationResult, error)
	Tracking(ctx context.Context, number string) (*usecase.TrackingView, error)
}

// CallbackFacade applies asynchronous gateway notifications.
type CallbackFacade interface {
	Reconcile(ctx context.Context, gateway string, payload []byte) (usecase.ReconciliationOutcome, error)
}

// AdminFacade serves operators and logistics collaborators.
type AdminFacade interface {
	Order(ctx context.Context, number string) (*model.Order, error)
	OrderPayments(ctx context.Context, number string) ([]model.OrderPayment, error)
	Timeline(ctx context.Context, number string) ([]model.TrackingEvent, error)
	Payment(ctx context.Context, reference string) (*model.OrderPayment, error)
	Transition(ctx context.Context, cmd usecase.StageCommand) (*model.Order, error)
	RecordMilestone(ctx context.Context, cmd usecase.MilestoneCommand) (model.TrackingEvent, error)
}

// HealthFacade reports storage reachability.
type HealthFacade interface {
	Ping(ctx context.Context) error
}

// OrderPayFacade aggregates the full set of operations used across handlers.
type OrderPayFacade interface {
	CheckoutFacade
	CallbackFacade
	AdminFacade
	HealthFacade
}
