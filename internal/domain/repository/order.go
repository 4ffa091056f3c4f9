package repository

import (
	"context"

	"github.com/polkiloo/orderpay/internal/domain/model"
)

// OrderChange is the write set produced by an OrderUpdateFunc. It is applied
// in the same transaction that holds the order row lock.
type OrderChange struct {
	// Events are appended to the timeline with the next sequence numbers.
	Events []model.TrackingEvent
	// NewAttempt is inserted; its ID and CreatedAt are filled in on return.
	NewAttempt *model.OrderPayment
	// Resolutions are applied with compare-and-set from PENDING.
	Resolutions []model.Resolution
	// Advanced lists attempt ids whose order advancement completes with this change.
	Advanced []int64
}

// OrderUpdateFunc mutates the locked order in place. attempts is the order's
// full ledger as committed before the lock was taken.
type OrderUpdateFunc func(order *model.Order, attempts []model.OrderPayment) (OrderChange, error)

// OrderRepository describes persistence operations with orders and their timeline.
type OrderRepository interface {
	// Create inserts the order, its items and initial timeline events.
	Create(ctx context.Context, order *model.Order, events []model.TrackingEvent) (*model.Order, error)
	GetByNumber(ctx context.Context, number string) (*model.Order, error)
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	// Update serializes all mutations of one order.
	Update(ctx context.Context, orderID int64, fn OrderUpdateFunc) (*model.Order, error)
	Timeline(ctx context.Context, orderID int64) ([]model.TrackingEvent, error)
}
