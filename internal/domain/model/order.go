package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is shared by orders and payment attempts.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// Terminal reports whether the status can no longer change.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusSuccess || s == PaymentStatusFailed
}

// RefundStatus tracks money flowing back to the customer.
type RefundStatus string

const (
	RefundStatusNone       RefundStatus = "NONE"
	RefundStatusRequested  RefundStatus = "REQUESTED"
	RefundStatusProcessing RefundStatus = "PROCESSING"
	RefundStatusApproved   RefundStatus = "APPROVED"
	RefundStatusPartial    RefundStatus = "PARTIAL"
	RefundStatusFull       RefundStatus = "FULL"
)

// CustomerStatus is the simplified status shown to customers. It is derived, never stored.
type CustomerStatus string

const (
	CustomerStatusUnpaid     CustomerStatus = "UNPAID"
	CustomerStatusProcessing CustomerStatus = "PROCESSING"
	CustomerStatusShipped    CustomerStatus = "SHIPPED"
	CustomerStatusDelivered  CustomerStatus = "DELIVERED"
	CustomerStatusCancelled  CustomerStatus = "CANCELLED"
	CustomerStatusRefunded   CustomerStatus = "REFUNDED"
)

// Order is the aggregate root of a purchase.
type Order struct {
	ID            int64
	Number        string
	Stage         Stage
	HeldFrom      *Stage
	PaymentStatus PaymentStatus
	RefundStatus  RefundStatus

	Subtotal          decimal.Decimal
	DiscountAmount    decimal.Decimal
	DeliveryFee       decimal.Decimal
	AdditionalCharges decimal.Decimal
	TotalAmount       decimal.Decimal
	Currency          string

	OrderedAt          time.Time
	PaymentConfirmedAt *time.Time
	CompletedAt        *time.Time
	CancelledAt        *time.Time
	RefundInitiatedAt  *time.Time
	RefundCompletedAt  *time.Time
	UpdatedAt          time.Time

	Items []OrderItem
	// Events holds the timeline when the read loaded it; repositories leave it nil.
	Events []TrackingEvent
}

// OrderItem is one line of an order with its own logistics stage.
type OrderItem struct {
	ID                 int64
	OrderID            int64
	ProviderProductRef string
	Quantity           int
	UnitPrice          decimal.Decimal
	Stage              Stage
	Paid               bool
	PaidAt             *time.Time
}

// ItemStages returns the stages of the order items, or the order stage for item-less orders.
func (o *Order) ItemStages() []Stage {
	if len(o.Items) == 0 {
		return []Stage{o.Stage}
	}
	stages := make([]Stage, 0, len(o.Items))
	for _, it := range o.Items {
		stages = append(stages, it.Stage)
	}
	return stages
}

// Item finds an item by id.
func (o *Order) Item(id int64) (*OrderItem, bool) {
	for i := range o.Items {
		if o.Items[i].ID == id {
			return &o.Items[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy suitable for snapshot comparison.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Items = append([]OrderItem(nil), o.Items...)
	c.Events = append([]TrackingEvent(nil), o.Events...)
	return &c
}
