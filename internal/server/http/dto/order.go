package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItemRequest describes one order line at checkout.
type OrderItemRequest struct {
	ProviderProductRef string          `json:"providerProductRef" binding:"required"`
	Quantity           int             `json:"quantity" binding:"required,min=1"`
	UnitPrice          decimal.Decimal `json:"unitPrice"`
}

// CreateOrderRequest is the checkout snapshot of a new order. Amounts are
// accepted as JSON numbers or strings.
type CreateOrderRequest struct {
	Currency          string             `json:"currency" binding:"required"`
	Subtotal          decimal.Decimal    `json:"subtotal"`
	DiscountAmount    decimal.Decimal    `json:"discountAmount"`
	DeliveryFee       decimal.Decimal    `json:"deliveryFee"`
	AdditionalCharges decimal.Decimal    `json:"additionalCharges"`
	Items             []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// OrderItemResponse is one order line with its logistics stage.
type OrderItemResponse struct {
	ID                 int64      `json:"id"`
	ProviderProductRef string     `json:"providerProductRef"`
	Quantity           int        `json:"quantity"`
	UnitPrice          string     `json:"unitPrice"`
	Stage              string     `json:"stage"`
	Paid               bool       `json:"paid"`
	PaidAt             *time.Time `json:"paidAt,omitempty"`
}

// OrderResponse is the full order view.
type OrderResponse struct {
	Number             string              `json:"number"`
	Stage              string              `json:"stage"`
	HeldFrom           string              `json:"heldFrom,omitempty"`
	CustomerStatus     string              `json:"customerStatus"`
	PaymentStatus      string              `json:"paymentStatus"`
	RefundStatus       string              `json:"refundStatus"`
	Subtotal           string              `json:"subtotal"`
	DiscountAmount     string              `json:"discountAmount"`
	DeliveryFee        string              `json:"deliveryFee"`
	AdditionalCharges  string              `json:"additionalCharges"`
	TotalAmount        string              `json:"totalAmount"`
	Currency           string              `json:"currency"`
	OrderedAt          time.Time           `json:"orderedAt"`
	PaymentConfirmedAt *time.Time          `json:"paymentConfirmedAt,omitempty"`
	CompletedAt        *time.Time          `json:"completedAt,omitempty"`
	CancelledAt        *time.Time          `json:"cancelledAt,omitempty"`
	Items              []OrderItemResponse `json:"items"`
}
