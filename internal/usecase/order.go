package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	domainErrors "github.com/polkiloo/orderpay/internal/domain/errors"
	"github.com/polkiloo/orderpay/internal/domain/lifecycle"
	"github.com/polkiloo/orderpay/internal/domain/model"
	"github.com/polkiloo/orderpay/internal/domain/repository"
	"github.com/polkiloo/orderpay/internal/pkg/ids"
)

// CreateOrderItem is one requested order line.
type CreateOrderItem struct {
	ProviderProductRef string
	Quantity           int
	UnitPrice          decimal.Decimal
}

// CreateOrderCommand carries the checkout snapshot of a new order.
type CreateOrderCommand struct {
	Currency          string
	Subtotal          decimal.Decimal
	DiscountAmount    decimal.Decimal
	DeliveryFee       decimal.Decimal
	AdditionalCharges decimal.Decimal
	Items             []CreateOrderItem
}

// TrackingView is what a customer sees for an order.
type TrackingView struct {
	OrderNumber string
	Status      model.CustomerStatus
	Events      []model.TrackingEvent
}

// OrderUseCase creates orders and answers read queries.
type OrderUseCase struct {
	orders   repository.OrderRepository
	payments repository.PaymentRepository
	ids      ids.Generator
	logger   *zap.Logger
	now      func() time.Time
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(orders repository.OrderRepository, payments repository.PaymentRepository, gen ids.Generator, logger *zap.Logger) *OrderUseCase {
	return &OrderUseCase{orders: orders, payments: payments, ids: gen, logger: logger.Named("orders"), now: time.Now}
}

// Create validates the snapshot, rounds amounts and stores a PENDING order.
func (u *OrderUseCase) Create(ctx context.Context, cmd CreateOrderCommand) (*model.Order, error) {
	if err := validateCreate(cmd); err != nil {
		return nil, err
	}

	now := u.now()
	order := &model.Order{
		Number:            u.ids.OrderNumber(),
		Stage:             model.StagePending,
		PaymentStatus:     model.PaymentStatusPending,
		RefundStatus:      model.RefundStatusNone,
		Subtotal:          model.RoundMoney(cmd.Subtotal),
		DiscountAmount:    model.RoundMoney(cmd.DiscountAmount),
		DeliveryFee:       model.RoundMoney(cmd.DeliveryFee),
		AdditionalCharges: model.RoundMoney(cmd.AdditionalCharges),
		Currency:          strings.ToUpper(strings.TrimSpace(cmd.Currency)),
		OrderedAt:         now,
		UpdatedAt:         now,
	}
	order.TotalAmount = model.OrderTotal(order.Subtotal, order.DiscountAmount, order.DeliveryFee, order.AdditionalCharges)
	if order.TotalAmount.Sign() <= 0 {
		return nil, domainErrors.NewValidationError("totalAmount", "order total must be positive", domainErrors.ErrInvalidAmount)
	}
	for _, it := range cmd.Items {
		order.Items = append(order.Items, model.OrderItem{
			ProviderProductRef: strings.TrimSpace(it.ProviderProductRef),
			Quantity:           it.Quantity,
			UnitPrice:          model.RoundMoney(it.UnitPrice),
			Stage:              model.StagePending,
		})
	}

	created, err := u.orders.Create(ctx, order, []model.TrackingEvent{lifecycle.Placed(order, now)})
	if err != nil {
		return nil, err
	}
	u.logger.Info("order created", zap.String("order", created.Number), zap.String("total", created.TotalAmount.StringFixed(model.MoneyScale)))
	return created, nil
}

func validateCreate(cmd CreateOrderCommand) error {
	currency := strings.TrimSpace(cmd.Currency)
	if len(currency) != 3 {
		return domainErrors.NewValidationError("currency", "must be a three letter code", nil)
	}
	amounts := []struct {
		field string
		value decimal.Decimal
	}{
		{"subtotal", cmd.Subtotal},
		{"discountAmount", cmd.DiscountAmount},
		{"deliveryFee", cmd.DeliveryFee},
		{"additionalCharges", cmd.AdditionalCharges},
	}
	for _, a := range amounts {
		if a.value.IsNegative() {
			return domainErrors.NewValidationError(a.field, "must not be negative", domainErrors.ErrInvalidAmount)
		}
	}
	if len(cmd.Items) == 0 {
		return domainErrors.NewValidationError("items", "at least one item is required", nil)
	}
	for i, it := range cmd.Items {
		field := fmt.Sprintf("items[%d]", i)
		if strings.TrimSpace(it.ProviderProductRef) == "" {
			return domainErrors.NewValidationError(field+".providerProductRef", "is required", nil)
		}
		if it.Quantity < 1 {
			return domainErrors.NewValidationError(field+".quantity", "must be at least 1", nil)
		}
		if it.UnitPrice.IsNegative() {
			return domainErrors.NewValidationError(field+".unitPrice", "must not be negative", domainErrors.ErrInvalidAmount)
		}
	}
	return nil
}

// Get returns the order with its items and timeline.
func (u *OrderUseCase) Get(ctx context.Context, number string) (*model.Order, error) {
	order, err := findOrder(ctx, u.orders, number)
	if err != nil {
		return nil, err
	}
	if order.Events, err = u.orders.Timeline(ctx, order.ID); err != nil {
		return nil, err
	}
	return order, nil
}

// Payments returns the attempt ledger of an order, oldest first.
func (u *OrderUseCase) Payments(ctx context.Context, number string) ([]model.OrderPayment, error) {
	order, err := findOrder(ctx, u.orders, number)
	if err != nil {
		return nil, err
	}
	return u.payments.ListByOrder(ctx, order.ID)
}

// Payment returns one attempt by reference.
func (u *OrderUseCase) Payment(ctx context.Context, reference string) (*model.OrderPayment, error) {
	return u.payments.GetByReference(ctx, reference)
}

// Timeline returns every tracking event of an order, visible or not.
func (u *OrderUseCase) Timeline(ctx context.Context, number string) ([]model.TrackingEvent, error) {
	order, err := findOrder(ctx, u.orders, number)
	if err != nil {
		return nil, err
	}
	return u.orders.Timeline(ctx, order.ID)
}

// Tracking returns the customer view: derived status and visible events.
func (u *OrderUseCase) Tracking(ctx context.Context, number string) (*TrackingView, error) {
	order, err := u.Get(ctx, number)
	if err != nil {
		return nil, err
	}
	return &TrackingView{
		OrderNumber: order.Number,
		Status:      lifecycle.DeriveCustomerStatus(order),
		Events:      lifecycle.CustomerTimeline(order.Events),
	}, nil
}

// findOrder loads an order by number. Numbers failing the check digit are
// reported as not found without a lookup.
func findOrder(ctx context.Context, orders repository.OrderRepository, number string) (*model.Order, error) {
	if !ids.ValidOrderNumber(number) {
		return nil, domainErrors.ErrNotFound
	}
	return orders.GetByNumber(ctx, number)
}
