package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/polkiloo/orderpay/internal/domain/errors"
	"github.com/polkiloo/orderpay/internal/domain/model"
	"github.com/polkiloo/orderpay/internal/pkg/ids"
)

func TestOrderCreateStoresPendingOrder(t *testing.T) {
	h := newHarness(t)
	order := h.placeOrder(t)

	assert.True(t, strings.HasPrefix(order.Number, ids.OrderNumberPrefix))
	assert.Equal(t, model.StagePending, order.Stage)
	assert.Equal(t, model.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, model.RefundStatusNone, order.RefundStatus)
	assert.Equal(t, "1250.00", order.TotalAmount.StringFixed(2))
	assert.Equal(t, "ETB", order.Currency)
	require.Len(t, order.Items, 2)
	for _, it := range order.Items {
		assert.NotZero(t, it.ID)
		assert.Equal(t, model.StagePending, it.Stage)
		assert.False(t, it.Paid)
	}

	events := h.timeline(t, order.ID)
	require.Len(t, events, 1)
	assert.Equal(t, model.StagePending, events[0].Stage)
	assert.Equal(t, 1, events[0].Sequence)
}

func TestOrderCreateRoundsHalfUp(t *testing.T) {
	h := newHarness(t)
	order, err := h.orders.Create(context.Background(), CreateOrderCommand{
		Currency:       "etb",
		Subtotal:       decimal.RequireFromString("10.005"),
		DiscountAmount: decimal.RequireFromString("0.004"),
		Items:          []CreateOrderItem{{ProviderProductRef: "SKU", Quantity: 2, UnitPrice: decimal.RequireFromString("5.0025")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "10.01", order.Subtotal.StringFixed(2))
	assert.Equal(t, "0.00", order.DiscountAmount.StringFixed(2))
	assert.Equal(t, "10.01", order.TotalAmount.StringFixed(2))
	assert.Equal(t, "ETB", order.Currency)
	assert.Equal(t, "5.00", order.Items[0].UnitPrice.StringFixed(2))
}

func TestOrderCreateValidation(t *testing.T) {
	item := []CreateOrderItem{{ProviderProductRef: "SKU", Quantity: 1, UnitPrice: decimal.NewFromInt(1)}}
	cases := []struct {
		name  string
		cmd   CreateOrderCommand
		field string
	}{
		{"currency", CreateOrderCommand{Currency: "BIRR", Subtotal: decimal.NewFromInt(1), Items: item}, "currency"},
		{"negative discount", CreateOrderCommand{Currency: "ETB", Subtotal: decimal.NewFromInt(1), DiscountAmount: decimal.NewFromInt(-1), Items: item}, "discountAmount"},
		{"no items", CreateOrderCommand{Currency: "ETB", Subtotal: decimal.NewFromInt(1)}, "items"},
		{"zero quantity", CreateOrderCommand{Currency: "ETB", Subtotal: decimal.NewFromInt(1), Items: []CreateOrderItem{{ProviderProductRef: "SKU"}}}, "items[0].quantity"},
		{"missing ref", CreateOrderCommand{Currency: "ETB", Subtotal: decimal.NewFromInt(1), Items: []CreateOrderItem{{Quantity: 1}}}, "items[0].providerProductRef"},
		{"zero total", CreateOrderCommand{Currency: "ETB", Subtotal: decimal.NewFromInt(5), DiscountAmount: decimal.NewFromInt(5), Items: item}, "totalAmount"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			_, err := h.orders.Create(context.Background(), tc.cmd)
			var verr *domainErrors.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestOrderQueries(t *testing.T) {
	h := newHarness(t)
	order := h.placeOrder(t)
	res := h.initiate(t, order.Number, "cbe")

	got, err := h.orders.Get(context.Background(), order.Number)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
	require.NotEmpty(t, got.Events)
	assert.Equal(t, order.ID, got.Events[0].OrderID)

	payments, err := h.orders.Payments(context.Background(), order.Number)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, res.Reference, payments[0].Reference)

	payment, err := h.orders.Payment(context.Background(), res.Reference)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPending, payment.Status)

	view, err := h.orders.Tracking(context.Background(), order.Number)
	require.NoError(t, err)
	assert.Equal(t, model.CustomerStatusUnpaid, view.Status)
	assert.Len(t, view.Events, 1)

	_, err = h.orders.Timeline(context.Background(), "ORD-missing")
	assert.ErrorIs(t, err, domainErrors.ErrNotFound)
}

func TestOrderLookupRejectsBadCheckDigit(t *testing.T) {
	h := newHarness(t)
	order := h.placeOrder(t)
	require.True(t, ids.ValidOrderNumber(order.Number))

	last := order.Number[len(order.Number)-1]
	typo := order.Number[:len(order.Number)-1] + string('0'+(last-'0'+1)%10)

	_, err := h.orders.Tracking(context.Background(), typo)
	assert.ErrorIs(t, err, domainErrors.ErrNotFound)
	_, err = h.payments.InitiatePayment(context.Background(), InitiatePaymentCommand{OrderNumber: typo, Gateway: "cbe"})
	assert.ErrorIs(t, err, domainErrors.ErrNotFound)
}
