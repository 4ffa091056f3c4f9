package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/polkiloo/orderpay/internal/adapter/gateway"
	"github.com/polkiloo/orderpay/internal/domain/model"
	"github.com/polkiloo/orderpay/internal/metrics"
	"github.com/polkiloo/orderpay/internal/pkg/ids"
	testhelpers "github.com/polkiloo/orderpay/internal/test"
)

type publisherRecorder struct {
	mu       sync.Mutex
	resolved []model.PaymentResolved
	stages   []model.StageChanged
}

func (p *publisherRecorder) PaymentResolved(_ context.Context, ev model.PaymentResolved) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resolved = append(p.resolved, ev)
}

func (p *publisherRecorder) StageChanged(_ context.Context, ev model.StageChanged) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stages = append(p.stages, ev)
}

type harness struct {
	ledger     *testhelpers.Ledger
	cbe        *testhelpers.GatewayStub
	telebirr   *testhelpers.GatewayStub
	gateways   *gateway.Registry
	registry   *prometheus.Registry
	publisher  *publisherRecorder
	metrics    *metrics.Metrics
	logs       *observer.ObservedLogs
	settlement *Settlement
	orders     *OrderUseCase
	payments   *PaymentUseCase
	reconciler *Reconciler
	lifecycle  *LifecycleUseCase
	sweep      *SweepUseCase
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	h := &harness{
		ledger:    testhelpers.NewLedger(),
		cbe:       &testhelpers.GatewayStub{CodeVal: "cbe", VariantsVal: []string{"CARD", "ACCOUNT"}},
		telebirr:  &testhelpers.GatewayStub{CodeVal: "telebirr", VariantsVal: []string{"USSD"}},
		publisher: &publisherRecorder{},
		registry:  prometheus.NewRegistry(),
		logs:      logs,
	}
	h.metrics = metrics.New(h.registry)
	registry, err := gateway.NewRegistry(h.cbe, h.telebirr)
	require.NoError(t, err)
	h.gateways = registry

	gen, err := ids.NewSnowflake(1)
	require.NoError(t, err)
	policy, err := NewRetryPolicy("retryable && attempts < 3")
	require.NoError(t, err)

	h.settlement = NewSettlement(h.ledger, h.ledger, h.publisher, h.metrics, logger)
	h.orders = NewOrderUseCase(h.ledger, h.ledger, gen, logger)
	h.payments = NewPaymentUseCase(h.ledger, h.ledger, registry, gen, policy, h.settlement, h.metrics, logger, PaymentSettings{})
	h.reconciler = NewReconciler(h.ledger, h.ledger, registry, h.settlement, h.metrics, logger)
	h.lifecycle = NewLifecycleUseCase(h.ledger, h.publisher, logger)
	h.sweep = NewSweepUseCase(h.ledger, h.settlement, h.metrics, logger, 0)
	return h
}

func (h *harness) placeOrder(t *testing.T) *model.Order {
	t.Helper()
	order, err := h.orders.Create(context.Background(), CreateOrderCommand{
		Currency:    "ETB",
		Subtotal:    decimal.RequireFromString("1200.00"),
		DeliveryFee: decimal.RequireFromString("50.00"),
		Items: []CreateOrderItem{
			{ProviderProductRef: "SKU-1", Quantity: 1, UnitPrice: decimal.RequireFromString("700")},
			{ProviderProductRef: "SKU-2", Quantity: 1, UnitPrice: decimal.RequireFromString("500")},
		},
	})
	require.NoError(t, err)
	return order
}

func (h *harness) initiate(t *testing.T, number, gw string) model.PaymentInitiationResult {
	t.Helper()
	res, err := h.payments.InitiatePayment(context.Background(), InitiatePaymentCommand{
		OrderNumber: number,
		Gateway:     gw,
		PayerPhone:  "0911223344",
	})
	require.NoError(t, err)
	return res
}

func (h *harness) callback(t *testing.T, gw string, cb testhelpers.Callback) ReconciliationOutcome {
	t.Helper()
	out, err := h.reconciler.Reconcile(context.Background(), gw, cb.Payload())
	require.NoError(t, err)
	return out
}

func (h *harness) order(t *testing.T, number string) *model.Order {
	t.Helper()
	o, err := h.ledger.GetByNumber(context.Background(), number)
	require.NoError(t, err)
	return o
}

func (h *harness) attempt(t *testing.T, reference string) *model.OrderPayment {
	t.Helper()
	a, err := h.ledger.GetByReference(context.Background(), reference)
	require.NoError(t, err)
	return a
}

func (h *harness) timeline(t *testing.T, orderID int64) []model.TrackingEvent {
	t.Helper()
	events, err := h.ledger.Timeline(context.Background(), orderID)
	require.NoError(t, err)
	return events
}
