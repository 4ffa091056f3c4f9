package usecase

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/polkiloo/orderpay/internal/adapter/gateway"
	"github.com/polkiloo/orderpay/internal/config"
	"github.com/polkiloo/orderpay/internal/domain/repository"
	"github.com/polkiloo/orderpay/internal/metrics"
	"github.com/polkiloo/orderpay/internal/pkg/ids"
)

// Module provides core business use cases to the fx container.
var Module = fx.Provide(
	NewOrderUseCase,
	NewSettlement,
	NewReconciler,
	NewLifecycleUseCase,
	provideRetryPolicy,
	providePaymentUseCase,
	provideSweepUseCase,
)

func provideRetryPolicy(cfg *config.Config) (*RetryPolicy, error) {
	return NewRetryPolicy(cfg.RetryPolicy)
}

type paymentParams struct {
	fx.In

	Config     *config.Config
	Orders     repository.OrderRepository
	Payments   repository.PaymentRepository
	Gateways   *gateway.Registry
	IDs        ids.Generator
	Policy     *RetryPolicy
	Settlement *Settlement
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
}

func providePaymentUseCase(p paymentParams) *PaymentUseCase {
	return NewPaymentUseCase(p.Orders, p.Payments, p.Gateways, p.IDs, p.Policy, p.Settlement, p.Metrics, p.Logger, PaymentSettings{
		GatewayTimeout: p.Config.GatewayTimeout,
		StaleAfter:     p.Config.AttemptStaleAfter,
	})
}

func provideSweepUseCase(cfg *config.Config, payments repository.PaymentRepository, settlement *Settlement, m *metrics.Metrics, logger *zap.Logger) *SweepUseCase {
	return NewSweepUseCase(payments, settlement, m, logger, cfg.PendingExpiry)
}
