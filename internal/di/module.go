package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/orderpay/internal/adapter/gateway"
	"github.com/polkiloo/orderpay/internal/adapter/gateway/cbe"
	"github.com/polkiloo/orderpay/internal/adapter/gateway/telebirr"
	"github.com/polkiloo/orderpay/internal/app"
	"github.com/polkiloo/orderpay/internal/config"
	"github.com/polkiloo/orderpay/internal/logger"
	"github.com/polkiloo/orderpay/internal/metrics"
	"github.com/polkiloo/orderpay/internal/notify"
	"github.com/polkiloo/orderpay/internal/pkg/auth"
	"github.com/polkiloo/orderpay/internal/pkg/ids"
	"github.com/polkiloo/orderpay/internal/server/http/router"
	"github.com/polkiloo/orderpay/internal/storage/postgres"
	"github.com/polkiloo/orderpay/internal/telemetry"
	"github.com/polkiloo/orderpay/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		telemetry.Module,
		metrics.Module,
		ids.Module,
		notify.Module,
		auth.Module,
		postgres.Module,
		fx.Provide(func(s *postgres.Storage) app.Pinger { return s }),
		cbe.Module,
		telebirr.Module,
		gateway.Module,
		usecase.Module,
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
