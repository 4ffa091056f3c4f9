package telebirr

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/polkiloo/orderpay/internal/adapter/gateway"
	"github.com/polkiloo/orderpay/internal/config"
)

// Module registers the adapter when a base URL is configured.
var Module = fx.Provide(gateway.AsAdapter(newAdapter))

type adapterParams struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
}

func newAdapter(p adapterParams) (gateway.Adapter, error) {
	if p.Config.TelebirrBaseURL == "" {
		p.Logger.Info("telebirr gateway disabled")
		return nil, nil
	}
	return NewClient(Options{
		BaseURL:   p.Config.TelebirrBaseURL,
		ShortCode: p.Config.TelebirrShortCode,
		AppKey:    p.Config.TelebirrAppKey,
		Timeout:   p.Config.GatewayTimeout,
	}, p.Logger)
}
