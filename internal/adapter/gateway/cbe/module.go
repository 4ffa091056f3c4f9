package cbe

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
	if p.Config.CBEBaseURL == "" {
		p.Logger.Info("cbe gateway disabled")
		return nil, nil
	}
	return NewClient(Options{
		BaseURL:   p.Config.CBEBaseURL,
		Secret:    p.Config.CBESecret,
		ReturnURL: p.Config.CBEReturnURL,
		Timeout:   p.Config.GatewayTimeout,
	}, p.Logger)
}
