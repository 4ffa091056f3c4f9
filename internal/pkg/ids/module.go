package ids

import (
	"go.uber.org/fx"

	"github.com/polkiloo/orderpay/internal/config"
)

// Module provides the identifier generator.
var Module = fx.Provide(
	func(cfg *config.Config) (Generator, error) {
		return NewSnowflake(cfg.NodeID)
	},
)
