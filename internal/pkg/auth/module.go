package auth

import (
	"go.uber.org/fx"

	"github.com/polkiloo/orderpay/internal/config"
)

// Module provides authentication primitives via fx.
var Module = fx.Provide(newTokenVerifier)

type verifierParams struct {
	fx.In

	Config *config.Config
}

func newTokenVerifier(p verifierParams) TokenVerifier {
	return NewBcryptVerifier(p.Config.AdminTokenHash)
}
