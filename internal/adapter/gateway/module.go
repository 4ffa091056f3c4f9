package gateway

import "go.uber.org/fx"

// AsAdapter tags a constructor returning an Adapter for the gateways value group.
// A constructor may return a nil Adapter when its gateway is not configured.
func AsAdapter(f any) any {
	return fx.Annotate(f, fx.ResultTags(`group:"gateways"`))
}

type registryParams struct {
	fx.In

	Adapters []Adapter `group:"gateways"`
}

// Module provides the registry built from every adapter in the gateways group.
var Module = fx.Provide(func(p registryParams) (*Registry, error) {
	return NewRegistry(p.Adapters...)
})
