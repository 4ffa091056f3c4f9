package gateway

import (
	"fmt"
	"sort"
	"strings"

	domainErrors "github.com/polkiloo/orderpay/internal/domain/errors"
)

// Registry resolves adapters by case-insensitive code.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry indexes adapters by code. Duplicate codes are rejected.
func NewRegistry(adapters ...Adapter) (*Registry, error) {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		if a == nil {
			continue
		}
		code := Normalize(a.Code())
		if code == "" {
			return nil, fmt.Errorf("gateway adapter %T has empty code", a)
		}
		if _, dup := r.adapters[code]; dup {
			return nil, fmt.Errorf("gateway %q registered twice", code)
		}
		r.adapters[code] = a
	}
	return r, nil
}

// Normalize lower-cases and trims a gateway code.
func Normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Resolve returns the adapter for code.
func (r *Registry) Resolve(code string) (Adapter, error) {
	a, ok := r.adapters[Normalize(code)]
	if !ok {
		return nil, domainErrors.NewValidationError("gateway", fmt.Sprintf("unsupported gateway %q", code), domainErrors.ErrUnsupportedGateway)
	}
	return a, nil
}

// Codes lists registered codes in sorted order.
func (r *Registry) Codes() []string {
	codes := make([]string, 0, len(r.adapters))
	for c := range r.adapters {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// ResolveVariant resolves the adapter and checks that variant is one it offers.
// An empty variant selects the first one.
func (r *Registry) ResolveVariant(code, variant string) (Adapter, string, error) {
	a, err := r.Resolve(code)
	if err != nil {
		return nil, "", err
	}
	variants := a.Variants()
	v := strings.ToUpper(strings.TrimSpace(variant))
	if v == "" {
		if len(variants) == 0 {
			return a, "", nil
		}
		return a, variants[0], nil
	}
	for _, known := range variants {
		if strings.EqualFold(known, v) {
			return a, known, nil
		}
	}
	return nil, "", domainErrors.NewValidationError("variant", fmt.Sprintf("gateway %s does not offer %q", a.Code(), variant), nil)
}
