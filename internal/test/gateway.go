package test

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/polkiloo/orderpay/internal/adapter/gateway"
	domainErrors "github.com/polkiloo/orderpay/internal/domain/errors"
)

// Callback is the JSON body understood by GatewayStub.ParseCallback.
type Callback struct {
	Reference   string `json:"reference"`
	Success     bool   `json:"success"`
	Transaction string `json:"transaction,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// Payload encodes the callback for GatewayStub.
func (c Callback) Payload() []byte {
	body, _ := json.Marshal(c)
	return body
}

// GatewayStub is a scriptable gateway adapter.
type GatewayStub struct {
	CodeVal      string
	ExclusiveVal bool
	VariantsVal  []string
	InitiateFn   func(context.Context, gateway.InitiationRequest) (gateway.InitiationOutcome, error)

	mu       sync.Mutex
	Requests []gateway.InitiationRequest
}

var _ gateway.Adapter = (*GatewayStub)(nil)

// Code returns the configured code.
func (g *GatewayStub) Code() string { return g.CodeVal }

// Exclusive returns the configured flag.
func (g *GatewayStub) Exclusive() bool { return g.ExclusiveVal }

// Variants defaults to a single DEFAULT variant.
func (g *GatewayStub) Variants() []string {
	if len(g.VariantsVal) == 0 {
		return []string{"DEFAULT"}
	}
	return g.VariantsVal
}

// Initiate records the request and runs InitiateFn, redirecting by default.
func (g *GatewayStub) Initiate(ctx context.Context, req gateway.InitiationRequest) (gateway.InitiationOutcome, gateway.Exchange, error) {
	g.mu.Lock()
	g.Requests = append(g.Requests, req)
	g.mu.Unlock()

	exchange := gateway.Exchange{Request: []byte(`{"reference":"` + req.Reference + `"}`)}
	if g.InitiateFn == nil {
		exchange.Response = []byte(`{"status":"ok"}`)
		return gateway.Redirect{URL: "https://pay.example/" + req.Reference, GatewayReference: "gw-" + req.Reference}, exchange, nil
	}
	out, err := g.InitiateFn(ctx, req)
	if err == nil {
		exchange.Response = []byte(`{}`)
	}
	return out, exchange, err
}

// ParseCallback decodes a Callback body.
func (g *GatewayStub) ParseCallback(payload []byte) (gateway.CallbackResult, error) {
	var cb Callback
	if err := json.Unmarshal(payload, &cb); err != nil || cb.Reference == "" {
		return gateway.CallbackResult{}, &domainErrors.InvalidPayloadError{Gateway: g.CodeVal, Reason: "malformed body"}
	}
	return gateway.CallbackResult{
		Reference:            cb.Reference,
		Success:              cb.Success,
		GatewayTransactionID: cb.Transaction,
		FailureReason:        cb.Reason,
	}, nil
}

// Acknowledge renders the status as plain text.
func (g *GatewayStub) Acknowledge(status gateway.AckStatus) gateway.Ack {
	return gateway.Ack{ContentType: "text/plain", Body: []byte(status.String())}
}

// Calls returns the number of Initiate calls.
func (g *GatewayStub) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Requests)
}
