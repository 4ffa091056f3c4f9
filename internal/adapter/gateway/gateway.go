// Package gateway defines the contract every payment provider adapter fulfils
// and a registry that resolves adapters by their code.
package gateway

import (
	"context"

	"github.com/shopspring/decimal"
)

// Adapter talks to one payment provider. Adapters hold no mutable state after
// construction and are safe for concurrent use.
type Adapter interface {
	Code() string
	// Exclusive adapters forbid concurrent pending attempts on any other gateway.
	Exclusive() bool
	Variants() []string
	// Initiate asks the provider to start collecting money. The returned
	// Exchange carries whatever was sent and received, also on error.
	Initiate(ctx context.Context, req InitiationRequest) (InitiationOutcome, Exchange, error)
	// ParseCallback decodes a provider callback. It never mutates state.
	ParseCallback(payload []byte) (CallbackResult, error)
	// Acknowledge renders the body the provider expects in reply to a callback.
	Acknowledge(status AckStatus) Ack
}

// RequestValidator is implemented by adapters that need extra input from the payer.
type RequestValidator interface {
	ValidateRequest(req InitiationRequest) error
}

// InitiationRequest is what the orchestrator hands to an adapter.
type InitiationRequest struct {
	Reference   string
	OrderNumber string
	Amount      decimal.Decimal
	Currency    string
	Variant     string
	PayerPhone  string
	ReturnURL   string
}

// Exchange keeps the raw initiation traffic for audit.
type Exchange struct {
	Request  []byte
	Response []byte
}

// InitiationOutcome is one of Redirect, Instructions, ImmediateFailure or ImmediateSuccess.
type InitiationOutcome interface {
	isOutcome()
}

// Redirect sends the payer to a hosted payment page.
type Redirect struct {
	URL              string
	GatewayReference string
}

// Instructions asks the payer to complete the payment out of band, e.g. on a phone.
type Instructions struct {
	Text             string
	GatewayReference string
}

// ImmediateFailure is a synchronous decline.
type ImmediateFailure struct {
	Reason    string
	Retryable bool
}

// ImmediateSuccess is a synchronous capture.
type ImmediateSuccess struct {
	GatewayReference string
}

func (Redirect) isOutcome()         {}
func (Instructions) isOutcome()     {}
func (ImmediateFailure) isOutcome() {}
func (ImmediateSuccess) isOutcome() {}

// CallbackResult is a provider callback in normalized form.
type CallbackResult struct {
	Reference            string
	Success              bool
	GatewayTransactionID string
	FailureReason        string
}

// AckStatus selects the acknowledgement returned to a provider.
type AckStatus int

const (
	AckAccepted AckStatus = iota
	AckNotFound
	AckRejected
	// AckRetry asks the provider to deliver the callback again later.
	AckRetry
)

func (s AckStatus) String() string {
	switch s {
	case AckAccepted:
		return "accepted"
	case AckNotFound:
		return "not_found"
	case AckRejected:
		return "rejected"
	case AckRetry:
		return "retry"
	default:
		return "unknown"
	}
}

// Ack is a provider specific acknowledgement body.
type Ack struct {
	ContentType string
	Body        []byte
}
