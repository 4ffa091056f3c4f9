package errors

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrAttemptNotFound    = errors.New("payment attempt not found")
	ErrIllegalTransition  = errors.New("illegal stage transition")
	ErrPaymentRequired    = errors.New("payment not confirmed")
	ErrUnsupportedGateway = errors.New("unsupported gateway")
	ErrInvalidAmount      = errors.New("invalid amount")
)

// ValidationError rejects bad input before any attempt is created.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError builds a ValidationError optionally wrapping a sentinel.
func NewValidationError(field, reason string, err error) error {
	return &ValidationError{Field: field, Reason: reason, Err: err}
}

// GatewayCommunicationError wraps timeouts and transport failures talking to a gateway.
type GatewayCommunicationError struct {
	Gateway string
	Err     error
}

func (e *GatewayCommunicationError) Error() string {
	return fmt.Sprintf("gateway %s: communication failed: %v", e.Gateway, e.Err)
}

func (e *GatewayCommunicationError) Unwrap() error { return e.Err }

// AlreadyResolvedError reports a duplicate resolution of a terminal attempt.
type AlreadyResolvedError struct {
	Reference string
	Status    string
}

func (e *AlreadyResolvedError) Error() string {
	return fmt.Sprintf("attempt %s already resolved as %s", e.Reference, e.Status)
}

// InconsistentStateError must never be swallowed: operators are alerted on it.
type InconsistentStateError struct {
	Reference string
	Detail    string
}

func (e *InconsistentStateError) Error() string {
	return fmt.Sprintf("inconsistent state for attempt %s: %s", e.Reference, e.Detail)
}

// InvalidPayloadError reports a structurally invalid gateway callback.
type InvalidPayloadError struct {
	Gateway string
	Reason  string
}

func (e *InvalidPayloadError) Error() string {
	return fmt.Sprintf("gateway %s: invalid callback payload: %s", e.Gateway, e.Reason)
}

// TransitionError reports a rejected stage change.
type TransitionError struct {
	From string
	To   string
	Err  error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition %s -> %s: %v", e.From, e.To, e.Err)
}

func (e *TransitionError) Unwrap() error { return e.Err }
