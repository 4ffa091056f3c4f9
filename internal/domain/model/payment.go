package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// NextAction tells the checkout caller what the customer has to do next.
type NextAction string

const (
	NextActionRedirect            NextAction = "REDIRECT_TO_PAYMENT_URL"
	NextActionAdditionalInput     NextAction = "OPEN_ADDITIONAL_INPUT"
	NextActionRetry               NextAction = "RETRY_PAYMENT"
	NextActionChooseAnotherMethod NextAction = "CHOOSE_ANOTHER_PAYMENT_METHOD"
	NextActionNone                NextAction = "NONE"
)

// Failure reasons recorded by the service itself rather than a gateway.
const (
	FailureReasonExpired    = "EXPIRED"
	FailureReasonSuperseded = "SUPERSEDED"
	FailureReasonParseError = "PARSE_ERROR"
	FailureReasonDuplicate  = "DUPLICATE_PAYMENT"
)

// OrderPayment is one attempt to collect money for an order through one gateway.
type OrderPayment struct {
	ID               int64
	OrderID          int64
	Reference        string
	Gateway          string
	Variant          string
	GatewayReference *string
	Status           PaymentStatus
	FailureReason    string

	InitRequest    []byte
	InitResponse   []byte
	WebhookPayload []byte

	Amount   decimal.Decimal
	Currency string

	CreatedAt       time.Time
	InitRequestedAt *time.Time
	ResolvedAt      *time.Time
	OrderAdvancedAt *time.Time
}

// Resolution is a terminal outcome applied to a pending attempt.
type Resolution struct {
	Reference        string
	Status           PaymentStatus
	GatewayReference string
	FailureReason    string
	WebhookPayload   []byte
	ResolvedAt       time.Time
	// Settled records that the order needs nothing from this resolution,
	// so the sweeper never applies it to the order.
	Settled bool
}

// PaymentInitiationResult is returned to checkout for every initiation or retry.
type PaymentInitiationResult struct {
	Success      bool
	OrderNumber  string
	Reference    string
	Gateway      string
	RedirectURL  string
	Instructions string
	NextAction   NextAction
	Message      string
}
