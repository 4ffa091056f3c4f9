package dto

import "time"

// InitiatePaymentRequest selects the gateway for a new attempt.
type InitiatePaymentRequest struct {
	Gateway    string `json:"gateway" binding:"required"`
	Variant    string `json:"variant"`
	PayerPhone string `json:"payerPhone"`
	ReturnURL  string `json:"returnUrl"`
}

// RetryPaymentRequest optionally switches gateway for the retry.
type RetryPaymentRequest struct {
	Gateway    string `json:"gateway"`
	Variant    string `json:"variant"`
	PayerPhone string `json:"payerPhone"`
	ReturnURL  string `json:"returnUrl"`
}

// PaymentInitiationResponse tells checkout what to do next.
type PaymentInitiationResponse struct {
	Success      bool   `json:"success"`
	OrderNumber  string `json:"orderNumber"`
	Reference    string `json:"reference"`
	Gateway      string `json:"gateway"`
	RedirectURL  string `json:"redirectUrl,omitempty"`
	Instructions string `json:"instructions,omitempty"`
	NextAction   string `json:"nextAction"`
	Message      string `json:"message,omitempty"`
}

// PaymentResponse is one attempt of the payment ledger.
type PaymentResponse struct {
	Reference        string     `json:"reference"`
	Gateway          string     `json:"gateway"`
	Variant          string     `json:"variant,omitempty"`
	Status           string     `json:"status"`
	FailureReason    string     `json:"failureReason,omitempty"`
	GatewayReference string     `json:"gatewayReference,omitempty"`
	Amount           string     `json:"amount"`
	Currency         string     `json:"currency"`
	CreatedAt        time.Time  `json:"createdAt"`
	ResolvedAt       *time.Time `json:"resolvedAt,omitempty"`
	OrderAdvancedAt  *time.Time `json:"orderAdvancedAt,omitempty"`
}
