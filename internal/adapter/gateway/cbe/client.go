// Package cbe implements the card and account redirect gateway. Checkouts are
// created over a signed JSON API and results arrive as signed JSON callbacks.
package cbe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/polkiloo/orderpay/internal/adapter/gateway"
	domainErrors "github.com/polkiloo/orderpay/internal/domain/errors"
	"github.com/polkiloo/orderpay/internal/pkg/auth"
)

// Code identifies the gateway.
const Code = "cbe"

const (
	checkoutPath    = "/api/v1/checkouts"
	signatureHeader = "X-Signature"
	maxResponseSize = 1 << 20
)

// Options configure the client.
type Options struct {
	BaseURL   string
	Secret    string
	ReturnURL string
	Timeout   time.Duration
}

// Client implements gateway.Adapter.
type Client struct {
	baseURL    *url.URL
	returnURL  string
	signer     *auth.HMACSigner
	httpClient *http.Client
	logger     *zap.Logger
}

var _ gateway.Adapter = (*Client)(nil)

type checkoutRequest struct {
	Reference   string `json:"reference"`
	OrderNumber string `json:"orderNumber"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Method      string `json:"method"`
	ReturnURL   string `json:"returnUrl,omitempty"`
}

type checkoutResponse struct {
	Status        string `json:"status"`
	CheckoutURL   string `json:"checkoutUrl"`
	TransactionID string `json:"transactionId"`
	Message       string `json:"message"`
	Retryable     bool   `json:"retryable"`
}

// NewClient validates options and creates the adapter.
func NewClient(opts Options, logger *zap.Logger) (*Client, error) {
	parsed, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse cbe url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("cbe url must be absolute")
	}
	if opts.Secret == "" {
		return nil, fmt.Errorf("cbe secret must be provided")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:   parsed,
		returnURL: opts.ReturnURL,
		signer:    auth.NewHMACSigner(opts.Secret),
		logger:    logger.Named("cbe"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

func (c *Client) Code() string { return Code }

func (c *Client) Exclusive() bool { return false }

func (c *Client) Variants() []string { return []string{"CARD", "ACCOUNT"} }

// Initiate creates a hosted checkout and returns its URL.
func (c *Client) Initiate(ctx context.Context, req gateway.InitiationRequest) (gateway.InitiationOutcome, gateway.Exchange, error) {
	var ex gateway.Exchange

	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = c.returnURL
	}
	body, err := json.Marshal(checkoutRequest{
		Reference:   req.Reference,
		OrderNumber: req.OrderNumber,
		Amount:      req.Amount.StringFixed(2),
		Currency:    req.Currency,
		Method:      req.Variant,
		ReturnURL:   returnURL,
	})
	if err != nil {
		return nil, ex, err
	}
	ex.Request = body

	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, checkoutPath)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, ex, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(signatureHeader, c.signer.Sign(body))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, ex, &domainErrors.GatewayCommunicationError{Gateway: Code, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	ex.Response = raw
	if err != nil {
		return nil, ex, &domainErrors.GatewayCommunicationError{Gateway: Code, Err: err}
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		c.logger.Warn("checkout request failed", zap.Int("status", resp.StatusCode), zap.String("reference", req.Reference))
		return nil, ex, &domainErrors.GatewayCommunicationError{Gateway: Code, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	case resp.StatusCode == http.StatusTooManyRequests:
		return gateway.ImmediateFailure{Reason: "RATE_LIMITED", Retryable: true}, ex, nil
	case resp.StatusCode >= http.StatusBadRequest:
		var data checkoutResponse
		_ = json.Unmarshal(raw, &data)
		reason := data.Message
		if reason == "" {
			reason = resp.Status
		}
		return gateway.ImmediateFailure{Reason: reason, Retryable: false}, ex, nil
	}

	var data checkoutResponse
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, ex, &domainErrors.GatewayCommunicationError{Gateway: Code, Err: fmt.Errorf("decode checkout response: %w", err)}
	}

	switch strings.ToLower(data.Status) {
	case "ok", "created":
		if data.CheckoutURL == "" {
			return nil, ex, &domainErrors.GatewayCommunicationError{Gateway: Code, Err: errors.New("checkout url missing")}
		}
		return gateway.Redirect{URL: data.CheckoutURL, GatewayReference: data.TransactionID}, ex, nil
	case "paid":
		return gateway.ImmediateSuccess{GatewayReference: data.TransactionID}, ex, nil
	default:
		reason := data.Message
		if reason == "" {
			reason = "DECLINED"
		}
		return gateway.ImmediateFailure{Reason: reason, Retryable: data.Retryable}, ex, nil
	}
}
