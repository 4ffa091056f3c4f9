// Package telebirr implements the mobile money gateway. A SOAP request pushes
// a USSD prompt to the payer's phone; the outcome arrives as a SOAP notification.
package telebirr

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/polkiloo/orderpay/internal/adapter/gateway"
	domainErrors "github.com/polkiloo/orderpay/internal/domain/errors"
	"github.com/polkiloo/orderpay/internal/pkg/auth"
)

// Code identifies the gateway.
const Code = "telebirr"

const (
	pushPath        = "/ussd/push"
	contentType     = "text/xml; charset=utf-8"
	maxResponseSize = 1 << 20
)

// Result codes returned by the push endpoint.
const (
	resultOK          = 0
	resultBusy        = 1001
	resultUnavailable = 1002
)

var phonePattern = regexp.MustCompile(`^(\+?251|0)?9\d{8}$`)

// Options configure the client.
type Options struct {
	BaseURL   string
	ShortCode string
	AppKey    string
	Timeout   time.Duration
}

// Client implements gateway.Adapter and gateway.RequestValidator.
type Client struct {
	baseURL    *url.URL
	shortCode  string
	signer     *auth.HMACSigner
	httpClient *http.Client
	logger     *zap.Logger
}

var (
	_ gateway.Adapter          = (*Client)(nil)
	_ gateway.RequestValidator = (*Client)(nil)
)

// NewClient validates options and creates the adapter.
func NewClient(opts Options, logger *zap.Logger) (*Client, error) {
	parsed, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse telebirr url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("telebirr url must be absolute")
	}
	if opts.ShortCode == "" || opts.AppKey == "" {
		return nil, fmt.Errorf("telebirr short code and app key must be provided")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:   parsed,
		shortCode: opts.ShortCode,
		signer:    auth.NewHMACSigner(opts.AppKey),
		logger:    logger.Named("telebirr"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

func (c *Client) Code() string { return Code }

func (c *Client) Exclusive() bool { return false }

func (c *Client) Variants() []string { return []string{"USSD"} }

// ValidateRequest requires an Ethiopian mobile number to push the prompt to.
func (c *Client) ValidateRequest(req gateway.InitiationRequest) error {
	if !phonePattern.MatchString(strings.TrimSpace(req.PayerPhone)) {
		return domainErrors.NewValidationError("payerPhone", "a valid mobile number is required", nil)
	}
	return nil
}

// Initiate pushes a USSD payment prompt to the payer.
func (c *Client) Initiate(ctx context.Context, req gateway.InitiationRequest) (gateway.InitiationOutcome, gateway.Exchange, error) {
	var ex gateway.Exchange

	amount := req.Amount.StringFixed(2)
	body, err := xml.Marshal(wrap(pushRequest{
		ShortCode:    c.shortCode,
		ThirdPartyID: req.Reference,
		OrderNumber:  req.OrderNumber,
		Amount:       amount,
		Currency:     req.Currency,
		MSISDN:       strings.TrimSpace(req.PayerPhone),
		Signature:    c.signer.SignFields(c.shortCode, req.Reference, amount),
	}))
	if err != nil {
		return nil, ex, err
	}
	body = append([]byte(xml.Header), body...)
	ex.Request = body

	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, pushPath)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, ex, err
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("SOAPAction", "Push")

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
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("push request failed", zap.Int("status", resp.StatusCode), zap.String("reference", req.Reference))
		return nil, ex, &domainErrors.GatewayCommunicationError{Gateway: Code, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	var env inbound[pushResponse]
	if err := xml.Unmarshal(raw, &env); err != nil {
		return nil, ex, &domainErrors.GatewayCommunicationError{Gateway: Code, Err: fmt.Errorf("decode push response: %w", err)}
	}
	out := env.Body.Content
	code, err := strconv.Atoi(strings.TrimSpace(out.ResultCode))
	if err != nil {
		return nil, ex, &domainErrors.GatewayCommunicationError{Gateway: Code, Err: fmt.Errorf("result code %q: %w", out.ResultCode, err)}
	}

	switch code {
	case resultOK:
		return gateway.Instructions{
			Text:             fmt.Sprintf("Confirm the payment of %s %s on your phone", amount, req.Currency),
			GatewayReference: out.ConversationID,
		}, ex, nil
	case resultBusy, resultUnavailable:
		return gateway.ImmediateFailure{Reason: describe(code, out.ResultDesc), Retryable: true}, ex, nil
	default:
		return gateway.ImmediateFailure{Reason: describe(code, out.ResultDesc), Retryable: false}, ex, nil
	}
}

func describe(code int, desc string) string {
	if desc = strings.TrimSpace(desc); desc != "" {
		return desc
	}
	return "RESULT_" + strconv.Itoa(code)
}
