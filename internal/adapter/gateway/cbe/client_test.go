package cbe

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/polkiloo/orderpay/internal/adapter/gateway"
	domainErrors "github.com/polkiloo/orderpay/internal/domain/errors"
	"github.com/polkiloo/orderpay/internal/pkg/auth"
)

const testSecret = "s3cret"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(Options{BaseURL: srv.URL, Secret: testSecret, ReturnURL: "https://shop/return", Timeout: time.Second}, zap.NewNop())
	require.NoError(t, err)
	return c
}

func testRequest() gateway.InitiationRequest {
	return gateway.InitiationRequest{
		Reference:   "01HZX0000000000000000000AA",
		OrderNumber: "ORD-1",
		Amount:      decimal.RequireFromString("150.5"),
		Currency:    "ETB",
		Variant:     "CARD",
	}
}

func TestNewClientValidatesOptions(t *testing.T) {
	_, err := NewClient(Options{BaseURL: "://bad", Secret: "x"}, zap.NewNop())
	assert.Error(t, err)
	_, err = NewClient(Options{BaseURL: "/relative", Secret: "x"}, zap.NewNop())
	assert.Error(t, err)
	_, err = NewClient(Options{BaseURL: "http://cbe.local"}, zap.NewNop())
	assert.Error(t, err)
}

func TestInitiateRedirect(t *testing.T) {
	var gotBody []byte
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, checkoutPath, r.URL.Path)
		gotBody, _ = io.ReadAll(r.Body)
		assert.NoError(t, auth.NewHMACSigner(testSecret).Verify(gotBody, r.Header.Get(signatureHeader)))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","checkoutUrl":"https://cbe/pay/1","transactionId":"TX-1"}`))
	})

	out, ex, err := c.Initiate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, gateway.Redirect{URL: "https://cbe/pay/1", GatewayReference: "TX-1"}, out)
	assert.Equal(t, gotBody, ex.Request)
	assert.Contains(t, string(ex.Response), "checkoutUrl")

	var sent checkoutRequest
	require.NoError(t, json.Unmarshal(gotBody, &sent))
	assert.Equal(t, "150.50", sent.Amount)
	assert.Equal(t, "https://shop/return", sent.ReturnURL)
	assert.Equal(t, "CARD", sent.Method)
}

func TestInitiateOutcomes(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   gateway.InitiationOutcome
	}{
		{"paid", http.StatusOK, `{"status":"paid","transactionId":"TX-2"}`, gateway.ImmediateSuccess{GatewayReference: "TX-2"}},
		{"declined", http.StatusOK, `{"status":"declined","message":"insufficient funds","retryable":true}`, gateway.ImmediateFailure{Reason: "insufficient funds", Retryable: true}},
		{"declined without message", http.StatusOK, `{"status":"declined"}`, gateway.ImmediateFailure{Reason: "DECLINED"}},
		{"bad request", http.StatusBadRequest, `{"message":"invalid amount"}`, gateway.ImmediateFailure{Reason: "invalid amount"}},
		{"rate limited", http.StatusTooManyRequests, ``, gateway.ImmediateFailure{Reason: "RATE_LIMITED", Retryable: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			out, _, err := c.Initiate(context.Background(), testRequest())
			require.NoError(t, err)
			assert.Equal(t, tc.want, out)
		})
	}
}

func TestInitiateCommunicationErrors(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) }},
		{"garbage body", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`<html>`)) }},
		{"missing url", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"status":"ok"}`)) }},
		{"timeout", func(w http.ResponseWriter, r *http.Request) { time.Sleep(1500 * time.Millisecond) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, tc.handler)
			out, ex, err := c.Initiate(context.Background(), testRequest())
			assert.Nil(t, out)
			assert.NotEmpty(t, ex.Request)
			var commErr *domainErrors.GatewayCommunicationError
			require.True(t, errors.As(err, &commErr), "got %v", err)
			assert.Equal(t, Code, commErr.Gateway)
		})
	}
}

func TestInitiateHonoursContextDeadline(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, _, err := c.Initiate(ctx, testRequest())
	var commErr *domainErrors.GatewayCommunicationError
	require.True(t, errors.As(err, &commErr))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
