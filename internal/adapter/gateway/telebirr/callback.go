package telebirr

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/polkiloo/orderpay/internal/adapter/gateway"
	domainErrors "github.com/polkiloo/orderpay/internal/domain/errors"
	"github.com/polkiloo/orderpay/internal/domain/model"
)

// ParseCallback decodes a signed result notification.
func (c *Client) ParseCallback(payload []byte) (gateway.CallbackResult, error) {
	var env inbound[resultNotification]
	if err := xml.Unmarshal(payload, &env); err != nil {
		return gateway.CallbackResult{}, &domainErrors.InvalidPayloadError{Gateway: Code, Reason: "malformed envelope"}
	}
	n := env.Body.Content
	reference := strings.TrimSpace(n.ThirdPartyID)
	if reference == "" {
		return gateway.CallbackResult{}, &domainErrors.InvalidPayloadError{Gateway: Code, Reason: "reference missing"}
	}
	if err := c.signer.VerifyFields(n.Signature, n.ThirdPartyID, n.TransID, n.ResultCode); err != nil {
		return gateway.CallbackResult{}, &domainErrors.InvalidPayloadError{Gateway: Code, Reason: "signature mismatch"}
	}

	res := gateway.CallbackResult{Reference: reference, GatewayTransactionID: strings.TrimSpace(n.TransID)}
	code, err := strconv.Atoi(strings.TrimSpace(n.ResultCode))
	switch {
	case err != nil:
		res.FailureReason = model.FailureReasonParseError
	case code == resultOK:
		res.Success = true
	default:
		res.FailureReason = describe(code, n.ResultDesc)
	}
	return res, nil
}

// Acknowledge replies with a SOAP callback response.
func (c *Client) Acknowledge(status gateway.AckStatus) gateway.Ack {
	resp := callbackResponse{ResultCode: 0, ResultDesc: "Accepted"}
	switch status {
	case gateway.AckNotFound:
		resp = callbackResponse{ResultCode: 1, ResultDesc: "Unknown transaction"}
	case gateway.AckRejected:
		resp = callbackResponse{ResultCode: 2, ResultDesc: "Rejected"}
	case gateway.AckRetry:
		resp = callbackResponse{ResultCode: 3, ResultDesc: "Temporarily unavailable"}
	}
	body, _ := xml.Marshal(wrap(resp))
	return gateway.Ack{ContentType: contentType, Body: append([]byte(xml.Header), body...)}
}
