package cbe

import (
	"encoding/json"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/polkiloo/orderpay/internal/adapter/gateway"
	domainErrors "github.com/polkiloo/orderpay/internal/domain/errors"
	"github.com/polkiloo/orderpay/internal/domain/model"
)

const callbackSchema = `{
  "type": "object",
  "required": ["reference", "transactionId", "status", "signature"],
  "properties": {
    "reference":     {"type": "string", "minLength": 1},
    "transactionId": {"type": "string"},
    "status":        {"type": "string", "enum": ["SUCCESS", "FAILED"]},
    "reason":        {"type": "string"},
    "signature":     {"type": "string", "minLength": 1}
  }
}`

var callbackSchemaLoader = gojsonschema.NewStringLoader(callbackSchema)

// ParseCallback verifies the callback signature and normalizes the payload.
// Signed payloads that do not match the schema resolve as PARSE_ERROR failures.
func (c *Client) ParseCallback(payload []byte) (gateway.CallbackResult, error) {
	var doc map[string]any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return gateway.CallbackResult{}, &domainErrors.InvalidPayloadError{Gateway: Code, Reason: "malformed json"}
	}

	reference := stringField(doc, "reference")
	txID := stringField(doc, "transactionId")
	status := stringField(doc, "status")
	if strings.TrimSpace(reference) == "" {
		return gateway.CallbackResult{}, &domainErrors.InvalidPayloadError{Gateway: Code, Reason: "reference missing"}
	}
	if err := c.signer.VerifyFields(stringField(doc, "signature"), reference, txID, status); err != nil {
		return gateway.CallbackResult{}, &domainErrors.InvalidPayloadError{Gateway: Code, Reason: "signature mismatch"}
	}

	result, err := gojsonschema.Validate(callbackSchemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil || !result.Valid() {
		if err == nil {
			for _, desc := range result.Errors() {
				c.logger.Warn("callback schema violation", zap.String("reference", reference), zap.String("error", desc.String()))
			}
		}
		return gateway.CallbackResult{
			Reference:            reference,
			GatewayTransactionID: txID,
			FailureReason:        model.FailureReasonParseError,
		}, nil
	}

	res := gateway.CallbackResult{
		Reference:            reference,
		Success:              status == "SUCCESS",
		GatewayTransactionID: txID,
	}
	if !res.Success {
		res.FailureReason = stringField(doc, "reason")
		if res.FailureReason == "" {
			res.FailureReason = "DECLINED"
		}
	}
	return res, nil
}

// Acknowledge replies with a small JSON status document.
func (c *Client) Acknowledge(status gateway.AckStatus) gateway.Ack {
	body, _ := json.Marshal(map[string]string{"status": status.String()})
	return gateway.Ack{ContentType: "application/json", Body: body}
}

func stringField(doc map[string]any, key string) string {
	s, _ := doc[key].(string)
	return s
}
