package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
)

var ErrInvalidSignature = errors.New("invalid signature")

// HMACSigner signs gateway payloads with a shared secret using HMAC-SHA256.
type HMACSigner struct {
	secret []byte
}

// NewHMACSigner builds HMACSigner with provided secret.
func NewHMACSigner(secret string) *HMACSigner {
	return &HMACSigner{secret: []byte(secret)}
}

// Sign returns the base64 encoded signature of payload.
func (s *HMACSigner) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// SignFields signs fields joined with '|'.
func (s *HMACSigner) SignFields(fields ...string) string {
	return s.Sign([]byte(strings.Join(fields, "|")))
}

// Verify checks signature against payload in constant time.
func (s *HMACSigner) Verify(payload []byte, signature string) error {
	if signature == "" {
		return ErrInvalidSignature
	}
	if !hmac.Equal([]byte(s.Sign(payload)), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

// VerifyFields checks a signature produced by SignFields.
func (s *HMACSigner) VerifyFields(signature string, fields ...string) error {
	return s.Verify([]byte(strings.Join(fields, "|")), signature)
}
