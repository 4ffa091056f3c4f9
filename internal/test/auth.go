package test

import (
	pkgAuth "github.com/polkiloo/orderpay/internal/pkg/auth"
)

// VerifierStub accepts a single token.
type VerifierStub struct {
	Token    string
	VerifyFn func(string) error
}

// Verify delegates to override or compares with Token.
func (s VerifierStub) Verify(token string) error {
	if s.VerifyFn != nil {
		return s.VerifyFn(token)
	}
	if token == "" || token != s.Token {
		return pkgAuth.ErrInvalidToken
	}
	return nil
}

var _ pkgAuth.TokenVerifier = VerifierStub{}
