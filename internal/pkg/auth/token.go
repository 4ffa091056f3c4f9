package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken  = errors.New("invalid admin token")
	ErrAdminDisabled = errors.New("admin access is not configured")
)

// TokenVerifier checks bearer tokens presented to the admin surface.
type TokenVerifier interface {
	Verify(token string) error
}

// BcryptVerifier compares tokens against a bcrypt hash from configuration.
type BcryptVerifier struct {
	hash []byte
}

// NewBcryptVerifier creates BcryptVerifier. An empty hash disables admin access.
func NewBcryptVerifier(hash string) *BcryptVerifier {
	return &BcryptVerifier{hash: []byte(hash)}
}

// Verify checks token against stored hash.
func (v *BcryptVerifier) Verify(token string) error {
	if len(v.hash) == 0 {
		return ErrAdminDisabled
	}
	if token == "" {
		return ErrInvalidToken
	}
	if err := bcrypt.CompareHashAndPassword(v.hash, []byte(token)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidToken
		}
		return err
	}
	return nil
}
