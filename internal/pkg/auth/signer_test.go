package auth

import (
	"errors"
	"testing"
)

func TestHMACSignerSignAndVerify(t *testing.T) {
	signer := NewHMACSigner("secret")
	sig := signer.Sign([]byte("payload"))
	if sig == "" {
		t.Fatal("expected non-empty signature")
	}
	if err := signer.Verify([]byte("payload"), sig); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := signer.Verify([]byte("tampered"), sig); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	if err := signer.Verify([]byte("payload"), ""); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for empty signature, got %v", err)
	}
}

func TestHMACSignerDifferentSecrets(t *testing.T) {
	a := NewHMACSigner("a")
	b := NewHMACSigner("b")
	if err := b.Verify([]byte("payload"), a.Sign([]byte("payload"))); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected mismatch across secrets, got %v", err)
	}
}

func TestHMACSignerFields(t *testing.T) {
	signer := NewHMACSigner("secret")
	sig := signer.SignFields("ref", "tx", "SUCCESS")
	if sig != signer.Sign([]byte("ref|tx|SUCCESS")) {
		t.Fatal("expected fields to be joined with '|'")
	}
	if err := signer.VerifyFields(sig, "ref", "tx", "SUCCESS"); err != nil {
		t.Fatalf("verify fields: %v", err)
	}
	if err := signer.VerifyFields(sig, "ref", "tx", "FAILED"); err == nil {
		t.Fatal("expected error for altered field")
	}
}
