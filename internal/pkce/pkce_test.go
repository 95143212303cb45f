package pkce

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"
)

func TestNewPair(t *testing.T) {
	pair := New()
	if pair.Verifier == "" || pair.Challenge == "" {
		t.Fatalf("pair = %+v", pair)
	}

	sum := sha256.Sum256([]byte(pair.Verifier))
	want := base64.RawURLEncoding.EncodeToString(sum[:])
	if pair.Challenge != want {
		t.Fatalf("challenge = %q, want %q", pair.Challenge, want)
	}

	other := New()
	if other.Verifier == pair.Verifier {
		t.Fatalf("verifiers must be unique per pair")
	}
}

func TestChallengeS256(t *testing.T) {
	// RFC 7636 appendix B vector.
	got := ChallengeS256("dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk")
	want := "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"
	if got != want {
		t.Fatalf("challenge = %q, want %q", got, want)
	}
}

func TestNewState(t *testing.T) {
	a, err := NewState()
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	b, err := NewState()
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	if a == "" || a == b {
		t.Fatalf("states must be non-empty and unique: %q %q", a, b)
	}
	if _, err := base64.RawURLEncoding.DecodeString(a); err != nil {
		t.Fatalf("state is not base64url: %v", err)
	}
}
