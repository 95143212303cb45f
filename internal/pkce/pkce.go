// Package pkce generates the proof-of-possession values bound to an
// authorization request: a random verifier, its S256 challenge, and the
// anti-CSRF state token.
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/oauth2"
)

// ChallengeMethod is the only code_challenge_method this SDK emits.
const ChallengeMethod = "S256"

// Pair holds the verifier/challenge values for one authorization attempt.
// The verifier is the secret; only the challenge leaves the client before
// the token exchange.
type Pair struct {
	Verifier  string
	Challenge string
}

// New generates a fresh verifier and derives its S256 challenge. The
// verifier comes from oauth2.GenerateVerifier so the wire format matches
// what the exchange sends back as code_verifier.
func New() Pair {
	verifier := oauth2.GenerateVerifier()
	return Pair{
		Verifier:  verifier,
		Challenge: ChallengeS256(verifier),
	}
}

// ChallengeS256 derives the S256 challenge for a verifier.
func ChallengeS256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// NewState generates a fresh state token for request/response correlation.
func NewState() (string, error) {
	state, err := randomToken(16)
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return state, nil
}

func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
