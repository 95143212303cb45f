package oauth

import "fmt"

// Error kinds carried by AuthError.
const (
	KindSilentAuthTimeout = "silent_auth_timeout"
	KindAuthServerError   = "auth_server_error"
	KindAuthDispatchError = "auth_dispatch_error"
)

// AuthError reports a failed authorization dispatch. It always carries a
// fallback redirect URL (same state and challenge, prompt=login) so the
// caller can recover via a full top-level navigation; the negotiator never
// leaves the caller without an actionable next step.
type AuthError struct {
	Kind                string
	Description         string
	FallbackRedirectURL string
	Cause               error
}

func (e *AuthError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("authorization failed (%s): %s", e.Kind, e.Description)
	}
	return fmt.Sprintf("authorization failed (%s)", e.Kind)
}

func (e *AuthError) Unwrap() error { return e.Cause }

// StateError reports a state-token mismatch between the authorization
// response and the stored context. Only presence is reported, never content,
// so the tokens cannot leak through error messages or logs.
type StateError struct {
	StoredPresent   bool
	ReturnedPresent bool
}

func (e *StateError) Error() string {
	return fmt.Sprintf("state mismatch: stored state present=%t, returned state present=%t", e.StoredPresent, e.ReturnedPresent)
}

// ExchangeError reports a failed code-for-token exchange. Transport-level
// failures, non-2xx token endpoint responses, and empty bodies all normalize
// to this one shape so callers have exactly one thing to branch on.
type ExchangeError struct {
	Description string
	StatusCode  int // 0 when the endpoint was never reached
	Cause       error
}

func (e *ExchangeError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("token exchange failed (status %d): %s", e.StatusCode, e.Description)
	}
	return fmt.Sprintf("token exchange failed: %s", e.Description)
}

func (e *ExchangeError) Unwrap() error { return e.Cause }
