package oauth

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/journeykit/journey-go/journeytest"
	"github.com/journeykit/journey-go/storage/memory"
)

func newNegotiator(t *testing.T, srv *journeytest.Server, cfg Config, opts ...Option) *Negotiator {
	t.Helper()
	provider, err := Discover(context.Background(), srv.URL(), srv.Client())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "test-client"
	}
	if cfg.RedirectURI == "" {
		cfg.RedirectURI = "https://app.example.com/cb"
	}
	opts = append([]Option{WithHTTPClient(srv.Client())}, opts...)
	neg, err := NewNegotiator(provider, cfg, opts...)
	if err != nil {
		t.Fatalf("NewNegotiator: %v", err)
	}
	return neg
}

func TestAuthorizeAndExchangeJSONMode(t *testing.T) {
	srv, err := journeytest.New(journeytest.Config{ResponseModes: []string{"pi.flow"}})
	if err != nil {
		t.Fatalf("mock server: %v", err)
	}
	defer srv.Close()

	neg := newNegotiator(t, srv, Config{})
	ctx := context.Background()

	res, err := neg.Authorize(ctx)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if res.Code == "" {
		t.Fatalf("authorize returned no code")
	}
	if res.State == "" {
		t.Fatalf("authorize returned no state")
	}

	tokens, err := neg.Exchange(ctx, res.Code, res.State)
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if tokens.AccessToken == "" {
		t.Fatalf("no access token")
	}
	if tokens.IDToken == "" {
		t.Fatalf("no ID token")
	}
	if tokens.TokenType != "Bearer" {
		t.Fatalf("token type = %q", tokens.TokenType)
	}
	// Expiry is absolute, anchored at receipt.
	until := time.Until(tokens.ExpiresAt)
	if until < 55*time.Minute || until > 65*time.Minute {
		t.Fatalf("expires in %v, want about an hour", until)
	}
	if tokens.Expired(0) {
		t.Fatalf("fresh tokens reported expired")
	}
}

func TestAuthorizeEmbeddedDispatch(t *testing.T) {
	// No advertised non-redirect mode: the negotiator follows the redirect
	// chain and harvests code and state off the redirect URI without
	// navigating.
	srv, err := journeytest.New(journeytest.Config{})
	if err != nil {
		t.Fatalf("mock server: %v", err)
	}
	defer srv.Close()

	neg := newNegotiator(t, srv, Config{})
	res, err := neg.Authorize(context.Background())
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if res.Code == "" || res.State == "" {
		t.Fatalf("embedded dispatch returned %+v", res)
	}

	tokens, err := neg.Exchange(context.Background(), res.Code, res.State)
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if tokens.AccessToken == "" {
		t.Fatalf("no access token")
	}
}

func TestSilentTimeout(t *testing.T) {
	srv, err := journeytest.New(journeytest.Config{
		ResponseModes:  []string{"pi.flow"},
		AuthorizeDelay: 2 * time.Second,
	})
	if err != nil {
		t.Fatalf("mock server: %v", err)
	}
	defer srv.Close()

	neg := newNegotiator(t, srv, Config{SilentTimeout: 100 * time.Millisecond})
	_, err = neg.Authorize(context.Background())

	var aerr *AuthError
	if !errors.As(err, &aerr) {
		t.Fatalf("Authorize = %v, want *AuthError", err)
	}
	if aerr.Kind != KindSilentAuthTimeout {
		t.Fatalf("kind = %q, want %q", aerr.Kind, KindSilentAuthTimeout)
	}
	if aerr.FallbackRedirectURL == "" {
		t.Fatalf("no fallback redirect URL on timeout")
	}
	if !strings.Contains(aerr.FallbackRedirectURL, "prompt=login") {
		t.Fatalf("fallback URL %q does not force interaction", aerr.FallbackRedirectURL)
	}
}

func TestInteractionRequiredFallback(t *testing.T) {
	srv, err := journeytest.New(journeytest.Config{InteractionRequired: true})
	if err != nil {
		t.Fatalf("mock server: %v", err)
	}
	defer srv.Close()

	neg := newNegotiator(t, srv, Config{})
	_, err = neg.Authorize(context.Background())

	var aerr *AuthError
	if !errors.As(err, &aerr) {
		t.Fatalf("Authorize = %v, want *AuthError", err)
	}
	if aerr.Kind != KindAuthServerError {
		t.Fatalf("kind = %q", aerr.Kind)
	}

	fallback, perr := url.Parse(aerr.FallbackRedirectURL)
	if perr != nil {
		t.Fatalf("fallback URL unparseable: %v", perr)
	}
	q := fallback.Query()
	if q.Get("prompt") != "login" {
		t.Fatalf("fallback prompt = %q", q.Get("prompt"))
	}
	if q.Get("code_challenge") == "" || q.Get("state") == "" {
		t.Fatalf("fallback URL lost PKCE state: %s", aerr.FallbackRedirectURL)
	}
	// The stored context must still serve the fallback's eventual return:
	// the same state round-trips through a later Exchange.
	if _, err := neg.Exchange(context.Background(), "mock-code", q.Get("state")); err != nil {
		var xerr *ExchangeError
		if !errors.As(err, &xerr) {
			t.Fatalf("Exchange after fallback = %v, want state accepted", err)
		}
	}
}

func TestAuthorizeServerError(t *testing.T) {
	srv, err := journeytest.New(journeytest.Config{
		ResponseModes:  []string{"pi.flow"},
		AuthorizeError: "access_denied",
	})
	if err != nil {
		t.Fatalf("mock server: %v", err)
	}
	defer srv.Close()

	neg := newNegotiator(t, srv, Config{})
	_, err = neg.Authorize(context.Background())

	var aerr *AuthError
	if !errors.As(err, &aerr) {
		t.Fatalf("Authorize = %v, want *AuthError", err)
	}
	if aerr.Kind != KindAuthServerError {
		t.Fatalf("kind = %q", aerr.Kind)
	}
	if aerr.Description != "scripted authorize error" {
		t.Fatalf("description = %q", aerr.Description)
	}
}

func TestExchangeStateMismatch(t *testing.T) {
	srv, err := journeytest.New(journeytest.Config{ResponseModes: []string{"pi.flow"}})
	if err != nil {
		t.Fatalf("mock server: %v", err)
	}
	defer srv.Close()

	neg := newNegotiator(t, srv, Config{})
	ctx := context.Background()

	res, err := neg.Authorize(ctx)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}

	_, err = neg.Exchange(ctx, res.Code, "tampered-state")
	var serr *StateError
	if !errors.As(err, &serr) {
		t.Fatalf("Exchange with wrong state = %v, want *StateError", err)
	}
	// Presence only: the message must not echo either state value.
	if strings.Contains(err.Error(), "tampered-state") || strings.Contains(err.Error(), res.State) {
		t.Fatalf("state error leaks values: %q", err.Error())
	}

	// The stored context was consumed before validation, so even the right
	// state cannot be replayed.
	_, err = neg.Exchange(ctx, res.Code, res.State)
	if !errors.As(err, &serr) {
		t.Fatalf("replayed Exchange = %v, want *StateError", err)
	}
	if serr.StoredPresent {
		t.Fatalf("replayed exchange still sees a stored context")
	}
}

func TestExchangeRejection(t *testing.T) {
	srv, err := journeytest.New(journeytest.Config{
		ResponseModes:  []string{"pi.flow"},
		RejectExchange: true,
	})
	if err != nil {
		t.Fatalf("mock server: %v", err)
	}
	defer srv.Close()

	neg := newNegotiator(t, srv, Config{})
	ctx := context.Background()

	res, err := neg.Authorize(ctx)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	_, err = neg.Exchange(ctx, res.Code, res.State)

	var xerr *ExchangeError
	if !errors.As(err, &xerr) {
		t.Fatalf("Exchange = %v, want *ExchangeError", err)
	}
	if xerr.StatusCode != 400 {
		t.Fatalf("status = %d", xerr.StatusCode)
	}
	if xerr.Description != "scripted exchange rejection" {
		t.Fatalf("description = %q", xerr.Description)
	}
}

func TestAuthorizeURL(t *testing.T) {
	srv, err := journeytest.New(journeytest.Config{})
	if err != nil {
		t.Fatalf("mock server: %v", err)
	}
	defer srv.Close()

	neg := newNegotiator(t, srv, Config{})
	raw, err := neg.AuthorizeURL(context.Background(), WithLoginHint("alice"))
	if err != nil {
		t.Fatalf("AuthorizeURL: %v", err)
	}

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	q := u.Query()
	if q.Get("response_type") != "code" {
		t.Fatalf("response_type = %q", q.Get("response_type"))
	}
	if q.Get("code_challenge") == "" || q.Get("code_challenge_method") != "S256" {
		t.Fatalf("PKCE params missing: %s", raw)
	}
	if q.Get("state") == "" {
		t.Fatalf("state missing")
	}
	if q.Get("login_hint") != "alice" {
		t.Fatalf("login_hint = %q", q.Get("login_hint"))
	}
	if q.Get("client_id") != "test-client" {
		t.Fatalf("client_id = %q", q.Get("client_id"))
	}
}

func TestTokenManager(t *testing.T) {
	srv, err := journeytest.New(journeytest.Config{ResponseModes: []string{"pi.flow"}})
	if err != nil {
		t.Fatalf("mock server: %v", err)
	}
	defer srv.Close()

	mem, err := memory.New(16)
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	neg := newNegotiator(t, srv, Config{}, WithStorage(mem))
	mgr := NewTokenManager(neg)
	ctx := context.Background()

	first, err := mgr.Tokens(ctx)
	if err != nil {
		t.Fatalf("Tokens: %v", err)
	}

	second, err := mgr.Tokens(ctx)
	if err != nil {
		t.Fatalf("second Tokens: %v", err)
	}
	if second.AccessToken != first.AccessToken {
		t.Fatalf("second call did not hit the cache")
	}

	renewed, err := mgr.Tokens(ctx, WithForceRenew())
	if err != nil {
		t.Fatalf("forced renew: %v", err)
	}
	if renewed.AccessToken == first.AccessToken {
		t.Fatalf("forced renew returned the cached token")
	}

	if err := mgr.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	afterClear, err := mgr.Tokens(ctx)
	if err != nil {
		t.Fatalf("Tokens after Clear: %v", err)
	}
	if afterClear.AccessToken == renewed.AccessToken {
		t.Fatalf("Clear did not drop the cache")
	}
}
