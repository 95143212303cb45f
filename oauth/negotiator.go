package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/journeykit/journey-go/internal/logctx"
	"github.com/journeykit/journey-go/internal/pkce"
	"github.com/journeykit/journey-go/middleware"
	"github.com/journeykit/journey-go/storage"
	"github.com/journeykit/journey-go/storage/memory"
	"golang.org/x/oauth2"
)

// Config describes the OAuth client this negotiator acts as. Defaults can be
// loaded from the environment via envdecode.
type Config struct {
	// ClientID registered with the authorization server. ENV: OAUTH_CLIENT_ID
	ClientID string `env:"OAUTH_CLIENT_ID"`
	// RedirectURI registered for this client. ENV: OAUTH_REDIRECT_URI
	RedirectURI string `env:"OAUTH_REDIRECT_URI"`
	// Scopes requested on every authorization. ENV: OAUTH_SCOPES
	Scopes []string `env:"OAUTH_SCOPES,default=openid;profile"`
	// ResponseType requested; only "code" is supported today.
	// ENV: OAUTH_RESPONSE_TYPE
	ResponseType string `env:"OAUTH_RESPONSE_TYPE,default=code"`
	// SilentTimeout bounds the embedded (non-navigating) dispatch. After it
	// elapses the attempt is abandoned and reported as silent_auth_timeout.
	// ENV: OAUTH_SILENT_TIMEOUT
	SilentTimeout time.Duration `env:"OAUTH_SILENT_TIMEOUT,default=10s"`
	// StorageKeyPrefix namespaces persisted PKCE state and cached tokens.
	// ENV: OAUTH_STORAGE_PREFIX
	StorageKeyPrefix string `env:"OAUTH_STORAGE_PREFIX,default=journeykit"`
	// NonRedirectModes lists server response modes that deliver the
	// authorization result in a JSON body instead of a navigation. The first
	// mode the server advertises is used.
	NonRedirectModes []string `env:"OAUTH_NON_REDIRECT_MODES,default=pi.flow"`
}

// Validate returns an error if required invariants are not met.
func (c Config) Validate() error {
	if c.ClientID == "" {
		return errors.New("oauth: client ID required")
	}
	if c.RedirectURI == "" {
		return errors.New("oauth: redirect URI required")
	}
	return nil
}

// Normalize fills defaults in place.
func (c *Config) Normalize() {
	if len(c.Scopes) == 0 {
		c.Scopes = []string{"openid", "profile"}
	}
	if c.ResponseType == "" {
		c.ResponseType = "code"
	}
	if c.SilentTimeout == 0 {
		c.SilentTimeout = 10 * time.Second
	}
	if c.StorageKeyPrefix == "" {
		c.StorageKeyPrefix = "journeykit"
	}
	if len(c.NonRedirectModes) == 0 {
		c.NonRedirectModes = []string{"pi.flow"}
	}
}

// ConfigFromEnv populates a Config via envdecode.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("oauth: decode config from env: %w", err)
	}
	return cfg, nil
}

// Negotiator drives the authorization-code-plus-PKCE exchange against one
// provider.
type Negotiator struct {
	provider *Provider
	cfg      Config
	http     *http.Client
	log      *slog.Logger
	store    storage.Store
	chain    []middleware.Middleware
}

// Option configures a Negotiator.
type Option func(*negotiatorConfig)

type negotiatorConfig struct {
	httpClient *http.Client
	logger     *slog.Logger
	store      storage.Store
	chain      []middleware.Middleware
}

// WithHTTPClient sets the transport used for dispatch and exchange. Supply a
// client with a cookie jar when the silent path must ride an existing
// server session.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *negotiatorConfig) { c.httpClient = hc }
}

// WithLogger sets the slog logger. If not provided, logs are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(c *negotiatorConfig) { c.logger = l }
}

// WithStorage sets where PKCE state and tokens are persisted. Defaults to an
// in-memory store scoped to this process.
func WithStorage(s storage.Store) Option {
	return func(c *negotiatorConfig) { c.store = s }
}

// WithMiddleware appends request middleware, applied once per outbound call.
func WithMiddleware(mw ...middleware.Middleware) Option {
	return func(c *negotiatorConfig) { c.chain = append(c.chain, mw...) }
}

// NewNegotiator creates a Negotiator for the given provider and client
// configuration.
func NewNegotiator(provider *Provider, cfg Config, opts ...Option) (*Negotiator, error) {
	if provider == nil {
		return nil, errors.New("oauth: provider required")
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	nc := &negotiatorConfig{}
	for _, opt := range opts {
		opt(nc)
	}

	hc := nc.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	log := nc.logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	} else {
		log = slog.New(logctx.Handler{Handler: log.Handler()})
	}
	store := nc.store
	if store == nil {
		mem, err := memory.New(64)
		if err != nil {
			return nil, err
		}
		store = mem
	}

	return &Negotiator{
		provider: provider,
		cfg:      cfg,
		http:     hc,
		log:      log,
		store:    store,
		chain:    nc.chain,
	}, nil
}

// AuthorizeResult is the successful outcome of an authorization dispatch.
type AuthorizeResult struct {
	Code  string
	State string
}

// AuthorizeOption adjusts one Authorize call.
type AuthorizeOption func(*authorizeOptions)

type authorizeOptions struct {
	loginHint string
	extra     map[string]string
}

// WithLoginHint passes a login_hint to the authorization endpoint.
func WithLoginHint(hint string) AuthorizeOption {
	return func(o *authorizeOptions) { o.loginHint = hint }
}

// WithAuthParam adds an extra authorization request parameter.
func WithAuthParam(key, value string) AuthorizeOption {
	return func(o *authorizeOptions) {
		if o.extra == nil {
			o.extra = map[string]string{}
		}
		o.extra[key] = value
	}
}

// Authorize generates fresh state and PKCE values, persists them keyed by
// client ID, and dispatches the authorization request. When the server
// advertises a non-redirect response mode the result is read out of a JSON
// body; otherwise an embedded (non-navigating) dispatch follows the
// redirect chain and harvests code/state at the redirect URI.
//
// On any failure the returned error is an *AuthError carrying a fallback
// redirect URL (prompt=login) the caller can navigate to; the stored
// authorization context remains valid for that fallback's eventual return.
func (n *Negotiator) Authorize(ctx context.Context, opts ...AuthorizeOption) (*AuthorizeResult, error) {
	ao := &authorizeOptions{}
	for _, opt := range opts {
		opt(ao)
	}

	pair := pkce.New()
	state, err := pkce.NewState()
	if err != nil {
		return nil, &AuthError{Kind: KindAuthDispatchError, Description: "state generation failed", Cause: err}
	}

	ac := &AuthorizationContext{
		State:        state,
		Verifier:     pair.Verifier,
		Scopes:       n.cfg.Scopes,
		ResponseType: n.cfg.ResponseType,
		RedirectURI:  n.cfg.RedirectURI,
		CreatedAt:    time.Now(),
	}
	if err := saveAuthContext(ctx, n.store, n.cfg.StorageKeyPrefix, n.cfg.ClientID, ac); err != nil {
		return nil, &AuthError{Kind: KindAuthDispatchError, Description: "persisting authorization context failed", Cause: err}
	}

	mode, silent := n.nonRedirectMode()
	authURL := n.authCodeURL(state, pair.Challenge, ao, mode, "")
	fallback := n.authCodeURL(state, pair.Challenge, ao, "", "login")

	ctx = logctx.WithFlowData(ctx, &logctx.FlowData{FlowID: state, Action: string(middleware.ActionFlow)})

	var res *AuthorizeResult
	var aerr *AuthError
	if silent {
		res, aerr = n.dispatchJSON(ctx, authURL, mode)
	} else {
		res, aerr = n.dispatchEmbedded(ctx, authURL)
	}
	if aerr != nil {
		aerr.FallbackRedirectURL = fallback
		n.log.DebugContext(ctx, "authorization dispatch failed", "kind", aerr.Kind)
		return nil, aerr
	}
	return res, nil
}

// AuthorizeURL builds the top-level navigation URL for callers that skip the
// silent attempt entirely. State and PKCE values are generated and persisted
// exactly as Authorize does.
func (n *Negotiator) AuthorizeURL(ctx context.Context, opts ...AuthorizeOption) (string, error) {
	ao := &authorizeOptions{}
	for _, opt := range opts {
		opt(ao)
	}

	pair := pkce.New()
	state, err := pkce.NewState()
	if err != nil {
		return "", fmt.Errorf("oauth: state generation failed: %w", err)
	}
	ac := &AuthorizationContext{
		State:        state,
		Verifier:     pair.Verifier,
		Scopes:       n.cfg.Scopes,
		ResponseType: n.cfg.ResponseType,
		RedirectURI:  n.cfg.RedirectURI,
		CreatedAt:    time.Now(),
	}
	if err := saveAuthContext(ctx, n.store, n.cfg.StorageKeyPrefix, n.cfg.ClientID, ac); err != nil {
		return "", err
	}
	return n.authCodeURL(state, pair.Challenge, ao, "", ""), nil
}

// Exchange validates the returned state against the stored context and
// exchanges the authorization code for tokens. The stored context is
// consumed before any validation, so a failed exchange cannot be replayed.
func (n *Negotiator) Exchange(ctx context.Context, code, state string) (*Tokens, error) {
	stored, err := takeAuthContext(ctx, n.store, n.cfg.StorageKeyPrefix, n.cfg.ClientID)
	if err != nil {
		return nil, err
	}
	if stored == nil || state == "" || stored.State != state {
		return nil, &StateError{StoredPresent: stored != nil, ReturnedPresent: state != ""}
	}

	httpClient := &http.Client{
		Transport: &middlewareTransport{base: n.http, chain: n.chain, action: middleware.Action{Type: middleware.ActionSuccess}},
		Timeout:   n.http.Timeout,
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)

	tok, err := n.oauth2Config(stored.RedirectURI).Exchange(ctx, code, oauth2.VerifierOption(stored.Verifier))
	if err != nil {
		return nil, normalizeExchangeError(err)
	}

	tokens := &Tokens{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}
	if id, ok := tok.Extra("id_token").(string); ok {
		tokens.IDToken = id
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		tokens.Scope = scope
	}

	if tokens.IDToken != "" && n.provider.oidc != nil {
		if _, err := n.provider.VerifyIDToken(ctx, n.cfg.ClientID, tokens.IDToken); err != nil {
			return nil, &ExchangeError{Description: "ID token verification failed", Cause: err}
		}
	}

	n.log.DebugContext(ctx, "token exchange complete", "expires_at", tokens.ExpiresAt)
	return tokens, nil
}

func (n *Negotiator) nonRedirectMode() (string, bool) {
	for _, mode := range n.cfg.NonRedirectModes {
		if n.provider.wellKnown.SupportsResponseMode(mode) {
			return mode, true
		}
	}
	return "", false
}

func (n *Negotiator) oauth2Config(redirectURI string) *oauth2.Config {
	if redirectURI == "" {
		redirectURI = n.cfg.RedirectURI
	}
	return &oauth2.Config{
		ClientID:    n.cfg.ClientID,
		RedirectURL: redirectURI,
		Scopes:      n.cfg.Scopes,
		Endpoint:    n.provider.endpoint,
	}
}

// authCodeURL builds the authorization URL with the PKCE challenge and
// optional response mode and prompt parameters.
func (n *Negotiator) authCodeURL(state, challenge string, ao *authorizeOptions, responseMode, prompt string) string {
	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("code_challenge", challenge),
		oauth2.SetAuthURLParam("code_challenge_method", pkce.ChallengeMethod),
		oauth2.SetAuthURLParam("response_type", n.cfg.ResponseType),
	}
	if responseMode != "" {
		opts = append(opts, oauth2.SetAuthURLParam("response_mode", responseMode))
	}
	if prompt != "" {
		opts = append(opts, oauth2.SetAuthURLParam("prompt", prompt))
	}
	if ao.loginHint != "" {
		opts = append(opts, oauth2.SetAuthURLParam("login_hint", ao.loginHint))
	}
	for k, v := range ao.extra {
		opts = append(opts, oauth2.SetAuthURLParam(k, v))
	}
	return n.oauth2Config("").AuthCodeURL(state, opts...)
}

// dispatchJSON performs the non-redirect dispatch: a credentialed POST to
// the authorization endpoint whose JSON body carries the result.
func (n *Negotiator) dispatchJSON(ctx context.Context, authURL, mode string) (*AuthorizeResult, *AuthError) {
	ctx, cancel := context.WithTimeout(ctx, n.cfg.SilentTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, authURL, nil)
	if err != nil {
		return nil, &AuthError{Kind: KindAuthDispatchError, Description: "building authorize request failed", Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	req = middleware.Apply(req, middleware.Action{Type: middleware.ActionFlow, Payload: map[string]any{"mode": mode}}, n.chain)

	resp, err := n.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &AuthError{Kind: KindSilentAuthTimeout, Description: "authorization did not complete within the silent timeout", Cause: err}
		}
		return nil, &AuthError{Kind: KindAuthDispatchError, Description: "authorize request failed", Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &AuthError{Kind: KindAuthDispatchError, Description: "reading authorize response failed", Cause: err}
	}

	var payload struct {
		Code              string `json:"code"`
		State             string `json:"state"`
		Error             string `json:"error"`
		ErrorDescription  string `json:"error_description"`
		AuthorizeResponse *struct {
			Code  string `json:"code"`
			State string `json:"state"`
		} `json:"authorizeResponse"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &AuthError{Kind: KindAuthServerError, Description: "authorize response was not valid JSON", Cause: err}
	}
	if payload.AuthorizeResponse != nil {
		payload.Code = payload.AuthorizeResponse.Code
		payload.State = payload.AuthorizeResponse.State
	}
	if payload.Error != "" || resp.StatusCode < 200 || resp.StatusCode > 299 {
		desc := payload.ErrorDescription
		if desc == "" {
			desc = payload.Error
		}
		if desc == "" {
			desc = fmt.Sprintf("authorize endpoint returned status %d", resp.StatusCode)
		}
		return nil, &AuthError{Kind: KindAuthServerError, Description: desc}
	}
	if payload.Code == "" {
		return nil, &AuthError{Kind: KindAuthServerError, Description: "authorize response carried no code"}
	}
	return &AuthorizeResult{Code: payload.Code, State: payload.State}, nil
}

// dispatchEmbedded performs the silent dispatch for redirect-only servers:
// the redirect chain is followed without navigating until the registered
// redirect URI is reached, and only the whitelisted parameters are read off
// it.
func (n *Negotiator) dispatchEmbedded(ctx context.Context, authURL string) (*AuthorizeResult, *AuthError) {
	ctx, cancel := context.WithTimeout(ctx, n.cfg.SilentTimeout)
	defer cancel()

	var captured *url.URL
	client := &http.Client{
		Transport: n.http.Transport,
		Jar:       n.http.Jar,
		Timeout:   n.http.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if strings.HasPrefix(req.URL.String(), n.cfg.RedirectURI) {
				captured = req.URL
				return http.ErrUseLastResponse
			}
			if len(via) >= 10 {
				return errors.New("stopped after 10 redirects")
			}
			return nil
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, authURL, nil)
	if err != nil {
		return nil, &AuthError{Kind: KindAuthDispatchError, Description: "building authorize request failed", Cause: err}
	}
	req = middleware.Apply(req, middleware.Action{Type: middleware.ActionFlow, Payload: map[string]any{"mode": "embedded"}}, n.chain)

	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &AuthError{Kind: KindSilentAuthTimeout, Description: "authorization did not complete within the silent timeout", Cause: err}
		}
		return nil, &AuthError{Kind: KindAuthDispatchError, Description: "authorize request failed", Cause: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if captured == nil {
		return nil, &AuthError{Kind: KindAuthServerError, Description: "authorization did not reach the redirect URI; interaction is likely required"}
	}

	q := captured.Query()
	if errCode := q.Get("error"); errCode != "" {
		desc := q.Get("error_description")
		if desc == "" {
			desc = errCode
		}
		return nil, &AuthError{Kind: KindAuthServerError, Description: desc}
	}
	code := q.Get("code")
	if code == "" {
		return nil, &AuthError{Kind: KindAuthServerError, Description: "redirect URI carried no authorization code"}
	}
	return &AuthorizeResult{Code: code, State: q.Get("state")}, nil
}

func normalizeExchangeError(err error) *ExchangeError {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		desc := re.ErrorDescription
		if desc == "" {
			desc = strings.TrimSpace(string(re.Body))
		}
		if desc == "" {
			desc = "token endpoint returned no body"
		}
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		return &ExchangeError{Description: desc, StatusCode: status, Cause: err}
	}
	return &ExchangeError{Description: "token endpoint unreachable", Cause: err}
}

// middlewareTransport runs the middleware chain on requests issued by
// libraries that own their own HTTP plumbing (the x/oauth2 exchange).
type middlewareTransport struct {
	base   *http.Client
	chain  []middleware.Middleware
	action middleware.Action
}

func (t *middlewareTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = middleware.Apply(req, t.action, t.chain)
	rt := t.base.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	return rt.RoundTrip(req)
}
