package journey

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/elnormous/contenttype"
	"github.com/google/uuid"
	"github.com/joeshaw/envdecode"
	"github.com/journeykit/journey-go/internal/logctx"
	"github.com/journeykit/journey-go/middleware"
	"github.com/journeykit/journey-go/storage"
	"github.com/journeykit/journey-go/storage/memory"
)

const (
	stepStorageSuffix = "-journey-step"
	stepStorageTTL    = time.Hour
	maxResponseBytes  = 1 << 20
)

var jsonMediaType = contenttype.NewMediaType("application/json")

// resumeParams are the only query parameters harvested from a return URL.
var resumeParams = []string{"code", "state", "scope", "error", "error_description", "form_post_entry", "responsekey", "suspendedId"}

// Config describes the journey server this client talks to. Defaults can be
// loaded from the environment via envdecode.
type Config struct {
	// BaseURL of the authentication server, e.g. "https://am.example.com/am".
	// ENV: JOURNEY_BASE_URL
	BaseURL string `env:"JOURNEY_BASE_URL"`
	// Realm the journeys live in. ENV: JOURNEY_REALM
	Realm string `env:"JOURNEY_REALM,default=root"`
	// Tree is the default journey to start. ENV: JOURNEY_TREE
	Tree string `env:"JOURNEY_TREE,default=Login"`
	// Timeout for each outbound call. ENV: JOURNEY_TIMEOUT
	Timeout time.Duration `env:"JOURNEY_TIMEOUT,default=30s"`
	// StorageKeyPrefix namespaces this client's persisted state.
	// ENV: JOURNEY_STORAGE_PREFIX
	StorageKeyPrefix string `env:"JOURNEY_STORAGE_PREFIX,default=journeykit"`
	// SessionCookieName is the header/cookie the server expects session
	// tokens in. ENV: JOURNEY_SESSION_COOKIE
	SessionCookieName string `env:"JOURNEY_SESSION_COOKIE,default=iPlanetDirectoryPro"`
}

// Validate returns an error if required invariants are not met.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("journey: base URL required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("journey: invalid base URL: %w", err)
	}
	return nil
}

// Normalize fills defaults in place.
func (c *Config) Normalize() {
	if c.Realm == "" {
		c.Realm = "root"
	}
	if c.Tree == "" {
		c.Tree = "Login"
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.StorageKeyPrefix == "" {
		c.StorageKeyPrefix = "journeykit"
	}
	if c.SessionCookieName == "" {
		c.SessionCookieName = "iPlanetDirectoryPro"
	}
}

// Client is the flow orchestrator: it ties classification to transport,
// persists in-flight state across the redirect boundary, and re-hydrates it
// on return. Within one Client, Start→Next→…→terminal is strictly
// sequential; issuing a second Next before the first resolves is a caller
// error the Client does not serialize for you.
type Client struct {
	cfg   Config
	http  *http.Client
	log   *slog.Logger
	store storage.Store
	chain []middleware.Middleware
}

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	httpClient *http.Client
	logger     *slog.Logger
	store      storage.Store
	chain      []middleware.Middleware
}

// WithHTTPClient sets the transport. If not provided, a client with the
// configured timeout is used.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *clientConfig) { c.httpClient = hc }
}

// WithLogger sets the slog logger. If not provided, logs are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) { c.logger = l }
}

// WithStorage sets the persistence backend used across the redirect
// boundary. Defaults to an in-memory store scoped to this process.
func WithStorage(s storage.Store) Option {
	return func(c *clientConfig) { c.store = s }
}

// WithMiddleware appends request middleware. The chain runs once per
// outbound call, in registration order.
func WithMiddleware(mw ...middleware.Middleware) Option {
	return func(c *clientConfig) { c.chain = append(c.chain, mw...) }
}

// New creates a Client for the given server configuration.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cc := &clientConfig{}
	for _, opt := range opts {
		opt(cc)
	}

	hc := cc.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	log := cc.logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	} else {
		log = slog.New(logctx.Handler{Handler: log.Handler()})
	}
	store := cc.store
	if store == nil {
		mem, err := memory.New(256)
		if err != nil {
			return nil, err
		}
		store = mem
	}

	return &Client{
		cfg:   cfg,
		http:  hc,
		log:   log,
		store: store,
		chain: cc.chain,
	}, nil
}

// NewFromEnv builds a Client using envdecode to populate Config.
func NewFromEnv(opts ...Option) (*Client, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("journey: decode config from env: %w", err)
	}
	return New(cfg, opts...)
}

// RequestOption adjusts one Start/Next/Resume call.
type RequestOption func(*requestOptions)

type requestOptions struct {
	tree  string
	query url.Values
}

// WithTree selects a journey other than the configured default for this
// call.
func WithTree(name string) RequestOption {
	return func(o *requestOptions) { o.tree = name }
}

// WithQueryParam adds a query parameter to this call.
func WithQueryParam(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.query == nil {
			o.query = url.Values{}
		}
		o.query.Set(key, value)
	}
}

// Start issues the initial call of a journey and classifies the result.
// Transport and protocol failures are reported through the returned Result
// (*ErrorResult), never through err; err is reserved for caller misuse and
// request-construction failures.
func (c *Client) Start(ctx context.Context, opts ...RequestOption) (Result, error) {
	ro := c.requestOptions(opts)
	ctx = logctx.WithFlowData(ctx, &logctx.FlowData{FlowID: ro.tree, Action: string(middleware.ActionStart)})
	return c.submit(ctx, middleware.ActionStart, ro, nil), nil
}

// Next serializes the step's mutated callbacks and advances the journey.
func (c *Client) Next(ctx context.Context, step *Step, opts ...RequestOption) (Result, error) {
	if step == nil {
		return nil, errors.New("journey: nil step")
	}
	body, err := step.submission()
	if err != nil {
		return nil, fmt.Errorf("journey: serialize step: %w", err)
	}
	ro := c.requestOptions(opts)
	ctx = logctx.WithFlowData(ctx, &logctx.FlowData{FlowID: ro.tree, Action: string(middleware.ActionNext), Stage: step.Stage()})
	return c.submit(ctx, middleware.ActionNext, ro, body), nil
}

// Redirect prepares the external-IdP hop for a redirect step: it persists
// the step so it survives leaving the page, then returns the target URL for
// the caller's navigation. The persisted step is consumed destructively by
// Resume.
func (c *Client) Redirect(ctx context.Context, step *Step) (string, error) {
	if step == nil {
		return "", errors.New("journey: nil step")
	}
	rc, ok := step.RedirectCallback()
	if !ok {
		return "", &CallbackCountError{Type: "RedirectCallback", Found: 0}
	}
	body, err := step.submission()
	if err != nil {
		return "", fmt.Errorf("journey: serialize step: %w", err)
	}
	key := c.cfg.StorageKeyPrefix + stepStorageSuffix
	if err := c.store.Set(ctx, key, body, storage.WithTTL(stepStorageTTL)); err != nil {
		return "", fmt.Errorf("journey: persist step: %w", err)
	}
	c.log.DebugContext(ctx, "persisted step for redirect", "key", key)
	return rc.RedirectURL(), nil
}

// Resume continues a journey after returning from an external identity
// provider. When returnURL carries no recognizable resume parameters, it
// behaves like Start. The previously persisted step is retrieved
// destructively: a second Resume with the same URL falls back to Start.
func (c *Client) Resume(ctx context.Context, returnURL string, opts ...RequestOption) (Result, error) {
	u, err := url.Parse(returnURL)
	if err != nil {
		return nil, fmt.Errorf("journey: parse return URL: %w", err)
	}

	recovered := url.Values{}
	q := u.Query()
	for _, key := range resumeParams {
		if v := q.Get(key); v != "" {
			recovered.Set(key, v)
		}
	}
	if len(recovered) == 0 {
		return c.Start(ctx, opts...)
	}

	key := c.cfg.StorageKeyPrefix + stepStorageSuffix
	item, err := c.store.Take(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("journey: retrieve persisted step: %w", err)
	}
	if item == nil {
		c.log.DebugContext(ctx, "no persisted step for resume, starting fresh")
		return c.Start(ctx, opts...)
	}

	ro := c.requestOptions(opts)
	if ro.query == nil {
		ro.query = url.Values{}
	}
	for k, vals := range recovered {
		ro.query.Set(k, vals[0])
	}
	ctx = logctx.WithFlowData(ctx, &logctx.FlowData{FlowID: ro.tree, Action: string(middleware.ActionResume)})
	return c.submit(ctx, middleware.ActionResume, ro, item.Data), nil
}

/// Terminate ends the session server-side. It is idempotent: a missing or
// already-invalid session logs and returns nil rather than failing.
func (c *Client) Terminate(ctx context.Context, sessionToken string) error {
	if sessionToken == "" {
		c.log.DebugContext(ctx, "terminate called with no session, nothing to do")
		return nil
	}

	u := fmt.Sprintf("%s/json/realms/%s/sessions?_action=logout", c.cfg.BaseURL, url.PathEscape(c.cfg.Realm))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return fmt.Errorf("journey: build terminate request: %w", err)
	}
	c.decorate(req)
	req.Header.Set(c.cfg.SessionCookieName, sessionToken)

	req = middleware.Apply(req, middleware.Action{Type: middleware.ActionTerminate}, c.chain)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("journey: terminate: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode == http.StatusUnauthorized {
		c.log.DebugContext(ctx, "session already invalid on terminate")
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("journey: terminate returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) requestOptions(opts []RequestOption) *requestOptions {
	ro := &requestOptions{tree: c.cfg.Tree}
	for _, opt := range opts {
		opt(ro)
	}
	return ro
}

// submit performs one authenticate round-trip and classifies the outcome.
func (c *Client) submit(ctx context.Context, action middleware.ActionType, ro *requestOptions, body []byte) Result {
	u, err := c.authenticateURL(ro)
	if err != nil {
		return &ErrorResult{err: err}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, reader)
	if err != nil {
		return &ErrorResult{err: fmt.Errorf("build request: %w", err)}
	}
	c.decorate(req)

	payload := map[string]any{"tree": ro.tree, "url": u}
	req = middleware.Apply(req, middleware.Action{Type: action, Payload: payload}, c.chain)

	ctx = logctx.WithRequestData(ctx, &logctx.RequestData{RequestID: req.Header.Get("X-Interaction-Id"), Method: req.Method, URL: u})
	c.log.DebugContext(ctx, "journey round-trip", "action", string(action))

	resp, err := c.http.Do(req)
	if err != nil {
		return &ErrorResult{err: fmt.Errorf("transport: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &ErrorResult{statusCode: resp.StatusCode, err: fmt.Errorf("read response: %w", err)}
	}

	if !isJSON(resp) {
		return &ErrorResult{
			statusCode: resp.StatusCode,
			err:        &ProtocolError{Message: fmt.Sprintf("unexpected content type %q", resp.Header.Get("Content-Type"))},
			body:       respBody,
		}
	}

	result := Classify(respBody, resp.StatusCode)
	c.log.DebugContext(ctx, "journey round-trip classified", "status", string(result.Status()))
	return result
}

func (c *Client) authenticateURL(ro *requestOptions) (string, error) {
	base, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	u := base.JoinPath("json", "realms", c.cfg.Realm, "authenticate")
	q := url.Values{}
	q.Set("authIndexType", "service")
	q.Set("authIndexValue", ro.tree)
	for key, vals := range ro.query {
		q.Set(key, vals[0])
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) decorate(req *http.Request) {
	req.Header.Set("Content-Type", jsonMediaType.String())
	req.Header.Set("Accept-API-Version", "resource=2.0, protocol=1.0")
	req.Header.Set("X-Interaction-Id", uuid.NewString())
	req.Header.Set("X-Requested-With", "journey-go")
}

// isJSON validates the response media type before any decode attempt.
func isJSON(resp *http.Response) bool {
	mt, err := contenttype.GetMediaType(&http.Request{Header: resp.Header})
	if err != nil {
		return false
	}
	return mt.Type == jsonMediaType.Type && mt.Subtype == jsonMediaType.Subtype
}
