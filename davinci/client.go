package davinci

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

	"github.com/google/uuid"
	"github.com/joeshaw/envdecode"
	"github.com/journeykit/journey-go/internal/logctx"
	"github.com/journeykit/journey-go/journey"
	"github.com/journeykit/journey-go/middleware"
)

const maxResponseBytes = 1 << 20

// Config describes the flow server this client talks to.
type Config struct {
	// BaseURL of the flow service. ENV: DAVINCI_BASE_URL
	BaseURL string `env:"DAVINCI_BASE_URL"`
	// FlowID of the flow to start. ENV: DAVINCI_FLOW_ID
	FlowID string `env:"DAVINCI_FLOW_ID"`
	// Timeout for each outbound call. ENV: DAVINCI_TIMEOUT
	Timeout time.Duration `env:"DAVINCI_TIMEOUT,default=30s"`
}

// Validate returns an error if required invariants are not met.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("davinci: base URL required")
	}
	if c.FlowID == "" {
		return errors.New("davinci: flow ID required")
	}
	return nil
}

// Client drives one flow at a time against the flow service.
type Client struct {
	cfg   Config
	http  *http.Client
	log   *slog.Logger
	chain []middleware.Middleware
}

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	httpClient *http.Client
	logger     *slog.Logger
	chain      []middleware.Middleware
}

// WithHTTPClient sets the transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *clientConfig) { c.httpClient = hc }
}

// WithLogger sets the slog logger. If not provided, logs are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) { c.logger = l }
}

// WithMiddleware appends request middleware.
func WithMiddleware(mw ...middleware.Middleware) Option {
	return func(c *clientConfig) { c.chain = append(c.chain, mw...) }
}

// New creates a flow Client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
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

	return &Client{cfg: cfg, http: hc, log: log, chain: cc.chain}, nil
}

// NewFromEnv builds a Client using envdecode to populate Config.
func NewFromEnv(opts ...Option) (*Client, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("davinci: decode config from env: %w", err)
	}
	return New(cfg, opts...)
}

// Start begins the configured flow. Transport and protocol failures are
// reported through the returned Result, never through err.
func (c *Client) Start(ctx context.Context) (journey.Result, error) {
	u, err := c.flowURL("start")
	if err != nil {
		return nil, err
	}
	ctx = logctx.WithFlowData(ctx, &logctx.FlowData{FlowID: c.cfg.FlowID, Action: string(middleware.ActionStart)})
	return c.submit(ctx, middleware.ActionStart, u, nil), nil
}

// Next serializes the node's collector inputs and advances the flow. The
// outbound call is tagged FLOW when a flow-control button drives the
// submission, NEXT otherwise.
func (c *Client) Next(ctx context.Context, node *Node) (journey.Result, error) {
	if node == nil {
		return nil, errors.New("davinci: nil node")
	}
	body, err := node.submission()
	if err != nil {
		return nil, fmt.Errorf("davinci: serialize node: %w", err)
	}

	action := middleware.ActionNext
	for _, col := range node.collectors {
		if a, ok := col.(*Action); ok && a.Selected() && a.CollectorType() == TypeFlowButton {
			action = middleware.ActionFlow
			break
		}
	}

	u := node.nextHref()
	if u == "" {
		if u, err = c.flowURL("next"); err != nil {
			return nil, err
		}
	}
	ctx = logctx.WithFlowData(ctx, &logctx.FlowData{FlowID: c.cfg.FlowID, Action: string(action)})
	return c.submit(ctx, action, u, body), nil
}

func (c *Client) flowURL(leaf string) (string, error) {
	base, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("davinci: parse base URL: %w", err)
	}
	return base.JoinPath("flows", c.cfg.FlowID, leaf).String(), nil
}

func (c *Client) submit(ctx context.Context, action middleware.ActionType, u string, body []byte) journey.Result {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, reader)
	if err != nil {
		return journey.NewErrorResult(0, fmt.Errorf("build request: %w", err), nil)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Interaction-Id", uuid.NewString())

	req = middleware.Apply(req, middleware.Action{Type: action, Payload: map[string]any{"flowId": c.cfg.FlowID, "url": u}}, c.chain)

	ctx = logctx.WithRequestData(ctx, &logctx.RequestData{RequestID: req.Header.Get("X-Interaction-Id"), Method: req.Method, URL: u})
	c.log.DebugContext(ctx, "flow round-trip", "action", string(action))

	resp, err := c.http.Do(req)
	if err != nil {
		return journey.NewErrorResult(0, fmt.Errorf("transport: %w", err), nil)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return journey.NewErrorResult(resp.StatusCode, fmt.Errorf("read response: %w", err), nil)
	}

	result := Classify(respBody, resp.StatusCode)
	c.log.DebugContext(ctx, "flow round-trip classified", "status", string(result.Status()))
	return result
}
