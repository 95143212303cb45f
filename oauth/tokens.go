package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/journeykit/journey-go/storage"
)

// Tokens is one issued token set. Expiry is absolute, computed when the
// tokens were received, not when they are used.
type Tokens struct {
	AccessToken  string    `json:"access_token"`
	IDToken      string    `json:"id_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Scope        string    `json:"scope,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the access token is expired or expires within
// leeway.
func (t *Tokens) Expired(leeway time.Duration) bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().Add(leeway).After(t.ExpiresAt)
}

// TokenManager caches issued tokens in storage and renews them through the
// negotiator when they are absent or expired. Storage choice governs token
// lifetime: per-process, durable, or caller-supplied.
type TokenManager struct {
	neg    *Negotiator
	store  storage.Store
	leeway time.Duration
}

// NewTokenManager wraps a negotiator with a token cache. Tokens are stored
// under "<prefix>-<clientId>" in the negotiator's storage backend.
func NewTokenManager(neg *Negotiator) *TokenManager {
	return &TokenManager{neg: neg, store: neg.store, leeway: 30 * time.Second}
}

// TokensOption adjusts one Tokens call.
type TokensOption func(*tokensOptions)

type tokensOptions struct {
	forceRenew bool
}

// WithForceRenew bypasses the cache and performs a fresh authorization.
func WithForceRenew() TokensOption {
	return func(o *tokensOptions) { o.forceRenew = true }
}

func (m *TokenManager) cacheKey() string {
	return m.neg.cfg.StorageKeyPrefix + "-" + m.neg.cfg.ClientID
}

// Tokens returns cached tokens when they are still valid, otherwise runs a
// fresh authorize-and-exchange and caches the result. Renewal failures
// propagate the negotiator's error types (*AuthError, *StateError,
// *ExchangeError) unchanged.
func (m *TokenManager) Tokens(ctx context.Context, opts ...TokensOption) (*Tokens, error) {
	to := &tokensOptions{}
	for _, opt := range opts {
		opt(to)
	}

	if !to.forceRenew {
		if cached, err := m.cached(ctx); err != nil {
			return nil, err
		} else if cached != nil && !cached.Expired(m.leeway) {
			return cached, nil
		}
	}

	res, err := m.neg.Authorize(ctx)
	if err != nil {
		return nil, err
	}
	tokens, err := m.neg.Exchange(ctx, res.Code, res.State)
	if err != nil {
		return nil, err
	}
	if err := m.put(ctx, tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

// Clear drops any cached tokens. It does not revoke them server-side.
func (m *TokenManager) Clear(ctx context.Context) error {
	return m.store.Delete(ctx, m.cacheKey())
}

func (m *TokenManager) cached(ctx context.Context) (*Tokens, error) {
	item, err := m.store.Get(ctx, m.cacheKey())
	if err != nil {
		return nil, fmt.Errorf("oauth: read cached tokens: %w", err)
	}
	if item == nil {
		return nil, nil
	}
	var tokens Tokens
	if err := json.Unmarshal(item.Data, &tokens); err != nil {
		return nil, fmt.Errorf("%w: cached tokens: %v", storage.ErrCorruptItem, err)
	}
	return &tokens, nil
}

func (m *TokenManager) put(ctx context.Context, tokens *Tokens) error {
	data, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("oauth: marshal tokens: %w", err)
	}
	if err := m.store.Set(ctx, m.cacheKey(), data); err != nil {
		return fmt.Errorf("oauth: cache tokens: %w", err)
	}
	return nil
}
