package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/journeykit/journey-go/storage"
)

const authContextTTL = 10 * time.Minute

// AuthorizationContext is the ephemeral, single-use state bound to one
// authorization attempt: the anti-CSRF state token, the PKCE verifier, and
// the parameters the request was built with. It is persisted immediately
// before dispatch and consumed destructively exactly once on return.
type AuthorizationContext struct {
	State        string    `json:"state"`
	Verifier     string    `json:"verifier"`
	Scopes       []string  `json:"scopes,omitempty"`
	ResponseType string    `json:"response_type,omitempty"`
	RedirectURI  string    `json:"redirect_uri,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func authContextKey(prefix, clientID string) string {
	return prefix + "-authflow-" + clientID
}

// saveAuthContext persists the context keyed by client identifier,
// replacing any earlier attempt's context (last writer wins).
func saveAuthContext(ctx context.Context, store storage.Store, prefix, clientID string, ac *AuthorizationContext) error {
	data, err := json.Marshal(ac)
	if err != nil {
		return fmt.Errorf("oauth: marshal authorization context: %w", err)
	}
	key := authContextKey(prefix, clientID)
	if err := store.Set(ctx, key, data, storage.WithTTL(authContextTTL)); err != nil {
		return fmt.Errorf("oauth: persist authorization context: %w", err)
	}
	return nil
}

// takeAuthContext retrieves and deletes the stored context. The delete
// happens regardless of what the caller does next, so a failed exchange
// cannot resurrect stale state on a later resume. Returns nil when nothing
// is stored.
func takeAuthContext(ctx context.Context, store storage.Store, prefix, clientID string) (*AuthorizationContext, error) {
	item, err := store.Take(ctx, authContextKey(prefix, clientID))
	if err != nil {
		return nil, fmt.Errorf("oauth: retrieve authorization context: %w", err)
	}
	if item == nil {
		return nil, nil
	}
	var ac AuthorizationContext
	if err := json.Unmarshal(item.Data, &ac); err != nil {
		return nil, fmt.Errorf("%w: authorization context: %v", storage.ErrCorruptItem, err)
	}
	return &ac, nil
}
