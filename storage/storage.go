// Package storage defines the persistence seam the SDK uses to survive
// redirect boundaries and to cache issued tokens. Implementations may be
// volatile (per-process), durable (Redis), or caller-supplied.
package storage

import (
	"context"
	"errors"
	"time"
)

// Store is the key-value contract shared by all backends.
type Store interface {
	// Get retrieves the item stored under key.
	// Returns a nil Item if the key does not exist or has expired.
	// Returns an error only for genuine backend failures.
	Get(ctx context.Context, key string, opts ...Option) (*Item, error)

	// Set stores data under key, replacing any previous value.
	Set(ctx context.Context, key string, data []byte, opts ...Option) error

	// Take retrieves and deletes the item stored under key in one operation.
	// The deletion happens even if the caller subsequently fails to use the
	// value; a second Take of the same key returns nil.
	Take(ctx context.Context, key string, opts ...Option) (*Item, error)

	// Delete removes the item stored under key. Deleting an absent key is
	// not an error.
	Delete(ctx context.Context, key string, opts ...Option) error

	// Close releases backend resources.
	Close() error
}

// Item is one stored value with its bookkeeping metadata.
type Item struct {
	Data      []byte
	CreatedAt time.Time
	ExpiresAt *time.Time // nil = no expiration
}

// IsExpired reports whether the item's TTL has elapsed.
func (it *Item) IsExpired() bool {
	return it.ExpiresAt != nil && time.Now().After(*it.ExpiresAt)
}

// Option configures a single storage operation.
type Option func(*Options)

// Options collects per-operation configuration.
type Options struct {
	TTL *time.Duration
}

// WithTTL sets a time-to-live for the stored data.
func WithTTL(ttl time.Duration) Option {
	return func(opts *Options) {
		opts.TTL = &ttl
	}
}

// ErrCorruptItem is returned when a backend holds data that cannot be
// decoded back into an Item.
var ErrCorruptItem = errors.New("storage: corrupt stored item")
