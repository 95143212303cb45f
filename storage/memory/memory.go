// Package memory provides an in-process implementation of the storage.Store
// interface backed by an LRU cache with TTL support. It is the default
// backend: state survives for the life of the process only, which is the
// session-scoped policy most callers want for flow state.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/journeykit/journey-go/storage"
)

// Store implements storage.Store in memory.
type Store struct {
	mu    sync.Mutex
	cache *lru.Cache[string, *storage.Item]
	done  chan struct{}
}

// New creates an in-memory store holding at most maxItems entries.
func New(maxItems int) (*Store, error) {
	cache, err := lru.New[string, *storage.Item](maxItems)
	if err != nil {
		return nil, fmt.Errorf("create LRU cache: %w", err)
	}

	s := &Store{
		cache: cache,
		done:  make(chan struct{}),
	}

	go s.sweepExpired()

	return s, nil
}

// Get retrieves the item stored under key.
func (s *Store) Get(ctx context.Context, key string, opts ...storage.Option) (*storage.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.cache.Get(key)
	if !ok {
		return nil, nil
	}
	if item.IsExpired() {
		s.cache.Remove(key)
		return nil, nil
	}
	return item, nil
}

// Set stores data under key.
func (s *Store) Set(ctx context.Context, key string, data []byte, opts ...storage.Option) error {
	options := &storage.Options{}
	for _, opt := range opts {
		opt(options)
	}

	now := time.Now()
	item := &storage.Item{
		Data:      append([]byte(nil), data...),
		CreatedAt: now,
	}
	if options.TTL != nil {
		expiresAt := now.Add(*options.TTL)
		item.ExpiresAt = &expiresAt
	}

	s.mu.Lock()
	s.cache.Add(key, item)
	s.mu.Unlock()

	return nil
}

// Take retrieves and removes the item stored under key.
func (s *Store) Take(ctx context.Context, key string, opts ...storage.Option) (*storage.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.cache.Get(key)
	if !ok {
		return nil, nil
	}
	s.cache.Remove(key)
	if item.IsExpired() {
		return nil, nil
	}
	return item, nil
}

// Delete removes the item stored under key.
func (s *Store) Delete(ctx context.Context, key string, opts ...storage.Option) error {
	s.mu.Lock()
	s.cache.Remove(key)
	s.mu.Unlock()
	return nil
}

// Close purges the cache and stops the expiry sweeper.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	s.cache.Purge()
	return nil
}

// Compile-time interface check
var _ storage.Store = (*Store)(nil)

// sweepExpired periodically evicts items whose TTL has elapsed so they do
// not occupy cache slots until their next lookup.
func (s *Store) sweepExpired() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		now := time.Now()
		for _, key := range s.cache.Keys() {
			if item, ok := s.cache.Peek(key); ok {
				if item.ExpiresAt != nil && now.After(*item.ExpiresAt) {
					s.cache.Remove(key)
				}
			}
		}
		s.mu.Unlock()
	}
}
