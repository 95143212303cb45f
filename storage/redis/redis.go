// Package redis provides a Redis-backed implementation of the storage.Store
// interface. Use it when flow state and tokens must survive process
// restarts, e.g. server-side callers driving journeys on behalf of users.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/journeykit/journey-go/storage"
	"github.com/redis/go-redis/v9"
)

// Config contains configuration options for the Redis store. Defaults can be
// loaded from the environment via envdecode.
type Config struct {
	// RedisAddr like "localhost:6379". ENV: REDIS_ADDR
	RedisAddr string `env:"REDIS_ADDR,default=localhost:6379"`
	// KeyPrefix for all Redis keys. ENV: JOURNEY_STORAGE_KEY_PREFIX
	KeyPrefix string `env:"JOURNEY_STORAGE_KEY_PREFIX,default=journey:storage:"`

	// Client overrides RedisAddr with a caller-managed client.
	Client *redis.Client `env:"-"`
}

// Store implements storage.Store using Redis.
type Store struct {
	client    *redis.Client
	keyPrefix string
}

// storedItem is the JSON structure written to Redis.
type storedItem struct {
	Data      []byte     `json:"data"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// New creates a Redis-backed store.
func New(cfg Config) (*Store, error) {
	client := cfg.Client
	if client == nil {
		addr := cfg.RedisAddr
		if addr == "" {
			addr = "localhost:6379"
		}
		client = redis.NewClient(&redis.Options{Addr: addr})
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "journey:storage:"
	}
	return &Store{client: client, keyPrefix: prefix}, nil
}

// NewFromEnv builds a Store using envdecode to populate Config.
func NewFromEnv() (*Store, error) {
	var cfg Config
	_ = envdecode.Decode(&cfg)
	return New(cfg)
}

// Get retrieves the item stored under key.
func (s *Store) Get(ctx context.Context, key string, opts ...storage.Option) (*storage.Item, error) {
	redisKey := s.keyPrefix + key

	result := s.client.Get(ctx, redisKey)
	if err := result.Err(); err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("get key %s: %w", redisKey, err)
	}

	item, err := decodeItem([]byte(result.Val()))
	if err != nil {
		return nil, err
	}
	if item.IsExpired() {
		s.client.Del(ctx, redisKey)
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

	redisKey := s.keyPrefix + key

	now := time.Now()
	item := storedItem{
		Data:      data,
		CreatedAt: now,
	}

	var redisTTL time.Duration
	if options.TTL != nil {
		expiresAt := now.Add(*options.TTL)
		item.ExpiresAt = &expiresAt
		redisTTL = *options.TTL
	}

	itemData, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal storage item: %w", err)
	}

	if err := s.client.Set(ctx, redisKey, itemData, redisTTL).Err(); err != nil {
		return fmt.Errorf("set key %s: %w", redisKey, err)
	}
	return nil
}

// Take retrieves and removes the item stored under key. GETDEL makes the
// read-then-delete atomic so two racing consumers cannot both observe the
// value.
func (s *Store) Take(ctx context.Context, key string, opts ...storage.Option) (*storage.Item, error) {
	redisKey := s.keyPrefix + key

	result := s.client.GetDel(ctx, redisKey)
	if err := result.Err(); err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("getdel key %s: %w", redisKey, err)
	}

	item, err := decodeItem([]byte(result.Val()))
	if err != nil {
		return nil, err
	}
	if item.IsExpired() {
		return nil, nil
	}
	return item, nil
}

// Delete removes the item stored under key.
func (s *Store) Delete(ctx context.Context, key string, opts ...storage.Option) error {
	redisKey := s.keyPrefix + key
	if err := s.client.Del(ctx, redisKey).Err(); err != nil {
		return fmt.Errorf("delete key %s: %w", redisKey, err)
	}
	return nil
}

// Close closes the Redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

func decodeItem(raw []byte) (*storage.Item, error) {
	var item storedItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrCorruptItem, err)
	}
	return &storage.Item{
		Data:      item.Data,
		CreatedAt: item.CreatedAt,
		ExpiresAt: item.ExpiresAt,
	}, nil
}

// Compile-time interface check
var _ storage.Store = (*Store)(nil)
