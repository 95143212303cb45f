package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/journeykit/journey-go/storage"
	"github.com/redis/go-redis/v9"
)

func TestRedisStore(t *testing.T) {
	// Skip test if Redis is not available
	client := redis.NewClient(&redis.Options{
		Addr: "127.0.0.1:6379",
		DB:   2, // Use separate DB for storage tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	// Clean up test data
	defer client.FlushDB(ctx)

	s, err := New(Config{Client: client})
	if err != nil {
		t.Fatalf("Failed to create Redis store: %v", err)
	}
	defer s.Close()

	t.Run("SetAndGet", func(t *testing.T) {
		testSetAndGet(t, s)
	})

	t.Run("GetNonExistent", func(t *testing.T) {
		testGetNonExistent(t, s)
	})

	t.Run("TakeOnce", func(t *testing.T) {
		testTakeOnce(t, s)
	})

	t.Run("TTL", func(t *testing.T) {
		testTTL(t, s)
	})

	t.Run("Delete", func(t *testing.T) {
		testDelete(t, s)
	})

	t.Run("CorruptItem", func(t *testing.T) {
		testCorruptItem(t, s, client)
	})
}

func testSetAndGet(t *testing.T, s *Store) {
	ctx := context.Background()

	if err := s.Set(ctx, "set-get", []byte("payload")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	item, err := s.Get(ctx, "set-get")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if item == nil || string(item.Data) != "payload" {
		t.Fatalf("item = %v", item)
	}
	if item.CreatedAt.IsZero() {
		t.Fatalf("CreatedAt not stamped")
	}
}

func testGetNonExistent(t *testing.T, s *Store) {
	item, err := s.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if item != nil {
		t.Fatalf("missing key returned %v", item)
	}
}

func testTakeOnce(t *testing.T, s *Store) {
	ctx := context.Background()

	if err := s.Set(ctx, "take-once", []byte("once")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	item, err := s.Take(ctx, "take-once")
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	if item == nil || string(item.Data) != "once" {
		t.Fatalf("item = %v", item)
	}

	again, err := s.Take(ctx, "take-once")
	if err != nil {
		t.Fatalf("second Take: %v", err)
	}
	if again != nil {
		t.Fatalf("second Take returned %v, want nil", again)
	}
}

func testTTL(t *testing.T, s *Store) {
	ctx := context.Background()

	if err := s.Set(ctx, "ttl", []byte("v"), storage.WithTTL(100*time.Millisecond)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	item, err := s.Get(ctx, "ttl")
	if err != nil || item == nil {
		t.Fatalf("item should exist before expiry: item=%v err=%v", item, err)
	}

	time.Sleep(150 * time.Millisecond)

	item, err = s.Get(ctx, "ttl")
	if err != nil {
		t.Fatalf("Get after expiry: %v", err)
	}
	if item != nil {
		t.Fatalf("expired item returned %v", item)
	}
}

func testDelete(t *testing.T, s *Store) {
	ctx := context.Background()

	if err := s.Set(ctx, "del", []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Delete(ctx, "del"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if item, _ := s.Get(ctx, "del"); item != nil {
		t.Fatalf("Get after Delete returned %v", item)
	}
}

func testCorruptItem(t *testing.T, s *Store, client *redis.Client) {
	ctx := context.Background()

	if err := client.Set(ctx, s.keyPrefix+"corrupt", "not-json", 0).Err(); err != nil {
		t.Fatalf("seed corrupt value: %v", err)
	}
	_, err := s.Get(ctx, "corrupt")
	if !errors.Is(err, storage.ErrCorruptItem) {
		t.Fatalf("Get on corrupt value = %v, want ErrCorruptItem", err)
	}
}
