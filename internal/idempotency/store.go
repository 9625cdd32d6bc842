// Package idempotency remembers responses to mutating requests keyed by the
// client's Idempotency-Key so repeats can be replayed instead of re-run.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 24 * time.Hour

// Store is a Redis-backed response cache. The first response recorded for a
// key wins. Callers reserve a key with Remember before doing the work, then
// Replace the reservation with the real response or Forget it on failure.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewStore parses redisURL and pings the server.
func NewStore(ctx context.Context, redisURL string, ttl time.Duration) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewStoreWithClient(client, ttl), nil
}

func NewStoreWithClient(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{client: client, prefix: "idem:", ttl: ttl}
}

func (s *Store) key(scope, key string) string {
	return s.prefix + scope + ":" + key
}

// Lookup returns the stored response body for key within scope.
func (s *Store) Lookup(ctx context.Context, scope, key string) ([]byte, bool, error) {
	body, err := s.client.Get(ctx, s.key(scope, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup idempotency key: %w", err)
	}
	return body, true, nil
}

// Remember stores body unless a response is already recorded. It reports
// whether this call was the one that stored it.
func (s *Store) Remember(ctx context.Context, scope, key string, body []byte) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.key(scope, key), body, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("remember idempotency key: %w", err)
	}
	return ok, nil
}

// Replace overwrites the entry for key and restarts its TTL.
func (s *Store) Replace(ctx context.Context, scope, key string, body []byte) error {
	if err := s.client.Set(ctx, s.key(scope, key), body, s.ttl).Err(); err != nil {
		return fmt.Errorf("replace idempotency key: %w", err)
	}
	return nil
}

// Forget drops the entry for key so the request can be retried.
func (s *Store) Forget(ctx context.Context, scope, key string) error {
	if err := s.client.Del(ctx, s.key(scope, key)).Err(); err != nil {
		return fmt.Errorf("forget idempotency key: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
