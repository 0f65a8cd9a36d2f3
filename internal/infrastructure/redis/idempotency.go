package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "loanbook:idempotency:"
	pendingMarker = "pending"
)

// IdempotencyStore implements port.IdempotencyStore on Redis. A reservation
// is a SETNX of a pending marker; completion overwrites it with the payment id.
type IdempotencyStore struct {
	client *redis.Client
}

func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

// NewClient builds a client and verifies the server answers.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}
	return client, nil
}

func (s *IdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, keyPrefix+key, pendingMarker, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis: reserve: %w", err)
	}
	return ok, nil
}

func (s *IdempotencyStore) Lookup(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis: lookup: %w", err)
	}
	if val == pendingMarker {
		return "", nil
	}
	return val, nil
}

func (s *IdempotencyStore) Complete(ctx context.Context, key, paymentID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, keyPrefix+key, paymentID, ttl).Err(); err != nil {
		return fmt.Errorf("redis: complete: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis: release: %w", err)
	}
	return nil
}
