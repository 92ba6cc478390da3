package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore binds Idempotency-Key values to the credential they created.
// Key format: idem:<owner_email>:<key>
type IdempotencyStore struct {
	client *redis.Client
}

// NewIdempotencyStore creates an IdempotencyStore wrapping the given Redis client.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

// Lookup returns the record id bound to key, or "" when none is.
func (s *IdempotencyStore) Lookup(ctx context.Context, ownerEmail, key string) (string, error) {
	id, err := s.client.Get(ctx, s.key(ownerEmail, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("idempotency lookup: %w", err)
	}
	return id, nil
}

// Remember records recordID under key for ttl. SETNX keeps the first binding.
func (s *IdempotencyStore) Remember(ctx context.Context, ownerEmail, key, recordID string, ttl time.Duration) error {
	if err := s.client.SetNX(ctx, s.key(ownerEmail, key), recordID, ttl).Err(); err != nil {
		return fmt.Errorf("idempotency remember: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(ownerEmail, key string) string {
	return fmt.Sprintf("idem:%s:%s", ownerEmail, key)
}
