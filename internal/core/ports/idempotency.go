package ports

import (
	"context"
	"time"
)

// IdempotencyStore remembers which record a client-supplied Idempotency-Key
// produced, per owner.
type IdempotencyStore interface {
	// Lookup returns the stored record id, or "" when the key is unknown.
	Lookup(ctx context.Context, ownerEmail, key string) (string, error)
	// Remember binds key to recordID for ttl. It does not overwrite an
	// existing binding.
	Remember(ctx context.Context, ownerEmail, key, recordID string, ttl time.Duration) error
}
