package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = func() time.Time { return time.Now().UTC() } })

	s := NewIdempotencyStore()

	id, err := s.Lookup(ctx, "x@x.com", "k1")
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, s.Remember(ctx, "x@x.com", "k1", "rec-1", time.Minute))
	require.NoError(t, s.Remember(ctx, "x@x.com", "k1", "rec-2", time.Minute))

	id, _ = s.Lookup(ctx, "x@x.com", "k1")
	assert.Equal(t, "rec-1", id, "first binding wins")

	id, _ = s.Lookup(ctx, "y@y.com", "k1")
	assert.Empty(t, id, "keys are scoped per owner")

	now = now.Add(2 * time.Minute)
	id, _ = s.Lookup(ctx, "x@x.com", "k1")
	assert.Empty(t, id, "expired")
}

func TestIdempotencyStore_RememberSweepsExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = func() time.Time { return time.Now().UTC() } })

	s := NewIdempotencyStore()
	require.NoError(t, s.Remember(ctx, "x@x.com", "old-1", "rec-1", time.Minute))
	require.NoError(t, s.Remember(ctx, "y@y.com", "old-2", "rec-2", time.Minute))
	require.Equal(t, 2, s.size())

	now = now.Add(2 * time.Minute)
	require.NoError(t, s.Remember(ctx, "x@x.com", "new", "rec-3", time.Minute))

	assert.Equal(t, 1, s.size(), "keys never looked up again are still dropped")
	id, _ := s.Lookup(ctx, "x@x.com", "new")
	assert.Equal(t, "rec-3", id)
}
