package memory

import (
	"context"
	"sync"
	"time"
)

var timeNow = func() time.Time { return time.Now().UTC() }

type idemEntry struct {
	recordID string
	expires  time.Time
}

// IdempotencyStore is the in-process fallback used when Redis is disabled.
// Expired keys are dropped on lookup and swept on every Remember.
type IdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]idemEntry
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{entries: make(map[string]idemEntry)}
}

func (s *IdempotencyStore) Lookup(_ context.Context, ownerEmail, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := ownerEmail + "\x00" + key
	e, ok := s.entries[k]
	if !ok {
		return "", nil
	}
	if !timeNow().Before(e.expires) {
		delete(s.entries, k)
		return "", nil
	}
	return e.recordID, nil
}

func (s *IdempotencyStore) Remember(_ context.Context, ownerEmail, key, recordID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := timeNow()
	for k, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, k)
		}
	}

	k := ownerEmail + "\x00" + key
	if _, ok := s.entries[k]; ok {
		return nil
	}
	s.entries[k] = idemEntry{recordID: recordID, expires: now.Add(ttl)}
	return nil
}

// size reports how many keys are held, expired ones included.
func (s *IdempotencyStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
