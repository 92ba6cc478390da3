package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/vaultkeeper/credvault/internal/core/domain"
)

type storedCredential struct {
	rec domain.Credential
	seq uint64
}

type CredentialRepository struct {
	mu      sync.RWMutex
	byID    map[string]*storedCredential
	nextSeq uint64
}

func NewCredentialRepository() *CredentialRepository {
	return &CredentialRepository{byID: make(map[string]*storedCredential)}
}

func (r *CredentialRepository) Add(_ context.Context, c *domain.Credential) (*domain.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := *c
	rec.ID = uuid.NewString()
	rec.OwnerEmail = domain.NormalizeEmail(rec.OwnerEmail)
	r.nextSeq++
	r.byID[rec.ID] = &storedCredential{rec: rec, seq: r.nextSeq}

	return &rec, nil
}

func (r *CredentialRepository) ListByOwner(_ context.Context, ownerEmail string) ([]*domain.Credential, error) {
	owner := domain.NormalizeEmail(ownerEmail)

	r.mu.RLock()
	matched := make([]*storedCredential, 0)
	for _, s := range r.byID {
		if s.rec.OwnerEmail == owner {
			matched = append(matched, s)
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(matched, func(a, b *storedCredential) int {
		if c := b.rec.CreatedAt.Compare(a.rec.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})

	out := make([]*domain.Credential, len(matched))
	for i, s := range matched {
		rec := s.rec
		out[i] = &rec
	}
	return out, nil
}

// owned must be called with r.mu held.
func (r *CredentialRepository) owned(id, ownerEmail string) (*storedCredential, bool) {
	s, ok := r.byID[id]
	if !ok || s.rec.OwnerEmail != domain.NormalizeEmail(ownerEmail) {
		return nil, false
	}
	return s, true
}

func (r *CredentialRepository) FindIfOwned(_ context.Context, id, ownerEmail string) (*domain.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.owned(id, ownerEmail)
	if !ok {
		return nil, domain.ErrNotFound
	}
	rec := s.rec
	return &rec, nil
}

func (r *CredentialRepository) UpdateIfOwned(_ context.Context, id, ownerEmail string, patch domain.CredentialPatch) (*domain.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.owned(id, ownerEmail)
	if !ok {
		return nil, domain.ErrNotFound
	}

	next := s.rec
	patch.Apply(&next, timeNow())
	s.rec = next

	return &next, nil
}

func (r *CredentialRepository) DeleteIfOwned(_ context.Context, id, ownerEmail string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.owned(id, ownerEmail); !ok {
		return domain.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}
