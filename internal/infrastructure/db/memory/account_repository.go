package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/vaultkeeper/credvault/internal/core/domain"
)

type AccountRepository struct {
	mu      sync.RWMutex
	byID    map[string]*domain.Account
	byEmail map[string]string
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		byID:    make(map[string]*domain.Account),
		byEmail: make(map[string]string),
	}
}

// Create inserts account. The existence check and the insert happen under
// one lock, which is this store's uniqueness guarantee.
func (r *AccountRepository) Create(_ context.Context, account *domain.Account) (*domain.Account, error) {
	email := domain.NormalizeEmail(account.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[email]; exists {
		return nil, domain.ErrDuplicateEmail
	}

	stored := *account
	stored.ID = uuid.NewString()
	stored.Email = email
	r.byID[stored.ID] = &stored
	r.byEmail[email] = stored.ID

	out := stored
	return &out, nil
}

func (r *AccountRepository) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	out := *r.byID[id]
	return &out, nil
}

func (r *AccountRepository) FindByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	out := *a
	return &out, nil
}
