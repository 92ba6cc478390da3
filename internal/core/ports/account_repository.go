package ports

import (
	"context"

	"github.com/vaultkeeper/credvault/internal/core/domain"
)

// AccountRepository persists vault owners.
type AccountRepository interface {
	// Create stores a new account with an already-normalized email and returns
	// it with its assigned ID. A second account with the same email fails with
	// domain.ErrDuplicateEmail, including when two creates race.
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	// FindByEmail and FindByID return domain.ErrAccountNotFound on a miss.
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
}
