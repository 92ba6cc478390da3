package ports

import (
	"context"

	"github.com/vaultkeeper/credvault/internal/core/domain"
)

// CredentialRepository persists credential records. Every method that touches
// an existing record is keyed on (id, ownerEmail) inside a single query; a
// record owned by someone else is reported as domain.ErrNotFound.
type CredentialRepository interface {
	Add(ctx context.Context, c *domain.Credential) (*domain.Credential, error)
	// ListByOwner returns newest CreatedAt first; ties keep insertion order.
	ListByOwner(ctx context.Context, ownerEmail string) ([]*domain.Credential, error)
	FindIfOwned(ctx context.Context, id, ownerEmail string) (*domain.Credential, error)
	UpdateIfOwned(ctx context.Context, id, ownerEmail string, patch domain.CredentialPatch) (*domain.Credential, error)
	DeleteIfOwned(ctx context.Context, id, ownerEmail string) error
}
