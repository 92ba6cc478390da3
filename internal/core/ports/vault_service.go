package ports

import (
	"context"

	"github.com/vaultkeeper/credvault/internal/core/domain"
)

// CredentialInput is the DTO passed from the transport layer to VaultService
// when creating a record. Password is plaintext and is sealed before storage.
type CredentialInput struct {
	Platform        string
	UsernameOrEmail string
	WebsiteURL      string
	Description     string
	Password        string
	// IdempotencyKey, when set, makes a retried create return the first record.
	IdempotencyKey string
}

// CredentialUpdate is a partial update. Nil fields are left untouched.
type CredentialUpdate struct {
	Platform        *string
	UsernameOrEmail *string
	WebsiteURL      *string
	Description     *string
	Password        *string
}

// VaultService defines the owner-scoped credential use cases.
type VaultService interface {
	AddSecret(ctx context.Context, identity domain.Identity, in CredentialInput) (*domain.Credential, error)
	// ListSecrets leaves every SecretCiphertext sealed.
	ListSecrets(ctx context.Context, identity domain.Identity) ([]*domain.Credential, error)
	RevealSecret(c *domain.Credential) (string, error)
	RevealByID(ctx context.Context, identity domain.Identity, id string) (string, error)
	UpdateSecret(ctx context.Context, identity domain.Identity, id string, in CredentialUpdate) (*domain.Credential, error)
	DeleteSecret(ctx context.Context, identity domain.Identity, id string) error
}
