package ports

import (
	"context"

	"github.com/vaultkeeper/credvault/internal/core/domain"
)

type AuthService interface {
	Register(ctx context.Context, email, password string) (*domain.Account, error)
	Login(ctx context.Context, email, password string) (string, *domain.Account, error)
	Authenticate(ctx context.Context, token string) (domain.Identity, error)
	Profile(ctx context.Context, identity domain.Identity) (*domain.Account, error)
}
