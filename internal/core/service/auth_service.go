package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vaultkeeper/credvault/internal/core/domain"
	"github.com/vaultkeeper/credvault/internal/core/ports"
)

// AuthService implements registration, login and token authentication.
type AuthService struct {
	repo   ports.AccountRepository
	hasher ports.PasswordHasher
	tokens ports.TokenIssuer
	log    zerolog.Logger

	// placeholder is hashed once and verified against on unknown emails so a
	// miss costs the same bcrypt work as a wrong password.
	placeholderOnce sync.Once
	placeholder     string
}

func NewAuthService(repo ports.AccountRepository, hasher ports.PasswordHasher, tokens ports.TokenIssuer, log zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, hasher: hasher, tokens: tokens, log: log}
}

// Register creates an account for email. The store rejects a second account
// with the same normalized email, concurrent attempts included.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.Account, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrMissingFields
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, &domain.Account{
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			s.log.Debug().Msg("registration rejected: email taken")
			return nil, err
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().Str("account_id", created.ID).Msg("account registered")
	return created, nil
}

// Login verifies the password and issues a session token. An unknown email
// and a wrong password both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.Account, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, domain.ErrMissingFields
	}

	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			s.log.Debug().Msg("login rejected: unknown account")
			s.verifyPlaceholder(password)
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("login: %w", err)
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		s.log.Debug().Str("account_id", account.ID).Msg("login rejected: password mismatch")
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(account.ID, account.Email)
	if err != nil {
		return "", nil, fmt.Errorf("login: %w", err)
	}

	s.log.Info().Str("account_id", account.ID).Msg("login succeeded")
	return token, account, nil
}

func (s *AuthService) verifyPlaceholder(password string) {
	s.placeholderOnce.Do(func() {
		hash, err := s.hasher.Hash("credvault-placeholder-password")
		if err != nil {
			s.log.Warn().Err(err).Msg("hash login placeholder")
			return
		}
		s.placeholder = hash
	})
	s.hasher.Verify(password, s.placeholder)
}

// Authenticate turns a bearer token into a verified identity.
func (s *AuthService) Authenticate(_ context.Context, token string) (domain.Identity, error) {
	return s.tokens.Verify(token)
}

// Profile returns the account behind identity.
func (s *AuthService) Profile(ctx context.Context, identity domain.Identity) (*domain.Account, error) {
	account, err := s.repo.FindByID(ctx, identity.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("profile: %w", err)
	}
	return account, nil
}
