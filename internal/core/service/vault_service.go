package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vaultkeeper/credvault/internal/core/domain"
	"github.com/vaultkeeper/credvault/internal/core/ports"
)

// DefaultIdempotencyTTL bounds how long a create can be replayed.
const DefaultIdempotencyTTL = 24 * time.Hour

// VaultService implements the owner-scoped credential use cases. Passwords
// are sealed before they reach the repository and are only opened on request.
type VaultService struct {
	repo    ports.CredentialRepository
	cipher  ports.SecretCipher
	idem    ports.IdempotencyStore
	idemTTL time.Duration
	log     zerolog.Logger
	now     func() time.Time
}

// NewVaultService returns a VaultService. idem may be nil, in which case
// Idempotency-Key is ignored.
func NewVaultService(
	repo ports.CredentialRepository,
	cipher ports.SecretCipher,
	idem ports.IdempotencyStore,
	idemTTL time.Duration,
	log zerolog.Logger,
) *VaultService {
	if idemTTL <= 0 {
		idemTTL = DefaultIdempotencyTTL
	}
	return &VaultService{
		repo:    repo,
		cipher:  cipher,
		idem:    idem,
		idemTTL: idemTTL,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// AddSecret seals the password and stores a new record owned by identity. A
// repeated IdempotencyKey returns the record the first call created.
func (s *VaultService) AddSecret(ctx context.Context, identity domain.Identity, in ports.CredentialInput) (*domain.Credential, error) {
	owner, err := ownerOf(identity)
	if err != nil {
		return nil, err
	}

	rec := &domain.Credential{
		OwnerEmail:      owner,
		Platform:        strings.TrimSpace(in.Platform),
		UsernameOrEmail: strings.TrimSpace(in.UsernameOrEmail),
		WebsiteURL:      strings.TrimSpace(in.WebsiteURL),
		Description:     strings.TrimSpace(in.Description),
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	if in.Password == "" {
		return nil, domain.ErrPasswordRequired
	}

	if existing := s.replay(ctx, owner, in.IdempotencyKey); existing != nil {
		return existing, nil
	}

	sealed, err := s.cipher.Seal(in.Password)
	if err != nil {
		return nil, fmt.Errorf("add secret: %w", err)
	}
	now := s.now()
	rec.SecretCiphertext = sealed
	rec.CreatedAt = now
	rec.UpdatedAt = now

	created, err := s.repo.Add(ctx, rec)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to store credential")
		return nil, fmt.Errorf("add secret: %w", err)
	}

	if in.IdempotencyKey != "" && s.idem != nil {
		if err := s.idem.Remember(ctx, owner, in.IdempotencyKey, created.ID, s.idemTTL); err != nil {
			s.log.Warn().Err(err).Str("credential_id", created.ID).Msg("failed to record idempotency key")
		}
	}

	s.log.Info().Str("credential_id", created.ID).Str("platform", created.Platform).Msg("credential stored")
	return created, nil
}

// replay returns the record previously created under key, or nil. Lookup
// failures are logged and treated as a miss.
func (s *VaultService) replay(ctx context.Context, owner, key string) *domain.Credential {
	if key == "" || s.idem == nil {
		return nil
	}

	id, err := s.idem.Lookup(ctx, owner, key)
	if err != nil {
		s.log.Warn().Err(err).Msg("idempotency lookup failed, creating anyway")
		return nil
	}
	if id == "" {
		return nil
	}

	existing, err := s.repo.FindIfOwned(ctx, id, owner)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.Warn().Err(err).Str("credential_id", id).Msg("idempotent replay lookup failed")
		}
		return nil
	}

	s.log.Info().Str("credential_id", id).Msg("idempotent replay")
	return existing
}

// ListSecrets returns the owner's records newest first, still sealed.
func (s *VaultService) ListSecrets(ctx context.Context, identity domain.Identity) ([]*domain.Credential, error) {
	owner, err := ownerOf(identity)
	if err != nil {
		return nil, err
	}
	list, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list secrets: %w", err)
	}
	return list, nil
}

// RevealSecret opens the sealed password of c.
func (s *VaultService) RevealSecret(c *domain.Credential) (string, error) {
	if c == nil {
		return "", domain.ErrNotFound
	}
	return s.cipher.Open(c.SecretCiphertext)
}

// RevealByID opens the password of one owned record.
func (s *VaultService) RevealByID(ctx context.Context, identity domain.Identity, id string) (string, error) {
	owner, err := ownerOf(identity)
	if err != nil {
		return "", err
	}
	rec, err := s.repo.FindIfOwned(ctx, id, owner)
	if err != nil {
		return "", err
	}
	return s.RevealSecret(rec)
}

// UpdateSecret applies a partial update to an owned record, re-sealing the
// password under a fresh IV when one is supplied. An empty update returns the
// record unchanged.
func (s *VaultService) UpdateSecret(ctx context.Context, identity domain.Identity, id string, in ports.CredentialUpdate) (*domain.Credential, error) {
	owner, err := ownerOf(identity)
	if err != nil {
		return nil, err
	}

	patch, err := s.buildPatch(in)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return s.repo.FindIfOwned(ctx, id, owner)
	}

	updated, err := s.repo.UpdateIfOwned(ctx, id, owner, patch)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("credential_id", id).Bool("secret_changed", patch.SecretCiphertext != nil).Msg("credential updated")
	return updated, nil
}

func (s *VaultService) buildPatch(in ports.CredentialUpdate) (domain.CredentialPatch, error) {
	var patch domain.CredentialPatch

	required := []struct {
		in  *string
		out **string
		err error
	}{
		{in.Platform, &patch.Platform, domain.ErrPlatformRequired},
		{in.UsernameOrEmail, &patch.UsernameOrEmail, domain.ErrUsernameRequired},
		{in.WebsiteURL, &patch.WebsiteURL, domain.ErrWebsiteRequired},
	}
	for _, f := range required {
		if f.in == nil {
			continue
		}
		v := strings.TrimSpace(*f.in)
		if v == "" {
			return patch, f.err
		}
		*f.out = &v
	}

	if in.Description != nil {
		v := strings.TrimSpace(*in.Description)
		patch.Description = &v
	}

	if in.Password != nil {
		if *in.Password == "" {
			return patch, domain.ErrPasswordRequired
		}
		sealed, err := s.cipher.Seal(*in.Password)
		if err != nil {
			return patch, fmt.Errorf("update secret: %w", err)
		}
		patch.SecretCiphertext = &sealed
	}

	return patch, nil
}

// DeleteSecret removes an owned record.
func (s *VaultService) DeleteSecret(ctx context.Context, identity domain.Identity, id string) error {
	owner, err := ownerOf(identity)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteIfOwned(ctx, id, owner); err != nil {
		return err
	}
	s.log.Info().Str("credential_id", id).Msg("credential deleted")
	return nil
}

func ownerOf(identity domain.Identity) (string, error) {
	owner := domain.NormalizeEmail(identity.Email)
	if owner == "" {
		return "", domain.ErrUnauthenticated
	}
	return owner, nil
}
