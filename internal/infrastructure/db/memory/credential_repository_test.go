package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultkeeper/credvault/internal/core/domain"
)

func addCredential(t *testing.T, repo *CredentialRepository, owner, platform string, createdAt time.Time) *domain.Credential {
	t.Helper()
	c, err := repo.Add(context.Background(), &domain.Credential{
		OwnerEmail:       owner,
		Platform:         platform,
		UsernameOrEmail:  "user",
		WebsiteURL:       "https://" + platform + ".example",
		SecretCiphertext: "sealed",
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	})
	require.NoError(t, err)
	return c
}

func platforms(list []*domain.Credential) []string {
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.Platform
	}
	return out
}

func TestCredentialRepository_ListByOwner_NewestFirstStableTies(t *testing.T) {
	repo := NewCredentialRepository()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	addCredential(t, repo, "x@x.com", "old", base)
	addCredential(t, repo, "x@x.com", "tie-1", base.Add(time.Hour))
	addCredential(t, repo, "y@y.com", "other-owner", base.Add(2*time.Hour))
	addCredential(t, repo, "x@x.com", "tie-2", base.Add(time.Hour))
	addCredential(t, repo, "x@x.com", "newest", base.Add(3*time.Hour))

	list, err := repo.ListByOwner(context.Background(), "X@x.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"newest", "tie-1", "tie-2", "old"}, platforms(list))
}

func TestCredentialRepository_OwnershipScoping(t *testing.T) {
	ctx := context.Background()
	repo := NewCredentialRepository()
	rec := addCredential(t, repo, "x@x.com", "amazon", time.Now())

	_, err := repo.FindIfOwned(ctx, rec.ID, "y@y.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	name := "hijacked"
	_, err = repo.UpdateIfOwned(ctx, rec.ID, "y@y.com", domain.CredentialPatch{Platform: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, repo.DeleteIfOwned(ctx, rec.ID, "y@y.com"), domain.ErrNotFound)

	got, err := repo.FindIfOwned(ctx, rec.ID, "x@x.com")
	require.NoError(t, err)
	assert.Equal(t, "amazon", got.Platform)

	renamed := "amazon-prime"
	updated, err := repo.UpdateIfOwned(ctx, rec.ID, "x@x.com", domain.CredentialPatch{Platform: &renamed})
	require.NoError(t, err)
	assert.Equal(t, "amazon-prime", updated.Platform)
	assert.Equal(t, rec.CreatedAt, updated.CreatedAt)

	require.NoError(t, repo.DeleteIfOwned(ctx, rec.ID, "x@x.com"))
	_, err = repo.FindIfOwned(ctx, rec.ID, "x@x.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteIfOwned(ctx, rec.ID, "x@x.com"), domain.ErrNotFound)
}

func TestCredentialRepository_UnknownID(t *testing.T) {
	ctx := context.Background()
	repo := NewCredentialRepository()

	_, err := repo.FindIfOwned(ctx, "missing", "x@x.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = repo.UpdateIfOwned(ctx, "missing", "x@x.com", domain.CredentialPatch{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
