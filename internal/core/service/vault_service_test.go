package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vaultkeeper/credvault/internal/core/domain"
	"github.com/vaultkeeper/credvault/internal/core/ports"
	"github.com/vaultkeeper/credvault/internal/infrastructure/db/memory"
	"github.com/vaultkeeper/credvault/internal/infrastructure/security"
)

const testMasterKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

var (
	alice = domain.Identity{AccountID: "acc-alice", Email: "alice@example.com"}
	bob   = domain.Identity{AccountID: "acc-bob", Email: "bob@example.com"}
)

func newTestVault(t *testing.T) (*VaultService, *memory.CredentialRepository) {
	t.Helper()

	key, err := security.ParseKey(testMasterKey)
	if err != nil {
		t.Fatalf("parse key: %v", err)
	}
	cipher, err := security.NewCipher(key, security.CipherOptions{Mode: security.ModeCBC})
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}

	repo := memory.NewCredentialRepository()
	svc := NewVaultService(repo, cipher, memory.NewIdempotencyStore(), time.Hour, zerolog.Nop())
	return svc, repo
}

func amazonInput() ports.CredentialInput {
	return ports.CredentialInput{
		Platform:        "Amazon",
		UsernameOrEmail: "alice@example.com",
		WebsiteURL:      "https://amazon.com",
		Password:        "secret1",
	}
}

func ptr(s string) *string { return &s }

// ---------------------------------------------------------------------------
// AddSecret
// ---------------------------------------------------------------------------

func TestAddSecret_SealsPassword(t *testing.T) {
	svc, repo := newTestVault(t)
	ctx := context.Background()

	created, err := svc.AddSecret(ctx, alice, amazonInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.OwnerEmail != alice.Email {
		t.Errorf("expected owner %s, got %s", alice.Email, created.OwnerEmail)
	}

	stored, err := repo.FindIfOwned(ctx, created.ID, alice.Email)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.SecretCiphertext == "secret1" || !strings.Contains(stored.SecretCiphertext, ":") {
		t.Fatalf("expected sealed password, got %q", stored.SecretCiphertext)
	}

	plain, err := svc.RevealSecret(stored)
	if err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if plain != "secret1" {
		t.Errorf("expected secret1, got %q", plain)
	}
}

func TestAddSecret_Validation(t *testing.T) {
	svc, _ := newTestVault(t)

	cases := []struct {
		name   string
		mutate func(*ports.CredentialInput)
		want   error
	}{
		{"missing platform", func(in *ports.CredentialInput) { in.Platform = "  " }, domain.ErrPlatformRequired},
		{"missing username", func(in *ports.CredentialInput) { in.UsernameOrEmail = "" }, domain.ErrUsernameRequired},
		{"missing website", func(in *ports.CredentialInput) { in.WebsiteURL = "" }, domain.ErrWebsiteRequired},
		{"missing password", func(in *ports.CredentialInput) { in.Password = "" }, domain.ErrPasswordRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := amazonInput()
			tc.mutate(&in)
			_, err := svc.AddSecret(context.Background(), alice, in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected a validation error, got %v", err)
			}
		})
	}
}

func TestAddSecret_RequiresIdentity(t *testing.T) {
	svc, _ := newTestVault(t)

	_, err := svc.AddSecret(context.Background(), domain.Identity{}, amazonInput())
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestAddSecret_IdempotentReplay(t *testing.T) {
	svc, _ := newTestVault(t)
	ctx := context.Background()

	in := amazonInput()
	in.IdempotencyKey = "req-1"

	first, err := svc.AddSecret(ctx, alice, in)
	if err != nil {
		t.Fatalf("first add: %v", err)
	}
	second, err := svc.AddSecret(ctx, alice, in)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected replay of %s, got %s", first.ID, second.ID)
	}

	list, _ := svc.ListSecrets(ctx, alice)
	if len(list) != 1 {
		t.Fatalf("expected 1 record, got %d", len(list))
	}

	// Keys are scoped per owner.
	other, err := svc.AddSecret(ctx, bob, in)
	if err != nil {
		t.Fatalf("bob add: %v", err)
	}
	if other.ID == first.ID {
		t.Fatal("idempotency key leaked across owners")
	}
}

// ---------------------------------------------------------------------------
// ListSecrets / RevealByID
// ---------------------------------------------------------------------------

func TestListSecrets_OwnerScopedNewestFirst(t *testing.T) {
	svc, _ := newTestVault(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	for _, p := range []string{"Amazon", "GitHub"} {
		in := amazonInput()
		in.Platform = p
		if _, err := svc.AddSecret(ctx, alice, in); err != nil {
			t.Fatalf("add %s: %v", p, err)
		}
	}
	if _, err := svc.AddSecret(ctx, bob, amazonInput()); err != nil {
		t.Fatalf("add bob: %v", err)
	}

	list, err := svc.ListSecrets(ctx, alice)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 records, got %d", len(list))
	}
	if list[0].Platform != "GitHub" || list[1].Platform != "Amazon" {
		t.Errorf("expected newest first, got %s, %s", list[0].Platform, list[1].Platform)
	}
	for _, c := range list {
		if c.SecretCiphertext == "secret1" {
			t.Error("list must not reveal passwords")
		}
	}
}

func TestRevealByID(t *testing.T) {
	svc, _ := newTestVault(t)
	ctx := context.Background()

	created, err := svc.AddSecret(ctx, alice, amazonInput())
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	plain, err := svc.RevealByID(ctx, alice, created.ID)
	if err != nil || plain != "secret1" {
		t.Fatalf("expected secret1, got %q (%v)", plain, err)
	}

	_, err = svc.RevealByID(ctx, bob, created.ID)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another owner, got %v", err)
	}
}

func TestRevealSecret_Nil(t *testing.T) {
	svc, _ := newTestVault(t)
	if _, err := svc.RevealSecret(nil); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// UpdateSecret / DeleteSecret
// ---------------------------------------------------------------------------

func TestUpdateSecret_PartialAndReseal(t *testing.T) {
	svc, _ := newTestVault(t)
	ctx := context.Background()

	created, err := svc.AddSecret(ctx, alice, amazonInput())
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	updated, err := svc.UpdateSecret(ctx, alice, created.ID, ports.CredentialUpdate{
		Description: ptr("  shopping  "),
		Password:    ptr("secret2"),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Platform != "Amazon" {
		t.Errorf("untouched field changed: %q", updated.Platform)
	}
	if updated.Description != "shopping" {
		t.Errorf("expected trimmed description, got %q", updated.Description)
	}
	if updated.SecretCiphertext == created.SecretCiphertext {
		t.Error("expected password to be re-sealed")
	}

	plain, err := svc.RevealSecret(updated)
	if err != nil || plain != "secret2" {
		t.Fatalf("expected secret2, got %q (%v)", plain, err)
	}
}

func TestUpdateSecret_EmptyPatchReturnsRecord(t *testing.T) {
	svc, _ := newTestVault(t)
	ctx := context.Background()

	created, err := svc.AddSecret(ctx, alice, amazonInput())
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	got, err := svc.UpdateSecret(ctx, alice, created.ID, ports.CredentialUpdate{})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.ID != created.ID || got.SecretCiphertext != created.SecretCiphertext {
		t.Errorf("expected unchanged record, got %+v", got)
	}

	_, err = svc.UpdateSecret(ctx, bob, created.ID, ports.CredentialUpdate{})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another owner, got %v", err)
	}
}

func TestUpdateSecret_RejectsBlankRequiredField(t *testing.T) {
	svc, _ := newTestVault(t)
	ctx := context.Background()

	created, _ := svc.AddSecret(ctx, alice, amazonInput())

	_, err := svc.UpdateSecret(ctx, alice, created.ID, ports.CredentialUpdate{Platform: ptr(" ")})
	if !errors.Is(err, domain.ErrPlatformRequired) {
		t.Fatalf("expected ErrPlatformRequired, got %v", err)
	}
	_, err = svc.UpdateSecret(ctx, alice, created.ID, ports.CredentialUpdate{Password: ptr("")})
	if !errors.Is(err, domain.ErrPasswordRequired) {
		t.Fatalf("expected ErrPasswordRequired, got %v", err)
	}
}

func TestCrossTenantUpdateAndDelete(t *testing.T) {
	svc, _ := newTestVault(t)
	ctx := context.Background()

	created, err := svc.AddSecret(ctx, alice, amazonInput())
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	_, err = svc.UpdateSecret(ctx, bob, created.ID, ports.CredentialUpdate{Platform: ptr("Hijacked")})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("update by other owner: expected ErrNotFound, got %v", err)
	}
	if err := svc.DeleteSecret(ctx, bob, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("delete by other owner: expected ErrNotFound, got %v", err)
	}

	if _, err := svc.UpdateSecret(ctx, alice, created.ID, ports.CredentialUpdate{Platform: ptr("Amazon EU")}); err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if err := svc.DeleteSecret(ctx, alice, created.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if err := svc.DeleteSecret(ctx, alice, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}
