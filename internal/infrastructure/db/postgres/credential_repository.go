package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vaultkeeper/credvault/internal/core/domain"
)

const credentialColumns = `id, owner_email, platform, username_or_email, website_url,
	description, password, created_at, updated_at`

type CredentialRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewCredentialRepository(pool *pgxpool.Pool) *CredentialRepository {
	return &CredentialRepository{
		pool: pool,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func scanCredential(row pgx.Row) (*domain.Credential, error) {
	var c domain.Credential
	err := row.Scan(&c.ID, &c.OwnerEmail, &c.Platform, &c.UsernameOrEmail, &c.WebsiteURL,
		&c.Description, &c.SecretCiphertext, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}

func (r *CredentialRepository) Add(ctx context.Context, c *domain.Credential) (*domain.Credential, error) {
	const query = `
		INSERT INTO credentials (id, owner_email, platform, username_or_email, website_url,
			description, password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	out := *c
	out.ID = uuid.NewString()
	out.OwnerEmail = domain.NormalizeEmail(c.OwnerEmail)
	out.CreatedAt = c.CreatedAt.UTC()
	out.UpdatedAt = c.UpdatedAt.UTC()

	_, err := r.pool.Exec(ctx, query, out.ID, out.OwnerEmail, out.Platform, out.UsernameOrEmail,
		out.WebsiteURL, out.Description, out.SecretCiphertext, out.CreatedAt, out.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: insert credential: %w", domain.ErrStorage, err)
	}
	return &out, nil
}

// ListByOwner orders by created_at descending; seq breaks ties in insertion order.
func (r *CredentialRepository) ListByOwner(ctx context.Context, ownerEmail string) ([]*domain.Credential, error) {
	const query = `SELECT ` + credentialColumns + `
		FROM credentials
		WHERE owner_email = $1
		ORDER BY created_at DESC, seq ASC`

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, query, domain.NormalizeEmail(ownerEmail))
	if err != nil {
		return nil, fmt.Errorf("%w: list credentials: %w", domain.ErrStorage, err)
	}
	defer rows.Close()

	out := []*domain.Credential{}
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan credential: %w", domain.ErrStorage, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list credentials: %w", domain.ErrStorage, err)
	}
	return out, nil
}

func (r *CredentialRepository) FindIfOwned(ctx context.Context, id, ownerEmail string) (*domain.Credential, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	const query = `SELECT ` + credentialColumns + `
		FROM credentials
		WHERE id = $1 AND owner_email = $2`

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	c, err := scanCredential(r.pool.QueryRow(ctx, query, id, domain.NormalizeEmail(ownerEmail)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: find credential: %w", domain.ErrStorage, err)
	}
	return c, nil
}

// UpdateIfOwned sets only the non-nil patch fields; NULL parameters keep the
// current column value.
func (r *CredentialRepository) UpdateIfOwned(ctx context.Context, id, ownerEmail string, patch domain.CredentialPatch) (*domain.Credential, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	const query = `
		UPDATE credentials SET
			platform          = COALESCE($3, platform),
			username_or_email = COALESCE($4, username_or_email),
			website_url       = COALESCE($5, website_url),
			description       = COALESCE($6, description),
			password          = COALESCE($7, password),
			updated_at        = $8
		WHERE id = $1 AND owner_email = $2
		RETURNING ` + credentialColumns

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := r.pool.QueryRow(ctx, query, id, domain.NormalizeEmail(ownerEmail),
		patch.Platform, patch.UsernameOrEmail, patch.WebsiteURL, patch.Description,
		patch.SecretCiphertext, r.now())
	c, err := scanCredential(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: update credential: %w", domain.ErrStorage, err)
	}
	return c, nil
}

func (r *CredentialRepository) DeleteIfOwned(ctx context.Context, id, ownerEmail string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	const query = `DELETE FROM credentials WHERE id = $1 AND owner_email = $2`

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, query, id, domain.NormalizeEmail(ownerEmail))
	if err != nil {
		return fmt.Errorf("%w: delete credential: %w", domain.ErrStorage, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
