package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vaultkeeper/credvault/internal/core/domain"
)

type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create inserts the account; the UNIQUE constraint on email decides
// concurrent registrations.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	const query = `
		INSERT INTO accounts (id, email, password, created_at)
		VALUES ($1, $2, $3, $4)`

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	out := &domain.Account{
		ID:           uuid.NewString(),
		Email:        domain.NormalizeEmail(account.Email),
		PasswordHash: account.PasswordHash,
		CreatedAt:    account.CreatedAt.UTC(),
	}
	if _, err := r.pool.Exec(ctx, query, out.ID, out.Email, out.PasswordHash, out.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("%w: insert account: %w", domain.ErrStorage, err)
	}
	return out, nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	const query = `SELECT id, email, password, created_at FROM accounts WHERE email = $1`
	return r.findOne(ctx, query, domain.NormalizeEmail(email))
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrAccountNotFound
	}
	const query = `SELECT id, email, password, created_at FROM accounts WHERE id = $1`
	return r.findOne(ctx, query, id)
}

func (r *AccountRepository) findOne(ctx context.Context, query string, arg string) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var a domain.Account
	err := r.pool.QueryRow(ctx, query, arg).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("%w: find account: %w", domain.ErrStorage, err)
	}
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}
