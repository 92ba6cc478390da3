package domain

import (
	"strings"
	"time"
)

// Account is a registered vault owner.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Identity is the verified (account id, email) pair produced by a successful
// token check. Every vault operation is scoped by Identity.Email.
type Identity struct {
	AccountID string
	Email     string
}

// NormalizeEmail trims and lowercases an email so that lookups and the
// uniqueness constraint are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
