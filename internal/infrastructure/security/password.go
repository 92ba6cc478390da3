package security

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/vaultkeeper/credvault/internal/core/domain"
)

// DefaultBcryptCost matches the cost the existing account hashes were made with.
const DefaultBcryptCost = 10

const bcryptPrefix = "$2"

// PasswordHasher hashes account passwords with bcrypt.
type PasswordHasher struct {
	cost            int
	legacyPlaintext bool
}

// NewPasswordHasher returns a hasher with the given bcrypt cost. An out of
// range cost falls back to DefaultBcryptCost. With legacyPlaintext set, Verify
// also accepts accounts whose stored value is the raw password.
func NewPasswordHasher(cost int, legacyPlaintext bool) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &PasswordHasher{cost: cost, legacyPlaintext: legacyPlaintext}
}

// Hash returns a salted bcrypt hash of password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password is longer than 72 bytes", domain.ErrValidation)
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether password matches storedHash.
//
// A storedHash without the bcrypt prefix is a pre-hashing account. It only
// verifies when the legacy plaintext shim is on, by direct comparison.
func (h *PasswordHasher) Verify(password, storedHash string) bool {
	if !strings.HasPrefix(storedHash, bcryptPrefix) {
		if !h.legacyPlaintext {
			return false
		}
		return subtle.ConstantTimeCompare([]byte(password), []byte(storedHash)) == 1
	}
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password)) == nil
}
