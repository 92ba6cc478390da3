package ports

import "github.com/vaultkeeper/credvault/internal/core/domain"

// SecretCipher seals and opens single secret strings with the master key.
type SecretCipher interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

// PasswordHasher hashes and verifies account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, storedHash string) bool
}

// TokenIssuer issues and verifies session tokens.
type TokenIssuer interface {
	Issue(accountID, email string) (string, error)
	Verify(token string) (domain.Identity, error)
}
