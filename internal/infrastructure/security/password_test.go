package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vaultkeeper/credvault/internal/core/domain"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost, false)

	hash, err := h.Hash("pw123")
	require.NoError(t, err)
	assert.NotEqual(t, "pw123", hash)
	assert.True(t, strings.HasPrefix(hash, "$2"))

	assert.True(t, h.Verify("pw123", hash))
	assert.False(t, h.Verify("pw124", hash))
	assert.False(t, h.Verify("", hash))
}

func TestPasswordHasher_SaltPerCall(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost, false)
	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestPasswordHasher_CostFallback(t *testing.T) {
	assert.Equal(t, DefaultBcryptCost, NewPasswordHasher(0, false).cost)
	assert.Equal(t, DefaultBcryptCost, NewPasswordHasher(99, false).cost)
	assert.Equal(t, 12, NewPasswordHasher(12, false).cost)
}

func TestPasswordHasher_TooLong(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost, false)
	_, err := h.Hash(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, domain.ErrValidation)

	// 40 characters, 80 bytes.
	_, err = h.Hash(strings.Repeat("é", 40))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestPasswordHasher_LegacyPlaintextLongerThanBcryptLimit(t *testing.T) {
	long := strings.Repeat("x", 100)
	legacy := NewPasswordHasher(bcrypt.MinCost, true)
	assert.True(t, legacy.Verify(long, long))
}

// Accounts created before hashing store the raw password. With the shim on
// they still log in; this is a known weakening kept for migration only.
func TestPasswordHasher_LegacyPlaintextShim(t *testing.T) {
	legacy := NewPasswordHasher(bcrypt.MinCost, true)
	assert.True(t, legacy.Verify("oldpass", "oldpass"))
	assert.False(t, legacy.Verify("wrong", "oldpass"))

	strict := NewPasswordHasher(bcrypt.MinCost, false)
	assert.False(t, strict.Verify("oldpass", "oldpass"))
}
