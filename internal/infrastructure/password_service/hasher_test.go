package passwordservice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	h := NewHasherWithCost(bcrypt.MinCost)

	hashed, err := h.HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hashed)

	assert.NoError(t, h.ComparePasswordHash("s3cret!", hashed))
	assert.ErrorIs(t, h.ComparePasswordHash("wrong", hashed), ErrPasswordMismatch)
}

func TestHashString(t *testing.T) {
	h := NewHasher()
	digest := h.HashString("abc")

	assert.Len(t, digest, 64)
	assert.Equal(t, digest, h.HashString("abc"))
	assert.Empty(t, h.HashString(""))
	assert.True(t, h.CheckHash("abc", digest))
	assert.False(t, h.CheckHash("abd", digest))
}
