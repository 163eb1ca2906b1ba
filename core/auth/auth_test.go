package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_VerifyRoundTrip(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-pass", hash)

	assert.True(t, VerifyPassword("s3cret-pass", hash))
	assert.False(t, VerifyPassword("s3cret-pass2", hash))
	assert.False(t, VerifyPassword("", hash))
}

func TestHashPassword_Salted(t *testing.T) {
	t.Parallel()

	first, err := HashPassword("same-password")
	require.NoError(t, err)
	second, err := HashPassword("same-password")
	require.NoError(t, err)

	// Per-hash random salt: same input, different stored values, both verify.
	require.NotEqual(t, first, second)
	assert.True(t, VerifyPassword("same-password", first))
	assert.True(t, VerifyPassword("same-password", second))
}

func TestHashPassword_TooLongFailsHard(t *testing.T) {
	t.Parallel()

	// bcrypt rejects inputs over 72 bytes; the failure must surface as a
	// credential error, never as a silently stored plaintext.
	_, err := HashPassword(strings.Repeat("x", 100))
	require.Error(t, err)
	require.ErrorIs(t, err, ErrCredential)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	t.Parallel()

	assert.False(t, VerifyPassword("anything", "not-a-bcrypt-hash"))
	assert.False(t, VerifyPassword("anything", ""))
}
