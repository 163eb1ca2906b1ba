package auth

import (
	"testing"
	"time"

	"pulsegram/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	return NewManager("test-secret", time.Hour)
}

func TestPrepareWrite_HashesWhenPasswordChanged(t *testing.T) {
	t.Parallel()

	m := newTestManager()
	u := model.NewUser()
	u.Password = "plaintext-pw"

	err := m.PrepareWrite(u, model.FieldBio, model.FieldPassword)
	require.NoError(t, err)
	require.NotEqual(t, "plaintext-pw", u.Password)
	assert.True(t, VerifyPassword("plaintext-pw", u.Password))
}

func TestPrepareWrite_LeavesHashAloneOnUnrelatedWrite(t *testing.T) {
	t.Parallel()

	m := newTestManager()
	u := model.NewUser()
	u.Password = "plaintext-pw"
	require.NoError(t, m.PrepareWrite(u, model.FieldPassword))
	stored := u.Password

	// A bio-only update must not re-hash; byte-for-byte unchanged.
	u.Bio = "new bio"
	require.NoError(t, m.PrepareWrite(u, model.FieldBio))
	assert.Equal(t, stored, u.Password)
}

func TestPrepareWrite_PasswordRotation(t *testing.T) {
	t.Parallel()

	m := newTestManager()
	u := model.NewUser()
	u.Password = "old-password"
	require.NoError(t, m.PrepareWrite(u, model.FieldPassword))
	oldHash := u.Password

	u.Password = "new-password"
	require.NoError(t, m.PrepareWrite(u, model.FieldPassword))

	require.NotEqual(t, oldHash, u.Password)
	assert.True(t, m.MatchPassword("new-password", u.Password))
	assert.False(t, m.MatchPassword("old-password", u.Password))
}

func TestIssueSession_MutatesRecord(t *testing.T) {
	t.Parallel()

	m := newTestManager()
	u := model.NewUser()
	u.ID = 99

	token, err := m.IssueSession(u)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// The record carries the token and a strictly future expiry.
	assert.Equal(t, token, u.Token)
	assert.Greater(t, u.ExpiresAt, time.Now().Unix())

	claims, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(99), claims.UserID)
	assert.Equal(t, claims.ExpiresAt.Unix(), u.ExpiresAt)
}

func TestIssueSession_SupersedesPreviousToken(t *testing.T) {
	t.Parallel()

	m := NewManager("test-secret", time.Hour)
	u := model.NewUser()
	u.ID = 5

	first, err := m.IssueSession(u)
	require.NoError(t, err)
	firstExpiry := u.ExpiresAt

	time.Sleep(1100 * time.Millisecond) // distinct iat/exp second

	second, err := m.IssueSession(u)
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	assert.Equal(t, second, u.Token)
	assert.GreaterOrEqual(t, u.ExpiresAt, firstExpiry)
}

func TestIssueSession_MissingSecret(t *testing.T) {
	t.Parallel()

	m := NewManager("", time.Hour)
	u := model.NewUser()
	u.ID = 1

	_, err := m.IssueSession(u)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrCredential)
	assert.Empty(t, u.Token)
	assert.Zero(t, u.ExpiresAt)
}
