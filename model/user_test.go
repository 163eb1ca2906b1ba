package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validUser() *User {
	u := NewUser()
	u.FirstName = "Alice"
	u.LastName = "Doe"
	u.Email = "alice@example.com"
	u.Username = "alice"
	return u
}

func TestNewUser_Defaults(t *testing.T) {
	t.Parallel()

	u := NewUser()
	assert.Equal(t, PrivacyPublic, u.AccountPrivacy)
	assert.Equal(t, RoleUser, u.Role)
	assert.Equal(t, StatusActive, u.AccountStatus)
	assert.Equal(t, VerificationUnverified, u.VerificationStatus)
	assert.False(t, u.CreatedAt.IsZero())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(u *User)
		wantField string
	}{
		{"valid", func(u *User) {}, ""},
		{"missing first name", func(u *User) { u.FirstName = "" }, "fname"},
		{"short first name", func(u *User) { u.FirstName = "Al" }, "fname"},
		{"missing last name", func(u *User) { u.LastName = "" }, "lname"},
		{"missing email", func(u *User) { u.Email = "" }, "email"},
		{"missing username", func(u *User) { u.Username = "" }, "uname"},
		{"short username", func(u *User) { u.Username = "ab" }, "uname"},
		{"long username", func(u *User) { u.Username = "abcdefghijklmnopqrstu" }, "uname"},
		{"long profession", func(u *User) { u.Profession = string(make([]byte, 101)) }, "profession"},
		{"bad privacy", func(u *User) { u.AccountPrivacy = "friends-only" }, "accountPrivacy"},
		{"bad role", func(u *User) { u.Role = "root" }, "role"},
		{"bad account status", func(u *User) { u.AccountStatus = "zombie" }, "accountStatus"},
		{"bad verification status", func(u *User) { u.VerificationStatus = "maybe" }, "verificationStatus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := validUser()
			tt.mutate(u)
			err := u.Validate()
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidatePassword("secret1"))

	var verr *ValidationError
	err := ValidatePassword("")
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, FieldPassword, verr.Field)

	err = ValidatePassword("abc")
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, FieldPassword, verr.Field)
}

func TestEnumMembership(t *testing.T) {
	t.Parallel()

	assert.True(t, AccountPrivacy("public").Valid())
	assert.False(t, AccountPrivacy("hidden").Valid())

	assert.True(t, Role("moderator").Valid())
	assert.False(t, Role("owner").Valid())

	for _, s := range []AccountStatus{
		StatusActive, StatusInactive, StatusDeactivated, StatusSuspended,
		StatusBlocked, StatusDeleted, StatusBanned, StatusReported,
		StatusPending, StatusWithheld, StatusRestricted,
	} {
		assert.True(t, s.Valid(), "status %q should be valid", s)
	}
	assert.False(t, AccountStatus("archived").Valid())

	assert.True(t, VerificationStatus("rejected").Valid())
	assert.False(t, VerificationStatus("").Valid())
}

func TestValidationError_Message(t *testing.T) {
	t.Parallel()

	err := &ValidationError{Field: "uname", Reason: "must be at least 3 characters"}
	assert.Equal(t, "uname: must be at least 3 characters", err.Error())
}

func TestLoginBlocked(t *testing.T) {
	t.Parallel()

	for _, s := range []AccountStatus{
		StatusDeactivated, StatusSuspended, StatusBlocked, StatusDeleted, StatusBanned,
	} {
		assert.True(t, s.LoginBlocked(), "status %q should block login", s)
	}
	for _, s := range []AccountStatus{
		StatusActive, StatusInactive, StatusReported, StatusPending, StatusWithheld, StatusRestricted,
	} {
		assert.False(t, s.LoginBlocked(), "status %q should allow login", s)
	}
}

func TestUserJSON_Projection(t *testing.T) {
	t.Parallel()

	u := validUser()
	u.Password = "$2a$10$notarealhash"
	u.Token = "session-token"
	u.ResetPasswordToken = "reset-token"

	data, err := json.Marshal(u)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))

	// Credential material never serializes.
	assert.NotContains(t, body, "password")
	assert.NotContains(t, string(data), "notarealhash")
	assert.NotContains(t, string(data), "session-token")
	assert.NotContains(t, string(data), "reset-token")

	// Nested structs always serialize, even when zero, so clients get a
	// stable shape.
	assert.Contains(t, body, "phone")
	assert.Contains(t, body, "avatar")
}
