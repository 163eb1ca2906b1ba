package model

import "fmt"

// ValidationError reports a field that failed a presence, length, membership
// or uniqueness constraint. The field name and reason are surfaced to the
// caller as-is; values are never silently corrected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

const (
	MinFirstNameLen  = 3
	MinUsernameLen   = 3
	MaxUsernameLen   = 20
	MinPasswordLen   = 6
	MaxProfessionLen = 100
)

// Validate checks field constraints on the record. It does not touch the
// password; plaintext password input is checked separately with
// ValidatePassword before hashing.
func (u *User) Validate() error {
	if u.FirstName == "" {
		return &ValidationError{Field: FieldFirstName, Reason: "please enter a first name"}
	}
	if len(u.FirstName) < MinFirstNameLen {
		return &ValidationError{Field: FieldFirstName, Reason: fmt.Sprintf("must be at least %d characters", MinFirstNameLen)}
	}
	if u.LastName == "" {
		return &ValidationError{Field: FieldLastName, Reason: "please enter a last name"}
	}
	if u.Email == "" {
		return &ValidationError{Field: "email", Reason: "please enter an email"}
	}
	if u.Username == "" {
		return &ValidationError{Field: "uname", Reason: "please enter a username"}
	}
	if len(u.Username) < MinUsernameLen {
		return &ValidationError{Field: "uname", Reason: fmt.Sprintf("must be at least %d characters", MinUsernameLen)}
	}
	if len(u.Username) > MaxUsernameLen {
		return &ValidationError{Field: "uname", Reason: fmt.Sprintf("must not exceed %d characters", MaxUsernameLen)}
	}
	if len(u.Profession) > MaxProfessionLen {
		return &ValidationError{Field: FieldProfession, Reason: fmt.Sprintf("must not exceed %d characters", MaxProfessionLen)}
	}
	if !u.AccountPrivacy.Valid() {
		return &ValidationError{Field: FieldAccountPrivacy, Reason: "unknown value"}
	}
	if !u.Role.Valid() {
		return &ValidationError{Field: "role", Reason: "unknown value"}
	}
	if !u.AccountStatus.Valid() {
		return &ValidationError{Field: "accountStatus", Reason: "unknown value"}
	}
	if !u.VerificationStatus.Valid() {
		return &ValidationError{Field: "verificationStatus", Reason: "unknown value"}
	}
	return nil
}

// ValidatePassword checks a plaintext password before it is hashed.
func ValidatePassword(plain string) error {
	if plain == "" {
		return &ValidationError{Field: FieldPassword, Reason: "please enter a password"}
	}
	if len(plain) < MinPasswordLen {
		return &ValidationError{Field: FieldPassword, Reason: fmt.Sprintf("must be at least %d characters", MinPasswordLen)}
	}
	return nil
}
