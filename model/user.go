package model

import (
	"database/sql"
	"time"
)

// AccountPrivacy controls who can see a user's content.
type AccountPrivacy string

const (
	PrivacyPublic  AccountPrivacy = "public"
	PrivacyPrivate AccountPrivacy = "private"
)

// Valid reports whether the value is a member of the closed set.
func (p AccountPrivacy) Valid() bool {
	switch p {
	case PrivacyPublic, PrivacyPrivate:
		return true
	}
	return false
}

// Role is stored on the record but never interpreted by this service.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
	RoleModerator  Role = "moderator"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperadmin, RoleModerator:
		return true
	}
	return false
}

// AccountStatus is the account lifecycle state.
type AccountStatus string

const (
	StatusActive      AccountStatus = "active"
	StatusInactive    AccountStatus = "inactive"
	StatusDeactivated AccountStatus = "deactivated"
	StatusSuspended   AccountStatus = "suspended"
	StatusBlocked     AccountStatus = "blocked"
	StatusDeleted     AccountStatus = "deleted"
	StatusBanned      AccountStatus = "banned"
	StatusReported    AccountStatus = "reported"
	StatusPending     AccountStatus = "pending"
	StatusWithheld    AccountStatus = "withheld"
	StatusRestricted  AccountStatus = "restricted"
)

func (s AccountStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusDeactivated, StatusSuspended,
		StatusBlocked, StatusDeleted, StatusBanned, StatusReported,
		StatusPending, StatusWithheld, StatusRestricted:
		return true
	}
	return false
}

// LoginBlocked reports whether the account state prevents authentication.
// These states are terminal or moderator-imposed; self-service states like
// inactive or pending still allow sign-in.
func (s AccountStatus) LoginBlocked() bool {
	switch s {
	case StatusDeactivated, StatusSuspended, StatusBlocked, StatusDeleted, StatusBanned:
		return true
	}
	return false
}

// VerificationStatus is the outcome of identity verification.
type VerificationStatus string

const (
	VerificationVerified   VerificationStatus = "verified"
	VerificationUnverified VerificationStatus = "unverified"
	VerificationPending    VerificationStatus = "pending"
	VerificationRejected   VerificationStatus = "rejected"
)

func (v VerificationStatus) Valid() bool {
	switch v {
	case VerificationVerified, VerificationUnverified, VerificationPending, VerificationRejected:
		return true
	}
	return false
}

// Phone is a country code plus national number.
type Phone struct {
	CountryCode string `json:"countryCode,omitempty"`
	Number      string `json:"phoneNo,omitempty"`
}

// Avatar references an uploaded avatar object and its public URL.
type Avatar struct {
	ObjectKey string `json:"public_id,omitempty"`
	URL       string `json:"url,omitempty"`
}

// Field names accepted by the changed-field write path. The repository maps
// these onto columns; the credential manager keys its hash-on-write guard on
// FieldPassword.
const (
	FieldFirstName      = "fname"
	FieldLastName       = "lname"
	FieldPassword       = "password"
	FieldGender         = "gender"
	FieldDOB            = "dob"
	FieldBio            = "about"
	FieldProfession     = "profession"
	FieldLocation       = "location"
	FieldWebsite        = "website"
	FieldAccountPrivacy = "accountPrivacy"
)

// User is the user record. The Password field holds a bcrypt hash once the
// record has gone through the write path; plaintext only ever exists on an
// in-flight record that has not been persisted yet.
type User struct {
	ID            int64  `json:"id"`
	FirstName     string `json:"fname"`
	LastName      string `json:"lname"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
	Username      string `json:"uname"`
	Phone         Phone  `json:"phone"`
	PhoneVerified bool   `json:"phoneVerified"`
	Password      string `json:"-"`

	Avatar     Avatar `json:"avatar"`
	Gender     string `json:"gender,omitempty"`
	DOB        string `json:"dob,omitempty"`
	Bio        string `json:"about,omitempty"`
	Profession string `json:"profession,omitempty"`
	Location   string `json:"location,omitempty"`
	Website    string `json:"website,omitempty"`

	// Denormalized counters. The repositories that mutate the underlying
	// lists keep these in step inside the same transaction; the record
	// itself does not enforce consistency.
	PostsCount     int64 `json:"postsCount"`
	FollowersCount int64 `json:"followersCount"`
	FollowingCount int64 `json:"followingCount"`

	AccountPrivacy     AccountPrivacy     `json:"accountPrivacy"`
	Role               Role               `json:"role"`
	AccountStatus      AccountStatus      `json:"accountStatus"`
	VerificationStatus VerificationStatus `json:"verificationStatus"`
	IsVerified         bool               `json:"isVerified"`
	IsValid            bool               `json:"isValid"`

	// OTPID references the pending verification OTP record, if any.
	OTPID sql.NullString `json:"-"`

	// Session token bookkeeping. Only the most recently issued token is
	// tracked; issuing a new one overwrites these.
	Token     string `json:"-"`
	ExpiresAt int64  `json:"expiresAt,omitempty"` // epoch seconds

	ResetPasswordToken  string       `json:"-"`
	ResetPasswordExpire sql.NullTime `json:"-"`

	LastActive sql.NullTime `json:"lastActive,omitempty"`
	CreatedAt  time.Time    `json:"createdAt"`
}

// NewUser returns a user record with policy defaults applied.
func NewUser() *User {
	return &User{
		AccountPrivacy:     PrivacyPublic,
		Role:               RoleUser,
		AccountStatus:      StatusActive,
		VerificationStatus: VerificationUnverified,
		CreatedAt:          time.Now(),
	}
}
