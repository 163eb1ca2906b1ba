package repository

import (
	"errors"
	"strings"

	"pulsegram/model"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrUserNotFound is returned when a lookup by unique key misses.
	ErrUserNotFound = errors.New("user not found")
	// ErrAlreadyFollowing is returned when a follow edge already exists.
	ErrAlreadyFollowing = errors.New("already following")
	// ErrNotFollowing is returned when unfollowing an absent edge.
	ErrNotFollowing = errors.New("not following")
	// ErrSelfFollow is returned when a user tries to follow themselves.
	ErrSelfFollow = errors.New("cannot follow yourself")
	// ErrOTPNotFound is returned when no pending OTP matches.
	ErrOTPNotFound = errors.New("otp not found")
	// ErrOTPExpired is returned when a matching OTP is past its expiry.
	ErrOTPExpired = errors.New("otp expired")
)

const mysqlDuplicateEntry = 1062

// translateDuplicateKey maps a MySQL duplicate-entry error on one of the
// users unique indexes to a field-specific ValidationError. Any other error
// yields nil, meaning the original error should be surfaced.
func translateDuplicateKey(err error) error {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) || myErr.Number != mysqlDuplicateEntry {
		return nil
	}
	switch {
	case strings.Contains(myErr.Message, "uniq_users_email"):
		return &model.ValidationError{Field: "email", Reason: "already exists"}
	case strings.Contains(myErr.Message, "uniq_users_uname"):
		return &model.ValidationError{Field: "uname", Reason: "already exists"}
	}
	return nil
}

// isDuplicateKey reports whether err is any MySQL duplicate-entry error.
func isDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}
