package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHashCost is the fixed bcrypt work factor applied to every stored
// password.
const PasswordHashCost = bcrypt.DefaultCost

// ErrCredential marks a failed hash or signature operation. A write that hits
// this error must abort; there is no plaintext or unsigned fallback.
var ErrCredential = errors.New("credential operation failed")

// HashPassword generates a salted bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), PasswordHashCost)
	if err != nil {
		return "", fmt.Errorf("%w: hash password: %v", ErrCredential, err)
	}
	return string(bytes), nil
}

// VerifyPassword reports whether the plaintext matches the stored bcrypt
// hash. The comparison is delegated to bcrypt, which is constant time with
// respect to the candidate. A malformed stored hash simply fails to match.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
