package auth

import (
	"fmt"
	"time"

	"pulsegram/model"
)

// Manager owns credential handling for user records: hashing passwords on the
// write path and minting/parsing session tokens. The signing secret and token
// lifetime come from process-wide configuration.
type Manager struct {
	secret   []byte
	tokenTTL time.Duration
}

// NewManager creates a credential manager.
func NewManager(secret string, tokenTTL time.Duration) *Manager {
	return &Manager{secret: []byte(secret), tokenTTL: tokenTTL}
}

// PrepareWrite is the transform step the write path runs before persisting a
// record. When the password field is among the changed fields, the pending
// plaintext in u.Password is replaced with its bcrypt hash in place. Writes
// that do not touch the password return with the record untouched, so a
// stored hash is never re-hashed by an unrelated update. A hash failure
// aborts the write.
func (m *Manager) PrepareWrite(u *model.User, changed ...string) error {
	touched := false
	for _, f := range changed {
		if f == model.FieldPassword {
			touched = true
			break
		}
	}
	if !touched {
		return nil
	}

	hash, err := HashPassword(u.Password)
	if err != nil {
		return err
	}
	u.Password = hash
	return nil
}

// IssueSession mints a session token for the user, decodes the fresh token to
// recover its expiry instant, records both on the record, and returns the
// token string.
func (m *Manager) IssueSession(u *model.User) (string, error) {
	token, err := GenerateToken(u.ID, m.secret, m.tokenTTL)
	if err != nil {
		return "", err
	}

	claims, err := ParseToken(token, m.secret)
	if err != nil {
		return "", fmt.Errorf("%w: decode freshly minted token: %v", ErrCredential, err)
	}

	u.Token = token
	u.ExpiresAt = claims.ExpiresAt.Unix()
	return token, nil
}

// ParseToken verifies a presented token against the manager's secret.
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	return ParseToken(tokenString, m.secret)
}

// MatchPassword reports whether the candidate plaintext matches the stored
// hash.
func (m *Manager) MatchPassword(plain, hash string) bool {
	return VerifyPassword(plain, hash)
}
