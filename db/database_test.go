package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// The repository layer depends on these schema details: the unique index
// names drive duplicate-key translation, and the binary collation on uname
// makes username lookups case-sensitive exact matches.
func TestUsersTableDDL(t *testing.T) {
	t.Parallel()

	assert.Contains(t, usersTableDDL, "uname VARCHAR(20) COLLATE utf8mb4_bin NOT NULL")
	assert.Contains(t, usersTableDDL, "UNIQUE KEY uniq_users_email (email)")
	assert.Contains(t, usersTableDDL, "UNIQUE KEY uniq_users_uname (uname)")
}
