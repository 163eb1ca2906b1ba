package db

import (
	"database/sql"
	"fmt"
	"log"
	"strings"

	"pulsegram/config"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to the database.")
	return nil
}

// InitDB initializes the database schema, creating tables and indexes if they
// don't exist.
func InitDB() error {
	if err := createUsersTable(); err != nil {
		return err
	}
	if err := createUsersNameIndex(); err != nil {
		return err
	}

	log.Println("Database initialization completed.")
	return nil
}

// usersTableDDL is the schema behind the repository's column projections and
// the duplicate-key translation, which matches on the unique index names. The
// uname column uses a binary collation so lookups and uniqueness are
// case-sensitive exact matches.
const usersTableDDL = `
	CREATE TABLE IF NOT EXISTS users (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		fname VARCHAR(50) NOT NULL,
		lname VARCHAR(50) NOT NULL,
		email VARCHAR(255) NOT NULL,
		email_verified TINYINT(1) NOT NULL DEFAULT 0,
		uname VARCHAR(20) COLLATE utf8mb4_bin NOT NULL,
		phone_country_code VARCHAR(8) NOT NULL DEFAULT '',
		phone_number VARCHAR(20) NOT NULL DEFAULT '',
		phone_verified TINYINT(1) NOT NULL DEFAULT 0,
		password_hash VARCHAR(255) NOT NULL,
		avatar_key VARCHAR(255) NOT NULL DEFAULT '',
		avatar_url VARCHAR(512) NOT NULL DEFAULT '',
		gender VARCHAR(20) NOT NULL DEFAULT '',
		dob VARCHAR(20) NOT NULL DEFAULT '',
		about TEXT NOT NULL,
		profession VARCHAR(100) NOT NULL DEFAULT '',
		location VARCHAR(100) NOT NULL DEFAULT '',
		website VARCHAR(255) NOT NULL DEFAULT '',
		posts_count BIGINT NOT NULL DEFAULT 0,
		followers_count BIGINT NOT NULL DEFAULT 0,
		following_count BIGINT NOT NULL DEFAULT 0,
		account_privacy VARCHAR(10) NOT NULL DEFAULT 'public',
		role VARCHAR(12) NOT NULL DEFAULT 'user',
		account_status VARCHAR(12) NOT NULL DEFAULT 'active',
		verification_status VARCHAR(12) NOT NULL DEFAULT 'unverified',
		is_verified TINYINT(1) NOT NULL DEFAULT 0,
		is_valid TINYINT(1) NOT NULL DEFAULT 0,
		otp_id VARCHAR(36) NULL,
		session_token VARCHAR(512) NOT NULL DEFAULT '',
		session_expires_at BIGINT NOT NULL DEFAULT 0,
		reset_password_token VARCHAR(64) NOT NULL DEFAULT '',
		reset_password_expire TIMESTAMP NULL,
		last_active TIMESTAMP NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uniq_users_email (email),
		UNIQUE KEY uniq_users_uname (uname)
	);
	`

func createUsersTable() error {
	_, err := DB.Exec(usersTableDDL)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	return nil
}

// createUsersNameIndex adds the FULLTEXT index backing user search. MySQL has
// no IF NOT EXISTS for indexes, so a duplicate-name error on re-run is fine.
func createUsersNameIndex() error {
	query := `ALTER TABLE users ADD FULLTEXT INDEX ft_users_name (uname, fname, lname);`
	_, err := DB.Exec(query)
	if err != nil {
		if strings.Contains(err.Error(), "Duplicate key name") {
			return nil
		}
		return fmt.Errorf("failed to create users fulltext index: %w", err)
	}
	return nil
}
