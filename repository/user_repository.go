package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"pulsegram/core/auth"
	"pulsegram/model"
)

// UserRepository defines the interface for user data operations. Read methods
// use the default projection, which excludes the password hash; only
// GetCredentials returns a hash-bearing record.
type UserRepository interface {
	Create(user *model.User) (int64, error)
	GetByID(id int64) (*model.User, error)
	GetByUsername(username string) (*model.User, error)
	GetByEmail(email string) (*model.User, error)
	GetCredentials(login string) (*model.User, error)
	UpdateProfile(user *model.User, changed ...string) error
	UpdatePassword(user *model.User, plaintext string) error
	SaveSession(id int64, token string, expiresAt int64) error
	SaveResetToken(id int64, token string, expire time.Time) error
	GetByResetToken(token string) (*model.User, error)
	ClearResetToken(id int64) error
	UpdateLastActive(id int64, t time.Time) error
	UpdateAvatar(id int64, avatar model.Avatar) error
	UpdateStatus(id int64, status model.AccountStatus) error
	UpdateVerification(id int64, status model.VerificationStatus, emailVerified, phoneVerified bool) error
	Search(query string, limit int) ([]*model.User, error)
}

// userColumns is the default read projection. password_hash is deliberately
// absent; see credentialColumns.
const userColumns = `id, fname, lname, email, email_verified, uname,
	phone_country_code, phone_number, phone_verified,
	avatar_key, avatar_url, gender, dob, about, profession, location, website,
	posts_count, followers_count, following_count,
	account_privacy, role, account_status, verification_status,
	is_verified, is_valid, otp_id,
	session_token, session_expires_at, last_active, created_at`

// mysqlUserRepository implements UserRepository for MySQL. The credential
// manager is wired in so every write path runs the hash-on-write transform
// before touching the database.
type mysqlUserRepository struct {
	db   *sql.DB
	cred *auth.Manager
}

// NewMySQLUserRepository creates a new mysqlUserRepository.
func NewMySQLUserRepository(db *sql.DB, cred *auth.Manager) UserRepository {
	return &mysqlUserRepository{db: db, cred: cred}
}

// Create validates the record, hashes the pending plaintext password, and
// inserts the row. Duplicate email/username is translated to a
// field-specific ValidationError.
func (r *mysqlUserRepository) Create(user *model.User) (int64, error) {
	if err := user.Validate(); err != nil {
		return 0, err
	}
	if err := model.ValidatePassword(user.Password); err != nil {
		return 0, err
	}
	// A brand-new record always carries a pending plaintext password.
	if err := r.cred.PrepareWrite(user, model.FieldPassword); err != nil {
		return 0, err
	}

	query := `INSERT INTO users (
		fname, lname, email, email_verified, uname,
		phone_country_code, phone_number, phone_verified,
		password_hash, gender, dob, about, profession, location, website,
		account_privacy, role, account_status, verification_status
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := r.db.Exec(query,
		user.FirstName, user.LastName, user.Email, user.EmailVerified, user.Username,
		user.Phone.CountryCode, user.Phone.Number, user.PhoneVerified,
		user.Password, user.Gender, user.DOB, user.Bio, user.Profession, user.Location, user.Website,
		string(user.AccountPrivacy), string(user.Role), string(user.AccountStatus), string(user.VerificationStatus),
	)
	if err != nil {
		if verr := translateDuplicateKey(err); verr != nil {
			return 0, verr
		}
		return 0, fmt.Errorf("failed to create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for user: %w", err)
	}
	user.ID = id
	return id, nil
}

func (r *mysqlUserRepository) scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.FirstName, &user.LastName, &user.Email, &user.EmailVerified, &user.Username,
		&user.Phone.CountryCode, &user.Phone.Number, &user.PhoneVerified,
		&user.Avatar.ObjectKey, &user.Avatar.URL, &user.Gender, &user.DOB, &user.Bio,
		&user.Profession, &user.Location, &user.Website,
		&user.PostsCount, &user.FollowersCount, &user.FollowingCount,
		&user.AccountPrivacy, &user.Role, &user.AccountStatus, &user.VerificationStatus,
		&user.IsVerified, &user.IsValid, &user.OTPID,
		&user.Token, &user.ExpiresAt, &user.LastActive, &user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user row: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by their ID.
func (r *mysqlUserRepository) GetByID(id int64) (*model.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = ?"
	return r.scanUser(r.db.QueryRow(query, id))
}

// GetByUsername retrieves a user by their username (case-sensitive exact
// match; the uname column uses a binary-safe unique index).
func (r *mysqlUserRepository) GetByUsername(username string) (*model.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE uname = ?"
	return r.scanUser(r.db.QueryRow(query, username))
}

// GetByEmail retrieves a user by their email address.
func (r *mysqlUserRepository) GetByEmail(email string) (*model.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE email = ?"
	return r.scanUser(r.db.QueryRow(query, email))
}

// GetCredentials retrieves a user by username or email including the stored
// password hash. This is the only projection that exposes the hash; it exists
// for the authentication path.
func (r *mysqlUserRepository) GetCredentials(login string) (*model.User, error) {
	query := `SELECT id, uname, email, password_hash, account_status FROM users WHERE uname = ? OR email = ?`
	user := &model.User{}
	err := r.db.QueryRow(query, login, login).Scan(
		&user.ID, &user.Username, &user.Email, &user.Password, &user.AccountStatus,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan credentials for %s: %w", login, err)
	}
	return user, nil
}

// UpdateProfile writes only the named fields. The credential manager runs
// first, so a password change is hashed in place while any other combination
// of fields leaves the stored hash untouched.
func (r *mysqlUserRepository) UpdateProfile(user *model.User, changed ...string) error {
	if len(changed) == 0 {
		return nil
	}
	if err := user.Validate(); err != nil {
		return err
	}
	if err := r.cred.PrepareWrite(user, changed...); err != nil {
		return err
	}

	set := make([]string, 0, len(changed))
	args := make([]interface{}, 0, len(changed)+1)
	for _, field := range changed {
		switch field {
		case model.FieldFirstName:
			set = append(set, "fname = ?")
			args = append(args, user.FirstName)
		case model.FieldLastName:
			set = append(set, "lname = ?")
			args = append(args, user.LastName)
		case model.FieldPassword:
			set = append(set, "password_hash = ?")
			args = append(args, user.Password)
		case model.FieldGender:
			set = append(set, "gender = ?")
			args = append(args, user.Gender)
		case model.FieldDOB:
			set = append(set, "dob = ?")
			args = append(args, user.DOB)
		case model.FieldBio:
			set = append(set, "about = ?")
			args = append(args, user.Bio)
		case model.FieldProfession:
			set = append(set, "profession = ?")
			args = append(args, user.Profession)
		case model.FieldLocation:
			set = append(set, "location = ?")
			args = append(args, user.Location)
		case model.FieldWebsite:
			set = append(set, "website = ?")
			args = append(args, user.Website)
		case model.FieldAccountPrivacy:
			set = append(set, "account_privacy = ?")
			args = append(args, string(user.AccountPrivacy))
		default:
			return &model.ValidationError{Field: field, Reason: "unknown field"}
		}
	}
	args = append(args, user.ID)

	query := fmt.Sprintf("UPDATE users SET %s WHERE id = ?", strings.Join(set, ", "))
	if _, err := r.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	return nil
}

// UpdatePassword validates the new plaintext and routes it through the
// changed-field write path so it gets hashed exactly once.
func (r *mysqlUserRepository) UpdatePassword(user *model.User, plaintext string) error {
	if err := model.ValidatePassword(plaintext); err != nil {
		return err
	}
	user.Password = plaintext
	return r.UpdateProfile(user, model.FieldPassword)
}

// SaveSession stores the most recently issued session token and its expiry.
// Issuing a new token simply overwrites the previous one.
func (r *mysqlUserRepository) SaveSession(id int64, token string, expiresAt int64) error {
	query := "UPDATE users SET session_token = ?, session_expires_at = ? WHERE id = ?"
	if _, err := r.db.Exec(query, token, expiresAt, id); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// SaveResetToken stores a password-reset token with its expiry instant.
func (r *mysqlUserRepository) SaveResetToken(id int64, token string, expire time.Time) error {
	query := "UPDATE users SET reset_password_token = ?, reset_password_expire = ? WHERE id = ?"
	if _, err := r.db.Exec(query, token, expire, id); err != nil {
		return fmt.Errorf("failed to save reset token: %w", err)
	}
	return nil
}

// GetByResetToken retrieves the user holding an unexpired reset token.
func (r *mysqlUserRepository) GetByResetToken(token string) (*model.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE reset_password_token = ? AND reset_password_expire > NOW()"
	return r.scanUser(r.db.QueryRow(query, token))
}

// ClearResetToken removes a consumed or abandoned reset token.
func (r *mysqlUserRepository) ClearResetToken(id int64) error {
	query := "UPDATE users SET reset_password_token = '', reset_password_expire = NULL WHERE id = ?"
	if _, err := r.db.Exec(query, id); err != nil {
		return fmt.Errorf("failed to clear reset token: %w", err)
	}
	return nil
}

// UpdateLastActive records the latest activity instant.
func (r *mysqlUserRepository) UpdateLastActive(id int64, t time.Time) error {
	query := "UPDATE users SET last_active = ? WHERE id = ?"
	if _, err := r.db.Exec(query, t, id); err != nil {
		return fmt.Errorf("failed to update last active: %w", err)
	}
	return nil
}

// UpdateAvatar stores the avatar object reference.
func (r *mysqlUserRepository) UpdateAvatar(id int64, avatar model.Avatar) error {
	query := "UPDATE users SET avatar_key = ?, avatar_url = ? WHERE id = ?"
	if _, err := r.db.Exec(query, avatar.ObjectKey, avatar.URL, id); err != nil {
		return fmt.Errorf("failed to update avatar: %w", err)
	}
	return nil
}

// UpdateStatus moves the account to a new lifecycle state. Deletion is the
// "deleted" transition; actual row removal is a policy decision made
// elsewhere.
func (r *mysqlUserRepository) UpdateStatus(id int64, status model.AccountStatus) error {
	if !status.Valid() {
		return &model.ValidationError{Field: "accountStatus", Reason: "unknown value"}
	}
	query := "UPDATE users SET account_status = ? WHERE id = ?"
	if _, err := r.db.Exec(query, string(status), id); err != nil {
		return fmt.Errorf("failed to update account status: %w", err)
	}
	return nil
}

// UpdateVerification sets the verification outcome and the per-channel flags.
func (r *mysqlUserRepository) UpdateVerification(id int64, status model.VerificationStatus, emailVerified, phoneVerified bool) error {
	if !status.Valid() {
		return &model.ValidationError{Field: "verificationStatus", Reason: "unknown value"}
	}
	query := `UPDATE users SET verification_status = ?, email_verified = ?, phone_verified = ?,
		is_verified = ? WHERE id = ?`
	verified := status == model.VerificationVerified
	if _, err := r.db.Exec(query, string(status), emailVerified, phoneVerified, verified, id); err != nil {
		return fmt.Errorf("failed to update verification: %w", err)
	}
	return nil
}

// Search delegates to the FULLTEXT index over (uname, fname, lname).
func (r *mysqlUserRepository) Search(query string, limit int) ([]*model.User, error) {
	if limit <= 0 {
		limit = 20
	}
	stmt := "SELECT " + userColumns + ` FROM users
		WHERE MATCH(uname, fname, lname) AGAINST (? IN NATURAL LANGUAGE MODE)
		LIMIT ?`
	rows, err := r.db.Query(stmt, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user := &model.User{}
		err := rows.Scan(
			&user.ID, &user.FirstName, &user.LastName, &user.Email, &user.EmailVerified, &user.Username,
			&user.Phone.CountryCode, &user.Phone.Number, &user.PhoneVerified,
			&user.Avatar.ObjectKey, &user.Avatar.URL, &user.Gender, &user.DOB, &user.Bio,
			&user.Profession, &user.Location, &user.Website,
			&user.PostsCount, &user.FollowersCount, &user.FollowingCount,
			&user.AccountPrivacy, &user.Role, &user.AccountStatus, &user.VerificationStatus,
			&user.IsVerified, &user.IsValid, &user.OTPID,
			&user.Token, &user.ExpiresAt, &user.LastActive, &user.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
