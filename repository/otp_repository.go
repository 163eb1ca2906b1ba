package repository

import (
	"errors"
	"fmt"
	"time"

	"pulsegram/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OTPRepository manages pending one-time verification codes. Creating a code
// supersedes any previous pending code for the same user. The users.otp_id
// reference moves in the same transaction as the OTP row itself.
type OTPRepository interface {
	Create(userID int64, code string, purpose model.OTPPurpose, ttl time.Duration) (*model.OTP, error)
	GetPending(userID int64) (*model.OTP, error)
	Consume(userID int64, code string) (*model.OTP, error)
}

type gormOTPRepository struct {
	db *gorm.DB
}

// NewGormOTPRepository creates an OTP repository over GORM.
func NewGormOTPRepository(db *gorm.DB) OTPRepository {
	return &gormOTPRepository{db: db}
}

// Create stores a new pending OTP and points users.otp_id at it.
func (r *gormOTPRepository) Create(userID int64, code string, purpose model.OTPPurpose, ttl time.Duration) (*model.OTP, error) {
	if !purpose.Valid() {
		return nil, &model.ValidationError{Field: "purpose", Reason: "unknown value"}
	}

	otp := &model.OTP{
		ID:        uuid.NewString(),
		UserID:    userID,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(ttl),
		CreatedAt: time.Now(),
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		// Supersede any previous pending code.
		if err := tx.Where("user_id = ? AND consumed = ?", userID, false).Delete(&model.OTP{}).Error; err != nil {
			return fmt.Errorf("failed to clear previous otp: %w", err)
		}
		if err := tx.Create(otp).Error; err != nil {
			return fmt.Errorf("failed to create otp: %w", err)
		}
		if err := tx.Exec("UPDATE users SET otp_id = ? WHERE id = ?", otp.ID, userID).Error; err != nil {
			return fmt.Errorf("failed to reference otp: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return otp, nil
}

// GetPending returns the user's pending OTP, if any.
func (r *gormOTPRepository) GetPending(userID int64) (*model.OTP, error) {
	var otp model.OTP
	err := r.db.Where("user_id = ? AND consumed = ?", userID, false).First(&otp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOTPNotFound
		}
		return nil, fmt.Errorf("failed to load pending otp: %w", err)
	}
	return &otp, nil
}

// Consume redeems a pending code. Expired codes are rejected and left in
// place so the caller can decide to reissue.
func (r *gormOTPRepository) Consume(userID int64, code string) (*model.OTP, error) {
	var otp model.OTP

	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND code = ? AND consumed = ?", userID, code, false).First(&otp).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOTPNotFound
			}
			return fmt.Errorf("failed to load otp: %w", err)
		}
		if otp.Expired(time.Now()) {
			return ErrOTPExpired
		}
		if err := tx.Model(&otp).Update("consumed", true).Error; err != nil {
			return fmt.Errorf("failed to consume otp: %w", err)
		}
		if err := tx.Exec("UPDATE users SET otp_id = NULL WHERE id = ?", userID).Error; err != nil {
			return fmt.Errorf("failed to clear otp reference: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &otp, nil
}
