package model

import "time"

// OTPPurpose says what a one-time code is meant to verify.
type OTPPurpose string

const (
	OTPPurposeEmail OTPPurpose = "email"
	OTPPurposePhone OTPPurpose = "phone"
)

func (p OTPPurpose) Valid() bool {
	switch p {
	case OTPPurposeEmail, OTPPurposePhone:
		return true
	}
	return false
}

// OTP is a pending one-time verification code. A user holds at most one
// pending OTP at a time, referenced by users.otp_id.
type OTP struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	UserID    int64      `gorm:"index;not null" json:"userId"`
	Code      string     `gorm:"size:12;not null" json:"-"`
	Purpose   OTPPurpose `gorm:"size:12;not null" json:"purpose"`
	ExpiresAt time.Time  `json:"expiresAt"`
	Consumed  bool       `gorm:"not null;default:false" json:"consumed"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (OTP) TableName() string { return "otps" }

// Expired reports whether the code can no longer be redeemed.
func (o *OTP) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}
