package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOTPExpired(t *testing.T) {
	t.Parallel()

	now := time.Now()
	otp := &OTP{ExpiresAt: now.Add(time.Minute)}

	assert.False(t, otp.Expired(now))
	assert.False(t, otp.Expired(now.Add(time.Minute)), "not expired at the exact instant")
	assert.True(t, otp.Expired(now.Add(time.Minute+time.Second)))
}

func TestOTPPurposeMembership(t *testing.T) {
	t.Parallel()

	assert.True(t, OTPPurposeEmail.Valid())
	assert.True(t, OTPPurposePhone.Valid())
	assert.False(t, OTPPurpose("carrier-pigeon").Valid())
	assert.False(t, OTPPurpose("").Valid())
}
