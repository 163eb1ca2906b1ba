package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pulsegram/model"
	"pulsegram/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubOTPRepo holds at most one pending code per user, like the persistence
// contract: creating a code supersedes the previous one, and redeeming an
// expired code is rejected without consuming it.
type stubOTPRepo struct {
	pending map[int64]*model.OTP
	seq     int
}

func newStubOTPRepo() *stubOTPRepo {
	return &stubOTPRepo{pending: make(map[int64]*model.OTP)}
}

func (s *stubOTPRepo) Create(userID int64, code string, purpose model.OTPPurpose, ttl time.Duration) (*model.OTP, error) {
	if !purpose.Valid() {
		return nil, &model.ValidationError{Field: "purpose", Reason: "unknown value"}
	}
	s.seq++
	otp := &model.OTP{
		ID:        fmt.Sprintf("otp-%d", s.seq),
		UserID:    userID,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(ttl),
		CreatedAt: time.Now(),
	}
	s.pending[userID] = otp
	return otp, nil
}

func (s *stubOTPRepo) GetPending(userID int64) (*model.OTP, error) {
	if otp, ok := s.pending[userID]; ok {
		return otp, nil
	}
	return nil, repository.ErrOTPNotFound
}

func (s *stubOTPRepo) Consume(userID int64, code string) (*model.OTP, error) {
	otp, ok := s.pending[userID]
	if !ok || otp.Code != code {
		return nil, repository.ErrOTPNotFound
	}
	if otp.Expired(time.Now()) {
		return nil, repository.ErrOTPExpired
	}
	otp.Consumed = true
	delete(s.pending, userID)
	return otp, nil
}

func newVerifyTestHandler(t *testing.T) (*APIHandler, *stubUserRepo, *stubOTPRepo) {
	t.Helper()
	cred := newTestManager()
	users := newStubUserRepo(cred)
	otps := newStubOTPRepo()
	h := NewAPIHandler(users, nil, nil, otps, cred, nil, testConfig())
	return h, users, otps
}

func doRequestVerification(h *APIHandler, userID int64, purpose string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(map[string]string{"purpose": purpose})
	req := authedRequest(http.MethodPost, "/api/me/verify", bytes.NewReader(body), userID, nil)
	rec := httptest.NewRecorder()
	h.RequestVerificationHandler(rec, req)
	return rec
}

func doConfirmVerification(h *APIHandler, userID int64, code string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(map[string]string{"code": code})
	req := authedRequest(http.MethodPost, "/api/me/verify/confirm", bytes.NewReader(body), userID, nil)
	rec := httptest.NewRecorder()
	h.ConfirmVerificationHandler(rec, req)
	return rec
}

func TestRequestVerificationHandler(t *testing.T) {
	h, users, otps := newVerifyTestHandler(t)
	alice := seedUser(t, users, "alice", "alice@example.com")

	rec := doRequestVerification(h, alice.ID, "email")
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	pending, err := otps.GetPending(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OTPPurposeEmail, pending.Purpose)
	assert.Len(t, pending.Code, 6)
	assert.Equal(t, model.VerificationPending, alice.VerificationStatus)

	// Unknown purpose is a validation failure, not a stored code.
	rec = doRequestVerification(h, alice.ID, "carrier-pigeon")
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}

func TestConfirmVerificationHandler(t *testing.T) {
	h, users, otps := newVerifyTestHandler(t)
	alice := seedUser(t, users, "alice", "alice@example.com")

	_, err := otps.Create(alice.ID, "123456", model.OTPPurposeEmail, time.Minute)
	require.NoError(t, err)

	rec := doConfirmVerification(h, alice.ID, "123456")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, model.VerificationVerified, alice.VerificationStatus)
	assert.True(t, alice.EmailVerified)
	assert.False(t, alice.PhoneVerified)
	assert.True(t, alice.IsVerified)

	// The code is single-use.
	rec = doConfirmVerification(h, alice.ID, "123456")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConfirmVerificationHandler_PreservesOtherChannel(t *testing.T) {
	h, users, otps := newVerifyTestHandler(t)
	alice := seedUser(t, users, "alice", "alice@example.com")

	_, err := otps.Create(alice.ID, "111111", model.OTPPurposeEmail, time.Minute)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, doConfirmVerification(h, alice.ID, "111111").Code)

	// Verifying the phone afterwards must not reset the email flag.
	_, err = otps.Create(alice.ID, "222222", model.OTPPurposePhone, time.Minute)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, doConfirmVerification(h, alice.ID, "222222").Code)

	assert.True(t, alice.EmailVerified)
	assert.True(t, alice.PhoneVerified)
}

func TestConfirmVerificationHandler_ExpiredCode(t *testing.T) {
	h, users, otps := newVerifyTestHandler(t)
	alice := seedUser(t, users, "alice", "alice@example.com")

	_, err := otps.Create(alice.ID, "123456", model.OTPPurposeEmail, -time.Minute)
	require.NoError(t, err)

	rec := doConfirmVerification(h, alice.ID, "123456")
	require.Equal(t, http.StatusGone, rec.Code, rec.Body.String())
	assert.False(t, alice.EmailVerified)
	assert.NotEqual(t, model.VerificationVerified, alice.VerificationStatus)
}

func TestConfirmVerificationHandler_WrongCode(t *testing.T) {
	h, users, otps := newVerifyTestHandler(t)
	alice := seedUser(t, users, "alice", "alice@example.com")

	_, err := otps.Create(alice.ID, "123456", model.OTPPurposeEmail, time.Minute)
	require.NoError(t, err)

	rec := doConfirmVerification(h, alice.ID, "654321")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, alice.EmailVerified)
}
