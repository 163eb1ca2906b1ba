package server

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"pulsegram/logger"
	"pulsegram/model"
)

// otpTTL is how long a verification code stays redeemable.
const otpTTL = 10 * time.Minute

// generateOTPCode returns a 6-digit numeric code from crypto/rand.
func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate otp code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// RequestVerificationHandler issues a pending OTP for the authenticated user
// and moves their verification status to pending. Code delivery is owned by
// the notification service.
func (h *APIHandler) RequestVerificationHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req struct {
		Purpose string `json:"purpose"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	code, err := generateOTPCode()
	if err != nil {
		logger.Error("[Verify] code generation failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	user, err := h.userRepo.GetByID(userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	otp, err := h.otpRepo.Create(userID, code, model.OTPPurpose(req.Purpose), otpTTL)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.userRepo.UpdateVerification(userID, model.VerificationPending, user.EmailVerified, user.PhoneVerified); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.userCache.Invalidate(r.Context(), userID); err != nil {
		logger.Warn("[Verify] failed to invalidate cache", logger.ErrorField(err))
	}

	logger.Info("[Verify] otp issued",
		logger.Int64("userID", userID),
		logger.String("purpose", string(otp.Purpose)))
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"otpId":     otp.ID,
		"expiresAt": otp.ExpiresAt,
	})
}

// ConfirmVerificationHandler redeems a pending OTP and marks the channel
// verified.
func (h *APIHandler) ConfirmVerificationHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	user, err := h.userRepo.GetByID(userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	otp, err := h.otpRepo.Consume(userID, req.Code)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	emailVerified := user.EmailVerified || otp.Purpose == model.OTPPurposeEmail
	phoneVerified := user.PhoneVerified || otp.Purpose == model.OTPPurposePhone
	if err := h.userRepo.UpdateVerification(userID, model.VerificationVerified, emailVerified, phoneVerified); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.userCache.Invalidate(r.Context(), userID); err != nil {
		logger.Warn("[Verify] failed to invalidate cache", logger.ErrorField(err))
	}

	logger.Info("[Verify] verification confirmed",
		logger.Int64("userID", userID),
		logger.String("purpose", string(otp.Purpose)))
	writeJSON(w, http.StatusOK, map[string]string{"verificationStatus": string(model.VerificationVerified)})
}
