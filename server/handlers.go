package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"pulsegram/cache"
	"pulsegram/config"
	"pulsegram/core/auth"
	"pulsegram/model"
	"pulsegram/repository"
)

// APIHandler handles all API requests.
type APIHandler struct {
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	postRepo   repository.PostRefRepository
	otpRepo    repository.OTPRepository
	cred       *auth.Manager
	userCache  *cache.UserCache
	cfg        *config.Config
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	postRepo repository.PostRefRepository,
	otpRepo repository.OTPRepository,
	cred *auth.Manager,
	userCache *cache.UserCache,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		userRepo:   userRepo,
		followRepo: followRepo,
		postRepo:   postRepo,
		otpRepo:    otpRepo,
		cred:       cred,
		userCache:  userCache,
		cfg:        cfg,
	}
}

// writeJSON writes a JSON response body.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error body.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps domain errors onto HTTP statuses. Validation errors
// carry the failing field; uniqueness violations become conflicts.
func writeDomainError(w http.ResponseWriter, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		status := http.StatusBadRequest
		if verr.Reason == "already exists" {
			status = http.StatusConflict
		}
		writeJSON(w, status, map[string]string{
			"error": verr.Error(),
			"field": verr.Field,
		})
	case errors.Is(err, repository.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, repository.ErrSelfFollow):
		writeError(w, http.StatusBadRequest, "cannot follow yourself")
	case errors.Is(err, repository.ErrAlreadyFollowing):
		writeError(w, http.StatusConflict, "already following")
	case errors.Is(err, repository.ErrNotFollowing):
		writeError(w, http.StatusNotFound, "not following")
	case errors.Is(err, repository.ErrOTPNotFound):
		writeError(w, http.StatusNotFound, "verification code not found")
	case errors.Is(err, repository.ErrOTPExpired):
		writeError(w, http.StatusGone, "verification code expired")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// GetUserIDFromContext extracts the user ID from the request context.
func GetUserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value("userID").(int64)
	if !ok {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}
