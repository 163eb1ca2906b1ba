package server

import (
	"net/http"
	"strconv"

	"pulsegram/logger"

	"github.com/gorilla/mux"
)

func pathUserID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

// FollowHandler makes the authenticated user follow the user in the path.
func (h *APIHandler) FollowHandler(w http.ResponseWriter, r *http.Request) {
	followerID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	followeeID, err := pathUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	// The followee must exist; a dangling edge would corrupt the counters.
	if _, err := h.userRepo.GetByID(followeeID); err != nil {
		writeDomainError(w, err)
		return
	}

	edge, err := h.followRepo.Follow(followerID, followeeID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// Counters changed on both profiles.
	h.invalidateProfiles(r, followerID, followeeID)

	logger.Info("[Follow] edge created",
		logger.Int64("followerID", followerID),
		logger.Int64("followeeID", followeeID))
	writeJSON(w, http.StatusCreated, edge)
}

// UnfollowHandler removes the follow edge.
func (h *APIHandler) UnfollowHandler(w http.ResponseWriter, r *http.Request) {
	followerID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	followeeID, err := pathUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.followRepo.Unfollow(followerID, followeeID); err != nil {
		writeDomainError(w, err)
		return
	}

	h.invalidateProfiles(r, followerID, followeeID)

	logger.Info("[Follow] edge removed",
		logger.Int64("followerID", followerID),
		logger.Int64("followeeID", followeeID))
	w.WriteHeader(http.StatusNoContent)
}

// FollowersHandler lists the followers of the user in the path.
func (h *APIHandler) FollowersHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	edges, err := h.followRepo.Followers(userID, limit, offset)
	if err != nil {
		logger.Error("[Follow] followers list failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"followers": edges})
}

// FollowingHandler lists the users the user in the path follows.
func (h *APIHandler) FollowingHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	edges, err := h.followRepo.Following(userID, limit, offset)
	if err != nil {
		logger.Error("[Follow] following list failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"following": edges})
}

func (h *APIHandler) invalidateProfiles(r *http.Request, ids ...int64) {
	for _, id := range ids {
		if err := h.userCache.Invalidate(r.Context(), id); err != nil {
			logger.Warn("[Follow] failed to invalidate cache", logger.Int64("userID", id), logger.ErrorField(err))
		}
	}
}
