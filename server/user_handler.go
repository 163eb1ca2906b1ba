package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"pulsegram/logger"
	"pulsegram/model"
	"pulsegram/storage"

	"github.com/gorilla/mux"
)

// maxAvatarSize bounds avatar uploads to 5 MiB.
const maxAvatarSize = 5 << 20

// GetProfileHandler returns the authenticated user's own profile, served
// through the Redis read-through cache.
func (h *APIHandler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if cached, err := h.userCache.Get(r.Context(), userID); err == nil && cached != nil {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	user, err := h.userRepo.GetByID(userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if err := h.userCache.Set(r.Context(), user); err != nil {
		logger.Warn("[Profile] failed to populate cache", logger.ErrorField(err))
	}
	writeJSON(w, http.StatusOK, user)
}

// GetUserHandler returns a user's public profile by username.
func (h *APIHandler) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	uname := mux.Vars(r)["uname"]
	user, err := h.userRepo.GetByUsername(uname)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfileRequest uses pointers so that only fields present in the
// request body are treated as changed. This is what keeps an unrelated edit
// (say, the bio) from ever touching the stored password hash.
type UpdateProfileRequest struct {
	FirstName      *string `json:"fname"`
	LastName       *string `json:"lname"`
	Gender         *string `json:"gender"`
	DOB            *string `json:"dob"`
	Bio            *string `json:"about"`
	Profession     *string `json:"profession"`
	Location       *string `json:"location"`
	Website        *string `json:"website"`
	AccountPrivacy *string `json:"accountPrivacy"`
}

// changedFields applies present fields onto the record and returns their
// field names for the repository's changed-field write path.
func (req *UpdateProfileRequest) changedFields(user *model.User) []string {
	var changed []string
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
		changed = append(changed, model.FieldFirstName)
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
		changed = append(changed, model.FieldLastName)
	}
	if req.Gender != nil {
		user.Gender = *req.Gender
		changed = append(changed, model.FieldGender)
	}
	if req.DOB != nil {
		user.DOB = *req.DOB
		changed = append(changed, model.FieldDOB)
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
		changed = append(changed, model.FieldBio)
	}
	if req.Profession != nil {
		user.Profession = *req.Profession
		changed = append(changed, model.FieldProfession)
	}
	if req.Location != nil {
		user.Location = *req.Location
		changed = append(changed, model.FieldLocation)
	}
	if req.Website != nil {
		user.Website = *req.Website
		changed = append(changed, model.FieldWebsite)
	}
	if req.AccountPrivacy != nil {
		user.AccountPrivacy = model.AccountPrivacy(*req.AccountPrivacy)
		changed = append(changed, model.FieldAccountPrivacy)
	}
	return changed
}

// UpdateProfileHandler applies a partial profile update.
func (h *APIHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.userRepo.GetByID(userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	changed := req.changedFields(user)
	if len(changed) == 0 {
		writeJSON(w, http.StatusOK, user)
		return
	}

	if err := h.userRepo.UpdateProfile(user, changed...); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.userCache.Invalidate(r.Context(), userID); err != nil {
		logger.Warn("[Profile] failed to invalidate cache", logger.ErrorField(err))
	}

	logger.Info("[Profile] profile updated",
		logger.Int64("userID", userID),
		logger.Int("fields", len(changed)))
	writeJSON(w, http.StatusOK, user)
}

// UploadAvatarHandler accepts a multipart avatar upload, stores the object
// and updates the record's avatar reference.
func (h *APIHandler) UploadAvatarHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(maxAvatarSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeError(w, http.StatusBadRequest, "avatar file is required")
		return
	}
	defer file.Close()

	user, err := h.userRepo.GetByID(userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	avatar, err := storage.UploadAvatar(r.Context(), userID, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		logger.Error("[Avatar] upload failed", logger.ErrorField(err))
		writeDomainError(w, err)
		return
	}

	oldKey := user.Avatar.ObjectKey
	if err := h.userRepo.UpdateAvatar(userID, avatar); err != nil {
		writeDomainError(w, err)
		return
	}
	if oldKey != "" {
		if err := storage.RemoveAvatar(r.Context(), oldKey); err != nil {
			logger.Warn("[Avatar] failed to remove old object", logger.ErrorField(err))
		}
	}
	if err := h.userCache.Invalidate(r.Context(), userID); err != nil {
		logger.Warn("[Avatar] failed to invalidate cache", logger.ErrorField(err))
	}

	writeJSON(w, http.StatusOK, avatar)
}

// SearchUsersHandler runs a full-text search over username and name fields.
func (h *APIHandler) SearchUsersHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	users, err := h.userRepo.Search(query, limit)
	if err != nil {
		logger.Error("[Search] query failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

// AttachPostHandler records a post reference for the authenticated user and
// bumps their posts count. Post content lives in the post service; only the
// identifier is tracked here. Recording the same post twice is a no-op.
func (h *APIHandler) AttachPostHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	postID, err := strconv.ParseInt(mux.Vars(r)["postID"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid post id")
		return
	}

	if err := h.postRepo.Attach(userID, postID); err != nil {
		logger.Error("[Posts] attach failed", logger.ErrorField(err))
		writeDomainError(w, err)
		return
	}
	// posts_count changed.
	if err := h.userCache.Invalidate(r.Context(), userID); err != nil {
		logger.Warn("[Posts] failed to invalidate cache", logger.ErrorField(err))
	}

	logger.Info("[Posts] reference recorded",
		logger.Int64("userID", userID),
		logger.Int64("postID", postID))
	writeJSON(w, http.StatusCreated, map[string]interface{}{"postId": postID})
}

// DetachPostHandler removes a post reference and drops the posts count.
func (h *APIHandler) DetachPostHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	postID, err := strconv.ParseInt(mux.Vars(r)["postID"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid post id")
		return
	}

	if err := h.postRepo.Detach(userID, postID); err != nil {
		logger.Error("[Posts] detach failed", logger.ErrorField(err))
		writeDomainError(w, err)
		return
	}
	if err := h.userCache.Invalidate(r.Context(), userID); err != nil {
		logger.Warn("[Posts] failed to invalidate cache", logger.ErrorField(err))
	}

	logger.Info("[Posts] reference removed",
		logger.Int64("userID", userID),
		logger.Int64("postID", postID))
	w.WriteHeader(http.StatusNoContent)
}

// ListPostsHandler returns the user's post identifiers in insertion order.
func (h *APIHandler) ListPostsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	ids, err := h.postRepo.ListPostIDs(id, limit, offset)
	if err != nil {
		logger.Error("[Posts] list failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"posts": ids})
}

// UpdateStatusHandler moves the authenticated user's account to a new
// lifecycle state (deactivation, deletion-as-status, and so on).
func (h *APIHandler) UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req struct {
		Status string `json:"accountStatus"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.userRepo.UpdateStatus(userID, model.AccountStatus(req.Status)); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.userCache.Invalidate(r.Context(), userID); err != nil {
		logger.Warn("[Status] failed to invalidate cache", logger.ErrorField(err))
	}

	logger.Info("[Status] account status changed",
		logger.Int64("userID", userID),
		logger.String("status", req.Status))
	writeJSON(w, http.StatusOK, map[string]string{"accountStatus": req.Status})
}
