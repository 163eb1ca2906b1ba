package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"pulsegram/model"
	"pulsegram/repository"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubFollowRepo mirrors the persistence contract: edge mutations keep the
// denormalized counters on both user records in step, and decrements never
// take a counter below zero.
type stubFollowRepo struct {
	users map[int64]*model.User
	edges map[[2]int64]*model.Follow
}

func newStubFollowRepo(users *stubUserRepo) *stubFollowRepo {
	return &stubFollowRepo{users: users.users, edges: make(map[[2]int64]*model.Follow)}
}

func (s *stubFollowRepo) Follow(followerID, followeeID int64) (*model.Follow, error) {
	if followerID == followeeID {
		return nil, repository.ErrSelfFollow
	}
	key := [2]int64{followerID, followeeID}
	if _, ok := s.edges[key]; ok {
		return nil, repository.ErrAlreadyFollowing
	}
	edge := &model.Follow{FollowerID: followerID, FolloweeID: followeeID, CreatedAt: time.Now()}
	s.edges[key] = edge
	s.users[followeeID].FollowersCount++
	s.users[followerID].FollowingCount++
	return edge, nil
}

func (s *stubFollowRepo) Unfollow(followerID, followeeID int64) error {
	key := [2]int64{followerID, followeeID}
	if _, ok := s.edges[key]; !ok {
		return repository.ErrNotFollowing
	}
	delete(s.edges, key)
	if u := s.users[followeeID]; u.FollowersCount > 0 {
		u.FollowersCount--
	}
	if u := s.users[followerID]; u.FollowingCount > 0 {
		u.FollowingCount--
	}
	return nil
}

func (s *stubFollowRepo) Followers(userID int64, limit, offset int) ([]model.FollowEdge, error) {
	var edges []model.FollowEdge
	for key, e := range s.edges {
		if key[1] == userID {
			edges = append(edges, model.FollowEdge{UserID: e.FollowerID, CreatedAt: e.CreatedAt})
		}
	}
	return edges, nil
}

func (s *stubFollowRepo) Following(userID int64, limit, offset int) ([]model.FollowEdge, error) {
	var edges []model.FollowEdge
	for key, e := range s.edges {
		if key[0] == userID {
			edges = append(edges, model.FollowEdge{UserID: e.FolloweeID, CreatedAt: e.CreatedAt})
		}
	}
	return edges, nil
}

func (s *stubFollowRepo) IsFollowing(followerID, followeeID int64) (bool, error) {
	_, ok := s.edges[[2]int64{followerID, followeeID}]
	return ok, nil
}

func seedUser(t *testing.T, repo *stubUserRepo, uname, email string) *model.User {
	t.Helper()
	u := model.NewUser()
	u.FirstName = "Test"
	u.LastName = "User"
	u.Username = uname
	u.Email = email
	u.Password = "secret-pass"
	_, err := repo.Create(u)
	require.NoError(t, err)
	return u
}

func authedRequest(method, target string, body io.Reader, userID int64, vars map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req = req.WithContext(context.WithValue(req.Context(), "userID", userID))
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}

func newFollowTestHandler(t *testing.T) (*APIHandler, *stubUserRepo, *stubFollowRepo) {
	t.Helper()
	cred := newTestManager()
	users := newStubUserRepo(cred)
	follows := newStubFollowRepo(users)
	h := NewAPIHandler(users, follows, nil, nil, cred, nil, testConfig())
	return h, users, follows
}

func doFollow(h *APIHandler, followerID, followeeID int64) *httptest.ResponseRecorder {
	req := authedRequest(http.MethodPost, "/api/users/"+strconv.FormatInt(followeeID, 10)+"/follow",
		nil, followerID, map[string]string{"id": strconv.FormatInt(followeeID, 10)})
	rec := httptest.NewRecorder()
	h.FollowHandler(rec, req)
	return rec
}

func doUnfollow(h *APIHandler, followerID, followeeID int64) *httptest.ResponseRecorder {
	req := authedRequest(http.MethodDelete, "/api/users/"+strconv.FormatInt(followeeID, 10)+"/follow",
		nil, followerID, map[string]string{"id": strconv.FormatInt(followeeID, 10)})
	rec := httptest.NewRecorder()
	h.UnfollowHandler(rec, req)
	return rec
}

func TestFollowHandler_CountersMoveWithEdge(t *testing.T) {
	h, users, follows := newFollowTestHandler(t)
	alice := seedUser(t, users, "alice", "alice@example.com")
	bob := seedUser(t, users, "bobby", "bob@example.com")

	rec := doFollow(h, alice.ID, bob.ID)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Both counters move with the edge.
	assert.Equal(t, int64(1), bob.FollowersCount)
	assert.Equal(t, int64(1), alice.FollowingCount)
	following, err := follows.IsFollowing(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, following)

	// Re-following is a conflict, not a double count.
	rec = doFollow(h, alice.ID, bob.ID)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, int64(1), bob.FollowersCount)
	assert.Equal(t, int64(1), alice.FollowingCount)
}

func TestFollowHandler_SelfFollow(t *testing.T) {
	h, users, _ := newFollowTestHandler(t)
	alice := seedUser(t, users, "alice", "alice@example.com")

	rec := doFollow(h, alice.ID, alice.ID)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, int64(0), alice.FollowersCount)
	assert.Equal(t, int64(0), alice.FollowingCount)
}

func TestFollowHandler_UnknownFollowee(t *testing.T) {
	h, users, _ := newFollowTestHandler(t)
	alice := seedUser(t, users, "alice", "alice@example.com")

	rec := doFollow(h, alice.ID, 999)
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
	assert.Equal(t, int64(0), alice.FollowingCount)
}

func TestUnfollowHandler_CountersFloorAtZero(t *testing.T) {
	h, users, _ := newFollowTestHandler(t)
	alice := seedUser(t, users, "alice", "alice@example.com")
	bob := seedUser(t, users, "bobby", "bob@example.com")

	require.Equal(t, http.StatusCreated, doFollow(h, alice.ID, bob.ID).Code)

	rec := doUnfollow(h, alice.ID, bob.ID)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(0), bob.FollowersCount)
	assert.Equal(t, int64(0), alice.FollowingCount)

	// Removing a missing edge is reported, and the counters stay at zero
	// rather than going negative.
	rec = doUnfollow(h, alice.ID, bob.ID)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, int64(0), bob.FollowersCount)
	assert.Equal(t, int64(0), alice.FollowingCount)
}

func TestFollowersHandler(t *testing.T) {
	h, users, _ := newFollowTestHandler(t)
	alice := seedUser(t, users, "alice", "alice@example.com")
	bob := seedUser(t, users, "bobby", "bob@example.com")
	require.Equal(t, http.StatusCreated, doFollow(h, alice.ID, bob.ID).Code)

	req := authedRequest(http.MethodGet, "/api/users/"+strconv.FormatInt(bob.ID, 10)+"/followers",
		nil, alice.ID, map[string]string{"id": strconv.FormatInt(bob.ID, 10)})
	rec := httptest.NewRecorder()
	h.FollowersHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Followers []model.FollowEdge `json:"followers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Followers, 1)
	assert.Equal(t, alice.ID, resp.Followers[0].UserID)
}
