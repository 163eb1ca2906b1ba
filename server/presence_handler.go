package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"pulsegram/db"
	"pulsegram/logger"

	"github.com/gorilla/websocket"
)

var presenceUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func presenceKey(userID int64) string {
	return fmt.Sprintf("presence:online:%d", userID)
}

// PresenceHandler keeps a user marked online for as long as their websocket
// stays up. Browsers cannot set headers on websocket dials, so the session
// token is taken from the query string instead of the Authorization header.
// The presence key in Redis carries a TTL and is refreshed on a ticker; the
// record's lastActive field is written when the connection ends.
func (h *APIHandler) PresenceHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusUnauthorized, "token query parameter is required")
		return
	}
	claims, err := h.cred.ParseToken(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	userID := claims.UserID

	conn, err := presenceUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("[Presence] upgrade failed", logger.ErrorField(err))
		return
	}
	defer conn.Close()

	// The request context dies with the handler; presence bookkeeping uses
	// its own context so the final cleanup still runs after a disconnect.
	ctx := context.Background()
	ttl := h.cfg.PresenceTTL
	if err := db.RedisClient.Set(ctx, presenceKey(userID), time.Now().Unix(), ttl).Err(); err != nil {
		logger.Warn("[Presence] failed to set presence key", logger.ErrorField(err))
	}
	logger.Info("[Presence] connected", logger.Int64("userID", userID))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			// The client sends periodic heartbeats; any read error means
			// the connection is gone.
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := db.RedisClient.Expire(ctx, presenceKey(userID), ttl).Err(); err != nil {
				logger.Warn("[Presence] failed to refresh presence key", logger.ErrorField(err))
			}
			if err := h.userRepo.UpdateLastActive(userID, time.Now()); err != nil {
				logger.Warn("[Presence] failed to update last active", logger.ErrorField(err))
			}
		case <-done:
			if err := db.RedisClient.Del(ctx, presenceKey(userID)).Err(); err != nil {
				logger.Warn("[Presence] failed to clear presence key", logger.ErrorField(err))
			}
			if err := h.userRepo.UpdateLastActive(userID, time.Now()); err != nil {
				logger.Warn("[Presence] failed to update last active", logger.ErrorField(err))
			}
			logger.Info("[Presence] disconnected", logger.Int64("userID", userID))
			return
		}
	}
}
