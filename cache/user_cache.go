package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pulsegram/model"

	"github.com/redis/go-redis/v9"
)

// UserCache is a read-through cache for user profile projections, keyed by
// user ID. Writers must invalidate after any profile mutation. A nil
// *UserCache is a disabled cache: reads always miss and writes are no-ops.
type UserCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewUserCache creates a user cache with the given entry TTL.
func NewUserCache(client *redis.Client, ttl time.Duration) *UserCache {
	return &UserCache{client: client, ttl: ttl}
}

func userKey(id int64) string {
	return fmt.Sprintf("user:profile:%d", id)
}

// Get returns the cached profile or (nil, nil) on a miss.
func (c *UserCache) Get(ctx context.Context, id int64) (*model.User, error) {
	if c == nil {
		return nil, nil
	}
	data, err := c.client.Get(ctx, userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read user cache: %w", err)
	}

	user := &model.User{}
	if err := json.Unmarshal(data, user); err != nil {
		// A corrupt entry is treated as a miss; it will be overwritten.
		return nil, nil
	}
	return user, nil
}

// Set stores the profile projection.
func (c *UserCache) Set(ctx context.Context, user *model.User) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user for cache: %w", err)
	}
	if err := c.client.Set(ctx, userKey(user.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write user cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached profile.
func (c *UserCache) Invalidate(ctx context.Context, id int64) error {
	if c == nil {
		return nil
	}
	if err := c.client.Del(ctx, userKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate user cache: %w", err)
	}
	return nil
}
