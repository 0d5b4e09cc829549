// Package cache holds the Redis-backed cache of authenticated users. The
// JWT middleware resolves the current user on every request; caching the
// row by email keeps that off the database for the cache TTL.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/contacts-api/internal/model"
)

// UserTTL is how long a cached user stays valid.
const UserTTL = 5 * time.Minute

// UserCache caches users keyed by email. A nil client disables the cache:
// every Get misses and every Set/Invalidate is a no-op, so callers never
// branch on whether Redis is available.
type UserCache struct {
	client *redis.Client
}

// NewUserCache wraps the given client, which may be nil.
func NewUserCache(client *redis.Client) *UserCache {
	return &UserCache{client: client}
}

func userKey(email string) string { return "user:" + email }

// Get returns the cached user for email, or (nil, false) on a miss or any
// Redis/decoding error.
func (c *UserCache) Get(ctx context.Context, email string) (*model.User, bool) {
	if c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, userKey(email)).Bytes()
	if err != nil {
		return nil, false
	}
	var u model.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, false
	}
	return &u, true
}

// Set stores the user under its email. Errors are ignored; the cache is
// best-effort.
func (c *UserCache) Set(ctx context.Context, u *model.User) {
	if c.client == nil || u == nil {
		return
	}
	raw, err := json.Marshal(u)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, userKey(u.Email), raw, UserTTL).Err()
}

// Invalidate drops the cached entry so the next request reloads from the
// database. Called after mutations that change the user row.
func (c *UserCache) Invalidate(ctx context.Context, email string) {
	if c.client == nil {
		return
	}
	_ = c.client.Del(ctx, userKey(email)).Err()
}
