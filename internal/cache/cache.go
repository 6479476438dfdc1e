// Package cache holds the read-through user cache: username -> user snapshot
// with TTL eviction. Entries are never refreshed on store writes unless the
// caller deletes them explicitly.
package cache

import (
	"context"
	"time"

	"github.com/Skotchmaster/contacts_api/internal/models"
)

// UserCache is satisfied by Memory and Redis. Get returns (nil, nil) on a miss.
type UserCache interface {
	Get(ctx context.Context, username string) (*models.User, error)
	Set(ctx context.Context, username string, user *models.User, ttl time.Duration) error
	Delete(ctx context.Context, username string) error
	Close() error
}

func userKey(username string) string {
	return "user:" + username
}

func snapshot(u *models.User) *models.User {
	cp := *u
	cp.PasswordHash = ""
	if u.Avatar != nil {
		a := *u.Avatar
		cp.Avatar = &a
	}
	return &cp
}
