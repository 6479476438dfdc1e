package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/contacts_api/internal/apperr"
	"github.com/Skotchmaster/contacts_api/internal/cache"
	"github.com/Skotchmaster/contacts_api/internal/logging"
	"github.com/Skotchmaster/contacts_api/internal/metrics"
	"github.com/Skotchmaster/contacts_api/internal/models"
	"github.com/Skotchmaster/contacts_api/internal/tokens"
)

type UserFinder interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// Resolver turns a bearer token into the current user: token, then cache,
// then store. It never writes to the store.
type Resolver struct {
	Tokens   *tokens.Service
	Cache    cache.UserCache
	Users    UserFinder
	CacheTTL time.Duration
	Metrics  *metrics.Metrics
}

func (r *Resolver) ResolveCurrentUser(ctx context.Context, bearer string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.resolve")

	username, err := r.Tokens.DecodeSessionToken(bearer)
	if err != nil {
		r.Metrics.AuthFailure(apperr.ErrInvalidCredentials.Reason)
		l.Debug("resolve_failed", "reason", "invalid token", "error", err)
		return nil, apperr.ErrInvalidCredentials
	}

	cached, err := r.Cache.Get(ctx, username)
	switch {
	case err != nil:
		r.Metrics.CacheLookup("error")
		l.Warn("cache_get_failed", "username", username, "error", err)
	case cached != nil:
		r.Metrics.CacheLookup("hit")
		return cached, nil
	default:
		r.Metrics.CacheLookup("miss")
	}

	user, err := r.Users.FindByUsername(ctx, username)
	if err != nil {
		l.Error("resolve_failed", "status", 500, "username", username, "error", err)
		return nil, apperr.ErrInternal
	}
	if user == nil {
		r.Metrics.AuthFailure(apperr.ErrInvalidCredentials.Reason)
		l.Warn("resolve_failed", "status", 401, "reason", "user not found", "username", username)
		return nil, apperr.ErrInvalidCredentials
	}

	if err := r.Cache.Set(ctx, username, user, r.CacheTTL); err != nil {
		l.Warn("cache_set_failed", "username", username, "error", err)
	}
	return user, nil
}

// RequireRole returns user unchanged when it holds role.
func RequireRole(user *models.User, role models.Role) (*models.User, error) {
	if user == nil || user.Role != role {
		return nil, apperr.ErrAccessDenied
	}
	return user, nil
}
