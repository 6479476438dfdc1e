package service

import (
	"context"
	"errors"
	"io"

	"github.com/Skotchmaster/contacts_api/internal/apperr"
	"github.com/Skotchmaster/contacts_api/internal/cache"
	"github.com/Skotchmaster/contacts_api/internal/logging"
	"github.com/Skotchmaster/contacts_api/internal/models"
	"github.com/Skotchmaster/contacts_api/internal/storage"
)

type UserService struct {
	Users   UserStore
	Avatars AvatarStorage

	Cache             cache.UserCache
	InvalidateOnWrite bool
}

// UpdateAvatar uploads the image and stores its URL. Role checks happen
// upstream, on the route.
func (s *UserService) UpdateAvatar(ctx context.Context, current *models.User, contentType string, r io.Reader) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "users.update_avatar", "user_id", current.ID)

	if s.Avatars == nil {
		l.Warn("update_avatar_failed", "status", 503, "reason", "storage disabled")
		return nil, apperr.ErrAvatarUnavailable
	}

	url, err := s.Avatars.Upload(ctx, current.Username, contentType, r)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			l.Warn("update_avatar_failed", "status", 422, "reason", "too large")
			return nil, apperr.ErrAvatarTooLarge
		}
		l.Error("update_avatar_failed", "status", 500, "error", err)
		return nil, apperr.ErrInternal
	}

	user, err := s.Users.UpdateAvatarURL(ctx, current.Email, url)
	if err != nil {
		l.Error("update_avatar_failed", "status", 500, "error", err)
		return nil, apperr.ErrInternal
	}
	if user == nil {
		return nil, apperr.ErrInvalidCredentials
	}

	if s.InvalidateOnWrite && s.Cache != nil {
		if err := s.Cache.Delete(ctx, user.Username); err != nil {
			l.Warn("cache_evict_failed", "error", err)
		}
	}
	l.Info("avatar_updated")
	return user, nil
}
