package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/contacts_api/internal/apperr"
	"github.com/Skotchmaster/contacts_api/internal/storage"
)

type fakeAvatars struct {
	username    string
	contentType string
	body        string
	err         error
}

func (f *fakeAvatars) Upload(_ context.Context, username, contentType string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	b, _ := io.ReadAll(r)
	f.username, f.contentType, f.body = username, contentType, string(b)
	return "https://cdn.example.com/avatars/" + username + "/1", nil
}

func TestUpdateAvatar(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.registerConfirmed(t, "alice", "Secret123")

	avatars := &fakeAvatars{}
	svc := &UserService{Users: env.store, Avatars: avatars, Cache: env.cache}

	updated, err := svc.UpdateAvatar(ctx, u, "image/png", strings.NewReader("img"))
	require.NoError(t, err)
	require.NotNil(t, updated.Avatar)
	assert.Equal(t, "https://cdn.example.com/avatars/alice/1", *updated.Avatar)
	assert.Equal(t, "alice", avatars.username)
	assert.Equal(t, "img", avatars.body)

	stored, err := env.store.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, *updated.Avatar, *stored.Avatar)
}

func TestUpdateAvatar_Failures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.registerConfirmed(t, "bob", "Secret123")

	svc := &UserService{Users: env.store}
	_, err := svc.UpdateAvatar(ctx, u, "image/png", strings.NewReader("x"))
	assert.ErrorIs(t, err, apperr.ErrAvatarUnavailable)

	svc.Avatars = &fakeAvatars{err: storage.ErrTooLarge}
	_, err = svc.UpdateAvatar(ctx, u, "image/png", strings.NewReader("x"))
	assert.ErrorIs(t, err, apperr.ErrAvatarTooLarge)

	svc.Avatars = &fakeAvatars{err: errors.New("s3 down")}
	_, err = svc.UpdateAvatar(ctx, u, "image/png", strings.NewReader("x"))
	assert.ErrorIs(t, err, apperr.ErrInternal)
}

func TestUpdateAvatar_EvictsWhenConfigured(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.registerConfirmed(t, "carol", "Secret123")
	require.NoError(t, env.cache.Set(ctx, "carol", u, 0))

	svc := &UserService{Users: env.store, Avatars: &fakeAvatars{}, Cache: env.cache, InvalidateOnWrite: true}
	_, err := svc.UpdateAvatar(ctx, u, "image/png", strings.NewReader("img"))
	require.NoError(t, err)

	cached, err := env.cache.Get(ctx, "carol")
	require.NoError(t, err)
	assert.Nil(t, cached)
}
