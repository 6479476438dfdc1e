package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/contacts_api/internal/models"
)

func sampleUser(name string) *models.User {
	avatar := "https://www.gravatar.com/avatar/abc"
	return &models.User{
		ID:           7,
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "$2a$10$secret",
		Role:         models.RoleUser,
		Confirmed:    true,
		Avatar:       &avatar,
	}
}

func TestMemory_SetGetExpire(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m, err := NewMemory(16, 10*time.Minute, WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	ctx := context.Background()

	got, err := m.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, m.Set(ctx, "alice", sampleUser("alice"), 0))

	got, err = m.Get(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Empty(t, got.PasswordHash)

	now = now.Add(9 * time.Minute)
	got, _ = m.Get(ctx, "alice")
	assert.NotNil(t, got)

	now = now.Add(time.Minute)
	got, _ = m.Get(ctx, "alice")
	assert.Nil(t, got)
	assert.Equal(t, 0, m.Len())
}

func TestMemory_SetResetsTTL(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m, err := NewMemory(16, time.Minute, WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "bob", sampleUser("bob"), 0))
	now = now.Add(50 * time.Second)
	require.NoError(t, m.Set(ctx, "bob", sampleUser("bob"), 0))
	now = now.Add(50 * time.Second)

	got, _ := m.Get(ctx, "bob")
	assert.NotNil(t, got)
}

func TestMemory_SnapshotIsolation(t *testing.T) {
	m, err := NewMemory(4, time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	u := sampleUser("carol")
	require.NoError(t, m.Set(ctx, "carol", u, 0))
	*u.Avatar = "changed"
	u.Confirmed = false

	got, _ := m.Get(ctx, "carol")
	require.NotNil(t, got)
	assert.True(t, got.Confirmed)
	assert.Equal(t, "https://www.gravatar.com/avatar/abc", *got.Avatar)
}

func TestMemory_EvictsLeastRecentlyUsed(t *testing.T) {
	m, err := NewMemory(2, time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", sampleUser("a"), 0))
	require.NoError(t, m.Set(ctx, "b", sampleUser("b"), 0))
	_, _ = m.Get(ctx, "a")
	require.NoError(t, m.Set(ctx, "c", sampleUser("c"), 0))

	got, _ := m.Get(ctx, "b")
	assert.Nil(t, got)
	got, _ = m.Get(ctx, "a")
	assert.NotNil(t, got)
}

func TestMemory_Delete(t *testing.T) {
	m, err := NewMemory(4, time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "dave", sampleUser("dave"), 0))
	require.NoError(t, m.Delete(ctx, "dave"))
	got, _ := m.Get(ctx, "dave")
	assert.Nil(t, got)
}

func TestNewMemory_RejectsZeroSize(t *testing.T) {
	_, err := NewMemory(0, time.Minute)
	assert.Error(t, err)
}
