package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/contacts_api/internal/db"
	"github.com/Skotchmaster/contacts_api/internal/models"
)

func newTestRepo(t *testing.T) *GormRepo {
	t.Helper()

	ctx := context.Background()
	gdb, err := db.Open(ctx, "sqlite://:memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx, gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })

	return &GormRepo{DB: gdb}
}

func seedUser(t *testing.T, r *GormRepo, username string) *models.User {
	t.Helper()

	u, err := r.InsertUser(context.Background(), &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		Role:         models.RoleUser,
	})
	require.NoError(t, err)
	return u
}
