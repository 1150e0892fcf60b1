package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/cleanblog"
)

func TestRunSetAdminNormalizesEmail(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "blog.db")
	t.Setenv("SECRET_KEY", "test-secret")
	t.Setenv("DB_URI", dbPath)
	t.Setenv("APP_ENV", "development")
	t.Setenv("LOG_LEVEL", "info")
	t.Setenv("POST_CACHE_TTL", "")

	store, err := cleanblog.NewStore(dbPath)
	require.NoError(t, err)
	_, err = store.CreateUser(ctx, "A", "a@x.com", "digest")
	require.NoError(t, err)
	_, err = store.CreateUser(ctx, "B", "b@x.com", "digest")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	require.NoError(t, runSetAdmin("  B@X.com ", true))

	store, err = cleanblog.NewStore(dbPath)
	require.NoError(t, err)
	defer store.Close()
	b, err := store.GetUserByEmail(ctx, "b@x.com")
	require.NoError(t, err)
	assert.True(t, b.IsAdmin)

	require.NoError(t, runSetAdmin("A@x.com", false))
	a, err := store.GetUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, a.IsAdmin)

	assert.ErrorContains(t, runSetAdmin("nobody@x.com", true), "no user registered")
}
