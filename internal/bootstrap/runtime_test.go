package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"thoughtnet/internal/config"
	"thoughtnet/internal/models"
	"thoughtnet/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormStore_PingAndRoundTrip(t *testing.T) {
	store := GormStore(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	assert.Equal(t, config.DriverSQLite, store.Driver)
	require.NoError(t, store.Ping(ctx))

	u := &models.User{Username: "bob", Email: "bob@example.com"}
	require.NoError(t, store.Users.Create(ctx, u))
	got, err := store.Users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Username)
}

func TestStore_WithCache(t *testing.T) {
	store := GormStore(testutil.NewSQLiteDB(t))
	assert.Same(t, store, store.WithCache(nil))

	_, rdb := testutil.NewRedis(t)
	cached := store.WithCache(rdb)
	assert.NotSame(t, store, cached)
	assert.NotEqual(t, store.Users, cached.Users)
	assert.Equal(t, store.Driver, cached.Driver)
	require.NoError(t, cached.Ping(context.Background()))
}

func TestInitRuntime_SQLiteWithoutRedis(t *testing.T) {
	cfg := &config.Config{
		Env:        "test",
		DBDriver:   config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "runtime.db"),
	}

	rt, err := InitRuntime(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, rt.Redis)
	require.NoError(t, rt.Store.Ping(context.Background()))
	require.NoError(t, rt.Close(context.Background()))
}
