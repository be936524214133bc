package tokenstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jrsteele09/go-inventory-console/tokenstore"
	"github.com/jrsteele09/go-inventory-console/users"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the behaviour every Store must share
func exerciseStore(t *testing.T, store tokenstore.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		creds, err := store.Load(ctx)
		require.NoError(t, err)
		require.True(t, creds.Empty())
	})

	t.Run("save then load", func(t *testing.T) {
		want := tokenstore.Credentials{AccessToken: "a1", RefreshToken: "r1", Role: users.RoleAdmin}
		require.NoError(t, store.Save(ctx, want))

		got, err := store.Load(ctx)
		require.NoError(t, err)
		require.Equal(t, want, got)
	})

	t.Run("set access token keeps refresh token", func(t *testing.T) {
		require.NoError(t, store.SetAccessToken(ctx, "a2", users.RoleAdmin))

		got, err := store.Load(ctx)
		require.NoError(t, err)
		require.Equal(t, tokenstore.Credentials{AccessToken: "a2", RefreshToken: "r1", Role: users.RoleAdmin}, got)
	})

	t.Run("clear then load", func(t *testing.T) {
		require.NoError(t, store.Clear(ctx))

		got, err := store.Load(ctx)
		require.NoError(t, err)
		require.True(t, got.Empty())
	})

	t.Run("clear twice", func(t *testing.T) {
		require.NoError(t, store.Clear(ctx))
	})
}

func TestMemory(t *testing.T) {
	exerciseStore(t, tokenstore.NewMemory())
}

func TestMemoryWith(t *testing.T) {
	creds := tokenstore.Credentials{AccessToken: "a", RefreshToken: "r", Role: users.RoleStaff}
	got, err := tokenstore.NewMemoryWith(creds).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, creds, got)
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := tokenstore.NewFile(path)
	exerciseStore(t, store)

	t.Run("permissions", func(t *testing.T) {
		require.NoError(t, store.Save(context.Background(), tokenstore.Credentials{AccessToken: "a"}))
		info, err := os.Stat(path)
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0600), info.Mode().Perm())
	})

	t.Run("survives a new instance", func(t *testing.T) {
		want := tokenstore.Credentials{AccessToken: "a3", RefreshToken: "r3", Role: users.RoleStaff}
		require.NoError(t, store.Save(context.Background(), want))

		got, err := tokenstore.NewFile(path).Load(context.Background())
		require.NoError(t, err)
		require.Equal(t, want, got)
	})

	t.Run("corrupt file", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))
		_, err := store.Load(context.Background())
		require.Error(t, err)
	})
}

func TestDefaultFilePath(t *testing.T) {
	t.Run("explicit", func(t *testing.T) {
		t.Setenv("INVENTORY_SESSION_FILE", "/tmp/explicit.json")
		require.Equal(t, "/tmp/explicit.json", tokenstore.DefaultFilePath())
	})

	t.Run("xdg", func(t *testing.T) {
		t.Setenv("INVENTORY_SESSION_FILE", "")
		t.Setenv("XDG_CONFIG_HOME", "/xdg")
		require.Equal(t, "/xdg/inventory-console/session.json", tokenstore.DefaultFilePath())
	})
}

func TestPostgres(t *testing.T) {
	dsn := os.Getenv("INVENTORY_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("INVENTORY_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := tokenstore.NewPostgresRepo(pool)
	require.NoError(t, repo.Migrate(ctx))

	key := uuid.NewString()
	exerciseStore(t, repo.For(key))

	t.Run("sessions are isolated", func(t *testing.T) {
		a, b := repo.For(uuid.NewString()), repo.For(uuid.NewString())
		require.NoError(t, a.Save(ctx, tokenstore.Credentials{AccessToken: "only-a", Role: users.RoleStaff}))

		got, err := b.Load(ctx)
		require.NoError(t, err)
		require.True(t, got.Empty())
		require.NoError(t, a.Clear(ctx))
	})

	t.Run("delete stale", func(t *testing.T) {
		require.NoError(t, repo.For(key).Save(ctx, tokenstore.Credentials{AccessToken: "old"}))
		n, err := repo.DeleteStale(ctx, time.Now().Add(time.Minute))
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, int64(1))
	})
}
