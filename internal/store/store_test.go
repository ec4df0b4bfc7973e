package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/desertthunder/spotwidget/internal/shared"
)

func newSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := shared.NewDatabase(filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = shared.MigrateUp(context.Background(), db)
	require.NoError(t, err)
	return NewSQLiteStore(db)
}

func newRedis(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := NewRedisStore(RedisOptions{Addr: mr.Addr(), TTL: ttl})
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestStores(t *testing.T) {
	keyring.MockInit()

	backends := map[string]func(t *testing.T) Store{
		"memory":  func(t *testing.T) Store { return NewMemoryStore() },
		"keyring": func(t *testing.T) Store { return NewKeyringStore("spotwidget-test") },
		"sqlite":  func(t *testing.T) Store { return newSQLite(t) },
		"redis": func(t *testing.T) Store {
			s, _ := newRedis(t, 0)
			return s
		},
	}

	for name, mk := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := mk(t)

			t.Run("missing key", func(t *testing.T) {
				_, err := s.Get(ctx, "absent")
				assert.ErrorIs(t, err, ErrNotFound)
			})

			t.Run("set then get", func(t *testing.T) {
				require.NoError(t, s.Set(ctx, "widget_code_verifier", "first"))
				v, err := s.Get(ctx, "widget_code_verifier")
				require.NoError(t, err)
				assert.Equal(t, "first", v)
			})

			t.Run("set overwrites", func(t *testing.T) {
				require.NoError(t, s.Set(ctx, "widget_code_verifier", "second"))
				v, err := s.Get(ctx, "widget_code_verifier")
				require.NoError(t, err)
				assert.Equal(t, "second", v)
			})

			t.Run("delete", func(t *testing.T) {
				require.NoError(t, s.Delete(ctx, "widget_code_verifier"))
				_, err := s.Get(ctx, "widget_code_verifier")
				assert.ErrorIs(t, err, ErrNotFound)
			})

			t.Run("delete missing key is a no-op", func(t *testing.T) {
				assert.NoError(t, s.Delete(ctx, "never-set"))
			})
		})
	}
}

func TestOpen(t *testing.T) {
	t.Run("defaults to keyring", func(t *testing.T) {
		s, err := Open(shared.StoreConfig{}, nil)
		require.NoError(t, err)
		assert.IsType(t, &KeyringStore{}, s)
	})

	t.Run("memory", func(t *testing.T) {
		s, err := Open(shared.StoreConfig{Backend: "Memory"}, nil)
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, s)
	})

	t.Run("sqlite requires a database", func(t *testing.T) {
		_, err := Open(shared.StoreConfig{Backend: BackendSQLite}, nil)
		assert.ErrorIs(t, err, shared.ErrInvalidConfig)

		s, err := Open(shared.StoreConfig{Backend: BackendSQLite}, newSQLite(t).db)
		require.NoError(t, err)
		assert.IsType(t, &SQLiteStore{}, s)
	})

	t.Run("redis", func(t *testing.T) {
		s, err := Open(shared.StoreConfig{Backend: BackendRedis, RedisAddr: "127.0.0.1:6379"}, nil)
		require.NoError(t, err)
		assert.IsType(t, &RedisStore{}, s)
		assert.NoError(t, s.(*RedisStore).Close())
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := Open(shared.StoreConfig{Backend: "etcd"}, nil)
		assert.ErrorIs(t, err, shared.ErrUnknownBackend)
	})
}

func TestRedisStoreUnreachable(t *testing.T) {
	s := NewRedisStore(RedisOptions{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { s.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := s.Get(ctx, "widget_code_verifier")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	assert.Error(t, s.Set(ctx, "widget_code_verifier", "v"))
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()

	t.Run("keys are namespaced", func(t *testing.T) {
		s, mr := newRedis(t, 0)
		require.NoError(t, s.Set(ctx, "widget_code_verifier", "v1"))

		got, err := mr.Get("spotwidget:widget_code_verifier")
		require.NoError(t, err)
		assert.Equal(t, "v1", got)
		assert.False(t, mr.Exists("widget_code_verifier"))

		require.NoError(t, s.Delete(ctx, "widget_code_verifier"))
		assert.False(t, mr.Exists("spotwidget:widget_code_verifier"))
	})

	t.Run("foreign keys are not visible", func(t *testing.T) {
		s, mr := newRedis(t, 0)
		require.NoError(t, mr.Set("widget_code_verifier", "outside"))

		_, err := s.Get(ctx, "widget_code_verifier")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ttl expires values", func(t *testing.T) {
		s, mr := newRedis(t, time.Minute)
		require.NoError(t, s.Set(ctx, "widget_code_verifier", "v1"))
		assert.Equal(t, time.Minute, mr.TTL("spotwidget:widget_code_verifier"))

		mr.FastForward(2 * time.Minute)
		_, err := s.Get(ctx, "widget_code_verifier")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("server errors are not reported as missing", func(t *testing.T) {
		s, mr := newRedis(t, 0)
		mr.SetError("ERR simulated failure")

		_, err := s.Get(ctx, "widget_code_verifier")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
	})

	t.Run("opened from config", func(t *testing.T) {
		mr := miniredis.RunT(t)
		st, err := Open(shared.StoreConfig{Backend: BackendRedis, RedisAddr: mr.Addr()}, nil)
		require.NoError(t, err)
		t.Cleanup(func() { st.(*RedisStore).Close() })

		require.NoError(t, st.Set(ctx, "k", "v"))
		assert.True(t, mr.Exists("spotwidget:k"))
	})
}
