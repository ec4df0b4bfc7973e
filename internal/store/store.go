// Package store provides durable string key/value stores.
//
// The login flow writes the PKCE code verifier before handing control to the identity provider and
// reads it back when the redirect arrives, possibly in a different process. Each backend keeps that
// value somewhere that outlives the process: the OS keyring, a SQLite file, or Redis. [MemoryStore]
// exists for tests and single-process web mode.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/spotwidget/internal/shared"
)

// ErrNotFound is returned by Get when nothing is stored under the key.
var ErrNotFound = errors.New("store: key not found")

// Store is a string key/value store. Set overwrites.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

const (
	BackendKeyring = "keyring"
	BackendSQLite  = "sqlite"
	BackendRedis   = "redis"
	BackendMemory  = "memory"
)

// Open builds the backend named in cfg. db is only consulted for the sqlite backend and may be nil otherwise.
func Open(cfg shared.StoreConfig, db *sql.DB) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", BackendKeyring:
		return NewKeyringStore(cfg.KeyringService), nil
	case BackendSQLite:
		if db == nil {
			return nil, fmt.Errorf("%w: sqlite store requires a database", shared.ErrInvalidConfig)
		}
		return NewSQLiteStore(db), nil
	case BackendRedis:
		return NewRedisStore(RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}), nil
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", shared.ErrUnknownBackend, cfg.Backend)
	}
}
