// Package store provides the durable key-value tier behind the recipe cache.
// Drivers: SQLite (default), Postgres and Redis.
package store

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverNone     = "none"
)

// KV is a durable key-value store. Values are opaque bytes.
type KV interface {
	// Get returns nil, nil when the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	// DeletePrefix removes every key starting with prefix and reports how
	// many were removed.
	DeletePrefix(ctx context.Context, prefix string) (int, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Config selects and configures a driver.
type Config struct {
	Driver        string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Pool          *PoolConfig
}

// Open connects to the configured driver and runs its migration. The "none"
// driver returns a nil KV, which the cache treats as memory-only.
func Open(ctx context.Context, cfg Config) (KV, error) {
	var (
		kv  KV
		err error
	)
	switch strings.ToLower(cfg.Driver) {
	case DriverNone:
		return nil, nil
	case "", DriverSQLite:
		kv, err = NewSQLite(cfg.DatabaseURL)
	case DriverPostgres:
		kv, err = NewPostgres(ctx, cfg.DatabaseURL, cfg.Pool)
	case DriverRedis:
		kv, err = NewRedis(ctx, RedisOptions{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := kv.Migrate(ctx); err != nil {
		_ = kv.Close()
		return nil, err
	}
	return kv, nil
}
