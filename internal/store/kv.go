package store

import (
	"context"
	"fmt"
)

// KV is a flat key-value store of opaque documents.
type KV interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Options selects and configures a backend.
type Options struct {
	Backend     string
	RedisAddr   string
	DatabaseURL string
	SQLitePath  string
}

// Open connects the configured backend.
func Open(ctx context.Context, opts Options) (KV, error) {
	switch opts.Backend {
	case BackendMemory, "":
		return NewMemory(), nil
	case BackendRedis:
		r := NewRedis(opts.RedisAddr)
		if err := r.Ping(ctx); err != nil {
			_ = r.Close()
			return nil, fmt.Errorf("store: redis %s: %w", opts.RedisAddr, err)
		}
		return r, nil
	case BackendPostgres:
		return NewPostgres(ctx, opts.DatabaseURL)
	case BackendSQLite:
		return NewSQLite(ctx, opts.SQLitePath)
	default:
		return nil, fmt.Errorf("store: unknown backend %q", opts.Backend)
	}
}
