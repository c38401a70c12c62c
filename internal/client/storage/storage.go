// Package storage provides the durable key-value primitive the rest of the
// client persists its state through.
//
// Two implementations exist: SQLiteStorage (a single kv table in a local
// SQLite file, created by embedded goose migrations) and MemoryStorage (a
// process-local map, used for ephemeral sessions and tests).
//
// Get returns (nil, nil) for an absent key; callers treat that as "no
// snapshot yet" rather than an error.
package storage

import (
	"context"
	"fmt"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Storage is a durable key-value store.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// SetMany writes all entries atomically.
	SetMany(ctx context.Context, entries map[string][]byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
	Close() error
}

// Open returns the storage for the named backend. dsn is only used by the
// SQLite backend.
func Open(ctx context.Context, backend, dsn string) (Storage, error) {
	switch backend {
	case "", BackendSQLite:
		s, err := OpenSQLite(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendMemory:
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
