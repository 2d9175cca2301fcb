package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when no record exists for a key.
	ErrNotFound = errors.New("record not found")
	// ErrUnknownDriver is returned by Open for an unsupported backend name.
	ErrUnknownDriver = errors.New("unknown store driver")
)

// Store is a durable string-keyed record store.
// PutMany writes all records or none.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	PutMany(ctx context.Context, records map[string]string) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config selects and parameterises a backend.
type Config struct {
	Driver string
	Path   string // sqlite file
	DSN    string // postgres connection string
}

// Open returns the backend named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverSQLite:
		return OpenSQLite(ctx, cfg.Path)
	case DriverPostgres:
		return OpenPostgres(ctx, cfg.DSN)
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// Put writes a single record.
func Put(ctx context.Context, s Store, key, value string) error {
	return s.PutMany(ctx, map[string]string{key: value})
}

func sortedKeys(records map[string]string) []string {
	keys := make([]string, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
