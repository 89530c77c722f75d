// Package session keeps backend tokens on the server side of an opaque
// browser cookie.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrNotFound is returned when a session id is unknown or expired.
var ErrNotFound = errors.New("session: not found")

// Store persists backend tokens under random session ids.
type Store interface {
	// Save stores token and returns the new session id.
	Save(ctx context.Context, token string) (string, error)
	// Token returns the token for id or ErrNotFound.
	Token(ctx context.Context, id string) (string, error)
	// Delete removes id. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
	// Ping reports whether the store can serve requests.
	Ping(ctx context.Context) error
	Close() error
}

// Cleaner is implemented by stores that must purge expired sessions
// periodically. It matches cache.Cleaner.
type Cleaner interface {
	CleanExpired() int
}

// BackendType selects the Store implementation.
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}

// Config holds what the factory needs to build a store.
type Config struct {
	Type BackendType
	TTL  time.Duration

	// Memory specific
	MaxEntries int

	// SQLite specific
	SQLiteDBPath string
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid session backend: %q", c.Type)
	}
	if c.TTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", c.TTL)
	}
	switch c.Type {
	case MemoryBackend:
		if c.MaxEntries <= 0 {
			return fmt.Errorf("memory session backend needs a positive size, got %d", c.MaxEntries)
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite session backend")
		}
	}
	return nil
}

// New creates the store selected by cfg.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case SQLiteBackend:
		store, err := OpenSQLite(ctx, cfg.SQLiteDBPath, cfg.TTL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite session store: %w", err)
		}
		logger.Info("Initialized SQLite session store", "db_path", cfg.SQLiteDBPath, "ttl", cfg.TTL)
		return store, nil
	default:
		logger.Info("Initialized memory session store", "max_entries", cfg.MaxEntries, "ttl", cfg.TTL)
		return NewMemory(cfg.MaxEntries, cfg.TTL), nil
	}
}
