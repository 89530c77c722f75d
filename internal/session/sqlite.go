package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// SQLite keeps sessions in a sqlite database so they survive restarts.
type SQLite struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the database at dbPath and applies
// the embedded migrations.
func OpenSQLite(ctx context.Context, dbPath string, ttl time.Duration) (*SQLite, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// sqlite serializes writers; one connection avoids SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db, ttl: ttl, now: time.Now}, nil
}

func (s *SQLite) Save(ctx context.Context, token string) (string, error) {
	id := uuid.NewString()
	now := s.now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, token, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		id, token, now.Unix(), now.Add(s.ttl).Unix())
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}
	return id, nil
}

func (s *SQLite) Token(ctx context.Context, id string) (string, error) {
	var token string
	err := s.db.QueryRowContext(ctx,
		`SELECT token FROM sessions WHERE id = ? AND expires_at > ?`,
		id, s.now().UTC().Unix()).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("select session: %w", err)
	}
	return token, nil
}

func (s *SQLite) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CleanExpired purges expired rows and returns how many were removed.
func (s *SQLite) CleanExpired() int {
	res, err := s.db.Exec(`DELETE FROM sessions WHERE expires_at <= ?`, s.now().UTC().Unix())
	if err != nil {
		slog.Warn("Failed to purge expired sessions", "error", err)
		return 0
	}
	n, _ := res.RowsAffected()
	return int(n)
}

func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
