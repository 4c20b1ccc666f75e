package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"containerboard/api/internal/tracker"
)

// SQLiteMirror stores each scope's collection as one JSON blob row in a
// local SQLite file, the on-disk counterpart of a browser key-value store.
type SQLiteMirror struct {
	db *sql.DB
}

// NewSQLiteMirror opens (creating if needed) the database at path.
func NewSQLiteMirror(path string) (*SQLiteMirror, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}

	return &SQLiteMirror{db: db}, nil
}

func (m *SQLiteMirror) Name() string {
	return "sqlite"
}

func (m *SQLiteMirror) ReplaceAll(ctx context.Context, scope Scope, records []tracker.Record) error {
	blob, err := encodeBlob(records)
	if err != nil {
		return err
	}
	_, err = m.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
	`, scope.BlobKey(), string(blob))
	if err != nil {
		return fmt.Errorf("save containers blob: %w", err)
	}
	return nil
}

func (m *SQLiteMirror) Load(ctx context.Context, scope Scope) ([]tracker.Record, error) {
	var blob string
	err := m.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, scope.BlobKey()).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return []tracker.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read containers blob: %w", err)
	}
	return decodeBlob([]byte(blob))
}

func (m *SQLiteMirror) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *SQLiteMirror) Close() error {
	return m.db.Close()
}
