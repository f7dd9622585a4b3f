// This file provides the sqlite backend on modernc.org/sqlite.
package kv

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/basket/pkg/types"
)

// dbFileName is the database file created inside the data directory.
const dbFileName = "basket.db"

const createKV = `CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

// SQLite stores keys in a single kv table. Reopening an existing database
// keeps its contents.
type SQLite struct {
	mu sync.RWMutex
	db *sql.DB
}

// OpenSQLite opens (creating if needed) basket.db in dir and ensures the
// schema exists. An empty dir means the current directory.
func OpenSQLite(dir string) (*SQLite, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating data dir %s", dir)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, dbFileName))
	if err != nil {
		return nil, errors.Wrap(err, "opening sqlite")
	}
	// One connection keeps writes serialized without SQLITE_BUSY retries.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createKV); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating kv schema")
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(ctx context.Context, key string) (string, bool, error) {
	if err := validKey(key); err != nil {
		return "", false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return "", false, types.ErrKVClosed
	}
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "selecting %s", key)
	}
	return value, true, nil
}

func (s *SQLite) Set(ctx context.Context, key, value string) error {
	if err := validKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return types.ErrKVClosed
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now)
	return errors.Wrapf(err, "upserting %s", key)
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return types.ErrKVClosed
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key)
	return errors.Wrapf(err, "deleting %s", key)
}

// Close closes the database. Idempotent.
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
