package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists session keys in a small sqlite file. The table uses
// the same data_key/data_value/serialized layout as the server-side sessions table.
type SQLiteStore struct {
	db *sqlx.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	data_key   TEXT PRIMARY KEY,
	data_value TEXT NOT NULL,
	serialized INTEGER NOT NULL DEFAULT 0
)`

// OpenSQLiteStore opens (creating if needed) the store at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create session directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	// A single connection keeps :memory: databases alive across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Get returns the value stored under key.
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.GetContext(ctx, &value, `SELECT data_value FROM sessions WHERE data_key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read session key %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	serialized := 0
	if len(value) > 0 && (value[0] == '{' || value[0] == '[') {
		serialized = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (data_key, data_value, serialized) VALUES (?, ?, ?)
		ON CONFLICT(data_key) DO UPDATE SET data_value = excluded.data_value, serialized = excluded.serialized`,
		key, value, serialized)
	if err != nil {
		return fmt.Errorf("failed to write session key %s: %w", key, err)
	}
	return nil
}

// Delete removes keys; missing keys are ignored.
func (s *SQLiteStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM sessions WHERE data_key IN (?)`, keys)
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to delete session keys: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
