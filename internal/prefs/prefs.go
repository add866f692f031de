// Package prefs stores user preferences in a small SQLite key/value table.
package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS prefs (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// Store is a preference table. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the preference database at path.
// Use ":memory:" for a throwaway store.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("prefs: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("prefs: open: %w", err)
	}
	if path == ":memory:" {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range append(pragmas, schema) {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("prefs: %s: %w", p, err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the raw value for key and whether it exists.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM prefs WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("prefs: get %s: %w", key, err)
	}
	return v, true, nil
}

// Set stores the raw value for key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO prefs (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("prefs: set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM prefs WHERE key = ?`, key); err != nil {
		return fmt.Errorf("prefs: delete %s: %w", key, err)
	}
	return nil
}

// Keys lists the stored keys in order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM prefs ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("prefs: keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("prefs: keys: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// GetString returns the value for key, or def when unset.
func (s *Store) GetString(ctx context.Context, key, def string) (string, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return def, err
	}
	return v, nil
}

// SetString stores a string value.
func (s *Store) SetString(ctx context.Context, key, v string) error {
	return s.Set(ctx, key, v)
}

// GetInt returns the integer for key, or def when unset.
func (s *Store) GetInt(ctx context.Context, key string, def int) (int, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return def, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("prefs: %s: %w", key, err)
	}
	return n, nil
}

// SetInt stores an integer value.
func (s *Store) SetInt(ctx context.Context, key string, v int) error {
	return s.Set(ctx, key, strconv.Itoa(v))
}

// GetBool returns the boolean for key, or def when unset.
func (s *Store) GetBool(ctx context.Context, key string, def bool) (bool, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return def, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("prefs: %s: %w", key, err)
	}
	return b, nil
}

// SetBool stores a boolean value.
func (s *Store) SetBool(ctx context.Context, key string, v bool) error {
	return s.Set(ctx, key, strconv.FormatBool(v))
}

// GetFloat returns the float for key, or def when unset.
func (s *Store) GetFloat(ctx context.Context, key string, def float64) (float64, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return def, err
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def, fmt.Errorf("prefs: %s: %w", key, err)
	}
	return f, nil
}

// SetFloat stores a float value.
func (s *Store) SetFloat(ctx context.Context, key string, v float64) error {
	return s.Set(ctx, key, strconv.FormatFloat(v, 'g', -1, 64))
}
