// Package prefs persists UI preferences (diff style, theme, pinned
// files) in a small sqlite database. Engine state is deliberately not
// persisted: a diff session is transient by design, only the user's
// presentation choices survive restarts.
package prefs

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/zjrosen/diffdeck/internal/log"
)

// Well-known preference keys.
const (
	KeyDiffStyle = "diff_style"
	KeyTheme     = "theme"
)

// Store is a key/value preference store backed by sqlite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the preference database at path and
// applies pending schema migrations. ":memory:" opens a throwaway
// in-memory store.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("creating prefs directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening prefs database: %w", err)
	}
	// sqlite serializes writers anyway; a single pooled connection
	// also keeps :memory: databases coherent across queries.
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating prefs database: %w", err)
	}

	log.Debug(log.CatPrefs, "preference store opened", "path", path)
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the stored value for a key. The boolean reports whether
// the key was present.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM prefs WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading pref %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores a value, replacing any previous one.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO prefs (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		key, value)
	if err != nil {
		return fmt.Errorf("storing pref %q: %w", key, err)
	}
	return nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM prefs WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("deleting pref %q: %w", key, err)
	}
	return nil
}

// All returns every stored preference.
func (s *Store) All(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM prefs`)
	if err != nil {
		return nil, fmt.Errorf("listing prefs: %w", err)
	}
	defer rows.Close()

	prefs := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scanning pref: %w", err)
		}
		prefs[key] = value
	}
	return prefs, rows.Err()
}

// Pin marks a file path as pinned so the file list surfaces it first.
// Pinning twice is a no-op.
func (s *Store) Pin(ctx context.Context, path string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pinned_files (path, pinned_at)
		VALUES (?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO NOTHING`, path)
	if err != nil {
		return fmt.Errorf("pinning %q: %w", path, err)
	}
	return nil
}

// Unpin removes a pinned path.
func (s *Store) Unpin(ctx context.Context, path string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pinned_files WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("unpinning %q: %w", path, err)
	}
	return nil
}

// Pinned returns pinned paths, oldest pin first.
func (s *Store) Pinned(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path FROM pinned_files ORDER BY pinned_at, path`)
	if err != nil {
		return nil, fmt.Errorf("listing pinned files: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("scanning pinned file: %w", err)
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}
