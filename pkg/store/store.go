// Package store provides the durable key/value store backing booking
// records and auth sessions. It is a thin layer over SQLite: values are
// opaque blobs, keys are namespaced by prefix, and every record may
// carry an expiry after which it is treated as absent.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "embed"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// ErrClosed indicates the underlying database connection is unavailable.
var ErrClosed = errors.New("store: closed")

// KV is the durable key/value surface consumed by the booking flow and
// the auth session helpers. A zero TTL means the record never expires.
type KV interface {
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
}

// Store implements KV on top of a SQLite database file.
type Store struct {
	db *sql.DB

	// now is injectable so expiry behavior can be tested without sleeping.
	now func() time.Time
}

// Open creates (or opens) the database at path and applies the schema.
// Parent directories are created with private permissions since the
// store holds credentials-adjacent session records.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports one writer at a time; WAL allows concurrent readers.
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Put writes or replaces a record. A positive ttl sets an expiry
// relative to now; zero means the record is kept until deleted.
func (s *Store) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s.db == nil {
		return ErrClosed
	}

	now := s.now()
	var expiresAt sql.NullInt64
	if ttl > 0 {
		expiresAt = sql.NullInt64{Int64: now.Add(ttl).Unix(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, created_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value,
		   created_at = excluded.created_at, expires_at = excluded.expires_at`,
		key, value, now.Unix(), expiresAt)
	if err != nil {
		return fmt.Errorf("failed to put %q: %w", key, err)
	}
	return nil
}

// Get returns the value for key. A record past its expiry is treated as
// absent and purged on the way out.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.db == nil {
		return nil, false, ErrClosed
	}

	var value []byte
	var expiresAt sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM kv WHERE key = ?`, key).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %q: %w", key, err)
	}

	if expiresAt.Valid && s.now().Unix() >= expiresAt.Int64 {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
		return nil, false, nil
	}
	return value, true, nil
}

// Delete removes a record. Deleting an absent key is a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	if s.db == nil {
		return ErrClosed
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

// List returns the keys under prefix, excluding expired records.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	if s.db == nil {
		return nil, ErrClosed
	}

	pattern := escapeLike(prefix) + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM kv WHERE key LIKE ? ESCAPE '\'
		   AND (expires_at IS NULL OR expires_at > ?)
		 ORDER BY key`, pattern, s.now().Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to list %q: %w", prefix, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Purge removes all expired records. Expiry is otherwise lazy, so this
// only matters for keeping long-lived database files small.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, ErrClosed
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM kv WHERE expires_at IS NOT NULL AND expires_at <= ?`, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database. Safe to call on an already-closed store.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
