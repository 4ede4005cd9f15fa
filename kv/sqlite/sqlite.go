package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/tarmac-project/jstore/kv"
)

//go:embed schema.sql
var schemaSQL string

// feedRetention is the number of change rows kept behind the newest one.
const feedRetention = 1024

// Change is one mutation observed in the change feed.
type Change struct {
	Seq    int64
	Source string
	Key    string
	// OldValue and NewValue are nil when the value was absent.
	OldValue *string
	NewValue *string
}

// Store is a persistent kv.KV on SQLite shared by every process that opens the
// same file.
type Store struct {
	db     *sql.DB
	source string
}

// Ensure Store satisfies kv.KV at compile time.
var _ kv.KV = (*Store)(nil)

// Open creates or opens a SQLite database at path and applies the schema.
// Each Store gets a unique source id used to tag its writes in the feed.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, source: uuid.NewString()}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// Source returns the id tagging this Store's writes in the change feed.
func (s *Store) Source() string { return s.source }

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get implements kv.KV.
func (s *Store) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, kv.ErrInvalidKey
	}

	var v string
	err := s.db.QueryRow(`SELECT value FROM items WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, kv.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", key, err)
	}

	return []byte(v), nil
}

// Set implements kv.KV. The previous value and the new one are appended to the
// change feed in the same transaction.
func (s *Store) Set(key string, value []byte) error {
	if key == "" {
		return kv.ErrInvalidKey
	}
	if value == nil {
		return kv.ErrInvalidValue
	}

	return s.mutate(key, func(tx *sql.Tx) (*string, error) {
		_, err := tx.Exec(
			`INSERT INTO items (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			key, string(value),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to write %q: %w", key, err)
		}
		nv := string(value)
		return &nv, nil
	})
}

// Delete implements kv.KV.
func (s *Store) Delete(key string) error {
	if key == "" {
		return kv.ErrInvalidKey
	}

	return s.mutate(key, func(tx *sql.Tx) (*string, error) {
		res, err := tx.Exec(`DELETE FROM items WHERE key = ?`, key)
		if err != nil {
			return nil, fmt.Errorf("failed to delete %q: %w", key, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, kv.ErrKeyNotFound
		}
		return nil, nil
	})
}

// Keys implements kv.KV. Keys are returned in insertion order.
func (s *Store) Keys() ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM items ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, k)
	}

	return keys, rows.Err()
}

// mutate runs apply inside a transaction and records the resulting change.
func (s *Store) mutate(key string, apply func(*sql.Tx) (*string, error)) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var old sql.NullString
	err = tx.QueryRow(`SELECT value FROM items WHERE key = ?`, key).Scan(&old)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to read %q: %w", key, err)
	}

	nv, err := apply(tx)
	if err != nil {
		return err
	}

	res, err := tx.Exec(
		`INSERT INTO changes (source, key, old_value, new_value) VALUES (?, ?, ?, ?)`,
		s.source, key, old, nullString(nv),
	)
	if err != nil {
		return fmt.Errorf("failed to record change: %w", err)
	}

	if seq, err := res.LastInsertId(); err == nil && seq > feedRetention {
		if _, err := tx.Exec(`DELETE FROM changes WHERE seq <= ?`, seq-feedRetention); err != nil {
			return fmt.Errorf("failed to prune changes: %w", err)
		}
	}

	return tx.Commit()
}

// Head returns the newest change sequence number, or 0 for an empty feed.
func (s *Store) Head() (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRow(`SELECT MAX(seq) FROM changes`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("failed to read feed head: %w", err)
	}
	return seq.Int64, nil
}

// Changes returns changes after seq written by other sources, oldest first.
func (s *Store) Changes(after int64) ([]Change, error) {
	rows, err := s.db.Query(
		`SELECT seq, source, key, old_value, new_value FROM changes
		 WHERE seq > ? AND source != ? ORDER BY seq`,
		after, s.source,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read changes: %w", err)
	}
	defer rows.Close()

	var out []Change
	for rows.Next() {
		var (
			c          Change
			oldV, newV sql.NullString
		)
		if err := rows.Scan(&c.Seq, &c.Source, &c.Key, &oldV, &newV); err != nil {
			return nil, fmt.Errorf("failed to scan change: %w", err)
		}
		c.OldValue = stringPtr(oldV)
		c.NewValue = stringPtr(newV)
		out = append(out, c)
	}

	return out, rows.Err()
}

// Follow polls the feed every interval and hands each change written by
// another Store to fn, in order. Only changes newer than the call are
// delivered. It returns when ctx is done.
func (s *Store) Follow(ctx context.Context, interval time.Duration, fn func(Change)) error {
	cursor, err := s.Head()
	if err != nil {
		return err
	}
	return s.FollowFrom(ctx, cursor, interval, fn)
}

// FollowFrom is Follow starting after an explicit sequence number.
func (s *Store) FollowFrom(ctx context.Context, cursor int64, interval time.Duration, fn func(Change)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		changes, err := s.Changes(cursor)
		if err != nil {
			return err
		}
		for _, c := range changes {
			fn(c)
			cursor = c.Seq
		}
	}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
