// Package sqlite provides the default persistent Store backed by SQLite.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/michischmidt/crypto-tracker/pkg/store"
)

var _ store.Store = (*Store)(nil)

// Store is a key-value table in a SQLite database.
type Store struct {
	db *sql.DB
}

const createKVTable = `
CREATE TABLE IF NOT EXISTS kv_entries (
	key TEXT NOT NULL PRIMARY KEY,
	value TEXT NOT NULL
);
`

// New opens (or creates) the database at dbPath and migrates it.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store db: %w", err)
	}
	// A single connection keeps writes serialized and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createKVTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate store db: %w", err)
	}

	return &Store{db: db}, nil
}

// Get implements store.Store.
func (s *Store) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv_entries WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store get: %w", err)
	}
	return value, true, nil
}

// Set implements store.Store.
func (s *Store) Set(key, value string) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO kv_entries (key, value) VALUES (?, ?)`, key, value)
	if err != nil {
		return fmt.Errorf("store set: %w", err)
	}
	return nil
}

// Delete implements store.Store.
func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM kv_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("store delete: %w", err)
	}
	return nil
}

// Keys implements store.Store. Keys are returned sorted.
func (s *Store) Keys(prefix string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT key FROM kv_entries WHERE substr(key, 1, length(?1)) = ?1 ORDER BY key`,
		prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("store keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("store keys: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
