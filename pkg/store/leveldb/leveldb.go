// Package leveldb provides an embedded Store backed by goleveldb.
package leveldb

import (
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/michischmidt/crypto-tracker/pkg/store"
)

var _ store.Store = (*Store)(nil)

// Store wraps a LevelDB database directory.
type Store struct {
	db *leveldb.DB
}

// New opens (or creates) the database directory at path.
func New(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb: %w", err)
	}
	return &Store{db: db}, nil
}

// Get implements store.Store.
func (s *Store) Get(key string) (string, bool, error) {
	v, err := s.db.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("leveldb get: %w", err)
	}
	return string(v), true, nil
}

// Set implements store.Store.
func (s *Store) Set(key, value string) error {
	if err := s.db.Put([]byte(key), []byte(value), nil); err != nil {
		return fmt.Errorf("leveldb put: %w", err)
	}
	return nil
}

// Delete implements store.Store.
func (s *Store) Delete(key string) error {
	if err := s.db.Delete([]byte(key), nil); err != nil {
		return fmt.Errorf("leveldb delete: %w", err)
	}
	return nil
}

// Keys implements store.Store. LevelDB iterates in key order.
func (s *Store) Keys(prefix string) ([]string, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	defer iter.Release()

	var keys []string
	for iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("leveldb keys: %w", err)
	}
	return keys, nil
}

// Close implements store.Store.
func (s *Store) Close() error {
	return s.db.Close()
}
