// Package memory provides a process-local Store backed by go-cache.
// Entries never expire; it is meant for tests and one-shot CLI runs.
package memory

import (
	"fmt"
	"sort"
	"strings"

	gocache "github.com/patrickmn/go-cache"

	"github.com/michischmidt/crypto-tracker/pkg/store"
)

var _ store.Store = (*Store)(nil)

// Store is an in-memory key-value store.
type Store struct {
	items *gocache.Cache
}

// New creates an empty Store.
func New() *Store {
	return &Store{items: gocache.New(gocache.NoExpiration, 0)}
}

// Get implements store.Store.
func (s *Store) Get(key string) (string, bool, error) {
	v, ok := s.items.Get(key)
	if !ok {
		return "", false, nil
	}
	str, ok := v.(string)
	if !ok {
		return "", false, fmt.Errorf("memory store: value for %q is %T", key, v)
	}
	return str, true, nil
}

// Set implements store.Store.
func (s *Store) Set(key, value string) error {
	s.items.Set(key, value, gocache.NoExpiration)
	return nil
}

// Delete implements store.Store.
func (s *Store) Delete(key string) error {
	s.items.Delete(key)
	return nil
}

// Keys implements store.Store. Keys are returned sorted.
func (s *Store) Keys(prefix string) ([]string, error) {
	var keys []string
	for k := range s.items.Items() {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close implements store.Store.
func (s *Store) Close() error {
	s.items.Flush()
	return nil
}
