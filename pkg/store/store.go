// Package store defines the persistent key-value contract the cache is
// built on, plus a capacity wrapper that mimics a bounded browser store.
package store

import (
	"errors"
	"fmt"
	"sync"
)

// ErrQuotaExceeded is returned by a quota-limited store when a write would
// push the total stored size past its limit.
var ErrQuotaExceeded = errors.New("store quota exceeded")

// DefaultQuota matches the usual per-origin local storage allowance.
const DefaultQuota = 5 << 20

// Store is a synchronous string key-value store. Implementations must be
// safe for concurrent use.
type Store interface {
	// Get returns the value for key. ok is false if the key is absent.
	Get(key string) (value string, ok bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
	// Keys lists all keys that start with prefix.
	Keys(prefix string) ([]string, error)
	// Close releases resources.
	Close() error
}

// Quota wraps a Store and rejects writes once the summed size of keys and
// values would exceed max bytes.
//
// The limit is per process and approximate. The first write scans the
// whole backend, so keys of other namespaces sharing it count too, like a
// browser origin's storage. After that only writes through this Quota are
// tracked; writes by other processes to a shared sqlite or redis backend
// are not seen until the store is reopened.
type Quota struct {
	Store
	max int64

	mu     sync.Mutex
	loaded bool
	used   int64
	sizes  map[string]int64
}

// WithQuota limits s to maxBytes. A non-positive maxBytes disables the limit.
func WithQuota(s Store, maxBytes int64) Store {
	if maxBytes <= 0 {
		return s
	}
	return &Quota{Store: s, max: maxBytes, sizes: make(map[string]int64)}
}

// Set implements Store.
func (q *Quota) Set(key, value string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.load(); err != nil {
		return err
	}

	size := int64(len(key) + len(value))
	next := q.used - q.sizes[key] + size
	if next > q.max {
		return fmt.Errorf("%w: %d of %d bytes", ErrQuotaExceeded, next, q.max)
	}
	if err := q.Store.Set(key, value); err != nil {
		return err
	}
	q.used = next
	q.sizes[key] = size
	return nil
}

// Delete implements Store.
func (q *Quota) Delete(key string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.Store.Delete(key); err != nil {
		return err
	}
	q.used -= q.sizes[key]
	delete(q.sizes, key)
	return nil
}

// Used returns the number of bytes currently accounted for.
func (q *Quota) Used() (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.load(); err != nil {
		return 0, err
	}
	return q.used, nil
}

// load seeds the size table from the underlying store on first use, so a
// reopened store keeps counting what earlier processes wrote.
func (q *Quota) load() error {
	if q.loaded {
		return nil
	}
	keys, err := q.Store.Keys("")
	if err != nil {
		return fmt.Errorf("quota scan: %w", err)
	}
	for _, k := range keys {
		v, ok, err := q.Store.Get(k)
		if err != nil {
			return fmt.Errorf("quota scan: %w", err)
		}
		if !ok {
			continue
		}
		size := int64(len(k) + len(v))
		q.sizes[k] = size
		q.used += size
	}
	q.loaded = true
	return nil
}
