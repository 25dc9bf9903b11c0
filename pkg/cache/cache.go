// Package cache implements a generic time-bounded cache over a persistent
// key-value store.
//
// Every failure of the underlying store is absorbed here: writes that fail
// are logged and dropped, reads that fail or return garbage are misses.
// The cache can slow the caller down but never make it wrong.
package cache

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/michischmidt/crypto-tracker/pkg/fault"
	"github.com/michischmidt/crypto-tracker/pkg/models"
	"github.com/michischmidt/crypto-tracker/pkg/store"
)

// Options configures a Cache.
type Options struct {
	// Namespace prefixes every key. Defaults to DefaultNamespace.
	Namespace string
	// MaxAge is the default freshness window. Defaults to DefaultMaxAge.
	MaxAge time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
	// Logger receives storage and decode failures.
	Logger *slog.Logger
}

// Cache stores values of type T as timestamped records.
type Cache[T any] struct {
	store     store.Store
	codec     Codec[T]
	namespace string
	maxAge    time.Duration
	log       *slog.Logger

	hits          atomic.Int64
	misses        atomic.Int64
	writeFailures atomic.Int64
}

// New creates a Cache on top of s.
func New[T any](s store.Store, opts Options) *Cache[T] {
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = DefaultMaxAge
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Cache[T]{
		store:     s,
		codec:     Codec[T]{Now: opts.Now, Logger: opts.Logger},
		namespace: opts.Namespace,
		maxAge:    opts.MaxAge,
		log:       opts.Logger,
	}
}

// Namespace returns the key prefix of this cache.
func (c *Cache[T]) Namespace() string { return c.namespace }

// MaxAge returns the default freshness window.
func (c *Cache[T]) MaxAge() time.Duration { return c.maxAge }

// Now returns the cache's clock reading.
func (c *Cache[T]) Now() time.Time { return c.codec.Now() }

// Key derives a key in this cache's namespace. See Key.
func (c *Cache[T]) Key(domain string, params ...string) (string, error) {
	return Key(c.namespace, domain, params...)
}

// Save stores v under key with the current time. It never fails; errors
// are logged and counted.
func (c *Cache[T]) Save(key string, v T) {
	raw, err := c.codec.Encode(v)
	if err == nil {
		err = c.store.Set(key, raw)
	}
	if err != nil {
		c.writeFailures.Add(1)
		c.log.Error("failed to save data to cache", "key", key, "error", &fault.StoreWriteError{Key: key, Err: err})
	}
}

// Load returns the record stored under key, fresh or not, or nil if there
// is no readable record.
func (c *Cache[T]) Load(key string) *Record[T] {
	raw, ok, err := c.store.Get(key)
	if err != nil {
		c.log.Warn("failed to read cache", "key", key, "error", &fault.StoreReadError{Key: key, Err: err})
		return nil
	}
	if !ok {
		return nil
	}
	rec, derr := c.codec.decode(raw)
	if derr != nil {
		c.log.Warn("discarding unreadable cache record", "key", key, "error", &fault.DecodeError{Key: key, Err: derr})
		return nil
	}
	return rec
}

// IsFresh reports whether key holds a record younger than maxAge. A
// non-positive maxAge selects the cache default.
func (c *Cache[T]) IsFresh(key string, maxAge time.Duration) bool {
	return c.Valid(c.Load(key), maxAge)
}

// Valid applies the freshness check to an already loaded record and
// records the outcome as a hit or miss.
func (c *Cache[T]) Valid(rec *Record[T], maxAge time.Duration) bool {
	if maxAge <= 0 {
		maxAge = c.maxAge
	}
	if IsValid(rec, maxAge, c.codec.Now()) {
		c.hits.Add(1)
		return true
	}
	c.misses.Add(1)
	return false
}

// Delete removes key from the store.
func (c *Cache[T]) Delete(key string) error {
	return c.store.Delete(key)
}

// Entries describes the records under this cache's namespace without
// decoding payloads beyond the record envelope. The namespace prefix alone
// also matches namespaces that extend it ("ns" and "ns-dev"), so callers
// that know their key layout pass owns to keep only their own keys. A nil
// owns keeps every key under the prefix.
func (c *Cache[T]) Entries(owns func(key string) bool) ([]models.CacheEntry, error) {
	keys, err := c.store.Keys(c.namespace + KeySeparator)
	if err != nil {
		return nil, err
	}
	now := c.codec.Now()
	envelope := Codec[skipData]{}
	entries := make([]models.CacheEntry, 0, len(keys))
	for _, k := range keys {
		if owns != nil && !owns(k) {
			continue
		}
		raw, ok, err := c.store.Get(k)
		if err != nil || !ok {
			continue
		}
		e := models.CacheEntry{Key: k, Size: len(raw)}
		if rec, err := envelope.decode(raw); err == nil {
			e.WrittenAt = rec.WrittenAt().UTC()
			e.Fresh = IsValid(rec, c.maxAge, now)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Stats returns the per-process counters.
func (c *Cache[T]) Stats() models.CacheStats {
	return models.CacheStats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		WriteFailures: c.writeFailures.Load(),
	}
}

// skipData accepts any JSON value without materializing it.
type skipData struct{}

func (*skipData) UnmarshalJSON([]byte) error { return nil }
