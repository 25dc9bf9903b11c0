// Package redis provides a Store backed by a Redis server, for sharing one
// cache between several tracker processes.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/michischmidt/crypto-tracker/pkg/store"
)

var _ store.Store = (*Store)(nil)

const defaultTimeout = 2 * time.Second

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	// Timeout bounds every individual operation.
	Timeout time.Duration
}

// Store keeps each entry as a plain Redis string without expiry.
type Store struct {
	rdb     *redis.Client
	timeout time.Duration
}

// New connects to Redis and verifies the connection with PING.
func New(ctx context.Context, opts Options) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Store{rdb: rdb, timeout: timeout}, nil
}

func (s *Store) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// Get implements store.Store.
func (s *Store) Get(key string) (string, bool, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return v, true, nil
}

// Set implements store.Store.
func (s *Store) Set(key, value string) error {
	ctx, cancel := s.ctx()
	defer cancel()

	if err := s.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete implements store.Store.
func (s *Store) Delete(key string) error {
	ctx, cancel := s.ctx()
	defer cancel()

	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Keys implements store.Store using SCAN so large databases are not blocked.
func (s *Store) Keys(prefix string) ([]string, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	var keys []string
	iter := s.rdb.Scan(ctx, 0, escapeGlob(prefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return keys, nil
}

// Close implements store.Store.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// escapeGlob quotes the characters Redis MATCH treats as pattern syntax.
func escapeGlob(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[', ']', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
