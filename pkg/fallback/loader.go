// Package fallback implements the fetch-with-fallback request policy on
// top of a cache: serve fresh data from the cache, otherwise fetch, and
// when the fetch fails serve whatever cached copy exists, however old.
package fallback

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/michischmidt/crypto-tracker/pkg/cache"
	"github.com/michischmidt/crypto-tracker/pkg/fault"
	"github.com/michischmidt/crypto-tracker/pkg/models"
)

// Outcome is the terminal state a Load reached.
type Outcome int

const (
	// Failed means the fetch failed and no cached copy was usable.
	Failed Outcome = iota
	// Hit means fresh cached data was returned without fetching.
	Hit
	// Fetched means data was fetched, cached and returned.
	Fetched
	// Stale means the fetch failed and an expired cached copy was returned.
	Stale
)

func (o Outcome) String() string {
	switch o {
	case Hit:
		return "hit"
	case Fetched:
		return "miss"
	case Stale:
		return "stale"
	default:
		return "failed"
	}
}

// Result is the value-typed outcome of a Load. Err is non-nil only when
// Outcome is Failed; stale data is a success.
type Result[E any] struct {
	Data    []E
	Outcome Outcome
	Err     error
	// CachedAt is the write time of the returned record for Hit and Stale.
	CachedAt time.Time
}

// OK reports whether the result carries data.
func (r Result[E]) OK() bool { return r.Err == nil }

// Query describes one logical request.
type Query[E any] struct {
	// Key is the cache key for this request's parameters.
	Key string
	// MaxAge overrides the cache's freshness window when positive.
	MaxAge time.Duration
	// Fetch retrieves and transforms the provider payload into the
	// cached shape. A *fault.ParseError is passed to the caller as is;
	// any other error is reported as a *fault.NetworkError.
	Fetch func(ctx context.Context) ([]E, error)
}

// Options configures a Loader.
type Options struct {
	// Coalesce makes concurrent loads of one key share a single fetch.
	Coalesce bool
	Logger   *slog.Logger
}

// Loader runs the fallback policy for sequences of E.
type Loader[E any] struct {
	cache *cache.Cache[[]E]
	log   *slog.Logger
	group *singleflight.Group

	hits      atomic.Int64
	fetches   atomic.Int64
	fallbacks atomic.Int64
	failures  atomic.Int64
}

// New creates a Loader over c.
func New[E any](c *cache.Cache[[]E], opts Options) *Loader[E] {
	l := &Loader[E]{cache: c, log: opts.Logger}
	if l.log == nil {
		l.log = slog.New(slog.DiscardHandler)
	}
	if opts.Coalesce {
		l.group = &singleflight.Group{}
	}
	return l
}

// Load executes q. It reaches exactly one terminal state and never retries.
func (l *Loader[E]) Load(ctx context.Context, q Query[E]) Result[E] {
	rec := l.cache.Load(q.Key)
	if l.cache.Valid(rec, q.MaxAge) && len(rec.Data) > 0 {
		l.hits.Add(1)
		l.log.Debug("using cached data", "key", q.Key)
		return Result[E]{Data: rec.Data, Outcome: Hit, CachedAt: rec.WrittenAt()}
	}

	data, err := l.fetch(ctx, q)
	if err == nil {
		l.fetches.Add(1)
		return Result[E]{Data: data, Outcome: Fetched}
	}

	// Re-read: another load may have written since the first check.
	if rec := l.cache.Load(q.Key); rec != nil && len(rec.Data) > 0 {
		l.fallbacks.Add(1)
		l.log.Warn("fetch failed, using expired cached data as fallback",
			"key", q.Key, "cached_at", rec.WrittenAt().UTC(), "error", err)
		return Result[E]{Data: rec.Data, Outcome: Stale, CachedAt: rec.WrittenAt()}
	}

	l.failures.Add(1)
	if !fault.IsParse(err) && !fault.IsNetwork(err) {
		err = &fault.NetworkError{Key: q.Key, Err: err}
	}
	l.log.Error("fetch failed and no cached data is available", "key", q.Key, "error", err)
	return Result[E]{Outcome: Failed, Err: err}
}

// fetch runs the query's fetcher and saves a successful result. With
// coalescing on, concurrent callers for one key share a single fetch.
func (l *Loader[E]) fetch(ctx context.Context, q Query[E]) ([]E, error) {
	if q.Fetch == nil {
		return nil, errors.New("no fetcher configured")
	}
	if l.group == nil {
		return l.fetchAndSave(ctx, q)
	}

	// The shared fetch outlives any single caller; each caller only stops
	// waiting when its own context ends.
	ch := l.group.DoChan(q.Key, func() (any, error) {
		return l.fetchAndSave(context.WithoutCancel(ctx), q)
	})
	select {
	case res := <-ch:
		if res.Shared {
			l.log.Debug("joined in-flight fetch", "key", q.Key)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]E), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *Loader[E]) fetchAndSave(ctx context.Context, q Query[E]) ([]E, error) {
	data, err := q.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	l.cache.Save(q.Key, data)
	return data, nil
}

// Stats returns the per-process outcome counters.
func (l *Loader[E]) Stats() models.LoaderStats {
	return models.LoaderStats{
		Hits:      l.hits.Load(),
		Fetches:   l.fetches.Load(),
		Fallbacks: l.fallbacks.Load(),
		Failures:  l.failures.Load(),
	}
}
