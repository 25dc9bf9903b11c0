// Package market wires the CoinGecko client into the fallback loaders for
// the two cached domains: the symbol list and per-coin price series.
package market

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/michischmidt/crypto-tracker/pkg/cache"
	"github.com/michischmidt/crypto-tracker/pkg/coingecko"
	"github.com/michischmidt/crypto-tracker/pkg/fallback"
	"github.com/michischmidt/crypto-tracker/pkg/fault"
	"github.com/michischmidt/crypto-tracker/pkg/models"
	"github.com/michischmidt/crypto-tracker/pkg/store"
)

// Cache domains. These are part of the persisted key format.
const (
	SymbolsDomain = "symbols"
	SeriesDomain  = "market-data"
)

// Provider is the subset of the CoinGecko client the service needs.
type Provider interface {
	Markets(ctx context.Context) ([]models.CoinMarket, error)
	MarketChart(ctx context.Context, coinID string, days int) (*models.MarketChart, error)
}

var _ Provider = (*coingecko.Client)(nil)

// Options configures a Service.
type Options struct {
	Namespace string
	MaxAge    time.Duration
	Coalesce  bool
	Now       func() time.Time
	Logger    *slog.Logger
}

// Service answers symbol and series queries through the cache.
type Service struct {
	provider Provider
	symbols  *fallback.Loader[models.Coin]
	series   *fallback.Loader[models.PricePoint]
	coins    *cache.Cache[[]models.Coin]
	points   *cache.Cache[[]models.PricePoint]
}

// New creates a Service storing its cache in s.
func New(p Provider, s store.Store, opts Options) *Service {
	copts := cache.Options{
		Namespace: opts.Namespace,
		MaxAge:    opts.MaxAge,
		Now:       opts.Now,
		Logger:    opts.Logger,
	}
	lopts := fallback.Options{Coalesce: opts.Coalesce, Logger: opts.Logger}

	coins := cache.New[[]models.Coin](s, copts)
	points := cache.New[[]models.PricePoint](s, copts)
	return &Service{
		provider: p,
		coins:    coins,
		points:   points,
		symbols:  fallback.New(coins, lopts),
		series:   fallback.New(points, lopts),
	}
}

// SymbolsKey returns the single key of the symbol list.
func (s *Service) SymbolsKey() string {
	// Constant domain and no params: cannot fail.
	k, _ := s.coins.Key(SymbolsDomain)
	return k
}

// OwnsKey reports whether key is a symbols or series key of namespace.
// Keys of a longer namespace that merely starts with namespace, such as
// "crypto-tracker-dev-symbols" for "crypto-tracker", are not owned.
func OwnsKey(namespace, key string) bool {
	if key == namespace+cache.KeySeparator+SymbolsDomain {
		return true
	}
	rest, ok := strings.CutPrefix(key, namespace+cache.KeySeparator+SeriesDomain+cache.KeySeparator)
	if !ok {
		return false
	}
	i := strings.LastIndex(rest, cache.KeySeparator)
	return i > 0 && models.TimePeriod(rest[i+1:]).Valid()
}

// OwnsKey reports whether key belongs to this service's namespace.
func (s *Service) OwnsKey(key string) bool {
	return OwnsKey(s.coins.Namespace(), key)
}

// SeriesKey returns the key of the series for coinID over period.
func (s *Service) SeriesKey(coinID string, period models.TimePeriod) (string, error) {
	if !period.Valid() {
		return "", fmt.Errorf("%w: %q", fault.ErrUnknownPeriod, period)
	}
	return s.points.Key(SeriesDomain, coinID, string(period))
}

// TopCoins returns the market-cap ordered coin list.
func (s *Service) TopCoins(ctx context.Context) fallback.Result[models.Coin] {
	return s.symbols.Load(ctx, fallback.Query[models.Coin]{
		Key: s.SymbolsKey(),
		Fetch: func(ctx context.Context) ([]models.Coin, error) {
			rows, err := s.provider.Markets(ctx)
			if err != nil {
				return nil, err
			}
			return coingecko.ToCoins(rows)
		},
	})
}

// MarketSeries returns daily prices for coinID over period. Invalid
// arguments are reported without touching the cache or the network.
func (s *Service) MarketSeries(ctx context.Context, coinID string, period models.TimePeriod) (fallback.Result[models.PricePoint], error) {
	key, err := s.SeriesKey(coinID, period)
	if err != nil {
		return fallback.Result[models.PricePoint]{}, err
	}
	return s.series.Load(ctx, fallback.Query[models.PricePoint]{
		Key: key,
		Fetch: func(ctx context.Context) ([]models.PricePoint, error) {
			chart, err := s.provider.MarketChart(ctx, coinID, period.Days())
			if err != nil {
				return nil, err
			}
			return coingecko.ToPricePoints(chart)
		},
	}), nil
}

// Stats reports loader counters for both domains.
func (s *Service) Stats() (symbols, series models.LoaderStats) {
	return s.symbols.Stats(), s.series.Stats()
}
