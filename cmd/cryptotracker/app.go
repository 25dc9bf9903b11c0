package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/michischmidt/crypto-tracker/pkg/coingecko"
	"github.com/michischmidt/crypto-tracker/pkg/config"
	"github.com/michischmidt/crypto-tracker/pkg/logging"
	"github.com/michischmidt/crypto-tracker/pkg/market"
	"github.com/michischmidt/crypto-tracker/pkg/store"
	"github.com/michischmidt/crypto-tracker/pkg/store/leveldb"
	"github.com/michischmidt/crypto-tracker/pkg/store/memory"
	"github.com/michischmidt/crypto-tracker/pkg/store/redis"
	"github.com/michischmidt/crypto-tracker/pkg/store/sqlite"
)

// app bundles everything a command needs.
type app struct {
	cfg   *config.Config
	log   *slog.Logger
	store store.Store
	svc   *market.Service
}

// newApp loads configuration and opens the store. A missing config file is
// only tolerated for the default path.
func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.LoadOrDefault(configPath, configPath == defaultConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	s, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	client := coingecko.New(coingecko.Options{
		BaseURL:    cfg.CoinGecko.BaseURL,
		APIKey:     cfg.CoinGecko.APIKey,
		VsCurrency: cfg.CoinGecko.VsCurrency,
		Timeout:    cfg.CoinGecko.Timeout,
		RateLimit:  cfg.CoinGecko.RateLimit,
		Burst:      cfg.CoinGecko.Burst,
	})

	svc := market.New(client, s, market.Options{
		Namespace: cfg.Namespace,
		MaxAge:    cfg.Cache.MaxAge,
		Coalesce:  cfg.Cache.Coalesce,
		Logger:    log,
	})

	return &app{cfg: cfg, log: log, store: s, svc: svc}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	var (
		s   store.Store
		err error
	)
	switch cfg.Backend {
	case config.BackendSQLite:
		s, err = sqlite.New(cfg.Path)
	case config.BackendLevelDB:
		s, err = leveldb.New(cfg.Path)
	case config.BackendMemory:
		s = memory.New()
	case config.BackendRedis:
		s, err = redis.New(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Timeout:  cfg.Redis.Timeout,
		})
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return store.WithQuota(s, cfg.QuotaBytes), nil
}
