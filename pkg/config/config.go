package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/michischmidt/crypto-tracker/pkg/cache"
	"github.com/michischmidt/crypto-tracker/pkg/coingecko"
	"github.com/michischmidt/crypto-tracker/pkg/store"
)

// Store backends.
const (
	BackendSQLite  = "sqlite"
	BackendLevelDB = "leveldb"
	BackendMemory  = "memory"
	BackendRedis   = "redis"
)

// Config holds all tracker configuration.
type Config struct {
	Namespace string          `yaml:"namespace"`
	Listen    string          `yaml:"listen"`
	Log       LogConfig       `yaml:"log"`
	Cache     CacheConfig     `yaml:"cache"`
	Store     StoreConfig     `yaml:"store"`
	CoinGecko CoinGeckoConfig `yaml:"coingecko"`
}

// LogConfig controls the structured logger.
// Format is "text" (default) or "json".
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CacheConfig controls freshness and fetch coalescing.
type CacheConfig struct {
	MaxAge   time.Duration `yaml:"max_age"`
	Coalesce bool          `yaml:"coalesce"`
}

// StoreConfig selects and configures the persistent store.
type StoreConfig struct {
	Backend    string      `yaml:"backend"`
	Path       string      `yaml:"path"`
	QuotaBytes int64       `yaml:"quota_bytes"`
	Redis      RedisConfig `yaml:"redis"`
}

// RedisConfig is used when Backend is "redis".
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Timeout  time.Duration `yaml:"timeout"`
}

// CoinGeckoConfig defines the upstream market-data provider.
type CoinGeckoConfig struct {
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	VsCurrency string        `yaml:"vs_currency"`
	Timeout    time.Duration `yaml:"timeout"`
	RateLimit  float64       `yaml:"rate_limit"`
	Burst      int           `yaml:"burst"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Namespace: cache.DefaultNamespace,
		Listen:    ":8080",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Cache: CacheConfig{
			MaxAge: cache.DefaultMaxAge,
		},
		Store: StoreConfig{
			Backend:    BackendSQLite,
			Path:       "crypto-tracker.db",
			QuotaBytes: store.DefaultQuota,
			Redis: RedisConfig{
				Addr:    "localhost:6379",
				Timeout: 2 * time.Second,
			},
		},
		CoinGecko: CoinGeckoConfig{
			BaseURL:    coingecko.DefaultBaseURL,
			VsCurrency: "usd",
			Timeout:    10 * time.Second,
			RateLimit:  0.5,
			Burst:      1,
		},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load, except that a missing file yields the
// defaults when allowMissing is set.
func LoadOrDefault(path string, allowMissing bool) (*Config, error) {
	cfg, err := Load(path)
	if err != nil && allowMissing && errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if c.Namespace == "" {
		return errors.New("config: namespace must not be empty")
	}
	if c.Cache.MaxAge <= 0 {
		return fmt.Errorf("config: cache.max_age must be positive, got %v", c.Cache.MaxAge)
	}
	switch c.Store.Backend {
	case BackendSQLite, BackendLevelDB:
		if c.Store.Path == "" {
			return fmt.Errorf("config: store.path is required for %s", c.Store.Backend)
		}
	case BackendMemory:
	case BackendRedis:
		if c.Store.Redis.Addr == "" {
			return errors.New("config: store.redis.addr is required")
		}
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	if c.CoinGecko.BaseURL == "" {
		return errors.New("config: coingecko.base_url must not be empty")
	}
	return nil
}
