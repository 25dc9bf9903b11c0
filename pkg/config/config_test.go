package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Namespace != "crypto-tracker" {
		t.Errorf("expected crypto-tracker, got %s", cfg.Namespace)
	}
	if cfg.Cache.MaxAge != time.Hour {
		t.Errorf("expected 1h max age, got %v", cfg.Cache.MaxAge)
	}
	if cfg.Store.Backend != BackendSQLite {
		t.Errorf("expected sqlite backend, got %s", cfg.Store.Backend)
	}
	if cfg.Store.QuotaBytes != 5<<20 {
		t.Errorf("expected 5MiB quota, got %d", cfg.Store.QuotaBytes)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_CG_KEY", "CG-test-123")

	path := writeConfig(t, `
namespace: tracker-test
listen: ":9090"
log:
  level: debug
  format: json
cache:
  max_age: 30m
  coalesce: true
store:
  backend: leveldb
  path: /tmp/tracker-ldb
  quota_bytes: 1024
coingecko:
  api_key: ${TEST_CG_KEY}
  timeout: 3s
  rate_limit: 2
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Namespace != "tracker-test" {
		t.Errorf("expected tracker-test, got %s", cfg.Namespace)
	}
	if cfg.Listen != ":9090" {
		t.Errorf("expected :9090, got %s", cfg.Listen)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("expected json log format, got %s", cfg.Log.Format)
	}
	if cfg.Cache.MaxAge != 30*time.Minute {
		t.Errorf("expected 30m max age, got %v", cfg.Cache.MaxAge)
	}
	if !cfg.Cache.Coalesce {
		t.Error("expected coalesce enabled")
	}
	if cfg.Store.Backend != BackendLevelDB || cfg.Store.QuotaBytes != 1024 {
		t.Errorf("unexpected store config: %+v", cfg.Store)
	}
	if cfg.CoinGecko.APIKey != "CG-test-123" {
		t.Errorf("env var not expanded: %s", cfg.CoinGecko.APIKey)
	}
	if cfg.CoinGecko.Timeout != 3*time.Second || cfg.CoinGecko.RateLimit != 2 {
		t.Errorf("unexpected coingecko config: %+v", cfg.CoinGecko)
	}
	// Untouched fields keep their defaults
	if cfg.CoinGecko.BaseURL != "https://api.coingecko.com/api/v3" {
		t.Errorf("unexpected base url: %s", cfg.CoinGecko.BaseURL)
	}
	if cfg.CoinGecko.VsCurrency != "usd" {
		t.Errorf("expected usd, got %s", cfg.CoinGecko.VsCurrency)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}

	cfg, err := LoadOrDefault("/nonexistent/config.yaml", true)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("expected defaults, got %+v", cfg)
	}

	if _, err := LoadOrDefault("/nonexistent/config.yaml", false); err == nil {
		t.Error("expected error when missing file is not allowed")
	}
}

func TestLoadInvalid(t *testing.T) {
	cases := map[string]string{
		"bad yaml":        "cache: [",
		"unknown backend": "store:\n  backend: etcd\n",
		"zero max age":    "cache:\n  max_age: 0s\n",
		"empty namespace": "namespace: \"\"\n",
		"redis no addr":   "store:\n  backend: redis\n  redis:\n    addr: \"\"\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
