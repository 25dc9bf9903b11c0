package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michischmidt/crypto-tracker/pkg/config"
	"github.com/michischmidt/crypto-tracker/pkg/store"
)

func TestOpenStoreBackends(t *testing.T) {
	dir := t.TempDir()
	for _, cfg := range []config.StoreConfig{
		{Backend: config.BackendSQLite, Path: filepath.Join(dir, "tracker.db"), QuotaBytes: 1024},
		{Backend: config.BackendLevelDB, Path: filepath.Join(dir, "ldb"), QuotaBytes: 1024},
		{Backend: config.BackendMemory},
	} {
		t.Run(cfg.Backend, func(t *testing.T) {
			s, err := openStore(context.Background(), cfg)
			require.NoError(t, err)
			defer s.Close()

			require.NoError(t, s.Set("crypto-tracker-symbols", "v"))
			v, ok, err := s.Get("crypto-tracker-symbols")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "v", v)

			_, quota := s.(*store.Quota)
			assert.Equal(t, cfg.QuotaBytes > 0, quota)
		})
	}
}

func TestOpenStoreUnknown(t *testing.T) {
	_, err := openStore(context.Background(), config.StoreConfig{Backend: "etcd"})
	assert.Error(t, err)
}

func TestNewAppConfigHandling(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tracker.yaml")
	content := "namespace: cli-test\nstore:\n  backend: memory\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	a, err := newApp(context.Background(), path)
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, "cli-test", a.cfg.Namespace)
	assert.Equal(t, "cli-test-symbols", a.svc.SymbolsKey())

	entries, err := a.entries()
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = newApp(context.Background(), filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err, "an explicit config path must exist")
}

func TestCacheClearKeepsOtherNamespaces(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "tracker.db")
	path := filepath.Join(dir, "tracker.yaml")
	content := fmt.Sprintf("namespace: crypto-tracker\nstore:\n  backend: sqlite\n  path: %s\nlog:\n  level: error\n", dbPath)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	storeCfg := config.StoreConfig{Backend: config.BackendSQLite, Path: dbPath}
	s, err := openStore(context.Background(), storeCfg)
	require.NoError(t, err)
	for _, k := range []string{
		"crypto-tracker-symbols",
		"crypto-tracker-market-data-bitcoin-1W",
		"crypto-tracker-dev-symbols",
		"crypto-tracker-dev-market-data-bitcoin-1W",
	} {
		require.NoError(t, s.Set(k, `{"data":[],"timestamp":0}`))
	}
	require.NoError(t, s.Close())

	cmd := newCacheCmd(&path)
	cmd.SetArgs([]string{"clear"})
	require.NoError(t, cmd.Execute())

	s, err = openStore(context.Background(), storeCfg)
	require.NoError(t, err)
	defer s.Close()
	keys, err := s.Keys("")
	require.NoError(t, err)
	assert.Equal(t, []string{"crypto-tracker-dev-market-data-bitcoin-1W", "crypto-tracker-dev-symbols"}, keys)
}
