package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGetDelete(t *testing.T) {
	s := New()

	_, ok, err := s.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("a", "1"))
	require.NoError(t, s.Set("a", "2"))
	v, ok, err := s.Get("a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2", v)

	require.NoError(t, s.Delete("a"))
	require.NoError(t, s.Delete("a"))
	_, ok, _ = s.Get("a")
	assert.False(t, ok)
}

func TestKeys(t *testing.T) {
	s := New()
	_ = s.Set("crypto-tracker-symbols", "x")
	_ = s.Set("crypto-tracker-market-data-bitcoin-1W", "x")
	_ = s.Set("other", "x")

	keys, err := s.Keys("crypto-tracker-")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"crypto-tracker-market-data-bitcoin-1W",
		"crypto-tracker-symbols",
	}, keys)
}
