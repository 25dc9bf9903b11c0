package models

import "time"

// CacheEntry describes a stored cache record without decoding its payload.
type CacheEntry struct {
	Key       string    `json:"key"`
	Size      int       `json:"size"`
	WrittenAt time.Time `json:"written_at"`
	Fresh     bool      `json:"fresh"`
}

// CacheStats reports cache performance metrics.
type CacheStats struct {
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	WriteFailures int64 `json:"write_failures"`
}

// LoaderStats counts the terminal states reached by a fallback loader.
type LoaderStats struct {
	Hits      int64 `json:"hits"`
	Fetches   int64 `json:"fetches"`
	Fallbacks int64 `json:"fallbacks"`
	Failures  int64 `json:"failures"`
}
