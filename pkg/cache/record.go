package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/michischmidt/crypto-tracker/pkg/fault"
)

// DefaultMaxAge is how long a record counts as fresh unless overridden.
const DefaultMaxAge = time.Hour

// Record is a cached value together with the clock reading at write time.
type Record[T any] struct {
	Data      T     `json:"data"`
	Timestamp int64 `json:"timestamp"` // ms since epoch
}

// WrittenAt returns the write time as a time.Time.
func (r *Record[T]) WrittenAt() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// Codec serializes records to and from the store's string values.
type Codec[T any] struct {
	Now    func() time.Time
	Logger *slog.Logger
}

// wireRecord is used while decoding to detect missing fields.
type wireRecord struct {
	Data      json.RawMessage `json:"data"`
	Timestamp *int64          `json:"timestamp"`
}

// Encode wraps v with the current time and serializes it.
func (c Codec[T]) Encode(v T) (string, error) {
	b, err := json.Marshal(Record[T]{Data: v, Timestamp: c.now().UnixMilli()})
	if err != nil {
		return "", fmt.Errorf("encode cache record: %w", err)
	}
	return string(b), nil
}

// Decode parses raw into a record. It returns nil for an empty input and
// for anything that is not a well-formed record; the latter is logged.
func (c Codec[T]) Decode(raw string) *Record[T] {
	if raw == "" {
		return nil
	}
	rec, err := c.decode(raw)
	if err != nil {
		c.logger().Warn("discarding unreadable cache record", "error", &fault.DecodeError{Err: err})
		return nil
	}
	return rec
}

func (c Codec[T]) decode(raw string) (*Record[T], error) {
	var w wireRecord
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return nil, err
	}
	if w.Timestamp == nil {
		return nil, errors.New("missing timestamp")
	}
	if len(w.Data) == 0 {
		return nil, errors.New("missing data")
	}

	rec := &Record[T]{Timestamp: *w.Timestamp}
	if err := json.Unmarshal(w.Data, &rec.Data); err != nil {
		return nil, err
	}
	return rec, nil
}

func (c Codec[T]) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c Codec[T]) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

// IsValid reports whether rec was written less than maxAge before now.
// A record from the future (clock moved backwards) has a negative age and
// therefore counts as fresh.
func IsValid[T any](rec *Record[T], maxAge time.Duration, now time.Time) bool {
	if rec == nil {
		return false
	}
	return now.UnixMilli()-rec.Timestamp < maxAge.Milliseconds()
}
