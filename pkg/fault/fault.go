// Package fault defines the typed errors shared by the cache, the
// provider client and the fallback loader.
//
// Storage errors (StoreWriteError, StoreReadError, DecodeError) never leave
// the cache layer; they are logged and absorbed. NetworkError and ParseError
// are the only kinds a caller ever sees.
package fault

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidKey is returned when cache key parameters are empty or would
	// make the key ambiguous.
	ErrInvalidKey = errors.New("invalid cache key")
	// ErrUnknownPeriod is returned for a time period outside the closed set.
	ErrUnknownPeriod = errors.New("unknown time period")
)

// StoreWriteError reports that the persistent store rejected a write.
type StoreWriteError struct {
	Key string
	Err error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("store write %q: %v", e.Key, e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }

// StoreReadError reports that the persistent store failed to read a key.
type StoreReadError struct {
	Key string
	Err error
}

func (e *StoreReadError) Error() string {
	return fmt.Sprintf("store read %q: %v", e.Key, e.Err)
}

func (e *StoreReadError) Unwrap() error { return e.Err }

// DecodeError reports a corrupt or structurally invalid cache record.
type DecodeError struct {
	Key string
	Err error
}

func (e *DecodeError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("decode cache record: %v", e.Err)
	}
	return fmt.Sprintf("decode cache record %q: %v", e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// NetworkError reports a failed fetch with no usable cached fallback.
type NetworkError struct {
	Key string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("fetch %q: %v", e.Key, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError reports a provider payload that did not match the expected shape.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsNetwork reports whether err is, or wraps, a NetworkError.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsParse reports whether err is, or wraps, a ParseError.
func IsParse(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
