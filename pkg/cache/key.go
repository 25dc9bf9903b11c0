package cache

import (
	"fmt"
	"strings"

	"github.com/michischmidt/crypto-tracker/pkg/fault"
)

// KeySeparator joins the parts of a cache key.
const KeySeparator = "-"

// DefaultNamespace prefixes every key when no namespace is configured.
const DefaultNamespace = "crypto-tracker"

// Key derives the store key "<namespace>-<domain>[-<param>...]".
//
// Params must be non-empty. Every param after the first must not contain
// the separator: the key can then be split from the right unambiguously,
// so distinct tuples never share a key while ids such as "usd-coin" stay
// usable in the first position.
func Key(namespace, domain string, params ...string) (string, error) {
	if namespace == "" || domain == "" {
		return "", fmt.Errorf("%w: empty namespace or domain", fault.ErrInvalidKey)
	}
	for i, p := range params {
		if p == "" {
			return "", fmt.Errorf("%w: parameter %d is empty", fault.ErrInvalidKey, i)
		}
		if i > 0 && strings.Contains(p, KeySeparator) {
			return "", fmt.Errorf("%w: parameter %q contains %q", fault.ErrInvalidKey, p, KeySeparator)
		}
	}

	parts := make([]string, 0, len(params)+2)
	parts = append(parts, namespace, domain)
	parts = append(parts, params...)
	return strings.Join(parts, KeySeparator), nil
}
