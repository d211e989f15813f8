// Package normalization maps loosely written names onto enum values.
package normalization

import (
	"sort"
	"strings"
)

// Normalizer provides type-safe string-to-enum lookups. Keys are compared
// after trimming, lowercasing and replacing '-' with '_'.
type Normalizer[T comparable] struct {
	validValues map[string]T
	validKeys   []string // Cached for error messages
}

// NewNormalizer creates a normalizer with a map of valid string->value pairs.
func NewNormalizer[T comparable](values map[string]T) *Normalizer[T] {
	normalized := make(map[string]T, len(values))
	validKeys := make([]string, 0, len(values))
	for k, v := range values {
		key := Key(k)
		normalized[key] = v
		validKeys = append(validKeys, key)
	}
	sort.Strings(validKeys)

	return &Normalizer[T]{validValues: normalized, validKeys: validKeys}
}

// Key is the canonical form raw is compared in.
func Key(raw string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_")
}

// Lookup returns the value registered for raw.
func (n *Normalizer[T]) Lookup(raw string) (T, bool) {
	v, ok := n.validValues[Key(raw)]
	return v, ok
}

// ValidKeys returns all valid keys, sorted, for documentation and errors.
func (n *Normalizer[T]) ValidKeys() []string {
	out := make([]string, len(n.validKeys))
	copy(out, n.validKeys)
	return out
}
