package callcache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrNotCanonicalizable indicates an argument has no stable value
// representation (e.g. it contains a function or channel). This is a
// caller contract violation, not a cache miss.
var ErrNotCanonicalizable = errors.New("argument cannot be canonicalized")

// CallKey identifies a memoized call: a stable operation name plus the
// ordered arguments the call was made with.
type CallKey struct {
	// Operation is a qualified name for the wrapped call
	// (e.g., "vsphere.vm_info").
	Operation string

	// Args are the call arguments, in order. Each argument must be a plain
	// value: primitives, slices, or maps/structs with JSON-representable
	// fields. Stateful handles must be summarized first (see package doc).
	Args []any
}

// String generates a deterministic cache key string.
// Format: vcall:<operation>:<hex of SHA-256(canonical JSON of args)>
//
// Two calls with equal operation and value-equal arguments always produce
// the same key; unequal arguments produce different keys with overwhelming
// probability.
func (k CallKey) String() (string, error) {
	canonical, err := canonicalize(k.Args)
	if err != nil {
		return "", fmt.Errorf("canonicalize args for %q: %w", k.Operation, err)
	}

	sum := sha256.Sum256(canonical)
	return fmt.Sprintf("vcall:%s:%s", k.Operation, hex.EncodeToString(sum[:])), nil
}

// canonicalize produces a deterministic JSON representation of a value.
// Map keys are sorted recursively so iteration order never leaks into the key.
func canonicalize(v any) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}

	switch val := v.(type) {
	case map[string]any:
		return canonicalizeMap(val)
	case []any:
		return canonicalizeSlice(val)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotCanonicalizable, err)
		}
		return data, nil
	}
}

func canonicalizeMap(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := []byte("{")
	for i, k := range keys {
		if i > 0 {
			result = append(result, ',')
		}

		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotCanonicalizable, err)
		}
		result = append(result, keyBytes...)
		result = append(result, ':')

		valBytes, err := canonicalize(m[k])
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, '}')

	return result, nil
}

func canonicalizeSlice(s []any) ([]byte, error) {
	result := []byte("[")
	for i, v := range s {
		if i > 0 {
			result = append(result, ',')
		}

		valBytes, err := canonicalize(v)
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, ']')

	return result, nil
}
