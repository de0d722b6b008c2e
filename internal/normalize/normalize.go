// Package normalize converts the host's array encoding into native sequences.
//
// The host serializes ordered lists as maps keyed "1", "2", ... . Both lists
// and dictionaries therefore arrive as ir.IRObject, and the only way to tell
// them apart is the shape of the keys. The classification is a predicate
// (ArrayLikeFunc) so callers needing stricter semantics can swap it in.
//
// Classification is evaluated independently at every nesting level: a
// dictionary may hold array-like children and vice versa.
package normalize

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/roach88/combomirror/internal/ir"
)

// ErrNotArrayLike is returned when a dense conversion is requested for a
// value the active predicate does not classify as array-like.
var ErrNotArrayLike = errors.New("value is not array-like")

// ArrayLikeFunc decides whether a value is an encoded list.
type ArrayLikeFunc func(v ir.IRValue) bool

// IsArrayLike is the default heuristic: v is an IRObject with at least one
// key, and every key parses as a base-10 integer.
//
// The empty object is NOT array-like.
func IsArrayLike(v ir.IRValue) bool {
	obj, ok := v.(ir.IRObject)
	if !ok || len(obj) == 0 {
		return false
	}
	for k := range obj {
		if _, err := strconv.ParseInt(k, 10, 64); err != nil {
			return false
		}
	}
	return true
}

// IsContiguousArrayLike is the strict predicate: the keys are exactly the
// canonical decimal strings "1" through "n".
func IsContiguousArrayLike(v ir.IRValue) bool {
	obj, ok := v.(ir.IRObject)
	if !ok || len(obj) == 0 {
		return false
	}
	for i := 1; i <= len(obj); i++ {
		if _, ok := obj[strconv.Itoa(i)]; !ok {
			return false
		}
	}
	return true
}

// Normalizer rewrites host values using one array-like predicate.
// The zero value uses IsArrayLike.
type Normalizer struct {
	ArrayLike ArrayLikeFunc
}

// Strict is a Normalizer that only converts contiguous 1..n keyed maps.
var Strict = Normalizer{ArrayLike: IsContiguousArrayLike}

func (n Normalizer) isArrayLike(v ir.IRValue) bool {
	if n.ArrayLike == nil {
		return IsArrayLike(v)
	}
	return n.ArrayLike(v)
}

// Deep recursively rewrites v:
//   - native arrays are mapped element-wise
//   - array-like objects become arrays of their deep-normalized elements
//   - other objects keep their keys and have every value deep-normalized
//   - scalars and null pass through unchanged
//
// The input is never modified.
func (n Normalizer) Deep(v ir.IRValue) ir.IRValue {
	switch val := v.(type) {
	case ir.IRArray:
		out := make(ir.IRArray, len(val))
		for i, elem := range val {
			out[i] = n.Deep(elem)
		}
		return out
	case ir.IRObject:
		if n.isArrayLike(val) {
			return ir.IRArray(denseElements(val, n.Deep))
		}
		out := make(ir.IRObject, len(val))
		for k, elem := range val {
			out[k] = n.Deep(elem)
		}
		return out
	default:
		return v
	}
}

// Dense converts one array-like value to a sequence without recursing.
func (n Normalizer) Dense(v ir.IRValue) (ir.IRArray, error) {
	obj, ok := v.(ir.IRObject)
	if !ok || !n.isArrayLike(v) {
		return nil, fmt.Errorf("dense: %w (%T)", ErrNotArrayLike, v)
	}
	return ir.IRArray(denseElements(obj, identity)), nil
}

// NormalizeDeep applies the default Normalizer.
func NormalizeDeep(v ir.IRValue) ir.IRValue {
	return Normalizer{}.Deep(v)
}

// ToDenseArray converts an array-like value using the default predicate.
func ToDenseArray(v ir.IRValue) (ir.IRArray, error) {
	return Normalizer{}.Dense(v)
}

// ToDenseArrayFunc converts an array-like value and maps every element.
//
// Elements are ordered by ascending numeric key. Gaps are NOT preserved: the
// result length is the number of keys, so {"1":a,"3":b} becomes [a, b].
func ToDenseArrayFunc[T any](v ir.IRValue, mapper func(ir.IRValue) T) ([]T, error) {
	obj, ok := v.(ir.IRObject)
	if !ok || !IsArrayLike(obj) {
		return nil, fmt.Errorf("dense: %w (%T)", ErrNotArrayLike, v)
	}
	return denseElements(obj, mapper), nil
}

type indexedKey struct {
	key string
	n   int64
}

// denseElements orders obj by numeric key. Callers have already checked that
// every key parses.
func denseElements[T any](obj ir.IRObject, mapper func(ir.IRValue) T) []T {
	keys := make([]indexedKey, 0, len(obj))
	for k := range obj {
		n, _ := strconv.ParseInt(k, 10, 64)
		keys = append(keys, indexedKey{key: k, n: n})
	}
	// "01" and "1" parse equal; the raw key breaks the tie deterministically.
	slices.SortFunc(keys, func(a, b indexedKey) int {
		switch {
		case a.n < b.n:
			return -1
		case a.n > b.n:
			return 1
		case a.key < b.key:
			return -1
		case a.key > b.key:
			return 1
		}
		return 0
	})

	out := make([]T, len(keys))
	for i, k := range keys {
		out[i] = mapper(obj[k.key])
	}
	return out
}

func identity(v ir.IRValue) ir.IRValue { return v }

// EncodeForeign is the inverse of NormalizeDeep: every native array, at any
// depth, becomes a map keyed "1".."n". The upstream uses it to publish values
// in the host encoding.
//
// Empty arrays encode as empty objects, which do not normalize back into
// arrays.
func EncodeForeign(v ir.IRValue) ir.IRValue {
	switch val := v.(type) {
	case ir.IRArray:
		out := make(ir.IRObject, len(val))
		for i, elem := range val {
			out[strconv.Itoa(i+1)] = EncodeForeign(elem)
		}
		return out
	case ir.IRObject:
		out := make(ir.IRObject, len(val))
		for k, elem := range val {
			out[k] = EncodeForeign(elem)
		}
		return out
	default:
		return v
	}
}
