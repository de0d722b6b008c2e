package store

import (
	"fmt"

	"github.com/roach88/combomirror/internal/ir"
)

// marshalValue converts a value to canonical JSON TEXT for storage.
func marshalValue(v ir.IRValue) (string, error) {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("marshal value: %w", err)
	}
	return string(data), nil
}

// unmarshalValue parses stored TEXT. Integers beyond 2^53 survive because
// ir.DecodeValue reads numbers as json.Number.
func unmarshalValue(data string) (ir.IRValue, error) {
	v, err := ir.DecodeValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal value: %w", err)
	}
	return v, nil
}
