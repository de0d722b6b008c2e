package engine

import (
	"errors"
	"fmt"
)

// ErrNoHandler is returned for data events on a loop built without a handler.
var ErrNoHandler = errors.New("engine: no handler configured")

// EventError wraps a failure to process one event.
type EventError struct {
	Type  EventType
	Table string
	Key   string
	Seq   int64
	Err   error
}

// Error implements the error interface.
func (e *EventError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s %s/%s (seq=%d): %v", e.Type, e.Table, e.Key, e.Seq, e.Err)
	}
	if e.Table != "" {
		return fmt.Sprintf("%s %s (seq=%d): %v", e.Type, e.Table, e.Seq, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Type, e.Err)
}

// Unwrap returns the underlying error.
func (e *EventError) Unwrap() error {
	return e.Err
}
