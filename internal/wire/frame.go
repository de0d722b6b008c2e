package wire

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/combomirror/internal/ir"
)

// FrameType discriminates frames.
type FrameType string

const (
	FrameSubscribe FrameType = "subscribe"
	FrameReload    FrameType = "reload"
	FrameHello     FrameType = "hello"
	FrameSnapshot  FrameType = "snapshot"
	FrameChange    FrameType = "change"
)

// Frame is the union of every message shape. Unused fields are omitted.
type Frame struct {
	Type    FrameType                  `json:"type"`
	Session string                     `json:"session,omitempty"`
	Table   string                     `json:"table,omitempty"`
	Key     string                     `json:"key,omitempty"`
	Value   json.RawMessage            `json:"value,omitempty"`
	Entries map[string]json.RawMessage `json:"entries,omitempty"`
	Seq     int64                      `json:"seq,omitempty"`
}

// ProtocolErrorCode categorizes protocol errors.
type ProtocolErrorCode string

const (
	// ErrCodeMalformedFrame indicates a message that is not a JSON frame.
	ErrCodeMalformedFrame ProtocolErrorCode = "MALFORMED_FRAME"

	// ErrCodeUnknownFrame indicates a frame type the receiver does not handle.
	ErrCodeUnknownFrame ProtocolErrorCode = "UNKNOWN_FRAME"

	// ErrCodeMissingField indicates a frame without a required field.
	ErrCodeMissingField ProtocolErrorCode = "MISSING_FIELD"

	// ErrCodeBadValue indicates a value that is not valid host JSON.
	ErrCodeBadValue ProtocolErrorCode = "BAD_VALUE"
)

// ProtocolError reports a frame the receiver could not use. Receivers log
// protocol errors and keep reading.
type ProtocolError struct {
	Code    ProtocolErrorCode
	Frame   FrameType
	Message string
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	if e.Frame != "" {
		return fmt.Sprintf("%s: %s (frame=%s)", e.Code, e.Message, e.Frame)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func decodeFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, &ProtocolError{Code: ErrCodeMalformedFrame, Message: err.Error()}
	}
	if f.Type == "" {
		return Frame{}, &ProtocolError{Code: ErrCodeMissingField, Message: "frame has no type"}
	}
	return f, nil
}

func unknownFrame(f Frame) error {
	return &ProtocolError{Code: ErrCodeUnknownFrame, Frame: f.Type, Message: "unexpected frame type"}
}

func requireTable(f Frame) error {
	if f.Table == "" {
		return &ProtocolError{Code: ErrCodeMissingField, Frame: f.Type, Message: "table is required"}
	}
	return nil
}

// encodeValue renders v as canonical JSON. nil encodes as null.
func encodeValue(v ir.IRValue) (json.RawMessage, error) {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// decodeValue parses a frame value. An absent value decodes as ir.IRNull.
func decodeValue(f Frame, raw json.RawMessage) (ir.IRValue, error) {
	if len(raw) == 0 {
		return ir.IRNull{}, nil
	}
	v, err := ir.DecodeValue(raw)
	if err != nil {
		return nil, &ProtocolError{Code: ErrCodeBadValue, Frame: f.Type, Message: err.Error()}
	}
	return v, nil
}

func changeFrame(table, key string, value ir.IRValue, seq int64) (Frame, error) {
	raw, err := encodeValue(value)
	if err != nil {
		return Frame{}, fmt.Errorf("encode %s/%s: %w", table, key, err)
	}
	return Frame{Type: FrameChange, Table: table, Key: key, Value: raw, Seq: seq}, nil
}

func snapshotFrame(table string, entries map[string]ir.IRValue) (Frame, error) {
	raw := make(map[string]json.RawMessage, len(entries))
	for k, v := range entries {
		data, err := encodeValue(v)
		if err != nil {
			return Frame{}, fmt.Errorf("encode %s/%s: %w", table, k, err)
		}
		raw[k] = data
	}
	return Frame{Type: FrameSnapshot, Table: table, Entries: raw}, nil
}
