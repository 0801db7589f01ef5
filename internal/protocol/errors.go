package protocol

import (
	"errors"
	"fmt"

	"github.com/danmuck/sensorwire/internal/protocol/registry"
)

var (
	ErrMalformedHex        = errors.New("protocol: malformed hex")
	ErrPacketTooShort      = errors.New("protocol: packet too short")
	ErrUnknownTypeCode     = registry.ErrUnknownTypeCode
	ErrInvalidCount        = errors.New("protocol: invalid count")
	ErrPayloadSizeMismatch = errors.New("protocol: payload size mismatch")
	ErrValueKindMismatch   = errors.New("protocol: value kind mismatch")
	ErrValueOutOfRange     = errors.New("protocol: value out of range")
	ErrBuilderFull         = errors.New("protocol: builder full")
)

// MalformedHexError reports where textual input stopped being hex.
type MalformedHexError struct {
	Input  string
	Offset int
	Reason string
}

func (e *MalformedHexError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("protocol: malformed hex %q: %s", e.Input, e.Reason)
	}
	return fmt.Sprintf("protocol: malformed hex %q at offset %d: %s", e.Input, e.Offset, e.Reason)
}

func (e *MalformedHexError) Unwrap() error { return ErrMalformedHex }

type PacketTooShortError struct {
	Length int
}

func (e *PacketTooShortError) Error() string {
	return fmt.Sprintf("protocol: packet too short: %d bytes (minimum %d)", e.Length, HeaderSize)
}

func (e *PacketTooShortError) Unwrap() error { return ErrPacketTooShort }

type InvalidCountError struct {
	Count int
}

func (e *InvalidCountError) Error() string {
	return fmt.Sprintf("protocol: invalid count: %d (must be 1-%d)", e.Count, MaxCount)
}

func (e *InvalidCountError) Unwrap() error { return ErrInvalidCount }

// PayloadSizeMismatchError carries both lengths plus the header that
// produced the expectation.
type PayloadSizeMismatchError struct {
	Actual   int
	Expected int
	Type     registry.Element
	Count    int
}

func (e *PayloadSizeMismatchError) Error() string {
	return fmt.Sprintf("protocol: payload size mismatch: got %d bytes, expected %d bytes (type=%s, count=%d)",
		e.Actual, e.Expected, e.Type.Name, e.Count)
}

func (e *PayloadSizeMismatchError) Unwrap() error { return ErrPayloadSizeMismatch }

// ValueError reports a value the encoder cannot place in the payload.
type ValueError struct {
	Index int
	Value Value
	Type  registry.Element
	err   error
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%v: value[%d]=%s (%s) for type %s", e.err, e.Index, e.Value, e.Value.Kind, e.Type.Name)
}

func (e *ValueError) Unwrap() error { return e.err }

// BatchError identifies the input element a batch decode failed on.
type BatchError struct {
	Index int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("protocol: packet %d: %v", e.Index, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// ErrorKind maps err onto its taxonomy name. Unknown errors map to "other".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedHex):
		return "malformed_hex"
	case errors.Is(err, ErrPacketTooShort):
		return "packet_too_short"
	case errors.Is(err, ErrUnknownTypeCode):
		return "unknown_type_code"
	case errors.Is(err, ErrInvalidCount):
		return "invalid_count"
	case errors.Is(err, ErrPayloadSizeMismatch):
		return "payload_size_mismatch"
	case errors.Is(err, ErrValueKindMismatch):
		return "value_kind_mismatch"
	case errors.Is(err, ErrValueOutOfRange):
		return "value_out_of_range"
	case errors.Is(err, ErrBuilderFull):
		return "builder_full"
	default:
		return "other"
	}
}
