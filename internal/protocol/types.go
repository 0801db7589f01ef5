package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/danmuck/sensorwire/internal/protocol/registry"
)

const (
	// HeaderSize is address + type code + count.
	HeaderSize = 3
	MaxCount   = 255
)

// Header is the fixed three-byte packet header.
type Header struct {
	Address uint8
	Type    registry.Code
	Count   uint8
}

// Record is one decoded packet. Decode allocates Values per call, so a
// Record shares no memory with the input or with other records.
type Record struct {
	Address uint8
	Type    registry.Code
	Values  []Value
}

func (r Record) Count() int { return len(r.Values) }

// Equal compares address, type and values. Float values match within
// epsilon; integers must match exactly.
func (r Record) Equal(other Record, epsilon float64) bool {
	if r.Address != other.Address || r.Type != other.Type || len(r.Values) != len(other.Values) {
		return false
	}
	for i := range r.Values {
		a, b := r.Values[i], other.Values[i]
		if a.Kind != b.Kind {
			return false
		}
		switch a.Kind {
		case registry.KindFloat:
			if a.Float != b.Float && math.Abs(a.Float-b.Float) > epsilon {
				return false
			}
		default:
			if a != b {
				return false
			}
		}
	}
	return true
}

func (r Record) String() string {
	parts := make([]string, len(r.Values))
	for i, v := range r.Values {
		parts[i] = v.String()
	}
	return fmt.Sprintf("Record{address=%d type=%s values=[%s]}", r.Address, r.Type, strings.Join(parts, " "))
}

// Options selects the registry, the count policy and the element byte order.
type Options struct {
	Registry registry.Registry
	// RequireNonzeroCount rejects count == 0. The numeric scheme requires at
	// least one value; the tag scheme permits empty packets.
	RequireNonzeroCount bool
	ByteOrder           binary.ByteOrder
}

// DefaultOptions is the numeric-code scheme as emitted by the MCU packetizer.
func DefaultOptions() Options {
	return Options{
		Registry:            registry.Numeric,
		RequireNonzeroCount: true,
		ByteOrder:           binary.LittleEndian,
	}
}

// TagOptions is the character-tag scheme.
func TagOptions() Options {
	return Options{
		Registry:            registry.Tags,
		RequireNonzeroCount: false,
		ByteOrder:           binary.LittleEndian,
	}
}

func (o Options) withDefaults() Options {
	if o.Registry == nil {
		o.Registry = registry.Numeric
	}
	if o.ByteOrder == nil {
		o.ByteOrder = binary.LittleEndian
	}
	return o
}
