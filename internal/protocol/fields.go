package protocol

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/danmuck/sensorwire/internal/protocol/registry"
)

// Value is one decoded element. Only the field matching Kind is set.
type Value struct {
	Kind  registry.Kind
	Uint  uint64
	Int   int64
	Float float64
}

// Uint creates an unsigned value.
func Uint(v uint64) Value { return Value{Kind: registry.KindUint, Uint: v} }

// Int creates a signed value.
func Int(v int64) Value { return Value{Kind: registry.KindInt, Int: v} }

// Float creates a floating point value.
func Float(v float64) Value { return Value{Kind: registry.KindFloat, Float: v} }

// Float64 returns the value widened to float64.
func (v Value) Float64() float64 {
	switch v.Kind {
	case registry.KindUint:
		return float64(v.Uint)
	case registry.KindInt:
		return float64(v.Int)
	default:
		return v.Float
	}
}

func (v Value) String() string {
	switch v.Kind {
	case registry.KindUint:
		return strconv.FormatUint(v.Uint, 10)
	case registry.KindInt:
		return strconv.FormatInt(v.Int, 10)
	case registry.KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	default:
		return "?"
	}
}

// decodeElement reads one element of el.Width bytes from b.
func decodeElement(b []byte, el registry.Element, order binary.ByteOrder) Value {
	var u uint64
	switch el.Width {
	case 1:
		u = uint64(b[0])
	case 2:
		u = uint64(order.Uint16(b))
	case 4:
		u = uint64(order.Uint32(b))
	case 8:
		u = order.Uint64(b)
	}
	switch el.Kind {
	case registry.KindInt:
		shift := uint(64 - 8*el.Width)
		return Int(int64(u<<shift) >> shift)
	case registry.KindFloat:
		if el.Width == 4 {
			return Float(float64(math.Float32frombits(uint32(u))))
		}
		return Float(math.Float64frombits(u))
	default:
		return Uint(u)
	}
}

// encodeElement writes v into b, which is el.Width bytes long.
func encodeElement(b []byte, v Value, el registry.Element, order binary.ByteOrder) error {
	if v.Kind != el.Kind {
		return ErrValueKindMismatch
	}
	var u uint64
	bits := uint(8 * el.Width)
	switch el.Kind {
	case registry.KindUint:
		if bits < 64 && v.Uint>>bits != 0 {
			return ErrValueOutOfRange
		}
		u = v.Uint
	case registry.KindInt:
		if bits < 64 {
			lo, hi := -int64(1)<<(bits-1), int64(1)<<(bits-1)-1
			if v.Int < lo || v.Int > hi {
				return ErrValueOutOfRange
			}
		}
		u = uint64(v.Int)
	case registry.KindFloat:
		if el.Width == 4 {
			if !math.IsInf(v.Float, 0) && !math.IsNaN(v.Float) && math.Abs(v.Float) > math.MaxFloat32 {
				return ErrValueOutOfRange
			}
			u = uint64(math.Float32bits(float32(v.Float)))
		} else {
			u = math.Float64bits(v.Float)
		}
	}
	switch el.Width {
	case 1:
		b[0] = byte(u)
	case 2:
		order.PutUint16(b, uint16(u))
	case 4:
		order.PutUint32(b, uint32(u))
	case 8:
		order.PutUint64(b, u)
	}
	return nil
}
