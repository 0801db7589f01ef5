package protocol

import (
	"github.com/danmuck/sensorwire/internal/protocol/registry"
)

// Decoder turns raw packets into records. It holds only read-only
// configuration and is safe for concurrent use.
type Decoder struct {
	opts Options
}

func NewDecoder(opts Options) *Decoder {
	return &Decoder{opts: opts.withDefaults()}
}

var defaultDecoder = NewDecoder(DefaultOptions())

// Decode decodes raw with DefaultOptions.
func Decode(raw []byte) (Record, error) {
	return defaultDecoder.Decode(raw)
}

// DecodeHex decodes a hex string with DefaultOptions.
func DecodeHex(s string) (Record, error) {
	return defaultDecoder.DecodeHex(s)
}

func (d *Decoder) Options() Options { return d.opts }

// DecodeHex converts s with ParseHex and decodes the result.
func (d *Decoder) DecodeHex(s string) (Record, error) {
	raw, err := ParseHex(s)
	if err != nil {
		return Record{}, err
	}
	return d.Decode(raw)
}

// Decode parses one complete packet. It never returns a partially
// populated record.
func (d *Decoder) Decode(raw []byte) (Record, error) {
	head, el, err := d.parseHeader(raw)
	if err != nil {
		return Record{}, err
	}

	payload := raw[HeaderSize:]
	count := int(head.Count)
	expected := count * el.Width
	if len(payload) != expected {
		return Record{}, &PayloadSizeMismatchError{
			Actual:   len(payload),
			Expected: expected,
			Type:     el,
			Count:    count,
		}
	}

	values := make([]Value, count)
	for i := range values {
		off := i * el.Width
		values[i] = decodeElement(payload[off:off+el.Width], el, d.opts.ByteOrder)
	}
	return Record{Address: head.Address, Type: head.Type, Values: values}, nil
}

// DecodeHeader validates and returns the header of raw without touching
// the payload.
func (d *Decoder) DecodeHeader(raw []byte) (Header, registry.Element, error) {
	return d.parseHeader(raw)
}

func (d *Decoder) parseHeader(raw []byte) (Header, registry.Element, error) {
	if len(raw) < HeaderSize {
		return Header{}, registry.Element{}, &PacketTooShortError{Length: len(raw)}
	}
	h := Header{
		Address: raw[0],
		Type:    registry.Code(raw[1]),
		Count:   raw[2],
	}
	el, err := d.opts.Registry.Lookup(h.Type)
	if err != nil {
		return Header{}, registry.Element{}, err
	}
	if h.Count == 0 && d.opts.RequireNonzeroCount {
		return Header{}, registry.Element{}, &InvalidCountError{Count: 0}
	}
	return h, el, nil
}
