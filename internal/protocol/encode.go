package protocol

import (
	"github.com/danmuck/sensorwire/internal/protocol/registry"
)

// Encode serializes rec using the decoder's registry and byte order. It is
// the inverse of Decode: Decode(Encode(rec)) yields rec.
func (d *Decoder) Encode(rec Record) ([]byte, error) {
	el, err := d.opts.Registry.Lookup(rec.Type)
	if err != nil {
		return nil, err
	}
	count := len(rec.Values)
	if count > MaxCount || (count == 0 && d.opts.RequireNonzeroCount) {
		return nil, &InvalidCountError{Count: count}
	}

	buf := make([]byte, HeaderSize+count*el.Width)
	buf[0] = rec.Address
	buf[1] = byte(rec.Type)
	buf[2] = byte(count)
	for i, v := range rec.Values {
		off := HeaderSize + i*el.Width
		if err := encodeElement(buf[off:off+el.Width], v, el, d.opts.ByteOrder); err != nil {
			return nil, &ValueError{Index: i, Value: v, Type: el, err: err}
		}
	}
	return buf, nil
}

// Builder assembles one packet value by value, the way the MCU side does:
// declare the header, add exactly count values, then serialize.
type Builder struct {
	dec     *Decoder
	el      registry.Element
	head    Header
	payload []byte
	added   int
}

func NewBuilder(dec *Decoder, address uint8, code registry.Code, count int) (*Builder, error) {
	if dec == nil {
		dec = defaultDecoder
	}
	el, err := dec.opts.Registry.Lookup(code)
	if err != nil {
		return nil, err
	}
	if count < 0 || count > MaxCount || (count == 0 && dec.opts.RequireNonzeroCount) {
		return nil, &InvalidCountError{Count: count}
	}
	return &Builder{
		dec:     dec,
		el:      el,
		head:    Header{Address: address, Type: code, Count: uint8(count)},
		payload: make([]byte, count*el.Width),
	}, nil
}

// Add appends one value. It fails once Count values are present.
func (b *Builder) Add(v Value) error {
	if b.added >= int(b.head.Count) {
		return ErrBuilderFull
	}
	off := b.added * b.el.Width
	if err := encodeElement(b.payload[off:off+b.el.Width], v, b.el, b.dec.opts.ByteOrder); err != nil {
		return &ValueError{Index: b.added, Value: v, Type: b.el, err: err}
	}
	b.added++
	return nil
}

func (b *Builder) Len() int { return b.added }

// Bytes returns the serialized packet once every declared value was added.
func (b *Builder) Bytes() ([]byte, error) {
	if b.added != int(b.head.Count) {
		return nil, &PayloadSizeMismatchError{
			Actual:   b.added * b.el.Width,
			Expected: len(b.payload),
			Type:     b.el,
			Count:    int(b.head.Count),
		}
	}
	out := make([]byte, HeaderSize+len(b.payload))
	out[0] = b.head.Address
	out[1] = byte(b.head.Type)
	out[2] = b.head.Count
	copy(out[HeaderSize:], b.payload)
	return out, nil
}
