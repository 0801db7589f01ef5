// Package registry owns the element type tables used by the packet decoder.
//
// Two schemes exist on the wire:
// - numeric: fixed one-byte codes emitted by the MCU packetizer
// - tag: single-character format tags sized by the standard struct table
//
// Both are read-only and satisfy Registry, so decoder call sites pick one
// without knowing which.
package registry

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Code identifies the element type of a packet payload.
type Code uint8

func (c Code) String() string {
	return fmt.Sprintf("0x%02X", uint8(c))
}

// Kind is the numeric interpretation of an element.
type Kind uint8

const (
	KindUint Kind = iota + 1
	KindInt
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindUint:
		return "uint"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Element describes one registered element type.
type Element struct {
	Code  Code
	Name  string
	Width int
	Kind  Kind
}

// Registry resolves type codes to element widths and decoding rules.
type Registry interface {
	Name() string
	WidthOf(code Code) (int, error)
	Lookup(code Code) (Element, error)
}

var ErrUnknownTypeCode = errors.New("registry: unknown type code")

// UnknownTypeCodeError carries the code that failed to resolve.
type UnknownTypeCodeError struct {
	Scheme string
	Code   Code
}

func (e *UnknownTypeCodeError) Error() string {
	return fmt.Sprintf("registry: unknown %s type code %s", e.Scheme, e.Code)
}

func (e *UnknownTypeCodeError) Unwrap() error {
	return ErrUnknownTypeCode
}

// Table is an immutable code -> element mapping.
type Table struct {
	name     string
	elements map[Code]Element
}

func newTable(name string, elements ...Element) *Table {
	t := &Table{name: name, elements: make(map[Code]Element, len(elements))}
	for _, el := range elements {
		if el.Width < 1 {
			panic(fmt.Sprintf("registry: %s element %s has width %d", name, el.Code, el.Width))
		}
		if _, dup := t.elements[el.Code]; dup {
			panic(fmt.Sprintf("registry: %s element %s registered twice", name, el.Code))
		}
		t.elements[el.Code] = el
	}
	return t
}

func (t *Table) Name() string { return t.name }

func (t *Table) Lookup(code Code) (Element, error) {
	el, ok := t.elements[code]
	if !ok {
		return Element{}, &UnknownTypeCodeError{Scheme: t.name, Code: code}
	}
	return el, nil
}

func (t *Table) WidthOf(code Code) (int, error) {
	el, err := t.Lookup(code)
	if err != nil {
		return 0, err
	}
	return el.Width, nil
}

// Codes returns the registered codes in ascending order.
func (t *Table) Codes() []Code {
	out := make([]Code, 0, len(t.elements))
	for c := 0; c <= 0xFF; c++ {
		if _, ok := t.elements[Code(c)]; ok {
			out = append(out, Code(c))
		}
	}
	return out
}

// Numeric type codes from the MCU packetizer.
const (
	CodeInt    Code = 0x01
	CodeFloat  Code = 0x02
	CodeDouble Code = 0x03
)

// Numeric is the fixed numeric-code scheme.
var Numeric = newTable("numeric",
	Element{Code: CodeInt, Name: "int8", Width: 1, Kind: KindUint},
	Element{Code: CodeFloat, Name: "float32", Width: 4, Kind: KindFloat},
	Element{Code: CodeDouble, Name: "float64", Width: 8, Kind: KindFloat},
)

// Tags is the character-tag scheme. The code is the ASCII byte of the tag.
var Tags = newTable("tag",
	Element{Code: 'b', Name: "int8", Width: 1, Kind: KindInt},
	Element{Code: 'B', Name: "uint8", Width: 1, Kind: KindUint},
	Element{Code: 'h', Name: "int16", Width: 2, Kind: KindInt},
	Element{Code: 'H', Name: "uint16", Width: 2, Kind: KindUint},
	Element{Code: 'i', Name: "int32", Width: 4, Kind: KindInt},
	Element{Code: 'I', Name: "uint32", Width: 4, Kind: KindUint},
	Element{Code: 'l', Name: "int32", Width: 4, Kind: KindInt},
	Element{Code: 'L', Name: "uint32", Width: 4, Kind: KindUint},
	Element{Code: 'q', Name: "int64", Width: 8, Kind: KindInt},
	Element{Code: 'Q', Name: "uint64", Width: 8, Kind: KindUint},
	Element{Code: 'f', Name: "float32", Width: 4, Kind: KindFloat},
	Element{Code: 'd', Name: "float64", Width: 8, Kind: KindFloat},
)

// ByName selects a registry from its configured scheme name.
func ByName(name string) (Registry, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "numeric", "enum":
		return Numeric, nil
	case "tag", "tags", "char":
		return Tags, nil
	default:
		return nil, fmt.Errorf("registry: unknown scheme %q", name)
	}
}

// ParseCode reads a type code from text: a single character is taken as a
// tag, anything else as a decimal or 0x-prefixed hex number.
func ParseCode(raw string) (Code, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) == 1 && !isDigit(raw[0]) {
		return Code(raw[0]), nil
	}
	v, err := strconv.ParseUint(raw, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("registry: invalid type code %q", raw)
	}
	return Code(v), nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
