package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/danmuck/sensorwire/internal/protocol"
	"github.com/danmuck/sensorwire/internal/protocol/registry"
)

// Row is one packet read from a hex table. Line is the 1-based source line.
type Row struct {
	Line  int
	Bytes []byte
}

// ParseHexRow turns "01,66,01,ec" into packet bytes.
func ParseHexRow(line string) ([]byte, error) {
	return parseCells(strings.Split(strings.TrimSpace(line), ","), "", 0)
}

// ReadHexRows reads one packet per non-empty row. source is only used in
// error messages.
func ReadHexRows(r io.Reader, source string) ([]Row, error) {
	cr := newCSVReader(r)
	var rows []Row
	for {
		cells, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("tabular: read %s: %w", source, err)
		}
		line, _ := cr.FieldPos(0)
		if blankRow(cells) {
			continue
		}
		raw, err := parseCells(cells, source, line)
		if err != nil {
			return nil, err
		}
		rows = append(rows, Row{Line: line, Bytes: raw})
	}
}

// ReadRecordRows reads rows written by Writer.AppendRecords back into
// records. Record rows do not carry the type code, so the caller names it.
func ReadRecordRows(r io.Reader, code registry.Code, reg registry.Registry) ([]protocol.Record, error) {
	if reg == nil {
		reg = registry.Numeric
	}
	el, err := reg.Lookup(code)
	if err != nil {
		return nil, err
	}
	cr := newCSVReader(r)
	var recs []protocol.Record
	for {
		cells, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return recs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("tabular: read records: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if blankRow(cells) {
			continue
		}
		rec, err := parseRecordRow(cells, el)
		if err != nil {
			return nil, &RowError{Line: line, Err: err}
		}
		recs = append(recs, rec)
	}
}

func newCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseCells(cells []string, source string, row int) ([]byte, error) {
	out := make([]byte, len(cells))
	for i, cell := range cells {
		b, ok := parseByteCell(cell)
		if !ok {
			return nil, &InvalidByteValueError{Source: source, Row: row, Cell: i + 1, Value: cell}
		}
		out[i] = b
	}
	return out, nil
}

func parseByteCell(cell string) (byte, bool) {
	s := strings.TrimSpace(cell)
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	if len(s) < 1 || len(s) > 2 {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, false
	}
	return byte(v), true
}

func parseRecordRow(cells []string, el registry.Element) (protocol.Record, error) {
	addr, err := strconv.ParseUint(strings.TrimSpace(cells[0]), 10, 8)
	if err != nil {
		return protocol.Record{}, fmt.Errorf("address %q: %w", cells[0], err)
	}
	rec := protocol.Record{
		Address: uint8(addr),
		Type:    el.Code,
		Values:  make([]protocol.Value, 0, len(cells)-1),
	}
	bits := el.Width * 8
	for _, cell := range cells[1:] {
		s := strings.TrimSpace(cell)
		switch el.Kind {
		case registry.KindUint:
			v, err := strconv.ParseUint(s, 10, bits)
			if err != nil {
				return protocol.Record{}, fmt.Errorf("value %q: %w", s, err)
			}
			rec.Values = append(rec.Values, protocol.Uint(v))
		case registry.KindInt:
			v, err := strconv.ParseInt(s, 10, bits)
			if err != nil {
				return protocol.Record{}, fmt.Errorf("value %q: %w", s, err)
			}
			rec.Values = append(rec.Values, protocol.Int(v))
		default:
			v, err := strconv.ParseFloat(s, bits)
			if err != nil {
				return protocol.Record{}, fmt.Errorf("value %q: %w", s, err)
			}
			rec.Values = append(rec.Values, protocol.Float(v))
		}
	}
	return rec, nil
}
