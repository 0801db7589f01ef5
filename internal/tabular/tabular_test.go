package tabular

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/sensorwire/internal/protocol"
	"github.com/danmuck/sensorwire/internal/protocol/registry"
	"github.com/danmuck/sensorwire/internal/testutil/testlog"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestParseHexRowTagFloat(t *testing.T) {
	raw, err := ParseHexRow("01,66,01,ec,51,b8,1e")
	if err != nil {
		t.Fatalf("parse row: %v", err)
	}
	rec, err := protocol.NewDecoder(protocol.TagOptions()).Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := float64(math.Float32frombits(0x1eb851ec))
	if rec.Type != 'f' || rec.Count() != 1 || rec.Values[0].Float != want {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestParseHexRowAcceptsShortAndPrefixedCells(t *testing.T) {
	raw, err := ParseHexRow(" 1, 0x01 ,A")
	if err != nil {
		t.Fatalf("parse row: %v", err)
	}
	if !bytes.Equal(raw, []byte{0x01, 0x01, 0x0a}) {
		t.Fatalf("unexpected bytes % x", raw)
	}
}

func TestParseHexRowRejectsBadCell(t *testing.T) {
	for _, line := range []string{"01,zz", "01,123", "01,,02", ""} {
		_, err := ParseHexRow(line)
		if !errors.Is(err, ErrInvalidByteValue) {
			t.Fatalf("%q: expected ErrInvalidByteValue, got %v", line, err)
		}
	}
	_, err := ParseHexRow("01,02,zz")
	var ibv *InvalidByteValueError
	if !errors.As(err, &ibv) || ibv.Cell != 3 || ibv.Value != "zz" {
		t.Fatalf("expected cell 3 value zz, got %v", err)
	}
}

func TestReadHexRowsSkipsBlankLinesAndReportsRow(t *testing.T) {
	rows, err := ReadHexRows(strings.NewReader("01,01,01,07\n\n02,01,01,08\n"), "mem")
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 2 || rows[0].Line != 1 || rows[1].Line != 3 {
		t.Fatalf("unexpected rows %+v", rows)
	}

	_, err = ReadHexRows(strings.NewReader("01,01,01,07\n01,01,01,gg\n"), "mem")
	var ibv *InvalidByteValueError
	if !errors.As(err, &ibv) || ibv.Source != "mem" || ibv.Row != 2 || ibv.Cell != 4 {
		t.Fatalf("expected row 2 cell 4 error, got %v", err)
	}
}

func TestLoadDirectoryInLexicalOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.csv"), "02,01,01,02\n")
	writeFile(t, filepath.Join(dir, "a.csv"), "01,01,03,07,1e,1c\n03,02,01,00,00,80,3f\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "not a table\n")

	acc := protocol.NewAccumulator()
	n, err := NewAdapter(nil, testlog.Logger(t)).Load(dir, acc)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	recs := acc.Records()
	if n != 3 || len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d/%d", n, len(recs))
	}
	if recs[0].Address != 1 || recs[1].Address != 3 || recs[2].Address != 2 {
		t.Fatalf("unexpected order %v", recs)
	}
	if recs[1].Values[0].Float != 1.0 {
		t.Fatalf("unexpected float %v", recs[1])
	}
}

func TestLoadIsAllOrNothingPerFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "a.csv")
	bad := filepath.Join(dir, "b.csv")
	writeFile(t, good, "01,01,01,07\n")
	writeFile(t, bad, "02,01,01,08\n02,02,02,00,00,80,3f\n")

	acc := protocol.NewAccumulator()
	n, err := NewAdapter(nil, testlog.Logger(t)).Load(dir, acc)
	var rowErr *RowError
	if !errors.As(err, &rowErr) {
		t.Fatalf("expected RowError, got %v", err)
	}
	if rowErr.Path != bad || rowErr.Line != 2 || !errors.Is(err, protocol.ErrPayloadSizeMismatch) {
		t.Fatalf("unexpected row error %v", rowErr)
	}
	if n != 1 || acc.Len() != 1 {
		t.Fatalf("expected only the good file to be appended, got %d/%d", n, acc.Len())
	}
}

func TestLoadReportsInvalidByteWithContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	writeFile(t, path, "01,01,01,07\n01,01,01,xyz\n")
	acc := protocol.NewAccumulator()
	_, err := NewAdapter(nil, testlog.Logger(t)).Load(path, acc)
	var rowErr *RowError
	if !errors.As(err, &rowErr) || rowErr.Line != 2 || !errors.Is(err, ErrInvalidByteValue) {
		t.Fatalf("expected invalid byte at line 2, got %v", err)
	}
	if acc.Len() != 0 {
		t.Fatalf("accumulator changed on failure")
	}
	want := path + `:2: tabular: invalid byte value "xyz" in cell 4`
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
}

func TestAppendRecordsCreatesDirsAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "records.csv")
	w := NewWriter()
	recs := []protocol.Record{
		{Address: 1, Type: registry.CodeFloat, Values: []protocol.Value{protocol.Float(1), protocol.Float(2.5)}},
	}
	if err := w.AppendRecords(path, recs); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := w.AppendRecords(path, recs); err != nil {
		t.Fatalf("second append: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "1,1,2.5\n1,1,2.5\n" {
		t.Fatalf("unexpected file %q", data)
	}

	back, err := ReadRecordRows(bytes.NewReader(data), registry.CodeFloat, registry.Numeric)
	if err != nil {
		t.Fatalf("read records: %v", err)
	}
	if len(back) != 2 || !back[0].Equal(recs[0], 1e-6) {
		t.Fatalf("round trip mismatch %v", back)
	}
}

func TestReadRecordRowsRejectsOutOfRange(t *testing.T) {
	_, err := ReadRecordRows(strings.NewReader("1,7\n1,300\n"), registry.CodeInt, registry.Numeric)
	var rowErr *RowError
	if !errors.As(err, &rowErr) || rowErr.Line != 2 {
		t.Fatalf("expected row 2 error, got %v", err)
	}
	_, err = ReadRecordRows(strings.NewReader("1,7\n"), 0x99, registry.Numeric)
	if !errors.Is(err, registry.ErrUnknownTypeCode) {
		t.Fatalf("expected unknown type code, got %v", err)
	}
}

func TestAppendHexRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw", "capture.csv")
	if err := NewWriter().AppendHexRows(path, [][]byte{{0x01, 0xab}, {0xff}}); err != nil {
		t.Fatalf("append hex: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "01,ab\nff\n" {
		t.Fatalf("unexpected file %q", data)
	}
	rows, err := ReadHexRows(bytes.NewReader(data), path)
	if err != nil || len(rows) != 2 || !bytes.Equal(rows[0].Bytes, []byte{0x01, 0xab}) {
		t.Fatalf("hex rows did not read back: %v %v", rows, err)
	}
}

func TestConvertToParquet(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	out := filepath.Join(dir, "out", "records.parquet")
	writeFile(t, in, "01,01,03,07,1e,1c\n02,03,01,00,00,00,00,00,00,04,40\n")

	n, err := NewAdapter(nil, testlog.Logger(t)).Convert(in, out, FormatParquet)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 records, got %d", n)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	rows, err := ReadParquet(f, info.Size())
	if err != nil {
		t.Fatalf("read parquet: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 value rows, got %d", len(rows))
	}
	if rows[2].Index != 2 || rows[2].Text != "28" {
		t.Fatalf("unexpected row %+v", rows[2])
	}
	if rows[3].Address != 2 || rows[3].Type != 0x03 || rows[3].Value != 2.5 {
		t.Fatalf("unexpected double row %+v", rows[3])
	}
}

func TestConvertToCSV(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	out := filepath.Join(dir, "records.csv")
	writeFile(t, in, "05,01,02,0a,0b\n")
	if _, err := NewAdapter(nil, testlog.Logger(t)).Convert(in, out, FormatCSV); err != nil {
		t.Fatalf("convert: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil || string(data) != "5,10,11\n" {
		t.Fatalf("unexpected output %q %v", data, err)
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("PARQUET"); err != nil || f != FormatParquet {
		t.Fatalf("unexpected %v %v", f, err)
	}
	if f, err := ParseFormat(""); err != nil || f != FormatCSV {
		t.Fatalf("unexpected %v %v", f, err)
	}
	if _, err := ParseFormat("xlsx"); err == nil {
		t.Fatalf("expected unknown format error")
	}
}
