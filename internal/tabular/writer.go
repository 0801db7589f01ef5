package tabular

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/danmuck/sensorwire/internal/observability"
	"github.com/danmuck/sensorwire/internal/protocol"
)

// Writer appends rows to CSV files, creating parent directories on demand.
// One Writer serializes its own appends; it does not lock files against
// other processes.
type Writer struct {
	mu   sync.Mutex
	perm os.FileMode
}

func NewWriter() *Writer {
	return &Writer{perm: 0o644}
}

// AppendRecords writes one [address, value_0, value_1, ...] row per record.
func (w *Writer) AppendRecords(path string, recs []protocol.Record) error {
	rows := make([][]string, 0, len(recs))
	for _, rec := range recs {
		row := make([]string, 0, 1+len(rec.Values))
		row = append(row, strconv.FormatUint(uint64(rec.Address), 10))
		for _, v := range rec.Values {
			row = append(row, v.String())
		}
		rows = append(rows, row)
	}
	if err := w.appendRows(path, rows); err != nil {
		return err
	}
	observability.RecordRows("write", string(FormatCSV), len(rows))
	return nil
}

// AppendHexRows writes each packet as a row of two-digit hex cells.
func (w *Writer) AppendHexRows(path string, packets [][]byte) error {
	rows := make([][]string, 0, len(packets))
	for _, raw := range packets {
		row := make([]string, len(raw))
		for i, b := range raw {
			row[i] = fmt.Sprintf("%02x", b)
		}
		rows = append(rows, row)
	}
	if err := w.appendRows(path, rows); err != nil {
		return err
	}
	observability.RecordRows("write", "hex", len(rows))
	return nil
}

func (w *Writer) appendRows(path string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := ensureParent(path); err != nil {
		return err
	}
	perm := w.perm
	if perm == 0 {
		perm = 0o644
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, perm)
	if err != nil {
		return fmt.Errorf("tabular: open %s: %w", path, err)
	}
	cw := csv.NewWriter(f)
	if err := cw.WriteAll(rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("tabular: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("tabular: close %s: %w", path, err)
	}
	return nil
}

func ensureParent(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("tabular: create %s: %w", dir, err)
	}
	return nil
}
