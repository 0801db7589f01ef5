package tabular

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/danmuck/sensorwire/internal/observability"
	"github.com/danmuck/sensorwire/internal/protocol"
)

// Adapter moves packets between hex tables on disk and decoded records.
type Adapter struct {
	Decoder *protocol.Decoder
	Writer  *Writer
	Logger  zerolog.Logger
}

func NewAdapter(dec *protocol.Decoder, logger zerolog.Logger) *Adapter {
	if dec == nil {
		dec = protocol.NewDecoder(protocol.DefaultOptions())
	}
	return &Adapter{Decoder: dec, Writer: NewWriter(), Logger: logger}
}

// Load decodes path, a single file or a directory of *.csv files read in
// lexical order, and appends the records to acc. A file contributes records
// only if every row in it decodes; the first failing file stops the load.
func (a *Adapter) Load(path string, acc *protocol.Accumulator) (int, error) {
	if acc == nil {
		return 0, fmt.Errorf("tabular: nil accumulator")
	}
	files, err := inputFiles(path)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, file := range files {
		recs, err := a.loadFile(file)
		if err != nil {
			a.Logger.Error().Err(err).Str("path", file).Msg("hex table rejected")
			return total, err
		}
		acc.Append(recs...)
		total += len(recs)
		a.Logger.Debug().Str("path", file).Int("records", len(recs)).Msg("hex table loaded")
	}
	return total, nil
}

// Convert loads in and persists the records to out.
func (a *Adapter) Convert(in, out string, format Format) (int, error) {
	acc := protocol.NewAccumulator()
	if _, err := a.Load(in, acc); err != nil {
		return 0, err
	}
	recs := acc.Records()
	switch format {
	case FormatCSV, "":
		if err := a.writer().AppendRecords(out, recs); err != nil {
			return 0, err
		}
	case FormatParquet:
		if err := writeParquetFile(out, recs); err != nil {
			return 0, err
		}
	default:
		return 0, fmt.Errorf("tabular: unknown format %q", format)
	}
	a.Logger.Info().
		Str("in", in).
		Str("out", out).
		Str("format", string(format)).
		Int("records", len(recs)).
		Msg("converted")
	return len(recs), nil
}

func (a *Adapter) loadFile(path string) ([]protocol.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tabular: open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := ReadHexRows(f, path)
	if err != nil {
		var ibv *InvalidByteValueError
		if errors.As(err, &ibv) {
			observability.RecordDecode(a.scheme(), 0, "invalid_byte_value")
			// The row error carries the location; keep only the cell detail.
			cell := &InvalidByteValueError{Cell: ibv.Cell, Value: ibv.Value}
			return nil, &RowError{Path: path, Line: ibv.Row, Err: cell}
		}
		return nil, err
	}
	observability.RecordRows("read", string(FormatCSV), len(rows))

	packets := make([][]byte, len(rows))
	for i, row := range rows {
		packets[i] = row.Bytes
	}
	recs, err := a.decoder().DecodeAll(packets)
	if err != nil {
		var batchErr *protocol.BatchError
		if errors.As(err, &batchErr) {
			observability.RecordDecode(a.scheme(), 0, protocol.ErrorKind(batchErr.Err))
			return nil, &RowError{Path: path, Line: rows[batchErr.Index].Line, Err: batchErr.Err}
		}
		return nil, err
	}
	for _, rec := range recs {
		observability.RecordDecode(a.scheme(), rec.Count(), "")
	}
	return recs, nil
}

func (a *Adapter) decoder() *protocol.Decoder {
	if a.Decoder == nil {
		a.Decoder = protocol.NewDecoder(protocol.DefaultOptions())
	}
	return a.Decoder
}

func (a *Adapter) writer() *Writer {
	if a.Writer == nil {
		a.Writer = NewWriter()
	}
	return a.Writer
}

func (a *Adapter) scheme() string {
	return a.decoder().Options().Registry.Name()
}

func inputFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("tabular: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	// Glob returns matches in lexical order.
	files, err := filepath.Glob(filepath.Join(path, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("tabular: list %s: %w", path, err)
	}
	return files, nil
}

func writeParquetFile(path string, recs []protocol.Record) error {
	if err := ensureParent(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("tabular: create %s: %w", path, err)
	}
	if err := WriteParquet(f, recs); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("tabular: close %s: %w", path, err)
	}
	observability.RecordRows("write", string(FormatParquet), len(recs))
	return nil
}
