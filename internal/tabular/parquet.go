package tabular

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/danmuck/sensorwire/internal/protocol"
)

type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatParquet:
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("tabular: unknown format %q", raw)
	}
}

// ParquetRow is one value in long format. Text keeps the exact decimal form
// for integers wider than a float64 mantissa.
type ParquetRow struct {
	Address int32   `parquet:"address"`
	Type    int32   `parquet:"type"`
	Index   int32   `parquet:"index"`
	Value   float64 `parquet:"value"`
	Text    string  `parquet:"text"`
}

func parquetRows(recs []protocol.Record) []ParquetRow {
	var rows []ParquetRow
	for _, rec := range recs {
		for i, v := range rec.Values {
			rows = append(rows, ParquetRow{
				Address: int32(rec.Address),
				Type:    int32(rec.Type),
				Index:   int32(i),
				Value:   v.Float64(),
				Text:    v.String(),
			})
		}
	}
	return rows
}

// WriteParquet writes recs as Snappy-compressed long-format rows.
func WriteParquet(w io.Writer, recs []protocol.Record) error {
	pw := parquet.NewGenericWriter[ParquetRow](w, parquet.Compression(&parquet.Snappy))
	if rows := parquetRows(recs); len(rows) > 0 {
		if _, err := pw.Write(rows); err != nil {
			_ = pw.Close()
			return fmt.Errorf("tabular: parquet write: %w", err)
		}
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("tabular: parquet close: %w", err)
	}
	return nil
}

func ReadParquet(r io.ReaderAt, size int64) ([]ParquetRow, error) {
	gr := parquet.NewGenericReader[ParquetRow](io.NewSectionReader(r, 0, size))
	defer gr.Close()

	out := make([]ParquetRow, 0, 256)
	batch := make([]ParquetRow, 256)
	for {
		n, err := gr.Read(batch)
		if n > 0 {
			out = append(out, batch[:n]...)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("tabular: parquet read: %w", err)
		}
	}
	return out, nil
}
