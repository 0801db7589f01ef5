package listener

import (
	"bytes"
	"context"

	"github.com/segmentio/ksuid"

	"github.com/danmuck/sensorwire/internal/tabular"
)

// Capture writes newline-delimited reads to path as hex rows without
// decoding them. A trailing partial line is flushed when the port stops.
func (l *Listener) Capture(ctx context.Context, w *tabular.Writer, path string) (int, error) {
	if w == nil {
		w = tabular.NewWriter()
	}
	session := ksuid.New().String()
	logger := l.logger.With().Str("session", session).Str("path", path).Logger()
	logger.Info().Msg("raw capture started")

	var pending []byte
	total := 0
	for chunk := range l.Chunks(ctx) {
		pending = append(pending, chunk...)
		var lines [][]byte
		lines, pending = splitLines(pending)
		if len(lines) == 0 {
			continue
		}
		if err := w.AppendHexRows(path, lines); err != nil {
			logger.Error().Err(err).Msg("raw capture write failed")
			return total, err
		}
		total += len(lines)
	}
	if tail := bytes.TrimRight(pending, "\r"); len(tail) > 0 {
		if err := w.AppendHexRows(path, [][]byte{tail}); err != nil {
			return total, err
		}
		total++
	}
	logger.Info().Int("rows", total).Msg("raw capture stopped")
	return total, l.Err()
}

// splitLines returns the complete non-empty lines in buf, without their
// terminators, and the unterminated remainder.
func splitLines(buf []byte) ([][]byte, []byte) {
	var lines [][]byte
	for {
		idx := bytes.IndexByte(buf, '\n')
		if idx < 0 {
			break
		}
		line := bytes.TrimRight(buf[:idx], "\r")
		if len(line) > 0 {
			lines = append(lines, append([]byte(nil), line...))
		}
		buf = buf[idx+1:]
	}
	return lines, append([]byte(nil), buf...)
}
