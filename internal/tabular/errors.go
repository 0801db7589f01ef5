package tabular

import (
	"errors"
	"fmt"
)

var ErrInvalidByteValue = errors.New("tabular: invalid byte value")

// InvalidByteValueError names the cell that is not a one or two digit hex byte.
// Row and Cell are 1-based; Row is 0 when the line did not come from a file.
type InvalidByteValueError struct {
	Source string
	Row    int
	Cell   int
	Value  string
}

func (e *InvalidByteValueError) Error() string {
	if e.Source == "" && e.Row == 0 {
		return fmt.Sprintf("tabular: invalid byte value %q in cell %d", e.Value, e.Cell)
	}
	return fmt.Sprintf("tabular: invalid byte value %q at %s:%d cell %d", e.Value, e.Source, e.Row, e.Cell)
}

func (e *InvalidByteValueError) Unwrap() error { return ErrInvalidByteValue }

// RowError attaches file and line context to a decode or parse failure.
type RowError struct {
	Path string
	Line int
	Err  error
}

func (e *RowError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }
