package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedHeader is returned when the PLY header is missing, out of order, or
	// declares anything other than the single supported vertex layout.
	ErrMalformedHeader = errors.New("malformed ply header")

	// ErrTruncatedData is returned when the body holds fewer records than the header declares.
	ErrTruncatedData = errors.New("truncated ply data")
)

// IOError reports a failure of the underlying file or stream.
type IOError struct {
	// Op is the failed operation: open, stat, read, write, chmod, sync, close or rename.
	Op string
	// Path is the file involved, or the stream name for readers and writers.
	Path string
	// Err is the cause.
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("ply %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrMalformedHeader}, args...)...)
}
