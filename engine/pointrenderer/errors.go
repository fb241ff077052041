package pointrenderer

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-pointcloud/engine/loader"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/pointbuffer"
)

// ErrorKind classifies a failed load for OnLoadFailed subscribers.
type ErrorKind int

const (
	// ErrorKindUnknown is any error not produced by the loader or the point store.
	ErrorKindUnknown ErrorKind = iota
	// ErrorKindIO is a failure to open, read or write the file (loader.IOError).
	ErrorKindIO
	// ErrorKindMalformedHeader is a PLY header that is not the supported vertex layout.
	ErrorKindMalformedHeader
	// ErrorKindTruncatedData is a file holding fewer records than its header declares.
	ErrorKindTruncatedData
	// ErrorKindUnsupportedPointCount is a cloud larger than the device storage can hold.
	ErrorKindUnsupportedPointCount
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindIO:
		return "io"
	case ErrorKindMalformedHeader:
		return "malformed header"
	case ErrorKindTruncatedData:
		return "truncated data"
	case ErrorKindUnsupportedPointCount:
		return "unsupported point count"
	default:
		return "unknown"
	}
}

// KindOf maps an error returned by LoadCloud or Init to its ErrorKind.
//
// Parameters:
//   - err: the error to classify, possibly wrapped
//
// Returns:
//   - ErrorKind: the matching kind, ErrorKindUnknown for anything unrecognized
func KindOf(err error) ErrorKind {
	var ioErr *loader.IOError
	switch {
	case err == nil:
		return ErrorKindUnknown
	case errors.Is(err, loader.ErrMalformedHeader):
		return ErrorKindMalformedHeader
	case errors.Is(err, loader.ErrTruncatedData):
		return ErrorKindTruncatedData
	case errors.Is(err, pointbuffer.ErrUnsupportedPointCount):
		return ErrorKindUnsupportedPointCount
	case errors.As(err, &ioErr):
		return ErrorKindIO
	default:
		return ErrorKindUnknown
	}
}
