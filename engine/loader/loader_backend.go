package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-pointcloud/engine/pointcloud"
)

// loaderBackend defines the format-specific half of the Loader.
// Concrete implementations (e.g., plyLoaderBackend) handle wire-format details.
type loaderBackend interface {
	// ReadHeader parses only the header from r.
	//
	// Parameters:
	//   - name: the stream name used in errors
	//   - r: the reader positioned at the start of the file
	//
	// Returns:
	//   - Header: the parsed header
	//   - error: ErrMalformedHeader or an *IOError
	ReadHeader(name string, r io.Reader) (Header, error)

	// Decode parses a complete cloud from r.
	//
	// Parameters:
	//   - name: the stream name recorded on the cloud and used in errors
	//   - r: the reader positioned at the start of the file
	//   - size: the total stream size in bytes, or -1 when unknown
	//
	// Returns:
	//   - *pointcloud.PointCloud: the decoded cloud
	//   - error: ErrMalformedHeader, ErrTruncatedData or an *IOError
	Decode(name string, r io.Reader, size int64) (*pointcloud.PointCloud, error)

	// Encode writes cloud to w.
	//
	// Parameters:
	//   - name: the destination name used in errors
	//   - cloud: the cloud to write
	//   - w: the destination
	//
	// Returns:
	//   - error: an *IOError if writing fails
	Encode(name string, cloud *pointcloud.PointCloud, w io.Writer) error
}
