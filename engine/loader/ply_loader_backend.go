package loader

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/Carmen-Shannon/oxy-pointcloud/engine/pointcloud"
)

const (
	readBufferSize  = 64 * 1024
	writeBufferSize = 64 * 1024

	// defaultChunkRecords is how many records are read per io.ReadFull call.
	defaultChunkRecords = 4096

	// streamPrealloc caps the up-front allocation when the body size is unknown.
	streamPrealloc = 1 << 20
)

// plyLoaderBackend decodes and encodes the fixed binary_little_endian x/y/z/red/green/blue layout.
// The file stores positions as x, z, y relative to runtime coordinates; the swap is applied in both directions.
type plyLoaderBackend struct {
	chunkRecords int
}

var _ loaderBackend = &plyLoaderBackend{}

func newPLYLoaderBackend(chunkRecords int) *plyLoaderBackend {
	if chunkRecords <= 0 {
		chunkRecords = defaultChunkRecords
	}
	return &plyLoaderBackend{chunkRecords: chunkRecords}
}

func (b *plyLoaderBackend) ReadHeader(name string, r io.Reader) (Header, error) {
	return readHeader(bufio.NewReaderSize(r, readBufferSize), name)
}

func (b *plyLoaderBackend) Decode(name string, r io.Reader, size int64) (*pointcloud.PointCloud, error) {
	br := bufio.NewReaderSize(r, readBufferSize)
	h, err := readHeader(br, name)
	if err != nil {
		return nil, err
	}

	total := h.VertexCount
	if total > math.MaxInt/pointcloud.GPUPointSize {
		return nil, malformed("vertex count %d is too large", total)
	}

	// With a known size the shortfall is detected before anything is allocated.
	prealloc := total
	if size >= 0 {
		body := max(size-h.Size, 0)
		if have := uint64(body) / RecordSize; have < total {
			return nil, truncated(name, total, have)
		}
	} else {
		prealloc = min(total, streamPrealloc)
	}

	points := make([]pointcloud.Point, 0, prealloc)
	buf := make([]byte, min(total, uint64(b.chunkRecords))*RecordSize)
	for read := uint64(0); read < total; {
		n := min(total-read, uint64(b.chunkRecords))
		chunk := buf[:n*RecordSize]
		got, rerr := io.ReadFull(br, chunk)
		if rerr != nil {
			if errors.Is(rerr, io.ErrUnexpectedEOF) || errors.Is(rerr, io.EOF) {
				return nil, truncated(name, total, read+uint64(got/RecordSize))
			}
			return nil, &IOError{Op: "read", Path: name, Err: rerr}
		}
		points = decodeRecords(points, chunk)
		read += n
	}

	return pointcloud.New(name, points), nil
}

func (b *plyLoaderBackend) Encode(name string, cloud *pointcloud.PointCloud, w io.Writer) error {
	bw := bufio.NewWriterSize(w, writeBufferSize)
	if err := writeHeader(bw, cloud.Count()); err != nil {
		return &IOError{Op: "write", Path: name, Err: err}
	}

	var rec [RecordSize]byte
	for i := range cloud.Count() {
		encodeRecord(rec[:], &cloud.Points[i])
		if _, err := bw.Write(rec[:]); err != nil {
			return &IOError{Op: "write", Path: name, Err: err}
		}
	}
	if err := bw.Flush(); err != nil {
		return &IOError{Op: "write", Path: name, Err: err}
	}
	return nil
}

// decodeRecords appends one point per 15-byte record in chunk.
func decodeRecords(dst []pointcloud.Point, chunk []byte) []pointcloud.Point {
	for off := 0; off+RecordSize <= len(chunk); off += RecordSize {
		rec := chunk[off : off+RecordSize]
		dst = append(dst, pointcloud.Point{
			Position: [3]float32{
				math.Float32frombits(binary.LittleEndian.Uint32(rec[0:4])),
				math.Float32frombits(binary.LittleEndian.Uint32(rec[8:12])),
				math.Float32frombits(binary.LittleEndian.Uint32(rec[4:8])),
			},
			Color: pointcloud.Color{R: rec[12], G: rec[13], B: rec[14]},
		})
	}
	return dst
}

// encodeRecord writes p into rec in file order (x, runtime z, runtime y, r, g, b).
func encodeRecord(rec []byte, p *pointcloud.Point) {
	_ = rec[RecordSize-1]
	binary.LittleEndian.PutUint32(rec[0:4], math.Float32bits(p.Position[0]))
	binary.LittleEndian.PutUint32(rec[4:8], math.Float32bits(p.Position[2]))
	binary.LittleEndian.PutUint32(rec[8:12], math.Float32bits(p.Position[1]))
	rec[12] = p.Color.R
	rec[13] = p.Color.G
	rec[14] = p.Color.B
}

func truncated(name string, declared, have uint64) error {
	return fmt.Errorf("%w: %s declares %d points, body holds %d", ErrTruncatedData, name, declared, have)
}
