package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

const (
	// RecordSize is the size in bytes of one vertex record in the file body:
	// three little-endian float32 followed by three uint8.
	RecordSize = 15

	maxHeaderLineBytes = 1024
	maxHeaderLines     = 64

	headerAuthorComment = "author: oxy-pointcloud"
	headerObjectComment = "object: point cloud"
)

// vertexProperties is the only vertex layout the codec accepts, in file order.
var vertexProperties = [...]struct {
	name  string
	types []string
}{
	{"x", []string{"float", "float32"}},
	{"y", []string{"float", "float32"}},
	{"z", []string{"float", "float32"}},
	{"red", []string{"uchar", "uint8"}},
	{"green", []string{"uchar", "uint8"}},
	{"blue", []string{"uchar", "uint8"}},
}

// Header describes a parsed PLY header.
type Header struct {
	// VertexCount is the number of records declared by the vertex element.
	VertexCount uint64
	// Comments holds the text of every comment and obj_info line.
	Comments []string
	// Size is the number of bytes the header occupies, including the end_header newline.
	Size int64
}

// BodySize returns the number of body bytes the header declares.
func (h Header) BodySize() uint64 {
	return h.VertexCount * RecordSize
}

// readHeader consumes the header from br, leaving br positioned at the first record.
func readHeader(br *bufio.Reader, name string) (Header, error) {
	var h Header
	sawElement := false
	nextProperty := 0

	for lineNo := 0; ; lineNo++ {
		if lineNo >= maxHeaderLines {
			return h, malformed("header exceeds %d lines", maxHeaderLines)
		}
		line, n, err := readHeaderLine(br, name)
		if err != nil {
			return h, err
		}
		h.Size += int64(n)

		fields := strings.Fields(line)
		switch lineNo {
		case 0:
			if line != "ply" {
				return h, malformed("missing ply magic, got %q", line)
			}
			continue
		case 1:
			if len(fields) != 3 || fields[0] != "format" {
				return h, malformed("expected format line, got %q", line)
			}
			if fields[1] != "binary_little_endian" || fields[2] != "1.0" {
				return h, malformed("unsupported format %s %s", fields[1], fields[2])
			}
			continue
		}

		if len(fields) == 0 {
			return h, malformed("blank line %d", lineNo+1)
		}
		switch fields[0] {
		case "comment", "obj_info":
			h.Comments = append(h.Comments, strings.TrimSpace(strings.TrimPrefix(line, fields[0])))
		case "element":
			if sawElement {
				return h, malformed("unexpected second element %q", line)
			}
			if len(fields) != 3 || fields[1] != "vertex" {
				return h, malformed("unsupported element %q", line)
			}
			count, perr := strconv.ParseUint(fields[2], 10, 63)
			if perr != nil {
				return h, malformed("invalid vertex count %q", fields[2])
			}
			h.VertexCount = count
			sawElement = true
		case "property":
			if !sawElement {
				return h, malformed("property before vertex element")
			}
			if nextProperty >= len(vertexProperties) {
				return h, malformed("unexpected property %q", line)
			}
			want := vertexProperties[nextProperty]
			if len(fields) != 3 || fields[2] != want.name || !slices.Contains(want.types, fields[1]) {
				return h, malformed("property %d is %q, want %s %s", nextProperty, line, want.types[0], want.name)
			}
			nextProperty++
		case "end_header":
			if len(fields) != 1 {
				return h, malformed("trailing text after end_header")
			}
			if !sawElement {
				return h, malformed("missing vertex element")
			}
			if nextProperty != len(vertexProperties) {
				return h, malformed("vertex element declares %d of %d properties", nextProperty, len(vertexProperties))
			}
			return h, nil
		default:
			return h, malformed("unexpected header line %q", line)
		}
	}
}

// readHeaderLine returns one header line without its terminator and the number of raw bytes consumed.
func readHeaderLine(br *bufio.Reader, name string) (string, int, error) {
	raw, err := br.ReadSlice('\n')
	n := len(raw)
	switch {
	case errors.Is(err, bufio.ErrBufferFull):
		return "", n, malformed("header line exceeds %d bytes", maxHeaderLineBytes)
	case errors.Is(err, io.EOF):
		if n == 0 {
			return "", 0, malformed("unexpected end of file before end_header")
		}
	case err != nil:
		return "", n, &IOError{Op: "read", Path: name, Err: err}
	}
	if n > maxHeaderLineBytes {
		return "", n, malformed("header line exceeds %d bytes", maxHeaderLineBytes)
	}
	return strings.TrimRight(string(raw), "\r\n"), n, nil
}

// writeHeader writes the fixed header for count records.
func writeHeader(w io.Writer, count int) error {
	_, err := fmt.Fprintf(w,
		"ply\n"+
			"format binary_little_endian 1.0\n"+
			"comment %s\n"+
			"comment %s\n"+
			"element vertex %d\n"+
			"property float x\n"+
			"property float y\n"+
			"property float z\n"+
			"property uchar red\n"+
			"property uchar green\n"+
			"property uchar blue\n"+
			"end_header\n",
		headerAuthorComment, headerObjectComment, count)
	return err
}
