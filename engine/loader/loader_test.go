package loader

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-pointcloud/engine/pointcloud"
)

const standardHeader = "ply\n" +
	"format binary_little_endian 1.0\n" +
	"comment made by hand\n" +
	"element vertex %d\n" +
	"property float x\n" +
	"property float y\n" +
	"property float z\n" +
	"property uchar red\n" +
	"property uchar green\n" +
	"property uchar blue\n" +
	"end_header\n"

// fileRecord encodes one record in file order.
func fileRecord(x, y, z float32, r, g, b uint8) []byte {
	rec := make([]byte, RecordSize)
	binary.LittleEndian.PutUint32(rec[0:4], math.Float32bits(x))
	binary.LittleEndian.PutUint32(rec[4:8], math.Float32bits(y))
	binary.LittleEndian.PutUint32(rec[8:12], math.Float32bits(z))
	rec[12], rec[13], rec[14] = r, g, b
	return rec
}

// plyFile builds a file with the standard header declaring declared vertices and present records.
func plyFile(declared, present int) []byte {
	var buf bytes.Buffer
	buf.WriteString(strings.Replace(standardHeader, "%d", strconv.Itoa(declared), 1))
	for i := range present {
		f := float32(i)
		buf.Write(fileRecord(f, f+0.25, f+0.5, uint8(i), uint8(i*2), uint8(i*3)))
	}
	return buf.Bytes()
}

func testCloud(n int) *pointcloud.PointCloud {
	points := make([]pointcloud.Point, n)
	for i := range points {
		f := float32(i)
		points[i] = pointcloud.Point{
			Position: [3]float32{f, -f * 2, f + 0.125},
			Color:    pointcloud.Color{R: uint8(i), G: uint8(255 - i), B: 7},
		}
	}
	return pointcloud.New("test", points)
}

func writeFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cloud.ply")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestSaveLoadRoundTrip(t *testing.T) {
	l := NewLoader(BackendTypePLY)
	cloud := testCloud(257)
	path := filepath.Join(t.TempDir(), "out.ply")

	if err := l.Save(cloud, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Count() != cloud.Count() {
		t.Fatalf("count = %d, want %d", got.Count(), cloud.Count())
	}
	for i := range cloud.Points {
		if got.Points[i] != cloud.Points[i] {
			t.Fatalf("point %d = %+v, want %+v", i, got.Points[i], cloud.Points[i])
		}
	}
	if l.Get(path) != got {
		t.Fatal("loaded cloud not cached under its path")
	}
}

func TestSaveFileMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on windows")
	}
	l := NewLoader(BackendTypePLY)
	dir := t.TempDir()

	fresh := filepath.Join(dir, "fresh.ply")
	if err := l.Save(testCloud(3), fresh); err != nil {
		t.Fatalf("Save: %v", err)
	}
	fi, err := os.Stat(fresh)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0o644 {
		t.Errorf("new file mode = %v, want %v", fi.Mode().Perm(), os.FileMode(0o644))
	}

	existing := filepath.Join(dir, "existing.ply")
	if err := os.WriteFile(existing, nil, 0o640); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(existing, 0o640); err != nil {
		t.Fatal(err)
	}
	if err := l.Save(testCloud(3), existing); err != nil {
		t.Fatalf("Save: %v", err)
	}
	fi, err = os.Stat(existing)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0o640 {
		t.Errorf("overwritten file mode = %v, want %v", fi.Mode().Perm(), os.FileMode(0o640))
	}
}

func TestSaveNilCloud(t *testing.T) {
	l := NewLoader(BackendTypePLY)
	path := filepath.Join(t.TempDir(), "nil.ply")

	err := l.Save(nil, path)
	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("Save(nil) error = %v, want *IOError", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Errorf("Save(nil) created %s", path)
	}
	if entries, _ := os.ReadDir(filepath.Dir(path)); len(entries) != 0 {
		t.Errorf("Save(nil) left files behind: %v", entries)
	}
}

func TestWriteSwapsYAndZ(t *testing.T) {
	l := NewLoader(BackendTypePLY)
	cloud := pointcloud.New("swap", []pointcloud.Point{{
		Position: [3]float32{1, 2, 3},
		Color:    pointcloud.Color{R: 10, G: 20, B: 30},
	}})

	var buf bytes.Buffer
	if err := l.Write(cloud, &buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data := buf.Bytes()
	if len(data) < RecordSize {
		t.Fatalf("output too short: %d bytes", len(data))
	}
	rec := data[len(data)-RecordSize:]
	want := fileRecord(1, 3, 2, 10, 20, 30)
	if !bytes.Equal(rec, want) {
		t.Fatalf("record = %v, want %v", rec, want)
	}

	header := string(data[:len(data)-RecordSize])
	for _, line := range []string{
		"ply\n",
		"format binary_little_endian 1.0\n",
		"element vertex 1\n",
		"property uchar blue\nend_header\n",
	} {
		if !strings.Contains(header, line) {
			t.Errorf("header missing %q", line)
		}
	}
}

func TestLoadReaderSwapsYAndZ(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(strings.Replace(standardHeader, "%d", "1", 1))
	buf.Write(fileRecord(1, 3, 2, 4, 5, 6))

	cloud, err := NewLoader(BackendTypePLY).LoadReader("stream", &buf)
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	want := pointcloud.Point{Position: [3]float32{1, 2, 3}, Color: pointcloud.Color{R: 4, G: 5, B: 6}}
	if cloud.Points[0] != want {
		t.Fatalf("point = %+v, want %+v", cloud.Points[0], want)
	}
}

func TestChunkedDecode(t *testing.T) {
	data := plyFile(10, 10)
	for _, chunk := range []int{1, 3, 4096} {
		cloud, err := NewLoader(BackendTypePLY, WithChunkRecords(chunk)).LoadReader("chunks", bytes.NewReader(data))
		if err != nil {
			t.Fatalf("chunk %d: %v", chunk, err)
		}
		if cloud.Count() != 10 {
			t.Fatalf("chunk %d: count = %d", chunk, cloud.Count())
		}
		last := cloud.Points[9]
		if last.Position != [3]float32{9, 9.5, 9.25} || last.Color != (pointcloud.Color{R: 9, G: 18, B: 27}) {
			t.Fatalf("chunk %d: last point = %+v", chunk, last)
		}
	}
}

func TestTrailingBytesIgnored(t *testing.T) {
	data := append(plyFile(2, 2), 0xde, 0xad, 0xbe, 0xef)
	cloud, err := NewLoader(BackendTypePLY).Load(writeFile(t, data))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cloud.Count() != 2 {
		t.Fatalf("count = %d, want 2", cloud.Count())
	}
}

func TestTruncatedData(t *testing.T) {
	data := plyFile(100, 50)

	l := NewLoader(BackendTypePLY)
	path := writeFile(t, data)
	cloud, err := l.Load(path)
	if !errors.Is(err, ErrTruncatedData) {
		t.Fatalf("Load err = %v, want ErrTruncatedData", err)
	}
	if cloud != nil {
		t.Fatal("Load returned a cloud on truncation")
	}
	if l.Get(path) != nil {
		t.Fatal("truncated cloud was cached")
	}

	cloud, err = l.LoadReader("stream", bytes.NewReader(data))
	if !errors.Is(err, ErrTruncatedData) {
		t.Fatalf("LoadReader err = %v, want ErrTruncatedData", err)
	}
	if cloud != nil {
		t.Fatal("LoadReader returned a cloud on truncation")
	}
}

func TestTruncatedPartialRecord(t *testing.T) {
	data := plyFile(2, 2)
	data = data[:len(data)-3]
	_, err := NewLoader(BackendTypePLY, WithChunkRecords(1)).LoadReader("partial", bytes.NewReader(data))
	if !errors.Is(err, ErrTruncatedData) {
		t.Fatalf("err = %v, want ErrTruncatedData", err)
	}
}

func TestMalformedHeader(t *testing.T) {
	cases := []struct {
		name   string
		header string
	}{
		{"empty", ""},
		{"bad magic", strings.Replace(standardHeader, "ply\n", "plx\n", 1)},
		{"ascii", strings.Replace(standardHeader, "binary_little_endian", "ascii", 1)},
		{"big endian", strings.Replace(standardHeader, "binary_little_endian", "binary_big_endian", 1)},
		{"bad version", strings.Replace(standardHeader, "1.0", "2.0", 1)},
		{"missing end_header", strings.Replace(standardHeader, "end_header\n", "", 1)},
		{"swapped properties", strings.Replace(standardHeader, "property float x\nproperty float y", "property float y\nproperty float x", 1)},
		{"double property", strings.Replace(standardHeader, "property float x", "property double x", 1)},
		{"missing color", strings.Replace(standardHeader, "property uchar blue\n", "", 1)},
		{"extra property", strings.Replace(standardHeader, "end_header", "property float nx\nend_header", 1)},
		{"face element", strings.Replace(standardHeader, "end_header", "element face 0\nend_header", 1)},
		{"negative count", strings.Replace(standardHeader, "%d", "-1", 1)},
		{"no element", "ply\nformat binary_little_endian 1.0\nend_header\n"},
		{"unknown keyword", strings.Replace(standardHeader, "comment made by hand", "frobnicate", 1)},
		{"long line", strings.Replace(standardHeader, "made by hand", strings.Repeat("a", 2000), 1)},
		{"too many lines", strings.Replace(standardHeader, "comment made by hand\n", strings.Repeat("comment x\n", maxHeaderLines), 1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			header := strings.Replace(tc.header, "%d", "0", 1)
			cloud, err := NewLoader(BackendTypePLY).LoadReader(tc.name, strings.NewReader(header))
			if !errors.Is(err, ErrMalformedHeader) {
				t.Fatalf("err = %v, want ErrMalformedHeader", err)
			}
			if cloud != nil {
				t.Fatal("cloud returned for malformed header")
			}
		})
	}
}

func TestHeaderAliasesAccepted(t *testing.T) {
	header := "ply\r\n" +
		"format binary_little_endian 1.0\r\n" +
		"obj_info scanned\r\n" +
		"element vertex 1\r\n" +
		"property float32 x\r\n" +
		"property float32 y\r\n" +
		"property float z\r\n" +
		"property uint8 red\r\n" +
		"property uchar green\r\n" +
		"property uint8 blue\r\n" +
		"end_header\r\n"
	data := append([]byte(header), fileRecord(1, 2, 3, 4, 5, 6)...)

	cloud, err := NewLoader(BackendTypePLY).LoadReader("alias", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	if cloud.Count() != 1 || cloud.Points[0].Position != [3]float32{1, 3, 2} {
		t.Fatalf("unexpected cloud %+v", cloud.Points)
	}
}

func TestReadHeader(t *testing.T) {
	data := plyFile(3, 3)
	path := writeFile(t, data)

	h, err := NewLoader(BackendTypePLY).ReadHeader(path)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if h.VertexCount != 3 {
		t.Errorf("VertexCount = %d, want 3", h.VertexCount)
	}
	if len(h.Comments) != 1 || h.Comments[0] != "made by hand" {
		t.Errorf("Comments = %q", h.Comments)
	}
	if want := int64(len(data) - 3*RecordSize); h.Size != want {
		t.Errorf("Size = %d, want %d", h.Size, want)
	}
	if h.BodySize() != 3*RecordSize {
		t.Errorf("BodySize = %d", h.BodySize())
	}
}

func TestEmptyCloud(t *testing.T) {
	l := NewLoader(BackendTypePLY)
	path := filepath.Join(t.TempDir(), "empty.ply")
	if err := l.Save(pointcloud.New("empty", nil), path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	cloud, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cloud.Count() != 0 {
		t.Fatalf("count = %d, want 0", cloud.Count())
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader(BackendTypePLY).Load(filepath.Join(t.TempDir(), "nope.ply"))
	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("err = %v, want *IOError", err)
	}
	if ioErr.Op != "open" || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestSaveFailureLeavesNoPartialFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.ply")
	// A non-empty directory at the target path makes the final rename fail.
	if err := os.MkdirAll(filepath.Join(target, "child"), 0o755); err != nil {
		t.Fatal(err)
	}

	err := NewLoader(BackendTypePLY).Save(testCloud(4), target)
	var ioErr *IOError
	if !errors.As(err, &ioErr) || ioErr.Op != "rename" {
		t.Fatalf("err = %v, want rename *IOError", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "target.ply" || !entries[0].IsDir() {
		t.Fatalf("directory left in unexpected state: %v", entries)
	}
}

func TestSaveReplacesExistingFile(t *testing.T) {
	l := NewLoader(BackendTypePLY)
	path := writeFile(t, plyFile(5, 5))

	if err := l.Save(testCloud(2), path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	cloud, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cloud.Count() != 2 {
		t.Fatalf("count = %d, want 2", cloud.Count())
	}
}

func TestCacheOptions(t *testing.T) {
	pre := testCloud(1)
	l := NewLoader(BackendTypePLY, WithCloud("pre", pre))
	if l.Get("pre") != pre {
		t.Fatal("WithCloud did not seed the cache")
	}
	l.Evict("pre")
	if l.Get("pre") != nil {
		t.Fatal("Evict left the cloud cached")
	}

	nc := NewLoader(BackendTypePLY, WithCache(false))
	if _, err := nc.LoadReader("s", bytes.NewReader(plyFile(1, 1))); err != nil {
		t.Fatal(err)
	}
	if len(nc.Clouds()) != 0 {
		t.Fatal("cache disabled but cloud was stored")
	}
}
