package pointcloud

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUPointSize is the size in bytes of one point on the device, both as a structured buffer
// element and as one RGBA32Float texel.
const GPUPointSize = 16

// GPUPointSource is the canonical WGSL definition of the GPUPoint struct.
//
//go:embed assets/gpu_point.wgsl
var GPUPointSource string

// GPUPoint is the device representation of a Point.
// Matches the WGSL GPUPoint struct layout exactly (see GPUPointSource).
type GPUPoint struct {
	Position [3]float32 // offset  0: runtime position
	Color    uint32     // offset 12: packed r | g<<8 | b<<16 | a<<24
}

// PackColor packs an 8-bit color into the u32 form read by unpack4x8unorm in the shaders.
// Alpha is always opaque; transparency comes from the frame uniform.
//
// Parameters:
//   - c: the color to pack
//
// Returns:
//   - uint32: the packed color
func PackColor(c Color) uint32 {
	return uint32(c.R) | uint32(c.G)<<8 | uint32(c.B)<<16 | 0xFF<<24
}

// UnpackColor reverses PackColor, discarding alpha.
func UnpackColor(v uint32) Color {
	return Color{R: uint8(v), G: uint8(v >> 8), B: uint8(v >> 16)}
}

// NewGPUPoint converts a Point to its device form.
func NewGPUPoint(p Point) GPUPoint {
	return GPUPoint{Position: p.Position, Color: PackColor(p.Color)}
}

// Size returns the size of the GPUPoint struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (16)
func (g *GPUPoint) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUPoint into a 16-byte little-endian buffer.
//
// Returns:
//   - []byte: the serialized point
func (g *GPUPoint) Marshal() []byte {
	buf := make([]byte, GPUPointSize)
	g.put(buf)
	return buf
}

func (g *GPUPoint) put(buf []byte) {
	_ = buf[GPUPointSize-1]
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:], g.Color)
}

// MarshalPoints serializes every point of the cloud into one contiguous device buffer,
// point i at byte offset 16*i.
//
// Parameters:
//   - points: the points to serialize
//
// Returns:
//   - []byte: len(points)*16 bytes, or nil for an empty slice
func MarshalPoints(points []Point) []byte {
	if len(points) == 0 {
		return nil
	}
	buf := make([]byte, len(points)*GPUPointSize)
	for i := range points {
		g := NewGPUPoint(points[i])
		g.put(buf[i*GPUPointSize:])
	}
	return buf
}

// UnmarshalGPUPoint decodes a 16-byte device record.
func UnmarshalGPUPoint(buf []byte) GPUPoint {
	_ = buf[GPUPointSize-1]
	return GPUPoint{
		Position: [3]float32{
			math.Float32frombits(binary.LittleEndian.Uint32(buf[0:])),
			math.Float32frombits(binary.LittleEndian.Uint32(buf[4:])),
			math.Float32frombits(binary.LittleEndian.Uint32(buf[8:])),
		},
		Color: binary.LittleEndian.Uint32(buf[12:]),
	}
}

// GPUPointTexelSize is the size in bytes of one point stored as an RGBA32Float texel.
const GPUPointTexelSize = 16

// MarshalTexels serializes the points as RGBA32Float texels for the texture fallback.
// The rgb channels hold the position; alpha holds r | g<<8 | b<<16 as an exact float, which
// stays below 2^24 so it never lands on a NaN or infinity bit pattern.
//
// Parameters:
//   - points: the points to serialize
//
// Returns:
//   - []byte: len(points)*16 bytes, or nil for an empty slice
func MarshalTexels(points []Point) []byte {
	if len(points) == 0 {
		return nil
	}
	buf := make([]byte, len(points)*GPUPointTexelSize)
	for i := range points {
		p := &points[i]
		off := buf[i*GPUPointTexelSize : (i+1)*GPUPointTexelSize]
		binary.LittleEndian.PutUint32(off[0:], math.Float32bits(p.Position[0]))
		binary.LittleEndian.PutUint32(off[4:], math.Float32bits(p.Position[1]))
		binary.LittleEndian.PutUint32(off[8:], math.Float32bits(p.Position[2]))
		binary.LittleEndian.PutUint32(off[12:], math.Float32bits(float32(PackColor(p.Color)&0x00FFFFFF)))
	}
	return buf
}

// UnmarshalTexel decodes one texel written by MarshalTexels.
func UnmarshalTexel(buf []byte) Point {
	_ = buf[GPUPointTexelSize-1]
	rgb := uint32(math.Float32frombits(binary.LittleEndian.Uint32(buf[12:])))
	return Point{
		Position: [3]float32{
			math.Float32frombits(binary.LittleEndian.Uint32(buf[0:])),
			math.Float32frombits(binary.LittleEndian.Uint32(buf[4:])),
			math.Float32frombits(binary.LittleEndian.Uint32(buf[8:])),
		},
		Color: UnpackColor(rgb),
	}
}
