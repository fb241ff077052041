package material

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUPointUniformSource is the canonical WGSL definition of the PointUniform struct.
// Matches GPUPointUniform layout exactly (160 bytes).
//
//go:embed assets/point_uniform.wgsl
var GPUPointUniformSource string

// GPUPointUniform is the per-frame uniform read by the point vertex shaders.
// Matches the WGSL PointUniform struct layout exactly (see GPUPointUniformSource).
// Size: 160 bytes (uniform address space, 16-byte aligned).
type GPUPointUniform struct {
	MVP           [16]float32 // offset   0: clip * projection * view * model, column-major (64 bytes)
	ObjectToWorld [16]float32 // offset  64: model transform, column-major (64 bytes)
	Screen        [4]float32  // offset 128: width, height, size/width, size/height (16 bytes)
	Alpha         float32     // offset 144: global point opacity (4 bytes)
	Stride        float32     // offset 148: sample stride 100/density (4 bytes)
	PointCount    uint32      // offset 152: total points in the bound store (4 bytes)
	TileCapacity  uint32      // offset 156: quads per instance (4 bytes)
}

// Size returns the size of the GPUPointUniform struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUPointUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUPointUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 160-byte buffer ready for GPU upload.
func (g *GPUPointUniform) Marshal() []byte {
	buf := make([]byte, 160)
	for i, v := range g.MVP {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	for i, v := range g.ObjectToWorld {
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(v))
	}
	for i, v := range g.Screen {
		binary.LittleEndian.PutUint32(buf[128+i*4:], math.Float32bits(v))
	}
	binary.LittleEndian.PutUint32(buf[144:148], math.Float32bits(g.Alpha))
	binary.LittleEndian.PutUint32(buf[148:152], math.Float32bits(g.Stride))
	binary.LittleEndian.PutUint32(buf[152:156], g.PointCount)
	binary.LittleEndian.PutUint32(buf[156:160], g.TileCapacity)
	return buf
}
