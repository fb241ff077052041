package model

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUQuadVertexSize is the stride of one tile vertex in bytes.
const GPUQuadVertexSize = 12

// GPUQuadVertex is one corner of a tile quad.
// Matches the WGSL QuadVertex input { @location(0) corner: vec3<f32> } (12 bytes).
type GPUQuadVertex struct {
	Corner [3]float32 // offset 0: x, y in ±0.5; z holds the quad's slot within the tile
}

// Size returns the size of the GPUQuadVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes (12)
func (g *GPUQuadVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

func (g *GPUQuadVertex) put(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Corner[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Corner[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Corner[2]))
}

// quadCorners lists the four corners of a quad in vertex order. Indices 0,1,2 and 3,2,1 form
// its two triangles.
var quadCorners = [4][2]float32{
	{-0.5, -0.5},
	{0.5, -0.5},
	{-0.5, 0.5},
	{0.5, 0.5},
}

var quadIndices = [6]uint32{0, 1, 2, 3, 2, 1}

// buildTileData returns the vertex and index bytes of a tile holding capacity quads.
func buildTileData(capacity uint32) (vertexData, indexData []byte) {
	vertexData = make([]byte, int(capacity)*4*GPUQuadVertexSize)
	indexData = make([]byte, int(capacity)*len(quadIndices)*4)
	for slot := uint32(0); slot < capacity; slot++ {
		for c, corner := range quadCorners {
			v := GPUQuadVertex{Corner: [3]float32{corner[0], corner[1], float32(slot)}}
			v.put(vertexData[(int(slot)*4+c)*GPUQuadVertexSize:])
		}
		base := slot * 4
		for i, idx := range quadIndices {
			binary.LittleEndian.PutUint32(indexData[(int(slot)*len(quadIndices)+i)*4:], base+idx)
		}
	}
	return vertexData, indexData
}
