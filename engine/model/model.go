// Package model builds the quad tile: the fixed batch of screen-aligned quads every point draw
// instances. Each quad is expanded around one point in the vertex shader, so the tile carries
// no positions of its own.
package model

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-pointcloud/engine/drawbatch"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/pointcloud"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/renderer/bind_group_provider"
)

// DefaultBoundsSize is the edge length of the fixed culling box reported for a tile.
const DefaultBoundsSize = 100

type tileData struct {
	vertexData []byte
	indexData  []byte
}

var (
	tileCacheMu sync.Mutex
	tileCache   = make(map[uint32]*tileData)
)

// cachedTileData returns the CPU-side tile for capacity, building it on first use.
func cachedTileData(capacity uint32) *tileData {
	tileCacheMu.Lock()
	defer tileCacheMu.Unlock()
	if d, ok := tileCache[capacity]; ok {
		return d
	}
	v, i := buildTileData(capacity)
	d := &tileData{vertexData: v, indexData: i}
	tileCache[capacity] = d
	return d
}

// quadTile is the implementation of the QuadTile interface.
type quadTile struct {
	mu           *sync.Mutex
	capacity     uint32
	boundsSize   float32
	data         *tileData
	meshProvider bind_group_provider.BindGroupProvider
}

// QuadTile defines the interface for the instanced quad batch used to draw points.
// It owns the CPU-side vertex and index data (shared per capacity) and, once InitGPU has run,
// the mesh buffers on the device.
type QuadTile interface {
	// Capacity returns the number of quads in the tile.
	//
	// Returns:
	//   - uint32: quads per instance
	Capacity() uint32

	// IndexCount returns the number of indices in the tile (6 per quad).
	IndexCount() int

	// VertexData returns the tile's raw vertex data.
	VertexData() []byte

	// IndexData returns the tile's raw index data.
	IndexData() []byte

	// Bounds returns the fixed culling box of the tile, centered at the origin.
	Bounds() pointcloud.Bounds

	// MeshProvider retrieves the BindGroupProvider holding the GPU mesh buffers.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the mesh provider
	MeshProvider() bind_group_provider.BindGroupProvider

	// InitGPU uploads the tile to the device. Calling it again while initialized is a no-op.
	//
	// Parameters:
	//   - r: the renderer to create the buffers with
	//
	// Returns:
	//   - error: an error if buffer creation fails
	InitGPU(r renderer.Renderer) error

	// Release releases the mesh buffers. The CPU-side data stays cached.
	Release()
}

var _ QuadTile = &quadTile{}

// NewQuadTile creates a new QuadTile. The CPU-side data is built once per capacity and shared
// across tiles.
//
// Parameters:
//   - options: a variadic list of QuadTileBuilderOption functions
//
// Returns:
//   - QuadTile: the new tile
func NewQuadTile(options ...QuadTileBuilderOption) QuadTile {
	t := &quadTile{
		mu:         &sync.Mutex{},
		capacity:   drawbatch.DefaultTileCapacity,
		boundsSize: DefaultBoundsSize,
	}
	for _, opt := range options {
		opt(t)
	}
	if t.capacity == 0 {
		t.capacity = drawbatch.DefaultTileCapacity
	}
	t.data = cachedTileData(t.capacity)
	t.meshProvider = bind_group_provider.NewBindGroupProvider(fmt.Sprintf("quad-tile-%d", t.capacity))
	return t
}

func (t *quadTile) Capacity() uint32 {
	return t.capacity
}

func (t *quadTile) IndexCount() int {
	return int(t.capacity) * drawbatch.IndicesPerQuad
}

func (t *quadTile) VertexData() []byte {
	return t.data.vertexData
}

func (t *quadTile) IndexData() []byte {
	return t.data.indexData
}

func (t *quadTile) Bounds() pointcloud.Bounds {
	h := t.boundsSize / 2
	return pointcloud.Bounds{Min: [3]float32{-h, -h, -h}, Max: [3]float32{h, h, h}}
}

func (t *quadTile) MeshProvider() bind_group_provider.BindGroupProvider {
	return t.meshProvider
}

func (t *quadTile) InitGPU(r renderer.Renderer) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.meshProvider.Initialized() {
		return nil
	}
	if err := r.InitMeshBuffers(t.meshProvider, t.data.vertexData, t.data.indexData, t.IndexCount()); err != nil {
		t.meshProvider.Release()
		return fmt.Errorf("init quad tile: %w", err)
	}
	return nil
}

func (t *quadTile) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.meshProvider.Release()
}
