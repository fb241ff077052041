package material

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-pointcloud/engine/renderer/bind_group_provider"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// UniformGroup is the bind group index of the frame uniform.
	UniformGroup = 0

	// UniformBinding is the binding index of the frame uniform within its group.
	UniformBinding = 0
)

// pointMaterial is the implementation of the PointMaterial interface.
type pointMaterial struct {
	mu                *sync.Mutex
	name              string
	pipelineKey       string
	uniform           GPUPointUniform
	footprintSize     float32
	width             int
	height            int
	dirty             bool
	bindGroupProvider bind_group_provider.BindGroupProvider
}

// PointMaterial defines the interface for the per-cloud render state that reaches the shaders
// through the frame uniform: transforms, viewport footprint, opacity and the sampling parameters
// of the current draw batch.
//
// Setters only touch the CPU copy and mark it dirty; Flush hands the pending bytes to the
// renderer as a single buffer write.
type PointMaterial interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// PipelineKey retrieves the key of the pipeline this material renders with.
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey() string

	// SetPipelineKey sets the key of the pipeline this material renders with.
	//
	// Parameters:
	//   - key: the pipeline key
	SetPipelineKey(key string)

	// BindGroupProvider retrieves the provider holding the uniform buffer and its bind group.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the uniform provider
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// Uniform returns a copy of the current CPU-side uniform.
	Uniform() GPUPointUniform

	// SetTransforms sets the combined clip-space matrix and the object-to-world matrix.
	//
	// Parameters:
	//   - mvp: clip * projection * view * model
	//   - objectToWorld: the model matrix
	SetTransforms(mvp, objectToWorld mgl32.Mat4)

	// SetViewport sets the surface size in pixels. Ignored for non-positive sizes.
	SetViewport(width, height int)

	// SetFootprintSize sets the point footprint in pixels.
	SetFootprintSize(size float32)

	// SetAlpha sets the global point opacity.
	SetAlpha(alpha float32)

	// SetBatch sets the sampling parameters of the current draw batch.
	//
	// Parameters:
	//   - stride: the sample stride, 100/density
	//   - pointCount: the number of points in the bound store
	//   - tileCapacity: quads per instance
	SetBatch(stride float32, pointCount, tileCapacity uint32)

	// Dirty reports whether the uniform has changed since the last Flush.
	Dirty() bool

	// Flush returns the pending uniform write and clears the dirty flag. Returns nil when
	// nothing changed.
	//
	// Returns:
	//   - []bind_group_provider.BufferWrite: zero or one buffer write
	Flush() []bind_group_provider.BufferWrite

	// Release releases the uniform buffer and bind group.
	Release()
}

var _ PointMaterial = &pointMaterial{}

// NewPointMaterial creates a new PointMaterial with an uninitialized uniform provider. The
// provider's GPU resources are created by the renderer from the pipeline's group 0 layout.
//
// Parameters:
//   - options: a variadic list of PointMaterialBuilderOption functions
//
// Returns:
//   - PointMaterial: the new material
func NewPointMaterial(options ...PointMaterialBuilderOption) PointMaterial {
	m := &pointMaterial{
		mu:            &sync.Mutex{},
		name:          "point-material",
		footprintSize: 1,
		dirty:         true,
		uniform: GPUPointUniform{
			MVP:           mgl32.Ident4(),
			ObjectToWorld: mgl32.Ident4(),
			Alpha:         1,
			Stride:        1,
		},
	}
	for _, opt := range options {
		opt(m)
	}
	m.uniform.Alpha = min(max(m.uniform.Alpha, 0), 1)
	if m.bindGroupProvider == nil {
		m.bindGroupProvider = bind_group_provider.NewBindGroupProvider(m.name + "-uniform")
	}
	m.updateScreen()
	return m
}

func (m *pointMaterial) Name() string {
	return m.name
}

func (m *pointMaterial) PipelineKey() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pipelineKey
}

func (m *pointMaterial) SetPipelineKey(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pipelineKey = key
}

func (m *pointMaterial) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return m.bindGroupProvider
}

func (m *pointMaterial) Uniform() GPUPointUniform {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uniform
}

func (m *pointMaterial) SetTransforms(mvp, objectToWorld mgl32.Mat4) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uniform.MVP == mvp && m.uniform.ObjectToWorld == objectToWorld {
		return
	}
	m.uniform.MVP = mvp
	m.uniform.ObjectToWorld = objectToWorld
	m.dirty = true
}

func (m *pointMaterial) SetViewport(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.width, m.height = width, height
	m.updateScreen()
}

func (m *pointMaterial) SetFootprintSize(size float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.footprintSize = size
	m.updateScreen()
}

func (m *pointMaterial) SetAlpha(alpha float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uniform.Alpha == alpha {
		return
	}
	m.uniform.Alpha = alpha
	m.dirty = true
}

func (m *pointMaterial) SetBatch(stride float32, pointCount, tileCapacity uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uniform.Stride == stride && m.uniform.PointCount == pointCount && m.uniform.TileCapacity == tileCapacity {
		return
	}
	m.uniform.Stride = stride
	m.uniform.PointCount = pointCount
	m.uniform.TileCapacity = tileCapacity
	m.dirty = true
}

func (m *pointMaterial) Dirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirty
}

func (m *pointMaterial) Flush() []bind_group_provider.BufferWrite {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.dirty {
		return nil
	}
	m.dirty = false
	return []bind_group_provider.BufferWrite{{
		Provider: m.bindGroupProvider,
		Binding:  UniformBinding,
		Data:     m.uniform.Marshal(),
	}}
}

func (m *pointMaterial) Release() {
	m.bindGroupProvider.Release()
	m.mu.Lock()
	m.dirty = true
	m.mu.Unlock()
}

// updateScreen recomputes the screen vector. The caller must hold mu.
func (m *pointMaterial) updateScreen() {
	screen := [4]float32{float32(m.width), float32(m.height), 0, 0}
	if m.width > 0 && m.height > 0 {
		screen[2] = m.footprintSize / float32(m.width)
		screen[3] = m.footprintSize / float32(m.height)
	}
	if screen != m.uniform.Screen {
		m.uniform.Screen = screen
		m.dirty = true
	}
}
