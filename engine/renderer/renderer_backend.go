package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-pointcloud/common"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/renderer/shader"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend. It is registered by importing
	// the wgpu_backend package.
	BackendTypeWGPU RendererBackendType = iota

	// BackendTypeHeadless selects the in-memory backend. It allocates no device resources and
	// records every upload and draw, which makes it suitable for tests and offline tools.
	BackendTypeHeadless
)

func (t RendererBackendType) String() string {
	switch t {
	case BackendTypeWGPU:
		return "wgpu"
	case BackendTypeHeadless:
		return "headless"
	default:
		return fmt.Sprintf("RendererBackendType(%d)", int(t))
	}
}

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
// Only specific power-of-two values are valid for GPU hardware. WebGPU guarantees support for
// 1 (off) and 4; higher values (8, 16) are adapter-dependent and may not be available.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4× multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4

	// MSAA8x enables 8× multisample anti-aliasing. Adapter-dependent.
	MSAA8x MSAASampleCount = 8

	// MSAA16x enables 16× multisample anti-aliasing. Adapter-dependent.
	MSAA16x MSAASampleCount = 16
)

// Capabilities reports the device limits that decide how point data is stored.
type Capabilities struct {
	// StorageBuffersInVertexStage is true when vertex shaders may bind read-only storage buffers.
	StorageBuffersInVertexStage bool
	// MaxStorageBufferBindingSize is the largest storage buffer binding in bytes.
	MaxStorageBufferBindingSize uint64
	// MaxTextureDimension2D is the largest width or height of a 2D texture.
	MaxTextureDimension2D uint32
}

// DeviceLimits are the adapter limits a backend derives its Capabilities from.
type DeviceLimits struct {
	MaxStorageBuffersPerShaderStage uint32
	MaxStorageBufferBindingSize     uint64
	MaxBufferSize                   uint64
	MaxTextureDimension2D           uint32
}

// Capabilities derives the point storage capabilities from the limits. Downlevel adapters
// (GLES, WebGL2) without vertex-stage storage report zero storage buffers per stage or a zero
// binding size; those select the texture layout. Desktop adapters always report storage support,
// so there the texture layout is only reached by forcing it.
//
// Returns:
//   - Capabilities: the capabilities the point store selects its layout from
func (l DeviceLimits) Capabilities() Capabilities {
	binding := min(l.MaxStorageBufferBindingSize, l.MaxBufferSize)
	return Capabilities{
		StorageBuffersInVertexStage: l.MaxStorageBuffersPerShaderStage > 0 && binding > 0,
		MaxStorageBufferBindingSize: binding,
		MaxTextureDimension2D:       l.MaxTextureDimension2D,
	}
}

// Surface is the drawable a backend presents to. Backends that need platform handles
// type-assert for them.
type Surface interface {
	Width() int
	Height() int
}

// BackendConfig carries the construction settings collected by the renderer builder options.
type BackendConfig struct {
	ForceFallbackAdapter bool
	SampleCount          MSAASampleCount
	Width                int
	Height               int

	// Capabilities overrides the reported device limits. Only honored by the headless backend.
	Capabilities *Capabilities
	// MemoryLimit caps the bytes the headless backend will allocate. Zero means unlimited.
	MemoryLimit uint64
}

// BackendFactory constructs a RendererBackend for a surface.
type BackendFactory func(surface Surface, config BackendConfig) (RendererBackend, error)

var (
	backendsMu sync.Mutex
	backends   = map[RendererBackendType]BackendFactory{
		BackendTypeHeadless: newHeadlessRendererBackend,
	}
)

// RegisterBackend makes a backend implementation available to NewRenderer. Registering the same
// type twice replaces the previous factory.
//
// Parameters:
//   - backendType: the backend type the factory serves
//   - factory: the constructor
func RegisterBackend(backendType RendererBackendType, factory BackendFactory) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[backendType] = factory
}

func lookupBackend(backendType RendererBackendType) (BackendFactory, bool) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	f, ok := backends[backendType]
	return f, ok
}

// RendererBackend is the API-specific half of the Renderer. Every resource it creates is stored
// on a BindGroupProvider or a Pipeline, and is released through them.
type RendererBackend interface {
	// Capabilities reports the device limits relevant to point storage.
	Capabilities() Capabilities

	// ConfigureSurface (re)creates the swapchain and the per-size attachments.
	ConfigureSurface(width, height int)

	// SetPresentMode sets the present mode used by the next ConfigureSurface.
	SetPresentMode(mode PresentMode)

	// RegisterRenderPipeline creates the backend pipeline object and stores it with p.SetHandle.
	RegisterRenderPipeline(p pipeline.Pipeline) error

	// InitMeshBuffers creates and fills the vertex and index buffers of provider.
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error

	// InitBindGroup creates the buffers named by descriptor that provider does not hold yet, then
	// the bind group itself. Texture bindings must be initialized with InitTextureView first.
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor shader.BindGroupLayoutDescriptor, bufferSizeOverrides map[int]uint64) error

	// InitTextureView creates a texture from staging data and stores its view at bindingKey.
	InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error

	// InitIndirectBuffer creates an indirect argument buffer holding data at binding 0 of provider.
	InitIndirectBuffer(provider bind_group_provider.BindGroupProvider, data []byte) error

	// WriteBuffers queues buffer writes.
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginFrame acquires the frame target and begins the main render pass.
	BeginFrame() error

	// DrawCallIndirect encodes one indexed indirect draw within the current render pass.
	DrawCallIndirect(p pipeline.Pipeline, meshProvider, indirectProvider bind_group_provider.BindGroupProvider, bindGroups []bind_group_provider.BindGroupProvider) error

	// EndFrame ends the render pass and submits the frame's commands.
	EndFrame()

	// Present presents the frame target.
	Present()

	// ReleasePipeline releases the backend object of a registered pipeline.
	ReleasePipeline(p pipeline.Pipeline)

	// Release releases the device and every attachment the backend owns.
	Release()
}
