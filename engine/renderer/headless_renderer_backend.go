package renderer

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-pointcloud/common"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/drawbatch"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/renderer/shader"
	"github.com/golang/glog"
)

// ErrOutOfMemory is returned by the headless backend when an allocation would exceed its memory limit.
var ErrOutOfMemory = errors.New("headless backend: out of memory")

// DefaultHeadlessCapabilities are the limits the headless backend reports unless overridden.
var DefaultHeadlessCapabilities = Capabilities{
	StorageBuffersInVertexStage: true,
	MaxStorageBufferBindingSize: 128 << 20,
	MaxTextureDimension2D:       8192,
}

// ResourceKind classifies a headless resource.
type ResourceKind int

const (
	// ResourceKindBuffer is a buffer of any usage.
	ResourceKindBuffer ResourceKind = iota
	// ResourceKindTexture is a texture.
	ResourceKindTexture
	// ResourceKindBindGroup is a bind group.
	ResourceKindBindGroup
	// ResourceKindBindGroupLayout is a bind group layout.
	ResourceKindBindGroupLayout
	// ResourceKindPipeline is a registered render pipeline.
	ResourceKindPipeline
)

func (k ResourceKind) String() string {
	switch k {
	case ResourceKindBuffer:
		return "buffer"
	case ResourceKindTexture:
		return "texture"
	case ResourceKindBindGroup:
		return "bind-group"
	case ResourceKindBindGroupLayout:
		return "bind-group-layout"
	case ResourceKindPipeline:
		return "pipeline"
	default:
		return fmt.Sprintf("ResourceKind(%d)", int(k))
	}
}

// DrawRecord is one draw encoded by the headless backend, with the argument block as it was in
// the indirect buffer at encode time.
type DrawRecord struct {
	PipelineKey string
	Args        drawbatch.GPUIndirectArgs
	IndexCount  int
	BindGroups  []string
}

// HeadlessBackend exposes the bookkeeping of the headless backend. Obtain it by type-asserting
// Renderer.Backend().
type HeadlessBackend interface {
	RendererBackend

	// LiveResources returns the number of resources created and not yet released.
	LiveResources() int

	// LiveBytes returns the bytes held by live buffers and textures.
	LiveBytes() uint64

	// LiveResourceLabels returns "kind:label" for every live resource, sorted.
	LiveResourceLabels() []string

	// BufferData returns a copy of a live buffer's contents, or nil if res is not a live buffer.
	BufferData(res bind_group_provider.Resource) []byte

	// TextureData returns a copy of a live texture's contents. Ok is false if res is not a live
	// texture view.
	TextureData(res bind_group_provider.Resource) (data common.TextureStagingData, ok bool)

	// WriteCount returns how many WriteBuffers entries have landed in res.
	WriteCount(res bind_group_provider.Resource) int

	// Draws returns the draws recorded since the last ResetDraws.
	Draws() []DrawRecord

	// ResetDraws clears the recorded draws.
	ResetDraws()

	// Frames returns the number of frames ended.
	Frames() int
}

type headlessResource struct {
	backend  *headlessRendererBackend
	id       uint64
	kind     ResourceKind
	label    string
	size     uint64
	data     []byte
	texture  common.TextureStagingData
	writes   int
	released bool
}

func (r *headlessResource) Release() {
	r.backend.release(r)
}

type headlessRendererBackend struct {
	mu          *sync.Mutex
	caps        Capabilities
	memoryLimit uint64
	sampleCount MSAASampleCount
	presentMode PresentMode

	width, height int

	nextID    uint64
	live      map[uint64]*headlessResource
	liveBytes uint64

	inFrame bool
	frames  int
	draws   []DrawRecord
}

var _ HeadlessBackend = &headlessRendererBackend{}

func newHeadlessRendererBackend(_ Surface, config BackendConfig) (RendererBackend, error) {
	b := &headlessRendererBackend{
		mu:          &sync.Mutex{},
		caps:        DefaultHeadlessCapabilities,
		memoryLimit: config.MemoryLimit,
		sampleCount: config.SampleCount,
		live:        make(map[uint64]*headlessResource),
	}
	if config.Capabilities != nil {
		b.caps = *config.Capabilities
	}
	return b, nil
}

// allocate registers a new resource. The caller must hold mu.
func (b *headlessRendererBackend) allocate(kind ResourceKind, label string, size uint64) (*headlessResource, error) {
	if b.memoryLimit > 0 && b.liveBytes+size > b.memoryLimit {
		return nil, fmt.Errorf("%w: %s %q needs %d bytes, %d of %d in use",
			ErrOutOfMemory, kind, label, size, b.liveBytes, b.memoryLimit)
	}
	b.nextID++
	r := &headlessResource{backend: b, id: b.nextID, kind: kind, label: label, size: size}
	if kind == ResourceKindBuffer {
		r.data = make([]byte, size)
	}
	b.live[r.id] = r
	b.liveBytes += size
	return r, nil
}

func (b *headlessRendererBackend) release(r *headlessResource) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.releaseLocked(r)
}

// releaseLocked is release with mu already held.
func (b *headlessRendererBackend) releaseLocked(r *headlessResource) {
	if r.released {
		glog.Warningf("[Headless] %s %q released twice", r.kind, r.label)
		return
	}
	r.released = true
	delete(b.live, r.id)
	b.liveBytes -= r.size
	r.data = nil
	r.texture.Texels = nil
}

// lookup returns res as a live headless resource of the given kind. The caller must hold mu.
func (b *headlessRendererBackend) lookup(res any, kind ResourceKind) (*headlessResource, bool) {
	r, ok := res.(*headlessResource)
	if !ok || r == nil || r.released || r.backend != b || r.kind != kind {
		return nil, false
	}
	return r, true
}

func (b *headlessRendererBackend) Capabilities() Capabilities {
	return b.caps
}

func (b *headlessRendererBackend) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.width, b.height = width, height
}

func (b *headlessRendererBackend) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.presentMode = mode
}

func (b *headlessRendererBackend) RegisterRenderPipeline(p pipeline.Pipeline) error {
	if p.Shader(shader.ShaderTypeVertex) == nil || p.Shader(shader.ShaderTypeFragment) == nil {
		return errors.New("both vertex and fragment shaders must be set to create a render pipeline")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	r, err := b.allocate(ResourceKindPipeline, p.PipelineKey(), 0)
	if err != nil {
		return err
	}
	p.SetHandle(r)
	return nil
}

func (b *headlessRendererBackend) ReleasePipeline(p pipeline.Pipeline) {
	if r, ok := p.Handle().(*headlessResource); ok && r != nil {
		r.Release()
	}
	p.SetHandle(nil)
}

func (b *headlessRendererBackend) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(vertexData) > 0 {
		buf, err := b.allocate(ResourceKindBuffer, provider.Label()+" Vertex Buffer", uint64(len(vertexData)))
		if err != nil {
			return err
		}
		copy(buf.data, vertexData)
		provider.SetVertexBuffer(buf)
	}
	if len(indexData) > 0 {
		buf, err := b.allocate(ResourceKindBuffer, provider.Label()+" Index Buffer", uint64(len(indexData)))
		if err != nil {
			return err
		}
		copy(buf.data, indexData)
		provider.SetIndexBuffer(buf)
	}
	provider.SetIndexCount(indexCount)
	return nil
}

func (b *headlessRendererBackend) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor shader.BindGroupLayoutDescriptor, bufferSizeOverrides map[int]uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(descriptor.Entries) == 0 {
		return nil
	}

	for _, entry := range descriptor.Entries {
		binding := int(entry.Binding)
		if !entry.Type.IsBuffer() {
			if _, ok := b.lookup(provider.TextureView(binding), ResourceKindTexture); !ok {
				return fmt.Errorf("texture binding %d has no texture view, call InitTextureView first", binding)
			}
			continue
		}
		if provider.Buffer(binding) != nil {
			continue
		}
		size := entry.MinBindingSize
		if override, ok := bufferSizeOverrides[binding]; ok {
			size = override
		}
		if entry.Type == shader.BindingTypeReadOnlyStorage && size > b.caps.MaxStorageBufferBindingSize {
			return fmt.Errorf("storage binding %d: %d bytes exceeds device limit %d", binding, size, b.caps.MaxStorageBufferBindingSize)
		}
		buf, err := b.allocate(ResourceKindBuffer, provider.Label()+" Buffer", size)
		if err != nil {
			return err
		}
		provider.SetBuffer(binding, buf)
	}

	if provider.BindGroupLayout() == nil {
		layout, err := b.allocate(ResourceKindBindGroupLayout, provider.Label()+" Bind Group Layout", 0)
		if err != nil {
			return err
		}
		provider.SetBindGroupLayout(layout)
	}
	if old, ok := provider.BindGroup().(*headlessResource); ok && old != nil {
		b.releaseLocked(old)
	}
	bg, err := b.allocate(ResourceKindBindGroup, provider.Label()+" Bind Group", 0)
	if err != nil {
		return err
	}
	provider.SetBindGroup(bg)
	return nil
}

func (b *headlessRendererBackend) InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	maxDim := b.caps.MaxTextureDimension2D
	if stagingData.Width == 0 || stagingData.Height == 0 || stagingData.Width > maxDim || stagingData.Height > maxDim {
		return fmt.Errorf("texture %dx%d outside device limit %d", stagingData.Width, stagingData.Height, maxDim)
	}
	size := uint64(stagingData.BytesPerRow()) * uint64(stagingData.Height)
	if uint64(len(stagingData.Texels)) > size {
		return fmt.Errorf("texture data of %d bytes does not fit %dx%d %s", len(stagingData.Texels), stagingData.Width, stagingData.Height, stagingData.Format)
	}
	tex, err := b.allocate(ResourceKindTexture, provider.Label()+" Texture", size)
	if err != nil {
		return err
	}
	tex.texture = stagingData
	tex.texture.Texels = make([]byte, size)
	copy(tex.texture.Texels, stagingData.Texels)
	provider.SetTextureView(bindingKey, tex)
	return nil
}

func (b *headlessRendererBackend) InitIndirectBuffer(provider bind_group_provider.BindGroupProvider, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	buf, err := b.allocate(ResourceKindBuffer, provider.Label()+" Indirect Buffer", uint64(len(data)))
	if err != nil {
		return err
	}
	copy(buf.data, data)
	provider.SetBuffer(0, buf)
	return nil
}

func (b *headlessRendererBackend) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range writes {
		if w.Provider == nil {
			continue
		}
		buf, ok := b.lookup(w.Provider.Buffer(w.Binding), ResourceKindBuffer)
		if !ok {
			continue
		}
		if w.End() > buf.size {
			glog.Warningf("[Headless] write of %d bytes at %d overruns %q (%d bytes), skipped", len(w.Data), w.Offset, buf.label, buf.size)
			continue
		}
		copy(buf.data[w.Offset:], w.Data)
		buf.writes++
	}
}

func (b *headlessRendererBackend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inFrame {
		return fmt.Errorf("previous frame surface not yet presented")
	}
	b.inFrame = true
	return nil
}

func (b *headlessRendererBackend) DrawCallIndirect(p pipeline.Pipeline, meshProvider, indirectProvider bind_group_provider.BindGroupProvider, bindGroups []bind_group_provider.BindGroupProvider) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.inFrame {
		return errors.New("draw outside of a frame")
	}
	if _, ok := b.lookup(p.Handle(), ResourceKindPipeline); !ok {
		return fmt.Errorf("pipeline %q is not registered", p.PipelineKey())
	}
	if _, ok := b.lookup(meshProvider.VertexBuffer(), ResourceKindBuffer); !ok {
		return fmt.Errorf("mesh %q has no live vertex buffer", meshProvider.Label())
	}
	if _, ok := b.lookup(meshProvider.IndexBuffer(), ResourceKindBuffer); !ok {
		return fmt.Errorf("mesh %q has no live index buffer", meshProvider.Label())
	}
	args, ok := b.lookup(indirectProvider.Buffer(0), ResourceKindBuffer)
	if !ok || args.size < drawbatch.GPUIndirectArgsSize {
		return fmt.Errorf("%q has no live indirect argument buffer", indirectProvider.Label())
	}
	if want := len(p.BindGroupLayoutDescriptors()); len(bindGroups) != want {
		return fmt.Errorf("pipeline %q expects %d bind groups, got %d", p.PipelineKey(), want, len(bindGroups))
	}

	record := DrawRecord{
		PipelineKey: p.PipelineKey(),
		Args:        drawbatch.UnmarshalGPUIndirectArgs(args.data),
		IndexCount:  meshProvider.IndexCount(),
	}
	for i, bg := range bindGroups {
		r, ok := b.lookup(bg.BindGroup(), ResourceKindBindGroup)
		if !ok {
			return fmt.Errorf("bind group %d (%q) is not live", i, bg.Label())
		}
		record.BindGroups = append(record.BindGroups, r.label)
	}
	b.draws = append(b.draws, record)
	return nil
}

func (b *headlessRendererBackend) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inFrame {
		b.frames++
	}
}

func (b *headlessRendererBackend) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inFrame = false
}

func (b *headlessRendererBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n := len(b.live); n > 0 {
		glog.V(1).Infof("[Headless] released with %d live resources", n)
	}
}

func (b *headlessRendererBackend) LiveResources() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.live)
}

func (b *headlessRendererBackend) LiveBytes() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.liveBytes
}

func (b *headlessRendererBackend) LiveResourceLabels() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	labels := make([]string, 0, len(b.live))
	for _, r := range b.live {
		labels = append(labels, r.kind.String()+":"+r.label)
	}
	sort.Strings(labels)
	return labels
}

func (b *headlessRendererBackend) BufferData(res bind_group_provider.Resource) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.lookup(res, ResourceKindBuffer)
	if !ok {
		return nil
	}
	return append([]byte(nil), r.data...)
}

func (b *headlessRendererBackend) TextureData(res bind_group_provider.Resource) (common.TextureStagingData, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.lookup(res, ResourceKindTexture)
	if !ok {
		return common.TextureStagingData{}, false
	}
	out := r.texture
	out.Texels = append([]byte(nil), r.texture.Texels...)
	return out, true
}

func (b *headlessRendererBackend) WriteCount(res bind_group_provider.Resource) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.lookup(res, ResourceKindBuffer)
	if !ok {
		return 0
	}
	return r.writes
}

func (b *headlessRendererBackend) Draws() []DrawRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]DrawRecord(nil), b.draws...)
}

func (b *headlessRendererBackend) ResetDraws() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.draws = nil
}

func (b *headlessRendererBackend) Frames() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames
}
