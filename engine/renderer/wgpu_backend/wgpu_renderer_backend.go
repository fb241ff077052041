// Package wgpu_backend implements the renderer backend on WebGPU. Importing it registers
// renderer.BackendTypeWGPU.
package wgpu_backend

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-pointcloud/common"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/golang/glog"
)

func init() {
	renderer.RegisterBackend(renderer.BackendTypeWGPU, NewWGPURendererBackend)
}

// SurfaceDescriptorSource is implemented by windows that can describe their native surface.
type SurfaceDescriptorSource interface {
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
}

type wgpuRendererBackend struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	capabilities renderer.Capabilities

	surfaceFormat        *wgpu.TextureFormat
	msaaTexture          *textureResource
	depthTexture         *textureResource
	renderPassDescriptor *wgpu.RenderPassDescriptor

	presentMode wgpu.PresentMode // defaults to PresentModeImmediate (Uncapped)
	sampleCount renderer.MSAASampleCount

	// Frame state for batched rendering across multiple draw calls
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

// textureResource owns a texture and the view bound in its place.
type textureResource struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

func (t *textureResource) Release() {
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}

// pipelineHandle is stored on a pipeline.Pipeline by RegisterRenderPipeline.
type pipelineHandle struct {
	pipeline         *wgpu.RenderPipeline
	layout           *wgpu.PipelineLayout
	bindGroupLayouts []*wgpu.BindGroupLayout
	modules          []*wgpu.ShaderModule
}

func (h *pipelineHandle) Release() {
	if h.pipeline != nil {
		h.pipeline.Release()
	}
	if h.layout != nil {
		h.layout.Release()
	}
	for _, l := range h.bindGroupLayouts {
		if l != nil {
			l.Release()
		}
	}
	for _, m := range h.modules {
		m.Release()
	}
	*h = pipelineHandle{}
}

var _ renderer.RendererBackend = &wgpuRendererBackend{}

// NewWGPURendererBackend creates the WebGPU backend for a surface that implements
// SurfaceDescriptorSource. The calling goroutine is locked to its OS thread.
//
// Parameters:
//   - surface: the window to render to
//   - config: the settings collected by the renderer builder options
//
// Returns:
//   - renderer.RendererBackend: the backend
//   - error: an error if the surface is unsuitable or no adapter or device is available
func NewWGPURendererBackend(surface renderer.Surface, config renderer.BackendConfig) (renderer.RendererBackend, error) {
	source, ok := surface.(SurfaceDescriptorSource)
	if !ok {
		return nil, fmt.Errorf("surface %T does not provide a WebGPU surface descriptor", surface)
	}

	runtime.LockOSThread()
	w := &wgpuRendererBackend{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeImmediate,
		sampleCount: config.SampleCount,
	}
	w.surface = w.instance.CreateSurface(source.SurfaceDescriptor())

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: config.ForceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	w.adapter = a

	// Raise the storage and texture limits to what the adapter supports so large
	// clouds fit in a single binding.
	supported := a.GetLimits().Limits
	limits := wgpu.DefaultLimits()
	limits.MaxStorageBufferBindingSize = supported.MaxStorageBufferBindingSize
	limits.MaxBufferSize = supported.MaxBufferSize
	limits.MaxTextureDimension2D = supported.MaxTextureDimension2D
	limits.MaxStorageBuffersPerShaderStage = supported.MaxStorageBuffersPerShaderStage

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("request device: %w", err)
	}
	w.device = d
	w.queue = d.GetQueue()

	w.capabilities = renderer.DeviceLimits{
		MaxStorageBuffersPerShaderStage: limits.MaxStorageBuffersPerShaderStage,
		MaxStorageBufferBindingSize:     limits.MaxStorageBufferBindingSize,
		MaxBufferSize:                   limits.MaxBufferSize,
		MaxTextureDimension2D:           limits.MaxTextureDimension2D,
	}.Capabilities()
	glog.Infof("[WGPU] device ready: %+v", w.capabilities)
	return w, nil
}

func (b *wgpuRendererBackend) Capabilities() renderer.Capabilities {
	return b.capabilities
}

func (b *wgpuRendererBackend) ConfigureSurface(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = &capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      *b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	count := uint32(b.sampleCount)
	msaaEnabled := count > 1

	if b.msaaTexture != nil {
		b.msaaTexture.Release()
		b.msaaTexture = nil
	}
	var msaaView *wgpu.TextureView
	if msaaEnabled {
		// The render pass draws into the MSAA texture; the resolved
		// result is written to the swapchain view as the ResolveTarget.
		b.msaaTexture = b.createAttachment("MSAA Texture", width, height, count, *b.surfaceFormat)
		msaaView = b.msaaTexture.view
	}

	if b.depthTexture != nil {
		b.depthTexture.Release()
	}
	// Depth texture sample count must match the color attachment.
	b.depthTexture = b.createAttachment("Depth Texture", width, height, count, wgpu.TextureFormatDepth24Plus)

	storeOp := wgpu.StoreOpStore
	if msaaEnabled {
		storeOp = wgpu.StoreOpDiscard
	}
	b.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:          msaaView, // nil when MSAA is off; set in BeginFrame
				ResolveTarget: nil,      // set per-frame when MSAA is on
				LoadOp:        wgpu.LoadOpClear,
				StoreOp:       storeOp,
				ClearValue: wgpu.Color{
					R: 0.1, G: 0.1, B: 0.1, A: 1.0,
				},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthTexture.view,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	}
}

// createAttachment creates a render attachment. Failure here leaves no usable frame target,
// so it panics like the rest of surface setup.
func (b *wgpuRendererBackend) createAttachment(label string, width, height int, sampleCount uint32, format wgpu.TextureFormat) *textureResource {
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   sampleCount,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		panic(err)
	}
	return &textureResource{texture: tex, view: view}
}

func (b *wgpuRendererBackend) SetPresentMode(mode renderer.PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case renderer.PresentModeVSync:
		b.presentMode = wgpu.PresentModeFifo
	case renderer.PresentModeUncapped:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeImmediate
	}
}

func (b *wgpuRendererBackend) RegisterRenderPipeline(p pipeline.Pipeline) error {
	if p.Shader(shader.ShaderTypeVertex) == nil || p.Shader(shader.ShaderTypeFragment) == nil {
		return errors.New("both vertex and fragment shaders must be set to create a render pipeline")
	}

	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)
	handle := &pipelineHandle{}

	fail := func(err error) error {
		handle.Release()
		return err
	}

	vs, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: vertexShader.Key(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: vertexShader.Source(),
		},
	})
	if err != nil {
		return fail(err)
	}
	handle.modules = append(handle.modules, vs)
	fs, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: fragmentShader.Key(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: fragmentShader.Source(),
		},
	})
	if err != nil {
		return fail(err)
	}
	handle.modules = append(handle.modules, fs)

	merged := p.BindGroupLayoutDescriptors()
	maxGroup := -1
	for g := range merged {
		maxGroup = max(maxGroup, g)
	}
	handle.bindGroupLayouts = make([]*wgpu.BindGroupLayout, maxGroup+1)
	for g, desc := range merged {
		native := toBindGroupLayoutDescriptor(desc)
		layout, layoutErr := b.device.CreateBindGroupLayout(&native)
		if layoutErr != nil {
			return fail(fmt.Errorf("failed to create bind group layout for group %d: %w", g, layoutErr))
		}
		handle.bindGroupLayouts[g] = layout
	}

	handle.layout, err = b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: handle.bindGroupLayouts,
	})
	if err != nil {
		return fail(err)
	}

	colorTarget := wgpu.ColorTargetState{
		Format:    *b.surfaceFormat,
		WriteMask: wgpu.ColorWriteMaskAll,
	}
	if p.BlendEnabled() {
		colorTarget.Blend = &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		}
	}

	depthCompare := wgpu.CompareFunctionLess
	if !p.DepthTestEnabled() {
		depthCompare = wgpu.CompareFunctionAlways
	}

	handle.pipeline, err = b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: handle.layout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.EntryPoint(),
			Buffers:    toVertexBufferLayouts(p.VertexLayouts()),
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fragmentShader.EntryPoint(),
			Targets:    []wgpu.ColorTargetState{colorTarget},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  toTopology(p.Topology()),
			FrontFace: toFrontFace(p.FrontFace()),
			CullMode:  toCullMode(p.CullMode()),
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(b.sampleCount),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: p.DepthWriteEnabled(),
			DepthCompare:      depthCompare,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return fail(err)
	}

	p.SetHandle(handle)
	return nil
}

func (b *wgpuRendererBackend) ReleasePipeline(p pipeline.Pipeline) {
	if h, ok := p.Handle().(*pipelineHandle); ok && h != nil {
		h.Release()
	}
	p.SetHandle(nil)
}

func (b *wgpuRendererBackend) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(vertexData) > 0 {
		buf, err := b.createBuffer(provider.Label()+" Vertex Buffer", uint64(len(vertexData)), wgpu.BufferUsageVertex|wgpu.BufferUsageCopyDst, vertexData)
		if err != nil {
			return err
		}
		provider.SetVertexBuffer(buf)
	}

	if len(indexData) > 0 {
		buf, err := b.createBuffer(provider.Label()+" Index Buffer", uint64(len(indexData)), wgpu.BufferUsageIndex|wgpu.BufferUsageCopyDst, indexData)
		if err != nil {
			return err
		}
		provider.SetIndexBuffer(buf)
	}

	provider.SetIndexCount(indexCount)
	return nil
}

// createBuffer creates a buffer and queues its initial contents. The caller must hold mu.
func (b *wgpuRendererBackend) createBuffer(label string, size uint64, usage wgpu.BufferUsage, data []byte) (*wgpu.Buffer, error) {
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             size,
		Usage:            usage,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		b.queue.WriteBuffer(buf, 0, data)
	}
	return buf, nil
}

func (b *wgpuRendererBackend) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor shader.BindGroupLayoutDescriptor, bufferSizeOverrides map[int]uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(descriptor.Entries) == 0 {
		return nil
	}

	layout, _ := provider.BindGroupLayout().(*wgpu.BindGroupLayout)
	if layout == nil {
		native := toBindGroupLayoutDescriptor(descriptor)
		native.Label = provider.Label() + " Bind Group Layout"
		var err error
		layout, err = b.device.CreateBindGroupLayout(&native)
		if err != nil {
			return err
		}
		provider.SetBindGroupLayout(layout)
	}

	bindGroupEntries := make([]wgpu.BindGroupEntry, len(descriptor.Entries))
	for i, entry := range descriptor.Entries {
		binding := int(entry.Binding)

		if !entry.Type.IsBuffer() {
			tv, ok := provider.TextureView(binding).(*textureResource)
			if !ok || tv.view == nil {
				return fmt.Errorf("texture binding %d has no texture view, call InitTextureView first", binding)
			}
			bindGroupEntries[i] = wgpu.BindGroupEntry{
				Binding:     entry.Binding,
				TextureView: tv.view,
			}
			continue
		}

		usage := wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
		if entry.Type == shader.BindingTypeUniform {
			usage = wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
		}

		buf, _ := provider.Buffer(binding).(*wgpu.Buffer)
		if buf == nil {
			bufSize := entry.MinBindingSize
			if overrideSize, ok := bufferSizeOverrides[binding]; ok {
				bufSize = overrideSize
			}
			if entry.Type == shader.BindingTypeReadOnlyStorage && bufSize > b.capabilities.MaxStorageBufferBindingSize {
				return fmt.Errorf("storage binding %d: %d bytes exceeds device limit %d", binding, bufSize, b.capabilities.MaxStorageBufferBindingSize)
			}
			var err error
			buf, err = b.createBuffer(provider.Label()+" Buffer", bufSize, usage, nil)
			if err != nil {
				return err
			}
			provider.SetBuffer(binding, buf)
		}
		bindGroupEntries[i] = wgpu.BindGroupEntry{
			Binding: entry.Binding,
			Buffer:  buf,
			Offset:  0,
			Size:    wgpu.WholeSize,
		}
	}

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label() + " Bind Group",
		Layout:  layout,
		Entries: bindGroupEntries,
	})
	if err != nil {
		return err
	}
	if old := provider.BindGroup(); old != nil {
		old.Release()
	}
	provider.SetBindGroup(bindGroup)

	return nil
}

func (b *wgpuRendererBackend) InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	format := wgpu.TextureFormatRGBA8Unorm
	if stagingData.Format == common.TexelFormatRGBA32Float {
		format = wgpu.TextureFormatRGBA32Float
	}

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     provider.Label() + " Texture",
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              stagingData.Width,
			Height:             stagingData.Height,
			DepthOrArrayLayers: 1,
		},
		Format:        format,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return err
	}

	// Only the rows holding data are uploaded; the rest of the texture stays zeroed.
	if rows := stagingData.Rows(); rows > 0 {
		b.queue.WriteTexture(
			&wgpu.ImageCopyTexture{
				Texture:  tex,
				MipLevel: 0,
				Origin:   wgpu.Origin3D{},
				Aspect:   wgpu.TextureAspectAll,
			},
			stagingData.Texels,
			&wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  stagingData.BytesPerRow(),
				RowsPerImage: rows,
			},
			&wgpu.Extent3D{
				Width:              stagingData.Width,
				Height:             rows,
				DepthOrArrayLayers: 1,
			},
		)
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return err
	}
	provider.SetTextureView(bindingKey, &textureResource{texture: tex, view: view})

	return nil
}

func (b *wgpuRendererBackend) InitIndirectBuffer(provider bind_group_provider.BindGroupProvider, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	buf, err := b.createBuffer(provider.Label()+" Indirect Buffer", uint64(len(data)), wgpu.BufferUsageIndirect|wgpu.BufferUsageCopyDst, data)
	if err != nil {
		return err
	}
	provider.SetBuffer(0, buf)
	return nil
}

func (b *wgpuRendererBackend) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range writes {
		if w.Provider == nil {
			continue
		}
		buf, _ := w.Provider.Buffer(w.Binding).(*wgpu.Buffer)
		if buf == nil {
			continue
		}
		if w.End() > buf.GetSize() {
			glog.Warningf("[WGPU] write of %d bytes at %d overruns %s, skipped", len(w.Data), w.Offset, w.Provider.Label())
			continue
		}
		b.queue.WriteBuffer(buf, w.Offset, w.Data)
	}
}

func (b *wgpuRendererBackend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// A previous frame's surface texture that is still held must be presented first,
	// otherwise wgpu-native reports "Surface image is already acquired".
	if b.frameSurface != nil {
		return fmt.Errorf("previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	if b.sampleCount > 1 {
		b.renderPassDescriptor.ColorAttachments[0].ResolveTarget = view
	} else {
		b.renderPassDescriptor.ColorAttachments[0].View = view
	}
	pass := encoder.BeginRenderPass(b.renderPassDescriptor)

	b.frameEncoder = encoder
	b.framePass = pass
	b.frameSurface = surfaceTexture
	b.frameView = view

	return nil
}

func (b *wgpuRendererBackend) DrawCallIndirect(
	p pipeline.Pipeline,
	meshProvider bind_group_provider.BindGroupProvider,
	indirectProvider bind_group_provider.BindGroupProvider,
	bindGroups []bind_group_provider.BindGroupProvider,
) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return errors.New("draw outside of a frame")
	}
	handle, ok := p.Handle().(*pipelineHandle)
	if !ok || handle.pipeline == nil {
		return fmt.Errorf("pipeline %q is not registered", p.PipelineKey())
	}
	vertexBuffer, _ := meshProvider.VertexBuffer().(*wgpu.Buffer)
	indexBuffer, _ := meshProvider.IndexBuffer().(*wgpu.Buffer)
	indirectBuffer, _ := indirectProvider.Buffer(0).(*wgpu.Buffer)
	if vertexBuffer == nil || indexBuffer == nil || indirectBuffer == nil {
		return fmt.Errorf("draw of %q references released buffers", p.PipelineKey())
	}

	b.framePass.SetPipeline(handle.pipeline)
	for i, bg := range bindGroups {
		group, _ := bg.BindGroup().(*wgpu.BindGroup)
		if group == nil {
			return fmt.Errorf("bind group %d (%s) is not initialized", i, bg.Label())
		}
		b.framePass.SetBindGroup(uint32(i), group, nil)
	}

	b.framePass.SetVertexBuffer(0, vertexBuffer, 0, wgpu.WholeSize)
	b.framePass.SetIndexBuffer(indexBuffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	b.framePass.DrawIndexedIndirect(indirectBuffer, 0)
	return nil
}

func (b *wgpuRendererBackend) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return
	}
	b.framePass.End()

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		glog.Errorf("[WGPU] finish frame: %v", err)
		b.frameEncoder.Release()
		b.frameView.Release()
		b.frameSurface.Release()
		b.frameEncoder = nil
		b.framePass = nil
		b.frameSurface = nil
		b.frameView = nil
		return
	}

	b.queue.Submit(commandBuffer)

	commandBuffer.Release()
	b.frameEncoder.Release()
	b.frameEncoder = nil
	b.framePass = nil
}

func (b *wgpuRendererBackend) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}

	b.surface.Present()

	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	b.frameSurface.Release()
	b.frameSurface = nil
}

func (b *wgpuRendererBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.msaaTexture != nil {
		b.msaaTexture.Release()
		b.msaaTexture = nil
	}
	if b.depthTexture != nil {
		b.depthTexture.Release()
		b.depthTexture = nil
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}
