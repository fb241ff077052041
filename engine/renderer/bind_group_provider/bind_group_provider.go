package bind_group_provider

// Resource is a device object owned by a provider. Backends hand out their own concrete types
// (GPU buffers, texture views, bind groups); the provider only needs to release them.
type Resource interface {
	Release()
}

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// The following fields are device resources populated by the Renderer during initialization, not by user-creation.

	// bindGroup is the bind group created for this provider, or nil if not initialized with the Renderer.
	bindGroup Resource
	// bindGroupLayout is the layout the bind group was created against, or nil if not initialized.
	bindGroupLayout Resource
	// buffers holds the buffers created for this provider, keyed by binding index.
	buffers map[int]Resource
	// textureViews holds the texture views created for this provider, keyed by binding index.
	textureViews map[int]Resource

	// The following fields are specific to mesh providers.

	// vertexBuffer is the vertex buffer created for this provider, or nil if not initialized with the Renderer.
	vertexBuffer Resource
	// indexBuffer is the index buffer created for this provider, or nil if not initialized with the Renderer.
	indexBuffer Resource
	// indexCount is the number of indices in the index buffer.
	indexCount int
}

// BindGroupProvider defines the interface for components that require device bind group resources.
// Components (the quad tile, the point store, the point material) hold a BindGroupProvider to
// describe their binding requirements. The Renderer then uses this provider to create and update
// the device resources.
//
// Usage pattern:
//  1. Component creates a BindGroupProvider with a label
//  2. Renderer.InitMeshBuffers / InitTextureView / InitBindGroup / InitIndirectBuffer populate it
//  3. Renderer.WriteBuffers updates buffer contents by binding
//  4. Renderer.DrawCallIndirect reads the bind group and buffers for the draw
//  5. Component calls Release when done
type BindGroupProvider interface {
	// Release releases every resource held by this provider. Calling it again is a no-op.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Initialized reports whether the provider holds a bind group or mesh buffers.
	Initialized() bool

	// BindGroup returns the created bind group for shader binding, or nil.
	BindGroup() Resource

	// BindGroupLayout returns the layout the bind group was created with, or nil.
	BindGroupLayout() Resource

	// Buffer returns the buffer at a binding, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - Resource: the buffer or nil
	Buffer(binding int) Resource

	// Buffers returns all buffers keyed by binding index.
	Buffers() map[int]Resource

	// TextureView returns the texture view at a binding, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - Resource: the texture view or nil
	TextureView(binding int) Resource

	// TextureViews returns all texture views keyed by binding index.
	TextureViews() map[int]Resource

	// VertexBuffer returns the vertex buffer, or nil.
	VertexBuffer() Resource

	// IndexBuffer returns the index buffer, or nil.
	IndexBuffer() Resource

	// IndexCount returns the number of indices for draw calls.
	IndexCount() int

	// SetBindGroup stores the bind group. Called by the renderer backend.
	SetBindGroup(bg Resource)

	// SetBindGroupLayout stores the bind group layout. Called by the renderer backend.
	SetBindGroupLayout(bgl Resource)

	// SetBuffer stores a buffer at a binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the created buffer
	SetBuffer(binding int, buf Resource)

	// SetTextureView stores a texture view at a binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - tv: the texture view
	SetTextureView(binding int, tv Resource)

	// SetVertexBuffer stores the vertex buffer.
	SetVertexBuffer(buf Resource)

	// SetIndexBuffer stores the index buffer.
	SetIndexBuffer(buf Resource)

	// SetIndexCount sets the number of indices for draw calls.
	SetIndexCount(count int)
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider with the provided options.
//
// Parameters:
//   - label: the debug label, used to name device resources
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new instance of BindGroupProvider configured with the provided options
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:        label,
		buffers:      make(map[int]Resource),
		textureViews: make(map[int]Resource),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) Initialized() bool {
	return p.bindGroup != nil || p.vertexBuffer != nil || p.indexBuffer != nil || len(p.buffers) > 0
}

func (p *bindGroupProvider) BindGroup() Resource {
	return p.bindGroup
}

func (p *bindGroupProvider) BindGroupLayout() Resource {
	return p.bindGroupLayout
}

func (p *bindGroupProvider) Buffer(binding int) Resource {
	return p.buffers[binding]
}

func (p *bindGroupProvider) Buffers() map[int]Resource {
	return p.buffers
}

func (p *bindGroupProvider) TextureView(binding int) Resource {
	return p.textureViews[binding]
}

func (p *bindGroupProvider) TextureViews() map[int]Resource {
	return p.textureViews
}

func (p *bindGroupProvider) VertexBuffer() Resource {
	return p.vertexBuffer
}

func (p *bindGroupProvider) IndexBuffer() Resource {
	return p.indexBuffer
}

func (p *bindGroupProvider) IndexCount() int {
	return p.indexCount
}

func (p *bindGroupProvider) SetBindGroup(bg Resource) {
	p.bindGroup = bg
}

func (p *bindGroupProvider) SetBindGroupLayout(bgl Resource) {
	p.bindGroupLayout = bgl
}

func (p *bindGroupProvider) SetBuffer(binding int, buf Resource) {
	if p.buffers == nil {
		p.buffers = make(map[int]Resource)
	}
	p.buffers[binding] = buf
}

func (p *bindGroupProvider) SetTextureView(binding int, tv Resource) {
	if p.textureViews == nil {
		p.textureViews = make(map[int]Resource)
	}
	p.textureViews[binding] = tv
}

func (p *bindGroupProvider) SetVertexBuffer(buf Resource) {
	p.vertexBuffer = buf
}

func (p *bindGroupProvider) SetIndexBuffer(buf Resource) {
	p.indexBuffer = buf
}

func (p *bindGroupProvider) SetIndexCount(count int) {
	p.indexCount = count
}

func (p *bindGroupProvider) Release() {
	// The bind group references the buffers and views, so it goes first.
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.bindGroupLayout != nil {
		p.bindGroupLayout.Release()
		p.bindGroupLayout = nil
	}
	for i, tv := range p.textureViews {
		if tv != nil {
			tv.Release()
		}
		delete(p.textureViews, i)
	}
	for i, buf := range p.buffers {
		if buf != nil {
			buf.Release()
		}
		delete(p.buffers, i)
	}
	if p.vertexBuffer != nil {
		p.vertexBuffer.Release()
		p.vertexBuffer = nil
	}
	if p.indexBuffer != nil {
		p.indexBuffer.Release()
		p.indexBuffer = nil
	}
	p.indexCount = 0
}
