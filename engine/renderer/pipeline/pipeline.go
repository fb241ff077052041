package pipeline

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-pointcloud/engine/renderer/shader"
)

// CullMode selects which triangle faces are discarded.
type CullMode int

const (
	// CullModeNone draws both faces. Point quads use it.
	CullModeNone CullMode = iota
	// CullModeFront discards front-facing triangles.
	CullModeFront
	// CullModeBack discards back-facing triangles.
	CullModeBack
)

// Topology is the primitive topology of a render pipeline.
type Topology int

const (
	// TopologyTriangleList reads every three indices as a separate triangle.
	TopologyTriangleList Topology = iota
	// TopologyTriangleStrip shares two vertices between consecutive triangles.
	TopologyTriangleStrip
)

// FrontFace is the winding order of front-facing triangles.
type FrontFace int

const (
	// FrontFaceCCW treats counter-clockwise triangles as front facing.
	FrontFaceCCW FrontFace = iota
	// FrontFaceCW treats clockwise triangles as front facing.
	FrontFaceCW
)

// pipeline is the implementation of the Pipeline interface.
// It holds the backend pipeline object and the fixed-function state used to create it.
type pipeline struct {
	mu *sync.Mutex
	// pipelineKey is the unique identifier for this pipeline, used for caching and lookups
	pipelineKey string

	vertexShader, fragmentShader shader.Shader

	// handle is the backend pipeline object, set by the renderer backend on registration
	handle any

	depthTestEnabled  bool
	depthWriteEnabled bool
	blendEnabled      bool
	cullMode          CullMode
	topology          Topology
	frontFace         FrontFace
}

// Pipeline defines the interface for a render pipeline: a vertex and fragment shader pair plus
// the depth, blend, cull and topology state required to create the backend pipeline object.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline, used for caching and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader retrieves the shader associated with the specified type if it exists, nil otherwise.
	//
	// Parameters:
	//   - shaderType: the type of shader to retrieve (vertex or fragment)
	//
	// Returns:
	//   - shader.Shader: the shader associated with the specified type, or nil if not set
	Shader(shaderType shader.ShaderType) shader.Shader

	// BindGroupLayoutDescriptors returns the layouts of both stages merged by group.
	//
	// Returns:
	//   - map[int]shader.BindGroupLayoutDescriptor: the merged layouts keyed by group index
	BindGroupLayoutDescriptors() map[int]shader.BindGroupLayoutDescriptor

	// VertexLayouts returns the vertex buffer layouts of the vertex stage.
	VertexLayouts() []shader.VertexBufferLayout

	// Handle returns the backend pipeline object, or nil if the pipeline has not been registered.
	// The caller is responsible for type asserting the returned value.
	//
	// Returns:
	//   - any: the backend pipeline object
	Handle() any

	// SetHandle sets the backend pipeline object.
	//
	// Parameters:
	//   - h: the backend pipeline object
	SetHandle(h any)

	// DepthTestEnabled returns whether depth testing is enabled for this pipeline.
	DepthTestEnabled() bool

	// DepthWriteEnabled returns whether depth writing is enabled for this pipeline.
	DepthWriteEnabled() bool

	// BlendEnabled returns whether source-alpha blending is enabled for this pipeline.
	BlendEnabled() bool

	// CullMode returns the cull mode configured for this pipeline.
	CullMode() CullMode

	// Topology returns the primitive topology configured for this pipeline.
	Topology() Topology

	// FrontFace returns the front face winding order configured for this pipeline.
	FrontFace() FrontFace
}

var _ Pipeline = &pipeline{}

// NewPipeline is the entry point to create a new render Pipeline.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified configuration
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		mu:                &sync.Mutex{},
		pipelineKey:       pipelineKey,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		blendEnabled:      false,
		cullMode:          CullModeNone,
		topology:          TopologyTriangleList,
		frontFace:         FrontFaceCCW,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	default:
		return nil
	}
}

func (p *pipeline) BindGroupLayoutDescriptors() map[int]shader.BindGroupLayoutDescriptor {
	var vs, fs map[int]shader.BindGroupLayoutDescriptor
	if p.vertexShader != nil {
		vs = p.vertexShader.BindGroupLayoutDescriptors()
	}
	if p.fragmentShader != nil {
		fs = p.fragmentShader.BindGroupLayoutDescriptors()
	}
	return shader.MergeBindGroupLayouts(vs, fs)
}

func (p *pipeline) VertexLayouts() []shader.VertexBufferLayout {
	if p.vertexShader == nil {
		return nil
	}
	return p.vertexShader.VertexLayouts()
}

func (p *pipeline) Handle() any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handle
}

func (p *pipeline) SetHandle(h any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handle = h
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() Topology {
	return p.topology
}

func (p *pipeline) FrontFace() FrontFace {
	return p.frontFace
}
