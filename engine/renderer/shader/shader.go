package shader

import (
	"fmt"
	"maps"

	"github.com/gogpu/naga"
)

// shader is the implementation of the Shader interface.
// It holds all of the persistent shader data required for pipeline creation and material binding.
type shader struct {
	key                        string
	source                     string
	shaderType                 ShaderType
	entryPoint                 string
	bindGroupLayoutDescriptors map[int]BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
	vertexLayouts              []VertexBufferLayout

	includes map[string]string
	validate bool
}

// Shader defines the interface for a loaded and reflected WGSL shader stage. It exposes the
// shader's unique key, expanded source, entry point, bind group layout descriptors and vertex
// buffer layouts needed for pipeline creation and resource wiring.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the WGSL source with every #include expanded.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// ShaderType returns the stage this shader serves.
	ShaderType() ShaderType

	// EntryPoint returns the entry point name for this shader's stage.
	EntryPoint() string

	// BindGroupLayoutDescriptor retrieves the layout for one group. Returns an empty descriptor
	// if the shader declares nothing in that group.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - BindGroupLayoutDescriptor: the layout of the group
	BindGroupLayoutDescriptor(group int) BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors retrieves all reflected layouts keyed by group index.
	BindGroupLayoutDescriptors() map[int]BindGroupLayoutDescriptor

	// BindGroupVarName retrieves the WGSL variable name declared at a group and binding.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the variable name, or an empty string if not found
	BindGroupVarName(group, binding int) string

	// VertexLayouts retrieves the vertex buffer layouts, one per vertex input struct.
	// Empty for fragment shaders.
	VertexLayouts() []VertexBufferLayout
}

var _ Shader = &shader{}

// NewShader creates a new Shader from WGSL source. Includes are expanded first, then the entry
// point, bind group layouts and (for vertex shaders) vertex layouts are reflected from the result.
//
// Parameters:
//   - key: a unique identifier for the shader, used for caching and lookups
//   - shaderType: the stage whose entry point is used
//   - source: the WGSL source
//   - options: a variadic list of ShaderBuilderOption functions
//
// Returns:
//   - Shader: the reflected shader
//   - error: an error if an include is unknown, validation fails, the entry point is missing, or a binding cannot be classified
func NewShader(key string, shaderType ShaderType, source string, options ...ShaderBuilderOption) (Shader, error) {
	s := &shader{
		key:        key,
		shaderType: shaderType,
		includes:   maps.Clone(builtinIncludes),
	}
	for _, opt := range options {
		opt(s)
	}

	expanded, err := expandIncludes(source, s.includes)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}
	s.source = expanded

	if s.validate {
		if _, err := naga.Compile(expanded); err != nil {
			return nil, fmt.Errorf("shader %s: invalid WGSL: %w", key, err)
		}
	}

	cleaned := stripComments(expanded)
	if s.entryPoint == "" {
		s.entryPoint = parseEntryPoint(cleaned, shaderType)
	}
	if s.entryPoint == "" {
		return nil, fmt.Errorf("shader %s: no entry point for stage %d", key, shaderType)
	}

	s.bindGroupLayoutDescriptors, s.bindingVarNames, err = parseBindGroupLayouts(cleaned, shaderType.Stage())
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}
	if shaderType == ShaderTypeVertex {
		if s.vertexLayouts, err = parseVertexLayouts(cleaned); err != nil {
			return nil, fmt.Errorf("shader %s: %w", key, err)
		}
	}
	return s, nil
}

// NewShaderFromAsset creates a Shader from one of the embedded WGSL assets.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - shaderType: the stage whose entry point is used
//   - asset: the asset file name, e.g. "point_structured.wgsl"
//   - options: a variadic list of ShaderBuilderOption functions
//
// Returns:
//   - Shader: the reflected shader
//   - error: an error if the asset does not exist or reflection fails
func NewShaderFromAsset(key string, shaderType ShaderType, asset string, options ...ShaderBuilderOption) (Shader, error) {
	src, err := Asset(asset)
	if err != nil {
		return nil, err
	}
	return NewShader(key, shaderType, src, options...)
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) BindGroupLayoutDescriptor(group int) BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) BindGroupVarName(group, binding int) string {
	return s.bindingVarNames[group][binding]
}

func (s *shader) VertexLayouts() []VertexBufferLayout {
	return s.vertexLayouts
}
