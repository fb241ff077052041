package shader

// ShaderType identifies which pipeline stage a shader entry point serves.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex shader type.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the fragment shader type, used in pair with a vertex shader.
	ShaderTypeFragment
)

// ShaderStage is a bit set of stages a binding is visible to.
type ShaderStage uint32

const (
	// ShaderStageNone is visible to no stage.
	ShaderStageNone ShaderStage = 0
	// ShaderStageVertex is visible to the vertex stage.
	ShaderStageVertex ShaderStage = 1 << 0
	// ShaderStageFragment is visible to the fragment stage.
	ShaderStageFragment ShaderStage = 1 << 1
)

// Stage returns the visibility bit for the shader type.
func (t ShaderType) Stage() ShaderStage {
	switch t {
	case ShaderTypeVertex:
		return ShaderStageVertex
	case ShaderTypeFragment:
		return ShaderStageFragment
	default:
		return ShaderStageNone
	}
}

// BindingType classifies a bind group layout entry.
type BindingType int

const (
	// BindingTypeUniform is a var<uniform> buffer.
	BindingTypeUniform BindingType = iota

	// BindingTypeReadOnlyStorage is a var<storage, read> buffer.
	BindingTypeReadOnlyStorage

	// BindingTypeUnfilterableTexture is a texture_2d<f32> read with textureLoad only.
	BindingTypeUnfilterableTexture
)

// IsBuffer reports whether the binding is backed by a buffer.
func (b BindingType) IsBuffer() bool {
	return b == BindingTypeUniform || b == BindingTypeReadOnlyStorage
}

// BindGroupLayoutEntry describes one binding within a group.
type BindGroupLayoutEntry struct {
	Binding    uint32
	Visibility ShaderStage
	Type       BindingType
	// MinBindingSize is the byte size of a fixed-size buffer binding, or the element stride
	// for a runtime-sized array. Zero for textures.
	MinBindingSize uint64
}

// BindGroupLayoutDescriptor describes every binding of one group, sorted by binding.
type BindGroupLayoutDescriptor struct {
	Label   string
	Entries []BindGroupLayoutEntry
}

// Entry returns the entry for binding, if present.
func (d BindGroupLayoutDescriptor) Entry(binding uint32) (BindGroupLayoutEntry, bool) {
	for _, e := range d.Entries {
		if e.Binding == binding {
			return e, true
		}
	}
	return BindGroupLayoutEntry{}, false
}

// VertexFormat is the format of one vertex attribute.
type VertexFormat int

const (
	VertexFormatFloat32 VertexFormat = iota
	VertexFormatFloat32x2
	VertexFormatFloat32x3
	VertexFormatFloat32x4
	VertexFormatUint32
)

// Size returns the attribute size in bytes.
func (f VertexFormat) Size() uint64 {
	switch f {
	case VertexFormatFloat32x2:
		return 8
	case VertexFormatFloat32x3:
		return 12
	case VertexFormatFloat32x4:
		return 16
	default:
		return 4
	}
}

// VertexAttribute is one @location input of a vertex buffer.
type VertexAttribute struct {
	Format         VertexFormat
	Offset         uint64
	ShaderLocation uint32
}

// VertexBufferLayout describes one per-vertex buffer.
type VertexBufferLayout struct {
	ArrayStride uint64
	Attributes  []VertexAttribute
}
