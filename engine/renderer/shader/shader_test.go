package shader

import (
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-pointcloud/engine/pointcloud"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/renderer/material"
)

func pointIncludes() []ShaderBuilderOption {
	return []ShaderBuilderOption{
		WithInclude("point_uniform", material.GPUPointUniformSource),
		WithInclude("gpu_point", pointcloud.GPUPointSource),
	}
}

func TestStructuredShaderReflection(t *testing.T) {
	s, err := NewShaderFromAsset("structured-vs", ShaderTypeVertex, "point_structured.wgsl", pointIncludes()...)
	if err != nil {
		t.Fatalf("NewShaderFromAsset() error = %v", err)
	}
	if s.EntryPoint() != "vs_main" {
		t.Errorf("EntryPoint() = %q, want vs_main", s.EntryPoint())
	}
	if !strings.Contains(s.Source(), material.GPUPointUniformSource) {
		t.Error("expanded source is missing the PointUniform struct")
	}
	if strings.Contains(s.Source(), "#include") {
		t.Error("expanded source still contains #include directives")
	}

	uniform, ok := s.BindGroupLayoutDescriptor(0).Entry(0)
	if !ok || uniform.Type != BindingTypeUniform || uniform.MinBindingSize != 160 {
		t.Errorf("group 0 entry = %+v (found %v), want 160-byte uniform", uniform, ok)
	}
	points, ok := s.BindGroupLayoutDescriptor(1).Entry(0)
	if !ok || points.Type != BindingTypeReadOnlyStorage || points.MinBindingSize != pointcloud.GPUPointSize {
		t.Errorf("group 1 entry = %+v (found %v), want read-only storage with stride 16", points, ok)
	}
	if points.Visibility != ShaderStageVertex {
		t.Errorf("Visibility = %v, want vertex", points.Visibility)
	}
	if got := s.BindGroupVarName(1, 0); got != "points" {
		t.Errorf("BindGroupVarName(1, 0) = %q", got)
	}

	layouts := s.VertexLayouts()
	if len(layouts) != 1 || layouts[0].ArrayStride != 12 {
		t.Fatalf("VertexLayouts() = %+v, want one layout with stride 12", layouts)
	}
	if a := layouts[0].Attributes[0]; a.Format != VertexFormatFloat32x3 || a.ShaderLocation != 0 {
		t.Errorf("attribute = %+v", a)
	}
}

func TestTextureShaderReflection(t *testing.T) {
	s, err := NewShaderFromAsset("texture-vs", ShaderTypeVertex, "point_texture.wgsl", pointIncludes()...)
	if err != nil {
		t.Fatalf("NewShaderFromAsset() error = %v", err)
	}
	tex, ok := s.BindGroupLayoutDescriptor(1).Entry(0)
	if !ok || tex.Type != BindingTypeUnfilterableTexture || tex.MinBindingSize != 0 {
		t.Errorf("group 1 entry = %+v (found %v), want unfilterable texture", tex, ok)
	}
	if strings.Contains(s.Source(), "struct GPUPoint") {
		t.Error("texture variant should not pull in GPUPoint")
	}
}

func TestFragmentShaderHasNoBindings(t *testing.T) {
	s, err := NewShaderFromAsset("point-fs", ShaderTypeFragment, "point_fragment.wgsl")
	if err != nil {
		t.Fatalf("NewShaderFromAsset() error = %v", err)
	}
	if s.EntryPoint() != "fs_main" {
		t.Errorf("EntryPoint() = %q, want fs_main", s.EntryPoint())
	}
	if len(s.BindGroupLayoutDescriptors()) != 0 {
		t.Errorf("BindGroupLayoutDescriptors() = %+v, want none", s.BindGroupLayoutDescriptors())
	}
	if len(s.VertexLayouts()) != 0 {
		t.Error("fragment shader reported vertex layouts")
	}
}

func TestNewShaderErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"unknown include", "#include nowhere\n@vertex fn vs_main() -> @builtin(position) vec4<f32> { return vec4<f32>(0.0); }"},
		{"missing entry point", "fn helper() {}"},
		{"sampler binding", "@group(0) @binding(0) var s: sampler;\n@vertex fn vs_main() -> @builtin(position) vec4<f32> { return vec4<f32>(0.0); }"},
		{"writable storage", "struct P { v: f32, };\n@group(0) @binding(0) var<storage, read_write> p: P;\n@vertex fn vs_main() -> @builtin(position) vec4<f32> { return vec4<f32>(0.0); }"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewShader("bad", ShaderTypeVertex, tt.source); err == nil {
				t.Error("NewShader() error = nil")
			}
		})
	}
	if _, err := NewShaderFromAsset("missing", ShaderTypeVertex, "missing.wgsl"); err == nil {
		t.Error("NewShaderFromAsset() on a missing asset error = nil")
	}
}

func TestCommentedIncludesAndBindingsIgnored(t *testing.T) {
	src := `// @group(3) @binding(0) var<uniform> ghost: PointUniform;
/* @group(4) @binding(0) var<uniform> ghost2: PointUniform; */
@vertex fn vs_main() -> @builtin(position) vec4<f32> { return vec4<f32>(0.0); }`
	s, err := NewShader("comments", ShaderTypeVertex, src)
	if err != nil {
		t.Fatalf("NewShader() error = %v", err)
	}
	if len(s.BindGroupLayoutDescriptors()) != 0 {
		t.Errorf("commented bindings were reflected: %+v", s.BindGroupLayoutDescriptors())
	}
}

func TestMergeBindGroupLayouts(t *testing.T) {
	vs := map[int]BindGroupLayoutDescriptor{
		0: {Entries: []BindGroupLayoutEntry{{Binding: 0, Visibility: ShaderStageVertex, Type: BindingTypeUniform, MinBindingSize: 160}}},
		1: {Entries: []BindGroupLayoutEntry{{Binding: 0, Visibility: ShaderStageVertex, Type: BindingTypeReadOnlyStorage}}},
	}
	fs := map[int]BindGroupLayoutDescriptor{
		0: {Entries: []BindGroupLayoutEntry{
			{Binding: 1, Visibility: ShaderStageFragment, Type: BindingTypeUniform},
			{Binding: 0, Visibility: ShaderStageFragment, Type: BindingTypeUniform, MinBindingSize: 160},
		}},
	}
	merged := MergeBindGroupLayouts(vs, fs)
	if len(merged) != 2 {
		t.Fatalf("len(merged) = %d, want 2", len(merged))
	}
	g0 := merged[0].Entries
	if len(g0) != 2 || g0[0].Binding != 0 || g0[1].Binding != 1 {
		t.Fatalf("group 0 entries = %+v", g0)
	}
	if g0[0].Visibility != ShaderStageVertex|ShaderStageFragment {
		t.Errorf("shared binding visibility = %v", g0[0].Visibility)
	}
	if vs[0].Entries[0].Visibility != ShaderStageVertex {
		t.Error("merge mutated its input")
	}
}

func TestValidation(t *testing.T) {
	valid := `@fragment fn fs_main() -> @location(0) vec4<f32> { return vec4<f32>(1.0, 0.0, 0.0, 1.0); }`
	if _, err := NewShader("valid", ShaderTypeFragment, valid, WithValidation(true)); err != nil {
		t.Errorf("NewShader(valid) error = %v", err)
	}

	broken := `@fragment fn fs_main() -> @location(0) vec4<f32> { return vec4<f32>(1.0, 0.0 }`
	if _, err := NewShader("broken", ShaderTypeFragment, broken, WithValidation(true)); err == nil {
		t.Error("NewShader(broken) succeeded with validation enabled")
	}
}
