package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-pointcloud/engine/pointcloud"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/renderer/shader"
)

const tintedFragment = `
#include point_uniform
#include point_common

@group(0) @binding(0) var<uniform> uniforms: PointUniform;

@fragment
fn fs_main(v: PointVaryings) -> @location(0) vec4<f32> {
    return vec4<f32>(v.color.rgb, v.color.a * uniforms.alpha);
}
`

func newShaders(t *testing.T) (shader.Shader, shader.Shader) {
	t.Helper()
	includes := []shader.ShaderBuilderOption{
		shader.WithInclude("point_uniform", material.GPUPointUniformSource),
		shader.WithInclude("gpu_point", pointcloud.GPUPointSource),
	}
	vs, err := shader.NewShaderFromAsset("vs", shader.ShaderTypeVertex, "point_structured.wgsl", includes...)
	if err != nil {
		t.Fatalf("vertex shader: %v", err)
	}
	fs, err := shader.NewShader("fs", shader.ShaderTypeFragment, tintedFragment, includes...)
	if err != nil {
		t.Fatalf("fragment shader: %v", err)
	}
	return vs, fs
}

func TestDefaults(t *testing.T) {
	p := NewPipeline("empty")
	if p.PipelineKey() != "empty" {
		t.Errorf("PipelineKey() = %q", p.PipelineKey())
	}
	if !p.DepthTestEnabled() || !p.DepthWriteEnabled() {
		t.Error("depth test and write should default on")
	}
	if p.BlendEnabled() {
		t.Error("blending should default off")
	}
	if p.CullMode() != CullModeNone || p.Topology() != TopologyTriangleList || p.FrontFace() != FrontFaceCCW {
		t.Errorf("raster state = %v %v %v", p.CullMode(), p.Topology(), p.FrontFace())
	}
	if p.Shader(shader.ShaderTypeVertex) != nil || p.VertexLayouts() != nil {
		t.Error("a pipeline without shaders should report none")
	}
	if len(p.BindGroupLayoutDescriptors()) != 0 {
		t.Error("a pipeline without shaders should have no layouts")
	}
}

func TestOptions(t *testing.T) {
	p := NewPipeline("opts",
		WithBlendEnabled(true),
		WithDepthWriteEnabled(false),
		WithCullMode(CullModeBack),
		WithTopology(TopologyTriangleStrip),
		WithFrontFace(FrontFaceCW),
	)
	if !p.BlendEnabled() || p.DepthWriteEnabled() {
		t.Error("blend/depth write options not applied")
	}
	if p.CullMode() != CullModeBack || p.Topology() != TopologyTriangleStrip || p.FrontFace() != FrontFaceCW {
		t.Errorf("raster state = %v %v %v", p.CullMode(), p.Topology(), p.FrontFace())
	}
}

func TestMergedLayouts(t *testing.T) {
	vs, fs := newShaders(t)
	p := NewPipeline("points", WithVertexShader(vs), WithFragmentShader(fs))

	if p.Shader(shader.ShaderTypeVertex) != vs || p.Shader(shader.ShaderTypeFragment) != fs {
		t.Fatal("Shader() did not return the configured stages")
	}

	layouts := p.BindGroupLayoutDescriptors()
	if len(layouts) != 2 {
		t.Fatalf("layouts = %d groups, want 2", len(layouts))
	}
	uniform, ok := layouts[0].Entry(0)
	if !ok {
		t.Fatal("group 0 has no binding 0")
	}
	if want := shader.ShaderStageVertex | shader.ShaderStageFragment; uniform.Visibility != want {
		t.Errorf("uniform visibility = %v, want %v", uniform.Visibility, want)
	}
	points, ok := layouts[1].Entry(0)
	if !ok || points.Visibility != shader.ShaderStageVertex {
		t.Errorf("group 1 entry = %+v (found %v), want vertex-only", points, ok)
	}
	if len(p.VertexLayouts()) != 1 {
		t.Errorf("VertexLayouts() = %d, want 1", len(p.VertexLayouts()))
	}
}

func TestHandle(t *testing.T) {
	p := NewPipeline("h")
	if p.Handle() != nil {
		t.Fatal("new pipeline should have no handle")
	}
	p.SetHandle(42)
	if p.Handle() != 42 {
		t.Errorf("Handle() = %v, want 42", p.Handle())
	}
	p.SetHandle(nil)
	if p.Handle() != nil {
		t.Error("SetHandle(nil) did not clear the handle")
	}
}
