package wgpu_backend

import (
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

var vertexFormatMap = map[shader.VertexFormat]wgpu.VertexFormat{
	shader.VertexFormatFloat32:   wgpu.VertexFormatFloat32,
	shader.VertexFormatFloat32x2: wgpu.VertexFormatFloat32x2,
	shader.VertexFormatFloat32x3: wgpu.VertexFormatFloat32x3,
	shader.VertexFormatFloat32x4: wgpu.VertexFormatFloat32x4,
	shader.VertexFormatUint32:    wgpu.VertexFormatUint32,
}

func toShaderStage(s shader.ShaderStage) wgpu.ShaderStage {
	var out wgpu.ShaderStage
	if s&shader.ShaderStageVertex != 0 {
		out |= wgpu.ShaderStageVertex
	}
	if s&shader.ShaderStageFragment != 0 {
		out |= wgpu.ShaderStageFragment
	}
	return out
}

func toBindGroupLayoutDescriptor(desc shader.BindGroupLayoutDescriptor) wgpu.BindGroupLayoutDescriptor {
	entries := make([]wgpu.BindGroupLayoutEntry, 0, len(desc.Entries))
	for _, e := range desc.Entries {
		entry := wgpu.BindGroupLayoutEntry{
			Binding:    e.Binding,
			Visibility: toShaderStage(e.Visibility),
		}
		switch e.Type {
		case shader.BindingTypeUniform:
			entry.Buffer.Type = wgpu.BufferBindingTypeUniform
			entry.Buffer.MinBindingSize = e.MinBindingSize
		case shader.BindingTypeReadOnlyStorage:
			entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
			entry.Buffer.MinBindingSize = e.MinBindingSize
		case shader.BindingTypeUnfilterableTexture:
			entry.Texture.SampleType = wgpu.TextureSampleTypeUnfilterableFloat
			entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
		}
		entries = append(entries, entry)
	}
	return wgpu.BindGroupLayoutDescriptor{Label: desc.Label, Entries: entries}
}

func toVertexBufferLayouts(layouts []shader.VertexBufferLayout) []wgpu.VertexBufferLayout {
	out := make([]wgpu.VertexBufferLayout, 0, len(layouts))
	for _, l := range layouts {
		attrs := make([]wgpu.VertexAttribute, 0, len(l.Attributes))
		for _, a := range l.Attributes {
			attrs = append(attrs, wgpu.VertexAttribute{
				Format:         vertexFormatMap[a.Format],
				Offset:         a.Offset,
				ShaderLocation: a.ShaderLocation,
			})
		}
		out = append(out, wgpu.VertexBufferLayout{
			ArrayStride: l.ArrayStride,
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes:  attrs,
		})
	}
	return out
}

func toCullMode(m pipeline.CullMode) wgpu.CullMode {
	switch m {
	case pipeline.CullModeFront:
		return wgpu.CullModeFront
	case pipeline.CullModeBack:
		return wgpu.CullModeBack
	default:
		return wgpu.CullModeNone
	}
}

func toTopology(t pipeline.Topology) wgpu.PrimitiveTopology {
	if t == pipeline.TopologyTriangleStrip {
		return wgpu.PrimitiveTopologyTriangleStrip
	}
	return wgpu.PrimitiveTopologyTriangleList
}

func toFrontFace(f pipeline.FrontFace) wgpu.FrontFace {
	if f == pipeline.FrontFaceCW {
		return wgpu.FrontFaceCW
	}
	return wgpu.FrontFaceCCW
}
