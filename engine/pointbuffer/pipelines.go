package pointbuffer

import (
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/pointcloud"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/renderer/shader"
)

var vertexAssets = map[Kind]string{
	KindStructured: "point_structured.wgsl",
	KindTexture:    "point_texture.wgsl",
}

const fragmentAsset = "point_fragment.wgsl"

// NewPipeline builds the splat pipeline that reads a store of the given kind. Group 0 holds the
// per-frame PointUniform, group PointGroup the point storage. Both stages are compiled with naga
// before reflection, so a bad asset fails here rather than at device pipeline creation.
//
// Parameters:
//   - kind: the storage layout the vertex shader reads
//
// Returns:
//   - pipeline.Pipeline: the unregistered pipeline, keyed by kind.PipelineKey()
//   - error: an error if a shader fails to compile or reflect
func NewPipeline(kind Kind) (pipeline.Pipeline, error) {
	vsSource, err := shader.Asset(vertexAssets[kind])
	if err != nil {
		return nil, err
	}
	fsSource, err := shader.Asset(fragmentAsset)
	if err != nil {
		return nil, err
	}
	return buildPipeline(kind.PipelineKey(), vsSource, fsSource)
}

func buildPipeline(key, vsSource, fsSource string) (pipeline.Pipeline, error) {
	vs, err := shader.NewShader(key+"-vs", shader.ShaderTypeVertex, vsSource,
		shader.WithInclude("point_uniform", material.GPUPointUniformSource),
		shader.WithInclude("gpu_point", pointcloud.GPUPointSource),
		shader.WithValidation(true),
	)
	if err != nil {
		return nil, err
	}
	fs, err := shader.NewShader(key+"-fs", shader.ShaderTypeFragment, fsSource, shader.WithValidation(true))
	if err != nil {
		return nil, err
	}
	return pipeline.NewPipeline(key,
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithBlendEnabled(true),
		pipeline.WithCullMode(pipeline.CullModeNone),
	), nil
}
