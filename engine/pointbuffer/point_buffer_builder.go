package pointbuffer

import "github.com/Carmen-Shannon/oxy-pointcloud/engine/renderer/shader"

type shaderLayout = shader.BindGroupLayoutDescriptor

// StoreBuilderOption is a functional option for configuring a Store via NewStore.
type StoreBuilderOption func(*store)

// WithForceTexture selects the texture layout even when storage buffers are available.
//
// Parameters:
//   - force: true to always use the texture layout
//
// Returns:
//   - StoreBuilderOption: a function that applies the option to a store
func WithForceTexture(force bool) StoreBuilderOption {
	return func(s *store) {
		s.forceTexture = force
	}
}

// WithTextureSize sets the width and height of the fallback texture. The device limit still applies.
//
// Parameters:
//   - size: the texture side in texels; zero selects DefaultTextureSize
//
// Returns:
//   - StoreBuilderOption: a function that applies the option to a store
func WithTextureSize(size uint32) StoreBuilderOption {
	return func(s *store) {
		s.textureSize = size
	}
}
