package pointrenderer

import (
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/loader"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/pointbuffer"
)

// PointRendererBuilderOption is a functional option for configuring a PointRenderer via NewPointRenderer.
type PointRendererBuilderOption func(*pointRenderer)

// WithLoader sets the loader LoadCloud reads files with. The default is an uncached PLY loader.
//
// Parameters:
//   - l: the loader to use
//
// Returns:
//   - PointRendererBuilderOption: a function that applies the loader option
func WithLoader(l loader.Loader) PointRendererBuilderOption {
	return func(p *pointRenderer) {
		p.loader = l
	}
}

// WithTileCapacity sets the number of quads in one tile instance.
func WithTileCapacity(capacity uint32) PointRendererBuilderOption {
	return func(p *pointRenderer) {
		p.tileCapacity = capacity
	}
}

// WithStoreOptions passes options to every point buffer store the renderer creates.
//
// Parameters:
//   - options: the store options, e.g. pointbuffer.WithForceTexture(true)
//
// Returns:
//   - PointRendererBuilderOption: a function that applies the store options
func WithStoreOptions(options ...pointbuffer.StoreBuilderOption) PointRendererBuilderOption {
	return func(p *pointRenderer) {
		p.storeOptions = append(p.storeOptions, options...)
	}
}

// WithFootprintSize sets the initial point size in whole pixels.
func WithFootprintSize(size int) PointRendererBuilderOption {
	return func(p *pointRenderer) {
		p.footprintSize = size
	}
}

// WithAlpha sets the initial point opacity.
func WithAlpha(alpha float32) PointRendererBuilderOption {
	return func(p *pointRenderer) {
		p.alpha = alpha
	}
}

// WithDensity sets the initial density percentage.
func WithDensity(density int) PointRendererBuilderOption {
	return func(p *pointRenderer) {
		p.density = density
	}
}
