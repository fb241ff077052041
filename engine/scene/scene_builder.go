package scene

import (
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/pointrenderer"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithActive sets whether the scene is active for rendering.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithAutoFit sets whether LoadCloud re-frames the camera around each new cloud. Defaults to true.
//
// Parameters:
//   - enabled: whether to fit the camera after a load
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithAutoFit(enabled bool) SceneBuilderOption {
	return func(s *scene) {
		s.autoFit = enabled
	}
}

// WithPointRenderer uses an existing point renderer instead of creating one. It must draw
// through the scene's renderer.
//
// Parameters:
//   - pr: the point renderer
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithPointRenderer(pr pointrenderer.PointRenderer) SceneBuilderOption {
	return func(s *scene) {
		s.points = pr
	}
}

// WithPointRendererOptions passes options to the point renderer the scene creates.
//
// Parameters:
//   - options: the point renderer options
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithPointRendererOptions(options ...pointrenderer.PointRendererBuilderOption) SceneBuilderOption {
	return func(s *scene) {
		s.pointOptions = append(s.pointOptions, options...)
	}
}
