package material

// PointMaterialBuilderOption is a function that configures a pointMaterial instance during construction.
type PointMaterialBuilderOption func(*pointMaterial)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - PointMaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) PointMaterialBuilderOption {
	return func(m *pointMaterial) {
		m.name = name
	}
}

// WithFootprintSize sets the initial point footprint in pixels.
func WithFootprintSize(size float32) PointMaterialBuilderOption {
	return func(m *pointMaterial) {
		m.footprintSize = size
	}
}

// WithAlpha sets the initial global opacity, clamped to [0, 1].
func WithAlpha(alpha float32) PointMaterialBuilderOption {
	return func(m *pointMaterial) {
		m.uniform.Alpha = alpha
	}
}

// WithViewport sets the initial surface size in pixels.
//
// Parameters:
//   - width: the surface width
//   - height: the surface height
//
// Returns:
//   - PointMaterialBuilderOption: a function that applies the viewport option to a material
func WithViewport(width, height int) PointMaterialBuilderOption {
	return func(m *pointMaterial) {
		m.width, m.height = width, height
	}
}
