package renderer

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingPresentMode = &mode
	}
}

// WithMSAA sets the multisample anti-aliasing sample count for the renderer.
// When not specified, the default is MSAA4x. Use MSAAOff to disable MSAA entirely.
// Higher values (MSAA8x, MSAA16x) are adapter-dependent and may not be supported
// by all hardware.
//
// Parameters:
//   - count: the MSAASampleCount to use (MSAAOff, MSAA4x, MSAA8x, or MSAA16x)
//
// Returns:
//   - RendererBuilderOption: a function that applies the MSAA option to a renderer
func WithMSAA(count MSAASampleCount) RendererBuilderOption {
	return func(r *renderer) {
		r.config.SampleCount = count
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.config.ForceFallbackAdapter = force
	}
}

// WithSurfaceSize sets the initial surface size, overriding the surface's own size.
func WithSurfaceSize(width, height int) RendererBuilderOption {
	return func(r *renderer) {
		if width > 0 && height > 0 {
			r.config.Width, r.config.Height = width, height
		}
	}
}

// WithHeadlessCapabilities overrides the device limits reported by the headless backend.
//
// Parameters:
//   - caps: the limits to report
//
// Returns:
//   - RendererBuilderOption: a function that applies the capabilities option to a renderer
func WithHeadlessCapabilities(caps Capabilities) RendererBuilderOption {
	return func(r *renderer) {
		r.config.Capabilities = &caps
	}
}

// WithHeadlessMemoryLimit caps the bytes of buffers and textures the headless backend will
// allocate. Allocations past the limit fail, which lets tests exercise mid-load failures.
//
// Parameters:
//   - limit: the byte limit, or zero for none
//
// Returns:
//   - RendererBuilderOption: a function that applies the memory limit option to a renderer
func WithHeadlessMemoryLimit(limit uint64) RendererBuilderOption {
	return func(r *renderer) {
		r.config.MemoryLimit = limit
	}
}
