package shader

// ShaderBuilderOption is a functional option used to configure a Shader during construction.
type ShaderBuilderOption func(*shader)

// WithInclude registers source to be substituted for "#include name" lines.
//
// Parameters:
//   - name: the include name
//   - source: the WGSL text to substitute
//
// Returns:
//   - ShaderBuilderOption: a function that registers the include on a shader
func WithInclude(name, source string) ShaderBuilderOption {
	return func(s *shader) {
		s.includes[name] = source
	}
}

// WithEntryPoint overrides the reflected entry point name.
//
// Parameters:
//   - name: the entry point function name
//
// Returns:
//   - ShaderBuilderOption: a function that sets the entry point on a shader
func WithEntryPoint(name string) ShaderBuilderOption {
	return func(s *shader) {
		s.entryPoint = name
	}
}

// WithValidation compiles the expanded source with naga before reflection, so malformed WGSL is
// rejected at load time instead of at pipeline creation.
//
// Parameters:
//   - enabled: whether to validate
//
// Returns:
//   - ShaderBuilderOption: a function that sets validation on a shader
func WithValidation(enabled bool) ShaderBuilderOption {
	return func(s *shader) {
		s.validate = enabled
	}
}
