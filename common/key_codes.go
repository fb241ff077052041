package common

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyComma        = 44 // , key (ASCII)
	KeyMinus        = 45 // - key (ASCII)
	KeyPeriod       = 46 // . key (ASCII)
	KeyEqual        = 61 // = key (ASCII)
	KeyLeftBracket  = 91 // [ key (ASCII)
	KeyRightBracket = 93 // ] key (ASCII)

	KeyF = 70 // F key (ASCII)
	KeyR = 82 // R key (ASCII)
	KeyS = 83 // S key (ASCII)

	KeySpace = 32  // Spacebar (ASCII)
	KeyEsc   = 256 // Escape key (GLFW)
)

// Arrow keys (GLFW).
const (
	KeyRight = 262
	KeyLeft  = 263
	KeyDown  = 264
	KeyUp    = 265
)
