package common

import (
	"cmp"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// clipSpaceCorrection remaps OpenGL-style clip depth [-w, w] to the WebGPU range [0, w].
// Column-major: z' = 0.5*z + 0.5*w.
var clipSpaceCorrection = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// GPUProjection converts a projection matrix built with mgl32 (OpenGL depth convention)
// into one that targets WebGPU clip space.
//
// Parameters:
//   - projection: the OpenGL-convention projection matrix
//
// Returns:
//   - mgl32.Mat4: the corrected projection matrix
func GPUProjection(projection mgl32.Mat4) mgl32.Mat4 {
	return clipSpaceCorrection.Mul4(projection)
}

// ModelViewProjection composes the full point transform in the order the shaders expect:
// clip * projection * view * model.
//
// Parameters:
//   - model: object-to-world transform
//   - view: world-to-camera transform
//   - projection: OpenGL-convention projection matrix
//
// Returns:
//   - mgl32.Mat4: the combined matrix (column-major)
func ModelViewProjection(model, view, projection mgl32.Mat4) mgl32.Mat4 {
	return GPUProjection(projection).Mul4(view).Mul4(model)
}

// Clamp limits v to the closed range [lo, hi].
//
// Parameters:
//   - v: the value to clamp
//   - lo: the lower bound
//   - hi: the upper bound
//
// Returns:
//   - T: v limited to [lo, hi]
func Clamp[T cmp.Ordered](v, lo, hi T) T {
	return min(max(v, lo), hi)
}

// ClampFinite behaves like Clamp but maps NaN to lo.
func ClampFinite(v, lo, hi float32) float32 {
	if math.IsNaN(float64(v)) {
		return lo
	}
	return Clamp(v, lo, hi)
}

// CeilDiv returns ceil(a / b) for non-negative a and positive b.
func CeilDiv(a, b uint64) uint64 {
	if a == 0 {
		return 0
	}
	return (a-1)/b + 1
}
