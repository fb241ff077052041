package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraController defines the interface for an orbit camera with planar panning.
// Controllers own positional state (position, target). Camera reads from the controller
// and computes view/projection matrices. Orbit methods move the camera on a sphere around the
// target; pan methods translate both position and target along the camera's local axes.
type CameraController interface {
	// Position returns the camera's world-space position.
	Position() mgl32.Vec3

	// Target returns the point the camera looks at and orbits around.
	Target() mgl32.Vec3

	// SetTarget moves the orbit pivot, keeping radius and angles.
	//
	// Parameters:
	//   - target: the new pivot in world space
	SetTarget(target mgl32.Vec3)

	// Zoom moves the camera toward the target by delta * ZoomSpeed, within the radius bounds.
	//
	// Parameters:
	//   - delta: positive to zoom in, negative to zoom out
	Zoom(delta float32)

	// Orbit rotates the camera around the target by the given angles in radians. Elevation is
	// clamped to the elevation bounds.
	Orbit(dAzimuth, dElevation float32)

	// OrbitDrag rotates the camera for a mouse drag of dx, dy pixels, scaled by MouseSensitivity.
	OrbitDrag(dx, dy float64)

	// OrbitLeft, OrbitRight, OrbitUp and OrbitDown rotate by one OrbitSpeed step.
	OrbitLeft()
	OrbitRight()
	OrbitUp()
	OrbitDown()

	// Radius returns the distance from the target.
	Radius() float32

	// SetRadius sets the distance from the target, clamped to the radius bounds.
	SetRadius(radius float32)

	// SetRadiusBounds sets the zoom limits and re-clamps the current radius.
	SetRadiusBounds(minRadius, maxRadius float32)

	// Azimuth returns the horizontal angle around the Y axis in radians.
	Azimuth() float32
	SetAzimuth(azimuth float32)

	// Elevation returns the vertical angle above the horizontal plane in radians.
	Elevation() float32
	SetElevation(elevation float32)

	// ZoomSpeed returns the radius change per unit of Zoom delta.
	ZoomSpeed() float32
	SetZoomSpeed(speed float32)

	// PanRight, PanUp and PanForward translate position and target along the camera's local axes.
	PanRight(delta float32)
	PanUp(delta float32)
	PanForward(delta float32)
}
