package camera

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-pointcloud/engine/pointcloud"
	"github.com/go-gl/mathgl/mgl32"
)

func TestViewLooksAtTarget(t *testing.T) {
	ctrl := NewCameraController(WithTarget(mgl32.Vec3{1, 2, 3}), WithRadius(5), WithElevation(0.3), WithAzimuth(1))
	cam := NewCamera(WithController(ctrl))

	// The target lies on the view's -Z axis at distance radius.
	p := cam.ViewMatrix().Mul4x1(mgl32.Vec4{1, 2, 3, 1})
	if !mgl32.FloatEqualThreshold(p.X(), 0, 1e-4) || !mgl32.FloatEqualThreshold(p.Y(), 0, 1e-4) ||
		!mgl32.FloatEqualThreshold(p.Z(), -5, 1e-4) {
		t.Errorf("target in view space = %v, want (0, 0, -5)", p)
	}
	if d := ctrl.Position().Sub(ctrl.Target()).Len(); !mgl32.FloatEqualThreshold(d, 5, 1e-4) {
		t.Errorf("distance to target = %v, want 5", d)
	}
}

func TestOrbitClampsElevation(t *testing.T) {
	ctrl := NewCameraController(WithElevationBounds(-0.5, 0.5))
	ctrl.Orbit(0.2, 10)
	if ctrl.Elevation() != 0.5 {
		t.Errorf("Elevation() = %v, want 0.5", ctrl.Elevation())
	}
	if ctrl.Azimuth() != 0.2 {
		t.Errorf("Azimuth() = %v, want 0.2", ctrl.Azimuth())
	}
	ctrl.OrbitDrag(0, -1e6)
	if ctrl.Elevation() != -0.5 {
		t.Errorf("Elevation() after drag = %v, want -0.5", ctrl.Elevation())
	}
}

func TestZoomRespectsBounds(t *testing.T) {
	ctrl := NewCameraController(WithRadius(10), WithRadiusBounds(2, 20), WithZoomSpeed(1))
	ctrl.Zoom(100)
	if ctrl.Radius() != 2 {
		t.Errorf("Radius() = %v after zooming in, want 2", ctrl.Radius())
	}
	ctrl.Zoom(-100)
	if ctrl.Radius() != 20 {
		t.Errorf("Radius() = %v after zooming out, want 20", ctrl.Radius())
	}
	ctrl.SetRadiusBounds(5, 1)
	if ctrl.Radius() != 20 {
		t.Error("inverted radius bounds were applied")
	}
}

func TestPanMovesTargetAndPosition(t *testing.T) {
	ctrl := NewCameraController(WithRadius(4), WithElevation(0))
	before := ctrl.Position().Sub(ctrl.Target())
	ctrl.PanRight(3)
	ctrl.PanUp(-2)
	after := ctrl.Position().Sub(ctrl.Target())
	if !before.ApproxEqualThreshold(after, 1e-5) {
		t.Errorf("pan changed the orbit offset: %v -> %v", before, after)
	}
	if ctrl.Target().Len() == 0 {
		t.Error("pan did not move the target")
	}
}

func TestFitBounds(t *testing.T) {
	ctrl := NewCameraController()
	cam := NewCamera(WithController(ctrl), WithAspect(2))
	bounds := pointcloud.Bounds{Min: [3]float32{-10, 0, -10}, Max: [3]float32{10, 20, 10}}
	cam.FitBounds(bounds)

	if !ctrl.Target().ApproxEqual(mgl32.Vec3{0, 10, 0}) {
		t.Errorf("Target() = %v, want bounds center", ctrl.Target())
	}
	want := bounds.Radius() / float32(math.Sin(float64(cam.Fov())/2))
	if !mgl32.FloatEqualThreshold(ctrl.Radius(), want, 1e-3) {
		t.Errorf("Radius() = %v, want %v", ctrl.Radius(), want)
	}
	if cam.Near() <= 0 || cam.Far() <= ctrl.Radius()+bounds.Radius() {
		t.Errorf("clip planes %v..%v do not contain the cloud", cam.Near(), cam.Far())
	}
	if cam.Aspect() != 2 {
		t.Errorf("Aspect() = %v", cam.Aspect())
	}
	cam.SetAspect(-1)
	if cam.Aspect() != 2 {
		t.Error("negative aspect was applied")
	}
}
