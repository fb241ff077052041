package scene

import (
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-pointcloud/engine/camera"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/loader"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/pointcloud"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/pointrenderer"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/renderer"
)

func newTestScene(t *testing.T, options ...SceneBuilderOption) (Scene, renderer.HeadlessBackend) {
	t.Helper()
	r, err := renderer.NewRenderer(renderer.BackendTypeHeadless, nil, renderer.WithSurfaceSize(800, 600))
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	t.Cleanup(r.Release)
	cam := camera.NewCamera(camera.WithController(camera.NewCameraController()))
	s := NewScene("test", cam, r, options...)
	t.Cleanup(s.Release)
	return s, r.Backend().(renderer.HeadlessBackend)
}

func writeCloud(t *testing.T, n int) string {
	t.Helper()
	points := make([]pointcloud.Point, n)
	for i := range points {
		points[i] = pointcloud.Point{Position: [3]float32{float32(i), 0, 0}}
	}
	path := filepath.Join(t.TempDir(), "cloud.ply")
	if err := loader.NewLoader(loader.BackendTypePLY).Save(pointcloud.New("cloud", points), path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	return path
}

func TestNewSceneSetsAspect(t *testing.T) {
	s, _ := newTestScene(t)
	if got, want := s.Camera().Aspect(), float32(800)/600; got != want {
		t.Errorf("Aspect() = %v, want %v", got, want)
	}
	if s.Active() {
		t.Error("scene should start inactive")
	}
}

func TestNewScenePanicsWithoutCamera(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewScene(nil camera) did not panic")
		}
	}()
	NewScene("x", nil, nil)
}

func TestLoadCloudFitsCamera(t *testing.T) {
	s, _ := newTestScene(t, WithActive(true))
	if err := s.LoadCloud(writeCloud(t, 11)); err != nil {
		t.Fatalf("LoadCloud() error = %v", err)
	}
	if s.PointRenderer().State() != pointrenderer.StateReady {
		t.Fatalf("State() = %s, want ready", s.PointRenderer().State())
	}
	target := s.Camera().Controller().Target()
	if target.X() != 5 {
		t.Errorf("camera target x = %v, want 5", target.X())
	}
}

func TestLoadCloudWithoutAutoFit(t *testing.T) {
	s, _ := newTestScene(t, WithAutoFit(false))
	before := s.Camera().Controller().Target()
	if err := s.LoadCloud(writeCloud(t, 11)); err != nil {
		t.Fatalf("LoadCloud() error = %v", err)
	}
	if got := s.Camera().Controller().Target(); got != before {
		t.Errorf("target moved to %v with auto-fit disabled", got)
	}
}

func TestLoadCloudMissingFile(t *testing.T) {
	s, _ := newTestScene(t)
	err := s.LoadCloud(filepath.Join(t.TempDir(), "missing.ply"))
	if kind := pointrenderer.KindOf(err); kind != pointrenderer.ErrorKindIO {
		t.Errorf("KindOf(err) = %s, want io", kind)
	}
}

func TestPrepareAndDraw(t *testing.T) {
	s, hb := newTestScene(t, WithActive(true))
	if err := s.LoadCloud(writeCloud(t, 100)); err != nil {
		t.Fatalf("LoadCloud() error = %v", err)
	}

	s.Prepare()
	if err := s.Renderer().BeginFrame(); err != nil {
		t.Fatal(err)
	}
	if err := s.DrawCalls(); err != nil {
		t.Fatalf("DrawCalls() error = %v", err)
	}
	s.Renderer().EndFrame()
	s.Renderer().Present()

	draws := hb.Draws()
	if len(draws) != 1 {
		t.Fatalf("draws = %d, want 1", len(draws))
	}
	if draws[0].Args.InstanceCount == 0 {
		t.Error("draw has no instances")
	}
}

func TestResize(t *testing.T) {
	s, _ := newTestScene(t)
	s.Resize(1000, 500)
	if got := s.Camera().Aspect(); got != 2 {
		t.Errorf("Aspect() = %v, want 2", got)
	}
	if w, h := s.Renderer().Size(); w != 1000 || h != 500 {
		t.Errorf("Size() = %dx%d, want 1000x500", w, h)
	}

	s.Resize(0, 10)
	if got := s.Camera().Aspect(); got != 2 {
		t.Errorf("Aspect() after zero resize = %v, want 2", got)
	}
}

func TestReleaseUnloads(t *testing.T) {
	s, _ := newTestScene(t)
	if err := s.LoadCloud(writeCloud(t, 4)); err != nil {
		t.Fatalf("LoadCloud() error = %v", err)
	}
	s.Release()
	if s.PointRenderer().State() != pointrenderer.StateUnloaded {
		t.Errorf("State() after Release = %s, want unloaded", s.PointRenderer().State())
	}
}
