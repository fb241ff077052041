package scene

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-pointcloud/engine/camera"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/pointrenderer"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/renderer"
	"github.com/golang/glog"
)

// Scene pairs a Camera with a PointRenderer drawing through a shared Renderer.
// Scenes can be hot-swapped via the Active flag to switch between different views.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Active returns whether this scene is currently active for rendering.
	Active() bool

	// SetActive sets whether this scene is active for rendering.
	SetActive(active bool)

	// Camera returns the scene's camera.
	Camera() camera.Camera

	// SetCamera replaces the scene's camera.
	//
	// Parameters:
	//   - cam: the new camera
	SetCamera(cam camera.Camera)

	// Renderer returns the scene's renderer.
	Renderer() renderer.Renderer

	// PointRenderer returns the renderer of the scene's point cloud.
	PointRenderer() pointrenderer.PointRenderer

	// LoadCloud loads a PLY file into the scene's point renderer. On success the camera is
	// fitted to the cloud unless auto-fit is disabled.
	//
	// Parameters:
	//   - path: the PLY file to read
	//
	// Returns:
	//   - error: the load error, classified by pointrenderer.KindOf
	LoadCloud(path string) error

	// FitCamera frames the loaded cloud. No-op when nothing is loaded.
	FitCamera()

	// Resize propagates a framebuffer resize to the renderer, the camera aspect and the point
	// footprint. Non-positive sizes are ignored.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	Resize(width, height int)

	// Prepare updates the camera and uploads the frame's uniform and draw arguments.
	// Must be called before the renderer's BeginFrame.
	Prepare()

	// DrawCalls records the scene's draws. Must be called between BeginFrame and EndFrame.
	//
	// Returns:
	//   - error: the first draw error
	DrawCalls() error

	// Release unloads the point cloud. The renderer is not released.
	Release()
}

type scene struct {
	mu *sync.RWMutex

	name    string
	active  bool
	autoFit bool

	cam    camera.Camera
	r      renderer.Renderer
	points pointrenderer.PointRenderer

	pointOptions []pointrenderer.PointRendererBuilderOption
}

// Ensure scene implements Scene interface.
var _ Scene = &scene{}

// NewScene creates a new Scene drawing through r and viewed through cam. Both are required and
// NewScene panics if either is nil.
//
// Parameters:
//   - name: the name of the scene
//   - cam: the camera to attach (must not be nil)
//   - r: the renderer to attach (must not be nil)
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, cam camera.Camera, r renderer.Renderer, options ...SceneBuilderOption) Scene {
	if cam == nil {
		panic("scene: NewScene requires a non-nil Camera")
	}
	if r == nil {
		panic("scene: NewScene requires a non-nil Renderer")
	}

	s := &scene{
		mu:      &sync.RWMutex{},
		name:    name,
		autoFit: true,
		cam:     cam,
		r:       r,
	}
	for _, option := range options {
		option(s)
	}
	if s.points == nil {
		s.points = pointrenderer.NewPointRenderer(r, s.pointOptions...)
	}

	if w, h := r.Size(); w > 0 && h > 0 {
		cam.SetAspect(float32(w) / float32(h))
		s.points.SetViewport(w, h)
	}
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) SetCamera(cam camera.Camera) {
	if cam == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cam = cam
}

func (s *scene) Renderer() renderer.Renderer {
	return s.r
}

func (s *scene) PointRenderer() pointrenderer.PointRenderer {
	return s.points
}

func (s *scene) LoadCloud(path string) error {
	if err := s.points.LoadCloud(path); err != nil {
		return err
	}
	s.mu.RLock()
	autoFit := s.autoFit
	s.mu.RUnlock()
	if autoFit {
		s.FitCamera()
	}
	return nil
}

func (s *scene) FitCamera() {
	cloud := s.points.Cloud()
	if cloud == nil || cloud.Count() == 0 {
		return
	}
	bounds := cloud.Bounds()
	s.Camera().FitBounds(bounds)
	glog.V(1).Infof("[Scene] %s: camera fitted to %v..%v", s.Name(), bounds.Min, bounds.Max)
}

func (s *scene) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	s.r.Resize(width, height)
	s.Camera().SetAspect(float32(width) / float32(height))
	s.points.SetViewport(width, height)
}

func (s *scene) Prepare() {
	cam := s.Camera()
	cam.Update()
	s.points.PrepareFrame(cam)
}

func (s *scene) DrawCalls() error {
	return s.points.DrawCalls()
}

func (s *scene) Release() {
	s.points.Release()
}
