// Command pointviewer opens a PLY point cloud in a window and renders it as camera-facing quads.
//
//	pointviewer [flags] cloud.ply
//
// Controls:
//
//	left drag     orbit
//	right drag    pan
//	scroll        zoom
//	drop a file   load it
//	arrows        pan
//	[ ]           density down / up
//	- =           point size down / up
//	, .           opacity down / up
//	R             reload the file
//	S             suspend / resume GPU resources
//	F             fit the camera to the cloud
//	Esc           quit
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/Carmen-Shannon/oxy-pointcloud/common"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/camera"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/pointbuffer"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/pointrenderer"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/renderer"
	_ "github.com/Carmen-Shannon/oxy-pointcloud/engine/renderer/wgpu_backend"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/scene"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/window"
	"github.com/golang/glog"
)

// Pan distances are fractions of the orbit radius so they scale with the cloud.
const (
	panPerPixel = 0.002
	panPerTick  = 0.02
)

var (
	file         = flag.String("file", "", "PLY file to open (or pass it as the first argument)")
	width        = flag.Int("width", 1280, "window width")
	height       = flag.Int("height", 720, "window height")
	density      = flag.Int("density", pointrenderer.DefaultDensity, "initial density percentage [1, 100]")
	size         = flag.Int("size", pointrenderer.DefaultFootprintSize, "initial point footprint in pixels [1, 10]")
	alpha        = flag.Float64("alpha", pointrenderer.DefaultAlpha, "initial opacity [0, 1]")
	tileCapacity = flag.Uint("tile", 0, "points per draw instance (0 uses the default)")
	vsync        = flag.Bool("vsync", true, "wait for vertical blank when presenting")
	msaa         = flag.Uint("msaa", uint(renderer.MSAA4x), "MSAA sample count (1, 4, 8, 16)")
	forceTexture = flag.Bool("force-texture", false, "store points in a float texture instead of a storage buffer")
	software     = flag.Bool("software", false, "force the software (fallback) adapter")
	profile      = flag.Bool("profile", false, "log frame and point statistics every second")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	path := common.Coalesce(*file, flag.Arg(0))
	if path == "" {
		fmt.Fprintln(os.Stderr, "usage: pointviewer [flags] cloud.ply")
		flag.PrintDefaults()
		os.Exit(2)
	}

	eng := engine.NewEngine(
		engine.WithProfiling(*profile),
		engine.WithTickRate(60),
		engine.WithWindow(window.NewWindow(
			window.WithTitle("oxy-pointcloud - "+filepath.Base(path)),
			window.WithSize(*width, *height),
		)),
	)

	presentMode := renderer.PresentModeUncapped
	if *vsync {
		presentMode = renderer.PresentModeVSync
	}
	r, err := renderer.NewRenderer(
		renderer.BackendTypeWGPU,
		eng.Window(),
		renderer.WithPresentMode(presentMode),
		renderer.WithMSAA(renderer.MSAASampleCount(*msaa)),
		renderer.WithForceSoftwareRenderer(*software),
	)
	if err != nil {
		glog.Exitf("renderer: %v", err)
	}

	cam := camera.NewCamera(
		camera.WithAspect(float32(eng.Window().Width())/float32(eng.Window().Height())),
		camera.WithController(camera.NewCameraController(
			camera.WithMouseSensitivity(0.005),
			camera.WithPanSpeed(1),
		)),
	)

	pointOptions := []pointrenderer.PointRendererBuilderOption{
		pointrenderer.WithStoreOptions(pointbuffer.WithForceTexture(*forceTexture)),
	}
	if *tileCapacity > 0 && *tileCapacity <= math.MaxUint32 {
		pointOptions = append(pointOptions, pointrenderer.WithTileCapacity(uint32(*tileCapacity)))
	}
	sc := scene.NewScene("pointviewer", cam, r,
		scene.WithActive(true),
		scene.WithPointRendererOptions(pointOptions...),
	)
	eng.AddScene(0, sc)

	settings := pointrenderer.NewSettings()
	settings.Size.Set(common.Clamp(*size, pointrenderer.MinFootprintSize, pointrenderer.MaxFootprintSize))
	settings.Alpha.Set(common.ClampFinite(float32(*alpha), 0, 1))
	settings.Density.Set(*density)
	detach := settings.Attach(sc.PointRenderer())
	defer detach()

	sc.PointRenderer().OnCloudLoaded(func(n int) {
		name := path
		if cloud := sc.PointRenderer().Cloud(); cloud != nil {
			name = cloud.Name
		}
		eng.Window().SetTitle(fmt.Sprintf("oxy-pointcloud - %s (%d points)", filepath.Base(name), n))
	})
	sc.PointRenderer().OnLoadFailed(func(kind pointrenderer.ErrorKind, err error) {
		glog.Errorf("load failed (%s): %v", kind, err)
	})

	if err := sc.LoadCloud(path); err != nil {
		glog.Exitf("%v", err)
	}

	setupInput(eng, sc, settings)

	glog.Infof("viewing %s", path)
	eng.Run()
	sc.Release()
	r.Release()
	if err := eng.Window().Destroy(); err != nil {
		glog.Warningf("destroy window: %v", err)
	}
}

// setupInput wires the orbit camera to mouse and arrow keys and the point settings to the
// bracket, minus/equal and comma/period keys.
//
// Parameters:
//   - eng: the engine providing the window and tick
//   - sc: the scene being viewed
//   - settings: the observable point settings
func setupInput(eng engine.Engine, sc scene.Scene, settings *pointrenderer.Settings) {
	var keysMu sync.Mutex
	keyState := make(map[uint32]bool)
	held := func(key uint32) bool {
		keysMu.Lock()
		defer keysMu.Unlock()
		return keyState[key]
	}
	win := eng.Window()
	ctrl := func() camera.CameraController { return sc.Camera().Controller() }

	win.SetKeyDownCallback(func(keyCode uint32) {
		keysMu.Lock()
		keyState[keyCode] = true
		keysMu.Unlock()
		switch keyCode {
		case common.KeyLeftBracket:
			settings.StepDensity(-5)
		case common.KeyRightBracket:
			settings.StepDensity(5)
		case common.KeyMinus:
			settings.StepSize(-1)
		case common.KeyEqual:
			settings.StepSize(1)
		case common.KeyComma:
			settings.StepAlpha(-0.1)
		case common.KeyPeriod:
			settings.StepAlpha(0.1)
		case common.KeyF:
			sc.FitCamera()
		case common.KeyR:
			eng.Post(func() {
				if err := sc.PointRenderer().Reload(); err != nil {
					glog.Errorf("reload: %v", err)
				}
			})
		case common.KeyS:
			eng.Post(func() { toggleSuspend(sc.PointRenderer()) })
		case common.KeyEsc:
			eng.Quit()
		}
	})

	win.SetKeyUpCallback(func(keyCode uint32) {
		keysMu.Lock()
		keyState[keyCode] = false
		keysMu.Unlock()
	})

	win.SetDragCallback(func(button window.MouseButton, dx, dy float64) {
		switch button {
		case window.MouseButtonLeft:
			ctrl().OrbitDrag(dx, dy)
		default:
			step := ctrl().Radius() * panPerPixel
			ctrl().PanRight(float32(-dx) * step)
			ctrl().PanUp(float32(dy) * step)
		}
	})

	win.SetDropCallback(func(paths []string) {
		path := paths[0]
		eng.Post(func() {
			if err := sc.LoadCloud(path); err != nil {
				glog.Errorf("load %s: %v", path, err)
			}
		})
	})

	win.SetScrollCallback(func(delta float32) {
		ctrl().Zoom(delta)
	})

	win.SetIconifyCallback(func(iconified bool) {
		eng.Post(func() {
			pr := sc.PointRenderer()
			if iconified {
				pr.Suspend()
				return
			}
			if err := pr.Resume(); err != nil {
				glog.Errorf("resume: %v", err)
			}
		})
	})

	eng.SetTickCallback(func(_ float32) {
		step := ctrl().Radius() * panPerTick
		if held(common.KeyUp) {
			ctrl().PanForward(step)
		}
		if held(common.KeyDown) {
			ctrl().PanForward(-step)
		}
		if held(common.KeyLeft) {
			ctrl().PanRight(-step)
		}
		if held(common.KeyRight) {
			ctrl().PanRight(step)
		}
	})
}

func toggleSuspend(pr pointrenderer.PointRenderer) {
	if pr.State() == pointrenderer.StateReady {
		pr.Suspend()
		glog.Info("suspended")
		return
	}
	if err := pr.Resume(); err != nil {
		glog.Errorf("resume: %v", err)
		return
	}
	glog.Info("resumed")
}
