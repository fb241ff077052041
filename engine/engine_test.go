package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-pointcloud/engine/camera"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/pointcloud"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/pointrenderer"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/scene"
)

func newHeadlessScene(t *testing.T, name string, r renderer.Renderer, active bool) scene.Scene {
	t.Helper()
	s := scene.NewScene(name, camera.NewCamera(camera.WithController(camera.NewCameraController())), r,
		scene.WithActive(active),
		scene.WithPointRendererOptions(pointrenderer.WithTileCapacity(4)),
	)
	t.Cleanup(s.Release)
	return s
}

func newHeadlessRenderer(t *testing.T) (renderer.Renderer, renderer.HeadlessBackend) {
	t.Helper()
	r, err := renderer.NewRenderer(renderer.BackendTypeHeadless, nil, renderer.WithSurfaceSize(640, 480))
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	t.Cleanup(r.Release)
	return r, r.Backend().(renderer.HeadlessBackend)
}

func initCloud(t *testing.T, s scene.Scene, n int) {
	t.Helper()
	points := make([]pointcloud.Point, n)
	for i := range points {
		points[i].Position = [3]float32{float32(i), 1, 2}
	}
	if err := s.PointRenderer().Init(pointcloud.New(s.Name(), points)); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
}

func TestRenderFrameDrawsActiveScenes(t *testing.T) {
	r, hb := newHeadlessRenderer(t)
	front := newHeadlessScene(t, "front", r, true)
	back := newHeadlessScene(t, "back", r, true)
	hidden := newHeadlessScene(t, "hidden", r, false)
	initCloud(t, front, 10)
	initCloud(t, back, 20)
	initCloud(t, hidden, 30)

	e := NewEngine(WithScene(1, front), WithScene(0, back), WithScene(2, hidden)).(*engine)
	if !e.renderFrame() {
		t.Fatal("renderFrame() = false, want a presented frame")
	}
	if hb.Frames() != 1 {
		t.Errorf("Frames() = %d, want 1", hb.Frames())
	}

	draws := hb.Draws()
	if len(draws) != 2 {
		t.Fatalf("draws = %d, want 2", len(draws))
	}
	// back (z 0, 20 points) draws before front (z 1, 10 points)
	if got := draws[0].Args.InstanceCount; got != 5 {
		t.Errorf("first draw instances = %d, want 5", got)
	}
	if got := draws[1].Args.InstanceCount; got != 3 {
		t.Errorf("second draw instances = %d, want 3", got)
	}
}

func TestRenderFrameWithoutActiveScenes(t *testing.T) {
	r, hb := newHeadlessRenderer(t)
	e := NewEngine(WithScene(0, newHeadlessScene(t, "idle", r, false))).(*engine)
	if e.renderFrame() {
		t.Error("renderFrame() = true with no active scene")
	}
	if hb.Frames() != 0 {
		t.Errorf("Frames() = %d, want 0", hb.Frames())
	}
}

func TestSceneRegistry(t *testing.T) {
	r, _ := newHeadlessRenderer(t)
	s := newHeadlessScene(t, "main", r, true)
	e := NewEngine()
	e.AddScene(3, s)
	if e.Scene(3) != s {
		t.Fatal("Scene(3) did not return the added scene")
	}
	scenes := e.Scenes()
	delete(scenes, 3)
	if e.Scene(3) == nil {
		t.Error("mutating the Scenes() copy removed the scene")
	}
	e.RemoveScene(3)
	if e.Scene(3) != nil {
		t.Error("RemoveScene(3) left the scene registered")
	}
}

func TestPointStats(t *testing.T) {
	r, _ := newHeadlessRenderer(t)
	s := newHeadlessScene(t, "main", r, true)
	initCloud(t, s, 8)
	e := NewEngine(WithScene(0, s)).(*engine)

	stats := e.pointStats()
	if !strings.Contains(stats, "main: ready 8/8 pts") {
		t.Errorf("pointStats() = %q", stats)
	}
}

func TestQuitIsIdempotent(t *testing.T) {
	e := NewEngine()
	e.Quit()
	e.Quit()
}

func TestRatesBeforeRun(t *testing.T) {
	e := NewEngine(WithTickRate(0), WithRenderFrameLimit(0)).(*engine)
	if e.tickInterval != interval(60) {
		t.Errorf("default tick interval = %v", e.tickInterval)
	}
	if e.frameLimit != 0 {
		t.Errorf("frame limit = %v, want uncapped", e.frameLimit)
	}

	e.SetTickRate(120)
	if e.tickInterval != interval(120) {
		t.Errorf("tick interval = %v, want %v", e.tickInterval, interval(120))
	}
	if len(e.tickRates) != 0 {
		t.Error("rate change queued while not running")
	}

	e.SetRenderFrameLimit(30)
	if e.frameLimit != interval(30) {
		t.Errorf("frame limit = %v", e.frameLimit)
	}
	e.SetRenderFrameLimit(-1)
	if e.frameLimit != 0 {
		t.Errorf("frame limit = %v after reset", e.frameLimit)
	}
}

func TestIntervalKeepsFraction(t *testing.T) {
	got := interval(59.94)
	want := time.Duration(float64(time.Second) / 59.94)
	if got != want || got <= interval(60) {
		t.Errorf("interval(59.94) = %v", got)
	}
}

func TestSetTickRateWhileRunningKeepsLatest(t *testing.T) {
	e := NewEngine().(*engine)
	e.running.Store(true)
	e.SetTickRate(30)
	e.SetTickRate(90)
	if got := <-e.tickRates; got != interval(90) {
		t.Errorf("queued rate = %v, want %v", got, interval(90))
	}
}

func TestCallbacks(t *testing.T) {
	e := NewEngine().(*engine)
	var ticked, rendered bool
	e.SetTickCallback(func(float32) { ticked = true })
	e.SetRenderCallback(func(float32) { rendered = true })
	tick, render := e.callbacks()
	tick(0)
	render(0)
	if !ticked || !rendered {
		t.Error("callbacks not registered")
	}
}

func TestPostRunsBeforeNextFrameInOrder(t *testing.T) {
	r, hb := newHeadlessRenderer(t)
	s := newHeadlessScene(t, "main", r, true)
	e := NewEngine(WithScene(0, s)).(*engine)

	var order []int
	e.Post(func() { order = append(order, 1) })
	e.Post(func() {
		order = append(order, 2)
		initCloud(t, s, 8)
		e.Post(func() { order = append(order, 3) })
	})
	if len(order) != 0 {
		t.Fatal("Post ran a job immediately")
	}

	e.runPending()
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("order = %v, want [1 2]", order)
	}
	hb.ResetDraws()
	if !e.renderFrame() || len(hb.Draws()) != 1 {
		t.Errorf("frame after a posted load drew %d times", len(hb.Draws()))
	}

	e.runPending()
	if len(order) != 3 || order[2] != 3 {
		t.Errorf("order = %v, want the nested job on the next drain", order)
	}
}

func TestPostAfterQuit(t *testing.T) {
	e := NewEngine().(*engine)
	e.Quit()
	if e.Post(func() { t.Error("job ran after quit") }) {
		t.Error("Post() = true after Quit")
	}
	e.runPending()
}
