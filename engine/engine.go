package engine

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-pointcloud/engine/profiler"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/scene"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/window"
	"github.com/golang/glog"
)

// engine implements the Engine interface.
// The tick loop and the render loop each run on their own goroutine; the window pumps
// messages on the goroutine that called Run.
type engine struct {
	mu *sync.Mutex

	window   window.Window
	profiler *profiler.Profiler

	tickInterval time.Duration
	tickRates    chan time.Duration
	onTick       func(deltaTime float32)
	onRender     func(deltaTime float32)
	frameLimit   time.Duration
	pending      []func()

	scenesMu *sync.RWMutex
	scenes   map[int]scene.Scene

	profiling atomic.Bool
	running   atomic.Bool
	quit      chan struct{}
	quitOnce  sync.Once
	wg        sync.WaitGroup
}

// Engine is the main entry point for the engine.
// It orchestrates the engine loop, render loop, and window management.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in frames per second.
	// The tick callback will be called at this rate for game logic updates.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	// Use this for input processing and settings changes.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called each render frame.
	// Runs after the active scenes have been drawn and presented.
	//
	// Parameters:
	//   - callback: function to call each render frame, receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// AddScene registers a scene at the given z-index key.
	// Scenes are rendered in ascending key order during the render loop.
	//
	// Parameters:
	//   - key: the z-index determining render order (lower renders first)
	//   - s: the Scene to register
	AddScene(key int, s scene.Scene)

	// RemoveScene removes the scene at the given z-index key.
	//
	// Parameters:
	//   - key: the z-index of the scene to remove
	RemoveScene(key int)

	// Scene retrieves the scene registered at the given z-index key.
	// Returns nil if no scene exists at that key.
	//
	// Parameters:
	//   - key: the z-index of the scene to retrieve
	//
	// Returns:
	//   - scene.Scene: the scene at the key, or nil if not found
	Scene(key int) scene.Scene

	// Scenes returns a copy of all registered scenes keyed by z-index.
	//
	// Returns:
	//   - map[int]scene.Scene: a copy of the scenes map
	Scenes() map[int]scene.Scene

	// Post queues fn to run on the render goroutine before the next frame is prepared. Work that
	// replaces or releases a scene's device resources goes through Post so it never lands
	// between a scene's Prepare and DrawCalls. Jobs run in the order they were posted.
	//
	// Parameters:
	//   - fn: the job to run
	//
	// Returns:
	//   - bool: false if the engine has quit and fn will never run
	Post(fn func()) bool

	// Run starts the tick and render goroutines and runs the window message loop on the calling
	// thread. Blocks until the window closes and both goroutines have stopped; the window itself
	// is not destroyed.
	Run()

	// Quit signals all engine goroutines to stop and requests the window to close.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// Initializes message channels and profiler with sensible defaults.
// Options are applied directly to the engine struct via the option-builder pattern.
//
// Parameters:
//   - options: functional options for engine configuration (profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		mu:           &sync.Mutex{},
		tickInterval: interval(60),
		tickRates:    make(chan time.Duration, 1),
		scenesMu:     &sync.RWMutex{},
		scenes:       make(map[int]scene.Scene),
		quit:         make(chan struct{}),
	}
	e.profiler = profiler.NewProfiler(profiler.WithStatsFunc(e.pointStats))

	for _, opt := range options {
		opt(e)
	}

	if e.window != nil {
		e.window.SetResizeCallback(func(width, height int) {
			e.Post(func() {
				for _, s := range e.Scenes() {
					s.Resize(width, height)
				}
			})
		})
	}

	return e
}

// interval converts a rate in frames per second into a frame duration.
func interval(fps float64) time.Duration {
	return time.Duration(float64(time.Second) / fps)
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Run() {
	if !e.running.CompareAndSwap(false, true) {
		return
	}
	e.wg.Add(2)
	go e.tickLoop()
	go e.renderLoop()

	e.window.ProcessMessages()
	e.signalQuit()
	e.wg.Wait()
}

func (e *engine) Quit() {
	e.signalQuit()
	if e.window != nil {
		e.window.Close()
	}
}

func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quit)
	})
}

func (e *engine) Post(fn func()) bool {
	select {
	case <-e.quit:
		return false
	default:
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = append(e.pending, fn)
	return true
}

// runPending runs the jobs queued by Post. Jobs posted while it runs wait for the next frame.
func (e *engine) runPending() {
	e.mu.Lock()
	jobs := e.pending
	e.pending = nil
	e.mu.Unlock()

	for _, job := range jobs {
		job()
	}
}

// callbacks returns the current tick and render callbacks.
func (e *engine) callbacks() (tick, render func(float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.onTick, e.onRender
}

// tickLoop fires the tick callback at the configured rate until quit. Rate changes made
// while running arrive through tickRates.
func (e *engine) tickLoop() {
	defer e.wg.Done()

	e.mu.Lock()
	ticker := time.NewTicker(e.tickInterval)
	e.mu.Unlock()
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-e.quit:
			return
		case d := <-e.tickRates:
			ticker.Reset(d)
		case now := <-ticker.C:
			dt := float32(now.Sub(last).Seconds())
			last = now
			if tick, _ := e.callbacks(); tick != nil {
				tick(dt)
			}
		}
	}
}

// renderLoop renders frames back to back, sleeping out the remainder of the frame budget
// when a limit is set. A panic in a frame is logged and shuts the engine down.
func (e *engine) renderLoop() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			glog.Errorf("render loop panic: %v", r)
			e.signalQuit()
		}
	}()

	last := time.Now()
	for {
		select {
		case <-e.quit:
			return
		default:
		}

		start := time.Now()
		dt := float32(start.Sub(last).Seconds())
		last = start

		e.runPending()
		e.renderFrame()
		if _, render := e.callbacks(); render != nil {
			render(dt)
		}
		if e.profiling.Load() {
			e.profiler.Tick()
		}

		e.mu.Lock()
		limit := e.frameLimit
		e.mu.Unlock()
		if wait := limit - time.Since(start); limit > 0 && wait > 0 {
			time.Sleep(wait)
		}
	}
}

// activeScenes returns the active scenes in ascending z-index order.
func (e *engine) activeScenes() []scene.Scene {
	e.scenesMu.RLock()
	defer e.scenesMu.RUnlock()

	keys := make([]int, 0, len(e.scenes))
	for k := range e.scenes {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	active := make([]scene.Scene, 0, len(keys))
	for _, k := range keys {
		if s := e.scenes[k]; s.Active() {
			active = append(active, s)
		}
	}
	return active
}

// renderFrame draws one frame of every active scene. Uploads happen before the render pass
// begins; all scenes then share a single pass on the first active scene's renderer.
//
// Returns:
//   - bool: true if a frame was presented
func (e *engine) renderFrame() bool {
	active := e.activeScenes()
	if len(active) == 0 {
		return false
	}
	frameRenderer := active[0].Renderer()
	if frameRenderer == nil {
		return false
	}

	for _, s := range active {
		s.Prepare()
	}

	if err := frameRenderer.BeginFrame(); err != nil {
		glog.V(1).Infof("skipping frame: %v", err)
		return false
	}
	for _, s := range active {
		if err := s.DrawCalls(); err != nil {
			glog.Errorf("scene %s: %v", s.Name(), err)
		}
	}
	frameRenderer.EndFrame()
	frameRenderer.Present()
	return true
}

// pointStats summarises the point renderers of the active scenes for the profiler.
func (e *engine) pointStats() string {
	var parts []string
	for _, s := range e.activeScenes() {
		st := s.PointRenderer().Stats()
		parts = append(parts, fmt.Sprintf("%s: %s %d/%d pts (density %d%%, %s)",
			s.Name(), st.State, st.EffectivePoints, st.TotalPoints, st.Density, st.Kind))
	}
	return strings.Join(parts, " | ")
}

func (e *engine) EnableProfiler() {
	e.profiling.Store(true)
}

func (e *engine) DisableProfiler() {
	e.profiling.Store(false)
}

// SetTickRate replaces any rate change the tick loop has not yet picked up.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	d := interval(fps)

	e.mu.Lock()
	e.tickInterval = d
	e.mu.Unlock()

	if !e.running.Load() {
		return
	}
	for {
		select {
		case e.tickRates <- d:
			return
		default:
			select {
			case <-e.tickRates:
			default:
			}
		}
	}
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onTick = callback
}

func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onRender = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if fps <= 0 {
		e.frameLimit = 0
		return
	}
	e.frameLimit = interval(fps)
}

func (e *engine) AddScene(key int, s scene.Scene) {
	e.scenesMu.Lock()
	defer e.scenesMu.Unlock()
	e.scenes[key] = s
}

func (e *engine) RemoveScene(key int) {
	e.scenesMu.Lock()
	defer e.scenesMu.Unlock()
	delete(e.scenes, key)
}

func (e *engine) Scene(key int) scene.Scene {
	e.scenesMu.RLock()
	defer e.scenesMu.RUnlock()
	return e.scenes[key]
}

func (e *engine) Scenes() map[int]scene.Scene {
	e.scenesMu.RLock()
	defer e.scenesMu.RUnlock()
	cp := make(map[int]scene.Scene, len(e.scenes))
	for k, v := range e.scenes {
		cp[k] = v
	}
	return cp
}
