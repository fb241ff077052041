// Package pointrenderer owns the lifetime of one loaded point cloud on the device and turns it
// into a single indirect draw per frame.
package pointrenderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-pointcloud/common"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/drawbatch"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/loader"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/model"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/pointbuffer"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/pointcloud"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/golang/glog"
)

// State is the lifecycle state of a PointRenderer.
type State int

const (
	// StateUnloaded holds no cloud and no device resources. The initial state.
	StateUnloaded State = iota
	// StateInitializing is held while Init uploads a cloud.
	StateInitializing
	// StateReady has a cloud on the device and draws it each frame.
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

const (
	// MinFootprintSize is the smallest point size in pixels.
	MinFootprintSize = 1
	// MaxFootprintSize is the largest point size in pixels.
	MaxFootprintSize = 10

	// DefaultFootprintSize is the point size in pixels of a new renderer.
	DefaultFootprintSize = 2
	// DefaultAlpha draws points fully opaque.
	DefaultAlpha = 1
	// DefaultDensity draws every point.
	DefaultDensity = drawbatch.MaxDensity
)

// Camera supplies the view and projection matrices for a frame. The projection uses the
// OpenGL depth convention; the clip-space correction is applied when composing the MVP.
type Camera interface {
	ViewMatrix() mgl32.Mat4
	ProjectionMatrix() mgl32.Mat4
}

// Stats is a snapshot of the renderer's draw state.
type Stats struct {
	State           State
	Kind            pointbuffer.Kind
	TotalPoints     uint64
	EffectivePoints uint64
	InstanceCount   uint32
	Density         int
	FootprintSize   int
	Alpha           float32
}

// pointRenderer is the implementation of the PointRenderer interface.
type pointRenderer struct {
	mu *sync.Mutex

	renderer     renderer.Renderer
	loader       loader.Loader
	tileCapacity uint32
	storeOptions []pointbuffer.StoreBuilderOption

	state     State
	cloud     *pointcloud.PointCloud
	lastPath  string
	suspended *pointcloud.PointCloud

	tile     model.QuadTile
	store    pointbuffer.Store
	material material.PointMaterial
	indirect bind_group_provider.BindGroupProvider
	planner  drawbatch.Planner

	footprintSize int
	alpha         float32
	density       int
	transform     mgl32.Mat4
	width, height int

	onCloudLoaded []func(pointCount int)
	onLoadFailed  []func(kind ErrorKind, err error)
}

// PointRenderer defines the interface for loading a point cloud onto the device and drawing it.
// A renderer holds at most one cloud; loading another replaces it.
type PointRenderer interface {
	// Init uploads cloud and replaces the current one. Capacity is checked before anything is
	// released, so a cloud the device cannot hold leaves the current cloud Ready. A failure after
	// that point releases everything and leaves the renderer Unloaded.
	//
	// Parameters:
	//   - cloud: the cloud to draw
	//
	// Returns:
	//   - error: pointbuffer.ErrUnsupportedPointCount (wrapped) or an allocation error
	Init(cloud *pointcloud.PointCloud) error

	// LoadCloud reads path with the loader and calls Init. OnCloudLoaded or OnLoadFailed
	// subscribers are notified after the renderer's state has settled.
	//
	// Parameters:
	//   - path: the PLY file to read
	//
	// Returns:
	//   - error: the load or init error, classified by KindOf
	LoadCloud(path string) error

	// Reload reads the last path passed to LoadCloud again.
	Reload() error

	// Unload releases every device resource of the current cloud. Calling it again is a no-op.
	Unload()

	// Suspend unloads the cloud but remembers it for Resume.
	Suspend()

	// Resume re-initializes the cloud remembered by Suspend. No-op if nothing was suspended.
	Resume() error

	// State returns the lifecycle state.
	State() State

	// Cloud returns the loaded cloud, or nil.
	Cloud() *pointcloud.PointCloud

	// SetFootprintSize sets the on-screen point size in whole pixels, clamped to [1, 10].
	SetFootprintSize(size int)

	// SetAlpha sets the point opacity, clamped to [0, 1].
	SetAlpha(alpha float32)

	// SetDensity sets the drawn percentage of points, clamped to [1, 100]. The change takes
	// effect at the next PrepareFrame.
	SetDensity(density int)

	// SetTransform sets the object-to-world transform of the cloud.
	SetTransform(m mgl32.Mat4)

	// SetViewport sets the framebuffer size used to convert the footprint to clip space.
	SetViewport(width, height int)

	// PrepareFrame applies a pending density change and uploads the frame uniform and, if it
	// changed, the indirect argument block. Does nothing unless Ready.
	//
	// Parameters:
	//   - cam: the camera to render from
	PrepareFrame(cam Camera)

	// DrawCalls records the cloud's indirect draw into the current frame. Records nothing for an
	// empty cloud or when not Ready.
	//
	// Returns:
	//   - error: the renderer's error if the draw is rejected
	DrawCalls() error

	// OnCloudLoaded registers fn to receive the point count after every successful LoadCloud.
	OnCloudLoaded(fn func(pointCount int))

	// OnLoadFailed registers fn to receive the kind and cause of every failed LoadCloud.
	OnLoadFailed(fn func(kind ErrorKind, err error))

	// Stats returns a snapshot of the draw state.
	Stats() Stats

	// Release unloads the cloud and forgets any suspended one.
	Release()
}

var _ PointRenderer = &pointRenderer{}

// NewPointRenderer creates a new PointRenderer drawing through r. Nothing is allocated until a
// cloud is loaded.
//
// Parameters:
//   - r: the renderer that owns the device
//   - options: a variadic list of PointRendererBuilderOption functions
//
// Returns:
//   - PointRenderer: the new renderer, Unloaded
func NewPointRenderer(r renderer.Renderer, options ...PointRendererBuilderOption) PointRenderer {
	pr := &pointRenderer{
		mu:            &sync.Mutex{},
		renderer:      r,
		tileCapacity:  drawbatch.DefaultTileCapacity,
		footprintSize: DefaultFootprintSize,
		alpha:         DefaultAlpha,
		density:       DefaultDensity,
		transform:     mgl32.Ident4(),
	}
	pr.width, pr.height = r.Size()
	for _, opt := range options {
		opt(pr)
	}
	if pr.loader == nil {
		pr.loader = loader.NewLoader(loader.BackendTypePLY, loader.WithCache(false))
	}
	if pr.tileCapacity == 0 {
		pr.tileCapacity = drawbatch.DefaultTileCapacity
	}
	pr.footprintSize = common.Clamp(pr.footprintSize, MinFootprintSize, MaxFootprintSize)
	pr.alpha = common.ClampFinite(pr.alpha, 0, 1)
	pr.density = drawbatch.ClampDensity(pr.density)
	return pr
}

func (p *pointRenderer) Init(cloud *pointcloud.PointCloud) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.initLocked(cloud)
}

func (p *pointRenderer) initLocked(cloud *pointcloud.PointCloud) error {
	if cloud == nil {
		cloud = pointcloud.New("", nil)
	}
	count := cloud.Count()

	kind, err := pointbuffer.CheckCapacity(p.renderer.Capabilities(), count, p.storeOptions...)
	if err != nil {
		return fmt.Errorf("init %q: %w", cloud.Name, err)
	}
	if err := p.ensurePipeline(kind); err != nil {
		return fmt.Errorf("init %q: %w", cloud.Name, err)
	}

	p.unloadLocked()
	p.state = StateInitializing
	p.cloud = cloud
	p.planner = drawbatch.NewPlanner(uint64(count),
		drawbatch.WithTileCapacity(p.tileCapacity),
		drawbatch.WithDensity(p.density),
	)

	if count > 0 {
		if err := p.allocateLocked(cloud); err != nil {
			p.unloadLocked()
			return fmt.Errorf("init %q: %w", cloud.Name, err)
		}
	}

	p.state = StateReady
	batch := p.planner.Batch()
	glog.Infof("[PointRenderer] ready %q: %d points, %s storage, %d instances",
		cloud.Name, count, kind, batch.InstanceCount)
	return nil
}

// allocateLocked creates the tile, store, material and indirect buffer for a non-empty cloud.
// Whatever was created is left on p for unloadLocked to release on failure.
func (p *pointRenderer) allocateLocked(cloud *pointcloud.PointCloud) error {
	p.tile = model.NewQuadTile(model.WithCapacity(p.tileCapacity))
	if err := p.tile.InitGPU(p.renderer); err != nil {
		return err
	}

	store, err := pointbuffer.NewStore(p.renderer, cloud, p.storeOptions...)
	if err != nil {
		return err
	}
	p.store = store

	p.material = material.NewPointMaterial(
		material.WithName("point-material"),
		material.WithFootprintSize(float32(p.footprintSize)),
		material.WithAlpha(p.alpha),
		material.WithViewport(p.width, p.height),
	)
	p.material.SetPipelineKey(store.PipelineKey())
	layouts := p.renderer.Pipeline(store.PipelineKey()).BindGroupLayoutDescriptors()
	if err := p.renderer.InitBindGroup(p.material.BindGroupProvider(), layouts[material.UniformGroup], nil); err != nil {
		return err
	}

	batch := p.planner.Batch()
	p.material.SetBatch(batch.Stride, uint32(batch.TotalPoints), batch.TileCapacity)
	args := batch.Args()
	p.indirect = bind_group_provider.NewBindGroupProvider("point-indirect")
	return p.renderer.InitIndirectBuffer(p.indirect, args.Marshal())
}

func (p *pointRenderer) ensurePipeline(kind pointbuffer.Kind) error {
	if p.renderer.Pipeline(kind.PipelineKey()) != nil {
		return nil
	}
	pl, err := pointbuffer.NewPipeline(kind)
	if err != nil {
		return err
	}
	return p.renderer.RegisterPipelines(pl)
}

func (p *pointRenderer) LoadCloud(path string) error {
	p.mu.Lock()
	p.lastPath = path
	p.mu.Unlock()

	cloud, err := p.loader.Load(path)
	if err == nil {
		err = p.Init(cloud)
	}
	if err != nil {
		kind := KindOf(err)
		glog.Errorf("[PointRenderer] load %s failed (%s): %v", path, kind, err)
		for _, fn := range p.failedCallbacks() {
			fn(kind, err)
		}
		return err
	}

	for _, fn := range p.loadedCallbacks() {
		fn(cloud.Count())
	}
	return nil
}

func (p *pointRenderer) Reload() error {
	p.mu.Lock()
	path := p.lastPath
	p.mu.Unlock()
	if path == "" {
		return errors.New("reload: no cloud was loaded from a file")
	}
	return p.LoadCloud(path)
}

func (p *pointRenderer) Unload() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.suspended = nil
	p.unloadLocked()
}

// unloadLocked releases every device resource and returns to Unloaded. The caller must hold mu.
func (p *pointRenderer) unloadLocked() {
	if p.store != nil {
		p.store.Release()
		p.store = nil
	}
	if p.indirect != nil {
		p.indirect.Release()
		p.indirect = nil
	}
	if p.material != nil {
		p.material.Release()
		p.material = nil
	}
	if p.tile != nil {
		p.tile.Release()
		p.tile = nil
	}
	if p.state != StateUnloaded {
		glog.V(1).Infof("[PointRenderer] unloaded %q", p.cloud.Name)
	}
	p.planner = nil
	p.cloud = nil
	p.state = StateUnloaded
}

func (p *pointRenderer) Suspend() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateReady {
		return
	}
	p.suspended = p.cloud
	p.unloadLocked()
}

func (p *pointRenderer) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	cloud := p.suspended
	if cloud == nil {
		return nil
	}
	p.suspended = nil
	return p.initLocked(cloud)
}

func (p *pointRenderer) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *pointRenderer) Cloud() *pointcloud.PointCloud {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cloud
}

func (p *pointRenderer) SetFootprintSize(size int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.footprintSize = common.Clamp(size, MinFootprintSize, MaxFootprintSize)
	if p.material != nil {
		p.material.SetFootprintSize(float32(p.footprintSize))
	}
}

func (p *pointRenderer) SetAlpha(alpha float32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alpha = common.ClampFinite(alpha, 0, 1)
	if p.material != nil {
		p.material.SetAlpha(p.alpha)
	}
}

func (p *pointRenderer) SetDensity(density int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.density = drawbatch.ClampDensity(density)
	if p.planner != nil {
		p.planner.SetDensity(p.density)
	}
}

func (p *pointRenderer) SetTransform(m mgl32.Mat4) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transform = m
}

func (p *pointRenderer) SetViewport(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.width, p.height = width, height
	if p.material != nil {
		p.material.SetViewport(width, height)
	}
}

func (p *pointRenderer) PrepareFrame(cam Camera) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateReady || p.material == nil {
		return
	}

	var writes []bind_group_provider.BufferWrite
	if p.planner.Dirty() {
		// The stride changes with density even when the argument block does not.
		argsChanged := p.planner.Apply()
		batch := p.planner.Batch()
		p.material.SetBatch(batch.Stride, uint32(batch.TotalPoints), batch.TileCapacity)
		if argsChanged {
			args := batch.Args()
			writes = append(writes, bind_group_provider.BufferWrite{
				Provider: p.indirect,
				Binding:  0,
				Data:     args.Marshal(),
			})
		}
		glog.V(1).Infof("[PointRenderer] density %d%%: %s", batch.Density, batch)
	}

	mvp := common.ModelViewProjection(p.transform, cam.ViewMatrix(), cam.ProjectionMatrix())
	p.material.SetTransforms(mvp, p.transform)
	writes = append(p.material.Flush(), writes...)
	p.renderer.WriteBuffers(writes)
}

func (p *pointRenderer) DrawCalls() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateReady || p.store == nil || p.planner.Batch().Empty() {
		return nil
	}
	return p.renderer.DrawCallIndirect(
		p.store.PipelineKey(),
		p.tile.MeshProvider(),
		p.indirect,
		[]bind_group_provider.BindGroupProvider{p.material.BindGroupProvider(), p.store.BindGroupProvider()},
	)
}

func (p *pointRenderer) OnCloudLoaded(fn func(pointCount int)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onCloudLoaded = append(p.onCloudLoaded, fn)
}

func (p *pointRenderer) OnLoadFailed(fn func(kind ErrorKind, err error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onLoadFailed = append(p.onLoadFailed, fn)
}

func (p *pointRenderer) loadedCallbacks() []func(int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]func(int){}, p.onCloudLoaded...)
}

func (p *pointRenderer) failedCallbacks() []func(ErrorKind, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]func(ErrorKind, error){}, p.onLoadFailed...)
}

func (p *pointRenderer) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := Stats{
		State:         p.state,
		Density:       p.density,
		FootprintSize: p.footprintSize,
		Alpha:         p.alpha,
	}
	if p.store != nil {
		s.Kind = p.store.Kind()
	}
	if p.planner != nil {
		b := p.planner.Batch()
		s.TotalPoints = b.TotalPoints
		s.EffectivePoints = b.EffectivePointCount
		s.InstanceCount = b.InstanceCount
	}
	return s
}

func (p *pointRenderer) Release() {
	p.Unload()
}
