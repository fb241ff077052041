// Package pointbuffer uploads a point cloud to the device in one of two layouts: a read-only
// storage buffer of GPUPoint records, or, on devices without vertex-stage storage buffers, an
// RGBA32Float texture with one texel per point.
package pointbuffer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-pointcloud/common"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/pointcloud"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/renderer/bind_group_provider"
	"github.com/golang/glog"
)

// ErrUnsupportedPointCount is returned when the selected storage cannot hold every point.
var ErrUnsupportedPointCount = errors.New("point count unsupported by device storage")

const (
	// PointGroup is the bind group index of the point storage in both pipelines.
	PointGroup = 1

	// PointBinding is the binding index of the point storage within PointGroup.
	PointBinding = 0

	// DefaultTextureSize is the width and height of the fallback texture.
	DefaultTextureSize = 2048

	// PipelineKeyStructured is the pipeline that reads points from a storage buffer.
	PipelineKeyStructured = "point-structured"

	// PipelineKeyTexture is the pipeline that reads points from a texture.
	PipelineKeyTexture = "point-texture"
)

// Kind identifies how a Store keeps its points on the device.
type Kind int

const (
	// KindStructured stores points in a read-only storage buffer, 16 bytes per point.
	KindStructured Kind = iota

	// KindTexture stores points in an RGBA32Float texture, one texel per point.
	KindTexture
)

func (k Kind) String() string {
	switch k {
	case KindStructured:
		return "structured"
	case KindTexture:
		return "texture"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// PipelineKey returns the key of the pipeline that reads this kind of storage.
func (k Kind) PipelineKey() string {
	if k == KindTexture {
		return PipelineKeyTexture
	}
	return PipelineKeyStructured
}

type store struct {
	mu                *sync.Mutex
	kind              Kind
	pointCount        int
	textureSize       uint32
	forceTexture      bool
	bindGroupProvider bind_group_provider.BindGroupProvider
	released          bool
}

// Store defines the interface for a cloud uploaded to the device. It owns the storage buffer
// or texture and the bind group that exposes it at PointGroup.
type Store interface {
	// Kind returns the storage layout in use.
	Kind() Kind

	// PointCount returns the number of uploaded points.
	PointCount() int

	// PipelineKey returns the key of the pipeline that reads this store.
	PipelineKey() string

	// BindGroupProvider retrieves the provider bound at PointGroup. It holds no resources for an
	// empty cloud or after Release.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the point storage provider
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// Released reports whether Release has been called.
	Released() bool

	// Release releases the storage and its bind group. Calling it again is a no-op.
	Release()
}

var _ Store = &store{}

// SelectKind picks the storage layout for a device.
//
// Parameters:
//   - caps: the device capabilities
//   - options: a variadic list of StoreBuilderOption functions
//
// Returns:
//   - Kind: KindStructured when the vertex stage can read storage buffers and no option forces the texture
func SelectKind(caps renderer.Capabilities, options ...StoreBuilderOption) Kind {
	s := newStore(options...)
	return s.selectKind(caps)
}

// CheckCapacity reports whether a cloud of count points fits the storage NewStore would pick,
// without allocating anything.
//
// Parameters:
//   - caps: the device capabilities
//   - count: the number of points
//   - options: a variadic list of StoreBuilderOption functions
//
// Returns:
//   - Kind: the storage layout that would be used
//   - error: ErrUnsupportedPointCount (wrapped) if the cloud does not fit
func CheckCapacity(caps renderer.Capabilities, count int, options ...StoreBuilderOption) (Kind, error) {
	s := newStore(options...)
	kind := s.selectKind(caps)
	return kind, s.checkCapacity(caps, kind, count)
}

// NewStore uploads cloud in the layout the renderer's device supports. The pipeline for the
// chosen kind must already be registered, its PointGroup layout is used for the bind group.
// Nothing is allocated for an empty cloud. On error every resource created so far is released.
//
// Parameters:
//   - r: the renderer to allocate with
//   - cloud: the points to upload
//   - options: a variadic list of StoreBuilderOption functions
//
// Returns:
//   - Store: the uploaded store
//   - error: ErrUnsupportedPointCount (wrapped) if the cloud does not fit, or an allocation error
func NewStore(r renderer.Renderer, cloud *pointcloud.PointCloud, options ...StoreBuilderOption) (Store, error) {
	s := newStore(options...)
	caps := r.Capabilities()
	s.kind = s.selectKind(caps)
	s.pointCount = cloud.Count()
	s.bindGroupProvider = bind_group_provider.NewBindGroupProvider("point-" + s.kind.String())

	if err := s.checkCapacity(caps, s.kind, s.pointCount); err != nil {
		return nil, err
	}
	if s.kind == KindTexture && caps.StorageBuffersInVertexStage {
		glog.V(1).Infof("[PointBuffer] texture storage forced for %d points", s.pointCount)
	} else if s.kind == KindTexture {
		glog.Warningf("[PointBuffer] vertex storage buffers unsupported, using %dx%d texture", s.textureSide(caps), s.textureSide(caps))
	}
	if s.pointCount == 0 {
		return s, nil
	}

	p := r.Pipeline(s.kind.PipelineKey())
	if p == nil {
		return nil, fmt.Errorf("pipeline %q is not registered", s.kind.PipelineKey())
	}
	layout := p.BindGroupLayoutDescriptors()[PointGroup]

	var err error
	switch s.kind {
	case KindStructured:
		err = s.initStructured(r, cloud, layout)
	case KindTexture:
		err = s.initTexture(r, cloud, layout, caps)
	}
	if err != nil {
		s.bindGroupProvider.Release()
		return nil, fmt.Errorf("upload %d points (%s): %w", s.pointCount, s.kind, err)
	}
	glog.V(1).Infof("[PointBuffer] uploaded %d points as %s", s.pointCount, s.kind)
	return s, nil
}

func newStore(options ...StoreBuilderOption) *store {
	s := &store{
		mu:          &sync.Mutex{},
		textureSize: DefaultTextureSize,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.textureSize == 0 {
		s.textureSize = DefaultTextureSize
	}
	return s
}

func (s *store) selectKind(caps renderer.Capabilities) Kind {
	if caps.StorageBuffersInVertexStage && !s.forceTexture {
		return KindStructured
	}
	return KindTexture
}

// textureSide is the fallback texture's width and height, limited by the device.
func (s *store) textureSide(caps renderer.Capabilities) uint32 {
	side := s.textureSize
	if caps.MaxTextureDimension2D > 0 {
		side = min(side, caps.MaxTextureDimension2D)
	}
	return side
}

func (s *store) checkCapacity(caps renderer.Capabilities, kind Kind, count int) error {
	switch kind {
	case KindStructured:
		need := uint64(count) * pointcloud.GPUPointSize
		if need > caps.MaxStorageBufferBindingSize {
			return fmt.Errorf("%w: %d points need %d bytes, device binding limit is %d",
				ErrUnsupportedPointCount, count, need, caps.MaxStorageBufferBindingSize)
		}
	case KindTexture:
		side := uint64(s.textureSide(caps))
		if uint64(count) > side*side {
			return fmt.Errorf("%w: %d points exceed the %dx%d point texture",
				ErrUnsupportedPointCount, count, side, side)
		}
	}
	return nil
}

func (s *store) initStructured(r renderer.Renderer, cloud *pointcloud.PointCloud, layout shaderLayout) error {
	size := uint64(s.pointCount) * pointcloud.GPUPointSize
	if err := r.InitBindGroup(s.bindGroupProvider, layout, map[int]uint64{PointBinding: size}); err != nil {
		return err
	}
	r.WriteBuffers([]bind_group_provider.BufferWrite{{
		Provider: s.bindGroupProvider,
		Binding:  PointBinding,
		Data:     pointcloud.MarshalPoints(cloud.Points),
	}})
	return nil
}

func (s *store) initTexture(r renderer.Renderer, cloud *pointcloud.PointCloud, layout shaderLayout, caps renderer.Capabilities) error {
	side := s.textureSide(caps)
	staging := common.TextureStagingData{
		Width:  side,
		Height: side,
		Format: common.TexelFormatRGBA32Float,
	}
	texels := pointcloud.MarshalTexels(cloud.Points)
	// Uploads cover whole rows; the tail of the last row stays zero.
	staging.Texels = make([]byte, int(common.CeilDiv(uint64(len(texels)), uint64(staging.BytesPerRow())))*int(staging.BytesPerRow()))
	copy(staging.Texels, texels)

	if err := r.InitTextureView(s.bindGroupProvider, PointBinding, staging); err != nil {
		return err
	}
	return r.InitBindGroup(s.bindGroupProvider, layout, nil)
}

func (s *store) Kind() Kind {
	return s.kind
}

func (s *store) PointCount() int {
	return s.pointCount
}

func (s *store) PipelineKey() string {
	return s.kind.PipelineKey()
}

func (s *store) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return s.bindGroupProvider
}

func (s *store) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

func (s *store) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	s.released = true
	s.bindGroupProvider.Release()
}
