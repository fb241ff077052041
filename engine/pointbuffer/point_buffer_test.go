package pointbuffer

import (
	"errors"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-pointcloud/engine/pointcloud"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/renderer/shader"
)

func testCloud(n int) *pointcloud.PointCloud {
	points := make([]pointcloud.Point, n)
	for i := range points {
		points[i] = pointcloud.Point{
			Position: [3]float32{float32(i), float32(-i), 0.5},
			Color:    pointcloud.Color{R: uint8(i), G: 200, B: 7},
		}
	}
	return pointcloud.New("test", points)
}

func newRenderer(t *testing.T, caps renderer.Capabilities, kinds ...Kind) (renderer.Renderer, renderer.HeadlessBackend) {
	t.Helper()
	r, err := renderer.NewRenderer(renderer.BackendTypeHeadless, nil, renderer.WithHeadlessCapabilities(caps))
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	for _, k := range kinds {
		p, err := NewPipeline(k)
		if err != nil {
			t.Fatalf("NewPipeline(%s) error = %v", k, err)
		}
		if err := r.RegisterPipelines(p); err != nil {
			t.Fatal(err)
		}
	}
	return r, r.Backend().(renderer.HeadlessBackend)
}

func TestPipelineRejectsInvalidShader(t *testing.T) {
	for _, k := range []Kind{KindStructured, KindTexture} {
		if _, err := NewPipeline(k); err != nil {
			t.Errorf("NewPipeline(%s) error = %v", k, err)
		}
	}

	fsSource, err := shader.Asset(fragmentAsset)
	if err != nil {
		t.Fatal(err)
	}
	vsSource, err := shader.Asset(vertexAssets[KindStructured])
	if err != nil {
		t.Fatal(err)
	}
	broken := strings.Replace(vsSource, "return degenerate_point();", "return degenerate_point(;", 1)
	if broken == vsSource {
		t.Fatal("vertex asset no longer contains the edited statement")
	}
	if _, err := buildPipeline("broken", broken, fsSource); err == nil {
		t.Error("buildPipeline accepted a vertex shader that does not parse")
	}
}

func TestSelectKind(t *testing.T) {
	full := renderer.DefaultHeadlessCapabilities
	noVertexStorage := full
	noVertexStorage.StorageBuffersInVertexStage = false

	if k := SelectKind(full); k != KindStructured {
		t.Errorf("SelectKind(full) = %s, want structured", k)
	}
	if k := SelectKind(noVertexStorage); k != KindTexture {
		t.Errorf("SelectKind(no vertex storage) = %s, want texture", k)
	}
	if k := SelectKind(full, WithForceTexture(true)); k != KindTexture {
		t.Errorf("SelectKind(forced) = %s, want texture", k)
	}
	if KindTexture.PipelineKey() != PipelineKeyTexture || KindStructured.PipelineKey() != PipelineKeyStructured {
		t.Error("pipeline keys do not match kinds")
	}
}

func TestCheckCapacity(t *testing.T) {
	caps := renderer.Capabilities{StorageBuffersInVertexStage: true, MaxStorageBufferBindingSize: 160, MaxTextureDimension2D: 4}

	if _, err := CheckCapacity(caps, 10); err != nil {
		t.Errorf("10 points in a 160 byte binding: %v", err)
	}
	if _, err := CheckCapacity(caps, 11); !errors.Is(err, ErrUnsupportedPointCount) {
		t.Errorf("11 points in a 160 byte binding error = %v, want ErrUnsupportedPointCount", err)
	}

	kind, err := CheckCapacity(caps, 16, WithForceTexture(true))
	if kind != KindTexture || err != nil {
		t.Errorf("16 points in a 4x4 texture = %s, %v", kind, err)
	}
	if _, err := CheckCapacity(caps, 17, WithForceTexture(true)); !errors.Is(err, ErrUnsupportedPointCount) {
		t.Errorf("17 points in a 4x4 texture error = %v, want ErrUnsupportedPointCount", err)
	}
	// The requested size is limited by the device.
	if _, err := CheckCapacity(caps, 17, WithForceTexture(true), WithTextureSize(64)); err == nil {
		t.Error("texture size above the device limit was honored")
	}
	if _, err := CheckCapacity(caps, 0); err != nil {
		t.Errorf("empty cloud: %v", err)
	}
}

func TestStructuredStoreUploadsPoints(t *testing.T) {
	r, hb := newRenderer(t, renderer.DefaultHeadlessCapabilities, KindStructured)
	baseline := hb.LiveResources()
	cloud := testCloud(5)

	s, err := NewStore(r, cloud)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if s.Kind() != KindStructured || s.PointCount() != 5 || s.PipelineKey() != PipelineKeyStructured {
		t.Errorf("store = %s/%d/%s", s.Kind(), s.PointCount(), s.PipelineKey())
	}

	data := hb.BufferData(s.BindGroupProvider().Buffer(PointBinding))
	if len(data) != 5*pointcloud.GPUPointSize {
		t.Fatalf("storage buffer = %d bytes, want %d", len(data), 5*pointcloud.GPUPointSize)
	}
	for i, p := range cloud.Points {
		got := pointcloud.UnmarshalGPUPoint(data[i*pointcloud.GPUPointSize:])
		if got != pointcloud.NewGPUPoint(p) {
			t.Errorf("point %d = %+v, want %+v", i, got, pointcloud.NewGPUPoint(p))
		}
	}
	if s.BindGroupProvider().BindGroup() == nil {
		t.Error("bind group not created")
	}

	s.Release()
	s.Release()
	if !s.Released() {
		t.Error("Released() = false")
	}
	if hb.LiveResources() != baseline {
		t.Errorf("live resources after Release: %v", hb.LiveResourceLabels())
	}
}

func TestTextureStoreUploadsTexels(t *testing.T) {
	caps := renderer.DefaultHeadlessCapabilities
	caps.StorageBuffersInVertexStage = false
	r, hb := newRenderer(t, caps, KindTexture)
	baseline := hb.LiveResources()
	cloud := testCloud(6)

	s, err := NewStore(r, cloud, WithTextureSize(4))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if s.Kind() != KindTexture {
		t.Fatalf("Kind() = %s, want texture", s.Kind())
	}

	tex, ok := hb.TextureData(s.BindGroupProvider().TextureView(PointBinding))
	if !ok {
		t.Fatal("no texture at the point binding")
	}
	if tex.Width != 4 || tex.Height != 4 {
		t.Errorf("texture = %dx%d, want 4x4", tex.Width, tex.Height)
	}
	for i, p := range cloud.Points {
		got := pointcloud.UnmarshalTexel(tex.Texels[i*pointcloud.GPUPointTexelSize:])
		if got != p {
			t.Errorf("texel %d = %+v, want %+v", i, got, p)
		}
	}
	// Texels past the last point stay zero.
	for _, b := range tex.Texels[6*pointcloud.GPUPointTexelSize:] {
		if b != 0 {
			t.Fatal("padding texels are not zero")
		}
	}

	s.Release()
	if hb.LiveResources() != baseline {
		t.Errorf("live resources after Release: %v", hb.LiveResourceLabels())
	}
}

func TestEmptyCloudAllocatesNothing(t *testing.T) {
	r, hb := newRenderer(t, renderer.DefaultHeadlessCapabilities)

	s, err := NewStore(r, pointcloud.New("empty", nil))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if s.PointCount() != 0 || s.BindGroupProvider().Initialized() {
		t.Errorf("empty store holds resources")
	}
	if hb.LiveResources() != 0 {
		t.Errorf("LiveResources() = %d, want 0", hb.LiveResources())
	}
	s.Release()
}

func TestNewStoreErrors(t *testing.T) {
	r, hb := newRenderer(t, renderer.DefaultHeadlessCapabilities)
	if _, err := NewStore(r, testCloud(3)); err == nil {
		t.Error("NewStore() without a registered pipeline succeeded")
	}

	caps := renderer.Capabilities{StorageBuffersInVertexStage: true, MaxStorageBufferBindingSize: 32, MaxTextureDimension2D: 16}
	r, hb = newRenderer(t, caps, KindStructured)
	if _, err := NewStore(r, testCloud(3)); !errors.Is(err, ErrUnsupportedPointCount) {
		t.Errorf("NewStore() over the binding limit error = %v, want ErrUnsupportedPointCount", err)
	}
	// Only the pipeline is live.
	if hb.LiveResources() != 1 {
		t.Errorf("failed stores leaked resources: %v", hb.LiveResourceLabels())
	}
}
