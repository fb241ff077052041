package pointcloud

import "testing"

func TestBounds(t *testing.T) {
	c := New("t", []Point{
		{Position: [3]float32{1, -2, 3}},
		{Position: [3]float32{-4, 5, 0}},
		{Position: [3]float32{0, 0, 9}},
	})
	b := c.Bounds()
	if b.Min != [3]float32{-4, -2, 0} || b.Max != [3]float32{1, 5, 9} {
		t.Fatalf("Bounds() = %+v", b)
	}
	if got := b.Center(); got != [3]float32{-1.5, 1.5, 4.5} {
		t.Fatalf("Center() = %v", got)
	}
}

func TestEmptyCloud(t *testing.T) {
	var nilCloud *PointCloud
	if nilCloud.Count() != 0 {
		t.Fatal("nil cloud should have zero points")
	}
	c := New("empty", nil)
	if c.Count() != 0 || c.Bounds() != (Bounds{}) {
		t.Fatalf("empty cloud: count=%d bounds=%+v", c.Count(), c.Bounds())
	}
}

func TestGPUPointLayout(t *testing.T) {
	g := NewGPUPoint(Point{Position: [3]float32{1, 2, 3}, Color: Color{R: 0x11, G: 0x22, B: 0x33}})
	if g.Size() != GPUPointSize {
		t.Fatalf("Size() = %d, want %d", g.Size(), GPUPointSize)
	}
	if g.Color != 0xFF332211 {
		t.Fatalf("packed color = %#x, want 0xff332211", g.Color)
	}
	back := UnmarshalGPUPoint(g.Marshal())
	if back != g {
		t.Fatalf("decoded %+v, want %+v", back, g)
	}
	if UnpackColor(g.Color) != (Color{0x11, 0x22, 0x33}) {
		t.Fatalf("UnpackColor = %+v", UnpackColor(g.Color))
	}
}

func TestMarshalPointsOffsets(t *testing.T) {
	pts := []Point{
		{Position: [3]float32{1, 0, 0}, Color: Color{R: 1}},
		{Position: [3]float32{0, 2, 0}, Color: Color{G: 2}},
		{Position: [3]float32{0, 0, 3}, Color: Color{B: 3}},
	}
	buf := MarshalPoints(pts)
	if len(buf) != 3*GPUPointSize {
		t.Fatalf("len = %d", len(buf))
	}
	for i, p := range pts {
		got := UnmarshalGPUPoint(buf[i*GPUPointSize:])
		if got.Position != p.Position || UnpackColor(got.Color) != p.Color {
			t.Errorf("point %d = %+v, want %+v", i, got, p)
		}
	}
	if MarshalPoints(nil) != nil {
		t.Fatal("MarshalPoints(nil) should be nil")
	}
}

func TestMarshalTexelsKeepsColorExact(t *testing.T) {
	pts := []Point{
		{Position: [3]float32{1, 2, 3}, Color: Color{R: 255, G: 255, B: 255}},
		{Position: [3]float32{-1, 0.5, 8}, Color: Color{R: 0, G: 128, B: 200}},
	}
	buf := MarshalTexels(pts)
	if len(buf) != 2*GPUPointTexelSize {
		t.Fatalf("len = %d", len(buf))
	}
	for i, p := range pts {
		if got := UnmarshalTexel(buf[i*GPUPointTexelSize:]); got != p {
			t.Errorf("texel %d = %+v, want %+v", i, got, p)
		}
	}
}
