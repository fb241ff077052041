package common

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestGPUProjectionDepthRange(t *testing.T) {
	proj := mgl32.Perspective(mgl32.DegToRad(45), 1, 0.1, 100)
	gpu := GPUProjection(proj)

	for _, tc := range []struct {
		name  string
		z     float32
		wantD float32
	}{
		{"near", -0.1, 0},
		{"far", -100, 1},
	} {
		clip := gpu.Mul4x1(mgl32.Vec4{0, 0, tc.z, 1})
		d := clip.Z() / clip.W()
		if math.Abs(float64(d-tc.wantD)) > 1e-4 {
			t.Errorf("%s: depth = %v, want %v", tc.name, d, tc.wantD)
		}
	}
}

func TestModelViewProjectionOrder(t *testing.T) {
	model := mgl32.Translate3D(1, 0, 0)
	view := mgl32.Ident4()
	proj := mgl32.Ident4()
	mvp := ModelViewProjection(model, view, proj)

	p := mvp.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	if p.X() != 1 {
		t.Fatalf("x = %v, want 1", p.X())
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(150, 1, 100); got != 100 {
		t.Errorf("Clamp(150) = %d", got)
	}
	if got := Clamp(-3, 1, 100); got != 1 {
		t.Errorf("Clamp(-3) = %d", got)
	}
	if got := ClampFinite(float32(math.NaN()), 0, 1); got != 0 {
		t.Errorf("ClampFinite(NaN) = %v", got)
	}
}

func TestCeilDiv(t *testing.T) {
	cases := []struct{ a, b, want uint64 }{
		{0, 7, 0},
		{1, 7, 1},
		{7, 7, 1},
		{8, 7, 2},
		{16385, 16384, 2},
	}
	for _, c := range cases {
		if got := CeilDiv(c.a, c.b); got != c.want {
			t.Errorf("CeilDiv(%d, %d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}
