package drawbatch

import (
	"bytes"
	"testing"
)

func TestEffectivePointCount(t *testing.T) {
	cases := []struct {
		total   uint64
		density int
		want    uint64
	}{
		{0, 100, 0},
		{0, 1, 0},
		{1, 1, 1},
		{1000, 100, 1000},
		{1000, 50, 500},
		{1000, 1, 10},
		{1001, 1, 11},
		{999, 33, 330},
		{7, 150, 7},
		{7, -4, 1},
		{1 << 40, 37, (1 << 40) * 37 / 100 + 1},
	}
	for _, tc := range cases {
		if got := EffectivePointCount(tc.total, tc.density); got != tc.want {
			t.Errorf("EffectivePointCount(%d, %d) = %d, want %d", tc.total, tc.density, got, tc.want)
		}
	}
}

func TestEffectivePointCountMonotonic(t *testing.T) {
	for _, total := range []uint64{1, 99, 100, 101, 16385, 1234567} {
		prev := uint64(0)
		for d := MinDensity; d <= MaxDensity; d++ {
			got := EffectivePointCount(total, d)
			if got < prev {
				t.Fatalf("total %d: density %d gives %d < %d", total, d, got, prev)
			}
			if got > total {
				t.Fatalf("total %d: density %d gives %d > total", total, d, got)
			}
			prev = got
		}
		if prev != total {
			t.Fatalf("total %d: density 100 gives %d", total, prev)
		}
		if want := (total + 99) / 100; EffectivePointCount(total, 1) != want {
			t.Fatalf("total %d: density 1 gives %d, want %d", total, EffectivePointCount(total, 1), want)
		}
	}
}

func TestSamplesStayInRange(t *testing.T) {
	// Every drawn sample must map to a stored point: floor((effective-1) * stride) < total.
	for _, total := range []uint64{1, 3, 100, 101, 9999} {
		for d := MinDensity; d <= MaxDensity; d++ {
			b := Plan(total, 0, d)
			last := uint64(float64(b.EffectivePointCount-1) * 100 / float64(d))
			if last >= total {
				t.Fatalf("total %d density %d: last sample index %d out of range", total, d, last)
			}
		}
	}
}

func TestPlanBatchSizing(t *testing.T) {
	cases := []struct {
		total     uint64
		density   int
		instances uint32
	}{
		{0, 100, 0},
		{1, 100, 1},
		{16384, 100, 1},
		{16385, 100, 2},
		{32768, 100, 2},
		{32768, 50, 1},
		{1_000_000, 100, 62},
	}
	for _, tc := range cases {
		b := Plan(tc.total, DefaultTileCapacity, tc.density)
		if b.InstanceCount != tc.instances {
			t.Errorf("Plan(%d, %d).InstanceCount = %d, want %d", tc.total, tc.density, b.InstanceCount, tc.instances)
		}
		if b.IndexCountPerInstance != 6*DefaultTileCapacity {
			t.Errorf("IndexCountPerInstance = %d", b.IndexCountPerInstance)
		}
	}
}

func TestPlanClampsDensity(t *testing.T) {
	if b := Plan(10, 4, 0); b.Density != 1 || b.Stride != 100 {
		t.Errorf("density 0 planned as %+v", b)
	}
	if b := Plan(10, 4, 500); b.Density != 100 || b.Stride != 1 || b.InstanceCount != 3 {
		t.Errorf("density 500 planned as %+v", b)
	}
}

func TestArgsLayout(t *testing.T) {
	args := Plan(16385, DefaultTileCapacity, 100).Args()
	want := []byte{
		0x00, 0x80, 0x01, 0x00, // 98304
		0x02, 0x00, 0x00, 0x00,
		0, 0, 0, 0,
		0, 0, 0, 0,
		0, 0, 0, 0,
	}
	if got := args.Marshal(); !bytes.Equal(got, want) {
		t.Fatalf("Marshal = %v, want %v", got, want)
	}
	if args.Size() != GPUIndirectArgsSize {
		t.Fatalf("Size = %d", args.Size())
	}
	if back := UnmarshalGPUIndirectArgs(args.Marshal()); back != args {
		t.Fatalf("Unmarshal = %+v", back)
	}
}

func TestPlannerDefersDensity(t *testing.T) {
	p := NewPlanner(100_000, WithDensity(100))
	if p.Batch().InstanceCount != 7 {
		t.Fatalf("initial instances = %d", p.Batch().InstanceCount)
	}

	p.SetDensity(10)
	p.SetDensity(20)
	p.SetDensity(50)
	if p.Batch().Density != 100 {
		t.Fatal("SetDensity applied before Apply")
	}
	if !p.Apply() {
		t.Fatal("Apply reported no change")
	}
	if b := p.Batch(); b.Density != 50 || b.EffectivePointCount != 50_000 || b.InstanceCount != 4 {
		t.Fatalf("batch after Apply = %+v", b)
	}
	if p.Apply() {
		t.Fatal("second Apply recomputed")
	}
}

func TestPlannerSameArgsReportsNoChange(t *testing.T) {
	p := NewPlanner(10)
	p.SetDensity(60)
	if p.Apply() {
		t.Fatal("10 points fit one tile at any density; args should be unchanged")
	}
	if p.Density() != 60 {
		t.Fatalf("density = %d, want 60", p.Density())
	}
}

func TestPlannerSetBackCancels(t *testing.T) {
	p := NewPlanner(100_000)
	p.SetDensity(10)
	p.SetDensity(100)
	if p.Dirty() {
		t.Fatal("returning to the current density left the planner dirty")
	}
}

func TestPlannerReset(t *testing.T) {
	p := NewPlanner(0, WithTileCapacity(4))
	if !p.Batch().Empty() {
		t.Fatal("zero points should plan an empty batch")
	}
	p.SetDensity(50)
	p.Reset(9)
	b := p.Batch()
	if b.Density != 50 || b.EffectivePointCount != 5 || b.InstanceCount != 2 || b.IndexCountPerInstance != 24 {
		t.Fatalf("batch after Reset = %+v", b)
	}
	if p.Dirty() {
		t.Fatal("Reset left the planner dirty")
	}
}
