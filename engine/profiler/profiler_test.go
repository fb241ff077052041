package profiler

import (
	"testing"
	"time"
)

func TestTickReportsAfterInterval(t *testing.T) {
	calls := 0
	p := NewProfiler(
		WithUpdateInterval(time.Millisecond),
		WithStatsFunc(func() string {
			calls++
			return "points: 10"
		}),
	)

	time.Sleep(2 * time.Millisecond)
	if !p.Tick() {
		t.Fatal("Tick after the interval should report")
	}
	if calls != 1 {
		t.Errorf("stats func calls = %d, want 1", calls)
	}
	if p.FPS() <= 0 {
		t.Errorf("FPS = %v, want > 0", p.FPS())
	}
}

func TestTickWithinInterval(t *testing.T) {
	p := NewProfiler(WithUpdateInterval(time.Hour))
	for range 10 {
		if p.Tick() {
			t.Fatal("Tick within the interval should not report")
		}
	}
	if p.FPS() != 0 {
		t.Errorf("FPS before first report = %v, want 0", p.FPS())
	}
}

func TestWithUpdateIntervalIgnoresNonPositive(t *testing.T) {
	p := NewProfiler(WithUpdateInterval(0))
	if p.updateInterval != time.Second {
		t.Errorf("updateInterval = %v, want 1s", p.updateInterval)
	}
}
