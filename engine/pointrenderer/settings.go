package pointrenderer

import (
	"github.com/Carmen-Shannon/oxy-pointcloud/common"
	"github.com/Carmen-Shannon/oxy-pointcloud/engine/drawbatch"
)

// Settings holds the user-facing render settings as observables, so input handlers and UI can
// change them without holding a PointRenderer.
type Settings struct {
	Size    *common.Observable[int]
	Alpha   *common.Observable[float32]
	Density *common.Observable[int]
}

// NewSettings creates Settings holding the renderer defaults.
func NewSettings() *Settings {
	return &Settings{
		Size:    common.NewObservable(DefaultFootprintSize),
		Alpha:   common.NewObservable[float32](DefaultAlpha),
		Density: common.NewObservable(DefaultDensity),
	}
}

// Attach pushes the current values into pr and forwards every later change until the returned
// function is called.
//
// Parameters:
//   - pr: the renderer to drive
//
// Returns:
//   - func(): detaches pr; safe to call more than once
func (s *Settings) Attach(pr PointRenderer) func() {
	pr.SetFootprintSize(s.Size.Value())
	pr.SetAlpha(s.Alpha.Value())
	pr.SetDensity(s.Density.Value())

	size := s.Size.Subscribe(pr.SetFootprintSize)
	alpha := s.Alpha.Subscribe(pr.SetAlpha)
	density := s.Density.Subscribe(pr.SetDensity)

	return func() {
		s.Size.Unsubscribe(size)
		s.Alpha.Unsubscribe(alpha)
		s.Density.Unsubscribe(density)
	}
}

// StepSize changes the footprint by delta pixels, clamped to the renderer's range.
func (s *Settings) StepSize(delta int) {
	s.Size.Set(common.Clamp(s.Size.Value()+delta, MinFootprintSize, MaxFootprintSize))
}

// StepAlpha changes the opacity by delta, clamped to [0, 1].
func (s *Settings) StepAlpha(delta float32) {
	s.Alpha.Set(common.ClampFinite(s.Alpha.Value()+delta, 0, 1))
}

// StepDensity changes the density by delta percentage points, clamped to [1, 100].
func (s *Settings) StepDensity(delta int) {
	s.Density.Set(drawbatch.ClampDensity(s.Density.Value() + delta))
}
