package profiler

import "time"

// ProfilerBuilderOption is a functional option for configuring a Profiler.
type ProfilerBuilderOption func(*Profiler)

// WithUpdateInterval sets how often Tick logs. Non-positive values are ignored.
//
// Parameters:
//   - interval: the reporting interval
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithUpdateInterval(interval time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		if interval > 0 {
			p.updateInterval = interval
		}
	}
}

// WithStatsFunc appends the output of fn to every report line.
//
// Parameters:
//   - fn: called once per report
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithStatsFunc(fn func() string) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.statsFunc = fn
	}
}
