package drawbatch

// PlannerBuilderOption is a functional option for configuring a Planner via NewPlanner.
type PlannerBuilderOption func(*planner)

// WithTileCapacity sets the quad slots per tile. Zero keeps DefaultTileCapacity.
//
// Parameters:
//   - capacity: the tile capacity of the quad mesh being drawn
//
// Returns:
//   - PlannerBuilderOption: a function that applies the capacity to a planner
func WithTileCapacity(capacity uint32) PlannerBuilderOption {
	return func(p *planner) {
		if capacity > 0 {
			p.tileCapacity = capacity
		}
	}
}

// WithDensity sets the initial density, clamped to [1, 100].
//
// Parameters:
//   - density: the initial density percentage
//
// Returns:
//   - PlannerBuilderOption: a function that applies the density to a planner
func WithDensity(density int) PlannerBuilderOption {
	return func(p *planner) {
		p.density = ClampDensity(density)
	}
}
