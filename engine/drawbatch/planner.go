package drawbatch

import "sync"

// planner is the implementation of the Planner interface.
type planner struct {
	mu *sync.Mutex

	tileCapacity uint32
	total        uint64
	density      int
	pending      int
	dirty        bool
	batch        DrawBatch
}

// Planner holds the current DrawBatch for one cloud and defers density changes until Apply.
//
// SetDensity may be called any number of times between frames; the batch is recomputed at
// most once per Apply, so a draw never observes a half-updated argument block.
type Planner interface {
	// Batch returns the batch as of the last Apply or Reset.
	Batch() DrawBatch

	// Density returns the density of the current batch.
	Density() int

	// PendingDensity returns the density that the next Apply will use.
	PendingDensity() int

	// Dirty reports whether a density change is waiting for Apply.
	Dirty() bool

	// SetDensity records a new density, clamped to [1, 100]. Setting the density already in effect
	// clears any pending change.
	//
	// Parameters:
	//   - density: the requested density percentage
	SetDensity(density int)

	// Apply recomputes the batch if a density change is pending.
	//
	// Returns:
	//   - bool: true if the indirect argument block changed
	Apply() bool

	// Reset replaces the point count and recomputes immediately using the pending density.
	//
	// Parameters:
	//   - total: the point count of the newly loaded cloud
	Reset(total uint64)
}

var _ Planner = &planner{}

// NewPlanner creates a Planner for a cloud of total points.
//
// Parameters:
//   - total: the number of stored points
//   - options: a variadic list of PlannerBuilderOption functions
//
// Returns:
//   - Planner: the planner with its initial batch computed
func NewPlanner(total uint64, options ...PlannerBuilderOption) Planner {
	p := &planner{
		mu:           &sync.Mutex{},
		tileCapacity: DefaultTileCapacity,
		density:      MaxDensity,
	}
	for _, opt := range options {
		opt(p)
	}
	p.pending = p.density
	p.total = total
	p.batch = Plan(total, p.tileCapacity, p.density)
	return p
}

func (p *planner) Batch() DrawBatch {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.batch
}

func (p *planner) Density() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.density
}

func (p *planner) PendingDensity() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending
}

func (p *planner) Dirty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dirty
}

func (p *planner) SetDensity(density int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = ClampDensity(density)
	p.dirty = p.pending != p.density
}

func (p *planner) Apply() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.dirty {
		return false
	}
	p.dirty = false

	prev := p.batch.Args()
	p.density = p.pending
	p.batch = Plan(p.total, p.tileCapacity, p.density)
	return p.batch.Args() != prev
}

func (p *planner) Reset(total uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = total
	p.density = p.pending
	p.dirty = false
	p.batch = Plan(total, p.tileCapacity, p.density)
}
