// Package drawbatch turns a point count and a density percentage into the arguments of one
// indirect, instanced, indexed draw over a fixed-capacity quad tile.
package drawbatch

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-pointcloud/common"
)

const (
	// DefaultTileCapacity is the number of quad slots in one tile instance.
	DefaultTileCapacity = 16384

	// IndicesPerQuad is the index count of one quad (two triangles).
	IndicesPerQuad = 6

	// VerticesPerQuad is the vertex count of one quad.
	VerticesPerQuad = 4

	// MinDensity and MaxDensity bound the density percentage.
	MinDensity = 1
	MaxDensity = 100
)

// DrawBatch is the derived draw state for one cloud at one density.
type DrawBatch struct {
	TileCapacity          uint32
	Density               int
	Stride                float32
	TotalPoints           uint64
	EffectivePointCount   uint64
	InstanceCount         uint32
	IndexCountPerInstance uint32
}

// ClampDensity limits density to [MinDensity, MaxDensity].
func ClampDensity(density int) int {
	return common.Clamp(density, MinDensity, MaxDensity)
}

// Stride returns how many stored points one drawn sample advances over: 100/density.
// The density is clamped first.
func Stride(density int) float32 {
	return float32(MaxDensity) / float32(ClampDensity(density))
}

// EffectivePointCount returns ceil(total*density/100), the number of points drawn at density.
// The product is formed in integer arithmetic so the result never drifts from the exact ceiling.
//
// Parameters:
//   - total: the number of points stored
//   - density: the density percentage, clamped to [1, 100]
//
// Returns:
//   - uint64: the number of samples drawn, never more than total
func EffectivePointCount(total uint64, density int) uint64 {
	d := uint64(ClampDensity(density))
	if d == MaxDensity {
		return total
	}
	// total*d overflows only past 1.8e17 points; split to stay exact anyway.
	whole, rem := total/MaxDensity, total%MaxDensity
	return whole*d + common.CeilDiv(rem*d, MaxDensity)
}

// InstanceCount returns how many tile instances cover effective samples.
//
// Parameters:
//   - effective: the number of samples to draw
//   - tileCapacity: the quad slots per tile, must be > 0
//
// Returns:
//   - uint32: ceil(effective / tileCapacity)
func InstanceCount(effective uint64, tileCapacity uint32) uint32 {
	return uint32(common.CeilDiv(effective, uint64(tileCapacity)))
}

// Plan computes the full DrawBatch for a cloud of total points.
//
// Parameters:
//   - total: the number of points stored
//   - tileCapacity: the quad slots per tile; 0 selects DefaultTileCapacity
//   - density: the density percentage, clamped to [1, 100]
//
// Returns:
//   - DrawBatch: the derived batch
func Plan(total uint64, tileCapacity uint32, density int) DrawBatch {
	if tileCapacity == 0 {
		tileCapacity = DefaultTileCapacity
	}
	density = ClampDensity(density)
	effective := EffectivePointCount(total, density)
	return DrawBatch{
		TileCapacity:          tileCapacity,
		Density:               density,
		Stride:                Stride(density),
		TotalPoints:           total,
		EffectivePointCount:   effective,
		InstanceCount:         InstanceCount(effective, tileCapacity),
		IndexCountPerInstance: IndicesPerQuad * tileCapacity,
	}
}

// Args returns the indirect argument block for the batch.
func (b DrawBatch) Args() GPUIndirectArgs {
	return GPUIndirectArgs{
		IndexCount:    b.IndexCountPerInstance,
		InstanceCount: b.InstanceCount,
	}
}

// Empty reports whether the batch draws nothing.
func (b DrawBatch) Empty() bool {
	return b.InstanceCount == 0
}

func (b DrawBatch) String() string {
	return fmt.Sprintf("density=%d%% stride=%.3f points=%d/%d instances=%d indices/instance=%d",
		b.Density, b.Stride, b.EffectivePointCount, b.TotalPoints, b.InstanceCount, b.IndexCountPerInstance)
}
