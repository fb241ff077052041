package pointcloud

import (
	"math"
	"sync"
)

// Color is an 8-bit sRGB point color.
type Color struct {
	R, G, B uint8
}

// Point is a single sample of the cloud in runtime coordinates (Y up).
type Point struct {
	Position [3]float32
	Color    Color
}

// Bounds is an axis-aligned box in runtime coordinates.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Center returns the midpoint of the box.
func (b Bounds) Center() [3]float32 {
	return [3]float32{
		(b.Min[0] + b.Max[0]) / 2,
		(b.Min[1] + b.Max[1]) / 2,
		(b.Min[2] + b.Max[2]) / 2,
	}
}

// Size returns the extent of the box along each axis.
func (b Bounds) Size() [3]float32 {
	return [3]float32{
		b.Max[0] - b.Min[0],
		b.Max[1] - b.Min[1],
		b.Max[2] - b.Min[2],
	}
}

// Radius returns half the diagonal of the box.
func (b Bounds) Radius() float32 {
	s := b.Size()
	return float32(math.Sqrt(float64(s[0]*s[0]+s[1]*s[1]+s[2]*s[2]))) / 2
}

// PointCloud is an immutable, ordered set of points. The index of a point is its identifier
// on the GPU, so Points must not be reordered after construction.
type PointCloud struct {
	// Name identifies where the cloud came from (usually a file path).
	Name string
	// Points holds every sample in file order.
	Points []Point

	boundsOnce sync.Once
	bounds     Bounds
}

// New creates a PointCloud over points. The slice is retained, not copied.
//
// Parameters:
//   - name: an identifier for logging
//   - points: the samples in file order
//
// Returns:
//   - *PointCloud: the new cloud
func New(name string, points []Point) *PointCloud {
	return &PointCloud{Name: name, Points: points}
}

// Count returns the number of points in the cloud. A nil cloud has zero points.
func (c *PointCloud) Count() int {
	if c == nil {
		return 0
	}
	return len(c.Points)
}

// Bounds returns the axis-aligned box containing every point. It is computed on first use.
// An empty cloud reports a zero box.
func (c *PointCloud) Bounds() Bounds {
	c.boundsOnce.Do(func() {
		if len(c.Points) == 0 {
			return
		}
		b := Bounds{Min: c.Points[0].Position, Max: c.Points[0].Position}
		for i := 1; i < len(c.Points); i++ {
			p := c.Points[i].Position
			for k := range 3 {
				b.Min[k] = min(b.Min[k], p[k])
				b.Max[k] = max(b.Max[k], p[k])
			}
		}
		c.bounds = b
	})
	return c.bounds
}
