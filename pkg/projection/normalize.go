package projection

import (
	"math"
	"slices"
)

// DefaultPadding keeps points this many percentage units away from every edge.
const DefaultPadding = 5.0

// Coordinates maps an item id to its normalized position.
type Coordinates map[int]Point

// Bounds is the axis-aligned extent of a set of points.
type Bounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// BoundsOf scans points once and returns their extent. The zero Bounds is
// returned for an empty slice.
func BoundsOf(points []Point) Bounds {
	if len(points) == 0 {
		return Bounds{}
	}

	b := Bounds{
		MinX: math.Inf(1), MaxX: math.Inf(-1),
		MinY: math.Inf(1), MaxY: math.Inf(-1),
	}
	for _, p := range points {
		b.MinX = math.Min(b.MinX, p[0])
		b.MaxX = math.Max(b.MaxX, p[0])
		b.MinY = math.Min(b.MinY, p[1])
		b.MaxY = math.Max(b.MaxY, p[1])
	}
	return b
}

// Normalize maps points into [padding, 100-padding] on each axis and keys
// them by ids[i]. A zero range on an axis is treated as 1, so collapsed
// points land on the padding line instead of dividing by zero.
//
// points and ids must have the same length; extra entries of either are
// ignored.
func Normalize(points []Point, ids []int, padding float64) Coordinates {
	n := min(len(points), len(ids))
	coords := make(Coordinates, n)
	if n == 0 {
		return coords
	}

	b := BoundsOf(points[:n])
	rangeX := b.MaxX - b.MinX
	if rangeX == 0 {
		rangeX = 1
	}
	rangeY := b.MaxY - b.MinY
	if rangeY == 0 {
		rangeY = 1
	}

	span := 100 - 2*padding
	for i := 0; i < n; i++ {
		p := points[i]
		coords[ids[i]] = Point{
			(p[0]-b.MinX)/rangeX*span + padding,
			(p[1]-b.MinY)/rangeY*span + padding,
		}
	}
	return coords
}

// IDs returns the ids of coords in ascending order.
func (c Coordinates) IDs() []int {
	ids := make([]int, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
