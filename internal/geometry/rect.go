package geometry

import (
	"math"

	"wayfinder/internal/domain"
)

// Rect is an axis-aligned bounding box
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Bounds returns the bounding box of points grown by pad on every side.
// The second result is false when points is empty.
func Bounds(points []domain.Point, pad float64) (Rect, bool) {
	if len(points) == 0 {
		return Rect{}, false
	}
	r := Rect{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
	for _, p := range points {
		r.MinX = math.Min(r.MinX, p.X)
		r.MinY = math.Min(r.MinY, p.Y)
		r.MaxX = math.Max(r.MaxX, p.X)
		r.MaxY = math.Max(r.MaxY, p.Y)
	}
	r.MinX -= pad
	r.MinY -= pad
	r.MaxX += pad
	r.MaxY += pad
	return r, true
}

// Width of the box
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height of the box
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Center of the box
func (r Rect) Center() domain.Point {
	return domain.Point{X: (r.MinX + r.MaxX) / 2, Y: (r.MinY + r.MaxY) / 2}
}

// Distance between two points
func Distance(a, b domain.Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Segment describes a line drawn from a to b as a length and a rotation in
// degrees, the form used for rotated line elements
func Segment(a, b domain.Point) (length, angleDeg float64) {
	dx, dy := b.X-a.X, b.Y-a.Y
	return math.Hypot(dx, dy), math.Atan2(dy, dx) * 180 / math.Pi
}

// DistanceToSegment returns the distance from p to the segment ab
func DistanceToSegment(p, a, b domain.Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return Distance(p, a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = Clamp(t, 0, 1)
	return Distance(p, domain.Point{X: a.X + t*dx, Y: a.Y + t*dy})
}
