package geometry

import (
	"math"

	"wayfinder/internal/domain"
)

// View is the pan/zoom transform applied to the stage
type View struct {
	Scale float64 `json:"scale"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Identity is the untransformed view
var Identity = View{Scale: 1}

// Size is a width/height pair in pixels
type Size struct {
	W float64 `json:"width"`
	H float64 `json:"height"`
}

// Empty reports whether either dimension is non-positive
func (s Size) Empty() bool {
	return s.W <= 0 || s.H <= 0
}

// ScreenToStage maps raw pointer coordinates to stage space: subtract the
// viewport origin, subtract the pan offset, divide by the zoom.
func ScreenToStage(clientX, clientY float64, origin domain.Point, v View) domain.Point {
	scale := v.Scale
	if scale == 0 {
		scale = 1
	}
	return domain.Point{
		X: (clientX - origin.X - v.X) / scale,
		Y: (clientY - origin.Y - v.Y) / scale,
	}
}

// StageToScreen is the inverse of ScreenToStage
func StageToScreen(p domain.Point, origin domain.Point, v View) domain.Point {
	return domain.Point{
		X: p.X*v.Scale + v.X + origin.X,
		Y: p.Y*v.Scale + v.Y + origin.Y,
	}
}

// Clamp limits v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

// Lerp interpolates between two views
func Lerp(a, b View, t float64) View {
	return View{
		Scale: a.Scale + (b.Scale-a.Scale)*t,
		X:     a.X + (b.X-a.X)*t,
		Y:     a.Y + (b.Y-a.Y)*t,
	}
}
