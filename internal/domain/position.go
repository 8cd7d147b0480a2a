package domain

import (
	"math"
	"strconv"
)

// Point is a coordinate in original background-image pixels
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPoint creates a point
func NewPoint(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Round returns the point snapped to whole pixels
func (p Point) Round() Point {
	return Point{X: math.Round(p.X), Y: math.Round(p.Y)}
}

// FloorKey returns the canonical map key for a floor number.
// Whole floors print without a fraction ("5"), mezzanines keep it ("5.5").
func FloorKey(floor float64) string {
	if floor == 0 {
		// avoids "-0"
		return "0"
	}
	return strconv.FormatFloat(floor, 'f', -1, 64)
}

// ParseFloorKey converts a floor key back to a floor number
func ParseFloorKey(key string) (float64, error) {
	return strconv.ParseFloat(key, 64)
}
