package viewport

import (
	"math"
	"time"

	"wayfinder/internal/geometry"
)

// Easing maps linear progress in [0,1] to eased progress
type Easing func(t float64) float64

// EaseOutCubic decelerates towards the end: 1-(1-t)^3
func EaseOutCubic(t float64) float64 {
	return 1 - math.Pow(1-t, 3)
}

// Linear is the identity easing
func Linear(t float64) float64 { return t }

// Animation is a camera move from one view to another. From and To are
// fixed when the animation starts; a newer animation replaces it outright.
type Animation struct {
	From     geometry.View
	To       geometry.View
	Start    time.Time
	Duration time.Duration
	Easing   Easing
}

// Progress returns the linear progress at now, clamped to [0,1]
func (a *Animation) Progress(now time.Time) float64 {
	if a.Duration <= 0 {
		return 1
	}
	t := float64(now.Sub(a.Start)) / float64(a.Duration)
	return geometry.Clamp(t, 0, 1)
}

// Sample returns the interpolated view at now and whether the animation
// has finished
func (a *Animation) Sample(now time.Time) (geometry.View, bool) {
	t := a.Progress(now)
	if t >= 1 {
		return a.To, true
	}
	ease := a.Easing
	if ease == nil {
		ease = EaseOutCubic
	}
	return geometry.Lerp(a.From, a.To, ease(t)), false
}
