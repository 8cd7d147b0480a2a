// Package viewport owns the pan/zoom state of the minimap and drives
// animated camera moves.
package viewport

import (
	"math"
	"time"

	"wayfinder/internal/domain"
	"wayfinder/internal/geometry"
)

// Options tune zoom bounds and camera moves
type Options struct {
	ScaleMin        float64
	ScaleMax        float64
	FocusPadding    float64
	FocusMultiplier float64
	FocusScaleMin   float64
	FocusScaleMax   float64
	Duration        time.Duration
	FitMargin       float64
	// WheelStep is the zoom factor applied per wheel notch
	WheelStep float64
}

// DefaultOptions returns the stock camera tuning
func DefaultOptions() Options {
	return Options{
		ScaleMin:        0.1,
		ScaleMax:        4.0,
		FocusPadding:    120,
		FocusMultiplier: 1.2,
		FocusScaleMin:   0.5,
		FocusScaleMax:   2.0,
		Duration:        450 * time.Millisecond,
		FitMargin:       0.95,
		WheelStep:       1.15,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ScaleMin <= 0 {
		o.ScaleMin = d.ScaleMin
	}
	if o.ScaleMax < o.ScaleMin {
		o.ScaleMax = math.Max(d.ScaleMax, o.ScaleMin)
	}
	switch {
	case o.FocusPadding == 0:
		o.FocusPadding = d.FocusPadding
	case o.FocusPadding < 0:
		o.FocusPadding = 0
	}
	if o.FocusMultiplier <= 0 {
		o.FocusMultiplier = d.FocusMultiplier
	}
	if o.FocusScaleMin <= 0 {
		o.FocusScaleMin = d.FocusScaleMin
	}
	if o.FocusScaleMax < o.FocusScaleMin {
		o.FocusScaleMax = math.Max(d.FocusScaleMax, o.FocusScaleMin)
	}
	// negative duration means jump without animating
	switch {
	case o.Duration == 0:
		o.Duration = d.Duration
	case o.Duration < 0:
		o.Duration = 0
	}
	if o.FitMargin <= 0 {
		o.FitMargin = d.FitMargin
	}
	if o.WheelStep <= 1 {
		o.WheelStep = d.WheelStep
	}
	return o
}

// Viewport holds the current view, the visible area and the stage content
type Viewport struct {
	opts  Options
	clock func() time.Time

	view     geometry.View
	size     geometry.Size
	origin   domain.Point
	content  geometry.Rect
	hasStage bool

	anim *Animation
}

// New creates a viewport. clock may be nil to use the wall clock.
func New(opts Options, clock func() time.Time) *Viewport {
	if clock == nil {
		clock = time.Now
	}
	return &Viewport{
		opts:  opts.withDefaults(),
		clock: clock,
		view:  geometry.Identity,
	}
}

// Options returns the effective tuning
func (v *Viewport) Options() Options { return v.opts }

// View returns the current transform
func (v *Viewport) View() geometry.View { return v.view }

// Size returns the visible area
func (v *Viewport) Size() geometry.Size { return v.size }

// Origin returns the viewport's top-left corner in client coordinates
func (v *Viewport) Origin() domain.Point { return v.origin }

// Animating reports whether a camera move is in progress
func (v *Viewport) Animating() bool { return v.anim != nil }

// Set jumps to view immediately, cancelling any animation
func (v *Viewport) Set(view geometry.View) {
	v.anim = nil
	view.Scale = v.clampScale(view.Scale)
	v.view = view
}

// SetOrigin records where the viewport sits in client coordinates
func (v *Viewport) SetOrigin(p domain.Point) {
	v.origin = p
}

// Resize records a new visible area
func (v *Viewport) Resize(size geometry.Size) {
	v.size = size
}

// SetStage records the content rectangle in stage space that fit-to-screen
// should frame
func (v *Viewport) SetStage(content geometry.Rect) {
	v.content = content
	v.hasStage = content.Width() > 0 && content.Height() > 0
}

// ScreenToStage maps client coordinates through the current view
func (v *Viewport) ScreenToStage(clientX, clientY float64) domain.Point {
	return geometry.ScreenToStage(clientX, clientY, v.origin, v.view)
}

// ZoomAt multiplies the scale by factor, keeping the stage point under the
// cursor fixed. The scale is clamped to [ScaleMin, ScaleMax].
func (v *Viewport) ZoomAt(factor, clientX, clientY float64) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return
	}
	v.anim = nil

	old := v.view.Scale
	next := v.clampScale(old * factor)
	if next == old {
		return
	}

	anchor := v.ScreenToStage(clientX, clientY)
	cx := clientX - v.origin.X
	cy := clientY - v.origin.Y
	v.view = geometry.View{
		Scale: next,
		X:     cx - anchor.X*next,
		Y:     cy - anchor.Y*next,
	}
}

// Wheel zooms one notch in (delta < 0) or out (delta > 0) at the cursor
func (v *Viewport) Wheel(delta, clientX, clientY float64) {
	switch {
	case delta < 0:
		v.ZoomAt(v.opts.WheelStep, clientX, clientY)
	case delta > 0:
		v.ZoomAt(1/v.opts.WheelStep, clientX, clientY)
	}
}

// PanBy moves the view by a screen-space delta
func (v *Viewport) PanBy(dx, dy float64) {
	v.anim = nil
	v.view.X += dx
	v.view.Y += dy
}

// FitView computes the view that frames the stage content with the fit
// margin, centered
func (v *Viewport) FitView() geometry.View {
	if v.size.Empty() {
		return geometry.Identity
	}
	content := v.content
	if !v.hasStage {
		content = geometry.Rect{MaxX: v.size.W, MaxY: v.size.H}
	}

	scale := v.clampScale(v.fitScale(content) * v.opts.FitMargin)
	center := content.Center()
	return geometry.View{
		Scale: scale,
		X:     v.size.W/2 - center.X*scale,
		Y:     v.size.H/2 - center.Y*scale,
	}
}

// FitToScreen animates to FitView
func (v *Viewport) FitToScreen() {
	v.AnimateTo(v.FitView())
}

// FocusView computes the view that frames r padded by FocusPadding. The
// second result is false when nothing can be framed.
func (v *Viewport) FocusView(r geometry.Rect) (geometry.View, bool) {
	if v.size.Empty() {
		return geometry.View{}, false
	}
	p := v.opts.FocusPadding
	padded := geometry.Rect{MinX: r.MinX - p, MinY: r.MinY - p, MaxX: r.MaxX + p, MaxY: r.MaxY + p}

	scale := v.fitScale(padded) * v.opts.FocusMultiplier
	scale = geometry.Clamp(scale, v.opts.FocusScaleMin, v.opts.FocusScaleMax)
	scale = v.clampScale(scale)

	center := padded.Center()
	return geometry.View{
		Scale: scale,
		X:     v.size.W/2 - center.X*scale,
		Y:     v.size.H/2 - center.Y*scale,
	}, true
}

// FocusOnBounds animates to FocusView(r)
func (v *Viewport) FocusOnBounds(r geometry.Rect) bool {
	target, ok := v.FocusView(r)
	if !ok {
		return false
	}
	v.AnimateTo(target)
	return true
}

// FocusOnPoints frames a set of stage points. An empty set is a no-op.
func (v *Viewport) FocusOnPoints(points []domain.Point) bool {
	r, ok := geometry.Bounds(points, 0)
	if !ok {
		return false
	}
	return v.FocusOnBounds(r)
}

// FocusOnPoint centers p. With zoom the scale becomes at least the fit
// scale times FocusMultiplier.
func (v *Viewport) FocusOnPoint(p domain.Point, zoom bool) {
	if v.size.Empty() {
		return
	}
	scale := v.view.Scale
	if zoom {
		scale = v.clampScale(math.Max(scale, v.FitView().Scale*v.opts.FocusMultiplier))
	}
	v.AnimateTo(geometry.View{
		Scale: scale,
		X:     v.size.W/2 - p.X*scale,
		Y:     v.size.H/2 - p.Y*scale,
	})
}

// AnimateTo starts a camera move from the current view, replacing any move
// already in flight
func (v *Viewport) AnimateTo(target geometry.View) {
	target.Scale = v.clampScale(target.Scale)
	if v.opts.Duration == 0 {
		v.anim = nil
		v.view = target
		return
	}
	v.anim = &Animation{
		From:     v.view,
		To:       target,
		Start:    v.clock(),
		Duration: v.opts.Duration,
		Easing:   EaseOutCubic,
	}
}

// Tick advances the running animation to now. It reports whether the view
// changed.
func (v *Viewport) Tick(now time.Time) bool {
	if v.anim == nil {
		return false
	}
	view, done := v.anim.Sample(now)
	v.view = view
	if done {
		v.anim = nil
	}
	return true
}

func (v *Viewport) fitScale(r geometry.Rect) float64 {
	w, h := r.Width(), r.Height()
	if w <= 0 || h <= 0 {
		return v.view.Scale
	}
	return math.Min(v.size.W/w, v.size.H/h)
}

func (v *Viewport) clampScale(s float64) float64 {
	if s == 0 || math.IsNaN(s) {
		s = 1
	}
	return geometry.Clamp(s, v.opts.ScaleMin, v.opts.ScaleMax)
}
