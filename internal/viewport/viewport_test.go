package viewport

import (
	"math"
	"testing"
	"time"

	"wayfinder/internal/domain"
	"wayfinder/internal/geometry"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestViewport() (*Viewport, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	v := New(DefaultOptions(), clock.Now)
	v.Resize(geometry.Size{W: 800, H: 600})
	return v, clock
}

func assertView(t *testing.T, got, want geometry.View) {
	t.Helper()
	const eps = 1e-9
	if math.Abs(got.Scale-want.Scale) > eps || math.Abs(got.X-want.X) > eps || math.Abs(got.Y-want.Y) > eps {
		t.Errorf("expected view %+v, got %+v", want, got)
	}
}

func TestEaseOutCubic(t *testing.T) {
	tests := []struct {
		t, want float64
	}{
		{0, 0},
		{0.5, 0.875},
		{1, 1},
	}
	for _, tt := range tests {
		if got := EaseOutCubic(tt.t); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("EaseOutCubic(%v): expected %v, got %v", tt.t, tt.want, got)
		}
	}
}

func TestZoomAtBounds(t *testing.T) {
	v, _ := newTestViewport()

	for i := 0; i < 100; i++ {
		v.ZoomAt(1.7, 123, 456)
		if s := v.View().Scale; s > 4.0 {
			t.Fatalf("scale %v exceeded max", s)
		}
	}
	if v.View().Scale != 4.0 {
		t.Errorf("expected scale pinned at max, got %v", v.View().Scale)
	}

	for i := 0; i < 100; i++ {
		v.ZoomAt(0.3, 10, 10)
		if s := v.View().Scale; s < 0.1 {
			t.Fatalf("scale %v below min", s)
		}
	}
	if v.View().Scale != 0.1 {
		t.Errorf("expected scale pinned at min, got %v", v.View().Scale)
	}
}

func TestZoomAtKeepsCursorPointFixed(t *testing.T) {
	v, _ := newTestViewport()
	v.SetOrigin(domain.Point{X: 40, Y: 20})
	v.Set(geometry.View{Scale: 1.3, X: -50, Y: 30})

	before := v.ScreenToStage(300, 200)
	v.ZoomAt(1.5, 300, 200)
	after := v.ScreenToStage(300, 200)

	if math.Abs(before.X-after.X) > 1e-9 || math.Abs(before.Y-after.Y) > 1e-9 {
		t.Errorf("cursor point moved from %+v to %+v", before, after)
	}
	if math.Abs(v.View().Scale-1.95) > 1e-9 {
		t.Errorf("expected scale 1.95, got %v", v.View().Scale)
	}
}

func TestZoomAtIgnoresBadFactor(t *testing.T) {
	v, _ := newTestViewport()
	for _, f := range []float64{0, -2, math.NaN(), math.Inf(1)} {
		v.ZoomAt(f, 0, 0)
	}
	assertView(t, v.View(), geometry.Identity)
}

func TestWheel(t *testing.T) {
	v, _ := newTestViewport()

	v.Wheel(-1, 0, 0)
	if v.View().Scale <= 1 {
		t.Errorf("expected zoom in, got %v", v.View().Scale)
	}
	v.Wheel(1, 0, 0)
	if math.Abs(v.View().Scale-1) > 1e-9 {
		t.Errorf("expected to return to 1, got %v", v.View().Scale)
	}
}

func TestPanBy(t *testing.T) {
	v, _ := newTestViewport()
	v.PanBy(15, -5)
	v.PanBy(5, 5)
	assertView(t, v.View(), geometry.View{Scale: 1, X: 20, Y: 0})
}

func TestFitView(t *testing.T) {
	v, _ := newTestViewport()

	t.Run("whole viewport when no stage", func(t *testing.T) {
		assertView(t, v.FitView(), geometry.View{Scale: 0.95, X: 20, Y: 15})
	})

	t.Run("frames stage content", func(t *testing.T) {
		v.SetStage(geometry.Rect{MinX: 0, MinY: 100, MaxX: 800, MaxY: 500})
		assertView(t, v.FitView(), geometry.View{Scale: 0.95, X: 20, Y: 300 - 300*0.95})
	})
}

func TestFocusView(t *testing.T) {
	v, _ := newTestViewport()

	got, ok := v.FocusView(geometry.Rect{MinX: 100, MinY: 100, MaxX: 200, MaxY: 200})
	if !ok {
		t.Fatal("expected focus view")
	}
	// the padded box would allow 2.11x, the focus range caps it at 2
	assertView(t, got, geometry.View{Scale: 2, X: 100, Y: 0})

	wide, _ := v.FocusView(geometry.Rect{MinX: 0, MinY: 0, MaxX: 4000, MaxY: 10})
	if wide.Scale != 0.5 {
		t.Errorf("expected focus scale floor 0.5, got %v", wide.Scale)
	}
}

func TestFocusOnPointsEmptyIsNoop(t *testing.T) {
	v, _ := newTestViewport()
	if v.FocusOnPoints(nil) {
		t.Error("expected no-op for empty point set")
	}
	if v.Animating() {
		t.Error("expected no animation")
	}
}

func TestAnimationCompletes(t *testing.T) {
	v, clock := newTestViewport()
	target := geometry.View{Scale: 2, X: -100, Y: -50}

	v.AnimateTo(target)
	if !v.Animating() {
		t.Fatal("expected animation to start")
	}

	clock.Advance(225 * time.Millisecond)
	v.Tick(clock.Now())
	mid := v.View()
	if mid.Scale <= 1 || mid.Scale >= 2 {
		t.Errorf("expected intermediate scale, got %v", mid.Scale)
	}
	// ease-out covers most of the distance in the first half
	if want := 1 + EaseOutCubic(0.5); math.Abs(mid.Scale-want) > 1e-9 {
		t.Errorf("expected eased scale %v, got %v", want, mid.Scale)
	}

	clock.Advance(300 * time.Millisecond)
	if !v.Tick(clock.Now()) {
		t.Error("expected final tick to change the view")
	}
	assertView(t, v.View(), target)
	if v.Animating() {
		t.Error("expected animation to finish")
	}
	if v.Tick(clock.Now()) {
		t.Error("expected idle tick to report no change")
	}
}

func TestAnimationLastWriterWins(t *testing.T) {
	v, clock := newTestViewport()

	v.AnimateTo(geometry.View{Scale: 3, X: 0, Y: 0})
	clock.Advance(100 * time.Millisecond)
	v.Tick(clock.Now())

	second := geometry.View{Scale: 0.5, X: 10, Y: 10}
	v.AnimateTo(second)
	clock.Advance(time.Second)
	v.Tick(clock.Now())

	assertView(t, v.View(), second)
}

func TestUserInputCancelsAnimation(t *testing.T) {
	v, clock := newTestViewport()
	v.AnimateTo(geometry.View{Scale: 3})
	v.PanBy(1, 1)

	clock.Advance(time.Second)
	if v.Tick(clock.Now()) {
		t.Error("expected pan to cancel the animation")
	}
}

func TestFocusOnPointZoom(t *testing.T) {
	v, clock := newTestViewport()

	v.FocusOnPoint(domain.Point{X: 100, Y: 100}, true)
	clock.Advance(time.Second)
	v.Tick(clock.Now())

	// fit scale 0.95 * 1.2 = 1.14 beats the current 1.0
	want := 0.95 * 1.2
	assertView(t, v.View(), geometry.View{Scale: want, X: 400 - 100*want, Y: 300 - 100*want})
}

func TestOptionsDefaults(t *testing.T) {
	v := New(Options{}, nil)
	if v.Options() != DefaultOptions() {
		t.Errorf("expected zero options to take defaults, got %+v", v.Options())
	}

	instant := New(Options{Duration: -1}, nil)
	instant.Resize(geometry.Size{W: 100, H: 100})
	instant.AnimateTo(geometry.View{Scale: 2})
	if instant.Animating() || instant.View().Scale != 2 {
		t.Error("expected negative duration to jump immediately")
	}
}
