package minimap

import (
	"testing"

	"wayfinder/internal/domain"
)

func hitAt(id string, x, y float64) HitTester {
	return func(p domain.Point) string {
		if p.X == x && p.Y == y {
			return id
		}
		return ""
	}
}

func kinds(events []Event) []EventKind {
	var out []EventKind
	for _, e := range events {
		out = append(out, e.Kind)
	}
	return out
}

func TestInputDragThreshold(t *testing.T) {
	ic := NewInputController(0)
	hit := hitAt("n1", 10, 10)

	ic.Handle(PointerEvent{Kind: PointerDown, X: 10, Y: 10}, hit)

	if ev := ic.Handle(PointerEvent{Kind: PointerMove, X: 13, Y: 13}, hit); len(ev) != 0 {
		t.Fatalf("expected no events under threshold, got %v", kinds(ev))
	}

	ev := ic.Handle(PointerEvent{Kind: PointerMove, X: 14, Y: 14}, hit)
	if len(ev) != 2 || ev[0].Kind != EventDragStart || ev[1].Kind != EventDragMove {
		t.Fatalf("expected drag start and move, got %v", kinds(ev))
	}
	if ev[0].NodeID != "n1" || ev[0].Point != (domain.Point{X: 10, Y: 10}) {
		t.Errorf("unexpected drag start %+v", ev[0])
	}
	if ic.Dragging() != "n1" {
		t.Errorf("expected n1 dragging, got %q", ic.Dragging())
	}

	ev = ic.Handle(PointerEvent{Kind: PointerMove, X: 15, Y: 14}, hit)
	if len(ev) != 1 || ev[0].Kind != EventDragMove {
		t.Errorf("expected drag move, got %v", kinds(ev))
	}

	ev = ic.Handle(PointerEvent{Kind: PointerUp, X: 15, Y: 14}, hit)
	if len(ev) != 1 || ev[0].Kind != EventDragEnd {
		t.Errorf("expected drag end, got %v", kinds(ev))
	}
	if ic.Dragging() != "" {
		t.Error("expected drag to be over")
	}
}

func TestInputClick(t *testing.T) {
	ic := NewInputController(5)
	hit := hitAt("n1", 0, 0)

	ic.Handle(PointerEvent{Kind: PointerDown}, hit)
	ev := ic.Handle(PointerEvent{Kind: PointerUp, X: 1}, hit)

	if len(ev) != 1 || ev[0].Kind != EventClick || ev[0].NodeID != "n1" {
		t.Errorf("expected click on n1, got %+v", ev)
	}

	ic.Handle(PointerEvent{Kind: PointerDown, X: 50}, hit)
	if ev := ic.Handle(PointerEvent{Kind: PointerUp, X: 50}, hit); len(ev) != 0 {
		t.Errorf("expected no click on empty space, got %v", kinds(ev))
	}
}

func TestInputPan(t *testing.T) {
	ic := NewInputController(5)

	ic.Handle(PointerEvent{Kind: PointerDown, X: 100, Y: 100}, nil)
	ev := ic.Handle(PointerEvent{Kind: PointerMove, X: 110, Y: 100}, nil)
	if len(ev) != 1 || ev[0].Kind != EventPan || ev[0].DX != 10 {
		t.Fatalf("expected pan catching up from press, got %+v", ev)
	}

	ev = ic.Handle(PointerEvent{Kind: PointerMove, X: 112, Y: 97}, nil)
	if len(ev) != 1 || ev[0].DX != 2 || ev[0].DY != -3 {
		t.Errorf("expected incremental pan, got %+v", ev)
	}
}

func TestInputLock(t *testing.T) {
	ic := NewInputController(5)
	ic.SetLocked(true)
	hit := hitAt("n1", 0, 0)

	ic.Handle(PointerEvent{Kind: PointerDown}, hit)
	if ev := ic.Handle(PointerEvent{Kind: PointerMove, X: 20}, hit); len(ev) != 0 {
		t.Errorf("locked map must not drag, got %v", kinds(ev))
	}
	if ev := ic.Handle(PointerEvent{Kind: PointerUp, X: 20}, hit); len(ev) != 0 {
		t.Errorf("expected nothing on release, got %v", kinds(ev))
	}

	ic.Handle(PointerEvent{Kind: PointerDown}, hit)
	if ev := ic.Handle(PointerEvent{Kind: PointerUp}, hit); len(ev) != 1 || ev[0].Kind != EventClick {
		t.Errorf("locked map still clicks, got %v", kinds(ev))
	}

	if ev := ic.Handle(PointerEvent{Kind: PointerWheel, Delta: 1}, hit); len(ev) != 1 {
		t.Errorf("locked map still zooms, got %v", kinds(ev))
	}
}

func TestInputLockMidDragEndsDrag(t *testing.T) {
	ic := NewInputController(5)
	hit := hitAt("n1", 0, 0)

	ic.Handle(PointerEvent{Kind: PointerDown}, hit)
	ic.Handle(PointerEvent{Kind: PointerMove, X: 10}, hit)
	ic.SetLocked(true)

	if ev := ic.Handle(PointerEvent{Kind: PointerMove, X: 20}, hit); len(ev) != 0 {
		t.Errorf("expected moves suppressed, got %v", kinds(ev))
	}
	if ev := ic.Handle(PointerEvent{Kind: PointerUp, X: 20}, hit); len(ev) != 1 || ev[0].Kind != EventDragEnd {
		t.Errorf("expected the started drag to end, got %v", kinds(ev))
	}
}

func TestInputHoverAndLeave(t *testing.T) {
	ic := NewInputController(5)

	ev := ic.Handle(PointerEvent{Kind: PointerMove, X: 3, Y: 4}, nil)
	if len(ev) != 1 || ev[0].Kind != EventHover {
		t.Errorf("expected hover, got %v", kinds(ev))
	}

	ev = ic.Handle(PointerEvent{Kind: PointerLeave}, nil)
	if len(ev) != 1 || ev[0].Kind != EventHoverEnd {
		t.Errorf("expected hover end, got %v", kinds(ev))
	}

	if ev := ic.Handle(PointerEvent{Kind: PointerWheel}, nil); len(ev) != 0 {
		t.Errorf("zero wheel delta should be ignored, got %v", kinds(ev))
	}
}
