package minimap

import (
	"math"

	"wayfinder/internal/domain"
)

// DefaultDragThreshold is how far, in screen pixels, the pointer must
// travel before a press becomes a drag
const DefaultDragThreshold = 5

// PointerKind enumerates raw pointer input
type PointerKind string

const (
	PointerDown  PointerKind = "down"
	PointerMove  PointerKind = "move"
	PointerUp    PointerKind = "up"
	PointerWheel PointerKind = "wheel"
	PointerLeave PointerKind = "leave"
)

// PointerEvent is raw input from a host, in client coordinates
type PointerEvent struct {
	Kind  PointerKind `json:"kind"`
	X     float64     `json:"x"`
	Y     float64     `json:"y"`
	Delta float64     `json:"delta,omitempty"`
}

// EventKind enumerates semantic input events
type EventKind string

const (
	EventHover     EventKind = "hover"
	EventHoverEnd  EventKind = "hover_end"
	EventDragStart EventKind = "drag_start"
	EventDragMove  EventKind = "drag_move"
	EventDragEnd   EventKind = "drag_end"
	EventWheel     EventKind = "wheel"
	EventClick     EventKind = "click"
	EventPan       EventKind = "pan"
)

// Event is a semantic input event
type Event struct {
	Kind   EventKind
	NodeID string
	Point  domain.Point
	DX, DY float64
	Delta  float64
}

// HitTester reports the node under a client point, or ""
type HitTester func(client domain.Point) string

// InputController turns raw pointer events into semantic events. It tracks
// a single press at a time.
type InputController struct {
	threshold float64
	locked    bool

	pressed  bool
	dragging bool
	grabbed  bool
	target   string
	start    domain.Point
	last     domain.Point
}

// NewInputController creates an input controller. A non-positive threshold
// uses DefaultDragThreshold.
func NewInputController(threshold float64) *InputController {
	if threshold <= 0 {
		threshold = DefaultDragThreshold
	}
	return &InputController{threshold: threshold}
}

// SetLocked enables or disables the map lock. A locked map ignores pans and
// node drags; clicks, hover and wheel zoom still work.
func (ic *InputController) SetLocked(locked bool) {
	ic.locked = locked
}

// Locked reports whether the map lock is on
func (ic *InputController) Locked() bool { return ic.locked }

// Dragging returns the node being dragged, or ""
func (ic *InputController) Dragging() string {
	if ic.grabbed {
		return ic.target
	}
	return ""
}

// Handle consumes one raw event
func (ic *InputController) Handle(ev PointerEvent, hit HitTester) []Event {
	pt := domain.Point{X: ev.X, Y: ev.Y}

	switch ev.Kind {
	case PointerDown:
		ic.pressed = true
		ic.dragging, ic.grabbed = false, false
		ic.start, ic.last = pt, pt
		ic.target = ""
		if hit != nil {
			ic.target = hit(pt)
		}
		return nil

	case PointerMove:
		if !ic.pressed {
			return []Event{{Kind: EventHover, Point: pt}}
		}
		return ic.move(pt)

	case PointerUp:
		return ic.release(pt)

	case PointerWheel:
		if ev.Delta == 0 {
			return nil
		}
		return []Event{{Kind: EventWheel, Point: pt, Delta: ev.Delta}}

	case PointerLeave:
		out := ic.release(pt)
		return append(out, Event{Kind: EventHoverEnd})
	}
	return nil
}

func (ic *InputController) move(pt domain.Point) []Event {
	if !ic.dragging {
		if math.Hypot(pt.X-ic.start.X, pt.Y-ic.start.Y) < ic.threshold {
			return nil
		}
		ic.dragging = true
		if ic.locked {
			return nil
		}
		ic.last = pt
		if ic.target != "" {
			ic.grabbed = true
			return []Event{
				{Kind: EventDragStart, NodeID: ic.target, Point: ic.start},
				{Kind: EventDragMove, NodeID: ic.target, Point: pt},
			}
		}
		return []Event{{Kind: EventPan, Point: pt, DX: pt.X - ic.start.X, DY: pt.Y - ic.start.Y}}
	}

	if ic.locked {
		return nil
	}
	dx, dy := pt.X-ic.last.X, pt.Y-ic.last.Y
	ic.last = pt
	if ic.target != "" {
		return []Event{{Kind: EventDragMove, NodeID: ic.target, Point: pt}}
	}
	return []Event{{Kind: EventPan, Point: pt, DX: dx, DY: dy}}
}

func (ic *InputController) release(pt domain.Point) []Event {
	if !ic.pressed {
		return nil
	}
	var out []Event
	switch {
	case !ic.dragging && ic.target != "":
		out = append(out, Event{Kind: EventClick, NodeID: ic.target, Point: pt})
	case ic.grabbed:
		out = append(out, Event{Kind: EventDragEnd, NodeID: ic.target, Point: pt})
	}
	ic.pressed, ic.dragging, ic.grabbed = false, false, false
	ic.target = ""
	return out
}
