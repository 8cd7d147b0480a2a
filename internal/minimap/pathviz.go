package minimap

import (
	"strings"
	"time"

	"wayfinder/internal/domain"
	"wayfinder/internal/geometry"
)

// PathState is the path visualizer's phase
type PathState int

const (
	PathIdle PathState = iota
	// PathSwitchingFloor waits for the destination floor to load
	PathSwitchingFloor
	PathVisualized
)

func (s PathState) String() string {
	switch s {
	case PathSwitchingFloor:
		return "switching_floor"
	case PathVisualized:
		return "visualized"
	default:
		return "idle"
	}
}

type pathViz struct {
	state   PathState
	saved   *geometry.View
	resetAt time.Time
}

func (p *pathViz) due(now time.Time) bool {
	return !p.resetAt.IsZero() && !now.Before(p.resetAt)
}

func (p *pathViz) floorReady() {
	if p.state == PathSwitchingFloor {
		p.state = PathVisualized
	}
}

// PathState returns the visualizer's phase
func (c *Controller) PathState() PathState { return c.path.state }

// ResetAt returns when the visualized path will clear, or the zero time
func (c *Controller) ResetAt() time.Time { return c.path.resetAt }

// ResetDuration is how long a path of n nodes stays on screen
func (c *Controller) ResetDuration(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	return time.Duration(n)*c.opts.PathStep + c.opts.PathTail
}

// HighlightPath marks a path without moving the camera or arming the
// auto-reset
func (c *Controller) HighlightPath(ids []string) {
	c.activePath = normalizeIDs(ids)
	c.render()
}

// VisualizePath shows a path: it switches to the destination floor if
// needed, frames the path and arms the auto-reset. Paths with fewer than
// two nodes are ignored.
func (c *Controller) VisualizePath(ids []string) {
	path := normalizeIDs(ids)
	if len(path) < 2 {
		return
	}

	c.activePath = path
	if c.path.saved == nil {
		v := c.vp.View()
		c.path.saved = &v
	}

	destKey := c.floors.Current()
	if n := c.graph.Node(path[len(path)-1]); n != nil {
		destKey = domain.FloorKey(n.Floor)
	}

	// re-arming replaces any pending reset
	c.path.resetAt = c.now().Add(c.ResetDuration(len(path)))

	if destKey != c.floors.Current() || !c.loaded {
		c.path.state = PathSwitchingFloor
		c.SetFloor(destKey)
		return
	}

	c.path.state = PathVisualized
	c.render()
	c.focusOnPath()
}

// ClearPath cancels the auto-reset and resets immediately
func (c *Controller) ClearPath() {
	if len(c.activePath) == 0 && c.path.resetAt.IsZero() {
		return
	}
	c.resetPath()
}

func (c *Controller) resetPath() {
	c.path.resetAt = time.Time{}
	if c.path.saved != nil {
		c.vp.Set(*c.path.saved)
	} else {
		c.vp.Set(c.vp.FitView())
	}
	c.path.saved = nil
	c.path.state = PathIdle
	c.activePath = nil
	c.render()
}

// focusOnPath frames the path nodes on the current floor; a path with none
// here leaves the camera alone
func (c *Controller) focusOnPath() {
	var points []domain.Point
	for _, id := range c.activePath {
		if p, ok := c.stagePoint(id); ok {
			points = append(points, p)
		}
	}
	c.vp.FocusOnPoints(points)
}

func normalizeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
