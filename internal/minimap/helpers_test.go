package minimap

import (
	"context"
	"errors"
	"time"

	"wayfinder/internal/domain"
	"wayfinder/internal/floor"
	"wayfinder/internal/geometry"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.now = c.now.Add(d)
	return c.now
}

type stubLoader struct {
	size geometry.Size
	fail map[string]bool
}

func (s *stubLoader) Load(ctx context.Context, path string) (geometry.Size, error) {
	if s.fail[path] {
		return geometry.Size{}, errors.New("broken image")
	}
	return s.size, nil
}

func testFloors() floor.Floors {
	return floor.Floors{"0": "/f0.png", "1": "/f1.png", "2": "/f2.png"}
}

func placedNode(id string, floorNum, x, y float64) domain.Node {
	n := domain.NewNode(id, "Label "+id, floorNum)
	n.SetPosition(floorNum, x, y)
	return *n
}

// testGraph: A-B-C on floor 1, C-D crosses to floor 2, E is isolated
func testGraph() *domain.Graph {
	g := domain.NewGraph()
	g.AddNode(placedNode("A", 1, 100, 100))
	g.AddNode(placedNode("B", 1, 200, 100))
	g.AddNode(placedNode("C", 1, 300, 100))
	g.AddNode(placedNode("D", 2, 400, 400))
	g.AddNode(placedNode("E", 1, 500, 500))
	g.AddEdge(*domain.NewEdge("A", "B"))
	g.AddEdge(*domain.NewEdge("B", "C"))
	g.AddEdge(*domain.NewEdge("C", "D"))
	return g
}

type recorder struct {
	gotos   []string
	plays   [][]string
	notices []string
	changes []*domain.Graph
}

func (r *recorder) hooks() Hooks {
	return Hooks{
		OnGotoScene:   func(id string) { r.gotos = append(r.gotos, id) },
		OnPathPlay:    func(p []string) { r.plays = append(r.plays, p) },
		OnNotice:      func(msg string) { r.notices = append(r.notices, msg) },
		OnGraphChange: func(g *domain.Graph) { r.changes = append(r.changes, g) },
	}
}

// newTestController returns a controller showing floor 1 of testGraph on an
// 800x600 viewport whose backgrounds are also 800x600, so original and
// stage coordinates coincide
func newTestController(rec *recorder) (*Controller, *fakeClock) {
	clock := newFakeClock()
	hooks := Hooks{}
	if rec != nil {
		hooks = rec.hooks()
	}

	c := New(Options{Clock: clock.Now}, testFloors(), &stubLoader{size: geometry.Size{W: 800, H: 600}}, hooks)
	c.Resize(800, 600)
	c.SetFloor("1")
	c.Refresh(testGraph())
	return c, clock
}

// screenOf returns the client point where a stage point is drawn
func screenOf(c *Controller, p domain.Point) domain.Point {
	return geometry.StageToScreen(p, c.Viewport().Origin(), c.Viewport().View())
}
