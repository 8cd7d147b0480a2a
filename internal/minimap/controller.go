// Package minimap is the interactive floor map: it owns the graph snapshot,
// the current floor, the camera and the path visualization, and turns host
// input into render trees.
//
// A Controller is single-owner. Hosts drive it from one goroutine, normally
// through a Loop, which also delivers async floor loads and frame ticks.
package minimap

import (
	"context"
	"fmt"
	"log"
	"time"

	"wayfinder/internal/domain"
	"wayfinder/internal/floor"
	"wayfinder/internal/geometry"
	"wayfinder/internal/render"
	"wayfinder/internal/route"
	"wayfinder/internal/viewport"
)

// Options tune the controller
type Options struct {
	Viewport      viewport.Options
	HoverRadius   float64
	HoverDebounce time.Duration
	PathStep      time.Duration
	PathTail      time.Duration
	DragThreshold float64
	Language      string
	// Clock defaults to time.Now
	Clock func() time.Time
}

// DefaultOptions returns the stock tuning
func DefaultOptions() Options {
	return Options{
		Viewport:      viewport.DefaultOptions(),
		HoverRadius:   render.HoverRadius,
		HoverDebounce: 50 * time.Millisecond,
		PathStep:      1200 * time.Millisecond,
		PathTail:      2500 * time.Millisecond,
		DragThreshold: DefaultDragThreshold,
		Language:      domain.DefaultLanguage,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.HoverRadius <= 0 {
		o.HoverRadius = d.HoverRadius
	}
	if o.HoverDebounce < 0 {
		o.HoverDebounce = d.HoverDebounce
	}
	if o.PathStep <= 0 {
		o.PathStep = d.PathStep
	}
	if o.PathTail < 0 {
		o.PathTail = d.PathTail
	}
	if o.DragThreshold <= 0 {
		o.DragThreshold = d.DragThreshold
	}
	if o.Language == "" {
		o.Language = d.Language
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

// Hooks are host callbacks. Any of them may be nil.
type Hooks struct {
	OnGotoScene   func(id string)
	OnPathPlay    func(path []string)
	OnGraphChange func(g *domain.Graph)
	OnRender      func(tree render.Tree)
	OnNotice      func(msg string)
}

// dispatcher runs work off the owning goroutine and hands the returned
// completion back to it
type dispatcher func(work func() func())

// Controller is the minimap state machine
type Controller struct {
	opts   Options
	hooks  Hooks
	floors *floor.Controller
	loader floor.ImageLoader
	vp     *viewport.Viewport
	input  *InputController

	dispatch dispatcher
	floorSeq int
	loaded   bool

	graph  *domain.Graph
	scenes []domain.Scene
	labels map[string]string
	lang   string

	activeID   string
	activePath []string
	path       pathViz

	hover      render.HoverState
	hoverAt    time.Time
	hoverPoint *domain.Point

	tree render.Tree
}

// New creates a controller for the given floor set. loader measures floor
// backgrounds; it may be nil, in which case floors render without one.
func New(opts Options, floors floor.Floors, loader floor.ImageLoader, hooks Hooks) *Controller {
	opts = opts.withDefaults()
	c := &Controller{
		opts:   opts,
		hooks:  hooks,
		floors: floor.NewController(floors, loader),
		loader: loader,
		vp:     viewport.New(opts.Viewport, opts.Clock),
		input:  NewInputController(opts.DragThreshold),
		graph:  domain.NewGraph(),
		lang:   opts.Language,
		labels: map[string]string{},
	}
	c.dispatch = inline
	return c
}

func inline(work func() func()) {
	work()()
}

func (c *Controller) now() time.Time {
	return c.opts.Clock()
}

// Graph returns the controller's graph. Callers must not mutate it.
func (c *Controller) Graph() *domain.Graph { return c.graph }

// Viewport exposes the camera
func (c *Controller) Viewport() *viewport.Viewport { return c.vp }

// Floor returns the current floor key
func (c *Controller) Floor() string { return c.floors.Current() }

// Stage returns the current floor's stage
func (c *Controller) Stage() floor.Stage { return c.floors.Stage() }

// ActiveID returns the selected node
func (c *Controller) ActiveID() string { return c.activeID }

// ActivePath returns the highlighted path
func (c *Controller) ActivePath() []string {
	return append([]string(nil), c.activePath...)
}

// Hover returns the current hover state
func (c *Controller) Hover() render.HoverState { return c.hover }

// Tree returns the last render tree
func (c *Controller) Tree() render.Tree { return c.tree }

// Language returns the display language
func (c *Controller) Language() string { return c.lang }

// Locked reports whether the map lock is on
func (c *Controller) Locked() bool { return c.input.Locked() }

// Dragging returns the node being dragged, or ""
func (c *Controller) Dragging() string { return c.input.Dragging() }

// Refresh merges g into the current graph. A nil or empty graph is ignored.
// The node being dragged keeps its position.
func (c *Controller) Refresh(g *domain.Graph) {
	if g == nil || g.IsEmpty() {
		return
	}
	incoming := g.Clone()
	if err := incoming.Normalize(); err != nil {
		log.Printf("minimap: %v", err)
	}

	opts := domain.MergeOptions{}
	if id := c.input.Dragging(); id != "" {
		opts.Pinned = map[string]bool{id: true}
	}
	c.graph = domain.Merge(c.graph, incoming, opts)
	if len(c.scenes) > 0 {
		domain.ApplyScenes(c.graph, c.scenes, c.lang)
	}
	c.graph.MigrateLegacyPositions()
	c.render()
}

// SetScenes installs scene metadata used for floors and localized labels
func (c *Controller) SetScenes(scenes []domain.Scene) {
	c.scenes = domain.NormalizeScenes(scenes)
	domain.ApplyScenes(c.graph, c.scenes, c.lang)
	c.labels = domain.SceneNames(c.scenes, c.lang)
	c.render()
}

// SetLanguage re-renders labels in lang without touching graph data
func (c *Controller) SetLanguage(lang string) {
	if lang == "" {
		lang = domain.DefaultLanguage
	}
	c.lang = lang
	c.labels = domain.SceneNames(c.scenes, lang)
	c.render()
}

// SetActive selects a node, switching to its floor if needed
func (c *Controller) SetActive(id string) {
	c.activeID = id
	if n := c.graph.Node(id); n != nil {
		if key := domain.FloorKey(n.Floor); key != c.floors.Current() {
			c.SetFloor(key)
			return
		}
	}
	c.render()
}

// SetLocked toggles the map lock
func (c *Controller) SetLocked(locked bool) {
	c.input.SetLocked(locked)
}

// SetOrigin records where the viewport sits in client coordinates
func (c *Controller) SetOrigin(x, y float64) {
	c.vp.SetOrigin(domain.Point{X: x, Y: y})
}

// Resize adapts to a new viewport size, refitting the background
func (c *Controller) Resize(w, h float64) {
	size := geometry.Size{W: w, H: h}
	c.vp.Resize(size)
	if !c.loaded {
		c.render()
		return
	}
	stage := c.floors.Refit(size)
	c.vp.SetStage(contentRect(stage))
	if len(c.activePath) > 0 {
		c.focusOnPath()
	} else {
		c.vp.Set(c.vp.FitView())
	}
	c.render()
}

// SetFloor switches floors. The background loads through the dispatcher;
// the switch completes when its result comes back.
func (c *Controller) SetFloor(key string) {
	c.floorSeq++
	seq := c.floorSeq
	floors, loader, size := c.floors.Floors(), c.loader, c.vp.Size()

	c.dispatch(func() func() {
		stage, err := floor.Prepare(context.Background(), floors, loader, key, size)
		return func() { c.floorLoaded(seq, stage, err) }
	})
}

func (c *Controller) floorLoaded(seq int, stage floor.Stage, err error) {
	if seq != c.floorSeq {
		return
	}
	if err != nil {
		log.Printf("minimap: %v", err)
	}
	c.floors.Apply(stage)
	c.vp.SetStage(contentRect(stage))

	switch {
	case len(c.activePath) > 0:
		c.path.floorReady()
		c.focusOnPath()
	case !c.loaded:
		c.vp.Set(c.vp.FitView())
	default:
		c.vp.FitToScreen()
	}
	c.loaded = true
	c.render()
}

func contentRect(stage floor.Stage) geometry.Rect {
	if fit := stage.Fit; fit.Valid() {
		return geometry.Rect{
			MinX: fit.DisplayX, MinY: fit.DisplayY,
			MaxX: fit.DisplayX + fit.DisplayW, MaxY: fit.DisplayY + fit.DisplayH,
		}
	}
	return geometry.Rect{MaxX: stage.W, MaxY: stage.H}
}

// FitToScreen animates the camera to frame the current floor
func (c *Controller) FitToScreen() {
	c.vp.FitToScreen()
}

// Pan moves the view by a screen-space delta. Ignored while locked.
func (c *Controller) Pan(dx, dy float64) {
	if c.input.Locked() {
		return
	}
	c.vp.PanBy(dx, dy)
	c.render()
}

// FocusOnNode centers a node on the current floor
func (c *Controller) FocusOnNode(id string, zoom bool) bool {
	p, ok := c.stagePoint(id)
	if !ok {
		return false
	}
	c.vp.FocusOnPoint(p, zoom)
	return true
}

// Route computes the shortest path, visualizes it and notifies OnPathPlay.
// An unreachable target raises a notice and returns route.ErrNoRoute.
func (c *Controller) Route(from, to string) ([]string, error) {
	path, err := route.New(c.graph).Find(from, to)
	if err != nil {
		c.notice(fmt.Sprintf("No route from %s to %s", c.displayName(from), c.displayName(to)))
		return nil, err
	}
	c.VisualizePath(path)
	if c.hooks.OnPathPlay != nil {
		c.hooks.OnPathPlay(append([]string(nil), path...))
	}
	return path, nil
}

func (c *Controller) displayName(id string) string {
	if name := c.labels[id]; name != "" {
		return name
	}
	if n := c.graph.Node(id); n != nil {
		return n.DisplayName()
	}
	return id
}

func (c *Controller) notice(msg string) {
	log.Printf("minimap: %s", msg)
	if c.hooks.OnNotice != nil {
		c.hooks.OnNotice(msg)
	}
}

// Input feeds one raw pointer event
func (c *Controller) Input(ev PointerEvent) {
	for _, e := range c.input.Handle(ev, c.hitNode) {
		c.apply(e)
	}
}

func (c *Controller) apply(e Event) {
	switch e.Kind {
	case EventHover:
		p := c.vp.ScreenToStage(e.Point.X, e.Point.Y)
		c.hoverPoint = &p
		c.hoverAt = c.now().Add(c.opts.HoverDebounce)

	case EventHoverEnd:
		c.hoverPoint = nil
		if !c.hover.Empty() {
			c.hover = render.HoverState{}
			c.render()
		}

	case EventDragStart:
		c.hover = render.HoverState{}
		c.hoverPoint = nil

	case EventDragMove:
		c.moveNode(e.NodeID, e.Point)

	case EventDragEnd:
		c.moveNode(e.NodeID, e.Point)
		if c.hooks.OnGraphChange != nil {
			c.hooks.OnGraphChange(c.graph.Clone())
		}

	case EventClick:
		if c.hooks.OnGotoScene != nil {
			c.hooks.OnGotoScene(e.NodeID)
		}

	case EventWheel:
		c.vp.Wheel(e.Delta, e.Point.X, e.Point.Y)
		c.render()

	case EventPan:
		c.vp.PanBy(e.DX, e.DY)
		c.render()
	}
}

// moveNode writes the dragged position back in original-image pixels
func (c *Controller) moveNode(id string, client domain.Point) {
	n := c.graph.Node(id)
	if n == nil {
		return
	}
	floorNum, err := domain.ParseFloorKey(c.floors.Current())
	if err != nil {
		return
	}
	stage := c.vp.ScreenToStage(client.X, client.Y)
	orig := stage.Round()
	if fit := c.floors.Stage().Fit; fit.Valid() {
		orig = geometry.StageToOriginal(stage, fit)
	}
	n.SetPosition(floorNum, orig.X, orig.Y)
	c.render()
}

func (c *Controller) hitNode(client domain.Point) string {
	p := c.vp.ScreenToStage(client.X, client.Y)
	id, _ := render.Nearest(c.tree.Nodes, p, render.NodeRadius+4)
	return id
}

// Tick advances timers and animations to now. Hosts call it once per
// frame.
func (c *Controller) Tick(now time.Time) {
	changed := c.vp.Tick(now)

	if c.hoverPoint != nil && !now.Before(c.hoverAt) {
		p := *c.hoverPoint
		c.hoverPoint = nil
		if h := render.ResolveHover(c.tree, p, c.opts.HoverRadius); h != c.hover {
			c.hover = h
			changed = true
		}
	}

	if c.path.due(now) {
		c.resetPath()
		return
	}

	if changed {
		c.render()
	}
}

func (c *Controller) stagePoint(id string) (domain.Point, bool) {
	n := c.graph.Node(id)
	if n == nil || domain.FloorKey(n.Floor) != c.floors.Current() {
		return domain.Point{}, false
	}
	return render.StagePosition(n, n.Floor, c.floors.Stage().Fit), true
}

// Scene assembles the renderer input from current state
func (c *Controller) Scene() render.Scene {
	return render.Scene{
		Stage:      c.floors.Stage(),
		View:       c.vp.View(),
		Nodes:      c.graph.Nodes,
		Edges:      c.graph.Edges,
		Labels:     c.labels,
		ActiveID:   c.activeID,
		ActivePath: c.activePath,
		Hover:      c.hover,
	}
}

func (c *Controller) render() {
	c.tree = render.Draw(c.Scene())
	if c.hooks.OnRender != nil {
		c.hooks.OnRender(c.tree)
	}
}
