// Package tui is a terminal host for the minimap. It feeds tcell mouse and
// keyboard events into a minimap.Controller and paints render trees onto
// terminal cells.
package tui

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"

	"wayfinder/internal/domain"
	"wayfinder/internal/floor"
	"wayfinder/internal/geometry"
	"wayfinder/internal/minimap"
	"wayfinder/internal/persist"
	"wayfinder/internal/render"
)

// Options configures a Viewer
type Options struct {
	Minimap minimap.Options
	Floors  floor.Floors
	Loader  floor.ImageLoader
	Syncer  *persist.Syncer
	Cell    CellSize
	// Floor is shown first; empty means the lowest floor
	Floor string
}

type quitEvent struct{}

type promptKind int

const (
	promptNone promptKind = iota
	promptRoute
	promptGoto
)

// Viewer runs an interactive minimap on a tcell screen
type Viewer struct {
	screen tcell.Screen
	opts   Options
	loop   *minimap.Loop
	keys   []string

	mu     sync.Mutex
	tree   render.Tree
	state  minimap.PathState
	status string

	// owned by the event loop goroutine
	buttons  tcell.ButtonMask
	prompt   promptKind
	input    string
	floorIdx int
	lang     string
	locked   bool
}

// New creates a viewer. The caller initializes and finalizes screen.
func New(screen tcell.Screen, opts Options) *Viewer {
	if opts.Cell.W <= 0 || opts.Cell.H <= 0 {
		opts.Cell = DefaultCellSize
	}
	lang := opts.Minimap.Language
	if lang == "" {
		lang = domain.DefaultLanguage
	}
	return &Viewer{
		screen: screen,
		opts:   opts,
		keys:   opts.Floors.Keys(),
		lang:   lang,
	}
}

// Run loads the graph and processes terminal events until the user quits
// or ctx is cancelled
func (v *Viewer) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var ctrl *minimap.Controller
	ctrl = minimap.New(v.opts.Minimap, v.opts.Floors, v.opts.Loader, minimap.Hooks{
		OnRender: func(tree render.Tree) {
			v.mu.Lock()
			v.tree = tree
			if ctrl != nil {
				v.state = ctrl.PathState()
			}
			v.mu.Unlock()
			v.wake()
		},
		OnNotice: func(msg string) { v.setStatus(msg) },
		OnGotoScene: func(id string) {
			v.setStatus("scene " + id)
			go v.loop.Post(func(c *minimap.Controller) { c.SetActive(id) })
		},
		OnPathPlay: func(path []string) {
			v.setStatus("route " + strings.Join(path, " → "))
		},
		OnGraphChange: func(g *domain.Graph) {
			go v.save(ctx, g)
		},
	})
	v.loop = minimap.NewLoop(ctrl, 0)
	go v.loop.Run(ctx)

	go func() {
		<-ctx.Done()
		v.screen.PostEvent(tcell.NewEventInterrupt(quitEvent{}))
	}()

	v.floorIdx = v.initialFloor()
	w, h := v.mapSize()
	v.loop.Post(func(c *minimap.Controller) {
		c.Resize(w, h)
		if len(v.keys) > 0 {
			c.SetFloor(v.keys[v.floorIdx])
		}
	})
	go v.reload(ctx, true)

	for {
		v.draw()
		v.screen.Show()

		switch ev := v.screen.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventResize:
			v.screen.Sync()
			w, h := v.mapSize()
			v.loop.Post(func(c *minimap.Controller) { c.Resize(w, h) })
		case *tcell.EventKey:
			if v.handleKey(ctx, ev) {
				return nil
			}
		case *tcell.EventMouse:
			v.handleMouse(ev)
		case *tcell.EventInterrupt:
			if _, ok := ev.Data().(quitEvent); ok {
				return nil
			}
		}
	}
}

func (v *Viewer) initialFloor() int {
	for i, k := range v.keys {
		if k == v.opts.Floor {
			return i
		}
	}
	return 0
}

// mapSize is the viewport in pixels; the last two rows are status and help
func (v *Viewer) mapSize() (float64, float64) {
	w, h := v.screen.Size()
	return float64(w) * v.opts.Cell.W, float64(max(h-2, 1)) * v.opts.Cell.H
}

func (v *Viewer) wake() {
	// a full queue already guarantees a redraw
	_ = v.screen.PostEvent(tcell.NewEventInterrupt(nil))
}

func (v *Viewer) setStatus(msg string) {
	v.mu.Lock()
	v.status = msg
	v.mu.Unlock()
	v.wake()
}

// reload fetches the graph through the syncer. On the first load nodes
// without coordinates are grid-placed and saved.
func (v *Viewer) reload(ctx context.Context, first bool) {
	if v.opts.Syncer == nil {
		return
	}

	var pinned string
	if !first {
		if err := v.loop.Do(ctx, func(c *minimap.Controller) { pinned = c.Dragging() }); err != nil {
			return
		}
	}

	g, err := v.opts.Syncer.Refresh(ctx, pinned)
	if err != nil {
		v.setStatus(fmt.Sprintf("offline: %v", err))
	}
	if first && g != nil && !g.IsEmpty() {
		w, h := v.mapSize()
		if placed, err := v.opts.Syncer.EnsurePositions(ctx, g, geometry.Size{W: w, H: h}); placed && err != nil {
			v.setStatus(err.Error())
		}
	}
	scenes := v.opts.Syncer.Scenes()

	v.loop.Post(func(c *minimap.Controller) {
		c.SetScenes(scenes)
		c.Refresh(g)
	})
	if err == nil {
		v.setStatus(fmt.Sprintf("loaded %d nodes", len(g.Nodes)))
	}
}

func (v *Viewer) save(ctx context.Context, g *domain.Graph) {
	if v.opts.Syncer == nil {
		return
	}
	if err := v.opts.Syncer.Save(ctx, g); err != nil {
		v.setStatus(err.Error())
		return
	}
	v.setStatus("saved")
}

func (v *Viewer) draw() {
	v.mu.Lock()
	tree, state, status := v.tree, v.state, v.status
	v.mu.Unlock()

	w, h := v.screen.Size()
	v.screen.Fill(' ', styleDefault)
	Paint(v.screen, tree, v.opts.Cell, w, max(h-2, 0))

	floorKey := tree.Floor
	if floorKey == "" && len(v.keys) > 0 {
		floorKey = v.keys[v.floorIdx]
	}
	if v.prompt != promptNone {
		drawBar(v.screen, h-2, w, v.promptLabel()+v.input+"_", styleInput)
	} else {
		drawBar(v.screen, h-2, w, statusLine(floorKey, v.lang, v.locked, state, status), styleStatus)
	}
	drawBar(v.screen, h-1, w, helpText, styleHelp)
}

func (v *Viewer) promptLabel() string {
	if v.prompt == promptRoute {
		return " route from to: "
	}
	return " go to scene: "
}

// handleKey reports whether the viewer should exit
func (v *Viewer) handleKey(ctx context.Context, ev *tcell.EventKey) bool {
	if v.prompt != promptNone {
		v.handlePromptKey(ev)
		return false
	}

	if ev.Key() == tcell.KeyCtrlC || ev.Key() == tcell.KeyEscape {
		return true
	}

	step := 4 * v.opts.Cell.W
	switch ev.Key() {
	case tcell.KeyUp:
		v.loop.Post(func(c *minimap.Controller) { c.Pan(0, step) })
		return false
	case tcell.KeyDown:
		v.loop.Post(func(c *minimap.Controller) { c.Pan(0, -step) })
		return false
	case tcell.KeyLeft:
		v.loop.Post(func(c *minimap.Controller) { c.Pan(step, 0) })
		return false
	case tcell.KeyRight:
		v.loop.Post(func(c *minimap.Controller) { c.Pan(-step, 0) })
		return false
	case tcell.KeyRune:
	default:
		return false
	}

	switch ev.Rune() {
	case 'q':
		return true
	case 'r':
		v.prompt, v.input = promptRoute, ""
	case 'g':
		v.prompt, v.input = promptGoto, ""
	case '[':
		v.stepFloor(-1)
	case ']':
		v.stepFloor(1)
	case '+', '=':
		v.zoom(-1)
	case '-':
		v.zoom(1)
	case 'f':
		v.loop.Post(func(c *minimap.Controller) { c.FitToScreen() })
	case 'c':
		v.loop.Post(func(c *minimap.Controller) { c.ClearPath() })
	case 'l':
		v.locked = !v.locked
		locked := v.locked
		v.loop.Post(func(c *minimap.Controller) { c.SetLocked(locked) })
	case 'L':
		v.lang = nextLanguage(v.lang)
		lang := v.lang
		if v.opts.Syncer != nil {
			go v.opts.Syncer.SetLanguage(lang)
		}
		v.loop.Post(func(c *minimap.Controller) { c.SetLanguage(lang) })
	case 'R':
		go v.reload(ctx, false)
	}
	return false
}

func (v *Viewer) handlePromptKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape:
		v.prompt = promptNone
	case tcell.KeyEnter:
		v.submitPrompt()
		v.prompt = promptNone
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if r := []rune(v.input); len(r) > 0 {
			v.input = string(r[:len(r)-1])
		}
	case tcell.KeyRune:
		v.input += string(ev.Rune())
	}
}

func (v *Viewer) submitPrompt() {
	fields := strings.Fields(v.input)
	switch v.prompt {
	case promptRoute:
		if len(fields) != 2 {
			v.setStatus("route needs two scene IDs")
			return
		}
		from, to := fields[0], fields[1]
		v.loop.Post(func(c *minimap.Controller) {
			if _, err := c.Route(from, to); err != nil {
				log.Printf("tui: route %s → %s: %v", from, to, err)
			}
		})
	case promptGoto:
		if len(fields) != 1 {
			return
		}
		id := fields[0]
		v.loop.Post(func(c *minimap.Controller) {
			c.SetActive(id)
			c.FocusOnNode(id, true)
		})
	}
}

func (v *Viewer) stepFloor(delta int) {
	if len(v.keys) == 0 {
		return
	}
	v.floorIdx = (v.floorIdx + delta + len(v.keys)) % len(v.keys)
	key := v.keys[v.floorIdx]
	v.loop.Post(func(c *minimap.Controller) { c.SetFloor(key) })
}

// zoom wheels at the center of the map
func (v *Viewer) zoom(delta float64) {
	w, h := v.mapSize()
	ev := minimap.PointerEvent{Kind: minimap.PointerWheel, X: w / 2, Y: h / 2, Delta: delta}
	v.loop.Post(func(c *minimap.Controller) { c.Input(ev) })
}

func (v *Viewer) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	buttons := ev.Buttons()
	pe := pointerEvent(v.buttons, buttons, x, y, v.opts.Cell)
	if buttons&(tcell.WheelUp|tcell.WheelDown) == 0 {
		v.buttons = buttons
	}
	v.loop.Post(func(c *minimap.Controller) { c.Input(pe) })
}

// pointerEvent translates a tcell mouse report into a minimap pointer
// event. prev is the button state of the previous report.
func pointerEvent(prev, cur tcell.ButtonMask, x, y int, cell CellSize) minimap.PointerEvent {
	px, py := cell.toPixel(x, y)
	ev := minimap.PointerEvent{Kind: minimap.PointerMove, X: px, Y: py}

	switch {
	case cur&tcell.WheelUp != 0:
		ev.Kind, ev.Delta = minimap.PointerWheel, -1
		return ev
	case cur&tcell.WheelDown != 0:
		ev.Kind, ev.Delta = minimap.PointerWheel, 1
		return ev
	}

	was := prev&tcell.Button1 != 0
	pressed := cur&tcell.Button1 != 0
	switch {
	case pressed && !was:
		ev.Kind = minimap.PointerDown
	case !pressed && was:
		ev.Kind = minimap.PointerUp
	}
	return ev
}

func nextLanguage(lang string) string {
	if lang == "en" {
		return domain.DefaultLanguage
	}
	return "en"
}
