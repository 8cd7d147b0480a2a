package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"wayfinder/internal/domain"
	"wayfinder/internal/floor"
	"wayfinder/internal/geometry"
	"wayfinder/internal/minimap"
	"wayfinder/internal/render"
	"wayfinder/internal/service"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	maxMessage = 64 << 10
)

// Inbound message types
const (
	MsgInput     = "input"
	MsgResize    = "resize"
	MsgRoute     = "route"
	MsgActive    = "active"
	MsgFloor     = "floor"
	MsgLanguage  = "language"
	MsgLock      = "lock"
	MsgClear     = "clear"
	MsgHighlight = "highlight"
	MsgVisualize = "visualize"
	MsgFit       = "fit"
	MsgFocus     = "focus"
)

// Outbound message types
const (
	MsgRender = "render"
	MsgGoto   = "goto"
	MsgPath   = "path"
	MsgNotice = "notice"
	MsgError  = "error"
)

// ClientMessage is a command sent by the browser
type ClientMessage struct {
	Type     string                `json:"type"`
	Pointer  *minimap.PointerEvent `json:"pointer,omitempty"`
	Width    float64               `json:"width,omitempty"`
	Height   float64               `json:"height,omitempty"`
	From     string                `json:"from,omitempty"`
	To       string                `json:"to,omitempty"`
	ID       string                `json:"id,omitempty"`
	Floor    string                `json:"floor,omitempty"`
	Language string                `json:"language,omitempty"`
	Locked   bool                  `json:"locked,omitempty"`
	Zoom     bool                  `json:"zoom,omitempty"`
	Path     []string              `json:"path,omitempty"`
}

// ServerMessage is pushed to the browser
type ServerMessage struct {
	Type    string       `json:"type"`
	Tree    *render.Tree `json:"tree,omitempty"`
	Scene   string       `json:"scene,omitempty"`
	Path    []string     `json:"path,omitempty"`
	Message string       `json:"message,omitempty"`
}

// LiveHandler runs one minimap controller per WebSocket connection
type LiveHandler struct {
	svc      *service.GraphService
	bus      *service.EventBus
	floors   floor.Floors
	loader   floor.ImageLoader
	opts     minimap.Options
	upgrader websocket.Upgrader
}

// NewLiveHandler creates a live session handler. Floor images are measured
// through loader.
func NewLiveHandler(svc *service.GraphService, bus *service.EventBus, floors floor.Floors, loader floor.ImageLoader, opts minimap.Options) *LiveHandler {
	return &LiveHandler{
		svc:    svc,
		bus:    bus,
		floors: floors,
		loader: loader,
		opts:   opts,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// liveSession is the connection side of a minimap session
type liveSession struct {
	id   string
	conn *websocket.Conn

	send chan []byte

	// render frames are coalesced: only the newest tree is written
	mu      sync.Mutex
	pending *render.Tree
	frame   chan struct{}

	// stage is the first usable viewport size the browser reported
	stage geometry.Size

	closed    chan struct{}
	closeOnce sync.Once
}

func newLiveSession(conn *websocket.Conn) *liveSession {
	return &liveSession{
		id:     uuid.NewString(),
		conn:   conn,
		send:   make(chan []byte, 64),
		frame:  make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

func (s *liveSession) close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.conn.Close()
	})
}

// queue sends msg without blocking the caller
func (s *liveSession) queue(msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("live: session %s: failed to encode %s: %v", s.id, msg.Type, err)
		return
	}
	select {
	case s.send <- data:
	case <-s.closed:
	default:
		log.Printf("live: session %s: send buffer full, dropping %s", s.id, msg.Type)
	}
}

func (s *liveSession) queueRender(tree render.Tree) {
	s.mu.Lock()
	s.pending = &tree
	s.mu.Unlock()
	select {
	case s.frame <- struct{}{}:
	default:
	}
}

func (s *liveSession) takeRender() *render.Tree {
	s.mu.Lock()
	defer s.mu.Unlock()
	tree := s.pending
	s.pending = nil
	return tree
}

// setStage records the stage size once. It reports whether this call set it.
func (s *liveSession) setStage(w, h float64) bool {
	if w <= 0 || h <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stage.Empty() {
		return false
	}
	s.stage = geometry.Size{W: w, H: h}
	return true
}

func (s *liveSession) stageSize() geometry.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

func (s *liveSession) write(data []byte) error {
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *liveSession) writer() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.close()
	}()

	for {
		select {
		case data := <-s.send:
			if err := s.write(data); err != nil {
				log.Printf("live: session %s: write failed: %v", s.id, err)
				return
			}

		case <-s.frame:
			tree := s.takeRender()
			if tree == nil {
				continue
			}
			data, err := json.Marshal(ServerMessage{Type: MsgRender, Tree: tree})
			if err != nil {
				log.Printf("live: session %s: failed to encode render: %v", s.id, err)
				continue
			}
			if err := s.write(data); err != nil {
				log.Printf("live: session %s: write failed: %v", s.id, err)
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-s.closed:
			return
		}
	}
}

// ServeHTTP upgrades the request and runs the session until the peer goes away
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("live: upgrade failed: %v", err)
		return
	}

	s := newLiveSession(conn)
	ctx, cancel := context.WithCancel(r.Context())
	defer func() {
		cancel()
		s.close()
		log.Printf("live: session %s closed", s.id)
	}()
	log.Printf("live: session %s opened from %s", s.id, r.RemoteAddr)

	ctrl := minimap.New(h.opts, h.floors, h.loader, h.hooks(ctx, s))
	loop := minimap.NewLoop(ctrl, 0)
	go loop.Run(ctx)
	go s.writer()

	events := make(chan service.Event, 16)
	h.bus.Subscribe(events)
	defer h.bus.Unsubscribe(events)
	go h.follow(ctx, s, loop, events)

	if err := h.reload(ctx, loop); err != nil {
		log.Printf("live: session %s: initial load failed: %v", s.id, err)
		s.queue(ServerMessage{Type: MsgError, Message: err.Error()})
	}

	h.read(ctx, s, loop)
}

func (h *LiveHandler) hooks(ctx context.Context, s *liveSession) minimap.Hooks {
	return minimap.Hooks{
		OnRender: s.queueRender,
		OnGotoScene: func(id string) {
			s.queue(ServerMessage{Type: MsgGoto, Scene: id})
		},
		OnPathPlay: func(path []string) {
			s.queue(ServerMessage{Type: MsgPath, Path: path})
		},
		OnNotice: func(msg string) {
			s.queue(ServerMessage{Type: MsgNotice, Message: msg})
		},
		OnGraphChange: func(g *domain.Graph) {
			go func() {
				if _, err := h.svc.SaveGraph(ctx, g); err != nil {
					log.Printf("live: session %s: failed to save graph: %v", s.id, err)
					s.queue(ServerMessage{Type: MsgError, Message: err.Error()})
				}
			}()
		},
	}
}

// reload pushes the stored graph and scenes into the controller
func (h *LiveHandler) reload(ctx context.Context, loop *minimap.Loop) error {
	scenes, err := h.svc.ListScenes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list scenes: %w", err)
	}
	g, err := h.svc.GetGraph(ctx)
	if err != nil {
		return fmt.Errorf("failed to get graph: %w", err)
	}
	loop.Post(func(c *minimap.Controller) {
		c.SetScenes(scenes)
		c.Refresh(g)
	})
	return nil
}

// follow reloads the session whenever the graph or scenes change. It
// closes the connection when ctx ends, which unblocks the reader.
func (h *LiveHandler) follow(ctx context.Context, s *liveSession, loop *minimap.Loop, events <-chan service.Event) {
	for {
		select {
		case <-ctx.Done():
			s.close()
			return
		case <-s.closed:
			return
		case ev := <-events:
			if ev.Type != service.EventGraphChanged && ev.Type != service.EventSceneChanged {
				continue
			}
			if err := h.reload(ctx, loop); err != nil {
				log.Printf("live: session %s: reload after %s failed: %v", s.id, ev.Type, err)
				continue
			}
			h.place(ctx, s)
		}
	}
}

// place lays out nodes that have no coordinates on a grid sized to the
// session's stage and saves them. The save publishes graph_changed, which
// reloads every open session with the new positions. No-op until the
// browser has reported a size.
func (h *LiveHandler) place(ctx context.Context, s *liveSession) {
	stage := s.stageSize()
	if stage.Empty() {
		return
	}
	g, err := h.svc.GetGraph(ctx)
	if err != nil {
		log.Printf("live: session %s: failed to load graph for placement: %v", s.id, err)
		return
	}
	placed := domain.PlaceGrid(g, stage.W, stage.H)
	if len(placed) == 0 {
		return
	}
	log.Printf("live: session %s: auto-placed %d nodes", s.id, len(placed))
	if _, err := h.svc.SaveGraph(ctx, g); err != nil {
		perr := &domain.PersistenceError{Op: "auto-placed positions", Err: err}
		log.Printf("live: session %s: %v", s.id, perr)
		s.queue(ServerMessage{Type: MsgError, Message: perr.Error()})
	}
}

func (h *LiveHandler) read(ctx context.Context, s *liveSession, loop *minimap.Loop) {
	s.conn.SetReadLimit(maxMessage)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("live: session %s: unexpected close: %v", s.id, err)
			}
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.queue(ServerMessage{Type: MsgError, Message: "invalid message: " + err.Error()})
			continue
		}
		task, err := commandFor(msg)
		if err != nil {
			s.queue(ServerMessage{Type: MsgError, Message: err.Error()})
			continue
		}
		if !loop.Post(task) {
			return
		}
		if msg.Type == MsgResize && s.setStage(msg.Width, msg.Height) {
			go h.place(ctx, s)
		}
	}
}

// commandFor translates a client message into a controller task
func commandFor(msg ClientMessage) (func(*minimap.Controller), error) {
	switch msg.Type {
	case MsgInput:
		if msg.Pointer == nil {
			return nil, fmt.Errorf("input message without pointer")
		}
		ev := *msg.Pointer
		return func(c *minimap.Controller) { c.Input(ev) }, nil
	case MsgResize:
		return func(c *minimap.Controller) { c.Resize(msg.Width, msg.Height) }, nil
	case MsgRoute:
		if msg.From == "" || msg.To == "" {
			return nil, fmt.Errorf("route needs from and to")
		}
		return func(c *minimap.Controller) { c.Route(msg.From, msg.To) }, nil
	case MsgActive:
		return func(c *minimap.Controller) { c.SetActive(msg.ID) }, nil
	case MsgFloor:
		return func(c *minimap.Controller) { c.SetFloor(msg.Floor) }, nil
	case MsgLanguage:
		return func(c *minimap.Controller) { c.SetLanguage(msg.Language) }, nil
	case MsgLock:
		return func(c *minimap.Controller) { c.SetLocked(msg.Locked) }, nil
	case MsgClear:
		return func(c *minimap.Controller) { c.ClearPath() }, nil
	case MsgHighlight:
		return func(c *minimap.Controller) { c.HighlightPath(msg.Path) }, nil
	case MsgVisualize:
		return func(c *minimap.Controller) { c.VisualizePath(msg.Path) }, nil
	case MsgFit:
		return func(c *minimap.Controller) { c.FitToScreen() }, nil
	case MsgFocus:
		return func(c *minimap.Controller) { c.FocusOnNode(msg.ID, msg.Zoom) }, nil
	default:
		return nil, fmt.Errorf("unknown message type %q", msg.Type)
	}
}
