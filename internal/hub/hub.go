// Package hub fans service events out to Server-Sent Events clients.
//
// Every event gets a sequence number sent as the SSE id. The hub keeps the
// last HistorySize events; a client that reconnects with Last-Event-ID
// receives the ones it missed. Clients may narrow the stream with
// ?types=graph_changed,scene_changed.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"wayfinder/internal/service"
)

const (
	// KeepAlive is how often an idle stream gets a comment line
	KeepAlive = 30 * time.Second
	// Retry is the reconnect delay suggested to EventSource
	Retry = 3 * time.Second
	// HistorySize is how many recent events are kept for replay
	HistorySize = 32
)

// Client is one connected event stream
type Client struct {
	id     string
	types  map[service.EventType]bool // nil means every type
	after  uint64
	events chan []byte
}

func (c *Client) wants(t service.EventType) bool {
	return c.types == nil || c.types[t]
}

// message is an encoded event kept for fan-out and replay
type message struct {
	id   uint64
	typ  service.EventType
	data []byte
}

// Hub manages SSE client connections
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan service.Event
	done       chan struct{}

	seq atomic.Uint64
	// history is owned by Run
	history []message
}

// New creates a new Hub
func New() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan service.Event, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop. It returns when ctx is done, closing
// every client stream.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			replayed := h.replay(client)
			log.Printf("hub: client connected: %s (total: %d, replayed: %d)", client.id, n, replayed)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.events)
			}
			n := len(h.clients)
			h.mu.Unlock()
			log.Printf("hub: client disconnected: %s (total: %d)", client.id, n)

		case event := <-h.broadcast:
			id := h.seq.Add(1)
			data, err := encode(id, event)
			if err != nil {
				log.Printf("hub: failed to marshal event: %v", err)
				continue
			}
			msg := message{id: id, typ: event.Type, data: data}
			h.remember(msg)
			h.fanOut(msg)

		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.events)
			}
			h.mu.Unlock()
			return nil
		}
	}
}

func (h *Hub) fanOut(msg message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if !client.wants(msg.typ) {
			continue
		}
		select {
		case client.events <- msg.data:
		default:
			log.Printf("hub: client %s is slow, skipping event %d (%s)", client.id, msg.id, msg.typ)
		}
	}
}

func (h *Hub) remember(msg message) {
	if len(h.history) == HistorySize {
		copy(h.history, h.history[1:])
		h.history = h.history[:HistorySize-1]
	}
	h.history = append(h.history, msg)
}

// replay queues the history a reconnecting client missed. Fresh clients
// (no Last-Event-ID) start from now.
func (h *Hub) replay(client *Client) int {
	if client.after == 0 {
		return 0
	}
	n := 0
	for _, msg := range h.history {
		if msg.id <= client.after || !client.wants(msg.typ) {
			continue
		}
		select {
		case client.events <- msg.data:
			n++
		default:
			return n
		}
	}
	return n
}

// encode formats an event as a numbered, named SSE message
func encode(id uint64, event service.Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", id, event.Type, data)), nil
}

// Relay forwards every event published on bus to the hub until ctx is done
func (h *Hub) Relay(ctx context.Context, bus *service.EventBus) error {
	events := make(chan service.Event, 64)
	bus.Subscribe(events)
	defer bus.Unsubscribe(events)

	for {
		select {
		case ev := <-events:
			h.Broadcast(ev)
		case <-ctx.Done():
			return nil
		}
	}
}

// Broadcast queues an event for every interested client
func (h *Hub) Broadcast(event service.Event) {
	select {
	case h.broadcast <- event:
	default:
		log.Printf("hub: broadcast channel full, dropping %s", event.Type)
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// LastEventID is the id of the most recent broadcast event
func (h *Hub) LastEventID() uint64 {
	return h.seq.Load()
}

// parseTypes reads a comma separated event type filter; empty means all
func parseTypes(s string) map[service.EventType]bool {
	var types map[service.EventType]bool
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if types == nil {
			types = make(map[service.EventType]bool)
		}
		types[service.EventType(part)] = true
	}
	return types
}

// lastEventID reads the resume point from the Last-Event-ID header, or the
// last_event_id query parameter for clients that cannot set headers
func lastEventID(r *http.Request) uint64 {
	v := r.Header.Get("Last-Event-ID")
	if v == "" {
		v = r.URL.Query().Get("last_event_id")
	}
	id, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// ServeHTTP handles SSE connections
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	client := &Client{
		id:     uuid.NewString(),
		types:  parseTypes(r.URL.Query().Get("types")),
		after:  lastEventID(r),
		events: make(chan []byte, 64),
	}

	select {
	case h.register <- client:
	case <-h.done:
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	case <-r.Context().Done():
		return
	}
	defer func() {
		select {
		case h.unregister <- client:
		case <-h.done:
		}
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	fmt.Fprintf(w, "retry: %d\n: connected %s\n\n", Retry.Milliseconds(), client.id)
	flusher.Flush()

	ticker := time.NewTicker(KeepAlive)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-client.events:
			if !ok {
				return
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
