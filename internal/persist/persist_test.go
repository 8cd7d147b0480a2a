package persist

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"wayfinder/internal/domain"
	"wayfinder/internal/geometry"
)

// fakeServer serves a mutable graph and scene list
type fakeServer struct {
	mu        sync.Mutex
	graph     string
	scenes    string
	failGraph bool
	failScene bool
	failSave  bool
	saved     *domain.Graph
	headers   http.Header
	query     string
}

func (f *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/graph", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			f.headers = r.Header.Clone()
			f.query = r.URL.RawQuery
			if f.failGraph {
				http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
				return
			}
			w.Write([]byte(f.graph))
		case http.MethodPut:
			if f.failSave {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"error":"read only","details":"maintenance"}`))
				return
			}
			var g domain.Graph
			if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			f.saved = &g
			w.Write([]byte(`{"status":"ok"}`))
		}
	})
	mux.HandleFunc("/api/graph/regenerate", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Write([]byte(`{"nodes":[],"edges":[]}`))
	})
	mux.HandleFunc("/api/scenes", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failScene {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(f.scenes))
	})
	return mux
}

func (f *fakeServer) lastSaved() *domain.Graph {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saved
}

func newFake(t *testing.T, graph, scenes string) (*fakeServer, *Client) {
	t.Helper()
	f := &fakeServer{graph: graph, scenes: scenes}
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return f, NewClient(srv.URL, 5*time.Second)
}

const baseGraph = `{
	"nodes": [
		{"id": "lobby", "floor": 0, "positions": {"0": {"x": 10, "y": 20}}},
		{"id": "hall", "label": "Hall", "floor": 1, "x": 30, "y": 40},
		{"id": "", "floor": 0}
	],
	"edges": [
		{"from": "lobby", "to": "hall"},
		{"from": "lobby", "to": ""}
	]
}`

const baseScenes = `[
	{"id": "lobby", "name": {"vi": "Sảnh", "en": "Lobby"}, "floor": 0},
	{"id": "hall", "name": "Hội trường", "floor": 1}
]`

func TestClientFetchGraph(t *testing.T) {
	f, c := newFake(t, baseGraph, baseScenes)

	g, err := c.FetchGraph(context.Background())
	if err != nil {
		t.Fatalf("FetchGraph() error = %v", err)
	}
	if len(g.Nodes) != 3 {
		t.Errorf("got %d nodes, want 3 (raw payload)", len(g.Nodes))
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if got := f.headers.Get("Cache-Control"); got != "no-cache" {
		t.Errorf("Cache-Control = %q, want no-cache", got)
	}
	if got := f.headers.Get("Pragma"); got != "no-cache" {
		t.Errorf("Pragma = %q, want no-cache", got)
	}
	if f.query == "" {
		t.Error("expected cache-busting query parameter")
	}
}

func TestClientErrors(t *testing.T) {
	f, c := newFake(t, baseGraph, baseScenes)
	f.mu.Lock()
	f.failGraph = true
	f.failSave = true
	f.mu.Unlock()

	_, err := c.FetchGraph(context.Background())
	var netErr *domain.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("FetchGraph() error = %v, want NetworkError", err)
	}
	if netErr.Op != "fetch graph" {
		t.Errorf("Op = %q", netErr.Op)
	}

	err = c.SaveGraph(context.Background(), domain.NewGraph())
	if !errors.As(err, &netErr) {
		t.Fatalf("SaveGraph() error = %v, want NetworkError", err)
	}

	t.Run("unreachable", func(t *testing.T) {
		dead := NewClient("http://127.0.0.1:1", time.Second)
		if _, err := dead.FetchScenes(context.Background()); !errors.As(err, &netErr) {
			t.Errorf("FetchScenes() error = %v, want NetworkError", err)
		}
	})
}

func TestSyncerLoad(t *testing.T) {
	_, c := newFake(t, baseGraph, baseScenes)
	s := NewSyncer(c, "en")

	g, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(g.Nodes) != 2 {
		t.Fatalf("got %d nodes, want 2 after normalization", len(g.Nodes))
	}
	if len(g.Edges) != 1 {
		t.Errorf("got %d edges, want 1", len(g.Edges))
	}

	lobby := g.Node("lobby")
	if lobby.Label != "Lobby" {
		t.Errorf("lobby label = %q, want Lobby", lobby.Label)
	}
	hall := g.Node("hall")
	if hall.Label != "Hội trường" {
		t.Errorf("hall label = %q, want fallback translation", hall.Label)
	}
	if p, ok := hall.Positions["1"]; !ok || p.X != 30 || p.Y != 40 {
		t.Errorf("hall positions = %v, want legacy x/y migrated to floor 1", hall.Positions)
	}
	if len(s.Scenes()) != 2 {
		t.Errorf("Scenes() = %d, want 2", len(s.Scenes()))
	}
}

func TestSyncerKeepsLastGoodGraph(t *testing.T) {
	f, c := newFake(t, baseGraph, baseScenes)
	s := NewSyncer(c, "vi")

	if _, err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	f.mu.Lock()
	f.failGraph = true
	f.mu.Unlock()

	g, err := s.Load(context.Background())
	var netErr *domain.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("Load() error = %v, want NetworkError", err)
	}
	if len(g.Nodes) != 2 {
		t.Errorf("got %d nodes, want last good graph with 2", len(g.Nodes))
	}
}

func TestSyncerKeepsCachedScenes(t *testing.T) {
	f, c := newFake(t, baseGraph, baseScenes)
	s := NewSyncer(c, "vi")
	if _, err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	f.mu.Lock()
	f.failScene = true
	f.graph = `{"nodes":[{"id":"lobby","floor":0}],"edges":[]}`
	f.mu.Unlock()

	g, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := g.Node("lobby").Label; got != "Sảnh" {
		t.Errorf("lobby label = %q, want cached scene name", got)
	}
}

func TestSyncerMergeKeepsPositions(t *testing.T) {
	f, c := newFake(t, baseGraph, baseScenes)
	s := NewSyncer(c, "vi")
	if _, err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	// A partial payload: lobby lost its coordinates, hall is gone.
	f.mu.Lock()
	f.graph = `{"nodes":[{"id":"lobby","floor":0}],"edges":[]}`
	f.mu.Unlock()

	g, err := s.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if p := g.Node("lobby").PositionOn(0); p.X != 10 || p.Y != 20 {
		t.Errorf("lobby = %v, want previous position kept", p)
	}
	if g.Node("hall") == nil {
		t.Error("hall dropped by partial payload")
	}
	if len(g.Edges) != 1 {
		t.Errorf("edges = %d, want previous edges kept", len(g.Edges))
	}
}

func TestSyncerRefreshPinned(t *testing.T) {
	f, c := newFake(t, baseGraph, baseScenes)
	s := NewSyncer(c, "vi")
	if _, err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	f.mu.Lock()
	f.graph = `{"nodes":[{"id":"lobby","floor":0,"positions":{"0":{"x":99,"y":99}}}],"edges":[]}`
	f.mu.Unlock()

	g, err := s.Refresh(context.Background(), "lobby")
	if err != nil {
		t.Fatal(err)
	}
	if p := g.Node("lobby").PositionOn(0); p.X != 10 || p.Y != 20 {
		t.Errorf("pinned lobby = %v, want (10,20)", p)
	}

	g, err = s.Refresh(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if p := g.Node("lobby").PositionOn(0); p.X != 99 {
		t.Errorf("unpinned lobby = %v, want server value", p)
	}
}

func TestEnsurePositions(t *testing.T) {
	graph := `{"nodes":[{"id":"a","floor":0},{"id":"b","floor":0}],"edges":[]}`

	t.Run("places and saves", func(t *testing.T) {
		f, c := newFake(t, graph, `[]`)
		s := NewSyncer(c, "vi")
		g, err := s.Load(context.Background())
		if err != nil {
			t.Fatal(err)
		}

		placed, err := s.EnsurePositions(context.Background(), g, geometry.Size{W: 1000, H: 800})
		if err != nil {
			t.Fatalf("EnsurePositions() error = %v", err)
		}
		if !placed {
			t.Fatal("expected nodes to be placed")
		}
		saved := f.lastSaved()
		if saved == nil || len(saved.Nodes) != 2 {
			t.Fatalf("saved = %+v, want 2 nodes", saved)
		}
		for _, n := range saved.Nodes {
			if !n.HasPosition() {
				t.Errorf("saved node %s has no position", n.ID)
			}
		}

		again, err := s.EnsurePositions(context.Background(), g, geometry.Size{W: 1000, H: 800})
		if err != nil || again {
			t.Errorf("second EnsurePositions() = %v, %v; want false, nil", again, err)
		}
	})

	t.Run("save failure keeps placement", func(t *testing.T) {
		f, c := newFake(t, graph, `[]`)
		f.mu.Lock()
		f.failSave = true
		f.mu.Unlock()
		s := NewSyncer(c, "vi")
		g, err := s.Load(context.Background())
		if err != nil {
			t.Fatal(err)
		}

		placed, err := s.EnsurePositions(context.Background(), g, geometry.Size{W: 1000, H: 800})
		var perr *domain.PersistenceError
		if !errors.As(err, &perr) {
			t.Fatalf("error = %v, want PersistenceError", err)
		}
		if !placed {
			t.Error("placed = false, want true")
		}
		if !g.Node("a").HasPosition() {
			t.Error("in-memory placement lost")
		}
		if !s.Last().Node("a").HasPosition() {
			t.Error("last good graph lost placement")
		}
	})
}

func TestSyncerRegenerate(t *testing.T) {
	_, c := newFake(t, baseGraph, baseScenes)
	s := NewSyncer(c, "vi")

	g, err := s.Regenerate(context.Background())
	if err != nil {
		t.Fatalf("Regenerate() error = %v", err)
	}
	if g.Node("lobby") == nil {
		t.Error("expected reload after regenerate")
	}
}
