package persist

import (
	"context"
	"errors"
	"log"
	"sync"

	"wayfinder/internal/domain"
	"wayfinder/internal/geometry"
)

// Syncer keeps the last good graph and scene list and merges every fetch
// into them, so a failed or partial fetch never loses data. It is safe
// for concurrent use; calls are serialized.
type Syncer struct {
	mu     sync.Mutex
	api    API
	lang   string
	last   *domain.Graph
	scenes []domain.Scene
}

// NewSyncer creates a syncer
func NewSyncer(api API, lang string) *Syncer {
	if lang == "" {
		lang = domain.DefaultLanguage
	}
	return &Syncer{api: api, lang: lang}
}

// SetLanguage changes the language used for scene names
func (s *Syncer) SetLanguage(lang string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lang = lang
}

// Last returns a copy of the last good graph
func (s *Syncer) Last() *domain.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last.Clone()
}

// Scenes returns the last good scene list
func (s *Syncer) Scenes() []domain.Scene {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scenes
}

// Load fetches graph and scenes and merges them into the last good graph.
// On a NetworkError the last good graph is returned together with the
// error; callers may keep going with it.
func (s *Syncer) Load(ctx context.Context) (*domain.Graph, error) {
	return s.load(ctx, domain.MergeOptions{})
}

// Refresh is Load with the given nodes pinned to their current positions,
// for use while they are being dragged
func (s *Syncer) Refresh(ctx context.Context, pinned ...string) (*domain.Graph, error) {
	opts := domain.MergeOptions{}
	for _, id := range pinned {
		if id == "" {
			continue
		}
		if opts.Pinned == nil {
			opts.Pinned = make(map[string]bool)
		}
		opts.Pinned[id] = true
	}
	return s.load(ctx, opts)
}

func (s *Syncer) load(ctx context.Context, opts domain.MergeOptions) (*domain.Graph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.api.FetchGraph(ctx)
	if err != nil {
		log.Printf("persist: %v; keeping last good graph", err)
		return s.last.Clone(), err
	}

	if err := g.Normalize(); err != nil {
		var dataErr *domain.DataError
		if errors.As(err, &dataErr) {
			log.Printf("persist: graph payload: %v", dataErr)
		}
	}

	scenes, err := s.api.FetchScenes(ctx)
	if err != nil {
		log.Printf("persist: %v; keeping %d cached scenes", err, len(s.scenes))
	} else {
		s.scenes = domain.NormalizeScenes(scenes)
	}
	domain.ApplyScenes(g, s.scenes, s.lang)

	s.last = domain.Merge(s.last, g, opts)
	if n := s.last.MigrateLegacyPositions(); n > 0 {
		log.Printf("persist: migrated %d legacy positions", n)
	}
	return s.last.Clone(), nil
}

// EnsurePositions grid-places nodes that have no coordinates and saves the
// result. It reports whether anything was placed. A failed save returns a
// PersistenceError but the placement stays in g and in the last good graph;
// the next load places nothing new and the next edit saves again.
func (s *Syncer) EnsurePositions(ctx context.Context, g *domain.Graph, stage geometry.Size) (bool, error) {
	placed := domain.PlaceGrid(g, stage.W, stage.H)
	if len(placed) == 0 {
		return false, nil
	}
	log.Printf("persist: auto-placed %d nodes", len(placed))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = domain.Merge(s.last, g, domain.MergeOptions{})

	if err := s.api.SaveGraph(ctx, g); err != nil {
		perr := &domain.PersistenceError{Op: "auto-placed positions", Err: err}
		log.Printf("persist: %v", perr)
		return true, perr
	}
	return true, nil
}

// Save persists g and records it as the last good graph
func (s *Syncer) Save(ctx context.Context, g *domain.Graph) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = domain.Merge(s.last, g, domain.MergeOptions{})
	if err := s.api.SaveGraph(ctx, g); err != nil {
		perr := &domain.PersistenceError{Op: "graph", Err: err}
		log.Printf("persist: %v", perr)
		return perr
	}
	return nil
}

// Regenerate asks the server to rebuild from scenes, then reloads
func (s *Syncer) Regenerate(ctx context.Context) (*domain.Graph, error) {
	if _, err := s.api.Regenerate(ctx); err != nil {
		log.Printf("persist: %v", err)
		return s.Last(), err
	}
	return s.Load(ctx)
}
