package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"wayfinder/internal/codec"
	"wayfinder/internal/domain"
	"wayfinder/internal/repository"
	"wayfinder/internal/route"
)

// ErrNoScenes is returned by Cleanup when there is no scene catalogue to
// clean against
var ErrNoScenes = errors.New("no scenes loaded")

// GraphService provides business logic for graph operations
type GraphService struct {
	repo     repository.Repository
	eventBus *EventBus
}

// NewGraphService creates a new graph service
func NewGraphService(repo repository.Repository, eventBus *EventBus) *GraphService {
	return &GraphService{
		repo:     repo,
		eventBus: eventBus,
	}
}

// GetGraph returns the stored graph with nodes and edges re-synced from
// the scene catalogue. Positions always come from the store, edges always
// come from hotspots when scenes exist. Stored nodes with no scene are
// kept; Cleanup removes them.
func (s *GraphService) GetGraph(ctx context.Context) (*domain.Graph, error) {
	stored, err := s.repo.GetGraph(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}

	scenes, err := s.repo.ListScenes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load scenes: %w", err)
	}
	if len(scenes) == 0 {
		return stored, nil
	}

	return syncFromScenes(stored, scenes), nil
}

// syncFromScenes overlays scene-derived nodes and edges on stored
func syncFromScenes(stored *domain.Graph, scenes []domain.Scene) *domain.Graph {
	generated := domain.GraphFromScenes(domain.NormalizeScenes(scenes), domain.DefaultLanguage)
	merged := domain.Merge(stored, generated, domain.MergeOptions{})
	merged.Edges = generated.Edges
	return merged
}

// SaveGraph merges incoming into the stored graph and persists the result.
// Incoming fields win; positions the client did not send survive.
func (s *GraphService) SaveGraph(ctx context.Context, incoming *domain.Graph) (*domain.Graph, error) {
	if incoming == nil {
		return nil, fmt.Errorf("graph required")
	}
	incoming = incoming.Clone()
	if err := incoming.Normalize(); err != nil {
		log.Printf("service: save graph: %v", err)
	}

	stored, err := s.repo.GetGraph(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}

	// migrate after merging so legacy x/y land on the node's resolved floor
	merged := domain.Merge(stored, incoming, domain.MergeOptions{})
	merged.MigrateLegacyPositions()
	if err := s.repo.SaveGraph(ctx, merged); err != nil {
		return nil, fmt.Errorf("failed to save graph: %w", err)
	}

	s.eventBus.Publish(Event{
		Type:    EventGraphChanged,
		Payload: map[string]interface{}{"action": "saved", "nodes": len(merged.Nodes)},
	})

	return merged, nil
}

// RegenerateResult summarizes a rebuild from scenes
type RegenerateResult struct {
	Nodes              int `json:"nodes"`
	Edges              int `json:"edges"`
	NodesWithPositions int `json:"nodes_with_positions"`
}

// Regenerate rebuilds nodes and edges from the scene catalogue and persists
// the result. Existing positions are preserved and nodes with no scene are
// kept.
func (s *GraphService) Regenerate(ctx context.Context) (*RegenerateResult, error) {
	stored, err := s.repo.GetGraph(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}
	scenes, err := s.repo.ListScenes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load scenes: %w", err)
	}

	merged := syncFromScenes(stored, scenes)
	if err := s.repo.SaveGraph(ctx, merged); err != nil {
		return nil, fmt.Errorf("failed to save graph: %w", err)
	}

	result := &RegenerateResult{Nodes: len(merged.Nodes), Edges: len(merged.Edges)}
	for i := range merged.Nodes {
		if merged.Nodes[i].HasPosition() {
			result.NodesWithPositions++
		}
	}
	log.Printf("service: regenerated graph: %d nodes (%d with positions), %d edges",
		result.Nodes, result.NodesWithPositions, result.Edges)

	s.eventBus.Publish(Event{Type: EventGraphChanged, Payload: result})
	return result, nil
}

// CleanupResult lists what Cleanup removed
type CleanupResult struct {
	RemovedNodes   []string `json:"removed_nodes"`
	RemovedCount   int      `json:"removed_count"`
	RemainingNodes int      `json:"remaining_nodes"`
	RemainingEdges int      `json:"remaining_edges"`
}

// Cleanup removes stored nodes that have no scene, and every edge touching
// them. It refuses to run against an empty catalogue.
func (s *GraphService) Cleanup(ctx context.Context) (*CleanupResult, error) {
	scenes, err := s.repo.ListScenes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load scenes: %w", err)
	}
	if len(scenes) == 0 {
		return nil, ErrNoScenes
	}
	known := make(map[string]bool, len(scenes))
	for _, sc := range scenes {
		known[sc.ID] = true
	}

	g, err := s.repo.GetGraph(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}

	result := &CleanupResult{RemovedNodes: make([]string, 0)}
	cleaned := domain.NewGraph()
	kept := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if !known[n.ID] {
			result.RemovedNodes = append(result.RemovedNodes, n.ID)
			continue
		}
		kept[n.ID] = true
		cleaned.AddNode(n)
	}
	for _, e := range g.Edges {
		if kept[e.From] && kept[e.To] {
			cleaned.AddEdge(e)
		}
	}

	if err := s.repo.SaveGraph(ctx, cleaned); err != nil {
		return nil, fmt.Errorf("failed to save graph: %w", err)
	}

	result.RemovedCount = len(result.RemovedNodes)
	result.RemainingNodes = len(cleaned.Nodes)
	result.RemainingEdges = len(cleaned.Edges)
	log.Printf("service: cleaned graph: removed %d orphaned nodes %v", result.RemovedCount, result.RemovedNodes)

	if result.RemovedCount > 0 {
		s.eventBus.Publish(Event{Type: EventGraphChanged, Payload: result})
	}
	return result, nil
}

// ListScenes returns the scene catalogue
func (s *GraphService) ListScenes(ctx context.Context) ([]domain.Scene, error) {
	return s.repo.ListScenes(ctx)
}

// ImportScenes normalizes and upserts scenes. Returns how many were stored.
func (s *GraphService) ImportScenes(ctx context.Context, scenes []domain.Scene) (int, error) {
	scenes = domain.NormalizeScenes(scenes)
	if len(scenes) == 0 {
		return 0, nil
	}
	if err := s.repo.UpsertScenes(ctx, scenes); err != nil {
		return 0, fmt.Errorf("failed to import scenes: %w", err)
	}

	s.eventBus.Publish(Event{
		Type:    EventSceneChanged,
		Payload: map[string]int{"count": len(scenes)},
	})
	return len(scenes), nil
}

// ImportScenesFile parses a JSON or YAML catalogue and imports it
func (s *GraphService) ImportScenesFile(ctx context.Context, path string) (int, error) {
	scenes, err := codec.ParseFile(path)
	if err != nil {
		return 0, err
	}
	return s.ImportScenes(ctx, scenes)
}

// RouteResult is a computed path with its total weight
type RouteResult struct {
	Path []string `json:"path"`
	Cost float64  `json:"cost"`
}

// Route computes the cheapest path between two scenes on the synced graph.
// Returns route.ErrNoRoute when they are not connected.
func (s *GraphService) Route(ctx context.Context, from, to string) (*RouteResult, error) {
	g, err := s.GetGraph(ctx)
	if err != nil {
		return nil, err
	}

	r := route.New(g)
	path, err := r.Find(from, to)
	if err != nil {
		return nil, err
	}
	return &RouteResult{Path: path, Cost: r.Cost(path)}, nil
}
