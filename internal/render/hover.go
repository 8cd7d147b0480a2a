package render

import (
	"math"

	"wayfinder/internal/domain"
	"wayfinder/internal/geometry"
)

const (
	// HoverRadius is how close, in stage units, the pointer must be to a node
	HoverRadius = 50
	// EdgeHoverTolerance is how close the pointer must be to an edge line
	EdgeHoverTolerance = 4
)

// Nearest returns the node closest to p within radius
func Nearest(nodes []NodeElem, p domain.Point, radius float64) (string, bool) {
	best := ""
	bestDist := math.Inf(1)
	for _, n := range nodes {
		d := geometry.Distance(p, domain.Point{X: n.X, Y: n.Y})
		if d <= radius && d < bestDist {
			best, bestDist = n.ID, d
		}
	}
	return best, best != ""
}

// EdgeAt returns the edge whose line passes within tolerance of p
func EdgeAt(edges []EdgeElem, p domain.Point, tolerance float64) (EdgeElem, bool) {
	var best EdgeElem
	bestDist := math.Inf(1)
	for _, e := range edges {
		d := geometry.DistanceToSegment(p, domain.Point{X: e.X, Y: e.Y}, domain.Point{X: e.X2, Y: e.Y2})
		if d <= tolerance && d < bestDist {
			best, bestDist = e, d
		}
	}
	return best, !math.IsInf(bestDist, 1)
}

// ResolveHover decides what the pointer at stage point p is over. Nodes
// take precedence over edges.
func ResolveHover(t Tree, p domain.Point, radius float64) HoverState {
	if id, ok := Nearest(t.Nodes, p, radius); ok {
		return HoverState{NodeID: id}
	}
	if e, ok := EdgeAt(t.Edges, p, EdgeHoverTolerance); ok {
		return HoverState{EdgeFrom: e.From, EdgeTo: e.To}
	}
	return HoverState{}
}

// HoverLabels returns the labels revealed by hovering id: the node itself
// and its direct neighbors
func HoverLabels(g *domain.Graph, id string) []string {
	if id == "" {
		return nil
	}
	return append([]string{id}, g.Neighbors(id)...)
}

func hoverLabels(s Scene) map[string]bool {
	shown := make(map[string]bool)
	if s.Hover.NodeID != "" {
		g := &domain.Graph{Nodes: s.Nodes, Edges: s.Edges}
		for _, id := range HoverLabels(g, s.Hover.NodeID) {
			shown[id] = true
		}
	}
	if s.Hover.EdgeFrom != "" {
		shown[s.Hover.EdgeFrom] = true
	}
	if s.Hover.EdgeTo != "" {
		shown[s.Hover.EdgeTo] = true
	}
	return shown
}
