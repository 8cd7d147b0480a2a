package domain

import (
	"crypto/sha256"
	"fmt"
)

// DefaultEdgeWeight is used when an edge carries no explicit weight
const DefaultEdgeWeight = 1.0

// Edge connects two scenes. Edges are undirected: From/To only record how
// the edge was authored.
type Edge struct {
	From  string   `json:"from"`
	To    string   `json:"to"`
	W     *float64 `json:"w,omitempty"`
	Label string   `json:"label,omitempty"`
}

// NewEdge creates an unweighted edge
func NewEdge(from, to string) *Edge {
	return &Edge{From: from, To: to}
}

// NewWeightedEdge creates an edge with an explicit weight
func NewWeightedEdge(from, to string, w float64) *Edge {
	return &Edge{From: from, To: to, W: float64Ptr(w)}
}

// Weight returns the traversal cost of the edge
func (e *Edge) Weight() float64 {
	if e.W == nil {
		return DefaultEdgeWeight
	}
	return *e.W
}

// Other returns the endpoint opposite id, or "" if id is not an endpoint
func (e *Edge) Other(id string) string {
	switch id {
	case e.From:
		return e.To
	case e.To:
		return e.From
	}
	return ""
}

// ID returns a deterministic identity for the edge. Both orientations of
// the same pair share an ID.
func (e *Edge) ID() string {
	from, to := e.From, e.To
	if from > to {
		from, to = to, from
	}

	key := fmt.Sprintf("%s\x00%s", from, to)
	hash := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", hash[:8])
}
