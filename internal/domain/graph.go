package domain

import "strings"

// Graph is the canonical set of scenes and their connections
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{
		Nodes: make([]Node, 0),
		Edges: make([]Edge, 0),
	}
}

// AddNode adds a node to the graph
func (g *Graph) AddNode(node Node) {
	g.Nodes = append(g.Nodes, node)
}

// AddEdge adds an edge to the graph
func (g *Graph) AddEdge(edge Edge) {
	g.Edges = append(g.Edges, edge)
}

// IsEmpty reports whether the graph has no nodes
func (g *Graph) IsEmpty() bool {
	return g == nil || len(g.Nodes) == 0
}

// Node returns the node with the given ID, or nil
func (g *Graph) Node(id string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// Index returns a lookup table of node ID to node pointer
func (g *Graph) Index() map[string]*Node {
	idx := make(map[string]*Node, len(g.Nodes))
	for i := range g.Nodes {
		idx[g.Nodes[i].ID] = &g.Nodes[i]
	}
	return idx
}

// NodesOnFloor returns the nodes whose floor equals floor exactly
func (g *Graph) NodesOnFloor(floor float64) []Node {
	var nodes []Node
	for _, n := range g.Nodes {
		if n.Floor == floor {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// Neighbors returns the IDs directly connected to id, treating edges as
// undirected. Order follows first appearance in Edges.
func (g *Graph) Neighbors(id string) []string {
	seen := make(map[string]bool)
	var out []string
	for i := range g.Edges {
		other := g.Edges[i].Other(id)
		if other == "" || other == id || seen[other] {
			continue
		}
		seen[other] = true
		out = append(out, other)
	}
	return out
}

// Floors returns the distinct floors in node order
func (g *Graph) Floors() []float64 {
	seen := make(map[float64]bool)
	var floors []float64
	for _, n := range g.Nodes {
		if !seen[n.Floor] {
			seen[n.Floor] = true
			floors = append(floors, n.Floor)
		}
	}
	return floors
}

// Clone returns a deep copy of the graph
func (g *Graph) Clone() *Graph {
	if g == nil {
		return NewGraph()
	}
	out := &Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: make([]Edge, len(g.Edges)),
	}
	for i, n := range g.Nodes {
		out.Nodes[i] = n.Clone()
	}
	for i, e := range g.Edges {
		out.Edges[i] = e
		if e.W != nil {
			out.Edges[i].W = float64Ptr(*e.W)
		}
	}
	return out
}

// Normalize drops nodes without an ID, duplicate node IDs (first wins) and
// edges missing an endpoint. It returns a *DataError describing what was
// dropped, or nil if the graph was already clean. Edges pointing at unknown
// nodes are kept; consumers skip them.
func (g *Graph) Normalize() error {
	if g.Nodes == nil {
		g.Nodes = make([]Node, 0)
	}
	if g.Edges == nil {
		g.Edges = make([]Edge, 0)
	}

	var report DataError
	seen := make(map[string]bool, len(g.Nodes))
	nodes := g.Nodes[:0]
	for _, n := range g.Nodes {
		n.ID = strings.TrimSpace(n.ID)
		if n.ID == "" || seen[n.ID] {
			report.DroppedNodes++
			continue
		}
		seen[n.ID] = true
		nodes = append(nodes, n)
	}
	g.Nodes = nodes

	edges := g.Edges[:0]
	for _, e := range g.Edges {
		e.From = strings.TrimSpace(e.From)
		e.To = strings.TrimSpace(e.To)
		if e.From == "" || e.To == "" {
			report.DroppedEdges++
			continue
		}
		edges = append(edges, e)
	}
	g.Edges = edges

	if report.DroppedNodes == 0 && report.DroppedEdges == 0 {
		return nil
	}
	return &report
}

// MigrateLegacyPositions moves legacy x/y pairs into per-floor positions.
// Returns the number of nodes migrated.
func (g *Graph) MigrateLegacyPositions() int {
	count := 0
	for i := range g.Nodes {
		if g.Nodes[i].MigrateLegacyPosition() {
			count++
		}
	}
	return count
}
