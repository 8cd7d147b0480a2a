// Package route computes shortest paths between scenes on the wayfinding graph.
package route

import (
	"container/heap"
	"errors"
	"math"

	"wayfinder/internal/domain"
)

// ErrNoRoute is returned when two scenes are not connected
var ErrNoRoute = errors.New("route not found")

type arc struct {
	to     int
	weight float64
}

// Router answers shortest-path queries over a snapshot of the graph.
// Edges are undirected. Edges that reference unknown nodes or carry a
// negative weight are ignored.
type Router struct {
	ids   []string
	index map[string]int
	adj   [][]arc
}

// New builds a router from the graph's current nodes and edges
func New(g *domain.Graph) *Router {
	r := &Router{index: make(map[string]int)}
	if g == nil {
		return r
	}

	for _, n := range g.Nodes {
		if _, ok := r.index[n.ID]; ok || n.ID == "" {
			continue
		}
		r.index[n.ID] = len(r.ids)
		r.ids = append(r.ids, n.ID)
	}
	r.adj = make([][]arc, len(r.ids))

	for _, e := range g.Edges {
		from, okFrom := r.index[e.From]
		to, okTo := r.index[e.To]
		w := e.Weight()
		if !okFrom || !okTo || w < 0 || math.IsNaN(w) {
			continue
		}
		r.adj[from] = append(r.adj[from], arc{to: to, weight: w})
		if from != to {
			r.adj[to] = append(r.adj[to], arc{to: from, weight: w})
		}
	}
	return r
}

// Has reports whether id is a routable node
func (r *Router) Has(id string) bool {
	_, ok := r.index[id]
	return ok
}

// Route returns the cheapest path from start to goal, both endpoints
// included. It returns an empty slice when either endpoint is unknown or
// the goal is unreachable.
func (r *Router) Route(start, goal string) []string {
	startIdx, ok := r.index[start]
	if !ok {
		return []string{}
	}
	goalIdx, ok := r.index[goal]
	if !ok {
		return []string{}
	}
	if startIdx == goalIdx {
		return []string{start}
	}

	n := len(r.ids)
	dist := make([]float64, n)
	prev := make([]int, n)
	for i := range dist {
		dist[i] = math.Inf(1)
		prev[i] = -1
	}
	dist[startIdx] = 0

	pq := &priorityQueue{}
	heap.Init(pq)
	seq := 0
	heap.Push(pq, &pqItem{vertex: startIdx, dist: 0, seq: seq})

	for pq.Len() > 0 {
		item := heap.Pop(pq).(*pqItem)
		u := item.vertex

		if u == goalIdx {
			break
		}
		if item.dist > dist[u] {
			continue
		}

		for _, a := range r.adj[u] {
			alt := dist[u] + a.weight
			if alt < dist[a.to] {
				dist[a.to] = alt
				prev[a.to] = u
				seq++
				heap.Push(pq, &pqItem{vertex: a.to, dist: alt, seq: seq})
			}
		}
	}

	if math.IsInf(dist[goalIdx], 1) {
		return []string{}
	}

	var path []string
	for v := goalIdx; v != -1; v = prev[v] {
		path = append(path, r.ids[v])
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Find is Route with an error for callers that need one
func (r *Router) Find(start, goal string) ([]string, error) {
	path := r.Route(start, goal)
	if len(path) == 0 {
		return nil, ErrNoRoute
	}
	return path, nil
}

// Cost sums the cheapest edge weight between consecutive path entries.
// A pair with no connecting edge makes the cost +Inf.
func (r *Router) Cost(path []string) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		from, okFrom := r.index[path[i-1]]
		to, okTo := r.index[path[i]]
		if !okFrom || !okTo {
			return math.Inf(1)
		}
		best := math.Inf(1)
		for _, a := range r.adj[from] {
			if a.to == to && a.weight < best {
				best = a.weight
			}
		}
		total += best
	}
	return total
}

// Route is a convenience wrapper for one-off queries
func Route(g *domain.Graph, start, goal string) []string {
	return New(g).Route(start, goal)
}

type pqItem struct {
	vertex int
	dist   float64
	seq    int
}

type priorityQueue []*pqItem

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].dist == pq[j].dist {
		return pq[i].seq < pq[j].seq
	}
	return pq[i].dist < pq[j].dist
}
func (pq priorityQueue) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *priorityQueue) Push(x interface{}) {
	*pq = append(*pq, x.(*pqItem))
}

func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[0 : n-1]
	return item
}
