package domain

// MergeOptions tunes Merge
type MergeOptions struct {
	// Pinned lists node IDs whose existing coordinates always win,
	// e.g. the node currently being dragged in an editor.
	Pinned map[string]bool
}

// Merge combines a freshly fetched graph with the one already held.
//
// Incoming scalar fields win, except that an empty incoming label or a
// payload without a floor keeps the old value. Coordinates are combined per floor: old positions survive unless
// the incoming node sets the same floor key, and old x/y survive unless the
// incoming node sets them. Nodes present only in old are appended, so
// nothing is lost. Edges come from incoming when it has any, otherwise from old.
func Merge(old, incoming *Graph, opts MergeOptions) *Graph {
	if incoming == nil {
		return old.Clone()
	}
	if old == nil {
		return incoming.Clone()
	}

	oldIdx := old.Index()
	out := &Graph{
		Nodes: make([]Node, 0, len(incoming.Nodes)+len(old.Nodes)),
	}
	present := make(map[string]bool, len(incoming.Nodes))

	for _, in := range incoming.Nodes {
		present[in.ID] = true
		prev, ok := oldIdx[in.ID]
		if !ok {
			out.Nodes = append(out.Nodes, in.Clone())
			continue
		}
		out.Nodes = append(out.Nodes, mergeNode(*prev, in, opts.Pinned[in.ID]))
	}

	for _, n := range old.Nodes {
		if !present[n.ID] {
			out.Nodes = append(out.Nodes, n.Clone())
		}
	}

	src := incoming.Edges
	if len(src) == 0 {
		src = old.Edges
	}
	out.Edges = make([]Edge, len(src))
	copy(out.Edges, src)

	return out
}

func mergeNode(prev, in Node, pinned bool) Node {
	merged := in.Clone()
	if merged.Label == "" {
		merged.Label = prev.Label
	}
	if !in.HasFloor() {
		merged.Floor = prev.Floor
		merged.floorUnset = prev.floorUnset
	}

	if pinned {
		p := prev.Clone()
		merged.Positions = p.Positions
		merged.X, merged.Y = p.X, p.Y
		return merged
	}

	if len(prev.Positions) > 0 {
		positions := make(map[string]Point, len(prev.Positions)+len(in.Positions))
		for k, v := range prev.Positions {
			positions[k] = v
		}
		for k, v := range in.Positions {
			positions[k] = v
		}
		merged.Positions = positions
	}
	if merged.X == nil && prev.X != nil {
		merged.X = float64Ptr(*prev.X)
	}
	if merged.Y == nil && prev.Y != nil {
		merged.Y = float64Ptr(*prev.Y)
	}
	return merged
}
