package render

import (
	"wayfinder/internal/domain"
	"wayfinder/internal/floor"
	"wayfinder/internal/geometry"
)

// Draw projects the scene's current floor into a render tree: edges first,
// then nodes, then labels
func Draw(s Scene) Tree {
	tree := Tree{
		Floor:  s.Stage.Floor,
		Width:  s.Stage.W,
		Height: s.Stage.H,
		View:   s.View,
		Edges:  []EdgeElem{},
		Nodes:  []NodeElem{},
		Labels: []LabelElem{},
	}
	if s.Stage.HasBackground() {
		fit := s.Stage.Fit
		tree.Background = &Background{
			Path: s.Stage.Path,
			X:    fit.DisplayX,
			Y:    fit.DisplayY,
			W:    fit.DisplayW,
			H:    fit.DisplayH,
		}
	}

	if s.Stage.Missing {
		// nodes keep their stored positions; only drawing is skipped
		tree.Missing = true
		return tree
	}

	floorNum, err := domain.ParseFloorKey(s.Stage.Floor)
	if err != nil {
		return tree
	}
	nodes := floor.Filter(s.Nodes, s.Stage.Floor)

	pos := make(map[string]domain.Point, len(nodes))
	for i := range nodes {
		pos[nodes[i].ID] = StagePosition(&nodes[i], floorNum, s.Stage.Fit)
	}

	hasPath := len(s.ActivePath) > 0
	onPath := make(map[string]bool, len(s.ActivePath))
	for _, id := range s.ActivePath {
		onPath[id] = true
	}
	steps := PathSteps(s.ActivePath)

	// reciprocal hotspots store one edge each way; draw the pair once
	drawn := make(map[string]bool, len(s.Edges))
	for _, e := range s.Edges {
		a, okA := pos[e.From]
		b, okB := pos[e.To]
		if !okA || !okB {
			continue
		}
		id := e.ID()
		if drawn[id] {
			continue
		}
		drawn[id] = true
		length, angle := geometry.Segment(a, b)
		hl := steps[pairKey(e.From, e.To)]
		opacity := 1.0
		if hasPath && !hl {
			opacity = DimOpacity
		}
		tree.Edges = append(tree.Edges, EdgeElem{
			ID:   id,
			From: e.From, To: e.To,
			X: a.X, Y: a.Y, X2: b.X, Y2: b.Y,
			Length: length, Angle: angle,
			Highlighted: hl,
			Opacity:     opacity,
		})
	}

	shown := hoverLabels(s)
	for _, n := range nodes {
		p := pos[n.ID]
		active := n.ID == s.ActiveID
		opacity := 1.0
		if hasPath && !onPath[n.ID] && !active {
			opacity = DimOpacity
		}
		tree.Nodes = append(tree.Nodes, NodeElem{
			ID:      n.ID,
			X:       p.X,
			Y:       p.Y,
			Active:  active,
			OnPath:  onPath[n.ID],
			Hovered: n.ID == s.Hover.NodeID,
			Opacity: opacity,
		})
	}

	for _, n := range nodes {
		p := pos[n.ID]
		text := s.Labels[n.ID]
		if text == "" {
			text = n.DisplayName()
		}
		tree.Labels = append(tree.Labels, LabelElem{
			ID:      n.ID,
			Text:    text,
			X:       p.X + LabelOffsetX,
			Y:       p.Y + LabelOffsetY,
			Visible: n.ID == s.ActiveID || onPath[n.ID] || shown[n.ID],
		})
	}

	return tree
}

// StagePosition maps a node's stored position for floorNum onto the stage.
// Without a fitted background the stored position is used as is.
func StagePosition(n *domain.Node, floorNum float64, fit geometry.FitInfo) domain.Point {
	p := n.PositionOn(floorNum)
	if !fit.Valid() {
		return p
	}
	return fit.ToDisplay(p)
}

// PathSteps returns the unordered node pairs formed by consecutive path
// entries
func PathSteps(path []string) map[string]bool {
	steps := make(map[string]bool, len(path))
	for i := 1; i < len(path); i++ {
		steps[pairKey(path[i-1], path[i])] = true
	}
	return steps
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "\x00" + b
}
