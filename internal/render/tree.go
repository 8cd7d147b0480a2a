// Package render turns the minimap state into a flat render tree.
//
// Draw is pure: the same Scene always yields the same Tree. Hosts (the SVG
// and PNG writers, the terminal viewer, live websocket sessions) only ever
// consume trees.
package render

import (
	"wayfinder/internal/domain"
	"wayfinder/internal/floor"
	"wayfinder/internal/geometry"
)

const (
	// DimOpacity is applied to nodes and edges off the active path
	DimOpacity = 0.15
	// LabelOffsetX and LabelOffsetY place a label relative to its node
	LabelOffsetX = 10
	LabelOffsetY = -6
	// NodeRadius is the marker radius in stage pixels
	NodeRadius = 6
)

// HoverState identifies what the pointer is over, if anything
type HoverState struct {
	NodeID   string `json:"node_id,omitempty"`
	EdgeFrom string `json:"edge_from,omitempty"`
	EdgeTo   string `json:"edge_to,omitempty"`
}

// Empty reports whether nothing is hovered
func (h HoverState) Empty() bool {
	return h.NodeID == "" && h.EdgeFrom == "" && h.EdgeTo == ""
}

// Scene is everything Draw needs
type Scene struct {
	Stage      floor.Stage
	View       geometry.View
	Nodes      []domain.Node
	Edges      []domain.Edge
	Labels     map[string]string
	ActiveID   string
	ActivePath []string
	Hover      HoverState
}

// Background places the floor image on the stage
type Background struct {
	Path string  `json:"path"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	W    float64 `json:"width"`
	H    float64 `json:"height"`
}

// EdgeElem is a line between two nodes, described both by its endpoints
// and as a rotated segment anchored at (X, Y)
type EdgeElem struct {
	ID          string  `json:"id"`
	From        string  `json:"from"`
	To          string  `json:"to"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	X2          float64 `json:"x2"`
	Y2          float64 `json:"y2"`
	Length      float64 `json:"length"`
	Angle       float64 `json:"angle"`
	Highlighted bool    `json:"highlighted,omitempty"`
	Opacity     float64 `json:"opacity"`
}

// NodeElem is a node marker
type NodeElem struct {
	ID      string  `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Active  bool    `json:"active,omitempty"`
	OnPath  bool    `json:"on_path,omitempty"`
	Hovered bool    `json:"hovered,omitempty"`
	Opacity float64 `json:"opacity"`
}

// LabelElem is a node label
type LabelElem struct {
	ID      string  `json:"id"`
	Text    string  `json:"text"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Visible bool    `json:"visible"`
}

// Tree is the drawable output for one floor, in paint order
type Tree struct {
	Floor      string        `json:"floor"`
	Width      float64       `json:"width"`
	Height     float64       `json:"height"`
	View       geometry.View `json:"view"`
	Background *Background   `json:"background,omitempty"`
	Edges      []EdgeElem    `json:"edges"`
	Nodes      []NodeElem    `json:"nodes"`
	Labels     []LabelElem   `json:"labels"`
	Missing    bool          `json:"missing,omitempty"`
}

// Node returns the marker for id
func (t *Tree) Node(id string) (NodeElem, bool) {
	for _, n := range t.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeElem{}, false
}

// Label returns the label for id
func (t *Tree) Label(id string) (LabelElem, bool) {
	for _, l := range t.Labels {
		if l.ID == id {
			return l, true
		}
	}
	return LabelElem{}, false
}

// VisibleLabels returns the IDs of shown labels in paint order
func (t *Tree) VisibleLabels() []string {
	var ids []string
	for _, l := range t.Labels {
		if l.Visible {
			ids = append(ids, l.ID)
		}
	}
	return ids
}
