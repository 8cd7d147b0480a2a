package domain

import (
	"encoding/json"
	"sort"
)

// Node is a scene placed on one or more floor schematics
type Node struct {
	ID        string           `json:"id"`
	Label     string           `json:"label,omitempty"`
	Floor     float64          `json:"floor"`
	Positions map[string]Point `json:"positions,omitempty"`

	// Legacy single-floor coordinates, kept for nodes created before
	// per-floor positions existed.
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`

	// floorUnset records a decoded payload without a floor key, so Merge
	// can tell "floor 0" from "floor not sent"
	floorUnset bool
}

// UnmarshalJSON decodes a node, remembering whether floor was present
func (n *Node) UnmarshalJSON(data []byte) error {
	type plain Node
	var aux struct {
		plain
		Floor *float64 `json:"floor"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*n = Node(aux.plain)
	if aux.Floor != nil {
		n.Floor = *aux.Floor
	} else {
		n.floorUnset = true
	}
	return nil
}

// HasFloor reports whether the node's floor was set rather than defaulted
func (n *Node) HasFloor() bool {
	return !n.floorUnset
}

// NewNode creates a node on the given floor without a position
func NewNode(id, label string, floor float64) *Node {
	return &Node{
		ID:        id,
		Label:     label,
		Floor:     floor,
		Positions: make(map[string]Point),
	}
}

// PositionOn resolves the node's position on a floor.
//
// Resolution order: the floor's own entry, then the first entry of
// Positions (by sorted key), then the legacy x/y pair (missing values are 0).
func (n *Node) PositionOn(floor float64) Point {
	if len(n.Positions) > 0 {
		if p, ok := n.Positions[FloorKey(floor)]; ok {
			return p
		}
		keys := make([]string, 0, len(n.Positions))
		for k := range n.Positions {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return n.Positions[keys[0]]
	}
	return Point{X: deref(n.X), Y: deref(n.Y)}
}

// Position resolves the node's position on its own floor
func (n *Node) Position() Point {
	return n.PositionOn(n.Floor)
}

// HasPosition reports whether the node carries any coordinate data. A lone
// legacy x or y counts: MigrateLegacyPosition keeps it and fills the other
// axis with 0.
func (n *Node) HasPosition() bool {
	if len(n.Positions) > 0 {
		return true
	}
	return n.X != nil || n.Y != nil
}

// SetPosition stores a position for a floor. Positions on the node's own
// floor are mirrored into the legacy x/y pair.
func (n *Node) SetPosition(floor float64, x, y float64) {
	if n.Positions == nil {
		n.Positions = make(map[string]Point)
	}
	n.Positions[FloorKey(floor)] = Point{X: x, Y: y}
	if floor == n.Floor {
		n.X = float64Ptr(x)
		n.Y = float64Ptr(y)
	}
}

// MigrateLegacyPosition copies a legacy x/y pair into Positions for the
// node's own floor. Returns true if the node changed.
func (n *Node) MigrateLegacyPosition() bool {
	if len(n.Positions) > 0 || (n.X == nil && n.Y == nil) {
		return false
	}
	n.Positions = map[string]Point{
		FloorKey(n.Floor): {X: deref(n.X), Y: deref(n.Y)},
	}
	return true
}

// Clone returns a deep copy of the node
func (n Node) Clone() Node {
	out := n
	if n.Positions != nil {
		out.Positions = make(map[string]Point, len(n.Positions))
		for k, v := range n.Positions {
			out.Positions[k] = v
		}
	}
	if n.X != nil {
		out.X = float64Ptr(*n.X)
	}
	if n.Y != nil {
		out.Y = float64Ptr(*n.Y)
	}
	return out
}

// DisplayName returns the label, falling back to the ID
func (n *Node) DisplayName() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func float64Ptr(f float64) *float64 {
	return &f
}
