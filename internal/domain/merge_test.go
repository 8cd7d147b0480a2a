package domain

import (
	"encoding/json"
	"testing"
)

func positioned(id string, floor, x, y float64) Node {
	n := NewNode(id, id, floor)
	n.SetPosition(floor, x, y)
	return *n
}

func TestMerge(t *testing.T) {
	t.Run("keeps old position when incoming lacks one", func(t *testing.T) {
		old := &Graph{Nodes: []Node{positioned("a", 1, 10, 20)}}
		incoming := &Graph{Nodes: []Node{{ID: "a", Label: "Renamed", Floor: 1}}}

		merged := Merge(old, incoming, MergeOptions{})
		node := merged.Node("a")

		if node.Label != "Renamed" {
			t.Errorf("expected incoming label, got %q", node.Label)
		}
		if got := node.PositionOn(1); got != (Point{X: 10, Y: 20}) {
			t.Errorf("expected old position, got %+v", got)
		}
		if node.X == nil || *node.X != 10 {
			t.Error("expected old x to survive")
		}
	})

	t.Run("incoming positions override per floor", func(t *testing.T) {
		oldNode := positioned("a", 1, 10, 20)
		oldNode.SetPosition(2, 30, 40)
		old := &Graph{Nodes: []Node{oldNode}}
		incoming := &Graph{Nodes: []Node{{ID: "a", Floor: 1, Positions: map[string]Point{"1": {X: 1, Y: 2}}}}}

		node := Merge(old, incoming, MergeOptions{}).Node("a")

		if got := node.PositionOn(1); got != (Point{X: 1, Y: 2}) {
			t.Errorf("expected incoming floor 1 position, got %+v", got)
		}
		if got := node.PositionOn(2); got != (Point{X: 30, Y: 40}) {
			t.Errorf("expected old floor 2 position, got %+v", got)
		}
		if node.Label != "a" {
			t.Errorf("expected old label to survive empty incoming label, got %q", node.Label)
		}
	})

	t.Run("retains nodes missing from incoming", func(t *testing.T) {
		old := &Graph{Nodes: []Node{positioned("a", 0, 1, 1), positioned("b", 0, 2, 2)}}
		incoming := &Graph{Nodes: []Node{{ID: "a"}, {ID: "c"}}}

		merged := Merge(old, incoming, MergeOptions{})

		if len(merged.Nodes) != 3 {
			t.Fatalf("expected 3 nodes, got %d", len(merged.Nodes))
		}
		if merged.Nodes[2].ID != "b" {
			t.Errorf("expected retained node appended last, got %s", merged.Nodes[2].ID)
		}
	})

	t.Run("pinned node keeps old coordinates", func(t *testing.T) {
		old := &Graph{Nodes: []Node{positioned("drag", 0, 100, 100)}}
		incoming := &Graph{Nodes: []Node{positioned("drag", 0, 5, 5)}}

		node := Merge(old, incoming, MergeOptions{Pinned: map[string]bool{"drag": true}}).Node("drag")

		if got := node.PositionOn(0); got != (Point{X: 100, Y: 100}) {
			t.Errorf("expected pinned position, got %+v", got)
		}
	})

	t.Run("edges fall back to old when incoming has none", func(t *testing.T) {
		old := &Graph{Edges: []Edge{*NewEdge("a", "b")}}
		incoming := &Graph{Nodes: []Node{{ID: "a"}}}

		if merged := Merge(old, incoming, MergeOptions{}); len(merged.Edges) != 1 {
			t.Errorf("expected old edges, got %d", len(merged.Edges))
		}
	})

	t.Run("does not alias inputs", func(t *testing.T) {
		old := &Graph{Nodes: []Node{positioned("a", 0, 1, 1)}}
		incoming := &Graph{Nodes: []Node{{ID: "a"}}}

		merged := Merge(old, incoming, MergeOptions{})
		merged.Nodes[0].Positions["0"] = Point{X: 50}

		if old.Nodes[0].Positions["0"].X != 1 {
			t.Error("expected old graph to be untouched")
		}
	})

	t.Run("nil inputs", func(t *testing.T) {
		g := &Graph{Nodes: []Node{{ID: "a"}}}
		if len(Merge(nil, g, MergeOptions{}).Nodes) != 1 {
			t.Error("expected incoming when old is nil")
		}
		if len(Merge(g, nil, MergeOptions{}).Nodes) != 1 {
			t.Error("expected old when incoming is nil")
		}
	})
}

func TestMergeFloorPresence(t *testing.T) {
	oldNode := NewNode("lab", "Lab", 5.5)
	oldNode.SetPosition(5.5, 120, 80)
	old := &Graph{Nodes: []Node{*oldNode}}

	tests := []struct {
		name    string
		payload string
		want    float64
	}{
		{"payload without floor keeps old floor", `{"nodes":[{"id":"lab","label":"Lab"}]}`, 5.5},
		{"null floor keeps old floor", `{"nodes":[{"id":"lab","floor":null}]}`, 5.5},
		{"explicit floor 0 moves the node", `{"nodes":[{"id":"lab","floor":0}]}`, 0},
		{"explicit floor wins", `{"nodes":[{"id":"lab","floor":6}]}`, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var incoming Graph
			if err := json.Unmarshal([]byte(tt.payload), &incoming); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}

			node := Merge(old, &incoming, MergeOptions{}).Node("lab")
			if node.Floor != tt.want {
				t.Errorf("floor = %v, want %v", node.Floor, tt.want)
			}
			if got := node.PositionOn(5.5); got != (Point{X: 120, Y: 80}) {
				t.Errorf("expected 5.5 position kept, got %+v", got)
			}
		})
	}

	t.Run("new node without floor defaults to 0", func(t *testing.T) {
		var incoming Graph
		if err := json.Unmarshal([]byte(`{"nodes":[{"id":"fresh"}]}`), &incoming); err != nil {
			t.Fatal(err)
		}
		node := Merge(old, &incoming, MergeOptions{}).Node("fresh")
		if node == nil || node.Floor != 0 || node.HasFloor() {
			t.Errorf("unexpected fresh node %+v", node)
		}
	})
}
