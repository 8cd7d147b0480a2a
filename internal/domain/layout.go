package domain

import (
	"math"
	"sort"
)

// GridPadding is the fraction of each stage dimension kept clear around
// an auto-placed grid
const GridPadding = 0.08

// PlaceGrid assigns coordinates to nodes that have none, laying them out in
// a grid per floor sized to the stage. Nodes that already carry coordinates
// are never moved, so repeated calls are idempotent. Returns the IDs placed.
func PlaceGrid(g *Graph, stageW, stageH float64) []string {
	if stageW <= 0 || stageH <= 0 {
		return nil
	}

	byFloor := make(map[float64][]int)
	var floors []float64
	for i := range g.Nodes {
		if g.Nodes[i].HasPosition() {
			continue
		}
		f := g.Nodes[i].Floor
		if _, ok := byFloor[f]; !ok {
			floors = append(floors, f)
		}
		byFloor[f] = append(byFloor[f], i)
	}
	sort.Float64s(floors)

	var placed []string
	for _, f := range floors {
		idxs := byFloor[f]
		for slot, p := range gridSlots(len(idxs), stageW, stageH) {
			n := &g.Nodes[idxs[slot]]
			n.SetPosition(f, p.X, p.Y)
			placed = append(placed, n.ID)
		}
	}
	return placed
}

// gridSlots returns n evenly spaced cell centers inside the padded stage
func gridSlots(n int, stageW, stageH float64) []Point {
	if n == 0 {
		return nil
	}
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	rows := int(math.Ceil(float64(n) / float64(cols)))

	padX := stageW * GridPadding
	padY := stageH * GridPadding
	cellW := (stageW - 2*padX) / float64(cols)
	cellH := (stageH - 2*padY) / float64(rows)

	slots := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		col := i % cols
		row := i / cols
		slots = append(slots, Point{
			X: math.Round(padX + cellW*(float64(col)+0.5)),
			Y: math.Round(padY + cellH*(float64(row)+0.5)),
		})
	}
	return slots
}
