package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"wayfinder/internal/floor"
	"wayfinder/internal/geometry"
	"wayfinder/internal/minimap"
	"wayfinder/internal/render"
)

func newSimScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	if err := s.Init(); err != nil {
		t.Fatalf("failed to init screen: %v", err)
	}
	s.SetSize(w, h)
	t.Cleanup(s.Fini)
	return s
}

func cellAt(s tcell.SimulationScreen, x, y int) rune {
	cells, w, _ := s.GetContents()
	c := cells[y*w+x]
	if len(c.Runes) == 0 {
		return ' '
	}
	return c.Runes[0]
}

func rowText(s tcell.SimulationScreen, y int) string {
	cells, w, _ := s.GetContents()
	var sb strings.Builder
	for x := 0; x < w; x++ {
		c := cells[y*w+x]
		if len(c.Runes) == 0 {
			sb.WriteRune(' ')
			continue
		}
		sb.WriteRune(c.Runes[0])
	}
	return sb.String()
}

func TestPaint(t *testing.T) {
	s := newSimScreen(t, 40, 10)

	tree := render.Tree{
		View: geometry.View{Scale: 1},
		Edges: []render.EdgeElem{
			{From: "a", To: "b", X: 8, Y: 40, X2: 88, Y2: 40, Opacity: 1, Highlighted: true},
		},
		Nodes: []render.NodeElem{
			{ID: "a", X: 8, Y: 40, Active: true, Opacity: 1},
			{ID: "b", X: 88, Y: 40, Opacity: 1},
			{ID: "c", X: 8, Y: 120, Opacity: render.DimOpacity},
		},
		Labels: []render.LabelElem{
			{ID: "a", Text: "Lobby", Visible: true},
			{ID: "c", Text: "Hidden", Visible: false},
		},
	}
	Paint(s, tree, CellSize{W: 8, H: 16}, 40, 10)
	s.Show()

	if r := cellAt(s, 1, 2); r != '●' {
		t.Errorf("active node = %q, want ●", r)
	}
	if r := cellAt(s, 11, 2); r != 'o' {
		t.Errorf("node b = %q, want o", r)
	}
	if r := cellAt(s, 9, 2); r != '─' {
		t.Errorf("edge cell = %q, want ─", r)
	}
	if !strings.Contains(rowText(s, 2), "Lobby") {
		t.Errorf("row 2 = %q, want label Lobby", rowText(s, 2))
	}
	if strings.Contains(rowText(s, 7), "Hidden") {
		t.Error("invisible label was painted")
	}
}

func TestPaintClipsToMapArea(t *testing.T) {
	s := newSimScreen(t, 10, 5)
	tree := render.Tree{
		View:  geometry.View{Scale: 1},
		Nodes: []render.NodeElem{{ID: "far", X: 500, Y: 500, Opacity: 1}, {ID: "neg", X: -50, Y: 8, Opacity: 1}},
	}

	// must not panic or wrap around
	Paint(s, tree, CellSize{W: 8, H: 16}, 10, 3)
}

func TestPaintMissingFloor(t *testing.T) {
	s := newSimScreen(t, 40, 5)
	Paint(s, render.Tree{Floor: "5.5", View: geometry.View{Scale: 1}, Missing: true}, DefaultCellSize, 40, 3)
	s.Show()

	if row := rowText(s, 0); !strings.Contains(row, "floor 5.5: image unavailable") {
		t.Errorf("row 0 = %q", row)
	}
}

func TestLineRune(t *testing.T) {
	tests := []struct {
		dx, dy int
		want   rune
	}{
		{5, 0, '─'},
		{0, -3, '│'},
		{4, 4, '╲'},
		{-4, -4, '╲'},
		{4, -4, '╱'},
		{10, 1, '─'},
		{1, 10, '│'},
	}
	for _, tt := range tests {
		if got := lineRune(tt.dx, tt.dy); got != tt.want {
			t.Errorf("lineRune(%d, %d) = %q, want %q", tt.dx, tt.dy, got, tt.want)
		}
	}
}

func TestPointerEvent(t *testing.T) {
	cell := CellSize{W: 8, H: 16}
	tests := []struct {
		name      string
		prev, cur tcell.ButtonMask
		want      minimap.PointerKind
		delta     float64
	}{
		{"hover", tcell.ButtonNone, tcell.ButtonNone, minimap.PointerMove, 0},
		{"press", tcell.ButtonNone, tcell.Button1, minimap.PointerDown, 0},
		{"drag", tcell.Button1, tcell.Button1, minimap.PointerMove, 0},
		{"release", tcell.Button1, tcell.ButtonNone, minimap.PointerUp, 0},
		{"wheel up", tcell.ButtonNone, tcell.WheelUp, minimap.PointerWheel, -1},
		{"wheel down", tcell.ButtonNone, tcell.WheelDown, minimap.PointerWheel, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := pointerEvent(tt.prev, tt.cur, 3, 2, cell)
			if ev.Kind != tt.want {
				t.Errorf("kind = %s, want %s", ev.Kind, tt.want)
			}
			if ev.Delta != tt.delta {
				t.Errorf("delta = %v, want %v", ev.Delta, tt.delta)
			}
			if ev.X != 28 || ev.Y != 40 {
				t.Errorf("position = (%v, %v), want cell center (28, 40)", ev.X, ev.Y)
			}
		})
	}
}

func TestStatusLine(t *testing.T) {
	got := statusLine("5.5", "en", true, minimap.PathVisualized, "saved")
	for _, want := range []string{"floor 5.5", "en", "locked", "path visualized", "saved"} {
		if !strings.Contains(got, want) {
			t.Errorf("status %q missing %q", got, want)
		}
	}
	if strings.Contains(statusLine("0", "vi", false, minimap.PathIdle, ""), "path") {
		t.Error("idle path state should not be shown")
	}
}

func TestNextLanguage(t *testing.T) {
	if got := nextLanguage("vi"); got != "en" {
		t.Errorf("nextLanguage(vi) = %s", got)
	}
	if got := nextLanguage("en"); got != "vi" {
		t.Errorf("nextLanguage(en) = %s", got)
	}
}

func TestViewerQuits(t *testing.T) {
	s := newSimScreen(t, 80, 24)
	v := New(s, Options{
		Minimap: minimap.DefaultOptions(),
		Floors:  floor.Floors{"0": "/f0.png", "1": "/f1.png"},
	})

	done := make(chan error, 1)
	go func() { done <- v.Run(context.Background()) }()

	time.Sleep(50 * time.Millisecond)
	s.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("viewer did not quit on q")
	}

	if !strings.Contains(rowText(s, 23), "q quit") {
		t.Errorf("help row = %q", rowText(s, 23))
	}
}

func TestViewerStopsOnCancel(t *testing.T) {
	s := newSimScreen(t, 80, 24)
	v := New(s, Options{Floors: floor.Floors{"0": "/f0.png"}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- v.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("viewer did not stop on cancel")
	}
}
