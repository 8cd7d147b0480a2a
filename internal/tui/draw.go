package tui

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"

	"wayfinder/internal/domain"
	"wayfinder/internal/geometry"
	"wayfinder/internal/minimap"
	"wayfinder/internal/render"
)

var (
	styleDefault  = tcell.StyleDefault
	styleBorder   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleEdge     = tcell.StyleDefault.Foreground(tcell.ColorTeal)
	styleEdgePath = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleDim      = tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	styleNode     = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleNodePath = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleActive   = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleHovered  = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleLabel    = tcell.StyleDefault.Foreground(tcell.ColorSilver)
	styleStatus   = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorNavy)
	styleHelp     = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleInput    = tcell.StyleDefault.Background(tcell.ColorNavy).Foreground(tcell.ColorWhite)
)

// dimmed opacity threshold; render uses 0.15 for off-path elements
const dimBelow = 0.5

// CellSize is how many viewport pixels one terminal cell covers
type CellSize struct {
	W float64
	H float64
}

// DefaultCellSize approximates a typical terminal font
var DefaultCellSize = CellSize{W: 8, H: 16}

// toCell maps a screen-space point to a cell
func (c CellSize) toCell(p domain.Point) (int, int) {
	return int(math.Floor(p.X / c.W)), int(math.Floor(p.Y / c.H))
}

// toPixel maps a cell to the screen-space point at its center
func (c CellSize) toPixel(x, y int) (float64, float64) {
	return (float64(x) + 0.5) * c.W, (float64(y) + 0.5) * c.H
}

// canvas clips drawing to the map area
type canvas struct {
	screen tcell.Screen
	w, h   int
}

func (cv canvas) set(x, y int, r rune, style tcell.Style) {
	if x < 0 || y < 0 || x >= cv.w || y >= cv.h {
		return
	}
	cv.screen.SetContent(x, y, r, nil, style)
}

func (cv canvas) text(x, y int, s string, style tcell.Style) {
	for _, r := range s {
		cv.set(x, y, r, style)
		x++
	}
}

// Paint draws tree onto the top h rows of screen
func Paint(screen tcell.Screen, tree render.Tree, cell CellSize, w, h int) {
	cv := canvas{screen: screen, w: w, h: h}
	toScreen := func(x, y float64) (int, int) {
		p := geometry.StageToScreen(domain.Point{X: x, Y: y}, domain.Point{}, tree.View)
		return cell.toCell(p)
	}

	if tree.Missing {
		cv.text(1, 0, "floor "+tree.Floor+": image unavailable", styleDim)
		return
	}

	if bg := tree.Background; bg != nil {
		x0, y0 := toScreen(bg.X, bg.Y)
		x1, y1 := toScreen(bg.X+bg.W, bg.Y+bg.H)
		drawBox(cv, x0, y0, x1, y1)
	}

	for _, e := range tree.Edges {
		style := styleEdge
		switch {
		case e.Highlighted:
			style = styleEdgePath
		case e.Opacity < dimBelow:
			style = styleDim
		}
		x0, y0 := toScreen(e.X, e.Y)
		x1, y1 := toScreen(e.X2, e.Y2)
		drawLine(cv, x0, y0, x1, y1, style)
	}

	for _, n := range tree.Nodes {
		x, y := toScreen(n.X, n.Y)
		r, style := nodeGlyph(n)
		cv.set(x, y, r, style)
	}

	for _, l := range tree.Labels {
		if !l.Visible {
			continue
		}
		// labels sit one cell right of their node rather than at the pixel offset
		n, ok := tree.Node(l.ID)
		if !ok {
			continue
		}
		x, y := toScreen(n.X, n.Y)
		cv.text(x+2, y, l.Text, styleLabel)
	}
}

func nodeGlyph(n render.NodeElem) (rune, tcell.Style) {
	switch {
	case n.Active:
		return '●', styleActive
	case n.Hovered:
		return '◉', styleHovered
	case n.OnPath:
		return '◆', styleNodePath
	case n.Opacity < dimBelow:
		return 'o', styleDim
	default:
		return 'o', styleNode
	}
}

// drawLine walks the segment cell by cell
func drawLine(cv canvas, x0, y0, x1, y1 int, style tcell.Style) {
	dx, dy := x1-x0, y1-y0
	steps := max(abs(dx), abs(dy))
	if steps == 0 {
		return
	}
	r := lineRune(dx, dy)
	for i := 1; i < steps; i++ {
		x := x0 + int(math.Round(float64(dx*i)/float64(steps)))
		y := y0 + int(math.Round(float64(dy*i)/float64(steps)))
		cv.set(x, y, r, style)
	}
}

func lineRune(dx, dy int) rune {
	switch {
	case dy == 0 || abs(dx) > 2*abs(dy):
		return '─'
	case dx == 0 || abs(dy) > 2*abs(dx):
		return '│'
	case (dx > 0) == (dy > 0):
		return '╲'
	default:
		return '╱'
	}
}

func drawBox(cv canvas, x0, y0, x1, y1 int) {
	for x := x0 + 1; x < x1; x++ {
		cv.set(x, y0, '┄', styleBorder)
		cv.set(x, y1, '┄', styleBorder)
	}
	for y := y0 + 1; y < y1; y++ {
		cv.set(x0, y, '┆', styleBorder)
		cv.set(x1, y, '┆', styleBorder)
	}
	cv.set(x0, y0, '┌', styleBorder)
	cv.set(x1, y0, '┐', styleBorder)
	cv.set(x0, y1, '└', styleBorder)
	cv.set(x1, y1, '┘', styleBorder)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// statusLine summarizes the viewer state for the bottom bar
func statusLine(floorKey, lang string, locked bool, state minimap.PathState, msg string) string {
	s := fmt.Sprintf(" floor %s │ %s", floorKey, lang)
	if locked {
		s += " │ locked"
	}
	if state != minimap.PathIdle {
		s += " │ path " + state.String()
	}
	if msg != "" {
		s += " │ " + msg
	}
	return s
}

const helpText = " q quit  r route  g go to  [ ] floor  +/- zoom  arrows pan  f fit  c clear  l lock  L language  R reload"

func drawBar(screen tcell.Screen, y, w int, text string, style tcell.Style) {
	x := 0
	for _, r := range text {
		if x >= w {
			break
		}
		screen.SetContent(x, y, r, nil, style)
		x++
	}
	for ; x < w; x++ {
		screen.SetContent(x, y, ' ', nil, style)
	}
}
