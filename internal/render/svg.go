package render

import (
	"fmt"
	"html"
	"io"
	"strings"
)

// SVGOptions controls SVG output
type SVGOptions struct {
	Title string
	// AssetBase is prefixed to the background path in the image href
	AssetBase string
	// ApplyView wraps the drawing in the tree's pan/zoom transform
	ApplyView bool
	// HideBackground skips the floor image
	HideBackground bool
}

// Palette used by every host
const (
	ColorEdge      = "#90a4ae"
	ColorEdgePath  = "#ff9800"
	ColorNode      = "#1e88e5"
	ColorNodePath  = "#43a047"
	ColorNodeActiv = "#e53935"
	ColorLabel     = "#263238"
	ColorStroke    = "#ffffff"
)

// WriteSVG writes tree as a standalone SVG document
func WriteSVG(w io.Writer, tree Tree, opts SVGOptions) error {
	_, err := io.WriteString(w, GenerateSVG(tree, opts))
	return err
}

// GenerateSVG renders tree to an SVG string
func GenerateSVG(tree Tree, opts SVGOptions) string {
	var sb strings.Builder

	width, height := tree.Width, tree.Height
	if width <= 0 {
		width = 800
	}
	if height <= 0 {
		height = 600
	}

	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	sb.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="%s" height="%s" viewBox="0 0 %s %s">`+"\n",
		num(width), num(height), num(width), num(height)))
	if opts.Title != "" {
		sb.WriteString(fmt.Sprintf("  <title>%s</title>\n", html.EscapeString(opts.Title)))
	}

	if tree.Missing {
		sb.WriteString(fmt.Sprintf(`  <text class="missing" x="16" y="24" fill="%s">floor %s: image unavailable</text>`+"\n",
			ColorEdge, html.EscapeString(tree.Floor)))
	}

	indent := "  "
	if opts.ApplyView && tree.View.Scale > 0 {
		sb.WriteString(fmt.Sprintf(`  <g transform="translate(%s %s) scale(%s)">`+"\n",
			num(tree.View.X), num(tree.View.Y), num(tree.View.Scale)))
		indent = "    "
	}

	if bg := tree.Background; bg != nil && !opts.HideBackground {
		href := opts.AssetBase + bg.Path
		sb.WriteString(fmt.Sprintf(`%s<image class="floor" href="%s" x="%s" y="%s" width="%s" height="%s" preserveAspectRatio="none"/>`+"\n",
			indent, html.EscapeString(href), num(bg.X), num(bg.Y), num(bg.W), num(bg.H)))
	}

	for _, e := range tree.Edges {
		stroke, strokeW := ColorEdge, 2.0
		class := "edge"
		if e.Highlighted {
			stroke, strokeW = ColorEdgePath, 4
			class = "edge edge--path"
		}
		sb.WriteString(fmt.Sprintf(`%s<line class="%s" data-from="%s" data-to="%s" x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="%s" opacity="%s"/>`+"\n",
			indent, class, html.EscapeString(e.From), html.EscapeString(e.To),
			num(e.X), num(e.Y), num(e.X2), num(e.Y2), stroke, num(strokeW), num(e.Opacity)))
	}

	for _, n := range tree.Nodes {
		fill, class := nodeStyle(n)
		sb.WriteString(fmt.Sprintf(`%s<circle class="%s" data-id="%s" cx="%s" cy="%s" r="%d" fill="%s" stroke="%s" stroke-width="2" opacity="%s"/>`+"\n",
			indent, class, html.EscapeString(n.ID), num(n.X), num(n.Y), NodeRadius, fill, ColorStroke, num(n.Opacity)))
	}

	for _, l := range tree.Labels {
		if !l.Visible {
			continue
		}
		sb.WriteString(fmt.Sprintf(`%s<text class="label" data-id="%s" x="%s" y="%s" font-family="sans-serif" font-size="12" fill="%s">%s</text>`+"\n",
			indent, html.EscapeString(l.ID), num(l.X), num(l.Y), ColorLabel, html.EscapeString(l.Text)))
	}

	if indent != "  " {
		sb.WriteString("  </g>\n")
	}
	sb.WriteString("</svg>\n")
	return sb.String()
}

func nodeStyle(n NodeElem) (fill, class string) {
	switch {
	case n.Active:
		return ColorNodeActiv, "node node--active"
	case n.OnPath:
		return ColorNodePath, "node node--path"
	default:
		return ColorNode, "node"
	}
}

// num formats a coordinate compactly
func num(f float64) string {
	s := fmt.Sprintf("%.2f", f)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}
