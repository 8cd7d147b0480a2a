// Package geometry maps between the coordinate spaces of the minimap.
//
// Original space is the background image's native pixels (where node
// coordinates are stored). Display space is the image after it has been
// fitted ("contain") into the viewport. Stage space is display space before
// the pan/zoom transform, and screen space is raw pointer coordinates.
package geometry

import (
	"math"

	"wayfinder/internal/domain"
)

// FitInfo describes how a background image is placed in the viewport
type FitInfo struct {
	OriginalW float64 `json:"original_width"`
	OriginalH float64 `json:"original_height"`
	DisplayW  float64 `json:"display_width"`
	DisplayH  float64 `json:"display_height"`
	DisplayX  float64 `json:"display_x"`
	DisplayY  float64 `json:"display_y"`
	ScaleX    float64 `json:"scale_x"`
	ScaleY    float64 `json:"scale_y"`
}

// FitImageToViewport computes a "contain" placement of an image of natural
// size naturalW x naturalH inside a viewport, centered on the free axis.
// Non-positive sizes yield a zero FitInfo.
func FitImageToViewport(naturalW, naturalH, viewportW, viewportH float64) FitInfo {
	if naturalW <= 0 || naturalH <= 0 || viewportW <= 0 || viewportH <= 0 {
		return FitInfo{}
	}

	imgAspect := naturalW / naturalH
	viewportAspect := viewportW / viewportH

	info := FitInfo{OriginalW: naturalW, OriginalH: naturalH}
	if imgAspect > viewportAspect {
		info.DisplayW = viewportW
		info.DisplayH = viewportW / imgAspect
		info.DisplayY = (viewportH - info.DisplayH) / 2
	} else {
		info.DisplayH = viewportH
		info.DisplayW = viewportH * imgAspect
		info.DisplayX = (viewportW - info.DisplayW) / 2
	}
	info.ScaleX = info.DisplayW / naturalW
	info.ScaleY = info.DisplayH / naturalH
	return info
}

// Valid reports whether the fit was computed from real dimensions
func (f FitInfo) Valid() bool {
	return f.ScaleX > 0 && f.ScaleY > 0
}

// ToDisplay maps an original-image point to display space. Display space is
// also the stage plane nodes are drawn on.
func (f FitInfo) ToDisplay(p domain.Point) domain.Point {
	return domain.Point{
		X: p.X*f.ScaleX + f.DisplayX,
		Y: p.Y*f.ScaleY + f.DisplayY,
	}
}

// ToStage maps an original-image point into the background's own display
// rectangle, without the letterbox offset
func (f FitInfo) ToStage(p domain.Point) domain.Point {
	return domain.Point{X: p.X * f.ScaleX, Y: p.Y * f.ScaleY}
}

// StageToOriginal maps a stage-space point back to original-image pixels,
// rounding to whole pixels. This is the value written back when a node is
// dragged.
func StageToOriginal(stage domain.Point, f FitInfo) domain.Point {
	if !f.Valid() {
		return domain.Point{}
	}
	return domain.Point{
		X: math.Round((stage.X - f.DisplayX) / f.ScaleX),
		Y: math.Round((stage.Y - f.DisplayY) / f.ScaleY),
	}
}
