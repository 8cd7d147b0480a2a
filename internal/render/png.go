package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"wayfinder/internal/domain"
)

// PNGOptions configures raster output
type PNGOptions struct {
	FontSize  float64
	ApplyView bool
}

// DefaultPNGOptions returns the stock raster settings
func DefaultPNGOptions() PNGOptions {
	return PNGOptions{FontSize: 12}
}

var (
	rgbWhite     = color.RGBA{255, 255, 255, 255}
	rgbEdge      = color.RGBA{144, 164, 174, 255} // #90a4ae
	rgbEdgePath  = color.RGBA{255, 152, 0, 255}   // #ff9800
	rgbNode      = color.RGBA{30, 136, 229, 255}  // #1e88e5
	rgbNodePath  = color.RGBA{67, 160, 71, 255}   // #43a047
	rgbNodeActiv = color.RGBA{229, 57, 53, 255}   // #e53935
	rgbLabel     = color.RGBA{38, 50, 56, 255}    // #263238
)

// rasterContext holds the canvas and the transform from stage to pixels
type rasterContext struct {
	img   *image.RGBA
	face  font.Face
	scale float64
	dx    float64
	dy    float64
}

func (ctx *rasterContext) project(x, y float64) (float64, float64) {
	return x*ctx.scale + ctx.dx, y*ctx.scale + ctx.dy
}

// RasterizePNG paints tree onto a canvas the size of the stage and encodes
// it as PNG. bg may be nil.
func RasterizePNG(w io.Writer, tree Tree, bg image.Image, opts PNGOptions) error {
	img, err := Rasterize(tree, bg, opts)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// Rasterize paints tree into a new RGBA image
func Rasterize(tree Tree, bg image.Image, opts PNGOptions) (*image.RGBA, error) {
	if opts.FontSize <= 0 {
		opts.FontSize = DefaultPNGOptions().FontSize
	}
	width, height := int(math.Ceil(tree.Width)), int(math.Ceil(tree.Height))
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("tree has no size")
	}

	fnt, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    opts.FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	defer face.Close()

	ctx := &rasterContext{
		img:   image.NewRGBA(image.Rect(0, 0, width, height)),
		face:  face,
		scale: 1,
	}
	if opts.ApplyView && tree.View.Scale > 0 {
		ctx.scale, ctx.dx, ctx.dy = tree.View.Scale, tree.View.X, tree.View.Y
	}
	draw.Draw(ctx.img, ctx.img.Bounds(), image.NewUniform(rgbWhite), image.Point{}, draw.Src)

	if bg != nil && tree.Background != nil {
		b := tree.Background
		x0, y0 := ctx.project(b.X, b.Y)
		x1, y1 := ctx.project(b.X+b.W, b.Y+b.H)
		dst := image.Rect(int(math.Round(x0)), int(math.Round(y0)), int(math.Round(x1)), int(math.Round(y1)))
		draw.CatmullRom.Scale(ctx.img, dst, bg, bg.Bounds(), draw.Over, nil)
	}

	for _, e := range tree.Edges {
		c, thickness := rgbEdge, 2.0
		if e.Highlighted {
			c, thickness = rgbEdgePath, 4
		}
		x1, y1 := ctx.project(e.X, e.Y)
		x2, y2 := ctx.project(e.X2, e.Y2)
		fillPixels(ctx.img, linePixels(x1, y1, x2, y2, thickness), c, e.Opacity)
	}

	for _, n := range tree.Nodes {
		c := rgbNode
		switch {
		case n.Active:
			c = rgbNodeActiv
		case n.OnPath:
			c = rgbNodePath
		}
		cx, cy := ctx.project(n.X, n.Y)
		fillPixels(ctx.img, discPixels(cx, cy, NodeRadius+1.5), rgbWhite, n.Opacity)
		fillPixels(ctx.img, discPixels(cx, cy, NodeRadius), c, n.Opacity)
	}

	for _, l := range tree.Labels {
		if !l.Visible {
			continue
		}
		x, y := ctx.project(l.X, l.Y)
		drawText(ctx, x, y, l.Text, rgbLabel)
	}

	return ctx.img, nil
}

// linePixels collects the pixels covered by a thick segment
func linePixels(x1, y1, x2, y2, thickness float64) map[image.Point]struct{} {
	px := make(map[image.Point]struct{})
	dx, dy := x2-x1, y2-y1
	dist := math.Hypot(dx, dy)
	half := thickness / 2
	if dist < 1 {
		return discPixels(x1, y1, half)
	}

	perpX, perpY := -dy/dist, dx/dist
	steps := math.Max(math.Abs(dx), math.Abs(dy))
	for i := 0.0; i <= steps; i++ {
		t := i / steps
		cx, cy := x1+dx*t, y1+dy*t
		for off := -half; off <= half; off += 0.5 {
			px[image.Point{X: int(cx + perpX*off), Y: int(cy + perpY*off)}] = struct{}{}
		}
	}
	return px
}

// discPixels collects the pixels inside a circle
func discPixels(cx, cy, r float64) map[image.Point]struct{} {
	px := make(map[image.Point]struct{})
	for y := math.Floor(cy - r); y <= math.Ceil(cy+r); y++ {
		for x := math.Floor(cx - r); x <= math.Ceil(cx+r); x++ {
			if pixelDist(x+0.5, y+0.5, cx, cy) <= r {
				px[image.Point{X: int(x), Y: int(y)}] = struct{}{}
			}
		}
	}
	return px
}

func pixelDist(x, y, cx, cy float64) float64 {
	return math.Hypot(x-cx, y-cy)
}

// fillPixels blends c over each pixel once, so overlapping strokes of one
// element do not darken
func fillPixels(img *image.RGBA, px map[image.Point]struct{}, c color.RGBA, opacity float64) {
	a := uint32(math.Round(255 * clamp01(opacity)))
	for p := range px {
		if !p.In(img.Rect) {
			continue
		}
		i := img.PixOffset(p.X, p.Y)
		img.Pix[i+0] = uint8((uint32(c.R)*a + uint32(img.Pix[i+0])*(255-a)) / 255)
		img.Pix[i+1] = uint8((uint32(c.G)*a + uint32(img.Pix[i+1])*(255-a)) / 255)
		img.Pix[i+2] = uint8((uint32(c.B)*a + uint32(img.Pix[i+2])*(255-a)) / 255)
		img.Pix[i+3] = uint8(a + uint32(img.Pix[i+3])*(255-a)/255)
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// drawText draws text with its baseline at (x, y)
func drawText(ctx *rasterContext, x, y float64, text string, c color.Color) {
	d := &font.Drawer{
		Dst:  ctx.img,
		Src:  image.NewUniform(c),
		Face: ctx.face,
		Dot:  fixed.Point26_6{X: fixed.I(int(math.Round(x))), Y: fixed.I(int(math.Round(y)))},
	}
	d.DrawString(text)
}

// ProjectPoint maps a stage point through the tree's view, the same way
// Rasterize does with ApplyView
func ProjectPoint(t Tree, p domain.Point) domain.Point {
	if t.View.Scale <= 0 {
		return p
	}
	return domain.Point{X: p.X*t.View.Scale + t.View.X, Y: p.Y*t.View.Scale + t.View.Y}
}
