package canvas

import (
	"image"
	"image/color"

	tdcanvas "github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	plimage "print-layout/internal/image"
	"print-layout/internal/layout"
	"print-layout/pkg/colorutil"
	"print-layout/pkg/geometry"
)

// Stroke and handle sizes in screen pixels.
const (
	pageBorderPx   = 2.0
	marginLinePx   = 1.0
	outlinePx      = 1.0
	selectionPx    = 3.0
	handleSizePx   = 8.0
	labelHeightPx  = 20.0
	labelMinWidth  = 50.0
	labelCharWidth = 7.0
)

var transparent = color.RGBA{}

// Frame is one rendered view of a layout.
type Frame struct {
	Image      *image.RGBA
	Zoom       float64
	Generation uint64
	// Missing lists ids of images drawn as placeholders because their
	// source could not be loaded.
	Missing []string
}

// Preview renders the interactive view of a layout at screen resolution.
// It owns its caches and is not safe for concurrent use.
type Preview struct {
	sources    *plimage.SourceCache
	transforms *plimage.TransformCache

	ShowLabels  bool
	ShowMargins bool
}

// NewPreview returns a preview renderer. A nil decoder uses plimage.Decode.
func NewPreview(decode plimage.Decoder) *Preview {
	return &Preview{
		sources:     plimage.NewSourceCache(decode),
		transforms:  plimage.NewTransformCache(),
		ShowLabels:  true,
		ShowMargins: true,
	}
}

// Evict drops every cached rendering of path.
func (p *Preview) Evict(path string) {
	p.sources.Remove(path)
	p.transforms.RemovePath(path)
}

// Reset clears both caches.
func (p *Preview) Reset() {
	p.sources.Clear()
	p.transforms.Clear()
}

// CacheSizes returns the number of cached sources and renderings.
func (p *Preview) CacheSizes() (sources, transforms int) {
	return p.sources.Len(), p.transforms.Len()
}

// Render draws l at zoom: the page, its margins, every image (or a
// placeholder), the selection with its handles, and file name labels.
func (p *Preview) Render(l *layout.Layout, zoom float64) *Frame {
	zoom = geometry.ClampZoom(zoom)
	px := func(v float64) float64 { return geometry.PxToMM(v, zoom) }
	page := &l.Page

	c := tdcanvas.New(page.WidthMM, page.HeightMM)
	ctx := tdcanvas.NewContext(c)
	ctx.SetCoordSystem(tdcanvas.CartesianIV)

	ctx.SetFillColor(colorutil.White)
	ctx.SetStrokeColor(colorutil.PageBorder)
	ctx.SetStrokeWidth(px(pageBorderPx))
	ctx.DrawPath(0, 0, tdcanvas.Rectangle(page.WidthMM, page.HeightMM))

	if area := page.PrintableArea(); p.ShowMargins && !page.Borderless && !area.Empty() {
		ctx.SetFillColor(transparent)
		ctx.SetStrokeColor(colorutil.Margin)
		ctx.SetStrokeWidth(px(marginLinePx))
		ctx.SetDashes(0, px(4), px(4))
		ctx.DrawPath(area.X, area.Y, tdcanvas.Rectangle(area.Width, area.Height))
		ctx.SetDashes(0)
	}

	frame := &Frame{Zoom: zoom}
	for _, img := range l.Images() {
		b := img.Bounds()
		if b.Empty() {
			continue
		}
		rendered, err := p.transforms.Get(img, p.sources)
		if err != nil {
			frame.Missing = append(frame.Missing, img.ID)
			ctx.SetFillColor(colorutil.Placeholder)
			ctx.SetStrokeColor(colorutil.PageBorder)
			ctx.SetStrokeWidth(px(outlinePx))
			ctx.DrawPath(b.X, b.Y, tdcanvas.Rectangle(b.Width, b.Height))
			continue
		}
		ctx.FitImage(rendered, tdcanvas.Rect{X0: b.X, Y0: b.Y, X1: b.X + b.Width, Y1: b.Y + b.Height}, tdcanvas.ImageFill)
	}

	if sel := l.Selected(); sel != nil {
		b := sel.Bounds()
		ctx.SetFillColor(transparent)
		ctx.SetStrokeColor(colorutil.Selection)
		ctx.SetStrokeWidth(px(selectionPx))
		ctx.DrawPath(b.X, b.Y, tdcanvas.Rectangle(b.Width, b.Height))

		hs := px(handleSizePx)
		ctx.SetFillColor(colorutil.Selection)
		ctx.SetStrokeColor(colorutil.Handle)
		ctx.SetStrokeWidth(px(1))
		for _, h := range Handles {
			pt := HandlePoint(b, h)
			ctx.DrawPath(pt.X-hs/2, pt.Y-hs/2, tdcanvas.Rectangle(hs, hs))
		}
	}

	if p.ShowLabels {
		ctx.SetFillColor(colorutil.WithAlpha(colorutil.Black, 178))
		ctx.SetStrokeColor(transparent)
		for _, img := range l.Images() {
			w := max(float64(len(img.Name()))*labelCharWidth, labelMinWidth)
			ctx.DrawPath(img.XMM, img.YMM, tdcanvas.Rectangle(px(w), px(labelHeightPx)))
		}
	}

	frame.Image = rasterizer.Draw(c, tdcanvas.DPMM(geometry.MMToPx(1, zoom)), tdcanvas.DefaultColorSpace)

	if p.ShowLabels {
		drawLabels(frame.Image, l, zoom)
	}
	return frame
}

// drawLabels writes file names with the built-in bitmap face; it runs after
// rasterization so labels stay crisp at every zoom.
func drawLabels(dst *image.RGBA, l *layout.Layout, zoom float64) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(colorutil.White),
		Face: basicfont.Face7x13,
	}
	for _, img := range l.Images() {
		x := geometry.MMToPx(img.XMM, zoom) + 5
		y := geometry.MMToPx(img.YMM, zoom) + 14
		d.Dot = fixed.P(int(x), int(y))
		d.DrawString(img.Name())
	}
}
