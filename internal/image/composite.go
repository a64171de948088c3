package image

import (
	"image"
	"image/color"
	"image/draw"

	"print-layout/pkg/colorutil"
)

// NewCanvas returns an opaque image of the given size filled with bg.
func NewCanvas(w, h int, bg color.Color) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)
	return dst
}

// Composite alpha-blends src over dst with src's top-left at. Pixels that
// fall outside dst are clipped.
func Composite(dst *image.RGBA, src image.Image, at image.Point) {
	sb := src.Bounds()
	r := image.Rectangle{Min: at, Max: at.Add(sb.Size())}
	draw.Draw(dst, r, src, sb.Min, draw.Over)
}

// Grayscale converts img to gray in place using Rec. 601 luma. Alpha is
// kept.
func Grayscale(img *image.RGBA) {
	b := img.Rect
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := img.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x, i = x+1, i+4 {
			l := colorutil.Luma(img.Pix[i], img.Pix[i+1], img.Pix[i+2])
			img.Pix[i], img.Pix[i+1], img.Pix[i+2] = l, l, l
		}
	}
}
