// Package colorutil provides shared colors and pixel helpers for the
// layout preview and the print rasterizer.
package colorutil

import (
	"image/color"
)

// Colors used by the canvas preview.
var (
	Black       = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White       = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Desk        = color.RGBA{R: 64, G: 64, B: 64, A: 255}
	PageBorder  = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	Margin      = color.RGBA{R: 100, G: 150, B: 255, A: 160}
	Selection   = color.RGBA{R: 0, G: 120, B: 255, A: 255}
	Handle      = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Placeholder = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	Label       = color.RGBA{R: 40, G: 40, B: 40, A: 255}
)

// Luma returns the Rec. 601 luma of an 8-bit RGB triple, rounded.
func Luma(r, g, b uint8) uint8 {
	y := (299*uint32(r) + 587*uint32(g) + 114*uint32(b) + 500) / 1000
	if y > 255 {
		y = 255
	}
	return uint8(y)
}

// WithAlpha returns c with its alpha replaced.
func WithAlpha(c color.RGBA, a uint8) color.RGBA {
	c.A = a
	return c
}
