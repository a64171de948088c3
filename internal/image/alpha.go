package image

import (
	"image"
	"image/color"
	"image/draw"
)

// ScaleAlpha multiplies every pixel's alpha by opacity in place, truncating
// to an integer. Premultiplied images have their color channels scaled too
// so the straight color is unchanged. Opacity >= 1 is a no-op.
func ScaleAlpha(img draw.Image, opacity float64) {
	if opacity >= 1 {
		return
	}
	if opacity < 0 {
		opacity = 0
	}

	switch m := img.(type) {
	case *image.NRGBA:
		b := m.Rect
		for y := b.Min.Y; y < b.Max.Y; y++ {
			i := m.PixOffset(b.Min.X, y)
			for x := b.Min.X; x < b.Max.X; x, i = x+1, i+4 {
				m.Pix[i+3] = uint8(float64(m.Pix[i+3]) * opacity)
			}
		}
	case *image.RGBA:
		b := m.Rect
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := m.Pix[m.PixOffset(b.Min.X, y):m.PixOffset(b.Max.X, y)]
			for i := range row {
				row[i] = uint8(float64(row[i]) * opacity)
			}
		}
	default:
		b := img.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.NRGBA64Model.Convert(img.At(x, y)).(color.NRGBA64)
				c.A = uint16(float64(c.A) * opacity)
				img.Set(x, y, c)
			}
		}
	}
}
