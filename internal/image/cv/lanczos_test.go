package cv

import (
	"image"
	"image/color"
	"testing"
)

func TestLanczosSize(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			src.SetRGBA(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	out := Lanczos{}.Resize(src, 13, 7)
	if out.Rect.Dx() != 13 || out.Rect.Dy() != 7 {
		t.Fatalf("size = %v", out.Rect.Size())
	}
	if c := out.RGBAAt(6, 3); c.R < 195 || c.R > 205 || c.A != 255 {
		t.Fatalf("center pixel = %v", c)
	}
}
