// Package cv provides an OpenCV-backed resampler. It is kept apart from
// internal/image so only binaries that ask for it link against OpenCV.
package cv

import (
	"fmt"
	"image"
	"image/draw"

	"gocv.io/x/gocv"

	plimage "print-layout/internal/image"
)

// Lanczos resizes with OpenCV's 8x8 Lanczos kernel.
type Lanczos struct{}

var _ plimage.Resampler = Lanczos{}

func (Lanczos) Name() string { return "lanczos" }

// Resize implements plimage.Resampler. On an OpenCV failure it falls back
// to CatmullRom so a print job never loses an image to the resampler.
func (l Lanczos) Resize(src image.Image, w, h int) *image.RGBA {
	out, err := l.resize(src, w, h)
	if err != nil {
		return plimage.CatmullRom.Resize(src, w, h)
	}
	return out
}

func (Lanczos) resize(src image.Image, w, h int) (*image.RGBA, error) {
	if w <= 0 || h <= 0 || src.Bounds().Empty() {
		return image.NewRGBA(image.Rect(0, 0, max(w, 0), max(h, 0))), nil
	}

	b := src.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)

	mat, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC4, rgba.Pix)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()

	scaled := gocv.NewMat()
	defer scaled.Close()
	gocv.Resize(mat, &scaled, image.Pt(w, h), 0, 0, gocv.InterpolationLanczos4)
	if scaled.Cols() != w || scaled.Rows() != h {
		return nil, fmt.Errorf("resize produced %dx%d, want %dx%d", scaled.Cols(), scaled.Rows(), w, h)
	}

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	copy(out.Pix, scaled.ToBytes())
	return out, nil
}
