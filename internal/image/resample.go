package image

import (
	"fmt"
	"image"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Resampler scales an image to exactly w by h pixels.
type Resampler interface {
	Resize(src image.Image, w, h int) *image.RGBA
	Name() string
}

// Kernel resamples with one of the golang.org/x/image/draw interpolators.
type Kernel struct {
	name   string
	scaler draw.Interpolator
}

func (k Kernel) Name() string { return k.name }

// Resize implements Resampler.
func (k Kernel) Resize(src image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, max(w, 0), max(h, 0)))
	if w <= 0 || h <= 0 || src.Bounds().Empty() {
		return dst
	}
	k.scaler.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// ClippedResampler is a Resampler that can scale src into box while only
// producing the pixels inside clip. The result has bounds box ∩ clip.
type ClippedResampler interface {
	Resampler
	ResizeClipped(src image.Image, box, clip image.Rectangle) *image.RGBA
}

// ResizeClipped implements ClippedResampler. It maps src onto box with an
// affine transform, so the work and memory follow the clipped area rather
// than the size of box.
func (k Kernel) ResizeClipped(src image.Image, box, clip image.Rectangle) *image.RGBA {
	dst := image.NewRGBA(box.Intersect(clip))
	sr := src.Bounds()
	if dst.Rect.Empty() || sr.Empty() {
		return dst
	}
	sx := float64(box.Dx()) / float64(sr.Dx())
	sy := float64(box.Dy()) / float64(sr.Dy())
	s2d := f64.Aff3{
		sx, 0, float64(box.Min.X) - sx*float64(sr.Min.X),
		0, sy, float64(box.Min.Y) - sy*float64(sr.Min.Y),
	}
	k.scaler.Transform(dst, s2d, src, sr, draw.Src, nil)
	return dst
}

var (
	// CatmullRom is the high-quality default used for printing.
	CatmullRom = Kernel{name: "catmullrom", scaler: draw.CatmullRom}
	// BiLinear is faster and used for draft prints.
	BiLinear = Kernel{name: "bilinear", scaler: draw.BiLinear}
	// NearestNeighbor keeps hard pixel edges.
	NearestNeighbor = Kernel{name: "nearest", scaler: draw.NearestNeighbor}
)

// KernelByName returns one of the built-in kernels.
func KernelByName(name string) (Kernel, error) {
	for _, k := range []Kernel{CatmullRom, BiLinear, NearestNeighbor} {
		if strings.EqualFold(k.name, name) {
			return k, nil
		}
	}
	return Kernel{}, fmt.Errorf("unknown resampler %q", name)
}
