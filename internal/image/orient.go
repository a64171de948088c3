package image

import (
	"image"
	"image/draw"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ToNRGBA returns src as a tightly packed *image.NRGBA with origin (0,0).
// The result never aliases src.
func ToNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// orientationMatrix returns the homogeneous transform taking source pixel
// coordinates to destination coordinates for quarterTurns clockwise turns
// followed by the requested flips. w and h are the source dimensions; the
// oriented dimensions are returned alongside.
func orientationMatrix(quarterTurns int, flipH, flipV bool, w, h int) (*mat.Dense, int, int) {
	m := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	apply := func(t *mat.Dense) {
		var next mat.Dense
		next.Mul(t, m)
		m = &next
	}
	cw, ch := w, h
	for i := 0; i < quarterTurns; i++ {
		// (x, y) -> (ch-1-y, x)
		turn := mat.NewDense(3, 3, []float64{
			0, -1, float64(ch - 1),
			1, 0, 0,
			0, 0, 1,
		})
		apply(turn)
		cw, ch = ch, cw
	}
	if flipH {
		apply(mat.NewDense(3, 3, []float64{-1, 0, float64(cw - 1), 0, 1, 0, 0, 0, 1}))
	}
	if flipV {
		apply(mat.NewDense(3, 3, []float64{1, 0, 0, 0, -1, float64(ch - 1), 0, 0, 1}))
	}
	return m, cw, ch
}

// Orient rotates src by quarterTurns clockwise quarter turns (taken mod 4),
// then mirrors it. The result is a new image.
func Orient(src image.Image, quarterTurns int, flipH, flipV bool) *image.NRGBA {
	in := ToNRGBA(src)
	q := ((quarterTurns % 4) + 4) % 4
	if q == 0 && !flipH && !flipV {
		return in
	}

	w, h := in.Rect.Dx(), in.Rect.Dy()
	fwd, ow, oh := orientationMatrix(q, flipH, flipV, w, h)
	var inv mat.Dense
	if err := inv.Inverse(fwd); err != nil {
		// Rotations and reflections are always invertible.
		panic(err)
	}
	// The inverse of a signed permutation is integral; round away the
	// floating point noise once, outside the pixel loop.
	var k [6]int
	for i, v := range []float64{inv.At(0, 0), inv.At(0, 1), inv.At(0, 2), inv.At(1, 0), inv.At(1, 1), inv.At(1, 2)} {
		k[i] = int(math.Round(v))
	}

	out := image.NewNRGBA(image.Rect(0, 0, ow, oh))
	for y := 0; y < oh; y++ {
		row := out.Pix[y*out.Stride:]
		for x := 0; x < ow; x++ {
			sx := k[0]*x + k[1]*y + k[2]
			sy := k[3]*x + k[4]*y + k[5]
			si := sy*in.Stride + sx*4
			copy(row[x*4:x*4+4], in.Pix[si:si+4])
		}
	}
	return out
}
