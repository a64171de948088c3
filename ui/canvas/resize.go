package canvas

import (
	"math"

	"print-layout/internal/layout"
)

// Box is an image's position and size in millimeters.
type Box struct {
	X, Y, W, H float64
}

// BoxOf returns img's current box.
func BoxOf(img *layout.PlacedImage) Box {
	return Box{X: img.XMM, Y: img.YMM, W: img.WidthMM, H: img.HeightMM}
}

// ResizeGeometry returns the box produced by dragging handle h by (dx, dy)
// millimeters from start. The corner or edge opposite h stays fixed. With
// keepAspect the ratio start.W/start.H is preserved: corners and the left
// and right edges drive from width, top and bottom from height. Width and
// height never drop below layout.MinImageMM.
func ResizeGeometry(h Handle, start Box, dx, dy float64, keepAspect bool) Box {
	aspect := 0.0
	if start.H > 0 {
		aspect = start.W / start.H
	}
	lock := keepAspect && aspect > 0
	minW, minH := layout.MinImageMM, layout.MinImageMM
	if lock {
		// Both sides must stay above the minimum once the other is derived.
		minW = math.Max(minW, layout.MinImageMM*aspect)
		minH = math.Max(minH, layout.MinImageMM/aspect)
	}

	out := start
	switch h {
	case HandleBottomRight, HandleTopRight, HandleBottomLeft, HandleTopLeft:
		w := start.W + dx
		if h == HandleBottomLeft || h == HandleTopLeft {
			w = start.W - dx
		}
		ht := start.H + dy
		if h == HandleTopRight || h == HandleTopLeft {
			ht = start.H - dy
		}
		out.W = math.Max(w, minW)
		if lock {
			out.H = out.W / aspect
		} else {
			out.H = math.Max(ht, minH)
		}
	case HandleRight, HandleLeft:
		w := start.W + dx
		if h == HandleLeft {
			w = start.W - dx
		}
		out.W = math.Max(w, minW)
		if lock {
			out.H = out.W / aspect
		}
	case HandleBottom, HandleTop:
		ht := start.H + dy
		if h == HandleTop {
			ht = start.H - dy
		}
		out.H = math.Max(ht, minH)
		if lock {
			out.W = out.H * aspect
		}
	default:
		return start
	}

	// Re-anchor so the opposite edge does not drift.
	switch h {
	case HandleTopLeft, HandleBottomLeft, HandleLeft:
		out.X = start.X + start.W - out.W
	}
	switch h {
	case HandleTopLeft, HandleTopRight, HandleTop:
		out.Y = start.Y + start.H - out.H
	}
	return out
}
