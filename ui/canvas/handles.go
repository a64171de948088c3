package canvas

import (
	"math"

	"print-layout/internal/layout"
	"print-layout/pkg/geometry"
)

// HandleRadiusPx is the hit radius of a resize handle in screen pixels. It
// does not scale with zoom.
const HandleRadiusPx = 8.0

// Handle is one of the eight resize hotspots of the selected image.
type Handle int

const (
	HandleNone Handle = iota
	HandleTopLeft
	HandleTopRight
	HandleBottomLeft
	HandleBottomRight
	HandleTop
	HandleBottom
	HandleLeft
	HandleRight
)

var handleNames = [...]string{"None", "TopLeft", "TopRight", "BottomLeft", "BottomRight", "Top", "Bottom", "Left", "Right"}

func (h Handle) String() string {
	if h < 0 || int(h) >= len(handleNames) {
		return "Unknown"
	}
	return handleNames[h]
}

// IsCorner reports whether h adjusts both width and height.
func (h Handle) IsCorner() bool {
	return h >= HandleTopLeft && h <= HandleBottomRight
}

// Handles lists every handle, corners first.
var Handles = []Handle{
	HandleTopLeft, HandleTopRight, HandleBottomLeft, HandleBottomRight,
	HandleTop, HandleBottom, HandleLeft, HandleRight,
}

// HandlePoint returns the position of h on r, in r's units.
func HandlePoint(r geometry.Rect, h Handle) geometry.Point2D {
	x0, y0 := r.X, r.Y
	x1, y1 := r.X+r.Width, r.Y+r.Height
	mx, my := r.X+r.Width/2, r.Y+r.Height/2
	switch h {
	case HandleTopLeft:
		return geometry.NewPoint2D(x0, y0)
	case HandleTopRight:
		return geometry.NewPoint2D(x1, y0)
	case HandleBottomLeft:
		return geometry.NewPoint2D(x0, y1)
	case HandleBottomRight:
		return geometry.NewPoint2D(x1, y1)
	case HandleTop:
		return geometry.NewPoint2D(mx, y0)
	case HandleBottom:
		return geometry.NewPoint2D(mx, y1)
	case HandleLeft:
		return geometry.NewPoint2D(x0, my)
	case HandleRight:
		return geometry.NewPoint2D(x1, my)
	}
	return geometry.NewPoint2D(mx, my)
}

// HandleAt returns the handle of the selected image under the pointer at
// (px, py) screen pixels, or HandleNone. When handles overlap the closest
// one wins.
func HandleAt(l *layout.Layout, px, py, zoom float64) Handle {
	sel := l.Selected()
	if sel == nil {
		return HandleNone
	}
	zoom = geometry.ClampZoom(zoom)
	b := sel.Bounds()
	screen := geometry.NewRect(
		geometry.MMToPx(b.X, zoom), geometry.MMToPx(b.Y, zoom),
		geometry.MMToPx(b.Width, zoom), geometry.MMToPx(b.Height, zoom),
	)
	pointer := geometry.NewPoint2D(px, py)

	best, bestDist := HandleNone, math.Inf(1)
	for _, h := range Handles {
		if d := HandlePoint(screen, h).Distance(pointer); d <= HandleRadiusPx && d < bestDist {
			best, bestDist = h, d
		}
	}
	return best
}
