// Package canvas is the interactive layout canvas: pointer hit-testing, the
// move/resize drag state machine, and the screen preview renderer.
package canvas

import (
	"log/slog"

	"print-layout/internal/layout"
	"print-layout/pkg/geometry"
)

// State is the drag state of the canvas.
type State int

const (
	StateIdle State = iota
	StateMoving
	StateResizing
)

func (s State) String() string {
	switch s {
	case StateMoving:
		return "Moving"
	case StateResizing:
		return "Resizing"
	default:
		return "Idle"
	}
}

// OutcomeKind discriminates Outcome.
type OutcomeKind int

const (
	OutcomeNone OutcomeKind = iota
	OutcomeSelected
	OutcomeDeselected
	OutcomeMoved
	OutcomeResized
	OutcomeResizeStarted
	OutcomeDragEnded
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSelected:
		return "Selected"
	case OutcomeDeselected:
		return "Deselected"
	case OutcomeMoved:
		return "Moved"
	case OutcomeResized:
		return "Resized"
	case OutcomeResizeStarted:
		return "ResizeStarted"
	case OutcomeDragEnded:
		return "DragEnded"
	default:
		return "None"
	}
}

// Outcome is what a pointer event means for the layout. Box is the new
// geometry for Moved and Resized.
type Outcome struct {
	Kind    OutcomeKind
	ImageID string
	Handle  Handle
	Box     Box
}

// Controller turns pointer events in screen pixels into layout outcomes.
// It never mutates the layout; the owner applies outcomes with Apply.
type Controller struct {
	zoom       float64
	keepAspect bool

	state   State
	imageID string
	handle  Handle
	start   Box

	// The drag origin is sampled on the first move after a press, not at
	// the press itself.
	sampled          bool
	originX, originY float64

	onZoomChange func(zoom float64)
}

// NewController returns an idle controller at 100% zoom with aspect lock on.
func NewController() *Controller {
	return &Controller{zoom: 1, keepAspect: true}
}

// SetZoom sets the zoom level, clamped to the allowed range.
func (c *Controller) SetZoom(zoom float64) {
	c.zoom = geometry.ClampZoom(zoom)
	if c.onZoomChange != nil {
		c.onZoomChange(c.zoom)
	}
}

// Zoom returns the current zoom level.
func (c *Controller) Zoom() float64 { return c.zoom }

// ZoomIn increases the zoom level.
func (c *Controller) ZoomIn() { c.SetZoom(c.zoom * geometry.ZoomStep) }

// ZoomOut decreases the zoom level.
func (c *Controller) ZoomOut() { c.SetZoom(c.zoom / geometry.ZoomStep) }

// FitToView picks the zoom that shows the whole page in a w by h pixel
// viewport.
func (c *Controller) FitToView(page *layout.Page, w, h float64) {
	if w <= 0 || h <= 0 || page.WidthMM <= 0 || page.HeightMM <= 0 {
		return
	}
	zx := w / geometry.MMToPx(page.WidthMM, 1)
	zy := h / geometry.MMToPx(page.HeightMM, 1)
	c.SetZoom(min(zx, zy) * 0.95)
}

// OnZoomChange registers a callback for zoom changes.
func (c *Controller) OnZoomChange(fn func(zoom float64)) { c.onZoomChange = fn }

// SetKeepAspect toggles aspect-locked resizing.
func (c *Controller) SetKeepAspect(on bool) { c.keepAspect = on }

// KeepAspect reports whether resizing is aspect locked.
func (c *Controller) KeepAspect() bool { return c.keepAspect }

// State returns the drag state.
func (c *Controller) State() State { return c.state }

// ToLayout converts screen pixels to layout millimeters.
func (c *Controller) ToLayout(px, py float64) (float64, float64) {
	return geometry.PxToMM(px, c.zoom), geometry.PxToMM(py, c.zoom)
}

// ToScreen converts layout millimeters to screen pixels.
func (c *Controller) ToScreen(xMM, yMM float64) (float64, float64) {
	return geometry.MMToPx(xMM, c.zoom), geometry.MMToPx(yMM, c.zoom)
}

// Press handles a button press at screen pixel (px, py). A press on a
// handle of the selected image starts a resize; a press on an image selects
// it and starts a move; a press on empty canvas deselects. Locked images
// can be selected but not dragged.
func (c *Controller) Press(l *layout.Layout, px, py float64) Outcome {
	c.reset()

	if sel := l.Selected(); sel != nil && !sel.Locked {
		if h := HandleAt(l, px, py, c.zoom); h != HandleNone {
			c.begin(StateResizing, sel, h)
			return Outcome{Kind: OutcomeResizeStarted, ImageID: sel.ID, Handle: h, Box: c.start}
		}
	}

	x, y := c.ToLayout(px, py)
	img := l.ImageAt(x, y)
	if img == nil {
		return Outcome{Kind: OutcomeDeselected}
	}
	if !img.Locked {
		c.begin(StateMoving, img, HandleNone)
	}
	return Outcome{Kind: OutcomeSelected, ImageID: img.ID, Box: BoxOf(img)}
}

// Move handles pointer motion. Updates for an image that no longer exists
// are dropped.
func (c *Controller) Move(l *layout.Layout, px, py float64) Outcome {
	if c.state == StateIdle {
		return Outcome{}
	}
	if l.Image(c.imageID) == nil {
		slog.Debug("dropping drag update for removed image", "id", c.imageID)
		return Outcome{}
	}

	x, y := c.ToLayout(px, py)
	if !c.sampled {
		c.sampled = true
		c.originX, c.originY = x, y
	}
	dx, dy := x-c.originX, y-c.originY

	if c.state == StateMoving {
		b := c.start
		b.X += dx
		b.Y += dy
		return Outcome{Kind: OutcomeMoved, ImageID: c.imageID, Box: b}
	}
	b := ResizeGeometry(c.handle, c.start, dx, dy, c.keepAspect)
	return Outcome{Kind: OutcomeResized, ImageID: c.imageID, Handle: c.handle, Box: b}
}

// Release ends any drag.
func (c *Controller) Release() Outcome {
	if c.state == StateIdle {
		return Outcome{}
	}
	out := Outcome{Kind: OutcomeDragEnded, ImageID: c.imageID, Handle: c.handle}
	c.reset()
	return out
}

func (c *Controller) begin(s State, img *layout.PlacedImage, h Handle) {
	c.state = s
	c.imageID = img.ID
	c.handle = h
	c.start = BoxOf(img)
	c.sampled = false
}

func (c *Controller) reset() {
	c.state = StateIdle
	c.imageID = ""
	c.handle = HandleNone
	c.sampled = false
}

// Apply performs o on l and reports whether l changed. Moves and resizes
// touch only position and size; outcomes for missing images are ignored.
func Apply(l *layout.Layout, o Outcome) bool {
	switch o.Kind {
	case OutcomeSelected:
		if l.SelectedID() == o.ImageID {
			return false
		}
		return l.Select(o.ImageID)
	case OutcomeDeselected:
		if l.SelectedID() == "" {
			return false
		}
		l.ClearSelection()
		return true
	case OutcomeMoved, OutcomeResized:
		img := l.Image(o.ImageID)
		if img == nil {
			return false
		}
		if BoxOf(img) == o.Box {
			return false
		}
		img.XMM, img.YMM = o.Box.X, o.Box.Y
		if o.Kind == OutcomeResized {
			img.WidthMM, img.HeightMM = o.Box.W, o.Box.H
		}
		return true
	}
	return false
}
