package layout

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/google/uuid"

	"print-layout/pkg/geometry"
)

// Defaults for a freshly placed image.
const (
	DefaultImageWidthMM = 100.0
	DefaultImageXMM     = 50.0
	DefaultImageYMM     = 50.0

	// MinImageMM is the smallest width or height an interactive resize
	// may produce.
	MinImageMM = 10.0
)

// PlacedImage is one instance of a source file on the page. The same file
// may be placed several times, each with its own id.
type PlacedImage struct {
	ID               string  `json:"id"`
	Path             string  `json:"path"`
	XMM              float64 `json:"x_mm"`
	YMM              float64 `json:"y_mm"`
	WidthMM          float64 `json:"width_mm"`
	HeightMM         float64 `json:"height_mm"`
	RotationDegrees  float64 `json:"rotation_degrees"`
	ZIndex           int     `json:"z_index"`
	OriginalWidthPx  int     `json:"original_width_px"`
	OriginalHeightPx int     `json:"original_height_px"`
	Locked           bool    `json:"locked"`
	FlipHorizontal   bool    `json:"flip_horizontal"`
	FlipVertical     bool    `json:"flip_vertical"`
	Opacity          float64 `json:"opacity"`
}

// NewPlacedImage places path at the default position, 100mm wide, with the
// height taken from the pixel aspect ratio.
func NewPlacedImage(path string, widthPx, heightPx int) *PlacedImage {
	h := DefaultImageWidthMM
	if widthPx > 0 && heightPx > 0 {
		h = DefaultImageWidthMM * float64(heightPx) / float64(widthPx)
	}
	return &PlacedImage{
		ID:               uuid.NewString(),
		Path:             path,
		XMM:              DefaultImageXMM,
		YMM:              DefaultImageYMM,
		WidthMM:          DefaultImageWidthMM,
		HeightMM:         h,
		OriginalWidthPx:  widthPx,
		OriginalHeightPx: heightPx,
		Opacity:          1,
	}
}

// Name returns the base file name of the source.
func (p *PlacedImage) Name() string {
	return filepath.Base(p.Path)
}

// Bounds returns the unrotated box in millimeters.
func (p *PlacedImage) Bounds() geometry.Rect {
	return geometry.NewRect(p.XMM, p.YMM, p.WidthMM, p.HeightMM)
}

// ContainsPoint tests the unrotated box, edges included. Rotation is a
// rendering transform only and does not affect hit-testing.
func (p *PlacedImage) ContainsPoint(xMM, yMM float64) bool {
	return p.Bounds().Contains(geometry.NewPoint2D(xMM, yMM))
}

// QuarterTurns returns the snapped clockwise rotation in quarter turns.
func (p *PlacedImage) QuarterTurns() int {
	return geometry.SnapQuarterTurns(p.RotationDegrees)
}

// orientedPx returns the pixel dimensions as they appear on the page after
// quarter-turn rotation.
func (p *PlacedImage) orientedPx() (int, int) {
	if p.QuarterTurns()%2 == 1 {
		return p.OriginalHeightPx, p.OriginalWidthPx
	}
	return p.OriginalWidthPx, p.OriginalHeightPx
}

// PixelAspect returns width/height of the source pixels as oriented on the
// page, or 0 when the pixel size is unknown.
func (p *PlacedImage) PixelAspect() float64 {
	w, h := p.orientedPx()
	if w <= 0 || h <= 0 {
		return 0
	}
	return float64(w) / float64(h)
}

// EffectiveDPI returns the horizontal and vertical print density the source
// pixels will have at the current size.
func (p *PlacedImage) EffectiveDPI() (float64, float64) {
	w, h := p.orientedPx()
	if p.WidthMM <= 0 || p.HeightMM <= 0 {
		return 0, 0
	}
	return float64(w) / (p.WidthMM / geometry.MMPerInch),
		float64(h) / (p.HeightMM / geometry.MMPerInch)
}

// RotateCW turns the image a quarter turn clockwise. The box swaps width and
// height.
func (p *PlacedImage) RotateCW() {
	p.WidthMM, p.HeightMM = p.HeightMM, p.WidthMM
	p.RotationDegrees = math.Mod(p.RotationDegrees+90, 360)
}

// RotateCCW turns the image a quarter turn counter-clockwise.
func (p *PlacedImage) RotateCCW() {
	p.WidthMM, p.HeightMM = p.HeightMM, p.WidthMM
	p.RotationDegrees = math.Mod(p.RotationDegrees+270, 360)
}

func (p *PlacedImage) ToggleFlipHorizontal() { p.FlipHorizontal = !p.FlipHorizontal }

func (p *PlacedImage) ToggleFlipVertical() { p.FlipVertical = !p.FlipVertical }

// SetOpacity clamps to [0, 1].
func (p *PlacedImage) SetOpacity(v float64) {
	switch {
	case math.IsNaN(v):
		v = 1
	case v < 0:
		v = 0
	case v > 1:
		v = 1
	}
	p.Opacity = v
}

// SetWidth sets the width. With keepAspect the height follows the source
// pixel aspect ratio.
func (p *PlacedImage) SetWidth(mm float64, keepAspect bool) error {
	if !positiveFinite(mm) {
		return fmt.Errorf("width must be positive: %g", mm)
	}
	p.WidthMM = mm
	if a := p.PixelAspect(); keepAspect && a > 0 {
		p.HeightMM = mm / a
	}
	return nil
}

// SetHeight sets the height. With keepAspect the width follows the source
// pixel aspect ratio.
func (p *PlacedImage) SetHeight(mm float64, keepAspect bool) error {
	if !positiveFinite(mm) {
		return fmt.Errorf("height must be positive: %g", mm)
	}
	p.HeightMM = mm
	if a := p.PixelAspect(); keepAspect && a > 0 {
		p.WidthMM = mm * a
	}
	return nil
}

// MoveTo sets the top-left corner.
func (p *PlacedImage) MoveTo(xMM, yMM float64) {
	p.XMM, p.YMM = xMM, yMM
}
