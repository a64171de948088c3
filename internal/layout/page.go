package layout

import (
	"fmt"
	"math"
	"strings"

	"print-layout/pkg/geometry"
)

// DefaultMarginMM is the margin applied to every side of a new page.
const DefaultMarginMM = 25.4

// PaperType is the print medium.
type PaperType int

const (
	PaperPlain PaperType = iota
	PaperSuperHighGloss
	PaperGlossy
	PaperSemiGloss
	PaperMatte
	PaperFineArt
)

var paperTypeNames = []string{"Plain", "SuperHighGloss", "Glossy", "SemiGloss", "Matte", "FineArt"}

// media-type keywords understood by the spooler.
var paperTypeMedia = []string{
	"stationery",
	"photographic-high-gloss",
	"photographic-glossy",
	"photographic-semi-gloss",
	"photographic-matte",
	"stationery-fine",
}

func (t PaperType) String() string { return enumName(paperTypeNames, int(t)) }

// MediaType returns the spooler media-type keyword.
func (t PaperType) MediaType() string { return enumName(paperTypeMedia, int(t)) }

func (t PaperType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *PaperType) UnmarshalText(b []byte) error {
	i, err := parseEnum(paperTypeNames, "paper type", string(b))
	*t = PaperType(i)
	return err
}

// PrintQuality selects the printer's quality mode.
type PrintQuality int

const (
	QualityHighest PrintQuality = iota
	QualityHigh
	QualityStandard
	QualityDraft
)

var qualityNames = []string{"Highest", "High", "Standard", "Draft"}

func (q PrintQuality) String() string { return enumName(qualityNames, int(q)) }

// IPPValue returns the print-quality enum value sent to the spooler
// (3 draft, 4 normal, 5 high).
func (q PrintQuality) IPPValue() int {
	switch q {
	case QualityHighest, QualityHigh:
		return 5
	case QualityDraft:
		return 3
	default:
		return 4
	}
}

func (q PrintQuality) MarshalText() ([]byte, error) { return []byte(q.String()), nil }

func (q *PrintQuality) UnmarshalText(b []byte) error {
	i, err := parseEnum(qualityNames, "print quality", string(b))
	*q = PrintQuality(i)
	return err
}

// ColorMode selects color management for the job.
type ColorMode int

const (
	ColorICC ColorMode = iota
	ColorDriverMatching
	ColorNoCorrection
	ColorBlackAndWhite
)

var colorModeNames = []string{"ICC", "DriverMatching", "NoCorrection", "BlackAndWhite"}

func (c ColorMode) String() string { return enumName(colorModeNames, int(c)) }

// Monochrome reports whether the page is printed in grayscale.
func (c ColorMode) Monochrome() bool { return c == ColorBlackAndWhite }

func (c ColorMode) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *ColorMode) UnmarshalText(b []byte) error {
	i, err := parseEnum(colorModeNames, "color mode", string(b))
	*c = ColorMode(i)
	return err
}

// Orientation of the page.
type Orientation int

const (
	Portrait Orientation = iota
	Landscape
)

var orientationNames = []string{"Portrait", "Landscape"}

func (o Orientation) String() string { return enumName(orientationNames, int(o)) }

func (o Orientation) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Orientation) UnmarshalText(b []byte) error {
	i, err := parseEnum(orientationNames, "orientation", string(b))
	*o = Orientation(i)
	return err
}

// ParseOrientation parses "portrait" or "landscape".
func ParseOrientation(s string) (Orientation, error) {
	var o Orientation
	err := o.UnmarshalText([]byte(s))
	return o, err
}

func enumName(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("Unknown(%d)", i)
	}
	return names[i]
}

func parseEnum(names []string, what, s string) (int, error) {
	for i, n := range names {
		if strings.EqualFold(n, s) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", what, s)
}

// Side names one page edge.
type Side int

const (
	SideTop Side = iota
	SideBottom
	SideLeft
	SideRight
)

// Page is the physical sheet. WidthMM and HeightMM are the source of truth
// for the current orientation.
type Page struct {
	WidthMM        float64      `json:"width_mm"`
	HeightMM       float64      `json:"height_mm"`
	MarginTopMM    float64      `json:"margin_top_mm"`
	MarginBottomMM float64      `json:"margin_bottom_mm"`
	MarginLeftMM   float64      `json:"margin_left_mm"`
	MarginRightMM  float64      `json:"margin_right_mm"`
	PaperSize      PaperSize    `json:"paper_size"`
	PaperType      PaperType    `json:"paper_type"`
	PrintQuality   PrintQuality `json:"print_quality"`
	ColorMode      ColorMode    `json:"color_mode"`
	Orientation    Orientation  `json:"orientation"`
	Borderless     bool         `json:"borderless"`
}

// NewPage returns a portrait page of the given size with default margins.
func NewPage(size PaperSize) Page {
	w, h := size.Dimensions()
	return Page{
		WidthMM:        w,
		HeightMM:       h,
		MarginTopMM:    DefaultMarginMM,
		MarginBottomMM: DefaultMarginMM,
		MarginLeftMM:   DefaultMarginMM,
		MarginRightMM:  DefaultMarginMM,
		PaperSize:      size,
		PaperType:      PaperPlain,
		PrintQuality:   QualityHigh,
		ColorMode:      ColorICC,
		Orientation:    Portrait,
	}
}

// PrintableArea returns the area inside the margins. The result may have a
// non-positive width or height when margins exceed half the page.
func (p *Page) PrintableArea() geometry.Rect {
	return geometry.NewRect(
		p.MarginLeftMM,
		p.MarginTopMM,
		p.WidthMM-p.MarginLeftMM-p.MarginRightMM,
		p.HeightMM-p.MarginTopMM-p.MarginBottomMM,
	)
}

// Bounds returns the full sheet rectangle at the origin.
func (p *Page) Bounds() geometry.Rect {
	return geometry.NewRect(0, 0, p.WidthMM, p.HeightMM)
}

// PixelSize returns the page size in dots at dpi.
func (p *Page) PixelSize(dpi int) (int, int) {
	return geometry.MMToDots(p.WidthMM, dpi), geometry.MMToDots(p.HeightMM, dpi)
}

// ToggleOrientation swaps width and height and flips the orientation.
func (p *Page) ToggleOrientation() {
	p.WidthMM, p.HeightMM = p.HeightMM, p.WidthMM
	if p.Orientation == Portrait {
		p.Orientation = Landscape
	} else {
		p.Orientation = Portrait
	}
}

// SetOrientation switches to o if not already there.
func (p *Page) SetOrientation(o Orientation) {
	if p.Orientation != o {
		p.ToggleOrientation()
	}
}

// SetPaperSize changes the sheet, keeping the current orientation.
func (p *Page) SetPaperSize(size PaperSize) {
	w, h := size.Dimensions()
	if p.Orientation == Landscape {
		w, h = h, w
	}
	p.PaperSize = size
	p.WidthMM = w
	p.HeightMM = h
}

// SetBorderless zeroes all margins, or restores the defaults when turned off.
func (p *Page) SetBorderless(on bool) {
	p.Borderless = on
	m := DefaultMarginMM
	if on {
		m = 0
	}
	p.MarginTopMM, p.MarginBottomMM = m, m
	p.MarginLeftMM, p.MarginRightMM = m, m
}

// SetMargin sets one margin. Values outside [0, dimension/2) are rejected.
func (p *Page) SetMargin(side Side, mm float64) error {
	limit := p.HeightMM / 2
	if side == SideLeft || side == SideRight {
		limit = p.WidthMM / 2
	}
	if math.IsNaN(mm) || mm < 0 || mm >= limit {
		return fmt.Errorf("margin %g mm out of range [0, %g)", mm, limit)
	}
	switch side {
	case SideTop:
		p.MarginTopMM = mm
	case SideBottom:
		p.MarginBottomMM = mm
	case SideLeft:
		p.MarginLeftMM = mm
	case SideRight:
		p.MarginRightMM = mm
	}
	return nil
}
