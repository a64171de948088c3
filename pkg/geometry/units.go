package geometry

import "math"

// Screen and print use two separate unit systems. Screen conversion is a
// fixed 96 DPI reference scaled by the canvas zoom; print conversion uses
// the job's DPI and never looks at zoom.

const (
	// MMPerInch is the length of one inch in millimeters.
	MMPerInch = 25.4

	// ScreenDPI is the reference density of the interactive canvas at 100% zoom.
	ScreenDPI = 96.0

	MinZoom  = 0.1
	MaxZoom  = 5.0
	ZoomStep = 1.2
)

// pxPerMM is the number of screen pixels per millimeter at zoom 1.
const pxPerMM = ScreenDPI / MMPerInch

// ClampZoom limits zoom to [MinZoom, MaxZoom]. NaN maps to 1.
func ClampZoom(zoom float64) float64 {
	if math.IsNaN(zoom) {
		return 1
	}
	if zoom < MinZoom {
		return MinZoom
	}
	if zoom > MaxZoom {
		return MaxZoom
	}
	return zoom
}

// MMToPx converts millimeters to screen pixels at the given zoom.
func MMToPx(mm, zoom float64) float64 {
	return mm * pxPerMM * zoom
}

// PxToMM converts screen pixels to millimeters at the given zoom.
func PxToMM(px, zoom float64) float64 {
	return px / (pxPerMM * zoom)
}

// MMToDots converts millimeters to device pixels at dpi. Every print-side
// conversion (page size, image offset, image size) goes through here so the
// rounding policy is the same everywhere.
func MMToDots(mm float64, dpi int) int {
	return int(math.Round(mm / MMPerInch * float64(dpi)))
}

// DotsToMM is the inverse of MMToDots, without rounding. The density may be
// fractional, as read from image metadata.
func DotsToMM(dots int, dpi float64) float64 {
	if dpi <= 0 {
		return 0
	}
	return float64(dots) / dpi * MMPerInch
}
