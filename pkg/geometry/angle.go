package geometry

import "math"

// NormalizeDegrees maps any angle into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	if d >= 360 {
		d = 0
	}
	return d
}

// SnapQuarterTurns returns the number of clockwise quarter turns (0..3) for
// an angle. Only angles within 5 degrees of 90, 180 or 270 snap; anything
// else yields no rotation.
func SnapQuarterTurns(deg float64) int {
	d := NormalizeDegrees(deg)
	switch {
	case d >= 85 && d <= 95:
		return 1
	case d >= 175 && d <= 185:
		return 2
	case d >= 265 && d <= 275:
		return 3
	}
	return 0
}
