package geometry

import (
	"math"
	"testing"
)

func TestMMPxRoundTrip(t *testing.T) {
	samples := []float64{0.001, 1, 10, 25.4, 100, 210, 297, 1189}
	zooms := []float64{MinZoom, 0.25, 0.5, 1, 1.2, 2, 3.7, MaxZoom}
	for _, mm := range samples {
		for _, zoom := range zooms {
			back := PxToMM(MMToPx(mm, zoom), zoom)
			if diff := math.Abs(back - mm); diff > 1e-9 {
				t.Fatalf("mm->px->mm drift: in=%gmm zoom=%g back=%g diff=%g", mm, zoom, back, diff)
			}
		}
	}
}

func TestMMToPxReference(t *testing.T) {
	// One inch at 100% is exactly ScreenDPI pixels.
	if got := MMToPx(25.4, 1); math.Abs(got-96) > 1e-9 {
		t.Fatalf("25.4mm at zoom 1: got %g px, want 96", got)
	}
	if got := MMToPx(25.4, 2); math.Abs(got-192) > 1e-9 {
		t.Fatalf("25.4mm at zoom 2: got %g px, want 192", got)
	}
}

func TestClampZoom(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, MinZoom},
		{-3, MinZoom},
		{0.1, 0.1},
		{1, 1},
		{5, 5},
		{12, MaxZoom},
		{math.NaN(), 1},
	}
	for _, c := range cases {
		if got := ClampZoom(c.in); got != c.want {
			t.Errorf("ClampZoom(%g) = %g, want %g", c.in, got, c.want)
		}
	}
}

func TestMMToDotsA4(t *testing.T) {
	if w := MMToDots(210, 300); w != 2480 {
		t.Errorf("A4 width at 300 DPI: got %d, want 2480", w)
	}
	if h := MMToDots(297, 300); h != 3508 {
		t.Errorf("A4 height at 300 DPI: got %d, want 3508", h)
	}
	if x := MMToDots(50, 300); x != 591 {
		t.Errorf("50mm at 300 DPI: got %d, want 591", x)
	}
	if s := MMToDots(100, 300); s != 1181 {
		t.Errorf("100mm at 300 DPI: got %d, want 1181", s)
	}
}

func TestRectContainsEdges(t *testing.T) {
	r := NewRect(10, 20, 30, 40)
	inside := []Point2D{{10, 20}, {40, 60}, {25, 40}}
	for _, p := range inside {
		if !r.Contains(p) {
			t.Errorf("expected %v inside %v", p, r)
		}
	}
	outside := []Point2D{{9.99, 20}, {40.01, 60}, {25, 60.5}}
	for _, p := range outside {
		if r.Contains(p) {
			t.Errorf("expected %v outside %v", p, r)
		}
	}
}

func TestSnapQuarterTurns(t *testing.T) {
	tests := []struct {
		deg  float64
		want int
	}{
		{0, 0},
		{4, 0},
		{84.9, 0},
		{85, 1},
		{90, 1},
		{95, 1},
		{95.1, 0},
		{180, 2},
		{176, 2},
		{270, 3},
		{275, 3},
		{-90, 3},
		{450, 1},
		{359, 0},
		{45, 0},
	}
	for _, tt := range tests {
		if got := SnapQuarterTurns(tt.deg); got != tt.want {
			t.Errorf("SnapQuarterTurns(%v) = %d, want %d", tt.deg, got, tt.want)
		}
	}
}
