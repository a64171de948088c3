package raster

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	plimage "print-layout/internal/image"
	"print-layout/internal/layout"
)

var (
	red  = color.NRGBA{R: 255, A: 255}
	blue = color.NRGBA{B: 255, A: 255}
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func writePNG(t *testing.T, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func isRed(c color.RGBA) bool   { return c.R >= 250 && c.G <= 5 && c.B <= 5 }
func isBlue(c color.RGBA) bool  { return c.B >= 250 && c.R <= 5 && c.G <= 5 }
func isWhite(c color.RGBA) bool { return c == color.RGBA{255, 255, 255, 255} }

// page100 is a 100x100mm custom page; at 254 dpi one mm is ten dots.
func page100() *layout.Layout {
	size, _ := layout.Custom(100, 100)
	return layout.New(size)
}

func TestRenderA4EndToEnd(t *testing.T) {
	path := writePNG(t, "red.png", solid(1000, 1000, red))
	l := layout.Default()
	img := layout.NewPlacedImage(path, 1000, 1000)
	l.AddImage(img)

	res, err := Render(context.Background(), l, 300, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Image.Rect.Size(); got != image.Pt(2480, 3508) {
		t.Fatalf("page size = %v, want 2480x3508", got)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", res.Warnings)
	}
	checks := []struct {
		x, y int
		want func(color.RGBA) bool
	}{
		{591, 591, isRed},
		{1771, 1771, isRed},
		{1180, 1180, isRed},
		{590, 590, isWhite},
		{1772, 1772, isWhite},
		{10, 10, isWhite},
	}
	for _, c := range checks {
		if got := res.Image.RGBAAt(c.x, c.y); !c.want(got) {
			t.Errorf("pixel (%d,%d) = %v", c.x, c.y, got)
		}
	}
}

func TestRenderSkipsUndecodableImage(t *testing.T) {
	good := writePNG(t, "blue.png", solid(10, 10, blue))
	bad := filepath.Join(t.TempDir(), "broken.png")
	if err := os.WriteFile(bad, []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := page100()
	broken := layout.NewPlacedImage(bad, 10, 10)
	broken.XMM, broken.YMM, broken.WidthMM, broken.HeightMM = 0, 0, 50, 50
	ok := layout.NewPlacedImage(good, 10, 10)
	ok.XMM, ok.YMM, ok.WidthMM, ok.HeightMM = 50, 50, 50, 50
	l.AddImage(broken)
	l.AddImage(ok)

	res, err := Render(context.Background(), l, 254, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].ImageID != broken.ID {
		t.Fatalf("warnings = %v", res.Warnings)
	}
	if !isWhite(res.Image.RGBAAt(100, 100)) || !isBlue(res.Image.RGBAAt(700, 700)) {
		t.Fatal("broken image should be omitted and the rest painted")
	}
}

func TestRenderZOrder(t *testing.T) {
	l := page100()
	below := layout.NewPlacedImage(writePNG(t, "r.png", solid(4, 4, red)), 4, 4)
	above := layout.NewPlacedImage(writePNG(t, "b.png", solid(4, 4, blue)), 4, 4)
	for _, img := range []*layout.PlacedImage{below, above} {
		img.XMM, img.YMM, img.WidthMM, img.HeightMM = 10, 10, 40, 40
		l.AddImage(img)
	}
	res, err := Render(context.Background(), l, 254, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !isBlue(res.Image.RGBAAt(300, 300)) {
		t.Fatal("higher z image did not paint on top")
	}

	l.SendToBack(above.ID)
	res, _ = Render(context.Background(), l, 254, Options{})
	if !isRed(res.Image.RGBAAt(300, 300)) {
		t.Fatal("reordering did not change paint order")
	}
}

func TestRenderRotationAndOpacity(t *testing.T) {
	// Left half red, right half blue.
	src := solid(20, 10, red)
	for y := 0; y < 10; y++ {
		for x := 10; x < 20; x++ {
			src.SetNRGBA(x, y, blue)
		}
	}
	l := page100()
	img := layout.NewPlacedImage(writePNG(t, "split.png", src), 20, 10)
	img.XMM, img.YMM, img.WidthMM, img.HeightMM = 0, 0, 40, 20
	img.RotateCW()
	l.AddImage(img)

	res, err := Render(context.Background(), l, 254, Options{})
	if err != nil {
		t.Fatal(err)
	}
	// After a clockwise turn the red half is on top.
	if !isRed(res.Image.RGBAAt(100, 50)) || !isBlue(res.Image.RGBAAt(100, 350)) {
		t.Fatalf("rotation: top=%v bottom=%v", res.Image.RGBAAt(100, 50), res.Image.RGBAAt(100, 350))
	}
	if !isWhite(res.Image.RGBAAt(300, 100)) {
		t.Fatal("rotated box should be 20mm wide")
	}

	img.SetOpacity(0.5)
	res, _ = Render(context.Background(), l, 254, Options{})
	c := res.Image.RGBAAt(100, 50)
	if c.R != 255 || c.G < 126 || c.G > 129 {
		t.Fatalf("half-opaque red over white = %v", c)
	}
}

func TestRenderMonochrome(t *testing.T) {
	l := page100()
	l.Page.ColorMode = layout.ColorBlackAndWhite
	img := layout.NewPlacedImage(writePNG(t, "r.png", solid(4, 4, red)), 4, 4)
	l.AddImage(img)
	res, err := Render(context.Background(), l, 254, Options{})
	if err != nil {
		t.Fatal(err)
	}
	c := res.Image.RGBAAt(600, 600)
	if c.R != c.G || c.G != c.B || c.R > 80 {
		t.Fatalf("red in monochrome = %v", c)
	}
}

func TestRenderErrors(t *testing.T) {
	l := layout.Default()
	if _, err := Render(context.Background(), l, 0, Options{}); !errors.Is(err, ErrInvalidDPI) {
		t.Fatalf("dpi 0: %v", err)
	}
	if _, err := Render(context.Background(), l, 300, Options{MaxPixels: 1000}); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("max pixels: %v", err)
	}
	tiny, _ := layout.Custom(0.01, 0.01)
	if _, err := Render(context.Background(), layout.New(tiny), 72, Options{}); !errors.Is(err, ErrEmptyPage) {
		t.Fatalf("empty page: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l.AddImage(layout.NewPlacedImage("x.png", 1, 1))
	if _, err := Render(ctx, l, 72, Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled: %v", err)
	}
}

func TestRenderClipsOversizedImages(t *testing.T) {
	halves := solid(200, 1, red)
	for x := 100; x < 200; x++ {
		halves.SetNRGBA(x, 0, blue)
	}
	dec := func(path string) (image.Image, error) {
		if path == "halves.png" {
			return halves, nil
		}
		return solid(2, 2, blue), nil
	}

	l := page100()
	// Hangs 50mm off the left edge: the red half ends at x=50mm.
	wide := layout.NewPlacedImage("halves.png", 200, 1)
	wide.XMM, wide.YMM, wide.WidthMM, wide.HeightMM = -50, 0, 200, 100
	l.AddImage(wide)
	res, err := Render(context.Background(), l, 254, Options{Decoder: dec, MaxPixels: 1 << 21})
	if err != nil || len(res.Warnings) != 0 {
		t.Fatalf("render: %v %v", err, res)
	}
	if c := res.Image.RGBAAt(200, 500); !isRed(c) {
		t.Errorf("x=20mm = %v, want red", c)
	}
	if c := res.Image.RGBAAt(800, 500); !isBlue(c) {
		t.Errorf("x=80mm = %v, want blue", c)
	}

	// 2x2 m at 254 dpi is 4e8 dots; only the page is ever scaled.
	l = page100()
	huge := layout.NewPlacedImage("huge.png", 2, 2)
	huge.XMM, huge.YMM, huge.WidthMM, huge.HeightMM = -1000, -1000, 2000, 2000
	l.AddImage(huge)
	res, err = Render(context.Background(), l, 254, Options{Decoder: dec, MaxPixels: 1 << 21})
	if err != nil || len(res.Warnings) != 0 {
		t.Fatalf("render huge: %v %v", err, res)
	}
	for _, p := range []image.Point{{0, 0}, {500, 500}, {999, 999}} {
		if c := res.Image.RGBAAt(p.X, p.Y); !isBlue(c) {
			t.Errorf("%v = %v, want blue", p, c)
		}
	}

	// A resampler that cannot clip is held to the pixel limit.
	res, err = Render(context.Background(), l, 254, Options{Decoder: dec, MaxPixels: 1 << 21, Resampler: unclipped{}})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Warnings) != 1 || !errors.Is(res.Warnings[0].Err, ErrTooLarge) {
		t.Fatalf("warnings = %v", res.Warnings)
	}
	if c := res.Image.RGBAAt(500, 500); !isWhite(c) {
		t.Errorf("skipped image drew %v", c)
	}
}

// unclipped hides the clipping support of the kernel it wraps.
type unclipped struct{}

func (unclipped) Resize(src image.Image, w, h int) *image.RGBA {
	return plimage.NearestNeighbor.Resize(src, w, h)
}

func (unclipped) Name() string { return "unclipped" }

func TestRenderUsesInjectedDecoder(t *testing.T) {
	l := page100()
	l.AddImage(layout.NewPlacedImage("virtual.png", 2, 2))
	l.AddImage(layout.NewPlacedImage("virtual.png", 2, 2))
	calls := 0
	dec := func(string) (image.Image, error) {
		calls++
		return solid(2, 2, blue), nil
	}
	if _, err := Render(context.Background(), l, 25, Options{Decoder: dec}); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("decoded %d times, want 1", calls)
	}
}
