package canvas

import (
	"errors"
	"image"
	"image/color"
	"os"
	"sync"
	"testing"
	"time"

	"print-layout/internal/layout"
)

func fakeDecoder(calls *int, mu *sync.Mutex) func(string) (image.Image, error) {
	return func(path string) (image.Image, error) {
		if mu != nil {
			mu.Lock()
			defer mu.Unlock()
		}
		if calls != nil {
			*calls++
		}
		if path == "missing.png" {
			return nil, os.ErrNotExist
		}
		img := image.NewNRGBA(image.Rect(0, 0, 40, 20))
		for i := 0; i < len(img.Pix); i += 4 {
			img.Pix[i], img.Pix[i+3] = 255, 255
		}
		return img, nil
	}
}

func TestPreviewRender(t *testing.T) {
	l, img := scene()
	gone := layout.NewPlacedImage("missing.png", 100, 100)
	gone.XMM, gone.YMM = 20, 180
	gone.WidthMM, gone.HeightMM = 30, 30
	l.AddImage(gone)

	var calls int
	p := NewPreview(fakeDecoder(&calls, nil))
	p.ShowLabels = false
	f := p.Render(l, 1)

	b := f.Image.Bounds()
	if b.Dx() != 794 || b.Dy() != 1123 {
		t.Fatalf("frame size = %v", b.Size())
	}
	if len(f.Missing) != 1 || f.Missing[0] != gone.ID {
		t.Errorf("missing = %v", f.Missing)
	}

	center := f.Image.RGBAAt(int(px(100)), int(px(75)))
	if center.R < 240 || center.G > 15 || center.B > 15 {
		t.Errorf("image center = %v, want red", center)
	}
	blank := f.Image.RGBAAt(int(px(180)), int(px(250)))
	if blank != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("empty page = %v, want white", blank)
	}
	ph := f.Image.RGBAAt(int(px(35)), int(px(195)))
	if ph.R < 190 || ph.R > 210 || ph.R != ph.G {
		t.Errorf("placeholder = %v", ph)
	}

	// The good source is cached; the failed one is retried.
	p.Render(l, 2)
	if calls != 3 {
		t.Errorf("decoder calls = %d, want 3", calls)
	}
	if s, tr := p.CacheSizes(); s != 1 || tr != 1 {
		t.Errorf("cache sizes = %d, %d", s, tr)
	}
	p.Evict(img.Path)
	if s, tr := p.CacheSizes(); s != 0 || tr != 0 {
		t.Errorf("after evict = %d, %d", s, tr)
	}
}

func TestRedrawerDeliversLatest(t *testing.T) {
	l, img := scene()
	var mu sync.Mutex
	frames := make(chan *Frame, 16)
	r := NewRedrawer(NewPreview(fakeDecoder(nil, &mu)), func(f *Frame) { frames <- f })
	defer r.Close()

	var last uint64
	for i := 0; i < 5; i++ {
		img.XMM += 1
		last = r.Request(l, 0.5)
	}
	if last != 5 || r.Generation() != 5 {
		t.Fatalf("generation = %d", last)
	}

	deadline := time.After(10 * time.Second)
	for {
		select {
		case f := <-frames:
			if f.Generation > last {
				t.Fatalf("frame from the future: %d", f.Generation)
			}
			if f.Generation == last {
				return
			}
		case <-deadline:
			t.Fatal("no frame for the latest generation")
		}
	}
}

func TestRedrawerSnapshotsLayout(t *testing.T) {
	l, img := scene()
	frames := make(chan *Frame, 1)
	r := NewRedrawer(NewPreview(fakeDecoder(nil, nil)), func(f *Frame) { frames <- f })
	defer r.Close()

	r.Request(l, 1)
	// Mutating after the request must not race with the worker.
	l.RemoveImage(img.ID)

	select {
	case f := <-frames:
		if f.Image == nil {
			t.Fatal("nil image")
		}
	case <-time.After(10 * time.Second):
		t.Fatal("timeout")
	}
}

func TestRedrawerClose(t *testing.T) {
	r := NewRedrawer(NewPreview(func(string) (image.Image, error) { return nil, errors.New("x") }), nil)
	r.Evict("a")
	r.Reset()
	r.Close()
	r.Close()
}
