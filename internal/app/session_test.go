package app

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"print-layout/internal/layout"
	"print-layout/internal/printing"
	"print-layout/internal/project"
	"print-layout/pkg/geometry"
	"print-layout/ui/canvas"
)

type fakeSpooler struct {
	mu       sync.Mutex
	requests []printing.Request
}

func (f *fakeSpooler) Discover(context.Context) ([]printing.Printer, error) {
	return []printing.Printer{{Name: "Lab", IsDefault: true}}, nil
}

func (f *fakeSpooler) Submit(_ context.Context, req printing.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return "Lab-7", nil
}

func measure(path string) (int, int, error) {
	if filepath.Base(path) == "broken.jpg" {
		return 0, 0, errors.New("truncated header")
	}
	return 2000, 1000, nil
}

func decode(string) (image.Image, error) {
	return image.NewNRGBA(image.Rect(0, 0, 4, 2)), nil
}

func newSession(t *testing.T) *Session {
	t.Helper()
	s := NewSession(Options{
		Spooler:    &fakeSpooler{},
		Decoder:    decode,
		Measure:    measure,
		KeepAspect: true,
	})
	t.Cleanup(s.Close)
	return s
}

type recorder struct {
	mu     sync.Mutex
	events map[EventType][]any
}

func record(s *Session) *recorder {
	r := &recorder{events: map[EventType][]any{}}
	for _, ev := range []EventType{EventLayoutChanged, EventSelectionChanged, EventModified, EventPrintCompleted, EventProjectSaved, EventProjectLoaded} {
		s.On(ev, func(data any) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events[ev] = append(r.events[ev], data)
		})
	}
	return r
}

func (r *recorder) count(ev EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events[ev])
}

func TestAddImagesSelectsLast(t *testing.T) {
	s := newSession(t)
	rec := record(s)

	ids, err := s.AddImages("a.jpg", "broken.jpg", "notes.txt", "b.png")
	if len(ids) != 2 {
		t.Fatalf("ids = %v", ids)
	}
	if err == nil {
		t.Error("expected errors for broken.jpg and notes.txt")
	}
	s.View(func(l *layout.Layout) {
		if l.SelectedID() != ids[1] {
			t.Errorf("selected = %q", l.SelectedID())
		}
		img := l.Image(ids[0])
		if img.WidthMM != 100 || img.HeightMM != 50 || !filepath.IsAbs(img.Path) {
			t.Errorf("placed = %+v", img)
		}
	})
	if !s.Modified() || rec.count(EventModified) != 1 || rec.count(EventSelectionChanged) != 1 {
		t.Errorf("events = %v", rec.events)
	}
}

func TestAddImagesUsesEmbeddedResolution(t *testing.T) {
	s := NewSession(Options{
		Measure: measure,
		Resolution: func(path string) (float64, error) {
			switch filepath.Base(path) {
			case "scan.tif":
				return 200, nil
			case "odd.tif":
				return 1, nil
			}
			return 0, errors.New("no resolution metadata")
		},
	})
	t.Cleanup(s.Close)

	ids, err := s.AddImages("scan.tif", "odd.tif", "a.jpg")
	if err != nil || len(ids) != 3 {
		t.Fatalf("ids = %v, err = %v", ids, err)
	}
	s.View(func(l *layout.Layout) {
		// 2000x1000 px at 200 dpi is 10x5 inches.
		scan := l.Image(ids[0])
		if !approx(scan.WidthMM, 254) || !approx(scan.HeightMM, 127) {
			t.Errorf("scan = %gx%g mm", scan.WidthMM, scan.HeightMM)
		}
		if dx, _ := scan.EffectiveDPI(); !approx(dx, 200) {
			t.Errorf("scan effective dpi = %g", dx)
		}
		for _, id := range ids[1:] {
			if img := l.Image(id); img.WidthMM != layout.DefaultImageWidthMM {
				t.Errorf("%s width = %g", img.Name(), img.WidthMM)
			}
		}
	})
}

func approx(a, b float64) bool {
	return a-b < 1e-9 && b-a < 1e-9
}

func TestPointerDragMovesImage(t *testing.T) {
	s := newSession(t)
	ids, _ := s.AddImages("a.jpg")
	s.SetModified(false)
	rec := record(s)

	at := func(mm float64) float64 { return geometry.MMToPx(mm, 1) }
	if out := s.HandlePress(at(60), at(60)); out.Kind != canvas.OutcomeSelected {
		t.Fatalf("press = %+v", out)
	}
	s.HandleMove(at(60), at(60))
	s.HandleMove(at(70), at(65))
	s.HandleRelease()

	s.View(func(l *layout.Layout) {
		img := l.Image(ids[0])
		if diff := img.XMM - 60; diff < -1e-6 || diff > 1e-6 {
			t.Errorf("x = %v", img.XMM)
		}
	})
	if !s.Modified() || rec.count(EventLayoutChanged) != 1 {
		t.Errorf("events = %v", rec.events)
	}

	// Pressing empty paper deselects.
	s.HandlePress(at(5), at(290))
	s.View(func(l *layout.Layout) {
		if l.SelectedID() != "" {
			t.Errorf("still selected %q", l.SelectedID())
		}
	})
}

func TestSelectedImageOperations(t *testing.T) {
	s := newSession(t)
	ids, _ := s.AddImages("a.jpg", "a.jpg")

	if !s.RotateSelected(true) || !s.FlipSelected(true) || !s.SetSelectedOpacity(0.5) {
		t.Fatal("edit on selection failed")
	}
	if s.SetSelectedOpacity(0.5) {
		t.Error("unchanged opacity reported a change")
	}
	if !s.SendSelectedToBack() || !s.SetSelectedLocked(true) {
		t.Error("z/lock edit failed")
	}
	s.View(func(l *layout.Layout) {
		img := l.Image(ids[1])
		if img.RotationDegrees != 90 || !img.FlipHorizontal || img.Opacity != 0.5 || img.ZIndex != 0 || !img.Locked {
			t.Errorf("image = %+v", img)
		}
		if img.WidthMM != 50 || img.HeightMM != 100 {
			t.Errorf("rotation did not swap size: %vx%v", img.WidthMM, img.HeightMM)
		}
	})

	if !s.DeleteSelected() || s.DeleteSelected() {
		t.Error("delete should succeed once")
	}
	s.View(func(l *layout.Layout) {
		if l.Len() != 1 || l.Images()[0].ZIndex != 0 {
			t.Errorf("after delete: %d images", l.Len())
		}
	})
	if s.RotateSelected(true) {
		t.Error("rotate without selection reported a change")
	}
}

func TestPageEdits(t *testing.T) {
	s := newSession(t)
	s.ToggleOrientation()
	s.SetPaperSize(layout.Named(layout.PaperLetter))
	s.View(func(l *layout.Layout) {
		if l.Page.Orientation != layout.Landscape || l.Page.WidthMM < l.Page.HeightMM {
			t.Errorf("page = %+v", l.Page)
		}
	})

	err := s.EditPage(func(p *layout.Page) error { return p.SetMargin(layout.SideTop, 500) })
	if err == nil {
		t.Error("oversized margin accepted")
	}
	s.View(func(l *layout.Layout) {
		if l.Page.MarginTopMM != layout.DefaultMarginMM {
			t.Errorf("failed edit leaked: %v", l.Page.MarginTopMM)
		}
	})

	s.NewLayout(layout.Named(layout.PaperA5))
	if s.Modified() || s.Path() != "" {
		t.Error("new layout should be clean")
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	s := NewSession(Options{Decoder: decode, Measure: measure, BackupDir: filepath.Join(dir, "backups")})
	defer s.Close()
	rec := record(s)
	ids, _ := s.AddImages("a.jpg")

	if err := s.Save(""); err == nil {
		t.Error("save without a path succeeded")
	}
	path := filepath.Join(dir, "album")
	if err := s.Save(path); err != nil {
		t.Fatal(err)
	}
	if s.Path() != path+".pxl" || s.Modified() {
		t.Errorf("path %q modified %v", s.Path(), s.Modified())
	}
	s.RotateSelected(true)
	if err := s.Save(""); err != nil {
		t.Fatal(err)
	}
	backups, _ := os.ReadDir(filepath.Join(dir, "backups"))
	if len(backups) != 1 {
		t.Errorf("backups = %d", len(backups))
	}

	other := newSession(t)
	if err := other.Load(s.Path()); err != nil {
		t.Fatal(err)
	}
	other.View(func(l *layout.Layout) {
		if img := l.Image(ids[0]); img == nil || img.RotationDegrees != 90 {
			t.Errorf("loaded = %+v", img)
		}
	})
	if rec.count(EventProjectSaved) != 2 {
		t.Errorf("saved events = %d", rec.count(EventProjectSaved))
	}

	proj, modified := s.AutoSaveSnapshot()
	if modified || proj.Name != "album" {
		t.Errorf("snapshot = %s, %v", proj.Name, modified)
	}
}

func TestPrintDeliversOneOutcome(t *testing.T) {
	s := newSession(t)
	rec := record(s)
	ch := s.Print(context.Background(), PrintRequest{Printer: "Lab", Copies: 2, DPI: 10})

	select {
	case o := <-ch:
		if o.Err != nil || o.Receipt.JobID != "Lab-7" {
			t.Fatalf("outcome = %+v", o)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("timeout")
	}
	if _, ok := <-ch; ok {
		t.Error("channel not closed")
	}
	if rec.count(EventPrintCompleted) != 1 {
		t.Errorf("print events = %d", rec.count(EventPrintCompleted))
	}

	o := <-s.Print(context.Background(), PrintRequest{Printer: "Nowhere", Copies: 1, DPI: 10})
	if !errors.Is(o.Err, printing.ErrPrinterNotFound) {
		t.Errorf("err = %v", o.Err)
	}

	noSpooler := NewSession(Options{})
	if o := <-noSpooler.Print(context.Background(), PrintRequest{Printer: "Lab", Copies: 1}); !errors.Is(o.Err, printing.ErrSpoolerUnavailable) {
		t.Errorf("err = %v", o.Err)
	}
}

func TestPrintMediaOverride(t *testing.T) {
	sp := &fakeSpooler{}
	s := NewSession(Options{Spooler: sp, Decoder: decode, Measure: measure})
	t.Cleanup(s.Close)

	custom, err := layout.ParsePaperSize("102x152mm")
	if err != nil {
		t.Fatal(err)
	}
	letter := layout.Named(layout.PaperLetter)
	for _, size := range []*layout.PaperSize{nil, &letter, &custom} {
		if o := <-s.Print(context.Background(), PrintRequest{Printer: "Lab", Copies: 1, DPI: 10, PaperSize: size}); o.Err != nil {
			t.Fatal(o.Err)
		}
	}

	sp.mu.Lock()
	defer sp.mu.Unlock()
	want := []string{"media=A4", "media=Letter", "media=Custom.102x152mm"}
	if len(sp.requests) != len(want) {
		t.Fatalf("requests = %d", len(sp.requests))
	}
	for i, req := range sp.requests {
		if got := req.Options[0].String(); got != want[i] {
			t.Errorf("request %d: %s, want %s", i, got, want[i])
		}
	}
}

func TestPreviewRedraws(t *testing.T) {
	s := newSession(t)
	frames := make(chan *canvas.Frame, 8)
	s.StartPreview(func(f *canvas.Frame) { frames <- f })
	s.AddImages("a.jpg")
	want := s.Redraw()

	deadline := time.After(10 * time.Second)
	for {
		select {
		case f := <-frames:
			if f.Generation == want {
				s.StopPreview()
				if s.Redraw() != 0 {
					t.Error("redraw after stop")
				}
				return
			}
		case <-deadline:
			t.Fatal("no frame")
		}
	}
}

func TestAutoSaveOnClose(t *testing.T) {
	dir := t.TempDir()
	cache := filepath.Join(dir, "cache")
	s := NewSession(Options{Measure: measure, Decoder: decode, AutoSaveDir: cache, AutoSaveInterval: time.Hour})
	s.AddImages("a.jpg")
	s.Close()

	if !project.HasAutoSave(cache) {
		t.Fatal("no auto-save after closing with changes")
	}
	proj, err := project.LoadAutoSave(cache)
	if err != nil {
		t.Fatal(err)
	}

	r := NewSession(Options{Measure: measure, Decoder: decode, AutoSaveDir: cache, AutoSaveInterval: time.Hour})
	r.Restore(proj)
	if !r.Modified() {
		t.Error("restored session should be unsaved")
	}
	r.View(func(l *layout.Layout) {
		if l.Len() != 1 {
			t.Errorf("restored %d images", l.Len())
		}
	})
	if err := r.Save(filepath.Join(dir, "recovered.pxl")); err != nil {
		t.Fatal(err)
	}
	if project.HasAutoSave(cache) {
		t.Error("auto-save kept after an explicit save")
	}
	r.Close()
	if project.HasAutoSave(cache) {
		t.Error("clean close wrote an auto-save")
	}
}
