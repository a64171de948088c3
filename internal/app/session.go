// Package app provides the editing session: the layout being edited, the
// canvas controller driving it, persistence, printing, and change events.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	plimage "print-layout/internal/image"
	"print-layout/internal/layout"
	"print-layout/internal/printing"
	"print-layout/internal/project"
	"print-layout/internal/raster"
	"print-layout/pkg/geometry"
	"print-layout/ui/canvas"
)

// EventType identifies session events.
type EventType int

const (
	// EventLayoutChanged carries no data.
	EventLayoutChanged EventType = iota
	// EventSelectionChanged carries the selected id ("" for none).
	EventSelectionChanged
	// EventModified carries the new modified flag.
	EventModified
	// EventPrintCompleted carries the printing.Outcome.
	EventPrintCompleted
	// EventProjectLoaded and EventProjectSaved carry the project path.
	EventProjectLoaded
	EventProjectSaved
)

// EventListener is called when an event occurs.
type EventListener func(data any)

// Options configure a Session. Zero values select defaults, except that
// KeepAspect false means free resizing.
type Options struct {
	Spooler printing.Spooler
	// Decoder is used by the preview; nil decodes from disk.
	Decoder plimage.Decoder
	// Measure reads pixel dimensions of a new image; nil reads the header.
	Measure func(path string) (int, int, error)
	// Resolution reads the density stored in a new image's metadata; nil
	// reads it from the file. Images with a known density are placed at
	// their native print size.
	Resolution func(path string) (float64, error)
	// BackupDir receives backups of overwritten projects; empty disables
	// backups.
	BackupDir  string
	Paper      layout.PaperSize
	KeepAspect bool
	Zoom       float64
	// Render tunes print rasterization.
	Render raster.Options
	// AutoSaveDir enables periodic auto-save of unsaved changes into this
	// directory. Close flushes a final auto-save.
	AutoSaveDir      string
	AutoSaveInterval time.Duration
}

// Session is one open layout. Methods other than the event callbacks are
// meant to be called from a single UI goroutine; the layout is guarded so
// that background snapshots (preview, print, auto-save) see a consistent
// copy.
type Session struct {
	mu       sync.RWMutex
	layout   *layout.Layout
	name     string
	path     string
	modified bool

	controller *canvas.Controller
	preview    *canvas.Preview
	redrawer   *canvas.Redrawer
	submitter  *printing.Submitter

	measure    func(string) (int, int, error)
	resolution func(string) (float64, error)
	backupDir  string
	render     raster.Options
	autoSave   *project.AutoSaver

	listenerMu sync.RWMutex
	listeners  map[EventType][]EventListener
}

// NewSession starts a session with an empty layout.
func NewSession(opts Options) *Session {
	paper := opts.Paper
	if paper.WidthMM <= 0 || paper.HeightMM <= 0 {
		paper = layout.Named(layout.PaperA4)
	}
	measure := opts.Measure
	if measure == nil {
		measure = plimage.Dimensions
	}
	resolution := opts.Resolution
	if resolution == nil {
		resolution = plimage.EmbeddedDPI
	}
	ctl := canvas.NewController()
	ctl.SetKeepAspect(opts.KeepAspect)
	if opts.Zoom > 0 {
		ctl.SetZoom(opts.Zoom)
	}
	s := &Session{
		layout:     layout.New(paper),
		name:       "untitled",
		controller: ctl,
		preview:    canvas.NewPreview(opts.Decoder),
		measure:    measure,
		resolution: resolution,
		backupDir:  opts.BackupDir,
		render:     opts.Render,
		listeners:  make(map[EventType][]EventListener),
	}
	if opts.Spooler != nil {
		s.submitter = printing.NewSubmitter(opts.Spooler)
	}
	if opts.AutoSaveDir != "" {
		interval := opts.AutoSaveInterval
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		s.autoSave = project.NewAutoSaver(opts.AutoSaveDir, interval, s.AutoSaveSnapshot)
		s.autoSave.Start()
	}
	return s
}

// On registers an event listener for the specified event type.
func (s *Session) On(event EventType, listener EventListener) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *Session) Emit(event EventType, data any) {
	s.listenerMu.RLock()
	listeners := s.listeners[event]
	s.listenerMu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// Controller returns the canvas controller (zoom, aspect lock).
func (s *Session) Controller() *canvas.Controller { return s.controller }

// Snapshot returns a deep copy of the current layout.
func (s *Session) Snapshot() *layout.Layout {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.layout.Clone()
}

// View calls fn with the live layout under a read lock. fn must not keep
// the pointer.
func (s *Session) View(fn func(l *layout.Layout)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.layout)
}

// Path returns where the session was last loaded from or saved to.
func (s *Session) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

// Modified reports whether there are unsaved changes.
func (s *Session) Modified() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modified
}

// SetModified sets the modified flag and emits EventModified on change.
func (s *Session) SetModified(modified bool) {
	s.mu.Lock()
	changed := s.modified != modified
	s.modified = modified
	s.mu.Unlock()
	if changed {
		s.Emit(EventModified, modified)
	}
}

// edit runs fn on the layout under the write lock. When fn reports a
// change the session is marked modified, listeners are told and the
// preview is refreshed.
func (s *Session) edit(fn func(l *layout.Layout) bool) bool {
	s.mu.Lock()
	before := s.layout.SelectedID()
	changed := fn(s.layout)
	after := s.layout.SelectedID()
	s.mu.Unlock()

	if after != before {
		s.Emit(EventSelectionChanged, after)
	}
	if changed {
		s.SetModified(true)
		s.Emit(EventLayoutChanged, nil)
	}
	if changed || after != before {
		s.Redraw()
	}
	return changed
}

// HandlePress routes a pointer press at screen pixel (px, py).
func (s *Session) HandlePress(px, py float64) canvas.Outcome {
	var out canvas.Outcome
	s.mu.Lock()
	before := s.layout.SelectedID()
	out = s.controller.Press(s.layout, px, py)
	canvas.Apply(s.layout, out)
	after := s.layout.SelectedID()
	s.mu.Unlock()

	if after != before {
		s.Emit(EventSelectionChanged, after)
		s.Redraw()
	}
	return out
}

// HandleMove routes pointer motion.
func (s *Session) HandleMove(px, py float64) canvas.Outcome {
	var out canvas.Outcome
	s.edit(func(l *layout.Layout) bool {
		out = s.controller.Move(l, px, py)
		return canvas.Apply(l, out)
	})
	return out
}

// HandleRelease ends a drag.
func (s *Session) HandleRelease() canvas.Outcome {
	return s.controller.Release()
}

// AddImages places each file on the page and selects the last one added.
// Files whose dimensions cannot be read are skipped and reported in the
// joined error.
func (s *Session) AddImages(paths ...string) ([]string, error) {
	var (
		added []*layout.PlacedImage
		errs  []error
	)
	for _, p := range paths {
		if !plimage.IsSupportedFormat(p) {
			errs = append(errs, fmt.Errorf("%s: unsupported format", p))
			continue
		}
		w, h, err := s.measure(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		img := layout.NewPlacedImage(p, w, h)
		s.applyNativeSize(img)
		added = append(added, img)
	}

	ids := make([]string, 0, len(added))
	s.edit(func(l *layout.Layout) bool {
		for _, img := range added {
			l.AddImage(img)
			ids = append(ids, img.ID)
		}
		if len(added) > 0 {
			l.Select(added[len(added)-1].ID)
		}
		return len(added) > 0
	})
	for _, err := range errs {
		slog.Warn("skipping image", "error", err)
	}
	return ids, errors.Join(errs...)
}

// applyNativeSize sizes img from the density in its metadata. Missing or
// implausible densities keep the default size.
func (s *Session) applyNativeSize(img *layout.PlacedImage) {
	dpi, err := s.resolution(img.Path)
	if err != nil || dpi < minEmbeddedDPI || dpi > maxEmbeddedDPI {
		return
	}
	if err := img.SetWidth(geometry.DotsToMM(img.OriginalWidthPx, dpi), true); err != nil {
		slog.Debug("ignoring embedded resolution", "path", img.Path, "dpi", dpi, "error", err)
		return
	}
	slog.Debug("sized from embedded resolution", "path", img.Path, "dpi", dpi, "width_mm", img.WidthMM)
}

// Embedded densities outside this range are treated as missing.
const (
	minEmbeddedDPI = 10
	maxEmbeddedDPI = 10000
)

// DeleteSelected removes the selected image. When no other placement uses
// the same file its cached renderings are dropped.
func (s *Session) DeleteSelected() bool {
	var evict string
	changed := s.edit(func(l *layout.Layout) bool {
		sel := l.Selected()
		if sel == nil {
			return false
		}
		l.RemoveImage(sel.ID)
		evict = sel.Path
		for _, img := range l.Images() {
			if img.Path == sel.Path {
				evict = ""
				break
			}
		}
		return true
	})
	if evict != "" {
		s.evict(evict)
	}
	return changed
}

// RotateSelected turns the selected image a quarter turn.
func (s *Session) RotateSelected(clockwise bool) bool {
	return s.edit(func(l *layout.Layout) bool {
		sel := l.Selected()
		if sel == nil {
			return false
		}
		if clockwise {
			sel.RotateCW()
		} else {
			sel.RotateCCW()
		}
		return true
	})
}

// FlipSelected mirrors the selected image.
func (s *Session) FlipSelected(horizontal bool) bool {
	return s.edit(func(l *layout.Layout) bool {
		sel := l.Selected()
		if sel == nil {
			return false
		}
		if horizontal {
			sel.ToggleFlipHorizontal()
		} else {
			sel.ToggleFlipVertical()
		}
		return true
	})
}

// SetSelectedOpacity sets the selected image's opacity, clamped to [0, 1].
func (s *Session) SetSelectedOpacity(v float64) bool {
	return s.edit(func(l *layout.Layout) bool {
		sel := l.Selected()
		if sel == nil {
			return false
		}
		old := sel.Opacity
		sel.SetOpacity(v)
		return sel.Opacity != old
	})
}

// SetSelectedLocked locks or unlocks the selected image.
func (s *Session) SetSelectedLocked(locked bool) bool {
	return s.edit(func(l *layout.Layout) bool {
		sel := l.Selected()
		if sel == nil || sel.Locked == locked {
			return false
		}
		sel.Locked = locked
		return true
	})
}

// BringSelectedToFront raises the selected image to the top.
func (s *Session) BringSelectedToFront() bool {
	return s.edit(func(l *layout.Layout) bool {
		return l.BringToFront(l.SelectedID())
	})
}

// SendSelectedToBack lowers the selected image to the bottom.
func (s *Session) SendSelectedToBack() bool {
	return s.edit(func(l *layout.Layout) bool {
		return l.SendToBack(l.SelectedID())
	})
}

// ToggleOrientation swaps the page between portrait and landscape.
func (s *Session) ToggleOrientation() {
	s.edit(func(l *layout.Layout) bool {
		l.Page.ToggleOrientation()
		return true
	})
}

// SetPaperSize changes the paper, keeping the orientation.
func (s *Session) SetPaperSize(size layout.PaperSize) {
	s.edit(func(l *layout.Layout) bool {
		l.Page.SetPaperSize(size)
		return true
	})
}

// EditPage applies fn to the page, for settings without a dedicated
// method (margins, paper type, quality, color mode).
func (s *Session) EditPage(fn func(p *layout.Page) error) error {
	var err error
	s.edit(func(l *layout.Layout) bool {
		before := l.Page
		err = fn(&l.Page)
		if err != nil {
			l.Page = before
			return false
		}
		return l.Page != before
	})
	return err
}

// NewLayout discards the current layout for an empty one.
func (s *Session) NewLayout(size layout.PaperSize) {
	s.mu.Lock()
	s.layout = layout.New(size)
	s.name = "untitled"
	s.path = ""
	s.mu.Unlock()

	s.resetPreview()
	s.SetModified(false)
	s.Emit(EventSelectionChanged, "")
	s.Emit(EventLayoutChanged, nil)
	s.Redraw()
}

// Load replaces the session's layout with the project at path.
func (s *Session) Load(path string) error {
	proj, err := project.Load(path)
	if err != nil {
		return err
	}
	s.open(proj, path)
	s.Emit(EventProjectLoaded, path)
	return nil
}

// Restore opens an auto-saved project. The result is unsaved and has no
// path.
func (s *Session) Restore(proj *project.File) {
	s.open(proj, "")
	s.SetModified(true)
}

func (s *Session) open(proj *project.File, path string) {
	s.mu.Lock()
	s.layout = proj.Layout
	s.name = proj.Name
	s.path = path
	sel := s.layout.SelectedID()
	s.mu.Unlock()

	s.resetPreview()
	s.SetModified(false)
	s.Emit(EventSelectionChanged, sel)
	s.Emit(EventLayoutChanged, nil)
	s.Redraw()
}

// Save writes the layout to path, or to the current path when path is
// empty.
func (s *Session) Save(path string) error {
	proj := s.projectFile()
	if path == "" {
		path = s.Path()
	}
	if path == "" {
		return errors.New("no project path")
	}
	if filepath.Ext(path) == "" {
		path += project.Extension
	}

	var err error
	if s.backupDir != "" {
		err = proj.SaveWithBackup(path, s.backupDir)
	} else {
		err = proj.Save(path)
	}
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}

	s.mu.Lock()
	s.path = path
	s.mu.Unlock()
	s.SetModified(false)
	if s.autoSave != nil {
		if err := project.DeleteAutoSave(filepath.Dir(s.autoSave.Path())); err != nil {
			slog.Warn("failed to remove auto-save", "error", err)
		}
	}
	s.Emit(EventProjectSaved, path)
	return nil
}

func (s *Session) projectFile() *project.File {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name := s.name
	if s.path != "" {
		name = filepath.Base(s.path[:len(s.path)-len(filepath.Ext(s.path))])
	}
	return project.New(name, s.layout.Clone())
}

// AutoSaveSnapshot is a project.Snapshot for project.AutoSaver.
func (s *Session) AutoSaveSnapshot() (*project.File, bool) {
	return s.projectFile(), s.Modified()
}

// PrintRequest names where and how to print the current layout.
type PrintRequest struct {
	Printer string
	Copies  int
	DPI     int
	Options []printing.Option
	// PaperSize names the loaded media when it differs from the page's
	// paper size; nil uses the page.
	PaperSize *layout.PaperSize
}

// Print submits a snapshot of the layout asynchronously. The returned
// channel receives exactly one outcome; EventPrintCompleted is emitted
// with the same outcome first.
func (s *Session) Print(ctx context.Context, req PrintRequest) <-chan printing.Outcome {
	out := make(chan printing.Outcome, 1)
	if s.submitter == nil {
		out <- printing.Outcome{Err: printing.ErrSpoolerUnavailable}
		close(out)
		return out
	}

	job := printing.Job{
		Layout:      s.Snapshot(),
		PrinterName: req.Printer,
		Copies:      req.Copies,
		DPI:         req.DPI,
		Options:     req.Options,
		PaperSize:   req.PaperSize,
		Render:      s.render,
	}
	res := s.submitter.Submit(ctx, job)
	go func() {
		defer close(out)
		o := <-res
		s.Emit(EventPrintCompleted, o)
		out <- o
	}()
	return out
}

// StartPreview begins background preview rendering; deliver receives each
// fresh frame on the render goroutine.
func (s *Session) StartPreview(deliver func(*canvas.Frame)) {
	s.StopPreview()
	r := canvas.NewRedrawer(s.preview, deliver)
	s.mu.Lock()
	s.redrawer = r
	s.mu.Unlock()
	s.Redraw()
}

// StopPreview stops background rendering.
func (s *Session) StopPreview() {
	s.mu.Lock()
	r := s.redrawer
	s.redrawer = nil
	s.mu.Unlock()
	if r != nil {
		r.Close()
	}
}

// Redraw requests a preview frame for the current layout. It returns the
// request's generation, or 0 when no preview is running.
func (s *Session) Redraw() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.redrawer == nil {
		return 0
	}
	return s.redrawer.Request(s.layout, s.controller.Zoom())
}

// RenderPreview renders a frame synchronously. It must not be used while
// StartPreview is running.
func (s *Session) RenderPreview() *canvas.Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.preview.Render(s.layout, s.controller.Zoom())
}

func (s *Session) evict(path string) {
	s.mu.RLock()
	r := s.redrawer
	s.mu.RUnlock()
	if r != nil {
		r.Evict(path)
		return
	}
	s.preview.Evict(path)
}

func (s *Session) resetPreview() {
	s.mu.RLock()
	r := s.redrawer
	s.mu.RUnlock()
	if r != nil {
		r.Reset()
		return
	}
	s.preview.Reset()
}

// Close stops background work and writes a last auto-save when there are
// unsaved changes.
func (s *Session) Close() {
	s.StopPreview()
	if s.autoSave == nil {
		return
	}
	s.autoSave.Stop()
	if _, err := s.autoSave.SaveNow(); err != nil {
		slog.Warn("final auto-save failed", "path", s.autoSave.Path(), "error", err)
	}
}
