package project

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// AutoSaveName is the file name of the auto-save inside the cache dir.
const AutoSaveName = "auto_save" + Extension

// Snapshot returns the project to auto-save and whether it has unsaved
// changes. It is called from the saver's goroutine and must return a
// File the saver owns, such as one wrapping a cloned layout.
type Snapshot func() (*File, bool)

// AutoSaver periodically writes the current project to the cache dir
// while it has unsaved changes.
type AutoSaver struct {
	dir      string
	interval time.Duration
	snapshot Snapshot

	mu      sync.Mutex
	stopCh  chan struct{}
	onSaved func(path string)
}

// NewAutoSaver creates an auto-saver writing into dir every interval.
func NewAutoSaver(dir string, interval time.Duration, snapshot Snapshot) *AutoSaver {
	return &AutoSaver{dir: dir, interval: interval, snapshot: snapshot}
}

// OnSaved sets a callback invoked from the background goroutine after each
// successful auto-save.
func (a *AutoSaver) OnSaved(fn func(path string)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onSaved = fn
}

// Path returns the auto-save file path.
func (a *AutoSaver) Path() string {
	return filepath.Join(a.dir, AutoSaveName)
}

// Start begins the save loop. Calling Start on a running saver restarts it.
func (a *AutoSaver) Start() {
	a.Stop()
	a.mu.Lock()
	a.stopCh = make(chan struct{})
	stop := a.stopCh
	a.mu.Unlock()
	go a.loop(stop)
}

// Stop ends the save loop.
func (a *AutoSaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
	}
}

func (a *AutoSaver) loop(stop <-chan struct{}) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, err := a.SaveNow(); err != nil {
				slog.Warn("auto-save failed", "path", a.Path(), "error", err)
			}
		}
	}
}

// SaveNow writes the auto-save if the snapshot reports unsaved changes.
// It reports whether a file was written.
func (a *AutoSaver) SaveNow() (bool, error) {
	proj, modified := a.snapshot()
	if proj == nil || !modified {
		return false, nil
	}
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return false, err
	}
	if err := proj.Save(a.Path()); err != nil {
		return false, err
	}
	slog.Debug("auto-saved", "path", a.Path())

	a.mu.Lock()
	fn := a.onSaved
	a.mu.Unlock()
	if fn != nil {
		fn(a.Path())
	}
	return true, nil
}

// HasAutoSave reports whether dir holds an auto-save.
func HasAutoSave(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, AutoSaveName))
	return err == nil
}

// LoadAutoSave reads the auto-save from dir.
func LoadAutoSave(dir string) (*File, error) {
	return Load(filepath.Join(dir, AutoSaveName))
}

// DeleteAutoSave removes the auto-save from dir. A missing file is not an
// error.
func DeleteAutoSave(dir string) error {
	err := os.Remove(filepath.Join(dir, AutoSaveName))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
