// Package project provides layout project files (.pxl) and their
// persistence: atomic saves, timestamped backups and auto-save.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"print-layout/internal/layout"
)

// Extension is the project file extension.
const Extension = ".pxl"

// FormatVersion is the newest project format this build reads and writes.
const FormatVersion = 1

// MaxBackups is how many backups of one project are kept.
const MaxBackups = 5

const backupStamp = "20060102_150405"

// ErrUnsupportedVersion is returned for files written by a newer format.
var ErrUnsupportedVersion = errors.New("unsupported project version")

// File is a saved layout with its metadata.
type File struct {
	Version     int            `json:"version"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Created     time.Time      `json:"created"`
	Modified    time.Time      `json:"modified"`
	Layout      *layout.Layout `json:"layout"`
}

// New wraps l in a new project file.
func New(name string, l *layout.Layout) *File {
	if l == nil {
		l = layout.Default()
	}
	now := time.Now()
	return &File{
		Version:  FormatVersion,
		Name:     name,
		Created:  now,
		Modified: now,
		Layout:   l,
	}
}

// Load reads a project from path. Relative image paths are resolved
// against the project's directory.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var proj File
	if err := json.Unmarshal(data, &proj); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if proj.Version > FormatVersion {
		return nil, fmt.Errorf("%s: version %d: %w", path, proj.Version, ErrUnsupportedVersion)
	}
	if proj.Layout == nil {
		proj.Layout = layout.Default()
	}
	proj.resolveImagePaths(path)
	return &proj, nil
}

func (p *File) resolveImagePaths(projectPath string) {
	dir := filepath.Dir(projectPath)
	for _, img := range p.Layout.Images() {
		if img.Path != "" && !filepath.IsAbs(img.Path) {
			img.Path = filepath.Join(dir, img.Path)
		}
	}
}

// Save writes the project to path atomically.
func (p *File) Save(path string) error {
	p.Modified = time.Now()
	if p.Version == 0 {
		p.Version = FormatVersion
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data, 0o644)
}

// SaveWithBackup copies the current file at path (if any) into backupDir
// and then saves. Only the newest MaxBackups backups are kept.
func (p *File) SaveWithBackup(path, backupDir string) error {
	if _, err := os.Stat(path); err == nil {
		if _, err := Backup(path, backupDir, time.Now()); err != nil {
			return fmt.Errorf("backup: %w", err)
		}
	}
	return p.Save(path)
}

// Backup copies path to backupDir as <name>_backup_<stamp>.pxl and prunes
// older backups of the same project.
func Backup(path, backupDir string, now time.Time) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return "", err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	dst := filepath.Join(backupDir, name+"_backup_"+now.Format(backupStamp)+Extension)
	if err := WriteFileAtomic(dst, data, 0o644); err != nil {
		return "", err
	}
	return dst, pruneBackups(backupDir, name, MaxBackups)
}

// Backups lists the backups of the project named name, newest first.
func Backups(backupDir, name string) ([]string, error) {
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	prefix := name + "_backup_"
	var matches []string
	for _, e := range entries {
		stamp, ok := strings.CutPrefix(e.Name(), prefix)
		if !ok || e.IsDir() {
			continue
		}
		stamp, ok = strings.CutSuffix(stamp, Extension)
		if !ok || len(stamp) != len(backupStamp) {
			continue
		}
		matches = append(matches, filepath.Join(backupDir, e.Name()))
	}
	// The timestamp format sorts lexically.
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	return matches, nil
}

func pruneBackups(backupDir, name string, keep int) error {
	all, err := Backups(backupDir, name)
	if err != nil {
		return err
	}
	var errs []error
	for _, old := range all[min(keep, len(all)):] {
		if err := os.Remove(old); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteFileAtomic writes data to a temp file next to path and renames it
// into place.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
