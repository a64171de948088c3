// Package config provides the user configuration file: print defaults,
// canvas preferences and remembered state such as recent files.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"print-layout/internal/project"
)

const (
	appDir     = "print-layout"
	configFile = "config.yaml"

	// MaxRecentFiles bounds the recent files list.
	MaxRecentFiles = 10
)

// Environment variables that override file values.
const (
	EnvPrinter = "PRINT_LAYOUT_PRINTER"
	EnvDPI     = "PRINT_LAYOUT_DPI"
	EnvConfig  = "PRINT_LAYOUT_CONFIG"
)

// PrintSettings are the settings of the last successful print.
type PrintSettings struct {
	Printer   string    `yaml:"printer"`
	Copies    int       `yaml:"copies"`
	DPI       int       `yaml:"dpi"`
	PaperSize string    `yaml:"paper_size"`
	Time      time.Time `yaml:"time"`
}

// Config is the persisted user configuration.
type Config struct {
	Printer          string        `yaml:"printer,omitempty"`
	DPI              int           `yaml:"dpi"`
	Copies           int           `yaml:"copies"`
	PaperSize        string        `yaml:"paper_size"`
	MarginMM         float64       `yaml:"margin_mm"`
	Zoom             float64       `yaml:"zoom"`
	KeepAspect       bool          `yaml:"keep_aspect"`
	AutoSaveInterval time.Duration `yaml:"auto_save_interval"`
	Resampler        string        `yaml:"resampler"`

	RecentFiles []string       `yaml:"recent_files,omitempty"`
	LastPrint   *PrintSettings `yaml:"last_print,omitempty"`

	path string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DPI:              300,
		Copies:           1,
		PaperSize:        "A4",
		MarginMM:         25.4,
		Zoom:             1,
		KeepAspect:       true,
		AutoSaveInterval: 5 * time.Minute,
		Resampler:        "auto",
	}
}

// Dir returns the configuration directory, $XDG_CONFIG_HOME/print-layout
// or its platform equivalent.
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, appDir)
}

// CacheDir returns the directory for auto-saves.
func CacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(os.Getenv("HOME"), ".cache")
	}
	return filepath.Join(base, appDir)
}

// BackupDir returns the directory for project backups.
func BackupDir() string {
	return filepath.Join(Dir(), "backups")
}

// Path returns the config file path. PRINT_LAYOUT_CONFIG overrides it.
func Path() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	return filepath.Join(Dir(), configFile)
}

// LoadDefault loads the config from Path and applies environment
// overrides.
func LoadDefault() *Config {
	c := Load(Path())
	c.ApplyEnv(os.Getenv)
	return c
}

// Load reads the config at path. A missing file yields defaults; an
// unreadable or invalid one yields defaults and a warning.
func Load(path string) *Config {
	c := Default()
	c.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("reading config, using defaults", "path", path, "error", err)
		}
		return c
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		slog.Warn("parsing config, using defaults", "path", path, "error", err)
		c = Default()
		c.path = path
		return c
	}
	c.normalize()
	return c
}

func (c *Config) normalize() {
	d := Default()
	if c.DPI <= 0 {
		c.DPI = d.DPI
	}
	if c.Copies < 1 {
		c.Copies = d.Copies
	}
	if c.PaperSize == "" {
		c.PaperSize = d.PaperSize
	}
	if c.Zoom <= 0 {
		c.Zoom = d.Zoom
	}
	if c.AutoSaveInterval <= 0 {
		c.AutoSaveInterval = d.AutoSaveInterval
	}
	if c.Resampler == "" {
		c.Resampler = d.Resampler
	}
	if len(c.RecentFiles) > MaxRecentFiles {
		c.RecentFiles = c.RecentFiles[:MaxRecentFiles]
	}
}

// ApplyEnv overrides values from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvPrinter); v != "" {
		c.Printer = v
	}
	if v := getenv(EnvDPI); v != "" {
		dpi, err := strconv.Atoi(v)
		if err != nil || dpi <= 0 {
			slog.Warn("ignoring invalid dpi override", "env", EnvDPI, "value", v)
		} else {
			c.DPI = dpi
		}
	}
}

// FilePath returns where Save writes.
func (c *Config) FilePath() string { return c.path }

// Save writes the config atomically, creating its directory.
func (c *Config) Save() error {
	if c.path == "" {
		c.path = Path()
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return project.WriteFileAtomic(c.path, data, 0o644)
}

// AddRecentFile moves path to the front of the recent files list.
func (c *Config) AddRecentFile(path string) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	c.RecentFiles = slices.DeleteFunc(c.RecentFiles, func(p string) bool { return p == path })
	c.RecentFiles = append([]string{path}, c.RecentFiles...)
	if len(c.RecentFiles) > MaxRecentFiles {
		c.RecentFiles = c.RecentFiles[:MaxRecentFiles]
	}
}

// RememberPrint records the settings of a successful print.
func (c *Config) RememberPrint(ps PrintSettings) {
	if ps.Time.IsZero() {
		ps.Time = time.Now()
	}
	c.LastPrint = &ps
}
