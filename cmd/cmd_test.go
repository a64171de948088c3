package cmd

import (
	"bytes"
	"image"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/tiff"

	"print-layout/internal/config"
	"print-layout/internal/layout"
	"print-layout/internal/project"
)

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions([]string{"ColorModel=RGB16", "collate"})
	if err != nil {
		t.Fatal(err)
	}
	if opts[0].String() != "ColorModel=RGB16" || opts[1].Name != "collate" || opts[1].Value != "" {
		t.Errorf("opts = %v", opts)
	}
	if _, err := parseOptions([]string{"=x"}); err == nil {
		t.Error("empty name accepted")
	}
}

func TestPageFlags(t *testing.T) {
	cfg := config.Default()
	pf := pageFlags{paper: "4x6", landscape: true, borderless: true, paperType: "glossy", quality: "Draft", color: "BlackAndWhite", margin: -1}
	l, err := pf.layout(cfg)
	if err != nil {
		t.Fatal(err)
	}
	p := l.Page
	if p.Orientation != layout.Landscape || !p.Borderless || p.PaperType != layout.PaperGlossy ||
		p.PrintQuality != layout.QualityDraft || !p.ColorMode.Monochrome() {
		t.Errorf("page = %+v", p)
	}
	if p.WidthMM <= p.HeightMM {
		t.Errorf("landscape page is %vx%v", p.WidthMM, p.HeightMM)
	}

	pf = pageFlags{paperType: "Plain", quality: "High", color: "ICC", margin: 10}
	if l, err = pf.layout(cfg); err != nil || l.Page.MarginLeftMM != 10 || l.Page.PaperSize.Kind != layout.PaperA4 {
		t.Errorf("layout = %+v, %v", l.Page, err)
	}

	pf.quality = "Superb"
	if _, err := pf.layout(cfg); err == nil {
		t.Error("unknown quality accepted")
	}
}

func TestNewAndInfoCommands(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.EnvConfig, filepath.Join(dir, "config.yaml"))
	path := filepath.Join(dir, "album")

	root := NewRootCmd()
	root.SetArgs([]string{"new", path, "--paper", "Letter", "--description", "summer"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	proj, err := project.Load(path + ".pxl")
	if err != nil {
		t.Fatal(err)
	}
	if proj.Name != "album" || proj.Layout.Page.PaperSize.Kind != layout.PaperLetter {
		t.Errorf("project = %+v", proj)
	}
	if cfg := config.Load(filepath.Join(dir, "config.yaml")); len(cfg.RecentFiles) != 1 {
		t.Errorf("recent files = %v", cfg.RecentFiles)
	}

	var out bytes.Buffer
	root = NewRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"info", path + ".pxl"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "summer") || !strings.Contains(out.String(), "Letter") {
		t.Errorf("info output:\n%s", out.String())
	}
}

func TestAddUsesEmbeddedResolution(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv(config.EnvConfig, filepath.Join(dir, "config.yaml"))

	scan := filepath.Join(dir, "scan.tif")
	f, err := os.Create(scan)
	if err != nil {
		t.Fatal(err)
	}
	// The encoder records 72 dpi.
	if err := tiff.Encode(f, image.NewRGBA(image.Rect(0, 0, 144, 72)), nil); err != nil {
		t.Fatal(err)
	}
	f.Close()

	path := filepath.Join(dir, "album.pxl")
	for _, args := range [][]string{{"new", path}, {"add", path, scan}} {
		root := NewRootCmd()
		root.SetArgs(args)
		if err := root.Execute(); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}
	proj, err := project.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	imgs := proj.Layout.Images()
	if len(imgs) != 1 || math.Abs(imgs[0].WidthMM-50.8) > 1e-9 || math.Abs(imgs[0].HeightMM-25.4) > 1e-9 {
		t.Fatalf("images = %+v", imgs)
	}

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"info", path})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	var row []string
	for _, line := range strings.Split(out.String(), "\n") {
		if strings.Contains(line, "scan.tif") {
			row = strings.Fields(line)
		}
	}
	if len(row) == 0 || row[len(row)-1] != "72" {
		t.Errorf("info output:\n%s", out.String())
	}
}

func TestResamplerDefaultsToAuto(t *testing.T) {
	if def := NewRootCmd().PersistentFlags().Lookup("resample").DefValue; def != "auto" {
		t.Errorf("--resample default = %q", def)
	}
	g := &globals{resample: config.Default().Resampler}
	if r, err := g.resampler(); err != nil || r != nil {
		t.Errorf("default resampler = %v, %v; want quality based choice", r, err)
	}
	g.resample = "BiLinear"
	if r, err := g.resampler(); err != nil || r == nil || r.Name() != "bilinear" {
		t.Errorf("bilinear = %v, %v", r, err)
	}
	g.resample = "sinc"
	if _, err := g.resampler(); err == nil {
		t.Error("unknown kernel accepted")
	}
}

func TestPrintRejectsUnknownMedia(t *testing.T) {
	t.Setenv(config.EnvConfig, filepath.Join(t.TempDir(), "config.yaml"))
	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"print", "album.pxl", "--media", "Postcard"})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "--media") {
		t.Fatalf("err = %v", err)
	}
}

func TestPaperSizesCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newPaperSizesCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"A4", "Letter", "Custom.<w>x<h>mm"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("missing %s", want)
		}
	}
}
