package printing

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"slices"
	"strconv"

	"print-layout/internal/layout"
	"print-layout/internal/raster"
)

// DefaultDPI is used when a job does not name one.
const DefaultDPI = 300

// Job is a print request. Layout is required; Bitmap, when set, is used
// as-is instead of rasterizing Layout.
type Job struct {
	Layout      *layout.Layout
	Bitmap      *image.RGBA
	PrinterName string
	Copies      int
	DPI         int
	// PaperSize overrides the page's paper size for the media option.
	PaperSize *layout.PaperSize
	// Options are appended after the options derived from the page.
	Options []Option
	// Render tunes rasterization of Layout.
	Render raster.Options
	// TempDir holds the spooled PNG. Empty uses os.TempDir.
	TempDir string
}

// Receipt is a successful submission.
type Receipt struct {
	JobID    string
	Printer  string
	Warnings []raster.Warning
}

func (j *Job) validate() error {
	switch {
	case j.Layout == nil:
		return fmt.Errorf("%w: no layout", ErrInvalidJob)
	case j.PrinterName == "":
		return fmt.Errorf("%w: no printer", ErrInvalidJob)
	case j.Copies < 1:
		return fmt.Errorf("%w: copies must be at least 1, got %d", ErrInvalidJob, j.Copies)
	case j.DPI < 0:
		return fmt.Errorf("%w: dpi %d", ErrInvalidJob, j.DPI)
	}
	return nil
}

// SpoolOptions returns the -o options for the job: media, fit-to-page,
// quality, color and media type from the page, then the job's extras.
func (j *Job) SpoolOptions() []Option {
	page := j.Layout.Page
	paper := page.PaperSize
	if j.PaperSize != nil {
		paper = *j.PaperSize
	}
	color := "color"
	if page.ColorMode.Monochrome() {
		color = "monochrome"
	}
	opts := []Option{
		{Name: "media", Value: paper.MediaKeyword()},
		{Name: "fit-to-page"},
		{Name: "print-quality", Value: strconv.Itoa(page.PrintQuality.IPPValue())},
		{Name: "print-color-mode", Value: color},
		{Name: "media-type", Value: page.PaperType.MediaType()},
	}
	return append(opts, j.Options...)
}

// Print rasterizes the job if needed, checks the printer exists, spools a
// temporary PNG, and removes the file afterwards.
func Print(ctx context.Context, sp Spooler, job Job) (*Receipt, error) {
	if err := job.validate(); err != nil {
		return nil, err
	}
	dpi := job.DPI
	if dpi == 0 {
		dpi = DefaultDPI
	}

	printers, err := sp.Discover(ctx)
	if err != nil {
		return nil, err
	}
	if !slices.ContainsFunc(printers, func(p Printer) bool { return p.Name == job.PrinterName }) {
		return nil, fmt.Errorf("%w: %s", ErrPrinterNotFound, job.PrinterName)
	}

	receipt := &Receipt{Printer: job.PrinterName}
	bitmap := job.Bitmap
	if bitmap == nil {
		res, err := raster.Render(ctx, job.Layout, dpi, job.Render)
		if err != nil {
			return nil, fmt.Errorf("render: %w", err)
		}
		bitmap = res.Image
		receipt.Warnings = res.Warnings
	}

	file, err := writeTempPNG(job.TempDir, bitmap)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.Remove(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to remove spool file", "path", file, "error", err)
		}
	}()

	slog.Info("submitting print job", "printer", job.PrinterName, "copies", job.Copies,
		"dpi", dpi, "size", bitmap.Rect.Size().String())
	id, err := sp.Submit(ctx, Request{
		Printer: job.PrinterName,
		Copies:  job.Copies,
		Options: job.SpoolOptions(),
		File:    file,
	})
	if err != nil {
		return nil, err
	}
	receipt.JobID = id
	slog.Info("print job submitted", "job", id)
	return receipt, nil
}

func writeTempPNG(dir string, img image.Image) (string, error) {
	f, err := os.CreateTemp(dir, "print_layout_*.png")
	if err != nil {
		return "", fmt.Errorf("create spool file: %w", err)
	}
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(f, img); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("encode spool file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write spool file: %w", err)
	}
	return f.Name(), nil
}
