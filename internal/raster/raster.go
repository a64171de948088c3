// Package raster composes a layout into a full-page bitmap at a print DPI.
package raster

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"

	plimage "print-layout/internal/image"
	"print-layout/internal/layout"
	"print-layout/pkg/colorutil"
	"print-layout/pkg/geometry"
)

// DefaultMaxPixels bounds the page bitmap (about 2 GB of RGBA).
const DefaultMaxPixels = 1 << 29

var (
	ErrInvalidDPI = errors.New("dpi must be positive")
	ErrEmptyPage  = errors.New("page has no pixels at this dpi")
	ErrTooLarge   = errors.New("page bitmap too large")
)

// Options tunes a render. The zero value is valid.
type Options struct {
	// Resampler scales each image to its box. Nil picks CatmullRom, or
	// BiLinear for draft quality pages.
	Resampler plimage.Resampler
	// Decoder loads sources. Nil uses plimage.Decode.
	Decoder plimage.Decoder
	// MaxPixels caps width*height. Zero uses DefaultMaxPixels.
	MaxPixels int
}

// Warning records an image left off the page.
type Warning struct {
	ImageID string
	Path    string
	Err     error
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %v", w.Path, w.Err)
}

// Result is a rendered page.
type Result struct {
	Image    *image.RGBA
	DPI      int
	Warnings []Warning
}

// Render rasterizes l at dpi. Images are painted in z order onto opaque
// white. An image that cannot be decoded is skipped and reported in
// Result.Warnings; it never fails the render. Page orientation is already
// expressed by the page dimensions and is not applied again.
func Render(ctx context.Context, l *layout.Layout, dpi int, opts Options) (*Result, error) {
	if dpi <= 0 {
		return nil, fmt.Errorf("render at %d dpi: %w", dpi, ErrInvalidDPI)
	}
	w, h := l.Page.PixelSize(dpi)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("render %gx%gmm at %d dpi: %w", l.Page.WidthMM, l.Page.HeightMM, dpi, ErrEmptyPage)
	}
	limit := opts.MaxPixels
	if limit <= 0 {
		limit = DefaultMaxPixels
	}
	if w > limit/h {
		return nil, fmt.Errorf("render %dx%d px: %w", w, h, ErrTooLarge)
	}

	resampler := opts.Resampler
	if resampler == nil {
		resampler = plimage.CatmullRom
		if l.Page.PrintQuality == layout.QualityDraft {
			resampler = plimage.BiLinear
		}
	}
	sources := plimage.NewSourceCache(opts.Decoder)

	res := &Result{Image: plimage.NewCanvas(w, h, colorutil.White), DPI: dpi}
	slog.Debug("rendering page", "width_px", w, "height_px", h, "dpi", dpi,
		"images", l.Len(), "resampler", resampler.Name())

	for _, img := range l.Images() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := drawImage(res.Image, img, dpi, sources, resampler, limit); err != nil {
			slog.Warn("skipping image", "path", img.Path, "error", err)
			res.Warnings = append(res.Warnings, Warning{ImageID: img.ID, Path: img.Path, Err: err})
		}
	}

	if l.Page.ColorMode.Monochrome() {
		plimage.Grayscale(res.Image)
	}
	return res, nil
}

// drawImage scales img into its box on dst. Kernels that can clip only
// produce the part of the box on the page; others must fit the whole box
// within limit pixels.
func drawImage(dst *image.RGBA, img *layout.PlacedImage, dpi int, sources *plimage.SourceCache, resampler plimage.Resampler, limit int) error {
	box := image.Rect(
		geometry.MMToDots(img.XMM, dpi),
		geometry.MMToDots(img.YMM, dpi),
		geometry.MMToDots(img.XMM+img.WidthMM, dpi),
		geometry.MMToDots(img.YMM+img.HeightMM, dpi),
	)
	if box.Empty() || !box.Overlaps(dst.Rect) {
		return nil
	}
	clipped, canClip := resampler.(plimage.ClippedResampler)
	if !canClip && box.Dx() > limit/box.Dy() {
		return fmt.Errorf("scale to %dx%d px: %w", box.Dx(), box.Dy(), ErrTooLarge)
	}

	src, err := sources.Get(img.Path)
	if err != nil {
		return err
	}
	oriented := plimage.Orient(src, img.QuarterTurns(), img.FlipHorizontal, img.FlipVertical)

	var scaled *image.RGBA
	if canClip {
		scaled = clipped.ResizeClipped(oriented, box, dst.Rect)
	} else {
		scaled = resampler.Resize(oriented, box.Dx(), box.Dy())
	}
	plimage.ScaleAlpha(scaled, clampOpacity(img.Opacity))
	if canClip {
		plimage.Composite(dst, scaled, scaled.Rect.Min)
	} else {
		plimage.Composite(dst, scaled, box.Min)
	}
	return nil
}

func clampOpacity(v float64) float64 {
	if math.IsNaN(v) {
		return 1
	}
	return math.Max(0, math.Min(1, v))
}
