// Package image provides source decoding, the two-tier transform cache, and
// the pixel operations shared by the canvas preview and the print
// rasterizer.
package image

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decoder loads the pixels of a source file.
type Decoder func(path string) (image.Image, error)

// Decode opens and decodes path, guessing the format from its contents.
// For animated GIFs the first frame is returned.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// Dimensions returns the pixel size of path without decoding the pixels.
func Dimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(bufio.NewReader(f))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read header of %s: %w", filepath.Base(path), err)
	}
	return cfg.Width, cfg.Height, nil
}

// SupportedFormats returns the file extensions the decoder understands.
func SupportedFormats() []string {
	return []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tiff", ".tif", ".webp"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}

// EmbeddedDPI returns the resolution stored in a TIFF header, if any.
// Other formats report an error.
func EmbeddedDPI(path string) (float64, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".tiff" && ext != ".tif" {
		return 0, fmt.Errorf("no resolution metadata in %s files", ext)
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return tiffDPI(f)
}

// TIFF tag numbers and field types used by tiffDPI.
const (
	tagXResolution    = 282
	tagYResolution    = 283
	tagResolutionUnit = 296
	typeShort         = 3
	typeRational      = 5
	unitCentimeter    = 3
)

func tiffDPI(r io.ReadSeeker) (float64, error) {
	header := make([]byte, 8)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, err
	}

	var order binary.ByteOrder
	switch string(header[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return 0, fmt.Errorf("not a valid TIFF file")
	}

	if _, err := r.Seek(int64(order.Uint32(header[4:8])), io.SeekStart); err != nil {
		return 0, err
	}
	var n uint16
	if err := binary.Read(r, order, &n); err != nil {
		return 0, err
	}

	var xRes, yRes float64
	unit := uint16(2)
	entry := make([]byte, 12)
	for i := uint16(0); i < n; i++ {
		if _, err := io.ReadFull(r, entry); err != nil {
			return 0, err
		}
		tag := order.Uint16(entry[0:2])
		typ := order.Uint16(entry[2:4])
		switch {
		case tag == tagXResolution && typ == typeRational:
			xRes = readRational(r, int64(order.Uint32(entry[8:12])), order)
		case tag == tagYResolution && typ == typeRational:
			yRes = readRational(r, int64(order.Uint32(entry[8:12])), order)
		case tag == tagResolutionUnit && typ == typeShort:
			unit = order.Uint16(entry[8:10])
		}
	}

	dpi := xRes
	if dpi == 0 {
		dpi = yRes
	}
	if dpi == 0 {
		return 0, fmt.Errorf("no resolution tags found")
	}
	if unit == unitCentimeter {
		dpi *= 2.54
	}
	return dpi, nil
}

// readRational reads a RATIONAL at offset and restores the read position.
func readRational(r io.ReadSeeker, offset int64, order binary.ByteOrder) float64 {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0
	}
	defer r.Seek(pos, io.SeekStart)

	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return 0
	}
	var v [2]uint32
	if err := binary.Read(r, order, &v); err != nil || v[1] == 0 {
		return 0
	}
	return float64(v[0]) / float64(v[1])
}
