package image

import (
	"image"
	"math"

	"print-layout/internal/layout"
	"print-layout/pkg/geometry"
)

// SourceCache maps a source path to its decoded pixels. Entries live until
// Remove or Clear; failures are not cached so a fixed file is picked up on
// the next access. A SourceCache is not safe for concurrent use; each
// consumer owns its own.
type SourceCache struct {
	decode  Decoder
	entries map[string]image.Image
}

// NewSourceCache returns an empty cache. A nil decoder uses Decode.
func NewSourceCache(decode Decoder) *SourceCache {
	if decode == nil {
		decode = Decode
	}
	return &SourceCache{decode: decode, entries: make(map[string]image.Image)}
}

// Get returns the decoded image for path, decoding it on first use.
func (c *SourceCache) Get(path string) (image.Image, error) {
	if img, ok := c.entries[path]; ok {
		return img, nil
	}
	img, err := c.decode(path)
	if err != nil {
		return nil, err
	}
	c.entries[path] = img
	return img, nil
}

// Remove drops path from the cache.
func (c *SourceCache) Remove(path string) {
	delete(c.entries, path)
}

// Clear drops every entry.
func (c *SourceCache) Clear() {
	clear(c.entries)
}

// Len returns the number of cached sources.
func (c *SourceCache) Len() int {
	return len(c.entries)
}

// TransformKey identifies one rendering of a source. Placement and identity
// (id, position, size, z order) are not part of it.
type TransformKey struct {
	Path           string
	QuarterTurns   int
	FlipHorizontal bool
	FlipVertical   bool
	OpacityPercent int
}

// KeyFor derives the cache key of img. Rotation snaps to quarter turns and
// opacity rounds to a whole percent.
func KeyFor(img *layout.PlacedImage) TransformKey {
	return TransformKey{
		Path:           img.Path,
		QuarterTurns:   geometry.SnapQuarterTurns(img.RotationDegrees),
		FlipHorizontal: img.FlipHorizontal,
		FlipVertical:   img.FlipVertical,
		OpacityPercent: opacityPercent(img.Opacity),
	}
}

func opacityPercent(v float64) int {
	if math.IsNaN(v) {
		return 100
	}
	return int(math.Round(math.Max(0, math.Min(1, v)) * 100))
}

// Opacity returns the quantized opacity carried by the key.
func (k TransformKey) Opacity() float64 {
	return float64(k.OpacityPercent) / 100
}

// Apply renders src with the key's transforms: rotation, then flips, then
// alpha scaling.
func (k TransformKey) Apply(src image.Image) *image.NRGBA {
	out := Orient(src, k.QuarterTurns, k.FlipHorizontal, k.FlipVertical)
	ScaleAlpha(out, k.Opacity())
	return out
}

// TransformCache memoizes TransformKey renderings. Changing a transform on
// an image yields a new key; old entries are never evicted automatically.
// Not safe for concurrent use.
type TransformCache struct {
	entries map[TransformKey]*image.NRGBA
}

// NewTransformCache returns an empty cache.
func NewTransformCache() *TransformCache {
	return &TransformCache{entries: make(map[TransformKey]*image.NRGBA)}
}

// Get returns the rendering for img, building it from sources on a miss.
// It returns nil and the decode error when the source cannot be loaded.
func (c *TransformCache) Get(img *layout.PlacedImage, sources *SourceCache) (*image.NRGBA, error) {
	key := KeyFor(img)
	if out, ok := c.entries[key]; ok {
		return out, nil
	}
	src, err := sources.Get(img.Path)
	if err != nil {
		return nil, err
	}
	out := key.Apply(src)
	c.entries[key] = out
	return out, nil
}

// RemovePath drops every rendering of path.
func (c *TransformCache) RemovePath(path string) {
	for k := range c.entries {
		if k.Path == path {
			delete(c.entries, k)
		}
	}
}

// Clear drops every entry.
func (c *TransformCache) Clear() {
	clear(c.entries)
}

// Len returns the number of cached renderings.
func (c *TransformCache) Len() int {
	return len(c.entries)
}
