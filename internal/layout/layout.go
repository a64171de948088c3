package layout

import (
	"encoding/json"
	"sort"
)

// Layout is one page and the images placed on it. Slice order is paint
// order and ZIndex always equals the slice index. The selection, when set,
// always names an image in the layout.
type Layout struct {
	Page       Page
	images     []*PlacedImage
	selectedID string
}

// New returns an empty layout on a page of the given size.
func New(size PaperSize) *Layout {
	return &Layout{Page: NewPage(size)}
}

// Default returns an empty A4 layout.
func Default() *Layout {
	return New(Named(PaperA4))
}

// Images returns the images in paint order. Callers must not reorder or
// resize the returned slice.
func (l *Layout) Images() []*PlacedImage {
	return l.images
}

// Len returns the number of placed images.
func (l *Layout) Len() int {
	return len(l.images)
}

// AddImage appends img on top of every existing image.
func (l *Layout) AddImage(img *PlacedImage) {
	img.ZIndex = len(l.images)
	l.images = append(l.images, img)
}

// RemoveImage removes the image with id and returns it. Remaining images
// are reindexed and a selection on the removed image is cleared.
func (l *Layout) RemoveImage(id string) (*PlacedImage, bool) {
	i := l.indexOf(id)
	if i < 0 {
		return nil, false
	}
	img := l.images[i]
	l.images = append(l.images[:i], l.images[i+1:]...)
	l.reindex()
	if l.selectedID == id {
		l.selectedID = ""
	}
	return img, true
}

// Image returns the image with id, or nil.
func (l *Layout) Image(id string) *PlacedImage {
	if i := l.indexOf(id); i >= 0 {
		return l.images[i]
	}
	return nil
}

// ImageAt returns the topmost image whose unrotated box contains the point.
func (l *Layout) ImageAt(xMM, yMM float64) *PlacedImage {
	for i := len(l.images) - 1; i >= 0; i-- {
		if l.images[i].ContainsPoint(xMM, yMM) {
			return l.images[i]
		}
	}
	return nil
}

// SelectedID returns the selected image id, or "".
func (l *Layout) SelectedID() string {
	return l.selectedID
}

// Selected returns the selected image, or nil.
func (l *Layout) Selected() *PlacedImage {
	if l.selectedID == "" {
		return nil
	}
	return l.Image(l.selectedID)
}

// Select marks id as selected. Unknown ids leave the selection unchanged.
func (l *Layout) Select(id string) bool {
	if l.indexOf(id) < 0 {
		return false
	}
	l.selectedID = id
	return true
}

// ClearSelection deselects any image.
func (l *Layout) ClearSelection() {
	l.selectedID = ""
}

// BringToFront moves id to the top of the paint order.
func (l *Layout) BringToFront(id string) bool {
	i := l.indexOf(id)
	if i < 0 {
		return false
	}
	img := l.images[i]
	l.images = append(l.images[:i], l.images[i+1:]...)
	l.images = append(l.images, img)
	l.reindex()
	return true
}

// SendToBack moves id to the bottom of the paint order.
func (l *Layout) SendToBack(id string) bool {
	i := l.indexOf(id)
	if i < 0 {
		return false
	}
	img := l.images[i]
	copy(l.images[1:i+1], l.images[:i])
	l.images[0] = img
	l.reindex()
	return true
}

// LowDPIImages returns images whose effective density is below minDPI on
// either axis.
func (l *Layout) LowDPIImages(minDPI float64) []*PlacedImage {
	var low []*PlacedImage
	for _, img := range l.images {
		dx, dy := img.EffectiveDPI()
		if dx < minDPI || dy < minDPI {
			low = append(low, img)
		}
	}
	return low
}

// Clone returns a deep copy that shares nothing with l.
func (l *Layout) Clone() *Layout {
	c := &Layout{Page: l.Page, selectedID: l.selectedID}
	c.images = make([]*PlacedImage, len(l.images))
	for i, img := range l.images {
		cp := *img
		c.images[i] = &cp
	}
	return c
}

func (l *Layout) indexOf(id string) int {
	for i, img := range l.images {
		if img.ID == id {
			return i
		}
	}
	return -1
}

func (l *Layout) reindex() {
	for i, img := range l.images {
		img.ZIndex = i
	}
}

type layoutJSON struct {
	Page            Page           `json:"page"`
	Images          []*PlacedImage `json:"images"`
	SelectedImageID *string        `json:"selected_image_id"`
}

// MarshalJSON implements json.Marshaler.
func (l *Layout) MarshalJSON() ([]byte, error) {
	out := layoutJSON{Page: l.Page, Images: l.images}
	if out.Images == nil {
		out.Images = []*PlacedImage{}
	}
	if l.selectedID != "" {
		id := l.selectedID
		out.SelectedImageID = &id
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler. Images are kept in stored
// z order and reindexed; a selection naming a missing image is dropped.
func (l *Layout) UnmarshalJSON(data []byte) error {
	var in layoutJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	imgs := make([]*PlacedImage, 0, len(in.Images))
	for _, img := range in.Images {
		if img != nil {
			imgs = append(imgs, img)
		}
	}
	sort.SliceStable(imgs, func(i, j int) bool { return imgs[i].ZIndex < imgs[j].ZIndex })
	*l = Layout{Page: in.Page, images: imgs}
	l.reindex()
	if in.SelectedImageID != nil {
		l.Select(*in.SelectedImageID)
	}
	return nil
}
