// Package layout holds the print-layout document model: one page and the
// images placed on it.
package layout

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PaperKind identifies a named paper size. PaperCustom carries its own
// dimensions in PaperSize.
type PaperKind int

const (
	PaperA0 PaperKind = iota
	PaperA1
	PaperA2
	PaperA3
	PaperA4
	PaperA5
	PaperA6
	PaperA7
	PaperA8
	PaperA9
	PaperA10
	PaperB0
	PaperB1
	PaperB2
	PaperB3
	PaperB4
	PaperB5
	PaperB6
	PaperB7
	PaperB8
	PaperB9
	PaperB10
	PaperLetter
	PaperLegal
	PaperTabloid
	PaperLedger
	PaperPhoto3_5x5
	PaperPhoto4x6
	PaperPhoto5x5
	PaperPhoto5x7
	PaperPhoto7x10
	PaperPhoto8x10
	PaperPhoto10x12
	PaperPhoto11x17
	PaperPhoto12x12
	PaperPhoto13x19
	PaperPanorama
	PaperCustom
)

type paperInfo struct {
	name     string
	media    string
	widthMM  float64
	heightMM float64
}

const inch = 25.4

// paperTable maps every named kind to its portrait dimensions in mm and
// the spooler media keyword.
var paperTable = map[PaperKind]paperInfo{
	PaperA0:  {"A0", "A0", 841, 1189},
	PaperA1:  {"A1", "A1", 594, 841},
	PaperA2:  {"A2", "A2", 420, 594},
	PaperA3:  {"A3", "A3", 297, 420},
	PaperA4:  {"A4", "A4", 210, 297},
	PaperA5:  {"A5", "A5", 148, 210},
	PaperA6:  {"A6", "A6", 105, 148},
	PaperA7:  {"A7", "A7", 74, 105},
	PaperA8:  {"A8", "A8", 52, 74},
	PaperA9:  {"A9", "A9", 37, 52},
	PaperA10: {"A10", "A10", 26, 37},
	PaperB0:  {"B0", "B0", 1000, 1414},
	PaperB1:  {"B1", "B1", 707, 1000},
	PaperB2:  {"B2", "B2", 500, 707},
	PaperB3:  {"B3", "B3", 353, 500},
	PaperB4:  {"B4", "B4", 250, 353},
	PaperB5:  {"B5", "B5", 176, 250},
	PaperB6:  {"B6", "B6", 125, 176},
	PaperB7:  {"B7", "B7", 88, 125},
	PaperB8:  {"B8", "B8", 62, 88},
	PaperB9:  {"B9", "B9", 44, 62},
	PaperB10: {"B10", "B10", 31, 44},

	PaperLetter:  {"Letter", "Letter", 8.5 * inch, 11 * inch},
	PaperLegal:   {"Legal", "Legal", 8.5 * inch, 14 * inch},
	PaperTabloid: {"Tabloid", "Tabloid", 11 * inch, 17 * inch},
	PaperLedger:  {"Ledger", "Ledger", 17 * inch, 11 * inch},

	PaperPhoto3_5x5: {"3.5x5", "3.5x5", 3.5 * inch, 5 * inch},
	PaperPhoto4x6:   {"4x6", "4x6", 4 * inch, 6 * inch},
	PaperPhoto5x5:   {"5x5", "5x5", 5 * inch, 5 * inch},
	PaperPhoto5x7:   {"5x7", "5x7", 5 * inch, 7 * inch},
	PaperPhoto7x10:  {"7x10", "7x10", 7 * inch, 10 * inch},
	PaperPhoto8x10:  {"8x10", "8x10", 8 * inch, 10 * inch},
	PaperPhoto10x12: {"10x12", "10x12", 10 * inch, 12 * inch},
	PaperPhoto11x17: {"11x17", "11x17", 11 * inch, 17 * inch},
	PaperPhoto12x12: {"12x12", "12x12", 12 * inch, 12 * inch},
	PaperPhoto13x19: {"13x19", "13x19", 13 * inch, 19 * inch},
	PaperPanorama:   {"Panorama", "Custom.210x594mm", 210, 594},
}

// PaperSize is a named paper size or a custom one. For PaperCustom the
// dimensions live in WidthMM and HeightMM; for named kinds they are ignored
// and the fixed table is used.
type PaperSize struct {
	Kind     PaperKind
	WidthMM  float64
	HeightMM float64
}

// Named returns the PaperSize for a named kind.
func Named(kind PaperKind) PaperSize {
	return PaperSize{Kind: kind}
}

// Custom returns a custom paper size. Non-positive or non-finite values
// are rejected.
func Custom(widthMM, heightMM float64) (PaperSize, error) {
	if !positiveFinite(widthMM) || !positiveFinite(heightMM) {
		return PaperSize{}, fmt.Errorf("custom paper size must be positive: %gx%g mm", widthMM, heightMM)
	}
	return PaperSize{Kind: PaperCustom, WidthMM: widthMM, HeightMM: heightMM}, nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// Dimensions returns (width, height) in millimeters, portrait as listed.
func (p PaperSize) Dimensions() (float64, float64) {
	if p.Kind == PaperCustom {
		return p.WidthMM, p.HeightMM
	}
	info, ok := paperTable[p.Kind]
	if !ok {
		info = paperTable[PaperA4]
	}
	return info.widthMM, info.heightMM
}

// Name returns the display name, e.g. "A4", "4x6" or "Custom 100x150mm".
func (p PaperSize) Name() string {
	if p.Kind == PaperCustom {
		return fmt.Sprintf("Custom %sx%smm", formatMM(p.WidthMM), formatMM(p.HeightMM))
	}
	if info, ok := paperTable[p.Kind]; ok {
		return info.name
	}
	return "Unknown"
}

func (p PaperSize) String() string { return p.Name() }

// MediaKeyword returns the value passed to the spooler as media=<keyword>.
func (p PaperSize) MediaKeyword() string {
	if p.Kind == PaperCustom {
		return fmt.Sprintf("Custom.%sx%smm", formatMM(p.WidthMM), formatMM(p.HeightMM))
	}
	if info, ok := paperTable[p.Kind]; ok {
		return info.media
	}
	return "A4"
}

func formatMM(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// PaperSizes returns every named size in catalogue order.
func PaperSizes() []PaperSize {
	sizes := make([]PaperSize, 0, int(PaperCustom))
	for k := PaperA0; k < PaperCustom; k++ {
		sizes = append(sizes, Named(k))
	}
	return sizes
}

// ParsePaperSize accepts a catalogue name (case-insensitive) or
// "<w>x<h>mm" for a custom size.
func ParsePaperSize(s string) (PaperSize, error) {
	name := strings.TrimSpace(s)
	for k := PaperA0; k < PaperCustom; k++ {
		if strings.EqualFold(paperTable[k].name, name) {
			return Named(k), nil
		}
	}
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, "mm") {
		w, h, ok := strings.Cut(strings.TrimSuffix(lower, "mm"), "x")
		if ok {
			wv, errW := strconv.ParseFloat(strings.TrimSpace(w), 64)
			hv, errH := strconv.ParseFloat(strings.TrimSpace(h), 64)
			if errW == nil && errH == nil {
				return Custom(wv, hv)
			}
		}
	}
	return PaperSize{}, fmt.Errorf("unknown paper size %q", s)
}

// paperSizeJSON is the persisted form: a name for catalogue sizes, plus
// dimensions for custom ones.
type paperSizeJSON struct {
	Name     string  `json:"name"`
	WidthMM  float64 `json:"width_mm,omitempty"`
	HeightMM float64 `json:"height_mm,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (p PaperSize) MarshalJSON() ([]byte, error) {
	if p.Kind == PaperCustom {
		return json.Marshal(paperSizeJSON{Name: "Custom", WidthMM: p.WidthMM, HeightMM: p.HeightMM})
	}
	return json.Marshal(paperSizeJSON{Name: p.Name()})
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *PaperSize) UnmarshalJSON(data []byte) error {
	var raw paperSizeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if strings.EqualFold(raw.Name, "Custom") {
		ps, err := Custom(raw.WidthMM, raw.HeightMM)
		if err != nil {
			return err
		}
		*p = ps
		return nil
	}
	ps, err := ParsePaperSize(raw.Name)
	if err != nil {
		return err
	}
	*p = ps
	return nil
}
