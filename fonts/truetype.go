package fonts

import (
	"fmt"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir/semantic"
)

// LoadTrueType parses a TrueType program into a font resource with metrics,
// a Latin-1 width table, and the embedded program for the writer.
func LoadTrueType(name string, data []byte) (*semantic.Font, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse sfnt: %w", err)
	}

	upem := f.UnitsPerEm()
	ppem := fixed.Int26_6(int32(upem) << 6)
	buf := &sfnt.Buffer{}

	metrics, err := f.Metrics(buf, ppem, font.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("font metrics: %w", err)
	}
	bounds, err := f.Bounds(buf, ppem, font.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("font bounds: %w", err)
	}

	if name == "" {
		if n, err := f.Name(buf, sfnt.NameIDPostScript); err == nil {
			name = n
		} else {
			name = "Embedded"
		}
	}

	widths := make(map[int]int)
	for code := 32; code <= 255; code++ {
		gi, err := f.GlyphIndex(buf, rune(code))
		if err != nil || gi == 0 {
			continue
		}
		adv, err := f.GlyphAdvance(buf, gi, ppem, font.HintingNone)
		if err != nil {
			continue
		}
		widths[code] = int(scaleUnits(adv, upem))
	}

	return &semantic.Font{
		Subtype:   "TrueType",
		BaseFont:  name,
		Encoding:  "WinAnsiEncoding",
		FirstChar: 32,
		Widths:    widths,
		Descriptor: &semantic.FontDescriptor{
			Flags:       32, // Nonsymbolic
			Ascent:      scaleUnits(metrics.Ascent, upem),
			Descent:     -scaleUnits(metrics.Descent, upem),
			CapHeight:   scaleUnits(metrics.CapHeight, upem),
			StemV:       80,
			ItalicAngle: 0,
			FontBBox: semantic.Rectangle{
				LLX: scaleUnits(bounds.Min.X, upem),
				LLY: -scaleUnits(bounds.Max.Y, upem),
				URX: scaleUnits(bounds.Max.X, upem),
				URY: -scaleUnits(bounds.Min.Y, upem),
			},
			FontFile: data,
		},
	}, nil
}

// scaleUnits converts a fixed-point value expressed at ppem == unitsPerEm
// into 1/1000 em.
func scaleUnits(v fixed.Int26_6, upem sfnt.Units) float64 {
	if upem == 0 {
		return 0
	}
	return float64(v) / 64.0 / float64(upem) * 1000.0
}
