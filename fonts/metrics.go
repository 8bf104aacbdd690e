package fonts

import "github.com/JohnJulian65/Branded-Adobe-Duplicate/ir/semantic"

// Helvetica AFM advance widths for character codes 32..126, in 1/1000 em.
// The engine's default stamp font and the fallback for unembedded base fonts.
var helveticaWidths = [95]int{
	278, 278, 355, 556, 556, 889, 667, 191, 333, 333, 389, 584, 278, 333,
	278, 278, 556, 556, 556, 556, 556, 556, 556, 556, 556, 556, 278, 278,
	584, 584, 584, 556, 1015, 667, 667, 722, 722, 667, 611, 778, 722, 278,
	500, 667, 556, 833, 722, 778, 667, 778, 722, 667, 611, 722, 667, 944,
	667, 667, 611, 278, 278, 278, 469, 556, 333, 556, 556, 500, 556, 556,
	278, 556, 556, 222, 222, 500, 222, 833, 556, 556, 556, 556, 333, 500,
	278, 556, 500, 722, 500, 500, 500, 334, 260, 334, 584,
}

const (
	helveticaAscent  = 718.0
	helveticaDescent = -207.0
	defaultWidth     = 500.0
)

// AdvanceWidth returns the advance of a character code in 1/1000 em for the
// given font, falling back to Helvetica metrics and then to a neutral width.
func AdvanceWidth(f *semantic.Font, code byte) float64 {
	if f != nil && f.Widths != nil {
		if w, ok := f.Widths[int(code)]; ok {
			return float64(w)
		}
	}
	if w, ok := standardWidth(code); ok {
		return w
	}
	return defaultWidth
}

func standardWidth(code byte) (float64, bool) {
	if code >= 32 && code <= 126 {
		return float64(helveticaWidths[code-32]), true
	}
	return 0, false
}

// VerticalExtent returns the descent and ascent of a font in 1/1000 em.
// Descent is negative (below the baseline).
func VerticalExtent(f *semantic.Font) (descent, ascent float64) {
	if f != nil && f.Descriptor != nil && f.Descriptor.Ascent != 0 {
		return f.Descriptor.Descent, f.Descriptor.Ascent
	}
	return helveticaDescent, helveticaAscent
}

// MeasureString returns the rendered width of s at the given font size.
func MeasureString(f *semantic.Font, s string, size float64) float64 {
	total := 0.0
	for _, b := range []byte(s) {
		total += AdvanceWidth(f, b)
	}
	return total / 1000.0 * size
}

// StandardWidths returns the Helvetica width table keyed by character code,
// for callers that serialize a base-font Widths array.
func StandardWidths() map[int]int {
	out := make(map[int]int, len(helveticaWidths))
	for i, w := range helveticaWidths {
		out[i+32] = w
	}
	return out
}
