package fonts

import (
	"bytes"
	"unicode"

	"github.com/go-text/typesetting/di"
	gofont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
)

// ShapedGlyph is a single positioned glyph produced by the shaper.
// Advances and offsets are in 1/1000 em.
type ShapedGlyph struct {
	ID       int
	Cluster  int
	XAdvance float64
	YAdvance float64
	XOffset  float64
	YOffset  float64
}

// ShapeText shapes text against an embedded TrueType program. Callers with a
// base-14 font should use MeasureString instead; shaping needs real outlines.
func ShapeText(text string, fontData []byte) ([]ShapedGlyph, error) {
	if len(fontData) == 0 || text == "" {
		return nil, nil
	}
	face, err := gofont.ParseTTF(bytes.NewReader(fontData))
	if err != nil {
		return nil, err
	}

	runes := []rune(text)
	script := detectScript(runes)
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: scriptDirection(script),
		Face:      face,
		// Shape at 1000 units per em so advances come out in PDF glyph space.
		Size:     fixed.Int26_6(1000 * 64),
		Script:   script,
		Language: language.DefaultLanguage(),
	}

	output := (&shaping.HarfbuzzShaper{}).Shape(input)
	result := make([]ShapedGlyph, 0, len(output.Glyphs))
	for _, g := range output.Glyphs {
		result = append(result, ShapedGlyph{
			ID:       int(g.GlyphID),
			Cluster:  int(g.ClusterIndex),
			XAdvance: float64(g.XAdvance) / 64.0,
			YAdvance: float64(g.YAdvance) / 64.0,
			XOffset:  float64(g.XOffset) / 64.0,
			YOffset:  float64(g.YOffset) / 64.0,
		})
	}
	return result, nil
}

// MeasureShaped returns the shaped width of text at the given size, using
// the embedded program's real advances.
func MeasureShaped(text string, fontData []byte, size float64) (float64, error) {
	glyphs, err := ShapeText(text, fontData)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, g := range glyphs {
		total += g.XAdvance
	}
	return total / 1000.0 * size, nil
}

func scriptDirection(script language.Script) di.Direction {
	switch script {
	case language.Arabic, language.Hebrew, language.Syriac, language.Thaana, language.Nko:
		return di.DirectionRTL
	default:
		return di.DirectionLTR
	}
}

func detectScript(runes []rune) language.Script {
	counts := make(map[language.Script]int)
	maxCount := 0
	best := language.Latin
	for _, r := range runes {
		script := scriptFromRune(r)
		if script == language.Unknown {
			continue
		}
		counts[script]++
		if counts[script] > maxCount {
			maxCount = counts[script]
			best = script
		}
	}
	return best
}

func scriptFromRune(r rune) language.Script {
	switch {
	case unicode.Is(unicode.Latin, r):
		return language.Latin
	case unicode.Is(unicode.Arabic, r):
		return language.Arabic
	case unicode.Is(unicode.Hebrew, r):
		return language.Hebrew
	case unicode.Is(unicode.Cyrillic, r):
		return language.Cyrillic
	case unicode.Is(unicode.Greek, r):
		return language.Greek
	case unicode.Is(unicode.Han, r):
		return language.Han
	case unicode.Is(unicode.Hiragana, r):
		return language.Hiragana
	case unicode.Is(unicode.Katakana, r):
		return language.Katakana
	case unicode.Is(unicode.Hangul, r):
		return language.Hangul
	}
	return language.Unknown
}
