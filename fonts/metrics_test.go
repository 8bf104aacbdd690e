package fonts

import (
	"math"
	"testing"

	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir/semantic"
)

func TestAdvanceWidthFallbacks(t *testing.T) {
	withWidths := &semantic.Font{Widths: map[int]int{'A': 600}}

	tests := []struct {
		name string
		font *semantic.Font
		code byte
		want float64
	}{
		{"font widths win", withWidths, 'A', 600},
		{"helvetica fallback", withWidths, 'B', 667},
		{"nil font uses helvetica", nil, ' ', 278},
		{"outside table uses default", nil, 0x01, 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AdvanceWidth(tt.font, tt.code); got != tt.want {
				t.Fatalf("AdvanceWidth = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMeasureString(t *testing.T) {
	// "AB" in Helvetica: 667 + 667 thousandths at 10pt.
	want := (667.0 + 667.0) / 1000 * 10
	if got := MeasureString(nil, "AB", 10); math.Abs(got-want) > 1e-9 {
		t.Fatalf("MeasureString = %v, want %v", got, want)
	}
}

func TestVerticalExtent(t *testing.T) {
	descent, ascent := VerticalExtent(nil)
	if descent >= 0 || ascent <= 0 {
		t.Fatalf("extent = (%v, %v), want negative descent and positive ascent", descent, ascent)
	}

	custom := &semantic.Font{Descriptor: &semantic.FontDescriptor{Ascent: 800, Descent: -150}}
	descent, ascent = VerticalExtent(custom)
	if descent != -150 || ascent != 800 {
		t.Fatalf("extent = (%v, %v), want (-150, 800)", descent, ascent)
	}
}

func TestStandardWidthsTable(t *testing.T) {
	w := StandardWidths()
	if w[' '] != 278 || w['A'] != 667 || w['~'] != 584 {
		t.Fatalf("unexpected widths: space=%d A=%d ~=%d", w[' '], w['A'], w['~'])
	}
}

func TestShapeTextEmptyInputs(t *testing.T) {
	glyphs, err := ShapeText("", []byte("not empty"))
	if err != nil || glyphs != nil {
		t.Fatalf("empty text: glyphs=%v err=%v", glyphs, err)
	}
	glyphs, err = ShapeText("text", nil)
	if err != nil || glyphs != nil {
		t.Fatalf("no font data: glyphs=%v err=%v", glyphs, err)
	}
}
