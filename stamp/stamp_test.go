package stamp

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/JohnJulian65/Branded-Adobe-Duplicate/builder"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/coords"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/extractor"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir/semantic"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/writer"
)

func twoPageDoc(t *testing.T) *semantic.Document {
	t.Helper()
	b := builder.NewBuilder()
	b.NewPage(595, 842).
		DrawText("Original Content", 100, 742, builder.TextOptions{FontSize: 12}).
		Finish()
	b.NewPage(595, 842).Finish() // empty pages are valid stamp targets
	doc, err := b.Build()
	if err != nil {
		t.Fatalf("build fixture: %v", err)
	}
	return doc
}

func TestSpecValidate(t *testing.T) {
	tests := []struct {
		name    string
		spec    Spec
		wantErr bool
	}{
		{"valid", Spec{Text: "CONFIDENTIAL", FontSize: 60, Opacity: 0.5}, false},
		{"zero opacity still valid", Spec{Text: "X", FontSize: 10}, false},
		{"empty text", Spec{FontSize: 10}, true},
		{"zero font size", Spec{Text: "X"}, true},
		{"negative font size", Spec{Text: "X", FontSize: -4}, true},
		{"opacity above one", Spec{Text: "X", FontSize: 10, Opacity: 1.5}, true},
		{"negative opacity", Spec{Text: "X", FontSize: 10, Opacity: -0.1}, true},
		{"script placement without script", Spec{Text: "X", FontSize: 10, Placement: PlaceScript}, true},
		{"corrupt font file", Spec{Text: "X", FontSize: 10, FontFile: []byte("not a font")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyStampsEveryPage(t *testing.T) {
	doc := twoPageDoc(t)
	spec := Spec{Text: "CONFIDENTIAL", FontSize: 60, Opacity: 0.5}

	if err := New().Apply(context.Background(), doc, spec); err != nil {
		t.Fatalf("apply: %v", err)
	}

	for _, page := range doc.Pages {
		runs, err := extractor.Runs(page)
		if err != nil {
			t.Fatalf("page %d extract: %v", page.Index, err)
		}
		found := false
		for _, r := range runs {
			if strings.Contains(r.Text, "CONFIDENTIAL") {
				found = true
				if r.FontSize != 60 {
					t.Fatalf("stamp font size = %v, want 60", r.FontSize)
				}
			}
		}
		if !found {
			t.Fatalf("page %d missing stamp text", page.Index)
		}

		// The overlay lives in its own appended content stream with the
		// alpha graphics state applied.
		last := page.Contents[len(page.Contents)-1]
		if last.Operations[0].Operator != "q" || last.Operations[1].Operator != "gs" {
			t.Fatalf("page %d overlay starts with %v", page.Index, last.Operations[:2])
		}
		foundAlpha := false
		for _, gs := range page.Resources.ExtGStates {
			if gs.FillAlpha != nil && *gs.FillAlpha == 0.5 {
				foundAlpha = true
			}
		}
		if !foundAlpha {
			t.Fatalf("page %d missing alpha graphics state", page.Index)
		}
	}

	// Existing content untouched.
	runs, err := extractor.Runs(doc.Pages[0])
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if runs[0].Text != "Original Content" {
		t.Fatalf("original run disturbed: %+v", runs[0])
	}
}

func TestApplyIsAdditive(t *testing.T) {
	doc := twoPageDoc(t)
	spec := Spec{Text: "DRAFT", FontSize: 30, Opacity: 0.2}

	st := New()
	if err := st.Apply(context.Background(), doc, spec); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if err := st.Apply(context.Background(), doc, spec); err != nil {
		t.Fatalf("second apply: %v", err)
	}

	runs, err := extractor.Runs(doc.Pages[1])
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	count := 0
	for _, r := range runs {
		if r.Text == "DRAFT" {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("got %d stamp runs, want 2 (stamping accumulates)", count)
	}
}

func TestApplyAnchorPlacement(t *testing.T) {
	doc := twoPageDoc(t)
	spec := Spec{
		Text:      "APPROVED",
		FontSize:  20,
		Opacity:   1,
		Placement: PlaceAnchor,
		Anchor:    coords.Point{X: 50, Y: 40},
	}

	if err := New().Apply(context.Background(), doc, spec); err != nil {
		t.Fatalf("apply: %v", err)
	}

	for _, page := range doc.Pages {
		runs, err := extractor.Runs(page)
		if err != nil {
			t.Fatalf("page %d extract: %v", page.Index, err)
		}
		found := false
		for _, r := range runs {
			if r.Text == "APPROVED" {
				found = true
				if r.Rect.LLX != 50 {
					t.Fatalf("page %d stamp x = %v, want 50", page.Index, r.Rect.LLX)
				}
			}
		}
		if !found {
			t.Fatalf("page %d missing anchored stamp", page.Index)
		}
	}
}

func TestApplyScriptPlacement(t *testing.T) {
	doc := twoPageDoc(t)
	spec := Spec{
		Text:      "PAGE STAMP",
		FontSize:  14,
		Opacity:   0.8,
		Placement: PlaceScript,
		Script:    `({x: 10 + page.index * 5, y: 20, rotation: 0, skip: page.index == 1})`,
	}

	if err := New().Apply(context.Background(), doc, spec); err != nil {
		t.Fatalf("apply: %v", err)
	}

	runs, err := extractor.Runs(doc.Pages[0])
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	found := false
	for _, r := range runs {
		if r.Text == "PAGE STAMP" {
			found = true
			if r.Rect.LLX < 9 || r.Rect.LLX > 11 {
				t.Fatalf("stamp x = %v, want ~10", r.Rect.LLX)
			}
		}
	}
	if !found {
		t.Fatalf("page 0 missing scripted stamp")
	}

	runs, err = extractor.Runs(doc.Pages[1])
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	for _, r := range runs {
		if r.Text == "PAGE STAMP" {
			t.Fatalf("page 1 should be skipped")
		}
	}
}

func TestApplyRotatedStampSurvivesRewrite(t *testing.T) {
	// A 90° rotation puts cos(90°) ≈ 6.1e-17 into the Tm matrix. If the
	// writer rendered it in exponent notation the reparsed stream would
	// tokenize "e-17" as an operator and the stamp text would be lost.
	doc := twoPageDoc(t)
	spec := Spec{Text: "VOID", FontSize: 40, Opacity: 0.5, Rotation: 90}

	if err := New().Apply(context.Background(), doc, spec); err != nil {
		t.Fatalf("apply: %v", err)
	}

	var buf bytes.Buffer
	w := (&writer.WriterBuilder{}).Build()
	if err := w.Write(context.Background(), doc, &buf, writer.Config{}); err != nil {
		t.Fatalf("write: %v", err)
	}

	reparsed, err := ir.NewDefault().ParseBytes(context.Background(), buf.Bytes())
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	for _, page := range reparsed.Pages {
		found := false
		for _, cs := range page.Contents {
			for _, op := range cs.Operations {
				if op.Operator == "Tm" && len(op.Operands) != 6 {
					t.Fatalf("page %d Tm has %d operands, want 6", page.Index, len(op.Operands))
				}
			}
		}
		runs, err := extractor.Runs(page)
		if err != nil {
			t.Fatalf("page %d extract: %v", page.Index, err)
		}
		for _, r := range runs {
			if strings.Contains(r.Text, "VOID") {
				found = true
			}
		}
		if !found {
			t.Fatalf("page %d lost rotated stamp after rewrite", page.Index)
		}
	}
}

func TestApplyScriptErrorIsAtomic(t *testing.T) {
	doc := twoPageDoc(t)
	before := len(doc.Pages[0].Contents)
	spec := Spec{
		Text:      "X",
		FontSize:  10,
		Placement: PlaceScript,
		// Fails on the second page, after the first page's placement
		// succeeded. Nothing may be mutated.
		Script: `(function(){ if (page.index === 1) { throw new Error("boom"); } return {x: 1, y: 1}; })()`,
	}

	if err := New().Apply(context.Background(), doc, spec); err == nil {
		t.Fatalf("expected script error")
	}
	if len(doc.Pages[0].Contents) != before {
		t.Fatalf("page 0 mutated despite script failure")
	}
}
