package engine

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/JohnJulian65/Branded-Adobe-Duplicate/builder"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/extractor"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir/semantic"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/stamp"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/writer"
)

// fixturePDF builds a one-page document with "test" occurring three times and
// serializes it.
func fixturePDF(t *testing.T) []byte {
	t.Helper()
	doc, err := builder.NewBuilder().
		NewPage(612, 792).
		DrawText("This is a test document with test text.", 72, 700, builder.TextOptions{FontSize: 12}).
		DrawText("Another Test line here.", 72, 650, builder.TextOptions{FontSize: 12}).
		DrawText("Nothing to see on this line.", 72, 600, builder.TextOptions{FontSize: 12}).
		Finish().
		Build()
	if err != nil {
		t.Fatalf("build fixture: %v", err)
	}
	var buf bytes.Buffer
	w := (&writer.WriterBuilder{}).Build()
	if err := w.Write(context.Background(), doc, &buf, writer.Config{}); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return buf.Bytes()
}

func extractAll(t *testing.T, pdf []byte) string {
	t.Helper()
	doc, err := ir.NewDefault().ParseBytes(context.Background(), pdf)
	if err != nil {
		t.Fatalf("reparse output: %v", err)
	}
	pages, err := extractor.Text(doc)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	var sb strings.Builder
	for _, p := range pages {
		sb.WriteString(p.Content)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func TestRedactRemovesEveryOccurrence(t *testing.T) {
	eng := New(Options{})
	input := fixturePDF(t)

	res, err := eng.Redact(context.Background(), input, RedactRequest{SearchText: "test"})
	if err != nil {
		t.Fatalf("redact: %v", err)
	}
	if res.Marked != 3 || res.Applied != 3 {
		t.Fatalf("marked %d applied %d, want 3/3 (case-insensitive)", res.Marked, res.Applied)
	}
	if len(res.PageErrors) != 0 {
		t.Fatalf("page errors: %v", res.PageErrors)
	}

	text := extractAll(t, res.Output)
	if strings.Contains(strings.ToLower(text), "test") {
		t.Fatalf("redacted output still mentions the term: %q", text)
	}
	if !strings.Contains(text, "Nothing to see on this line.") {
		t.Fatalf("unrelated text lost: %q", text)
	}
}

func TestRedactCaseSensitive(t *testing.T) {
	eng := New(Options{})
	input := fixturePDF(t)

	res, err := eng.Redact(context.Background(), input, RedactRequest{SearchText: "test", CaseSensitive: true})
	if err != nil {
		t.Fatalf("redact: %v", err)
	}
	// "Test" on the second line does not match.
	if res.Marked != 2 {
		t.Fatalf("marked %d, want 2", res.Marked)
	}
}

func TestRedactNoMatches(t *testing.T) {
	eng := New(Options{})
	input := fixturePDF(t)

	res, err := eng.Redact(context.Background(), input, RedactRequest{SearchText: "absent"})
	if err != nil {
		t.Fatalf("redact: %v", err)
	}
	if res.Marked != 0 || res.Applied != 0 {
		t.Fatalf("marked %d applied %d, want 0/0", res.Marked, res.Applied)
	}
	// Still a complete, reparsable document.
	text := extractAll(t, res.Output)
	if !strings.Contains(text, "Another Test line here.") {
		t.Fatalf("output mangled: %q", text)
	}
}

func TestRedactEmptySearchText(t *testing.T) {
	eng := New(Options{})
	_, err := eng.Redact(context.Background(), fixturePDF(t), RedactRequest{})
	if KindOf(err) != KindInputConstraint {
		t.Fatalf("kind = %v, want input_constraint", KindOf(err))
	}
}

func TestRedactInputTooLarge(t *testing.T) {
	eng := New(Options{Limits: Limits{MaxInputBytes: 16}})
	_, err := eng.Redact(context.Background(), fixturePDF(t), RedactRequest{SearchText: "x"})
	if KindOf(err) != KindResourceLimit {
		t.Fatalf("kind = %v, want resource_limit", KindOf(err))
	}
}

func TestRedactTooManyPages(t *testing.T) {
	b := builder.NewBuilder()
	for i := 0; i < 3; i++ {
		b.NewPage(100, 100).Finish()
	}
	doc, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	var buf bytes.Buffer
	w := (&writer.WriterBuilder{}).Build()
	if err := w.Write(context.Background(), doc, &buf, writer.Config{}); err != nil {
		t.Fatalf("write: %v", err)
	}

	eng := New(Options{Limits: Limits{MaxPages: 2}})
	_, err = eng.Redact(context.Background(), buf.Bytes(), RedactRequest{SearchText: "x"})
	if KindOf(err) != KindResourceLimit {
		t.Fatalf("kind = %v, want resource_limit", KindOf(err))
	}
}

func TestRedactGarbageInput(t *testing.T) {
	eng := New(Options{})
	_, err := eng.Redact(context.Background(), []byte("not a pdf at all"), RedactRequest{SearchText: "x"})
	if KindOf(err) != KindParse {
		t.Fatalf("kind = %v, want parse", KindOf(err))
	}
}

func TestRedactCancelledContext(t *testing.T) {
	eng := New(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := eng.Redact(ctx, fixturePDF(t), RedactRequest{SearchText: "x"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestStampOverlaysText(t *testing.T) {
	eng := New(Options{})
	input := fixturePDF(t)

	out, err := eng.Stamp(context.Background(), input, stamp.Spec{
		Text:     "CONFIDENTIAL",
		FontSize: 48,
		Opacity:  0.5,
	})
	if err != nil {
		t.Fatalf("stamp: %v", err)
	}

	text := extractAll(t, out)
	if !strings.Contains(text, "CONFIDENTIAL") {
		t.Fatalf("stamp text missing: %q", text)
	}
	if !strings.Contains(text, "This is a test document with test text.") {
		t.Fatalf("existing content lost: %q", text)
	}

	// The alpha graphics state survives serialization.
	doc, err := ir.NewDefault().ParseBytes(context.Background(), out)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	found := false
	for _, gs := range doc.Pages[0].Resources.ExtGStates {
		if gs.FillAlpha != nil && *gs.FillAlpha == 0.5 {
			found = true
		}
	}
	if !found {
		t.Fatalf("alpha graphics state lost")
	}
}

func TestStampInvalidSpec(t *testing.T) {
	eng := New(Options{})
	_, err := eng.Stamp(context.Background(), fixturePDF(t), stamp.Spec{FontSize: 48})
	if KindOf(err) != KindInputConstraint {
		t.Fatalf("kind = %v, want input_constraint", KindOf(err))
	}
}

func TestStampScriptedPlacement(t *testing.T) {
	eng := New(Options{})
	out, err := eng.Stamp(context.Background(), fixturePDF(t), stamp.Spec{
		Text:      "DRAFT",
		FontSize:  20,
		Opacity:   0.3,
		Placement: stamp.PlaceScript,
		Script:    `({x: 30, y: page.height - 40})`,
	})
	if err != nil {
		t.Fatalf("stamp: %v", err)
	}
	if !strings.Contains(extractAll(t, out), "DRAFT") {
		t.Fatalf("scripted stamp missing")
	}
}

func TestRedactThenStampIsIrreversible(t *testing.T) {
	eng := New(Options{})
	res, err := eng.Redact(context.Background(), fixturePDF(t), RedactRequest{SearchText: "test"})
	if err != nil {
		t.Fatalf("redact: %v", err)
	}

	// Reparse the redacted bytes and dig through every content stream: the
	// term must be gone from the file, not merely hidden behind a fill.
	doc, err := ir.NewDefault().ParseBytes(context.Background(), res.Output)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	for _, page := range doc.Pages {
		for _, cs := range page.Contents {
			for _, op := range cs.Operations {
				for _, operand := range op.Operands {
					if s, ok := operand.(semantic.StringOperand); ok {
						if strings.Contains(strings.ToLower(string(s.Value)), "test") {
							t.Fatalf("term still present in content stream: %q", s.Value)
						}
					}
				}
			}
		}
	}
}

func TestErrorKinds(t *testing.T) {
	base := newError(KindParse, "broken", errors.New("cause"))
	if KindOf(base) != KindParse {
		t.Fatalf("KindOf = %v", KindOf(base))
	}
	if KindOf(errors.New("plain")) != KindInternal {
		t.Fatalf("plain errors should map to internal")
	}
	if !errors.Is(base, &Error{Kind: KindParse}) {
		t.Fatalf("Is should match by kind")
	}
	if errors.Is(base, &Error{Kind: KindSerialization}) {
		t.Fatalf("Is matched the wrong kind")
	}
	if got := KindParse.String(); got != "parse" {
		t.Fatalf("String = %q", got)
	}
}

func TestWorkerPoolCoversAllPages(t *testing.T) {
	b := builder.NewBuilder()
	for i := 0; i < 8; i++ {
		b.NewPage(612, 792).
			DrawText("remove me please", 72, 700, builder.TextOptions{FontSize: 12}).
			Finish()
	}
	doc, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	var buf bytes.Buffer
	w := (&writer.WriterBuilder{}).Build()
	if err := w.Write(context.Background(), doc, &buf, writer.Config{}); err != nil {
		t.Fatalf("write: %v", err)
	}

	eng := New(Options{Workers: 2})
	res, err := eng.Redact(context.Background(), buf.Bytes(), RedactRequest{SearchText: "remove me"})
	if err != nil {
		t.Fatalf("redact: %v", err)
	}
	if res.Marked != 8 || res.Applied != 8 {
		t.Fatalf("marked %d applied %d, want 8/8", res.Marked, res.Applied)
	}
}
