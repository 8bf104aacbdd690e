package redact

import (
	"errors"
	"strings"
	"testing"

	"github.com/JohnJulian65/Branded-Adobe-Duplicate/builder"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/extractor"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir/semantic"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/search"
)

func buildPage(t *testing.T) *semantic.Page {
	t.Helper()
	b := builder.NewBuilder()
	b.NewPage(612, 792).
		DrawText("public information", 72, 700, builder.TextOptions{FontSize: 12}).
		DrawText("secret payload", 72, 600, builder.TextOptions{FontSize: 12}).
		Finish()
	doc, err := b.Build()
	if err != nil {
		t.Fatalf("build fixture: %v", err)
	}
	return doc.Pages[0]
}

func pageText(t *testing.T, page *semantic.Page) string {
	t.Helper()
	runs, err := extractor.Runs(page)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	var parts []string
	for _, r := range runs {
		parts = append(parts, r.Text)
	}
	return strings.Join(parts, "\n")
}

func TestMarkValidation(t *testing.T) {
	page := buildPage(t)

	outside := semantic.Rectangle{LLX: 1000, LLY: 1000, URX: 1100, URY: 1100}
	if err := Mark(page, outside, Options{}); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("error = %v, want ErrOutOfBounds", err)
	}

	degenerate := semantic.Rectangle{LLX: 10, LLY: 10, URX: 10, URY: 20}
	if err := Mark(page, degenerate, Options{}); err == nil {
		t.Fatalf("expected error for degenerate region")
	}

	valid := semantic.Rectangle{LLX: 60, LLY: 590, URX: 300, URY: 620}
	if err := Mark(page, valid, Options{}); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if len(page.Redactions) != 1 {
		t.Fatalf("marks = %d, want 1", len(page.Redactions))
	}
}

func TestApplyRemovesCoveredText(t *testing.T) {
	page := buildPage(t)

	// Cover the "secret payload" run (baseline y=600).
	region := semantic.Rectangle{LLX: 60, LLY: 590, URX: 300, URY: 620}
	if err := Mark(page, region, Options{}); err != nil {
		t.Fatalf("mark: %v", err)
	}

	applied, err := Apply(page, 0)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if applied != 1 {
		t.Fatalf("applied = %d, want 1", applied)
	}

	text := pageText(t, page)
	if strings.Contains(text, "secret") {
		t.Fatalf("redacted text still present: %q", text)
	}
	if !strings.Contains(text, "public information") {
		t.Fatalf("untouched text lost: %q", text)
	}
	if len(page.Redactions) != 0 {
		t.Fatalf("marks not cleared")
	}

	// A fill rectangle was appended as its own content stream.
	last := page.Contents[len(page.Contents)-1]
	operators := make([]string, len(last.Operations))
	for i, op := range last.Operations {
		operators[i] = op.Operator
	}
	want := []string{"q", "rg", "re", "f", "Q"}
	if strings.Join(operators, " ") != strings.Join(want, " ") {
		t.Fatalf("fill stream operators = %v, want %v", operators, want)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	page := buildPage(t)
	region := semantic.Rectangle{LLX: 60, LLY: 590, URX: 300, URY: 620}
	if err := Mark(page, region, Options{}); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if _, err := Apply(page, 0); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	streams := len(page.Contents)

	applied, err := Apply(page, 0)
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if applied != 0 {
		t.Fatalf("second apply = %d, want 0", applied)
	}
	if len(page.Contents) != streams {
		t.Fatalf("second apply changed content streams")
	}
}

func TestApplyGrazingRunSurvives(t *testing.T) {
	page := buildPage(t)

	// A sliver that barely clips the bottom of the public run. The overlap
	// stays below the threshold, so the run survives.
	runs, err := extractor.Runs(page)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	top := runs[0].Rect
	sliver := semantic.Rectangle{LLX: top.LLX, LLY: top.LLY - 5, URX: top.URX, URY: top.LLY + 0.1}
	if err := Mark(page, sliver, Options{}); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if _, err := Apply(page, DefaultOverlapThreshold); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !strings.Contains(pageText(t, page), "public information") {
		t.Fatalf("grazed run should survive")
	}
}

func imagePage(t *testing.T) *semantic.Page {
	t.Helper()
	b := builder.NewBuilder()
	b.NewPage(612, 792).
		DrawImage("Im0", semantic.XObject{Subtype: "Image", Width: 10, Height: 10, Data: []byte{1, 2, 3}}, 100, 100, 200, 200).
		Finish()
	doc, err := b.Build()
	if err != nil {
		t.Fatalf("build fixture: %v", err)
	}
	return doc.Pages[0]
}

func TestApplyImagePolicyRemove(t *testing.T) {
	page := imagePage(t)
	region := semantic.Rectangle{LLX: 150, LLY: 150, URX: 180, URY: 180}
	if err := Mark(page, region, Options{Images: ImageRemove}); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if _, err := Apply(page, 0); err != nil {
		t.Fatalf("apply: %v", err)
	}

	images, err := extractor.Images(page)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(images) != 0 {
		t.Fatalf("image not removed: %+v", images)
	}
	if _, ok := page.Resources.XObjects["Im0"]; ok {
		t.Fatalf("image resource data not discarded")
	}
}

func TestApplyImagePolicyKeep(t *testing.T) {
	page := imagePage(t)
	region := semantic.Rectangle{LLX: 150, LLY: 150, URX: 180, URY: 180}
	if err := Mark(page, region, Options{Images: ImageKeep}); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if _, err := Apply(page, 0); err != nil {
		t.Fatalf("apply: %v", err)
	}

	images, err := extractor.Images(page)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(images) != 1 {
		t.Fatalf("kept image missing: %+v", images)
	}
}

func TestMarkMatches(t *testing.T) {
	page := buildPage(t)
	matches, err := search.FindPage(page, "secret", search.Options{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}

	marked, err := MarkMatches(page, matches, Options{})
	if err != nil {
		t.Fatalf("mark matches: %v", err)
	}
	if marked != 1 || len(page.Redactions) != 1 {
		t.Fatalf("marked = %d, pending = %d", marked, len(page.Redactions))
	}
}

func TestMarkMatchesBestEffort(t *testing.T) {
	page := buildPage(t)
	found, err := search.FindPage(page, "secret", search.Options{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	// An unmarkable region in the middle must not block the valid matches
	// around it.
	matches := []search.Match{
		found[0],
		{Page: page.Index, Rect: semantic.Rectangle{LLX: 1000, LLY: 1000, URX: 1100, URY: 1100}},
		{Page: page.Index, Rect: semantic.Rectangle{LLX: 60, LLY: 690, URX: 300, URY: 720}},
	}

	marked, err := MarkMatches(page, matches, Options{})
	if !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("error = %v, want ErrOutOfBounds", err)
	}
	if marked != 2 || len(page.Redactions) != 2 {
		t.Fatalf("marked = %d, pending = %d, want 2 and 2", marked, len(page.Redactions))
	}

	applied, err := Apply(page, 0)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if applied != 2 {
		t.Fatalf("applied = %d, want 2", applied)
	}
	if strings.Contains(pageText(t, page), "secret") {
		t.Fatalf("marked text survived apply")
	}
}

func TestQuadTreeQuery(t *testing.T) {
	qt := newQuadTree(semantic.Rectangle{URX: 1000, URY: 1000}, 4)
	rects := []semantic.Rectangle{
		{LLX: 10, LLY: 10, URX: 20, URY: 20},
		{LLX: 900, LLY: 900, URX: 950, URY: 950},
		{LLX: 490, LLY: 490, URX: 510, URY: 510}, // straddles the midpoint
		{LLX: 15, LLY: 15, URX: 25, URY: 25},
		{LLX: 30, LLY: 30, URX: 40, URY: 40},
		{LLX: 50, LLY: 50, URX: 60, URY: 60},
	}
	for i, r := range rects {
		if !qt.insert(r, i) {
			t.Fatalf("insert %d failed", i)
		}
	}

	hits := qt.query(semantic.Rectangle{LLX: 0, LLY: 0, URX: 100, URY: 100})
	seen := make(map[int]bool)
	for _, h := range hits {
		seen[h] = true
	}
	for _, want := range []int{0, 3, 4, 5} {
		if !seen[want] {
			t.Fatalf("query missed rect %d: %v", want, hits)
		}
	}
	if seen[1] {
		t.Fatalf("query returned far rect: %v", hits)
	}

	center := qt.query(semantic.Rectangle{LLX: 495, LLY: 495, URX: 505, URY: 505})
	found := false
	for _, h := range center {
		if h == 2 {
			found = true
		}
	}
	if !found {
		t.Fatalf("straddling rect not found: %v", center)
	}
}
