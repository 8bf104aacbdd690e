package contentstream

import (
	"math"
	"testing"

	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir/semantic"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestTracerTextShow(t *testing.T) {
	ops, err := Parse([]byte("BT /F1 12 Tf 100 100 Td (AB) Tj ET"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	bboxes, err := NewTracer().Trace(ops, nil)
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	if len(bboxes) != 1 {
		t.Fatalf("got %d boxes, want 1", len(bboxes))
	}
	bb := bboxes[0]
	if bb.Kind != OpText || bb.Text != "AB" || bb.FontSize != 12 {
		t.Fatalf("box = %+v", bb)
	}

	// Helvetica: A and B are both 667/1000 em wide.
	wantWidth := (667.0 + 667.0) / 1000 * 12
	if !approx(bb.Rect.LLX, 100) || !approx(bb.Rect.URX, 100+wantWidth) {
		t.Fatalf("x span [%v, %v], want [100, %v]", bb.Rect.LLX, bb.Rect.URX, 100+wantWidth)
	}
	// Vertical span covers descent to ascent around the baseline at y=100.
	if !approx(bb.Rect.LLY, 100-207.0/1000*12) || !approx(bb.Rect.URY, 100+718.0/1000*12) {
		t.Fatalf("y span [%v, %v]", bb.Rect.LLY, bb.Rect.URY)
	}
}

func TestTracerConsecutiveShowsAdvance(t *testing.T) {
	ops, err := Parse([]byte("BT /F1 10 Tf 0 0 Td (A) Tj (B) Tj ET"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	bboxes, err := NewTracer().Trace(ops, nil)
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	if len(bboxes) != 2 {
		t.Fatalf("got %d boxes, want 2", len(bboxes))
	}
	if !approx(bboxes[1].Rect.LLX, bboxes[0].Rect.URX) {
		t.Fatalf("second show should start where the first ended: %v vs %v",
			bboxes[1].Rect.LLX, bboxes[0].Rect.URX)
	}
}

func TestTracerRectangleUnderCTM(t *testing.T) {
	ops, err := Parse([]byte("q 2 0 0 2 0 0 cm 10 10 30 40 re f Q"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	bboxes, err := NewTracer().Trace(ops, nil)
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	if len(bboxes) != 1 || bboxes[0].Kind != OpPath {
		t.Fatalf("boxes = %+v", bboxes)
	}
	want := semantic.Rectangle{LLX: 20, LLY: 20, URX: 80, URY: 100}
	if bboxes[0].Rect != want {
		t.Fatalf("rect = %v, want %v", bboxes[0].Rect, want)
	}
}

func TestTracerImagePlacement(t *testing.T) {
	res := &semantic.Resources{
		XObjects: map[string]semantic.XObject{
			"Im0": {Subtype: "Image", Width: 640, Height: 480},
		},
	}
	ops, err := Parse([]byte("q 100 0 0 50 200 300 cm /Im0 Do Q"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	bboxes, err := NewTracer().Trace(ops, res)
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	if len(bboxes) != 1 {
		t.Fatalf("got %d boxes, want 1", len(bboxes))
	}
	bb := bboxes[0]
	if bb.Kind != OpImage || bb.Name != "Im0" {
		t.Fatalf("box = %+v", bb)
	}
	want := semantic.Rectangle{LLX: 200, LLY: 300, URX: 300, URY: 350}
	if bb.Rect != want {
		t.Fatalf("rect = %v, want %v", bb.Rect, want)
	}
}

func TestTracePageMapsStreamIndices(t *testing.T) {
	first, err := Parse([]byte("q 2 0 0 2 0 0 cm"))
	if err != nil {
		t.Fatalf("parse first: %v", err)
	}
	second, err := Parse([]byte("10 10 5 5 re f Q"))
	if err != nil {
		t.Fatalf("parse second: %v", err)
	}
	page := &semantic.Page{
		MediaBox: semantic.Rectangle{URX: 612, URY: 792},
		Contents: []semantic.ContentStream{
			{Operations: first},
			{Operations: second},
		},
	}

	traced, err := TracePage(page)
	if err != nil {
		t.Fatalf("trace page: %v", err)
	}
	if len(traced) != 1 {
		t.Fatalf("got %d ops, want 1", len(traced))
	}
	op := traced[0]
	if op.Stream != 1 || op.Index != 0 {
		t.Fatalf("op addressed at stream %d index %d, want 1/0", op.Stream, op.Index)
	}
	// The cm from the first stream must carry into the second.
	want := semantic.Rectangle{LLX: 20, LLY: 20, URX: 30, URY: 30}
	if op.Rect != want {
		t.Fatalf("rect = %v, want %v", op.Rect, want)
	}
}
