package contentstream

import "github.com/JohnJulian65/Branded-Adobe-Duplicate/ir/semantic"

// PageOp addresses a traced operation within a page: which content stream it
// lives in and its index there, plus the trace result.
type PageOp struct {
	Stream   int
	Index    int
	Kind     OpKind
	Name     string
	Text     string
	FontSize float64
	Rect     semantic.Rectangle
}

// TracePage traces all of a page's content streams as one logical stream,
// the way a viewer concatenates them, and maps results back to per-stream
// operation indices.
func TracePage(page *semantic.Page) ([]PageOp, error) {
	var combined []semantic.Operation
	var origin []struct{ stream, index int }
	for si := range page.Contents {
		for oi := range page.Contents[si].Operations {
			combined = append(combined, page.Contents[si].Operations[oi])
			origin = append(origin, struct{ stream, index int }{si, oi})
		}
	}
	if len(combined) == 0 {
		return nil, nil
	}

	bboxes, err := NewTracer().Trace(combined, page.Resources)
	if err != nil {
		return nil, err
	}

	out := make([]PageOp, 0, len(bboxes))
	for _, bb := range bboxes {
		o := origin[bb.OpIndex]
		out = append(out, PageOp{
			Stream:   o.stream,
			Index:    o.index,
			Kind:     bb.Kind,
			Name:     bb.Name,
			Text:     bb.Text,
			FontSize: bb.FontSize,
			Rect:     bb.Rect,
		})
	}
	return out, nil
}
