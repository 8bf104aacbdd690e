// Package redact removes content from pages in two phases: Mark records
// regions on the page, Apply deletes every intersecting operation and paints
// an opaque fill over each region. Applied redactions are not reversible;
// the covered text and images are gone from the output, not hidden.
package redact

import (
	"errors"
	"fmt"
	"sort"

	"github.com/JohnJulian65/Branded-Adobe-Duplicate/contentstream"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir/semantic"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/search"
)

// DefaultOverlapThreshold is the fraction of an operation's own bounding box
// that must fall inside a marked region before the operation is deleted.
// Below it the glyph run merely grazes the region and survives.
const DefaultOverlapThreshold = 0.10

// ErrOutOfBounds is returned by Mark when the region lies entirely outside
// the page.
var ErrOutOfBounds = errors.New("redact: region outside page bounds")

// ImagePolicy decides what happens to images that intersect a marked region.
type ImagePolicy int

const (
	// ImageRemove deletes intersecting images from the page.
	ImageRemove ImagePolicy = iota
	// ImageKeep leaves images in place; the opaque fill still covers the
	// marked region visually, but the image data survives in the file.
	ImageKeep
)

// Options configure how a mark is recorded.
type Options struct {
	Fill   semantic.Color
	Images ImagePolicy
}

// Mark records a redaction region on the page. Nothing is removed until
// Apply runs. The region must intersect the page bounds and have area.
func Mark(page *semantic.Page, region semantic.Rectangle, opts Options) error {
	if region.Width() <= 0 || region.Height() <= 0 {
		return fmt.Errorf("redact: degenerate region %v", region)
	}
	if !region.Intersects(page.Bounds()) {
		return ErrOutOfBounds
	}
	page.Redactions = append(page.Redactions, semantic.RedactionMark{
		Region:       region,
		Fill:         opts.Fill,
		RemoveImages: opts.Images == ImageRemove,
	})
	return nil
}

// MarkMatches records one redaction mark per search match on the page.
// Matches belonging to other pages are skipped. Best effort within the page:
// a match that fails to mark is collected into the returned error and the
// rest still mark, so callers can Apply what is valid.
func MarkMatches(page *semantic.Page, matches []search.Match, opts Options) (int, error) {
	marked := 0
	var errs []error
	for _, m := range matches {
		if m.Page != page.Index {
			continue
		}
		if err := Mark(page, m.Rect, opts); err != nil {
			errs = append(errs, err)
			continue
		}
		marked++
	}
	return marked, errors.Join(errs...)
}

// streamPos addresses one operation in a page's content streams.
type streamPos struct {
	stream, index int
}

// Apply executes every pending mark on the page: content operations whose
// bounding box overlaps a marked region beyond threshold are deleted,
// intersecting images are removed or kept per the mark's policy, and an
// opaque fill rectangle is appended over each region. Marks are cleared, so
// a second Apply is a no-op. Returns the number of marks applied.
func Apply(page *semantic.Page, threshold float64) (int, error) {
	if len(page.Redactions) == 0 {
		return 0, nil
	}
	if threshold <= 0 {
		threshold = DefaultOverlapThreshold
	}

	idx, err := indexPage(page)
	if err != nil {
		return 0, fmt.Errorf("redact: index page %d: %w", page.Index, err)
	}

	doomed := make(map[streamPos]bool)
	removedImages := make(map[string]bool)
	for _, mark := range page.Redactions {
		for _, op := range idx.query(mark.Region) {
			switch op.Kind {
			case contentstream.OpImage:
				if !mark.RemoveImages {
					continue
				}
				doomed[streamPos{op.Stream, op.Index}] = true
				removedImages[op.Name] = true
			default:
				if op.Rect.OverlapRatio(mark.Region) > threshold {
					doomed[streamPos{op.Stream, op.Index}] = true
				}
			}
		}
	}

	deleteOperations(page, doomed)
	pruneImageResources(page, removedImages)

	for _, mark := range page.Redactions {
		appendFill(page, mark.Region.Intersect(page.Bounds()), mark.Fill)
	}

	applied := len(page.Redactions)
	page.Redactions = nil
	return applied, nil
}

func deleteOperations(page *semantic.Page, doomed map[streamPos]bool) {
	if len(doomed) == 0 {
		return
	}
	perStream := make(map[int][]int)
	for pos := range doomed {
		perStream[pos.stream] = append(perStream[pos.stream], pos.index)
	}
	for si, indices := range perStream {
		sort.Sort(sort.Reverse(sort.IntSlice(indices)))
		ops := page.Contents[si].Operations
		for _, i := range indices {
			if i >= 0 && i < len(ops) {
				ops = append(ops[:i], ops[i+1:]...)
			}
		}
		page.Contents[si].Operations = ops
	}
}

// pruneImageResources drops XObject entries whose every placement was
// deleted. A name still referenced by a surviving Do stays.
func pruneImageResources(page *semantic.Page, removed map[string]bool) {
	if len(removed) == 0 || page.Resources == nil {
		return
	}
	for _, cs := range page.Contents {
		for _, op := range cs.Operations {
			if op.Operator != "Do" || len(op.Operands) == 0 {
				continue
			}
			if name, ok := op.Operands[0].(semantic.NameOperand); ok {
				delete(removed, name.Value)
			}
		}
	}
	for name := range removed {
		delete(page.Resources.XObjects, name)
	}
}

// appendFill adds a self-contained content stream painting an opaque
// rectangle over region.
func appendFill(page *semantic.Page, region semantic.Rectangle, fill semantic.Color) {
	ops := []semantic.Operation{
		{Operator: "q"},
		{Operator: "rg", Operands: []semantic.Operand{
			semantic.NumberOperand{Value: fill.R},
			semantic.NumberOperand{Value: fill.G},
			semantic.NumberOperand{Value: fill.B},
		}},
		{Operator: "re", Operands: []semantic.Operand{
			semantic.NumberOperand{Value: region.LLX},
			semantic.NumberOperand{Value: region.LLY},
			semantic.NumberOperand{Value: region.Width()},
			semantic.NumberOperand{Value: region.Height()},
		}},
		{Operator: "f"},
		{Operator: "Q"},
	}
	page.Contents = append(page.Contents, semantic.ContentStream{Operations: ops})
}
