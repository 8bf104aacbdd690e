package redact

import (
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/contentstream"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir/semantic"
)

// opIndex is a spatial index over a page's traced operations.
type opIndex struct {
	tree *quadTree
	ops  []contentstream.PageOp
}

func indexPage(page *semantic.Page) (*opIndex, error) {
	ops, err := contentstream.TracePage(page)
	if err != nil {
		return nil, err
	}
	idx := &opIndex{
		tree: newQuadTree(page.Bounds(), 10),
		ops:  ops,
	}
	for i, op := range ops {
		idx.tree.insert(op.Rect, i)
	}
	return idx, nil
}

// query returns the traced operations whose bounding box intersects rect,
// deduplicated.
func (idx *opIndex) query(rect semantic.Rectangle) []contentstream.PageOp {
	refs := idx.tree.query(rect)
	seen := make(map[int]bool, len(refs))
	var hits []contentstream.PageOp
	for _, ref := range refs {
		if seen[ref] {
			continue
		}
		seen[ref] = true
		hits = append(hits, idx.ops[ref])
	}
	return hits
}
