package redact

import (
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir/semantic"
)

// quadTree is a spatial index over operation bounding boxes. Rectangles that
// straddle a subdivision boundary stay at the interior node.
type quadTree struct {
	bounds   semantic.Rectangle
	capacity int
	entries  []quadEntry
	nodes    []*quadTree
}

type quadEntry struct {
	rect semantic.Rectangle
	ref  int
}

func newQuadTree(bounds semantic.Rectangle, capacity int) *quadTree {
	return &quadTree{
		bounds:   bounds,
		capacity: capacity,
		entries:  make([]quadEntry, 0, capacity),
	}
}

func (qt *quadTree) insert(rect semantic.Rectangle, ref int) bool {
	if !qt.bounds.Intersects(rect) {
		return false
	}

	if qt.nodes != nil {
		for _, node := range qt.nodes {
			if node.bounds.Contains(rect) {
				if node.insert(rect, ref) {
					return true
				}
			}
		}
	}

	if qt.nodes == nil {
		if len(qt.entries) < qt.capacity {
			qt.entries = append(qt.entries, quadEntry{rect: rect, ref: ref})
			return true
		}
		qt.subdivide()
		old := qt.entries
		qt.entries = make([]quadEntry, 0, qt.capacity)
		for _, e := range old {
			qt.insert(e.rect, e.ref)
		}
		return qt.insert(rect, ref)
	}

	// Overlaps a subdivision boundary; keep it here.
	qt.entries = append(qt.entries, quadEntry{rect: rect, ref: ref})
	return true
}

func (qt *quadTree) subdivide() {
	xMid := (qt.bounds.LLX + qt.bounds.URX) / 2
	yMid := (qt.bounds.LLY + qt.bounds.URY) / 2

	qt.nodes = []*quadTree{
		newQuadTree(semantic.Rectangle{LLX: qt.bounds.LLX, LLY: yMid, URX: xMid, URY: qt.bounds.URY}, qt.capacity),
		newQuadTree(semantic.Rectangle{LLX: xMid, LLY: yMid, URX: qt.bounds.URX, URY: qt.bounds.URY}, qt.capacity),
		newQuadTree(semantic.Rectangle{LLX: qt.bounds.LLX, LLY: qt.bounds.LLY, URX: xMid, URY: yMid}, qt.capacity),
		newQuadTree(semantic.Rectangle{LLX: xMid, LLY: qt.bounds.LLY, URX: qt.bounds.URX, URY: yMid}, qt.capacity),
	}
}

func (qt *quadTree) query(rangeRect semantic.Rectangle) []int {
	var found []int
	if !qt.bounds.Intersects(rangeRect) {
		return found
	}

	for _, e := range qt.entries {
		if e.rect.Intersects(rangeRect) {
			found = append(found, e.ref)
		}
	}

	if qt.nodes != nil {
		for _, node := range qt.nodes {
			found = append(found, node.query(rangeRect)...)
		}
	}
	return found
}
