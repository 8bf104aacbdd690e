// Package scripting evaluates user-supplied placement scripts. A script sees
// one page at a time and returns where (and whether) to put content on it.
package scripting

import (
	"context"
)

// PageInfo is the read-only view of a page handed to a script.
type PageInfo struct {
	Index  int     `json:"index"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Placement is what a script returns for a page. Rotation is in degrees,
// counter-clockwise. Skip true leaves the page untouched.
type Placement struct {
	X        float64
	Y        float64
	Rotation float64
	Skip     bool
}

// Engine evaluates a placement script against a page.
type Engine interface {
	// Evaluate runs script with page bound as the global `page` object and
	// interprets its result as a Placement.
	Evaluate(ctx context.Context, script string, page PageInfo) (Placement, error)
}
