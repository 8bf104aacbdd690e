// Package stamp overlays text on pages. A stamp is purely additive: it
// appends one self-contained content stream per page and registers the
// resources it needs, never touching existing content.
package stamp

import (
	"context"
	"fmt"
	"math"

	"github.com/JohnJulian65/Branded-Adobe-Duplicate/coords"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/fonts"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir/semantic"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/scripting"
)

// PlacementMode selects where the stamp lands on each page.
type PlacementMode int

const (
	// PlaceCenter centers the run on the page, measuring the text width
	// from font metrics.
	PlaceCenter PlacementMode = iota
	// PlaceAnchor puts the text origin at a fixed point, the same on
	// every page.
	PlaceAnchor
	// PlaceScript asks a JavaScript hook for a per-page position.
	PlaceScript
)

// Spec describes one stamp. Zero value is not valid; Text is required.
type Spec struct {
	Text     string
	FontSize float64
	Opacity  float64
	Color    semantic.Color
	Rotation float64 // degrees, counter-clockwise

	Placement PlacementMode
	Anchor    coords.Point // used by PlaceAnchor
	Script    string       // used by PlaceScript

	// FontFile optionally carries a TrueType program. When set the stamp
	// uses its metrics and the writer embeds it; otherwise built-in
	// Helvetica metrics apply.
	FontFile []byte
}

// Validate rejects a spec before any page is touched.
func (s Spec) Validate() error {
	if s.Text == "" {
		return fmt.Errorf("stamp: empty text")
	}
	if s.FontSize <= 0 {
		return fmt.Errorf("stamp: font size %v out of range", s.FontSize)
	}
	if s.Opacity < 0 || s.Opacity > 1 {
		return fmt.Errorf("stamp: opacity %v outside [0,1]", s.Opacity)
	}
	if s.Placement == PlaceScript && s.Script == "" {
		return fmt.Errorf("stamp: script placement without script")
	}
	if len(s.FontFile) > 0 {
		if _, err := fonts.LoadTrueType("Stamp", s.FontFile); err != nil {
			return fmt.Errorf("stamp: font file: %w", err)
		}
	}
	return nil
}

// Stamper applies a spec to documents. It owns the script engine, so one
// Stamper serves one goroutine at a time.
type Stamper struct {
	engine scripting.Engine
}

func New() *Stamper {
	return &Stamper{engine: scripting.NewEngine()}
}

// fontName is the resource name the stamp registers on each page it touches.
// A counter suffix avoids clobbering the page's own fonts.
const (
	fontPrefix = "StampF"
	gsPrefix   = "StampGS"
)

// Apply stamps every page of the document. All-or-nothing: the spec is
// validated and, for script placement, every page's placement is resolved
// before the first mutation.
func (st *Stamper) Apply(ctx context.Context, doc *semantic.Document, spec Spec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	placements := make([]scripting.Placement, len(doc.Pages))
	for i, page := range doc.Pages {
		p, err := st.placement(ctx, page, spec)
		if err != nil {
			return fmt.Errorf("stamp: page %d placement: %w", page.Index, err)
		}
		placements[i] = p
	}

	for i, page := range doc.Pages {
		if placements[i].Skip {
			continue
		}
		stampPage(page, spec, placements[i])
	}
	return nil
}

func (st *Stamper) placement(ctx context.Context, page *semantic.Page, spec Spec) (scripting.Placement, error) {
	bounds := page.Bounds()
	switch spec.Placement {
	case PlaceAnchor:
		return scripting.Placement{X: spec.Anchor.X, Y: spec.Anchor.Y, Rotation: spec.Rotation}, nil
	case PlaceScript:
		info := scripting.PageInfo{
			Index:  page.Index,
			Width:  bounds.Width(),
			Height: bounds.Height(),
		}
		p, err := st.engine.Evaluate(ctx, spec.Script, info)
		if err != nil {
			return scripting.Placement{}, err
		}
		p.X += bounds.LLX
		p.Y += bounds.LLY
		return p, nil
	default: // PlaceCenter
		width := textWidth(spec)
		cx := bounds.LLX + bounds.Width()/2
		cy := bounds.LLY + bounds.Height()/2
		return scripting.Placement{X: cx - width/2, Y: cy, Rotation: spec.Rotation}, nil
	}
}

// textWidth measures the run in page units.
func textWidth(spec Spec) float64 {
	if len(spec.FontFile) > 0 {
		if w, err := fonts.MeasureShaped(spec.Text, spec.FontFile, spec.FontSize); err == nil {
			return w
		}
	}
	return fonts.MeasureString(nil, spec.Text, spec.FontSize)
}

// stampPage appends the overlay stream and its resources to one page.
func stampPage(page *semantic.Page, spec Spec, place scripting.Placement) {
	res := page.EnsureResources()

	gsName := freshName(gsPrefix, func(n string) bool { _, ok := res.ExtGStates[n]; return ok })
	alpha := spec.Opacity
	res.ExtGStates[gsName] = semantic.ExtGState{FillAlpha: &alpha, StrokeAlpha: &alpha}

	fontName := freshName(fontPrefix, func(n string) bool { _, ok := res.Fonts[n]; return ok })
	res.Fonts[fontName] = stampFont(spec)

	rad := place.Rotation * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)

	ops := []semantic.Operation{
		{Operator: "q"},
		{Operator: "gs", Operands: []semantic.Operand{semantic.NameOperand{Value: gsName}}},
		{Operator: "BT"},
		{Operator: "rg", Operands: []semantic.Operand{
			semantic.NumberOperand{Value: spec.Color.R},
			semantic.NumberOperand{Value: spec.Color.G},
			semantic.NumberOperand{Value: spec.Color.B},
		}},
		{Operator: "Tf", Operands: []semantic.Operand{
			semantic.NameOperand{Value: fontName},
			semantic.NumberOperand{Value: spec.FontSize},
		}},
		{Operator: "Tm", Operands: []semantic.Operand{
			semantic.NumberOperand{Value: cos},
			semantic.NumberOperand{Value: sin},
			semantic.NumberOperand{Value: -sin},
			semantic.NumberOperand{Value: cos},
			semantic.NumberOperand{Value: place.X},
			semantic.NumberOperand{Value: place.Y},
		}},
		{Operator: "Tj", Operands: []semantic.Operand{semantic.StringOperand{Value: []byte(spec.Text)}}},
		{Operator: "ET"},
		{Operator: "Q"},
	}

	page.Contents = append(page.Contents, semantic.ContentStream{Operations: ops})
}

func stampFont(spec Spec) *semantic.Font {
	if len(spec.FontFile) > 0 {
		if f, err := fonts.LoadTrueType("Stamp", spec.FontFile); err == nil {
			return f
		}
	}
	return &semantic.Font{Subtype: "Type1", BaseFont: "Helvetica"}
}

// freshName returns prefix, or prefix with the lowest numeric suffix that
// the taken predicate rejects.
func freshName(prefix string, taken func(string) bool) string {
	if !taken(prefix) {
		return prefix
	}
	for i := 1; ; i++ {
		name := fmt.Sprintf("%s%d", prefix, i)
		if !taken(name) {
			return name
		}
	}
}
