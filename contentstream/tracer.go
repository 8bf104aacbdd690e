package contentstream

import (
	"math"

	"github.com/JohnJulian65/Branded-Adobe-Duplicate/coords"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/fonts"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir/semantic"
)

// OpKind classifies a traced operation for region-based editing.
type OpKind int

const (
	OpText OpKind = iota
	OpPath
	OpImage
)

// OpBBox is the device-space bounding box of one operation. Text show
// operations also carry their decoded text and active font size, so callers
// get geometry and content from a single walk.
type OpBBox struct {
	OpIndex  int
	Kind     OpKind
	Name     string // resource name for OpImage
	Text     string // decoded text for OpText
	FontSize float64
	Rect     semantic.Rectangle
}

// Tracer virtually executes a content stream and reports the bounding box of
// every content-producing operation (text show, rectangle paths, XObjects).
type Tracer struct{}

func NewTracer() *Tracer { return &Tracer{} }

// Trace walks ops and returns their bounding boxes in device space.
func (t *Tracer) Trace(ops []semantic.Operation, resources *semantic.Resources) ([]OpBBox, error) {
	bboxes := make([]OpBBox, 0, len(ops))
	gs := &GraphicsState{CTM: coords.Identity()}
	ts := &TextState{TextMatrix: coords.Identity(), TextLineMatrix: coords.Identity()}

	for i, op := range ops {
		switch op.Operator {
		case "q":
			gs.Save()
		case "Q":
			if err := gs.Restore(); err != nil {
				return nil, err
			}
		case "cm":
			if len(op.Operands) == 6 {
				gs.CTM = operandsToMatrix(op.Operands).Multiply(gs.CTM)
			}

		case "BT":
			ts.TextMatrix = coords.Identity()
			ts.TextLineMatrix = coords.Identity()
		case "ET":

		case "Tf":
			if len(op.Operands) == 2 {
				if name, ok := op.Operands[0].(semantic.NameOperand); ok && resources != nil {
					ts.Font = resources.Fonts[name.Value]
				}
				if size, ok := op.Operands[1].(semantic.NumberOperand); ok {
					ts.FontSize = size.Value
				}
			}
		case "TL":
			if len(op.Operands) == 1 {
				ts.Leading = operandToFloat(op.Operands[0])
			}
		case "Tm":
			if len(op.Operands) == 6 {
				ts.TextLineMatrix = operandsToMatrix(op.Operands)
				ts.TextMatrix = ts.TextLineMatrix
			}
		case "Td", "TD":
			if len(op.Operands) == 2 {
				tx := operandToFloat(op.Operands[0])
				ty := operandToFloat(op.Operands[1])
				if op.Operator == "TD" {
					ts.Leading = -ty
				}
				ts.TextLineMatrix = coords.Translate(tx, ty).Multiply(ts.TextLineMatrix)
				ts.TextMatrix = ts.TextLineMatrix
			}
		case "T*":
			ts.TextLineMatrix = coords.Translate(0, -ts.Leading).Multiply(ts.TextLineMatrix)
			ts.TextMatrix = ts.TextLineMatrix

		case "Tj", "'", "\"":
			if n := len(op.Operands); n > 0 {
				if op.Operator != "Tj" {
					ts.TextLineMatrix = coords.Translate(0, -ts.Leading).Multiply(ts.TextLineMatrix)
					ts.TextMatrix = ts.TextLineMatrix
				}
				if str, ok := op.Operands[n-1].(semantic.StringOperand); ok {
					rect, adv := textShowRect(str.Value, ts, gs)
					bboxes = append(bboxes, OpBBox{
						OpIndex:  i,
						Kind:     OpText,
						Text:     decodeText(str.Value),
						FontSize: ts.FontSize,
						Rect:     rect,
					})
					ts.TextMatrix = coords.Translate(adv, 0).Multiply(ts.TextMatrix)
				}
			}
		case "TJ":
			if len(op.Operands) == 1 {
				if arr, ok := op.Operands[0].(semantic.ArrayOperand); ok {
					rect, adv := arrayShowRect(arr.Values, ts, gs)
					var text []byte
					for _, it := range arr.Values {
						if s, ok := it.(semantic.StringOperand); ok {
							text = append(text, s.Value...)
						}
					}
					bboxes = append(bboxes, OpBBox{
						OpIndex:  i,
						Kind:     OpText,
						Text:     decodeText(text),
						FontSize: ts.FontSize,
						Rect:     rect,
					})
					ts.TextMatrix = coords.Translate(adv, 0).Multiply(ts.TextMatrix)
				}
			}

		case "re":
			if len(op.Operands) == 4 {
				x := operandToFloat(op.Operands[0])
				y := operandToFloat(op.Operands[1])
				w := operandToFloat(op.Operands[2])
				h := operandToFloat(op.Operands[3])
				rect := transformedRect(gs.CTM, x, y, x+w, y+h)
				bboxes = append(bboxes, OpBBox{OpIndex: i, Kind: OpPath, Rect: rect})
			}

		case "Do":
			if len(op.Operands) == 1 && resources != nil {
				if name, ok := op.Operands[0].(semantic.NameOperand); ok {
					xo, found := resources.XObjects[name.Value]
					if !found {
						break
					}
					kind := OpImage
					if xo.Subtype == "Form" {
						kind = OpPath
					}
					// XObjects paint the unit square transformed by the CTM.
					rect := transformedRect(gs.CTM, 0, 0, 1, 1)
					bboxes = append(bboxes, OpBBox{OpIndex: i, Kind: kind, Name: name.Value, Rect: rect})
				}
			}
		}
	}

	return bboxes, nil
}

// textShowRect returns the device-space box of a show operation and the text
// space x-advance it produces.
func textShowRect(text []byte, ts *TextState, gs *GraphicsState) (semantic.Rectangle, float64) {
	width := 0.0
	for _, b := range text {
		width += fonts.AdvanceWidth(ts.Font, b)
	}
	width = width / 1000.0 * ts.FontSize
	return showBox(width, ts, gs), width
}

func arrayShowRect(items []semantic.Operand, ts *TextState, gs *GraphicsState) (semantic.Rectangle, float64) {
	total := 0.0
	for _, it := range items {
		switch v := it.(type) {
		case semantic.StringOperand:
			for _, b := range v.Value {
				total += fonts.AdvanceWidth(ts.Font, b)
			}
		case semantic.NumberOperand:
			total -= v.Value // TJ adjustments subtract from the advance
		}
	}
	width := total / 1000.0 * ts.FontSize
	return showBox(width, ts, gs), width
}

// showBox spans the glyph box from the descent line to the ascent line so the
// reported rectangle covers what the text actually paints.
func showBox(width float64, ts *TextState, gs *GraphicsState) semantic.Rectangle {
	descent, ascent := fonts.VerticalExtent(ts.Font)
	y0 := descent / 1000.0 * ts.FontSize
	y1 := ascent / 1000.0 * ts.FontSize
	m := ts.TextMatrix.Multiply(gs.CTM)
	return pointsToRect(
		m.Transform(coords.Point{X: 0, Y: y0}),
		m.Transform(coords.Point{X: width, Y: y0}),
		m.Transform(coords.Point{X: 0, Y: y1}),
		m.Transform(coords.Point{X: width, Y: y1}),
	)
}

func transformedRect(m coords.Matrix, x0, y0, x1, y1 float64) semantic.Rectangle {
	return pointsToRect(
		m.Transform(coords.Point{X: x0, Y: y0}),
		m.Transform(coords.Point{X: x1, Y: y0}),
		m.Transform(coords.Point{X: x0, Y: y1}),
		m.Transform(coords.Point{X: x1, Y: y1}),
	)
}

func pointsToRect(points ...coords.Point) semantic.Rectangle {
	minX, minY := math.MaxFloat64, math.MaxFloat64
	maxX, maxY := -math.MaxFloat64, -math.MaxFloat64
	for _, p := range points {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return semantic.Rectangle{LLX: minX, LLY: minY, URX: maxX, URY: maxY}
}

func operandsToMatrix(ops []semantic.Operand) coords.Matrix {
	return coords.Matrix{
		operandToFloat(ops[0]),
		operandToFloat(ops[1]),
		operandToFloat(ops[2]),
		operandToFloat(ops[3]),
		operandToFloat(ops[4]),
		operandToFloat(ops[5]),
	}
}

func operandToFloat(op semantic.Operand) float64 {
	if n, ok := op.(semantic.NumberOperand); ok {
		return n.Value
	}
	return 0
}

// decodeText maps string bytes of a simple font to text, treating each code
// as its Latin-1 code point. Composite-font CMaps are out of scope.
func decodeText(b []byte) string {
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}
