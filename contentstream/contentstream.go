package contentstream

import (
	"errors"

	"github.com/JohnJulian65/Branded-Adobe-Duplicate/coords"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir/semantic"
)

// GraphicsState tracks the parts of the PDF graphics state the tracer needs.
type GraphicsState struct {
	CTM   coords.Matrix
	stack []*GraphicsState
}

func (gs *GraphicsState) Save() { clone := *gs; gs.stack = append(gs.stack, &clone) }

func (gs *GraphicsState) Restore() error {
	n := len(gs.stack)
	if n == 0 {
		return errors.New("graphics state stack empty")
	}
	*gs = *gs.stack[n-1]
	gs.stack = gs.stack[:n-1]
	return nil
}

// TextState tracks the text object state between BT and ET.
type TextState struct {
	Font           *semantic.Font
	FontSize       float64
	Leading        float64
	TextMatrix     coords.Matrix
	TextLineMatrix coords.Matrix
}
