package scripting

import (
	"context"
	"fmt"

	"github.com/dop251/goja"
)

// GojaEngine runs placement scripts on a goja JavaScript runtime. An engine
// holds one runtime and is not safe for concurrent use; create one per
// worker.
type GojaEngine struct {
	vm *goja.Runtime
}

func NewEngine() *GojaEngine {
	return &GojaEngine{vm: goja.New()}
}

func (e *GojaEngine) Evaluate(ctx context.Context, script string, page PageInfo) (Placement, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return Placement{}, err
	}

	pageObj := e.vm.NewObject()
	if err := pageObj.Set("index", page.Index); err != nil {
		return Placement{}, err
	}
	if err := pageObj.Set("width", page.Width); err != nil {
		return Placement{}, err
	}
	if err := pageObj.Set("height", page.Height); err != nil {
		return Placement{}, err
	}
	if err := e.vm.Set("page", pageObj); err != nil {
		return Placement{}, err
	}

	done := make(chan struct{})
	defer close(done)
	defer e.vm.ClearInterrupt()

	go func() {
		select {
		case <-ctx.Done():
			e.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	val, err := e.vm.RunString(script)
	if err != nil {
		if interrupted, ok := err.(*goja.InterruptedError); ok {
			if cause := interrupted.Unwrap(); cause != nil {
				return Placement{}, cause
			}
			return Placement{}, context.Canceled
		}
		return Placement{}, fmt.Errorf("scripting: %w", err)
	}
	return exportPlacement(val, page)
}

// exportPlacement reads {x, y, rotation, skip} from the script result.
// Missing x/y default to the page center.
func exportPlacement(val goja.Value, page PageInfo) (Placement, error) {
	p := Placement{X: page.Width / 2, Y: page.Height / 2}
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return p, fmt.Errorf("scripting: script returned no placement")
	}
	obj, ok := val.Export().(map[string]interface{})
	if !ok {
		return p, fmt.Errorf("scripting: script must return an object, got %T", val.Export())
	}
	if v, ok := toFloat(obj["x"]); ok {
		p.X = v
	}
	if v, ok := toFloat(obj["y"]); ok {
		p.Y = v
	}
	if v, ok := toFloat(obj["rotation"]); ok {
		p.Rotation = v
	}
	if v, ok := obj["skip"].(bool); ok {
		p.Skip = v
	}
	return p, nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}
