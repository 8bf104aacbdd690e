package extensions

import (
	"context"

	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir/semantic"
)

// BasicInspector counts pages, fonts and images. Callers that enforce
// resource limits read its report before letting transforms run.
type BasicInspector struct {
	Report InspectionReport
}

func (i *BasicInspector) Name() string  { return "BasicInspector" }
func (i *BasicInspector) Phase() Phase  { return PhaseInspect }
func (i *BasicInspector) Priority() int { return 100 }

func (i *BasicInspector) Execute(ctx context.Context, doc *semantic.Document) error {
	report, err := i.Inspect(ctx, doc)
	if err != nil {
		return err
	}
	i.Report = *report
	return nil
}

func (i *BasicInspector) Inspect(_ context.Context, doc *semantic.Document) (*InspectionReport, error) {
	report := &InspectionReport{
		PageCount: len(doc.Pages),
		Version:   doc.Version,
	}
	for _, p := range doc.Pages {
		if p.Resources == nil {
			continue
		}
		report.FontCount += len(p.Resources.Fonts)
		for _, xo := range p.Resources.XObjects {
			if xo.Subtype == "Image" {
				report.ImageCount++
			}
		}
	}
	return report, nil
}

// TransformFunc adapts a function into a Transform-phase extension.
type TransformFunc struct {
	ExtName     string
	ExtPriority int
	Fn          func(ctx context.Context, doc *semantic.Document) error
}

func (t *TransformFunc) Name() string  { return t.ExtName }
func (t *TransformFunc) Phase() Phase  { return PhaseTransform }
func (t *TransformFunc) Priority() int { return t.ExtPriority }
func (t *TransformFunc) Execute(ctx context.Context, doc *semantic.Document) error {
	return t.Fn(ctx, doc)
}
