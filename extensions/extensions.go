// Package extensions hosts document transforms behind a phased hub.
// Inspect runs before anything mutates, Transform carries the mutations,
// Validate runs last. Extensions in one phase execute in priority order.
package extensions

import (
	"context"
	"sort"

	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir/semantic"
)

type Phase int

const (
	PhaseInspect Phase = iota
	PhaseTransform
	PhaseValidate
)

func (p Phase) String() string { return []string{"Inspect", "Transform", "Validate"}[p] }

type Extension interface {
	Name() string
	Phase() Phase
	Priority() int
	Execute(ctx context.Context, doc *semantic.Document) error
}

// InspectionReport is what an Inspect-phase extension learns about a
// document before mutation.
type InspectionReport struct {
	PageCount  int
	FontCount  int
	ImageCount int
	Version    string
}

// Inspector is an Inspect-phase extension that produces a report.
type Inspector interface {
	Extension
	Inspect(ctx context.Context, doc *semantic.Document) (*InspectionReport, error)
}

type Hub interface {
	Register(ext Extension) error
	Execute(ctx context.Context, doc *semantic.Document) error
	Extensions(phase Phase) []Extension
}

type HubImpl struct {
	exts map[Phase][]Extension
}

func NewHub() *HubImpl { return &HubImpl{exts: make(map[Phase][]Extension)} }

func (h *HubImpl) Register(ext Extension) error {
	ph := ext.Phase()
	h.exts[ph] = append(h.exts[ph], ext)
	sort.SliceStable(h.exts[ph], func(i, j int) bool { return h.exts[ph][i].Priority() < h.exts[ph][j].Priority() })
	return nil
}

func (h *HubImpl) Execute(ctx context.Context, doc *semantic.Document) error {
	phases := []Phase{PhaseInspect, PhaseTransform, PhaseValidate}
	for _, ph := range phases {
		for _, e := range h.exts[ph] {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := e.Execute(ctx, doc); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *HubImpl) Extensions(phase Phase) []Extension {
	return append([]Extension(nil), h.exts[phase]...)
}
