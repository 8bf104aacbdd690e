// Package engine orchestrates whole-document jobs: parse once, mutate pages
// through the extension hub, serialize once. Parse and serialize are
// all-or-nothing; per-page mutation is best effort.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/JohnJulian65/Branded-Adobe-Duplicate/extensions"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/filters"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir/semantic"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/observability"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/redact"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/search"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/stamp"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/writer"
)

// Limits bound what one job may consume. Zero means unlimited.
type Limits struct {
	MaxInputBytes       int64
	MaxPages            int
	MaxDecompressedSize int64
}

// Options configure an Engine. Zero value works: nop logging, one worker
// per CPU, no limits.
type Options struct {
	Logger  observability.Logger
	Tracer  observability.Tracer
	Workers int
	Limits  Limits

	// OverlapThreshold overrides redact.DefaultOverlapThreshold.
	OverlapThreshold float64
	// ContentFilter selects the output encoding for content streams.
	ContentFilter writer.ContentFilter
}

type Engine struct {
	opts   Options
	writer writer.Writer
}

func New(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = observability.NopLogger{}
	}
	if opts.Tracer == nil {
		opts.Tracer = observability.NopTracer()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Engine{opts: opts, writer: (&writer.WriterBuilder{}).Build()}
}

// RedactRequest describes one redaction job.
type RedactRequest struct {
	SearchText    string
	CaseSensitive bool
	RemoveImages  bool
	Fill          semantic.Color
}

// PageError records a per-page failure that did not abort the job.
type PageError struct {
	Page int
	Err  error
}

// RedactResult is the outcome of a redaction job. Marked counts the regions
// recorded across all pages; Applied counts the marks actually executed.
// Marked > Applied signals per-page failures, listed in PageErrors.
type RedactResult struct {
	Output     []byte
	Marked     int
	Applied    int
	PageErrors []PageError
}

// Redact finds every occurrence of the search text, marks it, applies all
// marks, and serializes the result. A page that fails to mark or apply is
// left unmodified and reported in PageErrors; parse and serialize failures
// abort the whole job with no output.
func (e *Engine) Redact(ctx context.Context, input []byte, req RedactRequest) (*RedactResult, error) {
	ctx, span := e.opts.Tracer.StartSpan(ctx, "engine.redact")
	defer span.Finish()

	if req.SearchText == "" {
		return nil, newError(KindInputConstraint, "empty search text", nil)
	}

	doc, err := e.parse(ctx, input)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	result := &RedactResult{}
	transform := &extensions.TransformFunc{
		ExtName: "redactor",
		Fn: func(ctx context.Context, doc *semantic.Document) error {
			result.Marked, result.Applied, result.PageErrors = e.redactPages(ctx, doc, req)
			return nil
		},
	}
	if err := e.runHub(ctx, doc, transform); err != nil {
		span.SetError(err)
		return nil, err
	}

	out, err := e.serialize(ctx, doc)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	result.Output = out

	e.opts.Logger.Info("redaction complete",
		observability.Int(observability.MetricPageCount, len(doc.Pages)),
		observability.Int(observability.MetricSearchMatches, result.Marked),
		observability.Int(observability.MetricMarksApplied, result.Applied),
		observability.Int(observability.MetricPageErrors, len(result.PageErrors)),
	)
	if result.Marked != result.Applied {
		e.opts.Logger.Warn("redaction discrepancy",
			observability.Int("requested", result.Marked),
			observability.Int("applied", result.Applied),
		)
	}
	return result, nil
}

// Stamp overlays spec's text on every page. Atomic: validation and script
// placement run before any page mutates; any failure yields no output.
func (e *Engine) Stamp(ctx context.Context, input []byte, spec stamp.Spec) ([]byte, error) {
	ctx, span := e.opts.Tracer.StartSpan(ctx, "engine.stamp")
	defer span.Finish()

	if err := spec.Validate(); err != nil {
		return nil, newError(KindInputConstraint, "invalid stamp", err)
	}

	doc, err := e.parse(ctx, input)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	transform := &extensions.TransformFunc{
		ExtName: "stamper",
		Fn: func(ctx context.Context, doc *semantic.Document) error {
			if err := stamp.New().Apply(ctx, doc, spec); err != nil {
				return newError(KindInputConstraint, "stamp failed", err)
			}
			return nil
		},
	}
	if err := e.runHub(ctx, doc, transform); err != nil {
		span.SetError(err)
		return nil, err
	}

	out, err := e.serialize(ctx, doc)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	e.opts.Logger.Info("stamp complete",
		observability.Int(observability.MetricStampedPages, len(doc.Pages)),
	)
	return out, nil
}

func (e *Engine) parse(ctx context.Context, input []byte) (*semantic.Document, error) {
	if e.opts.Limits.MaxInputBytes > 0 && int64(len(input)) > e.opts.Limits.MaxInputBytes {
		return nil, newError(KindResourceLimit,
			fmt.Sprintf("input %d bytes exceeds limit %d", len(input), e.opts.Limits.MaxInputBytes), nil)
	}

	pipeline := ir.New(ir.Config{
		Filters: filters.Limits{MaxDecompressedSize: e.opts.Limits.MaxDecompressedSize},
	})
	doc, err := pipeline.ParseBytes(ctx, input)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, newError(KindParse, "malformed document", err)
	}
	if e.opts.Limits.MaxPages > 0 && len(doc.Pages) > e.opts.Limits.MaxPages {
		return nil, newError(KindResourceLimit,
			fmt.Sprintf("%d pages exceeds limit %d", len(doc.Pages), e.opts.Limits.MaxPages), nil)
	}
	return doc, nil
}

// runHub executes the inspection audit and the job's transform through the
// extension hub.
func (e *Engine) runHub(ctx context.Context, doc *semantic.Document, transform extensions.Extension) error {
	hub := extensions.NewHub()
	inspector := &extensions.BasicInspector{}
	if err := hub.Register(inspector); err != nil {
		return newError(KindInternal, "register inspector", err)
	}
	if err := hub.Register(transform); err != nil {
		return newError(KindInternal, "register transform", err)
	}
	if err := hub.Execute(ctx, doc); err != nil {
		if kindOfIsTyped(err) {
			return err
		}
		return newError(KindInternal, "transform failed", err)
	}
	e.opts.Logger.Debug("document inspected",
		observability.Int("pages", inspector.Report.PageCount),
		observability.Int("fonts", inspector.Report.FontCount),
		observability.Int("images", inspector.Report.ImageCount),
	)
	return nil
}

func (e *Engine) serialize(ctx context.Context, doc *semantic.Document) ([]byte, error) {
	var buf bytes.Buffer
	cfg := writer.Config{ContentFilter: e.opts.ContentFilter}
	if err := e.writer.Write(ctx, doc, &buf, cfg); err != nil {
		return nil, newError(KindSerialization, "write document", err)
	}
	return buf.Bytes(), nil
}

// pageOutcome is one worker's result, reduced in page order.
type pageOutcome struct {
	marked  int
	applied int
	err     error
}

// redactPages runs search+mark+apply per page on a bounded pool. Pages are
// disjoint, so workers share nothing but the results slice, each writing
// only its own slot.
func (e *Engine) redactPages(ctx context.Context, doc *semantic.Document, req RedactRequest) (marked, applied int, pageErrs []PageError) {
	opts := redact.Options{Fill: req.Fill}
	if req.RemoveImages {
		opts.Images = redact.ImageRemove
	} else {
		opts.Images = redact.ImageKeep
	}
	findOpts := search.Options{CaseSensitive: req.CaseSensitive}

	outcomes := make([]pageOutcome, len(doc.Pages))
	sem := make(chan struct{}, e.opts.Workers)
	done := make(chan int, len(doc.Pages))

	for i, page := range doc.Pages {
		go func(i int, page *semantic.Page) {
			sem <- struct{}{}
			defer func() { <-sem; done <- i }()
			outcomes[i] = e.redactPage(ctx, page, req.SearchText, findOpts, opts)
		}(i, page)
	}
	for range doc.Pages {
		<-done
	}

	for i, o := range outcomes {
		marked += o.marked
		applied += o.applied
		if o.err != nil {
			pageErrs = append(pageErrs, PageError{Page: doc.Pages[i].Index, Err: o.err})
			e.opts.Logger.Warn("page redaction failed",
				observability.Int("page", doc.Pages[i].Index),
				observability.Error("error", o.err),
			)
		}
	}
	return marked, applied, pageErrs
}

func (e *Engine) redactPage(ctx context.Context, page *semantic.Page, text string, findOpts search.Options, opts redact.Options) pageOutcome {
	if err := ctx.Err(); err != nil {
		return pageOutcome{err: err}
	}
	matches, err := search.FindPage(page, text, findOpts)
	if err != nil {
		return pageOutcome{err: fmt.Errorf("search: %w", err)}
	}
	// A match that fails to mark is reported but does not block the page's
	// valid marks from applying.
	m, markErr := redact.MarkMatches(page, matches, opts)
	a, err := redact.Apply(page, e.opts.OverlapThreshold)
	if err != nil {
		return pageOutcome{marked: m, err: fmt.Errorf("apply: %w", err)}
	}
	if markErr != nil {
		return pageOutcome{marked: m, applied: a, err: fmt.Errorf("mark: %w", markErr)}
	}
	return pageOutcome{marked: m, applied: a}
}

func kindOfIsTyped(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
