// Package writer serializes a semantic document back to PDF bytes. Output
// is always a complete file: any failure mid-serialization yields no bytes.
package writer

import (
	"context"
	"io"

	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir/raw"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir/semantic"
)

type PDFVersion string

const (
	PDF17 PDFVersion = "1.7"
)

// ContentFilter selects the encoding applied to content streams on output.
type ContentFilter int

const (
	FilterNone ContentFilter = iota
	FilterFlate
)

type Config struct {
	Version       PDFVersion
	ContentFilter ContentFilter
	// Deterministic omits volatile fields (creation date) so identical
	// documents serialize to identical bytes.
	Deterministic bool
}

type Writer interface {
	Write(ctx context.Context, doc *semantic.Document, w io.Writer, cfg Config) error
	SerializeObject(ref raw.ObjectRef, obj raw.Object) ([]byte, error)
}

type WriterBuilder struct{}

func (b *WriterBuilder) Build() Writer { return &impl{} }
