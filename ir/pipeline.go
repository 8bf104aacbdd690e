package ir

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/JohnJulian65/Branded-Adobe-Duplicate/contentstream"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/filters"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir/decoded"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir/raw"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir/semantic"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/scanner"
)

// Pipeline orchestrates the raw -> decoded -> semantic parsing stages and
// leaves every page's content tokenized into operations, ready for editing.
type Pipeline struct {
	rawParser       raw.Parser
	decoder         decoded.Decoder
	semanticBuilder semantic.Builder
}

// Config bounds the resources one parse may consume.
type Config struct {
	Scanner scanner.Config
	Filters filters.Limits
}

// New constructs a pipeline with the given limits.
func New(cfg Config) *Pipeline {
	return &Pipeline{
		rawParser:       raw.NewParser(raw.ParserConfig{Scanner: cfg.Scanner}),
		decoder:         decoded.NewDecoder(filters.Default(cfg.Filters)),
		semanticBuilder: semantic.NewBuilder(),
	}
}

// NewDefault constructs a pipeline with no resource limits.
func NewDefault() *Pipeline { return New(Config{}) }

// Parse runs the full pipeline over r.
func (p *Pipeline) Parse(ctx context.Context, r io.ReaderAt) (*semantic.Document, error) {
	rawDoc, err := p.rawParser.Parse(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("raw parsing failed: %w", err)
	}
	rawDoc.Version = sniffVersion(r)

	decodedDoc, err := p.decoder.Decode(ctx, rawDoc)
	if err != nil {
		return nil, fmt.Errorf("decoding failed: %w", err)
	}

	semDoc, err := p.semanticBuilder.Build(ctx, decodedDoc)
	if err != nil {
		return nil, fmt.Errorf("semantic building failed: %w", err)
	}

	// Tokenize page contents so mutations operate on structured operations.
	for _, page := range semDoc.Pages {
		for i := range page.Contents {
			cs := &page.Contents[i]
			if len(cs.Operations) > 0 || len(cs.RawBytes) == 0 {
				continue
			}
			ops, err := contentstream.Parse(cs.RawBytes)
			if err != nil {
				return nil, fmt.Errorf("page %d content stream %d: %w", page.Index, i, err)
			}
			cs.Operations = ops
			cs.RawBytes = nil
		}
	}

	return semDoc, nil
}

// ParseBytes is a convenience wrapper over Parse.
func (p *Pipeline) ParseBytes(ctx context.Context, data []byte) (*semantic.Document, error) {
	return p.Parse(ctx, bytes.NewReader(data))
}

func sniffVersion(r io.ReaderAt) string {
	head := make([]byte, 16)
	n, _ := r.ReadAt(head, 0)
	head = head[:n]
	if bytes.HasPrefix(head, []byte("%PDF-")) && len(head) >= 8 {
		return string(head[5:8])
	}
	return ""
}
