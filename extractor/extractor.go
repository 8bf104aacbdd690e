// Package extractor derives the read-side view of a page: immutable text
// runs with bounding geometry and image placements. Mutations never edit a
// run in place; they delete or add whole operations.
package extractor

import (
	"strings"

	"github.com/JohnJulian65/Branded-Adobe-Duplicate/contentstream"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir/semantic"
)

// TextRun is one text-show operation: its decoded text, the full bounding
// rectangle in page coordinates, and the font size it was set in.
type TextRun struct {
	Text     string
	Rect     semantic.Rectangle
	FontSize float64
}

// ImageRef identifies a raster image placed on a page.
type ImageRef struct {
	Name   string
	Rect   semantic.Rectangle
	Width  int
	Height int
}

// Runs returns the page's text runs in document-internal order.
func Runs(page *semantic.Page) ([]TextRun, error) {
	traced, err := contentstream.TracePage(page)
	if err != nil {
		return nil, err
	}
	var runs []TextRun
	for _, op := range traced {
		if op.Kind != contentstream.OpText || op.Text == "" {
			continue
		}
		runs = append(runs, TextRun{Text: op.Text, Rect: op.Rect, FontSize: op.FontSize})
	}
	return runs, nil
}

// Images returns the raster images placed on the page.
func Images(page *semantic.Page) ([]ImageRef, error) {
	traced, err := contentstream.TracePage(page)
	if err != nil {
		return nil, err
	}
	var images []ImageRef
	for _, op := range traced {
		if op.Kind != contentstream.OpImage {
			continue
		}
		ref := ImageRef{Name: op.Name, Rect: op.Rect}
		if page.Resources != nil {
			if xo, ok := page.Resources.XObjects[op.Name]; ok {
				ref.Width = xo.Width
				ref.Height = xo.Height
			}
		}
		images = append(images, ref)
	}
	return images, nil
}

// PageText is the extracted text of one page.
type PageText struct {
	Page    int
	Content string
}

// Text returns best-effort text content for each page, one run per line.
func Text(doc *semantic.Document) ([]PageText, error) {
	var out []PageText
	for _, page := range doc.Pages {
		runs, err := Runs(page)
		if err != nil {
			return nil, err
		}
		if len(runs) == 0 {
			continue
		}
		var b strings.Builder
		for i, r := range runs {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(r.Text)
		}
		out = append(out, PageText{Page: page.Index, Content: b.String()})
	}
	return out, nil
}
