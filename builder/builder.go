// Package builder offers a fluent API for constructing documents in memory.
// The engine's tests build fixtures with it; paired with writer it also
// serves as a small PDF generator.
package builder

import (
	"fmt"

	"github.com/JohnJulian65/Branded-Adobe-Duplicate/fonts"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir/semantic"
)

// PDFBuilder accumulates pages and document-level state.
type PDFBuilder interface {
	NewPage(width, height float64) PageBuilder
	AddPage(page *semantic.Page) PDFBuilder
	SetInfo(info *semantic.DocumentInfo) PDFBuilder
	RegisterFont(name string, font *semantic.Font) PDFBuilder
	RegisterTrueTypeFont(name string, data []byte) PDFBuilder
	Build() (*semantic.Document, error)
}

// PageBuilder draws onto one page. Finish returns to the document builder.
type PageBuilder interface {
	DrawText(text string, x, y float64, opts TextOptions) PageBuilder
	DrawRectangle(x, y, width, height float64, opts RectOptions) PageBuilder
	DrawImage(name string, img semantic.XObject, x, y, width, height float64) PageBuilder
	SetCropBox(box semantic.Rectangle) PageBuilder
	SetRotation(degrees int) PageBuilder
	Finish() PDFBuilder
}

// TextOptions configures text drawing.
type TextOptions struct {
	Font     string
	FontSize float64
	Color    semantic.Color
}

// RectOptions configures rectangle drawing. Defaults to fill when neither
// flag is set.
type RectOptions struct {
	FillColor   semantic.Color
	StrokeColor semantic.Color
	LineWidth   float64
	Fill        bool
	Stroke      bool
}

const (
	defaultFontResource = "F1"
	defaultBaseFont     = "Helvetica"
)

type builderImpl struct {
	pages       []*semantic.Page
	info        *semantic.DocumentInfo
	fonts       map[string]*semantic.Font
	defaultFont string
	fontErr     error
}

type pageBuilderImpl struct {
	parent *builderImpl
	page   *semantic.Page
}

// NewBuilder constructs a PDFBuilder.
func NewBuilder() PDFBuilder { return &builderImpl{defaultFont: defaultFontResource} }

func (b *builderImpl) NewPage(w, h float64) PageBuilder {
	p := &semantic.Page{MediaBox: semantic.Rectangle{LLX: 0, LLY: 0, URX: w, URY: h}}
	b.pages = append(b.pages, p)
	return &pageBuilderImpl{parent: b, page: p}
}

func (b *builderImpl) AddPage(p *semantic.Page) PDFBuilder {
	b.pages = append(b.pages, p)
	return b
}

func (b *builderImpl) SetInfo(info *semantic.DocumentInfo) PDFBuilder {
	b.info = info
	return b
}

func (b *builderImpl) RegisterFont(name string, font *semantic.Font) PDFBuilder {
	if font == nil {
		return b
	}
	if b.fonts == nil {
		b.fonts = make(map[string]*semantic.Font)
	}
	b.fonts[name] = font
	return b
}

func (b *builderImpl) RegisterTrueTypeFont(name string, data []byte) PDFBuilder {
	font, err := fonts.LoadTrueType(name, data)
	if err != nil {
		b.fontErr = fmt.Errorf("builder: font %s: %w", name, err)
		return b
	}
	return b.RegisterFont(name, font)
}

func (b *builderImpl) Build() (*semantic.Document, error) {
	if b.fontErr != nil {
		return nil, b.fontErr
	}
	if len(b.pages) == 0 {
		return nil, fmt.Errorf("builder: no pages")
	}
	for i, p := range b.pages {
		p.Index = i
	}
	return &semantic.Document{Pages: b.pages, Info: b.info, Version: "1.7"}, nil
}

// fontForName resolves a registered font, falling back to Helvetica.
func (b *builderImpl) fontForName(name string) (*semantic.Font, string) {
	if name != "" {
		if f, ok := b.fonts[name]; ok {
			return f, name
		}
	}
	if f, ok := b.fonts[b.defaultFont]; ok {
		return f, b.defaultFont
	}
	return &semantic.Font{Subtype: "Type1", BaseFont: defaultBaseFont}, defaultFontResource
}

func (p *pageBuilderImpl) ensureContentOps() *[]semantic.Operation {
	if len(p.page.Contents) == 0 {
		p.page.Contents = append(p.page.Contents, semantic.ContentStream{})
	}
	return &p.page.Contents[0].Operations
}

func (p *pageBuilderImpl) DrawText(text string, x, y float64, opts TextOptions) PageBuilder {
	ops := p.ensureContentOps()
	res := p.page.EnsureResources()

	font, fontName := p.parent.fontForName(opts.Font)
	if _, ok := res.Fonts[fontName]; !ok {
		res.Fonts[fontName] = font
	}
	size := opts.FontSize
	if size <= 0 {
		size = 12
	}

	*ops = append(*ops,
		semantic.Operation{Operator: "BT"},
		semantic.Operation{Operator: "rg", Operands: []semantic.Operand{
			semantic.NumberOperand{Value: opts.Color.R},
			semantic.NumberOperand{Value: opts.Color.G},
			semantic.NumberOperand{Value: opts.Color.B},
		}},
		semantic.Operation{Operator: "Tf", Operands: []semantic.Operand{
			semantic.NameOperand{Value: fontName},
			semantic.NumberOperand{Value: size},
		}},
		semantic.Operation{Operator: "Td", Operands: []semantic.Operand{
			semantic.NumberOperand{Value: x},
			semantic.NumberOperand{Value: y},
		}},
		semantic.Operation{Operator: "Tj", Operands: []semantic.Operand{
			semantic.StringOperand{Value: []byte(text)},
		}},
		semantic.Operation{Operator: "ET"},
	)
	return p
}

func (p *pageBuilderImpl) DrawRectangle(x, y, width, height float64, opts RectOptions) PageBuilder {
	ops := p.ensureContentOps()

	paint := "f"
	switch {
	case opts.Fill && opts.Stroke:
		paint = "B"
	case opts.Stroke:
		paint = "S"
	}

	*ops = append(*ops, semantic.Operation{Operator: "q"})
	if opts.Fill || paint == "f" {
		*ops = append(*ops, semantic.Operation{Operator: "rg", Operands: []semantic.Operand{
			semantic.NumberOperand{Value: opts.FillColor.R},
			semantic.NumberOperand{Value: opts.FillColor.G},
			semantic.NumberOperand{Value: opts.FillColor.B},
		}})
	}
	if opts.Stroke {
		*ops = append(*ops, semantic.Operation{Operator: "RG", Operands: []semantic.Operand{
			semantic.NumberOperand{Value: opts.StrokeColor.R},
			semantic.NumberOperand{Value: opts.StrokeColor.G},
			semantic.NumberOperand{Value: opts.StrokeColor.B},
		}})
		if opts.LineWidth > 0 {
			*ops = append(*ops, semantic.Operation{Operator: "w", Operands: []semantic.Operand{
				semantic.NumberOperand{Value: opts.LineWidth},
			}})
		}
	}
	*ops = append(*ops,
		semantic.Operation{Operator: "re", Operands: []semantic.Operand{
			semantic.NumberOperand{Value: x},
			semantic.NumberOperand{Value: y},
			semantic.NumberOperand{Value: width},
			semantic.NumberOperand{Value: height},
		}},
		semantic.Operation{Operator: paint},
		semantic.Operation{Operator: "Q"},
	)
	return p
}

func (p *pageBuilderImpl) DrawImage(name string, img semantic.XObject, x, y, width, height float64) PageBuilder {
	ops := p.ensureContentOps()
	res := p.page.EnsureResources()
	if img.Subtype == "" {
		img.Subtype = "Image"
	}
	res.XObjects[name] = img

	*ops = append(*ops,
		semantic.Operation{Operator: "q"},
		semantic.Operation{Operator: "cm", Operands: []semantic.Operand{
			semantic.NumberOperand{Value: width},
			semantic.NumberOperand{Value: 0},
			semantic.NumberOperand{Value: 0},
			semantic.NumberOperand{Value: height},
			semantic.NumberOperand{Value: x},
			semantic.NumberOperand{Value: y},
		}},
		semantic.Operation{Operator: "Do", Operands: []semantic.Operand{
			semantic.NameOperand{Value: name},
		}},
		semantic.Operation{Operator: "Q"},
	)
	return p
}

func (p *pageBuilderImpl) SetCropBox(box semantic.Rectangle) PageBuilder {
	p.page.CropBox = box
	return p
}

func (p *pageBuilderImpl) SetRotation(degrees int) PageBuilder {
	p.page.Rotate = degrees
	return p
}

func (p *pageBuilderImpl) Finish() PDFBuilder { return p.parent }
