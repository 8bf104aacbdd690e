package semantic

// Document is the semantic representation of a parsed PDF. Pages keep their
// original order for the lifetime of the document; nothing renumbers them.
type Document struct {
	Pages   []*Page
	Info    *DocumentInfo
	Version string
}

// DocumentInfo carries the common Info dictionary fields.
type DocumentInfo struct {
	Title    string
	Author   string
	Producer string
}

// Page models a single page. Index is 0-based and stable. Redactions is the
// page-owned list of pending marks; applying redactions consumes it.
type Page struct {
	Index      int
	MediaBox   Rectangle
	CropBox    Rectangle
	Rotate     int // degrees: 0/90/180/270
	Resources  *Resources
	Contents   []ContentStream
	Redactions []RedactionMark
}

// Bounds returns the page canvas rectangle used for region validation.
func (p *Page) Bounds() Rectangle {
	if p.CropBox.Area() > 0 {
		return p.CropBox
	}
	return p.MediaBox
}

// EnsureResources initializes the resource maps a mutation may need.
func (p *Page) EnsureResources() *Resources {
	if p.Resources == nil {
		p.Resources = &Resources{}
	}
	if p.Resources.Fonts == nil {
		p.Resources.Fonts = make(map[string]*Font)
	}
	if p.Resources.ExtGStates == nil {
		p.Resources.ExtGStates = make(map[string]ExtGState)
	}
	if p.Resources.XObjects == nil {
		p.Resources.XObjects = make(map[string]XObject)
	}
	return p.Resources
}

// RedactionMark is a pending, reviewable region slated for content removal.
// It carries no content itself; the redact engine consumes it on apply.
type RedactionMark struct {
	Region       Rectangle
	Fill         Color
	RemoveImages bool
}

// Color is an RGB fill/stroke color with components in [0,1].
type Color struct{ R, G, B float64 }

// Black is the default redaction fill.
var Black = Color{0, 0, 0}

// ContentStream is an ordered sequence of operations on a page. RawBytes is
// only populated between parsing and tokenization; mutations work on
// Operations and serialization prefers them.
type ContentStream struct {
	Operations []Operation
	RawBytes   []byte
}

// Operation is a PDF operator and its operands.
type Operation struct {
	Operator string
	Operands []Operand
}

// Operand is a type-safe operand value.
type Operand interface {
	operand()
	Type() string
}

type NumberOperand struct{ Value float64 }

func (NumberOperand) operand()     {}
func (NumberOperand) Type() string { return "number" }

type NameOperand struct{ Value string }

func (NameOperand) operand()     {}
func (NameOperand) Type() string { return "name" }

type StringOperand struct{ Value []byte }

func (StringOperand) operand()     {}
func (StringOperand) Type() string { return "string" }

type ArrayOperand struct{ Values []Operand }

func (ArrayOperand) operand()     {}
func (ArrayOperand) Type() string { return "array" }

type DictOperand struct{ Values map[string]Operand }

func (DictOperand) operand()     {}
func (DictOperand) Type() string { return "dict" }

// Resources holds the named resources a page's content references.
type Resources struct {
	Fonts      map[string]*Font
	ExtGStates map[string]ExtGState
	XObjects   map[string]XObject
}

// Font describes a font resource. Widths maps character codes to glyph
// widths in 1/1000 em.
type Font struct {
	Subtype    string // Type1, TrueType
	BaseFont   string
	Encoding   string
	FirstChar  int
	Widths     map[int]int
	Descriptor *FontDescriptor
}

// FontDescriptor carries metrics and the embedded program for a font.
type FontDescriptor struct {
	Flags       int
	FontBBox    Rectangle
	ItalicAngle float64
	Ascent      float64
	Descent     float64
	CapHeight   float64
	StemV       float64
	FontFile    []byte // TrueType program (FontFile2)
}

// ExtGState captures graphics state defaults such as transparency.
type ExtGState struct {
	FillAlpha   *float64
	StrokeAlpha *float64
}

// XObject is an external object referenced by a Do operation. Only image
// XObjects matter to this engine; deleting one discards Data.
type XObject struct {
	Subtype          string // Image, Form
	Width            int
	Height           int
	ColorSpace       string
	BitsPerComponent int
	Filter           string
	Data             []byte
}
