package writer

import (
	"bytes"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/JohnJulian65/Branded-Adobe-Duplicate/contentstream"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir/raw"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir/semantic"
)

type impl struct{}

// allocator hands out sequential object numbers.
type allocator struct {
	next    int
	objects map[raw.ObjectRef]raw.Object
}

func newAllocator() *allocator {
	return &allocator{next: 1, objects: make(map[raw.ObjectRef]raw.Object)}
}

func (a *allocator) reserve() raw.ObjectRef {
	ref := raw.ObjectRef{Num: a.next}
	a.next++
	return ref
}

func (a *allocator) put(ref raw.ObjectRef, obj raw.Object) { a.objects[ref] = obj }

func (a *allocator) add(obj raw.Object) raw.ObjectRef {
	ref := a.reserve()
	a.put(ref, obj)
	return ref
}

func (w *impl) Write(ctx context.Context, doc *semantic.Document, out io.Writer, cfg Config) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(doc.Pages) == 0 {
		return fmt.Errorf("writer: document has no pages")
	}

	alloc := newAllocator()
	catalogRef := alloc.reserve()
	pagesRef := alloc.reserve()

	pageRefs := make([]raw.ObjectRef, 0, len(doc.Pages))
	for _, page := range doc.Pages {
		ref, err := buildPage(alloc, page, pagesRef, cfg)
		if err != nil {
			return fmt.Errorf("writer: page %d: %w", page.Index, err)
		}
		pageRefs = append(pageRefs, ref)
	}

	kids := raw.NewArray()
	for _, r := range pageRefs {
		kids.Append(raw.Ref(r.Num, r.Gen))
	}
	pagesDict := raw.Dict()
	pagesDict.Set("Type", raw.NameLiteral("Pages"))
	pagesDict.Set("Count", raw.NumberInt(int64(len(pageRefs))))
	pagesDict.Set("Kids", kids)
	alloc.put(pagesRef, pagesDict)

	catalog := raw.Dict()
	catalog.Set("Type", raw.NameLiteral("Catalog"))
	catalog.Set("Pages", raw.Ref(pagesRef.Num, pagesRef.Gen))
	alloc.put(catalogRef, catalog)

	var infoRef *raw.ObjectRef
	if doc.Info != nil {
		info := raw.Dict()
		if doc.Info.Title != "" {
			info.Set("Title", raw.Str([]byte(doc.Info.Title)))
		}
		if doc.Info.Author != "" {
			info.Set("Author", raw.Str([]byte(doc.Info.Author)))
		}
		if doc.Info.Producer != "" {
			info.Set("Producer", raw.Str([]byte(doc.Info.Producer)))
		}
		if !cfg.Deterministic {
			created := time.Now().Format("D:20060102150405")
			info.Set("CreationDate", raw.Str([]byte(created)))
		}
		if info.Len() > 0 {
			r := alloc.add(info)
			infoRef = &r
		}
	}

	return w.emit(out, alloc, catalogRef, infoRef, cfg)
}

// buildPage converts one semantic page into raw objects and returns the
// page dictionary's reference.
func buildPage(alloc *allocator, page *semantic.Page, parent raw.ObjectRef, cfg Config) (raw.ObjectRef, error) {
	pageDict := raw.Dict()
	pageDict.Set("Type", raw.NameLiteral("Page"))
	pageDict.Set("Parent", raw.Ref(parent.Num, parent.Gen))
	pageDict.Set("MediaBox", rectArray(page.MediaBox))
	if page.CropBox.Width() > 0 && page.CropBox != page.MediaBox {
		pageDict.Set("CropBox", rectArray(page.CropBox))
	}
	if page.Rotate != 0 {
		pageDict.Set("Rotate", raw.NumberInt(int64(page.Rotate)))
	}

	contents := raw.NewArray()
	for _, cs := range page.Contents {
		data := contentstream.Serialize(cs)
		ref, err := addStream(alloc, raw.Dict(), data, cfg.ContentFilter)
		if err != nil {
			return raw.ObjectRef{}, err
		}
		contents.Append(raw.Ref(ref.Num, ref.Gen))
	}
	if contents.Len() == 1 {
		first, _ := contents.Get(0)
		pageDict.Set("Contents", first)
	} else if contents.Len() > 0 {
		pageDict.Set("Contents", contents)
	}

	if page.Resources != nil {
		res, err := buildResources(alloc, page.Resources)
		if err != nil {
			return raw.ObjectRef{}, err
		}
		pageDict.Set("Resources", res)
	}

	return alloc.add(pageDict), nil
}

func buildResources(alloc *allocator, res *semantic.Resources) (*raw.DictObj, error) {
	dict := raw.Dict()

	if len(res.Fonts) > 0 {
		fonts := raw.Dict()
		for _, name := range sortedKeys(res.Fonts) {
			ref, err := buildFont(alloc, res.Fonts[name])
			if err != nil {
				return nil, fmt.Errorf("font %s: %w", name, err)
			}
			fonts.Set(name, raw.Ref(ref.Num, ref.Gen))
		}
		dict.Set("Font", fonts)
	}

	if len(res.ExtGStates) > 0 {
		states := raw.Dict()
		for _, name := range sortedKeys(res.ExtGStates) {
			gs := res.ExtGStates[name]
			gsDict := raw.Dict()
			gsDict.Set("Type", raw.NameLiteral("ExtGState"))
			if gs.FillAlpha != nil {
				gsDict.Set("ca", raw.NumberFloat(*gs.FillAlpha))
			}
			if gs.StrokeAlpha != nil {
				gsDict.Set("CA", raw.NumberFloat(*gs.StrokeAlpha))
			}
			states.Set(name, gsDict)
		}
		dict.Set("ExtGState", states)
	}

	if len(res.XObjects) > 0 {
		xobjects := raw.Dict()
		for _, name := range sortedKeys(res.XObjects) {
			ref, err := buildXObject(alloc, res.XObjects[name])
			if err != nil {
				return nil, fmt.Errorf("xobject %s: %w", name, err)
			}
			xobjects.Set(name, raw.Ref(ref.Num, ref.Gen))
		}
		dict.Set("XObject", xobjects)
	}

	return dict, nil
}

func buildFont(alloc *allocator, f *semantic.Font) (raw.ObjectRef, error) {
	dict := raw.Dict()
	dict.Set("Type", raw.NameLiteral("Font"))
	subtype := f.Subtype
	if subtype == "" {
		subtype = "Type1"
	}
	dict.Set("Subtype", raw.NameLiteral(subtype))
	base := f.BaseFont
	if base == "" {
		base = "Helvetica"
	}
	dict.Set("BaseFont", raw.NameLiteral(base))
	if f.Encoding != "" {
		dict.Set("Encoding", raw.NameLiteral(f.Encoding))
	}

	if len(f.Widths) > 0 {
		first, last := widthRange(f)
		widths := raw.NewArray()
		for c := first; c <= last; c++ {
			widths.Append(raw.NumberInt(int64(f.Widths[c])))
		}
		dict.Set("FirstChar", raw.NumberInt(int64(first)))
		dict.Set("LastChar", raw.NumberInt(int64(last)))
		dict.Set("Widths", widths)
	}

	if f.Descriptor != nil {
		ref, err := buildFontDescriptor(alloc, base, f.Descriptor)
		if err != nil {
			return raw.ObjectRef{}, err
		}
		dict.Set("FontDescriptor", raw.Ref(ref.Num, ref.Gen))
	}

	return alloc.add(dict), nil
}

func buildFontDescriptor(alloc *allocator, baseFont string, d *semantic.FontDescriptor) (raw.ObjectRef, error) {
	dict := raw.Dict()
	dict.Set("Type", raw.NameLiteral("FontDescriptor"))
	dict.Set("FontName", raw.NameLiteral(baseFont))
	dict.Set("Flags", raw.NumberInt(int64(d.Flags)))
	dict.Set("FontBBox", rectArray(d.FontBBox))
	dict.Set("ItalicAngle", raw.NumberFloat(d.ItalicAngle))
	dict.Set("Ascent", raw.NumberFloat(d.Ascent))
	dict.Set("Descent", raw.NumberFloat(d.Descent))
	dict.Set("CapHeight", raw.NumberFloat(d.CapHeight))
	dict.Set("StemV", raw.NumberFloat(d.StemV))

	if len(d.FontFile) > 0 {
		streamDict := raw.Dict()
		streamDict.Set("Length1", raw.NumberInt(int64(len(d.FontFile))))
		ref, err := addStream(alloc, streamDict, d.FontFile, FilterFlate)
		if err != nil {
			return raw.ObjectRef{}, err
		}
		dict.Set("FontFile2", raw.Ref(ref.Num, ref.Gen))
	}

	return alloc.add(dict), nil
}

func buildXObject(alloc *allocator, xo semantic.XObject) (raw.ObjectRef, error) {
	dict := raw.Dict()
	dict.Set("Type", raw.NameLiteral("XObject"))
	dict.Set("Subtype", raw.NameLiteral(xo.Subtype))
	if xo.Width > 0 {
		dict.Set("Width", raw.NumberInt(int64(xo.Width)))
	}
	if xo.Height > 0 {
		dict.Set("Height", raw.NumberInt(int64(xo.Height)))
	}
	if xo.ColorSpace != "" {
		dict.Set("ColorSpace", raw.NameLiteral(xo.ColorSpace))
	}
	if xo.BitsPerComponent > 0 {
		dict.Set("BitsPerComponent", raw.NumberInt(int64(xo.BitsPerComponent)))
	}
	if xo.Filter != "" {
		// Data is still in its original encoding; pass it through.
		dict.Set("Filter", raw.NameLiteral(xo.Filter))
	}
	dict.Set("Length", raw.NumberInt(int64(len(xo.Data))))
	return alloc.add(raw.NewStream(dict, xo.Data)), nil
}

// addStream allocates a stream object, applying filter to data first.
func addStream(alloc *allocator, dict *raw.DictObj, data []byte, filter ContentFilter) (raw.ObjectRef, error) {
	if filter == FilterFlate {
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return raw.ObjectRef{}, err
		}
		if err := zw.Close(); err != nil {
			return raw.ObjectRef{}, err
		}
		data = buf.Bytes()
		dict.Set("Filter", raw.NameLiteral("FlateDecode"))
	}
	dict.Set("Length", raw.NumberInt(int64(len(data))))
	return alloc.add(raw.NewStream(dict, data)), nil
}

// emit lays out the file: header, body in object-number order, xref table,
// trailer.
func (w *impl) emit(out io.Writer, alloc *allocator, catalog raw.ObjectRef, info *raw.ObjectRef, cfg Config) error {
	version := cfg.Version
	if version == "" {
		version = PDF17
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%%PDF-%s\n%%\xE2\xE3\xCF\xD3\n", version)

	ordered := make([]raw.ObjectRef, 0, len(alloc.objects))
	for ref := range alloc.objects {
		ordered = append(ordered, ref)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Num < ordered[j].Num })

	offsets := make(map[int]int64, len(ordered))
	for _, ref := range ordered {
		offsets[ref.Num] = int64(buf.Len())
		serialized, err := w.SerializeObject(ref, alloc.objects[ref])
		if err != nil {
			return err
		}
		buf.Write(serialized)
	}

	xrefOffset := buf.Len()
	maxNum := ordered[len(ordered)-1].Num
	fmt.Fprintf(&buf, "xref\n0 %d\n", maxNum+1)
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= maxNum; i++ {
		if off, ok := offsets[i]; ok {
			fmt.Fprintf(&buf, "%010d 00000 n \n", off)
		} else {
			buf.WriteString("0000000000 65535 f \n")
		}
	}

	buf.WriteString("trailer\n<<")
	fmt.Fprintf(&buf, "/Size %d ", maxNum+1)
	fmt.Fprintf(&buf, "/Root %d 0 R", catalog.Num)
	if info != nil {
		fmt.Fprintf(&buf, " /Info %d 0 R", info.Num)
	}
	fmt.Fprintf(&buf, ">>\nstartxref\n%d\n%%%%EOF\n", xrefOffset)

	_, err := out.Write(buf.Bytes())
	return err
}

func rectArray(r semantic.Rectangle) *raw.ArrayObj {
	return raw.NewArray(
		raw.NumberFloat(r.LLX),
		raw.NumberFloat(r.LLY),
		raw.NumberFloat(r.URX),
		raw.NumberFloat(r.URY),
	)
}

func widthRange(f *semantic.Font) (first, last int) {
	first, last = -1, -1
	for c := range f.Widths {
		if first < 0 || c < first {
			first = c
		}
		if c > last {
			last = c
		}
	}
	return first, last
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
