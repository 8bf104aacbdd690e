package semantic

import (
	"errors"
	"fmt"

	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir/raw"
)

type inheritedPageProps struct {
	MediaBox  *Rectangle
	CropBox   *Rectangle
	Rotate    *int
	Resources raw.Object
}

// parsePages traverses the page tree and returns a flat list of pages in
// document order.
func parsePages(obj raw.Object, res *resolver, inherited inheritedPageProps) ([]*Page, error) {
	dict, ok := res.dict(obj)
	if !ok {
		return nil, errors.New("pages object is not a dictionary")
	}

	next := inherited
	if mb, ok := dict.Get("MediaBox"); ok {
		if r := parseRectangle(mb, res); r != nil {
			next.MediaBox = r
		}
	}
	if cb, ok := dict.Get("CropBox"); ok {
		if r := parseRectangle(cb, res); r != nil {
			next.CropBox = r
		}
	}
	if rot, ok := dict.Get("Rotate"); ok {
		if n, ok := rot.(raw.NumberObj); ok {
			v := int(n.Int())
			next.Rotate = &v
		}
	}
	if r, ok := dict.Get("Resources"); ok {
		next.Resources = r
	}

	isPage := false
	if t, ok := dict.Get("Type"); ok {
		if n, ok := t.(raw.Name); ok && n.Value() == "Page" {
			isPage = true
		}
	} else if _, hasKids := dict.Get("Kids"); !hasKids {
		isPage = true
	}

	if isPage {
		page, err := parsePage(dict, res, next)
		if err != nil {
			return nil, err
		}
		return []*Page{page}, nil
	}

	kidsObj, ok := dict.Get("Kids")
	if !ok {
		return nil, errors.New("pages node missing Kids")
	}
	kids, ok := res.array(kidsObj)
	if !ok {
		return nil, errors.New("Kids is not an array")
	}

	var pages []*Page
	for _, kid := range kids.Items {
		subPages, err := parsePages(kid, res, next)
		if err != nil {
			return nil, fmt.Errorf("page tree kid: %w", err)
		}
		pages = append(pages, subPages...)
	}
	return pages, nil
}

func parsePage(dict *raw.DictObj, res *resolver, inherited inheritedPageProps) (*Page, error) {
	page := &Page{}

	if mb, ok := dict.Get("MediaBox"); ok {
		if r := parseRectangle(mb, res); r != nil {
			page.MediaBox = *r
		}
	} else if inherited.MediaBox != nil {
		page.MediaBox = *inherited.MediaBox
	} else {
		page.MediaBox = Rectangle{0, 0, 612, 792} // Letter default
	}

	if cb, ok := dict.Get("CropBox"); ok {
		if r := parseRectangle(cb, res); r != nil {
			page.CropBox = *r
		}
	} else if inherited.CropBox != nil {
		page.CropBox = *inherited.CropBox
	} else {
		page.CropBox = page.MediaBox
	}

	if rot, ok := dict.Get("Rotate"); ok {
		if n, ok := rot.(raw.NumberObj); ok {
			page.Rotate = int(n.Int())
		}
	} else if inherited.Rotate != nil {
		page.Rotate = *inherited.Rotate
	}

	resObj, ok := dict.Get("Resources")
	if !ok {
		resObj = inherited.Resources
	}
	if resObj != nil {
		r, err := parseResources(resObj, res)
		if err != nil {
			return nil, fmt.Errorf("page resources: %w", err)
		}
		page.Resources = r
	}

	if contents, ok := dict.Get("Contents"); ok {
		page.Contents = parseContentStreams(contents, res)
	}

	return page, nil
}

// parseContentStreams collects the raw content bytes for a page; the
// contentstream package tokenizes them into operations.
func parseContentStreams(obj raw.Object, res *resolver) []ContentStream {
	if arr, ok := res.array(obj); ok {
		var out []ContentStream
		for _, item := range arr.Items {
			out = append(out, parseContentStreams(item, res)...)
		}
		return out
	}
	if data, _, ok := res.streamData(obj); ok {
		return []ContentStream{{RawBytes: data}}
	}
	return nil
}

func parseResources(obj raw.Object, res *resolver) (*Resources, error) {
	dict, ok := res.dict(obj)
	if !ok {
		return nil, errors.New("resources object is not a dictionary")
	}
	out := &Resources{}

	if fontsObj, ok := dict.Get("Font"); ok {
		if fd, ok := res.dict(fontsObj); ok {
			out.Fonts = make(map[string]*Font, fd.Len())
			for _, name := range fd.Keys() {
				entry, _ := fd.Get(name)
				if f := parseFont(entry, res); f != nil {
					out.Fonts[name] = f
				}
			}
		}
	}

	if gsObj, ok := dict.Get("ExtGState"); ok {
		if gd, ok := res.dict(gsObj); ok {
			out.ExtGStates = make(map[string]ExtGState, gd.Len())
			for _, name := range gd.Keys() {
				entry, _ := gd.Get(name)
				if g, ok := res.dict(entry); ok {
					out.ExtGStates[name] = parseExtGState(g)
				}
			}
		}
	}

	if xoObj, ok := dict.Get("XObject"); ok {
		if xd, ok := res.dict(xoObj); ok {
			out.XObjects = make(map[string]XObject, xd.Len())
			for _, name := range xd.Keys() {
				entry, _ := xd.Get(name)
				if xo, ok := parseXObject(entry, res); ok {
					out.XObjects[name] = xo
				}
			}
		}
	}

	return out, nil
}

func parseFont(obj raw.Object, res *resolver) *Font {
	dict, ok := res.dict(obj)
	if !ok {
		return nil
	}
	f := &Font{}
	if v, ok := dict.Get("Subtype"); ok {
		if n, ok := v.(raw.Name); ok {
			f.Subtype = n.Value()
		}
	}
	if v, ok := dict.Get("BaseFont"); ok {
		if n, ok := v.(raw.Name); ok {
			f.BaseFont = n.Value()
		}
	}
	if v, ok := dict.Get("Encoding"); ok {
		if n, ok := v.(raw.Name); ok {
			f.Encoding = n.Value()
		}
	}
	if v, ok := dict.Get("FirstChar"); ok {
		if n, ok := v.(raw.NumberObj); ok {
			f.FirstChar = int(n.Int())
		}
	}
	if v, ok := dict.Get("Widths"); ok {
		if arr, ok := res.array(v); ok {
			f.Widths = make(map[int]int, len(arr.Items))
			for i, item := range arr.Items {
				if n, ok := item.(raw.NumberObj); ok {
					f.Widths[f.FirstChar+i] = int(n.Float())
				}
			}
		}
	}
	if v, ok := dict.Get("FontDescriptor"); ok {
		if fd, ok := res.dict(v); ok {
			f.Descriptor = parseFontDescriptor(fd, res)
		}
	}
	return f
}

func parseFontDescriptor(dict *raw.DictObj, res *resolver) *FontDescriptor {
	d := &FontDescriptor{}
	num := func(key string) float64 {
		if v, ok := dict.Get(key); ok {
			if n, ok := v.(raw.NumberObj); ok {
				return n.Float()
			}
		}
		return 0
	}
	d.Ascent = num("Ascent")
	d.Descent = num("Descent")
	d.CapHeight = num("CapHeight")
	d.ItalicAngle = num("ItalicAngle")
	d.StemV = num("StemV")
	d.Flags = int(num("Flags"))
	if v, ok := dict.Get("FontBBox"); ok {
		if r := parseRectangle(v, res); r != nil {
			d.FontBBox = *r
		}
	}
	if v, ok := dict.Get("FontFile2"); ok {
		if data, _, ok := res.streamData(v); ok {
			d.FontFile = data
		}
	}
	return d
}

func parseExtGState(dict *raw.DictObj) ExtGState {
	g := ExtGState{}
	if v, ok := dict.Get("ca"); ok {
		if n, ok := v.(raw.NumberObj); ok {
			a := n.Float()
			g.FillAlpha = &a
		}
	}
	if v, ok := dict.Get("CA"); ok {
		if n, ok := v.(raw.NumberObj); ok {
			a := n.Float()
			g.StrokeAlpha = &a
		}
	}
	return g
}

func parseXObject(obj raw.Object, res *resolver) (XObject, bool) {
	data, dict, ok := res.streamData(obj)
	if !ok || dict == nil {
		return XObject{}, false
	}
	xo := XObject{Data: data}
	if v, ok := dict.Get("Subtype"); ok {
		if n, ok := v.(raw.Name); ok {
			xo.Subtype = n.Value()
		}
	}
	intVal := func(key string) int {
		if v, ok := dict.Get(key); ok {
			if n, ok := v.(raw.NumberObj); ok {
				return int(n.Int())
			}
		}
		return 0
	}
	xo.Width = intVal("Width")
	xo.Height = intVal("Height")
	xo.BitsPerComponent = intVal("BitsPerComponent")
	if v, ok := dict.Get("ColorSpace"); ok {
		if n, ok := v.(raw.Name); ok {
			xo.ColorSpace = n.Value()
		}
	}
	if v, ok := dict.Get("Filter"); ok {
		if n, ok := v.(raw.Name); ok {
			xo.Filter = n.Value()
		}
	}
	return xo, true
}

func parseRectangle(obj raw.Object, res *resolver) *Rectangle {
	arr, ok := res.array(obj)
	if !ok || len(arr.Items) != 4 {
		return nil
	}
	vals := make([]float64, 4)
	for i, item := range arr.Items {
		n, ok := item.(raw.NumberObj)
		if !ok {
			return nil
		}
		vals[i] = n.Float()
	}
	r := &Rectangle{LLX: vals[0], LLY: vals[1], URX: vals[2], URY: vals[3]}
	if r.LLX > r.URX {
		r.LLX, r.URX = r.URX, r.LLX
	}
	if r.LLY > r.URY {
		r.LLY, r.URY = r.URY, r.LLY
	}
	return r
}
