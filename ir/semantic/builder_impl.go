package semantic

import (
	"context"
	"errors"
	"fmt"

	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir/decoded"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir/raw"
)

// Builder turns decoded IR into the semantic page model.
type Builder interface {
	Build(ctx context.Context, dec *decoded.Document) (*Document, error)
}

// NewBuilder returns the default semantic builder.
func NewBuilder() Builder { return &builderImpl{} }

type builderImpl struct{}

func (b *builderImpl) Build(ctx context.Context, dec *decoded.Document) (*Document, error) {
	if dec == nil || dec.Raw == nil {
		return nil, errors.New("nil decoded document")
	}
	res := &resolver{dec: dec}
	doc := &Document{Version: dec.Raw.Version}

	catalog, err := findCatalog(dec.Raw, res)
	if err != nil {
		return nil, err
	}

	pagesObj, ok := catalog.Get("Pages")
	if !ok {
		return nil, errors.New("catalog has no Pages entry")
	}
	pages, err := parsePages(pagesObj, res, inheritedPageProps{})
	if err != nil {
		return nil, fmt.Errorf("parse page tree: %w", err)
	}
	for i, p := range pages {
		p.Index = i
	}
	doc.Pages = pages

	if infoObj, ok := trailerInfo(dec.Raw, res); ok {
		doc.Info = infoObj
	}
	return doc, nil
}

// findCatalog follows the trailer Root when present and otherwise scans the
// object table for a /Type /Catalog dictionary.
func findCatalog(rawDoc *raw.Document, res *resolver) (*raw.DictObj, error) {
	if rawDoc.Trailer != nil {
		if rootObj, ok := rawDoc.Trailer.Get("Root"); ok {
			if d, ok := res.dict(rootObj); ok {
				return d, nil
			}
		}
	}
	for _, obj := range rawDoc.Objects {
		d, ok := obj.(*raw.DictObj)
		if !ok {
			continue
		}
		if t, ok := d.Get("Type"); ok {
			if n, ok := t.(raw.Name); ok && n.Value() == "Catalog" {
				return d, nil
			}
		}
	}
	return nil, errors.New("no document catalog found")
}

func trailerInfo(rawDoc *raw.Document, res *resolver) (*DocumentInfo, bool) {
	if rawDoc.Trailer == nil {
		return nil, false
	}
	infoObj, ok := rawDoc.Trailer.Get("Info")
	if !ok {
		return nil, false
	}
	d, ok := res.dict(infoObj)
	if !ok {
		return nil, false
	}
	info := &DocumentInfo{}
	if s, ok := stringValue(d, "Title"); ok {
		info.Title = s
	}
	if s, ok := stringValue(d, "Author"); ok {
		info.Author = s
	}
	if s, ok := stringValue(d, "Producer"); ok {
		info.Producer = s
	}
	return info, true
}

func stringValue(d *raw.DictObj, key string) (string, bool) {
	obj, ok := d.Get(key)
	if !ok {
		return "", false
	}
	if s, ok := obj.(raw.String); ok {
		return string(s.Value()), true
	}
	return "", false
}

// resolver dereferences indirect objects and exposes decoded stream data.
type resolver struct {
	dec *decoded.Document
}

func (r *resolver) resolve(obj raw.Object) raw.Object {
	for i := 0; i < 32; i++ { // reference chains are short in practice
		ref, ok := obj.(raw.Reference)
		if !ok {
			return obj
		}
		next, ok := r.dec.Raw.Objects[ref.Ref()]
		if !ok {
			return nil
		}
		obj = next
	}
	return nil
}

func (r *resolver) dict(obj raw.Object) (*raw.DictObj, bool) {
	d, ok := r.resolve(obj).(*raw.DictObj)
	return d, ok
}

func (r *resolver) array(obj raw.Object) (*raw.ArrayObj, bool) {
	a, ok := r.resolve(obj).(*raw.ArrayObj)
	return a, ok
}

// streamData returns the decoded payload of a stream object or reference.
func (r *resolver) streamData(obj raw.Object) ([]byte, *raw.DictObj, bool) {
	if ref, ok := obj.(raw.Reference); ok {
		if ds, ok := r.dec.Streams[ref.Ref()]; ok {
			d, _ := ds.Dictionary().(*raw.DictObj)
			return ds.Data(), d, true
		}
	}
	if s, ok := r.resolve(obj).(raw.Stream); ok {
		d, _ := s.Dictionary().(*raw.DictObj)
		return s.RawData(), d, true
	}
	return nil, nil, false
}
