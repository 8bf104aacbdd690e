package raw

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

const miniPDF = `%PDF-1.7
1 0 obj
<< /Type /Catalog /Pages 2 0 R >>
endobj
2 0 obj
<< /Type /Pages /Kids [3 0 R] /Count 1 >>
endobj
3 0 obj
<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R >>
endobj
4 0 obj
<< /Length 20 >>
stream
BT /F1 12 Tf ET
xxxx
endstream
endobj
trailer
<< /Size 5 /Root 1 0 R >>
%%EOF
`

func TestParserMiniDocument(t *testing.T) {
	p := NewParser(ParserConfig{})
	doc, err := p.Parse(context.Background(), strings.NewReader(miniPDF))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(doc.Objects) != 4 {
		t.Fatalf("object count = %d, want 4", len(doc.Objects))
	}

	catalog, ok := doc.Objects[ObjectRef{Num: 1}].(*DictObj)
	if !ok {
		t.Fatalf("object 1 is %T, want dictionary", doc.Objects[ObjectRef{Num: 1}])
	}
	typ, _ := catalog.Get("Type")
	if name, ok := typ.(NameObj); !ok || name.Value() != "Catalog" {
		t.Fatalf("catalog Type = %v", typ)
	}

	pages, _ := catalog.Get("Pages")
	if ref, ok := pages.(RefObj); !ok || ref.Ref() != (ObjectRef{Num: 2}) {
		t.Fatalf("catalog Pages = %v", pages)
	}

	stream, ok := doc.Objects[ObjectRef{Num: 4}].(*StreamObj)
	if !ok {
		t.Fatalf("object 4 is %T, want stream", doc.Objects[ObjectRef{Num: 4}])
	}
	if stream.Length() != 20 {
		t.Fatalf("stream length = %d, want 20", stream.Length())
	}
	if !bytes.HasPrefix(stream.RawData(), []byte("BT")) {
		t.Fatalf("stream data = %q", stream.RawData())
	}

	if doc.Trailer == nil {
		t.Fatalf("trailer missing")
	}
	root, _ := doc.Trailer.Get("Root")
	if ref, ok := root.(RefObj); !ok || ref.Ref() != (ObjectRef{Num: 1}) {
		t.Fatalf("trailer Root = %v", root)
	}
}

func TestParserArraysAndNesting(t *testing.T) {
	body := `1 0 obj
<< /Nested << /Inner [1 2 (three) /Four true] >> >>
endobj
`
	p := NewParser(ParserConfig{})
	doc, err := p.Parse(context.Background(), strings.NewReader(body))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	outer := doc.Objects[ObjectRef{Num: 1}].(*DictObj)
	nested, _ := outer.Get("Nested")
	inner, _ := nested.(*DictObj).Get("Inner")
	arr := inner.(*ArrayObj)
	if arr.Len() != 5 {
		t.Fatalf("array length = %d, want 5", arr.Len())
	}
	if s, _ := arr.Get(2); string(s.(StringObj).Value()) != "three" {
		t.Fatalf("array[2] = %v", s)
	}
}

func TestParserEmptyInput(t *testing.T) {
	p := NewParser(ParserConfig{})
	if _, err := p.Parse(context.Background(), strings.NewReader("not a pdf at all")); err == nil {
		t.Fatalf("expected error for input with no objects")
	}
}
