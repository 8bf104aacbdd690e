package writer

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"github.com/JohnJulian65/Branded-Adobe-Duplicate/contentstream"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir/raw"
)

func (w *impl) SerializeObject(ref raw.ObjectRef, obj raw.Object) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d %d obj\n", ref.Num, ref.Gen)
	buf.Write(serializePrimitive(obj))
	buf.WriteString("\nendobj\n")
	return buf.Bytes(), nil
}

func serializePrimitive(o raw.Object) []byte {
	switch v := o.(type) {
	case raw.NameObj:
		return []byte("/" + escapeName(v.Value()))
	case raw.NumberObj:
		if v.IsInteger() {
			return strconv.AppendInt(nil, v.Int(), 10)
		}
		// Exponent notation is not valid PDF number syntax.
		return contentstream.FormatNumber(v.Float())
	case raw.BoolObj:
		if v.Value() {
			return []byte("true")
		}
		return []byte("false")
	case raw.NullObj:
		return []byte("null")
	case raw.StringObj:
		return contentstream.EscapeLiteralString(v.Value())
	case *raw.ArrayObj:
		var b bytes.Buffer
		b.WriteByte('[')
		for i, it := range v.Items {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.Write(serializePrimitive(it))
		}
		b.WriteByte(']')
		return b.Bytes()
	case *raw.DictObj:
		var b bytes.Buffer
		b.WriteString("<<")
		keys := v.Keys()
		sort.Strings(keys)
		for _, k := range keys {
			val, _ := v.Get(k)
			b.WriteString("/" + escapeName(k) + " ")
			b.Write(serializePrimitive(val))
		}
		b.WriteString(">>")
		return b.Bytes()
	case *raw.StreamObj:
		var b bytes.Buffer
		b.Write(serializePrimitive(v.Dict))
		b.WriteString("\nstream\n")
		b.Write(v.Data)
		b.WriteString("\nendstream")
		return b.Bytes()
	case raw.RefObj:
		return []byte(v.Ref().String())
	default:
		return []byte("null")
	}
}

// escapeName hex-encodes bytes a PDF name cannot carry literally.
func escapeName(s string) string {
	needsEscape := false
	for i := 0; i < len(s); i++ {
		if nameNeedsHex(s[i]) {
			needsEscape = true
			break
		}
	}
	if !needsEscape {
		return s
	}
	var b bytes.Buffer
	for i := 0; i < len(s); i++ {
		if nameNeedsHex(s[i]) {
			fmt.Fprintf(&b, "#%02X", s[i])
		} else {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func nameNeedsHex(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', '(', ')', '<', '>', '[', ']', '{', '}', '/', '%', '#':
		return true
	}
	return c < 0x21 || c > 0x7e
}
