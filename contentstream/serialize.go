package contentstream

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir/semantic"
)

// Serialize renders operations back to content stream bytes. Streams edited
// through the semantic model round-trip through this; RawBytes is only a
// fallback for untouched streams.
func Serialize(cs semantic.ContentStream) []byte {
	if len(cs.Operations) == 0 {
		return cs.RawBytes
	}
	var buf bytes.Buffer
	for _, op := range cs.Operations {
		for i, operand := range op.Operands {
			if i > 0 {
				buf.WriteByte(' ')
			}
			buf.Write(serializeOperand(operand))
		}
		if len(op.Operands) > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(op.Operator)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func serializeOperand(op semantic.Operand) []byte {
	switch v := op.(type) {
	case semantic.NumberOperand:
		return FormatNumber(v.Value)
	case semantic.NameOperand:
		return []byte("/" + v.Value)
	case semantic.StringOperand:
		return EscapeLiteralString(v.Value)
	case semantic.ArrayOperand:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, it := range v.Values {
			if i > 0 {
				buf.WriteByte(' ')
			}
			buf.Write(serializeOperand(it))
		}
		buf.WriteByte(']')
		return buf.Bytes()
	case semantic.DictOperand:
		var buf bytes.Buffer
		buf.WriteString("<<")
		keys := make([]string, 0, len(v.Values))
		for k := range v.Values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			buf.WriteString("/" + k + " ")
			buf.Write(serializeOperand(v.Values[k]))
		}
		buf.WriteString(">>")
		return buf.Bytes()
	default:
		return []byte("null")
	}
}

// FormatNumber renders a number in PDF syntax: plain decimal notation only,
// never an exponent. Magnitudes below 1e-9 flush to zero; rotation matrices
// produce values like cos(90°) ≈ 6.1e-17 that are zero for any renderer.
func FormatNumber(v float64) []byte {
	if math.Abs(v) < 1e-9 {
		v = 0
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.AppendInt(nil, int64(v), 10)
	}
	return strconv.AppendFloat(nil, v, 'f', -1, 64)
}

// EscapeLiteralString renders bytes as a PDF literal string.
func EscapeLiteralString(raw []byte) []byte {
	var b bytes.Buffer
	b.WriteByte('(')
	for _, ch := range raw {
		switch ch {
		case '\\', '(', ')':
			b.WriteByte('\\')
			b.WriteByte(ch)
		case '\n':
			b.WriteString("\\n")
		case '\r':
			b.WriteString("\\r")
		case '\t':
			b.WriteString("\\t")
		case '\b':
			b.WriteString("\\b")
		case '\f':
			b.WriteString("\\f")
		default:
			if ch < 0x20 || ch >= 0x80 {
				fmt.Fprintf(&b, "\\%03o", ch)
			} else {
				b.WriteByte(ch)
			}
		}
	}
	b.WriteByte(')')
	return b.Bytes()
}
