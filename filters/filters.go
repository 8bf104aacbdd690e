package filters

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"context"
	stdascii85 "encoding/ascii85"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir/raw"
)

// ErrLimitExceeded reports that decoding hit a configured resource ceiling.
var ErrLimitExceeded = errors.New("filter limit exceeded")

// ErrUnknownFilter reports a filter with no registered decoder. Callers may
// choose to keep the raw payload (image codecs stay encoded by design).
var ErrUnknownFilter = errors.New("unknown filter")

type Decoder interface {
	Name() string
	Decode(ctx context.Context, input []byte, params raw.Dictionary) ([]byte, error)
}

// Limits bounds the work a decode pipeline may do. Zero values disable the
// corresponding limit.
type Limits struct {
	MaxDecompressedSize int64
	MaxDecodeTime       time.Duration
}

type Pipeline struct {
	decoders []Decoder
	limits   Limits
}

// NewPipeline constructs a pipeline with the provided decoders and limits.
func NewPipeline(decoders []Decoder, limits Limits) *Pipeline {
	return &Pipeline{decoders: decoders, limits: limits}
}

// Default returns a pipeline with the stock decoders.
func Default(limits Limits) *Pipeline {
	return NewPipeline([]Decoder{
		NewFlateDecoder(),
		NewASCIIHexDecoder(),
		NewASCII85Decoder(),
	}, limits)
}

func (p *Pipeline) findDecoder(name string) Decoder {
	for _, d := range p.decoders {
		if d.Name() == name {
			return d
		}
	}
	return nil
}

// Decode applies the named filters in order.
func (p *Pipeline) Decode(ctx context.Context, input []byte, filterNames []string, params []raw.Dictionary) ([]byte, error) {
	if p.limits.MaxDecodeTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.limits.MaxDecodeTime)
		defer cancel()
	}
	data := input
	for i, name := range filterNames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dec := p.findDecoder(name)
		if dec == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownFilter, name)
		}
		var param raw.Dictionary
		if i < len(params) {
			param = params[i]
		}
		out, err := dec.Decode(ctx, data, param)
		if err != nil {
			return nil, err
		}
		if p.limits.MaxDecompressedSize > 0 && int64(len(out)) > p.limits.MaxDecompressedSize {
			return nil, ErrLimitExceeded
		}
		data = out
	}
	return data, nil
}

// ExtractFilters reads Filter and DecodeParms entries from a stream dictionary.
func ExtractFilters(dict raw.Dictionary) ([]string, []raw.Dictionary) {
	var names []string
	var params []raw.Dictionary

	filterObj, ok := dict.Get("Filter")
	if !ok {
		return names, params
	}

	switch f := filterObj.(type) {
	case raw.Name:
		names = append(names, f.Value())
	case *raw.ArrayObj:
		for _, item := range f.Items {
			if n, ok := item.(raw.Name); ok {
				names = append(names, n.Value())
			}
		}
	}

	if len(names) > 0 {
		if pObj, ok := dict.Get("DecodeParms"); ok {
			switch p := pObj.(type) {
			case raw.Dictionary:
				params = append(params, p)
			case *raw.ArrayObj:
				for _, item := range p.Items {
					if d, ok := item.(raw.Dictionary); ok {
						params = append(params, d)
					}
				}
			}
		}
	}

	return names, params
}

type flateDecoder struct{}

func NewFlateDecoder() Decoder    { return flateDecoder{} }
func (flateDecoder) Name() string { return "FlateDecode" }

// Decode handles both zlib-wrapped data (the normal PDF case) and bare
// deflate streams emitted by sloppy producers.
func (flateDecoder) Decode(ctx context.Context, in []byte, params raw.Dictionary) ([]byte, error) {
	if zr, err := zlib.NewReader(bytes.NewReader(in)); err == nil {
		defer zr.Close()
		var out bytes.Buffer
		if _, err := io.Copy(&out, zr); err == nil {
			return out.Bytes(), nil
		}
	}
	fr := flate.NewReader(bytes.NewReader(in))
	defer fr.Close()
	var out bytes.Buffer
	if _, err := io.Copy(&out, fr); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

type asciiHexDecoder struct{}

func NewASCIIHexDecoder() Decoder    { return asciiHexDecoder{} }
func (asciiHexDecoder) Name() string { return "ASCIIHexDecode" }

func (asciiHexDecoder) Decode(ctx context.Context, in []byte, params raw.Dictionary) ([]byte, error) {
	trimmed := bytes.Map(dropWhitespace, in)
	if i := bytes.IndexByte(trimmed, '>'); i >= 0 {
		trimmed = trimmed[:i]
	}
	if len(trimmed)%2 == 1 {
		trimmed = append(trimmed, '0')
	}
	result := make([]byte, hex.DecodedLen(len(trimmed)))
	n, err := hex.Decode(result, trimmed)
	if err != nil {
		return nil, err
	}
	return result[:n], nil
}

type ascii85Decoder struct{}

func NewASCII85Decoder() Decoder    { return ascii85Decoder{} }
func (ascii85Decoder) Name() string { return "ASCII85Decode" }

func (ascii85Decoder) Decode(ctx context.Context, in []byte, params raw.Dictionary) ([]byte, error) {
	trimmed := bytes.TrimSpace(in)
	if bytes.HasPrefix(trimmed, []byte("<~")) {
		trimmed = trimmed[2:]
	}
	if bytes.HasSuffix(trimmed, []byte("~>")) {
		trimmed = trimmed[:len(trimmed)-2]
	}
	out := make([]byte, len(trimmed)*2)
	n, _, err := stdascii85.Decode(out, trimmed, true)
	if err != nil {
		return nil, err
	}
	return out[:n], nil
}

func dropWhitespace(r rune) rune {
	switch r {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return -1
	}
	return r
}
