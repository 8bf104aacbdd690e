package decoded

import (
	"context"

	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir/raw"
)

// Stream represents a decoded (decompressed) PDF stream.
type Stream interface {
	Dictionary() raw.Dictionary
	Data() []byte
	Filters() []string
}

// Document contains decoded streams plus a back-reference to the raw doc.
type Document struct {
	Raw     *raw.Document
	Streams map[raw.ObjectRef]Stream
}

// Decoder transforms raw IR into decoded IR by applying stream filters.
type Decoder interface {
	Decode(ctx context.Context, rawDoc *raw.Document) (*Document, error)
}
