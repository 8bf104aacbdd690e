package decoded

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/JohnJulian65/Branded-Adobe-Duplicate/filters"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir/raw"
)

// NewDecoder constructs a Decoder that applies filter decoding to streams.
func NewDecoder(p *filters.Pipeline) Decoder {
	return &decoderImpl{pipeline: p}
}

type decoderImpl struct {
	pipeline *filters.Pipeline
}

func (d *decoderImpl) Decode(ctx context.Context, rawDoc *raw.Document) (*Document, error) {
	streams := make(map[raw.ObjectRef]Stream)

	type task struct {
		ref raw.ObjectRef
		obj raw.Stream
	}
	var tasks []task
	for ref, obj := range rawDoc.Objects {
		if s, ok := obj.(raw.Stream); ok {
			tasks = append(tasks, task{ref: ref, obj: s})
		}
	}
	if len(tasks) == 0 {
		return &Document{Raw: rawDoc, Streams: streams}, nil
	}

	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)

	type result struct {
		ref    raw.ObjectRef
		stream Stream
		err    error
	}
	results := make(chan result, len(tasks))

	var wg sync.WaitGroup
	for _, t := range tasks {
		wg.Add(1)
		go func(t task) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results <- result{err: ctx.Err()}
				return
			}
			defer func() { <-sem }()

			data := t.obj.RawData()
			names, params := filters.ExtractFilters(t.obj.Dictionary())
			if d.pipeline != nil && len(names) > 0 {
				decodedData, err := d.pipeline.Decode(ctx, data, names, params)
				switch {
				case err == nil:
					data = decodedData
				case errors.Is(err, filters.ErrUnknownFilter):
					// Image codecs (DCTDecode, JPXDecode) stay encoded; the
					// payload is the image file itself.
				default:
					results <- result{err: fmt.Errorf("decode filters %v for %v: %w", names, t.ref, err)}
					return
				}
			}

			results <- result{
				ref:    t.ref,
				stream: decodedStream{raw: t.obj, data: data, filters: names},
			}
		}(t)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		if res.err != nil {
			return nil, res.err
		}
		streams[res.ref] = res.stream
	}

	return &Document{Raw: rawDoc, Streams: streams}, nil
}

type decodedStream struct {
	raw     raw.Stream
	data    []byte
	filters []string
}

func (s decodedStream) Dictionary() raw.Dictionary { return s.raw.Dictionary() }
func (s decodedStream) Data() []byte               { return s.data }
func (s decodedStream) Filters() []string          { return s.filters }
