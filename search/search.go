// Package search finds literal substring occurrences in a document's text
// runs. Matching is per run; text never matches across run boundaries.
package search

import (
	"errors"
	"iter"
	"strings"

	"golang.org/x/text/cases"

	"github.com/JohnJulian65/Branded-Adobe-Duplicate/extractor"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir/semantic"
)

// ErrEmptyQuery is returned when the search term is empty.
var ErrEmptyQuery = errors.New("search: empty query")

// Match is one occurrence of the query inside a single text run. Rect covers
// the whole run that contains the occurrence; multiple occurrences in one
// run yield one Match each, with the same rectangle. Occurrences are found
// by a left-to-right scan that resumes past each hit, so they never overlap:
// "aa" occurs once in "aaa".
type Match struct {
	Page     int
	Rect     semantic.Rectangle
	RunText  string
	FontSize float64
}

// Options control matching behaviour.
type Options struct {
	// CaseSensitive selects exact byte comparison. When false, both the
	// query and the run text are Unicode case folded before comparison.
	CaseSensitive bool
}

// FindPage yields one Match per occurrence of query on the page.
func FindPage(page *semantic.Page, query string, opts Options) ([]Match, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	runs, err := extractor.Runs(page)
	if err != nil {
		return nil, err
	}
	folder := cases.Fold()
	needle := query
	if !opts.CaseSensitive {
		needle = folder.String(query)
	}
	var matches []Match
	for _, run := range runs {
		haystack := run.Text
		if !opts.CaseSensitive {
			haystack = folder.String(run.Text)
		}
		for off := 0; ; {
			i := strings.Index(haystack[off:], needle)
			if i < 0 {
				break
			}
			matches = append(matches, Match{
				Page:     page.Index,
				Rect:     run.Rect,
				RunText:  run.Text,
				FontSize: run.FontSize,
			})
			off += i + len(needle)
		}
	}
	return matches, nil
}

// Find yields matches across the whole document in page order. A non-nil
// error means extraction failed for the page the match would have come
// from; the sequence ends after the first error.
func Find(doc *semantic.Document, query string, opts Options) iter.Seq2[Match, error] {
	return func(yield func(Match, error) bool) {
		if query == "" {
			yield(Match{}, ErrEmptyQuery)
			return
		}
		for _, page := range doc.Pages {
			matches, err := FindPage(page, query, opts)
			if err != nil {
				yield(Match{}, err)
				return
			}
			for _, m := range matches {
				if !yield(m, nil) {
					return
				}
			}
		}
	}
}

// FindAll collects every match in the document.
func FindAll(doc *semantic.Document, query string, opts Options) ([]Match, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	var all []Match
	for _, page := range doc.Pages {
		matches, err := FindPage(page, query, opts)
		if err != nil {
			return nil, err
		}
		all = append(all, matches...)
	}
	return all, nil
}
