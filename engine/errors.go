package engine

import (
	"errors"
	"fmt"
)

// Kind classifies an engine failure for callers that map errors to exit
// codes or HTTP statuses.
type Kind int

const (
	KindInternal Kind = iota
	KindParse
	KindInputConstraint
	KindResourceLimit
	KindSerialization
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindInputConstraint:
		return "input_constraint"
	case KindResourceLimit:
		return "resource_limit"
	case KindSerialization:
		return "serialization"
	default:
		return "internal"
	}
}

// Error is the typed failure the engine returns at its boundary.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches two engine errors by kind, so callers can probe with
// errors.Is(err, &engine.Error{Kind: engine.KindParse}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// KindOf extracts the kind from any error in the chain, KindInternal when
// untyped.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
