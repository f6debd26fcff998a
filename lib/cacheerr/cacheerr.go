// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cacheerr

import (
	"errors"
	"fmt"
)

// Kind classifies a cache error so that callers can decide whether to
// abort, skip the file, or report, without parsing error text.
type Kind uint8

const (
	// KindTruncatedInput indicates a buffer is shorter than a declared
	// field or region demands.
	KindTruncatedInput Kind = iota + 1

	// KindOutOfRange indicates a cursor seek, chunk pointer, or field
	// value beyond the bounds of its buffer or encoding width.
	KindOutOfRange

	// KindCorruptChunk indicates a chunk header disagrees with its
	// position in a chain (file id or chunk id mismatch, invalid next
	// pointer) or a chain exceeds its safety bound.
	KindCorruptChunk

	// KindCorruptData indicates the compression adapter rejected its
	// input, or decoded content is structurally invalid.
	KindCorruptData

	// KindNotFound indicates a lookup by index id, file id, or entry
	// identifier missed.
	KindNotFound
)

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindTruncatedInput:
		return "truncated_input"
	case KindOutOfRange:
		return "out_of_range"
	case KindCorruptChunk:
		return "corrupt_chunk"
	case KindCorruptData:
		return "corrupt_data"
	case KindNotFound:
		return "not_found"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// Error is a classified cache error. It wraps an inner error so that
// the full chain stays available to errors.Is and errors.As, while
// the Kind travels alongside for programmatic handling. Use the
// kind-specific constructors rather than building Error directly.
type Error struct {
	// Kind classifies the error.
	Kind Kind

	// Err is the underlying error with the human-readable message.
	// Nil only for the package-level sentinels.
	Err error
}

// Error returns the underlying message, or the kind name for a
// sentinel.
func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a sentinel of the same kind, so that
// errors.Is(err, cacheerr.ErrNotFound) matches any NotFound error
// regardless of its message.
func (e *Error) Is(target error) bool {
	sentinel, ok := target.(*Error)
	if !ok || sentinel.Err != nil {
		return false
	}
	return sentinel.Kind == e.Kind
}

// Sentinels for errors.Is matching.
var (
	ErrTruncatedInput = &Error{Kind: KindTruncatedInput}
	ErrOutOfRange     = &Error{Kind: KindOutOfRange}
	ErrCorruptChunk   = &Error{Kind: KindCorruptChunk}
	ErrCorruptData    = &Error{Kind: KindCorruptData}
	ErrNotFound       = &Error{Kind: KindNotFound}
)

// TruncatedInput creates a truncated-input error.
func TruncatedInput(format string, args ...any) *Error {
	return &Error{Kind: KindTruncatedInput, Err: fmt.Errorf(format, args...)}
}

// OutOfRange creates an out-of-range error.
func OutOfRange(format string, args ...any) *Error {
	return &Error{Kind: KindOutOfRange, Err: fmt.Errorf(format, args...)}
}

// CorruptChunk creates a corrupt-chunk error.
func CorruptChunk(format string, args ...any) *Error {
	return &Error{Kind: KindCorruptChunk, Err: fmt.Errorf(format, args...)}
}

// CorruptData creates a corrupt-data error.
func CorruptData(format string, args ...any) *Error {
	return &Error{Kind: KindCorruptData, Err: fmt.Errorf(format, args...)}
}

// NotFound creates a not-found error.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the Kind of the first classified error in err's
// chain, or zero if the chain holds none.
func KindOf(err error) Kind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return 0
}
