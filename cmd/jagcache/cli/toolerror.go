// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/jagcache/lib/cacheerr"
)

// ErrorCategory classifies command errors so that callers (scripts,
// the exit code mapping) can react without parsing error text.
type ErrorCategory string

const (
	// CategoryValidation indicates the caller provided invalid input:
	// missing required arguments, unparseable values, unknown flags.
	CategoryValidation ErrorCategory = "validation"

	// CategoryNotFound indicates a referenced index, file, or archive
	// entry does not exist.
	CategoryNotFound ErrorCategory = "not_found"

	// CategoryCorrupt indicates cache data failed to decode: truncated
	// buffers, broken chunk chains, rejected compressed data.
	CategoryCorrupt ErrorCategory = "corrupt"

	// CategoryInternal indicates an unexpected error such as an I/O
	// failure.
	CategoryInternal ErrorCategory = "internal"
)

// ToolError is a categorized error returned by CLI commands. It wraps
// an inner error, preserving the full chain for errors.Is and
// errors.As. Use the category-specific constructors rather than
// constructing ToolError directly.
type ToolError struct {
	// Category classifies the error for programmatic handling.
	Category ErrorCategory

	// Err is the underlying error with the human-readable message.
	Err error
}

// Error returns the underlying error message. The category is not
// included in the string.
func (e *ToolError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error.
func (e *ToolError) Unwrap() error { return e.Err }

// Validation creates a validation error: the caller provided bad input.
func Validation(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryValidation, Err: fmt.Errorf(format, args...)}
}

// NotFound creates a not-found error: a referenced resource does not exist.
func NotFound(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryNotFound, Err: fmt.Errorf(format, args...)}
}

// Internal creates an internal error: an unexpected failure, bug, or I/O error.
func Internal(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryInternal, Err: fmt.Errorf(format, args...)}
}

// Classify returns the category of err. An explicit [ToolError] wins;
// otherwise cache errors are mapped by kind, and anything else is
// internal.
func Classify(err error) ErrorCategory {
	var toolError *ToolError
	if errors.As(err, &toolError) {
		return toolError.Category
	}
	switch cacheerr.KindOf(err) {
	case cacheerr.KindNotFound:
		return CategoryNotFound
	case cacheerr.KindTruncatedInput, cacheerr.KindOutOfRange, cacheerr.KindCorruptChunk, cacheerr.KindCorruptData:
		return CategoryCorrupt
	}
	return CategoryInternal
}
