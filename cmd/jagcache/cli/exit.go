// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
)

// Exit codes. Lookups that miss (an absent index, an empty file, an
// unknown archive entry) exit with ExitNotFound so that scripts can
// tell "not there" apart from "broken".
const (
	ExitFailure  = 1
	ExitNotFound = 2
)

// ExitError signals a non-zero exit code without printing an extra
// error message. The command is expected to have already written its
// own output.
//
// "store verify" uses it: the per-file failures are the report, and
// the exit code tells scripts that the cache is damaged.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code. The main function checks for this
// interface on returned errors to distinguish "handled non-zero exit"
// from "unexpected error to display".
func (e *ExitError) ExitCode() int {
	return e.Code
}

// ExitCode maps an error returned by a command to the process exit
// code: 0 for nil, the requested code for an [ExitError], ExitNotFound
// for not-found errors, and ExitFailure for everything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	if Classify(err) == CategoryNotFound {
		return ExitNotFound
	}
	return ExitFailure
}
