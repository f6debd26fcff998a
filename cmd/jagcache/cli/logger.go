// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/bureau-foundation/jagcache/lib/config"
)

// NewCommandLogger creates the structured logger handed to every
// command. Format "auto" uses slog.TextHandler when w is a terminal
// and slog.JSONHandler otherwise (CI, scripts, log collectors).
//
// Commands receive the logger already scoped with "command"; they add
// their own context with With():
//
//	logger = logger.With("directory", params.Store)
func NewCommandLogger(w io.Writer, logging config.LoggingConfig) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logging.Level)); err != nil {
		return nil, fmt.Errorf("logging.level: %w", err)
	}
	options := &slog.HandlerOptions{Level: level}

	format := logging.Format
	if format == "" || format == "auto" {
		format = "json"
		if file, ok := w.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
			format = "text"
		}
	}

	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(w, options)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, options)), nil
	default:
		return nil, fmt.Errorf("logging.format %q is not auto, text, or json", logging.Format)
	}
}
