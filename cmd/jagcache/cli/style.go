// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"
)

// Heading colours, matching the palette used for section titles in
// text listings.
var (
	headingColor = lipgloss.AdaptiveColor{Light: "#1F5F99", Dark: "#7AB8F5"}
	dimColor     = lipgloss.AdaptiveColor{Light: "#6B6B6B", Dark: "#8A8A8A"}
)

// isTerminal reports whether w is a terminal file.
func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// Heading renders a section title for w: bold and coloured on a
// terminal, plain text otherwise, so that redirected output stays
// free of escape sequences.
func Heading(w io.Writer, text string) string {
	if !isTerminal(w) {
		return text
	}
	return lipgloss.NewRenderer(w).NewStyle().
		Bold(true).
		Foreground(headingColor).
		Render(text)
}

// Dim renders secondary text (digests, offsets) for w.
func Dim(w io.Writer, text string) string {
	if !isTerminal(w) {
		return text
	}
	return lipgloss.NewRenderer(w).NewStyle().
		Foreground(dimColor).
		Render(text)
}

// FormatSize returns a human-readable byte count in binary units.
func FormatSize(bytes int) string {
	return humanize.IBytes(uint64(max(bytes, 0)))
}
