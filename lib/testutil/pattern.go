// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Pattern returns n bytes of deterministic, non-repeating-per-chunk
// content. The seed distinguishes files with equal lengths so that a
// chain stitched from the wrong file's chunks does not compare equal.
func Pattern(n int, seed byte) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i*31+i/251) ^ seed
	}
	return data
}

// WriteFiles writes each name/content pair into directory, failing the
// test on the first error.
func WriteFiles(t *testing.T, directory string, files map[string][]byte) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(directory, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("creating directory for %s: %v", name, err)
		}
		if err := os.WriteFile(path, content, 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
}
