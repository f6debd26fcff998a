// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"bytes"
	"io"
	"os"
	"testing"
)

// CaptureStdout runs fn with os.Stdout redirected to a pipe and returns
// everything fn wrote. Tests that use it must not run in parallel.
func CaptureStdout(t *testing.T, fn func()) string {
	t.Helper()

	original := os.Stdout
	reader, writer, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = writer

	captured := make(chan []byte, 1)
	go func() {
		var buffer bytes.Buffer
		io.Copy(&buffer, reader)
		reader.Close()
		captured <- buffer.Bytes()
	}()

	defer func() {
		writer.Close()
		os.Stdout = original
	}()
	fn()
	writer.Close()
	os.Stdout = original
	return string(<-captured)
}
