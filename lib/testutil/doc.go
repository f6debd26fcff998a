// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for jagcache packages.
//
// [Pattern] produces deterministic file content. Files built from
// different seeds never compare equal, so a chunk chain stitched from
// the wrong file is caught by a plain bytes.Equal.
//
// [ChunkBlob] builds data blobs chunk by chunk with arbitrary header
// fields, including ones no encoder would produce (wrong file ids,
// dangling next pointers, short payloads). Corruption tests use it to
// describe the damaged store byte for byte.
//
// [WriteFiles] lays out a cache directory from a name-to-content map.
//
// [CaptureStdout] collects what a CLI command prints, for tests of
// text and --json output.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no jagcache-internal dependencies.
package testutil
