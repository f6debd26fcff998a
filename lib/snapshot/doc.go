// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package snapshot exports a whole cache store to a single verifiable
// file and restores it.
//
// A snapshot is:
//
//	"JAGSNAP" | version:u8 | manifest_length:u32le | manifest (CBOR) | data region
//
// The manifest lists every non-empty file with its size, its position
// in the data region, how it is compressed (none, LZ4 block, or zstd),
// and its BLAKE3 digest. Index and store digests chain the file digests
// together (see package cachehash), so [Verify] detects any change to
// a file, a missing file, or a file moved to another id.
//
// With [ExportOptions.Recipients] set the whole snapshot is encrypted
// with age to X25519 recipients. [Import] and [Verify] detect sealed
// snapshots by the age header and decrypt them with
// [ImportOptions.Identities].
//
// Snapshots hold decoded file contents, not chunk layout: importing
// lays the store out afresh with store.Layout.
package snapshot
