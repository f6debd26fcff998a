// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package store reads and rebuilds the chunked file store of a JaGeX
// cache: one data blob (main_file_cache.dat) shared by several index
// files (main_file_cache.idxN).
//
// The data blob is a sequence of fixed 520-byte chunks. Each chunk has
// an 8-byte header (owning file id, position in its file's chain, the
// chunk index of the next link, and an opaque data type byte) followed
// by up to 512 bytes of payload. An index file is a sequence of 6-byte
// records, one per file id, giving the file's size and the chunk index
// of its chain head. A head of zero, or one beyond the blob, marks the
// file empty.
//
// [DecodeIndex] rebuilds every file of one index and fails on the first
// corrupt chain; [ScanIndex] collects per-file failures instead. A
// [FileStore] aggregates the indices of a cache. [Open] loads one from
// a directory, memory-mapping the data file only for the duration of
// decoding: every file is copied out, so nothing retains the mapping.
//
// Writes are whole-store: [FileStore.Put] replaces files in memory and
// [Layout] (via [FileStore.Rebuild] or [FileStore.Write]) lays out a
// fresh blob and fresh index sources. Chunk 0 of a laid-out blob is
// reserved so that every real chain head is non-zero.
//
// A FileStore is safe for concurrent reads. Mutation requires a single
// writer with no concurrent readers.
package store
