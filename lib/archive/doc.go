// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive decodes and encodes JAG archives: containers that
// pack many sub-files, addressed by a 32-bit identifier, into one file
// of the cache store.
//
// The layout is big-endian throughout:
//
//	decompressed_size:u24 | compressed_size:u24 | body
//	body = entry_count:u16 | entry_count x (id:u32, size:u24, compressed_size:u24) | payloads
//
// There is no mode flag. When the two header sizes are equal each
// payload is compressed on its own; when they differ the whole body is
// one compressed block. Compression goes through a [Compressor], which
// for real caches is the header-less bzip2 codec of package bzip.
//
// Entry identifiers are usually [NameHash] of a file name such as
// "index.dat". Lookups by name hash the name first.
package archive
