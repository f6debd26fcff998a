// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cachehash computes BLAKE3 digests of cache content.
//
// Every digest is a keyed hash whose key names its domain (a store
// file, an archive entry, an archive, an index, a whole store), so the
// same bytes hashed in two roles never collide. Lists of hashes are
// combined through a binary Merkle tree ([MerkleRoot]) and the root is
// hashed again under the list's domain.
//
// Digests are stable across re-encoding: they cover decoded content and
// identifiers, never compressed envelopes, so an archive repacked with a
// different bzip2 implementation keeps its digest.
package cachehash
