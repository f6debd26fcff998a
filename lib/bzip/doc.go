// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bzip adapts bzip2 to the cache's header-less framing.
//
// The cache stores bzip2 streams without their 4-byte "BZh<digit>"
// magic. [Codec.Expand] puts the magic back before decompressing and
// [Codec.Compress] removes it after compressing. The digit differs
// between cache generations (1 for the common client generation, 9
// for editor-produced caches), so it is a constructor argument rather
// than a constant.
//
// The standard library's compress/bzip2 only decompresses; both
// directions go through github.com/dsnet/compress/bzip2 so that the
// compression level and the restored magic come from one setting.
package bzip
