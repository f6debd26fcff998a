// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bytecursor provides the big-endian field reader and writer
// used by every cache codec. The cache formats use 8, 16, 24, and 32
// bit unsigned fields; encoding/binary has no 24-bit accessor, and the
// codecs need reads past the end to fail with a classified
// [cacheerr.KindTruncatedInput] error rather than io.ErrUnexpectedEOF.
package bytecursor
