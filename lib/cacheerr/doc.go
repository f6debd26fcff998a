// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cacheerr defines the error taxonomy shared by every cache
// codec: truncated input, out-of-range pointers, corrupt chunks,
// corrupt (undecompressable) data, and failed lookups.
//
// Codecs never recover from these errors internally and never
// substitute default content for corrupt input. They return a
// classified [Error], usually wrapped with fmt.Errorf context on the
// way up, and the caller decides whether to abort or skip:
//
//	data, err := fileStore.Get(indexID, fileID)
//	if errors.Is(err, cacheerr.ErrNotFound) {
//	    continue
//	}
package cacheerr
