// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR configuration used for jagcache's
// binary metadata: snapshot manifests and the manifest.cbor written
// next to extracted archive entries.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2), so the
// same logical manifest always produces identical bytes and can itself
// be hashed.
//
//	data, err := codec.Marshal(manifest)
//	err = codec.Unmarshal(data, &manifest)
//
// # Struct Tag Rules
//
//   - `cbor` tag: the type is only ever serialized as CBOR.
//   - `json` tag: the type is also printed by the CLI's --json output.
//     fxamacker/cbor reads `json` tags when `cbor` tags are absent, so
//     one tag controls naming for both formats.
//
// Never use both tags on the same field.
package codec
