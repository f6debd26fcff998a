// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package unpack interprets decoded archive entries as game resources.
//
// [UnpackVersionLists] reads the versionlist archive: for each resource
// kind a table of per-file versions, optional CRCs, and an optional
// index, which for maps is parsed into [MapRegion] records.
//
// [UnpackSprite] decodes one frame of a palette-indexed sprite group
// from a media archive. Group headers and palettes live in index.dat;
// pixel indices live in the group's own <name>.dat entry.
package unpack
