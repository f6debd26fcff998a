// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"github.com/bureau-foundation/jagcache/lib/cachehash"
	"github.com/bureau-foundation/jagcache/lib/store"
)

// Digest computes the store digest without writing a snapshot. The
// root equals the Root of the manifest [Export] would produce for the
// same store; indexHashes is addressed by index id with the zero hash
// for absent indices.
func Digest(source *store.FileStore) (root cachehash.Hash, indexHashes []cachehash.Hash) {
	indexHashes = make([]cachehash.Hash, source.IndexCount())
	for id := range source.IndexCount() {
		index, err := source.Index(id)
		if err != nil {
			continue
		}
		fileHashes := make([]cachehash.Hash, index.Len())
		for fileID, entry := range index.Entries() {
			if !entry.Empty() {
				fileHashes[fileID] = cachehash.HashFile(entry.Bytes())
			}
		}
		indexHashes[id] = cachehash.HashIndex(fileHashes)
	}
	return cachehash.HashStore(indexHashes), indexHashes
}
