// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"fmt"

	"github.com/bureau-foundation/jagcache/lib/bytecursor"
	"github.com/bureau-foundation/jagcache/lib/cacheerr"
)

// Layout writes files into a fresh data blob and matching index
// sources, addressed as files[indexID][fileID]. A nil index slice
// produces a nil (absent) index source; a nil file produces an empty
// record.
//
// Chunks are allocated sequentially in index then file order. Chunk 0
// is reserved and zero-filled, since a chain head of 0 means "empty".
// Every chunk is padded to the full chunk stride. Each chunk's data
// type is its index id plus one.
//
// Layout rewrites the whole store: there is no free-chunk tracking and
// no splicing of existing chains.
func Layout(files [][][]byte) ([]byte, [][]byte, error) {
	if len(files) > MaxIndexID+1 {
		return nil, nil, cacheerr.OutOfRange("%d indices, limit %d", len(files), MaxIndexID+1)
	}

	totalChunks := 1
	for _, indexFiles := range files {
		for _, content := range indexFiles {
			if content != nil {
				totalChunks += max(1, (len(content)+ChunkPayloadSize-1)/ChunkPayloadSize)
			}
		}
	}
	if totalChunks-1 > bytecursor.MaxUint24 {
		return nil, nil, cacheerr.OutOfRange("%d chunks do not fit 24-bit chunk pointers", totalChunks)
	}

	blob := bytecursor.NewWriter(totalChunks * ChunkSize)
	blob.PutBytes(make([]byte, ChunkSize))
	nextChunk := 1

	indices := make([][]byte, len(files))
	for indexID, indexFiles := range files {
		if indexFiles == nil {
			continue
		}
		if len(indexFiles) > bytecursor.MaxUint16+1 {
			return nil, nil, cacheerr.OutOfRange("index %d has %d files, limit %d",
				indexID, len(indexFiles), bytecursor.MaxUint16+1)
		}

		records := bytecursor.NewWriter(len(indexFiles) * IndexRecordSize)
		for fileID, content := range indexFiles {
			if content == nil {
				records.PutUint24(0)
				records.PutUint24(0)
				continue
			}
			if len(content) > bytecursor.MaxUint24 {
				return nil, nil, cacheerr.OutOfRange("index %d file %d is %d bytes, limit %d",
					indexID, fileID, len(content), bytecursor.MaxUint24)
			}

			head := nextChunk
			chunks := splitChunks(indexID, fileID, content)
			for position, chunk := range chunks {
				if position < len(chunks)-1 {
					chunk.NextChunkID = uint32(nextChunk + 1)
				}
				encoded, err := chunk.Encode()
				if err != nil {
					return nil, nil, fmt.Errorf("index %d file %d chunk %d: %w", indexID, fileID, position, err)
				}
				blob.PutBytes(encoded)
				blob.PutBytes(make([]byte, ChunkSize-len(encoded)))
				nextChunk++
			}

			records.PutUint24(uint32(len(content)))
			records.PutUint24(uint32(head))
		}
		indices[indexID] = records.Bytes()
	}

	return blob.Bytes(), indices, nil
}
