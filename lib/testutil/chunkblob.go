// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

// Chunk geometry, duplicated here so that testutil stays free of
// jagcache imports.
const (
	chunkHeaderSize  = 8
	chunkPayloadSize = 512
	chunkSize        = chunkHeaderSize + chunkPayloadSize
)

// ChunkBlob builds a data blob one 520-byte chunk slot at a time.
// Header fields are written verbatim, so any combination can be
// expressed. The zero value is an empty blob.
//
//	var blob testutil.ChunkBlob
//	blob.Padding()                             // chunk 0
//	blob.Chunk(0, 0, 2, 1, content[:512])      // chunk 1
//	blob.Chunk(0, 1, 0, 1, content[512:])      // chunk 2
//	data := blob.Bytes()
type ChunkBlob struct {
	data []byte
}

// Chunk appends a chunk slot with the given header and payload. The
// payload is padded with zeros to fill the slot; a payload longer than
// 512 bytes is truncated.
func (b *ChunkBlob) Chunk(fileID, chunkID uint16, next uint32, dataType uint8, payload []byte) *ChunkBlob {
	slot := make([]byte, chunkSize)
	slot[0] = byte(fileID >> 8)
	slot[1] = byte(fileID)
	slot[2] = byte(chunkID >> 8)
	slot[3] = byte(chunkID)
	slot[4] = byte(next >> 16)
	slot[5] = byte(next >> 8)
	slot[6] = byte(next)
	slot[7] = dataType
	copy(slot[chunkHeaderSize:], payload)
	b.data = append(b.data, slot...)
	return b
}

// Padding appends a zero-filled chunk slot.
func (b *ChunkBlob) Padding() *ChunkBlob {
	b.data = append(b.data, make([]byte, chunkSize)...)
	return b
}

// Raw appends bytes without slot alignment, for truncated tails.
func (b *ChunkBlob) Raw(data []byte) *ChunkBlob {
	b.data = append(b.data, data...)
	return b
}

// Len returns the number of whole chunk slots written so far.
func (b *ChunkBlob) Len() int { return len(b.data) / chunkSize }

// Bytes returns the blob.
func (b *ChunkBlob) Bytes() []byte { return b.data }

// IndexRecords encodes (size, head) pairs as 6-byte index records.
func IndexRecords(pairs ...[2]int) []byte {
	records := make([]byte, 0, len(pairs)*6)
	for _, pair := range pairs {
		size, head := pair[0], pair[1]
		records = append(records,
			byte(size>>16), byte(size>>8), byte(size),
			byte(head>>16), byte(head>>8), byte(head))
	}
	return records
}
