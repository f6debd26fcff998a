// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"fmt"

	"github.com/bureau-foundation/jagcache/lib/bytecursor"
	"github.com/bureau-foundation/jagcache/lib/cacheerr"
)

// Data store geometry constants. These are format constants; changing
// them breaks compatibility with every existing cache.
const (
	// ChunkHeaderSize is the chunk header: file id (2), chunk id (2),
	// next chunk id (3), data type (1).
	ChunkHeaderSize = 8

	// ChunkPayloadSize is the maximum payload carried by one chunk.
	ChunkPayloadSize = 512

	// ChunkSize is the stride between chunks in the data blob.
	ChunkSize = ChunkHeaderSize + ChunkPayloadSize
)

// Chunk is one physical block of the data store.
type Chunk struct {
	// FileID is the ordinal of the owning file within its index.
	FileID uint16

	// ChunkID is the 0-based position of this chunk in its file's
	// chain.
	ChunkID uint16

	// NextChunkID is the chunk index of the next link, or 0 if this
	// chunk terminates the chain.
	NextChunkID uint32

	// DataType is carried through opaquely. Caches written by the
	// game client set it to the owning index id plus one.
	DataType uint8

	// Payload is this chunk's slice of the file content.
	Payload []byte
}

// payloadLength returns how many payload bytes chunk chunkID of a file
// of fileSize bytes carries: a full payload for every chunk that ends
// at or before fileSize, and the remainder for the one that crosses
// it. A file whose size is a multiple of the payload size therefore
// reads full payloads for every chunk, including the last.
func payloadLength(chunkID, fileSize int) int {
	if (chunkID+1)*ChunkPayloadSize > fileSize {
		return fileSize % ChunkPayloadSize
	}
	return ChunkPayloadSize
}

// maxChunkPointer returns the largest next-chunk pointer accepted for
// a data blob of blobLength bytes. The bound divides by the payload
// size, not the chunk stride, so it admits pointers slightly past the
// last chunk; those fail when the chain walk seeks to them.
func maxChunkPointer(blobLength int) int {
	return blobLength / ChunkPayloadSize
}

// DecodeChunk reads one chunk at the reader's cursor and validates it
// against its expected position in a chain. fileSize is the size of
// the whole file (not this chunk) and determines the payload length.
// blobLength is the total length of the data blob and bounds the next
// chunk pointer.
func DecodeChunk(reader *bytecursor.Reader, fileSize int, expectedFileID, expectedChunkID int, blobLength int) (Chunk, error) {
	offset := reader.Position()

	fileID, err := reader.Uint16()
	if err != nil {
		return Chunk{}, fmt.Errorf("reading chunk header at offset %d: %w", offset, err)
	}
	chunkID, err := reader.Uint16()
	if err != nil {
		return Chunk{}, fmt.Errorf("reading chunk header at offset %d: %w", offset, err)
	}
	nextChunkID, err := reader.Uint24()
	if err != nil {
		return Chunk{}, fmt.Errorf("reading chunk header at offset %d: %w", offset, err)
	}
	dataType, err := reader.Uint8()
	if err != nil {
		return Chunk{}, fmt.Errorf("reading chunk header at offset %d: %w", offset, err)
	}

	if int(fileID) != expectedFileID {
		return Chunk{}, cacheerr.CorruptChunk("chunk at offset %d belongs to file %d, expected file %d",
			offset, fileID, expectedFileID)
	}
	if int(chunkID) != expectedChunkID {
		return Chunk{}, cacheerr.CorruptChunk("chunk at offset %d has chunk id %d, expected %d",
			offset, chunkID, expectedChunkID)
	}
	if limit := maxChunkPointer(blobLength); int(nextChunkID) > limit {
		return Chunk{}, cacheerr.CorruptChunk("chunk at offset %d points to chunk %d, beyond limit %d",
			offset, nextChunkID, limit)
	}

	length := payloadLength(int(chunkID), fileSize)
	payload, err := reader.Bytes(length)
	if err != nil {
		return Chunk{}, fmt.Errorf("reading %d-byte payload of chunk at offset %d: %w", length, offset, err)
	}

	return Chunk{
		FileID:      fileID,
		ChunkID:     chunkID,
		NextChunkID: nextChunkID,
		DataType:    dataType,
		Payload:     payload,
	}, nil
}

// Encode serializes the chunk header followed by the payload verbatim.
// The result is ChunkHeaderSize+len(Payload) bytes; padding to
// ChunkSize is the caller's concern.
func (c Chunk) Encode() ([]byte, error) {
	if c.NextChunkID > bytecursor.MaxUint24 {
		return nil, cacheerr.OutOfRange("next chunk id %d does not fit in 24 bits", c.NextChunkID)
	}
	if len(c.Payload) > ChunkPayloadSize {
		return nil, cacheerr.OutOfRange("chunk payload is %d bytes, limit %d", len(c.Payload), ChunkPayloadSize)
	}

	writer := bytecursor.NewWriter(ChunkHeaderSize + len(c.Payload))
	writer.PutUint16(c.FileID)
	writer.PutUint16(c.ChunkID)
	writer.PutUint24(c.NextChunkID)
	writer.PutUint8(c.DataType)
	writer.PutBytes(c.Payload)
	return writer.Bytes(), nil
}
