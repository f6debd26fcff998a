// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"bytes"
	"errors"
	"testing"

	"github.com/bureau-foundation/jagcache/lib/bytecursor"
	"github.com/bureau-foundation/jagcache/lib/cacheerr"
)

// rawChunk builds one chunk padded to the full stride.
func rawChunk(fileID, chunkID uint16, next uint32, dataType uint8, payload []byte) []byte {
	encoded, err := Chunk{
		FileID:      fileID,
		ChunkID:     chunkID,
		NextChunkID: next,
		DataType:    dataType,
		Payload:     payload,
	}.Encode()
	if err != nil {
		panic(err)
	}
	return append(encoded, make([]byte, ChunkSize-len(encoded))...)
}

// blobOf concatenates chunks into a data blob.
func blobOf(chunks ...[]byte) []byte {
	return bytes.Join(chunks, nil)
}

func TestPayloadLength(t *testing.T) {
	tests := []struct {
		chunkID  int
		fileSize int
		want     int
	}{
		{0, 0, 0},
		{0, 2, 2},
		{0, 511, 511},
		{0, 512, 512},
		{0, 513, 512},
		{1, 513, 1},
		{1, 1024, 512},
		{2, 1025, 1},
	}
	for _, test := range tests {
		if got := payloadLength(test.chunkID, test.fileSize); got != test.want {
			t.Errorf("payloadLength(%d, %d) = %d, want %d", test.chunkID, test.fileSize, got, test.want)
		}
	}
}

func TestDecodeChunk(t *testing.T) {
	blob := blobOf(rawChunk(7, 0, 1, 3, []byte("hello")))
	reader := bytecursor.NewReader(blob)

	chunk, err := DecodeChunk(reader, 5, 7, 0, len(blob))
	if err != nil {
		t.Fatalf("DecodeChunk: %v", err)
	}
	if chunk.FileID != 7 || chunk.ChunkID != 0 || chunk.NextChunkID != 1 || chunk.DataType != 3 {
		t.Errorf("header = %+v", chunk)
	}
	if string(chunk.Payload) != "hello" {
		t.Errorf("payload = %q, want %q", chunk.Payload, "hello")
	}
	if reader.Position() != ChunkHeaderSize+5 {
		t.Errorf("cursor at %d, want %d", reader.Position(), ChunkHeaderSize+5)
	}
}

func TestDecodeChunkRejectsMismatches(t *testing.T) {
	tests := []struct {
		name    string
		chunk   []byte
		fileID  int
		chunkID int
	}{
		{"wrong file", rawChunk(2, 0, 0, 1, []byte("x")), 1, 0},
		{"wrong position", rawChunk(1, 4, 0, 1, []byte("x")), 1, 0},
		{"next beyond blob", rawChunk(1, 0, 9, 1, []byte("x")), 1, 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := DecodeChunk(bytecursor.NewReader(test.chunk), 1, test.fileID, test.chunkID, len(test.chunk))
			if !errors.Is(err, cacheerr.ErrCorruptChunk) {
				t.Fatalf("error = %v, want CorruptChunk", err)
			}
		})
	}
}

func TestDecodeChunkTruncated(t *testing.T) {
	full := rawChunk(0, 0, 0, 1, bytes.Repeat([]byte{0xaa}, 100))

	_, err := DecodeChunk(bytecursor.NewReader(full[:5]), 100, 0, 0, len(full))
	if !errors.Is(err, cacheerr.ErrTruncatedInput) {
		t.Errorf("short header: error = %v, want TruncatedInput", err)
	}

	_, err = DecodeChunk(bytecursor.NewReader(full[:ChunkHeaderSize+50]), 100, 0, 0, len(full))
	if !errors.Is(err, cacheerr.ErrTruncatedInput) {
		t.Errorf("short payload: error = %v, want TruncatedInput", err)
	}
}

func TestChunkEncodeLimits(t *testing.T) {
	_, err := Chunk{NextChunkID: bytecursor.MaxUint24 + 1}.Encode()
	if !errors.Is(err, cacheerr.ErrOutOfRange) {
		t.Errorf("oversized next: error = %v, want OutOfRange", err)
	}
	_, err = Chunk{Payload: make([]byte, ChunkPayloadSize+1)}.Encode()
	if !errors.Is(err, cacheerr.ErrOutOfRange) {
		t.Errorf("oversized payload: error = %v, want OutOfRange", err)
	}

	encoded, err := Chunk{FileID: 0x0102, ChunkID: 0x0304, NextChunkID: 0x050607, DataType: 8}.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if !bytes.Equal(encoded, want) {
		t.Errorf("Encode = %x, want %x", encoded, want)
	}
}
