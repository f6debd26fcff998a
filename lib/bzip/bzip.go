// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bzip

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dsnet/compress/bzip2"

	"github.com/bureau-foundation/jagcache/lib/cacheerr"
)

// HeaderSize is the length of the bzip2 stream magic that the cache
// omits: "BZh" followed by the block-size digit.
const HeaderSize = 4

// DefaultBlockSize is the block-size digit used by the most common
// cache generation ("BZh1").
const DefaultBlockSize = 1

// Codec expands and compresses header-less bzip2 streams for one cache
// generation. The block-size digit is both the value restored into
// the magic before decompression and the compression level used when
// compressing, so the two directions always agree.
//
// A Codec holds no mutable state and is safe for concurrent use.
type Codec struct {
	blockSize int
	header    [HeaderSize]byte
}

// New creates a codec for the given block-size digit (1 through 9).
func New(blockSize int) (*Codec, error) {
	if blockSize < bzip2.BestSpeed || blockSize > bzip2.BestCompression {
		return nil, fmt.Errorf("bzip2 block size must be between %d and %d, got %d",
			bzip2.BestSpeed, bzip2.BestCompression, blockSize)
	}
	return &Codec{
		blockSize: blockSize,
		header:    [HeaderSize]byte{'B', 'Z', 'h', byte('0' + blockSize)},
	}, nil
}

// Default returns a codec for [DefaultBlockSize].
func Default() *Codec {
	codec, err := New(DefaultBlockSize)
	if err != nil {
		panic("bzip: default codec initialization failed: " + err.Error())
	}
	return codec
}

// BlockSize returns the block-size digit.
func (c *Codec) BlockSize() int { return c.blockSize }

// Header returns the 4-byte magic this codec restores on expansion.
func (c *Codec) Header() [HeaderSize]byte { return c.header }

// Expand restores the magic header in front of data and decompresses
// the complete stream. Any decoder failure is returned as CorruptData;
// partially decoded output is discarded.
func (c *Codec) Expand(data []byte) ([]byte, error) {
	framed := make([]byte, 0, HeaderSize+len(data))
	framed = append(framed, c.header[:]...)
	framed = append(framed, data...)

	reader, err := bzip2.NewReader(bytes.NewReader(framed), nil)
	if err != nil {
		return nil, cacheerr.CorruptData("opening bzip2 stream: %w", err)
	}
	defer reader.Close()

	expanded, err := io.ReadAll(reader)
	if err != nil {
		return nil, cacheerr.CorruptData("expanding %d bytes of bzip2 data: %w", len(data), err)
	}
	return expanded, nil
}

// Compress compresses data at this codec's block size and strips the
// leading magic header from the result.
func (c *Codec) Compress(data []byte) ([]byte, error) {
	var buffer bytes.Buffer
	writer, err := bzip2.NewWriter(&buffer, &bzip2.WriterConfig{Level: c.blockSize})
	if err != nil {
		return nil, fmt.Errorf("creating bzip2 writer: %w", err)
	}
	if _, err := writer.Write(data); err != nil {
		return nil, fmt.Errorf("compressing %d bytes: %w", len(data), err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalizing bzip2 stream: %w", err)
	}

	compressed := buffer.Bytes()
	if len(compressed) < HeaderSize || !bytes.Equal(compressed[:HeaderSize], c.header[:]) {
		return nil, fmt.Errorf("bzip2 writer produced unexpected header %q", compressed[:min(len(compressed), HeaderSize)])
	}
	return compressed[HeaderSize:], nil
}
