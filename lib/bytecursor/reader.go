// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bytecursor

import (
	"github.com/bureau-foundation/jagcache/lib/cacheerr"
)

// Reader reads big-endian unsigned fields from a byte slice, advancing
// a cursor by the width of each field. Reads past the end fail with
// [cacheerr.KindTruncatedInput] and leave the cursor where it was.
//
// A Reader borrows its slice; it never modifies it. Methods that return
// byte slices return copies, so the caller owns the result even when
// the underlying slice is a memory map that will be unmapped.
type Reader struct {
	data     []byte
	position int
}

// NewReader creates a reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Len returns the total length of the underlying data.
func (r *Reader) Len() int { return len(r.data) }

// Position returns the cursor offset from the start of the data.
func (r *Reader) Position() int { return r.position }

// Remaining returns the number of bytes between the cursor and the end.
func (r *Reader) Remaining() int { return len(r.data) - r.position }

// Seek sets the cursor to an absolute position. Positions at or beyond
// the end of the data fail with OutOfRange: there is nothing to read
// there.
func (r *Reader) Seek(position int) error {
	if position < 0 || position >= len(r.data) {
		return cacheerr.OutOfRange("seek to %d in %d-byte buffer", position, len(r.data))
	}
	r.position = position
	return nil
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) error {
	if err := r.require(n); err != nil {
		return err
	}
	r.position += n
	return nil
}

// Uint8 reads one unsigned byte.
func (r *Reader) Uint8() (uint8, error) {
	if err := r.require(1); err != nil {
		return 0, err
	}
	value := r.data[r.position]
	r.position++
	return value, nil
}

// Uint16 reads a big-endian unsigned 16-bit value.
func (r *Reader) Uint16() (uint16, error) {
	if err := r.require(2); err != nil {
		return 0, err
	}
	b := r.data[r.position:]
	r.position += 2
	return uint16(b[0])<<8 | uint16(b[1]), nil
}

// Uint24 reads a big-endian unsigned 24-bit value.
func (r *Reader) Uint24() (uint32, error) {
	if err := r.require(3); err != nil {
		return 0, err
	}
	b := r.data[r.position:]
	r.position += 3
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]), nil
}

// Uint32 reads a big-endian unsigned 32-bit value.
func (r *Reader) Uint32() (uint32, error) {
	if err := r.require(4); err != nil {
		return 0, err
	}
	b := r.data[r.position:]
	r.position += 4
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), nil
}

// Bytes copies the next n bytes and advances past them.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if err := r.require(n); err != nil {
		return nil, err
	}
	result := make([]byte, n)
	copy(result, r.data[r.position:r.position+n])
	r.position += n
	return result, nil
}

// Rest copies every byte from the cursor to the end and moves the
// cursor to the end.
func (r *Reader) Rest() []byte {
	result := make([]byte, len(r.data)-r.position)
	copy(result, r.data[r.position:])
	r.position = len(r.data)
	return result
}

func (r *Reader) require(n int) error {
	if n < 0 {
		return cacheerr.OutOfRange("negative read length %d", n)
	}
	if r.Remaining() < n {
		return cacheerr.TruncatedInput("need %d bytes at offset %d, have %d", n, r.position, r.Remaining())
	}
	return nil
}
