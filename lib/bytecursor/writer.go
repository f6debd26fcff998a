// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bytecursor

// Writer accumulates big-endian fields into a growing buffer. It is
// append-only: there is no cursor and no seeking.
//
// Put methods write the low bits of their argument. Encoders are
// responsible for rejecting values that do not fit a field's width
// before calling them (see the MaxUint constants).
type Writer struct {
	buffer []byte
}

// Field width limits for encoder validation.
const (
	MaxUint8  = 1<<8 - 1
	MaxUint16 = 1<<16 - 1
	MaxUint24 = 1<<24 - 1
)

// NewWriter creates a writer with capacity preallocated.
func NewWriter(capacity int) *Writer {
	return &Writer{buffer: make([]byte, 0, capacity)}
}

// PutUint8 appends one byte.
func (w *Writer) PutUint8(value uint8) {
	w.buffer = append(w.buffer, value)
}

// PutUint16 appends a big-endian 16-bit value.
func (w *Writer) PutUint16(value uint16) {
	w.buffer = append(w.buffer, byte(value>>8), byte(value))
}

// PutUint24 appends the low 24 bits of value, big-endian.
func (w *Writer) PutUint24(value uint32) {
	w.buffer = append(w.buffer, byte(value>>16), byte(value>>8), byte(value))
}

// PutUint32 appends a big-endian 32-bit value.
func (w *Writer) PutUint32(value uint32) {
	w.buffer = append(w.buffer, byte(value>>24), byte(value>>16), byte(value>>8), byte(value))
}

// PutBytes appends data verbatim.
func (w *Writer) PutBytes(data []byte) {
	w.buffer = append(w.buffer, data...)
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buffer) }

// Bytes returns the accumulated buffer. The writer keeps appending to
// the same backing array, so callers that continue writing after
// Bytes must not retain the result.
func (w *Writer) Bytes() []byte { return w.buffer }
