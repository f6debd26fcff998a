// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bytecursor

import (
	"bytes"
	"errors"
	"testing"

	"github.com/bureau-foundation/jagcache/lib/cacheerr"
)

func TestReaderFields(t *testing.T) {
	reader := NewReader([]byte{
		0x7f,
		0x12, 0x34,
		0xab, 0xcd, 0xef,
		0xde, 0xad, 0xbe, 0xef,
		'h', 'i',
	})

	u8, err := reader.Uint8()
	if err != nil || u8 != 0x7f {
		t.Fatalf("Uint8 = %#x, %v; want 0x7f", u8, err)
	}
	u16, err := reader.Uint16()
	if err != nil || u16 != 0x1234 {
		t.Fatalf("Uint16 = %#x, %v; want 0x1234", u16, err)
	}
	u24, err := reader.Uint24()
	if err != nil || u24 != 0xabcdef {
		t.Fatalf("Uint24 = %#x, %v; want 0xabcdef", u24, err)
	}
	u32, err := reader.Uint32()
	if err != nil || u32 != 0xdeadbeef {
		t.Fatalf("Uint32 = %#x, %v; want 0xdeadbeef", u32, err)
	}
	if reader.Position() != 10 || reader.Remaining() != 2 {
		t.Errorf("Position/Remaining = %d/%d, want 10/2", reader.Position(), reader.Remaining())
	}
	rest := reader.Rest()
	if string(rest) != "hi" {
		t.Errorf("Rest = %q, want %q", rest, "hi")
	}
	if reader.Remaining() != 0 {
		t.Errorf("Remaining after Rest = %d, want 0", reader.Remaining())
	}
}

func TestReaderTruncatedLeavesCursor(t *testing.T) {
	reader := NewReader([]byte{0x01, 0x02})

	for name, read := range map[string]func() error{
		"Uint24": func() error { _, err := reader.Uint24(); return err },
		"Uint32": func() error { _, err := reader.Uint32(); return err },
		"Bytes":  func() error { _, err := reader.Bytes(3); return err },
		"Skip":   func() error { return reader.Skip(5) },
	} {
		t.Run(name, func(t *testing.T) {
			err := read()
			if !errors.Is(err, cacheerr.ErrTruncatedInput) {
				t.Fatalf("%s error = %v, want TruncatedInput", name, err)
			}
			if reader.Position() != 0 {
				t.Errorf("cursor moved to %d after failed %s", reader.Position(), name)
			}
		})
	}
}

func TestReaderBytesCopies(t *testing.T) {
	source := []byte{1, 2, 3}
	reader := NewReader(source)

	copied, err := reader.Bytes(3)
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	copied[0] = 99
	if source[0] != 1 {
		t.Error("Bytes returned a slice aliasing the source")
	}
}

func TestReaderSeek(t *testing.T) {
	reader := NewReader(make([]byte, 10))

	if err := reader.Seek(9); err != nil {
		t.Fatalf("Seek(9) failed: %v", err)
	}
	if reader.Position() != 9 {
		t.Errorf("Position = %d, want 9", reader.Position())
	}

	for _, position := range []int{10, 11, -1} {
		if err := reader.Seek(position); !errors.Is(err, cacheerr.ErrOutOfRange) {
			t.Errorf("Seek(%d) error = %v, want OutOfRange", position, err)
		}
	}
	if reader.Position() != 9 {
		t.Errorf("failed Seek moved cursor to %d", reader.Position())
	}
}

func TestWriterFields(t *testing.T) {
	writer := NewWriter(0)
	writer.PutUint8(0x7f)
	writer.PutUint16(0x1234)
	writer.PutUint24(0xabcdef)
	writer.PutUint32(0xdeadbeef)
	writer.PutBytes([]byte("hi"))

	want := []byte{0x7f, 0x12, 0x34, 0xab, 0xcd, 0xef, 0xde, 0xad, 0xbe, 0xef, 'h', 'i'}
	if !bytes.Equal(writer.Bytes(), want) {
		t.Errorf("Bytes = %x, want %x", writer.Bytes(), want)
	}
	if writer.Len() != len(want) {
		t.Errorf("Len = %d, want %d", writer.Len(), len(want))
	}
}

func TestWriterUint24KeepsLowBits(t *testing.T) {
	writer := NewWriter(3)
	writer.PutUint24(0x01abcdef)

	reader := NewReader(writer.Bytes())
	value, err := reader.Uint24()
	if err != nil {
		t.Fatalf("Uint24 failed: %v", err)
	}
	if value != 0xabcdef {
		t.Errorf("Uint24 = %#x, want 0xabcdef", value)
	}
}
