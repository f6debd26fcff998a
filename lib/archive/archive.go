// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"fmt"
	"unicode"

	"github.com/bureau-foundation/jagcache/lib/bytecursor"
	"github.com/bureau-foundation/jagcache/lib/cacheerr"
)

// EntryHeaderSize is the size of one entry header: identifier (4),
// size (3), and compressed size (3).
const EntryHeaderSize = 10

// Compressor is the header-less stream compressor archives are encoded
// with. [bzip.Codec] is the implementation used for real caches.
type Compressor interface {
	// Expand decompresses data that lacks the stream's magic header.
	Expand(data []byte) ([]byte, error)

	// Compress compresses data and strips the stream's magic header.
	Compress(data []byte) ([]byte, error)
}

// Entry is one sub-file of an archive. Data is always the decompressed
// content.
type Entry struct {
	ID   uint32
	Data []byte
}

// Archive is a decoded JAG container. Entries keep their insertion
// order; identifiers are unique and the first insertion of an
// identifier wins.
//
// An Archive is safe for concurrent readers. Add and Remove require a
// single writer.
type Archive struct {
	entries   []Entry
	positions map[uint32]int

	wholeCompressed  bool
	decompressedSize int
	compressedSize   int

	// changed is set by mutation. fresh marks an archive built with New
	// rather than decoded. Either causes Encode to recompute the header
	// sizes.
	changed bool
	fresh   bool
}

// New creates an empty archive in the given compression mode.
func New(wholeCompressed bool) *Archive {
	return &Archive{
		positions:       make(map[uint32]int),
		wholeCompressed: wholeCompressed,
		fresh:           true,
	}
}

// NameHash returns the identifier of an entry name: a base-61 rolling
// hash over the uppercased characters, offset so that a space is 0.
// Arithmetic wraps at 32 bits. Names are expected to be printable
// ASCII. Non-ASCII names hash by Unicode code point, not by UTF-16
// unit, so characters outside the Basic Multilingual Plane do not
// match the game client's hash.
func NameHash(name string) uint32 {
	var id uint32
	for _, character := range name {
		id = id*61 + uint32(unicode.ToUpper(character)) - 32
	}
	return id
}

// Decode parses raw archive bytes. The mode is inferred from the
// header: equal decompressed and compressed sizes mean per-entry
// compression, anything else means the body after the header is one
// compressed block.
func Decode(raw []byte, compressor Compressor) (*Archive, error) {
	reader := bytecursor.NewReader(raw)

	decompressedSize, err := reader.Uint24()
	if err != nil {
		return nil, fmt.Errorf("reading archive size: %w", err)
	}
	compressedSize, err := reader.Uint24()
	if err != nil {
		return nil, fmt.Errorf("reading archive compressed size: %w", err)
	}
	wholeCompressed := compressedSize != decompressedSize

	if wholeCompressed {
		body, err := compressor.Expand(reader.Rest())
		if err != nil {
			return nil, fmt.Errorf("expanding archive body: %w", err)
		}
		reader = bytecursor.NewReader(body)
	}

	count, err := reader.Uint16()
	if err != nil {
		return nil, fmt.Errorf("reading entry count: %w", err)
	}
	if need := int(count) * EntryHeaderSize; reader.Remaining() < need {
		return nil, cacheerr.TruncatedInput("%d entry headers need %d bytes, %d remain",
			count, need, reader.Remaining())
	}

	type header struct {
		id             uint32
		size           int
		compressedSize int
	}
	headers := make([]header, count)
	for i := range headers {
		// The table length was checked above.
		id, _ := reader.Uint32()
		size, _ := reader.Uint24()
		entryCompressed, _ := reader.Uint24()
		headers[i] = header{id: id, size: int(size), compressedSize: int(entryCompressed)}
	}

	archive := &Archive{
		entries:          make([]Entry, 0, count),
		positions:        make(map[uint32]int, count),
		wholeCompressed:  wholeCompressed,
		decompressedSize: int(decompressedSize),
		compressedSize:   int(compressedSize),
	}
	for i, header := range headers {
		length := header.compressedSize
		if wholeCompressed {
			length = header.size
		}
		payload, err := reader.Bytes(length)
		if err != nil {
			return nil, fmt.Errorf("reading entry %d (id %d) payload: %w", i, header.id, err)
		}
		if !wholeCompressed {
			payload, err = compressor.Expand(payload)
			if err != nil {
				return nil, fmt.Errorf("expanding entry %d (id %d): %w", i, header.id, err)
			}
		}
		archive.insert(header.id, payload)
	}
	return archive, nil
}

// Encode serializes the archive. In per-entry mode each entry is
// compressed individually; in whole mode the entry table and payloads
// are compressed as one block after the six-byte size header.
//
// A decoded archive that has not been modified keeps the sizes it was
// decoded with. New or modified archives get sizes computed from the
// encoded body. In whole mode the compressed size is always the length
// of the freshly compressed block, since the block is recompressed on
// every encode.
func (a *Archive) Encode(compressor Compressor) ([]byte, error) {
	if len(a.entries) > bytecursor.MaxUint16 {
		return nil, cacheerr.OutOfRange("%d entries, limit %d", len(a.entries), bytecursor.MaxUint16)
	}

	payloads := make([][]byte, len(a.entries))
	framedLength := 2 + len(a.entries)*EntryHeaderSize
	for i, entry := range a.entries {
		if len(entry.Data) > bytecursor.MaxUint24 {
			return nil, cacheerr.OutOfRange("entry %d is %d bytes, limit %d", entry.ID, len(entry.Data), bytecursor.MaxUint24)
		}
		payloads[i] = entry.Data
		if !a.wholeCompressed {
			compressed, err := compressor.Compress(entry.Data)
			if err != nil {
				return nil, fmt.Errorf("compressing entry %d: %w", entry.ID, err)
			}
			if len(compressed) > bytecursor.MaxUint24 {
				return nil, cacheerr.OutOfRange("entry %d compresses to %d bytes, limit %d",
					entry.ID, len(compressed), bytecursor.MaxUint24)
			}
			payloads[i] = compressed
		}
		framedLength += len(payloads[i])
	}

	body := bytecursor.NewWriter(framedLength)
	body.PutUint16(uint16(len(a.entries)))
	for i, entry := range a.entries {
		body.PutUint32(entry.ID)
		body.PutUint24(uint32(len(entry.Data)))
		body.PutUint24(uint32(len(payloads[i])))
	}
	for _, payload := range payloads {
		body.PutBytes(payload)
	}

	encodedBody := body.Bytes()
	if a.wholeCompressed {
		compressed, err := compressor.Compress(encodedBody)
		if err != nil {
			return nil, fmt.Errorf("compressing archive body: %w", err)
		}
		encodedBody = compressed
	}

	decompressedSize, compressedSize := a.decompressedSize, a.compressedSize
	if a.changed || a.fresh {
		decompressedSize = body.Len()
		compressedSize = len(encodedBody)
	}
	if a.wholeCompressed {
		// The client reads compressedSize bytes of block, so it always
		// describes the block just written.
		compressedSize = len(encodedBody)
		if compressedSize == decompressedSize {
			return nil, cacheerr.OutOfRange("whole-compressed body of %d bytes compresses to the same length", decompressedSize)
		}
	}
	if decompressedSize > bytecursor.MaxUint24 || compressedSize > bytecursor.MaxUint24 {
		return nil, cacheerr.OutOfRange("archive sizes %d/%d do not fit in 24 bits", decompressedSize, compressedSize)
	}

	out := bytecursor.NewWriter(6 + len(encodedBody))
	out.PutUint24(uint32(decompressedSize))
	out.PutUint24(uint32(compressedSize))
	out.PutBytes(encodedBody)
	return out.Bytes(), nil
}

// insert appends an entry unless its identifier is already present.
func (a *Archive) insert(id uint32, data []byte) bool {
	if _, exists := a.positions[id]; exists {
		return false
	}
	a.positions[id] = len(a.entries)
	a.entries = append(a.entries, Entry{ID: id, Data: data})
	return true
}

// Len returns the number of entries.
func (a *Archive) Len() int { return len(a.entries) }

// Changed reports whether entries were added or removed since decoding.
func (a *Archive) Changed() bool { return a.changed }

// WholeCompressed reports the archive's compression mode.
func (a *Archive) WholeCompressed() bool { return a.wholeCompressed }

// Sizes returns the decompressed and compressed sizes from the header
// the archive was decoded with. Both are zero for a new archive.
func (a *Archive) Sizes() (decompressed, compressed int) {
	return a.decompressedSize, a.compressedSize
}

// Entries returns the entries in insertion order. The slice is a copy;
// the entry data is shared.
func (a *Archive) Entries() []Entry {
	entries := make([]Entry, len(a.entries))
	copy(entries, a.entries)
	return entries
}

// Entry returns the entry with the given identifier.
func (a *Archive) Entry(id uint32) (Entry, error) {
	position, ok := a.positions[id]
	if !ok {
		return Entry{}, cacheerr.NotFound("archive has no entry %d", id)
	}
	return a.entries[position], nil
}

// EntryByName returns the entry whose identifier is the hash of name.
func (a *Archive) EntryByName(name string) (Entry, error) {
	entry, err := a.Entry(NameHash(name))
	if err != nil {
		return Entry{}, cacheerr.NotFound("archive has no entry %q", name)
	}
	return entry, nil
}

// Add inserts an entry if its identifier is not present yet, and
// reports whether it was inserted.
func (a *Archive) Add(id uint32, data []byte) bool {
	if a.positions == nil {
		a.positions = make(map[uint32]int)
	}
	if !a.insert(id, data) {
		return false
	}
	a.changed = true
	return true
}

// AddNamed inserts an entry under the hash of name.
func (a *Archive) AddNamed(name string, data []byte) bool {
	return a.Add(NameHash(name), data)
}

// Set stores data under id, replacing an existing entry in place or
// appending a new one.
func (a *Archive) Set(id uint32, data []byte) {
	if a.positions == nil {
		a.positions = make(map[uint32]int)
	}
	if position, ok := a.positions[id]; ok {
		a.entries[position].Data = data
	} else {
		a.insert(id, data)
	}
	a.changed = true
}

// Remove deletes the entry with the given identifier, keeping the
// order of the others.
func (a *Archive) Remove(id uint32) error {
	position, ok := a.positions[id]
	if !ok {
		return cacheerr.NotFound("archive has no entry %d", id)
	}
	a.entries = append(a.entries[:position], a.entries[position+1:]...)
	delete(a.positions, id)
	for i := position; i < len(a.entries); i++ {
		a.positions[a.entries[i].ID] = i
	}
	a.changed = true
	return nil
}

// RemoveNamed deletes the entry whose identifier is the hash of name.
func (a *Archive) RemoveNamed(name string) error {
	if err := a.Remove(NameHash(name)); err != nil {
		return cacheerr.NotFound("archive has no entry %q", name)
	}
	return nil
}
