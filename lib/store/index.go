// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"fmt"

	"github.com/bureau-foundation/jagcache/lib/bytecursor"
	"github.com/bureau-foundation/jagcache/lib/cacheerr"
)

// IndexRecordSize is the size of one index record: file size (3) and
// initial chunk id (3).
const IndexRecordSize = 6

// IndexEntry is one logical file recorded in an index.
type IndexEntry struct {
	// FileSize is the decoded content length in bytes.
	FileSize int

	// InitialChunkID is the chunk index (not byte offset) of the head
	// of the file's chain in the data blob.
	InitialChunkID int

	// Chunks is the chain in order. Nil for empty entries.
	Chunks []Chunk

	empty bool
}

// Empty reports whether the entry is the store's marker for an absent
// or deleted file: its chain head pointed outside the data blob.
func (e IndexEntry) Empty() bool { return e.empty }

// Bytes concatenates the chunk payloads in chain order.
func (e IndexEntry) Bytes() []byte {
	content := make([]byte, 0, e.FileSize)
	for _, chunk := range e.Chunks {
		content = append(content, chunk.Payload...)
	}
	return content
}

// Index is the ordered directory of one file category. The file id of
// an entry is its position.
type Index struct {
	// ID is the index id, the N in main_file_cache.idxN.
	ID int

	entries []IndexEntry
	changed bool
}

// FileError reports a single file of an index that failed to decode.
type FileError struct {
	FileID int
	Err    error
}

func (e *FileError) Error() string { return fmt.Sprintf("file %d: %v", e.FileID, e.Err) }

func (e *FileError) Unwrap() error { return e.Err }

// DecodeIndex decodes every 6-byte record of indexData and rebuilds
// each file's chunk chain from blob. Trailing bytes that do not form a
// whole record are ignored. The first file that fails to decode fails
// the whole index; no partially reconstructed entries are returned.
func DecodeIndex(id int, indexData, blob []byte) (*Index, error) {
	index := &Index{ID: id}
	err := walkRecords(indexData, blob, func(fileID int, entry IndexEntry, err error) error {
		if err != nil {
			return fmt.Errorf("decoding index %d: %w", id, &FileError{FileID: fileID, Err: err})
		}
		index.entries = append(index.entries, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return index, nil
}

// ScanIndex decodes every record like [DecodeIndex] but collects
// per-file failures instead of stopping at the first one. The returned
// index holds empty entries in place of the files that failed.
func ScanIndex(id int, indexData, blob []byte) (*Index, []*FileError) {
	index := &Index{ID: id}
	var failures []*FileError
	_ = walkRecords(indexData, blob, func(fileID int, entry IndexEntry, err error) error {
		if err != nil {
			failures = append(failures, &FileError{FileID: fileID, Err: err})
			entry = IndexEntry{empty: true}
		}
		index.entries = append(index.entries, entry)
		return nil
	})
	return index, failures
}

// walkRecords decodes each record in order and hands the result to
// visit. Iteration stops when visit returns an error.
func walkRecords(indexData, blob []byte, visit func(fileID int, entry IndexEntry, err error) error) error {
	records := bytecursor.NewReader(indexData)
	data := bytecursor.NewReader(blob)

	for fileID := 0; records.Remaining() >= IndexRecordSize; fileID++ {
		// Whole records remain, so neither read can fail.
		fileSize, _ := records.Uint24()
		initialChunkID, _ := records.Uint24()

		entry, decodeErr := decodeEntry(data, fileID, int(fileSize), int(initialChunkID))
		if err := visit(fileID, entry, decodeErr); err != nil {
			return err
		}
	}
	return nil
}

// decodeEntry walks one file's chain. The expected chunk count
// fileSize/512+1 is an upper bound on the chain length; a chain that
// reaches it without terminating is corrupt.
func decodeEntry(data *bytecursor.Reader, fileID, fileSize, initialChunkID int) (IndexEntry, error) {
	if initialChunkID <= 0 || initialChunkID > maxChunkPointer(data.Len()) {
		return IndexEntry{FileSize: fileSize, InitialChunkID: initialChunkID, empty: true}, nil
	}

	limit := fileSize/ChunkPayloadSize + 1
	chunks := make([]Chunk, 0, limit)
	total := 0
	current := initialChunkID

	for chunkID := 0; ; chunkID++ {
		if chunkID >= limit {
			return IndexEntry{}, cacheerr.CorruptChunk("chain exceeds %d chunks without a terminal link", limit)
		}
		if err := data.Seek(current * ChunkSize); err != nil {
			return IndexEntry{}, fmt.Errorf("seeking to chunk %d (link %d): %w", current, chunkID, err)
		}
		chunk, err := DecodeChunk(data, fileSize, fileID, chunkID, data.Len())
		if err != nil {
			return IndexEntry{}, fmt.Errorf("decoding link %d at chunk %d: %w", chunkID, current, err)
		}
		chunks = append(chunks, chunk)
		total += len(chunk.Payload)

		if chunk.NextChunkID == 0 {
			break
		}
		current = int(chunk.NextChunkID)
	}

	if total != fileSize {
		return IndexEntry{}, cacheerr.CorruptChunk("chain of %d chunks holds %d bytes, index records %d",
			len(chunks), total, fileSize)
	}

	return IndexEntry{
		FileSize:       fileSize,
		InitialChunkID: initialChunkID,
		Chunks:         chunks,
	}, nil
}

// Len returns the number of records, including empty ones.
func (i *Index) Len() int { return len(i.entries) }

// Changed reports whether any entry was replaced since decoding.
func (i *Index) Changed() bool { return i.changed }

// Entry returns the entry for fileID.
func (i *Index) Entry(fileID int) (IndexEntry, error) {
	if fileID < 0 || fileID >= len(i.entries) {
		return IndexEntry{}, cacheerr.NotFound("index %d has no file %d (%d files)", i.ID, fileID, len(i.entries))
	}
	return i.entries[fileID], nil
}

// Entries returns a copy of the entry list.
func (i *Index) Entries() []IndexEntry {
	entries := make([]IndexEntry, len(i.entries))
	copy(entries, i.entries)
	return entries
}

// File returns the reconstructed content of fileID. Empty entries are
// reported as NotFound.
func (i *Index) File(fileID int) ([]byte, error) {
	entry, err := i.Entry(fileID)
	if err != nil {
		return nil, err
	}
	if entry.Empty() {
		return nil, cacheerr.NotFound("index %d file %d is empty", i.ID, fileID)
	}
	return entry.Bytes(), nil
}

// Put replaces the content of fileID, growing the index with empty
// entries when fileID is past the end. A nil content marks the file
// empty. The new entry's chunks are split from content but not yet
// linked: chain pointers and the initial chunk id are assigned when
// the store is laid out again (see [Layout]).
func (i *Index) Put(fileID int, content []byte) error {
	if fileID < 0 || fileID > bytecursor.MaxUint16 {
		return cacheerr.OutOfRange("file id %d does not fit in 16 bits", fileID)
	}
	if len(content) > bytecursor.MaxUint24 {
		return cacheerr.OutOfRange("file %d is %d bytes, limit %d", fileID, len(content), bytecursor.MaxUint24)
	}

	for len(i.entries) <= fileID {
		i.entries = append(i.entries, IndexEntry{empty: true})
	}

	if content == nil {
		i.entries[fileID] = IndexEntry{empty: true}
	} else {
		i.entries[fileID] = IndexEntry{
			FileSize: len(content),
			Chunks:   splitChunks(i.ID, fileID, content),
		}
	}
	i.changed = true
	return nil
}

// Encode serializes the index records. Empty entries encode as a zero
// size and a zero chain head.
func (i *Index) Encode() ([]byte, error) {
	writer := bytecursor.NewWriter(len(i.entries) * IndexRecordSize)
	for fileID, entry := range i.entries {
		if entry.Empty() {
			writer.PutUint24(0)
			writer.PutUint24(0)
			continue
		}
		if entry.FileSize > bytecursor.MaxUint24 || entry.InitialChunkID > bytecursor.MaxUint24 {
			return nil, cacheerr.OutOfRange("file %d record (size %d, chunk %d) does not fit in 24-bit fields",
				fileID, entry.FileSize, entry.InitialChunkID)
		}
		writer.PutUint24(uint32(entry.FileSize))
		writer.PutUint24(uint32(entry.InitialChunkID))
	}
	return writer.Bytes(), nil
}

// splitChunks cuts content into unlinked chunks for fileID. A
// zero-length file still occupies one chunk so that its chain head is
// a real chunk.
func splitChunks(indexID, fileID int, content []byte) []Chunk {
	count := max(1, (len(content)+ChunkPayloadSize-1)/ChunkPayloadSize)
	chunks := make([]Chunk, count)
	for chunkID := range chunks {
		start := chunkID * ChunkPayloadSize
		end := min(start+ChunkPayloadSize, len(content))
		payload := make([]byte, end-start)
		copy(payload, content[start:end])
		chunks[chunkID] = Chunk{
			FileID:   uint16(fileID),
			ChunkID:  uint16(chunkID),
			DataType: uint8(indexID + 1),
			Payload:  payload,
		}
	}
	return chunks
}
