// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"fmt"

	"github.com/bureau-foundation/jagcache/lib/cacheerr"
)

// MaxIndexID is the highest index id a rebuilt store can hold: chunk
// data types carry the index id plus one in a single byte.
const MaxIndexID = 254

// FileStore aggregates the indices of one cache. Decoding copies every
// file out of the data blob, so a FileStore does not retain the blob
// and the caller may release (or unmap) it once [Load] returns.
//
// Concurrent Get calls are safe. Put requires a single writer with no
// concurrent readers.
type FileStore struct {
	// indices is addressed by index id. A nil slot is an index the
	// store does not have.
	indices []*Index
}

// IndexStats summarizes one index slot.
type IndexStats struct {
	ID      int  `json:"id"`
	Present bool `json:"present"`
	Files   int  `json:"files"`
	Empty   int  `json:"empty"`
	Bytes   int  `json:"bytes"`
	Changed bool `json:"changed"`
}

// Load decodes each index source against the shared data blob. The
// index id of a source is its position in indexSources; a nil source
// leaves that id absent.
func Load(indexSources [][]byte, blob []byte) (*FileStore, error) {
	store := &FileStore{indices: make([]*Index, len(indexSources))}
	for id, source := range indexSources {
		if source == nil {
			continue
		}
		index, err := DecodeIndex(id, source, blob)
		if err != nil {
			return nil, err
		}
		store.indices[id] = index
	}
	return store, nil
}

// IndexCount returns one more than the highest index id slot.
func (s *FileStore) IndexCount() int { return len(s.indices) }

// Index returns the index with the given id.
func (s *FileStore) Index(id int) (*Index, error) {
	if id < 0 || id >= len(s.indices) || s.indices[id] == nil {
		return nil, cacheerr.NotFound("store has no index %d", id)
	}
	return s.indices[id], nil
}

// Get returns the content of a file. Out-of-range ids, absent indices,
// and empty entries are all NotFound.
func (s *FileStore) Get(indexID, fileID int) ([]byte, error) {
	index, err := s.Index(indexID)
	if err != nil {
		return nil, err
	}
	return index.File(fileID)
}

// Put replaces (or adds) a file in memory, creating the index if the
// store does not have it yet. Persisting the change requires laying
// the store out again with [FileStore.Rebuild].
func (s *FileStore) Put(indexID, fileID int, content []byte) error {
	if indexID < 0 || indexID > MaxIndexID {
		return cacheerr.OutOfRange("index id %d outside 0..%d", indexID, MaxIndexID)
	}
	for len(s.indices) <= indexID {
		s.indices = append(s.indices, nil)
	}
	if s.indices[indexID] == nil {
		s.indices[indexID] = &Index{ID: indexID}
	}
	if err := s.indices[indexID].Put(fileID, content); err != nil {
		return fmt.Errorf("index %d: %w", indexID, err)
	}
	return nil
}

// Changed reports whether any index has been modified.
func (s *FileStore) Changed() bool {
	for _, index := range s.indices {
		if index != nil && index.Changed() {
			return true
		}
	}
	return false
}

// Contents returns every file's content, addressed as
// contents[indexID][fileID]. Absent indices are nil slices and empty
// entries are nil; a present zero-length file is a non-nil empty
// slice. The result is the input [Layout] expects.
func (s *FileStore) Contents() [][][]byte {
	contents := make([][][]byte, len(s.indices))
	for id, index := range s.indices {
		if index == nil {
			continue
		}
		files := make([][]byte, index.Len())
		for fileID, entry := range index.entries {
			if !entry.Empty() {
				files[fileID] = entry.Bytes()
			}
		}
		contents[id] = files
	}
	return contents
}

// Rebuild lays the store out into a fresh data blob and index sources.
func (s *FileStore) Rebuild() ([]byte, [][]byte, error) {
	return Layout(s.Contents())
}

// Stats summarizes every index slot in id order.
func (s *FileStore) Stats() []IndexStats {
	stats := make([]IndexStats, len(s.indices))
	for id, index := range s.indices {
		stats[id].ID = id
		if index == nil {
			continue
		}
		stats[id].Present = true
		stats[id].Files = index.Len()
		stats[id].Changed = index.Changed()
		for _, entry := range index.entries {
			if entry.Empty() {
				stats[id].Empty++
				continue
			}
			stats[id].Bytes += entry.FileSize
		}
	}
	return stats
}
