// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// FileNames configures the on-disk names of a cache directory.
type FileNames struct {
	// Data is the data blob file name.
	Data string

	// IndexPrefix is the index file name without its numeric suffix.
	// Index id N lives in IndexPrefix followed by N.
	IndexPrefix string
}

// DefaultFileNames returns the names the game client uses.
func DefaultFileNames() FileNames {
	return FileNames{
		Data:        "main_file_cache.dat",
		IndexPrefix: "main_file_cache.idx",
	}
}

// indexFile is one index file discovered in a cache directory.
type indexFile struct {
	id   int
	path string
}

// Open loads the cache in directory. Index ids come from the numeric
// suffix of each index file name, not from discovery order; ids with
// no file are absent. The data file is memory-mapped only while the
// indices are decoded.
func Open(directory string, names FileNames) (*FileStore, error) {
	indexFiles, err := discoverIndices(directory, names)
	if err != nil {
		return nil, err
	}

	blob, err := mapFile(filepath.Join(directory, names.Data))
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	sources, err := readIndexSources(indexFiles)
	if err != nil {
		return nil, err
	}

	store, err := Load(sources, blob.Bytes())
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", directory, err)
	}
	return store, nil
}

// IndexReport is the result of scanning one index of a directory.
type IndexReport struct {
	Index    *Index
	Failures []*FileError
}

// Scan decodes every index in directory like [Open], but records
// per-file failures instead of stopping at the first one. Reports are
// addressed by index id; absent ids are nil.
func Scan(directory string, names FileNames) ([]*IndexReport, error) {
	indexFiles, err := discoverIndices(directory, names)
	if err != nil {
		return nil, err
	}

	blob, err := mapFile(filepath.Join(directory, names.Data))
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	sources, err := readIndexSources(indexFiles)
	if err != nil {
		return nil, err
	}

	reports := make([]*IndexReport, len(sources))
	for id, source := range sources {
		if source == nil {
			continue
		}
		index, failures := ScanIndex(id, source, blob.Bytes())
		reports[id] = &IndexReport{Index: index, Failures: failures}
	}
	return reports, nil
}

// discoverIndices validates directory and lists its index files in id
// order.
func discoverIndices(directory string, names FileNames) ([]indexFile, error) {
	info, err := os.Stat(directory)
	if err != nil {
		return nil, fmt.Errorf("cache directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("cache path %s is not a directory", directory)
	}

	dataPath := filepath.Join(directory, names.Data)
	if _, err := os.Stat(dataPath); err != nil {
		return nil, fmt.Errorf("cache directory %s has no data file: %w", directory, err)
	}

	entries, err := os.ReadDir(directory)
	if err != nil {
		return nil, fmt.Errorf("listing cache directory: %w", err)
	}

	var found []indexFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		suffix, ok := strings.CutPrefix(entry.Name(), names.IndexPrefix)
		if !ok || suffix == "" {
			continue
		}
		id, err := strconv.Atoi(suffix)
		if err != nil || id < 0 || strconv.Itoa(id) != suffix {
			continue
		}
		if id > MaxIndexID {
			return nil, fmt.Errorf("index file %s: id %d exceeds %d", entry.Name(), id, MaxIndexID)
		}
		found = append(found, indexFile{id: id, path: filepath.Join(directory, entry.Name())})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].id < found[j].id })
	return found, nil
}

// readIndexSources reads each index file into the slot of its id.
func readIndexSources(indexFiles []indexFile) ([][]byte, error) {
	if len(indexFiles) == 0 {
		return nil, nil
	}
	sources := make([][]byte, indexFiles[len(indexFiles)-1].id+1)
	for _, file := range indexFiles {
		data, err := os.ReadFile(file.path)
		if err != nil {
			return nil, fmt.Errorf("reading index %d: %w", file.id, err)
		}
		if data == nil {
			data = []byte{}
		}
		sources[file.id] = data
	}
	return sources, nil
}

// WriteDirectory writes a laid-out store into directory, creating it
// if needed. Each file is written to a temporary name and renamed into
// place. Index files that exist in the directory but are absent from
// indices are removed so that a subsequent [Open] sees exactly the
// written store.
func WriteDirectory(directory string, names FileNames, blob []byte, indices [][]byte) error {
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	if err := writeAtomic(directory, names.Data, blob); err != nil {
		return err
	}
	for id, source := range indices {
		if source == nil {
			continue
		}
		if err := writeAtomic(directory, names.IndexPrefix+strconv.Itoa(id), source); err != nil {
			return err
		}
	}

	existing, err := discoverIndices(directory, names)
	if err != nil {
		return err
	}
	for _, file := range existing {
		if file.id < len(indices) && indices[file.id] != nil {
			continue
		}
		if err := os.Remove(file.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing stale index %d: %w", file.id, err)
		}
	}
	return nil
}

// Write lays the store out and writes it into directory.
func (s *FileStore) Write(directory string, names FileNames) error {
	blob, indices, err := s.Rebuild()
	if err != nil {
		return fmt.Errorf("laying out store: %w", err)
	}
	return WriteDirectory(directory, names, blob, indices)
}

// writeAtomic writes data to directory/name via a temporary file and
// rename.
func writeAtomic(directory, name string, data []byte) error {
	tmpFile, err := os.CreateTemp(directory, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", name, err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("syncing %s: %w", name, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, filepath.Join(directory, name)); err != nil {
		return fmt.Errorf("renaming %s into place: %w", name, err)
	}

	success = true
	return nil
}
