// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build darwin || linux

package store

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// mappedFile is a read-only view of a file's contents.
type mappedFile struct {
	data   []byte
	mapped bool
}

// mapFile maps path read-only. Empty files are not mapped (mmap
// rejects zero-length mappings) and yield an empty view.
func mapFile(path string) (*mappedFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening data file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat data file: %w", err)
	}
	size := info.Size()
	if size == 0 {
		return &mappedFile{data: []byte{}}, nil
	}
	if size > int64(int(^uint(0)>>1)) {
		return nil, fmt.Errorf("data file %s is too large to map (%d bytes)", path, size)
	}

	data, err := unix.Mmap(int(file.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap data file %s: %w", path, err)
	}
	return &mappedFile{data: data, mapped: true}, nil
}

// Bytes returns the mapped contents. The slice is invalid after Close.
func (m *mappedFile) Bytes() []byte { return m.data }

// Close unmaps the file.
func (m *mappedFile) Close() error {
	if !m.mapped {
		return nil
	}
	m.mapped = false
	data := m.data
	m.data = nil
	return unix.Munmap(data)
}
