// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bureau-foundation/jagcache/lib/cacheerr"
	"github.com/bureau-foundation/jagcache/lib/testutil"
)

func TestOpenUsesFileNameSuffixAsID(t *testing.T) {
	directory := t.TempDir()
	blob := blobOf(padding, rawChunk(0, 0, 0, 1, []byte("zero")), rawChunk(0, 0, 0, 3, []byte("two")))
	testutil.WriteFiles(t, directory, map[string][]byte{
		"main_file_cache.dat":   blob,
		"main_file_cache.idx0":  records([2]int{4, 1}),
		"main_file_cache.idx2":  records([2]int{3, 2}),
		"main_file_cache.idx02": records([2]int{3, 2}),
		"main_file_cache.idxx":  {1, 2, 3},
		"unrelated.txt":         []byte("ignored"),
	})

	store, err := Open(directory, DefaultFileNames())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if store.IndexCount() != 3 {
		t.Fatalf("IndexCount = %d, want 3", store.IndexCount())
	}
	if _, err := store.Index(1); !errors.Is(err, cacheerr.ErrNotFound) {
		t.Errorf("Index(1): error = %v, want NotFound", err)
	}
	if got, _ := store.Get(0, 0); string(got) != "zero" {
		t.Errorf("Get(0, 0) = %q, want %q", got, "zero")
	}
	if got, _ := store.Get(2, 0); string(got) != "two" {
		t.Errorf("Get(2, 0) = %q, want %q", got, "two")
	}
}

func TestOpenErrors(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		if _, err := Open(filepath.Join(t.TempDir(), "absent"), DefaultFileNames()); err == nil {
			t.Error("Open succeeded on a missing directory")
		}
	})
	t.Run("missing data file", func(t *testing.T) {
		directory := t.TempDir()
		testutil.WriteFiles(t, directory, map[string][]byte{"main_file_cache.idx0": records()})
		if _, err := Open(directory, DefaultFileNames()); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("error = %v, want ErrNotExist", err)
		}
	})
	t.Run("corrupt chain", func(t *testing.T) {
		directory := t.TempDir()
		testutil.WriteFiles(t, directory, map[string][]byte{
			"main_file_cache.dat":  blobOf(padding, rawChunk(4, 0, 0, 1, []byte("AB"))),
			"main_file_cache.idx0": records([2]int{2, 1}),
		})
		if _, err := Open(directory, DefaultFileNames()); !errors.Is(err, cacheerr.ErrCorruptChunk) {
			t.Errorf("error = %v, want CorruptChunk", err)
		}
	})
	t.Run("empty data file", func(t *testing.T) {
		directory := t.TempDir()
		testutil.WriteFiles(t, directory, map[string][]byte{
			"main_file_cache.dat":  {},
			"main_file_cache.idx0": records([2]int{2, 1}),
		})
		store, err := Open(directory, DefaultFileNames())
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		if _, err := store.Get(0, 0); !errors.Is(err, cacheerr.ErrNotFound) {
			t.Errorf("Get on empty blob: error = %v, want NotFound", err)
		}
	})
}

func TestWriteThenOpen(t *testing.T) {
	blob, indices, err := Layout(sampleContents())
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	source, err := Load(indices, blob)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := source.Put(0, 1, []byte("filled")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	names := FileNames{Data: "cache.dat", IndexPrefix: "cache.idx"}
	directory := filepath.Join(t.TempDir(), "out")
	// A stale index from an earlier write must not survive.
	testutil.WriteFiles(t, directory, map[string][]byte{"cache.idx7": records([2]int{1, 1})})

	if err := source.Write(directory, names); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := os.Stat(filepath.Join(directory, "cache.idx7")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("stale index still present: %v", err)
	}
	if _, err := os.Stat(filepath.Join(directory, "cache.idx1")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("absent index written: %v", err)
	}

	reopened, err := Open(directory, names)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got, _ := reopened.Get(0, 1); string(got) != "filled" {
		t.Errorf("Get(0, 1) = %q, want %q", got, "filled")
	}
	if got, _ := reopened.Get(2, 0); !bytes.Equal(got, testutil.Pattern(1500, 2)) {
		t.Error("Get(2, 0) content mismatch")
	}

	entries, err := os.ReadDir(directory)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, entry := range entries {
		if name := entry.Name(); name[0] == '.' {
			t.Errorf("temporary file left behind: %s", name)
		}
	}
}

func TestScanReportsPerFileFailures(t *testing.T) {
	directory := t.TempDir()
	testutil.WriteFiles(t, directory, map[string][]byte{
		"main_file_cache.dat": blobOf(padding,
			rawChunk(0, 0, 0, 1, []byte("ok")),
			rawChunk(7, 0, 0, 1, []byte("bad"))),
		"main_file_cache.idx1": records([2]int{2, 1}, [2]int{3, 2}),
	})

	reports, err := Scan(directory, DefaultFileNames())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(reports) != 2 || reports[0] != nil {
		t.Fatalf("reports = %v, want slot 0 absent and slot 1 present", reports)
	}
	report := reports[1]
	if report.Index.Len() != 2 {
		t.Errorf("Len = %d, want 2", report.Index.Len())
	}
	if len(report.Failures) != 1 || report.Failures[0].FileID != 1 {
		t.Errorf("failures = %v, want file 1", report.Failures)
	}
}
