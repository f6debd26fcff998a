// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/jagcache/cmd/jagcache/cli"
	"github.com/bureau-foundation/jagcache/lib/archive"
	"github.com/bureau-foundation/jagcache/lib/bzip"
	"github.com/bureau-foundation/jagcache/lib/config"
	"github.com/bureau-foundation/jagcache/lib/store"
	"github.com/bureau-foundation/jagcache/lib/testutil"
)

var (
	logoData  = bytes.Repeat([]byte("logo pixels "), 200)
	indexData = bytes.Repeat([]byte{0, 1, 2, 3}, 50)
	fontData  = []byte("p11 font")
)

// encodeSample builds the sample archive in the given mode.
func encodeSample(t *testing.T, whole bool) []byte {
	t.Helper()
	sample := archive.New(whole)
	sample.AddNamed("logo.dat", logoData)
	sample.AddNamed("index.dat", indexData)
	sample.AddNamed("p11_full.dat", fontData)
	raw, err := sample.Encode(bzip.Default())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return raw
}

// writeSample writes the sample archive to a file and returns its path.
func writeSample(t *testing.T, whole bool) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "title.jag")
	if err := os.WriteFile(path, encodeSample(t, whole), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(cfg *config.Config, args ...string) error {
	return Command(cfg).Execute(context.Background(), args, slog.New(slog.DiscardHandler))
}

// decodeFile reads and decodes an archive file.
func decodeFile(t *testing.T, path string) *archive.Archive {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := archive.Decode(raw, bzip.Default())
	if err != nil {
		t.Fatalf("Decode %s: %v", path, err)
	}
	return decoded
}

func TestList_JSON(t *testing.T) {
	path := writeSample(t, true)

	var runErr error
	output := testutil.CaptureStdout(t, func() {
		runErr = run(config.Default(), "list", path, "--json", "--name", "logo.dat")
	})
	if runErr != nil {
		t.Fatalf("list: %v", runErr)
	}

	var result struct {
		Archive         string `json:"archive"`
		WholeCompressed bool   `json:"whole_compressed"`
		Entries         []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
			Size int    `json:"size"`
			Hash string `json:"hash"`
		} `json:"entries"`
	}
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, output)
	}
	if result.Archive != path || !result.WholeCompressed {
		t.Errorf("archive = %q whole = %v", result.Archive, result.WholeCompressed)
	}
	if len(result.Entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(result.Entries))
	}
	// logo.dat is named by --name, index.dat is always known, and the
	// font stays anonymous.
	wantNames := []string{"logo.dat", "index.dat", ""}
	wantSizes := []int{len(logoData), len(indexData), len(fontData)}
	for i, entry := range result.Entries {
		if entry.Name != wantNames[i] || entry.Size != wantSizes[i] {
			t.Errorf("entry %d = %+v, want name %q size %d", i, entry, wantNames[i], wantSizes[i])
		}
		if entry.Hash == "" {
			t.Errorf("entry %d has no digest", i)
		}
	}
	if want := formatID(archive.NameHash("p11_full.dat")); result.Entries[2].ID != want {
		t.Errorf("entry 2 id = %q, want %q", result.Entries[2].ID, want)
	}
}

func TestList_Text(t *testing.T) {
	path := writeSample(t, false)

	var runErr error
	output := testutil.CaptureStdout(t, func() {
		runErr = run(config.Default(), "list", path)
	})
	if runErr != nil {
		t.Fatalf("list: %v", runErr)
	}
	for _, want := range []string{"per-entry compression", "index.dat", "DIGEST"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestGet_ByNameAndIdentifier(t *testing.T) {
	path := writeSample(t, true)
	output := filepath.Join(t.TempDir(), "logo.dat")

	if err := run(config.Default(), "get", path, "LOGO.DAT", "-o", output); err != nil {
		t.Fatalf("get by name: %v", err)
	}
	content, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(content, logoData) {
		t.Errorf("content = %d bytes, want logo data", len(content))
	}

	var runErr error
	stdout := testutil.CaptureStdout(t, func() {
		runErr = run(config.Default(), "get", path, formatID(archive.NameHash("p11_full.dat")))
	})
	if runErr != nil {
		t.Fatalf("get by identifier: %v", runErr)
	}
	if stdout != string(fontData) {
		t.Errorf("stdout = %q, want %q", stdout, fontData)
	}
}

func TestGet_NotFound(t *testing.T) {
	path := writeSample(t, true)
	cfg := config.Default()

	if err := run(cfg, "get", path, "missing.dat"); cli.ExitCode(err) != cli.ExitNotFound {
		t.Errorf("missing entry: %v, want not found", err)
	}
	missing := filepath.Join(t.TempDir(), "absent.jag")
	if err := run(cfg, "get", missing, "logo.dat"); cli.ExitCode(err) != cli.ExitNotFound {
		t.Errorf("missing archive: %v, want not found", err)
	}
	if err := run(cfg, "get", path, "0xnothex"); cli.Classify(err) != cli.CategoryValidation {
		t.Errorf("bad identifier: %v, want validation", err)
	}
}

func TestDigest(t *testing.T) {
	whole := writeSample(t, true)
	perEntry := writeSample(t, false)

	digest := func(args ...string) digestResult {
		t.Helper()
		var runErr error
		output := testutil.CaptureStdout(t, func() {
			runErr = run(config.Default(), append([]string{"digest", "--json"}, args...)...)
		})
		if runErr != nil {
			t.Fatalf("digest %v: %v", args, runErr)
		}
		var result digestResult
		if err := json.Unmarshal([]byte(output), &result); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, output)
		}
		return result
	}

	wholeBlake := digest(whole)
	entryBlake := digest(perEntry)
	if wholeBlake.Algorithm != "blake3" || wholeBlake.Entries != 3 {
		t.Errorf("result = %+v", wholeBlake)
	}
	if wholeBlake.Digest != entryBlake.Digest {
		t.Errorf("BLAKE3 digest depends on compression mode: %s vs %s", wholeBlake.Digest, entryBlake.Digest)
	}

	hasher := md5.New()
	hasher.Write(logoData)
	hasher.Write(indexData)
	hasher.Write(fontData)
	wantMD5 := hex.EncodeToString(hasher.Sum(nil))

	wholeMD5 := digest(whole, "--md5")
	if wholeMD5.Algorithm != "md5" || wholeMD5.Digest != wantMD5 {
		t.Errorf("md5 = %+v, want %s", wholeMD5, wantMD5)
	}
	if entryMD5 := digest(perEntry, "--md5"); entryMD5.Digest != wantMD5 {
		t.Errorf("per-entry md5 = %s, want %s", entryMD5.Digest, wantMD5)
	}
}

func TestExtractPack_Roundtrip(t *testing.T) {
	path := writeSample(t, true)
	directory := filepath.Join(t.TempDir(), "title")

	if err := run(config.Default(), "extract", path, "-o", directory, "--name", "logo.dat"); err != nil {
		t.Fatalf("extract: %v", err)
	}
	for _, name := range []string{ManifestFile, "logo.dat", "index.dat", entryFileName(archive.NameHash("p11_full.dat"), "")} {
		if _, err := os.Stat(filepath.Join(directory, name)); err != nil {
			t.Errorf("extracted file %s: %v", name, err)
		}
	}

	edited := []byte("new logo")
	if err := os.WriteFile(filepath.Join(directory, "logo.dat"), edited, 0o644); err != nil {
		t.Fatal(err)
	}

	packed := filepath.Join(t.TempDir(), "packed.jag")
	if err := run(config.Default(), "pack", directory, packed, "--mode", "entry"); err != nil {
		t.Fatalf("pack: %v", err)
	}

	decoded := decodeFile(t, packed)
	if decoded.WholeCompressed() {
		t.Error("packed archive is whole-compressed despite --mode entry")
	}
	entries := decoded.Entries()
	if len(entries) != 3 {
		t.Fatalf("packed %d entries, want 3", len(entries))
	}
	if entries[0].ID != archive.NameHash("logo.dat") || !bytes.Equal(entries[0].Data, edited) {
		t.Errorf("entry 0 = %#x %q, want edited logo", entries[0].ID, entries[0].Data)
	}
	if !bytes.Equal(entries[1].Data, indexData) || !bytes.Equal(entries[2].Data, fontData) {
		t.Error("unchanged entries differ after pack")
	}
}

func TestExtract_RequiresOutput(t *testing.T) {
	path := writeSample(t, true)
	if err := run(config.Default(), "extract", path); cli.Classify(err) != cli.CategoryValidation {
		t.Errorf("extract without -o: %v, want validation", err)
	}
}

func TestPack_WithoutManifest(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out.jag")
	if err := run(config.Default(), "pack", t.TempDir(), target); cli.ExitCode(err) != cli.ExitNotFound {
		t.Errorf("pack without manifest: %v, want not found", err)
	}
}

func TestSetAndRemove(t *testing.T) {
	path := writeSample(t, true)
	cfg := config.Default()

	replacement := filepath.Join(t.TempDir(), "index.dat")
	if err := os.WriteFile(replacement, []byte("replaced"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := run(cfg, "set", path, "index.dat", replacement); err != nil {
		t.Fatalf("set existing: %v", err)
	}
	if err := run(cfg, "set", path, "0x00000010", replacement); err != nil {
		t.Fatalf("set new: %v", err)
	}
	if err := run(cfg, "remove", path, "logo.dat"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	decoded := decodeFile(t, path)
	entries := decoded.Entries()
	wantIDs := []uint32{archive.NameHash("index.dat"), archive.NameHash("p11_full.dat"), 0x10}
	if len(entries) != len(wantIDs) {
		t.Fatalf("got %d entries, want %d", len(entries), len(wantIDs))
	}
	for i, id := range wantIDs {
		if entries[i].ID != id {
			t.Errorf("entry %d id = %#x, want %#x", i, entries[i].ID, id)
		}
	}
	if string(entries[0].Data) != "replaced" || string(entries[2].Data) != "replaced" {
		t.Errorf("set content = %q, %q", entries[0].Data, entries[2].Data)
	}

	if err := run(cfg, "remove", path, "logo.dat"); cli.ExitCode(err) != cli.ExitNotFound {
		t.Errorf("second remove: %v, want not found", err)
	}
}

func TestRepack_SwitchesMode(t *testing.T) {
	path := writeSample(t, true)

	if err := run(config.Default(), "repack", path, "--mode", "entry"); err != nil {
		t.Fatalf("repack: %v", err)
	}
	decoded := decodeFile(t, path)
	if decoded.WholeCompressed() {
		t.Error("archive still whole-compressed after --mode entry")
	}
	if entry, err := decoded.EntryByName("logo.dat"); err != nil || !bytes.Equal(entry.Data, logoData) {
		t.Errorf("logo.dat after repack: %v", err)
	}

	if err := run(config.Default(), "repack", path, "--mode", "solid"); cli.Classify(err) != cli.CategoryValidation {
		t.Errorf("repack --mode solid: %v, want validation", err)
	}
}

func TestStoreReference(t *testing.T) {
	directory := t.TempDir()
	files := [][][]byte{{nil, encodeSample(t, true)}}
	blob, indices, err := store.Layout(files)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if err := store.WriteDirectory(directory, store.DefaultFileNames(), blob, indices); err != nil {
		t.Fatalf("WriteDirectory: %v", err)
	}
	cfg := config.Default()

	replacement := filepath.Join(t.TempDir(), "font")
	if err := os.WriteFile(replacement, []byte("p12"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := run(cfg, "set", "0/1", "p11_full.dat", replacement, "--store", directory); err != nil {
		t.Fatalf("set in store: %v", err)
	}

	reopened, err := store.Open(directory, store.DefaultFileNames())
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	raw, err := reopened.Get(0, 1)
	if err != nil {
		t.Fatalf("Get(0, 1): %v", err)
	}
	decoded, err := archive.Decode(raw, bzip.Default())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	entry, err := decoded.EntryByName("p11_full.dat")
	if err != nil || string(entry.Data) != "p12" {
		t.Errorf("p11_full.dat = %q, %v; want p12", entry.Data, err)
	}

	// Without --store or cache.directory the reference cannot resolve.
	if err := run(cfg, "list", "0/1"); cli.Classify(err) != cli.CategoryValidation {
		t.Errorf("list 0/1 without a store: %v, want validation", err)
	}
}

func TestParseReference(t *testing.T) {
	existing := filepath.Join(t.TempDir(), "3")
	if err := os.Mkdir(existing, 0o755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		argument string
		want     reference
	}{
		{"0/5", reference{indexID: 0, fileID: 5, inStore: true}},
		{"12/300", reference{indexID: 12, fileID: 300, inStore: true}},
		{"title.jag", reference{path: "title.jag"}},
		{"0/x", reference{path: "0/x"}},
		{existing, reference{path: existing}},
	}
	for _, test := range tests {
		got, err := parseReference(test.argument)
		if err != nil {
			t.Errorf("parseReference(%q): %v", test.argument, err)
			continue
		}
		if got != test.want {
			t.Errorf("parseReference(%q) = %+v, want %+v", test.argument, got, test.want)
		}
	}
	if _, err := parseReference(""); err == nil {
		t.Error("parseReference accepted an empty reference")
	}
}

func TestEntryFileName(t *testing.T) {
	tests := []struct {
		id   uint32
		name string
		want string
	}{
		{0x1234, "logo.dat", "logo.dat"},
		{0x1234, "", "00001234.bin"},
		{0xabcdef01, "../escape", "abcdef01.bin"},
		{0x1, ManifestFile, "00000001.bin"},
		{0x2, "..", "00000002.bin"},
	}
	for _, test := range tests {
		if got := entryFileName(test.id, test.name); got != test.want {
			t.Errorf("entryFileName(%#x, %q) = %q, want %q", test.id, test.name, got, test.want)
		}
	}
}
