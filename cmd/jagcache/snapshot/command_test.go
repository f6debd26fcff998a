// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/jagcache/cmd/jagcache/cli"
	"github.com/bureau-foundation/jagcache/lib/cachehash"
	"github.com/bureau-foundation/jagcache/lib/config"
	"github.com/bureau-foundation/jagcache/lib/snapshot"
	"github.com/bureau-foundation/jagcache/lib/store"
	"github.com/bureau-foundation/jagcache/lib/testutil"
)

func sampleFiles() [][][]byte {
	return [][][]byte{
		{nil, bytes.Repeat([]byte("title "), 400), testutil.Pattern(700, 9)},
		nil,
		{[]byte("model"), nil, []byte{}},
	}
}

// newCache writes the sample files into a fresh cache directory.
func newCache(t *testing.T) string {
	t.Helper()
	directory := t.TempDir()
	blob, indices, err := store.Layout(sampleFiles())
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if err := store.WriteDirectory(directory, store.DefaultFileNames(), blob, indices); err != nil {
		t.Fatalf("WriteDirectory: %v", err)
	}
	return directory
}

func run(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	var runErr error
	output := testutil.CaptureStdout(t, func() {
		runErr = Command(cfg).Execute(context.Background(), args, slog.New(slog.DiscardHandler))
	})
	return output, runErr
}

func TestExportImport_Roundtrip(t *testing.T) {
	source := newCache(t)
	cfg := config.Default()
	snapshotPath := filepath.Join(t.TempDir(), "cache.jagsnap")

	output, err := run(t, cfg, "export", "-o", snapshotPath, "--store", source, "--json")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	var exported struct {
		Files  int    `json:"files"`
		Bytes  int    `json:"bytes"`
		Sealed bool   `json:"sealed"`
		Root   string `json:"root"`
	}
	if err := json.Unmarshal([]byte(output), &exported); err != nil {
		t.Fatalf("export output is not JSON: %v\n%s", err, output)
	}
	if exported.Files != 4 || exported.Sealed {
		t.Errorf("export result = %+v, want 4 unsealed files", exported)
	}

	sourceStore, err := store.Open(source, store.DefaultFileNames())
	if err != nil {
		t.Fatal(err)
	}
	root, _ := snapshot.Digest(sourceStore)
	if exported.Root != cachehash.FormatHash(root) {
		t.Errorf("exported root = %s, want store digest %s", exported.Root, cachehash.FormatHash(root))
	}

	if _, err := run(t, cfg, "verify", snapshotPath); err != nil {
		t.Fatalf("verify: %v", err)
	}

	target := filepath.Join(t.TempDir(), "restored")
	if _, err := run(t, cfg, "import", snapshotPath, "--store", target); err != nil {
		t.Fatalf("import: %v", err)
	}
	restored, err := store.Open(target, store.DefaultFileNames())
	if err != nil {
		t.Fatalf("opening restored cache: %v", err)
	}
	restoredRoot, _ := snapshot.Digest(restored)
	if restoredRoot != root {
		t.Error("restored cache digest differs from the source")
	}
	content, err := restored.Get(0, 2)
	if err != nil || !bytes.Equal(content, testutil.Pattern(700, 9)) {
		t.Errorf("restored Get(0, 2) = %d bytes, %v", len(content), err)
	}
}

func TestImport_RefusesExistingCache(t *testing.T) {
	source := newCache(t)
	cfg := config.Default()
	cfg.Cache.Directory = source
	snapshotPath := filepath.Join(t.TempDir(), "cache.jagsnap")

	if _, err := run(t, cfg, "export", "-o", snapshotPath); err != nil {
		t.Fatalf("export: %v", err)
	}
	_, err := run(t, cfg, "import", snapshotPath)
	if cli.Classify(err) != cli.CategoryValidation || !strings.Contains(err.Error(), "--force") {
		t.Errorf("import over a cache: %v, want validation mentioning --force", err)
	}
	if _, err := run(t, cfg, "import", snapshotPath, "--force"); err != nil {
		t.Errorf("import --force: %v", err)
	}
}

func TestSealedSnapshot(t *testing.T) {
	source := newCache(t)
	cfg := config.Default()
	cfg.Cache.Directory = source
	keys := t.TempDir()
	identityPath := filepath.Join(keys, "key.txt")

	output, err := run(t, cfg, "keygen", "-o", identityPath)
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}
	recipient := strings.TrimSpace(output)
	if !strings.HasPrefix(recipient, "age1") {
		t.Fatalf("keygen printed %q, want an age1 recipient", recipient)
	}
	info, err := os.Stat(identityPath)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("identity file mode = %v, want 0600", info.Mode().Perm())
	}
	if _, err := run(t, cfg, "keygen", "-o", identityPath); cli.Classify(err) != cli.CategoryValidation {
		t.Errorf("keygen over an existing file: %v, want validation", err)
	}

	snapshotPath := filepath.Join(t.TempDir(), "sealed.jagsnap")
	if _, err := run(t, cfg, "export", "-o", snapshotPath, "--recipient", recipient, "--compression", "zstd"); err != nil {
		t.Fatalf("sealed export: %v", err)
	}
	sealed, err := os.ReadFile(snapshotPath)
	if err != nil {
		t.Fatal(err)
	}
	if !snapshot.IsSealed(sealed) {
		t.Fatal("exported snapshot is not age-encrypted")
	}

	if _, err := run(t, cfg, "verify", snapshotPath); err == nil {
		t.Error("verify of a sealed snapshot succeeded without an identity")
	}
	if _, err := run(t, cfg, "verify", snapshotPath, "--identity", identityPath); err != nil {
		t.Errorf("verify with identity: %v", err)
	}

	cfg.Snapshot.IdentityFile = identityPath
	output, err = run(t, cfg, "manifest", snapshotPath)
	if err != nil {
		t.Fatalf("manifest with configured identity: %v", err)
	}
	if !strings.Contains(output, "INDEX") || !strings.Contains(output, "format 1") {
		t.Errorf("manifest output:\n%s", output)
	}
}

func TestManifest_Diagnostic(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Directory = newCache(t)
	snapshotPath := filepath.Join(t.TempDir(), "cache.jagsnap")
	if _, err := run(t, cfg, "export", "-o", snapshotPath, "--compression", "lz4"); err != nil {
		t.Fatalf("export: %v", err)
	}

	output, err := run(t, cfg, "manifest", snapshotPath, "--diag")
	if err != nil {
		t.Fatalf("manifest --diag: %v", err)
	}
	for _, want := range []string{`"version"`, `"indices"`, `"root"`} {
		if !strings.Contains(output, want) {
			t.Errorf("diagnostic output missing %s:\n%s", want, output)
		}
	}
}

func TestVerify_DetectsTampering(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Directory = newCache(t)
	snapshotPath := filepath.Join(t.TempDir(), "cache.jagsnap")
	if _, err := run(t, cfg, "export", "-o", snapshotPath, "--compression", "none"); err != nil {
		t.Fatalf("export: %v", err)
	}

	data, err := os.ReadFile(snapshotPath)
	if err != nil {
		t.Fatal(err)
	}
	data[len(data)-1] ^= 0xff
	if err := os.WriteFile(snapshotPath, data, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err = run(t, cfg, "verify", snapshotPath)
	if cli.Classify(err) != cli.CategoryCorrupt {
		t.Errorf("verify of a tampered snapshot: %v, want corrupt", err)
	}
}

func TestErrors(t *testing.T) {
	cfg := config.Default()
	missing := filepath.Join(t.TempDir(), "absent.jagsnap")

	if _, err := run(t, cfg, "verify", missing); cli.ExitCode(err) != cli.ExitNotFound {
		t.Errorf("verify of a missing file: %v, want not found", err)
	}
	if _, err := run(t, cfg, "export"); cli.Classify(err) != cli.CategoryValidation {
		t.Errorf("export without -o: %v, want validation", err)
	}
	cfg.Cache.Directory = newCache(t)
	if _, err := run(t, cfg, "export", "-o", missing, "--compression", "gzip"); cli.Classify(err) != cli.CategoryValidation {
		t.Errorf("export --compression gzip: %v, want validation", err)
	}
}
