// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package snapshot implements the "jagcache snapshot" subcommands,
// which move whole caches in and out of the portable snapshot format.
package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"

	"filippo.io/age"

	"github.com/bureau-foundation/jagcache/cmd/jagcache/cli"
	"github.com/bureau-foundation/jagcache/lib/cachehash"
	"github.com/bureau-foundation/jagcache/lib/codec"
	"github.com/bureau-foundation/jagcache/lib/config"
	"github.com/bureau-foundation/jagcache/lib/snapshot"
)

// Command returns the "snapshot" command group.
func Command(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:    "snapshot",
		Summary: "Export, import, and verify cache snapshots",
		Description: `A snapshot is a single file holding every file of a cache, with a CBOR
manifest, per-file lz4 or zstd compression, and BLAKE3 digests of
every file, every index, and the whole store.

Snapshots can be encrypted to one or more age X25519 recipients.
Importing or verifying an encrypted snapshot needs a matching identity
file (--identity, or snapshot.identity_file from the config).`,
		Subcommands: []*cli.Command{
			exportCommand(cfg),
			importCommand(cfg),
			verifyCommand(cfg),
			manifestCommand(cfg),
			keygenCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Export a cache with automatic compression",
				Command:     "jagcache snapshot export -o cache.jagsnap --store ./cache",
			},
			{
				Description: "Export encrypted to a recipient, then restore elsewhere",
				Command:     "jagcache snapshot export -o cache.jagsnap --recipient age1... && jagcache snapshot import cache.jagsnap --store ./restored --identity key.txt",
			},
		},
	}
}

// IdentityFlags selects the age identity file for sealed snapshots.
type IdentityFlags struct {
	Identity string `json:"identity" flag:"identity" desc:"age identity file (default: snapshot.identity_file from config)"`
}

// identities loads the selected identity file, or returns nil when
// none is configured.
func (f *IdentityFlags) identities(cfg *config.Config) ([]age.Identity, error) {
	path := f.Identity
	if path == "" {
		path = cfg.Snapshot.IdentityFile
	}
	if path == "" {
		return nil, nil
	}
	identities, err := snapshot.LoadIdentities(path)
	if err != nil {
		return nil, cli.Validation("%w", err)
	}
	return identities, nil
}

// openSnapshot opens a snapshot file for reading.
func openSnapshot(path string) (*os.File, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, cli.NotFound("snapshot %s does not exist", path)
	}
	if err != nil {
		return nil, cli.Internal("opening snapshot: %w", err)
	}
	return file, nil
}

// --- export ---

type exportParams struct {
	cli.CacheFlags
	cli.JSONOutput
	Output      string   `json:"output"      flag:"output,o"    desc:"snapshot file to write" required:"true"`
	Compression string   `json:"compression" flag:"compression" desc:"per-file compression: auto, none, lz4, or zstd (default: snapshot.compression from config)"`
	Recipients  []string `json:"recipients"  flag:"recipient"   desc:"age public key to encrypt to (repeatable; default: snapshot.recipients from config)"`
}

type exportResult struct {
	Snapshot string         `json:"snapshot"`
	Indices  int            `json:"indices"`
	Files    int            `json:"files"`
	Bytes    int            `json:"bytes"`
	Stored   int64          `json:"stored_bytes"`
	Sealed   bool           `json:"sealed"`
	Root     cachehash.Hash `json:"root"`
}

func exportCommand(cfg *config.Config) *cli.Command {
	var params exportParams

	return &cli.Command{
		Name:    "export",
		Summary: "Write a cache to a snapshot file",
		Usage:   "jagcache snapshot export -o <file> [flags]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 0 {
				return cli.Validation("unexpected arguments: %v", args)
			}

			compressionName := params.Compression
			if compressionName == "" {
				compressionName = cfg.Snapshot.Compression
			}
			compression, err := snapshot.ParseCompression(compressionName)
			if err != nil {
				return cli.Validation("%w", err)
			}
			recipients := params.Recipients
			if len(recipients) == 0 {
				recipients = cfg.Snapshot.Recipients
			}

			fileStore, directory, err := params.OpenStore(cfg)
			if err != nil {
				return err
			}
			logger = logger.With("directory", directory, "snapshot", params.Output)

			var buffer bytes.Buffer
			manifest, err := snapshot.Export(ctx, fileStore, &buffer, snapshot.ExportOptions{
				Compression: compression,
				Recipients:  recipients,
				Logger:      logger,
			})
			if err != nil {
				return err
			}
			if err := writeFileAtomic(params.Output, buffer.Bytes()); err != nil {
				return err
			}

			result := exportResult{
				Snapshot: params.Output,
				Indices:  len(manifest.Indices),
				Files:    manifest.Files(),
				Bytes:    manifest.Bytes(),
				Stored:   int64(buffer.Len()),
				Sealed:   len(recipients) > 0,
				Root:     manifest.Root,
			}
			logger.Info("snapshot exported", "files", result.Files, "stored_bytes", result.Stored, "sealed", result.Sealed)
			if done, err := params.EmitJSON(result); done {
				return err
			}
			fmt.Printf("%s  %s\n", cachehash.FormatHash(manifest.Root), params.Output)
			return nil
		},
	}
}

// writeFileAtomic writes data via a temporary file in the same
// directory and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return cli.Internal("creating temp file for %s: %w", path, err)
	}
	tmpPath := tmpFile.Name()
	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return cli.Internal("writing %s: %w", path, err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return cli.Internal("closing %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return cli.Internal("renaming %s into place: %w", path, err)
	}
	return nil
}

// --- import ---

type importParams struct {
	cli.CacheFlags
	IdentityFlags
	Force bool `json:"force" flag:"force" desc:"replace an existing cache in the target directory"`
}

func importCommand(cfg *config.Config) *cli.Command {
	var params importParams

	return &cli.Command{
		Name:    "import",
		Summary: "Restore a snapshot into a cache directory",
		Usage:   "jagcache snapshot import <file> [flags]",
		Description: `Verify every digest in the snapshot and write the store it describes
into the --store directory. The restored store is laid out afresh, so
chunk positions differ from the exported cache while every file's
content is identical.

A directory that already holds a cache is only replaced with --force.`,
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("expected <file>, got %d argument(s)", len(args))
			}
			directory, err := params.Directory(cfg)
			if err != nil {
				return err
			}
			names := cli.FileNames(cfg)
			if _, err := os.Stat(filepath.Join(directory, names.Data)); err == nil && !params.Force {
				return cli.Validation("%s already holds a cache (use --force to replace it)", directory)
			}
			identities, err := params.identities(cfg)
			if err != nil {
				return err
			}

			file, err := openSnapshot(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			logger = logger.With("snapshot", args[0], "directory", directory)
			restored, manifest, err := snapshot.Import(ctx, file, snapshot.ImportOptions{
				Identities: identities,
				Logger:     logger,
			})
			if err != nil {
				return err
			}
			if err := restored.Write(directory, names); err != nil {
				return cli.Internal("writing %s: %w", directory, err)
			}
			logger.Info("snapshot imported", "files", manifest.Files(), "root", cachehash.ShortHash(manifest.Root))
			return nil
		},
	}
}

// --- verify ---

type verifyParams struct {
	IdentityFlags
	cli.JSONOutput
}

type verifyResult struct {
	Snapshot string         `json:"snapshot"`
	Files    int            `json:"files"`
	Bytes    int            `json:"bytes"`
	Root     cachehash.Hash `json:"root"`
}

func verifyCommand(cfg *config.Config) *cli.Command {
	var params verifyParams

	return &cli.Command{
		Name:    "verify",
		Summary: "Check every digest in a snapshot",
		Usage:   "jagcache snapshot verify <file> [flags]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("expected <file>, got %d argument(s)", len(args))
			}
			identities, err := params.identities(cfg)
			if err != nil {
				return err
			}
			file, err := openSnapshot(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			manifest, err := snapshot.Verify(ctx, file, snapshot.ImportOptions{
				Identities: identities,
				Logger:     logger.With("snapshot", args[0]),
			})
			if err != nil {
				return err
			}

			result := verifyResult{
				Snapshot: args[0],
				Files:    manifest.Files(),
				Bytes:    manifest.Bytes(),
				Root:     manifest.Root,
			}
			if done, err := params.EmitJSON(result); done {
				return err
			}
			fmt.Printf("ok %s: %d files, %s, root %s\n", args[0], result.Files,
				cli.FormatSize(result.Bytes), cachehash.ShortHash(result.Root))
			return nil
		},
	}
}

// --- manifest ---

type manifestParams struct {
	IdentityFlags
	cli.JSONOutput
	Diagnostic bool `json:"diagnostic" flag:"diag" desc:"print the manifest in CBOR diagnostic notation"`
}

func manifestCommand(cfg *config.Config) *cli.Command {
	var params manifestParams

	return &cli.Command{
		Name:    "manifest",
		Summary: "Print a snapshot's manifest without verifying files",
		Usage:   "jagcache snapshot manifest <file> [flags]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("expected <file>, got %d argument(s)", len(args))
			}
			identities, err := params.identities(cfg)
			if err != nil {
				return err
			}
			file, err := openSnapshot(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			manifest, err := snapshot.ReadManifest(file, snapshot.ImportOptions{Identities: identities})
			if err != nil {
				return err
			}

			if params.Diagnostic {
				encoded, err := codec.Marshal(manifest)
				if err != nil {
					return cli.Internal("encoding manifest: %w", err)
				}
				notation, err := codec.Diagnose(encoded)
				if err != nil {
					return cli.Internal("diagnosing manifest: %w", err)
				}
				fmt.Println(notation)
				return nil
			}
			if done, err := params.EmitJSON(manifest); done {
				return err
			}
			printManifest(os.Stdout, args[0], manifest)
			return nil
		},
	}
}

func printManifest(w io.Writer, path string, manifest *snapshot.Manifest) {
	fmt.Fprintf(w, "%s (format %d, root %s)\n", cli.Heading(w, path), manifest.Version,
		cli.Dim(w, cachehash.ShortHash(manifest.Root)))
	tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tRECORDS\tFILES\tSIZE\tSTORED\tDIGEST")
	for _, index := range manifest.Indices {
		size, stored := 0, 0
		for _, record := range index.Files {
			size += record.Size
			stored += record.Length
		}
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%s\t%s\n", index.ID, index.FileCount, len(index.Files),
			cli.FormatSize(size), cli.FormatSize(stored), cli.Dim(w, cachehash.ShortHash(index.Hash)))
	}
	tw.Flush()
}

// --- keygen ---

type keygenParams struct {
	Output string `json:"output" flag:"output,o" desc:"identity file to write (must not exist)" required:"true"`
}

func keygenCommand() *cli.Command {
	var params keygenParams

	return &cli.Command{
		Name:    "keygen",
		Summary: "Generate an age identity for encrypted snapshots",
		Usage:   "jagcache snapshot keygen -o <identity-file>",
		Description: `Generate an X25519 identity, write it to the identity file (mode 0600),
and print the matching public recipient for snapshot export.`,
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			identity, recipient, err := snapshot.GenerateIdentity()
			if err != nil {
				return cli.Internal("%w", err)
			}
			file, err := os.OpenFile(params.Output, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
			if errors.Is(err, fs.ErrExist) {
				return cli.Validation("%s already exists", params.Output)
			}
			if err != nil {
				return cli.Internal("creating identity file: %w", err)
			}
			if _, err := fmt.Fprintf(file, "# public key: %s\n%s\n", recipient, identity); err != nil {
				file.Close()
				return cli.Internal("writing identity file: %w", err)
			}
			if err := file.Close(); err != nil {
				return cli.Internal("closing identity file: %w", err)
			}
			fmt.Println(recipient)
			return nil
		},
	}
}
