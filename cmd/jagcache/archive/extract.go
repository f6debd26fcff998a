// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bureau-foundation/jagcache/cmd/jagcache/cli"
	"github.com/bureau-foundation/jagcache/lib/archive"
	"github.com/bureau-foundation/jagcache/lib/cachehash"
	"github.com/bureau-foundation/jagcache/lib/codec"
	"github.com/bureau-foundation/jagcache/lib/config"
)

// ManifestFile is the name of the manifest "archive extract" writes
// next to the extracted entries.
const ManifestFile = "manifest.cbor"

// manifest records an extracted archive: its compression mode and
// every entry in set order. "archive pack" reads it back.
type manifest struct {
	WholeCompressed bool            `cbor:"whole_compressed"`
	Entries         []manifestEntry `cbor:"entries"`
}

type manifestEntry struct {
	ID   uint32         `cbor:"id"`
	Name string         `cbor:"name,omitempty"`
	File string         `cbor:"file"`
	Size int            `cbor:"size"`
	Hash cachehash.Hash `cbor:"hash"`
}

// entryFileName picks the file name for an extracted entry: its name
// when known and safe as a single path element, otherwise the hex
// identifier.
func entryFileName(id uint32, name string) string {
	if name != "" && name != "." && name != ".." && name != ManifestFile &&
		!strings.ContainsAny(name, `/\`) {
		return name
	}
	return fmt.Sprintf("%08x.bin", id)
}

// --- extract ---

type extractParams struct {
	cli.CacheFlags
	Output string   `json:"output" flag:"output,o" desc:"directory to extract into" required:"true"`
	Names  []string `json:"names"  flag:"name"     desc:"entry names to recognize when naming files (repeatable)"`
}

func extractCommand(cfg *config.Config) *cli.Command {
	var params extractParams

	return &cli.Command{
		Name:    "extract",
		Summary: "Extract every entry into a directory",
		Usage:   "jagcache archive extract <archive> -o <directory> [flags]",
		Description: `Write each entry's decompressed content to its own file, plus a
manifest.cbor that records the compression mode, set order,
identifiers, and BLAKE3 entry digests. Entries with a known name are
written under that name; the rest as <identifier>.bin.`,
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("expected <archive>, got %d argument(s)", len(args))
			}
			decoded, loc, err := loadArchive(cfg, &params.CacheFlags, args[0])
			if err != nil {
				return err
			}
			if err := os.MkdirAll(params.Output, 0o755); err != nil {
				return cli.Internal("creating %s: %w", params.Output, err)
			}

			names := knownNames(params.Names)
			extracted := manifest{WholeCompressed: decoded.WholeCompressed()}
			for _, entry := range decoded.Entries() {
				if err := ctx.Err(); err != nil {
					return err
				}
				fileName := entryFileName(entry.ID, names[entry.ID])
				if err := os.WriteFile(filepath.Join(params.Output, fileName), entry.Data, 0o644); err != nil {
					return cli.Internal("writing %s: %w", fileName, err)
				}
				extracted.Entries = append(extracted.Entries, manifestEntry{
					ID:   entry.ID,
					Name: names[entry.ID],
					File: fileName,
					Size: len(entry.Data),
					Hash: cachehash.HashEntry(entry.ID, entry.Data),
				})
			}

			encoded, err := codec.Marshal(extracted)
			if err != nil {
				return cli.Internal("encoding manifest: %w", err)
			}
			if err := os.WriteFile(filepath.Join(params.Output, ManifestFile), encoded, 0o644); err != nil {
				return cli.Internal("writing manifest: %w", err)
			}
			logger.Info("archive extracted",
				"archive", loc.reference.String(),
				"entries", len(extracted.Entries),
				"output", params.Output,
			)
			return nil
		},
	}
}

// --- pack ---

type packParams struct {
	cli.CacheFlags
	Mode string `json:"mode" flag:"mode" desc:"compression mode: whole or entry (default: as extracted)"`
}

func packCommand(cfg *config.Config) *cli.Command {
	var params packParams

	return &cli.Command{
		Name:    "pack",
		Summary: "Build an archive from an extracted directory",
		Usage:   "jagcache archive pack <directory> <archive> [flags]",
		Description: `Read manifest.cbor from <directory> and encode the listed files, in
manifest order, into a new archive at <archive> (a path or an
<index>/<file> reference into the cache).

Entry files may have been edited since extraction; their current
content is packed and the change is logged.`,
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 2 {
				return cli.Validation("expected <directory> <archive>, got %d argument(s)", len(args))
			}
			directory := args[0]

			data, err := os.ReadFile(filepath.Join(directory, ManifestFile))
			if errors.Is(err, fs.ErrNotExist) {
				return cli.NotFound("%s has no %s (was it written by archive extract?)", directory, ManifestFile)
			}
			if err != nil {
				return cli.Internal("reading manifest: %w", err)
			}
			var extracted manifest
			if err := codec.Unmarshal(data, &extracted); err != nil {
				return cli.Validation("parsing %s: %w", ManifestFile, err)
			}

			whole, err := resolveMode(params.Mode, extracted.WholeCompressed)
			if err != nil {
				return err
			}

			packed := archive.New(whole)
			for _, entry := range extracted.Entries {
				if filepath.Base(entry.File) != entry.File {
					return cli.Validation("manifest entry %s: file %q is not a plain name", formatID(entry.ID), entry.File)
				}
				content, err := os.ReadFile(filepath.Join(directory, entry.File))
				if err != nil {
					return cli.Internal("reading entry %s: %w", entry.File, err)
				}
				if cachehash.HashEntry(entry.ID, content) != entry.Hash {
					logger.Info("entry changed since extract", "entry", formatID(entry.ID), "file", entry.File)
				}
				if !packed.Add(entry.ID, content) {
					return cli.Validation("manifest lists entry %s twice", formatID(entry.ID))
				}
			}

			return encodeTo(ctx, cfg, &params.CacheFlags, args[1], packed, logger)
		},
	}
}

// resolveMode turns a --mode value into the whole-compression flag.
func resolveMode(mode string, current bool) (bool, error) {
	switch mode {
	case "":
		return current, nil
	case "whole":
		return true, nil
	case "entry":
		return false, nil
	default:
		return false, cli.Validation("--mode must be whole or entry, got %q", mode)
	}
}

// encodeTo encodes an archive with the configured compressor and
// writes it to the target reference.
func encodeTo(ctx context.Context, cfg *config.Config, flags *cli.CacheFlags, target string, encoded *archive.Archive, logger *slog.Logger) error {
	compressor, err := cli.Compressor(cfg)
	if err != nil {
		return err
	}
	raw, err := encoded.Encode(compressor)
	if err != nil {
		return fmt.Errorf("encoding archive: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	loc, err := openLocation(cfg, flags, target)
	if err != nil {
		return err
	}
	if err := loc.write(cfg, raw); err != nil {
		return err
	}
	logger.Info("archive written",
		"archive", loc.reference.String(),
		"entries", encoded.Len(),
		"whole_compressed", encoded.WholeCompressed(),
		"bytes", len(raw),
	)
	return nil
}
