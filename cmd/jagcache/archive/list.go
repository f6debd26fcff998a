// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/bureau-foundation/jagcache/cmd/jagcache/cli"
	"github.com/bureau-foundation/jagcache/lib/archive"
	"github.com/bureau-foundation/jagcache/lib/cachehash"
	"github.com/bureau-foundation/jagcache/lib/config"
)

// --- list ---

type listParams struct {
	cli.CacheFlags
	cli.JSONOutput
	Names []string `json:"names" flag:"name" desc:"entry names to recognize in the listing (repeatable)"`
}

type entryInfo struct {
	ID   string         `json:"id"`
	Name string         `json:"name,omitempty"`
	Size int            `json:"size"`
	Hash cachehash.Hash `json:"hash"`
}

type listResult struct {
	Archive          string      `json:"archive"`
	WholeCompressed  bool        `json:"whole_compressed"`
	DecompressedSize int         `json:"decompressed_size"`
	CompressedSize   int         `json:"compressed_size"`
	Entries          []entryInfo `json:"entries"`
}

func listCommand(cfg *config.Config) *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "list",
		Summary: "List the entries of an archive",
		Usage:   "jagcache archive list <archive> [flags]",
		Description: `List every entry in set order with its identifier, size, and BLAKE3
entry digest. Names are shown for entries whose identifier matches a
well-known name or one given with --name.`,
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("expected <archive>, got %d argument(s)", len(args))
			}
			decoded, loc, err := loadArchive(cfg, &params.CacheFlags, args[0])
			if err != nil {
				return err
			}

			names := knownNames(params.Names)
			decompressedSize, compressedSize := decoded.Sizes()
			result := listResult{
				Archive:          loc.reference.String(),
				WholeCompressed:  decoded.WholeCompressed(),
				DecompressedSize: decompressedSize,
				CompressedSize:   compressedSize,
			}
			for _, entry := range decoded.Entries() {
				result.Entries = append(result.Entries, entryInfo{
					ID:   formatID(entry.ID),
					Name: names[entry.ID],
					Size: len(entry.Data),
					Hash: cachehash.HashEntry(entry.ID, entry.Data),
				})
			}

			if done, err := params.EmitJSON(result); done {
				return err
			}
			printList(os.Stdout, result)
			return nil
		},
	}
}

func printList(w io.Writer, result listResult) {
	mode := "per-entry"
	if result.WholeCompressed {
		mode = "whole"
	}
	fmt.Fprintf(w, "%s (%s compression, %s / %s)\n", cli.Heading(w, result.Archive), mode,
		cli.FormatSize(result.DecompressedSize), cli.FormatSize(result.CompressedSize))
	tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tDIGEST")
	for _, entry := range result.Entries {
		name := entry.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", entry.ID, name, entry.Size, cli.Dim(w, cachehash.ShortHash(entry.Hash)))
	}
	tw.Flush()
}

// --- get ---

type getParams struct {
	cli.CacheFlags
	Output string `json:"output" flag:"output,o" desc:"write to this file instead of stdout"`
}

func getCommand(cfg *config.Config) *cli.Command {
	var params getParams

	return &cli.Command{
		Name:    "get",
		Summary: "Write one entry's content to stdout or a file",
		Usage:   "jagcache archive get <archive> <entry> [flags]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 2 {
				return cli.Validation("expected <archive> <entry>, got %d argument(s)", len(args))
			}
			id, err := parseEntryReference(args[1])
			if err != nil {
				return err
			}
			decoded, _, err := loadArchive(cfg, &params.CacheFlags, args[0])
			if err != nil {
				return err
			}
			entry, err := decoded.Entry(id)
			if err != nil {
				return cli.NotFound("archive %s has no entry %s: %w", args[0], args[1], err)
			}

			if params.Output == "" || params.Output == "-" {
				_, err = os.Stdout.Write(entry.Data)
				return err
			}
			if err := os.WriteFile(params.Output, entry.Data, 0o644); err != nil {
				return cli.Internal("writing %s: %w", params.Output, err)
			}
			logger.Info("entry written", "entry", formatID(id), "bytes", len(entry.Data), "output", params.Output)
			return nil
		},
	}
}

// --- digest ---

type digestParams struct {
	cli.CacheFlags
	cli.JSONOutput
	MD5 bool `json:"md5" flag:"md5" desc:"compute the legacy MD5 digest of the concatenated entry data"`
}

type digestResult struct {
	Archive   string `json:"archive"`
	Algorithm string `json:"algorithm"`
	Digest    string `json:"digest"`
	Entries   int    `json:"entries"`
}

func digestCommand(cfg *config.Config) *cli.Command {
	var params digestParams

	return &cli.Command{
		Name:    "digest",
		Summary: "Print a digest of an archive's entries",
		Usage:   "jagcache archive digest <archive> [flags]",
		Description: `Digest the decompressed entries in set order. The digest depends only on
entry content and order, so the same entries give the same digest in
either compression mode.

By default the digest is the BLAKE3 archive hash: a Merkle root over
per-entry hashes that include each identifier. With --md5, it is the
MD5 of the entry data concatenated in set order, which matches the
digests published for reference caches.`,
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("expected <archive>, got %d argument(s)", len(args))
			}
			decoded, loc, err := loadArchive(cfg, &params.CacheFlags, args[0])
			if err != nil {
				return err
			}

			result := digestResult{Archive: loc.reference.String(), Entries: decoded.Len()}
			if params.MD5 {
				result.Algorithm = "md5"
				result.Digest = md5Digest(decoded)
			} else {
				result.Algorithm = "blake3"
				result.Digest = cachehash.FormatHash(blake3Digest(decoded))
			}

			if done, err := params.EmitJSON(result); done {
				return err
			}
			fmt.Printf("%s  %s\n", result.Digest, result.Archive)
			return nil
		},
	}
}

// md5Digest hashes the entry data concatenated in set order.
func md5Digest(decoded *archive.Archive) string {
	hasher := md5.New()
	for _, entry := range decoded.Entries() {
		hasher.Write(entry.Data)
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

// blake3Digest combines the per-entry hashes in set order.
func blake3Digest(decoded *archive.Archive) cachehash.Hash {
	entries := decoded.Entries()
	hashes := make([]cachehash.Hash, len(entries))
	for i, entry := range entries {
		hashes[i] = cachehash.HashEntry(entry.ID, entry.Data)
	}
	return cachehash.HashArchive(hashes)
}
