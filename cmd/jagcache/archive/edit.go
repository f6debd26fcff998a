// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/bureau-foundation/jagcache/cmd/jagcache/cli"
	"github.com/bureau-foundation/jagcache/lib/archive"
	"github.com/bureau-foundation/jagcache/lib/config"
)

// --- set ---

type setParams struct {
	cli.CacheFlags
}

func setCommand(cfg *config.Config) *cli.Command {
	var params setParams

	return &cli.Command{
		Name:    "set",
		Summary: "Replace or add one entry",
		Usage:   "jagcache archive set <archive> <entry> [<path>|-] [flags]",
		Description: `Store the content of <path> (or stdin) under <entry> and write the
archive back. An existing entry keeps its position; a new one is
appended.`,
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) < 2 || len(args) > 3 {
				return cli.Validation("expected <archive> <entry> [<path>], got %d argument(s)", len(args))
			}
			id, err := parseEntryReference(args[1])
			if err != nil {
				return err
			}
			content, err := readContent(args[2:])
			if err != nil {
				return err
			}
			decoded, _, err := loadArchive(cfg, &params.CacheFlags, args[0])
			if err != nil {
				return err
			}
			decoded.Set(id, content)
			return encodeTo(ctx, cfg, &params.CacheFlags, args[0], decoded, logger.With("entry", formatID(id)))
		},
	}
}

// readContent reads the optional path argument, or stdin.
func readContent(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, cli.Internal("reading stdin: %w", err)
		}
		return content, nil
	}
	content, err := os.ReadFile(args[0])
	if err != nil {
		return nil, cli.Internal("reading %s: %w", args[0], err)
	}
	return content, nil
}

// --- remove ---

type removeParams struct {
	cli.CacheFlags
}

func removeCommand(cfg *config.Config) *cli.Command {
	var params removeParams

	return &cli.Command{
		Name:    "remove",
		Summary: "Remove one entry",
		Usage:   "jagcache archive remove <archive> <entry> [flags]",
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
			if err := decoded.Remove(id); err != nil {
				return cli.NotFound("archive %s has no entry %s: %w", args[0], args[1], err)
			}
			return encodeTo(ctx, cfg, &params.CacheFlags, args[0], decoded, logger.With("entry", formatID(id)))
		},
	}
}

// --- repack ---

type repackParams struct {
	cli.CacheFlags
	Mode string `json:"mode" flag:"mode" desc:"compression mode: whole or entry (default: unchanged)"`
}

func repackCommand(cfg *config.Config) *cli.Command {
	var params repackParams

	return &cli.Command{
		Name:    "repack",
		Summary: "Re-encode an archive in place",
		Usage:   "jagcache archive repack <archive> [flags]",
		Description: `Decode the archive and encode its entries again with the configured
bzip2 block size, optionally switching the compression mode. Entry
content and order are unchanged; the header sizes are recomputed.`,
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("expected <archive>, got %d argument(s)", len(args))
			}
			decoded, _, err := loadArchive(cfg, &params.CacheFlags, args[0])
			if err != nil {
				return err
			}
			whole, err := resolveMode(params.Mode, decoded.WholeCompressed())
			if err != nil {
				return err
			}

			rebuilt := archive.New(whole)
			for _, entry := range decoded.Entries() {
				rebuilt.Add(entry.ID, entry.Data)
			}
			decompressedSize, compressedSize := decoded.Sizes()
			logger.Debug("repacking",
				"previous_decompressed_size", decompressedSize,
				"previous_compressed_size", compressedSize,
			)
			return encodeTo(ctx, cfg, &params.CacheFlags, args[0], rebuilt, logger)
		},
	}
}
