// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package store implements the "jagcache store" subcommands, which
// inspect and edit a cache directory file by file.
package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/bureau-foundation/jagcache/cmd/jagcache/cli"
	"github.com/bureau-foundation/jagcache/lib/cacheerr"
	"github.com/bureau-foundation/jagcache/lib/cachehash"
	"github.com/bureau-foundation/jagcache/lib/config"
	"github.com/bureau-foundation/jagcache/lib/snapshot"
	"github.com/bureau-foundation/jagcache/lib/store"
)

// Command returns the "store" command group.
func Command(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:    "store",
		Summary: "Inspect and edit a cache directory",
		Description: `Read and write the chunked file store of a cache directory.

A cache directory holds one data file (main_file_cache.dat) and one
index file per category (main_file_cache.idx0, .idx1, ...). Files are
addressed by index id and file id.

Writes rebuild the whole store: every file is laid out again into a
fresh data file, and each file is renamed into place.`,
		Subcommands: []*cli.Command{
			infoCommand(cfg),
			getCommand(cfg),
			putCommand(cfg),
			verifyCommand(cfg),
		},
		Examples: []cli.Example{
			{
				Description: "Summarize every index",
				Command:     "jagcache store info --store ./cache",
			},
			{
				Description: "Extract the title screen archive",
				Command:     "jagcache store get 0 1 -o title.jag --store ./cache",
			},
		},
	}
}

// parseFileAddress parses the "<index> <file>" positional pair.
func parseFileAddress(args []string) (int, int, error) {
	if len(args) < 2 {
		return 0, 0, cli.Validation("expected <index> <file>, got %d argument(s)", len(args))
	}
	indexID, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, cli.Validation("index id %q is not a number", args[0])
	}
	fileID, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, cli.Validation("file id %q is not a number", args[1])
	}
	return indexID, fileID, nil
}

// --- info ---

type infoParams struct {
	cli.CacheFlags
	cli.JSONOutput
	Hash bool `json:"hash" flag:"hash" desc:"include BLAKE3 index and store digests"`
}

type infoResult struct {
	Directory string          `json:"directory"`
	Indices   []indexInfo     `json:"indices"`
	Root      *cachehash.Hash `json:"root,omitempty"`
}

type indexInfo struct {
	store.IndexStats
	Hash *cachehash.Hash `json:"hash,omitempty"`
}

func infoCommand(cfg *config.Config) *cli.Command {
	var params infoParams

	return &cli.Command{
		Name:    "info",
		Summary: "Summarize the indices of a cache",
		Usage:   "jagcache store info [flags]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			fileStore, directory, err := params.OpenStore(cfg)
			if err != nil {
				return err
			}
			logger.Debug("opened store", "directory", directory, "indices", fileStore.IndexCount())

			result := infoResult{Directory: directory}
			var indexHashes []cachehash.Hash
			if params.Hash {
				root, hashes := snapshot.Digest(fileStore)
				result.Root = &root
				indexHashes = hashes
			}
			for _, stats := range fileStore.Stats() {
				info := indexInfo{IndexStats: stats}
				if stats.Present && indexHashes != nil {
					info.Hash = &indexHashes[stats.ID]
				}
				result.Indices = append(result.Indices, info)
			}

			if done, err := params.EmitJSON(result); done {
				return err
			}
			printInfo(os.Stdout, result)
			return nil
		},
	}
}

func printInfo(w io.Writer, result infoResult) {
	fmt.Fprintln(w, cli.Heading(w, result.Directory))
	tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "INDEX\tFILES\tEMPTY\tSIZE")
	if result.Root != nil {
		fmt.Fprintf(tw, "\tDIGEST")
	}
	fmt.Fprintln(tw)
	for _, index := range result.Indices {
		if !index.Present {
			continue
		}
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s", index.ID, index.Files, index.Empty, cli.FormatSize(index.Bytes))
		if index.Hash != nil {
			fmt.Fprintf(tw, "\t%s", cli.Dim(w, cachehash.ShortHash(*index.Hash)))
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()
	if result.Root != nil {
		fmt.Fprintf(w, "root %s\n", cachehash.FormatHash(*result.Root))
	}
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
		Summary: "Write one file's content to stdout or a file",
		Usage:   "jagcache store get <index> <file> [flags]",
		Description: `Reassemble one file from its chunk chain.

Absent indices, file ids past the end of the index, and empty entries
are reported as not found (exit code 2).`,
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			indexID, fileID, err := parseFileAddress(args)
			if err != nil {
				return err
			}
			fileStore, _, err := params.OpenStore(cfg)
			if err != nil {
				return err
			}
			content, err := fileStore.Get(indexID, fileID)
			if err != nil {
				return err
			}

			if params.Output == "" || params.Output == "-" {
				_, err = os.Stdout.Write(content)
				return err
			}
			if err := os.WriteFile(params.Output, content, 0o644); err != nil {
				return cli.Internal("writing %s: %w", params.Output, err)
			}
			logger.Info("file written", "index", indexID, "file", fileID, "bytes", len(content), "output", params.Output)
			return nil
		},
	}
}

// --- put ---

type putParams struct {
	cli.CacheFlags
	Empty bool `json:"empty" flag:"empty" desc:"mark the entry empty instead of writing content"`
}

func putCommand(cfg *config.Config) *cli.Command {
	var params putParams

	return &cli.Command{
		Name:    "put",
		Summary: "Replace one file and rebuild the store",
		Usage:   "jagcache store put <index> <file> [<path>|-] [flags]",
		Description: `Replace (or add) one file, then lay the whole store out again.

Content comes from <path>, or stdin when the path is "-" or omitted.
With --empty, the entry is cleared instead. The index is created when
the store does not have it yet, and the index grows with empty entries
when the file id is past its end.`,
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			indexID, fileID, err := parseFileAddress(args)
			if err != nil {
				return err
			}

			var content []byte
			if !params.Empty {
				content, err = readInput(args[2:])
				if err != nil {
					return err
				}
			}

			fileStore, directory, err := params.OpenStore(cfg)
			if err != nil {
				return err
			}
			if err := fileStore.Put(indexID, fileID, content); err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fileStore.Write(directory, cli.FileNames(cfg)); err != nil {
				return cli.Internal("rewriting %s: %w", directory, err)
			}
			logger.Info("store rewritten",
				"directory", directory,
				"index", indexID,
				"file", fileID,
				"bytes", len(content),
				"empty", params.Empty,
			)
			return nil
		},
	}
}

// readInput reads the optional path argument, or stdin.
func readInput(args []string) ([]byte, error) {
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

// --- verify ---

type verifyParams struct {
	cli.CacheFlags
	cli.JSONOutput
}

type verifyFailure struct {
	Index int    `json:"index"`
	File  int    `json:"file"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

type verifyResult struct {
	Directory string          `json:"directory"`
	Files     int             `json:"files"`
	Failures  []verifyFailure `json:"failures"`
}

func verifyCommand(cfg *config.Config) *cli.Command {
	var params verifyParams

	return &cli.Command{
		Name:    "verify",
		Summary: "Decode every file and report broken chains",
		Usage:   "jagcache store verify [flags]",
		Description: `Walk every chunk chain of every index and report each file that
fails to decode, instead of stopping at the first one.

Exits 1 when any file fails.`,
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			directory, err := params.Directory(cfg)
			if err != nil {
				return err
			}
			reports, err := store.Scan(directory, cli.FileNames(cfg))
			if err != nil {
				return err
			}

			result := verifyResult{Directory: directory}
			for id, report := range reports {
				if err := ctx.Err(); err != nil {
					return err
				}
				if report == nil {
					continue
				}
				result.Files += report.Index.Len()
				for _, failure := range report.Failures {
					result.Failures = append(result.Failures, verifyFailure{
						Index: id,
						File:  failure.FileID,
						Kind:  kindName(failure.Err),
						Error: failure.Err.Error(),
					})
				}
				logger.Debug("verified index", "index", id, "files", report.Index.Len(), "failures", len(report.Failures))
			}

			if done, err := params.EmitJSON(result); done {
				if err == nil && len(result.Failures) > 0 {
					return &cli.ExitError{Code: cli.ExitFailure}
				}
				return err
			}

			for _, failure := range result.Failures {
				fmt.Printf("index %d file %d: %s\n", failure.Index, failure.File, failure.Error)
			}
			fmt.Printf("%d files checked, %d failed\n", result.Files, len(result.Failures))
			if len(result.Failures) > 0 {
				return &cli.ExitError{Code: cli.ExitFailure}
			}
			return nil
		},
	}
}

// kindName returns the cache error kind of err, or "io" for
// unclassified failures.
func kindName(err error) string {
	if kind := cacheerr.KindOf(err); kind != 0 {
		return kind.String()
	}
	return "io"
}
