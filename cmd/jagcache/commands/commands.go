// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete jagcache CLI command tree.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	archivecmd "github.com/bureau-foundation/jagcache/cmd/jagcache/archive"
	"github.com/bureau-foundation/jagcache/cmd/jagcache/cli"
	snapshotcmd "github.com/bureau-foundation/jagcache/cmd/jagcache/snapshot"
	storecmd "github.com/bureau-foundation/jagcache/cmd/jagcache/store"
	unpackcmd "github.com/bureau-foundation/jagcache/cmd/jagcache/unpack"
	"github.com/bureau-foundation/jagcache/lib/config"
	"github.com/bureau-foundation/jagcache/lib/version"
)

// GlobalUsage documents the flags main parses before dispatch.
const GlobalUsage = `Global flags (before the command):
  --config <file>       configuration file (default: $JAGCACHE_CONFIG)
  --log-level <level>   debug, info, warn, or error
  --log-format <fmt>    auto, text, or json`

// Root builds and returns the complete command tree for cfg.
func Root(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name: "jagcache",
		Description: `jagcache: read and write JaGeX game caches.

A cache is a directory with one chunked data file and several index
files. Files inside it are usually JAG archives: bzip2-compressed
containers of named entries such as sprites and version lists.

` + GlobalUsage,
		Subcommands: []*cli.Command{
			storecmd.Command(cfg),
			archivecmd.Command(cfg),
			unpackcmd.Command(cfg),
			snapshotcmd.Command(cfg),
			versionCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Summarize a cache",
				Command:     "jagcache store info --store ./cache",
			},
			{
				Description: "List the entries of an archive in the cache",
				Command:     "jagcache archive list 0/1 --store ./cache",
			},
			{
				Description: "Snapshot a cache for transfer",
				Command:     "jagcache snapshot export -o cache.jagsnap --store ./cache",
			},
		},
	}
}

type versionParams struct {
	cli.JSONOutput
}

func versionCommand() *cli.Command {
	var params versionParams

	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Params:  func() any { return &params },
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if done, err := params.EmitJSON(version.Describe()); done {
				return err
			}
			fmt.Printf("jagcache %s\n", version.Full())
			return nil
		},
	}
}
