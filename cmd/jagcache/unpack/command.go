// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package unpack implements the "jagcache unpack" subcommands, which
// decode resources inside archives: version lists and sprites.
package unpack

import (
	"context"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	archivecmd "github.com/bureau-foundation/jagcache/cmd/jagcache/archive"
	"github.com/bureau-foundation/jagcache/cmd/jagcache/cli"
	"github.com/bureau-foundation/jagcache/lib/config"
	"github.com/bureau-foundation/jagcache/lib/unpack"
)

// Command returns the "unpack" command group.
func Command(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:    "unpack",
		Summary: "Decode version lists and sprites",
		Description: `Decode resources stored inside archives.

Archives are referenced the same way as in "jagcache archive": a file
path or "<index>/<file>" inside the cache given with --store.`,
		Subcommands: []*cli.Command{
			versionsCommand(cfg),
			spriteCommand(cfg),
		},
		Examples: []cli.Example{
			{
				Description: "Summarize the version lists",
				Command:     "jagcache unpack versions 0/5 --store ./cache",
			},
			{
				Description: "Render the second frame of a sprite group",
				Command:     "jagcache unpack sprite 0/4 logo --frame 1 -o logo.png --store ./cache",
			},
		},
	}
}

// --- versions ---

type versionsParams struct {
	cli.CacheFlags
	cli.JSONOutput
	Kind string `json:"kind" flag:"kind" desc:"decode only this kind (model, anim, midi, or map)"`
}

func versionsCommand(cfg *config.Config) *cli.Command {
	var params versionsParams

	return &cli.Command{
		Name:    "versions",
		Summary: "Decode the version lists of a versionlist archive",
		Usage:   "jagcache unpack versions <archive> [flags]",
		Description: `Decode the per-file version numbers, CRCs, and (for maps) the region
table of each resource kind. With --json the full lists are printed;
otherwise a summary per kind.`,
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("expected <archive>, got %d argument(s)", len(args))
			}
			versions, err := archivecmd.Load(cfg, &params.CacheFlags, args[0])
			if err != nil {
				return err
			}

			var lists []unpack.VersionList
			if params.Kind != "" {
				list, err := unpack.UnpackVersionList(versions, params.Kind)
				if err != nil {
					return err
				}
				lists = []unpack.VersionList{list}
			} else {
				lists, err = unpack.UnpackVersionLists(versions)
				if err != nil {
					return err
				}
			}

			if done, err := params.EmitJSON(lists); done {
				return err
			}
			printVersions(os.Stdout, lists)
			return nil
		},
	}
}

func printVersions(w io.Writer, lists []unpack.VersionList) {
	tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "KIND\tFILES\tCRCS\tINDEX\tREGIONS")
	for _, list := range lists {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%d\n", list.Kind, len(list.Versions), len(list.CRCs),
			cli.FormatSize(len(list.Index)), len(list.Regions))
	}
	tw.Flush()
}

// --- sprite ---

type spriteParams struct {
	cli.CacheFlags
	cli.JSONOutput
	Frame  int    `json:"frame"  flag:"frame"    desc:"frame number within the sprite group"`
	Output string `json:"output" flag:"output,o" desc:"PNG file to write"`
}

func spriteCommand(cfg *config.Config) *cli.Command {
	var params spriteParams

	return &cli.Command{
		Name:    "sprite",
		Summary: "Decode one sprite frame, optionally to PNG",
		Usage:   "jagcache unpack sprite <archive> <name> [flags]",
		Description: `Decode frame --frame of the sprite group <name> (its pixels are in
<name>.dat, its header in index.dat). Prints the frame geometry; with
-o, also renders the frame as a PNG with transparent background.`,
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 2 {
				return cli.Validation("expected <archive> <name>, got %d argument(s)", len(args))
			}
			media, err := archivecmd.Load(cfg, &params.CacheFlags, args[0])
			if err != nil {
				return err
			}
			sprite, err := unpack.UnpackSprite(media, args[1], params.Frame)
			if err != nil {
				return err
			}

			if params.Output != "" {
				if err := writePNG(params.Output, sprite); err != nil {
					return err
				}
				logger.Info("sprite written", "name", args[1], "frame", params.Frame, "output", params.Output)
			}

			if done, err := params.EmitJSON(sprite); done {
				return err
			}
			fmt.Printf("%s frame %d: %dx%d at (%d,%d) on %dx%d\n", args[1], params.Frame,
				sprite.Width, sprite.Height, sprite.XOffset, sprite.YOffset,
				sprite.ResizeWidth, sprite.ResizeHeight)
			return nil
		},
	}
}

func writePNG(path string, sprite *unpack.Sprite) error {
	file, err := os.Create(path)
	if err != nil {
		return cli.Internal("creating %s: %w", path, err)
	}
	if err := png.Encode(file, sprite.Image()); err != nil {
		file.Close()
		return cli.Internal("encoding %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return cli.Internal("closing %s: %w", path, err)
	}
	return nil
}
