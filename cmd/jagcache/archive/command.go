// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive implements the "jagcache archive" subcommands, which
// read and rewrite JAG archives stored either as plain files or as
// files inside a cache directory.
//
// Every command takes an archive reference: a path to an archive file,
// or "<index>/<file>" naming a file of the cache selected by --store.
// A reference that names an existing file on disk is always a path.
package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/bureau-foundation/jagcache/cmd/jagcache/cli"
	"github.com/bureau-foundation/jagcache/lib/archive"
	"github.com/bureau-foundation/jagcache/lib/config"
	"github.com/bureau-foundation/jagcache/lib/store"
	"github.com/bureau-foundation/jagcache/lib/unpack"
)

// Command returns the "archive" command group.
func Command(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:    "archive",
		Summary: "List, extract, pack, and rewrite JAG archives",
		Description: `Work with JAG archives: bzip2-compressed containers of named entries.

An archive is referenced by a file path, or by "<index>/<file>" inside
the cache directory given with --store (or cache.directory from the
config). Commands that modify an archive write it back to where it
came from; for a cache file that means rebuilding the store.

Entries are addressed by name (hashed the way the game client hashes
them) or by a raw identifier written as 0x followed by hex digits.`,
		Subcommands: []*cli.Command{
			listCommand(cfg),
			getCommand(cfg),
			digestCommand(cfg),
			extractCommand(cfg),
			packCommand(cfg),
			setCommand(cfg),
			removeCommand(cfg),
			repackCommand(cfg),
		},
		Examples: []cli.Example{
			{
				Description: "List the entries of the title archive in a cache",
				Command:     "jagcache archive list 0/1 --store ./cache",
			},
			{
				Description: "Extract an archive file, edit it, and pack it back",
				Command:     "jagcache archive extract title.jag -o title/ && jagcache archive pack title/ title.jag",
			},
			{
				Description: "Print the legacy MD5 digest of an archive",
				Command:     "jagcache archive digest 0/5 --md5 --store ./cache",
			},
		},
	}
}

var storeReferencePattern = regexp.MustCompile(`^(\d+)/(\d+)$`)

// reference is a parsed archive reference.
type reference struct {
	path    string
	indexID int
	fileID  int
	inStore bool
}

func (r reference) String() string {
	if r.inStore {
		return fmt.Sprintf("%d/%d", r.indexID, r.fileID)
	}
	return r.path
}

// parseReference interprets an archive reference argument.
func parseReference(argument string) (reference, error) {
	if argument == "" {
		return reference{}, cli.Validation("empty archive reference")
	}
	if _, err := os.Stat(argument); err == nil {
		return reference{path: argument}, nil
	}
	if match := storeReferencePattern.FindStringSubmatch(argument); match != nil {
		indexID, indexErr := strconv.Atoi(match[1])
		fileID, fileErr := strconv.Atoi(match[2])
		if indexErr != nil || fileErr != nil {
			return reference{}, cli.Validation("archive reference %q: id out of range", argument)
		}
		return reference{indexID: indexID, fileID: fileID, inStore: true}, nil
	}
	return reference{path: argument}, nil
}

// location is where an archive was read from, and where it goes back.
type location struct {
	reference reference
	fileStore *store.FileStore
	directory string
}

// openLocation resolves a reference, opening the store if needed.
func openLocation(cfg *config.Config, flags *cli.CacheFlags, argument string) (*location, error) {
	ref, err := parseReference(argument)
	if err != nil {
		return nil, err
	}
	loc := &location{reference: ref}
	if ref.inStore {
		loc.fileStore, loc.directory, err = flags.OpenStore(cfg)
		if err != nil {
			return nil, err
		}
	}
	return loc, nil
}

// read returns the raw archive bytes.
func (l *location) read() ([]byte, error) {
	if l.reference.inStore {
		return l.fileStore.Get(l.reference.indexID, l.reference.fileID)
	}
	raw, err := os.ReadFile(l.reference.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, cli.NotFound("archive %s does not exist", l.reference.path)
	}
	if err != nil {
		return nil, cli.Internal("reading %s: %w", l.reference.path, err)
	}
	return raw, nil
}

// write stores raw archive bytes back at the location.
func (l *location) write(cfg *config.Config, raw []byte) error {
	if !l.reference.inStore {
		if err := os.WriteFile(l.reference.path, raw, 0o644); err != nil {
			return cli.Internal("writing %s: %w", l.reference.path, err)
		}
		return nil
	}
	if err := l.fileStore.Put(l.reference.indexID, l.reference.fileID, raw); err != nil {
		return err
	}
	if err := l.fileStore.Write(l.directory, cli.FileNames(cfg)); err != nil {
		return cli.Internal("rewriting %s: %w", l.directory, err)
	}
	return nil
}

// loadArchive reads and decodes the archive at argument.
func loadArchive(cfg *config.Config, flags *cli.CacheFlags, argument string) (*archive.Archive, *location, error) {
	compressor, err := cli.Compressor(cfg)
	if err != nil {
		return nil, nil, err
	}
	loc, err := openLocation(cfg, flags, argument)
	if err != nil {
		return nil, nil, err
	}
	raw, err := loc.read()
	if err != nil {
		return nil, nil, err
	}
	decoded, err := archive.Decode(raw, compressor)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding archive %s: %w", loc.reference, err)
	}
	return decoded, loc, nil
}

// Load reads and decodes the archive named by an archive reference, for
// commands outside this group that consume archives.
func Load(cfg *config.Config, flags *cli.CacheFlags, argument string) (*archive.Archive, error) {
	decoded, _, err := loadArchive(cfg, flags, argument)
	return decoded, err
}

// parseEntryReference turns an entry argument into an identifier. A
// 0x-prefixed argument is a raw identifier; anything else is a name.
func parseEntryReference(argument string) (uint32, error) {
	if hexDigits, ok := strings.CutPrefix(argument, "0x"); ok {
		id, err := strconv.ParseUint(hexDigits, 16, 32)
		if err != nil {
			return 0, cli.Validation("entry identifier %q is not a 32-bit hex number", argument)
		}
		return uint32(id), nil
	}
	if argument == "" {
		return 0, cli.Validation("empty entry name")
	}
	return archive.NameHash(argument), nil
}

// knownNames maps identifiers of entry names the game client uses to
// the names, so listings can show them.
func knownNames(extra []string) map[uint32]string {
	names := []string{unpack.SpriteIndexEntry}
	for _, kind := range unpack.VersionListKinds {
		names = append(names, kind+"_version", kind+"_crc", kind+"_index")
	}
	names = append(names, extra...)

	table := make(map[uint32]string, len(names))
	for _, name := range names {
		table[archive.NameHash(name)] = name
	}
	return table
}

// formatID renders an identifier the way entry arguments accept it.
func formatID(id uint32) string {
	return fmt.Sprintf("0x%08x", id)
}
