// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"

	"filippo.io/age"

	"github.com/bureau-foundation/jagcache/lib/bytecursor"
	"github.com/bureau-foundation/jagcache/lib/cacheerr"
	"github.com/bureau-foundation/jagcache/lib/cachehash"
	"github.com/bureau-foundation/jagcache/lib/codec"
	"github.com/bureau-foundation/jagcache/lib/store"
)

// Format constants. The header is the 7-byte magic, a version byte,
// and the little-endian u32 length of the CBOR manifest that follows.
const (
	magic         = "JAGSNAP"
	FormatVersion = 1
	headerSize    = len(magic) + 1 + 4
)

// Manifest describes every file in a snapshot and where its bytes sit
// in the data region.
type Manifest struct {
	Version int             `cbor:"version"`
	Indices []IndexManifest `cbor:"indices"`

	// Root is the store digest: [cachehash.HashStore] over the index
	// hashes, with the zero hash for absent indices.
	Root cachehash.Hash `cbor:"root"`
}

// IndexManifest describes one index. Files lists only non-empty
// entries; ids between them are empty.
type IndexManifest struct {
	ID        int            `cbor:"id"`
	FileCount int            `cbor:"file_count"`
	Files     []FileRecord   `cbor:"files"`
	Hash      cachehash.Hash `cbor:"hash"`
}

// FileRecord locates one file's stored bytes.
type FileRecord struct {
	ID          int            `cbor:"id"`
	Size        int            `cbor:"size"`
	Offset      int            `cbor:"offset"`
	Length      int            `cbor:"length"`
	Compression Compression    `cbor:"compression"`
	Hash        cachehash.Hash `cbor:"hash"`
}

// Files returns the number of non-empty files across all indices.
func (m *Manifest) Files() int {
	total := 0
	for _, index := range m.Indices {
		total += len(index.Files)
	}
	return total
}

// Bytes returns the total decoded size of all files.
func (m *Manifest) Bytes() int {
	total := 0
	for _, index := range m.Indices {
		for _, file := range index.Files {
			total += file.Size
		}
	}
	return total
}

// ExportOptions configures [Export].
type ExportOptions struct {
	// Compression is the per-file policy. The zero value stores
	// everything uncompressed; use CompressionAuto to probe.
	Compression Compression

	// Recipients, when set, age-encrypt the whole snapshot to these
	// X25519 public keys.
	Recipients []string

	// Logger receives per-index progress at Debug level. Nil discards.
	Logger *slog.Logger
}

// ImportOptions configures [Import] and [Verify].
type ImportOptions struct {
	// Identities decrypt sealed snapshots. Unsealed snapshots ignore
	// them.
	Identities []age.Identity

	// Logger receives per-index progress at Debug level. Nil discards.
	Logger *slog.Logger
}

func loggerOrDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}

// Export writes a snapshot of source to w and returns its manifest.
// Cancellation is checked between indices.
func Export(ctx context.Context, source *store.FileStore, w io.Writer, options ExportOptions) (*Manifest, error) {
	logger := loggerOrDiscard(options.Logger)

	var recipients []age.Recipient
	if len(options.Recipients) > 0 {
		var err error
		if recipients, err = ParseRecipients(options.Recipients); err != nil {
			return nil, err
		}
	}

	manifest := &Manifest{Version: FormatVersion}
	var region bytes.Buffer
	indexHashes := make([]cachehash.Hash, source.IndexCount())

	for id := range source.IndexCount() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		index, err := source.Index(id)
		if err != nil {
			// Absent index: zero hash, no manifest entry.
			continue
		}

		indexManifest := IndexManifest{ID: id, FileCount: index.Len()}
		fileHashes := make([]cachehash.Hash, index.Len())
		for fileID, entry := range index.Entries() {
			if entry.Empty() {
				continue
			}
			content := entry.Bytes()
			stored, compression, err := compressBlock(content, options.Compression)
			if err != nil {
				return nil, fmt.Errorf("compressing index %d file %d: %w", id, fileID, err)
			}
			fileHashes[fileID] = cachehash.HashFile(content)
			indexManifest.Files = append(indexManifest.Files, FileRecord{
				ID:          fileID,
				Size:        len(content),
				Offset:      region.Len(),
				Length:      len(stored),
				Compression: compression,
				Hash:        fileHashes[fileID],
			})
			region.Write(stored)
		}
		indexManifest.Hash = cachehash.HashIndex(fileHashes)
		indexHashes[id] = indexManifest.Hash
		manifest.Indices = append(manifest.Indices, indexManifest)

		logger.Debug("exported index",
			"index", id,
			"files", len(indexManifest.Files),
			"region_bytes", region.Len(),
		)
	}
	manifest.Root = cachehash.HashStore(indexHashes)

	encoded, err := encode(manifest, region.Bytes())
	if err != nil {
		return nil, err
	}

	if recipients != nil {
		err = seal(w, encoded, recipients)
	} else {
		_, err = w.Write(encoded)
	}
	if err != nil {
		return nil, fmt.Errorf("writing snapshot: %w", err)
	}
	return manifest, nil
}

// encode frames a manifest and data region.
func encode(manifest *Manifest, region []byte) ([]byte, error) {
	manifestBytes, err := codec.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	output := make([]byte, 0, headerSize+len(manifestBytes)+len(region))
	output = append(output, magic...)
	output = append(output, FormatVersion)
	output = binary.LittleEndian.AppendUint32(output, uint32(len(manifestBytes)))
	output = append(output, manifestBytes...)
	output = append(output, region...)
	return output, nil
}

// decoded is a parsed snapshot: its manifest and data region.
type decoded struct {
	manifest *Manifest
	region   []byte
}

// decode reads a whole snapshot, decrypting it first if it is sealed.
func decode(r io.Reader, identities []age.Identity) (*decoded, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	if IsSealed(data) {
		if data, err = unseal(data, identities); err != nil {
			return nil, err
		}
	}

	if len(data) < headerSize {
		return nil, cacheerr.TruncatedInput("snapshot is %d bytes, header needs %d", len(data), headerSize)
	}
	if string(data[:len(magic)]) != magic {
		return nil, cacheerr.CorruptData("not a snapshot: magic %q", data[:len(magic)])
	}
	if version := data[len(magic)]; version != FormatVersion {
		return nil, cacheerr.CorruptData("unsupported snapshot version %d", version)
	}
	manifestLength := int(binary.LittleEndian.Uint32(data[len(magic)+1:]))
	if manifestLength > len(data)-headerSize {
		return nil, cacheerr.TruncatedInput("manifest claims %d bytes, %d remain", manifestLength, len(data)-headerSize)
	}

	manifest := &Manifest{}
	if err := codec.Unmarshal(data[headerSize:headerSize+manifestLength], manifest); err != nil {
		return nil, cacheerr.CorruptData("decoding manifest: %w", err)
	}
	if err := manifest.validate(); err != nil {
		return nil, err
	}
	return &decoded{manifest: manifest, region: data[headerSize+manifestLength:]}, nil
}

// validate checks the manifest's addressing: index ids in range and
// unique, file counts and file sizes within the store's limits.
func (m *Manifest) validate() error {
	seen := make(map[int]bool, len(m.Indices))
	for _, index := range m.Indices {
		if index.ID < 0 || index.ID > store.MaxIndexID {
			return cacheerr.CorruptData("manifest index id %d outside 0..%d", index.ID, store.MaxIndexID)
		}
		if seen[index.ID] {
			return cacheerr.CorruptData("manifest lists index %d twice", index.ID)
		}
		seen[index.ID] = true
		if index.FileCount < 0 || index.FileCount > bytecursor.MaxUint16+1 {
			return cacheerr.CorruptData("index %d claims %d files", index.ID, index.FileCount)
		}
		for _, file := range index.Files {
			if file.Size < 0 || file.Size > bytecursor.MaxUint24 {
				return cacheerr.CorruptData("index %d file %d claims %d bytes, limit %d",
					index.ID, file.ID, file.Size, bytecursor.MaxUint24)
			}
		}
	}
	return nil
}

// restore decompresses and verifies every file, checking each digest
// up to the store root. visit receives each verified file.
func (d *decoded) restore(ctx context.Context, logger *slog.Logger, visit func(indexID, fileID int, content []byte) error) error {
	var indexHashes []cachehash.Hash
	for _, index := range d.manifest.Indices {
		if err := ctx.Err(); err != nil {
			return err
		}

		fileHashes := make([]cachehash.Hash, index.FileCount)
		for _, file := range index.Files {
			if file.ID < 0 || file.ID >= index.FileCount {
				return cacheerr.CorruptData("index %d file %d outside its %d files", index.ID, file.ID, index.FileCount)
			}
			if file.Offset < 0 || file.Length < 0 || file.Offset > len(d.region) || file.Length > len(d.region)-file.Offset {
				return cacheerr.TruncatedInput("index %d file %d spans %d+%d, region is %d bytes",
					index.ID, file.ID, file.Offset, file.Length, len(d.region))
			}
			content, err := decompressBlock(d.region[file.Offset:file.Offset+file.Length], file.Compression, file.Size)
			if err != nil {
				return fmt.Errorf("index %d file %d: %w", index.ID, file.ID, err)
			}
			if hash := cachehash.HashFile(content); hash != file.Hash {
				return cacheerr.CorruptData("index %d file %d digest %s, manifest records %s",
					index.ID, file.ID, cachehash.ShortHash(hash), cachehash.ShortHash(file.Hash))
			}
			fileHashes[file.ID] = file.Hash
			if err := visit(index.ID, file.ID, content); err != nil {
				return err
			}
		}

		if hash := cachehash.HashIndex(fileHashes); hash != index.Hash {
			return cacheerr.CorruptData("index %d digest %s, manifest records %s",
				index.ID, cachehash.ShortHash(hash), cachehash.ShortHash(index.Hash))
		}
		for len(indexHashes) <= index.ID {
			indexHashes = append(indexHashes, cachehash.Hash{})
		}
		indexHashes[index.ID] = index.Hash

		logger.Debug("verified index", "index", index.ID, "files", len(index.Files))
	}

	if root := cachehash.HashStore(indexHashes); root != d.manifest.Root {
		return cacheerr.CorruptData("store digest %s, manifest records %s",
			cachehash.ShortHash(root), cachehash.ShortHash(d.manifest.Root))
	}
	return nil
}

// Import reads a snapshot, verifies every digest, and rebuilds the
// store it describes.
func Import(ctx context.Context, r io.Reader, options ImportOptions) (*store.FileStore, *Manifest, error) {
	snapshot, err := decode(r, options.Identities)
	if err != nil {
		return nil, nil, err
	}

	var contents [][][]byte
	for _, index := range snapshot.manifest.Indices {
		for len(contents) <= index.ID {
			contents = append(contents, nil)
		}
		contents[index.ID] = make([][]byte, index.FileCount)
	}

	err = snapshot.restore(ctx, loggerOrDiscard(options.Logger), func(indexID, fileID int, content []byte) error {
		contents[indexID][fileID] = content
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	blob, indices, err := store.Layout(contents)
	if err != nil {
		return nil, nil, fmt.Errorf("laying out restored store: %w", err)
	}
	restored, err := store.Load(indices, blob)
	if err != nil {
		return nil, nil, fmt.Errorf("loading restored store: %w", err)
	}
	return restored, snapshot.manifest, nil
}

// Verify reads a snapshot and checks every digest without rebuilding
// the store.
func Verify(ctx context.Context, r io.Reader, options ImportOptions) (*Manifest, error) {
	snapshot, err := decode(r, options.Identities)
	if err != nil {
		return nil, err
	}
	err = snapshot.restore(ctx, loggerOrDiscard(options.Logger), func(int, int, []byte) error { return nil })
	if err != nil {
		return nil, err
	}
	return snapshot.manifest, nil
}

// ReadManifest returns a snapshot's manifest without verifying files.
func ReadManifest(r io.Reader, options ImportOptions) (*Manifest, error) {
	snapshot, err := decode(r, options.Identities)
	if err != nil {
		return nil, err
	}
	return snapshot.manifest, nil
}
