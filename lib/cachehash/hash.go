// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cachehash

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Hash is a 32-byte BLAKE3 digest.
type Hash [32]byte

// domainKey is a 32-byte BLAKE3 key. Each kind of hashed object gets
// its own key so equal bytes in different roles hash differently.
type domainKey [32]byte

// newDomainKey zero-pads an ASCII domain name to a key.
func newDomainKey(name string) domainKey {
	var key domainKey
	if len(name) > len(key) {
		panic("cachehash: domain name longer than 32 bytes: " + name)
	}
	copy(key[:], name)
	return key
}

// Domain keys. Changing one invalidates every stored hash in its domain.
var (
	fileDomainKey    = newDomainKey("jagcache.file")
	entryDomainKey   = newDomainKey("jagcache.archive.entry")
	archiveDomainKey = newDomainKey("jagcache.archive")
	indexDomainKey   = newDomainKey("jagcache.index")
	storeDomainKey   = newDomainKey("jagcache.store")
	treeDomainKey    = newDomainKey("jagcache.tree")
)

// HashFile hashes the content of one store file.
func HashFile(data []byte) Hash {
	return keyedHash(fileDomainKey, data)
}

// HashEntry hashes one archive entry. The identifier is part of the
// hash, so moving content to another identifier changes it.
func HashEntry(id uint32, data []byte) Hash {
	hasher := newHasher(entryDomainKey)
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], id)
	hasher.Write(prefix[:])
	hasher.Write(data)
	return sum(hasher)
}

// HashArchive combines entry hashes, in entry order, into the digest of
// an archive.
func HashArchive(entryHashes []Hash) Hash {
	return combine(archiveDomainKey, entryHashes)
}

// HashIndex combines the file hashes of one index, in file id order.
// Callers pass the zero Hash for empty entries so that a file's
// position is part of the digest.
func HashIndex(fileHashes []Hash) Hash {
	return combine(indexDomainKey, fileHashes)
}

// HashStore combines index hashes, in index id order, into the digest
// of a whole store. Absent indices are the zero Hash.
func HashStore(indexHashes []Hash) Hash {
	return combine(storeDomainKey, indexHashes)
}

// combine hashes the Merkle root of hashes under key. An empty list
// hashes the empty input.
func combine(key domainKey, hashes []Hash) Hash {
	if len(hashes) == 0 {
		return keyedHash(key, nil)
	}
	root := MerkleRoot(hashes)
	return keyedHash(key, root[:])
}

// MerkleRoot computes a binary Merkle tree over hashes and returns the
// root. Adjacent pairs are concatenated and hashed in the tree domain;
// an odd node at the end of a level is promoted unchanged.
//
// Panics if hashes is empty.
func MerkleRoot(hashes []Hash) Hash {
	if len(hashes) == 0 {
		panic("cachehash.MerkleRoot: empty hash list")
	}

	hasher := newHasher(treeDomainKey)
	var combined [64]byte

	level := make([]Hash, len(hashes))
	copy(level, hashes)
	for len(level) > 1 {
		next := make([]Hash, (len(level)+1)/2)
		for i := 0; i+1 < len(level); i += 2 {
			copy(combined[:32], level[i][:])
			copy(combined[32:], level[i+1][:])
			hasher.Reset()
			hasher.Write(combined[:])
			next[i/2] = sum(hasher)
		}
		if len(level)%2 == 1 {
			next[len(next)-1] = level[len(level)-1]
		}
		level = next
	}
	return level[0]
}

// FormatHash returns the hex encoding of hash.
func FormatHash(hash Hash) string {
	return hex.EncodeToString(hash[:])
}

// ShortHash returns the first 12 hex characters of hash, for listings.
func ShortHash(hash Hash) string {
	return hex.EncodeToString(hash[:6])
}

// ParseHash parses a 64-character hex string.
func ParseHash(hexString string) (Hash, error) {
	var hash Hash
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return hash, fmt.Errorf("parsing hash: %w", err)
	}
	if len(decoded) != len(hash) {
		return hash, fmt.Errorf("hash is %d bytes, want %d", len(decoded), len(hash))
	}
	copy(hash[:], decoded)
	return hash, nil
}

// MarshalText encodes the hash as hex.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(FormatHash(h)), nil
}

// UnmarshalText parses a hex hash.
func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

func keyedHash(key domainKey, data []byte) Hash {
	hasher := newHasher(key)
	hasher.Write(data)
	return sum(hasher)
}

func newHasher(key domainKey) *blake3.Hasher {
	// NewKeyed fails only for keys that are not 32 bytes.
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("cachehash: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	return hasher
}

func sum(hasher *blake3.Hasher) Hash {
	var hash Hash
	copy(hash[:], hasher.Sum(nil))
	return hash
}
