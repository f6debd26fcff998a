// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cachehash

import (
	"strings"
	"testing"
)

func TestDomainsAreSeparate(t *testing.T) {
	input := []byte("the same bytes in every domain")

	hashes := map[string]Hash{
		"file":    HashFile(input),
		"archive": keyedHash(archiveDomainKey, input),
		"index":   keyedHash(indexDomainKey, input),
		"store":   keyedHash(storeDomainKey, input),
		"tree":    keyedHash(treeDomainKey, input),
		"entry":   keyedHash(entryDomainKey, input),
	}
	seen := make(map[Hash]string)
	for name, hash := range hashes {
		if other, ok := seen[hash]; ok {
			t.Errorf("domains %s and %s produced the same hash", name, other)
		}
		seen[hash] = name
	}
}

func TestDomainKeysAreReadable(t *testing.T) {
	keys := []domainKey{fileDomainKey, entryDomainKey, archiveDomainKey, indexDomainKey, storeDomainKey, treeDomainKey}
	for _, key := range keys {
		name := strings.TrimRight(string(key[:]), "\x00")
		if !strings.HasPrefix(name, "jagcache.") {
			t.Errorf("domain key %q lacks the jagcache. prefix", name)
		}
	}
}

func TestHashEntryCoversIdentifier(t *testing.T) {
	data := []byte("entry")
	if HashEntry(1, data) == HashEntry(2, data) {
		t.Error("entries with different identifiers hashed equal")
	}
	if HashEntry(1, data) != HashEntry(1, []byte("entry")) {
		t.Error("HashEntry is not deterministic")
	}
}

func TestMerkleRoot(t *testing.T) {
	a, b, c := HashFile([]byte("a")), HashFile([]byte("b")), HashFile([]byte("c"))

	if MerkleRoot([]Hash{a}) != a {
		t.Error("single-leaf root is not the leaf")
	}
	if MerkleRoot([]Hash{a, b}) == MerkleRoot([]Hash{b, a}) {
		t.Error("root ignores leaf order")
	}

	pair := MerkleRoot([]Hash{a, b})
	if got := MerkleRoot([]Hash{a, b, c}); got != MerkleRoot([]Hash{pair, c}) {
		t.Error("odd leaf was not promoted to the next level")
	}

	leaves := []Hash{a, b, c}
	MerkleRoot(leaves)
	if leaves[0] != a || leaves[1] != b || leaves[2] != c {
		t.Error("MerkleRoot modified its input")
	}

	defer func() {
		if recover() == nil {
			t.Error("MerkleRoot(nil) did not panic")
		}
	}()
	MerkleRoot(nil)
}

func TestCombineEmptyLists(t *testing.T) {
	if HashArchive(nil) == HashIndex(nil) {
		t.Error("empty archive and empty index hashed equal")
	}
	if HashStore(nil) != HashStore([]Hash{}) {
		t.Error("nil and empty store lists hashed differently")
	}
}

func TestParseHashRoundTrip(t *testing.T) {
	hash := HashFile([]byte("round trip"))
	parsed, err := ParseHash(FormatHash(hash))
	if err != nil {
		t.Fatalf("ParseHash: %v", err)
	}
	if parsed != hash {
		t.Error("ParseHash(FormatHash(h)) != h")
	}
	if got := ShortHash(hash); got != FormatHash(hash)[:12] {
		t.Errorf("ShortHash = %q, want prefix of FormatHash", got)
	}

	for _, bad := range []string{"", "zz", strings.Repeat("ab", 31)} {
		if _, err := ParseHash(bad); err == nil {
			t.Errorf("ParseHash(%q) succeeded", bad)
		}
	}

	text, err := hash.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	var decoded Hash
	if err := decoded.UnmarshalText(text); err != nil || decoded != hash {
		t.Errorf("UnmarshalText = %v, %v", decoded, err)
	}
}
