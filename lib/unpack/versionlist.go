// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package unpack

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/jagcache/lib/archive"
	"github.com/bureau-foundation/jagcache/lib/bytecursor"
	"github.com/bureau-foundation/jagcache/lib/cacheerr"
)

// VersionListKinds are the resource kinds a version list archive
// describes, in the order the client reads them.
var VersionListKinds = []string{"model", "anim", "midi", "map"}

// mapRegionSize is one map_index record: region (2), map file (2),
// landscape file (2), members (1).
const mapRegionSize = 7

// MapRegion locates the terrain and landscape files of one map region.
type MapRegion struct {
	Region        uint16 `json:"region"`
	MapFile       uint16 `json:"map_file"`
	LandscapeFile uint16 `json:"landscape_file"`
	Members       bool   `json:"members"`
}

// VersionList is the per-file version table of one resource kind.
type VersionList struct {
	Kind string `json:"kind"`

	// Versions has one entry per file of the kind.
	Versions []uint16 `json:"versions"`

	// CRCs is nil when the archive has no <kind>_crc entry.
	CRCs []uint32 `json:"crcs,omitempty"`

	// Index is the raw <kind>_index entry, nil when absent.
	Index []byte `json:"-"`

	// Regions is the parsed map_index. Only set for the map kind.
	Regions []MapRegion `json:"regions,omitempty"`
}

// UnpackVersionLists reads the version list of every kind in
// [VersionListKinds].
func UnpackVersionLists(versions *archive.Archive) ([]VersionList, error) {
	lists := make([]VersionList, 0, len(VersionListKinds))
	for _, kind := range VersionListKinds {
		list, err := UnpackVersionList(versions, kind)
		if err != nil {
			return nil, err
		}
		lists = append(lists, list)
	}
	return lists, nil
}

// UnpackVersionList reads the entries of one kind: <kind>_version is
// required, <kind>_crc and <kind>_index are optional.
func UnpackVersionList(versions *archive.Archive, kind string) (VersionList, error) {
	list := VersionList{Kind: kind}

	entry, err := versions.EntryByName(kind + "_version")
	if err != nil {
		return VersionList{}, err
	}
	list.Versions, err = readUint16s(entry.Data)
	if err != nil {
		return VersionList{}, fmt.Errorf("%s_version: %w", kind, err)
	}

	entry, err = versions.EntryByName(kind + "_crc")
	switch {
	case err == nil:
		list.CRCs, err = readUint32s(entry.Data)
		if err != nil {
			return VersionList{}, fmt.Errorf("%s_crc: %w", kind, err)
		}
	case !errors.Is(err, cacheerr.ErrNotFound):
		return VersionList{}, err
	}

	entry, err = versions.EntryByName(kind + "_index")
	switch {
	case err == nil:
		list.Index = entry.Data
	case !errors.Is(err, cacheerr.ErrNotFound):
		return VersionList{}, err
	}

	if kind == "map" && list.Index != nil {
		list.Regions, err = readMapRegions(list.Index)
		if err != nil {
			return VersionList{}, fmt.Errorf("map_index: %w", err)
		}
	}
	return list, nil
}

func readUint16s(data []byte) ([]uint16, error) {
	if len(data)%2 != 0 {
		return nil, cacheerr.CorruptData("%d bytes is not a whole number of u16 values", len(data))
	}
	reader := bytecursor.NewReader(data)
	values := make([]uint16, len(data)/2)
	for i := range values {
		values[i], _ = reader.Uint16()
	}
	return values, nil
}

func readUint32s(data []byte) ([]uint32, error) {
	if len(data)%4 != 0 {
		return nil, cacheerr.CorruptData("%d bytes is not a whole number of u32 values", len(data))
	}
	reader := bytecursor.NewReader(data)
	values := make([]uint32, len(data)/4)
	for i := range values {
		values[i], _ = reader.Uint32()
	}
	return values, nil
}

func readMapRegions(data []byte) ([]MapRegion, error) {
	if len(data)%mapRegionSize != 0 {
		return nil, cacheerr.CorruptData("%d bytes is not a whole number of %d-byte region records", len(data), mapRegionSize)
	}
	reader := bytecursor.NewReader(data)
	regions := make([]MapRegion, len(data)/mapRegionSize)
	for i := range regions {
		region, _ := reader.Uint16()
		mapFile, _ := reader.Uint16()
		landscapeFile, _ := reader.Uint16()
		members, _ := reader.Uint8()
		regions[i] = MapRegion{
			Region:        region,
			MapFile:       mapFile,
			LandscapeFile: landscapeFile,
			Members:       members == 1,
		}
	}
	return regions, nil
}
