// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package unpack

import (
	"errors"
	"image/color"
	"slices"
	"testing"

	"github.com/bureau-foundation/jagcache/lib/archive"
	"github.com/bureau-foundation/jagcache/lib/cacheerr"
)

func versionArchive(t *testing.T, entries map[string][]byte) *archive.Archive {
	t.Helper()
	versions := archive.New(false)
	for name, data := range entries {
		versions.AddNamed(name, data)
	}
	return versions
}

func TestUnpackVersionLists(t *testing.T) {
	versions := versionArchive(t, map[string][]byte{
		"model_version": {0, 1, 0, 2},
		"model_crc":     {0xde, 0xad, 0xbe, 0xef, 0, 0, 0, 1},
		"anim_version":  {},
		"midi_version":  {1, 0},
		"midi_index":    {9},
		"map_version":   {0, 7},
		"map_index":     {0x32, 0x32, 0, 10, 0, 11, 1, 0x32, 0x33, 0, 12, 0, 13, 0},
	})

	lists, err := UnpackVersionLists(versions)
	if err != nil {
		t.Fatalf("UnpackVersionLists: %v", err)
	}
	if len(lists) != 4 {
		t.Fatalf("got %d lists, want 4", len(lists))
	}

	model := lists[0]
	if model.Kind != "model" || !slices.Equal(model.Versions, []uint16{1, 2}) {
		t.Errorf("model = %+v", model)
	}
	if !slices.Equal(model.CRCs, []uint32{0xdeadbeef, 1}) {
		t.Errorf("model CRCs = %x", model.CRCs)
	}
	if model.Index != nil {
		t.Errorf("model index = %v, want nil", model.Index)
	}

	if anim := lists[1]; len(anim.Versions) != 0 || anim.CRCs != nil {
		t.Errorf("anim = %+v, want empty versions and no CRCs", anim)
	}
	if midi := lists[2]; !slices.Equal(midi.Versions, []uint16{256}) || !slices.Equal(midi.Index, []byte{9}) {
		t.Errorf("midi = %+v", midi)
	}

	want := []MapRegion{
		{Region: 0x3232, MapFile: 10, LandscapeFile: 11, Members: true},
		{Region: 0x3233, MapFile: 12, LandscapeFile: 13, Members: false},
	}
	if mapList := lists[3]; !slices.Equal(mapList.Regions, want) {
		t.Errorf("map regions = %+v, want %+v", mapList.Regions, want)
	}
}

func TestUnpackVersionListErrors(t *testing.T) {
	tests := []struct {
		name    string
		entries map[string][]byte
		want    error
	}{
		{"missing version list", map[string][]byte{"model_crc": {}}, cacheerr.ErrNotFound},
		{"odd version length", map[string][]byte{"model_version": {0, 1, 2}}, cacheerr.ErrCorruptData},
		{"ragged crc list", map[string][]byte{"model_version": {}, "model_crc": {1, 2}}, cacheerr.ErrCorruptData},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := UnpackVersionList(versionArchive(t, test.entries), "model")
			if !errors.Is(err, test.want) {
				t.Errorf("error = %v, want %v", err, test.want)
			}
		})
	}

	_, err := UnpackVersionList(versionArchive(t, map[string][]byte{
		"map_version": {},
		"map_index":   make([]byte, 8),
	}), "map")
	if !errors.Is(err, cacheerr.ErrCorruptData) {
		t.Errorf("ragged map_index: error = %v, want CorruptData", err)
	}
}

// spriteArchive builds a media archive with one two-frame group named
// "icons". The header sits 3 bytes into index.dat.
func spriteArchive(pixels []byte, secondFill byte) *archive.Archive {
	index := []byte{
		0xee, 0xee, 0xee, // another group's data
		0, 4, 0, 3, // resize 4x3
		3,                // colour count: transparent + 2 stored
		0xff, 0x00, 0x00, // red
		0x00, 0x00, 0x00, // black, stored as 1
		1, 2, 0, 2, 0, 1, 0, // frame 0: offset (1,2), 2x1, row-major
		0, 0, 0, 2, 0, 2, secondFill, // frame 1: 2x2
	}
	media := archive.New(true)
	media.AddNamed("index.dat", index)
	media.AddNamed("icons.dat", append([]byte{0, 3}, pixels...))
	return media
}

func TestUnpackSprite(t *testing.T) {
	// Frame 0 pixels, then frame 1 in column-major order.
	media := spriteArchive([]byte{1, 2, 1, 0, 2, 1}, FillColumnMajor)

	first, err := UnpackSprite(media, "icons", 0)
	if err != nil {
		t.Fatalf("UnpackSprite(0): %v", err)
	}
	if first.Width != 2 || first.Height != 1 || first.XOffset != 1 || first.YOffset != 2 {
		t.Errorf("frame 0 geometry = %+v", first)
	}
	if first.ResizeWidth != 4 || first.ResizeHeight != 3 {
		t.Errorf("resize = %dx%d, want 4x3", first.ResizeWidth, first.ResizeHeight)
	}
	if !slices.Equal(first.Raster, []uint32{0xff0000, 1}) {
		t.Errorf("frame 0 raster = %x", first.Raster)
	}

	second, err := UnpackSprite(media, "icons", 1)
	if err != nil {
		t.Fatalf("UnpackSprite(1): %v", err)
	}
	if !slices.Equal(second.Raster, []uint32{0xff0000, 1, 0, 0xff0000}) {
		t.Errorf("frame 1 raster = %x", second.Raster)
	}

	img := second.Image()
	if got := img.NRGBAAt(0, 0); got != (color.NRGBA{R: 0xff, A: 0xff}) {
		t.Errorf("pixel (0,0) = %v, want opaque red", got)
	}
	if got := img.NRGBAAt(1, 0); got != (color.NRGBA{B: 1, A: 0xff}) {
		t.Errorf("pixel (1,0) = %v, want opaque near-black", got)
	}
	if got := img.NRGBAAt(0, 1); got.A != 0 {
		t.Errorf("pixel (0,1) alpha = %d, want transparent", got.A)
	}
}

func TestUnpackSpriteErrors(t *testing.T) {
	tests := []struct {
		name  string
		media *archive.Archive
		group string
		frame int
		want  error
	}{
		{"missing group", spriteArchive(nil, 0), "buttons", 0, cacheerr.ErrNotFound},
		{"palette index out of range", spriteArchive([]byte{3, 1}, 0), "icons", 0, cacheerr.ErrCorruptData},
		{"unknown fill type", spriteArchive([]byte{1, 1, 1, 1, 1, 1}, 7), "icons", 1, cacheerr.ErrCorruptData},
		{"truncated pixels", spriteArchive([]byte{1}, 0), "icons", 0, cacheerr.ErrTruncatedInput},
		{"frame past header table", spriteArchive([]byte{1, 1, 1, 1, 1, 1}, 0), "icons", 2, cacheerr.ErrTruncatedInput},
		{"negative frame", spriteArchive(nil, 0), "icons", -1, cacheerr.ErrOutOfRange},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := UnpackSprite(test.media, test.group, test.frame)
			if !errors.Is(err, test.want) {
				t.Errorf("error = %v, want %v", err, test.want)
			}
		})
	}

	media := archive.New(false)
	media.AddNamed("icons.dat", []byte{0, 0})
	if _, err := UnpackSprite(media, "icons", 0); !errors.Is(err, cacheerr.ErrNotFound) {
		t.Errorf("missing index.dat: error = %v, want NotFound", err)
	}
}
