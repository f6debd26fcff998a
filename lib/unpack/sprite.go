// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package unpack

import (
	"fmt"
	"image"
	"image/color"

	"github.com/bureau-foundation/jagcache/lib/archive"
	"github.com/bureau-foundation/jagcache/lib/bytecursor"
	"github.com/bureau-foundation/jagcache/lib/cacheerr"
)

// Sprite fill orders.
const (
	FillRowMajor    = 0
	FillColumnMajor = 1
)

// SpriteIndexEntry is the name of the archive entry holding sprite
// headers and palettes.
const SpriteIndexEntry = "index.dat"

// Sprite is one decoded frame of a sprite group.
type Sprite struct {
	Width   int `json:"width"`
	Height  int `json:"height"`
	XOffset int `json:"x_offset"`
	YOffset int `json:"y_offset"`

	// ResizeWidth and ResizeHeight are the canvas the frame is drawn
	// onto at its offsets.
	ResizeWidth  int `json:"resize_width"`
	ResizeHeight int `json:"resize_height"`

	// Raster holds 0xRRGGBB colours in row-major order. 0 is
	// transparent; the palette never produces an opaque black 0.
	Raster []uint32 `json:"-"`
}

// UnpackSprite decodes frame of the sprite group name from a media
// archive. The group's pixels live in <name>.dat, which starts with the
// offset of the group's header inside index.dat.
func UnpackSprite(media *archive.Archive, name string, frame int) (*Sprite, error) {
	if frame < 0 {
		return nil, cacheerr.OutOfRange("sprite frame %d", frame)
	}
	pixelEntry, err := media.EntryByName(name + ".dat")
	if err != nil {
		return nil, err
	}
	indexEntry, err := media.EntryByName(SpriteIndexEntry)
	if err != nil {
		return nil, err
	}

	pixels := bytecursor.NewReader(pixelEntry.Data)
	meta := bytecursor.NewReader(indexEntry.Data)

	offset, err := pixels.Uint16()
	if err != nil {
		return nil, fmt.Errorf("reading %s header offset: %w", name, err)
	}
	if err := meta.Skip(int(offset)); err != nil {
		return nil, fmt.Errorf("seeking %s header in %s: %w", name, SpriteIndexEntry, err)
	}

	sprite := &Sprite{}
	palette, err := readSpriteHeader(meta, sprite)
	if err != nil {
		return nil, fmt.Errorf("reading %s header: %w", name, err)
	}

	for skipped := range frame {
		if err := skipFrame(meta, pixels); err != nil {
			return nil, fmt.Errorf("skipping %s frame %d: %w", name, skipped, err)
		}
	}

	fillType, err := readFrameHeader(meta, sprite)
	if err != nil {
		return nil, fmt.Errorf("reading %s frame %d header: %w", name, frame, err)
	}

	sprite.Raster = make([]uint32, sprite.Width*sprite.Height)
	switch fillType {
	case FillRowMajor:
		for i := range sprite.Raster {
			if sprite.Raster[i], err = paletteColour(pixels, palette); err != nil {
				return nil, fmt.Errorf("%s frame %d pixel %d: %w", name, frame, i, err)
			}
		}
	case FillColumnMajor:
		for column := range sprite.Width {
			for row := range sprite.Height {
				i := column + row*sprite.Width
				if sprite.Raster[i], err = paletteColour(pixels, palette); err != nil {
					return nil, fmt.Errorf("%s frame %d pixel %d: %w", name, frame, i, err)
				}
			}
		}
	default:
		return nil, cacheerr.CorruptData("%s frame %d has unknown fill type %d", name, frame, fillType)
	}
	return sprite, nil
}

// readSpriteHeader reads the group header into sprite and returns the
// palette. Palette slot 0 is transparent and is not stored.
func readSpriteHeader(meta *bytecursor.Reader, sprite *Sprite) ([]uint32, error) {
	resizeWidth, err := meta.Uint16()
	if err != nil {
		return nil, err
	}
	resizeHeight, err := meta.Uint16()
	if err != nil {
		return nil, err
	}
	sprite.ResizeWidth = int(resizeWidth)
	sprite.ResizeHeight = int(resizeHeight)

	colourCount, err := meta.Uint8()
	if err != nil {
		return nil, err
	}
	palette := make([]uint32, max(int(colourCount), 1))
	for i := 1; i < int(colourCount); i++ {
		colour, err := meta.Uint24()
		if err != nil {
			return nil, err
		}
		if colour == 0 {
			colour = 1
		}
		palette[i] = colour
	}
	return palette, nil
}

// skipFrame advances both readers past one frame.
func skipFrame(meta, pixels *bytecursor.Reader) error {
	if err := meta.Skip(2); err != nil {
		return err
	}
	width, err := meta.Uint16()
	if err != nil {
		return err
	}
	height, err := meta.Uint16()
	if err != nil {
		return err
	}
	if err := pixels.Skip(int(width) * int(height)); err != nil {
		return err
	}
	return meta.Skip(1)
}

// readFrameHeader reads the frame's geometry into sprite and returns its
// fill type.
func readFrameHeader(meta *bytecursor.Reader, sprite *Sprite) (uint8, error) {
	xOffset, err := meta.Uint8()
	if err != nil {
		return 0, err
	}
	yOffset, err := meta.Uint8()
	if err != nil {
		return 0, err
	}
	width, err := meta.Uint16()
	if err != nil {
		return 0, err
	}
	height, err := meta.Uint16()
	if err != nil {
		return 0, err
	}
	sprite.XOffset = int(xOffset)
	sprite.YOffset = int(yOffset)
	sprite.Width = int(width)
	sprite.Height = int(height)
	return meta.Uint8()
}

func paletteColour(pixels *bytecursor.Reader, palette []uint32) (uint32, error) {
	index, err := pixels.Uint8()
	if err != nil {
		return 0, err
	}
	if int(index) >= len(palette) {
		return 0, cacheerr.CorruptData("palette index %d outside %d colours", index, len(palette))
	}
	return palette[index], nil
}

// Image renders the frame as an NRGBA image. Transparent pixels have
// zero alpha; every other pixel is opaque.
func (s *Sprite) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, s.Width, s.Height))
	for i, colour := range s.Raster {
		if colour == 0 {
			continue
		}
		img.SetNRGBA(i%s.Width, i/s.Width, color.NRGBA{
			R: uint8(colour >> 16),
			G: uint8(colour >> 8),
			B: uint8(colour),
			A: 0xff,
		})
	}
	return img
}
