// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package upload lays out texture data for buffer-to-texture copies.
//
// A texture subresource copied from a buffer must start at a
// PlacementAlignment boundary and use a row pitch that is a multiple of
// RowPitchAlignment. Footprints computes that layout for a range of
// subresources; CopyRows and Unpack move texel rows between tightly packed
// CPU data and the pitched buffer layout.
package upload

import (
	"errors"
	"fmt"

	"github.com/gogpu/gfxctx/gpucore"
)

// Copy layout alignments.
const (
	RowPitchAlignment  = 256
	PlacementAlignment = 512
)

// ErrShortData is returned when source data does not cover a footprint.
var ErrShortData = errors.New("upload: source data shorter than subresource")

// Subresource is CPU texel data for one subresource.
type Subresource struct {
	Data []byte
	// RowPitch is the byte distance between rows; 0 means tightly packed.
	RowPitch uint32
}

// Footprint returns the buffer layout of subresource sub of tex placed at
// offset.
func Footprint(tex *gpucore.Texture, sub uint32, offset uint64) gpucore.SubresourceFootprint {
	w, h := tex.MipSize(sub % tex.MipLevels())
	return gpucore.SubresourceFootprint{
		Offset:   offset,
		Format:   tex.Format(),
		Width:    w,
		Height:   h,
		Depth:    1,
		RowPitch: alignUp(w*tex.Format().BytesPerPixel(), RowPitchAlignment),
	}
}

// Size returns the bytes fp occupies in a buffer.
func Size(fp gpucore.SubresourceFootprint) uint64 {
	return uint64(fp.RowPitch) * uint64(fp.Height) * uint64(max(fp.Depth, 1))
}

// Footprints lays out count subresources of tex starting at first, one after
// another from base. It returns the footprints and the total bytes needed.
func Footprints(tex *gpucore.Texture, first, count uint32, base uint64) ([]gpucore.SubresourceFootprint, uint64) {
	fps := make([]gpucore.SubresourceFootprint, count)
	off := base
	for i := range count {
		off = alignUp64(off, PlacementAlignment)
		fps[i] = Footprint(tex, first+i, off)
		off += Size(fps[i])
	}
	return fps, off - base
}

// CopyRows writes src into dst following fp. dst starts at fp.Offset.
func CopyRows(dst []byte, fp gpucore.SubresourceFootprint, src Subresource) error {
	rowBytes := fp.Width * fp.Format.BytesPerPixel()
	pitch := src.RowPitch
	if pitch == 0 {
		pitch = rowBytes
	}
	if fp.Height > 0 && uint64(len(src.Data)) < uint64(pitch)*uint64(fp.Height-1)+uint64(rowBytes) {
		return fmt.Errorf("%w: have %d bytes for %dx%d %s", ErrShortData, len(src.Data), fp.Width, fp.Height, fp.Format)
	}
	for y := range fp.Height {
		copy(dst[y*fp.RowPitch:y*fp.RowPitch+rowBytes], src.Data[y*pitch:y*pitch+rowBytes])
	}
	return nil
}

// Unpack returns the texels of fp from a pitched buffer as tightly packed
// rows. src starts at fp.Offset.
func Unpack(src []byte, fp gpucore.SubresourceFootprint) []byte {
	rowBytes := fp.Width * fp.Format.BytesPerPixel()
	out := make([]byte, rowBytes*fp.Height)
	for y := range fp.Height {
		copy(out[y*rowBytes:(y+1)*rowBytes], src[y*fp.RowPitch:y*fp.RowPitch+rowBytes])
	}
	return out
}

func alignUp(v, a uint32) uint32 { return (v + a - 1) &^ (a - 1) }

func alignUp64(v, a uint64) uint64 { return (v + a - 1) &^ (a - 1) }
