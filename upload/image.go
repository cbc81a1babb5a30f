// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package upload

import (
	"image"

	"golang.org/x/image/draw"
)

// FromImage converts img to tightly packed RGBA8 texels.
func FromImage(img image.Image) Subresource {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == 4*b.Dx() && b.Min == (image.Point{}) {
		return Subresource{Data: rgba.Pix, RowPitch: uint32(rgba.Stride)} //nolint:gosec // image widths fit uint32
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return Subresource{Data: dst.Pix, RowPitch: uint32(dst.Stride)} //nolint:gosec // image widths fit uint32
}

// MipChain converts img to RGBA8 and appends up to levels-1 downscaled mips,
// halving each dimension until 1x1. levels of 0 builds the full chain.
func MipChain(img image.Image, levels uint32) []Subresource {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if levels == 0 {
		levels = 1
		for n := max(w, h); n > 1; n >>= 1 {
			levels++
		}
	}

	subs := make([]Subresource, 0, levels)
	subs = append(subs, FromImage(img))
	prev := img
	for range levels - 1 {
		if w == 1 && h == 1 {
			break
		}
		w, h = max(w/2, 1), max(h/2, 1)
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.BiLinear.Scale(dst, dst.Bounds(), prev, prev.Bounds(), draw.Src, nil)
		subs = append(subs, Subresource{Data: dst.Pix, RowPitch: uint32(dst.Stride)}) //nolint:gosec // image widths fit uint32
		prev = dst
	}
	return subs
}
