// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package record

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/gogpu/gfxctx/gpucore"
)

// timestampTick advances for every timestamp query executed.
var timestampTick atomic.Uint64

// execute carries out the memory side effects of cmds: copies, UAV clears,
// query writes and resolves. Everything else is recorded only.
// The caller holds Device.execMu.
func execute(cmds []Command) {
	for i := range cmds {
		c := &cmds[i]
		switch c.Op {
		case OpCopyResource:
			copyResource(c.Dst, c.Src)
		case OpCopyBufferRegion:
			dst, src := bufferData(c.Dst), bufferData(c.Src)
			if dst != nil && src != nil {
				copy(dst[c.DstOffset:c.DstOffset+c.Size], src[c.SrcOffset:c.SrcOffset+c.Size])
			}
		case OpCopyTextureRegion:
			copyTextureRegion(c.DstLoc, c.SrcLoc)
		case OpClearUAV:
			if dst := bufferData(c.Dst); dst != nil {
				for off := 0; off+4 <= len(dst); off += 4 {
					binary.LittleEndian.PutUint32(dst[off:], c.Values[0])
				}
			}
		case OpEndQuery:
			if q, ok := c.QueryHeap.Native().(*queryData); ok && c.QueryHeap.Type() == gpucore.QueryTimestamp {
				q.values[c.QueryIndex] = timestampTick.Add(1000)
			}
		case OpResolveQuery:
			q, ok := c.QueryHeap.Native().(*queryData)
			dst := bufferData(c.Dst)
			if !ok || dst == nil {
				continue
			}
			for n := range c.Args[0] {
				off := c.DstOffset + uint64(n)*8
				binary.LittleEndian.PutUint64(dst[off:], q.values[c.QueryIndex+n])
			}
		}
	}
}

func bufferData(r *gpucore.GpuResource) []byte {
	if r == nil {
		return nil
	}
	if b, ok := r.Native().(*Buffer); ok {
		return b.Data
	}
	return nil
}

func copyResource(dst, src *gpucore.GpuResource) {
	if d, s := bufferData(dst), bufferData(src); d != nil && s != nil {
		copy(d, s)
		return
	}
	dt, ok1 := dst.Native().(*Texture)
	st, ok2 := src.Native().(*Texture)
	if ok1 && ok2 {
		for i := range min(len(dt.Subresources), len(st.Subresources)) {
			copy(dt.Subresources[i], st.Subresources[i])
		}
	}
}

func copyTextureRegion(dst, src gpucore.TextureCopyLocation) {
	switch {
	case src.IsBuffer() && !dst.IsBuffer():
		tex, ok := dst.Resource.Native().(*Texture)
		data := bufferData(src.Resource)
		if !ok || data == nil {
			return
		}
		copyRows(tex.Subresources[dst.Subresource], tex.Extents[dst.Subresource][0]*tex.BytesPerPixel,
			data[src.Footprint.Offset:], src.Footprint.RowPitch, tex.Extents[dst.Subresource][1])

	case !src.IsBuffer() && dst.IsBuffer():
		tex, ok := src.Resource.Native().(*Texture)
		data := bufferData(dst.Resource)
		if !ok || data == nil {
			return
		}
		rowBytes := tex.Extents[src.Subresource][0] * tex.BytesPerPixel
		out := data[dst.Footprint.Offset:]
		in := tex.Subresources[src.Subresource]
		for y := range tex.Extents[src.Subresource][1] {
			copy(out[y*dst.Footprint.RowPitch:y*dst.Footprint.RowPitch+rowBytes], in[y*rowBytes:(y+1)*rowBytes])
		}

	case !src.IsBuffer() && !dst.IsBuffer():
		dt, ok1 := dst.Resource.Native().(*Texture)
		st, ok2 := src.Resource.Native().(*Texture)
		if ok1 && ok2 {
			copy(dt.Subresources[dst.Subresource], st.Subresources[src.Subresource])
		}
	}
}

// copyRows copies height rows of rowBytes from a pitched source into a
// tightly packed destination.
func copyRows(dst []byte, rowBytes uint32, src []byte, pitch, height uint32) {
	for y := range height {
		copy(dst[y*rowBytes:(y+1)*rowBytes], src[y*pitch:y*pitch+rowBytes])
	}
}
