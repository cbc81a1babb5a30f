// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package command

import (
	"errors"
	"fmt"

	"github.com/gogpu/gfxctx/gpucore"
	"github.com/gogpu/gfxctx/upload"
)

// finish ends a one-shot context, keeping the first error.
func finish(c *Context, err error) error {
	_, ferr := c.Finish(true)
	return errors.Join(err, ferr)
}

// InitializeBuffer uploads data into dst at offset and leaves dst in the
// generic read state. It blocks until the copy has completed.
func (m *Manager) InitializeBuffer(dst *gpucore.GpuBuffer, data []byte, offset uint64) error {
	if len(data) == 0 {
		return nil
	}
	assert(offset+uint64(len(data)) <= dst.Size(), "InitializeBuffer: %d bytes at %d overflow %s (%d bytes)",
		len(data), offset, dst.Label(), dst.Size())

	c, err := m.Begin("InitializeBuffer")
	if err != nil {
		return err
	}
	mem, err := c.ReserveUploadMemory(uint64(len(data)))
	if err != nil {
		return finish(c, err)
	}
	copy(mem.Data, data)

	c.TransitionResource(dst, gpucore.StateCopyDest, true)
	c.list.CopyBufferRegion(dst.Resource(), offset, mem.Buffer.Resource(), mem.Offset, uint64(len(data)))
	c.TransitionResource(dst, gpucore.StateGenericRead, true)
	return finish(c, nil)
}

// InitializeTexture uploads one upload.Subresource per subresource of dst,
// in subresource index order, and leaves dst in the generic read state.
func (m *Manager) InitializeTexture(dst *gpucore.Texture, subs []upload.Subresource) error {
	n := dst.SubresourceCount()
	if uint32(len(subs)) != n { //nolint:gosec // compared against a uint32 count
		return fmt.Errorf("%w: %s has %d, got %d", ErrSubresourceCount, dst.Label(), n, len(subs))
	}

	fps, total := upload.Footprints(dst, 0, n, 0)

	c, err := m.Begin("InitializeTexture")
	if err != nil {
		return err
	}
	mem, err := c.cpuLinear.Allocate(total, upload.PlacementAlignment)
	if err != nil {
		return finish(c, fmt.Errorf("command: reserve %d upload bytes: %w", total, err))
	}
	for i, fp := range fps {
		if err := upload.CopyRows(mem.Data[fp.Offset:], fp, subs[i]); err != nil {
			return finish(c, fmt.Errorf("command: subresource %d of %s: %w", i, dst.Label(), err))
		}
	}

	c.TransitionResource(dst, gpucore.StateCopyDest, true)
	for i := range fps {
		fp := fps[i]
		fp.Offset += mem.Offset
		c.list.CopyTextureRegion(
			gpucore.TextureCopyLocation{Resource: dst.Resource(), Subresource: uint32(i)}, //nolint:gosec // < n
			gpucore.TextureCopyLocation{Resource: mem.Buffer.Resource(), Footprint: &fp},
		)
	}
	c.TransitionResource(dst, gpucore.StateGenericRead, true)
	return finish(c, nil)
}

// InitializeTextureArraySlice copies every mip of src's first slice into
// slice of dst. Both textures must have the same mip count.
func (m *Manager) InitializeTextureArraySlice(dst *gpucore.Texture, slice uint32, src *gpucore.Texture) error {
	if src.MipLevels() != dst.MipLevels() {
		return fmt.Errorf("%w: %s has %d, %s has %d", ErrMipMismatch,
			src.Label(), src.MipLevels(), dst.Label(), dst.MipLevels())
	}
	assert(slice < dst.ArraySize(), "slice %d out of range for %s (%d slices)", slice, dst.Label(), dst.ArraySize())

	c, err := m.Begin("InitializeTextureArraySlice")
	if err != nil {
		return err
	}
	c.TransitionResource(dst, gpucore.StateCopyDest, false)
	c.TransitionResource(src, gpucore.StateCopySource, false)
	c.FlushResourceBarriers()
	for mip := range dst.MipLevels() {
		c.list.CopyTextureRegion(
			gpucore.TextureCopyLocation{Resource: dst.Resource(), Subresource: dst.Subresource(mip, slice)},
			gpucore.TextureCopyLocation{Resource: src.Resource(), Subresource: src.Subresource(mip, 0)},
		)
	}
	c.TransitionResource(dst, gpucore.StateGenericRead, true)
	return finish(c, nil)
}

// ReadbackTexture2D copies mip 0 of src's first slice into the readback
// buffer dst and waits for it. It returns the footprint describing the
// layout of the texels in dst.
func (m *Manager) ReadbackTexture2D(dst *gpucore.GpuBuffer, src *gpucore.Texture) (gpucore.SubresourceFootprint, error) {
	fp := upload.Footprint(src, 0, 0)
	assert(upload.Size(fp) <= dst.Size(), "readback buffer %s holds %d bytes, need %d",
		dst.Label(), dst.Size(), upload.Size(fp))

	c, err := m.Begin("ReadbackTexture2D")
	if err != nil {
		return fp, err
	}
	c.TransitionResource(src, gpucore.StateCopySource, true)
	c.list.CopyTextureRegion(
		gpucore.TextureCopyLocation{Resource: dst.Resource(), Footprint: &fp},
		gpucore.TextureCopyLocation{Resource: src.Resource(), Subresource: 0},
	)
	return fp, finish(c, nil)
}

// ReadbackBuffer copies src into the readback buffer dst and waits for it.
func (m *Manager) ReadbackBuffer(dst, src *gpucore.GpuBuffer) error {
	assert(src.Size() <= dst.Size(), "readback buffer %s holds %d bytes, need %d", dst.Label(), dst.Size(), src.Size())
	c, err := m.Begin("ReadbackBuffer")
	if err != nil {
		return err
	}
	c.TransitionResource(src, gpucore.StateCopySource, true)
	c.list.CopyBufferRegion(dst.Resource(), 0, src.Resource(), 0, src.Size())
	return finish(c, nil)
}
