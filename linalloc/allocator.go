// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package linalloc

import (
	"fmt"

	"github.com/gogpu/gfxctx/gpucore"
)

// Allocation is a range of a page.
type Allocation struct {
	// Buffer is the page the range lives in.
	Buffer *gpucore.GpuBuffer
	Offset uint64
	Size   uint64
	// Data is the CPU view of the range; nil for GPU-exclusive memory.
	Data []byte
}

// Address returns the BufferAddress of the range start.
func (a Allocation) Address() gpucore.BufferAddress {
	return a.Buffer.Address(a.Offset)
}

// GPUAddress returns the flat GPU virtual address of the range start.
func (a Allocation) GPUAddress() uint64 {
	return a.Address().Address()
}

// Allocator bumps through pages of one PageManager. It is owned by a single
// command context and is not safe for concurrent use.
type Allocator struct {
	mgr      *PageManager
	pageSize uint64

	cur     *gpucore.GpuBuffer
	offset  uint64
	retired []*gpucore.GpuBuffer
	large   []*gpucore.GpuBuffer
}

// NewAllocator returns an allocator drawing pages from mgr.
func NewAllocator(mgr *PageManager) *Allocator {
	return &Allocator{mgr: mgr, pageSize: mgr.PageSize()}
}

// Kind returns the memory kind of the underlying manager.
func (a *Allocator) Kind() Kind { return a.mgr.Kind() }

// Allocate returns size bytes aligned to alignment. An alignment of 0 means
// DefaultAlignment. The returned range stays valid until CleanupUsedPages.
func (a *Allocator) Allocate(size, alignment uint64) (Allocation, error) {
	if size == 0 {
		return Allocation{}, ErrZeroSize
	}
	if alignment == 0 {
		alignment = DefaultAlignment
	}
	if alignment&(alignment-1) != 0 {
		return Allocation{}, fmt.Errorf("%w: %d", ErrBadAlignment, alignment)
	}

	aligned := alignUp(size, alignment)
	if aligned > a.pageSize {
		return a.allocateLarge(aligned)
	}

	a.offset = alignUp(a.offset, alignment)
	if a.cur == nil || a.offset+aligned > a.pageSize {
		if a.cur != nil {
			a.retired = append(a.retired, a.cur)
		}
		p, err := a.mgr.RequestPage()
		if err != nil {
			a.cur = nil
			return Allocation{}, err
		}
		a.cur = p
		a.offset = 0
	}

	alloc := Allocation{Buffer: a.cur, Offset: a.offset, Size: aligned}
	if m := a.cur.Mapped(); m != nil {
		alloc.Data = m[a.offset : a.offset+aligned]
	}
	a.offset += aligned
	return alloc, nil
}

func (a *Allocator) allocateLarge(size uint64) (Allocation, error) {
	p, err := a.mgr.CreateLargePage(size)
	if err != nil {
		return Allocation{}, err
	}
	a.large = append(a.large, p)
	return Allocation{Buffer: p, Size: size, Data: p.Mapped()}, nil
}

// CleanupUsedPages hands every page used since the last cleanup back to the
// manager, retired at fence.
func (a *Allocator) CleanupUsedPages(fence uint64) {
	if a.cur != nil {
		a.retired = append(a.retired, a.cur)
		a.cur = nil
		a.offset = 0
	}
	if len(a.retired) > 0 {
		a.mgr.DiscardPages(fence, a.retired)
		a.retired = nil
	}
	if len(a.large) > 0 {
		a.mgr.FreeLargePages(fence, a.large)
		a.large = nil
	}
}

func alignUp(v, alignment uint64) uint64 {
	return (v + alignment - 1) &^ (alignment - 1)
}
