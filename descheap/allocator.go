// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package descheap

import (
	"fmt"
	"sync"

	"github.com/gogpu/gfxctx/gpucore"
)

// DefaultDescriptorsPerHeap is the size of each CPU-only heap created by an
// Allocator.
const DefaultDescriptorsPerHeap = 256

// Allocator hands out CPU-only descriptor handles, used to create the views
// that contexts later stage into dynamic heaps. Handles are never freed
// individually; heaps live until Reset. It is safe for concurrent use.
type Allocator struct {
	dev     gpucore.Device
	typ     gpucore.DescriptorHeapType
	perHeap uint32

	mu        sync.Mutex
	heaps     []*gpucore.DescriptorHeap
	cur       *gpucore.DescriptorHeap
	next      uint32
	remaining uint32
}

// NewAllocator creates an allocator of heap type t. perHeap of 0 selects
// DefaultDescriptorsPerHeap.
func NewAllocator(dev gpucore.Device, t gpucore.DescriptorHeapType, perHeap uint32) *Allocator {
	if perHeap == 0 {
		perHeap = DefaultDescriptorsPerHeap
	}
	return &Allocator{dev: dev, typ: t, perHeap: perHeap}
}

// Allocate returns the first of count consecutive handles.
func (a *Allocator) Allocate(count uint32) (gpucore.CPUDescriptorHandle, error) {
	gpucore.Assert(count > 0 && count <= a.perHeap, "descheap",
		"descriptor allocation of %d outside 1..%d", count, a.perHeap)

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cur == nil || a.remaining < count {
		label := fmt.Sprintf("%s descriptors %d", a.typ, len(a.heaps))
		h, err := a.dev.CreateDescriptorHeap(a.typ, a.perHeap, false, label)
		if err != nil {
			return gpucore.CPUDescriptorHandle{}, fmt.Errorf("descheap: create %s heap: %w", a.typ, err)
		}
		a.heaps = append(a.heaps, h)
		a.cur = h
		a.next = 0
		a.remaining = a.perHeap
	}

	handle := a.cur.CPUHandle(a.next)
	a.next += count
	a.remaining -= count
	return handle, nil
}

// NewView allocates one handle and writes d into it.
func (a *Allocator) NewView(d gpucore.Descriptor) (gpucore.CPUDescriptorHandle, error) {
	gpucore.Assert(d.Kind.HeapType() == a.typ, "descheap",
		"%s descriptor written to %s allocator", d.Kind, a.typ)
	h, err := a.Allocate(1)
	if err != nil {
		return h, err
	}
	h.Write(d)
	return h, nil
}

// Reset drops every heap. Handles handed out before become dangling.
func (a *Allocator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.heaps, a.cur = nil, nil
	a.next, a.remaining = 0, 0
}
