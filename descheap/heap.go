// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package descheap

import (
	"math/bits"

	"github.com/gogpu/gfxctx/gpucore"
)

// MaxCachedDescriptors bounds the descriptors staged per bind point across
// all tables of a root signature.
const MaxCachedDescriptors = 256

// maxTableSize bounds a single table; assignment is tracked in a uint64.
const maxTableSize = 64

// HeapBinder is implemented by the owning context. The Heap calls it every
// time it starts allocating from a different shader-visible heap.
type HeapBinder interface {
	SetDescriptorHeap(t gpucore.DescriptorHeapType, heap *gpucore.DescriptorHeap)
}

type tableCache struct {
	assigned uint64
	start    uint32
	size     uint32
}

// handleCache stages descriptors for one bind point.
type handleCache struct {
	tableMask uint32
	stale     uint32
	numCached uint32
	tables    [gpucore.MaxRootParameters]tableCache
	handles   [MaxCachedDescriptors]gpucore.CPUDescriptorHandle
}

func (c *handleCache) clear() {
	c.tableMask = 0
	c.stale = 0
	c.numCached = 0
}

func (c *handleCache) parse(t gpucore.DescriptorHeapType, rs *gpucore.RootSignature) {
	gpucore.Assert(rs.Finalized(), "descheap", "root signature %q is not finalized", rs.Label())

	c.stale = 0
	c.tableMask = rs.TableMask(t)

	var n uint32
	for m := c.tableMask; m != 0; m &= m - 1 {
		i := bits.TrailingZeros32(m)
		size := rs.TableSize(i)
		gpucore.Assert(size > 0 && size <= maxTableSize, "descheap",
			"root parameter %d of %q: table size %d outside 1..%d", i, rs.Label(), size, maxTableSize)
		c.tables[i] = tableCache{start: n, size: size}
		n += size
	}
	gpucore.Assert(n <= MaxCachedDescriptors, "descheap",
		"root signature %q stages %d descriptors, limit %d", rs.Label(), n, MaxCachedDescriptors)
	c.numCached = n
}

func (c *handleCache) stage(root, offset uint32, handles []gpucore.CPUDescriptorHandle) {
	gpucore.Assert(root < gpucore.MaxRootParameters && c.tableMask&(1<<root) != 0, "descheap",
		"root parameter %d is not a descriptor table of this heap type", root)
	t := &c.tables[root]
	n := uint32(len(handles)) //nolint:gosec // bounded by table size below
	gpucore.Assert(offset+n <= t.size, "descheap",
		"root parameter %d: range [%d,%d) exceeds table size %d", root, offset, offset+n, t.size)

	copy(c.handles[t.start+offset:], handles)
	if n == maxTableSize {
		t.assigned = ^uint64(0)
	} else {
		t.assigned |= (uint64(1)<<n - 1) << offset
	}
	c.stale |= 1 << root
}

// stagedSize returns the descriptors needed to commit every stale table.
// Each table needs room up to its highest assigned slot.
func (c *handleCache) stagedSize() uint32 {
	var n uint32
	for m := c.stale; m != 0; m &= m - 1 {
		i := bits.TrailingZeros32(m)
		n += uint32(64 - bits.LeadingZeros64(c.tables[i].assigned)) //nolint:gosec // <= 64
	}
	return n
}

// unbindAllValid marks every table with assigned descriptors stale, so the
// next commit rewrites it into a fresh heap.
func (c *handleCache) unbindAllValid() {
	c.stale = 0
	for m := c.tableMask; m != 0; m &= m - 1 {
		i := bits.TrailingZeros32(m)
		if c.tables[i].assigned != 0 {
			c.stale |= 1 << i
		}
	}
}

// Heap is the per-context dynamic descriptor heap of one heap type. It is
// not safe for concurrent use.
type Heap struct {
	pool   *Pool
	typ    gpucore.DescriptorHeapType
	binder HeapBinder

	cur     *gpucore.DescriptorHeap
	offset  uint32
	retired []*gpucore.DescriptorHeap

	caches [gpucore.NumBindPoints]handleCache
}

// New creates a dynamic heap of type t (CBV/SRV/UAV or sampler) bound
// through binder.
func New(pool *Pool, t gpucore.DescriptorHeapType, binder HeapBinder) *Heap {
	gpucore.Assert(t.ShaderVisibleType(), "descheap", "heap type %s is not shader visible", t)
	return &Heap{pool: pool, typ: t, binder: binder}
}

// Type returns the heap type.
func (h *Heap) Type() gpucore.DescriptorHeapType { return h.typ }

// ParseRootSignature resets the staging layout of bp to the tables of rs.
func (h *Heap) ParseRootSignature(bp gpucore.BindPoint, rs *gpucore.RootSignature) {
	h.caches[bp].parse(h.typ, rs)
}

// SetDescriptorHandles stages handles into table root starting at offset.
func (h *Heap) SetDescriptorHandles(bp gpucore.BindPoint, root, offset uint32, handles []gpucore.CPUDescriptorHandle) {
	h.caches[bp].stage(root, offset, handles)
}

// HasStaleTables reports whether a commit on bp would bind anything.
func (h *Heap) HasStaleTables(bp gpucore.BindPoint) bool {
	return h.caches[bp].stale != 0
}

// CommitRootDescriptorTables copies every stale table of bp into the current
// shader-visible heap and binds it on list. It returns the number of tables
// bound; zero when nothing was staged since the last commit.
func (h *Heap) CommitRootDescriptorTables(bp gpucore.BindPoint, list gpucore.CommandList) (int, error) {
	c := &h.caches[bp]
	if c.stale == 0 {
		return 0, nil
	}

	needed := c.stagedSize()
	if !h.hasSpace(needed) {
		h.retireCurrent()
		h.unbindAllValid()
		needed = c.stagedSize()
	}

	heap, err := h.heapPointer()
	if err != nil {
		return 0, err
	}
	gpucore.Assert(needed <= heap.Len(), "descheap",
		"%d staged descriptors exceed heap size %d", needed, heap.Len())

	base := h.offset
	h.offset += needed

	committed := 0
	dst := base
	for m := c.stale; m != 0; m &= m - 1 {
		root := uint32(bits.TrailingZeros32(m)) //nolint:gosec // < 32
		t := &c.tables[root]
		tableSize := uint32(64 - bits.LeadingZeros64(t.assigned)) //nolint:gosec // <= 64

		list.SetRootDescriptorTable(bp, root, heap.GPUHandle(dst))
		committed++

		// Copy runs of assigned slots; unassigned slots keep whatever the
		// heap held and must not be read by the shader.
		for s := uint32(0); s < tableSize; s++ {
			if t.assigned&(1<<s) == 0 {
				continue
			}
			heap.CPUHandle(dst + s).Write(c.handles[t.start+s].Descriptor())
		}
		dst += tableSize
	}
	c.stale = 0
	return committed, nil
}

// UploadDirect copies one descriptor into the shader-visible heap and returns
// its GPU handle. Used for views that must be GPU visible outside of a root
// table, such as the target of ClearUnorderedAccessView.
func (h *Heap) UploadDirect(handle gpucore.CPUDescriptorHandle) (gpucore.GPUDescriptorHandle, error) {
	if !h.hasSpace(1) {
		h.retireCurrent()
		h.unbindAllValid()
	}
	heap, err := h.heapPointer()
	if err != nil {
		return gpucore.GPUDescriptorHandle{}, err
	}
	i := h.offset
	h.offset++
	heap.CPUHandle(i).Write(handle.Descriptor())
	return heap.GPUHandle(i), nil
}

// CleanupUsedHeaps retires every heap used since the last cleanup at fence
// and clears the staging caches. Called when the owning context finishes.
func (h *Heap) CleanupUsedHeaps(fence uint64) {
	h.retireCurrent()
	if len(h.retired) > 0 {
		h.pool.DiscardHeaps(h.typ, fence, h.retired)
		h.retired = nil
	}
	for i := range h.caches {
		h.caches[i].clear()
	}
}

func (h *Heap) hasSpace(n uint32) bool {
	return h.cur != nil && h.offset+n <= h.cur.Len()
}

func (h *Heap) retireCurrent() {
	if h.offset == 0 {
		return
	}
	h.retired = append(h.retired, h.cur)
	h.cur = nil
	h.offset = 0
}

func (h *Heap) unbindAllValid() {
	for i := range h.caches {
		h.caches[i].unbindAllValid()
	}
}

// heapPointer returns the current heap, requesting one from the pool on
// first use, and makes sure the owning context has it bound.
func (h *Heap) heapPointer() (*gpucore.DescriptorHeap, error) {
	if h.cur == nil {
		heap, err := h.pool.RequestHeap(h.typ)
		if err != nil {
			return nil, err
		}
		h.cur = heap
		h.offset = 0
	}
	h.binder.SetDescriptorHeap(h.typ, h.cur)
	return h.cur, nil
}
