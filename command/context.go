// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package command

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/gfxctx"
	"github.com/gogpu/gfxctx/descheap"
	"github.com/gogpu/gfxctx/gpucore"
	"github.com/gogpu/gfxctx/linalloc"
)

// Context records commands for one queue. It is obtained from a Manager and
// owned by a single goroutine until Finish hands it back.
//
// A Context tracks resource states optimistically: TransitionResource
// updates the resource immediately and queues the barrier, which reaches the
// command list at the next flush point. Every draw, dispatch and copy is a
// flush point.
type Context struct {
	mgr   *Manager
	q     *queue
	typ   gpucore.QueueType
	label string

	list  gpucore.CommandList
	alloc gpucore.CommandAllocator

	rootSigs  [gpucore.NumBindPoints]*gpucore.RootSignature
	rootSigID [gpucore.NumBindPoints]gpucore.ObjectID
	pso       *gpucore.PipelineState
	psoID     gpucore.ObjectID
	heaps     [gpucore.NumDescriptorHeapTypes]*gpucore.DescriptorHeap

	barriers barrierBatch

	cpuLinear   *linalloc.Allocator
	gpuLinear   *linalloc.Allocator
	dynViews    *descheap.Heap
	dynSamplers *descheap.Heap

	// err holds the first failure of a call that cannot return one, such as
	// a descriptor table commit during a draw. Flush and Finish report it.
	err error

	free      bool
	eventOpen bool
}

func newContext(m *Manager, q *queue) (*Context, error) {
	c := &Context{
		mgr:       m,
		q:         q,
		typ:       q.typ,
		cpuLinear: linalloc.NewAllocator(m.uploadPages),
		gpuLinear: linalloc.NewAllocator(m.gpuPages),
	}
	c.dynViews = descheap.New(m.heapPool, gpucore.HeapTypeCBVSRVUAV, c)
	c.dynSamplers = descheap.New(m.heapPool, gpucore.HeapTypeSampler, c)

	alloc, err := q.requestAllocator()
	if err != nil {
		return nil, err
	}
	list, err := m.dev.CreateCommandList(q.typ, alloc)
	if err != nil {
		q.discardAllocator(gpucore.MakeFence(q.typ, 0), alloc)
		return nil, fmt.Errorf("command: create %s command list: %w", q.typ, err)
	}
	c.alloc = alloc
	c.list = list
	return c, nil
}

// reset prepares a pooled context for a new checkout.
func (c *Context) reset() error {
	alloc, err := c.q.requestAllocator()
	if err != nil {
		return err
	}
	if err := c.list.Reset(alloc); err != nil {
		c.q.discardAllocator(gpucore.MakeFence(c.typ, 0), alloc)
		return fmt.Errorf("command: reset %s command list: %w", c.typ, err)
	}
	c.alloc = alloc
	c.clearState()
	return nil
}

func (c *Context) clearState() {
	c.rootSigs = [gpucore.NumBindPoints]*gpucore.RootSignature{}
	c.rootSigID = [gpucore.NumBindPoints]gpucore.ObjectID{}
	c.pso = nil
	c.psoID = gpucore.InvalidID
	c.heaps = [gpucore.NumDescriptorHeapTypes]*gpucore.DescriptorHeap{}
	c.barriers.reset()
	c.err = nil
	c.label = ""
	c.eventOpen = false
}

func (c *Context) live() {
	assert(!c.free, "context %q used after Finish", c.label)
}

// Label returns the debug label given at checkout.
func (c *Context) Label() string { return c.label }

// QueueType returns the queue the context submits to.
func (c *Context) QueueType() gpucore.QueueType { return c.typ }

// CommandList returns the underlying command list. Commands recorded on it
// directly bypass state tracking.
func (c *Context) CommandList() gpucore.CommandList { return c.list }

// Graphics returns the graphics view of c. It panics unless c records for
// the direct or bundle queue.
func (c *Context) Graphics() GraphicsContext {
	c.live()
	assert(c.typ == gpucore.QueueDirect || c.typ == gpucore.QueueBundle,
		"graphics commands on a %s context %q", c.typ, c.label)
	return GraphicsContext{c}
}

// Compute returns the compute view of c. It panics on copy contexts.
func (c *Context) Compute() ComputeContext {
	c.live()
	assert(c.typ != gpucore.QueueCopy, "compute commands on a copy context %q", c.label)
	return ComputeContext{c}
}

// ============================================================================
// Submission
// ============================================================================

func (c *Context) submit() (uint64, error) {
	c.FlushResourceBarriers()
	fence, err := c.q.execute(c.list)
	if err != nil {
		// The list may still be open when the queue rejected it.
		_ = c.list.Close()
		return 0, err
	}
	c.mgr.metrics.Submissions.WithLabelValues(c.typ.String()).Inc()
	return fence, nil
}

// Flush submits everything recorded so far and keeps the context open for
// more commands on the same allocator. Bound root signatures, the pipeline
// state and descriptor heaps are rebound on the fresh list; descriptor
// tables and root arguments are not.
func (c *Context) Flush(wait bool) (uint64, error) {
	c.live()
	if c.err != nil {
		err := c.err
		c.err = nil
		return 0, err
	}

	fence, err := c.submit()
	if err != nil {
		return 0, err
	}
	if wait {
		if err := c.q.waitForFence(fence); err != nil {
			return fence, err
		}
	}

	if err := c.list.Reset(c.alloc); err != nil {
		return fence, fmt.Errorf("command: reopen %s command list: %w", c.typ, err)
	}
	for bp, rs := range c.rootSigs {
		if rs != nil {
			c.list.SetRootSignature(gpucore.BindPoint(bp), rs) //nolint:gosec // < NumBindPoints
		}
	}
	if c.pso != nil {
		c.list.SetPipelineState(c.pso)
	}
	c.bindDescriptorHeaps()
	return fence, nil
}

// Finish submits the recorded commands and returns the context to its
// manager. The context must not be used afterwards, even when Finish fails.
func (c *Context) Finish(wait bool) (uint64, error) {
	c.live()
	defer c.mgr.FreeContext(c)

	if c.eventOpen {
		c.list.EndEvent()
		c.eventOpen = false
	}

	sticky := c.err
	fence, err := c.submit()
	retire := fence
	if err != nil {
		retire = gpucore.MakeFence(c.typ, 0)
	}

	c.q.discardAllocator(retire, c.alloc)
	c.alloc = nil
	c.cpuLinear.CleanupUsedPages(retire)
	c.gpuLinear.CleanupUsedPages(retire)
	c.dynViews.CleanupUsedHeaps(retire)
	c.dynSamplers.CleanupUsedHeaps(retire)

	if err != nil {
		return 0, err
	}
	if sticky != nil {
		return fence, sticky
	}
	if wait {
		if err := c.q.waitForFence(fence); err != nil {
			return fence, err
		}
	}
	return fence, nil
}

// fail keeps the first asynchronous failure for Flush or Finish.
func (c *Context) fail(err error) {
	if c.err == nil {
		c.err = err
		gfxctx.Logger().Warn("command: recording failed", "context", c.label, "err", err)
	}
}

// ============================================================================
// Resource state
// ============================================================================

func (c *Context) checkComputeState(r *gpucore.GpuResource, s gpucore.ResourceState) {
	if c.typ != gpucore.QueueCompute {
		return
	}
	assert(r.State().ValidForCompute() && s.ValidForCompute(),
		"%s on compute context %q: %s -> %s is not a compute queue transition", r.Label(), c.label, r.State(), s)
}

// TransitionResource moves res to state. A transition to the current state
// is a no-op. The barrier is queued and reaches the command list at the next
// flush point, or right away when flushImmediate is set.
func (c *Context) TransitionResource(res gpucore.Resource, state gpucore.ResourceState, flushImmediate bool) {
	c.live()
	r := res.Resource()
	assert(state != gpucore.StateInvalid, "transition of %s to the invalid state", r.Label())
	c.checkComputeState(r, state)

	if old := r.State(); old != state {
		b := gpucore.Barrier{
			Kind:        gpucore.BarrierTransition,
			Resource:    r,
			Before:      old,
			After:       state,
			Subresource: gpucore.AllSubresources,
		}
		if state == r.TransitioningState() {
			b.Flags = gpucore.BarrierFlagEndOnly
			r.SetTransitioningState(gpucore.StateInvalid)
		}
		r.SetState(state)
		c.barriers.push(b)
	}

	if flushImmediate || c.barriers.full() {
		c.FlushResourceBarriers()
	}
}

// BeginResourceTransition starts a split transition of res to state. The
// matching TransitionResource call ends it. The tracked state is unchanged
// until then.
func (c *Context) BeginResourceTransition(res gpucore.Resource, state gpucore.ResourceState, flushImmediate bool) {
	c.live()
	r := res.Resource()
	assert(state != gpucore.StateInvalid, "transition of %s to the invalid state", r.Label())

	if pending := r.TransitioningState(); pending != gpucore.StateInvalid {
		c.TransitionResource(res, pending, false)
	}

	if old := r.State(); old != state {
		c.checkComputeState(r, state)
		c.barriers.push(gpucore.Barrier{
			Kind:        gpucore.BarrierTransition,
			Flags:       gpucore.BarrierFlagBeginOnly,
			Resource:    r,
			Before:      old,
			After:       state,
			Subresource: gpucore.AllSubresources,
		})
		r.SetTransitioningState(state)
	}

	if flushImmediate || c.barriers.full() {
		c.FlushResourceBarriers()
	}
}

// InsertUAVBarrier orders unordered-access writes to res before later
// accesses.
func (c *Context) InsertUAVBarrier(res gpucore.Resource, flushImmediate bool) {
	c.live()
	c.barriers.push(gpucore.Barrier{Kind: gpucore.BarrierUAV, Resource: res.Resource()})
	if flushImmediate || c.barriers.full() {
		c.FlushResourceBarriers()
	}
}

// InsertAliasBarrier hands aliased memory from before to after.
func (c *Context) InsertAliasBarrier(before, after gpucore.Resource, flushImmediate bool) {
	c.live()
	c.barriers.push(gpucore.Barrier{
		Kind:        gpucore.BarrierAliasing,
		AliasBefore: before.Resource(),
		Resource:    after.Resource(),
	})
	if flushImmediate || c.barriers.full() {
		c.FlushResourceBarriers()
	}
}

// FlushResourceBarriers hands every queued barrier to the command list in a
// single call. With nothing queued it does nothing.
func (c *Context) FlushResourceBarriers() {
	c.live()
	if n := c.barriers.flush(c.list); n > 0 {
		c.mgr.metrics.BarriersFlushed.Add(float64(n))
	}
}

// PendingBarriers returns the number of queued barriers.
func (c *Context) PendingBarriers() int { return c.barriers.len() }

// ============================================================================
// Descriptor heaps
// ============================================================================

// SetDescriptorHeap binds heap for its type. Binding the heap already bound
// records nothing.
func (c *Context) SetDescriptorHeap(t gpucore.DescriptorHeapType, heap *gpucore.DescriptorHeap) {
	c.live()
	assert(heap != nil, "nil %s descriptor heap", t)
	if c.heaps[t] == heap {
		return
	}
	c.heaps[t] = heap
	c.bindDescriptorHeaps()
}

// SetDescriptorHeaps binds several heaps with one command list call.
func (c *Context) SetDescriptorHeaps(heaps ...*gpucore.DescriptorHeap) {
	c.live()
	changed := false
	for i, h := range heaps {
		assert(h != nil, "descriptor heap %d is nil", i)
		if c.heaps[h.Type()] != h {
			c.heaps[h.Type()] = h
			changed = true
		}
	}
	if changed {
		c.bindDescriptorHeaps()
	}
}

func (c *Context) bindDescriptorHeaps() {
	var bound [gpucore.NumDescriptorHeapTypes]*gpucore.DescriptorHeap
	n := 0
	for _, h := range c.heaps {
		if h != nil {
			bound[n] = h
			n++
		}
	}
	if n > 0 {
		c.list.SetDescriptorHeaps(bound[:n])
	}
}

// ============================================================================
// Pipeline state and tables
// ============================================================================

// SetPipelineState binds p. Binding the pipeline already bound records
// nothing.
func (c *Context) SetPipelineState(p gpucore.Pipeline) {
	c.live()
	pso := p.Pipeline()
	if pso.ID() == c.psoID {
		return
	}
	if c.typ == gpucore.QueueCompute {
		assert(pso.BindPoint() == gpucore.BindCompute, "graphics pipeline %q on compute context %q", pso.Label(), c.label)
	}
	c.pso = pso
	c.psoID = pso.ID()
	c.list.SetPipelineState(pso)
}

func (c *Context) setRootSignature(bp gpucore.BindPoint, rs *gpucore.RootSignature) {
	c.live()
	assert(rs.Finalized(), "root signature %q is not finalized", rs.Label())
	if rs.ID() == c.rootSigID[bp] {
		return
	}
	c.rootSigs[bp] = rs
	c.rootSigID[bp] = rs.ID()
	c.list.SetRootSignature(bp, rs)
	c.dynViews.ParseRootSignature(bp, rs)
	c.dynSamplers.ParseRootSignature(bp, rs)
}

// commitTables binds every descriptor table staged since the last commit.
func (c *Context) commitTables(bp gpucore.BindPoint) {
	n, err := c.dynViews.CommitRootDescriptorTables(bp, c.list)
	if err != nil {
		c.fail(fmt.Errorf("command: commit view tables: %w", err))
	}
	m, err := c.dynSamplers.CommitRootDescriptorTables(bp, c.list)
	if err != nil {
		c.fail(fmt.Errorf("command: commit sampler tables: %w", err))
	}
	if n+m > 0 {
		c.mgr.metrics.DescriptorTables.Add(float64(n + m))
	}
}

// prepare runs before every draw and dispatch.
func (c *Context) prepare(bp gpucore.BindPoint) {
	c.FlushResourceBarriers()
	c.commitTables(bp)
}

func (c *Context) rootSignature(bp gpucore.BindPoint) *gpucore.RootSignature {
	rs := c.rootSigs[bp]
	assert(rs != nil, "no %s root signature bound on %q", bp, c.label)
	return rs
}

func (c *Context) setDynamicDescriptors(bp gpucore.BindPoint, root, offset uint32, handles []gpucore.CPUDescriptorHandle) {
	c.live()
	c.rootSignature(bp)
	c.dynViews.SetDescriptorHandles(bp, root, offset, handles)
}

func (c *Context) setDynamicSamplers(bp gpucore.BindPoint, root, offset uint32, handles []gpucore.CPUDescriptorHandle) {
	c.live()
	c.rootSignature(bp)
	c.dynSamplers.SetDescriptorHandles(bp, root, offset, handles)
}

func (c *Context) setConstants(bp gpucore.BindPoint, root uint32, values []uint32, offset uint32) {
	c.live()
	c.list.SetRoot32BitConstants(bp, root, values, offset)
}

func (c *Context) setBufferSRV(bp gpucore.BindPoint, root uint32, b *gpucore.GpuBuffer, offset uint64) {
	c.live()
	need := gpucore.StateNonPixelShaderResource
	if bp == gpucore.BindGraphics {
		need = gpucore.StateShaderResource
	}
	assert(b.State()&need != 0, "buffer %s bound as SRV in state %s", b.Label(), b.State())
	c.list.SetRootView(bp, gpucore.RootSRV, root, b.Address(offset))
}

func (c *Context) setBufferUAV(bp gpucore.BindPoint, root uint32, b *gpucore.GpuBuffer, offset uint64) {
	c.live()
	assert(b.State().Has(gpucore.StateUnorderedAccess), "buffer %s bound as UAV in state %s", b.Label(), b.State())
	c.list.SetRootView(bp, gpucore.RootUAV, root, b.Address(offset))
}

func (c *Context) setDynamicCBV(bp gpucore.BindPoint, root uint32, data []byte) error {
	mem, err := c.ReserveUploadMemory(uint64(len(data)))
	if err != nil {
		return err
	}
	copy(mem.Data, data)
	c.list.SetRootView(bp, gpucore.RootCBV, root, mem.Address())
	return nil
}

func (c *Context) setDynamicSRV(bp gpucore.BindPoint, root uint32, data []byte) error {
	mem, err := c.ReserveUploadMemory(uint64(len(data)))
	if err != nil {
		return err
	}
	copy(mem.Data, data)
	c.list.SetRootView(bp, gpucore.RootSRV, root, mem.Address())
	return nil
}

// clearUAV clears an unordered-access view through a GPU-visible copy of
// its descriptor.
func (c *Context) clearUAV(res *gpucore.GpuResource, uav gpucore.CPUDescriptorHandle, values [4]uint32) {
	c.live()
	assert(!uav.IsNull(), "%s has no UAV", res.Label())
	gpu, err := c.dynViews.UploadDirect(uav)
	if err != nil {
		c.fail(fmt.Errorf("command: upload UAV of %s: %w", res.Label(), err))
		return
	}
	c.FlushResourceBarriers()
	c.list.ClearUnorderedAccessView(gpu, uav, res, values)
}

// ============================================================================
// Upload memory and copies
// ============================================================================

// ReserveUploadMemory returns size bytes of CPU-writable memory that stays
// valid until the context finishes.
func (c *Context) ReserveUploadMemory(size uint64) (linalloc.Allocation, error) {
	c.live()
	mem, err := c.cpuLinear.Allocate(size, linalloc.DefaultAlignment)
	if err != nil {
		return linalloc.Allocation{}, fmt.Errorf("command: reserve %d upload bytes: %w", size, err)
	}
	return mem, nil
}

// ReserveScratchMemory returns size bytes of GPU-exclusive memory that stays
// valid until the context finishes.
func (c *Context) ReserveScratchMemory(size uint64) (linalloc.Allocation, error) {
	c.live()
	mem, err := c.gpuLinear.Allocate(size, linalloc.DefaultAlignment)
	if err != nil {
		return linalloc.Allocation{}, fmt.Errorf("command: reserve %d scratch bytes: %w", size, err)
	}
	return mem, nil
}

// CopyBuffer copies all of src into dst.
func (c *Context) CopyBuffer(dst, src gpucore.Resource) {
	c.TransitionResource(dst, gpucore.StateCopyDest, false)
	c.TransitionResource(src, gpucore.StateCopySource, false)
	c.FlushResourceBarriers()
	c.list.CopyResource(dst.Resource(), src.Resource())
}

// CopyBufferRegion copies n bytes between buffers.
func (c *Context) CopyBufferRegion(dst gpucore.Resource, dstOffset uint64, src gpucore.Resource, srcOffset, n uint64) {
	c.TransitionResource(dst, gpucore.StateCopyDest, false)
	c.FlushResourceBarriers()
	c.list.CopyBufferRegion(dst.Resource(), dstOffset, src.Resource(), srcOffset, n)
}

// CopySubresource copies one texture subresource into another.
func (c *Context) CopySubresource(dst gpucore.Resource, dstSub uint32, src gpucore.Resource, srcSub uint32) {
	c.TransitionResource(dst, gpucore.StateCopyDest, false)
	c.TransitionResource(src, gpucore.StateCopySource, false)
	c.FlushResourceBarriers()
	c.list.CopyTextureRegion(
		gpucore.TextureCopyLocation{Resource: dst.Resource(), Subresource: dstSub},
		gpucore.TextureCopyLocation{Resource: src.Resource(), Subresource: srcSub},
	)
}

// CopyCounter copies the 4-byte hidden counter of src into dst at offset.
func (c *Context) CopyCounter(dst gpucore.Resource, offset uint64, src *gpucore.GpuBuffer) {
	assert(src.Counter != nil, "buffer %s has no counter", src.Label())
	c.TransitionResource(dst, gpucore.StateCopyDest, false)
	c.TransitionResource(src.Counter, gpucore.StateCopySource, false)
	c.FlushResourceBarriers()
	c.list.CopyBufferRegion(dst.Resource(), offset, src.Counter.Resource(), 0, 4)
}

// ResetCounter sets the hidden counter of b to value.
func (c *Context) ResetCounter(b *gpucore.GpuBuffer, value uint32) error {
	assert(b.Counter != nil, "buffer %s has no counter", b.Label())
	if err := c.FillBuffer(b.Counter, 0, value, 4); err != nil {
		return err
	}
	c.TransitionResource(b.Counter, gpucore.StateUnorderedAccess, false)
	return nil
}

// WriteBuffer copies data into dst at offset through upload memory. The
// length of data must be a multiple of 4.
func (c *Context) WriteBuffer(dst gpucore.Resource, offset uint64, data []byte) error {
	if len(data)%4 != 0 {
		return fmt.Errorf("%w: %d bytes", ErrUnalignedWrite, len(data))
	}
	if len(data) == 0 {
		return nil
	}
	mem, err := c.ReserveUploadMemory(uint64(len(data)))
	if err != nil {
		return err
	}
	copy(mem.Data, data)
	c.CopyBufferRegion(dst, offset, mem.Buffer, mem.Offset, uint64(len(data)))
	return nil
}

// FillBuffer sets n bytes of dst at offset to the repeated 32-bit value.
func (c *Context) FillBuffer(dst gpucore.Resource, offset uint64, value uint32, n uint64) error {
	if n%4 != 0 {
		return fmt.Errorf("%w: %d bytes", ErrUnalignedWrite, n)
	}
	if n == 0 {
		return nil
	}
	mem, err := c.ReserveUploadMemory(n)
	if err != nil {
		return err
	}
	for off := uint64(0); off < n; off += 4 {
		binary.LittleEndian.PutUint32(mem.Data[off:], value)
	}
	c.CopyBufferRegion(dst, offset, mem.Buffer, mem.Offset, n)
	return nil
}

// ============================================================================
// Queries and predication
// ============================================================================

// InsertTimeStamp writes a GPU timestamp into slot idx of heap.
func (c *Context) InsertTimeStamp(heap *gpucore.QueryHeap, idx uint32) {
	c.live()
	c.list.EndQuery(heap, idx)
}

// ResolveTimeStamps copies the first n timestamps of heap into dst as
// 64-bit values.
func (c *Context) ResolveTimeStamps(dst *gpucore.GpuBuffer, heap *gpucore.QueryHeap, n uint32) {
	c.ResolveQueryData(heap, 0, n, dst, 0)
}

// BeginQuery starts query idx of heap.
func (c *Context) BeginQuery(heap *gpucore.QueryHeap, idx uint32) {
	c.live()
	c.list.BeginQuery(heap, idx)
}

// EndQuery ends query idx of heap.
func (c *Context) EndQuery(heap *gpucore.QueryHeap, idx uint32) {
	c.live()
	c.list.EndQuery(heap, idx)
}

// ResolveQueryData copies count results starting at start into dst.
func (c *Context) ResolveQueryData(heap *gpucore.QueryHeap, start, count uint32, dst *gpucore.GpuBuffer, offset uint64) {
	c.live()
	c.FlushResourceBarriers()
	c.list.ResolveQueryData(heap, start, count, dst.Resource(), offset)
}

// SetPredication skips later commands depending on the 64-bit value at
// offset in b. A nil b disables predication.
func (c *Context) SetPredication(b *gpucore.GpuBuffer, offset uint64, op gpucore.PredicationOp) {
	c.live()
	if b == nil {
		c.list.SetPredication(nil, 0, op)
		return
	}
	c.list.SetPredication(b.Resource(), offset, op)
}

// ============================================================================
// Debug events
// ============================================================================

// BeginEvent opens a named region for GPU debuggers.
func (c *Context) BeginEvent(label string) {
	c.live()
	c.list.BeginEvent(label)
}

// EndEvent closes the innermost region.
func (c *Context) EndEvent() {
	c.live()
	c.list.EndEvent()
}

// SetMarker records a single named point.
func (c *Context) SetMarker(label string) {
	c.live()
	c.list.SetMarker(label)
}
