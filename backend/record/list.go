// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package record

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gogpu/gfxctx/gpucore"
)

// List errors.
var (
	// ErrListClosed is returned when recording into or closing a closed list.
	ErrListClosed = errors.New("record: command list is closed")

	// ErrListOpen is returned when resetting a list that is still recording.
	ErrListOpen = errors.New("record: command list is still open")

	// ErrForeignAllocator is returned when a list is reset on an allocator
	// from another backend or queue type.
	ErrForeignAllocator = errors.New("record: allocator not created by this device")
)

// Allocator is a recording command allocator.
type Allocator struct {
	typ    gpucore.QueueType
	id     uint64
	resets int
}

// Reset implements gpucore.CommandAllocator.
func (a *Allocator) Reset() error {
	a.resets++
	return nil
}

// ID returns the allocator's creation index.
func (a *Allocator) ID() uint64 { return a.id }

// Resets returns how many times the allocator was reset.
func (a *Allocator) Resets() int { return a.resets }

// CommandList records calls into a slice of Command values.
type CommandList struct {
	typ    gpucore.QueueType
	alloc  *Allocator
	closed bool
	cmds   []Command
	err    error
}

var _ gpucore.CommandList = (*CommandList)(nil)

// Type implements gpucore.CommandList.
func (l *CommandList) Type() gpucore.QueueType { return l.typ }

// Allocator returns the allocator the list currently records into.
func (l *CommandList) Allocator() *Allocator { return l.alloc }

// Commands returns the commands recorded since the last Reset.
func (l *CommandList) Commands() []Command { return l.cmds }

// Closed reports whether the list is closed.
func (l *CommandList) Closed() bool { return l.closed }

// Reset implements gpucore.CommandList.
func (l *CommandList) Reset(alloc gpucore.CommandAllocator) error {
	if !l.closed {
		return ErrListOpen
	}
	a, ok := alloc.(*Allocator)
	if !ok || a.typ != l.typ {
		return fmt.Errorf("%w: %T", ErrForeignAllocator, alloc)
	}
	l.alloc = a
	l.closed = false
	l.cmds = nil
	l.err = nil
	return nil
}

// Close implements gpucore.CommandList.
func (l *CommandList) Close() error {
	if l.closed {
		return ErrListClosed
	}
	l.closed = true
	return l.err
}

func (l *CommandList) add(c Command) {
	if l.closed {
		if l.err == nil {
			l.err = fmt.Errorf("%w: %s", ErrListClosed, c.Op)
		}
		return
	}
	l.cmds = append(l.cmds, c)
}

// take hands the recorded commands to the queue.
func (l *CommandList) take() []Command {
	c := l.cmds
	l.cmds = nil
	return c
}

func (l *CommandList) ResourceBarrier(barriers []gpucore.Barrier) {
	l.add(Command{Op: OpBarrier, Barriers: slices.Clone(barriers)})
}

func (l *CommandList) SetDescriptorHeaps(heaps []*gpucore.DescriptorHeap) {
	l.add(Command{Op: OpSetDescriptorHeaps, Heaps: slices.Clone(heaps)})
}

func (l *CommandList) SetRootSignature(bp gpucore.BindPoint, rs *gpucore.RootSignature) {
	l.add(Command{Op: OpSetRootSignature, BindPoint: bp, RootSignature: rs})
}

func (l *CommandList) SetPipelineState(pso *gpucore.PipelineState) {
	l.add(Command{Op: OpSetPipelineState, BindPoint: pso.BindPoint(), Pipeline: pso})
}

func (l *CommandList) SetRoot32BitConstants(bp gpucore.BindPoint, root uint32, values []uint32, destOffset uint32) {
	l.add(Command{Op: OpSetRootConstants, BindPoint: bp, Root: root, Values: slices.Clone(values), Offset: destOffset})
}

func (l *CommandList) SetRootView(bp gpucore.BindPoint, kind gpucore.RootParameterType, root uint32, addr gpucore.BufferAddress) {
	l.add(Command{Op: OpSetRootView, BindPoint: bp, ViewKind: kind, Root: root, Address: addr})
}

func (l *CommandList) SetRootDescriptorTable(bp gpucore.BindPoint, root uint32, table gpucore.GPUDescriptorHandle) {
	l.add(Command{Op: OpSetRootTable, BindPoint: bp, Root: root, Table: table})
}

func (l *CommandList) SetRenderTargets(rtvs []gpucore.CPUDescriptorHandle, dsv gpucore.CPUDescriptorHandle) {
	l.add(Command{Op: OpSetRenderTargets, RTVs: slices.Clone(rtvs), DSV: dsv})
}

func (l *CommandList) ClearRenderTargetView(rtv gpucore.CPUDescriptorHandle, color [4]float32, rects []gpucore.Rect) {
	l.add(Command{Op: OpClearRenderTarget, CPUHandle: rtv, Color: color, Rects: slices.Clone(rects)})
}

func (l *CommandList) ClearDepthStencilView(dsv gpucore.CPUDescriptorHandle, flags gpucore.ClearFlags, depth float32, stencil uint8, rects []gpucore.Rect) {
	l.add(Command{Op: OpClearDepthStencil, DSV: dsv, ClearFlags: flags, Depth: depth, Stencil: stencil, Rects: slices.Clone(rects)})
}

func (l *CommandList) ClearUnorderedAccessView(gpu gpucore.GPUDescriptorHandle, cpu gpucore.CPUDescriptorHandle, res *gpucore.GpuResource, values [4]uint32) {
	l.add(Command{Op: OpClearUAV, Table: gpu, CPUHandle: cpu, Dst: res, Values: values[:]})
}

func (l *CommandList) SetViewports(vps []gpucore.Viewport) {
	l.add(Command{Op: OpSetViewports, Viewports: slices.Clone(vps)})
}

func (l *CommandList) SetScissorRects(rects []gpucore.Rect) {
	l.add(Command{Op: OpSetScissors, Rects: slices.Clone(rects)})
}

func (l *CommandList) SetStencilRef(ref uint32) {
	l.add(Command{Op: OpSetStencilRef, Args: [4]uint32{ref}})
}

func (l *CommandList) SetBlendFactor(factor [4]float32) {
	l.add(Command{Op: OpSetBlendFactor, Color: factor})
}

func (l *CommandList) SetPrimitiveTopology(t gpucore.PrimitiveTopology) {
	l.add(Command{Op: OpSetTopology, Topology: t})
}

func (l *CommandList) SetIndexBuffer(view *gpucore.IndexBufferView) {
	var v *gpucore.IndexBufferView
	if view != nil {
		c := *view
		v = &c
	}
	l.add(Command{Op: OpSetIndexBuffer, IndexBuffer: v})
}

func (l *CommandList) SetVertexBuffers(startSlot uint32, views []gpucore.VertexBufferView) {
	l.add(Command{Op: OpSetVertexBuffers, Root: startSlot, VertexBuffers: slices.Clone(views)})
}

func (l *CommandList) DrawInstanced(vertexCountPerInstance, instanceCount, startVertex, startInstance uint32) {
	l.add(Command{Op: OpDraw, Args: [4]uint32{vertexCountPerInstance, instanceCount, startVertex, startInstance}})
}

func (l *CommandList) DrawIndexedInstanced(indexCountPerInstance, instanceCount, startIndex uint32, baseVertex int32, startInstance uint32) {
	l.add(Command{
		Op:         OpDrawIndexed,
		Args:       [4]uint32{indexCountPerInstance, instanceCount, startIndex, startInstance},
		BaseVertex: baseVertex,
	})
}

func (l *CommandList) Dispatch(groupsX, groupsY, groupsZ uint32) {
	l.add(Command{Op: OpDispatch, Args: [4]uint32{groupsX, groupsY, groupsZ}})
}

func (l *CommandList) ExecuteIndirect(sig *gpucore.CommandSignature, maxCommands uint32, args, count gpucore.BufferAddress) {
	l.add(Command{Op: OpExecuteIndirect, Signature: sig, Args: [4]uint32{maxCommands}, Address: args, Count: count})
}

func (l *CommandList) CopyResource(dst, src *gpucore.GpuResource) {
	l.add(Command{Op: OpCopyResource, Dst: dst, Src: src})
}

func (l *CommandList) CopyBufferRegion(dst *gpucore.GpuResource, dstOffset uint64, src *gpucore.GpuResource, srcOffset, numBytes uint64) {
	l.add(Command{Op: OpCopyBufferRegion, Dst: dst, DstOffset: dstOffset, Src: src, SrcOffset: srcOffset, Size: numBytes})
}

func (l *CommandList) CopyTextureRegion(dst, src gpucore.TextureCopyLocation) {
	l.add(Command{Op: OpCopyTextureRegion, DstLoc: cloneLoc(dst), SrcLoc: cloneLoc(src)})
}

func (l *CommandList) BeginQuery(heap *gpucore.QueryHeap, index uint32) {
	l.add(Command{Op: OpBeginQuery, QueryHeap: heap, QueryIndex: index})
}

func (l *CommandList) EndQuery(heap *gpucore.QueryHeap, index uint32) {
	l.add(Command{Op: OpEndQuery, QueryHeap: heap, QueryIndex: index})
}

func (l *CommandList) ResolveQueryData(heap *gpucore.QueryHeap, start, count uint32, dst *gpucore.GpuResource, dstOffset uint64) {
	l.add(Command{Op: OpResolveQuery, QueryHeap: heap, QueryIndex: start, Args: [4]uint32{count}, Dst: dst, DstOffset: dstOffset})
}

func (l *CommandList) SetPredication(res *gpucore.GpuResource, offset uint64, op gpucore.PredicationOp) {
	l.add(Command{Op: OpSetPredication, Src: res, SrcOffset: offset, PredOp: op})
}

func (l *CommandList) BeginEvent(label string) {
	l.add(Command{Op: OpBeginEvent, Label: label})
}

func (l *CommandList) EndEvent() {
	l.add(Command{Op: OpEndEvent})
}

func (l *CommandList) SetMarker(label string) {
	l.add(Command{Op: OpMarker, Label: label})
}

func cloneLoc(loc gpucore.TextureCopyLocation) gpucore.TextureCopyLocation {
	if loc.Footprint != nil {
		fp := *loc.Footprint
		loc.Footprint = &fp
	}
	return loc
}
