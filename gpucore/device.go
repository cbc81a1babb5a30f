// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import (
	"errors"
	"fmt"
)

// Device errors.
var (
	// ErrDeviceLost is returned (wrapped) by a queue once the device has been
	// removed. It is not recoverable.
	ErrDeviceLost = errors.New("gpucore: device lost")

	// ErrUnsupported is returned (wrapped) when a backend cannot express a
	// command or resource.
	ErrUnsupported = errors.New("gpucore: unsupported by backend")
)

// QueueType selects a hardware queue.
type QueueType uint8

const (
	QueueDirect QueueType = iota
	QueueBundle
	QueueCompute
	QueueCopy

	// NumQueueTypes is the number of queue types.
	NumQueueTypes = 4
)

// String returns the queue type name.
func (q QueueType) String() string {
	switch q {
	case QueueDirect:
		return "direct"
	case QueueBundle:
		return "bundle"
	case QueueCompute:
		return "compute"
	case QueueCopy:
		return "copy"
	default:
		return fmt.Sprintf("queue(%d)", uint8(q))
	}
}

const fenceShift = 56

// MakeFence builds a fence value for point v on queue q's timeline.
func MakeFence(q QueueType, v uint64) uint64 {
	return uint64(q)<<fenceShift | v&(1<<fenceShift-1)
}

// FenceQueue returns the queue a fence value belongs to.
func FenceQueue(fence uint64) QueueType {
	return QueueType(fence >> fenceShift)
}

// FenceTracker answers whether a fence value has been reached by the GPU.
type FenceTracker interface {
	IsFenceComplete(fence uint64) bool
}

// ClearFlags selects the aspects cleared by ClearDepthStencilView.
type ClearFlags uint8

const (
	ClearDepth ClearFlags = 1 << iota
	ClearStencil
)

// QueryType is the kind of a GPU query.
type QueryType uint8

const (
	QueryOcclusion QueryType = iota
	QueryBinaryOcclusion
	QueryTimestamp
	QueryPipelineStatistics
)

// QueryHeap is an array of query slots.
type QueryHeap struct {
	id     ObjectID
	typ    QueryType
	count  uint32
	native any
}

// NewQueryHeap creates a query heap of count slots.
func NewQueryHeap(t QueryType, count uint32, native any) *QueryHeap {
	return &QueryHeap{id: NewObjectID(), typ: t, count: count, native: native}
}

// ID returns the heap identity.
func (h *QueryHeap) ID() ObjectID { return h.id }

// Type returns the query type.
func (h *QueryHeap) Type() QueryType { return h.typ }

// Count returns the number of slots.
func (h *QueryHeap) Count() uint32 { return h.count }

// Native returns the backend object.
func (h *QueryHeap) Native() any { return h.native }

// PredicationOp selects when predicated commands are skipped.
type PredicationOp uint8

const (
	PredicationEqualZero PredicationOp = iota
	PredicationNotEqualZero
)

// SubresourceFootprint describes how one texture subresource is laid out in
// a buffer.
type SubresourceFootprint struct {
	Offset   uint64
	Format   Format
	Width    uint32
	Height   uint32
	Depth    uint32
	RowPitch uint32
}

// TextureCopyLocation is one side of a texture copy: either a texture
// subresource, or a buffer region described by a footprint.
type TextureCopyLocation struct {
	Resource    *GpuResource
	Subresource uint32
	Footprint   *SubresourceFootprint
}

// IsBuffer reports whether the location is a buffer footprint.
func (l TextureCopyLocation) IsBuffer() bool { return l.Footprint != nil }

// CommandAllocator owns the memory backing recorded commands. It may only be
// reset once the GPU has finished with every list recorded into it.
type CommandAllocator interface {
	Reset() error
}

// CommandList records GPU commands. Methods mirror an explicit-API command
// list and do not report errors individually: a backend that cannot record
// a command keeps the first error and returns it from Close.
//
// Slices passed to a CommandList are only valid for the duration of the call.
type CommandList interface {
	// Type returns the queue type the list was created for.
	Type() QueueType

	// Reset reopens a closed list on the given allocator.
	Reset(alloc CommandAllocator) error
	// Close finishes recording.
	Close() error

	ResourceBarrier(barriers []Barrier)
	SetDescriptorHeaps(heaps []*DescriptorHeap)

	SetRootSignature(bp BindPoint, rs *RootSignature)
	SetPipelineState(pso *PipelineState)
	SetRoot32BitConstants(bp BindPoint, root uint32, values []uint32, destOffset uint32)
	SetRootView(bp BindPoint, kind RootParameterType, root uint32, addr BufferAddress)
	SetRootDescriptorTable(bp BindPoint, root uint32, table GPUDescriptorHandle)

	SetRenderTargets(rtvs []CPUDescriptorHandle, dsv CPUDescriptorHandle)
	ClearRenderTargetView(rtv CPUDescriptorHandle, color [4]float32, rects []Rect)
	ClearDepthStencilView(dsv CPUDescriptorHandle, flags ClearFlags, depth float32, stencil uint8, rects []Rect)
	ClearUnorderedAccessView(gpu GPUDescriptorHandle, cpu CPUDescriptorHandle, res *GpuResource, values [4]uint32)
	SetViewports(vps []Viewport)
	SetScissorRects(rects []Rect)
	SetStencilRef(ref uint32)
	SetBlendFactor(factor [4]float32)
	SetPrimitiveTopology(t PrimitiveTopology)
	SetIndexBuffer(view *IndexBufferView)
	SetVertexBuffers(startSlot uint32, views []VertexBufferView)

	DrawInstanced(vertexCountPerInstance, instanceCount, startVertex, startInstance uint32)
	DrawIndexedInstanced(indexCountPerInstance, instanceCount, startIndex uint32, baseVertex int32, startInstance uint32)
	Dispatch(groupsX, groupsY, groupsZ uint32)
	ExecuteIndirect(sig *CommandSignature, maxCommands uint32, args BufferAddress, count BufferAddress)

	CopyResource(dst, src *GpuResource)
	CopyBufferRegion(dst *GpuResource, dstOffset uint64, src *GpuResource, srcOffset, numBytes uint64)
	CopyTextureRegion(dst, src TextureCopyLocation)

	BeginQuery(heap *QueryHeap, index uint32)
	EndQuery(heap *QueryHeap, index uint32)
	ResolveQueryData(heap *QueryHeap, start, count uint32, dst *GpuResource, dstOffset uint64)
	SetPredication(res *GpuResource, offset uint64, op PredicationOp)

	BeginEvent(label string)
	EndEvent()
	SetMarker(label string)
}

// CommandQueue executes closed command lists in submission order.
type CommandQueue interface {
	// Type returns the queue type.
	Type() QueueType

	// ExecuteCommandList closes list, submits it and returns the fence value
	// signaled when the GPU finishes it.
	ExecuteCommandList(list CommandList) (uint64, error)

	// IsFenceComplete reports whether the GPU reached fence.
	IsFenceComplete(fence uint64) bool

	// WaitForFence blocks until the GPU reaches fence.
	WaitForFence(fence uint64) error

	// WaitForIdle blocks until every submitted list has finished.
	WaitForIdle() error

	// NextFenceValue returns the value the next submission will signal.
	NextFenceValue() uint64

	// TimestampFrequency returns timestamp ticks per second.
	TimestampFrequency() (uint64, error)
}

// Device creates GPU objects and exposes the queues.
type Device interface {
	Queue(t QueueType) CommandQueue

	CreateCommandAllocator(t QueueType) (CommandAllocator, error)
	// CreateCommandList returns an open list recording into alloc.
	CreateCommandList(t QueueType, alloc CommandAllocator) (CommandList, error)

	CreateDescriptorHeap(t DescriptorHeapType, count uint32, shaderVisible bool, label string) (*DescriptorHeap, error)
	CreateQueryHeap(t QueryType, count uint32) (*QueryHeap, error)

	CreateBuffer(desc BufferDesc) (*GpuBuffer, error)
	CreateTexture(desc TextureDesc) (*Texture, error)

	// CreateRootSignature builds the backend layout and finalizes rs.
	CreateRootSignature(rs *RootSignature) error
	CreateGraphicsPSO(desc GraphicsPSODesc) (*GraphicsPSO, error)
	CreateComputePSO(desc ComputePSODesc) (*ComputePSO, error)

	// Destroy releases the backend object of res and marks it destroyed.
	Destroy(res Resource)
}
