// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import "fmt"

// DescriptorHeapType selects which kind of descriptors a heap stores.
type DescriptorHeapType uint8

const (
	HeapTypeCBVSRVUAV DescriptorHeapType = iota
	HeapTypeSampler
	HeapTypeRTV
	HeapTypeDSV

	// NumDescriptorHeapTypes is the number of heap types.
	NumDescriptorHeapTypes = 4
)

// String returns the heap type name.
func (t DescriptorHeapType) String() string {
	switch t {
	case HeapTypeCBVSRVUAV:
		return "CBV_SRV_UAV"
	case HeapTypeSampler:
		return "Sampler"
	case HeapTypeRTV:
		return "RTV"
	case HeapTypeDSV:
		return "DSV"
	default:
		return fmt.Sprintf("DescriptorHeapType(%d)", uint8(t))
	}
}

// ShaderVisibleType reports whether heaps of type t can be bound to a
// command list.
func (t DescriptorHeapType) ShaderVisibleType() bool {
	return t == HeapTypeCBVSRVUAV || t == HeapTypeSampler
}

// DescriptorKind is the kind of view a descriptor holds.
type DescriptorKind uint8

const (
	DescriptorNone DescriptorKind = iota
	DescriptorCBV
	DescriptorSRV
	DescriptorUAV
	DescriptorSampler
	DescriptorRTV
	DescriptorDSV
)

// String returns the descriptor kind name.
func (k DescriptorKind) String() string {
	switch k {
	case DescriptorCBV:
		return "CBV"
	case DescriptorSRV:
		return "SRV"
	case DescriptorUAV:
		return "UAV"
	case DescriptorSampler:
		return "Sampler"
	case DescriptorRTV:
		return "RTV"
	case DescriptorDSV:
		return "DSV"
	default:
		return "None"
	}
}

// HeapType returns the heap type a descriptor of kind k lives in.
func (k DescriptorKind) HeapType() DescriptorHeapType {
	switch k {
	case DescriptorSampler:
		return HeapTypeSampler
	case DescriptorRTV:
		return HeapTypeRTV
	case DescriptorDSV:
		return HeapTypeDSV
	default:
		return HeapTypeCBVSRVUAV
	}
}

// FilterMode is a sampler filter.
type FilterMode uint8

const (
	FilterLinear FilterMode = iota
	FilterPoint
	FilterAnisotropic
	FilterComparisonLinear
)

// AddressMode is a sampler addressing mode.
type AddressMode uint8

const (
	AddressWrap AddressMode = iota
	AddressClamp
	AddressMirror
	AddressBorder
)

// SamplerDesc describes a sampler descriptor.
type SamplerDesc struct {
	Filter        FilterMode
	Address       AddressMode
	MaxAnisotropy uint32
	BorderColor   [4]float32
}

// Descriptor is the backend-neutral content of one descriptor slot.
type Descriptor struct {
	Kind     DescriptorKind
	Resource *GpuResource

	// Buffer views.
	Offset uint64
	Size   uint64
	Stride uint32

	// Texture views.
	Format     Format
	MipSlice   uint32
	ArraySlice uint32

	Sampler SamplerDesc
}

// BufferCBV returns a constant buffer view of size bytes at offset.
func BufferCBV(b *GpuBuffer, offset, size uint64) Descriptor {
	return Descriptor{Kind: DescriptorCBV, Resource: &b.GpuResource, Offset: offset, Size: size}
}

// BufferSRV returns a structured shader resource view of the whole buffer.
func BufferSRV(b *GpuBuffer) Descriptor {
	return Descriptor{Kind: DescriptorSRV, Resource: &b.GpuResource, Size: b.Size(), Stride: b.ElementSize()}
}

// BufferUAV returns a structured unordered access view of the whole buffer.
func BufferUAV(b *GpuBuffer) Descriptor {
	return Descriptor{Kind: DescriptorUAV, Resource: &b.GpuResource, Size: b.Size(), Stride: b.ElementSize()}
}

// TextureView returns a view of kind k on mip 0 / slice 0 of t.
func TextureView(k DescriptorKind, t *Texture) Descriptor {
	return Descriptor{Kind: k, Resource: &t.GpuResource, Format: t.Format()}
}

// Sampler returns a sampler descriptor.
func Sampler(desc SamplerDesc) Descriptor {
	return Descriptor{Kind: DescriptorSampler, Sampler: desc}
}

// DescriptorHeap is an array of descriptor slots. Shader-visible heaps are
// bound to command lists; the others are CPU staging storage for views.
//
// Concurrent writes to distinct slots are safe; a slot must not be written
// while a command list referencing it is being recorded.
type DescriptorHeap struct {
	id            ObjectID
	typ           DescriptorHeapType
	shaderVisible bool
	label         string
	slots         []Descriptor
	native        any
}

// NewDescriptorHeap allocates a heap of count slots.
func NewDescriptorHeap(typ DescriptorHeapType, count uint32, shaderVisible bool, label string) *DescriptorHeap {
	return &DescriptorHeap{
		id:            NewObjectID(),
		typ:           typ,
		shaderVisible: shaderVisible,
		label:         label,
		slots:         make([]Descriptor, count),
	}
}

// ID returns the heap identity.
func (h *DescriptorHeap) ID() ObjectID { return h.id }

// Type returns the heap type.
func (h *DescriptorHeap) Type() DescriptorHeapType { return h.typ }

// Len returns the number of slots.
func (h *DescriptorHeap) Len() uint32 { return uint32(len(h.slots)) } //nolint:gosec // heap sizes fit uint32

// ShaderVisible reports whether the heap may be bound to a command list.
func (h *DescriptorHeap) ShaderVisible() bool { return h.shaderVisible }

// Label returns the debug name.
func (h *DescriptorHeap) Label() string { return h.label }

// Native returns the backend object attached with SetNative.
func (h *DescriptorHeap) Native() any { return h.native }

// SetNative attaches a backend object.
func (h *DescriptorHeap) SetNative(n any) { h.native = n }

// CPUHandle returns the CPU handle of slot i.
func (h *DescriptorHeap) CPUHandle(i uint32) CPUDescriptorHandle {
	return CPUDescriptorHandle{heap: h, index: i}
}

// GPUHandle returns the GPU handle of slot i. Only shader-visible heaps have
// GPU handles.
func (h *DescriptorHeap) GPUHandle(i uint32) GPUDescriptorHandle {
	if !h.shaderVisible {
		panic(fmt.Sprintf("gpucore: GPU handle requested from non-shader-visible heap %q", h.label))
	}
	return GPUDescriptorHandle{heap: h, index: i}
}

// CPUDescriptorHandle addresses one descriptor slot for CPU-side writes and
// copies. The zero value is the null handle.
type CPUDescriptorHandle struct {
	heap  *DescriptorHeap
	index uint32
}

// IsNull reports whether h addresses nothing.
func (h CPUDescriptorHandle) IsNull() bool { return h.heap == nil }

// Heap returns the owning heap.
func (h CPUDescriptorHandle) Heap() *DescriptorHeap { return h.heap }

// Index returns the slot index inside the heap.
func (h CPUDescriptorHandle) Index() uint32 { return h.index }

// Offset returns the handle n slots further into the same heap.
func (h CPUDescriptorHandle) Offset(n uint32) CPUDescriptorHandle {
	return CPUDescriptorHandle{heap: h.heap, index: h.index + n}
}

// Descriptor returns the slot content.
func (h CPUDescriptorHandle) Descriptor() Descriptor {
	if h.heap == nil {
		return Descriptor{}
	}
	return h.heap.slots[h.index]
}

// Write stores d into the slot.
func (h CPUDescriptorHandle) Write(d Descriptor) {
	h.heap.slots[h.index] = d
}

// String formats the handle for logs.
func (h CPUDescriptorHandle) String() string {
	if h.heap == nil {
		return "cpu(null)"
	}
	return fmt.Sprintf("cpu(%s#%d)", h.heap.label, h.index)
}

// GPUDescriptorHandle addresses the first slot of a descriptor table inside a
// shader-visible heap.
type GPUDescriptorHandle struct {
	heap  *DescriptorHeap
	index uint32
}

// IsNull reports whether h addresses nothing.
func (h GPUDescriptorHandle) IsNull() bool { return h.heap == nil }

// Heap returns the owning heap.
func (h GPUDescriptorHandle) Heap() *DescriptorHeap { return h.heap }

// Index returns the slot index inside the heap.
func (h GPUDescriptorHandle) Index() uint32 { return h.index }

// Offset returns the handle n slots further into the same heap.
func (h GPUDescriptorHandle) Offset(n uint32) GPUDescriptorHandle {
	return GPUDescriptorHandle{heap: h.heap, index: h.index + n}
}

// Table returns n consecutive descriptors starting at h.
func (h GPUDescriptorHandle) Table(n uint32) []Descriptor {
	if h.heap == nil {
		return nil
	}
	return h.heap.slots[h.index : h.index+n]
}

// String formats the handle for logs.
func (h GPUDescriptorHandle) String() string {
	if h.heap == nil {
		return "gpu(null)"
	}
	return fmt.Sprintf("gpu(%s#%d)", h.heap.label, h.index)
}

// CopyDescriptors copies each source slot into consecutive slots starting at
// dst. A null source copies an empty descriptor.
func CopyDescriptors(dst CPUDescriptorHandle, src []CPUDescriptorHandle) {
	for i, s := range src {
		dst.heap.slots[dst.index+uint32(i)] = s.Descriptor() //nolint:gosec // table sizes fit uint32
	}
}

// CopyDescriptorsSimple copies n consecutive slots from src to dst.
func CopyDescriptorsSimple(n uint32, dst, src CPUDescriptorHandle) {
	copy(dst.heap.slots[dst.index:dst.index+n], src.heap.slots[src.index:src.index+n])
}
