// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

// HeapKind selects the memory pool a buffer lives in.
type HeapKind uint8

const (
	// HeapDefault is GPU-local memory, not CPU visible.
	HeapDefault HeapKind = iota
	// HeapUpload is CPU-writable, GPU-readable memory.
	HeapUpload
	// HeapReadback is GPU-writable, CPU-readable memory.
	HeapReadback
)

// String returns the heap kind name.
func (k HeapKind) String() string {
	switch k {
	case HeapDefault:
		return "Default"
	case HeapUpload:
		return "Upload"
	case HeapReadback:
		return "Readback"
	default:
		return "Unknown"
	}
}

// BufferDesc describes a buffer to create.
type BufferDesc struct {
	Label        string
	ElementCount uint32
	ElementSize  uint32
	Heap         HeapKind
	// AllowUAV requests storage usage; required for UnorderedAccess.
	AllowUAV bool
	// InitialState defaults to Common for default heaps, GenericRead for
	// upload heaps and CopyDest for readback heaps.
	InitialState ResourceState
}

// Size returns ElementCount * ElementSize.
func (d BufferDesc) Size() uint64 {
	return uint64(d.ElementCount) * uint64(d.ElementSize)
}

// GpuBuffer is a linear GPU resource.
type GpuBuffer struct {
	GpuResource

	size         uint64
	elementCount uint32
	elementSize  uint32
	heap         HeapKind
	mapped       []byte

	// SRV, UAV and CBV are CPU descriptor handles for views of the whole
	// buffer. They are null until a caller writes them.
	SRV CPUDescriptorHandle
	UAV CPUDescriptorHandle
	CBV CPUDescriptorHandle

	// Counter is the optional append/consume counter of a structured buffer.
	Counter *GpuBuffer
}

// InitBuffer fills the buffer-specific fields. Backends call it right after
// creating the native object; mapped is the persistently mapped CPU view for
// upload and readback heaps.
func (b *GpuBuffer) InitBuffer(desc BufferDesc, native any, gpuAddress uint64, mapped []byte) {
	b.GpuResource.Init(native, desc.InitialState, gpuAddress, desc.Label)
	b.size = desc.Size()
	b.elementCount = desc.ElementCount
	b.elementSize = desc.ElementSize
	b.heap = desc.Heap
	b.mapped = mapped
}

// Size returns the buffer size in bytes.
func (b *GpuBuffer) Size() uint64 { return b.size }

// ElementCount returns the number of elements.
func (b *GpuBuffer) ElementCount() uint32 { return b.elementCount }

// ElementSize returns the element stride in bytes.
func (b *GpuBuffer) ElementSize() uint32 { return b.elementSize }

// Heap returns the memory pool the buffer lives in.
func (b *GpuBuffer) Heap() HeapKind { return b.heap }

// Mapped returns the CPU view of an upload or readback buffer, or nil.
func (b *GpuBuffer) Mapped() []byte { return b.mapped }

// Address returns a BufferAddress for offset bytes into b.
func (b *GpuBuffer) Address(offset uint64) BufferAddress {
	return BufferAddress{Resource: &b.GpuResource, Offset: offset}
}

// VertexBufferView describes a range of a buffer bound as vertex input.
type VertexBufferView struct {
	Location BufferAddress
	Size     uint32
	Stride   uint32
}

// IndexFormat is the element type of an index buffer.
type IndexFormat uint8

const (
	IndexFormatUint16 IndexFormat = iota
	IndexFormatUint32
)

// Size returns the byte size of one index.
func (f IndexFormat) Size() uint32 {
	if f == IndexFormatUint32 {
		return 4
	}
	return 2
}

// IndexBufferView describes a range of a buffer bound as index input.
type IndexBufferView struct {
	Location BufferAddress
	Size     uint32
	Format   IndexFormat
}

// VertexBufferView returns a view of size bytes at offset with the given
// stride.
func (b *GpuBuffer) VertexBufferView(offset uint64, size, stride uint32) VertexBufferView {
	return VertexBufferView{Location: b.Address(offset), Size: size, Stride: stride}
}

// WholeVertexBufferView views the entire buffer using its element size as
// stride.
func (b *GpuBuffer) WholeVertexBufferView() VertexBufferView {
	return b.VertexBufferView(0, uint32(b.size), b.elementSize) //nolint:gosec // vertex buffers are < 4GiB
}

// IndexBufferView returns a view of size bytes at offset.
func (b *GpuBuffer) IndexBufferView(offset uint64, size uint32, format IndexFormat) IndexBufferView {
	return IndexBufferView{Location: b.Address(offset), Size: size, Format: format}
}

// WholeIndexBufferView views the entire buffer, choosing 32-bit indices when
// the element size is 4.
func (b *GpuBuffer) WholeIndexBufferView() IndexBufferView {
	f := IndexFormatUint16
	if b.elementSize == 4 {
		f = IndexFormatUint32
	}
	return b.IndexBufferView(0, uint32(b.size), f) //nolint:gosec // index buffers are < 4GiB
}
