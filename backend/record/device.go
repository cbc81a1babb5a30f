// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package record implements gpucore.Device in memory.
//
// Every call on a command list is stored as a Command; submitted lists are
// kept per queue so tests and dry runs can inspect exactly what a context
// emitted. Copies between buffers and textures are carried out on CPU-side
// storage at submission, so upload and readback paths produce real bytes.
//
// Fences complete at submission by default. WithManualFences leaves them
// pending until CompleteFence or WaitForFence is called, which makes
// fence-gated reuse observable.
package record

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gfxctx"
	"github.com/gogpu/gfxctx/backend"
	"github.com/gogpu/gfxctx/gpucore"
)

func init() {
	backend.Register(backend.BackendRecord, func() (gpucore.Device, error) {
		return NewDevice(), nil
	})
}

// Buffer is the native object behind a recorded buffer.
type Buffer struct {
	Data []byte
}

// Texture is the native object behind a recorded texture. Each subresource
// is stored tightly packed.
type Texture struct {
	Subresources  [][]byte
	Extents       [][2]uint32
	BytesPerPixel uint32
}

// queryData backs a query heap.
type queryData struct {
	values []uint64
}

// Stats counts objects created by a Device.
type Stats struct {
	Allocators      int64
	Lists           int64
	Buffers         int64
	Textures        int64
	DescriptorHeaps int64
	Destroyed       int64
}

// Option configures a Device.
type Option func(*Device)

// WithManualFences keeps submitted fences pending until CompleteFence or
// WaitForFence.
func WithManualFences() Option {
	return func(d *Device) { d.manual = true }
}

// Device is an in-memory gpucore.Device. It is safe for concurrent use.
type Device struct {
	manual bool
	queues [gpucore.NumQueueTypes]*Queue
	lost   atomic.Bool

	nextAddr   atomic.Uint64
	nextAllocs atomic.Uint64

	allocators      atomic.Int64
	lists           atomic.Int64
	buffers         atomic.Int64
	textures        atomic.Int64
	descriptorHeaps atomic.Int64
	destroyed       atomic.Int64

	// execMu serializes emulated execution across queues.
	execMu sync.Mutex
}

var _ gpucore.Device = (*Device)(nil)

// NewDevice creates a recording device with one queue per queue type.
func NewDevice(opts ...Option) *Device {
	d := &Device{}
	for _, opt := range opts {
		opt(d)
	}
	for t := range d.queues {
		d.queues[t] = newQueue(d, gpucore.QueueType(t)) //nolint:gosec // < NumQueueTypes
	}
	d.nextAddr.Store(0x1_0000_0000)
	gfxctx.Logger().Debug("record: device created", "manualFences", d.manual)
	return d
}

// Queue implements gpucore.Device.
func (d *Device) Queue(t gpucore.QueueType) gpucore.CommandQueue { return d.queues[t] }

// RecordQueue returns the concrete queue of type t.
func (d *Device) RecordQueue(t gpucore.QueueType) *Queue { return d.queues[t] }

// Lose simulates device removal: every later submission and wait fails with
// gpucore.ErrDeviceLost.
func (d *Device) Lose() { d.lost.Store(true) }

// Stats returns creation counters.
func (d *Device) Stats() Stats {
	return Stats{
		Allocators:      d.allocators.Load(),
		Lists:           d.lists.Load(),
		Buffers:         d.buffers.Load(),
		Textures:        d.textures.Load(),
		DescriptorHeaps: d.descriptorHeaps.Load(),
		Destroyed:       d.destroyed.Load(),
	}
}

// CreateCommandAllocator implements gpucore.Device.
func (d *Device) CreateCommandAllocator(t gpucore.QueueType) (gpucore.CommandAllocator, error) {
	d.allocators.Add(1)
	return &Allocator{typ: t, id: d.nextAllocs.Add(1)}, nil
}

// CreateCommandList implements gpucore.Device.
func (d *Device) CreateCommandList(t gpucore.QueueType, alloc gpucore.CommandAllocator) (gpucore.CommandList, error) {
	a, ok := alloc.(*Allocator)
	if !ok || a.typ != t {
		return nil, fmt.Errorf("%w: %T", ErrForeignAllocator, alloc)
	}
	d.lists.Add(1)
	return &CommandList{typ: t, alloc: a}, nil
}

// CreateDescriptorHeap implements gpucore.Device.
func (d *Device) CreateDescriptorHeap(t gpucore.DescriptorHeapType, count uint32, shaderVisible bool, label string) (*gpucore.DescriptorHeap, error) {
	if shaderVisible && !t.ShaderVisibleType() {
		return nil, fmt.Errorf("record: %s heaps cannot be shader visible", t)
	}
	d.descriptorHeaps.Add(1)
	return gpucore.NewDescriptorHeap(t, count, shaderVisible, label), nil
}

// CreateQueryHeap implements gpucore.Device.
func (d *Device) CreateQueryHeap(t gpucore.QueryType, count uint32) (*gpucore.QueryHeap, error) {
	return gpucore.NewQueryHeap(t, count, &queryData{values: make([]uint64, count)}), nil
}

// CreateBuffer implements gpucore.Device.
func (d *Device) CreateBuffer(desc gpucore.BufferDesc) (*gpucore.GpuBuffer, error) {
	size := desc.Size()
	if size == 0 {
		return nil, fmt.Errorf("record: buffer %q has zero size", desc.Label)
	}
	switch desc.Heap {
	case gpucore.HeapUpload:
		desc.InitialState = gpucore.StateGenericRead
	case gpucore.HeapReadback:
		desc.InitialState = gpucore.StateCopyDest
	}

	native := &Buffer{Data: make([]byte, size)}
	var mapped []byte
	if desc.Heap != gpucore.HeapDefault {
		mapped = native.Data
	}
	// 64 KiB placement granularity keeps addresses of distinct buffers apart.
	span := (size + 0xFFFF) &^ 0xFFFF
	addr := d.nextAddr.Add(span) - span

	b := &gpucore.GpuBuffer{}
	b.InitBuffer(desc, native, addr, mapped)
	d.buffers.Add(1)
	return b, nil
}

// CreateTexture implements gpucore.Device.
func (d *Device) CreateTexture(desc gpucore.TextureDesc) (*gpucore.Texture, error) {
	bpp := desc.Format.BytesPerPixel()
	if bpp == 0 || desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("record: invalid texture %q (%dx%d %s)", desc.Label, desc.Width, desc.Height, desc.Format)
	}
	t := &gpucore.Texture{}
	native := &Texture{}
	t.InitTexture(desc, native)
	native.Subresources = make([][]byte, t.SubresourceCount())
	native.Extents = make([][2]uint32, t.SubresourceCount())
	native.BytesPerPixel = bpp
	for slice := range t.ArraySize() {
		for mip := range t.MipLevels() {
			w, h := t.MipSize(mip)
			sub := t.Subresource(mip, slice)
			native.Subresources[sub] = make([]byte, w*h*bpp)
			native.Extents[sub] = [2]uint32{w, h}
		}
	}
	d.textures.Add(1)
	return t, nil
}

// CreateRootSignature implements gpucore.Device.
func (d *Device) CreateRootSignature(rs *gpucore.RootSignature) error {
	return rs.Finalize(nil)
}

// CreateGraphicsPSO implements gpucore.Device.
func (d *Device) CreateGraphicsPSO(desc gpucore.GraphicsPSODesc) (*gpucore.GraphicsPSO, error) {
	if desc.RootSignature == nil || !desc.RootSignature.Finalized() {
		return nil, fmt.Errorf("record: graphics PSO %q needs a finalized root signature", desc.Label)
	}
	p := &gpucore.GraphicsPSO{Desc: desc}
	p.InitPipeline(gpucore.BindGraphics, desc.Label, desc.RootSignature, nil)
	return p, nil
}

// CreateComputePSO implements gpucore.Device.
func (d *Device) CreateComputePSO(desc gpucore.ComputePSODesc) (*gpucore.ComputePSO, error) {
	if desc.RootSignature == nil || !desc.RootSignature.Finalized() {
		return nil, fmt.Errorf("record: compute PSO %q needs a finalized root signature", desc.Label)
	}
	p := &gpucore.ComputePSO{Desc: desc}
	p.InitPipeline(gpucore.BindCompute, desc.Label, desc.RootSignature, nil)
	return p, nil
}

// Destroy implements gpucore.Device.
func (d *Device) Destroy(res gpucore.Resource) {
	r := res.Resource()
	if !r.IsValid() {
		return
	}
	r.Destroy()
	d.destroyed.Add(1)
}
