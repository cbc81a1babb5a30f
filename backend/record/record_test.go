// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package record

import (
	"errors"
	"testing"

	"github.com/gogpu/gfxctx/gpucore"
)

func newList(t *testing.T, d *Device, q gpucore.QueueType) *CommandList {
	t.Helper()
	a, err := d.CreateCommandAllocator(q)
	if err != nil {
		t.Fatal(err)
	}
	l, err := d.CreateCommandList(q, a)
	if err != nil {
		t.Fatal(err)
	}
	return l.(*CommandList)
}

func newBuffer(t *testing.T, d *Device, size uint32, heap gpucore.HeapKind) *gpucore.GpuBuffer {
	t.Helper()
	b, err := d.CreateBuffer(gpucore.BufferDesc{Label: "buf", ElementCount: size, ElementSize: 1, Heap: heap})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

// =============================================================================
// Fence Tests
// =============================================================================

func TestQueue_Fences(t *testing.T) {
	tests := []struct {
		name   string
		opts   []Option
		done   bool
		queue  gpucore.QueueType
		values [2]uint64
	}{
		{"auto direct", nil, true, gpucore.QueueDirect, [2]uint64{1, 2}},
		{"auto copy", nil, true, gpucore.QueueCopy, [2]uint64{1, 2}},
		{"manual compute", []Option{WithManualFences()}, false, gpucore.QueueCompute, [2]uint64{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDevice(tt.opts...)
			q := d.RecordQueue(tt.queue)

			var fences [2]uint64
			for i := range fences {
				f, err := q.ExecuteCommandList(newList(t, d, tt.queue))
				if err != nil {
					t.Fatal(err)
				}
				fences[i] = f
			}
			for i, f := range fences {
				if f != gpucore.MakeFence(tt.queue, tt.values[i]) {
					t.Errorf("fence %d = %#x", i, f)
				}
			}
			if got := q.IsFenceComplete(fences[1]); got != tt.done {
				t.Errorf("IsFenceComplete() = %v, want %v", got, tt.done)
			}
			if q.NextFenceValue() != gpucore.MakeFence(tt.queue, 3) {
				t.Errorf("NextFenceValue() = %#x", q.NextFenceValue())
			}
		})
	}
}

func TestQueue_ManualCompletion(t *testing.T) {
	d := NewDevice(WithManualFences())
	q := d.RecordQueue(gpucore.QueueDirect)

	f1, _ := q.ExecuteCommandList(newList(t, d, gpucore.QueueDirect))
	f2, _ := q.ExecuteCommandList(newList(t, d, gpucore.QueueDirect))

	q.CompleteFence(f1)
	if !q.IsFenceComplete(f1) || q.IsFenceComplete(f2) {
		t.Error("CompleteFence(f1) should complete f1 only")
	}

	q.CompleteFence(f2 + 100)
	if q.CompletedFence() != f2 {
		t.Errorf("CompletedFence() = %#x, want clamp to %#x", q.CompletedFence(), f2)
	}

	q.CompleteFence(f1)
	if q.CompletedFence() != f2 {
		t.Error("completed fence moved backwards")
	}
	if err := q.WaitForIdle(); err != nil {
		t.Fatal(err)
	}
}

func TestDevice_Lose(t *testing.T) {
	d := NewDevice()
	q := d.Queue(gpucore.QueueDirect)
	l := newList(t, d, gpucore.QueueDirect)

	d.Lose()
	if _, err := q.ExecuteCommandList(l); !errors.Is(err, gpucore.ErrDeviceLost) {
		t.Errorf("ExecuteCommandList() error = %v", err)
	}
	if l.Closed() {
		t.Error("failed submission closed the list")
	}
	if err := q.WaitForFence(0); !errors.Is(err, gpucore.ErrDeviceLost) {
		t.Errorf("WaitForFence() error = %v", err)
	}
}

// =============================================================================
// Command List Tests
// =============================================================================

func TestCommandList_Lifecycle(t *testing.T) {
	d := NewDevice()
	l := newList(t, d, gpucore.QueueDirect)
	other, _ := d.CreateCommandAllocator(gpucore.QueueCopy)

	if err := l.Reset(l.Allocator()); !errors.Is(err, ErrListOpen) {
		t.Errorf("Reset() on open list error = %v", err)
	}

	l.SetMarker("m")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); !errors.Is(err, ErrListClosed) {
		t.Errorf("second Close() error = %v", err)
	}
	if err := l.Reset(other); !errors.Is(err, ErrForeignAllocator) {
		t.Errorf("Reset() with copy allocator error = %v", err)
	}
	if err := l.Reset(l.Allocator()); err != nil {
		t.Fatal(err)
	}
	if len(l.Commands()) != 0 {
		t.Error("Reset kept commands")
	}

	if _, err := d.CreateCommandList(gpucore.QueueDirect, other); !errors.Is(err, ErrForeignAllocator) {
		t.Errorf("CreateCommandList() with copy allocator error = %v", err)
	}
}

func TestCommandList_RecordingAfterClose(t *testing.T) {
	d := NewDevice()
	l := newList(t, d, gpucore.QueueDirect)
	_ = l.Close()
	l.Dispatch(1, 1, 1)
	_ = l.Reset(l.Allocator())
	if err := l.Close(); err != nil {
		t.Errorf("sticky error survived Reset: %v", err)
	}
	if len(l.Commands()) != 0 {
		t.Error("command recorded into a closed list")
	}
}

// =============================================================================
// Emulation Tests
// =============================================================================

func TestExecute_BufferCopies(t *testing.T) {
	d := NewDevice()
	src := newBuffer(t, d, 64, gpucore.HeapUpload)
	dst := newBuffer(t, d, 64, gpucore.HeapDefault)
	rb := newBuffer(t, d, 64, gpucore.HeapReadback)
	for i := range src.Mapped() {
		src.Mapped()[i] = byte(i)
	}

	l := newList(t, d, gpucore.QueueCopy)
	l.CopyBufferRegion(dst.Resource(), 16, src.Resource(), 0, 8)
	l.CopyResource(rb.Resource(), dst.Resource())
	if _, err := d.Queue(gpucore.QueueCopy).ExecuteCommandList(l); err != nil {
		t.Fatal(err)
	}

	got := rb.Mapped()
	if got[16] != 0 || got[23] != 7 || got[24] != 0 {
		t.Errorf("readback = %v", got[14:26])
	}
	if src.State() != gpucore.StateGenericRead || rb.State() != gpucore.StateCopyDest {
		t.Errorf("initial states = %s, %s", src.State(), rb.State())
	}
}

func TestExecute_TextureRoundTrip(t *testing.T) {
	d := NewDevice()
	tex, err := d.CreateTexture(gpucore.TextureDesc{Label: "t", Width: 4, Height: 2, Format: gpucore.FormatRGBA8Unorm})
	if err != nil {
		t.Fatal(err)
	}
	const pitch = 256
	up := newBuffer(t, d, 2*pitch, gpucore.HeapUpload)
	for y := range 2 {
		for x := range 16 {
			up.Mapped()[y*pitch+x] = byte(y*16 + x)
		}
	}
	rb := newBuffer(t, d, 2*pitch, gpucore.HeapReadback)
	fp := gpucore.SubresourceFootprint{Width: 4, Height: 2, Depth: 1, Format: gpucore.FormatRGBA8Unorm, RowPitch: pitch}

	l := newList(t, d, gpucore.QueueDirect)
	texLoc := gpucore.TextureCopyLocation{Resource: tex.Resource()}
	l.CopyTextureRegion(texLoc, gpucore.TextureCopyLocation{Resource: up.Resource(), Footprint: &fp})
	l.CopyTextureRegion(gpucore.TextureCopyLocation{Resource: rb.Resource(), Footprint: &fp}, texLoc)
	if _, err := d.Queue(gpucore.QueueDirect).ExecuteCommandList(l); err != nil {
		t.Fatal(err)
	}

	packed := tex.Native().(*Texture).Subresources[0]
	if packed[16] != 16 || packed[31] != 31 {
		t.Errorf("texel rows = %v", packed)
	}
	if rb.Mapped()[pitch] != 16 || rb.Mapped()[pitch+15] != 31 {
		t.Error("readback rows not pitched")
	}
}

func TestExecute_Queries(t *testing.T) {
	d := NewDevice()
	heap, _ := d.CreateQueryHeap(gpucore.QueryTimestamp, 2)
	rb := newBuffer(t, d, 24, gpucore.HeapReadback)

	l := newList(t, d, gpucore.QueueDirect)
	l.EndQuery(heap, 0)
	l.EndQuery(heap, 1)
	l.ResolveQueryData(heap, 0, 2, rb.Resource(), 8)
	if _, err := d.Queue(gpucore.QueueDirect).ExecuteCommandList(l); err != nil {
		t.Fatal(err)
	}

	data := rb.Mapped()
	first, second := le64(data[8:]), le64(data[16:])
	if first == 0 || second != first+1000 {
		t.Errorf("timestamps = %d, %d", first, second)
	}
	if le64(data) != 0 {
		t.Error("resolve wrote before dstOffset")
	}
}

func le64(b []byte) uint64 {
	var v uint64
	for i := range 8 {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

func TestDevice_Stats(t *testing.T) {
	d := NewDevice()
	b := newBuffer(t, d, 16, gpucore.HeapDefault)
	_, _ = d.CreateTexture(gpucore.TextureDesc{Label: "t", Width: 1, Height: 1, Format: gpucore.FormatR32Float})
	_, _ = d.CreateDescriptorHeap(gpucore.HeapTypeRTV, 4, false, "rtv")
	if _, err := d.CreateDescriptorHeap(gpucore.HeapTypeDSV, 4, true, "dsv"); err == nil {
		t.Error("shader-visible DSV heap accepted")
	}
	if _, err := d.CreateBuffer(gpucore.BufferDesc{Label: "empty"}); err == nil {
		t.Error("zero-size buffer accepted")
	}

	d.Destroy(b)
	d.Destroy(b)

	want := Stats{Buffers: 1, Textures: 1, DescriptorHeaps: 1, Destroyed: 1}
	if got := d.Stats(); got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
}
