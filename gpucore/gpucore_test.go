// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import (
	"errors"
	"testing"
)

// =============================================================================
// ResourceState Tests
// =============================================================================

func TestResourceState_String(t *testing.T) {
	tests := []struct {
		s    ResourceState
		want string
	}{
		{StateCommon, "Common"},
		{StateInvalid, "Invalid"},
		{StateGenericRead, "GenericRead"},
		{StateCopyDest, "CopyDest"},
		{StateShaderResource, "NonPixelShaderResource|PixelShaderResource"},
		{StateRenderTarget | StateResolveSource, "RenderTarget|ResolveSource"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.s.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResourceState_Predicates(t *testing.T) {
	tests := []struct {
		name     string
		s        ResourceState
		compute  bool
		readOnly bool
	}{
		{"common", StateCommon, true, true},
		{"uav", StateUnorderedAccess, true, false},
		{"non-pixel SRV", StateNonPixelShaderResource, true, true},
		{"pixel SRV", StatePixelShaderResource, false, true},
		{"copy dest", StateCopyDest, true, false},
		{"indirect argument", StateIndirectArgument, true, true},
		{"render target", StateRenderTarget, false, false},
		{"generic read", StateGenericRead, false, true},
		{"depth read", StateDepthRead, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.ValidForCompute(); got != tt.compute {
				t.Errorf("ValidForCompute() = %v, want %v", got, tt.compute)
			}
			if got := tt.s.IsReadOnly(); got != tt.readOnly {
				t.Errorf("IsReadOnly() = %v, want %v", got, tt.readOnly)
			}
		})
	}

	if !StateGenericRead.Has(StateCopySource | StateIndexBuffer) {
		t.Error("GenericRead should include CopySource and IndexBuffer")
	}
	if StateInvalid.IsReadOnly() {
		t.Error("Invalid reported read-only")
	}
}

// =============================================================================
// Fence Tests
// =============================================================================

func TestMakeFence(t *testing.T) {
	for _, q := range []QueueType{QueueDirect, QueueBundle, QueueCompute, QueueCopy} {
		f := MakeFence(q, 42)
		if FenceQueue(f) != q {
			t.Errorf("FenceQueue(MakeFence(%s)) = %s", q, FenceQueue(f))
		}
		if f&(1<<fenceShift-1) != 42 {
			t.Errorf("value bits of %#x lost", f)
		}
	}
	if MakeFence(QueueDirect, 0) != 0 {
		t.Error("direct fence 0 must be zero")
	}
	if MakeFence(QueueCompute, 1) <= MakeFence(QueueDirect, 1<<40) {
		t.Error("queue bits must dominate the value")
	}
}

// =============================================================================
// Root Signature Tests
// =============================================================================

func TestRootSignature_Finalize(t *testing.T) {
	rs := NewRootSignature("rs",
		Constants(0, 4, VisibilityAll),
		Table(VisibilityPixel, Range(RangeSRV, 0, 4), Range(RangeCBV, 0, 2)),
		Table(VisibilityPixel, Range(RangeSampler, 0, 3)),
		RootView(RootUAV, 0, VisibilityCompute),
	)
	if rs.Finalized() {
		t.Fatal("Finalized() before Finalize")
	}
	if err := rs.Finalize(nil); err != nil {
		t.Fatal(err)
	}
	if got := rs.TableMask(HeapTypeCBVSRVUAV); got != 0b0010 {
		t.Errorf("view mask = %b", got)
	}
	if got := rs.TableMask(HeapTypeSampler); got != 0b0100 {
		t.Errorf("sampler mask = %b", got)
	}
	if rs.TableSize(1) != 6 || rs.TableSize(2) != 3 || rs.TableSize(0) != 0 {
		t.Errorf("table sizes = %d %d %d", rs.TableSize(0), rs.TableSize(1), rs.TableSize(2))
	}

	id := rs.ID()
	if err := rs.Finalize(nil); err != nil {
		t.Fatal(err)
	}
	if rs.ID() == id {
		t.Error("Finalize again kept the ID")
	}
}

func TestRootSignature_FinalizeErrors(t *testing.T) {
	tooMany := make([]RootParameter, MaxRootParameters+1)
	for i := range tooMany {
		tooMany[i] = Constants(uint32(i), 1, VisibilityAll) //nolint:gosec // small
	}

	tests := []struct {
		name   string
		params []RootParameter
		want   error
	}{
		{"too many", tooMany, ErrTooManyRootParameters},
		{"empty table", []RootParameter{Table(VisibilityAll)}, ErrEmptyTable},
		{"mixed table", []RootParameter{
			Table(VisibilityAll, Range(RangeSRV, 0, 1), Range(RangeSampler, 0, 1)),
		}, ErrMixedTable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := NewRootSignature(tt.name, tt.params...)
			if err := rs.Finalize(nil); !errors.Is(err, tt.want) {
				t.Errorf("Finalize() error = %v, want %v", err, tt.want)
			}
			if rs.Finalized() {
				t.Error("failed Finalize marked the signature finalized")
			}
		})
	}
}

// =============================================================================
// Resource and Descriptor Tests
// =============================================================================

func TestGpuResource_Init(t *testing.T) {
	var r GpuResource
	if r.IsValid() {
		t.Error("zero resource is valid")
	}
	r.Init("native", StateCopyDest, 0x1000, "buf")
	if !r.IsValid() || r.State() != StateCopyDest || r.TransitioningState() != StateInvalid {
		t.Errorf("after Init: valid=%v state=%s transitioning=%s", r.IsValid(), r.State(), r.TransitioningState())
	}
	first := r.ID()
	r.Init("native", StateCommon, 0x1000, "buf")
	if r.ID() == first {
		t.Error("Init kept the old ID")
	}
	r.Destroy()
	if r.IsValid() {
		t.Error("destroyed resource is valid")
	}
}

func TestBuffer_Address(t *testing.T) {
	var b GpuBuffer
	b.InitBuffer(BufferDesc{Label: "vb", ElementCount: 16, ElementSize: 12, Heap: HeapDefault}, nil, 0x10000, nil)
	if b.Size() != 192 {
		t.Errorf("Size() = %d", b.Size())
	}
	if got := b.Address(64).Address(); got != 0x10040 {
		t.Errorf("Address(64) = %#x", got)
	}
	if v := b.WholeVertexBufferView(); v.Size != 192 || v.Stride != 12 {
		t.Errorf("vertex view = %+v", v)
	}
	if !(BufferAddress{}).IsNull() {
		t.Error("zero address not null")
	}
}

func TestTexture_Subresources(t *testing.T) {
	var tex Texture
	tex.InitTexture(TextureDesc{Label: "t", Width: 100, Height: 30, ArraySize: 3, MipLevels: 4, Format: FormatRGBA8Unorm}, nil)

	if tex.SubresourceCount() != 12 {
		t.Errorf("SubresourceCount() = %d", tex.SubresourceCount())
	}
	if got := tex.Subresource(2, 1); got != 6 {
		t.Errorf("Subresource(2, 1) = %d, want 6", got)
	}
	tests := []struct {
		mip  uint32
		w, h uint32
	}{
		{0, 100, 30}, {1, 50, 15}, {2, 25, 7}, {3, 12, 3},
	}
	for _, tt := range tests {
		if w, h := tex.MipSize(tt.mip); w != tt.w || h != tt.h {
			t.Errorf("MipSize(%d) = %dx%d, want %dx%d", tt.mip, w, h, tt.w, tt.h)
		}
	}
}

func TestDescriptorHeap_Handles(t *testing.T) {
	h := NewDescriptorHeap(HeapTypeCBVSRVUAV, 8, true, "views")

	var b GpuBuffer
	b.InitBuffer(BufferDesc{Label: "b", ElementCount: 4, ElementSize: 4}, nil, 0, nil)

	cpu := h.CPUHandle(2)
	cpu.Write(BufferSRV(&b))
	CopyDescriptors(h.CPUHandle(5), []CPUDescriptorHandle{cpu, {}})

	table := h.GPUHandle(5).Table(2)
	if table[0].Kind != DescriptorSRV || table[0].Resource != b.Resource() {
		t.Errorf("copied descriptor = %+v", table[0])
	}
	if table[1].Kind != DescriptorNone {
		t.Errorf("null source copied %+v", table[1])
	}

	staging := NewDescriptorHeap(HeapTypeCBVSRVUAV, 4, false, "staging")
	defer func() {
		if recover() == nil {
			t.Error("GPUHandle on a CPU-only heap did not panic")
		}
	}()
	staging.GPUHandle(0)
}

func TestDescriptorKind_HeapType(t *testing.T) {
	tests := []struct {
		k    DescriptorKind
		want DescriptorHeapType
	}{
		{DescriptorCBV, HeapTypeCBVSRVUAV},
		{DescriptorSRV, HeapTypeCBVSRVUAV},
		{DescriptorUAV, HeapTypeCBVSRVUAV},
		{DescriptorSampler, HeapTypeSampler},
		{DescriptorRTV, HeapTypeRTV},
		{DescriptorDSV, HeapTypeDSV},
	}
	for _, tt := range tests {
		if got := tt.k.HeapType(); got != tt.want {
			t.Errorf("%s.HeapType() = %s, want %s", tt.k, got, tt.want)
		}
	}
	if HeapTypeRTV.ShaderVisibleType() || !HeapTypeSampler.ShaderVisibleType() {
		t.Error("ShaderVisibleType() wrong")
	}
}

func TestAssert(t *testing.T) {
	Assert(true, "x", "never")

	defer func() {
		ce, ok := recover().(*ContractError)
		if !ok {
			t.Fatal("Assert(false) did not panic with *ContractError")
		}
		if ce.Error() != "gpucore: contract violation: bad 7" {
			t.Errorf("Error() = %q", ce.Error())
		}
	}()
	Assert(false, "gpucore", "bad %d", 7)
}
