// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package command

import (
	"testing"

	"github.com/gogpu/gfxctx/backend/record"
	"github.com/gogpu/gfxctx/descheap"
	"github.com/gogpu/gfxctx/gpucore"
)

func newTestManager(t *testing.T, devOpts []record.Option, opts ...Option) (*Manager, *record.Device) {
	t.Helper()
	dev := record.NewDevice(devOpts...)
	m, err := NewManager(dev, opts...)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m, dev
}

func newBuffer(t *testing.T, dev gpucore.Device, label string, size uint32, heap gpucore.HeapKind) *gpucore.GpuBuffer {
	t.Helper()
	b, err := dev.CreateBuffer(gpucore.BufferDesc{
		Label:        label,
		ElementCount: size / 4,
		ElementSize:  4,
		Heap:         heap,
		AllowUAV:     heap == gpucore.HeapDefault,
		InitialState: gpucore.StateCommon,
	})
	if err != nil {
		t.Fatalf("CreateBuffer(%s) error = %v", label, err)
	}
	return b
}

func newTexture(t *testing.T, dev gpucore.Device, label string, w, h, slices, mips uint32) *gpucore.Texture {
	t.Helper()
	tex, err := dev.CreateTexture(gpucore.TextureDesc{
		Label:        label,
		Width:        w,
		Height:       h,
		ArraySize:    slices,
		MipLevels:    mips,
		Format:       gpucore.FormatRGBA8Unorm,
		Usage:        gpucore.TextureUsageShaderResource,
		InitialState: gpucore.StateCommon,
	})
	if err != nil {
		t.Fatalf("CreateTexture(%s) error = %v", label, err)
	}
	return tex
}

func newColorBuffer(t *testing.T, dev gpucore.Device, views *descheap.Allocator, rtvs *descheap.Allocator) *gpucore.ColorBuffer {
	t.Helper()
	tex := newTexture(t, dev, "color", 64, 64, 1, 1)
	cb := &gpucore.ColorBuffer{Texture: *tex, ClearColor: [4]float32{0.1, 0.2, 0.3, 1}}
	var err error
	if cb.RTV, err = rtvs.NewView(gpucore.TextureView(gpucore.DescriptorRTV, &cb.Texture)); err != nil {
		t.Fatal(err)
	}
	if cb.SRV, err = views.NewView(gpucore.TextureView(gpucore.DescriptorSRV, &cb.Texture)); err != nil {
		t.Fatal(err)
	}
	return cb
}

// testRootSignature has constants at 0, a CBV at 1, a 4-wide SRV table at 2
// and a 2-wide sampler table at 3.
func testRootSignature(t *testing.T, dev gpucore.Device) *gpucore.RootSignature {
	t.Helper()
	rs := gpucore.NewRootSignature("test",
		gpucore.Constants(0, 4, gpucore.VisibilityAll),
		gpucore.RootView(gpucore.RootCBV, 1, gpucore.VisibilityAll),
		gpucore.Table(gpucore.VisibilityPixel, gpucore.Range(gpucore.RangeSRV, 0, 4)),
		gpucore.Table(gpucore.VisibilityPixel, gpucore.Range(gpucore.RangeSampler, 0, 2)),
	)
	if err := dev.CreateRootSignature(rs); err != nil {
		t.Fatalf("CreateRootSignature() error = %v", err)
	}
	return rs
}

func testGraphicsPSO(t *testing.T, dev gpucore.Device, rs *gpucore.RootSignature, label string) *gpucore.GraphicsPSO {
	t.Helper()
	pso, err := dev.CreateGraphicsPSO(gpucore.GraphicsPSODesc{
		Label:         label,
		RootSignature: rs,
		Topology:      gpucore.TopologyTriangleList,
		RTVFormats:    []gpucore.Format{gpucore.FormatRGBA8Unorm},
	})
	if err != nil {
		t.Fatalf("CreateGraphicsPSO() error = %v", err)
	}
	return pso
}

// lastCommands returns the commands of the most recent submission on q.
func lastCommands(t *testing.T, dev *record.Device, q gpucore.QueueType) []record.Command {
	t.Helper()
	sub, ok := dev.RecordQueue(q).LastSubmission()
	if !ok {
		t.Fatalf("no submission on %s queue", q)
	}
	return sub.Commands
}

// expectContract runs fn and fails unless it panics with a *ContractError.
func expectContract(t *testing.T, fn func()) *ContractError {
	t.Helper()
	var ce *ContractError
	func() {
		defer func() {
			r := recover()
			var ok bool
			if ce, ok = r.(*ContractError); !ok {
				t.Fatalf("panic = %v (%T), want *ContractError", r, r)
			}
		}()
		fn()
	}()
	return ce
}
