// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package command

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gogpu/gfxctx/backend/record"
	"github.com/gogpu/gfxctx/descheap"
	"github.com/gogpu/gfxctx/gpucore"
)

func newDepthBuffer(t *testing.T, dev gpucore.Device, dsvs *descheap.Allocator) *gpucore.DepthBuffer {
	t.Helper()
	tex, err := dev.CreateTexture(gpucore.TextureDesc{
		Label:        "depth",
		Width:        64,
		Height:       64,
		Format:       gpucore.FormatD32Float,
		Usage:        gpucore.TextureUsageDepthStencil,
		InitialState: gpucore.StateCommon,
	})
	if err != nil {
		t.Fatal(err)
	}
	db := &gpucore.DepthBuffer{Texture: *tex, ClearDepth: 1}
	if db.DSV, err = dsvs.NewView(gpucore.TextureView(gpucore.DescriptorDSV, &db.Texture)); err != nil {
		t.Fatal(err)
	}
	return db
}

// =============================================================================
// DWParam Tests
// =============================================================================

func TestDWParam(t *testing.T) {
	tests := []struct {
		name string
		p    DWParam
		want uint32
	}{
		{"uint", Uint(42), 42},
		{"int", Int(-1), 0xFFFFFFFF},
		{"float", Float(1.5), math.Float32bits(1.5)},
		{"zero float", Float(0), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if uint32(tt.p) != tt.want {
				t.Errorf("got %#x, want %#x", uint32(tt.p), tt.want)
			}
		})
	}

	long := make([]DWParam, 20)
	for i := range long {
		long[i] = Uint(uint32(i)) //nolint:gosec // small
	}
	if words := paramWords(long); len(words) != 20 || words[19] != 19 {
		t.Errorf("paramWords() = %v", words)
	}
}

// =============================================================================
// Render Pass Tests
// =============================================================================

func TestGraphics_RenderPassSetup(t *testing.T) {
	m, dev := newTestManager(t, nil)
	views := descheap.NewAllocator(dev, gpucore.HeapTypeCBVSRVUAV, 0)
	rtvs := descheap.NewAllocator(dev, gpucore.HeapTypeRTV, 0)
	dsvs := descheap.NewAllocator(dev, gpucore.HeapTypeDSV, 0)
	cb := newColorBuffer(t, dev, views, rtvs)
	db := newDepthBuffer(t, dev, dsvs)

	gfx, _ := m.BeginGraphics("Scene")
	gfx.TransitionResource(cb, gpucore.StateRenderTarget, false)
	gfx.TransitionResource(db, gpucore.StateDepthWrite, false)
	gfx.ClearColor(cb)
	gfx.ClearDepth(db)
	gfx.SetRenderTarget(cb.RTV, db.DSV)
	gfx.SetViewportAndScissor(0, 0, 64, 32)
	gfx.SetPrimitiveTopology(gpucore.TopologyTriangleList)
	gfx.SetStencilRef(3)
	gfx.SetBlendFactor([4]float32{1, 1, 1, 1})
	if _, err := gfx.Finish(false); err != nil {
		t.Fatal(err)
	}

	cmds := lastCommands(t, dev, gpucore.QueueDirect)
	want := []record.Op{
		record.OpBeginEvent,
		record.OpBarrier,
		record.OpClearRenderTarget,
		record.OpClearDepthStencil,
		record.OpSetRenderTargets,
		record.OpSetViewports,
		record.OpSetScissors,
		record.OpSetTopology,
		record.OpSetStencilRef,
		record.OpSetBlendFactor,
		record.OpEndEvent,
	}
	ops := record.Ops(cmds)
	if len(ops) != len(want) {
		t.Fatalf("ops = %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Fatalf("ops = %v, want %v", ops, want)
		}
	}

	rtClear := cmds[2]
	if rtClear.CPUHandle != cb.RTV || rtClear.Color != cb.ClearColor {
		t.Errorf("clear = %+v", rtClear)
	}
	if cmds[3].ClearFlags != gpucore.ClearDepth || cmds[3].Depth != 1 {
		t.Errorf("depth clear = %+v", cmds[3])
	}
	vp := cmds[5].Viewports[0]
	if vp.Width != 64 || vp.Height != 32 || vp.MaxDepth != 1 {
		t.Errorf("viewport = %+v", vp)
	}
	if r := cmds[6].Rects[0]; r.Right != 64 || r.Bottom != 32 {
		t.Errorf("scissor = %+v", r)
	}
}

func TestGraphics_ClearDepthRequiresDepthWrite(t *testing.T) {
	m, dev := newTestManager(t, nil)
	db := newDepthBuffer(t, dev, descheap.NewAllocator(dev, gpucore.HeapTypeDSV, 0))

	gfx, _ := m.BeginGraphics("")
	expectContract(t, func() { gfx.ClearDepthAndStencil(db) })
	gfx.TransitionResource(db, gpucore.StateDepthWrite, false)
	gfx.ClearStencil(db)
	_, _ = gfx.Finish(false)
}

func TestGraphics_EmptyScissor(t *testing.T) {
	m, _ := newTestManager(t, nil)

	gfx, _ := m.BeginGraphics("")
	expectContract(t, func() { gfx.SetScissor(gpucore.Rect{Left: 4, Right: 4, Bottom: 8}) })
	_, _ = gfx.Finish(false)
}

// =============================================================================
// Draw Argument Tests
// =============================================================================

func TestGraphics_Draws(t *testing.T) {
	m, dev := newTestManager(t, nil)
	rs := testRootSignature(t, dev)

	gfx, _ := m.BeginGraphics("")
	gfx.SetRootSignature(rs)
	gfx.SetConstants(0, Uint(7), Float(2))
	gfx.SetConstant(0, 3, Int(-2))
	gfx.DrawIndexed(36, 6, -4)
	gfx.DrawInstanced(3, 10, 1, 2)
	_, _ = gfx.Finish(false)

	cmds := lastCommands(t, dev, gpucore.QueueDirect)
	var consts []record.Command
	var draws []record.Command
	for _, c := range cmds {
		switch c.Op {
		case record.OpSetRootConstants:
			consts = append(consts, c)
		case record.OpDraw, record.OpDrawIndexed:
			draws = append(draws, c)
		}
	}
	if len(consts) != 2 || consts[0].Values[0] != 7 || consts[0].Values[1] != math.Float32bits(2) || consts[1].Offset != 3 {
		t.Errorf("constants = %v", consts)
	}
	if len(draws) != 2 {
		t.Fatalf("draws = %v", draws)
	}
	if draws[0].Args != [4]uint32{36, 1, 6, 0} || draws[0].BaseVertex != -4 {
		t.Errorf("indexed draw = %v %d", draws[0].Args, draws[0].BaseVertex)
	}
	if draws[1].Args != [4]uint32{3, 10, 1, 2} {
		t.Errorf("instanced draw = %v", draws[1].Args)
	}
}

func TestGraphics_DynamicGeometry(t *testing.T) {
	m, dev := newTestManager(t, nil)

	gfx, _ := m.BeginGraphics("")
	verts := make([]byte, 3*12)
	for i := range 9 {
		binary.LittleEndian.PutUint32(verts[i*4:], math.Float32bits(float32(i)))
	}
	if err := gfx.SetDynamicVB(0, 3, 12, verts); err != nil {
		t.Fatal(err)
	}
	if err := gfx.SetDynamicVB(1, 4, 12, verts); err == nil {
		t.Error("SetDynamicVB() accepted short data")
	}
	if err := gfx.SetDynamicIB([]uint16{0, 1, 2}); err != nil {
		t.Fatal(err)
	}
	if err := gfx.SetDynamicConstantBufferView(1, make([]byte, 64)); err != nil {
		t.Fatal(err)
	}
	_, _ = gfx.Finish(false)

	cmds := lastCommands(t, dev, gpucore.QueueDirect)
	for _, c := range cmds {
		switch c.Op {
		case record.OpSetVertexBuffers:
			vb := c.VertexBuffers[0]
			if vb.Size != 36 || vb.Stride != 12 {
				t.Errorf("vertex buffer view = %+v", vb)
			}
			data := vb.Location.Resource.Native().(*record.Buffer).Data[vb.Location.Offset:]
			if got := math.Float32frombits(binary.LittleEndian.Uint32(data[32:])); got != 8 {
				t.Errorf("last vertex component = %v, want 8", got)
			}
		case record.OpSetIndexBuffer:
			ib := c.IndexBuffer
			if ib.Format != gpucore.IndexFormatUint16 || ib.Size != 6 {
				t.Errorf("index buffer view = %+v", ib)
			}
			data := ib.Location.Resource.Native().(*record.Buffer).Data[ib.Location.Offset:]
			if binary.LittleEndian.Uint16(data[4:]) != 2 {
				t.Errorf("index 2 = %d", binary.LittleEndian.Uint16(data[4:]))
			}
		case record.OpSetRootView:
			if c.ViewKind != gpucore.RootCBV || c.Root != 1 || c.Address.Offset%256 != 0 {
				t.Errorf("root view = %+v", c)
			}
		}
	}
}

func TestGraphics_DrawIndirect(t *testing.T) {
	m, dev := newTestManager(t, nil)
	args := newBuffer(t, dev, "args", 64, gpucore.HeapDefault)

	gfx, _ := m.BeginGraphics("")
	gfx.TransitionResource(args, gpucore.StateIndirectArgument, false)
	gfx.DrawIndirect(args, 16)
	gfx.DrawIndexedIndirect(args, 32)
	expectContract(t, func() { gfx.ExecuteIndirect(nil, args, 0, 1, nil, 0) })
	_, _ = gfx.Finish(false)

	var sigs []*gpucore.CommandSignature
	for _, c := range lastCommands(t, dev, gpucore.QueueDirect) {
		if c.Op == record.OpExecuteIndirect {
			sigs = append(sigs, c.Signature)
			if !c.Count.IsNull() {
				t.Error("count buffer set without one")
			}
		}
	}
	if len(sigs) != 2 {
		t.Fatalf("indirect commands = %d, want 2", len(sigs))
	}
	if sigs[0].ArgumentType() != gpucore.IndirectDraw || sigs[1].ArgumentType() != gpucore.IndirectDrawIndexed {
		t.Errorf("signatures = %s, %s", sigs[0].ArgumentType(), sigs[1].ArgumentType())
	}
}

func TestGraphics_ClearUAV(t *testing.T) {
	m, dev := newTestManager(t, nil)
	views := descheap.NewAllocator(dev, gpucore.HeapTypeCBVSRVUAV, 0)
	buf := newBuffer(t, dev, "uav", 64, gpucore.HeapDefault)
	buf.UAV, _ = views.NewView(gpucore.BufferUAV(buf))
	buf.Native().(*record.Buffer).Data[8] = 0xFF

	gfx, _ := m.BeginGraphics("")
	gfx.TransitionResource(buf, gpucore.StateUnorderedAccess, false)
	gfx.ClearUAV(buf)
	_, _ = gfx.Finish(true)

	cmds := lastCommands(t, dev, gpucore.QueueDirect)
	if record.Count(cmds, record.OpClearUAV) != 1 {
		t.Fatalf("ops = %v", record.Ops(cmds))
	}
	if buf.Native().(*record.Buffer).Data[8] != 0 {
		t.Error("buffer not cleared")
	}
}

func TestGraphics_ClearColorUAV(t *testing.T) {
	m, dev := newTestManager(t, nil)
	views := descheap.NewAllocator(dev, gpucore.HeapTypeCBVSRVUAV, 0)
	rtvs := descheap.NewAllocator(dev, gpucore.HeapTypeRTV, 0)
	cb := newColorBuffer(t, dev, views, rtvs)
	cb.ClearColor = [4]float32{0.25, -1, 0.5, 1}

	gfx, _ := m.BeginGraphics("")
	expectContract(t, func() { gfx.ClearColorUAV(cb) })

	var err error
	if cb.UAV, err = views.NewView(gpucore.TextureView(gpucore.DescriptorUAV, &cb.Texture)); err != nil {
		t.Fatal(err)
	}
	gfx.TransitionResource(cb, gpucore.StateUnorderedAccess, false)
	gfx.ClearColorUAV(cb)
	_, _ = gfx.Finish(false)

	var clear *record.Command
	cmds := lastCommands(t, dev, gpucore.QueueDirect)
	for i := range cmds {
		if cmds[i].Op == record.OpClearUAV {
			clear = &cmds[i]
		}
	}
	if clear == nil {
		t.Fatalf("ops = %v", record.Ops(cmds))
	}
	if clear.Dst != cb.Resource() || clear.CPUHandle != cb.UAV {
		t.Errorf("clear targets %v / %v", clear.Dst, clear.CPUHandle)
	}
	for i, f := range cb.ClearColor {
		if clear.Values[i] != math.Float32bits(f) {
			t.Errorf("Values[%d] = %#x, want bits of %g", i, clear.Values[i], f)
		}
	}
}
