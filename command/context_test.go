// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package command

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/gfxctx/backend/record"
	"github.com/gogpu/gfxctx/descheap"
	"github.com/gogpu/gfxctx/gpucore"
	"github.com/gogpu/gfxctx/linalloc"
)

// =============================================================================
// Transition Tests
// =============================================================================

func TestTransitionResource_LastStateWins(t *testing.T) {
	tests := []struct {
		name     string
		states   []gpucore.ResourceState
		barriers int
	}{
		{"single", []gpucore.ResourceState{gpucore.StateCopyDest}, 1},
		{"same state", []gpucore.ResourceState{gpucore.StateCommon}, 0},
		{"repeated", []gpucore.ResourceState{gpucore.StateCopyDest, gpucore.StateCopyDest}, 1},
		{"chain", []gpucore.ResourceState{
			gpucore.StateCopyDest, gpucore.StateShaderResource, gpucore.StateUnorderedAccess,
		}, 3},
		{"round trip", []gpucore.ResourceState{gpucore.StateCopyDest, gpucore.StateCommon}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, dev := newTestManager(t, nil)
			buf := newBuffer(t, dev, "buf", 256, gpucore.HeapDefault)

			ctx, err := m.Begin("")
			if err != nil {
				t.Fatal(err)
			}
			for _, s := range tt.states {
				ctx.TransitionResource(buf, s, false)
				if buf.State() != s {
					t.Fatalf("State() = %s right after transition to %s", buf.State(), s)
				}
			}
			if got := ctx.PendingBarriers(); got != tt.barriers {
				t.Errorf("PendingBarriers() = %d, want %d", got, tt.barriers)
			}
			if _, err := ctx.Finish(false); err != nil {
				t.Fatal(err)
			}

			cmds := lastCommands(t, dev, gpucore.QueueDirect)
			if got := len(record.Barriers(cmds)); got != tt.barriers {
				t.Errorf("flushed %d barriers, want %d", got, tt.barriers)
			}
			if want := tt.states[len(tt.states)-1]; buf.State() != want {
				t.Errorf("final State() = %s, want %s", buf.State(), want)
			}
		})
	}
}

func TestFlushResourceBarriers_Idempotent(t *testing.T) {
	m, dev := newTestManager(t, nil)
	a := newBuffer(t, dev, "a", 256, gpucore.HeapDefault)
	b := newBuffer(t, dev, "b", 256, gpucore.HeapDefault)

	ctx, _ := m.Begin("")
	ctx.TransitionResource(a, gpucore.StateCopyDest, false)
	ctx.TransitionResource(b, gpucore.StateCopySource, false)
	ctx.FlushResourceBarriers()
	ctx.FlushResourceBarriers()
	if _, err := ctx.Finish(false); err != nil {
		t.Fatal(err)
	}

	cmds := lastCommands(t, dev, gpucore.QueueDirect)
	if got := record.Count(cmds, record.OpBarrier); got != 1 {
		t.Errorf("barrier batches = %d, want 1", got)
	}
	if got := len(record.Barriers(cmds)); got != 2 {
		t.Errorf("barriers = %d, want 2", got)
	}
}

func TestTransitionResource_FlushImmediate(t *testing.T) {
	m, dev := newTestManager(t, nil)
	a := newBuffer(t, dev, "a", 256, gpucore.HeapDefault)

	ctx, _ := m.Begin("")
	ctx.TransitionResource(a, gpucore.StateCopyDest, true)
	if ctx.PendingBarriers() != 0 {
		t.Errorf("PendingBarriers() = %d after flushImmediate", ctx.PendingBarriers())
	}
	_, _ = ctx.Finish(false)
}

func TestTransitionResource_AutoFlushWhenFull(t *testing.T) {
	m, dev := newTestManager(t, nil)

	ctx, _ := m.Begin("")
	for i := range MaxPendingBarriers + 3 {
		buf := newBuffer(t, dev, "buf", 256, gpucore.HeapDefault)
		ctx.TransitionResource(buf, gpucore.StateCopyDest, false)
		if ctx.PendingBarriers() >= MaxPendingBarriers {
			t.Fatalf("after %d transitions %d barriers pending", i+1, ctx.PendingBarriers())
		}
	}
	if _, err := ctx.Finish(false); err != nil {
		t.Fatal(err)
	}

	cmds := lastCommands(t, dev, gpucore.QueueDirect)
	if got := len(record.Barriers(cmds)); got != MaxPendingBarriers+3 {
		t.Errorf("barriers = %d, want %d", got, MaxPendingBarriers+3)
	}
	if got := record.Count(cmds, record.OpBarrier); got != 2 {
		t.Errorf("barrier batches = %d, want 2", got)
	}
}

func TestBeginResourceTransition_Split(t *testing.T) {
	m, dev := newTestManager(t, nil)
	buf := newBuffer(t, dev, "split", 256, gpucore.HeapDefault)

	ctx, _ := m.Begin("")
	ctx.BeginResourceTransition(buf, gpucore.StateShaderResource, false)
	if buf.State() != gpucore.StateCommon {
		t.Errorf("State() = %s during split transition, want Common", buf.State())
	}
	if buf.TransitioningState() != gpucore.StateShaderResource {
		t.Errorf("TransitioningState() = %s", buf.TransitioningState())
	}
	ctx.TransitionResource(buf, gpucore.StateShaderResource, false)
	if buf.TransitioningState() != gpucore.StateInvalid {
		t.Errorf("TransitioningState() = %s after end, want Invalid", buf.TransitioningState())
	}
	_, _ = ctx.Finish(false)

	bs := record.Barriers(lastCommands(t, dev, gpucore.QueueDirect))
	if len(bs) != 2 {
		t.Fatalf("barriers = %v, want begin and end", bs)
	}
	if bs[0].Flags != gpucore.BarrierFlagBeginOnly || bs[1].Flags != gpucore.BarrierFlagEndOnly {
		t.Errorf("flags = %v, %v", bs[0].Flags, bs[1].Flags)
	}
}

func TestInsertUAVAndAliasBarriers(t *testing.T) {
	m, dev := newTestManager(t, nil)
	a := newBuffer(t, dev, "a", 256, gpucore.HeapDefault)
	b := newBuffer(t, dev, "b", 256, gpucore.HeapDefault)

	ctx, _ := m.Begin("")
	ctx.InsertUAVBarrier(a, false)
	ctx.InsertAliasBarrier(a, b, true)
	_, _ = ctx.Finish(false)

	bs := record.Barriers(lastCommands(t, dev, gpucore.QueueDirect))
	if len(bs) != 2 || bs[0].Kind != gpucore.BarrierUAV || bs[1].Kind != gpucore.BarrierAliasing {
		t.Fatalf("barriers = %v", bs)
	}
	if bs[1].AliasBefore != a.Resource() || bs[1].Resource != b.Resource() {
		t.Errorf("alias barrier = %v", bs[1])
	}
}

// =============================================================================
// Scenario Tests
// =============================================================================

func TestCopyBuffer_TwoBarriers(t *testing.T) {
	m, dev := newTestManager(t, nil)
	a := newBuffer(t, dev, "A", 256, gpucore.HeapDefault)
	b := newBuffer(t, dev, "B", 256, gpucore.HeapDefault)

	ctx, _ := m.Begin("copy")
	ctx.TransitionResource(a, gpucore.StateCopyDest, false)
	ctx.TransitionResource(b, gpucore.StateCopySource, false)
	ctx.CopyBuffer(a, b)
	if _, err := ctx.Finish(false); err != nil {
		t.Fatal(err)
	}

	cmds := lastCommands(t, dev, gpucore.QueueDirect)
	if got := len(record.Barriers(cmds)); got != 2 {
		t.Errorf("barriers = %d, want 2", got)
	}
	ops := record.Ops(cmds)
	var barrierAt, copyAt int
	for i, op := range ops {
		switch op {
		case record.OpBarrier:
			barrierAt = i
		case record.OpCopyResource:
			copyAt = i
		}
	}
	if barrierAt > copyAt {
		t.Errorf("ops = %v, barriers must precede the copy", ops)
	}
	if a.State() != gpucore.StateCopyDest || b.State() != gpucore.StateCopySource {
		t.Errorf("states = %s, %s", a.State(), b.State())
	}
}

func TestDraw_NoStateChange(t *testing.T) {
	m, dev := newTestManager(t, nil)
	rs := testRootSignature(t, dev)
	pso := testGraphicsPSO(t, dev, rs, "plain")

	gfx, _ := m.BeginGraphics("")
	gfx.SetRootSignature(rs)
	gfx.SetPipelineState(pso)
	gfx.Draw(3, 0)
	if _, err := gfx.Finish(false); err != nil {
		t.Fatal(err)
	}

	cmds := lastCommands(t, dev, gpucore.QueueDirect)
	if got := record.Count(cmds, record.OpBarrier); got != 0 {
		t.Errorf("barrier batches = %d, want 0", got)
	}
	if got := record.Count(cmds, record.OpSetRootTable); got != 0 {
		t.Errorf("descriptor table commits = %d, want 0", got)
	}
	if got := record.Count(cmds, record.OpDraw); got != 1 {
		t.Errorf("draws = %d, want 1", got)
	}
}

func TestDraw_CommitsStagedTables(t *testing.T) {
	m, dev := newTestManager(t, nil)
	rs := testRootSignature(t, dev)
	views := descheap.NewAllocator(dev, gpucore.HeapTypeCBVSRVUAV, 0)
	samplers := descheap.NewAllocator(dev, gpucore.HeapTypeSampler, 0)

	tex := newTexture(t, dev, "albedo", 8, 8, 1, 1)
	srv, _ := views.NewView(gpucore.TextureView(gpucore.DescriptorSRV, tex))
	smp, _ := samplers.NewView(gpucore.Sampler(gpucore.SamplerDesc{Filter: gpucore.FilterLinear}))

	gfx, _ := m.BeginGraphics("")
	gfx.SetRootSignature(rs)
	gfx.TransitionResource(tex, gpucore.StatePixelShaderResource, false)
	gfx.SetDynamicDescriptor(2, 0, srv)
	gfx.SetDynamicSampler(3, 0, smp)
	gfx.Draw(3, 0)
	gfx.Draw(3, 0)
	_, _ = gfx.Finish(false)

	cmds := lastCommands(t, dev, gpucore.QueueDirect)
	if got := record.Count(cmds, record.OpSetRootTable); got != 2 {
		t.Errorf("table commits = %d, want 2 (second draw reuses them)", got)
	}

	// barrier, then the view table, then the sampler table, then the draw
	var order []record.Op
	for _, c := range cmds {
		switch c.Op {
		case record.OpBarrier, record.OpSetRootTable, record.OpDraw:
			order = append(order, c.Op)
		}
	}
	want := []record.Op{record.OpBarrier, record.OpSetRootTable, record.OpSetRootTable, record.OpDraw, record.OpDraw}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}

	for _, c := range cmds {
		if c.Op == record.OpSetRootTable && c.Root == 2 {
			if got := c.Table.Table(1)[0]; got.Resource != tex.Resource() {
				t.Errorf("committed SRV resource = %v, want albedo", got.Resource)
			}
		}
	}
}

func TestBeginFinishBegin_ReusesResetContext(t *testing.T) {
	m, dev := newTestManager(t, nil)
	rs := testRootSignature(t, dev)
	pso := testGraphicsPSO(t, dev, rs, "p")

	first, _ := m.BeginGraphics("first")
	first.SetRootSignature(rs)
	first.SetPipelineState(pso)
	first1 := first.Context
	_, _ = first.Finish(false)

	second, _ := m.BeginGraphics("second")
	if second.Context != first1 {
		t.Fatal("second Begin returned a different context")
	}
	if second.Label() != "second" {
		t.Errorf("Label() = %q", second.Label())
	}
	second.SetRootSignature(rs)
	second.SetPipelineState(pso)
	_, _ = second.Finish(false)

	cmds := lastCommands(t, dev, gpucore.QueueDirect)
	if record.Count(cmds, record.OpSetRootSignature) != 1 || record.Count(cmds, record.OpSetPipelineState) != 1 {
		t.Errorf("ops = %v, want root signature and pipeline bound again after reset", record.Ops(cmds))
	}
	if m.ContextCount(gpucore.QueueDirect) != 1 {
		t.Errorf("ContextCount() = %d, want 1", m.ContextCount(gpucore.QueueDirect))
	}
}

// =============================================================================
// Rebind Elision Tests
// =============================================================================

func TestSetPipelineState_Elided(t *testing.T) {
	m, dev := newTestManager(t, nil)
	rs := testRootSignature(t, dev)
	p1 := testGraphicsPSO(t, dev, rs, "p1")
	p2 := testGraphicsPSO(t, dev, rs, "p2")

	gfx, _ := m.BeginGraphics("")
	gfx.SetRootSignature(rs)
	gfx.SetRootSignature(rs)
	for range 3 {
		gfx.SetPipelineState(p1)
	}
	gfx.SetPipelineState(p2)
	gfx.SetPipelineState(p2)
	_, _ = gfx.Finish(false)

	cmds := lastCommands(t, dev, gpucore.QueueDirect)
	if got := record.Count(cmds, record.OpSetRootSignature); got != 1 {
		t.Errorf("root signature binds = %d, want 1", got)
	}
	if got := record.Count(cmds, record.OpSetPipelineState); got != 2 {
		t.Errorf("pipeline binds = %d, want 2", got)
	}
}

func TestSetDescriptorHeap_Elided(t *testing.T) {
	m, dev := newTestManager(t, nil)
	heap, _ := dev.CreateDescriptorHeap(gpucore.HeapTypeCBVSRVUAV, 16, true, "h")
	other, _ := dev.CreateDescriptorHeap(gpucore.HeapTypeSampler, 16, true, "s")

	ctx, _ := m.Begin("")
	ctx.SetDescriptorHeap(gpucore.HeapTypeCBVSRVUAV, heap)
	ctx.SetDescriptorHeap(gpucore.HeapTypeCBVSRVUAV, heap)
	ctx.SetDescriptorHeaps(heap, other)
	ctx.SetDescriptorHeaps(heap, other)
	_, _ = ctx.Finish(false)

	cmds := lastCommands(t, dev, gpucore.QueueDirect)
	if got := record.Count(cmds, record.OpSetDescriptorHeaps); got != 2 {
		t.Errorf("heap binds = %d, want 2", got)
	}
}

// =============================================================================
// Flush Tests
// =============================================================================

func TestFlush_KeepsContextAndRebinds(t *testing.T) {
	m, dev := newTestManager(t, nil)
	rs := testRootSignature(t, dev)
	pso := testGraphicsPSO(t, dev, rs, "p")

	gfx, _ := m.BeginGraphics("")
	gfx.SetRootSignature(rs)
	gfx.SetPipelineState(pso)
	gfx.Draw(3, 0)
	fence, err := gfx.Flush(true)
	if err != nil {
		t.Fatal(err)
	}
	if !m.IsFenceComplete(fence) {
		t.Error("fence not complete after Flush(true)")
	}

	gfx.SetPipelineState(pso)
	gfx.Draw(3, 0)
	_, _ = gfx.Finish(false)

	subs := dev.RecordQueue(gpucore.QueueDirect).Submissions()
	if len(subs) != 2 {
		t.Fatalf("submissions = %d, want 2", len(subs))
	}
	second := subs[1].Commands
	if record.Count(second, record.OpSetRootSignature) != 1 || record.Count(second, record.OpSetPipelineState) != 1 {
		t.Errorf("second list ops = %v, want cached bindings restored", record.Ops(second))
	}
	if m.AvailableCount(gpucore.QueueDirect) != 1 {
		t.Error("context not returned after Finish")
	}
}

func TestFinish_EventBracketsList(t *testing.T) {
	m, dev := newTestManager(t, nil)

	ctx, _ := m.Begin("Scene")
	ctx.SetMarker("mid")
	_, _ = ctx.Finish(false)

	cmds := lastCommands(t, dev, gpucore.QueueDirect)
	if cmds[0].Op != record.OpBeginEvent || cmds[0].Label != "Scene" {
		t.Errorf("first command = %v", cmds[0])
	}
	if cmds[len(cmds)-1].Op != record.OpEndEvent {
		t.Errorf("last command = %v", cmds[len(cmds)-1])
	}
}

func TestFinish_DeviceLost(t *testing.T) {
	m, dev := newTestManager(t, nil)

	ctx, _ := m.Begin("lost")
	dev.Lose()
	_, err := ctx.Finish(false)
	if !errors.Is(err, gpucore.ErrDeviceLost) {
		t.Fatalf("Finish() error = %v, want ErrDeviceLost", err)
	}
	if m.AvailableCount(gpucore.QueueDirect) != 1 {
		t.Error("context must return to the pool even when Finish fails")
	}
}

// =============================================================================
// Copy and Upload Memory Tests
// =============================================================================

func TestWriteBuffer(t *testing.T) {
	m, dev := newTestManager(t, nil)
	dst := newBuffer(t, dev, "dst", 64, gpucore.HeapDefault)

	ctx, _ := m.Begin("")
	if err := ctx.WriteBuffer(dst, 8, []byte{1, 2, 3, 4, 5, 6, 7, 8}); err != nil {
		t.Fatal(err)
	}
	if err := ctx.WriteBuffer(dst, 0, []byte{1, 2, 3}); !errors.Is(err, ErrUnalignedWrite) {
		t.Errorf("unaligned WriteBuffer() = %v, want ErrUnalignedWrite", err)
	}
	if _, err := ctx.Finish(true); err != nil {
		t.Fatal(err)
	}

	data := dst.Native().(*record.Buffer).Data
	if string(data[8:16]) != string([]byte{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Errorf("dst[8:16] = %v", data[8:16])
	}
}

func TestFillBufferAndResetCounter(t *testing.T) {
	m, dev := newTestManager(t, nil)
	buf := newBuffer(t, dev, "append", 64, gpucore.HeapDefault)
	buf.Counter = newBuffer(t, dev, "counter", 4, gpucore.HeapDefault)

	ctx, _ := m.Begin("")
	if err := ctx.ResetCounter(buf, 7); err != nil {
		t.Fatal(err)
	}
	readback := newBuffer(t, dev, "rb", 16, gpucore.HeapReadback)
	ctx.CopyCounter(readback, 4, buf)
	_, _ = ctx.Finish(true)

	data := readback.Mapped()
	if data[4] != 7 || data[5] != 0 {
		t.Errorf("counter readback = %v, want 7", data[4:8])
	}
}

func TestReserveUploadMemory(t *testing.T) {
	m, _ := newTestManager(t, nil)

	ctx, _ := m.Begin("")
	a, err := ctx.ReserveUploadMemory(100)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := ctx.ReserveUploadMemory(100)
	if a.Buffer != b.Buffer || b.Offset != 256 {
		t.Errorf("second allocation at offset %d, want 256 in the same page", b.Offset)
	}
	if len(a.Data) != 256 {
		t.Errorf("len(Data) = %d, want 256", len(a.Data))
	}
	if a.GPUAddress()%256 != 0 {
		t.Errorf("GPUAddress %#x not 256-aligned", a.GPUAddress())
	}
	_, _ = ctx.Finish(false)
}

func TestCopySubresource(t *testing.T) {
	m, dev := newTestManager(t, nil)
	src := newTexture(t, dev, "src", 4, 4, 1, 2)
	dst := newTexture(t, dev, "dst", 4, 4, 1, 2)
	srcMip := src.Native().(*record.Texture).Subresources[1]
	for i := range srcMip {
		srcMip[i] = 0xAB
	}

	ctx, _ := m.Begin("copy")
	ctx.CopySubresource(dst, 1, src, 1)
	if _, err := ctx.Finish(true); err != nil {
		t.Fatal(err)
	}

	cmds := lastCommands(t, dev, gpucore.QueueDirect)
	if got := len(record.Barriers(cmds)); got != 2 {
		t.Errorf("barriers = %d, want 2", got)
	}
	var copyCmd *record.Command
	for i, c := range cmds {
		if c.Op == record.OpCopyTextureRegion {
			copyCmd = &cmds[i]
		}
		if c.Op == record.OpBarrier && copyCmd != nil {
			t.Errorf("ops = %v, barriers must precede the copy", record.Ops(cmds))
		}
	}
	if copyCmd == nil {
		t.Fatalf("ops = %v, want a texture copy", record.Ops(cmds))
	}
	if copyCmd.DstLoc.Resource != dst.Resource() || copyCmd.DstLoc.Subresource != 1 {
		t.Errorf("dst location = %+v", copyCmd.DstLoc)
	}
	if copyCmd.SrcLoc.Resource != src.Resource() || copyCmd.SrcLoc.Subresource != 1 {
		t.Errorf("src location = %+v", copyCmd.SrcLoc)
	}
	if dst.State() != gpucore.StateCopyDest || src.State() != gpucore.StateCopySource {
		t.Errorf("states = %s, %s", dst.State(), src.State())
	}
	if got := dst.Native().(*record.Texture).Subresources[1][0]; got != 0xAB {
		t.Errorf("copied byte = %#x, want 0xab", got)
	}
}

func TestReserveScratchMemory(t *testing.T) {
	m, _ := newTestManager(t, nil)

	ctx, _ := m.Begin("")
	a, err := ctx.ReserveScratchMemory(100)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := ctx.ReserveScratchMemory(100)
	if a.Data != nil {
		t.Error("scratch memory must not be CPU visible")
	}
	if a.Buffer.Heap() != gpucore.HeapDefault {
		t.Errorf("page heap = %s, want default", a.Buffer.Heap())
	}
	if m.gpuPages.Kind() != linalloc.GPUExclusive || a.Buffer.Size() != m.gpuPages.PageSize() {
		t.Errorf("page size = %d from %s pages", a.Buffer.Size(), m.gpuPages.Kind())
	}
	if a.Buffer != b.Buffer || b.Offset != 256 {
		t.Errorf("second allocation at offset %d, want 256 in the same page", b.Offset)
	}
	up, _ := ctx.ReserveUploadMemory(100)
	if up.Buffer == a.Buffer {
		t.Error("scratch and upload memory share a page")
	}
	_, _ = ctx.Finish(false)
}

// =============================================================================
// Contract Tests
// =============================================================================

func TestContract_UseAfterFinish(t *testing.T) {
	m, dev := newTestManager(t, nil)
	buf := newBuffer(t, dev, "buf", 256, gpucore.HeapDefault)

	ctx, _ := m.Begin("done")
	_, _ = ctx.Finish(false)

	ce := expectContract(t, func() { ctx.TransitionResource(buf, gpucore.StateCopyDest, false) })
	if !strings.Contains(ce.Rule, "after Finish") {
		t.Errorf("Rule = %q", ce.Rule)
	}
	expectContract(t, func() { _, _ = ctx.Finish(false) })
}

func TestContract_GraphicsOnCompute(t *testing.T) {
	m, _ := newTestManager(t, nil)

	cmp, err := m.BeginCompute("async", true)
	if err != nil {
		t.Fatal(err)
	}
	expectContract(t, func() { cmp.Graphics() })
	_, _ = cmp.Finish(false)
}

func TestContract_ComputeQueueStates(t *testing.T) {
	m, dev := newTestManager(t, nil)
	buf := newBuffer(t, dev, "buf", 256, gpucore.HeapDefault)

	cmp, _ := m.BeginCompute("async", true)
	cmp.TransitionResource(buf, gpucore.StateUnorderedAccess, false)
	expectContract(t, func() { cmp.TransitionResource(buf, gpucore.StateRenderTarget, false) })
	_, _ = cmp.Finish(false)
}

func TestContract_BufferUAVState(t *testing.T) {
	m, dev := newTestManager(t, nil)
	buf := newBuffer(t, dev, "buf", 256, gpucore.HeapDefault)

	cmp, _ := m.BeginCompute("", false)
	expectContract(t, func() { cmp.SetBufferUAV(0, buf, 0) })
	cmp.TransitionResource(buf, gpucore.StateUnorderedAccess, false)
	cmp.SetBufferUAV(0, buf, 0)
	_, _ = cmp.Finish(false)
}

func TestContract_UnfinalizedRootSignature(t *testing.T) {
	m, _ := newTestManager(t, nil)
	rs := gpucore.NewRootSignature("raw", gpucore.Constants(0, 1, gpucore.VisibilityAll))

	gfx, _ := m.BeginGraphics("")
	expectContract(t, func() { gfx.SetRootSignature(rs) })
	_, _ = gfx.Finish(false)
}

func TestContract_DescriptorHeaps(t *testing.T) {
	m, dev := newTestManager(t, nil)
	heap, _ := dev.CreateDescriptorHeap(gpucore.HeapTypeCBVSRVUAV, 16, true, "h")

	ctx, _ := m.Begin("")
	expectContract(t, func() { ctx.SetDescriptorHeaps(heap, nil) })
	expectContract(t, func() { ctx.SetDescriptorHeap(gpucore.HeapTypeSampler, nil) })
	_, _ = ctx.Finish(false)

	ce := expectContract(t, func() { ctx.SetDescriptorHeap(gpucore.HeapTypeCBVSRVUAV, heap) })
	if !strings.Contains(ce.Rule, "after Finish") {
		t.Errorf("Rule = %q", ce.Rule)
	}
	expectContract(t, func() { ctx.SetDescriptorHeaps(heap) })
}
