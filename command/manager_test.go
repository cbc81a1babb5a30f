// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package command

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gogpu/gfxctx/backend/record"
	"github.com/gogpu/gfxctx/gpucore"
)

// =============================================================================
// Construction Tests
// =============================================================================

func TestNewManager_NilDevice(t *testing.T) {
	if _, err := NewManager(nil); !errors.Is(err, ErrNilDevice) {
		t.Errorf("NewManager(nil) error = %v, want ErrNilDevice", err)
	}
}

func TestNewManager_Options(t *testing.T) {
	m, _ := newTestManager(t, nil,
		WithPageSizes(64<<10, 128<<10),
		WithDescriptorHeapSize(512),
		WithWorkers(3),
	)
	if got := m.uploadPages.PageSize(); got != 64<<10 {
		t.Errorf("upload PageSize() = %d", got)
	}
	if got := m.gpuPages.PageSize(); got != 128<<10 {
		t.Errorf("gpu PageSize() = %d", got)
	}
	if got := m.heapPool.HeapSize(); got != 512 {
		t.Errorf("HeapSize() = %d", got)
	}
	if got := m.workerPool().Workers(); got != 3 {
		t.Errorf("Workers() = %d", got)
	}
	if m.cfg.DrawIndirect == nil || m.cfg.DrawIndexedIndirect == nil || m.cfg.DispatchIndirect == nil {
		t.Error("default command signatures not created")
	}
}

// =============================================================================
// Pool Tests
// =============================================================================

func TestManager_PoolReuse(t *testing.T) {
	m, _ := newTestManager(t, nil)

	for round := range 3 {
		var ctxs []*Context
		for range 4 {
			c, err := m.Begin("")
			if err != nil {
				t.Fatal(err)
			}
			ctxs = append(ctxs, c)
		}
		for _, c := range ctxs {
			if _, err := c.Finish(false); err != nil {
				t.Fatal(err)
			}
		}
		if got := m.ContextCount(gpucore.QueueDirect); got != 4 {
			t.Fatalf("round %d: ContextCount() = %d, want 4", round, got)
		}
		if got := m.AvailableCount(gpucore.QueueDirect); got != 4 {
			t.Fatalf("round %d: AvailableCount() = %d, want 4", round, got)
		}
	}
}

func TestManager_PerQueuePools(t *testing.T) {
	m, _ := newTestManager(t, nil)

	g, _ := m.BeginGraphics("g")
	c, _ := m.BeginCompute("c", true)
	cp, _ := m.BeginCopy("copy")

	if c.QueueType() != gpucore.QueueCompute || cp.QueueType() != gpucore.QueueCopy {
		t.Errorf("queue types = %s, %s", c.QueueType(), cp.QueueType())
	}
	for _, ctx := range []*Context{g.Context, c.Context, cp} {
		if _, err := ctx.Finish(false); err != nil {
			t.Fatal(err)
		}
	}
	for _, qt := range []gpucore.QueueType{gpucore.QueueDirect, gpucore.QueueCompute, gpucore.QueueCopy} {
		if got := m.ContextCount(qt); got != 1 {
			t.Errorf("ContextCount(%s) = %d, want 1", qt, got)
		}
	}
	if got := m.ContextCount(gpucore.QueueBundle); got != 0 {
		t.Errorf("ContextCount(bundle) = %d, want 0", got)
	}
}

func TestManager_ConcurrentCheckout(t *testing.T) {
	const goroutines = 8
	m, _ := newTestManager(t, nil)

	var wg sync.WaitGroup
	errs := make(chan error, goroutines)
	for range goroutines {
		wg.Go(func() {
			for range 50 {
				c, err := m.Begin("")
				if err != nil {
					errs <- err
					return
				}
				c.SetMarker("work")
				if _, err := c.Finish(false); err != nil {
					errs <- err
					return
				}
			}
		})
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.LessOrEqual(t, m.ContextCount(gpucore.QueueDirect), goroutines)
	require.Equal(t, m.ContextCount(gpucore.QueueDirect), m.AvailableCount(gpucore.QueueDirect))
}

func TestManager_FreeContextTwice(t *testing.T) {
	m, _ := newTestManager(t, nil)

	c, _ := m.Begin("twice")
	_, _ = c.Finish(false)
	expectContract(t, func() { m.FreeContext(c) })
}

func TestManager_Closed(t *testing.T) {
	m, _ := newTestManager(t, nil)

	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := m.Begin(""); !errors.Is(err, ErrManagerClosed) {
		t.Errorf("Begin() after Close error = %v, want ErrManagerClosed", err)
	}
	if got := m.ContextCount(gpucore.QueueDirect); got != 0 {
		t.Errorf("ContextCount() = %d after Close", got)
	}
}

// =============================================================================
// Allocator Recycling Tests
// =============================================================================

func TestManager_AllocatorWaitsForFence(t *testing.T) {
	m, dev := newTestManager(t, []record.Option{record.WithManualFences()})
	q := dev.RecordQueue(gpucore.QueueDirect)

	c, _ := m.Begin("")
	f1, err := c.Finish(false)
	if err != nil {
		t.Fatal(err)
	}
	if m.IsFenceComplete(f1) {
		t.Fatal("fence complete before the GPU reached it")
	}

	c, _ = m.Begin("")
	if _, err := c.Finish(false); err != nil {
		t.Fatal(err)
	}
	if got := m.AllocatorCount(gpucore.QueueDirect); got != 2 {
		t.Fatalf("AllocatorCount() = %d, want 2 while the first is in flight", got)
	}

	q.CompleteFence(f1)
	c, _ = m.Begin("")
	_, _ = c.Finish(false)
	if got := m.AllocatorCount(gpucore.QueueDirect); got != 2 {
		t.Errorf("AllocatorCount() = %d, want 2 after the first fence completed", got)
	}
	if got := m.ContextCount(gpucore.QueueDirect); got != 1 {
		t.Errorf("ContextCount() = %d, want 1", got)
	}
}

func TestManager_DeviceLostThenRecover(t *testing.T) {
	m, dev := newTestManager(t, nil)

	c, _ := m.Begin("lost")
	dev.Lose()
	if _, err := c.Finish(false); !errors.Is(err, gpucore.ErrDeviceLost) {
		t.Fatalf("Finish() error = %v", err)
	}

	again, err := m.Begin("again")
	if err != nil {
		t.Fatalf("Begin() after failed submit error = %v", err)
	}
	if again != c {
		t.Error("failed context was not reused")
	}
	if m.AllocatorCount(gpucore.QueueDirect) != 1 {
		t.Errorf("AllocatorCount() = %d, allocator of the failed list should be reusable", m.AllocatorCount(gpucore.QueueDirect))
	}
	_, _ = again.Finish(false)
}

// =============================================================================
// Fence Tests
// =============================================================================

func TestManager_FencesPerQueue(t *testing.T) {
	m, dev := newTestManager(t, []record.Option{record.WithManualFences()})

	direct, _ := m.Begin("")
	fd, _ := direct.Finish(false)
	compute, _ := m.BeginCompute("", true)
	fc, _ := compute.Finish(false)

	if gpucore.FenceQueue(fd) != gpucore.QueueDirect || gpucore.FenceQueue(fc) != gpucore.QueueCompute {
		t.Fatalf("fence queues = %s, %s", gpucore.FenceQueue(fd), gpucore.FenceQueue(fc))
	}

	dev.RecordQueue(gpucore.QueueCompute).CompleteFence(fc)
	if !m.IsFenceComplete(fc) {
		t.Error("compute fence not complete")
	}
	if m.IsFenceComplete(fd) {
		t.Error("direct fence completed by the compute queue")
	}

	if err := m.WaitForFence(fd); err != nil {
		t.Fatal(err)
	}
	if !m.IsFenceComplete(fd) {
		t.Error("direct fence not complete after WaitForFence")
	}
	if !m.IsFenceComplete(0) {
		t.Error("fence 0 must always be complete")
	}
}

func TestManager_FenceWithoutQueue(t *testing.T) {
	m, _ := newTestManager(t, nil)
	bad := gpucore.MakeFence(gpucore.NumQueueTypes, 1)

	ce := expectContract(t, func() { m.IsFenceComplete(bad) })
	if !strings.Contains(ce.Rule, "names no queue") {
		t.Errorf("Rule = %q", ce.Rule)
	}
	expectContract(t, func() { _ = m.WaitForFence(bad) })
}

func TestManager_IdleGPU(t *testing.T) {
	m, _ := newTestManager(t, []record.Option{record.WithManualFences()})

	var fences []uint64
	for _, async := range []bool{false, true} {
		c, _ := m.BeginCompute("", async)
		f, _ := c.Finish(false)
		fences = append(fences, f)
	}
	if err := m.IdleGPU(); err != nil {
		t.Fatal(err)
	}
	for _, f := range fences {
		if !m.IsFenceComplete(f) {
			t.Errorf("fence %#x incomplete after IdleGPU", f)
		}
	}
}

// =============================================================================
// Checkout Contract Tests
// =============================================================================

func TestManager_CopyContextViews(t *testing.T) {
	m, _ := newTestManager(t, nil)

	c, _ := m.BeginCopy("upload")
	expectContract(t, func() { c.Graphics() })
	expectContract(t, func() { c.Compute() })
	_, _ = c.Finish(false)
}
