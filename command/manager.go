// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package command

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gfxctx"
	"github.com/gogpu/gfxctx/descheap"
	"github.com/gogpu/gfxctx/gpucore"
	"github.com/gogpu/gfxctx/internal/parallel"
	"github.com/gogpu/gfxctx/linalloc"
)

// Manager pools command contexts per queue type and owns everything they
// share: queues with their allocator pools, linear allocator pages, and
// shader-visible descriptor heaps.
//
// Manager is safe for concurrent use. A checked-out Context is not.
type Manager struct {
	dev gpucore.Device
	cfg Config

	queues      [gpucore.NumQueueTypes]*queue
	uploadPages *linalloc.PageManager
	gpuPages    *linalloc.PageManager
	heapPool    *descheap.Pool
	metrics     *Metrics

	mu        sync.Mutex
	contexts  [gpucore.NumQueueTypes][]*Context
	available [gpucore.NumQueueTypes][]*Context
	closed    bool

	workersOnce sync.Once
	workers     *parallel.Pool
}

var _ gpucore.FenceTracker = (*Manager)(nil)

// NewManager creates a manager for dev. The device must expose a direct
// queue; the other queue types are used when present.
func NewManager(dev gpucore.Device, opts ...Option) (*Manager, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DrawIndirect == nil {
		cfg.DrawIndirect = gpucore.NewCommandSignature(gpucore.IndirectDraw)
	}
	if cfg.DrawIndexedIndirect == nil {
		cfg.DrawIndexedIndirect = gpucore.NewCommandSignature(gpucore.IndirectDrawIndexed)
	}
	if cfg.DispatchIndirect == nil {
		cfg.DispatchIndirect = gpucore.NewCommandSignature(gpucore.IndirectDispatch)
	}

	m := &Manager{dev: dev, cfg: cfg}
	for t := range gpucore.NumQueueTypes {
		qt := gpucore.QueueType(t) //nolint:gosec // < NumQueueTypes
		if dev.Queue(qt) == nil {
			continue
		}
		q, err := newQueue(dev, qt)
		if err != nil {
			return nil, err
		}
		m.queues[t] = q
	}
	if m.queues[gpucore.QueueDirect] == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoQueue, gpucore.QueueDirect)
	}

	m.uploadPages = linalloc.NewPageManager(dev, m, linalloc.CPUWritable, cfg.UploadPageSize)
	m.gpuPages = linalloc.NewPageManager(dev, m, linalloc.GPUExclusive, cfg.GPUPageSize)
	m.heapPool = descheap.NewPool(dev, m, cfg.DescriptorHeapSize)
	m.metrics = newMetrics(m.uploadPages, m.gpuPages)
	if err := m.metrics.register(cfg.Registerer); err != nil {
		return nil, err
	}

	gfxctx.Logger().Debug("command: manager created",
		"uploadPage", m.uploadPages.PageSize(), "gpuPage", m.gpuPages.PageSize(),
		"descriptorHeap", m.heapPool.HeapSize())
	return m, nil
}

// Device returns the device the manager records for.
func (m *Manager) Device() gpucore.Device { return m.dev }

// Metrics returns the manager's collectors.
func (m *Manager) Metrics() *Metrics { return m.metrics }

// ============================================================================
// Pool
// ============================================================================

// AllocateContext checks out a context of queue type t. A context returned
// by FreeContext is reused before a new one is created.
func (m *Manager) AllocateContext(t gpucore.QueueType) (*Context, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrManagerClosed
	}
	q := m.queues[t]
	if q == nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNoQueue, t)
	}

	if avail := m.available[t]; len(avail) > 0 {
		c := avail[0]
		avail[0] = nil
		m.available[t] = avail[1:]
		m.mu.Unlock()

		if err := c.reset(); err != nil {
			m.mu.Lock()
			m.available[t] = append([]*Context{c}, m.available[t]...)
			m.mu.Unlock()
			return nil, err
		}
		c.free = false
		m.metrics.ContextsInUse.WithLabelValues(t.String()).Inc()
		return c, nil
	}
	defer m.mu.Unlock()

	c, err := newContext(m, q)
	if err != nil {
		return nil, err
	}
	m.contexts[t] = append(m.contexts[t], c)
	m.metrics.ContextsCreated.WithLabelValues(t.String()).Inc()
	m.metrics.ContextsInUse.WithLabelValues(t.String()).Inc()
	gfxctx.Logger().Debug("command: context created", "queue", t.String(), "contexts", len(m.contexts[t]))
	return c, nil
}

// FreeContext returns c to the pool. Finish calls it; calling it on a
// context that is already free panics.
func (m *Manager) FreeContext(c *Context) {
	assert(c != nil, "FreeContext(nil)")
	m.mu.Lock()
	defer m.mu.Unlock()

	assert(!c.free, "context %q returned twice", c.label)
	c.free = true
	m.available[c.typ] = append(m.available[c.typ], c)
	m.metrics.ContextsInUse.WithLabelValues(c.typ.String()).Dec()
}

// DestroyAllContexts drops every context, checked out or not. Only call it
// at shutdown when no context is in use.
func (m *Manager) DestroyAllContexts() {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for t := range m.contexts {
		for _, c := range m.contexts[t] {
			c.free = true
			c.list = nil
			c.alloc = nil
		}
		n += len(m.contexts[t])
		m.contexts[t] = nil
		m.available[t] = nil
	}
	gfxctx.Logger().Debug("command: contexts destroyed", "count", n)
}

// ContextCount returns how many contexts of type t the pool owns.
func (m *Manager) ContextCount(t gpucore.QueueType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.contexts[t])
}

// AvailableCount returns how many contexts of type t are checked in.
func (m *Manager) AvailableCount(t gpucore.QueueType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.available[t])
}

// AllocatorCount returns how many command allocators queue t has created.
func (m *Manager) AllocatorCount(t gpucore.QueueType) int {
	if q := m.queues[t]; q != nil {
		return q.allocatorCount()
	}
	return 0
}

// ============================================================================
// Checkout helpers
// ============================================================================

func (m *Manager) begin(t gpucore.QueueType, label string) (*Context, error) {
	c, err := m.AllocateContext(t)
	if err != nil {
		return nil, err
	}
	c.label = label
	if label != "" {
		c.list.BeginEvent(label)
		c.eventOpen = true
	}
	return c, nil
}

// Begin checks out a direct queue context labeled label.
func (m *Manager) Begin(label string) (*Context, error) {
	return m.begin(gpucore.QueueDirect, label)
}

// BeginGraphics checks out a direct queue context and returns its graphics
// view.
func (m *Manager) BeginGraphics(label string) (GraphicsContext, error) {
	c, err := m.begin(gpucore.QueueDirect, label)
	if err != nil {
		return GraphicsContext{}, err
	}
	return c.Graphics(), nil
}

// BeginCompute checks out a compute context. With async set it records for
// the compute queue, otherwise for the direct queue.
func (m *Manager) BeginCompute(label string, async bool) (ComputeContext, error) {
	t := gpucore.QueueDirect
	if async {
		t = gpucore.QueueCompute
	}
	c, err := m.begin(t, label)
	if err != nil {
		return ComputeContext{}, err
	}
	return c.Compute(), nil
}

// BeginCopy checks out a copy queue context.
func (m *Manager) BeginCopy(label string) (*Context, error) {
	return m.begin(gpucore.QueueCopy, label)
}

// ============================================================================
// Fences
// ============================================================================

// IsFenceComplete reports whether fence, from any of the manager's queues,
// has been reached.
func (m *Manager) IsFenceComplete(fence uint64) bool {
	q := m.fenceQueue(fence)
	if q == nil {
		return true
	}
	return q.q.IsFenceComplete(fence)
}

// WaitForFence blocks until fence has been reached.
func (m *Manager) WaitForFence(fence uint64) error {
	q := m.fenceQueue(fence)
	if q == nil {
		return nil
	}
	return q.waitForFence(fence)
}

func (m *Manager) fenceQueue(fence uint64) *queue {
	q := gpucore.FenceQueue(fence)
	assert(q < gpucore.NumQueueTypes, "fence %#x names no queue", fence)
	return m.queues[q]
}

// IdleGPU waits until every queue is idle.
func (m *Manager) IdleGPU() error {
	var errs []error
	for _, q := range m.queues {
		if q == nil {
			continue
		}
		if err := q.q.WaitForIdle(); err != nil {
			errs = append(errs, fmt.Errorf("command: idle %s queue: %w", q.typ, err))
		}
	}
	return errors.Join(errs...)
}

// Close waits for the GPU, destroys every context and releases the pages
// and descriptor heaps. The manager cannot be used afterwards.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	err := m.IdleGPU()
	m.DestroyAllContexts()
	m.uploadPages.Destroy()
	m.gpuPages.Destroy()
	m.heapPool.Destroy()
	m.metrics.unregister()
	if m.workers != nil {
		m.workers.Close()
	}
	return err
}
