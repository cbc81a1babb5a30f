// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package command

import (
	"fmt"
	"sync"

	"github.com/gogpu/gfxctx"
	"github.com/gogpu/gfxctx/gpucore"
)

type readyAllocator struct {
	fence uint64
	alloc gpucore.CommandAllocator
}

// queue pairs a device queue with its command allocator pool. Allocators
// handed back with DiscardAllocator are reused once their fence completes.
type queue struct {
	dev gpucore.Device
	q   gpucore.CommandQueue
	typ gpucore.QueueType

	mu    sync.Mutex
	all   []gpucore.CommandAllocator
	ready []readyAllocator
}

func newQueue(dev gpucore.Device, t gpucore.QueueType) (*queue, error) {
	q := dev.Queue(t)
	if q == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoQueue, t)
	}
	return &queue{dev: dev, q: q, typ: t}, nil
}

// requestAllocator returns an allocator whose last use has completed,
// creating one when none is ready.
func (q *queue) requestAllocator() (gpucore.CommandAllocator, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.ready) > 0 && q.q.IsFenceComplete(q.ready[0].fence) {
		a := q.ready[0].alloc
		q.ready = q.ready[1:]
		if err := a.Reset(); err != nil {
			return nil, fmt.Errorf("command: reset %s allocator: %w", q.typ, err)
		}
		return a, nil
	}

	a, err := q.dev.CreateCommandAllocator(q.typ)
	if err != nil {
		return nil, fmt.Errorf("command: create %s allocator: %w", q.typ, err)
	}
	q.all = append(q.all, a)
	gfxctx.Logger().Debug("command: allocator created", "queue", q.typ.String(), "allocators", len(q.all))
	return a, nil
}

func (q *queue) discardAllocator(fence uint64, a gpucore.CommandAllocator) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ready = append(q.ready, readyAllocator{fence: fence, alloc: a})
}

func (q *queue) allocatorCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.all)
}

func (q *queue) execute(list gpucore.CommandList) (uint64, error) {
	fence, err := q.q.ExecuteCommandList(list)
	if err != nil {
		return 0, fmt.Errorf("command: submit to %s queue: %w", q.typ, err)
	}
	return fence, nil
}

func (q *queue) waitForFence(fence uint64) error {
	if err := q.q.WaitForFence(fence); err != nil {
		return fmt.Errorf("command: wait on %s queue: %w", q.typ, err)
	}
	return nil
}
