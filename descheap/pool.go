// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package descheap stages CPU descriptors and commits them as contiguous
// tables in shader-visible descriptor heaps.
//
// Each command context owns one Heap per shader-visible heap type (views and
// samplers). Before a draw or dispatch the context asks its Heaps to commit
// any tables that changed since the last commit; the Heap copies the staged
// descriptors into the current shader-visible heap and binds the resulting
// GPU handles. Exhausted heaps are retired to the shared Pool with the fence
// of the submission that used them.
package descheap

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gfxctx"
	"github.com/gogpu/gfxctx/gpucore"
)

// DefaultHeapSize is the number of descriptors in each shader-visible heap.
const DefaultHeapSize = 1024

// ErrPoolDestroyed is returned by RequestHeap after Destroy.
var ErrPoolDestroyed = errors.New("descheap: pool destroyed")

type retiredHeap struct {
	fence uint64
	heap  *gpucore.DescriptorHeap
}

type heapList struct {
	all       []*gpucore.DescriptorHeap
	retired   []retiredHeap
	available []*gpucore.DescriptorHeap
}

// Pool owns every shader-visible heap handed out to contexts. It is safe for
// concurrent use.
type Pool struct {
	dev      gpucore.Device
	fences   gpucore.FenceTracker
	heapSize uint32

	mu        sync.Mutex
	lists     [2]heapList
	destroyed bool
}

// NewPool creates a pool whose heaps hold heapSize descriptors. A heapSize of
// 0 selects DefaultHeapSize.
func NewPool(dev gpucore.Device, fences gpucore.FenceTracker, heapSize uint32) *Pool {
	if heapSize == 0 {
		heapSize = DefaultHeapSize
	}
	return &Pool{dev: dev, fences: fences, heapSize: heapSize}
}

// HeapSize returns the descriptor count of each heap.
func (p *Pool) HeapSize() uint32 { return p.heapSize }

func listIndex(t gpucore.DescriptorHeapType) int {
	if t == gpucore.HeapTypeSampler {
		return 1
	}
	return 0
}

// RequestHeap returns a shader-visible heap of type t whose previous user
// has completed, creating one when none is free.
func (p *Pool) RequestHeap(t gpucore.DescriptorHeapType) (*gpucore.DescriptorHeap, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed {
		return nil, ErrPoolDestroyed
	}

	l := &p.lists[listIndex(t)]
	for len(l.retired) > 0 && p.fences.IsFenceComplete(l.retired[0].fence) {
		l.available = append(l.available, l.retired[0].heap)
		l.retired = l.retired[1:]
	}
	if len(l.available) > 0 {
		h := l.available[0]
		l.available = l.available[1:]
		return h, nil
	}

	label := fmt.Sprintf("dynamic %s heap %d", t, len(l.all))
	h, err := p.dev.CreateDescriptorHeap(t, p.heapSize, true, label)
	if err != nil {
		return nil, fmt.Errorf("descheap: create %s heap: %w", t, err)
	}
	l.all = append(l.all, h)
	gfxctx.Logger().Debug("descheap: heap created", "type", t.String(), "size", p.heapSize, "heaps", len(l.all))
	return h, nil
}

// DiscardHeaps retires heaps; they become available once fence completes.
func (p *Pool) DiscardHeaps(t gpucore.DescriptorHeapType, fence uint64, heaps []*gpucore.DescriptorHeap) {
	p.mu.Lock()
	defer p.mu.Unlock()
	l := &p.lists[listIndex(t)]
	for _, h := range heaps {
		l.retired = append(l.retired, retiredHeap{fence: fence, heap: h})
	}
}

// Stats returns the total, available and retired heap counts of type t.
func (p *Pool) Stats(t gpucore.DescriptorHeapType) (total, available, retired int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	l := &p.lists[listIndex(t)]
	return len(l.all), len(l.available), len(l.retired)
}

// Destroy drops every heap. The caller must have waited for the GPU to go
// idle.
func (p *Pool) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lists = [2]heapList{}
	p.destroyed = true
}
