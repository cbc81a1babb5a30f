//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"
	"sync"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gfxctx"
	"github.com/gogpu/gfxctx/gpucore"
)

const fenceValueMask = 1<<56 - 1

// submission is a command buffer in flight with everything it references.
type submission struct {
	fence     uint64
	cmdBuf    hal.CommandBuffer
	chunks    []*constantChunk
	groups    []*cachedGroup
	transient []hal.BindGroup
	readbacks []*Buffer
}

// Queue is one gpucore queue timeline. All queue types share the HAL queue;
// each has its own HAL fence.
type Queue struct {
	dev   *Device
	typ   gpucore.QueueType
	fence hal.Fence

	mu        sync.Mutex
	next      uint64
	completed uint64
	pending   []submission
}

var _ gpucore.CommandQueue = (*Queue)(nil)

func newQueue(d *Device, t gpucore.QueueType) (*Queue, error) {
	f, err := d.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("native: create %s fence: %w", t, err)
	}
	return &Queue{
		dev:       d,
		typ:       t,
		fence:     f,
		next:      gpucore.MakeFence(t, 1),
		completed: gpucore.MakeFence(t, 0),
	}, nil
}

// Type implements gpucore.CommandQueue.
func (q *Queue) Type() gpucore.QueueType { return q.typ }

// ExecuteCommandList implements gpucore.CommandQueue. Upload shadows and
// root constants are written to the GPU before the submission.
func (q *Queue) ExecuteCommandList(list gpucore.CommandList) (uint64, error) {
	l, ok := list.(*CommandList)
	if !ok || l.typ != q.typ {
		return 0, fmt.Errorf("%w: command list %T for %s queue", ErrForeignObject, list, q.typ)
	}
	if q.dev.closed.Load() {
		return 0, ErrDeviceClosed
	}
	if q.dev.lost.Load() {
		return 0, gpucore.ErrDeviceLost
	}
	if l.open {
		if err := l.Close(); err != nil {
			return 0, err
		}
	}
	if l.cmdBuf == nil {
		return 0, ErrListClosed
	}

	d := q.dev
	d.submitMu.Lock()
	defer d.submitMu.Unlock()

	for b := range l.uploads {
		d.queue.WriteBuffer(b.buf, 0, b.shadow)
	}
	for _, c := range l.chunks {
		d.queue.WriteBuffer(c.buf, 0, c.data[:c.used])
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	fence := q.next
	if err := d.queue.Submit([]hal.CommandBuffer{l.cmdBuf}, q.fence, fence&fenceValueMask); err != nil {
		d.lost.Store(true)
		return 0, fmt.Errorf("%w: submit: %v", gpucore.ErrDeviceLost, err)
	}
	s := submission{
		fence:     fence,
		cmdBuf:    l.cmdBuf,
		chunks:    l.chunks,
		groups:    l.groups,
		transient: l.transient,
	}
	for b := range l.readbacks {
		s.readbacks = append(s.readbacks, b)
	}
	q.pending = append(q.pending, s)
	q.next++
	l.cmdBuf, l.chunks, l.groups, l.transient = nil, nil, nil, nil

	gfxctx.Logger().Debug("native: submitted", "queue", q.typ, "fence", fence&fenceValueMask)
	return fence, nil
}

// pollLocked retires every submission whose fence the GPU has reached.
func (q *Queue) pollLocked() {
	for len(q.pending) > 0 {
		s := q.pending[0]
		done, err := q.dev.device.Wait(q.fence, s.fence&fenceValueMask, 0)
		if err != nil {
			q.dev.lost.Store(true)
			gfxctx.Logger().Warn("native: fence poll failed", "queue", q.typ, "err", err)
			return
		}
		if !done {
			return
		}
		q.retire(s)
		q.pending = q.pending[1:]
		q.completed = s.fence
	}
}

// retire releases what a completed submission referenced and refreshes
// readback shadows.
func (q *Queue) retire(s submission) {
	d := q.dev
	for _, b := range s.readbacks {
		if err := d.queue.ReadBuffer(b.buf, 0, b.shadow); err != nil {
			gfxctx.Logger().Warn("native: readback failed", "err", err)
		}
	}
	d.device.FreeCommandBuffer(s.cmdBuf)
	d.groups.release(s.groups)
	for _, bg := range s.transient {
		d.device.DestroyBindGroup(bg)
	}
	d.chunks.put(s.chunks)
}

// IsFenceComplete implements gpucore.CommandQueue.
func (q *Queue) IsFenceComplete(fence uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if fence > q.completed {
		q.pollLocked()
	}
	return fence <= q.completed
}

// WaitForFence implements gpucore.CommandQueue.
func (q *Queue) WaitForFence(fence uint64) error {
	if q.dev.lost.Load() {
		return gpucore.ErrDeviceLost
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if fence <= q.completed {
		return nil
	}
	fence = min(fence, q.next-1)
	ok, err := q.dev.device.Wait(q.fence, fence&fenceValueMask, q.dev.cfg.fenceTimeout)
	if err != nil {
		q.dev.lost.Store(true)
		return fmt.Errorf("%w: wait: %v", gpucore.ErrDeviceLost, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s fence %d", ErrFenceTimeout, q.typ, fence&fenceValueMask)
	}
	q.pollLocked()
	return nil
}

// WaitForIdle implements gpucore.CommandQueue.
func (q *Queue) WaitForIdle() error {
	q.mu.Lock()
	last := q.next - 1
	q.mu.Unlock()
	return q.WaitForFence(last)
}

// NextFenceValue implements gpucore.CommandQueue.
func (q *Queue) NextFenceValue() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.next
}

// TimestampFrequency implements gpucore.CommandQueue.
func (q *Queue) TimestampFrequency() (uint64, error) {
	return 0, unsupported("timestamps")
}

// drop releases pending submissions without waiting. Close calls it after
// the queues went idle or the device was lost.
func (q *Queue) drop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, s := range q.pending {
		q.retire(s)
	}
	q.pending = nil
}
