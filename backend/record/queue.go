// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package record

import (
	"fmt"
	"sync"

	"github.com/gogpu/gfxctx"
	"github.com/gogpu/gfxctx/gpucore"
)

// Submission is one executed command list.
type Submission struct {
	Fence    uint64
	Commands []Command
}

// Queue is a recording gpucore.CommandQueue. It is safe for concurrent use.
type Queue struct {
	dev *Device
	typ gpucore.QueueType

	mu          sync.Mutex
	next        uint64
	completed   uint64
	submissions []Submission
}

var _ gpucore.CommandQueue = (*Queue)(nil)

func newQueue(d *Device, t gpucore.QueueType) *Queue {
	return &Queue{
		dev:       d,
		typ:       t,
		next:      gpucore.MakeFence(t, 1),
		completed: gpucore.MakeFence(t, 0),
	}
}

// Type implements gpucore.CommandQueue.
func (q *Queue) Type() gpucore.QueueType { return q.typ }

// ExecuteCommandList implements gpucore.CommandQueue.
func (q *Queue) ExecuteCommandList(list gpucore.CommandList) (uint64, error) {
	if q.dev.lost.Load() {
		return 0, fmt.Errorf("record: execute on %s queue: %w", q.typ, gpucore.ErrDeviceLost)
	}
	l, ok := list.(*CommandList)
	if !ok {
		return 0, fmt.Errorf("record: foreign command list %T", list)
	}
	if err := l.Close(); err != nil {
		return 0, fmt.Errorf("record: close command list: %w", err)
	}
	cmds := l.take()

	q.dev.execMu.Lock()
	execute(cmds)
	q.dev.execMu.Unlock()

	q.mu.Lock()
	defer q.mu.Unlock()
	fence := q.next
	q.next++
	q.submissions = append(q.submissions, Submission{Fence: fence, Commands: cmds})
	if !q.dev.manual {
		q.completed = fence
	}
	gfxctx.Logger().Debug("record: executed", "queue", q.typ.String(), "fence", fence, "commands", len(cmds))
	return fence, nil
}

// IsFenceComplete implements gpucore.CommandQueue.
func (q *Queue) IsFenceComplete(fence uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return fence <= q.completed
}

// WaitForFence implements gpucore.CommandQueue. The simulated GPU catches up
// to fence immediately.
func (q *Queue) WaitForFence(fence uint64) error {
	if q.dev.lost.Load() {
		return fmt.Errorf("record: wait on %s queue: %w", q.typ, gpucore.ErrDeviceLost)
	}
	q.CompleteFence(fence)
	return nil
}

// WaitForIdle implements gpucore.CommandQueue.
func (q *Queue) WaitForIdle() error {
	return q.WaitForFence(q.NextFenceValue() - 1)
}

// NextFenceValue implements gpucore.CommandQueue.
func (q *Queue) NextFenceValue() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.next
}

// TimestampFrequency implements gpucore.CommandQueue.
func (q *Queue) TimestampFrequency() (uint64, error) {
	return 1_000_000_000, nil
}

// CompleteFence marks every submission up to fence as finished. Values past
// the last submission are clamped.
func (q *Queue) CompleteFence(fence uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	fence = min(fence, q.next-1)
	if fence > q.completed {
		q.completed = fence
	}
}

// CompletedFence returns the last completed fence value.
func (q *Queue) CompletedFence() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.completed
}

// Submissions returns a copy of the submission log.
func (q *Queue) Submissions() []Submission {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Submission, len(q.submissions))
	copy(out, q.submissions)
	return out
}

// LastSubmission returns the most recent submission, or false.
func (q *Queue) LastSubmission() (Submission, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.submissions) == 0 {
		return Submission{}, false
	}
	return q.submissions[len(q.submissions)-1], true
}

// ClearSubmissions drops the submission log.
func (q *Queue) ClearSubmissions() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.submissions = nil
}
