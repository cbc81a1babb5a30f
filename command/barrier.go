// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package command

import "github.com/gogpu/gfxctx/gpucore"

// MaxPendingBarriers is the capacity of a context's barrier batch. Reaching
// it flushes the batch.
const MaxPendingBarriers = 16

// barrierBatch accumulates barriers until the next flush point.
type barrierBatch struct {
	buf [MaxPendingBarriers]gpucore.Barrier
	n   int
}

func (b *barrierBatch) push(br gpucore.Barrier) {
	assert(b.n < MaxPendingBarriers, "barrier batch overflow (%d pending)", b.n)
	b.buf[b.n] = br
	b.n++
}

func (b *barrierBatch) full() bool { return b.n == MaxPendingBarriers }

func (b *barrierBatch) len() int { return b.n }

// flush hands every pending barrier to list in one call and returns how many
// were emitted.
func (b *barrierBatch) flush(list gpucore.CommandList) int {
	n := b.n
	if n == 0 {
		return 0
	}
	list.ResourceBarrier(b.buf[:n])
	b.reset()
	return n
}

func (b *barrierBatch) reset() {
	clear(b.buf[:b.n])
	b.n = 0
}
