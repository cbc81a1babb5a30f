// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package command

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gogpu/gfxctx/backend/record"
	"github.com/gogpu/gfxctx/gpucore"
)

func TestRecordParallel_SubmitsInOrder(t *testing.T) {
	const n = 6
	m, dev := newTestManager(t, nil, WithWorkers(3))
	rs := testRootSignature(t, dev)
	pso := testGraphicsPSO(t, dev, rs, "shadow")

	fence, err := m.RecordParallel("Shadows", n, func(i int, g GraphicsContext) error {
		g.SetRootSignature(rs)
		g.SetPipelineState(pso)
		g.SetConstants(0, DWParam(i))
		g.Draw(36, 0)
		return nil
	})
	require.NoError(t, err)
	require.True(t, m.IsFenceComplete(fence))

	subs := dev.RecordQueue(gpucore.QueueDirect).Submissions()
	require.Len(t, subs, n)
	require.Equal(t, fence, subs[n-1].Fence)
	for i, s := range subs {
		require.Equal(t, record.OpBeginEvent, s.Commands[0].Op)
		require.Equal(t, fmt.Sprintf("Shadows[%d]", i), s.Commands[0].Label)
		require.Equal(t, 1, record.Count(s.Commands, record.OpDraw))
	}

	require.Equal(t, n, m.ContextCount(gpucore.QueueDirect))
	require.Equal(t, n, m.AvailableCount(gpucore.QueueDirect))
}

func TestRecordParallel_Errors(t *testing.T) {
	m, dev := newTestManager(t, nil)
	boom := errors.New("boom")

	_, err := m.RecordParallel("job", 4, func(i int, g GraphicsContext) error {
		if i == 2 {
			return boom
		}
		g.SetMarker("ok")
		return nil
	})
	require.ErrorIs(t, err, boom)

	// every context is still submitted and returned
	require.Len(t, dev.RecordQueue(gpucore.QueueDirect).Submissions(), 4)
	require.Equal(t, 4, m.AvailableCount(gpucore.QueueDirect))
}

func TestRecordParallel_Panic(t *testing.T) {
	m, _ := newTestManager(t, nil)

	require.PanicsWithError(t, "parallel: job 1 panicked: bad draw", func() {
		_, _ = m.RecordParallel("job", 2, func(i int, _ GraphicsContext) error {
			if i == 1 {
				panic("bad draw")
			}
			return nil
		})
	})
}

func TestRecordParallel_Empty(t *testing.T) {
	m, dev := newTestManager(t, nil)

	fence, err := m.RecordParallel("none", 0, nil)
	require.NoError(t, err)
	require.Zero(t, fence)
	require.Empty(t, dev.RecordQueue(gpucore.QueueDirect).Submissions())
}

func TestRecordParallel_AfterClose(t *testing.T) {
	m, _ := newTestManager(t, nil)
	require.NoError(t, m.Close())

	_, err := m.RecordParallel("late", 2, func(int, GraphicsContext) error { return nil })
	require.ErrorIs(t, err, ErrManagerClosed)
}
