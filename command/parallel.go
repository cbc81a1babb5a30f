// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package command

import (
	"errors"
	"fmt"

	"github.com/gogpu/gfxctx/gpucore"
	"github.com/gogpu/gfxctx/internal/parallel"
)

func (m *Manager) workerPool() *parallel.Pool {
	m.workersOnce.Do(func() {
		m.workers = parallel.NewPool(m.cfg.Workers)
	})
	return m.workers
}

// RecordParallel checks out n graphics contexts, records each one with fn
// on the manager's worker goroutines, and finishes them in index order so
// the GPU sees the lists in a deterministic order. It returns the fence of
// the last submission.
//
// fn must only touch its own context. Resources transitioned by several
// recordings need external ordering.
func (m *Manager) RecordParallel(label string, n int, fn func(i int, g GraphicsContext) error) (uint64, error) {
	if n <= 0 {
		return 0, nil
	}

	ctxs := make([]*Context, 0, n)
	for i := range n {
		c, err := m.begin(gpucore.QueueDirect, fmt.Sprintf("%s[%d]", label, i))
		if err != nil {
			for _, c := range ctxs {
				_, _ = c.Finish(false)
			}
			return 0, err
		}
		ctxs = append(ctxs, c)
	}

	jobs := make([]parallel.Job, n)
	for i, c := range ctxs {
		jobs[i] = func() error {
			return fn(i, c.Graphics())
		}
	}
	runErr := m.workerPool().Run(jobs)

	var fence uint64
	errs := []error{runErr}
	for _, c := range ctxs {
		f, err := c.Finish(false)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		fence = f
	}
	return fence, errors.Join(errs...)
}
