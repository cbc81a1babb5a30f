// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package parallel

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// =============================================================================
// Pool Creation Tests
// =============================================================================

func TestPool_Create(t *testing.T) {
	pool := NewPool(4)
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}
	if !pool.Running() {
		t.Error("pool should be running after creation")
	}
}

func TestPool_CreateDefaultWorkers(t *testing.T) {
	for _, n := range []int{0, -3} {
		pool := NewPool(n)
		if pool.Workers() != runtime.GOMAXPROCS(0) {
			t.Errorf("NewPool(%d).Workers() = %d, want GOMAXPROCS", n, pool.Workers())
		}
		pool.Close()
	}
}

// =============================================================================
// Run Tests
// =============================================================================

func TestPool_RunAll(t *testing.T) {
	pool := NewPool(4)
	defer pool.Close()

	var counter atomic.Int64
	jobs := make([]Job, 100)
	for i := range jobs {
		jobs[i] = func() error {
			counter.Add(1)
			return nil
		}
	}

	if err := pool.Run(jobs); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if counter.Load() != 100 {
		t.Errorf("counter = %d, want 100", counter.Load())
	}
}

func TestPool_RunEmpty(t *testing.T) {
	pool := NewPool(2)
	defer pool.Close()

	if err := pool.Run(nil); err != nil {
		t.Errorf("Run(nil) = %v, want nil", err)
	}
}

func TestPool_RunJoinsErrors(t *testing.T) {
	pool := NewPool(3)
	defer pool.Close()

	errA := errors.New("a")
	errB := errors.New("b")
	jobs := []Job{
		func() error { return errA },
		func() error { return nil },
		func() error { return errB },
	}

	err := pool.Run(jobs)
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("Run() = %v, want both job errors", err)
	}
}

func TestPool_RunRepanics(t *testing.T) {
	pool := NewPool(2)
	defer pool.Close()

	var finished atomic.Int32
	jobs := []Job{
		func() error { panic("boom") },
		func() error { finished.Add(1); return nil },
		func() error { finished.Add(1); return nil },
	}

	defer func() {
		r := recover()
		pe, ok := r.(*PanicError)
		if !ok {
			t.Fatalf("recovered %T, want *PanicError", r)
		}
		if pe.Job != 0 || pe.Value != "boom" {
			t.Errorf("PanicError = %+v", pe)
		}
		if finished.Load() != 2 {
			t.Errorf("finished = %d, want 2 other jobs done before re-panic", finished.Load())
		}
	}()
	_ = pool.Run(jobs)
	t.Fatal("Run should have panicked")
}

func TestPool_RunAfterClose(t *testing.T) {
	pool := NewPool(2)
	pool.Close()

	err := pool.Run([]Job{func() error { return nil }})
	if !errors.Is(err, ErrClosed) {
		t.Errorf("Run() after Close = %v, want ErrClosed", err)
	}
}

func TestPool_SlowJobsAreStolen(t *testing.T) {
	pool := NewPool(4)
	defer pool.Close()

	// The slow jobs all land on worker 0's queue.
	var running, peak atomic.Int32
	jobs := make([]Job, 0, 16)
	for range 4 {
		jobs = append(jobs, func() error {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			running.Add(-1)
			return nil
		})
		jobs = append(jobs, nil, nil, nil)
	}
	for i := range jobs {
		if jobs[i] == nil {
			jobs[i] = func() error { return nil }
		}
	}

	if err := pool.Run(jobs); err != nil {
		t.Fatal(err)
	}
	if peak.Load() < 2 {
		t.Errorf("peak concurrency = %d, want slow jobs stolen by other workers", peak.Load())
	}
}

// =============================================================================
// Close Tests
// =============================================================================

func TestPool_CloseIdempotent(t *testing.T) {
	pool := NewPool(2)
	pool.Close()
	pool.Close()

	if pool.Running() {
		t.Error("pool should not be running after Close")
	}
}

func TestPool_ConcurrentRun(t *testing.T) {
	pool := NewPool(4)
	defer pool.Close()

	var total atomic.Int64
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			jobs := make([]Job, 25)
			for i := range jobs {
				jobs[i] = func() error { total.Add(1); return nil }
			}
			if err := pool.Run(jobs); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if total.Load() != 200 {
		t.Errorf("total = %d, want 200", total.Load())
	}
}

func BenchmarkPool_Run(b *testing.B) {
	pool := NewPool(0)
	defer pool.Close()

	jobs := make([]Job, 64)
	for i := range jobs {
		jobs[i] = func() error { return nil }
	}
	b.ResetTimer()
	for range b.N {
		_ = pool.Run(jobs)
	}
}
