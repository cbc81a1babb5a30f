// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package command

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gogpu/gfxctx/linalloc"
)

// Metrics holds the Prometheus collectors of one Manager. The collectors
// are always live; they are exported only when a Registerer is configured.
type Metrics struct {
	ContextsCreated  *prometheus.CounterVec
	ContextsInUse    *prometheus.GaugeVec
	Submissions      *prometheus.CounterVec
	BarriersFlushed  prometheus.Counter
	DescriptorTables prometheus.Counter

	uploadPages prometheus.GaugeFunc
	gpuPages    prometheus.GaugeFunc

	reg prometheus.Registerer
}

func newMetrics(upload, gpu *linalloc.PageManager) *Metrics {
	return &Metrics{
		ContextsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gfxctx_contexts_created_total",
			Help: "Command contexts created by the pool, per queue type",
		}, []string{"queue"}),
		ContextsInUse: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gfxctx_contexts_in_use",
			Help: "Command contexts currently checked out, per queue type",
		}, []string{"queue"}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gfxctx_submissions_total",
			Help: "Command lists submitted, per queue type",
		}, []string{"queue"}),
		BarriersFlushed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gfxctx_barriers_flushed_total",
			Help: "Resource barriers handed to command lists",
		}),
		DescriptorTables: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gfxctx_descriptor_table_commits_total",
			Help: "Dynamic descriptor tables committed before draws and dispatches",
		}),
		uploadPages: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "gfxctx_linear_upload_pages",
			Help: "Standard pages owned by the upload linear allocator",
		}, func() float64 { return float64(upload.Stats().Pages) }),
		gpuPages: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "gfxctx_linear_gpu_pages",
			Help: "Standard pages owned by the GPU-exclusive linear allocator",
		}, func() float64 { return float64(gpu.Stats().Pages) }),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ContextsCreated,
		m.ContextsInUse,
		m.Submissions,
		m.BarriersFlushed,
		m.DescriptorTables,
		m.uploadPages,
		m.gpuPages,
	}
}

// register exports every collector on reg. On failure the collectors already
// registered are removed again.
func (m *Metrics) register(reg prometheus.Registerer) error {
	if reg == nil {
		return nil
	}
	for i, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			for _, done := range m.collectors()[:i] {
				reg.Unregister(done)
			}
			return fmt.Errorf("command: register metrics: %w", err)
		}
	}
	m.reg = reg
	return nil
}

func (m *Metrics) unregister() {
	if m.reg == nil {
		return
	}
	for _, c := range m.collectors() {
		m.reg.Unregister(c)
	}
	m.reg = nil
}
