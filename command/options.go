// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package command

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gogpu/gfxctx/gpucore"
)

// Config holds the objects shared by every context of a Manager. Anything
// left nil is constructed by NewManager and released by Manager.Close.
type Config struct {
	// DrawIndirect is the command signature used by DrawIndirect.
	DrawIndirect *gpucore.CommandSignature
	// DrawIndexedIndirect is used by DrawIndexedIndirect.
	DrawIndexedIndirect *gpucore.CommandSignature
	// DispatchIndirect is the command signature used by DispatchIndirect.
	DispatchIndirect *gpucore.CommandSignature

	// UploadPageSize and GPUPageSize size the linear allocator pages; 0
	// selects the linalloc defaults.
	UploadPageSize uint64
	GPUPageSize    uint64

	// DescriptorHeapSize sizes each shader-visible dynamic heap; 0 selects
	// the descheap default.
	DescriptorHeapSize uint32

	// Workers sets the goroutine count of RecordParallel; 0 selects
	// GOMAXPROCS.
	Workers int

	// Registerer receives the manager's metrics. Nil disables registration.
	Registerer prometheus.Registerer
}

// Option configures a Manager during creation.
//
// Example:
//
//	mgr, err := command.NewManager(dev,
//	    command.WithMetrics(prometheus.DefaultRegisterer),
//	    command.WithDescriptorHeapSize(2048),
//	)
type Option func(*Config)

// WithConfig replaces the whole configuration. Options after it still apply.
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		*c = cfg
	}
}

// WithCommandSignatures supplies the indirect command signatures instead of
// letting NewManager build them.
func WithCommandSignatures(draw, drawIndexed, dispatch *gpucore.CommandSignature) Option {
	return func(c *Config) {
		c.DrawIndirect = draw
		c.DrawIndexedIndirect = drawIndexed
		c.DispatchIndirect = dispatch
	}
}

// WithPageSizes overrides the linear allocator page sizes.
func WithPageSizes(upload, gpu uint64) Option {
	return func(c *Config) {
		c.UploadPageSize = upload
		c.GPUPageSize = gpu
	}
}

// WithDescriptorHeapSize overrides the dynamic descriptor heap size.
func WithDescriptorHeapSize(n uint32) Option {
	return func(c *Config) {
		c.DescriptorHeapSize = n
	}
}

// WithWorkers sets the number of recording goroutines used by
// RecordParallel.
func WithWorkers(n int) Option {
	return func(c *Config) {
		c.Workers = n
	}
}

// WithMetrics registers the manager's Prometheus collectors on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registerer = reg
	}
}
