// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package linalloc implements a page-based linear allocator for per-submission
// scratch memory.
//
// An Allocator belongs to one command context and bumps an offset through a
// page. Pages come from a shared PageManager and go back to it tagged with
// the fence of the submission that last used them; a page is handed out
// again only once that fence has completed.
//
// Two kinds of memory are served:
//
//	CPUWritable   upload heap, 2 MiB pages, CPU-visible Data
//	GPUExclusive  default heap with UAV access, 64 KiB pages
//
// Requests larger than a page get a dedicated "large page" that is destroyed,
// not recycled, once its fence completes.
package linalloc

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gfxctx"
	"github.com/gogpu/gfxctx/gpucore"
)

// Kind selects the memory a PageManager serves.
type Kind uint8

const (
	// GPUExclusive pages live in GPU-local memory and allow UAV access.
	GPUExclusive Kind = iota
	// CPUWritable pages live in upload memory and are CPU mapped.
	CPUWritable
)

// String returns the kind name.
func (k Kind) String() string {
	if k == CPUWritable {
		return "cpu-writable"
	}
	return "gpu-exclusive"
}

// Default page sizes and alignment.
const (
	GPUExclusivePageSize uint64 = 0x10000
	CPUWritablePageSize  uint64 = 0x200000
	DefaultAlignment     uint64 = 256
)

// Allocation errors.
var (
	// ErrZeroSize is returned for an allocation of zero bytes.
	ErrZeroSize = errors.New("linalloc: zero-sized allocation")

	// ErrBadAlignment is returned when alignment is not a power of two.
	ErrBadAlignment = errors.New("linalloc: alignment must be a power of two")

	// ErrManagerDestroyed is returned after Destroy.
	ErrManagerDestroyed = errors.New("linalloc: page manager destroyed")
)

type retiredPage struct {
	fence uint64
	page  *gpucore.GpuBuffer
}

// PageManager owns every page of one Kind. It is safe for concurrent use.
type PageManager struct {
	dev      gpucore.Device
	fences   gpucore.FenceTracker
	kind     Kind
	pageSize uint64

	mu        sync.Mutex
	pool      []*gpucore.GpuBuffer
	retired   []retiredPage
	available []*gpucore.GpuBuffer
	deletion  []retiredPage
	destroyed bool
}

// NewPageManager creates a manager for kind. A pageSize of 0 selects the
// default for the kind.
func NewPageManager(dev gpucore.Device, fences gpucore.FenceTracker, kind Kind, pageSize uint64) *PageManager {
	if pageSize == 0 {
		pageSize = GPUExclusivePageSize
		if kind == CPUWritable {
			pageSize = CPUWritablePageSize
		}
	}
	return &PageManager{dev: dev, fences: fences, kind: kind, pageSize: pageSize}
}

// Kind returns the memory kind served.
func (m *PageManager) Kind() Kind { return m.kind }

// PageSize returns the size of a standard page.
func (m *PageManager) PageSize() uint64 { return m.pageSize }

// RequestPage returns a standard page, recycling a retired one whose fence
// has completed before creating a new one.
func (m *PageManager) RequestPage() (*gpucore.GpuBuffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.destroyed {
		return nil, ErrManagerDestroyed
	}

	for len(m.retired) > 0 && m.fences.IsFenceComplete(m.retired[0].fence) {
		m.available = append(m.available, m.retired[0].page)
		m.retired = m.retired[1:]
	}

	if len(m.available) > 0 {
		p := m.available[0]
		m.available = m.available[1:]
		return p, nil
	}

	p, err := m.createPage(m.pageSize)
	if err != nil {
		return nil, err
	}
	m.pool = append(m.pool, p)
	return p, nil
}

// CreateLargePage creates a dedicated page of size bytes. It is not tracked
// by the pool; hand it back with FreeLargePages.
func (m *PageManager) CreateLargePage(size uint64) (*gpucore.GpuBuffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return nil, ErrManagerDestroyed
	}
	return m.createPage(size)
}

// DiscardPages retires standard pages; they become available once fence
// completes.
func (m *PageManager) DiscardPages(fence uint64, pages []*gpucore.GpuBuffer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range pages {
		m.retired = append(m.retired, retiredPage{fence: fence, page: p})
	}
}

// FreeLargePages queues large pages for destruction once fence completes,
// and destroys any earlier large pages whose fence already has.
func (m *PageManager) FreeLargePages(fence uint64, pages []*gpucore.GpuBuffer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for len(m.deletion) > 0 && m.fences.IsFenceComplete(m.deletion[0].fence) {
		m.dev.Destroy(m.deletion[0].page)
		m.deletion = m.deletion[1:]
	}
	for _, p := range pages {
		m.deletion = append(m.deletion, retiredPage{fence: fence, page: p})
	}
}

// Destroy releases every page. The caller must have waited for the GPU to
// go idle.
func (m *PageManager) Destroy() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.pool {
		m.dev.Destroy(p)
	}
	for _, d := range m.deletion {
		m.dev.Destroy(d.page)
	}
	m.pool, m.retired, m.available, m.deletion = nil, nil, nil, nil
	m.destroyed = true
}

// Stats is a snapshot of page accounting.
type Stats struct {
	Pages        int
	Available    int
	Retired      int
	PendingLarge int
}

// Stats returns current page counts.
func (m *PageManager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		Pages:        len(m.pool),
		Available:    len(m.available),
		Retired:      len(m.retired),
		PendingLarge: len(m.deletion),
	}
}

// createPage must be called with m.mu held.
func (m *PageManager) createPage(size uint64) (*gpucore.GpuBuffer, error) {
	desc := gpucore.BufferDesc{
		Label:        fmt.Sprintf("linalloc %s page %d", m.kind, len(m.pool)),
		ElementCount: uint32(size), //nolint:gosec // page sizes fit uint32
		ElementSize:  1,
	}
	if m.kind == CPUWritable {
		desc.Heap = gpucore.HeapUpload
		desc.InitialState = gpucore.StateGenericRead
	} else {
		desc.Heap = gpucore.HeapDefault
		desc.AllowUAV = true
		desc.InitialState = gpucore.StateUnorderedAccess
	}

	p, err := m.dev.CreateBuffer(desc)
	if err != nil {
		return nil, fmt.Errorf("linalloc: create %s page: %w", m.kind, err)
	}
	gfxctx.Logger().Debug("linalloc: page created",
		"kind", m.kind.String(), "size", size, "pages", len(m.pool)+1)
	return p, nil
}
