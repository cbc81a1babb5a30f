//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"encoding/binary"
	"fmt"
	"hash"
	"hash/fnv"
	"math"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gogpu/gfxctx"
	"github.com/gogpu/gfxctx/gpucore"
)

// Binding returns the WGSL binding number of slot offset inside root
// parameter root of rs. Static samplers follow the last parameter.
func Binding(rs *gpucore.RootSignature, root int, offset uint32) uint32 {
	var n uint32
	for i := range root {
		n += paramBindings(rs.Parameter(i))
	}
	return n + offset
}

func paramBindings(p gpucore.RootParameter) uint32 {
	if p.Type == gpucore.RootDescriptorTable {
		return p.TableSize()
	}
	return 1
}

// rootLayout is the native object of a finalized root signature.
type rootLayout struct {
	id     gpucore.ObjectID
	bgl    hal.BindGroupLayout
	layout hal.PipelineLayout
	base   []uint32
	static uint32
	count  uint32
}

// buildRootLayout creates the bind group and pipeline layouts of rs.
func (d *Device) buildRootLayout(rs *gpucore.RootSignature) (*rootLayout, error) {
	lay := &rootLayout{id: gpucore.NewObjectID(), base: make([]uint32, rs.NumParameters())}
	var entries []gputypes.BindGroupLayoutEntry
	add := func(vis gpucore.ShaderVisibility, e gputypes.BindGroupLayoutEntry) {
		e.Binding = uint32(len(entries)) //nolint:gosec // bounded by the root signature size
		e.Visibility = shaderStages(vis)
		entries = append(entries, e)
	}
	uniform := gputypes.BindGroupLayoutEntry{Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}}
	readOnly := gputypes.BindGroupLayoutEntry{Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}}
	storage := gputypes.BindGroupLayoutEntry{Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}}
	texture := gputypes.BindGroupLayoutEntry{Texture: &gputypes.TextureBindingLayout{
		SampleType:    gputypes.TextureSampleTypeFloat,
		ViewDimension: gputypes.TextureViewDimension2D,
	}}
	sampler := gputypes.BindGroupLayoutEntry{Sampler: &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering}}

	for i := range rs.NumParameters() {
		p := rs.Parameter(i)
		lay.base[i] = uint32(len(entries)) //nolint:gosec // bounded by the root signature size
		switch p.Type {
		case gpucore.Root32BitConstants, gpucore.RootCBV:
			add(p.Visibility, uniform)
		case gpucore.RootSRV:
			add(p.Visibility, readOnly)
		case gpucore.RootUAV:
			add(p.Visibility, storage)
		case gpucore.RootDescriptorTable:
			for _, r := range p.Ranges {
				for range r.Count {
					switch r.Type {
					case gpucore.RangeCBV:
						add(p.Visibility, uniform)
					case gpucore.RangeSRV:
						add(p.Visibility, texture)
					case gpucore.RangeUAV:
						add(p.Visibility, storage)
					case gpucore.RangeSampler:
						add(p.Visibility, sampler)
					}
				}
			}
		}
	}
	lay.static = uint32(len(entries)) //nolint:gosec // bounded by the root signature size
	for range rs.StaticSamplers() {
		add(gpucore.VisibilityAll, sampler)
	}
	lay.count = uint32(len(entries)) //nolint:gosec // bounded by the root signature size

	bgl, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   rs.Label(),
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create bind group layout %s: %w", rs.Label(), err)
	}
	pl, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            rs.Label(),
		BindGroupLayouts: []hal.BindGroupLayout{bgl},
	})
	if err != nil {
		d.device.DestroyBindGroupLayout(bgl)
		return nil, fmt.Errorf("native: create pipeline layout %s: %w", rs.Label(), err)
	}
	lay.bgl = bgl
	lay.layout = pl
	return lay, nil
}

func (d *Device) destroyRootLayout(lay *rootLayout) {
	d.device.DestroyPipelineLayout(lay.layout)
	d.device.DestroyBindGroupLayout(lay.bgl)
}

// cachedGroup is a bind group shared by every list that binds the same
// root arguments. It is destroyed once evicted and unreferenced.
type cachedGroup struct {
	group   hal.BindGroup
	refs    int
	evicted bool
}

// bindGroupCache is an LRU of bind groups keyed by content hash.
type bindGroupCache struct {
	mu     sync.Mutex
	device hal.Device
	lru    *lru.Cache[uint64, *cachedGroup]

	hits   atomic.Uint64
	misses atomic.Uint64
}

func newBindGroupCache(device hal.Device, size int) (*bindGroupCache, error) {
	c := &bindGroupCache{device: device}
	cache, err := lru.NewWithEvict[uint64, *cachedGroup](size, c.onEvict)
	if err != nil {
		return nil, fmt.Errorf("native: bind group cache: %w", err)
	}
	c.lru = cache
	return c, nil
}

// onEvict runs inside Add or Purge with c.mu held.
func (c *bindGroupCache) onEvict(_ uint64, g *cachedGroup) {
	g.evicted = true
	if g.refs == 0 {
		c.device.DestroyBindGroup(g.group)
	}
}

// acquire returns the group stored under key, creating it on a miss. The
// caller owns one reference.
func (c *bindGroupCache) acquire(key uint64, create func() (hal.BindGroup, error)) (*cachedGroup, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if g, ok := c.lru.Get(key); ok {
		g.refs++
		c.hits.Add(1)
		return g, nil
	}
	bg, err := create()
	if err != nil {
		return nil, err
	}
	g := &cachedGroup{group: bg, refs: 1}
	c.lru.Add(key, g)
	c.misses.Add(1)
	return g, nil
}

// release drops one reference of each group.
func (c *bindGroupCache) release(groups []*cachedGroup) {
	if len(groups) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, g := range groups {
		g.refs--
		if g.refs == 0 && g.evicted {
			c.device.DestroyBindGroup(g.group)
		}
	}
}

func (c *bindGroupCache) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}

// Root constants are packed into uniform chunks written at submission.
const (
	constantChunkSize = 64 << 10
	constantAlignment = 256
)

type constantChunk struct {
	buf  hal.Buffer
	data []byte
	used uint64
}

// chunkPool recycles constant chunks once their submission completed.
type chunkPool struct {
	mu     sync.Mutex
	device hal.Device
	free   []*constantChunk
}

func (p *chunkPool) get() (*constantChunk, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n := len(p.free); n > 0 {
		c := p.free[n-1]
		p.free = p.free[:n-1]
		c.used = 0
		return c, nil
	}
	buf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "gfxctx-root-constants",
		Size:  constantChunkSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create constant chunk: %w", err)
	}
	gfxctx.Logger().Debug("native: constant chunk created", "size", constantChunkSize)
	return &constantChunk{buf: buf, data: make([]byte, constantChunkSize)}, nil
}

func (p *chunkPool) put(chunks []*constantChunk) {
	p.mu.Lock()
	p.free = append(p.free, chunks...)
	p.mu.Unlock()
}

func (p *chunkPool) destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.free {
		p.device.DestroyBuffer(c.buf)
	}
	p.free = nil
}

// rootArgs is the root argument state of one bind point.
type rootArgs struct {
	rs        *gpucore.RootSignature
	layout    *rootLayout
	constants [][]uint32
	views     []gpucore.BufferAddress
	tables    []gpucore.GPUDescriptorHandle
	dirty     bool
}

func (a *rootArgs) reset(rs *gpucore.RootSignature) {
	a.rs = rs
	a.layout = nil
	a.dirty = rs != nil
	if rs == nil {
		return
	}
	a.layout, _ = rs.Native().(*rootLayout)
	n := rs.NumParameters()
	a.constants = make([][]uint32, n)
	a.views = make([]gpucore.BufferAddress, n)
	a.tables = make([]gpucore.GPUDescriptorHandle, n)
	for i := range n {
		if p := rs.Parameter(i); p.Type == gpucore.Root32BitConstants {
			a.constants[i] = make([]uint32, p.NumConstants)
		}
	}
}

// allocConstants copies data into the list's current constant chunk.
func (l *CommandList) allocConstants(data []byte) (*constantChunk, uint64, error) {
	var c *constantChunk
	if n := len(l.chunks); n > 0 {
		c = l.chunks[n-1]
	}
	size := uint64(len(data))
	if c == nil || c.used+size > constantChunkSize {
		var err error
		if c, err = l.dev.chunks.get(); err != nil {
			return nil, 0, err
		}
		l.chunks = append(l.chunks, c)
	}
	off := c.used
	copy(c.data[off:], data)
	c.used = (off + size + constantAlignment - 1) &^ (constantAlignment - 1)
	return c, off, nil
}

// bindGroup builds or looks up the bind group of a's current arguments.
func (l *CommandList) bindGroup(a *rootArgs) (hal.BindGroup, error) {
	lay := a.layout
	entries := make([]gputypes.BindGroupEntry, 0, lay.count)
	h := fnv.New64a()
	writeUint64(h, uint64(lay.id))
	transient := false

	for i := range a.rs.NumParameters() {
		p := a.rs.Parameter(i)
		binding := lay.base[i]
		switch p.Type {
		case gpucore.Root32BitConstants:
			// uniform buffers bind in 16-byte units
			data := make([]byte, (len(a.constants[i])*4+15)&^15)
			for k, v := range a.constants[i] {
				binary.LittleEndian.PutUint32(data[k*4:], v)
			}
			c, off, err := l.allocConstants(data)
			if err != nil {
				return nil, err
			}
			entries = append(entries, gputypes.BindGroupEntry{
				Binding:  binding,
				Resource: gputypes.BufferBinding{Buffer: c.buf.NativeHandle(), Offset: off, Size: uint64(len(data))},
			})
			transient = true
		case gpucore.RootCBV, gpucore.RootSRV, gpucore.RootUAV:
			addr := a.views[i]
			if addr.IsNull() {
				return nil, fmt.Errorf("%w: root %s parameter %d unbound", ErrBindingMismatch, p.Type, i)
			}
			b, err := l.buffer(addr.Resource)
			if err != nil {
				return nil, err
			}
			entries = append(entries, gputypes.BindGroupEntry{
				Binding:  binding,
				Resource: gputypes.BufferBinding{Buffer: b.buf.NativeHandle(), Offset: addr.Offset, Size: b.size - addr.Offset},
			})
			writeUint64(h, uint64(addr.Resource.ID()), addr.Offset)
		case gpucore.RootDescriptorTable:
			table := a.tables[i]
			if table.IsNull() {
				return nil, fmt.Errorf("%w: table parameter %d unbound", ErrBindingMismatch, i)
			}
			descs := table.Table(p.TableSize())
			k := 0
			for _, r := range p.Ranges {
				for range r.Count {
					e, err := l.descriptorEntry(binding+uint32(k), r.Type, descs[k]) //nolint:gosec // table sizes fit uint32
					if err != nil {
						return nil, fmt.Errorf("table parameter %d slot %d: %w", i, k, err)
					}
					entries = append(entries, e)
					hashDescriptor(h, descs[k])
					k++
				}
			}
		}
	}
	for s, desc := range a.rs.StaticSamplers() {
		smp, err := l.dev.sampler(desc)
		if err != nil {
			return nil, err
		}
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  lay.static + uint32(s), //nolint:gosec // small
			Resource: gputypes.SamplerBinding{Sampler: smp.NativeHandle()},
		})
	}

	create := func() (hal.BindGroup, error) {
		bg, err := l.dev.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:   a.rs.Label(),
			Layout:  lay.bgl,
			Entries: entries,
		})
		if err != nil {
			return nil, fmt.Errorf("native: create bind group %s: %w", a.rs.Label(), err)
		}
		return bg, nil
	}
	if transient {
		bg, err := create()
		if err != nil {
			return nil, err
		}
		l.transient = append(l.transient, bg)
		return bg, nil
	}
	g, err := l.dev.groups.acquire(h.Sum64(), create)
	if err != nil {
		return nil, err
	}
	l.groups = append(l.groups, g)
	return g.group, nil
}

// descriptorEntry converts one table slot into a bind group entry.
func (l *CommandList) descriptorEntry(binding uint32, rt gpucore.RangeType, d gpucore.Descriptor) (gputypes.BindGroupEntry, error) {
	e := gputypes.BindGroupEntry{Binding: binding}
	switch {
	case d.Kind == gpucore.DescriptorSampler && rt == gpucore.RangeSampler:
		smp, err := l.dev.sampler(d.Sampler)
		if err != nil {
			return e, err
		}
		e.Resource = gputypes.SamplerBinding{Sampler: smp.NativeHandle()}
	case d.Kind == gpucore.DescriptorCBV && rt == gpucore.RangeCBV,
		d.Kind == gpucore.DescriptorUAV && rt == gpucore.RangeUAV:
		b, err := l.buffer(d.Resource)
		if err != nil {
			return e, err
		}
		size := d.Size
		if size == 0 {
			size = b.size - d.Offset
		}
		e.Resource = gputypes.BufferBinding{Buffer: b.buf.NativeHandle(), Offset: d.Offset, Size: size}
	case d.Kind == gpucore.DescriptorSRV && rt == gpucore.RangeSRV:
		t, err := l.texture(d.Resource)
		if err != nil {
			return e, err
		}
		e.Resource = gputypes.TextureViewBinding{TextureView: t.view.NativeHandle()}
	default:
		return e, fmt.Errorf("%w: %s in %s range", ErrBindingMismatch, d.Kind, rangeName(rt))
	}
	return e, nil
}

func rangeName(rt gpucore.RangeType) string {
	switch rt {
	case gpucore.RangeSRV:
		return "SRV"
	case gpucore.RangeUAV:
		return "UAV"
	case gpucore.RangeCBV:
		return "CBV"
	default:
		return "sampler"
	}
}

func writeUint64(h hash.Hash64, vs ...uint64) {
	var buf [8]byte
	for _, v := range vs {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = h.Write(buf[:])
	}
}

func hashDescriptor(h hash.Hash64, d gpucore.Descriptor) {
	var id uint64
	if d.Resource != nil {
		id = uint64(d.Resource.ID())
	}
	s := d.Sampler
	writeUint64(h,
		uint64(d.Kind), id, d.Offset, d.Size, uint64(d.Format),
		uint64(d.MipSlice)<<32|uint64(d.ArraySlice),
		uint64(s.Filter)<<8|uint64(s.Address), uint64(s.MaxAnisotropy),
		uint64(math.Float32bits(s.BorderColor[0]))<<32|uint64(math.Float32bits(s.BorderColor[1])),
		uint64(math.Float32bits(s.BorderColor[2]))<<32|uint64(math.Float32bits(s.BorderColor[3])),
	)
}
