//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/vulkan" // register the Vulkan HAL backend

	"github.com/gogpu/gfxctx"
	"github.com/gogpu/gfxctx/backend"
	"github.com/gogpu/gfxctx/gpucore"
)

func init() {
	backend.Register(backend.BackendNative, func() (gpucore.Device, error) {
		d, err := Open()
		if err != nil {
			return nil, err
		}
		return d, nil
	})
}

// Defaults.
const (
	DefaultFenceTimeout       = 5 * time.Second
	DefaultBindGroupCacheSize = 1024
)

// Buffer is the native object behind a buffer.
type Buffer struct {
	buf  hal.Buffer
	size uint64
	heap gpucore.HeapKind

	// shadow is the CPU copy of upload and readback buffers.
	shadow []byte
}

// HAL returns the HAL buffer.
func (b *Buffer) HAL() hal.Buffer { return b.buf }

// Texture is the native object behind a texture.
type Texture struct {
	tex    hal.Texture
	view   hal.TextureView
	format gputypes.TextureFormat
	desc   gpucore.TextureDesc
}

// HAL returns the HAL texture and its default view.
func (t *Texture) HAL() (hal.Texture, hal.TextureView) { return t.tex, t.view }

// pipeline is the native object behind a pipeline state.
type pipeline struct {
	render  hal.RenderPipeline
	compute hal.ComputePipeline
}

type config struct {
	backend       gputypes.Backend
	fenceTimeout  time.Duration
	bindGroupSize int
}

// Option configures Open and FromProvider.
type Option func(*config)

// WithBackend selects the HAL backend Open creates an instance on.
// The default is Vulkan.
func WithBackend(b gputypes.Backend) Option {
	return func(c *config) { c.backend = b }
}

// WithFenceTimeout bounds every blocking fence wait.
func WithFenceTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.fenceTimeout = d
		}
	}
}

// WithBindGroupCacheSize sets how many bind groups stay cached.
func WithBindGroupCacheSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.bindGroupSize = n
		}
	}
}

// Device is a gpucore.Device backed by a HAL device. It is safe for
// concurrent use.
type Device struct {
	cfg      config
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	external bool
	name     string

	// submitMu serializes submissions on the shared HAL queue.
	submitMu sync.Mutex
	queues   [gpucore.NumQueueTypes]*Queue

	shaders *shaderCache
	groups  *bindGroupCache
	chunks  *chunkPool

	samplerMu sync.Mutex
	samplers  map[gpucore.SamplerDesc]hal.Sampler

	nextAddr atomic.Uint64
	lost     atomic.Bool
	closed   atomic.Bool
}

var _ gpucore.Device = (*Device)(nil)

func newConfig(opts []Option) config {
	cfg := config{
		backend:       gputypes.BackendVulkan,
		fenceTimeout:  DefaultFenceTimeout,
		bindGroupSize: DefaultBindGroupCacheSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Open creates a HAL instance, picks a discrete or integrated adapter and
// opens a device on it.
func Open(opts ...Option) (*Device, error) {
	cfg := newConfig(opts)

	backend, ok := hal.GetBackend(cfg.backend)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrNoBackend, cfg.backend)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("native: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	opened, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("native: open device: %w", err)
	}

	d, err := newDevice(cfg, opened.Device, opened.Queue)
	if err != nil {
		opened.Device.Destroy()
		instance.Destroy()
		return nil, err
	}
	d.instance = instance
	d.name = selected.Info.Name
	gfxctx.Logger().Info("native: device opened", "adapter", d.name, "backend", cfg.backend)
	return d, nil
}

// FromProvider wraps the HAL device of a host application. The provider
// must implement HalDevice() any and HalQueue() any returning hal.Device and
// hal.Queue. Close does not destroy a shared device.
func FromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNotHALProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is %T", ErrNotHALProvider, hp.HalDevice())
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is %T", ErrNotHALProvider, hp.HalQueue())
	}
	d, err := newDevice(newConfig(opts), device, queue)
	if err != nil {
		return nil, err
	}
	d.external = true
	d.name = "external"
	gfxctx.Logger().Info("native: using shared device")
	return d, nil
}

func newDevice(cfg config, device hal.Device, queue hal.Queue) (*Device, error) {
	d := &Device{
		cfg:      cfg,
		device:   device,
		queue:    queue,
		shaders:  newShaderCache(),
		chunks:   &chunkPool{device: device},
		samplers: make(map[gpucore.SamplerDesc]hal.Sampler),
	}
	groups, err := newBindGroupCache(device, cfg.bindGroupSize)
	if err != nil {
		return nil, err
	}
	d.groups = groups
	for t := range d.queues {
		q, err := newQueue(d, gpucore.QueueType(t)) //nolint:gosec // < NumQueueTypes
		if err != nil {
			for _, made := range d.queues[:t] {
				device.DestroyFence(made.fence)
			}
			return nil, err
		}
		d.queues[t] = q
	}
	d.nextAddr.Store(0x1_0000_0000)
	return d, nil
}

// Name returns the adapter name.
func (d *Device) Name() string { return d.name }

// Queue implements gpucore.Device.
func (d *Device) Queue(t gpucore.QueueType) gpucore.CommandQueue { return d.queues[t] }

// CacheStats reports shader module and bind group cache hits and misses.
type CacheStats struct {
	ShaderHits, ShaderMisses       uint64
	BindGroupHits, BindGroupMisses uint64
}

// CacheStats returns cache counters.
func (d *Device) CacheStats() CacheStats {
	sh, sm := d.shaders.stats()
	return CacheStats{
		ShaderHits:      sh,
		ShaderMisses:    sm,
		BindGroupHits:   d.groups.hits.Load(),
		BindGroupMisses: d.groups.misses.Load(),
	}
}

// Close waits for every queue, then releases cached objects, the fences and
// the device unless it is shared.
func (d *Device) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	var firstErr error
	for _, q := range d.queues {
		if err := q.WaitForIdle(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, q := range d.queues {
		q.drop()
		d.device.DestroyFence(q.fence)
	}
	d.groups.purge()
	d.chunks.destroy()
	d.shaders.destroy(d.device)
	d.samplerMu.Lock()
	for k, s := range d.samplers {
		d.device.DestroySampler(s)
		delete(d.samplers, k)
	}
	d.samplerMu.Unlock()

	if !d.external {
		d.device.Destroy()
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
	gfxctx.Logger().Debug("native: device closed", "adapter", d.name)
	return firstErr
}

// CreateCommandAllocator implements gpucore.Device.
func (d *Device) CreateCommandAllocator(t gpucore.QueueType) (gpucore.CommandAllocator, error) {
	return &Allocator{typ: t}, nil
}

// CreateCommandList implements gpucore.Device.
func (d *Device) CreateCommandList(t gpucore.QueueType, alloc gpucore.CommandAllocator) (gpucore.CommandList, error) {
	a, ok := alloc.(*Allocator)
	if !ok || a.typ != t {
		return nil, fmt.Errorf("%w: allocator %T", ErrForeignObject, alloc)
	}
	enc, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "gfxctx-" + t.String()})
	if err != nil {
		return nil, fmt.Errorf("native: create command encoder: %w", err)
	}
	l := &CommandList{dev: d, typ: t, alloc: a, encoder: enc}
	if err := l.begin(); err != nil {
		return nil, err
	}
	return l, nil
}

// CreateDescriptorHeap implements gpucore.Device. Heaps live on the CPU;
// their contents become bind groups when a table is used.
func (d *Device) CreateDescriptorHeap(t gpucore.DescriptorHeapType, count uint32, shaderVisible bool, label string) (*gpucore.DescriptorHeap, error) {
	if shaderVisible && !t.ShaderVisibleType() {
		return nil, fmt.Errorf("native: %s heaps cannot be shader visible", t)
	}
	return gpucore.NewDescriptorHeap(t, count, shaderVisible, label), nil
}

// CreateQueryHeap implements gpucore.Device. Queries are not available.
func (d *Device) CreateQueryHeap(t gpucore.QueryType, _ uint32) (*gpucore.QueryHeap, error) {
	return nil, unsupported(fmt.Sprintf("query heap type %d", t))
}

// CreateBuffer implements gpucore.Device.
func (d *Device) CreateBuffer(desc gpucore.BufferDesc) (*gpucore.GpuBuffer, error) {
	size := desc.Size()
	if size == 0 {
		return nil, fmt.Errorf("native: buffer %q has zero size", desc.Label)
	}
	switch desc.Heap {
	case gpucore.HeapUpload:
		desc.InitialState = gpucore.StateGenericRead
	case gpucore.HeapReadback:
		desc.InitialState = gpucore.StateCopyDest
	}

	// HAL copies and writes work in 4-byte units.
	halSize := (size + 3) &^ 3
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  halSize,
		Usage: bufferUsage(desc.Heap),
	})
	if err != nil {
		return nil, fmt.Errorf("native: create buffer %s: %w", desc.Label, err)
	}
	native := &Buffer{buf: buf, size: size, heap: desc.Heap}
	if desc.Heap != gpucore.HeapDefault {
		native.shadow = make([]byte, halSize)
	}
	span := (size + 0xFFFF) &^ 0xFFFF
	addr := d.nextAddr.Add(span) - span

	b := &gpucore.GpuBuffer{}
	var mapped []byte
	if native.shadow != nil {
		mapped = native.shadow[:size]
	}
	b.InitBuffer(desc, native, addr, mapped)
	return b, nil
}

// CreateTexture implements gpucore.Device.
func (d *Device) CreateTexture(desc gpucore.TextureDesc) (*gpucore.Texture, error) {
	format, ok := textureFormat(desc.Format)
	if !ok || desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("native: invalid texture %q (%dx%d %s)", desc.Label, desc.Width, desc.Height, desc.Format)
	}
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         desc.Label,
		Size:          hal.Extent3D{Width: desc.Width, Height: desc.Height, DepthOrArrayLayers: max(desc.ArraySize, 1)},
		MipLevelCount: max(desc.MipLevels, 1),
		SampleCount:   max(desc.SampleCount, 1),
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         textureCreateUsage(desc.Usage),
	})
	if err != nil {
		return nil, fmt.Errorf("native: create texture %s: %w", desc.Label, err)
	}
	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{Label: desc.Label})
	if err != nil {
		d.device.DestroyTexture(tex)
		return nil, fmt.Errorf("native: create texture view %s: %w", desc.Label, err)
	}
	t := &gpucore.Texture{}
	t.InitTexture(desc, &Texture{tex: tex, view: view, format: format, desc: desc})
	return t, nil
}

// CreateRootSignature implements gpucore.Device.
func (d *Device) CreateRootSignature(rs *gpucore.RootSignature) error {
	if old, ok := rs.Native().(*rootLayout); ok {
		d.destroyRootLayout(old)
	}
	lay, err := d.buildRootLayout(rs)
	if err != nil {
		return err
	}
	if err := rs.Finalize(lay); err != nil {
		d.destroyRootLayout(lay)
		return err
	}
	return nil
}

func rootLayoutOf(rs *gpucore.RootSignature) (*rootLayout, error) {
	if rs == nil || !rs.Finalized() {
		return nil, fmt.Errorf("native: pipeline needs a finalized root signature")
	}
	lay, ok := rs.Native().(*rootLayout)
	if !ok {
		return nil, fmt.Errorf("%w: root signature %s", ErrForeignObject, rs.Label())
	}
	return lay, nil
}

// CreateGraphicsPSO implements gpucore.Device.
func (d *Device) CreateGraphicsPSO(desc gpucore.GraphicsPSODesc) (*gpucore.GraphicsPSO, error) {
	lay, err := rootLayoutOf(desc.RootSignature)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", desc.Label, err)
	}
	vs, err := d.shaders.getOrCreate(d.device, desc.Label+".vs", desc.VS)
	if err != nil {
		return nil, err
	}

	var buffers []gputypes.VertexBufferLayout
	for slot, stride := range desc.VertexStrides {
		vb := gputypes.VertexBufferLayout{ArrayStride: uint64(stride), StepMode: gputypes.VertexStepModeVertex}
		for _, e := range desc.InputLayout {
			if int(e.Slot) == slot {
				vb.Attributes = append(vb.Attributes, gputypes.VertexAttribute{
					Format:         vertexFormat(e.Format),
					Offset:         uint64(e.Offset),
					ShaderLocation: e.Location,
				})
			}
		}
		buffers = append(buffers, vb)
	}

	pd := &hal.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: lay.layout,
		Vertex: hal.VertexState{Module: vs, EntryPoint: entryPoint(desc.VS, "vs_main"), Buffers: buffers},
		Primitive: gputypes.PrimitiveState{
			Topology: topology(desc.Topology),
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{Count: max(desc.SampleCount, 1), Mask: 0xFFFFFFFF},
	}
	if desc.PS.WGSL != "" || len(desc.PS.SPIRV) > 0 {
		ps, err := d.shaders.getOrCreate(d.device, desc.Label+".ps", desc.PS)
		if err != nil {
			return nil, err
		}
		frag := &hal.FragmentState{Module: ps, EntryPoint: entryPoint(desc.PS, "fs_main")}
		for _, f := range desc.RTVFormats {
			tf, ok := textureFormat(f)
			if !ok {
				return nil, fmt.Errorf("native: %s: render target format %s", desc.Label, f)
			}
			frag.Targets = append(frag.Targets, gputypes.ColorTargetState{
				Format:    tf,
				Blend:     blendState(desc.Blend),
				WriteMask: gputypes.ColorWriteMaskAll,
			})
		}
		pd.Fragment = frag
	}
	if desc.DSVFormat != gpucore.FormatUnknown {
		df, ok := textureFormat(desc.DSVFormat)
		if !ok {
			return nil, fmt.Errorf("native: %s: depth format %s", desc.Label, desc.DSVFormat)
		}
		compare := gputypes.CompareFunctionAlways
		if desc.DepthTest {
			compare = gputypes.CompareFunctionLess
		}
		face := hal.StencilFaceState{
			Compare:     gputypes.CompareFunctionAlways,
			FailOp:      hal.StencilOperationKeep,
			DepthFailOp: hal.StencilOperationKeep,
			PassOp:      hal.StencilOperationKeep,
		}
		pd.DepthStencil = &hal.DepthStencilState{
			Format:            df,
			DepthWriteEnabled: desc.DepthWrite,
			DepthCompare:      compare,
			StencilFront:      face,
			StencilBack:       face,
			StencilReadMask:   0xFF,
			StencilWriteMask:  0xFF,
		}
	}

	rp, err := d.device.CreateRenderPipeline(pd)
	if err != nil {
		return nil, fmt.Errorf("native: create render pipeline %s: %w", desc.Label, err)
	}
	p := &gpucore.GraphicsPSO{Desc: desc}
	p.InitPipeline(gpucore.BindGraphics, desc.Label, desc.RootSignature, &pipeline{render: rp})
	return p, nil
}

// CreateComputePSO implements gpucore.Device.
func (d *Device) CreateComputePSO(desc gpucore.ComputePSODesc) (*gpucore.ComputePSO, error) {
	lay, err := rootLayoutOf(desc.RootSignature)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", desc.Label, err)
	}
	cs, err := d.shaders.getOrCreate(d.device, desc.Label+".cs", desc.CS)
	if err != nil {
		return nil, err
	}
	cp, err := d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:   desc.Label,
		Layout:  lay.layout,
		Compute: hal.ComputeState{Module: cs, EntryPoint: entryPoint(desc.CS, "main")},
	})
	if err != nil {
		return nil, fmt.Errorf("native: create compute pipeline %s: %w", desc.Label, err)
	}
	p := &gpucore.ComputePSO{Desc: desc}
	p.InitPipeline(gpucore.BindCompute, desc.Label, desc.RootSignature, &pipeline{compute: cp})
	return p, nil
}

func entryPoint(src gpucore.ShaderSource, def string) string {
	if src.EntryPoint != "" {
		return src.EntryPoint
	}
	return def
}

// Destroy implements gpucore.Device. The caller guarantees the GPU no
// longer uses res.
func (d *Device) Destroy(res gpucore.Resource) {
	r := res.Resource()
	if !r.IsValid() {
		return
	}
	switch n := r.Native().(type) {
	case *Buffer:
		d.device.DestroyBuffer(n.buf)
	case *Texture:
		d.device.DestroyTextureView(n.view)
		d.device.DestroyTexture(n.tex)
	default:
		gfxctx.Logger().Warn("native: destroy of foreign resource", "label", r.Label(), "type", fmt.Sprintf("%T", n))
	}
	r.Destroy()
}

// sampler returns the cached sampler for desc.
func (d *Device) sampler(desc gpucore.SamplerDesc) (hal.Sampler, error) {
	d.samplerMu.Lock()
	defer d.samplerMu.Unlock()
	if s, ok := d.samplers[desc]; ok {
		return s, nil
	}
	filter := filterMode(desc.Filter)
	addr := addressMode(desc.Address)
	s, err := d.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "gfxctx-sampler",
		AddressModeU: addr,
		AddressModeV: addr,
		AddressModeW: addr,
		MagFilter:    filter,
		MinFilter:    filter,
		MipmapFilter: filter,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create sampler: %w", err)
	}
	d.samplers[desc] = s
	return s, nil
}
