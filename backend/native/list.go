//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gfxctx"
	"github.com/gogpu/gfxctx/gpucore"
)

// Allocator is a command allocator. HAL encoders own their memory, so
// Reset has nothing to release.
type Allocator struct {
	typ gpucore.QueueType
}

// Reset implements gpucore.CommandAllocator.
func (a *Allocator) Reset() error { return nil }

// CommandList encodes gpucore commands into a HAL command encoder.
// It is not safe for concurrent use.
type CommandList struct {
	dev     *Device
	typ     gpucore.QueueType
	alloc   *Allocator
	encoder hal.CommandEncoder
	cmdBuf  hal.CommandBuffer
	open    bool
	err     error

	render  hal.RenderPassEncoder
	compute hal.ComputePassEncoder

	// state replayed into every render pass
	rtvs       []gpucore.CPUDescriptorHandle
	dsv        gpucore.CPUDescriptorHandle
	viewport   *gpucore.Viewport
	scissor    *gpucore.Rect
	stencilRef uint32
	blend      *gputypes.Color
	index      *gpucore.IndexBufferView
	vertex     map[uint32]gpucore.VertexBufferView
	pso        [gpucore.NumBindPoints]*gpucore.PipelineState
	roots      [gpucore.NumBindPoints]rootArgs

	// owned until the submission completes
	chunks    []*constantChunk
	groups    []*cachedGroup
	transient []hal.BindGroup
	uploads   map[*Buffer]struct{}
	readbacks map[*Buffer]struct{}
}

var _ gpucore.CommandList = (*CommandList)(nil)

// Type implements gpucore.CommandList.
func (l *CommandList) Type() gpucore.QueueType { return l.typ }

// Err returns the first recording error.
func (l *CommandList) Err() error { return l.err }

func (l *CommandList) begin() error {
	if err := l.encoder.BeginEncoding("gfxctx-" + l.typ.String()); err != nil {
		return fmt.Errorf("native: begin encoding: %w", err)
	}
	l.open = true
	l.err = nil
	l.rtvs = nil
	l.dsv = gpucore.CPUDescriptorHandle{}
	l.viewport, l.scissor, l.blend, l.index = nil, nil, nil, nil
	l.stencilRef = 0
	l.vertex = make(map[uint32]gpucore.VertexBufferView)
	l.pso = [gpucore.NumBindPoints]*gpucore.PipelineState{}
	for i := range l.roots {
		l.roots[i].reset(nil)
	}
	l.uploads = make(map[*Buffer]struct{})
	l.readbacks = make(map[*Buffer]struct{})
	return nil
}

// Reset implements gpucore.CommandList.
func (l *CommandList) Reset(alloc gpucore.CommandAllocator) error {
	if l.open {
		return ErrListOpen
	}
	a, ok := alloc.(*Allocator)
	if !ok || a.typ != l.typ {
		return fmt.Errorf("%w: allocator %T", ErrForeignObject, alloc)
	}
	// a list closed but never submitted still owns its resources
	l.releaseUnsubmitted()
	l.alloc = a
	return l.begin()
}

// Close implements gpucore.CommandList. On error the encoding is discarded.
func (l *CommandList) Close() error {
	if !l.open {
		return ErrListClosed
	}
	l.endPass()
	l.open = false
	if l.err != nil {
		l.encoder.DiscardEncoding()
		return l.err
	}
	cb, err := l.encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("native: end encoding: %w", err)
	}
	l.cmdBuf = cb
	return nil
}

func (l *CommandList) releaseUnsubmitted() {
	if l.cmdBuf != nil {
		l.dev.device.FreeCommandBuffer(l.cmdBuf)
		l.cmdBuf = nil
	}
	l.dev.groups.release(l.groups)
	for _, bg := range l.transient {
		l.dev.device.DestroyBindGroup(bg)
	}
	l.dev.chunks.put(l.chunks)
	l.groups, l.transient, l.chunks = nil, nil, nil
}

// fail keeps the first error.
func (l *CommandList) fail(err error) {
	if l.err == nil {
		l.err = err
		gfxctx.Logger().Warn("native: command list error", "queue", l.typ, "err", err)
	}
}

// recording reports whether commands may be encoded.
func (l *CommandList) recording() bool {
	if !l.open {
		l.fail(ErrListClosed)
		return false
	}
	return l.err == nil
}

func (l *CommandList) endPass() {
	if l.render != nil {
		l.render.End()
		l.render = nil
	}
	if l.compute != nil {
		l.compute.End()
		l.compute = nil
	}
}

// buffer resolves the native buffer of r and tracks CPU-visible heaps.
func (l *CommandList) buffer(r *gpucore.GpuResource) (*Buffer, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil buffer", ErrForeignObject)
	}
	b, ok := r.Native().(*Buffer)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a buffer", ErrForeignObject, r.Label())
	}
	switch b.heap {
	case gpucore.HeapUpload:
		l.uploads[b] = struct{}{}
	case gpucore.HeapReadback:
		l.readbacks[b] = struct{}{}
	}
	return b, nil
}

func (l *CommandList) texture(r *gpucore.GpuResource) (*Texture, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil texture", ErrForeignObject)
	}
	t, ok := r.Native().(*Texture)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a texture", ErrForeignObject, r.Label())
	}
	return t, nil
}

// ResourceBarrier implements gpucore.CommandList. Barriers end the current
// pass; only texture transitions are encoded.
func (l *CommandList) ResourceBarrier(barriers []gpucore.Barrier) {
	if !l.recording() {
		return
	}
	l.endPass()
	var tbs []hal.TextureBarrier
	for _, b := range barriers {
		if b.Kind != gpucore.BarrierTransition || b.Flags == gpucore.BarrierFlagBeginOnly {
			continue
		}
		t, ok := b.Resource.Native().(*Texture)
		if !ok {
			continue
		}
		tbs = append(tbs, hal.TextureBarrier{
			Texture: t.tex,
			Usage: hal.TextureUsageTransition{
				OldUsage: textureUsage(b.Before),
				NewUsage: textureUsage(b.After),
			},
		})
	}
	if len(tbs) > 0 {
		l.encoder.TransitionTextures(tbs)
	}
}

// SetDescriptorHeaps implements gpucore.CommandList. Heaps are read when
// tables are bound, so there is nothing to encode.
func (l *CommandList) SetDescriptorHeaps([]*gpucore.DescriptorHeap) {}

// SetRootSignature implements gpucore.CommandList.
func (l *CommandList) SetRootSignature(bp gpucore.BindPoint, rs *gpucore.RootSignature) {
	if !l.recording() {
		return
	}
	if _, ok := rs.Native().(*rootLayout); !ok {
		l.fail(fmt.Errorf("%w: root signature %s", ErrForeignObject, rs.Label()))
		return
	}
	l.roots[bp].reset(rs)
}

// SetPipelineState implements gpucore.CommandList.
func (l *CommandList) SetPipelineState(pso *gpucore.PipelineState) {
	if !l.recording() {
		return
	}
	p, ok := pso.Native().(*pipeline)
	if !ok {
		l.fail(fmt.Errorf("%w: pipeline %s", ErrForeignObject, pso.Label()))
		return
	}
	bp := pso.BindPoint()
	l.pso[bp] = pso
	switch {
	case bp == gpucore.BindGraphics && l.render != nil:
		l.render.SetPipeline(p.render)
	case bp == gpucore.BindCompute && l.compute != nil:
		l.compute.SetPipeline(p.compute)
	}
}

// SetRoot32BitConstants implements gpucore.CommandList.
func (l *CommandList) SetRoot32BitConstants(bp gpucore.BindPoint, root uint32, values []uint32, destOffset uint32) {
	if !l.recording() {
		return
	}
	a := &l.roots[bp]
	if a.rs == nil || int(root) >= len(a.constants) || a.constants[root] == nil {
		l.fail(fmt.Errorf("%w: root %d is not a constants parameter", ErrBindingMismatch, root))
		return
	}
	if int(destOffset)+len(values) > len(a.constants[root]) {
		l.fail(fmt.Errorf("%w: %d constants at %d overflow root %d", ErrBindingMismatch, len(values), destOffset, root))
		return
	}
	copy(a.constants[root][destOffset:], values)
	a.dirty = true
}

// SetRootView implements gpucore.CommandList.
func (l *CommandList) SetRootView(bp gpucore.BindPoint, _ gpucore.RootParameterType, root uint32, addr gpucore.BufferAddress) {
	if !l.recording() {
		return
	}
	a := &l.roots[bp]
	if a.rs == nil || int(root) >= len(a.views) {
		l.fail(fmt.Errorf("%w: root view %d out of range", ErrBindingMismatch, root))
		return
	}
	a.views[root] = addr
	a.dirty = true
}

// SetRootDescriptorTable implements gpucore.CommandList.
func (l *CommandList) SetRootDescriptorTable(bp gpucore.BindPoint, root uint32, table gpucore.GPUDescriptorHandle) {
	if !l.recording() {
		return
	}
	a := &l.roots[bp]
	if a.rs == nil || int(root) >= len(a.tables) {
		l.fail(fmt.Errorf("%w: table %d out of range", ErrBindingMismatch, root))
		return
	}
	a.tables[root] = table
	a.dirty = true
}

// flushBindings binds the root arguments of bp if they changed.
func (l *CommandList) flushBindings(bp gpucore.BindPoint) bool {
	a := &l.roots[bp]
	if a.rs == nil || !a.dirty {
		return true
	}
	if a.layout.count == 0 {
		a.dirty = false
		return true
	}
	bg, err := l.bindGroup(a)
	if err != nil {
		l.fail(err)
		return false
	}
	if bp == gpucore.BindGraphics {
		l.render.SetBindGroup(0, bg, nil)
	} else {
		l.compute.SetBindGroup(0, bg, nil)
	}
	a.dirty = false
	return true
}

// SetRenderTargets implements gpucore.CommandList.
func (l *CommandList) SetRenderTargets(rtvs []gpucore.CPUDescriptorHandle, dsv gpucore.CPUDescriptorHandle) {
	if !l.recording() {
		return
	}
	l.endPass()
	l.rtvs = append(l.rtvs[:0], rtvs...)
	l.dsv = dsv
}

// beginRender opens a render pass on the current targets and replays state.
func (l *CommandList) beginRender() bool {
	if l.render != nil {
		return true
	}
	l.endPass()
	desc := &hal.RenderPassDescriptor{Label: "gfxctx-render"}
	for _, h := range l.rtvs {
		t, err := l.texture(h.Descriptor().Resource)
		if err != nil {
			l.fail(err)
			return false
		}
		desc.ColorAttachments = append(desc.ColorAttachments, hal.RenderPassColorAttachment{
			View:    t.view,
			LoadOp:  gputypes.LoadOpLoad,
			StoreOp: gputypes.StoreOpStore,
		})
	}
	if !l.dsv.IsNull() {
		t, err := l.texture(l.dsv.Descriptor().Resource)
		if err != nil {
			l.fail(err)
			return false
		}
		desc.DepthStencilAttachment = depthAttachment(t, gputypes.LoadOpLoad, gputypes.LoadOpLoad, 0, 0)
	}
	l.render = l.encoder.BeginRenderPass(desc)

	if p := l.pso[gpucore.BindGraphics]; p != nil {
		l.render.SetPipeline(p.Native().(*pipeline).render)
	}
	if v := l.viewport; v != nil {
		l.render.SetViewport(v.X, v.Y, v.Width, v.Height, v.MinDepth, v.MaxDepth)
	}
	if r := l.scissor; r != nil {
		l.setScissor(*r)
	}
	if l.blend != nil {
		l.render.SetBlendConstant(l.blend)
	}
	l.render.SetStencilReference(l.stencilRef)
	for slot, v := range l.vertex {
		l.bindVertexBuffer(slot, v)
	}
	if l.index != nil {
		l.bindIndexBuffer(l.index)
	}
	l.roots[gpucore.BindGraphics].dirty = true
	return l.err == nil
}

func (l *CommandList) beginCompute() bool {
	if l.compute != nil {
		return true
	}
	l.endPass()
	l.compute = l.encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "gfxctx-compute"})
	if p := l.pso[gpucore.BindCompute]; p != nil {
		l.compute.SetPipeline(p.Native().(*pipeline).compute)
	}
	l.roots[gpucore.BindCompute].dirty = true
	return true
}

func depthAttachment(t *Texture, depthLoad, stencilLoad gputypes.LoadOp, depth float32, stencil uint32) *hal.RenderPassDepthStencilAttachment {
	a := &hal.RenderPassDepthStencilAttachment{
		View:            t.view,
		DepthLoadOp:     depthLoad,
		DepthStoreOp:    gputypes.StoreOpStore,
		DepthClearValue: depth,
	}
	if t.desc.Format.HasStencil() {
		a.StencilLoadOp = stencilLoad
		a.StencilStoreOp = gputypes.StoreOpStore
		a.StencilClearValue = stencil
	}
	return a
}

// ClearRenderTargetView implements gpucore.CommandList.
func (l *CommandList) ClearRenderTargetView(rtv gpucore.CPUDescriptorHandle, color [4]float32, rects []gpucore.Rect) {
	if !l.recording() {
		return
	}
	if len(rects) > 0 {
		l.fail(unsupported("partial render target clear"))
		return
	}
	t, err := l.texture(rtv.Descriptor().Resource)
	if err != nil {
		l.fail(err)
		return
	}
	l.endPass()
	pass := l.encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "gfxctx-clear",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:    t.view,
			LoadOp:  gputypes.LoadOpClear,
			StoreOp: gputypes.StoreOpStore,
			ClearValue: gputypes.Color{
				R: float64(color[0]), G: float64(color[1]), B: float64(color[2]), A: float64(color[3]),
			},
		}},
	})
	pass.End()
}

// ClearDepthStencilView implements gpucore.CommandList.
func (l *CommandList) ClearDepthStencilView(dsv gpucore.CPUDescriptorHandle, flags gpucore.ClearFlags, depth float32, stencil uint8, rects []gpucore.Rect) {
	if !l.recording() {
		return
	}
	if len(rects) > 0 {
		l.fail(unsupported("partial depth clear"))
		return
	}
	t, err := l.texture(dsv.Descriptor().Resource)
	if err != nil {
		l.fail(err)
		return
	}
	depthLoad, stencilLoad := gputypes.LoadOpLoad, gputypes.LoadOpLoad
	if flags&gpucore.ClearDepth != 0 {
		depthLoad = gputypes.LoadOpClear
	}
	if flags&gpucore.ClearStencil != 0 {
		stencilLoad = gputypes.LoadOpClear
	}
	l.endPass()
	pass := l.encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label:                  "gfxctx-clear-depth",
		DepthStencilAttachment: depthAttachment(t, depthLoad, stencilLoad, depth, uint32(stencil)),
	})
	pass.End()
}

// ClearUnorderedAccessView implements gpucore.CommandList. Only buffers
// cleared to zero are expressible.
func (l *CommandList) ClearUnorderedAccessView(_ gpucore.GPUDescriptorHandle, _ gpucore.CPUDescriptorHandle, res *gpucore.GpuResource, values [4]uint32) {
	if !l.recording() {
		return
	}
	if values != [4]uint32{} {
		l.fail(unsupported("non-zero UAV clear"))
		return
	}
	b, err := l.buffer(res)
	if err != nil {
		l.fail(unsupported("texture UAV clear"))
		return
	}
	l.endPass()
	l.encoder.ClearBuffer(b.buf, 0, (b.size+3)&^3)
}

// SetViewports implements gpucore.CommandList. The HAL has one viewport.
func (l *CommandList) SetViewports(vps []gpucore.Viewport) {
	if !l.recording() || len(vps) == 0 {
		return
	}
	v := vps[0]
	l.viewport = &v
	if l.render != nil {
		l.render.SetViewport(v.X, v.Y, v.Width, v.Height, v.MinDepth, v.MaxDepth)
	}
}

// SetScissorRects implements gpucore.CommandList. The HAL has one scissor.
func (l *CommandList) SetScissorRects(rects []gpucore.Rect) {
	if !l.recording() || len(rects) == 0 {
		return
	}
	r := rects[0]
	l.scissor = &r
	if l.render != nil {
		l.setScissor(r)
	}
}

func (l *CommandList) setScissor(r gpucore.Rect) {
	x, y := max(r.Left, 0), max(r.Top, 0)
	w, h := max(r.Right-x, 0), max(r.Bottom-y, 0)
	l.render.SetScissorRect(uint32(x), uint32(y), uint32(w), uint32(h)) //nolint:gosec // clamped non-negative
}

// SetStencilRef implements gpucore.CommandList.
func (l *CommandList) SetStencilRef(ref uint32) {
	if !l.recording() {
		return
	}
	l.stencilRef = ref
	if l.render != nil {
		l.render.SetStencilReference(ref)
	}
}

// SetBlendFactor implements gpucore.CommandList.
func (l *CommandList) SetBlendFactor(f [4]float32) {
	if !l.recording() {
		return
	}
	l.blend = &gputypes.Color{R: float64(f[0]), G: float64(f[1]), B: float64(f[2]), A: float64(f[3])}
	if l.render != nil {
		l.render.SetBlendConstant(l.blend)
	}
}

// SetPrimitiveTopology implements gpucore.CommandList. Topology is part of
// the pipeline on the HAL.
func (l *CommandList) SetPrimitiveTopology(gpucore.PrimitiveTopology) {}

// SetIndexBuffer implements gpucore.CommandList.
func (l *CommandList) SetIndexBuffer(view *gpucore.IndexBufferView) {
	if !l.recording() {
		return
	}
	if view == nil {
		l.index = nil
		return
	}
	v := *view
	l.index = &v
	if l.render != nil {
		l.bindIndexBuffer(&v)
	}
}

func (l *CommandList) bindIndexBuffer(v *gpucore.IndexBufferView) {
	b, err := l.buffer(v.Location.Resource)
	if err != nil {
		l.fail(err)
		return
	}
	l.render.SetIndexBuffer(b.buf, indexFormat(v.Format), v.Location.Offset)
}

// SetVertexBuffers implements gpucore.CommandList.
func (l *CommandList) SetVertexBuffers(start uint32, views []gpucore.VertexBufferView) {
	if !l.recording() {
		return
	}
	for i, v := range views {
		slot := start + uint32(i) //nolint:gosec // slot counts are small
		l.vertex[slot] = v
		if l.render != nil {
			l.bindVertexBuffer(slot, v)
		}
	}
}

func (l *CommandList) bindVertexBuffer(slot uint32, v gpucore.VertexBufferView) {
	b, err := l.buffer(v.Location.Resource)
	if err != nil {
		l.fail(err)
		return
	}
	l.render.SetVertexBuffer(slot, b.buf, v.Location.Offset)
}

// DrawInstanced implements gpucore.CommandList.
func (l *CommandList) DrawInstanced(vertexCount, instanceCount, startVertex, startInstance uint32) {
	if !l.recording() || !l.beginRender() || !l.flushBindings(gpucore.BindGraphics) {
		return
	}
	l.render.Draw(vertexCount, instanceCount, startVertex, startInstance)
}

// DrawIndexedInstanced implements gpucore.CommandList.
func (l *CommandList) DrawIndexedInstanced(indexCount, instanceCount, startIndex uint32, baseVertex int32, startInstance uint32) {
	if !l.recording() || !l.beginRender() || !l.flushBindings(gpucore.BindGraphics) {
		return
	}
	l.render.DrawIndexed(indexCount, instanceCount, startIndex, baseVertex, startInstance)
}

// Dispatch implements gpucore.CommandList.
func (l *CommandList) Dispatch(x, y, z uint32) {
	if !l.recording() || !l.beginCompute() || !l.flushBindings(gpucore.BindCompute) {
		return
	}
	l.compute.Dispatch(x, y, z)
}

// ExecuteIndirect implements gpucore.CommandList. Commands are issued one
// by one at the signature's stride; count buffers are not expressible.
func (l *CommandList) ExecuteIndirect(sig *gpucore.CommandSignature, maxCommands uint32, args, count gpucore.BufferAddress) {
	if !l.recording() {
		return
	}
	if !count.IsNull() {
		l.fail(unsupported("indirect count buffer"))
		return
	}
	b, err := l.buffer(args.Resource)
	if err != nil {
		l.fail(err)
		return
	}
	stride := uint64(sig.ByteStride())
	switch sig.ArgumentType() {
	case gpucore.IndirectDispatch:
		if !l.beginCompute() || !l.flushBindings(gpucore.BindCompute) {
			return
		}
		for i := range uint64(maxCommands) {
			l.compute.DispatchIndirect(b.buf, args.Offset+i*stride)
		}
	case gpucore.IndirectDraw, gpucore.IndirectDrawIndexed:
		if !l.beginRender() || !l.flushBindings(gpucore.BindGraphics) {
			return
		}
		for i := range uint64(maxCommands) {
			if sig.ArgumentType() == gpucore.IndirectDraw {
				l.render.DrawIndirect(b.buf, args.Offset+i*stride)
			} else {
				l.render.DrawIndexedIndirect(b.buf, args.Offset+i*stride)
			}
		}
	}
}

// CopyResource implements gpucore.CommandList.
func (l *CommandList) CopyResource(dst, src *gpucore.GpuResource) {
	if !l.recording() {
		return
	}
	db, dok := dst.Native().(*Buffer)
	sb, sok := src.Native().(*Buffer)
	if !dok || !sok {
		l.fail(unsupported("texture to texture copy"))
		return
	}
	l.CopyBufferRegion(dst, 0, src, 0, min(db.size, sb.size))
}

// CopyBufferRegion implements gpucore.CommandList.
func (l *CommandList) CopyBufferRegion(dst *gpucore.GpuResource, dstOffset uint64, src *gpucore.GpuResource, srcOffset, numBytes uint64) {
	if !l.recording() {
		return
	}
	db, err := l.buffer(dst)
	if err != nil {
		l.fail(err)
		return
	}
	sb, err := l.buffer(src)
	if err != nil {
		l.fail(err)
		return
	}
	l.endPass()
	l.encoder.CopyBufferToBuffer(sb.buf, db.buf, []hal.BufferCopy{
		{SrcOffset: srcOffset, DstOffset: dstOffset, Size: numBytes},
	})
}

// CopyTextureRegion implements gpucore.CommandList.
func (l *CommandList) CopyTextureRegion(dst, src gpucore.TextureCopyLocation) {
	if !l.recording() {
		return
	}
	if dst.IsBuffer() == src.IsBuffer() {
		l.fail(unsupported("texture to texture copy"))
		return
	}
	texLoc, bufLoc := dst, src
	if dst.IsBuffer() {
		texLoc, bufLoc = src, dst
	}
	t, err := l.texture(texLoc.Resource)
	if err != nil {
		l.fail(err)
		return
	}
	b, err := l.buffer(bufLoc.Resource)
	if err != nil {
		l.fail(err)
		return
	}
	core, _ := textureOf(texLoc.Resource)
	mip, layer := uint32(0), texLoc.Subresource
	if core != nil {
		mip, layer = subresourceCoords(core, texLoc.Subresource)
	}
	fp := bufLoc.Footprint
	region := []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: fp.Offset, BytesPerRow: fp.RowPitch, RowsPerImage: fp.Height},
		TextureBase:  hal.ImageCopyTexture{Texture: t.tex, MipLevel: mip, Origin: hal.Origin3D{Z: layer}},
		Size:         hal.Extent3D{Width: fp.Width, Height: fp.Height, DepthOrArrayLayers: max(fp.Depth, 1)},
	}}
	l.endPass()
	if dst.IsBuffer() {
		l.encoder.CopyTextureToBuffer(t.tex, b.buf, region)
	} else {
		l.encoder.CopyBufferToTexture(b.buf, t.tex, region)
	}
}

// textureOf rebuilds the mip layout of a native texture resource.
func textureOf(r *gpucore.GpuResource) (*gpucore.Texture, bool) {
	t, ok := r.Native().(*Texture)
	if !ok {
		return nil, false
	}
	var core gpucore.Texture
	core.InitTexture(t.desc, nil)
	return &core, true
}

// BeginQuery implements gpucore.CommandList.
func (l *CommandList) BeginQuery(*gpucore.QueryHeap, uint32) { l.fail(unsupported("queries")) }

// EndQuery implements gpucore.CommandList.
func (l *CommandList) EndQuery(*gpucore.QueryHeap, uint32) { l.fail(unsupported("queries")) }

// ResolveQueryData implements gpucore.CommandList.
func (l *CommandList) ResolveQueryData(*gpucore.QueryHeap, uint32, uint32, *gpucore.GpuResource, uint64) {
	l.fail(unsupported("queries"))
}

// SetPredication implements gpucore.CommandList. Clearing predication is
// accepted.
func (l *CommandList) SetPredication(res *gpucore.GpuResource, _ uint64, _ gpucore.PredicationOp) {
	if res != nil {
		l.fail(unsupported("predication"))
	}
}

// BeginEvent implements gpucore.CommandList. Debug regions are not encoded.
func (l *CommandList) BeginEvent(string) {}

// EndEvent implements gpucore.CommandList.
func (l *CommandList) EndEvent() {}

// SetMarker implements gpucore.CommandList.
func (l *CommandList) SetMarker(string) {}
