// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package command

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gfxctx/gpucore"
)

// GraphicsContext is the graphics view of a Context. Root bindings go to the
// graphics bind point. It is a thin value wrapper; copies share the Context.
type GraphicsContext struct {
	*Context
}

const gfx = gpucore.BindGraphics

// SetRootSignature binds rs. Binding the signature already bound records
// nothing; a new signature resets the staged descriptor tables.
func (g GraphicsContext) SetRootSignature(rs *gpucore.RootSignature) {
	g.setRootSignature(gfx, rs)
}

// ============================================================================
// Clears
// ============================================================================

// ClearUAV zeroes the UAV of buffer b.
func (g GraphicsContext) ClearUAV(b *gpucore.GpuBuffer) {
	g.clearUAV(b.Resource(), b.UAV, [4]uint32{})
}

// ClearColorUAV clears the UAV of cb to its clear color.
func (g GraphicsContext) ClearColorUAV(cb *gpucore.ColorBuffer) {
	var v [4]uint32
	for i, f := range cb.ClearColor {
		v[i] = math.Float32bits(f)
	}
	g.clearUAV(cb.Resource(), cb.UAV, v)
}

// ClearColor clears the render target view of cb to its clear color,
// restricted to rects when given.
func (g GraphicsContext) ClearColor(cb *gpucore.ColorBuffer, rects ...gpucore.Rect) {
	g.FlushResourceBarriers()
	g.list.ClearRenderTargetView(cb.RTV, cb.ClearColor, rects)
}

// ClearDepth clears the depth of db to its clear depth.
func (g GraphicsContext) ClearDepth(db *gpucore.DepthBuffer) {
	g.clearDepthStencil(db, gpucore.ClearDepth)
}

// ClearStencil clears the stencil of db to its clear stencil.
func (g GraphicsContext) ClearStencil(db *gpucore.DepthBuffer) {
	g.clearDepthStencil(db, gpucore.ClearStencil)
}

// ClearDepthAndStencil clears both aspects of db.
func (g GraphicsContext) ClearDepthAndStencil(db *gpucore.DepthBuffer) {
	g.clearDepthStencil(db, gpucore.ClearDepth|gpucore.ClearStencil)
}

func (g GraphicsContext) clearDepthStencil(db *gpucore.DepthBuffer, flags gpucore.ClearFlags) {
	assert(db.State().Has(gpucore.StateDepthWrite), "depth buffer %s cleared in state %s", db.Label(), db.State())
	g.FlushResourceBarriers()
	g.list.ClearDepthStencilView(db.DSV, flags, db.ClearDepth, db.ClearStencil, nil)
}

// ============================================================================
// Output merger and rasterizer state
// ============================================================================

// SetRenderTargets binds rtvs and an optional depth-stencil view.
func (g GraphicsContext) SetRenderTargets(rtvs []gpucore.CPUDescriptorHandle, dsv gpucore.CPUDescriptorHandle) {
	g.live()
	g.list.SetRenderTargets(rtvs, dsv)
}

// SetRenderTarget binds a single render target and an optional depth view.
func (g GraphicsContext) SetRenderTarget(rtv, dsv gpucore.CPUDescriptorHandle) {
	g.SetRenderTargets([]gpucore.CPUDescriptorHandle{rtv}, dsv)
}

// SetDepthStencilTarget binds only a depth-stencil view, as for depth-only
// passes.
func (g GraphicsContext) SetDepthStencilTarget(dsv gpucore.CPUDescriptorHandle) {
	g.SetRenderTargets(nil, dsv)
}

// SetViewport sets one viewport.
func (g GraphicsContext) SetViewport(vp gpucore.Viewport) {
	g.live()
	g.list.SetViewports([]gpucore.Viewport{vp})
}

// SetViewports sets every viewport.
func (g GraphicsContext) SetViewports(vps ...gpucore.Viewport) {
	g.live()
	g.list.SetViewports(vps)
}

// SetScissor sets one scissor rectangle.
func (g GraphicsContext) SetScissor(r gpucore.Rect) {
	g.live()
	assert(r.Left < r.Right && r.Top < r.Bottom, "empty scissor %+v", r)
	g.list.SetScissorRects([]gpucore.Rect{r})
}

// SetViewportAndScissor covers the w x h rectangle at (x, y) with both a
// full-depth viewport and a matching scissor.
func (g GraphicsContext) SetViewportAndScissor(x, y, w, h uint32) {
	g.SetViewport(gpucore.Viewport{
		X: float32(x), Y: float32(y),
		Width: float32(w), Height: float32(h),
		MinDepth: 0, MaxDepth: 1,
	})
	g.SetScissor(gpucore.Rect{
		Left: int32(x), Top: int32(y), //nolint:gosec // render target extents fit int32
		Right: int32(x + w), Bottom: int32(y + h), //nolint:gosec // render target extents fit int32
	})
}

// SetStencilRef sets the stencil reference value.
func (g GraphicsContext) SetStencilRef(ref uint32) {
	g.live()
	g.list.SetStencilRef(ref)
}

// SetBlendFactor sets the constant blend color.
func (g GraphicsContext) SetBlendFactor(factor [4]float32) {
	g.live()
	g.list.SetBlendFactor(factor)
}

// SetPrimitiveTopology sets the input assembler topology.
func (g GraphicsContext) SetPrimitiveTopology(t gpucore.PrimitiveTopology) {
	g.live()
	g.list.SetPrimitiveTopology(t)
}

// ============================================================================
// Root arguments
// ============================================================================

// SetConstantArray sets root constants of root parameter root starting at
// word offset.
func (g GraphicsContext) SetConstantArray(root uint32, values []uint32, offset uint32) {
	g.setConstants(gfx, root, values, offset)
}

// SetConstant sets one root constant.
func (g GraphicsContext) SetConstant(root, offset uint32, v DWParam) {
	g.setConstants(gfx, root, []uint32{uint32(v)}, offset)
}

// SetConstants sets the leading root constants of root.
func (g GraphicsContext) SetConstants(root uint32, values ...DWParam) {
	g.setConstants(gfx, root, paramWords(values), 0)
}

// SetConstantBuffer binds a root constant buffer view at addr.
func (g GraphicsContext) SetConstantBuffer(root uint32, addr gpucore.BufferAddress) {
	g.live()
	g.list.SetRootView(gfx, gpucore.RootCBV, root, addr)
}

// SetDynamicConstantBufferView copies data into upload memory and binds it
// as a root constant buffer.
func (g GraphicsContext) SetDynamicConstantBufferView(root uint32, data []byte) error {
	return g.setDynamicCBV(gfx, root, data)
}

// SetBufferSRV binds b as a root shader resource view. b must be in a
// shader resource state.
func (g GraphicsContext) SetBufferSRV(root uint32, b *gpucore.GpuBuffer, offset uint64) {
	g.setBufferSRV(gfx, root, b, offset)
}

// SetBufferUAV binds b as a root unordered access view. b must be in the
// unordered access state.
func (g GraphicsContext) SetBufferUAV(root uint32, b *gpucore.GpuBuffer, offset uint64) {
	g.setBufferUAV(gfx, root, b, offset)
}

// SetDescriptorTable binds a table that already lives in a shader-visible
// heap.
func (g GraphicsContext) SetDescriptorTable(root uint32, table gpucore.GPUDescriptorHandle) {
	g.live()
	g.list.SetRootDescriptorTable(gfx, root, table)
}

// SetDynamicDescriptor stages one view into table root at offset.
func (g GraphicsContext) SetDynamicDescriptor(root, offset uint32, h gpucore.CPUDescriptorHandle) {
	g.setDynamicDescriptors(gfx, root, offset, []gpucore.CPUDescriptorHandle{h})
}

// SetDynamicDescriptors stages consecutive views into table root.
func (g GraphicsContext) SetDynamicDescriptors(root, offset uint32, hs ...gpucore.CPUDescriptorHandle) {
	g.setDynamicDescriptors(gfx, root, offset, hs)
}

// SetDynamicSampler stages one sampler into table root at offset.
func (g GraphicsContext) SetDynamicSampler(root, offset uint32, h gpucore.CPUDescriptorHandle) {
	g.setDynamicSamplers(gfx, root, offset, []gpucore.CPUDescriptorHandle{h})
}

// SetDynamicSamplers stages consecutive samplers into table root.
func (g GraphicsContext) SetDynamicSamplers(root, offset uint32, hs ...gpucore.CPUDescriptorHandle) {
	g.setDynamicSamplers(gfx, root, offset, hs)
}

// SetDynamicSRV copies data into upload memory and binds it as a root
// shader resource view.
func (g GraphicsContext) SetDynamicSRV(root uint32, data []byte) error {
	return g.setDynamicSRV(gfx, root, data)
}

// ============================================================================
// Input assembler
// ============================================================================

// SetIndexBuffer binds an index buffer view.
func (g GraphicsContext) SetIndexBuffer(view gpucore.IndexBufferView) {
	g.live()
	g.list.SetIndexBuffer(&view)
}

// SetVertexBuffer binds view to slot.
func (g GraphicsContext) SetVertexBuffer(slot uint32, view gpucore.VertexBufferView) {
	g.SetVertexBuffers(slot, view)
}

// SetVertexBuffers binds views to consecutive slots starting at start.
func (g GraphicsContext) SetVertexBuffers(start uint32, views ...gpucore.VertexBufferView) {
	g.live()
	g.list.SetVertexBuffers(start, views)
}

// SetDynamicVB copies count vertices of stride bytes from data into upload
// memory and binds them to slot.
func (g GraphicsContext) SetDynamicVB(slot uint32, count, stride uint32, data []byte) error {
	size := uint64(count) * uint64(stride)
	if uint64(len(data)) < size {
		return fmt.Errorf("command: dynamic vertex data has %d bytes, need %d", len(data), size)
	}
	mem, err := g.ReserveUploadMemory(size)
	if err != nil {
		return err
	}
	copy(mem.Data, data[:size])
	g.list.SetVertexBuffers(slot, []gpucore.VertexBufferView{{
		Location: mem.Address(),
		Size:     uint32(size), //nolint:gosec // bounded by the upload page size
		Stride:   stride,
	}})
	return nil
}

// SetDynamicIB copies 16-bit indices into upload memory and binds them.
func (g GraphicsContext) SetDynamicIB(indices []uint16) error {
	size := uint64(len(indices)) * 2
	mem, err := g.ReserveUploadMemory(size)
	if err != nil {
		return err
	}
	for i, idx := range indices {
		binary.LittleEndian.PutUint16(mem.Data[i*2:], idx)
	}
	g.list.SetIndexBuffer(&gpucore.IndexBufferView{
		Location: mem.Address(),
		Size:     uint32(size), //nolint:gosec // bounded by the upload page size
		Format:   gpucore.IndexFormatUint16,
	})
	return nil
}

// ============================================================================
// Draws
// ============================================================================

// Draw draws count vertices starting at start.
func (g GraphicsContext) Draw(count, start uint32) {
	g.DrawInstanced(count, 1, start, 0)
}

// DrawIndexed draws count indices starting at startIndex, offset by
// baseVertex.
func (g GraphicsContext) DrawIndexed(count, startIndex uint32, baseVertex int32) {
	g.DrawIndexedInstanced(count, 1, startIndex, baseVertex, 0)
}

// DrawInstanced draws instances of a non-indexed primitive range.
func (g GraphicsContext) DrawInstanced(vertexCount, instanceCount, startVertex, startInstance uint32) {
	g.prepare(gfx)
	g.list.DrawInstanced(vertexCount, instanceCount, startVertex, startInstance)
}

// DrawIndexedInstanced draws instances of an indexed primitive range.
func (g GraphicsContext) DrawIndexedInstanced(indexCount, instanceCount, startIndex uint32, baseVertex int32, startInstance uint32) {
	g.prepare(gfx)
	g.list.DrawIndexedInstanced(indexCount, instanceCount, startIndex, baseVertex, startInstance)
}

// DrawIndirect draws with arguments read from args at offset, using the
// manager's shared draw command signature.
func (g GraphicsContext) DrawIndirect(args *gpucore.GpuBuffer, offset uint64) {
	g.ExecuteIndirect(g.mgr.cfg.DrawIndirect, args, offset, 1, nil, 0)
}

// DrawIndexedIndirect draws indexed with arguments read from args.
func (g GraphicsContext) DrawIndexedIndirect(args *gpucore.GpuBuffer, offset uint64) {
	g.ExecuteIndirect(g.mgr.cfg.DrawIndexedIndirect, args, offset, 1, nil, 0)
}

// ExecuteIndirect runs up to maxCommands commands of sig from args. When
// count is non-nil the GPU reads the actual command count from it.
func (g GraphicsContext) ExecuteIndirect(sig *gpucore.CommandSignature, args *gpucore.GpuBuffer, argsOffset uint64,
	maxCommands uint32, count *gpucore.GpuBuffer, countOffset uint64,
) {
	executeIndirect(g.Context, gfx, sig, args, argsOffset, maxCommands, count, countOffset)
}

func executeIndirect(c *Context, bp gpucore.BindPoint, sig *gpucore.CommandSignature, args *gpucore.GpuBuffer,
	argsOffset uint64, maxCommands uint32, count *gpucore.GpuBuffer, countOffset uint64,
) {
	assert(sig != nil, "nil command signature")
	c.prepare(bp)
	var countAddr gpucore.BufferAddress
	if count != nil {
		countAddr = count.Address(countOffset)
	}
	c.list.ExecuteIndirect(sig, maxCommands, args.Address(argsOffset), countAddr)
}
