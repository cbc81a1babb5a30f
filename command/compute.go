// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package command

import "github.com/gogpu/gfxctx/gpucore"

// ComputeContext is the compute view of a Context. Root bindings go to the
// compute bind point.
type ComputeContext struct {
	*Context
}

const cmp = gpucore.BindCompute

// SetRootSignature binds rs. Binding the signature already bound records
// nothing; a new signature resets the staged descriptor tables.
func (c ComputeContext) SetRootSignature(rs *gpucore.RootSignature) {
	c.setRootSignature(cmp, rs)
}

// ClearUAV zeroes the UAV of buffer b.
func (c ComputeContext) ClearUAV(b *gpucore.GpuBuffer) {
	c.clearUAV(b.Resource(), b.UAV, [4]uint32{})
}

// SetConstantArray sets root constants of root starting at word offset.
func (c ComputeContext) SetConstantArray(root uint32, values []uint32, offset uint32) {
	c.setConstants(cmp, root, values, offset)
}

// SetConstant sets one root constant.
func (c ComputeContext) SetConstant(root, offset uint32, v DWParam) {
	c.setConstants(cmp, root, []uint32{uint32(v)}, offset)
}

// SetConstants sets the leading root constants of root.
func (c ComputeContext) SetConstants(root uint32, values ...DWParam) {
	c.setConstants(cmp, root, paramWords(values), 0)
}

// SetConstantBuffer binds a root constant buffer view at addr.
func (c ComputeContext) SetConstantBuffer(root uint32, addr gpucore.BufferAddress) {
	c.live()
	c.list.SetRootView(cmp, gpucore.RootCBV, root, addr)
}

// SetDynamicConstantBufferView copies data into upload memory and binds it.
func (c ComputeContext) SetDynamicConstantBufferView(root uint32, data []byte) error {
	return c.setDynamicCBV(cmp, root, data)
}

// SetDynamicSRV copies data into upload memory and binds it as a root SRV.
func (c ComputeContext) SetDynamicSRV(root uint32, data []byte) error {
	return c.setDynamicSRV(cmp, root, data)
}

// SetBufferSRV binds b as a root shader resource view.
func (c ComputeContext) SetBufferSRV(root uint32, b *gpucore.GpuBuffer, offset uint64) {
	c.setBufferSRV(cmp, root, b, offset)
}

// SetBufferUAV binds b as a root unordered access view.
func (c ComputeContext) SetBufferUAV(root uint32, b *gpucore.GpuBuffer, offset uint64) {
	c.setBufferUAV(cmp, root, b, offset)
}

// SetDescriptorTable binds a table that already lives in a shader-visible
// heap.
func (c ComputeContext) SetDescriptorTable(root uint32, table gpucore.GPUDescriptorHandle) {
	c.live()
	c.list.SetRootDescriptorTable(cmp, root, table)
}

// SetDynamicDescriptor stages one view into table root at offset.
func (c ComputeContext) SetDynamicDescriptor(root, offset uint32, h gpucore.CPUDescriptorHandle) {
	c.setDynamicDescriptors(cmp, root, offset, []gpucore.CPUDescriptorHandle{h})
}

// SetDynamicDescriptors stages consecutive views into table root.
func (c ComputeContext) SetDynamicDescriptors(root, offset uint32, hs ...gpucore.CPUDescriptorHandle) {
	c.setDynamicDescriptors(cmp, root, offset, hs)
}

// SetDynamicSampler stages one sampler into table root at offset.
func (c ComputeContext) SetDynamicSampler(root, offset uint32, h gpucore.CPUDescriptorHandle) {
	c.setDynamicSamplers(cmp, root, offset, []gpucore.CPUDescriptorHandle{h})
}

// SetDynamicSamplers stages consecutive samplers into table root.
func (c ComputeContext) SetDynamicSamplers(root, offset uint32, hs ...gpucore.CPUDescriptorHandle) {
	c.setDynamicSamplers(cmp, root, offset, hs)
}

// Dispatch runs x*y*z thread groups.
func (c ComputeContext) Dispatch(x, y, z uint32) {
	c.prepare(cmp)
	c.list.Dispatch(x, y, z)
}

// Dispatch1D covers threads with groups of groupSize.
func (c ComputeContext) Dispatch1D(threads, groupSize uint32) {
	c.Dispatch(divideUp(threads, groupSize), 1, 1)
}

// Dispatch2D covers a threadsX x threadsY grid with groups of
// groupX x groupY.
func (c ComputeContext) Dispatch2D(threadsX, threadsY, groupX, groupY uint32) {
	c.Dispatch(divideUp(threadsX, groupX), divideUp(threadsY, groupY), 1)
}

// Dispatch3D covers a 3D thread grid.
func (c ComputeContext) Dispatch3D(threadsX, threadsY, threadsZ, groupX, groupY, groupZ uint32) {
	c.Dispatch(divideUp(threadsX, groupX), divideUp(threadsY, groupY), divideUp(threadsZ, groupZ))
}

// DispatchIndirect dispatches with arguments read from args at offset,
// using the manager's shared dispatch command signature.
func (c ComputeContext) DispatchIndirect(args *gpucore.GpuBuffer, offset uint64) {
	c.ExecuteIndirect(c.mgr.cfg.DispatchIndirect, args, offset, 1, nil, 0)
}

// ExecuteIndirect runs up to maxCommands commands of sig from args.
func (c ComputeContext) ExecuteIndirect(sig *gpucore.CommandSignature, args *gpucore.GpuBuffer, argsOffset uint64,
	maxCommands uint32, count *gpucore.GpuBuffer, countOffset uint64,
) {
	executeIndirect(c.Context, cmp, sig, args, argsOffset, maxCommands, count, countOffset)
}

func divideUp(n, d uint32) uint32 {
	assert(d > 0, "zero group size")
	return (n + d - 1) / d
}
