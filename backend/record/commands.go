// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package record

import (
	"fmt"

	"github.com/gogpu/gfxctx/gpucore"
)

// Op identifies a recorded command.
type Op uint8

// Recorded operations.
const (
	OpBarrier Op = iota
	OpSetDescriptorHeaps
	OpSetRootSignature
	OpSetPipelineState
	OpSetRootConstants
	OpSetRootView
	OpSetRootTable
	OpSetRenderTargets
	OpClearRenderTarget
	OpClearDepthStencil
	OpClearUAV
	OpSetViewports
	OpSetScissors
	OpSetStencilRef
	OpSetBlendFactor
	OpSetTopology
	OpSetIndexBuffer
	OpSetVertexBuffers
	OpDraw
	OpDrawIndexed
	OpDispatch
	OpExecuteIndirect
	OpCopyResource
	OpCopyBufferRegion
	OpCopyTextureRegion
	OpBeginQuery
	OpEndQuery
	OpResolveQuery
	OpSetPredication
	OpBeginEvent
	OpEndEvent
	OpMarker
)

var opNames = [...]string{
	OpBarrier:            "Barrier",
	OpSetDescriptorHeaps: "SetDescriptorHeaps",
	OpSetRootSignature:   "SetRootSignature",
	OpSetPipelineState:   "SetPipelineState",
	OpSetRootConstants:   "SetRootConstants",
	OpSetRootView:        "SetRootView",
	OpSetRootTable:       "SetRootTable",
	OpSetRenderTargets:   "SetRenderTargets",
	OpClearRenderTarget:  "ClearRenderTarget",
	OpClearDepthStencil:  "ClearDepthStencil",
	OpClearUAV:           "ClearUAV",
	OpSetViewports:       "SetViewports",
	OpSetScissors:        "SetScissors",
	OpSetStencilRef:      "SetStencilRef",
	OpSetBlendFactor:     "SetBlendFactor",
	OpSetTopology:        "SetTopology",
	OpSetIndexBuffer:     "SetIndexBuffer",
	OpSetVertexBuffers:   "SetVertexBuffers",
	OpDraw:               "Draw",
	OpDrawIndexed:        "DrawIndexed",
	OpDispatch:           "Dispatch",
	OpExecuteIndirect:    "ExecuteIndirect",
	OpCopyResource:       "CopyResource",
	OpCopyBufferRegion:   "CopyBufferRegion",
	OpCopyTextureRegion:  "CopyTextureRegion",
	OpBeginQuery:         "BeginQuery",
	OpEndQuery:           "EndQuery",
	OpResolveQuery:       "ResolveQuery",
	OpSetPredication:     "SetPredication",
	OpBeginEvent:         "BeginEvent",
	OpEndEvent:           "EndEvent",
	OpMarker:             "Marker",
}

// String returns the operation name.
func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", uint8(o))
}

// Command is one recorded call. Only the fields relevant to Op are set.
type Command struct {
	Op        Op
	BindPoint gpucore.BindPoint
	Root      uint32

	Barriers      []gpucore.Barrier
	Heaps         []*gpucore.DescriptorHeap
	RootSignature *gpucore.RootSignature
	Pipeline      *gpucore.PipelineState

	ViewKind gpucore.RootParameterType
	Values   []uint32
	Offset   uint32
	Address  gpucore.BufferAddress
	Table    gpucore.GPUDescriptorHandle

	RTVs       []gpucore.CPUDescriptorHandle
	DSV        gpucore.CPUDescriptorHandle
	CPUHandle  gpucore.CPUDescriptorHandle
	Color      [4]float32
	ClearFlags gpucore.ClearFlags
	Depth      float32
	Stencil    uint8
	Rects      []gpucore.Rect
	Viewports  []gpucore.Viewport
	Topology   gpucore.PrimitiveTopology

	IndexBuffer   *gpucore.IndexBufferView
	VertexBuffers []gpucore.VertexBufferView

	// Args holds draw or dispatch arguments in API order.
	Args       [4]uint32
	BaseVertex int32

	Signature *gpucore.CommandSignature
	Count     gpucore.BufferAddress

	Dst, Src             *gpucore.GpuResource
	DstOffset, SrcOffset uint64
	Size                 uint64
	DstLoc, SrcLoc       gpucore.TextureCopyLocation

	QueryHeap  *gpucore.QueryHeap
	QueryIndex uint32
	PredOp     gpucore.PredicationOp

	Label string
}

// String formats the command for test failures.
func (c Command) String() string {
	switch c.Op {
	case OpBarrier:
		return fmt.Sprintf("Barrier%v", c.Barriers)
	case OpSetRootTable:
		return fmt.Sprintf("SetRootTable(%s, %d, %s)", c.BindPoint, c.Root, c.Table)
	case OpBeginEvent, OpMarker:
		return fmt.Sprintf("%s(%q)", c.Op, c.Label)
	default:
		return c.Op.String()
	}
}

// Count returns how many commands in cmds have op.
func Count(cmds []Command, op Op) int {
	n := 0
	for _, c := range cmds {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Barriers returns every barrier in cmds, in order.
func Barriers(cmds []Command) []gpucore.Barrier {
	var out []gpucore.Barrier
	for _, c := range cmds {
		if c.Op == OpBarrier {
			out = append(out, c.Barriers...)
		}
	}
	return out
}

// Ops returns the op sequence of cmds.
func Ops(cmds []Command) []Op {
	out := make([]Op, len(cmds))
	for i, c := range cmds {
		out[i] = c.Op
	}
	return out
}
