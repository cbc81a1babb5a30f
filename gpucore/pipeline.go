// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import "fmt"

// BindPoint selects the graphics or compute binding slots of a command list.
type BindPoint uint8

const (
	BindGraphics BindPoint = iota
	BindCompute

	// NumBindPoints is the number of bind points.
	NumBindPoints = 2
)

// String returns the bind point name.
func (b BindPoint) String() string {
	if b == BindCompute {
		return "Compute"
	}
	return "Graphics"
}

// PrimitiveTopology is the input assembler topology.
type PrimitiveTopology uint8

const (
	TopologyUndefined PrimitiveTopology = iota
	TopologyPointList
	TopologyLineList
	TopologyLineStrip
	TopologyTriangleList
	TopologyTriangleStrip
)

// VertexFormat is the format of one vertex attribute.
type VertexFormat uint8

const (
	VertexFloat32 VertexFormat = iota
	VertexFloat32x2
	VertexFloat32x3
	VertexFloat32x4
	VertexUint32
	VertexUnorm8x4
)

// InputElement is one vertex attribute.
type InputElement struct {
	Location uint32
	Format   VertexFormat
	Offset   uint32
	Slot     uint32
}

// BlendMode is a simplified color blend setup.
type BlendMode uint8

const (
	BlendNone BlendMode = iota
	BlendAlpha
	BlendPremultiplied
	BlendAdditive
)

// ShaderSource holds one shader stage. Exactly one of WGSL or SPIRV is set.
type ShaderSource struct {
	WGSL       string
	SPIRV      []uint32
	EntryPoint string
}

// GraphicsPSODesc describes a graphics pipeline.
type GraphicsPSODesc struct {
	Label         string
	RootSignature *RootSignature
	VS            ShaderSource
	PS            ShaderSource
	InputLayout   []InputElement
	VertexStrides []uint32
	Topology      PrimitiveTopology
	RTVFormats    []Format
	DSVFormat     Format
	SampleCount   uint32
	DepthTest     bool
	DepthWrite    bool
	Blend         BlendMode
}

// ComputePSODesc describes a compute pipeline.
type ComputePSODesc struct {
	Label         string
	RootSignature *RootSignature
	CS            ShaderSource
}

// Pipeline is implemented by GraphicsPSO and ComputePSO.
type Pipeline interface {
	Pipeline() *PipelineState
}

// PipelineState is the part shared by every pipeline state object.
type PipelineState struct {
	id        ObjectID
	label     string
	bindPoint BindPoint
	rootSig   *RootSignature
	native    any
}

// InitPipeline assigns a fresh identity. Backends call it after building the
// native pipeline.
func (p *PipelineState) InitPipeline(bp BindPoint, label string, rs *RootSignature, native any) {
	p.id = NewObjectID()
	p.label = label
	p.bindPoint = bp
	p.rootSig = rs
	p.native = native
}

// Pipeline returns p itself.
func (p *PipelineState) Pipeline() *PipelineState { return p }

// ID returns the pipeline identity.
func (p *PipelineState) ID() ObjectID { return p.id }

// Label returns the debug name.
func (p *PipelineState) Label() string { return p.label }

// BindPoint returns the bind point the pipeline is used on.
func (p *PipelineState) BindPoint() BindPoint { return p.bindPoint }

// RootSignature returns the layout the pipeline was built against.
func (p *PipelineState) RootSignature() *RootSignature { return p.rootSig }

// Native returns the backend object.
func (p *PipelineState) Native() any { return p.native }

// GraphicsPSO is a finalized graphics pipeline.
type GraphicsPSO struct {
	PipelineState
	Desc GraphicsPSODesc
}

// ComputePSO is a finalized compute pipeline.
type ComputePSO struct {
	PipelineState
	Desc ComputePSODesc
}

// IndirectArgumentType selects what an indirect command executes.
type IndirectArgumentType uint8

const (
	IndirectDraw IndirectArgumentType = iota
	IndirectDrawIndexed
	IndirectDispatch
)

// String returns the argument type name.
func (t IndirectArgumentType) String() string {
	switch t {
	case IndirectDraw:
		return "Draw"
	case IndirectDrawIndexed:
		return "DrawIndexed"
	case IndirectDispatch:
		return "Dispatch"
	default:
		return fmt.Sprintf("IndirectArgumentType(%d)", uint8(t))
	}
}

// CommandSignature describes the layout of indirect argument records.
type CommandSignature struct {
	id         ObjectID
	argType    IndirectArgumentType
	byteStride uint32
	native     any
}

// NewCommandSignature returns a signature for tightly packed records of t.
func NewCommandSignature(t IndirectArgumentType) *CommandSignature {
	stride := uint32(16)
	switch t {
	case IndirectDrawIndexed:
		stride = 20
	case IndirectDispatch:
		stride = 12
	}
	return &CommandSignature{id: NewObjectID(), argType: t, byteStride: stride}
}

// ID returns the signature identity.
func (s *CommandSignature) ID() ObjectID { return s.id }

// ArgumentType returns the indirect command kind.
func (s *CommandSignature) ArgumentType() IndirectArgumentType { return s.argType }

// ByteStride returns the size of one argument record.
func (s *CommandSignature) ByteStride() uint32 { return s.byteStride }

// Native returns the backend object.
func (s *CommandSignature) Native() any { return s.native }

// SetNative attaches a backend object.
func (s *CommandSignature) SetNative(n any) { s.native = n }

// Viewport is a rasterizer viewport.
type Viewport struct {
	X, Y, Width, Height float32
	MinDepth, MaxDepth  float32
}

// Rect is a scissor or clear rectangle in pixels. Right and Bottom are
// exclusive.
type Rect struct {
	Left, Top, Right, Bottom int32
}

// Width returns Right - Left.
func (r Rect) Width() int32 { return r.Right - r.Left }

// Height returns Bottom - Top.
func (r Rect) Height() int32 { return r.Bottom - r.Top }
