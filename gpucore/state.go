// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import (
	"math/bits"
	"strings"
)

// ResourceState is a bitmask describing how the GPU is allowed to access a
// resource at a given point of a command list.
type ResourceState uint32

// Resource states. Read-only states may be combined; write states are
// exclusive.
const (
	// StateCommon is the state used for cross-queue handoff and presentation.
	StateCommon ResourceState = 0

	StateVertexAndConstantBuffer ResourceState = 1 << 0
	StateIndexBuffer             ResourceState = 1 << 1
	StateRenderTarget            ResourceState = 1 << 2
	StateUnorderedAccess         ResourceState = 1 << 3
	StateDepthWrite              ResourceState = 1 << 4
	StateDepthRead               ResourceState = 1 << 5
	StateNonPixelShaderResource  ResourceState = 1 << 6
	StatePixelShaderResource     ResourceState = 1 << 7
	StateStreamOut               ResourceState = 1 << 8
	StateIndirectArgument        ResourceState = 1 << 9
	StateCopyDest                ResourceState = 1 << 10
	StateCopySource              ResourceState = 1 << 11
	StateResolveDest             ResourceState = 1 << 12
	StateResolveSource           ResourceState = 1 << 13

	// StateGenericRead is the union of every read-only state an upload heap
	// resource may be used in.
	StateGenericRead = StateVertexAndConstantBuffer |
		StateIndexBuffer |
		StateNonPixelShaderResource |
		StatePixelShaderResource |
		StateIndirectArgument |
		StateCopySource

	// StatePresent aliases StateCommon.
	StatePresent = StateCommon

	// StatePredication aliases StateIndirectArgument.
	StatePredication = StateIndirectArgument

	// StateShaderResource is readable from every shader stage.
	StateShaderResource = StateNonPixelShaderResource | StatePixelShaderResource
)

// StateInvalid marks "no transition in flight" on a resource's transitioning
// state. It is never a legal barrier endpoint.
const StateInvalid ResourceState = 1 << 31

// ComputeQueueStates is the set of states a resource may be in, on either
// side of a barrier, when the barrier is recorded on a compute queue.
const ComputeQueueStates = StateUnorderedAccess |
	StateNonPixelShaderResource |
	StateCopyDest |
	StateCopySource |
	StateIndirectArgument

// Has reports whether every bit of f is set in s.
func (s ResourceState) Has(f ResourceState) bool {
	return s&f == f
}

// ValidForCompute reports whether s may appear in a barrier recorded on a
// compute queue.
func (s ResourceState) ValidForCompute() bool {
	return s&ComputeQueueStates == s
}

// IsReadOnly reports whether s contains only read states.
func (s ResourceState) IsReadOnly() bool {
	const writes = StateRenderTarget | StateUnorderedAccess | StateDepthWrite |
		StateStreamOut | StateCopyDest | StateResolveDest
	return s&writes == 0 && s != StateInvalid
}

var stateNames = [...]string{
	"VertexAndConstantBuffer",
	"IndexBuffer",
	"RenderTarget",
	"UnorderedAccess",
	"DepthWrite",
	"DepthRead",
	"NonPixelShaderResource",
	"PixelShaderResource",
	"StreamOut",
	"IndirectArgument",
	"CopyDest",
	"CopySource",
	"ResolveDest",
	"ResolveSource",
}

// String returns a readable form such as "CopySource|PixelShaderResource".
func (s ResourceState) String() string {
	switch s {
	case StateCommon:
		return "Common"
	case StateInvalid:
		return "Invalid"
	case StateGenericRead:
		return "GenericRead"
	}
	var b strings.Builder
	for v := uint32(s); v != 0; v &= v - 1 {
		i := bits.TrailingZeros32(v)
		if b.Len() > 0 {
			b.WriteByte('|')
		}
		if i < len(stateNames) {
			b.WriteString(stateNames[i])
		} else {
			b.WriteString("Unknown")
		}
	}
	return b.String()
}
