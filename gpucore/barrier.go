// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import "fmt"

// BarrierKind is the kind of a resource barrier.
type BarrierKind uint8

const (
	// BarrierTransition moves a resource between usage states.
	BarrierTransition BarrierKind = iota
	// BarrierAliasing orders two placed resources sharing memory.
	BarrierAliasing
	// BarrierUAV orders unordered-access writes against later accesses.
	BarrierUAV
)

// String returns the barrier kind name.
func (k BarrierKind) String() string {
	switch k {
	case BarrierTransition:
		return "Transition"
	case BarrierAliasing:
		return "Aliasing"
	case BarrierUAV:
		return "UAV"
	default:
		return fmt.Sprintf("BarrierKind(%d)", uint8(k))
	}
}

// BarrierFlags marks split barriers.
type BarrierFlags uint8

const (
	BarrierFlagNone BarrierFlags = iota
	// BarrierFlagBeginOnly starts a split transition.
	BarrierFlagBeginOnly
	// BarrierFlagEndOnly completes a split transition.
	BarrierFlagEndOnly
)

// Barrier is one resource barrier.
type Barrier struct {
	Kind  BarrierKind
	Flags BarrierFlags

	// Resource is the transitioned resource, the UAV resource, or the
	// resource that starts using aliased memory.
	Resource *GpuResource

	// AliasBefore is the resource that stops using aliased memory.
	AliasBefore *GpuResource

	Before      ResourceState
	After       ResourceState
	Subresource uint32
}

// String formats the barrier for logs and test failures.
func (b Barrier) String() string {
	name := "<nil>"
	if b.Resource != nil {
		name = b.Resource.Label()
	}
	switch b.Kind {
	case BarrierTransition:
		s := fmt.Sprintf("Transition(%s: %s -> %s)", name, b.Before, b.After)
		switch b.Flags {
		case BarrierFlagBeginOnly:
			s += " begin"
		case BarrierFlagEndOnly:
			s += " end"
		}
		return s
	case BarrierAliasing:
		before := "<nil>"
		if b.AliasBefore != nil {
			before = b.AliasBefore.Label()
		}
		return fmt.Sprintf("Aliasing(%s -> %s)", before, name)
	default:
		return fmt.Sprintf("UAV(%s)", name)
	}
}
