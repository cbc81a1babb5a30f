// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import (
	"errors"
	"fmt"
)

// MaxRootParameters bounds the number of root parameters, so table masks fit
// in a uint32.
const MaxRootParameters = 16

// Root signature errors.
var (
	// ErrTooManyRootParameters is returned by Finalize when more than
	// MaxRootParameters parameters are declared.
	ErrTooManyRootParameters = errors.New("gpucore: too many root parameters")

	// ErrMixedTable is returned by Finalize when a descriptor table mixes
	// sampler and non-sampler ranges.
	ErrMixedTable = errors.New("gpucore: descriptor table mixes samplers and views")

	// ErrEmptyTable is returned by Finalize for a table without ranges.
	ErrEmptyTable = errors.New("gpucore: descriptor table has no ranges")
)

// RootParameterType is the kind of a root parameter.
type RootParameterType uint8

const (
	RootDescriptorTable RootParameterType = iota
	Root32BitConstants
	RootCBV
	RootSRV
	RootUAV
)

// String returns the parameter type name.
func (t RootParameterType) String() string {
	switch t {
	case RootDescriptorTable:
		return "DescriptorTable"
	case Root32BitConstants:
		return "Constants"
	case RootCBV:
		return "CBV"
	case RootSRV:
		return "SRV"
	case RootUAV:
		return "UAV"
	default:
		return fmt.Sprintf("RootParameterType(%d)", uint8(t))
	}
}

// ShaderVisibility restricts a root parameter to shader stages.
type ShaderVisibility uint8

const (
	VisibilityAll ShaderVisibility = iota
	VisibilityVertex
	VisibilityPixel
	VisibilityCompute
)

// RangeType is the descriptor kind of a table range.
type RangeType uint8

const (
	RangeSRV RangeType = iota
	RangeUAV
	RangeCBV
	RangeSampler
)

// DescriptorRange is a run of registers in a descriptor table.
type DescriptorRange struct {
	Type         RangeType
	BaseRegister uint32
	Count        uint32
	Space        uint32
}

// RootParameter is one slot of a root signature.
type RootParameter struct {
	Type       RootParameterType
	Visibility ShaderVisibility

	// Ranges is set for RootDescriptorTable.
	Ranges []DescriptorRange

	// Register is the shader register for constants and root descriptors.
	Register uint32
	Space    uint32

	// NumConstants is set for Root32BitConstants.
	NumConstants uint32
}

// TableSize returns the total descriptor count of a table parameter.
func (p RootParameter) TableSize() uint32 {
	var n uint32
	for _, r := range p.Ranges {
		n += r.Count
	}
	return n
}

// IsSamplerTable reports whether p is a table of sampler ranges.
func (p RootParameter) IsSamplerTable() bool {
	return p.Type == RootDescriptorTable && len(p.Ranges) > 0 && p.Ranges[0].Type == RangeSampler
}

// Table returns a descriptor table parameter.
func Table(vis ShaderVisibility, ranges ...DescriptorRange) RootParameter {
	return RootParameter{Type: RootDescriptorTable, Visibility: vis, Ranges: ranges}
}

// Range returns a descriptor range of count registers starting at base.
func Range(t RangeType, base, count uint32) DescriptorRange {
	return DescriptorRange{Type: t, BaseRegister: base, Count: count}
}

// Constants returns a 32-bit constants parameter.
func Constants(register, count uint32, vis ShaderVisibility) RootParameter {
	return RootParameter{Type: Root32BitConstants, Register: register, NumConstants: count, Visibility: vis}
}

// RootView returns a root CBV, SRV or UAV parameter.
func RootView(t RootParameterType, register uint32, vis ShaderVisibility) RootParameter {
	return RootParameter{Type: t, Register: register, Visibility: vis}
}

// RootSignature describes how shader registers map to root parameters.
//
// Build it with NewRootSignature, then call Finalize once. A finalized root
// signature is immutable; its ID changes only when it is finalized again.
type RootSignature struct {
	id        ObjectID
	label     string
	params    []RootParameter
	samplers  []SamplerDesc
	finalized bool
	native    any

	viewTableMask    uint32
	samplerTableMask uint32
	tableSizes       [MaxRootParameters]uint32
}

// NewRootSignature creates an unfinalized root signature.
func NewRootSignature(label string, params ...RootParameter) *RootSignature {
	return &RootSignature{label: label, params: params}
}

// AddStaticSampler declares an immutable sampler.
func (rs *RootSignature) AddStaticSampler(desc SamplerDesc) {
	rs.samplers = append(rs.samplers, desc)
}

// Finalize validates the layout, computes the table masks and assigns a
// fresh ID. native is an optional backend object built from the layout.
func (rs *RootSignature) Finalize(native any) error {
	if len(rs.params) > MaxRootParameters {
		return fmt.Errorf("%w: %d > %d", ErrTooManyRootParameters, len(rs.params), MaxRootParameters)
	}
	rs.viewTableMask, rs.samplerTableMask = 0, 0
	rs.tableSizes = [MaxRootParameters]uint32{}
	for i, p := range rs.params {
		if p.Type != RootDescriptorTable {
			continue
		}
		if len(p.Ranges) == 0 {
			return fmt.Errorf("%w: parameter %d", ErrEmptyTable, i)
		}
		sampler := p.Ranges[0].Type == RangeSampler
		for _, r := range p.Ranges[1:] {
			if (r.Type == RangeSampler) != sampler {
				return fmt.Errorf("%w: parameter %d", ErrMixedTable, i)
			}
		}
		if sampler {
			rs.samplerTableMask |= 1 << i
		} else {
			rs.viewTableMask |= 1 << i
		}
		rs.tableSizes[i] = p.TableSize()
	}
	rs.native = native
	rs.finalized = true
	rs.id = NewObjectID()
	return nil
}

// ID returns the identity assigned by the last Finalize.
func (rs *RootSignature) ID() ObjectID { return rs.id }

// Label returns the debug name.
func (rs *RootSignature) Label() string { return rs.label }

// Finalized reports whether Finalize succeeded.
func (rs *RootSignature) Finalized() bool { return rs.finalized }

// Native returns the backend object.
func (rs *RootSignature) Native() any { return rs.native }

// SetNative replaces the backend object without changing the layout.
func (rs *RootSignature) SetNative(n any) { rs.native = n }

// NumParameters returns the number of root parameters.
func (rs *RootSignature) NumParameters() int { return len(rs.params) }

// Parameter returns parameter i.
func (rs *RootSignature) Parameter(i int) RootParameter { return rs.params[i] }

// StaticSamplers returns the declared static samplers.
func (rs *RootSignature) StaticSamplers() []SamplerDesc { return rs.samplers }

// TableMask returns the bitmask of descriptor-table parameters whose
// descriptors live in heaps of type t (CBV/SRV/UAV or sampler).
func (rs *RootSignature) TableMask(t DescriptorHeapType) uint32 {
	if t == HeapTypeSampler {
		return rs.samplerTableMask
	}
	return rs.viewTableMask
}

// TableSize returns the descriptor count of table parameter i, or 0.
func (rs *RootSignature) TableSize(i int) uint32 { return rs.tableSizes[i] }
