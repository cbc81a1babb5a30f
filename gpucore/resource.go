// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import "sync/atomic"

// ObjectID is a process-unique, generation-stamped identity. Zero is never
// handed out and means "nothing bound".
type ObjectID uint64

// InvalidID is the zero ObjectID.
const InvalidID ObjectID = 0

var nextObjectID atomic.Uint64

// NewObjectID returns a fresh identity. IDs are never reused, so a rebuilt
// object never compares equal to the one it replaced.
func NewObjectID() ObjectID {
	return ObjectID(nextObjectID.Add(1))
}

// Resource is implemented by every type that embeds a GpuResource.
type Resource interface {
	Resource() *GpuResource
}

// GpuResource is the state-tracked part of every GPU-visible resource.
//
// The recorded usage state always equals the state most recently committed
// through a barrier, pending or flushed, on the command list that last
// touched the resource. A GpuResource is not safe for concurrent mutation;
// contexts on different goroutines must not transition the same resource.
type GpuResource struct {
	id            ObjectID
	native        any
	label         string
	gpuAddress    uint64
	usage         ResourceState
	transitioning ResourceState
	destroyed     bool
}

// Init (re)binds r to a backend object. A fresh ObjectID is assigned.
func (r *GpuResource) Init(native any, state ResourceState, gpuAddress uint64, label string) {
	r.id = NewObjectID()
	r.native = native
	r.label = label
	r.gpuAddress = gpuAddress
	r.usage = state
	r.transitioning = StateInvalid
	r.destroyed = false
}

// Resource returns r itself; embedding types inherit it and thereby satisfy
// the Resource interface.
func (r *GpuResource) Resource() *GpuResource { return r }

// ID returns the identity assigned at Init.
func (r *GpuResource) ID() ObjectID { return r.id }

// Native returns the backend object.
func (r *GpuResource) Native() any { return r.native }

// Label returns the debug name.
func (r *GpuResource) Label() string { return r.label }

// GPUAddress returns the base virtual address, or 0 for textures.
func (r *GpuResource) GPUAddress() uint64 { return r.gpuAddress }

// State returns the tracked usage state.
func (r *GpuResource) State() ResourceState { return r.usage }

// SetState overwrites the tracked usage state. Only contexts and backends
// creating the resource should call it.
func (r *GpuResource) SetState(s ResourceState) { r.usage = s }

// TransitioningState returns the target of a begin-only split barrier in
// flight, or StateInvalid.
func (r *GpuResource) TransitioningState() ResourceState { return r.transitioning }

// SetTransitioningState records the target of a split barrier in flight.
func (r *GpuResource) SetTransitioningState(s ResourceState) { r.transitioning = s }

// IsValid reports whether r has been initialized and not destroyed.
func (r *GpuResource) IsValid() bool { return r.id != InvalidID && !r.destroyed }

// Destroy drops the backend object reference. The caller is responsible for
// releasing the backend object through its Device first.
func (r *GpuResource) Destroy() {
	r.native = nil
	r.gpuAddress = 0
	r.destroyed = true
}

// BufferAddress locates a byte inside a buffer resource. Root descriptors,
// vertex/index views and indirect arguments are expressed with it so a
// backend can recover the owning resource.
type BufferAddress struct {
	Resource *GpuResource
	Offset   uint64
}

// Address returns the flat GPU virtual address.
func (a BufferAddress) Address() uint64 {
	if a.Resource == nil {
		return 0
	}
	return a.Resource.GPUAddress() + a.Offset
}

// IsNull reports whether a points at nothing.
func (a BufferAddress) IsNull() bool { return a.Resource == nil }
