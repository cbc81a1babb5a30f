// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpucore defines the backend-neutral GPU contracts used by gfxctx.
//
// It holds three kinds of things:
//
//   - Resource types: [GpuResource] with its tracked [ResourceState], and the
//     concrete [GpuBuffer], [Texture], [ColorBuffer] and [DepthBuffer] shapes
//     that embed it.
//   - Binding objects: [DescriptorHeap] and its handles, [RootSignature],
//     [GraphicsPSO], [ComputePSO] and [CommandSignature].
//   - Backend contracts: [Device], [CommandQueue], [CommandList] and
//     [CommandAllocator]. A backend implements these; the command package
//     drives them.
//
// # Architecture
//
//	               +------------------+
//	               |     command      |
//	               | (Context, Manager)|
//	               +--------+---------+
//	                        |  gpucore contracts
//	         +--------------+--------------+
//	         |                             |
//	+--------v--------+          +--------v--------+
//	| backend/record  |          | backend/native  |
//	|  (in-memory)    |          |  (hal.Device)   |
//	+-----------------+          +--------+--------+
//	                                      |
//	                             +--------v--------+
//	                             |   gogpu/wgpu    |
//	                             +-----------------+
//
// # Identity
//
// Every binding object and resource carries an [ObjectID] taken from one
// process-wide generation counter. Contexts compare IDs, never addresses, to
// decide whether a bind can be skipped.
//
// # Fence values
//
// Fence values returned by a [CommandQueue] carry the queue type in their top
// byte (see [MakeFence]), so a single uint64 identifies both the queue and
// the point on its timeline.
package gpucore
