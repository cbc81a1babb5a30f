//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package native implements gpucore.Device on the gogpu/wgpu HAL.
//
// Command lists are encoded directly into a hal.CommandEncoder. Render and
// compute passes are opened lazily by the first draw or dispatch and closed
// by barriers, copies, clears and render target changes. Texture transitions
// become TransitionTextures calls; buffer transitions are tracked by the HAL
// itself and are not encoded.
//
// # Bindings
//
// A root signature becomes a single bind group layout. Every root parameter
// occupies consecutive binding numbers in declaration order:
//
//   - 32-bit constants: one uniform buffer
//   - root CBV: one uniform buffer
//   - root SRV: one read-only storage buffer
//   - root UAV: one storage buffer
//   - descriptor table: one binding per descriptor; CBV ranges are uniform
//     buffers, SRV ranges are sampled 2D textures, UAV ranges are storage
//     buffers and sampler ranges are filtering samplers
//
// Binding returns the WGSL binding number of a parameter slot. Bind groups
// are built at draw and dispatch time from the current root arguments and
// cached by content.
//
// # Memory
//
// Upload and readback buffers keep a CPU shadow. Upload shadows are written
// to the GPU copy at submission; readback shadows are refreshed when the
// submission's fence completes. GPU addresses are synthetic and only locate
// bytes inside the owning buffer.
//
// Queries, predication, texture-to-texture copies and non-zero UAV clears
// are not expressible on the HAL and make Close return an error wrapping
// gpucore.ErrUnsupported.
package native
