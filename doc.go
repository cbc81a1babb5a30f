// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gfxctx is a command-context and resource-state management layer
// for explicit GPU APIs.
//
// # Overview
//
// gfxctx sits between an application and a low-level command-list API. It
// tracks the usage state of every GPU resource, batches state-transition
// barriers, stages descriptors into GPU-visible heaps right before draws and
// dispatches, hands out per-frame scratch memory, and pools command contexts
// so that many goroutines can record command lists at the same time.
//
// # Packages
//
//   - gpucore: resource, state, descriptor, root signature and pipeline
//     types, plus the Device / CommandQueue / CommandList contracts a backend
//     implements.
//   - command: CommandContext with graphics and compute views, the context
//     pool (Manager), command allocator reuse and one-shot upload helpers.
//   - linalloc: page-based linear allocator for per-submission scratch memory.
//   - descheap: dynamic descriptor heap that turns staged CPU descriptors into
//     contiguous GPU-visible tables.
//   - upload: subresource footprints and image conversion for texture uploads.
//   - backend: registry that opens a device on the best available backend.
//   - backend/record: in-memory device that records every command.
//   - backend/native: device on top of gogpu/wgpu HAL.
//
// # Quick Start
//
//	dev := record.NewDevice()
//	mgr, err := command.NewManager(dev)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer mgr.Close()
//
//	gfx, err := mgr.BeginGraphics("Scene Render")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	gfx.SetRootSignature(rootSig)
//	gfx.TransitionResource(sceneColor, gpucore.StateRenderTarget, true)
//	gfx.ClearColor(sceneColor)
//	gfx.SetRenderTarget(sceneColor.RTV, sceneDepth.DSV)
//	gfx.SetPipelineState(pso)
//	gfx.DrawIndexed(indexCount, 0, 0)
//	gfx.TransitionResource(sceneColor, gpucore.StatePresent, false)
//	fence, err := gfx.Finish(false)
//
// # Concurrency
//
// A checked-out context belongs to one goroutine. The Manager, the page
// managers and the descriptor heap pool are safe for concurrent use.
package gfxctx

// Version information.
const (
	// Version is the current version of the library.
	Version = "0.1.0"

	// VersionMajor is the major version.
	VersionMajor = 0

	// VersionMinor is the minor version.
	VersionMinor = 1

	// VersionPatch is the patch version.
	VersionPatch = 0
)
