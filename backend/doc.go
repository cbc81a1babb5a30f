// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package backend is the registry of gpucore.Device implementations.
//
// Backends register a Factory from their init() functions and are selected
// at runtime, so importing a backend package is enough to make it
// available:
//
//	import (
//		_ "github.com/gogpu/gfxctx/backend/native"
//		_ "github.com/gogpu/gfxctx/backend/record"
//	)
//
// # Backend Selection
//
// Use Default to open a device on the best available backend, or Open to
// request a specific backend by name:
//
//	// Best available: native when a GPU is present, record otherwise
//	dev, name, err := backend.Default()
//
//	// Or a specific backend
//	dev, err := backend.Open(backend.BackendRecord)
//	defer backend.Close(dev)
//
// # Available Backends
//
//   - "native": gogpu/wgpu HAL device (excluded by the nogpu build tag)
//   - "record": in-memory command recorder for tests and tooling
package backend
