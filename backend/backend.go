// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"errors"
	"io"

	"github.com/gogpu/gfxctx/gpucore"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not
	// registered or none of the registered backends could open a device.
	ErrBackendNotAvailable = errors.New("backend: not available")
)

// Names of the backends shipped with gfxctx.
const (
	// BackendNative renders on a GPU through gogpu/wgpu.
	BackendNative = "native"
	// BackendRecord records commands in memory without a GPU.
	BackendRecord = "record"
)

// Factory opens a new device. A factory that cannot find suitable hardware
// returns an error so that Default can move on to the next backend.
type Factory func() (gpucore.Device, error)

// Close releases dev if its backend holds resources beyond the Go heap.
func Close(dev gpucore.Device) error {
	if c, ok := dev.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
