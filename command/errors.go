// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package command

import (
	"errors"

	"github.com/gogpu/gfxctx/gpucore"
)

// Command package errors.
var (
	// ErrManagerClosed is returned when contexts are requested after Close.
	ErrManagerClosed = errors.New("command: manager is closed")

	// ErrNilDevice is returned by NewManager without a device.
	ErrNilDevice = errors.New("command: device is nil")

	// ErrNoQueue is returned when the device has no queue of a type.
	ErrNoQueue = errors.New("command: device has no queue of this type")

	// ErrUnalignedWrite is returned by WriteBuffer for data whose length is
	// not a multiple of 4 bytes.
	ErrUnalignedWrite = errors.New("command: write size must be 4-byte aligned")

	// ErrMipMismatch is returned by InitializeTextureArraySlice when the
	// source and destination mip counts differ.
	ErrMipMismatch = errors.New("command: source and destination mip counts differ")

	// ErrSubresourceCount is returned by InitializeTexture when the number of
	// provided subresources does not match the texture.
	ErrSubresourceCount = errors.New("command: subresource count mismatch")
)

// ContractError is the panic value raised on API misuse. See
// gpucore.ContractError.
type ContractError = gpucore.ContractError

func assert(cond bool, format string, args ...any) {
	gpucore.Assert(cond, "command", format, args...)
}
