//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"errors"
	"fmt"

	"github.com/gogpu/gfxctx/gpucore"
)

// Package errors.
var (
	// ErrNoBackend is returned when the requested HAL backend is not compiled in.
	ErrNoBackend = errors.New("native: HAL backend not available")

	// ErrNoAdapter is returned when no GPU adapter is available.
	ErrNoAdapter = errors.New("native: no GPU adapter available")

	// ErrNotHALProvider is returned by FromProvider when the provider does
	// not expose HAL objects.
	ErrNotHALProvider = errors.New("native: provider does not expose HAL device and queue")

	// ErrFenceTimeout is returned when a fence wait exceeds the configured timeout.
	ErrFenceTimeout = errors.New("native: fence wait timed out")

	// ErrForeignObject is returned when an object created by another backend
	// is passed to this one.
	ErrForeignObject = errors.New("native: object not created by this device")

	// ErrListOpen is returned by Reset on a list that was not closed.
	ErrListOpen = errors.New("native: command list is still open")

	// ErrListClosed is returned by Close on a closed list.
	ErrListClosed = errors.New("native: command list already closed")

	// ErrBindingMismatch is returned when a descriptor does not fit the
	// binding its table range declares.
	ErrBindingMismatch = errors.New("native: descriptor does not match binding type")

	// ErrDeviceClosed is returned by a queue after Close.
	ErrDeviceClosed = errors.New("native: device closed")
)

// unsupported returns an error wrapping gpucore.ErrUnsupported.
func unsupported(what string) error {
	return fmt.Errorf("native: %s: %w", what, gpucore.ErrUnsupported)
}
