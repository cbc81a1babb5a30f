// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/gfxctx/backend"
	"github.com/gogpu/gfxctx/backend/record"
	"github.com/gogpu/gfxctx/gpucore"
)

// closingDevice is a record device with a Close method.
type closingDevice struct {
	*record.Device
	closed bool
}

func (d *closingDevice) Close() error {
	d.closed = true
	return nil
}

func TestRegistryRecordRegistered(t *testing.T) {
	// Record backend is auto-registered via init()
	if !backend.IsRegistered(backend.BackendRecord) {
		t.Fatal("record backend should be auto-registered")
	}

	dev, err := backend.Open(backend.BackendRecord)
	if err != nil {
		t.Fatalf("Open(record) error = %v", err)
	}
	if _, ok := dev.(*record.Device); !ok {
		t.Errorf("Open(record) = %T", dev)
	}
}

func TestRegistryOpenUnregistered(t *testing.T) {
	dev, err := backend.Open("nonexistent")
	if !errors.Is(err, backend.ErrBackendNotAvailable) {
		t.Errorf("Open(nonexistent) error = %v", err)
	}
	if dev != nil {
		t.Error("Open(nonexistent) returned a device")
	}
}

func TestRegistryAvailable(t *testing.T) {
	available := backend.Available()
	if !slices.Contains(available, backend.BackendRecord) {
		t.Errorf("Available() = %v, missing record", available)
	}
	if !slices.IsSorted(available) {
		t.Errorf("Available() = %v, not sorted", available)
	}
}

func TestRegistryDefault(t *testing.T) {
	dev, name, err := backend.Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if dev == nil {
		t.Fatal("Default() returned nil")
	}
	// Only record is linked into this test binary.
	if name != backend.BackendRecord {
		t.Errorf("Default() selected %q", name)
	}
}

func TestRegistryDefaultSkipsFailing(t *testing.T) {
	backend.Register(backend.BackendNative, func() (gpucore.Device, error) {
		return nil, errors.New("no adapter")
	})
	defer backend.Unregister(backend.BackendNative)

	_, name, err := backend.Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if name != backend.BackendRecord {
		t.Errorf("Default() selected %q, want fallback to record", name)
	}
}

func TestRegistryDefaultNoneAvailable(t *testing.T) {
	failing := errors.New("broken")
	backend.Unregister(backend.BackendRecord)
	backend.Register("broken", func() (gpucore.Device, error) { return nil, failing })
	defer func() {
		backend.Unregister("broken")
		backend.Register(backend.BackendRecord, func() (gpucore.Device, error) { return record.NewDevice(), nil })
	}()

	_, _, err := backend.Default()
	if !errors.Is(err, backend.ErrBackendNotAvailable) || !errors.Is(err, failing) {
		t.Errorf("Default() error = %v", err)
	}

	defer func() {
		if r := recover(); r == nil {
			t.Error("MustDefault() did not panic")
		}
	}()
	backend.MustDefault()
}

func TestRegistryUnregister(t *testing.T) {
	backend.Register("test-backend", func() (gpucore.Device, error) { return record.NewDevice(), nil })

	if !backend.IsRegistered("test-backend") {
		t.Error("test-backend should be registered")
	}

	backend.Unregister("test-backend")

	if backend.IsRegistered("test-backend") {
		t.Error("test-backend should be unregistered")
	}
}

func TestClose(t *testing.T) {
	if err := backend.Close(record.NewDevice()); err != nil {
		t.Errorf("Close(record) error = %v", err)
	}
	d := &closingDevice{Device: record.NewDevice()}
	if err := backend.Close(d); err != nil || !d.closed {
		t.Errorf("Close() error = %v, closed = %v", err, d.closed)
	}
}
