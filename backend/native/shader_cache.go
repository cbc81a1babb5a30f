//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gfxctx/gpucore"
)

// ErrEmptyShader is returned for a shader stage with neither WGSL nor SPIR-V.
var ErrEmptyShader = errors.New("native: shader source is empty")

// CompileWGSL compiles WGSL source to SPIR-V words.
func CompileWGSL(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("native: compile WGSL: %w", err)
	}

	// SPIR-V is little-endian 32-bit words
	code := make([]uint32, len(spirvBytes)/4)
	for i := range code {
		code[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return code, nil
}

// shaderCache caches shader modules by source hash.
//
// shaderCache is safe for concurrent use. Lookups take a read lock; misses
// compile under the write lock after checking the map again.
type shaderCache struct {
	mu      sync.RWMutex
	modules map[uint64]hal.ShaderModule

	hits   atomic.Uint64
	misses atomic.Uint64
}

func newShaderCache() *shaderCache {
	return &shaderCache{modules: make(map[uint64]hal.ShaderModule)}
}

// hashShader hashes the source of one stage with FNV-1a.
func hashShader(src gpucore.ShaderSource) uint64 {
	h := fnv.New64a()
	if src.WGSL != "" {
		_, _ = h.Write([]byte{'w'})
		_, _ = h.Write([]byte(src.WGSL))
		return h.Sum64()
	}
	_, _ = h.Write([]byte{'s'})
	var buf [4]byte
	for _, w := range src.SPIRV {
		binary.LittleEndian.PutUint32(buf[:], w)
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

// getOrCreate returns the module for src, compiling it on first use.
func (c *shaderCache) getOrCreate(device hal.Device, label string, src gpucore.ShaderSource) (hal.ShaderModule, error) {
	if src.WGSL == "" && len(src.SPIRV) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyShader, label)
	}
	key := hashShader(src)

	c.mu.RLock()
	if m, ok := c.modules[key]; ok {
		c.mu.RUnlock()
		c.hits.Add(1)
		return m, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := c.modules[key]; ok {
		c.hits.Add(1)
		return m, nil
	}

	code := src.SPIRV
	if src.WGSL != "" {
		var err error
		if code, err = CompileWGSL(src.WGSL); err != nil {
			return nil, fmt.Errorf("%s: %w", label, err)
		}
	}
	m, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: code},
	})
	if err != nil {
		return nil, fmt.Errorf("native: create shader module %s: %w", label, err)
	}
	c.modules[key] = m
	c.misses.Add(1)
	return m, nil
}

// stats returns hit and miss counts.
func (c *shaderCache) stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// destroy releases every module.
func (c *shaderCache) destroy(device hal.Device) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, m := range c.modules {
		device.DestroyShaderModule(m)
		delete(c.modules, k)
	}
}
