// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package command

import "math"

// DWParam is one 32-bit root constant.
type DWParam uint32

// Float encodes f as a root constant.
func Float(f float32) DWParam { return DWParam(math.Float32bits(f)) }

// Uint encodes u as a root constant.
func Uint(u uint32) DWParam { return DWParam(u) }

// Int encodes i as a root constant.
func Int(i int32) DWParam { return DWParam(uint32(i)) } //nolint:gosec // bit reinterpretation

func paramWords(params []DWParam) []uint32 {
	var buf [16]uint32
	words := buf[:0]
	if len(params) > len(buf) {
		words = make([]uint32, 0, len(params))
	}
	for _, p := range params {
		words = append(words, uint32(p))
	}
	return words
}
