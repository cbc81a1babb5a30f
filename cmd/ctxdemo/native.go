//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import _ "github.com/gogpu/gfxctx/backend/native" // register the GPU backend
