// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Frame describes the scene rendered by one run.
type Frame struct {
	Width      uint32     `toml:"width"`
	Height     uint32     `toml:"height"`
	ShadowSize uint32     `toml:"shadow_size"`
	Clear      [4]float32 `toml:"clear"`
	Light      Light      `toml:"light"`
	Camera     Camera     `toml:"camera"`
	Objects    []Object   `toml:"object"`
}

// Light is a directional light casting the shadow map.
type Light struct {
	Direction [3]float32 `toml:"direction"`
	// Extent is the half size of the orthographic shadow frustum.
	Extent  float32 `toml:"extent"`
	Ambient float32 `toml:"ambient"`
}

// Camera is a perspective camera looking at Target.
type Camera struct {
	Eye    [3]float32 `toml:"eye"`
	Target [3]float32 `toml:"target"`
	FovY   float32    `toml:"fov_y"`
}

// Object places one mesh in the scene.
type Object struct {
	Name     string     `toml:"name"`
	Mesh     string     `toml:"mesh"`
	Position [3]float32 `toml:"position"`
	Scale    float32    `toml:"scale"`
	Color    [4]float32 `toml:"color"`
}

var errInvalidFrame = errors.New("ctxdemo: invalid frame")

func defaultFrame() Frame {
	return Frame{
		Width:      640,
		Height:     480,
		ShadowSize: 1024,
		Clear:      [4]float32{0.12, 0.14, 0.2, 1},
		Light:      Light{Direction: [3]float32{-0.4, -1, -0.3}, Extent: 8, Ambient: 0.25},
		Camera:     Camera{Eye: [3]float32{6, 5, 8}, Target: [3]float32{0, 0.5, 0}, FovY: 0.8},
		Objects: []Object{
			{Name: "ground", Mesh: "plane", Scale: 6, Color: [4]float32{0.6, 0.6, 0.55, 1}},
			{Name: "red", Mesh: "cube", Position: [3]float32{-1.5, 0.75, 0}, Scale: 0.75, Color: [4]float32{0.9, 0.25, 0.2, 1}},
			{Name: "blue", Mesh: "cube", Position: [3]float32{1.2, 0.5, 1}, Scale: 0.5, Color: [4]float32{0.2, 0.35, 0.9, 1}},
		},
	}
}

// loadFrame reads a TOML frame description. Fields missing from the file
// keep their defaults; an object list in the file replaces the default one.
func loadFrame(path string) (Frame, error) {
	f := defaultFrame()
	if path == "" {
		return f, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("ctxdemo: read frame: %w", err)
	}
	return parseFrame(data)
}

func parseFrame(data []byte) (Frame, error) {
	f := defaultFrame()
	f.Objects = nil
	if err := toml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("ctxdemo: parse frame: %w", err)
	}
	if f.Objects == nil {
		f.Objects = defaultFrame().Objects
	}
	return f, f.validate()
}

func (f *Frame) validate() error {
	if f.Width == 0 || f.Height == 0 {
		return fmt.Errorf("%w: empty viewport %dx%d", errInvalidFrame, f.Width, f.Height)
	}
	if f.ShadowSize == 0 {
		return fmt.Errorf("%w: shadow_size is 0", errInvalidFrame)
	}
	if length(f.Light.Direction) == 0 {
		return fmt.Errorf("%w: zero light direction", errInvalidFrame)
	}
	for _, o := range f.Objects {
		if _, ok := meshes[o.Mesh]; !ok {
			return fmt.Errorf("%w: object %q has unknown mesh %q", errInvalidFrame, o.Name, o.Mesh)
		}
		if o.Scale <= 0 {
			return fmt.Errorf("%w: object %q has scale %g", errInvalidFrame, o.Name, o.Scale)
		}
	}
	return nil
}
