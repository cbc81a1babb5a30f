// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"encoding/binary"
	"math"
)

// vertexStride is a float32x3 position followed by a float32x3 normal.
const vertexStride = 24

type mesh struct {
	vertices []byte
	count    uint32
	indices  []uint16
}

var meshes = map[string]mesh{
	"cube":  cubeMesh(),
	"plane": planeMesh(),
}

type vertex struct {
	pos, normal [3]float32
}

func buildMesh(faces [][4]vertex) mesh {
	var m mesh
	for _, f := range faces {
		base := uint16(m.count) //nolint:gosec // a handful of faces
		for _, v := range f {
			m.vertices = appendFloats(m.vertices, v.pos[:]...)
			m.vertices = appendFloats(m.vertices, v.normal[:]...)
			m.count++
		}
		m.indices = append(m.indices, base, base+1, base+2, base, base+2, base+3)
	}
	return m
}

func planeMesh() mesh {
	up := [3]float32{0, 1, 0}
	return buildMesh([][4]vertex{{
		{[3]float32{-1, 0, -1}, up},
		{[3]float32{-1, 0, 1}, up},
		{[3]float32{1, 0, 1}, up},
		{[3]float32{1, 0, -1}, up},
	}})
}

func cubeMesh() mesh {
	// Each face is given by its normal and two in-plane axes with
	// u x v = n so the winding stays counter-clockwise from outside.
	axes := [][3][3]float32{
		{{1, 0, 0}, {0, 0, -1}, {0, 1, 0}},
		{{-1, 0, 0}, {0, 0, 1}, {0, 1, 0}},
		{{0, 1, 0}, {1, 0, 0}, {0, 0, -1}},
		{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}},
		{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}},
		{{0, 0, -1}, {-1, 0, 0}, {0, 1, 0}},
	}
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	faces := make([][4]vertex, 0, len(axes))
	for _, a := range axes {
		n, u, v := a[0], a[1], a[2]
		var f [4]vertex
		for i, c := range corners {
			for k := range 3 {
				f[i].pos[k] = n[k] + c[0]*u[k] + c[1]*v[k]
			}
			f[i].normal = n
		}
		faces = append(faces, f)
	}
	return buildMesh(faces)
}

func appendFloats(b []byte, fs ...float32) []byte {
	for _, f := range fs {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(f))
	}
	return b
}
