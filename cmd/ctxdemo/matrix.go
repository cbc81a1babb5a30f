// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import "math"

// mat4 is a column-major 4x4 matrix, the layout of a WGSL mat4x4<f32>.
type mat4 [16]float32

func (a mat4) mul(b mat4) mat4 {
	var r mat4
	for c := range 4 {
		for row := range 4 {
			var s float32
			for k := range 4 {
				s += a[k*4+row] * b[c*4+k]
			}
			r[c*4+row] = s
		}
	}
	return r
}

func sub(a, b [3]float32) [3]float32 { return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }

func dot(a, b [3]float32) float32 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }

func cross(a, b [3]float32) [3]float32 {
	return [3]float32{a[1]*b[2] - a[2]*b[1], a[2]*b[0] - a[0]*b[2], a[0]*b[1] - a[1]*b[0]}
}

func length(v [3]float32) float32 { return float32(math.Sqrt(float64(dot(v, v)))) }

func normalize(v [3]float32) [3]float32 {
	l := length(v)
	if l == 0 {
		return v
	}
	return [3]float32{v[0] / l, v[1] / l, v[2] / l}
}

// lookAt returns a right-handed view matrix.
func lookAt(eye, target, up [3]float32) mat4 {
	f := normalize(sub(target, eye))
	if math.Abs(float64(dot(f, up))) > 0.999 {
		up = [3]float32{0, 0, 1}
	}
	s := normalize(cross(f, up))
	u := cross(s, f)
	return mat4{
		s[0], u[0], -f[0], 0,
		s[1], u[1], -f[1], 0,
		s[2], u[2], -f[2], 0,
		-dot(s, eye), -dot(u, eye), dot(f, eye), 1,
	}
}

// perspective maps view depth near..far to 0..1.
func perspective(fovY, aspect, near, far float32) mat4 {
	f := float32(1 / math.Tan(float64(fovY)/2))
	return mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, far / (near - far), -1,
		0, 0, near * far / (near - far), 0,
	}
}

// orthographic maps the box [-e, e] x [-e, e] x [near, far] to clip space.
func orthographic(e, near, far float32) mat4 {
	return mat4{
		1 / e, 0, 0, 0,
		0, 1 / e, 0, 0,
		0, 0, 1 / (near - far), 0,
		0, 0, near / (near - far), 1,
	}
}
