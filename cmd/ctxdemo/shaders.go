// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

// Both passes share one root signature: object constants at binding 0, the
// scene constant buffer at 1, the shadow map at 2 and its sampler at 3.
const shaderCommon = `
struct Object {
    offset_scale: vec4<f32>,
    color: vec4<f32>,
}

struct Scene {
    view_proj: mat4x4<f32>,
    light_view_proj: mat4x4<f32>,
    light_dir: vec4<f32>,
}

@group(0) @binding(0) var<uniform> object: Object;
@group(0) @binding(1) var<uniform> scene: Scene;
@group(0) @binding(2) var shadow_map: texture_2d<f32>;
@group(0) @binding(3) var shadow_sampler: sampler;

struct VertexIn {
    @location(0) position: vec3<f32>,
    @location(1) normal: vec3<f32>,
}

fn world_position(v: VertexIn) -> vec4<f32> {
    return vec4<f32>(v.position * object.offset_scale.w + object.offset_scale.xyz, 1.0);
}
`

const shadowShader = shaderCommon + `
struct ShadowOut {
    @builtin(position) clip: vec4<f32>,
    @location(0) depth: f32,
}

@vertex
fn vs_main(v: VertexIn) -> ShadowOut {
    var out: ShadowOut;
    out.clip = scene.light_view_proj * world_position(v);
    out.depth = out.clip.z / out.clip.w;
    return out;
}

@fragment
fn fs_main(in: ShadowOut) -> @location(0) vec4<f32> {
    return vec4<f32>(in.depth, in.depth * in.depth, 0.0, 1.0);
}
`

const litShader = shaderCommon + `
struct LitOut {
    @builtin(position) clip: vec4<f32>,
    @location(0) light_pos: vec4<f32>,
    @location(1) normal: vec3<f32>,
}

@vertex
fn vs_main(v: VertexIn) -> LitOut {
    let world = world_position(v);
    var out: LitOut;
    out.clip = scene.view_proj * world;
    out.light_pos = scene.light_view_proj * world;
    out.normal = v.normal;
    return out;
}

@fragment
fn fs_main(in: LitOut) -> @location(0) vec4<f32> {
    let p = in.light_pos.xyz / in.light_pos.w;
    let uv = p.xy * vec2<f32>(0.5, -0.5) + vec2<f32>(0.5, 0.5);
    let stored = textureSample(shadow_map, shadow_sampler, uv).r;
    let lit = select(0.0, 1.0, p.z - 0.005 <= stored);
    let diffuse = max(dot(normalize(in.normal), -scene.light_dir.xyz), 0.0);
    let ambient = scene.light_dir.w;
    let shade = ambient + (1.0 - ambient) * diffuse * lit;
    return vec4<f32>(object.color.rgb * shade, object.color.a);
}
`
