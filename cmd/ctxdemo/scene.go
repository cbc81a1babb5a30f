// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"fmt"
	"image"
	"image/color"

	"github.com/gogpu/gfxctx/command"
	"github.com/gogpu/gfxctx/descheap"
	"github.com/gogpu/gfxctx/gpucore"
	"github.com/gogpu/gfxctx/upload"
)

// Root parameter indices shared by the shadow and lit pipelines.
const (
	rootObject = iota
	rootScene
	rootShadowMap
)

// objectConstants is the size of the Object uniform in 32-bit values.
const objectConstants = 8

// scene owns the GPU objects of one frame.
type scene struct {
	dev gpucore.Device

	views *descheap.Allocator
	rtvs  *descheap.Allocator
	dsvs  *descheap.Allocator

	rs     *gpucore.RootSignature
	shadow *gpucore.GraphicsPSO
	lit    *gpucore.GraphicsPSO

	shadowColor *gpucore.ColorBuffer
	shadowDepth *gpucore.DepthBuffer
	color       *gpucore.ColorBuffer
	depth       *gpucore.DepthBuffer
	white       *gpucore.Texture
}

func newScene(m *command.Manager, f Frame) (*scene, error) {
	s, err := buildScene(m, f)
	if err != nil {
		s.destroy()
		return nil, err
	}
	return s, nil
}

func buildScene(m *command.Manager, f Frame) (*scene, error) {
	dev := m.Device()
	s := &scene{
		dev:   dev,
		views: descheap.NewAllocator(dev, gpucore.HeapTypeCBVSRVUAV, 0),
		rtvs:  descheap.NewAllocator(dev, gpucore.HeapTypeRTV, 0),
		dsvs:  descheap.NewAllocator(dev, gpucore.HeapTypeDSV, 0),
	}

	s.rs = gpucore.NewRootSignature("scene",
		gpucore.Constants(0, objectConstants, gpucore.VisibilityAll),
		gpucore.RootView(gpucore.RootCBV, 1, gpucore.VisibilityAll),
		gpucore.Table(gpucore.VisibilityPixel, gpucore.Range(gpucore.RangeSRV, 0, 1)),
	)
	s.rs.AddStaticSampler(gpucore.SamplerDesc{Filter: gpucore.FilterPoint, Address: gpucore.AddressClamp})
	if err := dev.CreateRootSignature(s.rs); err != nil {
		return s, err
	}

	var err error
	if s.shadow, err = s.pipeline("shadow", shadowShader, gpucore.FormatRGBA16Float); err != nil {
		return s, err
	}
	if s.lit, err = s.pipeline("lit", litShader, gpucore.FormatRGBA8Unorm); err != nil {
		return s, err
	}

	if s.shadowColor, err = s.colorBuffer("shadow map", f.ShadowSize, f.ShadowSize, gpucore.FormatRGBA16Float, [4]float32{1, 1, 0, 1}); err != nil {
		return s, err
	}
	if s.shadowDepth, err = s.depthBuffer("shadow depth", f.ShadowSize, f.ShadowSize); err != nil {
		return s, err
	}
	if s.color, err = s.colorBuffer("color", f.Width, f.Height, gpucore.FormatRGBA8Unorm, f.Clear); err != nil {
		return s, err
	}
	if s.depth, err = s.depthBuffer("depth", f.Width, f.Height); err != nil {
		return s, err
	}

	// The shadow pass binds a white texel in place of its own target.
	if s.white, err = dev.CreateTexture(gpucore.TextureDesc{
		Label: "white", Width: 1, Height: 1, ArraySize: 1, MipLevels: 1,
		Format: gpucore.FormatRGBA8Unorm, Usage: gpucore.TextureUsageShaderResource,
	}); err != nil {
		return s, err
	}
	if s.white.SRV, err = s.views.NewView(gpucore.TextureView(gpucore.DescriptorSRV, s.white)); err != nil {
		return s, err
	}
	texel := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	texel.Set(0, 0, color.White)
	if err := m.InitializeTexture(s.white, []upload.Subresource{upload.FromImage(texel)}); err != nil {
		return s, err
	}
	return s, nil
}

func (s *scene) pipeline(label, src string, rt gpucore.Format) (*gpucore.GraphicsPSO, error) {
	return s.dev.CreateGraphicsPSO(gpucore.GraphicsPSODesc{
		Label:         label,
		RootSignature: s.rs,
		VS:            gpucore.ShaderSource{WGSL: src, EntryPoint: "vs_main"},
		PS:            gpucore.ShaderSource{WGSL: src, EntryPoint: "fs_main"},
		InputLayout: []gpucore.InputElement{
			{Location: 0, Format: gpucore.VertexFloat32x3, Offset: 0},
			{Location: 1, Format: gpucore.VertexFloat32x3, Offset: 12},
		},
		VertexStrides: []uint32{vertexStride},
		Topology:      gpucore.TopologyTriangleList,
		RTVFormats:    []gpucore.Format{rt},
		DSVFormat:     gpucore.FormatD32Float,
		DepthTest:     true,
		DepthWrite:    true,
	})
}

func (s *scene) colorBuffer(label string, w, h uint32, format gpucore.Format, clear [4]float32) (*gpucore.ColorBuffer, error) {
	tex, err := s.dev.CreateTexture(gpucore.TextureDesc{
		Label: label, Width: w, Height: h, ArraySize: 1, MipLevels: 1,
		Format: format,
		Usage:  gpucore.TextureUsageRenderTarget | gpucore.TextureUsageShaderResource,
	})
	if err != nil {
		return nil, err
	}
	cb := &gpucore.ColorBuffer{Texture: *tex, ClearColor: clear}
	if cb.RTV, err = s.rtvs.NewView(gpucore.TextureView(gpucore.DescriptorRTV, &cb.Texture)); err != nil {
		return nil, err
	}
	if cb.SRV, err = s.views.NewView(gpucore.TextureView(gpucore.DescriptorSRV, &cb.Texture)); err != nil {
		return nil, err
	}
	return cb, nil
}

func (s *scene) depthBuffer(label string, w, h uint32) (*gpucore.DepthBuffer, error) {
	tex, err := s.dev.CreateTexture(gpucore.TextureDesc{
		Label: label, Width: w, Height: h, ArraySize: 1, MipLevels: 1,
		Format: gpucore.FormatD32Float,
		Usage:  gpucore.TextureUsageDepthStencil,
	})
	if err != nil {
		return nil, err
	}
	db := &gpucore.DepthBuffer{Texture: *tex, ClearDepth: 1}
	if db.DSV, err = s.dsvs.NewView(gpucore.TextureView(gpucore.DescriptorDSV, &db.Texture)); err != nil {
		return nil, err
	}
	return db, nil
}

// sceneConstants packs the Scene uniform: the camera and light matrices
// followed by the light direction with the ambient term in w.
func sceneConstants(f Frame) []byte {
	aspect := float32(f.Width) / float32(f.Height)
	view := lookAt(f.Camera.Eye, f.Camera.Target, [3]float32{0, 1, 0})
	viewProj := perspective(f.Camera.FovY, aspect, 0.1, 100).mul(view)

	dir := normalize(f.Light.Direction)
	e := f.Light.Extent
	eye := [3]float32{-dir[0] * 2 * e, -dir[1] * 2 * e, -dir[2] * 2 * e}
	lightViewProj := orthographic(e, 0.1, 4*e).mul(lookAt(eye, [3]float32{}, [3]float32{0, 1, 0}))

	b := make([]byte, 0, 144)
	b = appendFloats(b, viewProj[:]...)
	b = appendFloats(b, lightViewProj[:]...)
	return appendFloats(b, dir[0], dir[1], dir[2], f.Light.Ambient)
}

// record encodes the shadow pass and the lit pass into g.
func (s *scene) record(g command.GraphicsContext, f Frame) error {
	constants := sceneConstants(f)

	g.BeginEvent("shadow")
	g.TransitionResource(s.white, gpucore.StatePixelShaderResource, false)
	g.TransitionResource(s.shadowColor, gpucore.StateRenderTarget, false)
	g.TransitionResource(s.shadowDepth, gpucore.StateDepthWrite, true)
	g.ClearColor(s.shadowColor)
	g.ClearDepth(s.shadowDepth)
	g.SetRootSignature(s.rs)
	g.SetPipelineState(s.shadow)
	g.SetRenderTarget(s.shadowColor.RTV, s.shadowDepth.DSV)
	g.SetViewportAndScissor(0, 0, f.ShadowSize, f.ShadowSize)
	if err := g.SetDynamicConstantBufferView(rootScene, constants); err != nil {
		return err
	}
	g.SetDynamicDescriptors(rootShadowMap, 0, s.white.SRV)
	if err := s.drawObjects(g, f.Objects); err != nil {
		return err
	}
	g.EndEvent()

	g.BeginEvent("lit")
	g.TransitionResource(s.shadowColor, gpucore.StatePixelShaderResource, false)
	g.TransitionResource(s.color, gpucore.StateRenderTarget, false)
	g.TransitionResource(s.depth, gpucore.StateDepthWrite, true)
	g.ClearColor(s.color)
	g.ClearDepth(s.depth)
	g.SetPipelineState(s.lit)
	g.SetRenderTarget(s.color.RTV, s.depth.DSV)
	g.SetViewportAndScissor(0, 0, f.Width, f.Height)
	if err := g.SetDynamicConstantBufferView(rootScene, constants); err != nil {
		return err
	}
	g.SetDynamicDescriptors(rootShadowMap, 0, s.shadowColor.SRV)
	if err := s.drawObjects(g, f.Objects); err != nil {
		return err
	}
	g.EndEvent()
	return nil
}

func (s *scene) drawObjects(g command.GraphicsContext, objects []Object) error {
	for _, o := range objects {
		m := meshes[o.Mesh]
		g.SetConstants(rootObject,
			command.Float(o.Position[0]), command.Float(o.Position[1]), command.Float(o.Position[2]), command.Float(o.Scale),
			command.Float(o.Color[0]), command.Float(o.Color[1]), command.Float(o.Color[2]), command.Float(o.Color[3]),
		)
		if err := g.SetDynamicVB(0, m.count, vertexStride, m.vertices); err != nil {
			return fmt.Errorf("ctxdemo: %s vertices: %w", o.Name, err)
		}
		if err := g.SetDynamicIB(m.indices); err != nil {
			return fmt.Errorf("ctxdemo: %s indices: %w", o.Name, err)
		}
		g.DrawIndexed(uint32(len(m.indices)), 0, 0) //nolint:gosec // small meshes
	}
	return nil
}

// destroy releases every GPU object the scene created. The GPU must be
// idle.
func (s *scene) destroy() {
	var rs []gpucore.Resource
	if s.white != nil {
		rs = append(rs, s.white)
	}
	for _, cb := range []*gpucore.ColorBuffer{s.shadowColor, s.color} {
		if cb != nil {
			rs = append(rs, cb)
		}
	}
	for _, db := range []*gpucore.DepthBuffer{s.shadowDepth, s.depth} {
		if db != nil {
			rs = append(rs, db)
		}
	}
	for _, r := range rs {
		s.dev.Destroy(r)
	}
}
