//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/gfxctx/gpucore"
)

// textureFormat maps a gpucore format to the HAL format.
func textureFormat(f gpucore.Format) (gputypes.TextureFormat, bool) {
	switch f {
	case gpucore.FormatRGBA8Unorm:
		return gputypes.TextureFormatRGBA8Unorm, true
	case gpucore.FormatBGRA8Unorm:
		return gputypes.TextureFormatBGRA8Unorm, true
	case gpucore.FormatRGBA16Float:
		return gputypes.TextureFormatRGBA16Float, true
	case gpucore.FormatRGBA32Float:
		return gputypes.TextureFormatRGBA32Float, true
	case gpucore.FormatR32Float:
		return gputypes.TextureFormatR32Float, true
	case gpucore.FormatR32Uint:
		return gputypes.TextureFormatR32Uint, true
	case gpucore.FormatR16Uint:
		return gputypes.TextureFormatR16Uint, true
	case gpucore.FormatR8Unorm:
		return gputypes.TextureFormatR8Unorm, true
	case gpucore.FormatD32Float:
		return gputypes.TextureFormatDepth32Float, true
	case gpucore.FormatD24UnormS8Uint:
		return gputypes.TextureFormatDepth24PlusStencil8, true
	default:
		return 0, false
	}
}

// textureUsage returns the HAL usage a texture in state s is used with.
// Combined read states collapse to the strongest shader-visible usage.
func textureUsage(s gpucore.ResourceState) gputypes.TextureUsage {
	switch {
	case s == gpucore.StateCommon:
		return 0
	case s&(gpucore.StateRenderTarget|gpucore.StateDepthWrite|gpucore.StateDepthRead) != 0:
		return gputypes.TextureUsageRenderAttachment
	case s&gpucore.StateUnorderedAccess != 0:
		return gputypes.TextureUsageStorageBinding
	case s&gpucore.StateCopyDest != 0:
		return gputypes.TextureUsageCopyDst
	case s&gpucore.StateShaderResource != 0:
		return gputypes.TextureUsageTextureBinding
	case s&gpucore.StateCopySource != 0:
		return gputypes.TextureUsageCopySrc
	default:
		return 0
	}
}

// textureCreateUsage returns every HAL usage a texture created with u may
// be transitioned to.
func textureCreateUsage(u gpucore.TextureUsage) gputypes.TextureUsage {
	usage := gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst
	if u == 0 || u&gpucore.TextureUsageShaderResource != 0 {
		usage |= gputypes.TextureUsageTextureBinding
	}
	if u&(gpucore.TextureUsageRenderTarget|gpucore.TextureUsageDepthStencil) != 0 {
		usage |= gputypes.TextureUsageRenderAttachment
	}
	if u&gpucore.TextureUsageUnorderedAccess != 0 {
		usage |= gputypes.TextureUsageStorageBinding
	}
	return usage
}

// bufferUsage returns the HAL usage of a buffer in heap k.
func bufferUsage(k gpucore.HeapKind) gputypes.BufferUsage {
	const copies = gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst
	if k == gpucore.HeapReadback {
		return copies | gputypes.BufferUsageStorage
	}
	return copies | gputypes.BufferUsageVertex | gputypes.BufferUsageIndex |
		gputypes.BufferUsageUniform | gputypes.BufferUsageStorage | gputypes.BufferUsageIndirect
}

func topology(t gpucore.PrimitiveTopology) gputypes.PrimitiveTopology {
	switch t {
	case gpucore.TopologyPointList:
		return gputypes.PrimitiveTopologyPointList
	case gpucore.TopologyLineList:
		return gputypes.PrimitiveTopologyLineList
	case gpucore.TopologyLineStrip:
		return gputypes.PrimitiveTopologyLineStrip
	case gpucore.TopologyTriangleStrip:
		return gputypes.PrimitiveTopologyTriangleStrip
	default:
		return gputypes.PrimitiveTopologyTriangleList
	}
}

func vertexFormat(f gpucore.VertexFormat) gputypes.VertexFormat {
	switch f {
	case gpucore.VertexFloat32:
		return gputypes.VertexFormatFloat32
	case gpucore.VertexFloat32x2:
		return gputypes.VertexFormatFloat32x2
	case gpucore.VertexFloat32x3:
		return gputypes.VertexFormatFloat32x3
	case gpucore.VertexUint32:
		return gputypes.VertexFormatUint32
	case gpucore.VertexUnorm8x4:
		return gputypes.VertexFormatUnorm8x4
	default:
		return gputypes.VertexFormatFloat32x4
	}
}

func indexFormat(f gpucore.IndexFormat) gputypes.IndexFormat {
	if f == gpucore.IndexFormatUint16 {
		return gputypes.IndexFormatUint16
	}
	return gputypes.IndexFormatUint32
}

// blendState returns the HAL blend state of m, or nil for opaque writes.
func blendState(m gpucore.BlendMode) *gputypes.BlendState {
	var b gputypes.BlendState
	switch m {
	case gpucore.BlendPremultiplied:
		b = gputypes.BlendStatePremultiplied()
	case gpucore.BlendAlpha:
		b = gputypes.BlendState{
			Color: gputypes.BlendComponent{
				SrcFactor: gputypes.BlendFactorSrcAlpha,
				DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
				Operation: gputypes.BlendOperationAdd,
			},
			Alpha: gputypes.BlendComponent{
				SrcFactor: gputypes.BlendFactorOne,
				DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
				Operation: gputypes.BlendOperationAdd,
			},
		}
	case gpucore.BlendAdditive:
		one := gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorOne,
			Operation: gputypes.BlendOperationAdd,
		}
		b = gputypes.BlendState{Color: one, Alpha: one}
	default:
		return nil
	}
	return &b
}

func shaderStages(v gpucore.ShaderVisibility) gputypes.ShaderStage {
	switch v {
	case gpucore.VisibilityVertex:
		return gputypes.ShaderStageVertex
	case gpucore.VisibilityPixel:
		return gputypes.ShaderStageFragment
	case gpucore.VisibilityCompute:
		return gputypes.ShaderStageCompute
	default:
		return gputypes.ShaderStageVertex | gputypes.ShaderStageFragment | gputypes.ShaderStageCompute
	}
}

func filterMode(f gpucore.FilterMode) gputypes.FilterMode {
	if f == gpucore.FilterPoint {
		return gputypes.FilterModeNearest
	}
	return gputypes.FilterModeLinear
}

// addressMode maps a sampler address mode. Border colors do not exist on
// the HAL; AddressBorder clamps to the edge.
func addressMode(a gpucore.AddressMode) gputypes.AddressMode {
	switch a {
	case gpucore.AddressWrap:
		return gputypes.AddressModeRepeat
	case gpucore.AddressMirror:
		return gputypes.AddressModeMirrorRepeat
	default:
		return gputypes.AddressModeClampToEdge
	}
}

// subresourceCoords splits a subresource index into mip level and array layer.
func subresourceCoords(t *gpucore.Texture, sub uint32) (mip, layer uint32) {
	return sub % t.MipLevels(), sub / t.MipLevels()
}
