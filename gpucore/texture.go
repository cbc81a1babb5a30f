// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

// Format is a texel format.
type Format uint16

// Texel formats understood by the backends.
const (
	FormatUnknown Format = iota
	FormatRGBA8Unorm
	FormatBGRA8Unorm
	FormatRGBA16Float
	FormatRGBA32Float
	FormatR32Float
	FormatR32Uint
	FormatR16Uint
	FormatR8Unorm
	FormatD32Float
	FormatD24UnormS8Uint
)

// BytesPerPixel returns the texel size, or 0 for FormatUnknown.
func (f Format) BytesPerPixel() uint32 {
	switch f {
	case FormatR8Unorm:
		return 1
	case FormatR16Uint:
		return 2
	case FormatRGBA8Unorm, FormatBGRA8Unorm, FormatR32Float, FormatR32Uint,
		FormatD32Float, FormatD24UnormS8Uint:
		return 4
	case FormatRGBA16Float:
		return 8
	case FormatRGBA32Float:
		return 16
	default:
		return 0
	}
}

// IsDepth reports whether f is a depth or depth-stencil format.
func (f Format) IsDepth() bool {
	return f == FormatD32Float || f == FormatD24UnormS8Uint
}

// HasStencil reports whether f carries a stencil aspect.
func (f Format) HasStencil() bool { return f == FormatD24UnormS8Uint }

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatRGBA8Unorm:
		return "RGBA8Unorm"
	case FormatBGRA8Unorm:
		return "BGRA8Unorm"
	case FormatRGBA16Float:
		return "RGBA16Float"
	case FormatRGBA32Float:
		return "RGBA32Float"
	case FormatR32Float:
		return "R32Float"
	case FormatR32Uint:
		return "R32Uint"
	case FormatR16Uint:
		return "R16Uint"
	case FormatR8Unorm:
		return "R8Unorm"
	case FormatD32Float:
		return "D32Float"
	case FormatD24UnormS8Uint:
		return "D24UnormS8Uint"
	default:
		return "Unknown"
	}
}

// TextureUsage declares which views a texture must support.
type TextureUsage uint8

const (
	TextureUsageShaderResource TextureUsage = 1 << iota
	TextureUsageRenderTarget
	TextureUsageDepthStencil
	TextureUsageUnorderedAccess
)

// TextureDesc describes a 2D texture or texture array to create.
type TextureDesc struct {
	Label        string
	Width        uint32
	Height       uint32
	ArraySize    uint32
	MipLevels    uint32
	SampleCount  uint32
	Format       Format
	Usage        TextureUsage
	InitialState ResourceState
}

// AllSubresources selects every subresource of a texture in a barrier.
const AllSubresources = ^uint32(0)

// Texture is a 2D texture or texture array.
type Texture struct {
	GpuResource

	width     uint32
	height    uint32
	arraySize uint32
	mipLevels uint32
	format    Format

	// SRV and UAV are CPU descriptor handles for the default views.
	SRV CPUDescriptorHandle
	UAV CPUDescriptorHandle
}

// InitTexture fills the texture-specific fields. Backends call it right after
// creating the native object.
func (t *Texture) InitTexture(desc TextureDesc, native any) {
	t.GpuResource.Init(native, desc.InitialState, 0, desc.Label)
	t.width = desc.Width
	t.height = desc.Height
	t.arraySize = max(desc.ArraySize, 1)
	t.mipLevels = max(desc.MipLevels, 1)
	t.format = desc.Format
}

// Width returns the width of mip 0.
func (t *Texture) Width() uint32 { return t.width }

// Height returns the height of mip 0.
func (t *Texture) Height() uint32 { return t.height }

// ArraySize returns the number of array slices.
func (t *Texture) ArraySize() uint32 { return t.arraySize }

// MipLevels returns the number of mip levels.
func (t *Texture) MipLevels() uint32 { return t.mipLevels }

// Format returns the texel format.
func (t *Texture) Format() Format { return t.format }

// SubresourceCount returns ArraySize * MipLevels.
func (t *Texture) SubresourceCount() uint32 { return t.arraySize * t.mipLevels }

// Subresource returns the flat index of (mip, slice).
func (t *Texture) Subresource(mip, slice uint32) uint32 {
	return mip + slice*t.mipLevels
}

// MipSize returns the dimensions of the given mip level.
func (t *Texture) MipSize(mip uint32) (width, height uint32) {
	return max(t.width>>mip, 1), max(t.height>>mip, 1)
}

// ColorBuffer is a texture usable as a render target.
type ColorBuffer struct {
	Texture

	// RTV is the render target view handle.
	RTV CPUDescriptorHandle

	// ClearColor is used by ClearColor when no explicit color is given.
	ClearColor [4]float32
}

// DepthBuffer is a texture usable as a depth-stencil target.
type DepthBuffer struct {
	Texture

	// DSV is the read-write depth-stencil view handle.
	DSV CPUDescriptorHandle
	// DSVReadOnly is the read-only depth view handle.
	DSVReadOnly CPUDescriptorHandle

	ClearDepth   float32
	ClearStencil uint8
}
