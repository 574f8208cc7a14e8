// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package blit

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Offset2D is an integer pixel offset into an image.
type Offset2D struct {
	X int32
	Y int32
}

// Extent2D is a size in pixels.
type Extent2D struct {
	Width  uint32
	Height uint32
}

// Rect is a rectangle in target pixel coordinates.
type Rect struct {
	Offset Offset2D
	Extent Extent2D
}

// ColorSpace identifies the combination of primaries and transfer
// function a view's pixel values are encoded in. When the source and
// destination spaces of a present differ, the blit shader converts
// between them as part of the draw.
type ColorSpace uint32

const (
	// ColorSpaceSrgb is sRGB primaries with the sRGB transfer function.
	// This is the common SDR swapchain space.
	ColorSpaceSrgb ColorSpace = iota

	// ColorSpaceLinear is sRGB primaries with a linear transfer
	// function (scRGB / extended linear), used for HDR composition.
	ColorSpaceLinear

	// ColorSpaceHDR10 is BT.2020 primaries with the SMPTE ST.2084
	// perceptual quantizer transfer function.
	ColorSpaceHDR10
)

// String returns a human-readable name for the color space.
func (s ColorSpace) String() string {
	switch s {
	case ColorSpaceSrgb:
		return "sRGB"
	case ColorSpaceLinear:
		return "Linear"
	case ColorSpaceHDR10:
		return "HDR10"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(s))
	}
}

// GammaControlPoint is one entry of a gamma ramp, 16 bits per channel.
type GammaControlPoint struct {
	R uint16
	G uint16
	B uint16
	A uint16
}

// ImageView bundles the HAL handles and metadata the blitter needs to
// read from or render to an image. The texture and view are borrowed:
// the blitter never destroys them.
type ImageView struct {
	// Texture is the underlying image, used for barriers.
	Texture hal.Texture

	// View is the texture view bound to the draw.
	View hal.TextureView

	// Format is the view's texture format.
	Format gputypes.TextureFormat

	// Extent is the image size in pixels. Required for destination
	// views, where it maps the destination rectangle to clip space.
	Extent Extent2D

	// SampleCount is the image sample count. Zero is treated as 1.
	SampleCount uint32
}

// valid reports whether the view carries the handles a present needs.
func (v ImageView) valid() bool {
	return v.Texture != nil && v.View != nil
}

// samples returns the effective sample count.
func (v ImageView) samples() uint32 {
	if v.SampleCount == 0 {
		return 1
	}
	return v.SampleCount
}

// formatIsSrgb reports whether the format carries hardware sRGB
// encode/decode. The shader skips its manual sRGB transfer step for
// such formats because the texture unit already applies it.
func formatIsSrgb(f gputypes.TextureFormat) bool {
	switch f {
	case gputypes.TextureFormatRGBA8UnormSrgb, gputypes.TextureFormatBGRA8UnormSrgb:
		return true
	default:
		return false
	}
}

// texelSize returns the byte size of one texel for the formats the
// cursor upload accepts, or 0 for unsupported formats. sRGB formats are
// excluded: the cursor blend operates on encoded values, and a view
// that decodes on sample would blend different values than the bytes
// that were uploaded.
func texelSize(f gputypes.TextureFormat) uint32 {
	switch f {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm:
		return 4
	case gputypes.TextureFormatR8Unorm:
		return 1
	default:
		return 0
	}
}
