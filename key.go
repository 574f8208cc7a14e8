// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package blit

import "github.com/gogpu/gputypes"

// PipelineKey identifies one presentation pipeline variant. Two keys
// with equal fields select the same cached pipeline; the key fully
// determines shader selection and the constants baked into the shader.
// No other runtime state affects pipeline selection.
//
// PipelineKey is comparable and is used directly as the cache map key.
type PipelineKey struct {
	// SrcSpace is the input color space. If it does not match
	// DstSpace, the input is converted to match the output.
	SrcSpace ColorSpace

	// SrcSamples is the source image sample count. It selects the
	// multisample shader variants and is baked into them.
	SrcSamples uint32

	// SrcIsSrgb is set when the source view has an sRGB format, so
	// the texture unit linearizes on read.
	SrcIsSrgb bool

	// DstSpace is the output color space.
	DstSpace ColorSpace

	// DstFormat is the destination attachment format. Pipeline state,
	// and the source of the destination's sRGB-ness.
	DstFormat gputypes.TextureFormat

	// NeedsBlit is set when the source and destination rectangles
	// differ in size or offset, or when the color spaces differ: in
	// either case a plain per-texel copy is not enough.
	NeedsBlit bool

	// NeedsGamma is set when a gamma ramp is bound for this draw.
	NeedsGamma bool

	// NeedsBlending is set when a cursor is composited in this draw.
	NeedsBlending bool
}

// shaderKind names one of the four fragment programs.
type shaderKind uint8

const (
	shaderCopy shaderKind = iota // 1x source, no scaling
	shaderBlit                   // 1x source, scaled/offset
	shaderResolve                // MSAA source, no scaling
	shaderMsBlit                 // MSAA source, scaled/offset
)

// String returns the shader name used in GPU debug labels.
func (k shaderKind) String() string {
	switch k {
	case shaderCopy:
		return "copy"
	case shaderBlit:
		return "blit"
	case shaderResolve:
		return "resolve"
	case shaderMsBlit:
		return "msblit"
	default:
		return "unknown"
	}
}

// fragmentShader selects the fragment program for the key.
func (k PipelineKey) fragmentShader() shaderKind {
	multisampled := k.SrcSamples > 1
	switch {
	case multisampled && !k.NeedsBlit:
		return shaderResolve
	case multisampled:
		return shaderMsBlit
	case !k.NeedsBlit:
		return shaderCopy
	default:
		return shaderBlit
	}
}

// multisampled reports whether the key reads a multisampled source.
// Multisampled and single-sample sources bind through different fixed
// layouts because WebGPU encodes multisampled-ness in the binding.
func (k PipelineKey) multisampled() bool {
	return k.SrcSamples > 1
}

// derivePipelineKey computes the key for one present call.
// needsGamma and needsBlending reflect the gamma/cursor state captured
// under the blitter lock.
func derivePipelineKey(
	dst ImageView, dstSpace ColorSpace, dstRect Rect,
	src ImageView, srcSpace ColorSpace, srcRect Rect,
	needsGamma, needsBlending bool,
) PipelineKey {
	return PipelineKey{
		SrcSpace:      srcSpace,
		SrcSamples:    src.samples(),
		SrcIsSrgb:     formatIsSrgb(src.Format),
		DstSpace:      dstSpace,
		DstFormat:     dst.Format,
		NeedsBlit:     needsBlit(srcRect, dstRect, srcSpace, dstSpace),
		NeedsGamma:    needsGamma,
		NeedsBlending: needsBlending,
	}
}

// needsBlit reports whether a plain texel-for-texel copy is
// insufficient: the rectangles differ in size or offset, or the color
// spaces differ (a conversion pass is required even at 1:1 scale).
func needsBlit(srcRect, dstRect Rect, srcSpace, dstSpace ColorSpace) bool {
	return srcRect.Extent != dstRect.Extent ||
		srcRect.Offset != dstRect.Offset ||
		srcSpace != dstSpace
}
