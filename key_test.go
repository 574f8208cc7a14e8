// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package blit

import (
	"testing"

	"github.com/gogpu/gputypes"
)

func TestNeedsBlit(t *testing.T) {
	rect100 := Rect{Extent: Extent2D{Width: 100, Height: 100}}
	rect200 := Rect{Extent: Extent2D{Width: 200, Height: 200}}
	shifted := Rect{Offset: Offset2D{X: 10, Y: 0}, Extent: Extent2D{Width: 100, Height: 100}}

	tests := []struct {
		name     string
		src, dst Rect
		srcSpace ColorSpace
		dstSpace ColorSpace
		want     bool
	}{
		{"identical rects and spaces", rect100, rect100, ColorSpaceSrgb, ColorSpaceSrgb, false},
		{"scaled destination", rect100, rect200, ColorSpaceSrgb, ColorSpaceSrgb, true},
		{"offset destination", rect100, shifted, ColorSpaceSrgb, ColorSpaceSrgb, true},
		{"space mismatch at 1:1", rect100, rect100, ColorSpaceSrgb, ColorSpaceHDR10, true},
		{"linear to srgb at 1:1", rect100, rect100, ColorSpaceLinear, ColorSpaceSrgb, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := needsBlit(tt.src, tt.dst, tt.srcSpace, tt.dstSpace)
			if got != tt.want {
				t.Errorf("needsBlit = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFragmentShaderSelection(t *testing.T) {
	tests := []struct {
		name    string
		samples uint32
		blit    bool
		want    shaderKind
	}{
		{"single sample copy", 1, false, shaderCopy},
		{"single sample blit", 1, true, shaderBlit},
		{"multisample resolve", 4, false, shaderResolve},
		{"multisample blit", 4, true, shaderMsBlit},
		{"8x resolve", 8, false, shaderResolve},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := PipelineKey{SrcSamples: tt.samples, NeedsBlit: tt.blit}
			if got := key.fragmentShader(); got != tt.want {
				t.Errorf("fragmentShader() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDerivePipelineKey(t *testing.T) {
	rect := Rect{Extent: Extent2D{Width: 640, Height: 480}}
	src := ImageView{Format: gputypes.TextureFormatRGBA8UnormSrgb, SampleCount: 4}
	dst := ImageView{Format: gputypes.TextureFormatBGRA8Unorm}

	key := derivePipelineKey(dst, ColorSpaceSrgb, rect, src, ColorSpaceSrgb, rect, true, false)

	if key.SrcSamples != 4 {
		t.Errorf("SrcSamples = %d, want 4", key.SrcSamples)
	}
	if !key.SrcIsSrgb {
		t.Error("SrcIsSrgb = false for an sRGB source format")
	}
	if key.DstFormat != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("DstFormat = %v, want BGRA8Unorm", key.DstFormat)
	}
	if key.NeedsBlit {
		t.Error("NeedsBlit = true for identical rects and spaces")
	}
	if !key.NeedsGamma {
		t.Error("NeedsGamma = false, want true")
	}
	if key.NeedsBlending {
		t.Error("NeedsBlending = true, want false")
	}
}

func TestDerivePipelineKeyZeroSamples(t *testing.T) {
	rect := Rect{Extent: Extent2D{Width: 64, Height: 64}}
	src := ImageView{Format: gputypes.TextureFormatRGBA8Unorm}

	key := derivePipelineKey(ImageView{}, ColorSpaceSrgb, rect, src, ColorSpaceSrgb, rect, false, false)
	if key.SrcSamples != 1 {
		t.Errorf("SrcSamples = %d for an unset sample count, want 1", key.SrcSamples)
	}
	if key.multisampled() {
		t.Error("multisampled() = true for a single-sample key")
	}
}
