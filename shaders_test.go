// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package blit

import (
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestNewShaderSet(t *testing.T) {
	s, err := newShaderSet()
	if err != nil {
		t.Fatalf("newShaderSet failed: %v", err)
	}
	for name, src := range map[string]string{
		"common":  s.common,
		"vertex":  s.vertex,
		"copy":    s.copy,
		"blit":    s.blit,
		"resolve": s.resolve,
		"msblit":  s.msBlit,
	} {
		if src == "" {
			t.Errorf("%s shader source is empty", name)
		}
	}
}

func TestSpecHeader(t *testing.T) {
	key := PipelineKey{
		SrcSpace:      ColorSpaceHDR10,
		SrcSamples:    4,
		SrcIsSrgb:     false,
		DstSpace:      ColorSpaceSrgb,
		DstFormat:     gputypes.TextureFormatBGRA8UnormSrgb,
		NeedsBlit:     true,
		NeedsGamma:    true,
		NeedsBlending: false,
	}
	header := specHeader(key)

	for _, want := range []string{
		"const SAMPLE_COUNT: u32 = 4u;",
		"const SRC_SPACE: u32 = 2u;",
		"const SRC_IS_SRGB: bool = false;",
		"const DST_SPACE: u32 = 0u;",
		"const DST_IS_SRGB: bool = true;",
		"const GAMMA_BOUND: bool = true;",
		"const CURSOR_BOUND: bool = false;",
	} {
		if !strings.Contains(header, want) {
			t.Errorf("header missing %q:\n%s", want, header)
		}
	}
}

func TestModuleSourceAssembly(t *testing.T) {
	s, err := newShaderSet()
	if err != nil {
		t.Fatalf("newShaderSet failed: %v", err)
	}

	key := PipelineKey{SrcSamples: 1, DstFormat: gputypes.TextureFormatBGRA8Unorm}
	src := s.moduleSource(key)

	if !strings.Contains(src, "fn vs_main") {
		t.Error("module source missing vertex entry point")
	}
	if !strings.Contains(src, "fn fs_main") {
		t.Error("module source missing fragment entry point")
	}
	if !strings.Contains(src, "fn present_output") {
		t.Error("module source missing shared output function")
	}
	if strings.Contains(src, "texture_multisampled_2d") {
		t.Error("single-sample module declares a multisampled source")
	}

	msKey := PipelineKey{SrcSamples: 4, DstFormat: gputypes.TextureFormatBGRA8Unorm}
	msSrc := s.moduleSource(msKey)
	if !strings.Contains(msSrc, "texture_multisampled_2d") {
		t.Error("multisample module missing multisampled source declaration")
	}
	if src == msSrc {
		t.Error("distinct keys produced identical module sources")
	}
}

func TestFragmentSourcePerKind(t *testing.T) {
	s, err := newShaderSet()
	if err != nil {
		t.Fatalf("newShaderSet failed: %v", err)
	}
	seen := map[string]bool{}
	for _, kind := range []shaderKind{shaderCopy, shaderBlit, shaderResolve, shaderMsBlit} {
		src := s.fragmentSource(kind)
		if src == "" {
			t.Errorf("fragmentSource(%v) is empty", kind)
		}
		if seen[src] {
			t.Errorf("fragmentSource(%v) duplicates another variant", kind)
		}
		seen[src] = true
	}
}
