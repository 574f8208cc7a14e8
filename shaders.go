// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package blit

import (
	"errors"
	"fmt"
	"strings"

	_ "embed"
)

// Embedded WGSL shader sources. A pipeline's module is assembled from a
// generated constant header, the common library, the vertex shader and one
// fragment variant, so WebGPU's lack of specialization constants costs one
// module per pipeline key instead of per-draw branching.

//go:embed shaders/common.wgsl
var commonShaderSource string

//go:embed shaders/blit_vs.wgsl
var vertexShaderSource string

//go:embed shaders/copy_fs.wgsl
var copyShaderSource string

//go:embed shaders/blit_fs.wgsl
var blitShaderSource string

//go:embed shaders/resolve_fs.wgsl
var resolveShaderSource string

//go:embed shaders/msblit_fs.wgsl
var msBlitShaderSource string

// ErrShaderSourceEmpty reports a missing embedded shader source.
var ErrShaderSourceEmpty = errors.New("blit: embedded shader source is empty")

// shaderSet holds the raw WGSL sources the presentation pipelines are
// assembled from.
type shaderSet struct {
	common  string
	vertex  string
	copy    string
	blit    string
	resolve string
	msBlit  string
}

func newShaderSet() (*shaderSet, error) {
	s := &shaderSet{
		common:  commonShaderSource,
		vertex:  vertexShaderSource,
		copy:    copyShaderSource,
		blit:    blitShaderSource,
		resolve: resolveShaderSource,
		msBlit:  msBlitShaderSource,
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
			return nil, fmt.Errorf("%w: %s", ErrShaderSourceEmpty, name)
		}
	}
	return s, nil
}

func (s *shaderSet) fragmentSource(kind shaderKind) string {
	switch kind {
	case shaderCopy:
		return s.copy
	case shaderBlit:
		return s.blit
	case shaderResolve:
		return s.resolve
	default:
		return s.msBlit
	}
}

// moduleSource assembles the complete WGSL module for one pipeline key.
func (s *shaderSet) moduleSource(key PipelineKey) string {
	var b strings.Builder
	b.WriteString(specHeader(key))
	b.WriteString(s.common)
	b.WriteString("\n")
	b.WriteString(s.vertex)
	b.WriteString("\n")
	b.WriteString(s.fragmentSource(key.fragmentShader()))
	return b.String()
}

// specHeader generates the module-scope constants that specialize the
// shared shader sources for one pipeline key.
func specHeader(key PipelineKey) string {
	var b strings.Builder
	fmt.Fprintf(&b, "const SAMPLE_COUNT: u32 = %du;\n", key.SrcSamples)
	fmt.Fprintf(&b, "const SRC_SPACE: u32 = %du;\n", uint32(key.SrcSpace))
	fmt.Fprintf(&b, "const SRC_IS_SRGB: bool = %t;\n", key.SrcIsSrgb)
	fmt.Fprintf(&b, "const DST_SPACE: u32 = %du;\n", uint32(key.DstSpace))
	fmt.Fprintf(&b, "const DST_IS_SRGB: bool = %t;\n", formatIsSrgb(key.DstFormat))
	fmt.Fprintf(&b, "const GAMMA_BOUND: bool = %t;\n", key.NeedsGamma)
	fmt.Fprintf(&b, "const CURSOR_BOUND: bool = %t;\n", key.NeedsBlending)
	b.WriteString("\n")
	return b.String()
}
