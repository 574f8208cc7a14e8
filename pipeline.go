// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package blit

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// pipelineEntry is one cached pipeline variant. The shader module holds
// the constants baked for the entry's key, so it is owned alongside the
// pipeline and destroyed with it at teardown.
type pipelineEntry struct {
	pipeline hal.RenderPipeline
	module   hal.ShaderModule
}

// getOrCreatePipeline returns the pipeline for key, creating it on first
// request. Double-check locking keeps the common hit on the read lock;
// the write lock guarantees at most one pipeline is ever created per key.
//
// Pipelines are never evicted. The variant space is small (shader kind x
// color spaces x formats actually presented), so the cache stays bounded
// in practice and cached handles remain stable for the blitter's lifetime.
func (b *Blitter) getOrCreatePipeline(key PipelineKey) (hal.RenderPipeline, error) {
	// Fast path: read lock
	b.mu.RLock()
	if e, ok := b.pipelines[key]; ok {
		b.mu.RUnlock()
		atomic.AddUint64(&b.cacheHits, 1)
		return e.pipeline, nil
	}
	b.mu.RUnlock()

	// Slow path: write lock with double-check
	b.mu.Lock()
	defer b.mu.Unlock()
	if e, ok := b.pipelines[key]; ok {
		atomic.AddUint64(&b.cacheHits, 1)
		return e.pipeline, nil
	}

	e, err := b.createPipeline(key)
	if err != nil {
		return nil, err
	}
	b.pipelines[key] = e
	atomic.AddUint64(&b.cacheMisses, 1)
	Logger().Debug("pipeline created",
		"shader", key.fragmentShader().String(),
		"srcSpace", key.SrcSpace.String(),
		"dstSpace", key.DstSpace.String(),
		"samples", key.SrcSamples,
		"gamma", key.NeedsGamma,
		"cursor", key.NeedsBlending,
		"cached", len(b.pipelines))
	return e.pipeline, nil
}

// createPipeline builds the shader module and pipeline for one key.
// Creation failure is a fatal configuration error for the present that
// triggered it; no fallback pipeline is ever substituted.
func (b *Blitter) createPipeline(key PipelineKey) (pipelineEntry, error) {
	kind := key.fragmentShader()
	label := "present_" + kind.String()

	source := b.shaders.moduleSource(key)
	var shaderSource hal.ShaderSource
	if b.compileSPIRV {
		spirvBytes, err := naga.Compile(source)
		if err != nil {
			return pipelineEntry{}, fmt.Errorf("blit: compile %s shader: %w", kind, err)
		}
		words := make([]uint32, len(spirvBytes)/4)
		for i := range words {
			words[i] = uint32(spirvBytes[i*4]) |
				uint32(spirvBytes[i*4+1])<<8 |
				uint32(spirvBytes[i*4+2])<<16 |
				uint32(spirvBytes[i*4+3])<<24
		}
		shaderSource = hal.ShaderSource{SPIRV: words}
	} else {
		shaderSource = hal.ShaderSource{WGSL: source}
	}

	module, err := b.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label + "_shader",
		Source: shaderSource,
	})
	if err != nil {
		return pipelineEntry{}, fmt.Errorf("blit: create %s shader module: %w", kind, err)
	}

	pipeline, err := b.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  label,
		Layout: b.layouts.pipelineLayoutFor(key.multisampled()),
		Vertex: hal.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    key.DstFormat,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		// The draw renders into a single-sample destination; the source's
		// sample count only affects fragment shader texel fetches.
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
	})
	if err != nil {
		b.device.DestroyShaderModule(module)
		return pipelineEntry{}, fmt.Errorf("blit: create %s pipeline: %w", kind, err)
	}
	return pipelineEntry{pipeline: pipeline, module: module}, nil
}

// Stats returns the pipeline cache hit and miss counts.
//
// The values are read atomically and may not be perfectly synchronized.
func (b *Blitter) Stats() (hits, misses uint64) {
	return atomic.LoadUint64(&b.cacheHits), atomic.LoadUint64(&b.cacheMisses)
}

// HitRate returns the pipeline cache hit rate (0.0 to 1.0), or 0.0 if no
// requests have been made.
func (b *Blitter) HitRate() float64 {
	hits := atomic.LoadUint64(&b.cacheHits)
	misses := atomic.LoadUint64(&b.cacheMisses)
	total := hits + misses
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total)
}

// PipelineCount returns the number of cached pipelines.
func (b *Blitter) PipelineCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.pipelines)
}
