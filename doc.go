// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package blit presents rendered color images onto a display surface.
//
// # Overview
//
// blit is a presentation layer for the GoGPU ecosystem: it takes the
// image a renderer produced and draws it onto a swapchain image,
// performing everything that has to happen between "rendered" and
// "presentable" in a single GPU draw:
//
//   - multisample resolve (when the source image is MSAA)
//   - color-space conversion (sRGB, extended linear, HDR10/PQ)
//   - gamma-ramp correction through a 1-D lookup texture
//   - software-cursor compositing
//
// The central type is [Blitter]. It caches one GPU pipeline per
// distinct combination of these transforms, keyed by [PipelineKey],
// and exposes a two-phase present protocol:
//
//	rp, err := blitter.BeginPresent(encoder, dst, dstSpace, dstRect, src, srcSpace, srcRect)
//	// ... optionally record more draws into rp (HUD, overlays) ...
//	err = blitter.EndPresent(encoder, dst, dstSpace)
//
// Between BeginPresent and EndPresent the destination image stays
// bound for rendering, so callers can draw on top of the presented
// frame before it is finalized.
//
// # Pipeline caching
//
// Pipelines are created lazily on the first present that needs them
// and are never evicted: a presentation workload only ever produces a
// handful of distinct configurations, and keeping them alive
// guarantees pipeline handle stability across frames.
// [Blitter.Stats] exposes hit/miss counters.
//
// # Concurrency
//
// BeginPresent and EndPresent must be called from the single goroutine
// that owns command recording for the frame. The mutators -
// [Blitter.SetGammaRamp], [Blitter.SetCursorTexture],
// [Blitter.SetCursorPos] - may be called from any goroutine (for
// example a UI or input thread); a mutator that returns before
// BeginPresent is observed by that present, and one racing with an
// in-flight present is observed atomically in either the current or
// the next frame.
//
// # Architecture
//
// The library is organized into:
//   - Public API: Blitter, PipelineKey, ImageView, ColorSpace, Rect
//   - Shaders: a vertex program and four fragment programs under
//     shaders/, assembled with a shared library and
//     per-configuration constants baked at pipeline creation
//   - Device layer: gogpu/wgpu HAL handles (borrowed, never owned)
package blit

// Version is the current version of the library.
const Version = "0.2.0"
