// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package blit

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Contract violation errors. These indicate caller programming errors and
// are never recovered from internally.
var (
	// ErrNilDevice is returned when constructing a blitter without a device.
	ErrNilDevice = errors.New("blit: device is nil")

	// ErrNilQueue is returned when constructing a blitter without a queue.
	ErrNilQueue = errors.New("blit: queue is nil")

	// ErrNilEncoder is returned when a present phase is given no encoder.
	ErrNilEncoder = errors.New("blit: command encoder is nil")

	// ErrNilView is returned when a present is given an image view with
	// missing handles.
	ErrNilView = errors.New("blit: image view is missing required handles")

	// ErrZeroExtent is returned when the destination view carries no
	// image extent.
	ErrZeroExtent = errors.New("blit: destination extent is zero")

	// ErrAlreadyPresenting is returned by BeginPresent when the previous
	// present was never ended.
	ErrAlreadyPresenting = errors.New("blit: BeginPresent while a present is in progress")

	// ErrNotPresenting is returned by EndPresent without a matching
	// BeginPresent.
	ErrNotPresenting = errors.New("blit: EndPresent without BeginPresent")
)

// presentPhase tracks the two-phase present protocol.
type presentPhase uint8

const (
	phaseIdle presentPhase = iota
	phasePresenting
)

// Byte size of the draw params uniform. Must match struct Params in
// shaders/common.wgsl.
const paramsUniformSize = 64

// Config controls optional Blitter behavior.
type Config struct {
	// CompileSPIRV precompiles each pipeline's shader through naga and
	// hands the backend SPIR-V words instead of WGSL source, for
	// backends that prefer preprocessed modules.
	CompileSPIRV bool
}

// frameState is the open present, from BeginPresent to EndPresent.
type frameState struct {
	pass    hal.RenderPassEncoder
	dst     ImageView
	staging []hal.Buffer
	groups  []hal.BindGroup

	// Texel data flushed by this present. Non-nil when the frame recorded
	// a gamma/cursor upload; abortPresent puts it back so a discarded
	// frame cannot leave a texture marked populated that never was.
	gammaRestore  []byte
	cursorRestore []byte
}

// retiredResources are GPU objects replaced or used by the previous
// frame. They are destroyed at the next BeginPresent, when the commands
// that referenced them have been submitted.
type retiredResources struct {
	buffers  []hal.Buffer
	groups   []hal.BindGroup
	textures []ownedTexture
}

// Blitter presents a rendered image onto a destination view, performing
// color space conversion, multisample resolve, gamma correction and
// software cursor compositing in a single draw. Pipelines are created
// lazily per configuration and cached for the blitter's lifetime.
//
// The device and queue are borrowed; Destroy releases only what the
// blitter created. Mutators (SetGammaRamp, SetCursorTexture,
// SetCursorPos) may run concurrently with the present phases; the
// present phases themselves are single-caller.
type Blitter struct {
	device hal.Device
	queue  hal.Queue

	shaders      *shaderSet
	layouts      *layoutSet
	compileSPIRV bool

	// mu guards the pipeline map, gamma state, cursor state, phase and
	// frame bookkeeping. Gamma count and texture handle must change
	// together, so one lock covers all of it.
	mu        sync.RWMutex
	pipelines map[PipelineKey]pipelineEntry
	gamma     gammaState
	cursor    cursorState
	phase     presentPhase
	frame     frameState
	retired   retiredResources

	cacheHits   uint64
	cacheMisses uint64
}

// NewBlitter creates a presentation blitter on the given device and queue.
func NewBlitter(device hal.Device, queue hal.Queue) (*Blitter, error) {
	return NewBlitterConfig(device, queue, Config{})
}

// NewBlitterConfig creates a presentation blitter with explicit options.
func NewBlitterConfig(device hal.Device, queue hal.Queue, cfg Config) (*Blitter, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	if queue == nil {
		return nil, ErrNilQueue
	}
	shaders, err := newShaderSet()
	if err != nil {
		return nil, err
	}
	layouts, err := newLayoutSet(device)
	if err != nil {
		return nil, err
	}
	return &Blitter{
		device:       device,
		queue:        queue,
		shaders:      shaders,
		layouts:      layouts,
		compileSPIRV: cfg.CompileSPIRV,
		pipelines:    make(map[PipelineKey]pipelineEntry),
	}, nil
}

// BeginPresent records the presentation draw for one frame: it flushes
// any pending gamma/cursor uploads, derives the pipeline for the current
// configuration, and draws the source rectangle into the destination
// rectangle with resolve, color conversion, gamma and cursor compositing
// applied in that order.
//
// The returned render pass stays open so the caller can record overlay
// draws into the destination; EndPresent closes it. The source texture
// must be in a sampleable state; transitioning it out of its render
// usage is the caller's responsibility, as the blitter does not know its
// prior use.
func (b *Blitter) BeginPresent(
	encoder hal.CommandEncoder,
	dst ImageView, dstSpace ColorSpace, dstRect Rect,
	src ImageView, srcSpace ColorSpace, srcRect Rect,
) (hal.RenderPassEncoder, error) {
	if encoder == nil {
		return nil, ErrNilEncoder
	}
	if !dst.valid() || !src.valid() {
		return nil, ErrNilView
	}
	if dst.Extent.Width == 0 || dst.Extent.Height == 0 {
		return nil, ErrZeroExtent
	}

	b.mu.Lock()
	if b.phase != phaseIdle {
		b.mu.Unlock()
		return nil, ErrAlreadyPresenting
	}
	// The previous frame has been submitted by now; its transients and
	// any textures replaced since are safe to release.
	b.destroyRetiredLocked()

	if err := b.flushGamma(encoder); err != nil {
		b.restoreFlushedLocked()
		b.mu.Unlock()
		return nil, err
	}
	if err := b.flushCursor(encoder); err != nil {
		b.restoreFlushedLocked()
		b.mu.Unlock()
		return nil, err
	}

	needsGamma := b.gamma.count > 0
	needsBlending := b.cursor.set()
	gammaView := b.gamma.lut.view
	gammaCount := b.gamma.count
	cursorView := b.cursor.tex.view
	cursorRect := b.cursor.drawRect()
	cursorLinear := b.cursor.needsLinear()
	b.phase = phasePresenting
	b.mu.Unlock()

	key := derivePipelineKey(dst, dstSpace, dstRect, src, srcSpace, srcRect, needsGamma, needsBlending)
	pipeline, err := b.getOrCreatePipeline(key)
	if err != nil {
		b.abortPresent()
		return nil, err
	}

	uniform, err := b.createParamsBuffer(dst, dstRect, srcRect, cursorRect, gammaCount)
	if err != nil {
		b.abortPresent()
		return nil, err
	}

	group, err := b.createBindGroup(key, uniform, src, srcRect, dstRect, gammaView, cursorView, cursorLinear)
	if err != nil {
		b.mu.Lock()
		b.retired.buffers = append(b.retired.buffers, uniform)
		b.mu.Unlock()
		b.abortPresent()
		return nil, err
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "present_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       dst.View,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 1},
		}},
	})
	rp.SetPipeline(pipeline)
	rp.SetBindGroup(0, group, nil)
	rp.Draw(6, 1, 0, 0)

	b.mu.Lock()
	b.frame.pass = rp
	b.frame.dst = dst
	b.frame.staging = append(b.frame.staging, uniform)
	b.frame.groups = append(b.frame.groups, group)
	b.mu.Unlock()
	return rp, nil
}

// EndPresent closes the present begun by BeginPresent: it ends the render
// pass, leaving the destination ready for presentation. Layout handover
// to the surface is performed by the presentation layer at submit, so no
// further barrier is recorded here.
func (b *Blitter) EndPresent(encoder hal.CommandEncoder, dst ImageView, dstSpace ColorSpace) error {
	if encoder == nil {
		return ErrNilEncoder
	}
	if !dst.valid() {
		return ErrNilView
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.phase != phasePresenting {
		return ErrNotPresenting
	}
	if b.frame.pass != nil {
		b.frame.pass.End()
	}

	// This frame's transients must survive until its commands execute.
	b.retired.buffers = append(b.retired.buffers, b.frame.staging...)
	b.retired.groups = append(b.retired.groups, b.frame.groups...)
	b.frame = frameState{}
	b.phase = phaseIdle
	return nil
}

// abortPresent rolls the state machine back to idle after a failure
// between BeginPresent's phase transition and its draw recording.
func (b *Blitter) abortPresent() {
	b.mu.Lock()
	b.restoreFlushedLocked()
	b.phase = phaseIdle
	b.mu.Unlock()
}

// restoreFlushedLocked undoes this frame's recorded uploads after a
// BeginPresent failure. The caller is expected to discard the encoder,
// so any upload the frame recorded will never execute: the flushed
// state is marked dirty again and the target texture retired, forcing
// the next present to recreate and repopulate it. A mutator that raced
// in keeps its newer data. Called with b.mu held.
func (b *Blitter) restoreFlushedLocked() {
	if b.frame.gammaRestore != nil {
		if !b.gamma.dirty && b.gamma.count > 0 {
			b.gamma.pending = b.frame.gammaRestore
			b.gamma.dirty = true
		}
		if b.gamma.lut.tex != nil {
			b.retireTextureLocked(b.gamma.lut)
			b.gamma.lut = ownedTexture{}
			b.gamma.capacity = 0
		}
	}
	if b.frame.cursorRestore != nil {
		if !b.cursor.dirty && b.cursor.set() {
			b.cursor.pending = b.frame.cursorRestore
			b.cursor.dirty = true
		}
		if b.cursor.tex.tex != nil {
			b.retireTextureLocked(b.cursor.tex)
			b.cursor.tex = ownedTexture{}
			b.cursor.texCap = Extent2D{}
			b.cursor.capFmt = gputypes.TextureFormatUndefined
		}
	}
	b.retired.buffers = append(b.retired.buffers, b.frame.staging...)
	b.retired.groups = append(b.retired.groups, b.frame.groups...)
	b.frame = frameState{}
}

// createParamsBuffer encodes the per-draw uniform. Layout must match
// struct Params in shaders/common.wgsl.
func (b *Blitter) createParamsBuffer(dst ImageView, dstRect, srcRect, cursorRect Rect, gammaCount uint32) (hal.Buffer, error) {
	var data [paramsUniformSize]byte
	le := binary.LittleEndian
	le.PutUint32(data[0:], math.Float32bits(float32(dst.Extent.Width)))
	le.PutUint32(data[4:], math.Float32bits(float32(dst.Extent.Height)))
	le.PutUint32(data[8:], uint32(dstRect.Offset.X))
	le.PutUint32(data[12:], uint32(dstRect.Offset.Y))
	le.PutUint32(data[16:], dstRect.Extent.Width)
	le.PutUint32(data[20:], dstRect.Extent.Height)
	le.PutUint32(data[24:], uint32(srcRect.Offset.X))
	le.PutUint32(data[28:], uint32(srcRect.Offset.Y))
	le.PutUint32(data[32:], srcRect.Extent.Width)
	le.PutUint32(data[36:], srcRect.Extent.Height)
	le.PutUint32(data[40:], uint32(cursorRect.Offset.X))
	le.PutUint32(data[44:], uint32(cursorRect.Offset.Y))
	le.PutUint32(data[48:], cursorRect.Extent.Width)
	le.PutUint32(data[52:], cursorRect.Extent.Height)
	le.PutUint32(data[56:], gammaCount)

	buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "present_params",
		Size:  paramsUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("blit: create params buffer: %w", err)
	}
	b.queue.WriteBuffer(buf, 0, data[:])
	return buf, nil
}

// createBindGroup assembles the single bind group for the draw. Unused
// gamma/cursor slots are filled with the placeholder textures; the baked
// shader constants guarantee they are never sampled.
func (b *Blitter) createBindGroup(
	key PipelineKey,
	uniform hal.Buffer,
	src ImageView, srcRect, dstRect Rect,
	gammaView, cursorView hal.TextureView,
	cursorLinear bool,
) (hal.BindGroup, error) {
	// Scaled blits sample with linear filtering; 1:1 draws use nearest so
	// the copy stays exact. Multisampled sources are fetched per texel in
	// the shader, so the sampler choice is irrelevant there.
	srcSampler := b.layouts.nearest
	if srcRect.Extent != dstRect.Extent {
		srcSampler = b.layouts.linear
	}
	cursorSampler := b.layouts.nearest
	if cursorLinear {
		cursorSampler = b.layouts.linear
	}
	if gammaView == nil {
		gammaView = b.layouts.placeholder1D.view
	}
	if cursorView == nil {
		cursorView = b.layouts.placeholder2D.view
	}

	group, err := b.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "present_bind",
		Layout: b.layouts.layoutFor(key.multisampled()),
		Entries: []gputypes.BindGroupEntry{
			{Binding: bindingParams, Resource: gputypes.BufferBinding{
				Buffer: uniform.NativeHandle(), Offset: 0, Size: paramsUniformSize,
			}},
			{Binding: bindingSrcTexture, Resource: gputypes.TextureViewBinding{
				TextureView: src.View.NativeHandle(),
			}},
			{Binding: bindingSrcSampler, Resource: gputypes.SamplerBinding{
				Sampler: srcSampler.NativeHandle(),
			}},
			{Binding: bindingGammaTex, Resource: gputypes.TextureViewBinding{
				TextureView: gammaView.NativeHandle(),
			}},
			{Binding: bindingGammaSamp, Resource: gputypes.SamplerBinding{
				Sampler: b.layouts.linear.NativeHandle(),
			}},
			{Binding: bindingCursorTex, Resource: gputypes.TextureViewBinding{
				TextureView: cursorView.NativeHandle(),
			}},
			{Binding: bindingCursorSamp, Resource: gputypes.SamplerBinding{
				Sampler: cursorSampler.NativeHandle(),
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("blit: create bind group: %w", err)
	}
	return group, nil
}

// retireTextureLocked queues a replaced texture for destruction at the
// next BeginPresent. Called with b.mu held.
func (b *Blitter) retireTextureLocked(t ownedTexture) {
	b.retired.textures = append(b.retired.textures, t)
}

// destroyRetiredLocked releases resources retired by earlier frames.
// Called with b.mu held.
func (b *Blitter) destroyRetiredLocked() {
	for _, g := range b.retired.groups {
		b.device.DestroyBindGroup(g)
	}
	for _, buf := range b.retired.buffers {
		b.device.DestroyBuffer(buf)
	}
	for i := range b.retired.textures {
		b.retired.textures[i].destroy(b.device)
	}
	b.retired = retiredResources{}
}

// Destroy releases every GPU object the blitter created: cached
// pipelines and their shader modules, gamma and cursor textures, retired
// transients, layouts, samplers and placeholders. The borrowed device
// and queue are untouched. The blitter must not be used afterwards.
//
// The caller must ensure all submitted work using these resources has
// completed.
func (b *Blitter) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.phase == phasePresenting {
		Logger().Warn("blitter destroyed with a present in progress")
		if b.frame.pass != nil {
			b.frame.pass.End()
		}
		b.retired.buffers = append(b.retired.buffers, b.frame.staging...)
		b.retired.groups = append(b.retired.groups, b.frame.groups...)
		b.frame = frameState{}
		b.phase = phaseIdle
	}
	b.destroyRetiredLocked()

	for key, e := range b.pipelines {
		b.device.DestroyRenderPipeline(e.pipeline)
		b.device.DestroyShaderModule(e.module)
		delete(b.pipelines, key)
	}

	if b.gamma.lut.tex != nil {
		b.gamma.lut.destroy(b.device)
	}
	b.gamma = gammaState{}
	if b.cursor.tex.tex != nil {
		b.cursor.tex.destroy(b.device)
	}
	b.cursor = cursorState{}

	if b.layouts != nil {
		b.layouts.destroy(b.device)
		b.layouts = nil
	}
}
