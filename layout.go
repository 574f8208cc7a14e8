// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package blit

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Fixed binding model shared by every presentation pipeline. All resources
// live in bind group 0:
//
//	0: params uniform (vertex + fragment)
//	1: source texture
//	2: source sampler
//	3: gamma lookup texture (1D)
//	4: gamma sampler
//	5: cursor texture
//	6: cursor sampler
//
// WebGPU types the source texture binding, so a multisampled source needs
// its own bind group layout and pipeline layout. When no gamma ramp or
// cursor is set, 1x1 placeholder textures satisfy the layout; the shader
// never reads them because the matching constants are baked to false.
const (
	bindingParams     = 0
	bindingSrcTexture = 1
	bindingSrcSampler = 2
	bindingGammaTex   = 3
	bindingGammaSamp  = 4
	bindingCursorTex  = 5
	bindingCursorSamp = 6
)

// ownedTexture pairs a texture with its default view.
type ownedTexture struct {
	tex  hal.Texture
	view hal.TextureView
}

func (t *ownedTexture) destroy(device hal.Device) {
	if t.view != nil {
		device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		device.DestroyTexture(t.tex)
		t.tex = nil
	}
}

// layoutSet owns the immutable per-blitter binding state: the two bind
// group layouts, their pipeline layouts, the shared samplers, and the
// placeholder textures.
type layoutSet struct {
	single     hal.BindGroupLayout
	multi      hal.BindGroupLayout
	pipeSingle hal.PipelineLayout
	pipeMulti  hal.PipelineLayout

	nearest hal.Sampler
	linear  hal.Sampler

	// Bound in place of the cursor and gamma textures when unset.
	placeholder2D ownedTexture
	placeholder1D ownedTexture
}

func bindGroupLayoutEntries(multisampled bool) []gputypes.BindGroupLayoutEntry {
	srcSampleType := gputypes.TextureSampleTypeFloat
	if multisampled {
		srcSampleType = gputypes.TextureSampleTypeUnfilterableFloat
	}
	return []gputypes.BindGroupLayoutEntry{
		{
			Binding:    bindingParams,
			Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
			Buffer: &gputypes.BufferBindingLayout{
				Type: gputypes.BufferBindingTypeUniform,
			},
		},
		{
			Binding:    bindingSrcTexture,
			Visibility: gputypes.ShaderStageFragment,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    srcSampleType,
				ViewDimension: gputypes.TextureViewDimension2D,
				Multisampled:  multisampled,
			},
		},
		{
			Binding:    bindingSrcSampler,
			Visibility: gputypes.ShaderStageFragment,
			Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
		},
		{
			Binding:    bindingGammaTex,
			Visibility: gputypes.ShaderStageFragment,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension1D,
			},
		},
		{
			Binding:    bindingGammaSamp,
			Visibility: gputypes.ShaderStageFragment,
			Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
		},
		{
			Binding:    bindingCursorTex,
			Visibility: gputypes.ShaderStageFragment,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			},
		},
		{
			Binding:    bindingCursorSamp,
			Visibility: gputypes.ShaderStageFragment,
			Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
		},
	}
}

func newLayoutSet(device hal.Device) (*layoutSet, error) {
	ls := &layoutSet{}

	var err error
	ls.single, err = device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   "present_bgl",
		Entries: bindGroupLayoutEntries(false),
	})
	if err != nil {
		return nil, fmt.Errorf("blit: create bind group layout: %w", err)
	}
	ls.multi, err = device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   "present_ms_bgl",
		Entries: bindGroupLayoutEntries(true),
	})
	if err != nil {
		ls.destroy(device)
		return nil, fmt.Errorf("blit: create multisample bind group layout: %w", err)
	}

	ls.pipeSingle, err = device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "present_pl",
		BindGroupLayouts: []hal.BindGroupLayout{ls.single},
	})
	if err != nil {
		ls.destroy(device)
		return nil, fmt.Errorf("blit: create pipeline layout: %w", err)
	}
	ls.pipeMulti, err = device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "present_ms_pl",
		BindGroupLayouts: []hal.BindGroupLayout{ls.multi},
	})
	if err != nil {
		ls.destroy(device)
		return nil, fmt.Errorf("blit: create multisample pipeline layout: %w", err)
	}

	ls.nearest, err = device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "present_nearest",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeNearest,
		MinFilter:    gputypes.FilterModeNearest,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		ls.destroy(device)
		return nil, fmt.Errorf("blit: create nearest sampler: %w", err)
	}
	ls.linear, err = device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "present_linear",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		ls.destroy(device)
		return nil, fmt.Errorf("blit: create linear sampler: %w", err)
	}

	if err := ls.createPlaceholders(device); err != nil {
		ls.destroy(device)
		return nil, err
	}
	return ls, nil
}

func (ls *layoutSet) createPlaceholders(device hal.Device) error {
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "present_placeholder_2d",
		Size:          hal.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		return fmt.Errorf("blit: create placeholder texture: %w", err)
	}
	ls.placeholder2D.tex = tex
	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: "present_placeholder_2d_view",
	})
	if err != nil {
		return fmt.Errorf("blit: create placeholder view: %w", err)
	}
	ls.placeholder2D.view = view

	tex, err = device.CreateTexture(&hal.TextureDescriptor{
		Label:         "present_placeholder_1d",
		Size:          hal.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension1D,
		Format:        gputypes.TextureFormatRGBA16Float,
		Usage:         gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		return fmt.Errorf("blit: create placeholder lut texture: %w", err)
	}
	ls.placeholder1D.tex = tex
	view, err = device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: "present_placeholder_1d_view",
	})
	if err != nil {
		return fmt.Errorf("blit: create placeholder lut view: %w", err)
	}
	ls.placeholder1D.view = view
	return nil
}

// layoutFor returns the bind group layout matching the source's sample count.
func (ls *layoutSet) layoutFor(multisampled bool) hal.BindGroupLayout {
	if multisampled {
		return ls.multi
	}
	return ls.single
}

// pipelineLayoutFor returns the pipeline layout matching the source's
// sample count.
func (ls *layoutSet) pipelineLayoutFor(multisampled bool) hal.PipelineLayout {
	if multisampled {
		return ls.pipeMulti
	}
	return ls.pipeSingle
}

func (ls *layoutSet) destroy(device hal.Device) {
	ls.placeholder1D.destroy(device)
	ls.placeholder2D.destroy(device)
	if ls.linear != nil {
		device.DestroySampler(ls.linear)
		ls.linear = nil
	}
	if ls.nearest != nil {
		device.DestroySampler(ls.nearest)
		ls.nearest = nil
	}
	if ls.pipeMulti != nil {
		device.DestroyPipelineLayout(ls.pipeMulti)
		ls.pipeMulti = nil
	}
	if ls.pipeSingle != nil {
		device.DestroyPipelineLayout(ls.pipeSingle)
		ls.pipeSingle = nil
	}
	if ls.multi != nil {
		device.DestroyBindGroupLayout(ls.multi)
		ls.multi = nil
	}
	if ls.single != nil {
		device.DestroyBindGroupLayout(ls.single)
		ls.single = nil
	}
}
