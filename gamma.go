// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package blit

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Bytes per gamma lookup texel (rgba16float).
const gammaTexelSize = 8

// gammaState holds the CPU side of the gamma correction curve. Mutations
// happen under the blitter lock; the GPU upload is deferred to the next
// BeginPresent so mutators never touch the command stream.
type gammaState struct {
	lut      ownedTexture
	capacity uint32 // allocated texel count
	count    uint32 // active control points, 0 = disabled
	pending  []byte // packed rgba16float texels awaiting upload
	dirty    bool
}

// SetGammaRamp replaces the per-channel gamma correction curve. An empty
// slice disables gamma correction and releases the lookup texture. The
// control points are 16-bit unorm values; they are converted to half
// floats for the lookup texture, which keeps the full 16-bit precision of
// values near zero and about 11 bits elsewhere.
//
// Safe to call concurrently with BeginPresent; the new ramp is observed by
// the first present that begins after this call returns.
func (b *Blitter) SetGammaRamp(points []GammaControlPoint) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(points) == 0 {
		if b.gamma.lut.tex != nil {
			b.retireTextureLocked(b.gamma.lut)
			b.gamma.lut = ownedTexture{}
		}
		b.gamma.capacity = 0
		b.gamma.count = 0
		b.gamma.pending = nil
		b.gamma.dirty = false
		Logger().Debug("gamma ramp cleared")
		return
	}

	packed := make([]byte, len(points)*gammaTexelSize)
	for i, p := range points {
		off := i * gammaTexelSize
		binary.LittleEndian.PutUint16(packed[off+0:], float16FromUnorm16(p.R))
		binary.LittleEndian.PutUint16(packed[off+2:], float16FromUnorm16(p.G))
		binary.LittleEndian.PutUint16(packed[off+4:], float16FromUnorm16(p.B))
		binary.LittleEndian.PutUint16(packed[off+6:], float16FromUnorm16(p.A))
	}
	b.gamma.count = uint32(len(points))
	b.gamma.pending = packed
	b.gamma.dirty = true
	Logger().Debug("gamma ramp updated", "points", len(points))
}

// flushGamma records the deferred ramp upload. Called under the blitter
// lock from BeginPresent. Reallocates the lookup texture only when the new
// ramp does not fit the current allocation.
func (b *Blitter) flushGamma(encoder hal.CommandEncoder) error {
	if !b.gamma.dirty {
		return nil
	}
	count := b.gamma.count

	fresh := false
	if b.gamma.lut.tex == nil || count > b.gamma.capacity {
		if b.gamma.lut.tex != nil {
			b.retireTextureLocked(b.gamma.lut)
			b.gamma.lut = ownedTexture{}
		}
		tex, err := b.device.CreateTexture(&hal.TextureDescriptor{
			Label:         "blit_gamma_lut",
			Size:          hal.Extent3D{Width: count, Height: 1, DepthOrArrayLayers: 1},
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     gputypes.TextureDimension1D,
			Format:        gputypes.TextureFormatRGBA16Float,
			Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("blit: create gamma lut texture: %w", err)
		}
		b.gamma.lut.tex = tex
		view, err := b.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
			Label: "blit_gamma_lut_view",
		})
		if err != nil {
			return fmt.Errorf("blit: create gamma lut view: %w", err)
		}
		b.gamma.lut.view = view
		b.gamma.capacity = count
		fresh = true
	}

	staging, err := b.uploadTexture(encoder, b.gamma.lut.tex, b.gamma.pending, count, 1, gammaTexelSize, !fresh)
	if err != nil {
		return fmt.Errorf("blit: upload gamma ramp: %w", err)
	}
	b.frame.staging = append(b.frame.staging, staging)
	// The frame keeps the texel data until its draw is fully recorded, so
	// an aborted present can mark the ramp dirty again (abortPresent).
	b.frame.gammaRestore = b.gamma.pending
	b.gamma.pending = nil
	b.gamma.dirty = false
	return nil
}

// float16FromUnorm16 converts a 16-bit unorm channel value to the half
// float bit pattern stored in the lookup texture.
func float16FromUnorm16(v uint16) uint16 {
	return float16Bits(float32(v) / 65535.0)
}

// float16Bits converts a float32 to IEEE 754 half precision bits with
// round-to-nearest. Mantissa carry during rounding propagates into the
// exponent field, which yields the correctly rounded encoding.
func float16Bits(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16(bits>>16) & 0x8000
	exp := int32(bits>>23&0xff) - 127 + 15
	man := bits & 0x7fffff

	switch {
	case exp >= 0x1f:
		return sign | 0x7c00
	case exp <= 0:
		if exp < -10 {
			return sign
		}
		man |= 0x800000
		half := uint16(man >> uint32(14-exp))
		if man>>uint32(13-exp)&1 != 0 {
			half++
		}
		return sign | half
	default:
		half := uint16(exp)<<10 | uint16(man>>13)
		if man&0x1000 != 0 {
			half++
		}
		return sign | half
	}
}
