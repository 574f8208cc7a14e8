// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package blit

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ErrUnsupportedFormat reports a cursor bitmap format the blitter cannot
// upload.
var ErrUnsupportedFormat = errors.New("blit: unsupported cursor format")

// cursorState holds the CPU side of the software cursor overlay. The
// bitmap upload is deferred to the next BeginPresent like the gamma ramp;
// repositioning only touches CPU state.
type cursorState struct {
	tex    ownedTexture
	extent Extent2D // native bitmap extent
	format gputypes.TextureFormat
	rect   Rect   // destination rectangle in target pixels
	texCap Extent2D
	capFmt gputypes.TextureFormat

	pending []byte
	dirty   bool
}

// set reports whether a cursor bitmap is currently configured.
func (c *cursorState) set() bool {
	return c.extent.Width > 0 && c.extent.Height > 0
}

// drawRect returns the destination rectangle for this draw. A rectangle
// with zero extent falls back to the bitmap's native size.
func (c *cursorState) drawRect() Rect {
	r := c.rect
	if r.Extent.Width == 0 || r.Extent.Height == 0 {
		r.Extent = c.extent
	}
	return r
}

// needsLinear reports whether the cursor is drawn scaled, which selects
// linear filtering. An unscaled cursor samples with nearest filtering so
// the bitmap maps texel-for-pixel.
func (c *cursorState) needsLinear() bool {
	return c.drawRect().Extent != c.extent
}

// SetCursorTexture replaces the cursor overlay bitmap. Passing nil data
// clears the overlay; subsequent presents composite no cursor. The data
// must be tightly packed rows of the given format, carrying
// already-encoded (display-space) values in a non-sRGB format; sRGB
// formats are rejected with ErrUnsupportedFormat because the blend
// operates on encoded values.
//
// Safe to call concurrently with BeginPresent; the new bitmap is observed
// by the first present that begins after this call returns.
func (b *Blitter) SetCursorTexture(extent Extent2D, format gputypes.TextureFormat, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if data == nil {
		if b.cursor.tex.tex != nil {
			b.retireTextureLocked(b.cursor.tex)
			b.cursor.tex = ownedTexture{}
		}
		b.cursor = cursorState{rect: b.cursor.rect}
		Logger().Debug("cursor cleared")
		return nil
	}

	texel := texelSize(format)
	if texel == 0 {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
	need := uint64(extent.Width) * uint64(extent.Height) * uint64(texel)
	if need == 0 || uint64(len(data)) != need {
		return fmt.Errorf("%w: have %d bytes, want %d", ErrUploadSizeMismatch, len(data), need)
	}

	pending := make([]byte, len(data))
	copy(pending, data)
	b.cursor.extent = extent
	b.cursor.format = format
	b.cursor.pending = pending
	b.cursor.dirty = true
	Logger().Debug("cursor bitmap updated",
		"width", extent.Width, "height", extent.Height, "format", format)
	return nil
}

// SetCursorPos repositions or resizes the cursor overlay's destination
// rectangle. This is independent of the bitmap and records no GPU work.
func (b *Blitter) SetCursorPos(rect Rect) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cursor.rect = rect
}

// flushCursor records the deferred bitmap upload. Called under the
// blitter lock from BeginPresent. The texture is recreated when the
// extent or format changes; a content-only update reuses it.
func (b *Blitter) flushCursor(encoder hal.CommandEncoder) error {
	if !b.cursor.dirty {
		return nil
	}

	fresh := false
	if b.cursor.tex.tex == nil || b.cursor.extent != b.cursor.texCap || b.cursor.format != b.cursor.capFmt {
		if b.cursor.tex.tex != nil {
			b.retireTextureLocked(b.cursor.tex)
			b.cursor.tex = ownedTexture{}
		}
		tex, err := b.device.CreateTexture(&hal.TextureDescriptor{
			Label:         "blit_cursor",
			Size:          hal.Extent3D{Width: b.cursor.extent.Width, Height: b.cursor.extent.Height, DepthOrArrayLayers: 1},
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     gputypes.TextureDimension2D,
			Format:        b.cursor.format,
			Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("blit: create cursor texture: %w", err)
		}
		b.cursor.tex.tex = tex
		view, err := b.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
			Label: "blit_cursor_view",
		})
		if err != nil {
			return fmt.Errorf("blit: create cursor view: %w", err)
		}
		b.cursor.tex.view = view
		b.cursor.texCap = b.cursor.extent
		b.cursor.capFmt = b.cursor.format
		fresh = true
	}

	texel := texelSize(b.cursor.format)
	staging, err := b.uploadTexture(encoder, b.cursor.tex.tex, b.cursor.pending,
		b.cursor.extent.Width, b.cursor.extent.Height, texel, !fresh)
	if err != nil {
		return fmt.Errorf("blit: upload cursor bitmap: %w", err)
	}
	b.frame.staging = append(b.frame.staging, staging)
	// Kept until the draw is fully recorded; see abortPresent.
	b.frame.cursorRestore = b.cursor.pending
	b.cursor.pending = nil
	b.cursor.dirty = false
	return nil
}
