// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package blit

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ErrUploadSizeMismatch reports pixel data whose length does not match the
// extent and texel size it was declared with. This is a caller contract
// violation, not a recoverable condition.
var ErrUploadSizeMismatch = errors.New("blit: upload data size mismatch")

// WebGPU (and DX12) require BytesPerRow aligned to 256 bytes for
// buffer/texture copies.
const copyPitchAlignment = 256

// uploadTexture stages tightly packed pixel data through a transient buffer
// and records a buffer-to-texture copy plus the barrier that makes the
// texture sampleable. reupload must be set when the texture was previously
// sampled, so it is first transitioned back to a copy destination.
//
// The returned staging buffer must outlive the recorded commands; the
// caller retires it after submission.
func (b *Blitter) uploadTexture(encoder hal.CommandEncoder, tex hal.Texture, data []byte, width, height, texel uint32, reupload bool) (hal.Buffer, error) {
	rowBytes := width * texel
	need := uint64(rowBytes) * uint64(height)
	if uint64(len(data)) != need {
		return nil, fmt.Errorf("%w: have %d bytes, want %d", ErrUploadSizeMismatch, len(data), need)
	}

	alignedRowBytes := (rowBytes + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	staged := data
	if alignedRowBytes != rowBytes {
		staged = make([]byte, uint64(alignedRowBytes)*uint64(height))
		for row := uint32(0); row < height; row++ {
			copy(staged[row*alignedRowBytes:], data[row*rowBytes:(row+1)*rowBytes])
		}
	}

	staging, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "blit_upload_staging",
		Size:  uint64(len(staged)),
		Usage: gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("blit: create staging buffer: %w", err)
	}
	b.queue.WriteBuffer(staging, 0, staged)

	if reupload {
		encoder.TransitionTextures([]hal.TextureBarrier{{
			Texture: tex,
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageTextureBinding,
				NewUsage: gputypes.TextureUsageCopyDst,
			},
		}})
	}
	encoder.CopyBufferToTexture(staging, tex, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedRowBytes, RowsPerImage: height},
		TextureBase:  hal.ImageCopyTexture{Texture: tex, MipLevel: 0},
		Size:         hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopyDst,
			NewUsage: gputypes.TextureUsageTextureBinding,
		},
	}})
	return staging, nil
}
