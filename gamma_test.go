// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package blit

import (
	"testing"

	"github.com/gogpu/wgpu/hal"
)

func TestFloat16Bits(t *testing.T) {
	tests := []struct {
		in   float32
		want uint16
	}{
		{0.0, 0x0000},
		{1.0, 0x3c00},
		{0.5, 0x3800},
		{2.0, 0x4000},
		{-1.0, 0xbc00},
		{65504.0, 0x7bff}, // largest finite half
	}
	for _, tt := range tests {
		if got := float16Bits(tt.in); got != tt.want {
			t.Errorf("float16Bits(%v) = %#04x, want %#04x", tt.in, got, tt.want)
		}
	}
}

func TestFloat16FromUnorm16(t *testing.T) {
	if got := float16FromUnorm16(0); got != 0 {
		t.Errorf("float16FromUnorm16(0) = %#04x, want 0", got)
	}
	if got := float16FromUnorm16(0xFFFF); got != 0x3c00 {
		t.Errorf("float16FromUnorm16(0xFFFF) = %#04x, want 0x3c00 (1.0)", got)
	}
	// Midpoint lands close to 0.5.
	mid := float16FromUnorm16(0x8000)
	if mid < 0x3800 || mid > 0x3802 {
		t.Errorf("float16FromUnorm16(0x8000) = %#04x, want ~0x3800", mid)
	}
}

func linearRamp(n int) []GammaControlPoint {
	points := make([]GammaControlPoint, n)
	for i := range points {
		v := uint16(uint64(i) * 0xFFFF / uint64(n-1))
		points[i] = GammaControlPoint{R: v, G: v, B: v, A: 0xFFFF}
	}
	return points
}

func TestSetGammaRampState(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	b, err := NewBlitter(device, queue)
	if err != nil {
		t.Fatalf("NewBlitter failed: %v", err)
	}
	defer b.Destroy()

	b.SetGammaRamp(linearRamp(256))
	if b.gamma.count != 256 {
		t.Errorf("count = %d, want 256", b.gamma.count)
	}
	if !b.gamma.dirty {
		t.Error("ramp not marked dirty after SetGammaRamp")
	}
	if len(b.gamma.pending) != 256*gammaTexelSize {
		t.Errorf("pending = %d bytes, want %d", len(b.gamma.pending), 256*gammaTexelSize)
	}

	// Disable round-trip.
	b.SetGammaRamp(nil)
	if b.gamma.count != 0 {
		t.Errorf("count = %d after disable, want 0", b.gamma.count)
	}
	if b.gamma.dirty {
		t.Error("ramp still dirty after disable")
	}
	if b.gamma.pending != nil {
		t.Error("pending data kept after disable")
	}
}

// flushRamp records the deferred upload the way BeginPresent does.
func flushRamp(t *testing.T, b *Blitter, encoder hal.CommandEncoder) {
	t.Helper()
	b.mu.Lock()
	err := b.flushGamma(encoder)
	b.mu.Unlock()
	if err != nil {
		t.Fatalf("flushGamma failed: %v", err)
	}
}

func TestGammaFlushReusesAllocation(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	b, err := NewBlitter(device, queue)
	if err != nil {
		t.Fatalf("NewBlitter failed: %v", err)
	}
	defer b.Destroy()

	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "test_encoder"})
	if err != nil {
		t.Fatalf("CreateCommandEncoder failed: %v", err)
	}
	if err := encoder.BeginEncoding("gamma_flush"); err != nil {
		t.Fatalf("BeginEncoding failed: %v", err)
	}
	defer encoder.DiscardEncoding()

	b.SetGammaRamp(linearRamp(256))
	flushRamp(t, b, encoder)
	first := b.gamma.lut.tex
	if first == nil {
		t.Fatal("no lookup texture after flush")
	}
	if b.gamma.capacity != 256 {
		t.Errorf("capacity = %d, want 256", b.gamma.capacity)
	}
	if b.gamma.dirty {
		t.Error("ramp still dirty after flush")
	}

	// A smaller ramp fits the existing allocation.
	b.SetGammaRamp(linearRamp(64))
	flushRamp(t, b, encoder)
	if b.gamma.lut.tex != first {
		t.Error("lookup texture reallocated for a smaller ramp")
	}
	if b.gamma.count != 64 {
		t.Errorf("count = %d, want 64", b.gamma.count)
	}

	// A larger ramp forces a new allocation; the old one is retired.
	b.SetGammaRamp(linearRamp(1024))
	flushRamp(t, b, encoder)
	if b.gamma.lut.tex == first {
		t.Error("lookup texture not reallocated for a larger ramp")
	}
	if b.gamma.capacity != 1024 {
		t.Errorf("capacity = %d, want 1024", b.gamma.capacity)
	}
	if len(b.retired.textures) == 0 {
		t.Error("replaced lookup texture was not retired")
	}
}

func TestGammaIdempotence(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	b, err := NewBlitter(device, queue)
	if err != nil {
		t.Fatalf("NewBlitter failed: %v", err)
	}
	defer b.Destroy()

	ramp := linearRamp(256)
	b.SetGammaRamp(ramp)
	first := make([]byte, len(b.gamma.pending))
	copy(first, b.gamma.pending)

	b.SetGammaRamp(ramp)
	if len(b.gamma.pending) != len(first) {
		t.Fatalf("pending length changed: %d vs %d", len(b.gamma.pending), len(first))
	}
	for i := range first {
		if b.gamma.pending[i] != first[i] {
			t.Fatalf("pending data differs at byte %d for identical input", i)
		}
	}
}
