// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package blit

import (
	"sync"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

func testKey() PipelineKey {
	return PipelineKey{
		SrcSpace:   ColorSpaceSrgb,
		SrcSamples: 1,
		DstSpace:   ColorSpaceSrgb,
		DstFormat:  gputypes.TextureFormatBGRA8Unorm,
	}
}

func TestPipelineKeyDeterminism(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	b, err := NewBlitter(device, queue)
	if err != nil {
		t.Fatalf("NewBlitter failed: %v", err)
	}
	defer b.Destroy()

	key := testKey()
	first, err := b.getOrCreatePipeline(key)
	if err != nil {
		t.Fatalf("getOrCreatePipeline failed: %v", err)
	}
	second, err := b.getOrCreatePipeline(key)
	if err != nil {
		t.Fatalf("getOrCreatePipeline failed: %v", err)
	}
	if first != second {
		t.Error("equal keys returned different pipeline handles")
	}

	other := key
	other.NeedsGamma = true
	third, err := b.getOrCreatePipeline(other)
	if err != nil {
		t.Fatalf("getOrCreatePipeline failed: %v", err)
	}
	if third == first {
		t.Error("differing keys returned the same pipeline handle")
	}

	if n := b.PipelineCount(); n != 2 {
		t.Errorf("PipelineCount = %d, want 2", n)
	}
	hits, misses := b.Stats()
	if hits != 1 || misses != 2 {
		t.Errorf("Stats = (%d hits, %d misses), want (1, 2)", hits, misses)
	}
}

func TestPipelineAtMostOneCreation(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	b, err := NewBlitter(device, queue)
	if err != nil {
		t.Fatalf("NewBlitter failed: %v", err)
	}
	defer b.Destroy()

	const n = 16
	key := testKey()
	results := make([]hal.RenderPipeline, n)
	errs := make([]error, n)
	start := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], errs[i] = b.getOrCreatePipeline(key)
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("goroutine %d: %v", i, errs[i])
		}
		if results[i] != results[0] {
			t.Fatalf("goroutine %d observed a different pipeline handle", i)
		}
	}
	_, misses := b.Stats()
	if misses != 1 {
		t.Errorf("misses = %d for %d concurrent first requests, want 1", misses, n)
	}
	if n := b.PipelineCount(); n != 1 {
		t.Errorf("PipelineCount = %d, want 1", n)
	}
}

func TestHitRate(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	b, err := NewBlitter(device, queue)
	if err != nil {
		t.Fatalf("NewBlitter failed: %v", err)
	}
	defer b.Destroy()

	if rate := b.HitRate(); rate != 0.0 {
		t.Errorf("HitRate = %v before any request, want 0", rate)
	}

	key := testKey()
	for i := 0; i < 4; i++ {
		if _, err := b.getOrCreatePipeline(key); err != nil {
			t.Fatalf("getOrCreatePipeline failed: %v", err)
		}
	}
	if rate := b.HitRate(); rate != 0.75 {
		t.Errorf("HitRate = %v after 1 miss and 3 hits, want 0.75", rate)
	}
}

func TestPipelineSPIRVMode(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	b, err := NewBlitterConfig(device, queue, Config{CompileSPIRV: true})
	if err != nil {
		t.Fatalf("NewBlitterConfig failed: %v", err)
	}
	defer b.Destroy()

	// Each variant runs the assembled WGSL through naga, so a compile
	// error in any shared source fails here.
	p, err := b.getOrCreatePipeline(testKey())
	if err != nil {
		t.Fatalf("getOrCreatePipeline (SPIR-V) failed: %v", err)
	}
	if p == nil {
		t.Fatal("nil pipeline from SPIR-V mode")
	}

	msKey := testKey()
	msKey.SrcSamples = 4
	msKey.NeedsBlit = true
	msKey.NeedsGamma = true
	if _, err := b.getOrCreatePipeline(msKey); err != nil {
		t.Fatalf("getOrCreatePipeline (SPIR-V, multisample) failed: %v", err)
	}
	if n := b.PipelineCount(); n != 2 {
		t.Errorf("PipelineCount = %d, want 2", n)
	}
}
