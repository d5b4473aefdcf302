// Copyright 2024 The Inkmirror Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package imgproc

import (
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/epdlab/inkmirror/pix"
)

// setBGRA writes one pixel in B,G,R,A order.
func setBGRA(img *pix.Image, x, y int, b, g, r uint8) {
	row := img.Row(y)
	row[x*4+0] = b
	row[x*4+1] = g
	row[x*4+2] = r
	row[x*4+3] = 0xFF
}

func TestMonoProcessorBayer4Alternating(t *testing.T) {
	// A 32x1 strip of alternating full-bright and black pixels against the
	// Bayer4 threshold row {0,128,32,160,...}: bright pixels (gray 255)
	// exceed every threshold, black pixels (gray 0) exceed none, giving
	// 0b01010101 in every output byte.
	src := pix.NewBuffer(pix.BGRA32, 32, 1)
	for x := 0; x < 32; x += 2 {
		setBGRA(src, x, 0, 0xFF, 0xFF, 0xFF)
	}

	proc := NewMonoProcessor(MonoOptions{
		InputSize:   image.Pt(32, 1),
		OutputSize:  image.Pt(32, 1),
		OutputPitch: 4,
		Rotation:    NoRotation,
	})
	dst := pix.NewBuffer(pix.Mono1, 32, 1)
	proc.Process(src, dst, Bayers4)

	want := []byte{0b01010101, 0b01010101, 0b01010101, 0b01010101}
	if diff := cmp.Diff(want, dst.Row(0)); diff != "" {
		t.Errorf("Bayer4 output (-want +got):\n%s", diff)
	}
}

func TestMonoProcessorThresholdEdge(t *testing.T) {
	// Threshold comparison is strict: gray equal to the threshold stays
	// black. At (0,0) the Bayer4 threshold is 0, so gray 0 is black and
	// gray 1 is white.
	for _, tc := range []struct {
		gray uint8
		want byte
	}{
		{0, 0},
		{1, 1},
	} {
		src := pix.NewBuffer(pix.BGRA32, 8, 1)
		setBGRA(src, 0, 0, tc.gray, tc.gray, tc.gray)
		proc := NewMonoProcessor(MonoOptions{
			InputSize:   image.Pt(8, 1),
			OutputSize:  image.Pt(8, 1),
			OutputPitch: 1,
			Rotation:    NoRotation,
		})
		dst := pix.NewBuffer(pix.Mono1, 8, 1)
		proc.Process(src, dst, Bayers4)
		if got := dst.Row(0)[0] & 1; got != tc.want {
			t.Errorf("gray %d: bit = %d, want %d", tc.gray, got, tc.want)
		}
	}
}

func TestMonoProcessorRotation(t *testing.T) {
	// A single bright pixel at (2,0) of a 4x2 frame lands at (1,2) after a
	// 90 degree rotation to the 2x4 panel.
	src := pix.NewBuffer(pix.BGRA32, 4, 2)
	setBGRA(src, 2, 0, 0xFF, 0xFF, 0xFF)

	proc := NewMonoProcessor(MonoOptions{
		InputSize:   image.Pt(4, 2),
		OutputSize:  image.Pt(2, 4),
		OutputPitch: 1,
		Rotation:    Rotate90,
	})
	dst := pix.NewBuffer(pix.Mono1, 2, 4)
	proc.Process(src, dst, NoDithering)

	for y := 0; y < 4; y++ {
		for x := 0; x < 2; x++ {
			want := byte(0)
			if x == 1 && y == 2 {
				want = 1
			}
			if got := (dst.Row(y)[0] >> x) & 1; got != want {
				t.Errorf("bit (%d,%d) = %d, want %d", x, y, got, want)
			}
		}
	}
}

func TestMonoProcessorSizeMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("no panic for mismatched rotated size")
		}
	}()
	NewMonoProcessor(MonoOptions{
		InputSize:   image.Pt(4, 2),
		OutputSize:  image.Pt(4, 2),
		OutputPitch: 1,
		Rotation:    Rotate90,
	})
}

func TestGrayWeights(t *testing.T) {
	for _, tc := range []struct {
		b, g, r uint8
		want    uint8
	}{
		{0, 0, 0, 0},
		{255, 255, 255, 255}, // weights sum to 1
		{0, 0, 255, 76},      // 0.30 * 255
		{0, 255, 0, 150},     // 0.59 * 255
		{255, 0, 0, 28},      // 0.11 * 255
	} {
		src := pix.NewBuffer(pix.BGRA32, 1, 1)
		setBGRA(src, 0, 0, tc.b, tc.g, tc.r)
		gray := ToGray(src)
		got := gray.Row(0)[0]
		// Truncation of the float sum may land one below the exact value.
		if got != tc.want && got+1 != tc.want {
			t.Errorf("gray(b=%d,g=%d,r=%d) = %d, want %d", tc.b, tc.g, tc.r, got, tc.want)
		}
	}
}
