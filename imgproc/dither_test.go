// Copyright 2024 The Inkmirror Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package imgproc

import (
	"testing"

	"github.com/epdlab/inkmirror/pix"
)

func TestQuantize(t *testing.T) {
	for _, tc := range []struct {
		cs       ColorSpace
		in       int
		wantOut  int
		wantRes  int
	}{
		{BWTarget, 0, 0, 0},
		{BWTarget, 119, 0, 119},
		{BWTarget, 240, 0xF0, 0},
		{BWTarget, 255, 0xF0, 15},
		{Grey16Target, 0, 0, 0},
		{Grey16Target, 7, 0, 7},
		{Grey16Target, 16, 0x10, 0},
		{Grey16Target, 250, 0xF0, 10},
		{Grey16Target, 255, 0xF0, 15},
	} {
		out, res := tc.cs.quantize(tc.in)
		if out != tc.wantOut || res != tc.wantRes {
			t.Errorf("quantize(%d) with step %#x = (%d, %d), want (%d, %d)",
				tc.in, tc.cs.Step, out, res, tc.wantOut, tc.wantRes)
		}
	}
}

func TestFloydSteinbergUniform(t *testing.T) {
	// A uniform input at an exact output level must come out unchanged:
	// every residual is zero.
	src := pix.NewBuffer(pix.Mono8, 16, 16)
	src.Fill(0x40)
	dst := FloydSteinberg(src, Grey16Target, 0)
	for y := 0; y < 16; y++ {
		for _, b := range dst.Row(y) {
			if b != 0x40 {
				t.Fatalf("output byte %#x, want 0x40", b)
			}
		}
	}
}

func TestFloydSteinbergLevels(t *testing.T) {
	src := pix.NewBuffer(pix.Mono8, 64, 64)
	for y := 0; y < 64; y++ {
		row := src.Row(y)
		for x := range row {
			row[x] = uint8((x*4 + y) % 256)
		}
	}
	dst := FloydSteinberg(src, Grey16Target, 0)
	for y := 0; y < 64; y++ {
		for x, b := range dst.Row(y) {
			if b%0x10 != 0 || b > 0xF0 {
				t.Fatalf("output (%d,%d) = %#x not a Grey16 level", x, y, b)
			}
		}
	}
}

// TestFloydSteinbergConservation checks that diffused error is neither
// created nor destroyed: the output sum stays within the worst-case
// boundary loss of the input sum. Errors pushed past the right and bottom
// edges are discarded, as is the residual above the top output level, so
// exact equality only holds in the interior.
func TestFloydSteinbergConservation(t *testing.T) {
	src := pix.NewBuffer(pix.Mono8, 32, 32)
	for y := 0; y < 32; y++ {
		row := src.Row(y)
		for x := range row {
			row[x] = uint8((x*37 + y*11) % 0xF1)
		}
	}
	var inSum, outSum int
	for y := 0; y < 32; y++ {
		for _, b := range src.Row(y) {
			inSum += int(b)
		}
	}
	dst := FloydSteinberg(src, Grey16Target, 0)
	for y := 0; y < 32; y++ {
		for _, b := range dst.Row(y) {
			outSum += int(b)
		}
	}
	// Each edge pixel can lose at most one quantization step of error; a
	// 32x32 image has 94 boundary pixels on the diffusion frontier.
	slack := (32*2 + 32) * Grey16Target.Step
	if diff := inSum - outSum; diff < -slack || diff > slack {
		t.Errorf("input sum %d vs output sum %d differs by %d, slack %d", inSum, outSum, diff, slack)
	}
}

func TestFloydSteinbergBGRAInput(t *testing.T) {
	src := pix.NewBuffer(pix.BGRA32, 8, 1)
	row := src.Row(0)
	for x := 0; x < 8; x++ {
		// Pure white pixels: gray 255 quantizes to 0xF0 everywhere.
		row[x*4+0] = 0xFF
		row[x*4+1] = 0xFF
		row[x*4+2] = 0xFF
	}
	dst := FloydSteinberg(src, Grey16Target, 0)
	for x, b := range dst.Row(0) {
		if b != 0xF0 {
			t.Errorf("pixel %d = %#x, want 0xf0", x, b)
		}
	}
}

func TestFloydSteinbergPitch(t *testing.T) {
	src := pix.NewBuffer(pix.Mono8, 10, 4)
	dst := FloydSteinberg(src, BWTarget, 16)
	if dst.Pitch() != 16 {
		t.Errorf("pitch = %d, want 16", dst.Pitch())
	}
}
