// Copyright 2024 The Inkmirror Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package imgproc

import (
	"fmt"

	"github.com/epdlab/inkmirror/pix"
)

// ColorSpace describes a quantization target for error diffusion: Levels
// output values spaced Step apart, starting at zero.
type ColorSpace struct {
	Step   int
	Levels int
}

// BWTarget quantizes to the two levels {0x00, 0xF0}.
var BWTarget = ColorSpace{Step: 0xF0, Levels: 2}

// Grey16Target quantizes to the sixteen levels {0x00, 0x10, ..., 0xF0}.
var Grey16Target = ColorSpace{Step: 0x10, Levels: 16}

// quantize maps an adjusted value to its output level and non-negative
// residual.
func (cs ColorSpace) quantize(v int) (out, residual int) {
	level := v / (cs.Step / 2) / 2
	if level > cs.Levels-1 {
		level = cs.Levels - 1
	}
	out = level * cs.Step
	residual = v - out
	if residual < 0 {
		residual = 0
	}
	return out, residual
}

// FloydSteinberg dithers src into a Mono8 buffer quantized to target. src
// may be BGRA32 (converted to gray per pixel) or Mono8. The optional pitch
// selects the output pitch; 0 means minimal.
//
// Diffusion errors are carried as integers scaled by 256 so that the classic
// 7/16, 3/16, 5/16, 1/16 weights stay exact: a residual r contributes
// 7*16*r to the right neighbour and so on, and accumulated error is divided
// by 256 when read back.
func FloydSteinberg(src *pix.Image, target ColorSpace, pitch int) *pix.Image {
	w, h := src.Width(), src.Height()
	if pitch == 0 {
		pitch = pix.MinPitch(pix.Mono8, w)
	}
	dst := pix.NewBufferPitch(pix.Mono8, w, h, pitch)

	var grayAt func(row []byte, x int) int
	switch src.Format() {
	case pix.BGRA32:
		grayAt = func(row []byte, x int) int { return int(grayBGRA(row[x*4:])) }
	case pix.Mono8:
		grayAt = func(row []byte, x int) int { return int(row[x]) }
	default:
		panic(fmt.Sprintf("imgproc: FloydSteinberg wants BGRA32 or Mono8, got %s", src.Format()))
	}

	// One slot of slack on each side so the x-1 and x+1 stores need no
	// bounds checks.
	cur := make([]int32, w+2)
	next := make([]int32, w+2)
	for y := 0; y < h; y++ {
		srow := src.Row(y)
		drow := dst.Row(y)
		for x := 0; x < w; x++ {
			v := grayAt(srow, x) + int(cur[x+1]/256)
			if v < 0 {
				v = 0
			} else if v > 255 {
				v = 255
			}
			out, residual := target.quantize(v)
			drow[x] = uint8(out)

			scaled := int32(residual * 16)
			cur[x+2] += 7 * scaled
			next[x] += 3 * scaled
			next[x+1] += 5 * scaled
			next[x+2] += 1 * scaled
		}
		cur, next = next, cur
		for i := range next {
			next[i] = 0
		}
	}
	return dst
}
