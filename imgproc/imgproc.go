// Copyright 2024 The Inkmirror Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package imgproc converts captured frames into the panel's native pixel
// encodings: color to gray, error-diffusion and ordered dithering, rotation
// and monochrome bit packing.
package imgproc

import (
	"fmt"

	"github.com/epdlab/inkmirror/pix"
)

// DitheringMethod selects the ordered-dither pattern for monochrome output.
type DitheringMethod int

const (
	// NoDithering thresholds every pixel at 128.
	NoDithering DitheringMethod = iota
	// Bayers2 uses a 2x2 Bayer matrix tiled to 4x4.
	Bayers2
	// Bayers4 uses the full 4x4 Bayer matrix.
	Bayers4
)

func (d DitheringMethod) String() string {
	switch d {
	case NoDithering:
		return "naive"
	case Bayers2:
		return "bayers2"
	case Bayers4:
		return "bayers4"
	}
	return fmt.Sprintf("DitheringMethod(%d)", int(d))
}

// grayBGRA converts one B,G,R,A quad to its luminosity.
func grayBGRA(p []byte) uint8 {
	v := 0.30*float32(p[2]) + 0.59*float32(p[1]) + 0.11*float32(p[0])
	if v > 255 {
		v = 255
	}
	return uint8(v)
}

// ToGray converts a BGRA32 image to a Mono8 buffer using luminosity weights
// 0.30 R + 0.59 G + 0.11 B. The alpha channel is ignored.
func ToGray(src *pix.Image) *pix.Image {
	if src.Format() != pix.BGRA32 {
		panic(fmt.Sprintf("imgproc: ToGray wants BGRA32, got %s", src.Format()))
	}
	dst := pix.NewBuffer(pix.Mono8, src.Width(), src.Height())
	for y := 0; y < src.Height(); y++ {
		srow := src.Row(y)
		drow := dst.Row(y)
		for x := 0; x < src.Width(); x++ {
			drow[x] = grayBGRA(srow[x*4:])
		}
	}
	return dst
}
