// Copyright 2024 The Inkmirror Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package imgproc

import (
	"fmt"
	"image"

	"github.com/epdlab/inkmirror/pix"
)

// MonoOptions configures a monochrome pipeline instance. InputSize is the
// capture frame size; OutputSize must equal the rotated input size and match
// the panel canvas. OutputPitch is the 1-bpp device memory pitch.
type MonoOptions struct {
	InputSize   image.Point
	OutputSize  image.Point
	OutputPitch int
	Rotation    Rotation
}

// MonoProcessor fuses gray conversion, ordered dithering, rotation and 1-bpp
// packing. Implementations must produce byte-identical output for identical
// input; a GPU compute backend is a performance choice, not a behavioral one.
type MonoProcessor interface {
	// Process converts the BGRA32 src into the Mono1 dst.
	Process(src, dst *pix.Image, method DitheringMethod)
}

// NewMonoProcessor returns the CPU reference implementation.
func NewMonoProcessor(opts MonoOptions) MonoProcessor {
	if got := opts.Rotation.RotatedSize(opts.InputSize); got != opts.OutputSize {
		panic(fmt.Sprintf("imgproc: rotated input size %v does not match output size %v", got, opts.OutputSize))
	}
	if opts.OutputPitch < pix.MinPitch(pix.Mono1, opts.OutputSize.X) {
		panic(fmt.Sprintf("imgproc: output pitch %d too small for width %d", opts.OutputPitch, opts.OutputSize.X))
	}
	return &cpuMonoProcessor{opts: opts}
}

type cpuMonoProcessor struct {
	opts MonoOptions
}

func (p *cpuMonoProcessor) Process(src, dst *pix.Image, method DitheringMethod) {
	if src.Format() != pix.BGRA32 || src.Size() != p.opts.InputSize {
		panic(fmt.Sprintf("imgproc: bad mono pipeline input %s", src))
	}
	if dst.Format() != pix.Mono1 || dst.Size() != p.opts.OutputSize || dst.Pitch() < p.opts.OutputPitch {
		panic(fmt.Sprintf("imgproc: bad mono pipeline output %s", dst))
	}

	thresholds := method.Thresholds()
	in := p.opts.InputSize
	for y := 0; y < p.opts.OutputSize.Y; y++ {
		drow := dst.RowPadded(y)
		for i := range drow {
			drow[i] = 0
		}
		trow := thresholds[y%4]
		for x := 0; x < p.opts.OutputSize.X; x++ {
			sx, sy := p.opts.Rotation.sourcePixel(x, y, in)
			if int(grayBGRA(src.Row(sy)[sx*4:])) > trow[x%4] {
				drow[x/8] |= 1 << (x % 8)
			}
		}
	}
}
