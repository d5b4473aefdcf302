// Copyright 2024 The Inkmirror Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package imgproc

import (
	"fmt"

	"github.com/epdlab/inkmirror/pix"
)

// RepackMono converts between the two monochrome encodings. The high bit of
// each source pixel is treated as ink; set pixels become all-ones in the
// destination (a single bit for Mono1, 0xFF for Mono8). dstPitch 0 selects
// the minimum pitch.
//
// Mono1 bits are ordered LSB first within each byte, matching the
// controller's 1-bpp image memory layout.
func RepackMono(src *pix.Image, dstFormat pix.Format, dstPitch int) *pix.Image {
	if src.Format() != pix.Mono1 && src.Format() != pix.Mono8 {
		panic(fmt.Sprintf("imgproc: repack source must be monochrome, got %s", src.Format()))
	}
	if dstFormat != pix.Mono1 && dstFormat != pix.Mono8 {
		panic(fmt.Sprintf("imgproc: repack destination must be monochrome, got %s", dstFormat))
	}
	w, h := src.Width(), src.Height()
	if dstPitch == 0 {
		dstPitch = pix.MinPitch(dstFormat, w)
	}
	dst := pix.NewBufferPitch(dstFormat, w, h, dstPitch)
	for y := 0; y < h; y++ {
		srow := src.Row(y)
		drow := dst.Row(y)
		for x := 0; x < w; x++ {
			var ink bool
			if src.Format() == pix.Mono1 {
				ink = srow[x/8]&(1<<(x%8)) != 0
			} else {
				ink = srow[x]&0x80 != 0
			}
			if !ink {
				continue
			}
			if dstFormat == pix.Mono1 {
				drow[x/8] |= 1 << (x % 8)
			} else {
				drow[x] = 0xFF
			}
		}
	}
	return dst
}
