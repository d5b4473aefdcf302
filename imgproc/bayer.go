// Copyright 2024 The Inkmirror Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package imgproc

// Ordered-dither threshold matrices, all expressed as 4x4 tiles. A pixel
// becomes white iff its gray value is strictly above the threshold at
// (y mod 4, x mod 4).
var (
	bayer4Thresholds = [4][4]int{
		{0, 128, 32, 160},
		{192, 64, 224, 96},
		{48, 176, 16, 144},
		{240, 112, 208, 80},
	}
	bayer2Thresholds = [4][4]int{
		{0, 128, 0, 128},
		{192, 64, 192, 64},
		{0, 128, 0, 128},
		{192, 64, 192, 64},
	}
	flatThresholds = [4][4]int{
		{128, 128, 128, 128},
		{128, 128, 128, 128},
		{128, 128, 128, 128},
		{128, 128, 128, 128},
	}
)

// Thresholds returns the 4x4 threshold tile for the method.
func (d DitheringMethod) Thresholds() [4][4]int {
	switch d {
	case Bayers2:
		return bayer2Thresholds
	case Bayers4:
		return bayer4Thresholds
	}
	return flatThresholds
}
