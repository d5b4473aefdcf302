// Copyright 2024 The Inkmirror Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package imgproc

import (
	"fmt"
	"image"

	"github.com/epdlab/inkmirror/pix"
)

// Rotation is a quarter-turn screen rotation.
type Rotation int

const (
	NoRotation Rotation = iota
	Rotate90
	Rotate180
	Rotate270
)

// ParseRotation maps a CLI token to a Rotation.
func ParseRotation(s string) (Rotation, error) {
	switch s {
	case "no-rotation", "":
		return NoRotation, nil
	case "rotate90":
		return Rotate90, nil
	case "rotate180":
		return Rotate180, nil
	case "rotate270":
		return Rotate270, nil
	}
	return NoRotation, fmt.Errorf("imgproc: unknown rotation %q", s)
}

func (r Rotation) String() string {
	switch r {
	case NoRotation:
		return "no-rotation"
	case Rotate90:
		return "rotate90"
	case Rotate180:
		return "rotate180"
	case Rotate270:
		return "rotate270"
	}
	return fmt.Sprintf("Rotation(%d)", int(r))
}

// RotatedSize returns the post-rotation dimensions of size.
func (r Rotation) RotatedSize(size image.Point) image.Point {
	switch r {
	case Rotate90, Rotate270:
		return image.Pt(size.Y, size.X)
	}
	return size
}

// sourcePixel maps an output coordinate back to its input coordinate for an
// input of the given size.
func (r Rotation) sourcePixel(x, y int, in image.Point) (int, int) {
	switch r {
	case Rotate90:
		return y, in.Y - 1 - x
	case Rotate180:
		return in.X - 1 - x, in.Y - 1 - y
	case Rotate270:
		return in.X - 1 - y, x
	}
	return x, y
}

// Rotate returns a new buffer holding src rotated by r. Only byte-aligned
// formats are supported; no resampling is performed.
func Rotate(src *pix.Image, r Rotation) *pix.Image {
	bpp := src.Format().BPP()
	if bpp%8 != 0 {
		panic(fmt.Sprintf("imgproc: cannot rotate sub-byte format %s", src.Format()))
	}
	bytesPP := bpp / 8
	outSize := r.RotatedSize(src.Size())
	dst := pix.NewBuffer(src.Format(), outSize.X, outSize.Y)
	for y := 0; y < outSize.Y; y++ {
		drow := dst.Row(y)
		for x := 0; x < outSize.X; x++ {
			sx, sy := r.sourcePixel(x, y, src.Size())
			copy(drow[x*bytesPP:(x+1)*bytesPP], src.Row(sy)[sx*bytesPP:])
		}
	}
	return dst
}
