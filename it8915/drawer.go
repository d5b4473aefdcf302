// Copyright 2024 The Inkmirror Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package it8915

import (
	"fmt"
	"image"
	"image/color"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"

	"github.com/epdlab/inkmirror/imgproc"
	"github.com/epdlab/inkmirror/pix"
)

var _ display.Drawer = (*Dev)(nil)
var _ conn.Resource = (*Dev)(nil)

// ColorModel implements display.Drawer. The panel renders 16 gray levels.
func (d *Dev) ColorModel() color.Model {
	return color.GrayModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rectangle{Max: d.ScreenSize()}
}

// Draw implements display.Drawer: the source region is converted to 16-level
// gray with error diffusion, uploaded, and refreshed with GC16. The memory
// must be in 8-bpp mode. The refreshed region is widened to the 32-pixel
// alignment the display engine requires.
func (d *Dev) Draw(dstRect image.Rectangle, src image.Image, srcPts image.Point) error {
	if d.memMode != Mem8bpp {
		return fmt.Errorf("it8915: Draw requires 8-bpp memory mode")
	}
	dstRect = dstRect.Intersect(d.Bounds())
	if dstRect.Empty() {
		return nil
	}

	gray := pix.NewBuffer(pix.Mono8, dstRect.Dx(), dstRect.Dy())
	for y := 0; y < dstRect.Dy(); y++ {
		row := gray.Row(y)
		for x := 0; x < dstRect.Dx(); x++ {
			c := color.GrayModel.Convert(src.At(srcPts.X+x, srcPts.Y+y)).(color.Gray)
			row[x] = c.Y
		}
	}
	dithered := imgproc.FloydSteinberg(gray, imgproc.Grey16Target, 0)
	if err := d.LoadImageArea(dstRect.Min, dithered); err != nil {
		return err
	}
	return d.DisplayArea(alignDisplayRect(dstRect, d.ScreenSize()), GC16, true)
}

// alignDisplayRect widens r horizontally to the 32-pixel grid, clamped to
// the canvas.
func alignDisplayRect(r image.Rectangle, canvas image.Point) image.Rectangle {
	r.Min.X &^= 31
	r.Max.X = (r.Max.X + 31) &^ 31
	if r.Max.X > canvas.X {
		r.Max.X = canvas.X
	}
	// A clamped right edge may leave the width unaligned; fall back to the
	// full canvas width, which the display engine accepts.
	if r.Dx()%32 != 0 {
		r.Min.X = 0
		r.Max.X = canvas.X
	}
	return r
}
