// Copyright 2024 The Inkmirror Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// showimg displays a single PNG or JPEG on an IT8915 panel, scaled to the
// canvas.
package main

import (
	"flag"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"

	xdraw "golang.org/x/image/draw"

	"github.com/epdlab/inkmirror/imgproc"
	"github.com/epdlab/inkmirror/it8915"
	"github.com/epdlab/inkmirror/it8915/transport"
	"github.com/epdlab/inkmirror/pix"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	device := flag.String("device", "", "device spec: SCSI node path, USB \"bus,addr\", or empty for auto")
	path := flag.String("image", "", "PNG or JPEG file to display")
	modeName := flag.String("mode", "GC16", "display mode to refresh with")
	flag.Parse()
	if *path == "" {
		log.Fatal("showimg: -image is required")
	}

	mode, err := it8915.ParseDisplayMode(*modeName)
	if err != nil {
		log.Fatalf("showimg: %v", err)
	}

	f, err := os.Open(*path)
	if err != nil {
		log.Fatalf("showimg: %v", err)
	}
	src, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		log.Fatalf("showimg: decoding %s: %v", *path, err)
	}

	t, err := transport.Open(*device)
	if err != nil {
		log.Fatalf("showimg: %v", err)
	}
	dev, err := it8915.Open(t)
	if err != nil {
		t.Close()
		log.Fatalf("showimg: %v", err)
	}
	defer dev.Close()

	if err := dev.Reset(); err != nil {
		log.Fatalf("showimg: %v", err)
	}
	if err := show(dev, src, mode); err != nil {
		log.Fatalf("showimg: %v", err)
	}
}

func show(dev *it8915.Dev, src image.Image, mode it8915.DisplayMode) error {
	size := dev.ScreenSize()

	scaled := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	draw.Draw(scaled, scaled.Bounds(), image.White, image.Point{}, draw.Src)
	xdraw.CatmullRom.Scale(scaled, fitRect(src.Bounds(), size), src, src.Bounds(), xdraw.Over, nil)

	gray := pix.NewBuffer(pix.Mono8, size.X, size.Y)
	for y := 0; y < size.Y; y++ {
		row := gray.Row(y)
		for x := 0; x < size.X; x++ {
			o := scaled.PixOffset(x, y)
			row[x] = grayOf(scaled.Pix[o], scaled.Pix[o+1], scaled.Pix[o+2])
		}
	}
	dithered := imgproc.FloydSteinberg(gray, imgproc.Grey16Target, dev.MemPitch(it8915.Mem8bpp))
	if err := dev.LoadImageFullWidth(0, dithered); err != nil {
		return err
	}
	return dev.DisplayArea(image.Rectangle{Max: size}, mode, true)
}

func grayOf(r, g, b uint8) uint8 {
	v := 0.30*float32(r) + 0.59*float32(g) + 0.11*float32(b)
	if v > 255 {
		v = 255
	}
	return uint8(v)
}

// fitRect centers the source aspect ratio inside the canvas.
func fitRect(src image.Rectangle, canvas image.Point) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	w, h := canvas.X, canvas.Y
	if sw*h > sh*w {
		h = sh * w / sw
	} else {
		w = sw * h / sh
	}
	x := (canvas.X - w) / 2
	y := (canvas.Y - h) / 2
	return image.Rect(x, y, x+w, y+h)
}
