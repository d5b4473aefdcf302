// Copyright 2024 The Inkmirror Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// dithering renders an image through the monochrome pipeline and prints the
// result to the terminal. No panel is required; it exists to eyeball the
// dithering methods.
package main

import (
	"flag"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"

	"github.com/epdlab/inkmirror/imgproc"
	"github.com/epdlab/inkmirror/pix"
	"github.com/epdlab/inkmirror/termview"
)

func main() {
	path := flag.String("image", "", "PNG or JPEG file to dither")
	method := flag.String("method", "bayers4", "naive, bayers2, bayers4 or fs")
	width := flag.Int("width", 120, "output width in pixels")
	flag.Parse()
	if *path == "" {
		log.Fatal("dithering: -image is required")
	}

	f, err := os.Open(*path)
	if err != nil {
		log.Fatalf("dithering: %v", err)
	}
	decoded, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		log.Fatalf("dithering: decoding %s: %v", *path, err)
	}

	src := toBGRA(decoded, *width)
	view := termview.New(nil)
	defer view.Halt()

	if *method == "fs" {
		if err := view.Draw(imgproc.FloydSteinberg(src, imgproc.BWTarget, 0)); err != nil {
			log.Fatalf("dithering: %v", err)
		}
		return
	}

	var dm imgproc.DitheringMethod
	switch *method {
	case "naive":
		dm = imgproc.NoDithering
	case "bayers2":
		dm = imgproc.Bayers2
	case "bayers4":
		dm = imgproc.Bayers4
	default:
		log.Fatalf("dithering: unknown method %q", *method)
	}

	proc := imgproc.NewMonoProcessor(imgproc.MonoOptions{
		InputSize:   src.Size(),
		OutputSize:  src.Size(),
		OutputPitch: pix.MinPitch(pix.Mono1, src.Width()),
		Rotation:    imgproc.NoRotation,
	})
	mono := pix.NewBuffer(pix.Mono1, src.Width(), src.Height())
	proc.Process(src, mono, dm)
	if err := view.Draw(mono); err != nil {
		log.Fatalf("dithering: %v", err)
	}
}

// toBGRA scales the image down to the given width and repacks it into the
// pipeline's B,G,R,A byte order.
func toBGRA(src image.Image, width int) *pix.Image {
	b := src.Bounds()
	height := b.Dy() * width / b.Dx()
	if height < 1 {
		height = 1
	}
	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	// Nearest-neighbour is plenty for a terminal preview.
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sx := b.Min.X + x*b.Dx()/width
			sy := b.Min.Y + y*b.Dy()/height
			rgba.Set(x, y, src.At(sx, sy))
		}
	}

	out := pix.NewBuffer(pix.BGRA32, width, height)
	for y := 0; y < height; y++ {
		row := out.Row(y)
		for x := 0; x < width; x++ {
			o := rgba.PixOffset(x, y)
			row[x*4+0] = rgba.Pix[o+2]
			row[x*4+1] = rgba.Pix[o+1]
			row[x*4+2] = rgba.Pix[o+0]
			row[x*4+3] = rgba.Pix[o+3]
		}
	}
	return out
}
