// Copyright 2024 The Inkmirror Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// inkclock renders a clock on an IT8915 panel. It demonstrates driving the
// controller directly through the display.Drawer interface instead of the
// mirror scheduler.
package main

import (
	"flag"
	"image"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/epdlab/inkmirror/it8915"
	"github.com/epdlab/inkmirror/it8915/transport"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	device := flag.String("device", "", "device spec: SCSI node path, USB \"bus,addr\", or empty for auto")
	vcom := flag.Uint("vcom", 0, "panel VCOM in millivolts, 0 to leave unset")
	flag.Parse()

	t, err := transport.Open(*device)
	if err != nil {
		log.Fatalf("inkclock: %v", err)
	}
	dev, err := it8915.Open(t)
	if err != nil {
		t.Close()
		log.Fatalf("inkclock: %v", err)
	}
	defer dev.Close()

	power := true
	var mv *uint16
	if *vcom != 0 {
		v := uint16(*vcom)
		mv = &v
	}
	if err := dev.PMICControl(mv, &power); err != nil {
		log.Fatalf("inkclock: %v", err)
	}
	if err := dev.Reset(); err != nil {
		log.Fatalf("inkclock: %v", err)
	}

	ttf, err := truetype.Parse(goregular.TTF)
	if err != nil {
		log.Fatalf("inkclock: parsing font: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		if err := drawClock(dev, ttf, time.Now()); err != nil {
			log.Fatalf("inkclock: %v", err)
		}
		select {
		case <-stop:
			if err := dev.Reset(); err != nil {
				log.Printf("inkclock: reset: %v", err)
			}
			return
		case <-ticker.C:
		}
	}
}

func drawClock(dev *it8915.Dev, ttf *truetype.Font, now time.Time) error {
	size := dev.ScreenSize()
	dc := gg.NewContext(size.X, size.Y)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0, 0, 0)

	cx, cy := float64(size.X)/2, float64(size.Y)/2
	r := cx
	if cy < r {
		r = cy
	}
	r *= 0.9

	// Face with hour ticks.
	dc.SetLineWidth(3)
	dc.DrawCircle(cx, cy, r)
	dc.Stroke()
	for h := 0; h < 12; h++ {
		a := gg.Radians(float64(h) * 30)
		dc.DrawLine(cx+0.92*r*sin(a), cy-0.92*r*cos(a), cx+r*sin(a), cy-r*cos(a))
		dc.Stroke()
	}

	// Hands.
	hour := float64(now.Hour()%12)*30 + float64(now.Minute())/2
	min := float64(now.Minute())*6 + float64(now.Second())/10
	sec := float64(now.Second()) * 6
	hand(dc, cx, cy, 0.5*r, hour, 6)
	hand(dc, cx, cy, 0.75*r, min, 4)
	hand(dc, cx, cy, 0.85*r, sec, 1)

	face := truetype.NewFace(ttf, &truetype.Options{Size: float64(size.Y) / 12})
	dc.SetFontFace(face)
	dc.DrawStringAnchored(now.Format("15:04:05"), cx, cy+0.5*r, 0.5, 0.5)

	return dev.Draw(dev.Bounds(), dc.Image(), image.Point{})
}

func hand(dc *gg.Context, cx, cy, length, degrees, width float64) {
	a := gg.Radians(degrees)
	dc.SetLineWidth(width)
	dc.DrawLine(cx, cy, cx+length*sin(a), cy-length*cos(a))
	dc.Stroke()
}

func sin(a float64) float64 { return math.Sin(a) }
func cos(a float64) float64 { return math.Cos(a) }
