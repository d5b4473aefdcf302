// Copyright 2024 The Inkmirror Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package capture

import (
	"errors"
	"image"
	"io"
	"testing"
	"time"

	"github.com/epdlab/inkmirror/pix"
)

func TestRawStream(t *testing.T) {
	size := image.Pt(4, 2)
	r, w := io.Pipe()
	src := NewRawStream(r, size)
	defer src.Close()

	if _, err := src.Frame(); !errors.Is(err, ErrNoFrame) {
		t.Fatalf("Frame before data = %v, want ErrNoFrame", err)
	}

	frame := make([]byte, 4*4*2)
	for i := range frame {
		frame[i] = byte(i)
	}
	go w.Write(frame)

	got := waitFrame(t, src)
	if got.Format() != pix.BGRA32 || got.Size() != size {
		t.Fatalf("frame = %s", got)
	}
	if got.Row(0)[0] != 0 || got.Row(1)[0] != 16 {
		t.Errorf("frame content mismatch: %v %v", got.Row(0), got.Row(1))
	}

	// A second frame replaces the first; until it arrives the previous
	// frame keeps being served.
	again, err := src.Frame()
	if err != nil || again.Row(0)[0] != 0 {
		t.Fatalf("cached frame = (%v, %v)", again, err)
	}
	second := make([]byte, 4*4*2)
	second[0] = 0x77
	go w.Write(second)
	for i := 0; i < 100; i++ {
		f, err := src.Frame()
		if err == nil && f.Row(0)[0] == 0x77 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Error("second frame never arrived")
}

func waitFrame(t *testing.T, src Source) *pix.Image {
	t.Helper()
	for i := 0; i < 100; i++ {
		f, err := src.Frame()
		if err == nil {
			return f
		}
		if !errors.Is(err, ErrNoFrame) {
			t.Fatalf("Frame: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("no frame arrived")
	return nil
}

func TestRawStreamEOF(t *testing.T) {
	r, w := io.Pipe()
	src := NewRawStream(r, image.Pt(2, 2))
	defer src.Close()
	w.Close()

	for i := 0; i < 100; i++ {
		_, err := src.Frame()
		if err != nil && !errors.Is(err, ErrNoFrame) {
			return // stream error surfaced
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Error("EOF never surfaced")
}

func TestBufferSource(t *testing.T) {
	b := NewBuffer(image.Pt(4, 4))
	if _, err := b.Frame(); !errors.Is(err, ErrNoFrame) {
		t.Fatalf("Frame before set = %v, want ErrNoFrame", err)
	}

	img := pix.NewBuffer(pix.BGRA32, 4, 4)
	img.Row(2)[0] = 0x55
	b.SetFrame(img)

	f, err := b.Frame()
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if f.Row(2)[0] != 0x55 {
		t.Error("frame content not copied")
	}
}

func TestCrop(t *testing.T) {
	b := NewBuffer(image.Pt(8, 8))
	img := pix.NewBuffer(pix.BGRA32, 8, 8)
	img.Row(3)[2*4] = 0xAA // pixel (2,3)
	b.SetFrame(img)

	c, err := Crop(b, image.Pt(2, 3), image.Pt(4, 4))
	if err != nil {
		t.Fatalf("Crop: %v", err)
	}
	if c.Size() != image.Pt(4, 4) {
		t.Errorf("cropped size = %v", c.Size())
	}
	f, err := c.Frame()
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if f.Row(0)[0] != 0xAA {
		t.Error("crop origin pixel mismatch")
	}

	if _, err := Crop(b, image.Pt(6, 6), image.Pt(4, 4)); err == nil {
		t.Error("out-of-bounds crop accepted")
	}
}

func TestCropFullIsPassThrough(t *testing.T) {
	b := NewBuffer(image.Pt(8, 8))
	c, err := Crop(b, image.Point{}, image.Pt(8, 8))
	if err != nil {
		t.Fatalf("Crop: %v", err)
	}
	if c != Source(b) {
		t.Error("full-size crop should return the source unchanged")
	}
}

func TestNewUnknownScheme(t *testing.T) {
	if _, err := New("quartz:0", image.Pt(8, 8), image.Point{}); err == nil {
		t.Error("unknown scheme accepted")
	}
}
