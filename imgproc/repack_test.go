// Copyright 2024 The Inkmirror Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package imgproc

import (
	"bytes"
	"testing"

	"github.com/epdlab/inkmirror/pix"
)

func TestRepackMonoExpand(t *testing.T) {
	src := pix.NewBuffer(pix.Mono1, 8, 1)
	src.Row(0)[0] = 0b00000101

	dst := RepackMono(src, pix.Mono8, 0)
	want := []byte{0xFF, 0x00, 0xFF, 0x00, 0x00, 0x00, 0x00, 0x00}
	if !bytes.Equal(dst.Row(0), want) {
		t.Errorf("expanded row = %v, want %v", dst.Row(0), want)
	}
}

func TestRepackMonoPack(t *testing.T) {
	src := pix.NewBuffer(pix.Mono8, 10, 2)
	src.Row(0)[0] = 0xFF
	src.Row(0)[9] = 0x80 // high bit is enough to count as ink
	src.Row(1)[3] = 0x7F // high bit clear stays paper

	dst := RepackMono(src, pix.Mono1, 0)
	if got := dst.Row(0)[0]; got != 0x01 {
		t.Errorf("row 0 byte 0 = %#x, want 0x01", got)
	}
	if got := dst.Row(0)[1]; got != 0x02 {
		t.Errorf("row 0 byte 1 = %#x, want 0x02", got)
	}
	if got := dst.Row(1)[0]; got != 0 {
		t.Errorf("row 1 byte 0 = %#x, want 0", got)
	}
}

func TestRepackMonoRoundTrip(t *testing.T) {
	// pack(unpack(x)) must be the identity for any 1-bpp image.
	src := pix.NewBuffer(pix.Mono1, 24, 5)
	seed := uint32(7)
	for y := 0; y < 5; y++ {
		row := src.Row(y)
		for x := range row {
			seed = seed*1664525 + 1013904223
			row[x] = uint8(seed >> 24)
		}
	}
	back := RepackMono(RepackMono(src, pix.Mono8, 0), pix.Mono1, 0)
	for y := 0; y < 5; y++ {
		if !bytes.Equal(back.Row(y), src.Row(y)) {
			t.Fatalf("row %d: %v != %v", y, back.Row(y), src.Row(y))
		}
	}

	// And unpack(pack(x)) for any 8-bpp image using only 0x00/0xFF.
	bw := pix.NewBuffer(pix.Mono8, 17, 3)
	for y := 0; y < 3; y++ {
		row := bw.Row(y)
		for x := range row {
			if (x+y)%3 == 0 {
				row[x] = 0xFF
			}
		}
	}
	back8 := RepackMono(RepackMono(bw, pix.Mono1, 0), pix.Mono8, 0)
	for y := 0; y < 3; y++ {
		if !bytes.Equal(back8.Row(y), bw.Row(y)) {
			t.Fatalf("8bpp row %d: %v != %v", y, back8.Row(y), bw.Row(y))
		}
	}
}

func TestRepackMonoPitch(t *testing.T) {
	src := pix.NewBuffer(pix.Mono1, 8, 1)
	dst := RepackMono(src, pix.Mono8, 12)
	if dst.Pitch() != 12 {
		t.Errorf("pitch = %d, want 12", dst.Pitch())
	}
}
