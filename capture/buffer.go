// Copyright 2024 The Inkmirror Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package capture

import (
	"image"
	"image/draw"
	"sync"

	"github.com/epdlab/inkmirror/pix"
)

// Buffer is an in-process source: a program draws into it and the scheduler
// pulls frames out. It backs the demo binaries and tests.
type Buffer struct {
	mu    sync.Mutex
	frame *pix.Image
	started bool
}

// NewBuffer returns a Buffer producing frames of the given size, initially
// empty.
func NewBuffer(size image.Point) *Buffer {
	return &Buffer{frame: pix.NewBuffer(pix.BGRA32, size.X, size.Y)}
}

// SetFrame replaces the current frame content with a BGRA32 image of the
// buffer's size.
func (b *Buffer) SetFrame(img *pix.Image) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frame.CopyFrom(img)
	b.started = true
}

// SetImage rasterizes any stdlib image into the buffer, converting colors to
// the B,G,R,A byte order.
func (b *Buffer) SetImage(src image.Image) {
	bounds := src.Bounds()
	rgba, ok := src.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(bounds)
		draw.Draw(rgba, bounds, src, bounds.Min, draw.Src)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	size := b.frame.Size()
	for y := 0; y < size.Y && y < bounds.Dy(); y++ {
		row := b.frame.Row(y)
		srow := rgba.Pix[(y+bounds.Min.Y-rgba.Rect.Min.Y)*rgba.Stride:]
		for x := 0; x < size.X && x < bounds.Dx(); x++ {
			o := (x + bounds.Min.X - rgba.Rect.Min.X) * 4
			row[x*4+0] = srow[o+2]
			row[x*4+1] = srow[o+1]
			row[x*4+2] = srow[o+0]
			row[x*4+3] = srow[o+3]
		}
	}
	b.started = true
}

// Frame implements Source. Calls before the first SetFrame or SetImage
// return ErrNoFrame.
func (b *Buffer) Frame() (*pix.Image, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return nil, ErrNoFrame
	}
	return b.frame, nil
}

// Size implements Source.
func (b *Buffer) Size() image.Point { return b.frame.Size() }

// Close implements Source.
func (b *Buffer) Close() error { return nil }
