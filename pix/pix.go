// Copyright 2024 The Inkmirror Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pix implements pitch-aware pixel buffers and views.
//
// The IT8915 image memory requires every row to start on a 4-byte aligned
// address even when the panel width is not a multiple of 32 pixels, so the
// distance between consecutive rows (the pitch) is kept separate from the
// row's live byte count throughout the module. All addressing goes through
// the pitch; copy, fill and diff operate on the live ⌈width·bpp/8⌉ bytes.
//
// An Image either owns its backing bytes (NewBuffer) or borrows them
// (NewView). Sub-images share the parent's bytes and pitch.
package pix

import (
	"fmt"
	"image"
)

// Format enumerates the pixel encodings handled by the module.
type Format int

const (
	// Mono1 is 1-bit monochrome, eight pixels per byte, LSB first.
	Mono1 Format = iota
	// Mono8 is 8-bit grayscale, one byte per pixel.
	Mono8
	// BGRA32 is 32-bit color in B, G, R, A byte order.
	BGRA32
	// Double16 is an opaque two-byte-per-pixel encoding.
	Double16
)

// BPP returns the format's bits per pixel.
func (f Format) BPP() int {
	switch f {
	case Mono1:
		return 1
	case Mono8:
		return 8
	case Double16:
		return 16
	case BGRA32:
		return 32
	}
	panic(fmt.Sprintf("pix: unknown format %d", int(f)))
}

func (f Format) String() string {
	switch f {
	case Mono1:
		return "Mono1"
	case Mono8:
		return "Mono8"
	case BGRA32:
		return "BGRA32"
	case Double16:
		return "Double16"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// MinPitch returns the smallest legal pitch for w pixels of format f.
func MinPitch(f Format, w int) int {
	return (w*f.BPP() + 7) / 8
}

// Image is a rectangular pixel buffer with an explicit row pitch.
//
// The first RowBytes() bytes of each row hold pixel data; bytes between
// RowBytes() and Pitch() are padding with arbitrary content.
type Image struct {
	format Format
	width  int
	height int
	pitch  int
	data   []byte
}

func check(f Format, w, h, pitch int, data []byte) {
	if w <= 0 || h <= 0 {
		panic(fmt.Sprintf("pix: invalid size %dx%d", w, h))
	}
	if min := MinPitch(f, w); pitch < min {
		panic(fmt.Sprintf("pix: pitch %d below minimum %d for width %d %s", pitch, min, w, f))
	}
	if len(data) < pitch*h {
		panic(fmt.Sprintf("pix: %d data bytes, need %d for pitch %d height %d", len(data), pitch*h, pitch, h))
	}
}

// NewBuffer returns a zero-initialized owning buffer with the minimum pitch.
func NewBuffer(f Format, w, h int) *Image {
	return NewBufferPitch(f, w, h, MinPitch(f, w))
}

// NewBufferPitch returns a zero-initialized owning buffer with the given
// pitch. It panics if the pitch is below the minimum for the width.
func NewBufferPitch(f Format, w, h, pitch int) *Image {
	data := make([]byte, pitch*h)
	check(f, w, h, pitch, data)
	return &Image{format: f, width: w, height: h, pitch: pitch, data: data}
}

// NewView wraps externally-owned bytes without copying. A pitch of 0 selects
// the minimum pitch. The data must cover at least pitch*h bytes.
func NewView(data []byte, f Format, w, h, pitch int) *Image {
	if pitch == 0 {
		pitch = MinPitch(f, w)
	}
	check(f, w, h, pitch, data)
	return &Image{format: f, width: w, height: h, pitch: pitch, data: data}
}

// Format returns the pixel format.
func (m *Image) Format() Format { return m.format }

// Width returns the width in pixels.
func (m *Image) Width() int { return m.width }

// Height returns the height in pixels.
func (m *Image) Height() int { return m.height }

// Pitch returns the byte distance between consecutive row starts.
func (m *Image) Pitch() int { return m.pitch }

// Size returns the dimensions in pixels.
func (m *Image) Size() image.Point { return image.Pt(m.width, m.height) }

// Bounds returns the rectangle (0,0)-(w,h).
func (m *Image) Bounds() image.Rectangle { return image.Rectangle{Max: m.Size()} }

// RowBytes returns the live byte count of each row, ⌈width·bpp/8⌉.
func (m *Image) RowBytes() int { return MinPitch(m.format, m.width) }

// Continuous reports whether rows are densely packed (pitch == RowBytes).
func (m *Image) Continuous() bool { return m.pitch == m.RowBytes() }

// Row returns the live bytes of row y.
func (m *Image) Row(y int) []byte {
	if y < 0 || y >= m.height {
		panic(fmt.Sprintf("pix: row %d out of range [0,%d)", y, m.height))
	}
	off := y * m.pitch
	return m.data[off : off+m.RowBytes()]
}

// RowPadded returns row y including its pitch padding.
func (m *Image) RowPadded(y int) []byte {
	if y < 0 || y >= m.height {
		panic(fmt.Sprintf("pix: row %d out of range [0,%d)", y, m.height))
	}
	off := y * m.pitch
	return m.data[off : off+m.pitch]
}

// Raw returns the backing bytes of the image, pitch padding included. For
// a sub-image reaching the parent's bottom-right corner the final row may be
// cut short at its live bytes.
func (m *Image) Raw() []byte {
	n := m.pitch * m.height
	if n > len(m.data) {
		n = m.pitch*(m.height-1) + m.RowBytes()
	}
	return m.data[:n]
}

// SubImage returns a view of r sharing the parent's bytes and pitch. The
// region must be inside the bounds and r.Min.X must fall on a byte boundary
// for the format.
func (m *Image) SubImage(r image.Rectangle) *Image {
	if !r.In(m.Bounds()) || r.Empty() {
		panic(fmt.Sprintf("pix: sub-image %v outside %v", r, m.Bounds()))
	}
	if r.Min.X*m.format.BPP()%8 != 0 {
		panic(fmt.Sprintf("pix: sub-image x=%d not byte aligned for %s", r.Min.X, m.format))
	}
	off := r.Min.Y*m.pitch + r.Min.X*m.format.BPP()/8
	return &Image{
		format: m.format,
		width:  r.Dx(),
		height: r.Dy(),
		pitch:  m.pitch,
		data:   m.data[off:],
	}
}

// CopyFrom copies the live portion of every row from src, which must have
// the same size and bits per pixel. Pitch padding is not touched.
func (m *Image) CopyFrom(src *Image) {
	if m.Size() != src.Size() {
		panic(fmt.Sprintf("pix: copy size mismatch %v != %v", m.Size(), src.Size()))
	}
	if m.format.BPP() != src.format.BPP() {
		panic(fmt.Sprintf("pix: copy bpp mismatch %s != %s", m.format, src.format))
	}
	for y := 0; y < m.height; y++ {
		copy(m.Row(y), src.Row(y))
	}
}

// Fill writes b over the full pitch of every row, padding included.
func (m *Image) Fill(b byte) {
	raw := m.Raw()
	for i := range raw {
		raw[i] = b
	}
}

func (m *Image) String() string {
	return fmt.Sprintf("pix.Image{%s %dx%d pitch %d}", m.format, m.width, m.height, m.pitch)
}
