// Copyright 2024 The Inkmirror Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package it8915

import (
	"encoding/binary"
	"fmt"
	"image"

	"github.com/epdlab/inkmirror/pix"
)

// DisplayMode names a waveform. The values are the on-wire codes for
// generation-8 devices; generation-6 devices use translated codes.
type DisplayMode int

const (
	INIT DisplayMode = iota
	DU
	GC16
	GL16
	GLR16
	GLD16
	A2
	DU4
)

var displayModeNames = map[DisplayMode]string{
	INIT: "INIT", DU: "DU", GC16: "GC16", GL16: "GL16",
	GLR16: "GLR16", GLD16: "GLD16", A2: "A2", DU4: "DU4",
}

func (m DisplayMode) String() string {
	if s, ok := displayModeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("DisplayMode(%d)", int(m))
}

// ParseDisplayMode maps a mode name to its DisplayMode.
func ParseDisplayMode(s string) (DisplayMode, error) {
	for m, name := range displayModeNames {
		if name == s {
			return m, nil
		}
	}
	return INIT, fmt.Errorf("it8915: unknown display mode %q", s)
}

// translateMode converts a DisplayMode to the on-wire code for the device's
// mode generation. Generation 6 shifts A2 and DU4 down by two and has no
// GLR16/GLD16.
func (d *Dev) translateMode(m DisplayMode) (uint32, error) {
	if d.si.ModeNo == 8 {
		return uint32(m), nil
	}
	switch m {
	case A2, DU4:
		return uint32(m) - 2, nil
	case GLR16, GLD16:
		return 0, fmt.Errorf("it8915: unsupported mode %s on generation-%d device", m, d.si.ModeNo)
	}
	return uint32(m), nil
}

// DisplayArea starts a waveform refresh of the given canvas region. The
// region's left edge must be 32-pixel aligned and its width a multiple of 32
// or the full canvas width. With waitReady the device blocks until the
// refresh completes; otherwise the command returns while the panel drives.
func (d *Dev) DisplayArea(r image.Rectangle, mode DisplayMode, waitReady bool) error {
	canvas := image.Rectangle{Max: d.ScreenSize()}
	if !r.In(canvas) || r.Empty() {
		return fmt.Errorf("it8915: display region %v outside canvas %v", r, canvas)
	}
	if r.Min.X%32 != 0 {
		return fmt.Errorf("it8915: display region x=%d not 32-pixel aligned", r.Min.X)
	}
	if r.Dx()%32 != 0 && r.Dx() != int(d.si.Width) {
		return fmt.Errorf("it8915: display region width %d not 32-pixel aligned", r.Dx())
	}
	code, err := d.translateMode(mode)
	if err != nil {
		return err
	}

	cdb := make([]byte, 16)
	cdb[0] = 0xFE
	cdb[6] = opDisplayArea

	args := make([]byte, 28)
	binary.BigEndian.PutUint32(args[0:], d.si.ImageBufBase)
	binary.BigEndian.PutUint32(args[4:], code)
	binary.BigEndian.PutUint32(args[8:], uint32(r.Min.X))
	binary.BigEndian.PutUint32(args[12:], uint32(r.Min.Y))
	binary.BigEndian.PutUint32(args[16:], uint32(r.Dx()))
	binary.BigEndian.PutUint32(args[20:], uint32(r.Dy()))
	if waitReady {
		binary.BigEndian.PutUint32(args[24:], 1)
	}
	return d.t.Write(cdb, args)
}

// Reset paints the whole canvas white in image memory and runs the INIT
// waveform over it, blocking until done. INIT alone flushes the panel but
// later refreshes diff against memory content, so the memory fill is
// mandatory.
func (d *Dev) Reset() error {
	size := d.ScreenSize()
	var white *pix.Image
	switch d.memMode {
	case Mem1bpp:
		white = pix.NewBufferPitch(pix.Mono1, size.X, size.Y, d.memPitch)
		white.Fill(0xFF)
	default:
		white = pix.NewBufferPitch(pix.Mono8, size.X, size.Y, d.memPitch)
		white.Fill(0xF0)
	}
	if err := d.LoadImageFullWidth(0, white); err != nil {
		return err
	}
	return d.DisplayArea(image.Rectangle{Max: size}, INIT, true)
}
