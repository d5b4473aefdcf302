// Copyright 2024 The Inkmirror Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package it8915

import (
	"encoding/binary"
	"fmt"
	"image"

	"github.com/epdlab/inkmirror/imgproc"
	"github.com/epdlab/inkmirror/pix"
)

func (d *Dev) memFormat() pix.Format {
	if d.memMode == Mem1bpp {
		return pix.Mono1
	}
	return pix.Mono8
}

// LoadImageFullWidth streams a full-width monochrome image into image memory
// starting at the given row. The image pitch must equal the device memory
// pitch so each strip is one contiguous fast write; strips are sized to the
// 65535-byte transfer limit. If the image's encoding does not match the
// active memory mode it is repacked first.
func (d *Dev) LoadImageFullWidth(rowOffset int, img *pix.Image) error {
	if img.Format() != d.memFormat() {
		img = imgproc.RepackMono(img, d.memFormat(), d.memPitch)
	}
	if img.Width() != int(d.si.Width) {
		return fmt.Errorf("it8915: image width %d does not cover canvas width %d", img.Width(), d.si.Width)
	}
	if img.Pitch() != d.memPitch {
		return fmt.Errorf("it8915: image pitch %d does not match memory pitch %d", img.Pitch(), d.memPitch)
	}
	if rowOffset < 0 || rowOffset+img.Height() > int(d.si.Height) {
		return fmt.Errorf("it8915: rows [%d,%d) outside canvas height %d", rowOffset, rowOffset+img.Height(), d.si.Height)
	}

	rowsPerStep := maxTransfer / d.memPitch
	raw := img.Raw()
	for row := 0; row < img.Height(); row += rowsPerStep {
		n := rowsPerStep
		if row+n > img.Height() {
			n = img.Height() - row
		}
		end := (row + n) * d.memPitch
		if end > len(raw) {
			end = len(raw)
		}
		addr := d.si.ImageBufBase + uint32(d.memPitch*(rowOffset+row))
		if err := d.writeMemFast(addr, raw[row*d.memPitch:end]); err != nil {
			return err
		}
	}
	return nil
}

// LoadImageArea uploads an 8-bpp image to an arbitrary canvas position.
// Full-width uploads at x=0 take the fast path; everything else goes through
// the slower area opcode, chunked to the device's area transfer limit.
func (d *Dev) LoadImageArea(pos image.Point, img *pix.Image) error {
	if pos.X == 0 && img.Width() == int(d.si.Width) && d.memMode == d.imgMemMode(img) {
		return d.LoadImageFullWidth(pos.Y, img)
	}
	if d.memMode != Mem8bpp || img.Format() != pix.Mono8 {
		return fmt.Errorf("it8915: area upload requires 8-bpp memory mode, have %s memory and %s image", d.memMode, img.Format())
	}
	if pos.X < 0 || pos.Y < 0 ||
		pos.X+img.Width() > int(d.si.Width) || pos.Y+img.Height() > int(d.si.Height) {
		return fmt.Errorf("it8915: image %v at %v outside canvas", img.Size(), pos)
	}

	rowsPerStep := loadAreaMaxTransfer / img.Width()
	if rowsPerStep == 0 {
		rowsPerStep = 1
	}
	for row := 0; row < img.Height(); row += rowsPerStep {
		n := rowsPerStep
		if row+n > img.Height() {
			n = img.Height() - row
		}
		strip := img.SubImage(image.Rect(0, row, img.Width(), row+n))
		if err := d.loadImageAreaOnestep(image.Pt(pos.X, pos.Y+row), strip); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dev) imgMemMode(img *pix.Image) MemMode {
	if img.Format() == pix.Mono1 {
		return Mem1bpp
	}
	return Mem8bpp
}

// loadImageAreaOnestep issues one area transfer: a 20-byte argument block
// followed by the dense rows of the image.
func (d *Dev) loadImageAreaOnestep(pos image.Point, img *pix.Image) error {
	cdb := make([]byte, 16)
	cdb[0] = 0xFE
	cdb[6] = opLoadImgArea

	payload := make([]byte, 20+img.Width()*img.Height())
	binary.BigEndian.PutUint32(payload[0:], d.si.ImageBufBase)
	binary.BigEndian.PutUint32(payload[4:], uint32(pos.X))
	binary.BigEndian.PutUint32(payload[8:], uint32(pos.Y))
	binary.BigEndian.PutUint32(payload[12:], uint32(img.Width()))
	binary.BigEndian.PutUint32(payload[16:], uint32(img.Height()))
	off := 20
	for y := 0; y < img.Height(); y++ {
		off += copy(payload[off:], img.Row(y))
	}
	return d.t.Write(cdb, payload)
}
