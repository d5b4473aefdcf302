// Copyright 2024 The Inkmirror Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package it8915 controls ITE IT8915-family e-paper controllers attached as
// USB mass-storage devices.
//
// Every command is a 16-byte vendor CDB; bulk data travels in the direction
// implied by the opcode. Multi-byte integers inside CDBs and payloads are
// big-endian. Image memory is addressed through a device-reported base and
// a 4-byte aligned row pitch.
package it8915

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"log"
	"time"
)

// Transport is the byte-level command channel to the device. Read and Write
// issue one CDB each, with data flowing from or to the device.
type Transport interface {
	Read(cdb, data []byte) error
	Write(cdb, data []byte) error
	Close() error
}

// Register addresses inside the controller's memory map.
const (
	regUp1SR     = 0x18001138 // drawing-mode bits, byte 2
	regLUTAFSR   = 0x18001224 // per-region waveform busy status
	regMemPitch  = 0x1800124C // image pitch in double-words, 16-bit LE
	regBitmapMap = 0x18001250 // 1-bpp color mapping
)

// Memory I/O opcodes (CDB byte 6).
const (
	opMemRead      = 0x81
	opMemWrite     = 0x82
	opLoadImgArea  = 0xA2
	opDisplayArea  = 0x94
	opMemWriteFast = 0xA5
	opPMICControl  = 0xA3
)

// maxTransfer is the largest single memory transfer; the CDB length field
// is 16 bits.
const maxTransfer = 0xFFFF

// loadAreaMaxTransfer bounds a single partial-width image transfer.
const loadAreaMaxTransfer = 60800

const expectInquiryVendorProduct = "Generic Storage RamDisc 1.00"

// MemMode selects the image-memory pixel encoding.
type MemMode int

const (
	// Mem8bpp stores one byte per pixel.
	Mem8bpp MemMode = iota
	// Mem1bpp stores eight pixels per byte with a 4-byte aligned pitch.
	Mem1bpp
)

func (m MemMode) String() string {
	if m == Mem1bpp {
		return "1bpp"
	}
	return "8bpp"
}

type sysinfo struct {
	StandardCmdNo uint32
	ExtendCmdNo   uint32
	Signature     uint32
	Version       uint32
	Width         uint32
	Height        uint32
	UpdateBufBase uint32
	ImageBufBase  uint32
	TemperatureNo uint32
	ModeNo        uint32
	FrameCount    [8]uint32
	NumImgBuf     uint32
	Reserved      [9]uint32
}

const sysinfoLen = 112

// Dev is an open IT8915 controller.
type Dev struct {
	t  Transport
	si sysinfo

	memMode  MemMode
	memPitch int
}

// Open identifies the device behind t and performs one-time setup. The
// INQUIRY vendor/product string and the sysinfo mode generation are checked
// before anything is written; memory is left in 8-bpp mode.
func Open(t Transport) (*Dev, error) {
	inq := make([]byte, 16)
	inq[0] = 0x12
	resp := make([]byte, 40)
	if err := t.Read(inq, resp); err != nil {
		return nil, fmt.Errorf("it8915: inquiry: %w", err)
	}
	if got := string(resp[8:36]); got != expectInquiryVendorProduct {
		return nil, fmt.Errorf("it8915: unexpected vendor product string %q", got)
	}

	sysinfoCDB := []byte{
		0xFE, 0x00,
		'8', '9', '5', '1',
		0x80, 0x00,
		0x01, 0x00, 0x02, 0x00, // version 0x00010002
		0x00, 0x00, 0x00, 0x00,
	}
	raw := make([]byte, sysinfoLen)
	if err := t.Read(sysinfoCDB, raw); err != nil {
		return nil, fmt.Errorf("it8915: sysinfo: %w", err)
	}
	d := &Dev{t: t}
	if err := binary.Read(bytes.NewReader(raw), binary.BigEndian, &d.si); err != nil {
		return nil, fmt.Errorf("it8915: sysinfo decode: %w", err)
	}
	if d.si.ModeNo != 6 && d.si.ModeNo != 8 {
		return nil, fmt.Errorf("it8915: unsupported mode generation %d", d.si.ModeNo)
	}
	if d.si.Width == 0 || d.si.Height == 0 {
		return nil, fmt.Errorf("it8915: sysinfo reports %dx%d canvas", d.si.Width, d.si.Height)
	}
	log.Printf("it8915: %dx%d canvas, image buffer 0x%08x, generation %d",
		d.si.Width, d.si.Height, d.si.ImageBufBase, d.si.ModeNo)

	if err := d.SetMemoryMode(Mem8bpp); err != nil {
		return nil, err
	}
	return d, nil
}

// ScreenSize returns the panel canvas dimensions in pixels.
func (d *Dev) ScreenSize() image.Point {
	return image.Pt(int(d.si.Width), int(d.si.Height))
}

// MemMode returns the active image-memory encoding.
func (d *Dev) MemMode() MemMode { return d.memMode }

// MemPitch returns the device row pitch in bytes for the given encoding:
// ⌈width/32⌉·4 for 1 bpp, the width for 8 bpp.
func (d *Dev) MemPitch(mode MemMode) int {
	w := int(d.si.Width)
	if mode == Mem1bpp {
		return (w + 31) / 32 * 4
	}
	return w
}

// SetMemoryMode switches the image-memory encoding: the 1-bit drawing and
// image-pitch bits in UP1SR, the bitmap color mapping (bit 0 -> black,
// bit 1 -> white 0xF0) and the pitch register, which counts double-words.
func (d *Dev) SetMemoryMode(mode MemMode) error {
	up1sr := make([]byte, 4)
	if err := d.ReadMem(regUp1SR, up1sr); err != nil {
		return err
	}
	if mode == Mem1bpp {
		up1sr[2] |= 0x06
	} else {
		up1sr[2] &^= 0x06
	}
	if err := d.WriteMem(regUp1SR, up1sr); err != nil {
		return err
	}

	colorMap := []byte{0x00, 0x00}
	if mode == Mem1bpp {
		colorMap = []byte{0xF0, 0x00}
	}
	if err := d.WriteMem(regBitmapMap, colorMap); err != nil {
		return err
	}

	d.memMode = mode
	d.memPitch = d.MemPitch(mode)
	dw := d.memPitch / 4
	if err := d.WriteMem(regMemPitch, []byte{byte(dw), byte(dw >> 8)}); err != nil {
		return err
	}
	return nil
}

// memIOCDB builds the shared raw-memory CDB shape:
// [0xFE, pad, addr_be32, opcode, len_be16, pad*7].
func memIOCDB(opcode byte, addr uint32, n int) []byte {
	cdb := make([]byte, 16)
	cdb[0] = 0xFE
	binary.BigEndian.PutUint32(cdb[2:], addr)
	cdb[6] = opcode
	binary.BigEndian.PutUint16(cdb[7:], uint16(n))
	return cdb
}

// ReadMem reads len(buf) bytes from controller memory at addr.
func (d *Dev) ReadMem(addr uint32, buf []byte) error {
	if len(buf) > maxTransfer {
		return fmt.Errorf("it8915: memory read of %d bytes exceeds %d", len(buf), maxTransfer)
	}
	return d.t.Read(memIOCDB(opMemRead, addr, len(buf)), buf)
}

// WriteMem writes data to controller memory at addr.
func (d *Dev) WriteMem(addr uint32, data []byte) error {
	if len(data) > maxTransfer {
		return fmt.Errorf("it8915: memory write of %d bytes exceeds %d", len(data), maxTransfer)
	}
	return d.t.Write(memIOCDB(opMemWrite, addr, len(data)), data)
}

// writeMemFast is the DMA-style bulk path used for image streaming.
func (d *Dev) writeMemFast(addr uint32, data []byte) error {
	if len(data) > maxTransfer {
		return fmt.Errorf("it8915: fast memory write of %d bytes exceeds %d", len(data), maxTransfer)
	}
	return d.t.Write(memIOCDB(opMemWriteFast, addr, len(data)), data)
}

// PMICControl optionally sets the VCOM voltage (in millivolts) and the panel
// power state. Each field carries its own "set" flag; nil leaves the value
// untouched.
func (d *Dev) PMICControl(vcomMillivolts *uint16, power *bool) error {
	cdb := make([]byte, 16)
	cdb[0] = 0xFE
	cdb[6] = opPMICControl
	if vcomMillivolts != nil {
		binary.BigEndian.PutUint16(cdb[7:], *vcomMillivolts)
		cdb[9] = 1
		log.Printf("it8915: setting VCOM to %d mV", *vcomMillivolts)
	}
	if power != nil {
		cdb[10] = 1
		if *power {
			cdb[11] = 1
		}
		log.Printf("it8915: setting power %t", *power)
	}
	return d.t.Write(cdb, nil)
}

// Busy reports whether any region refresh is still driving the panel, by
// reading the two LUTAFSR status bytes.
func (d *Dev) Busy() (bool, error) {
	st := make([]byte, 2)
	if err := d.ReadMem(regLUTAFSR, st); err != nil {
		return false, err
	}
	return st[0] != 0 || st[1] != 0, nil
}

// WaitIdle polls Busy at the given interval until the panel reports idle.
func (d *Dev) WaitIdle(interval time.Duration) error {
	for {
		busy, err := d.Busy()
		if err != nil {
			return err
		}
		if !busy {
			return nil
		}
		time.Sleep(interval)
	}
}

// Halt implements conn.Resource; it resets the display to white.
func (d *Dev) Halt() error {
	return d.Reset()
}

// Close halts the panel power and releases the transport.
func (d *Dev) Close() error {
	return d.t.Close()
}

func (d *Dev) String() string {
	return fmt.Sprintf("it8915.Dev{%dx%d, gen %d}", d.si.Width, d.si.Height, d.si.ModeNo)
}
