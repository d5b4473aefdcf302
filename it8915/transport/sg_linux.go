// Copyright 2024 The Inkmirror Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build linux

package transport

import (
	"fmt"
	"log"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	sgIO                  = 0x2285
	scsiIoctlGetBusNumber = 0x5386

	sgDxferToDev   = -2
	sgDxferFromDev = -3
)

// sgIOHdr mirrors struct sg_io_hdr from <scsi/sg.h> on 64-bit targets.
type sgIOHdr struct {
	interfaceID    int32
	dxferDirection int32
	cmdLen         uint8
	mxSBLen        uint8
	iovecCount     uint16
	dxferLen       uint32
	dxferp         unsafe.Pointer
	cmdp           unsafe.Pointer
	sbp            unsafe.Pointer
	timeout        uint32
	flags          uint32
	packID         int32
	_              [4]byte
	usrPtr         unsafe.Pointer
	status         uint8
	maskedStatus   uint8
	msgStatus      uint8
	sbLenWr        uint8
	hostStatus     uint16
	driverStatus   uint16
	resid          int32
	duration       uint32
	info           uint32
}

// SG drives a kernel SCSI generic node (/dev/sgN).
type SG struct {
	fd   int
	path string
}

// OpenSG opens a SCSI generic device node and verifies it answers the SCSI
// bus-number ioctl.
func OpenSG(path string) (*SG, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("transport: opening %s: %w", path, err)
	}
	d := &SG{fd: fd, path: path}

	var bus int32
	if err := d.ioctl(scsiIoctlGetBusNumber, unsafe.Pointer(&bus)); err != nil {
		d.Close()
		return nil, fmt.Errorf("transport: %s is not a SCSI device: %w", path, err)
	}
	log.Printf("transport: opened %s on SCSI bus %d", path, bus)
	return d, nil
}

func (d *SG) ioctl(req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

func (d *SG) io(direction int32, cdb, data []byte) error {
	hdr := sgIOHdr{
		interfaceID:    'S',
		dxferDirection: direction,
		timeout:        ^uint32(0),
		cmdLen:         uint8(len(cdb)),
		cmdp:           unsafe.Pointer(&cdb[0]),
		dxferLen:       uint32(len(data)),
	}
	if len(data) > 0 {
		hdr.dxferp = unsafe.Pointer(&data[0])
	}
	err := d.ioctl(sgIO, unsafe.Pointer(&hdr))
	runtime.KeepAlive(cdb)
	runtime.KeepAlive(data)
	if err != nil {
		return fmt.Errorf("transport: SG_IO on %s: %w", d.path, err)
	}
	return nil
}

// Write implements Device.
func (d *SG) Write(cdb, data []byte) error {
	return d.io(sgDxferToDev, cdb, data)
}

// Read implements Device.
func (d *SG) Read(cdb, data []byte) error {
	return d.io(sgDxferFromDev, cdb, data)
}

// Close releases the file descriptor.
func (d *SG) Close() error {
	return unix.Close(d.fd)
}
