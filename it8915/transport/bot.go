// Copyright 2024 The Inkmirror Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package transport

import (
	"fmt"
	"log"

	"github.com/google/gousb"
)

// USB identity of the IT8915 mass-storage function.
const (
	usbVendorID  = gousb.ID(0x048D)
	usbProductID = gousb.ID(0x8951)
)

const (
	endpointOut = 2 // 0x02
	endpointIn  = 1 // 0x81
)

// BulkOnly is the portable USB bulk-only-transport backend.
type BulkOnly struct {
	ctx     *gousb.Context
	dev     *gousb.Device
	intf    *gousb.Interface
	doneIfc func()
	out     *gousb.OutEndpoint
	in      *gousb.InEndpoint

	nextTag uint32
}

// OpenBulkOnly claims the first device matching the IT8915 vendor/product
// identity, or the one accepted by filter when given. The device is reset
// and any kernel driver detached before interface 0 is claimed.
func OpenBulkOnly(filter func(bus, addr int) bool) (*BulkOnly, error) {
	ctx := gousb.NewContext()
	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		if desc.Vendor != usbVendorID || desc.Product != usbProductID {
			return false
		}
		return filter == nil || filter(desc.Bus, desc.Address)
	})
	if err != nil && len(devs) == 0 {
		ctx.Close()
		return nil, fmt.Errorf("transport: enumerating USB devices: %w", err)
	}
	if len(devs) == 0 {
		ctx.Close()
		return nil, fmt.Errorf("transport: no %s:%s device found", usbVendorID, usbProductID)
	}
	for _, d := range devs[1:] {
		d.Close()
	}
	dev := devs[0]
	log.Printf("transport: opening USB device at bus %d address %d", dev.Desc.Bus, dev.Desc.Address)

	b := &BulkOnly{ctx: ctx, dev: dev}
	if err := b.claim(); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func (b *BulkOnly) claim() error {
	if err := b.dev.Reset(); err != nil {
		return fmt.Errorf("transport: resetting device: %w", err)
	}
	if err := b.dev.SetAutoDetach(true); err != nil {
		return fmt.Errorf("transport: detaching kernel driver: %w", err)
	}
	intf, done, err := b.dev.DefaultInterface()
	if err != nil {
		return fmt.Errorf("transport: claiming interface 0: %w", err)
	}
	b.intf, b.doneIfc = intf, done
	if b.out, err = intf.OutEndpoint(endpointOut); err != nil {
		return fmt.Errorf("transport: out endpoint: %w", err)
	}
	if b.in, err = intf.InEndpoint(endpointIn); err != nil {
		return fmt.Errorf("transport: in endpoint: %w", err)
	}
	return nil
}

// Write implements Device.
func (b *BulkOnly) Write(cdb, data []byte) error {
	cbw, err := packCBW(b.nextTag, len(data), false, cdb)
	if err != nil {
		return err
	}
	if _, err := b.out.Write(cbw); err != nil {
		return fmt.Errorf("transport: writing CBW: %w", err)
	}
	if len(data) > 0 {
		if _, err := b.out.Write(data); err != nil {
			return fmt.Errorf("transport: writing data: %w", err)
		}
	}
	return b.checkStatus()
}

// Read implements Device.
func (b *BulkOnly) Read(cdb, data []byte) error {
	cbw, err := packCBW(b.nextTag, len(data), true, cdb)
	if err != nil {
		return err
	}
	if _, err := b.out.Write(cbw); err != nil {
		return fmt.Errorf("transport: writing CBW: %w", err)
	}
	for off := 0; off < len(data); {
		n, err := b.in.Read(data[off:])
		if err != nil {
			return fmt.Errorf("transport: reading data: %w", err)
		}
		off += n
	}
	return b.checkStatus()
}

// checkStatus reads the CSW, matches its tag against the request and bumps
// the tag for the next command.
func (b *BulkOnly) checkStatus() error {
	buf := make([]byte, cswLen)
	for off := 0; off < len(buf); {
		n, err := b.in.Read(buf[off:])
		if err != nil {
			return fmt.Errorf("transport: reading CSW: %w", err)
		}
		off += n
	}
	status, err := parseCSW(buf, b.nextTag)
	if err != nil {
		return err
	}
	b.nextTag++
	if status != 0 {
		return fmt.Errorf("transport: command failed with status %d", status)
	}
	return nil
}

// Close releases the interface claim and the USB context.
func (b *BulkOnly) Close() error {
	if b.doneIfc != nil {
		b.doneIfc()
	}
	if b.dev != nil {
		b.dev.Close()
	}
	if b.ctx != nil {
		return b.ctx.Close()
	}
	return nil
}
