// Copyright 2024 The Inkmirror Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package transport provides the byte-level command channel to IT8915
// devices: the kernel SCSI generic interface where available, and a portable
// USB bulk-only fallback.
package transport

import (
	"fmt"
	"strconv"
	"strings"
)

// Device issues 16-byte CDBs with data flowing to or from the device. Both
// backends implement it; it8915.Open accepts either.
type Device interface {
	Read(cdb, data []byte) error
	Write(cdb, data []byte) error
	Close() error
}

// Open selects a backend from a device spec:
//
//	""            first USB device matching 048D:8951
//	"3,12"        USB device at bus 3, address 12
//	"/dev/sg1"    kernel SCSI generic node
func Open(spec string) (Device, error) {
	if spec == "" || spec == "auto" {
		return OpenBulkOnly(nil)
	}
	if bus, addr, ok := parseBusAddr(spec); ok {
		return OpenBulkOnly(func(b, a int) bool { return b == bus && a == addr })
	}
	if strings.HasPrefix(spec, "/") {
		return OpenSG(spec)
	}
	return nil, fmt.Errorf("transport: unrecognized device spec %q", spec)
}

func parseBusAddr(spec string) (bus, addr int, ok bool) {
	b, a, found := strings.Cut(spec, ",")
	if !found {
		return 0, 0, false
	}
	bus, err1 := strconv.Atoi(strings.TrimSpace(b))
	addr, err2 := strconv.Atoi(strings.TrimSpace(a))
	return bus, addr, err1 == nil && err2 == nil
}
