// Copyright 2024 The Inkmirror Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build !linux

package transport

import "fmt"

// OpenSG is only available on Linux; other platforms use the USB bulk-only
// backend.
func OpenSG(path string) (Device, error) {
	return nil, fmt.Errorf("transport: SCSI generic devices are not supported on this platform")
}
