// Copyright 2024 The Inkmirror Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package inkmirror mirrors a desktop screen region to an e-paper panel
// driven by an IT8915 USB controller.
//
// The packages are layered leaves-first: pix holds the pitch-aware image
// model, imgproc the dithering/rotation/packing pipeline, it8915 the
// controller protocol over a pluggable transport, capture the frame
// sources, and mirror the refresh scheduler tying them together. Binaries
// live under cmd.
package inkmirror
