// Copyright 2024 The Inkmirror Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package capture

import (
	"fmt"
	"image"

	"github.com/epdlab/inkmirror/pix"
)

type cropped struct {
	src  Source
	rect image.Rectangle
}

// Crop wraps a source so its frames are restricted to the size-sized
// rectangle at offset. Frames stay zero-copy views into the parent source.
func Crop(src Source, offset, size image.Point) (Source, error) {
	rect := image.Rectangle{Min: offset, Max: offset.Add(size)}
	full := image.Rectangle{Max: src.Size()}
	if !rect.In(full) || rect.Empty() {
		return nil, fmt.Errorf("capture: crop %v outside source bounds %v", rect, full)
	}
	if rect == full {
		return src, nil
	}
	return &cropped{src: src, rect: rect}, nil
}

func (c *cropped) Frame() (*pix.Image, error) {
	f, err := c.src.Frame()
	if err != nil {
		return nil, err
	}
	return f.SubImage(c.rect), nil
}

func (c *cropped) Size() image.Point { return c.rect.Size() }

func (c *cropped) Close() error { return c.src.Close() }
