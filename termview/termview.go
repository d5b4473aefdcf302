// Copyright 2024 The Inkmirror Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package termview renders panel pixel buffers to the terminal using ANSI
// 256-color codes. It exists for development: dithering output and capture
// pipelines can be inspected without a panel attached.
package termview

import (
	"bytes"
	"image/color"
	"io"
	"os"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/epdlab/inkmirror/pix"
)

// Opts configures a View.
type Opts struct {
	// Palette used for color mapping; ansi256.Default when nil.
	Palette *ansi256.Palette

	// Plain forces ASCII output ('#' and ' ') instead of color codes. It
	// defaults to true when stdout is not a terminal.
	Plain bool
}

// View writes images to the terminal, one character cell per pixel.
type View struct {
	w       io.Writer
	palette ansi256.Palette
	plain   bool

	buf bytes.Buffer
}

// New returns a View writing to stdout.
func New(opts *Opts) *View {
	if opts == nil {
		opts = &Opts{}
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	plain := opts.Plain
	if !plain && !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		plain = true
	}
	return &View{
		w:       colorable.NewColorableStdout(),
		palette: *p,
		plain:   plain,
	}
}

// Draw renders a Mono1, Mono8 or BGRA32 image.
func (v *View) Draw(img *pix.Image) error {
	v.buf.Reset()
	for y := 0; y < img.Height(); y++ {
		row := img.Row(y)
		for x := 0; x < img.Width(); x++ {
			v.writePixel(pixelColor(img.Format(), row, x))
		}
		if !v.plain {
			v.buf.WriteString("\033[0m")
		}
		v.buf.WriteByte('\n')
	}
	_, err := v.buf.WriteTo(v.w)
	return err
}

func pixelColor(f pix.Format, row []byte, x int) color.NRGBA {
	switch f {
	case pix.Mono1:
		if row[x/8]&(1<<(x%8)) != 0 {
			return color.NRGBA{255, 255, 255, 255}
		}
		return color.NRGBA{0, 0, 0, 255}
	case pix.Mono8:
		g := row[x]
		return color.NRGBA{g, g, g, 255}
	case pix.BGRA32:
		return color.NRGBA{row[x*4+2], row[x*4+1], row[x*4], 255}
	}
	panic("termview: unsupported format " + f.String())
}

func (v *View) writePixel(c color.NRGBA) {
	if v.plain {
		if int(c.R)+int(c.G)+int(c.B) >= 3*128 {
			v.buf.WriteByte(' ')
		} else {
			v.buf.WriteByte('#')
		}
		return
	}
	v.buf.WriteString(v.palette.Block(c))
}

// Halt restores the terminal attributes.
func (v *View) Halt() error {
	_, err := v.w.Write([]byte("\033[0m\n"))
	return err
}
