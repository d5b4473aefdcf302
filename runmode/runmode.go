// Copyright 2024 The Inkmirror Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package runmode maps the user-selected operating mode to the pixel
// pipeline, memory encoding and waveform pair the scheduler uses.
package runmode

import (
	"fmt"
	"os"
	"strings"

	"github.com/epdlab/inkmirror/imgproc"
	"github.com/epdlab/inkmirror/it8915"
)

// Pipeline selects the frame conversion path.
type Pipeline int

const (
	// Mono dithers to a 1-bpp bitmap stored in 1-bpp memory.
	Mono Pipeline = iota
	// MonoForce8bpp dithers to a 1-bpp bitmap but stores it unpacked in
	// 8-bpp memory, for devices whose 1-bpp mode is unreliable.
	MonoForce8bpp
	// Gray rotates and error-diffuses to 16 levels in 8-bpp memory.
	Gray
)

// Mode pairs a pipeline with its ordered-dither pattern. Dither is ignored
// for the Gray pipeline.
type Mode struct {
	Pipeline Pipeline
	Dither   imgproc.DitheringMethod
}

// Default is the mode used when no configuration exists.
func Default() Mode {
	return Mode{Pipeline: Mono, Dither: imgproc.Bayers4}
}

var tokens = map[string]Mode{
	"mono_bayers4":      {Mono, imgproc.Bayers4},
	"mono_bayers2":      {Mono, imgproc.Bayers2},
	"mono_naive":        {Mono, imgproc.NoDithering},
	"mono_8bpp_bayers4": {MonoForce8bpp, imgproc.Bayers4},
	"mono_8bpp_bayers2": {MonoForce8bpp, imgproc.Bayers2},
	"mono_8bpp_naive":   {MonoForce8bpp, imgproc.NoDithering},
	"gray":              {Gray, imgproc.NoDithering},
}

// Parse maps a config token to its Mode.
func Parse(s string) (Mode, error) {
	if m, ok := tokens[s]; ok {
		return m, nil
	}
	return Mode{}, fmt.Errorf("runmode: unknown mode %q", s)
}

// ReadFile reads a one-line config file and parses its trimmed content.
func ReadFile(path string) (Mode, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Mode{}, err
	}
	return Parse(strings.TrimSpace(string(content)))
}

func (m Mode) String() string {
	for tok, mode := range tokens {
		if mode == m {
			return tok
		}
	}
	return fmt.Sprintf("runmode.Mode{%d,%s}", int(m.Pipeline), m.Dither)
}

// FastDisplayMode returns the waveform for small edits.
func (m Mode) FastDisplayMode() it8915.DisplayMode {
	if m.Pipeline == Gray {
		return it8915.GL16
	}
	return it8915.A2
}

// SlowDisplayMode returns the waveform for large changes.
func (m Mode) SlowDisplayMode() it8915.DisplayMode {
	if m.Pipeline == Gray {
		return it8915.GL16
	}
	return it8915.DU
}

// MemMode returns the image-memory encoding the mode requires.
func (m Mode) MemMode() it8915.MemMode {
	if m.Pipeline == Mono {
		return it8915.Mem1bpp
	}
	return it8915.Mem8bpp
}
