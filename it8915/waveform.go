// Copyright 2024 The Inkmirror Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package it8915

import (
	"fmt"
	"strings"
)

// Action is one 2-bit pixel-voltage step inside a waveform frame.
type Action int

const (
	ActionKeep Action = iota
	ActionDown
	ActionUp
)

func (a Action) String() string {
	switch a {
	case ActionKeep:
		return "-"
	case ActionDown:
		return "↓"
	case ActionUp:
		return "↑"
	}
	return "?"
}

// Waveform is a decoded lookup table: a sequence of 64-byte frames, each
// holding a 2-bit action for every (source level, destination level) pair of
// a 16x16 gray matrix. The table's address in device memory is firmware
// specific; reading it is a diagnostic facility, not part of the refresh
// path.
type Waveform struct {
	frames [][64]byte
}

// waveformIndex returns the 2-bit cell index for a level transition. The
// destination axis is mirrored because the device packs the matrix into
// big-endian 32-bit words.
func waveformIndex(src, dst int) int {
	return src*16 + (15 - dst)
}

// ParseWaveform decodes raw LUT memory. The sequence ends at the first frame
// whose 64 bytes are all 0xFF; a frame containing the reserved 2-bit value 3
// is rejected.
func ParseWaveform(data []byte) (*Waveform, error) {
	if len(data)%64 != 0 {
		return nil, fmt.Errorf("it8915: waveform data length %d not a multiple of 64", len(data))
	}
	w := &Waveform{}
frames:
	for i := 0; i+64 <= len(data); i += 64 {
		var frame [64]byte
		copy(frame[:], data[i:i+64])
		terminal := true
		for _, b := range frame {
			if b != 0xFF {
				terminal = false
				break
			}
		}
		if terminal {
			break frames
		}
		for j, b := range frame {
			for shift := 0; shift < 8; shift += 2 {
				if (b>>shift)&0x3 == 3 {
					return nil, fmt.Errorf("it8915: reserved action in waveform frame %d byte %d", len(w.frames), j)
				}
			}
		}
		w.frames = append(w.frames, frame)
	}
	return w, nil
}

// FrameCount returns the number of frames before the terminator.
func (w *Waveform) FrameCount() int { return len(w.frames) }

// At returns the action applied in the given frame for a transition from
// level src to level dst.
func (w *Waveform) At(frame, src, dst int) Action {
	idx := waveformIndex(src, dst)
	b := w.frames[frame][idx/4]
	return Action((b >> ((idx % 4) * 2)) & 0x3)
}

// String renders the table one transition per line, one rune per frame.
func (w *Waveform) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "total %d frames:\n", len(w.frames))
	for src := 0; src < 16; src++ {
		for dst := 0; dst < 16; dst++ {
			fmt.Fprintf(&sb, "%02d -> %02d: ", src, dst)
			for f := range w.frames {
				sb.WriteString(w.At(f, src, dst).String())
			}
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
