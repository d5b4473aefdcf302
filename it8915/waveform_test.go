// Copyright 2024 The Inkmirror Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package it8915

import (
	"strings"
	"testing"
)

// frameWith builds a 64-byte frame whose 2-bit cell at idx holds action.
func frameWith(idx int, action byte) [64]byte {
	var f [64]byte
	f[idx/4] |= action << ((idx % 4) * 2)
	return f
}

func TestParseWaveform(t *testing.T) {
	var data []byte
	f0 := frameWith(waveformIndex(0, 15), byte(ActionUp))
	f1 := frameWith(waveformIndex(15, 0), byte(ActionDown))
	terminator := [64]byte{}
	for i := range terminator {
		terminator[i] = 0xFF
	}
	data = append(data, f0[:]...)
	data = append(data, f1[:]...)
	data = append(data, terminator[:]...)
	// Garbage after the terminator must be ignored.
	data = append(data, frameWith(0, 1)[:]...)

	w, err := ParseWaveform(data)
	if err != nil {
		t.Fatalf("ParseWaveform: %v", err)
	}
	if w.FrameCount() != 2 {
		t.Fatalf("frame count = %d, want 2", w.FrameCount())
	}
	if got := w.At(0, 0, 15); got != ActionUp {
		t.Errorf("frame 0 action 0->15 = %v, want up", got)
	}
	if got := w.At(0, 15, 0); got != ActionKeep {
		t.Errorf("frame 0 action 15->0 = %v, want keep", got)
	}
	if got := w.At(1, 15, 0); got != ActionDown {
		t.Errorf("frame 1 action 15->0 = %v, want down", got)
	}
}

func TestParseWaveformRejects(t *testing.T) {
	if _, err := ParseWaveform(make([]byte, 63)); err == nil {
		t.Error("truncated data accepted")
	}
	bad := frameWith(waveformIndex(3, 3), 0x3)
	if _, err := ParseWaveform(bad[:]); err == nil {
		t.Error("reserved 2-bit value accepted")
	}
}

func TestWaveformIndexMirrorsDestination(t *testing.T) {
	// The destination axis runs backwards inside each 16-cell group.
	if got := waveformIndex(0, 15); got != 0 {
		t.Errorf("index(0,15) = %d, want 0", got)
	}
	if got := waveformIndex(0, 0); got != 15 {
		t.Errorf("index(0,0) = %d, want 15", got)
	}
	if got := waveformIndex(2, 7); got != 2*16+8 {
		t.Errorf("index(2,7) = %d, want %d", got, 2*16+8)
	}
}

func TestWaveformString(t *testing.T) {
	f := frameWith(waveformIndex(1, 2), byte(ActionDown))
	w, err := ParseWaveform(f[:])
	if err != nil {
		t.Fatalf("ParseWaveform: %v", err)
	}
	out := w.String()
	if !strings.Contains(out, "total 1 frames") {
		t.Errorf("missing frame count in %q", out)
	}
	if !strings.Contains(out, "01 -> 02: ↓") {
		t.Errorf("missing transition line in:\n%s", out)
	}
}
