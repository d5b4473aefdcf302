// Copyright 2024 The Inkmirror Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package runmode

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/epdlab/inkmirror/imgproc"
	"github.com/epdlab/inkmirror/it8915"
)

func TestParse(t *testing.T) {
	for _, tc := range []struct {
		token string
		want  Mode
	}{
		{"mono_bayers4", Mode{Mono, imgproc.Bayers4}},
		{"mono_bayers2", Mode{Mono, imgproc.Bayers2}},
		{"mono_naive", Mode{Mono, imgproc.NoDithering}},
		{"mono_8bpp_bayers4", Mode{MonoForce8bpp, imgproc.Bayers4}},
		{"mono_8bpp_bayers2", Mode{MonoForce8bpp, imgproc.Bayers2}},
		{"mono_8bpp_naive", Mode{MonoForce8bpp, imgproc.NoDithering}},
		{"gray", Mode{Gray, imgproc.NoDithering}},
	} {
		got, err := Parse(tc.token)
		if err != nil || got != tc.want {
			t.Errorf("Parse(%q) = (%v, %v), want %v", tc.token, got, err, tc.want)
		}
		if got.String() != tc.token {
			t.Errorf("String() = %q, want %q", got.String(), tc.token)
		}
	}

	if _, err := Parse("mono_bayers8"); err == nil {
		t.Error("unknown token accepted")
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run-mode")
	if err := os.WriteFile(path, []byte("gray\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFile(path)
	if err != nil || got.Pipeline != Gray {
		t.Errorf("ReadFile = (%v, %v), want gray", got, err)
	}

	if err := os.WriteFile(path, []byte("nonsense\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(path); err == nil {
		t.Error("malformed config accepted")
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestModeMappings(t *testing.T) {
	for _, tc := range []struct {
		mode     Mode
		fast     it8915.DisplayMode
		slow     it8915.DisplayMode
		mem      it8915.MemMode
	}{
		{Mode{Mono, imgproc.Bayers4}, it8915.A2, it8915.DU, it8915.Mem1bpp},
		{Mode{MonoForce8bpp, imgproc.Bayers2}, it8915.A2, it8915.DU, it8915.Mem8bpp},
		{Mode{Gray, imgproc.NoDithering}, it8915.GL16, it8915.GL16, it8915.Mem8bpp},
	} {
		if got := tc.mode.FastDisplayMode(); got != tc.fast {
			t.Errorf("%v fast = %s, want %s", tc.mode, got, tc.fast)
		}
		if got := tc.mode.SlowDisplayMode(); got != tc.slow {
			t.Errorf("%v slow = %s, want %s", tc.mode, got, tc.slow)
		}
		if got := tc.mode.MemMode(); got != tc.mem {
			t.Errorf("%v mem = %s, want %s", tc.mode, got, tc.mem)
		}
	}
}

func TestDefault(t *testing.T) {
	if got := Default(); got != (Mode{Mono, imgproc.Bayers4}) {
		t.Errorf("Default() = %v, want mono_bayers4", got)
	}
}
