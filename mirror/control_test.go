// Copyright 2024 The Inkmirror Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mirror

import (
	"net"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/epdlab/inkmirror/imgproc"
	"github.com/epdlab/inkmirror/runmode"
)

func TestModeCell(t *testing.T) {
	var c ModeCell
	if _, ok := c.Take(); ok {
		t.Fatal("empty cell returned a value")
	}
	c.Put(runmode.Mode{Pipeline: runmode.Gray})
	c.Put(runmode.Mode{Pipeline: runmode.Mono, Dither: imgproc.Bayers2})
	got, ok := c.Take()
	if !ok || got.Dither != imgproc.Bayers2 {
		t.Errorf("Take = (%v, %t), want latest put", got, ok)
	}
	if _, ok := c.Take(); ok {
		t.Error("second Take returned a value")
	}
}

func TestFileModeFunc(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run-mode")
	cell := &ModeCell{}
	fn := FileModeFunc(path, cell)

	// Missing file falls back to the default mode.
	if m, err := fn(); err != nil || m != runmode.Default() {
		t.Errorf("missing file: (%v, %v), want default", m, err)
	}

	if err := os.WriteFile(path, []byte("gray\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if m, err := fn(); err != nil || m.Pipeline != runmode.Gray {
		t.Errorf("file mode: (%v, %v), want gray", m, err)
	}

	// A control-server override wins over the file.
	cell.Put(runmode.Mode{Pipeline: runmode.Mono, Dither: imgproc.Bayers4})
	if m, err := fn(); err != nil || m.Pipeline != runmode.Mono {
		t.Errorf("override: (%v, %v), want mono", m, err)
	}
	// And is consumed: the next call reads the file again.
	if m, err := fn(); err != nil || m.Pipeline != runmode.Gray {
		t.Errorf("after override: (%v, %v), want gray", m, err)
	}

	if err := os.WriteFile(path, []byte("bogus\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := fn(); err == nil {
		t.Error("malformed file accepted")
	}
}

func TestServeControl(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "control.sock")
	cell := &ModeCell{}
	reload := new(atomic.Bool)
	go func() {
		if err := ServeControl(sock, cell, reload); err != nil {
			t.Logf("ServeControl: %v", err)
		}
	}()

	conn := dialRetry(t, sock)
	if _, err := conn.Write([]byte("mono_naive\n")); err != nil {
		t.Fatal(err)
	}
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for !reload.Load() {
		if time.Now().After(deadline) {
			t.Fatal("reload flag never set")
		}
		time.Sleep(5 * time.Millisecond)
	}
	got, ok := cell.Take()
	if !ok || got.Dither != imgproc.NoDithering || got.Pipeline != runmode.Mono {
		t.Errorf("cell = (%v, %t), want mono_naive", got, ok)
	}

	// A bad token is rejected without touching the flag.
	reload.Store(false)
	conn = dialRetry(t, sock)
	conn.Write([]byte("nonsense"))
	conn.Close()
	time.Sleep(50 * time.Millisecond)
	if reload.Load() {
		t.Error("reload set for invalid token")
	}
}

func dialRetry(t *testing.T, sock string) net.Conn {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		conn, err := net.Dial("unix", sock)
		if err == nil {
			return conn
		}
		if time.Now().After(deadline) {
			t.Fatalf("dial %s: %v", sock, err)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
