// Copyright 2024 The Inkmirror Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mirror

import (
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/epdlab/inkmirror/runmode"
)

const controlReadTimeout = 3 * time.Second

// ModeCell hands run-mode overrides from the control server to the
// scheduler thread. The scheduler's mode callback takes a pending value if
// one exists and falls back to the config file otherwise.
type ModeCell struct {
	mu      sync.Mutex
	pending *runmode.Mode
}

// Put stores a pending mode override.
func (c *ModeCell) Put(m runmode.Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = &m
}

// Take removes and returns the pending override, if any.
func (c *ModeCell) Take() (runmode.Mode, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return runmode.Mode{}, false
	}
	m := *c.pending
	c.pending = nil
	return m, true
}

// FileModeFunc builds a scheduler mode callback: control-server overrides
// from cell win, otherwise the run-mode config file is re-read. A missing
// file yields the default mode; a malformed one is an error the scheduler
// logs and ignores.
func FileModeFunc(path string, cell *ModeCell) func() (runmode.Mode, error) {
	return func() (runmode.Mode, error) {
		if cell != nil {
			if m, ok := cell.Take(); ok {
				return m, nil
			}
		}
		m, err := runmode.ReadFile(path)
		if os.IsNotExist(err) {
			return runmode.Default(), nil
		}
		return m, err
	}
}

// ServeControl accepts connections on a unix socket; each connection sends
// one run-mode token. Valid tokens are handed to the scheduler through cell
// and reload. The listener runs until accept fails.
func ServeControl(socketPath string, cell *ModeCell, reload *atomic.Bool) error {
	_ = os.Remove(socketPath)
	l, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("mirror: control socket: %w", err)
	}
	defer l.Close()
	for {
		conn, err := l.Accept()
		if err != nil {
			return fmt.Errorf("mirror: control accept: %w", err)
		}
		if err := handleControlClient(conn, cell, reload); err != nil {
			log.Printf("mirror: control request rejected: %v", err)
		}
	}
}

func handleControlClient(conn net.Conn, cell *ModeCell, reload *atomic.Bool) error {
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(controlReadTimeout))
	content, err := io.ReadAll(io.LimitReader(conn, 256))
	if err != nil {
		return err
	}
	mode, err := runmode.Parse(strings.TrimSpace(string(content)))
	if err != nil {
		return err
	}
	cell.Put(mode)
	reload.Store(true)
	return nil
}
