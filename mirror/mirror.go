// Copyright 2024 The Inkmirror Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mirror runs the refresh scheduler: it pulls frames from a capture
// source, converts them to the panel encoding, diffs rows against what is
// already in device memory, uploads the minimum strip and orchestrates
// overlapping partial refreshes against the panel's per-region busy state.
package mirror

import (
	"fmt"
	"image"
	"log"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/epdlab/inkmirror/capture"
	"github.com/epdlab/inkmirror/imgproc"
	"github.com/epdlab/inkmirror/it8915"
	"github.com/epdlab/inkmirror/pix"
	"github.com/epdlab/inkmirror/runmode"
)

// Scheduling tunables.
const (
	// fullRefreshIdleDelay forces one ghost-clearing full refresh after this
	// much time without changes.
	fullRefreshIdleDelay = 120 * time.Second
	// fullRefreshMinInterval suppresses duplicate reload-triggered full
	// refreshes within this period.
	fullRefreshMinInterval = 3 * time.Second
	// textRowTypicalHeight groups dirty rows into text-line-sized bands when
	// judging how much of the screen changed.
	textRowTypicalHeight = 40
	// slowRefreshRowRatioThreshold switches from the fast to the slow
	// waveform once the banded dirty rows cover this fraction of the canvas.
	slowRefreshRowRatioThreshold = 0.5
)

// Panel is the controller surface the scheduler drives. *it8915.Dev
// implements it.
type Panel interface {
	ScreenSize() image.Point
	MemPitch(mode it8915.MemMode) int
	SetMemoryMode(mode it8915.MemMode) error
	LoadImageFullWidth(rowOffset int, img *pix.Image) error
	DisplayArea(r image.Rectangle, mode it8915.DisplayMode, waitReady bool) error
	Reset() error
	Busy() (bool, error)
}

var _ Panel = (*it8915.Dev)(nil)

// Options configures a Mirror.
type Options struct {
	// Rotation applied between the capture frame and the panel.
	Rotation imgproc.Rotation

	// ModeFunc produces the current run mode; it is consulted at start and
	// whenever Reload is set. An error keeps the previous mode.
	ModeFunc func() (runmode.Mode, error)

	// Reload and Terminate are polled once per loop iteration. Signal
	// handlers and the control server only ever set them.
	Reload    *atomic.Bool
	Terminate *atomic.Bool

	// DriverPollInterval is the sleep between busy-state polls.
	DriverPollInterval time.Duration
	// SourcePollInterval is the back-off when no frame is available or
	// nothing changed.
	SourcePollInterval time.Duration

	// Verbose enables per-frame timing logs.
	Verbose bool
}

// Mirror owns the single scheduler thread's state.
type Mirror struct {
	panel  Panel
	source capture.Source
	opts   Options

	mode     runmode.Mode
	monoProc imgproc.MonoProcessor

	// loadedRowHashes holds one hash per row of the buffer last committed
	// to device memory; nil until the first load.
	loadedRowHashes []uint64

	dirty         *rowSet
	displaying    *rowSet
	fullRefreshed bool

	tLastUpdate     time.Time
	tLastNeedUpdate time.Time
}

// New validates the wiring and builds a scheduler. The capture frame size
// must match the panel canvas through the configured rotation.
func New(p Panel, src capture.Source, opts Options) (*Mirror, error) {
	canvas := p.ScreenSize()
	if got := opts.Rotation.RotatedSize(src.Size()); got != canvas {
		return nil, fmt.Errorf("mirror: source size %v rotates to %v, panel canvas is %v",
			src.Size(), got, canvas)
	}
	if opts.ModeFunc == nil {
		opts.ModeFunc = func() (runmode.Mode, error) { return runmode.Default(), nil }
	}
	if opts.Reload == nil {
		opts.Reload = new(atomic.Bool)
	}
	if opts.Terminate == nil {
		opts.Terminate = new(atomic.Bool)
	}
	if opts.DriverPollInterval <= 0 {
		opts.DriverPollInterval = 10 * time.Millisecond
	}
	if opts.SourcePollInterval <= 0 {
		opts.SourcePollInterval = 30 * time.Millisecond
	}

	mode, err := opts.ModeFunc()
	if err != nil {
		log.Printf("mirror: cannot determine run mode, using default: %v", err)
		mode = runmode.Default()
	}
	m := &Mirror{
		panel:      p,
		source:     src,
		opts:       opts,
		mode:       mode,
		dirty:      newRowSet(canvas.Y),
		displaying: newRowSet(canvas.Y),
	}
	m.monoProc = imgproc.NewMonoProcessor(imgproc.MonoOptions{
		InputSize:   src.Size(),
		OutputSize:  canvas,
		OutputPitch: p.MemPitch(it8915.Mem1bpp),
		Rotation:    opts.Rotation,
	})
	return m, nil
}

// Run drives the panel until Terminate is set or a driver error occurs. On
// termination the display is reset; on error a reset is attempted before
// the error is returned.
func (m *Mirror) Run() error {
	if err := m.runLoop(); err != nil {
		if rerr := m.panel.Reset(); rerr != nil {
			log.Printf("mirror: reset after failure: %v", rerr)
		}
		return err
	}
	return m.panel.Reset()
}

func (m *Mirror) runLoop() error {
	if err := m.panel.SetMemoryMode(m.mode.MemMode()); err != nil {
		return err
	}
	m.tLastUpdate = time.Now()

	for !m.opts.Terminate.Swap(false) {
		if err := m.iterate(); err != nil {
			return err
		}
	}
	return nil
}

// iterate runs one pass of the scheduler: reload handling, frame load and
// diff, full-refresh policy, overlap check and partial-refresh dispatch.
func (m *Mirror) iterate() error {
	reloadRequested := m.opts.Reload.Swap(false)
	if reloadRequested {
		if err := m.reloadMode(); err != nil {
			return err
		}
	}

	loaded, err := m.loadFrame()
	if err != nil {
		return err
	}
	if !loaded {
		// Frame not ready.
		time.Sleep(m.opts.SourcePollInterval)
		return nil
	}

	needDisplay := !m.dirty.empty()
	fullRefresh := (reloadRequested &&
		(!m.fullRefreshed || time.Since(m.tLastUpdate) > fullRefreshMinInterval)) ||
		(!needDisplay && time.Since(m.tLastUpdate) > fullRefreshIdleDelay && !m.fullRefreshed)
	if fullRefresh {
		log.Printf("mirror: full refresh")
		if _, err := m.pollDisplayReady(true); err != nil {
			return err
		}
		if err := m.displayFullRefresh(); err != nil {
			return err
		}
		m.tLastUpdate = time.Now()
		m.tLastNeedUpdate = time.Time{}
		return nil
	}

	if !needDisplay {
		// Frame not changed.
		time.Sleep(m.opts.SourcePollInterval)
		return nil
	}

	if m.tLastNeedUpdate.IsZero() {
		m.tLastNeedUpdate = time.Now()
	}

	ready, err := m.pollDisplayReady(false)
	if err != nil {
		return err
	}
	if !ready && !m.canDisplayNonOverlapping() {
		// The dirty band collides with rows still being driven. Wait for
		// the panel and loop again so the freshest frame wins.
		_, err := m.pollDisplayReady(true)
		return err
	}

	displayed, err := m.displayDirty()
	if err != nil {
		return err
	}
	now := time.Now()
	log.Printf("mirror: new frame displayed, process delay %v, mode %s",
		now.Sub(m.tLastNeedUpdate), displayed)
	m.tLastUpdate = now
	m.tLastNeedUpdate = time.Time{}
	return nil
}

// reloadMode re-queries the mode callback and, if the mode changed, resets
// the panel into the new memory encoding.
func (m *Mirror) reloadMode() error {
	newMode, err := m.opts.ModeFunc()
	if err != nil {
		log.Printf("mirror: keeping run mode %s: %v", m.mode, err)
		return nil
	}
	if newMode == m.mode {
		return nil
	}
	log.Printf("mirror: switching to run mode %s", newMode)
	if _, err := m.pollDisplayReady(true); err != nil {
		return err
	}
	if err := m.panel.Reset(); err != nil {
		return err
	}
	m.loadedRowHashes = nil
	m.mode = newMode
	return m.panel.SetMemoryMode(newMode.MemMode())
}

// loadFrame pulls a frame, converts it for the active mode and uploads the
// bounding strip of changed rows. It reports false when no frame was
// available; errors are fatal driver failures.
func (m *Mirror) loadFrame() (bool, error) {
	tStart := time.Now()
	frame, err := m.source.Frame()
	if err != nil {
		if err != capture.ErrNoFrame {
			log.Printf("mirror: no frame: %v", err)
		}
		return false, nil
	}
	tGotFrame := time.Now()

	buf := m.convertFrame(frame)
	tConverted := time.Now()

	hashes := hashRows(buf)
	modified := m.modifiedRows(hashes)
	if !modified.empty() {
		lo, hi := modified.min(), modified.max()+1
		strip := buf.SubImage(image.Rect(0, lo, buf.Width(), hi))
		if err := m.panel.LoadImageFullWidth(lo, strip); err != nil {
			return false, err
		}
		for r, set := range modified.rows {
			if set {
				m.dirty.add(r)
			}
		}
		m.loadedRowHashes = hashes
	}
	if m.opts.Verbose {
		log.Printf("mirror: frame loaded, %d dirty rows accumulated (grab %v, convert %v, upload %v)",
			m.dirty.len(), tGotFrame.Sub(tStart), tConverted.Sub(tGotFrame), time.Since(tConverted))
	}
	return true, nil
}

// convertFrame runs the mode's pixel pipeline, producing a buffer whose
// pitch equals the device memory pitch.
func (m *Mirror) convertFrame(frame *pix.Image) *pix.Image {
	canvas := m.panel.ScreenSize()
	switch m.mode.Pipeline {
	case runmode.Gray:
		rotated := imgproc.Rotate(frame, m.opts.Rotation)
		return imgproc.FloydSteinberg(rotated, imgproc.Grey16Target, m.panel.MemPitch(it8915.Mem8bpp))
	default:
		mono := pix.NewBufferPitch(pix.Mono1, canvas.X, canvas.Y, m.panel.MemPitch(it8915.Mem1bpp))
		m.monoProc.Process(frame, mono, m.mode.Dither)
		if m.mode.Pipeline == runmode.MonoForce8bpp {
			return imgproc.RepackMono(mono, pix.Mono8, m.panel.MemPitch(it8915.Mem8bpp))
		}
		return mono
	}
}

// hashRows hashes the live bytes of every row. Only row equality matters;
// collisions cost at most one extra identical upload.
func hashRows(img *pix.Image) []uint64 {
	hashes := make([]uint64, img.Height())
	for y := range hashes {
		hashes[y] = xxhash.Sum64(img.Row(y))
	}
	return hashes
}

// modifiedRows compares against the last committed hashes; with no prior
// load every row is dirty.
func (m *Mirror) modifiedRows(hashes []uint64) *rowSet {
	set := newRowSet(len(hashes))
	if m.loadedRowHashes == nil {
		set.addRange(0, len(hashes))
		return set
	}
	for y, h := range hashes {
		if h != m.loadedRowHashes[y] {
			set.add(y)
		}
	}
	return set
}

// pollDisplayReady checks the panel busy state. When the panel is idle the
// displaying set is cleared. With block it polls until idle.
func (m *Mirror) pollDisplayReady(block bool) (bool, error) {
	for {
		busy, err := m.panel.Busy()
		if err != nil {
			return false, err
		}
		if !busy {
			m.displaying.clear()
			return true, nil
		}
		if !block {
			return false, nil
		}
		time.Sleep(m.opts.DriverPollInterval)
	}
}

// canDisplayNonOverlapping reports whether the pending dirty band misses
// every row still being driven, so a refresh can start while the panel is
// busy elsewhere.
func (m *Mirror) canDisplayNonOverlapping() bool {
	if m.dirty.empty() || m.displaying.empty() {
		return false
	}
	return !m.displaying.overlaps(m.dirty.min(), m.dirty.max()+1)
}

// displayDirty dispatches a non-blocking partial refresh of the dirty band,
// choosing the fast waveform for small edits and the slow one once the
// banded dirty rows cover half the canvas.
func (m *Mirror) displayDirty() (it8915.DisplayMode, error) {
	canvas := m.panel.ScreenSize()
	expanded := m.dirty.expandedCount(textRowTypicalHeight)
	mode := m.mode.FastDisplayMode()
	if expanded >= int(float64(canvas.Y)*slowRefreshRowRatioThreshold) {
		mode = m.mode.SlowDisplayMode()
	}
	lo, hi := m.dirty.min(), m.dirty.max()+1
	region := image.Rect(0, lo, canvas.X, hi)
	if err := m.panel.DisplayArea(region, mode, false); err != nil {
		return mode, err
	}
	m.displaying.addRange(lo, hi)
	m.dirty.clear()
	m.fullRefreshed = false
	return mode, nil
}

// displayFullRefresh blocks through a canvas-wide GC16 pass that clears
// accumulated ghosting.
func (m *Mirror) displayFullRefresh() error {
	canvas := m.panel.ScreenSize()
	if err := m.panel.DisplayArea(image.Rectangle{Max: canvas}, it8915.GC16, true); err != nil {
		return err
	}
	m.dirty.clear()
	m.displaying.clear()
	m.fullRefreshed = true
	return nil
}
