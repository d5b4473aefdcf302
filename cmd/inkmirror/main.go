// Copyright 2024 The Inkmirror Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// inkmirror continuously mirrors a screen region to an IT8915-driven e-paper
// panel.
//
// SIGUSR1 and SIGHUP reload the run-mode config; SIGINT and SIGTERM stop the
// mirror after a final display reset.
package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"math"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/epdlab/inkmirror/capture"
	"github.com/epdlab/inkmirror/imgproc"
	"github.com/epdlab/inkmirror/it8915"
	"github.com/epdlab/inkmirror/it8915/transport"
	"github.com/epdlab/inkmirror/mirror"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if err := run(); err != nil {
		log.Fatalf("inkmirror: %v", err)
	}
}

func run() error {
	var (
		device        = flag.String("device", "", "device spec: SCSI node path, USB \"bus,addr\", or empty for auto")
		sourceSpec    = flag.String("source", "raw:-", "capture source spec")
		sourceOffX    = flag.Int("source-offx", 0, "capture x offset")
		sourceOffY    = flag.Int("source-offy", 0, "capture y offset")
		vcomFlag      = flag.String("vcom", "", "panel VCOM, volts (e.g. -1.58) or millivolts (e.g. 1580)")
		rotationFlag  = flag.String("rotation", "no-rotation", "no-rotation, rotate90, rotate180 or rotate270")
		driverPollMS  = flag.Int("driver-poll-ready-interval", 10, "busy-poll interval in milliseconds")
		sourcePollMS  = flag.Int("source-poll-interval", 30, "source back-off interval in milliseconds")
		runModeConfig = flag.String("run-mode-config", "", "path to the one-line run-mode config file")
		controlSocket = flag.String("control-socket", "", "optional unix socket accepting run-mode tokens")
		verbose       = flag.Bool("verbose", false, "log per-frame timings")
	)
	flag.Parse()

	rotation, err := imgproc.ParseRotation(*rotationFlag)
	if err != nil {
		return err
	}

	dev, err := openPanel(*device, *vcomFlag)
	if err != nil {
		return err
	}
	defer dev.Close()

	sourceSize := rotation.RotatedSize(dev.ScreenSize())
	src, err := capture.New(*sourceSpec, sourceSize, image.Pt(*sourceOffX, *sourceOffY))
	if err != nil {
		return err
	}
	defer src.Close()

	reload := new(atomic.Bool)
	terminate := new(atomic.Bool)
	watchSignals(reload, terminate)

	cell := &mirror.ModeCell{}
	if *controlSocket != "" {
		go func() {
			if err := mirror.ServeControl(*controlSocket, cell, reload); err != nil {
				log.Printf("inkmirror: control server stopped: %v", err)
			}
		}()
	}

	m, err := mirror.New(dev, src, mirror.Options{
		Rotation:           rotation,
		ModeFunc:           mirror.FileModeFunc(*runModeConfig, cell),
		Reload:             reload,
		Terminate:          terminate,
		DriverPollInterval: time.Duration(*driverPollMS) * time.Millisecond,
		SourcePollInterval: time.Duration(*sourcePollMS) * time.Millisecond,
		Verbose:            *verbose,
	})
	if err != nil {
		return err
	}
	return m.Run()
}

func openPanel(deviceSpec, vcomSpec string) (*it8915.Dev, error) {
	t, err := transport.Open(deviceSpec)
	if err != nil {
		return nil, err
	}
	dev, err := it8915.Open(t)
	if err != nil {
		t.Close()
		return nil, err
	}
	power := true
	var vcom *uint16
	if vcomSpec != "" {
		mv, err := parseVCOM(vcomSpec)
		if err != nil {
			dev.Close()
			return nil, err
		}
		vcom = &mv
	}
	if err := dev.PMICControl(vcom, &power); err != nil {
		dev.Close()
		return nil, err
	}
	if err := dev.Reset(); err != nil {
		dev.Close()
		return nil, err
	}
	return dev, nil
}

// parseVCOM accepts millivolts as an unsigned integer or volts as a float;
// the sign is ignored since the panel bias is always negative.
func parseVCOM(s string) (uint16, error) {
	if mv, err := strconv.ParseUint(s, 10, 16); err == nil {
		return uint16(mv), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid vcom %q", s)
	}
	mv := math.Abs(v) * 1000
	if mv > math.MaxUint16 {
		return 0, fmt.Errorf("vcom %q out of range", s)
	}
	return uint16(math.Round(mv)), nil
}

func watchSignals(reload, terminate *atomic.Bool) {
	reloadCh := make(chan os.Signal, 1)
	signal.Notify(reloadCh, syscall.SIGUSR1, syscall.SIGHUP)
	terminateCh := make(chan os.Signal, 1)
	signal.Notify(terminateCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for {
			select {
			case <-reloadCh:
				reload.Store(true)
			case <-terminateCh:
				terminate.Store(true)
			}
		}
	}()
}
