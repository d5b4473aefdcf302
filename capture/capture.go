// Copyright 2024 The Inkmirror Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package capture defines the pull-style frame source consumed by the
// refresh scheduler, plus the portable source implementations. Concrete
// desktop grabbers register themselves with Register and are selected by a
// spec string.
package capture

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/epdlab/inkmirror/pix"
)

// ErrNoFrame reports that no frame is available yet. The scheduler treats it
// as transient and retries after its poll interval.
var ErrNoFrame = errors.New("capture: frame not ready")

// Source produces fixed-size BGRA32 frames. The API pulls rather than
// pushes so the consumer always sees the latest frame with the smallest
// possible latency.
type Source interface {
	// Frame returns a read-only view of the most recent frame. The view
	// borrows the source's internal buffer and is valid until the next
	// Frame call.
	Frame() (*pix.Image, error)
	// Size returns the declared frame size.
	Size() image.Point
	Close() error
}

// Factory builds a Source from the argument part of a spec string. size is
// the frame size the consumer requires, offset the configured crop origin.
type Factory func(arg string, size image.Point, offset image.Point) (Source, error)

var (
	registryMu sync.Mutex
	registry   = map[string]Factory{}
)

// Register makes a source backend available to New under the given scheme.
func Register(scheme string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[scheme]; dup {
		panic(fmt.Sprintf("capture: scheme %q registered twice", scheme))
	}
	registry[scheme] = f
}

// New builds a source from a "scheme:arg" spec.
func New(spec string, size image.Point, offset image.Point) (Source, error) {
	scheme, arg, _ := strings.Cut(spec, ":")
	registryMu.Lock()
	f, ok := registry[scheme]
	registryMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("capture: unknown source %q (have %s)", spec, strings.Join(schemes(), ", "))
	}
	return f(arg, size, offset)
}

func schemes() []string {
	s := make([]string, 0, len(registry))
	for k := range registry {
		s = append(s, k)
	}
	sort.Strings(s)
	return s
}

func init() {
	Register("raw", func(arg string, size image.Point, _ image.Point) (Source, error) {
		if arg == "-" || arg == "" {
			return NewRawStream(os.Stdin, size), nil
		}
		f, err := os.Open(arg)
		if err != nil {
			return nil, err
		}
		return NewRawStream(f, size), nil
	})
}
