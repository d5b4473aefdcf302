// Copyright 2024 The Inkmirror Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package capture

import (
	"fmt"
	"image"
	"io"
	"log"
	"sync"

	"github.com/epdlab/inkmirror/pix"
)

// RawStream reads densely packed BGRA frames from a byte stream, typically
// stdin fed by an external recorder. A background goroutine deposits the
// most recent frame into a mutex-guarded slot; Frame never blocks on the
// reader.
type RawStream struct {
	size image.Point

	mu   sync.Mutex
	next *pix.Image
	err  error

	current *pix.Image

	closeOnce sync.Once
	closed    chan struct{}
}

// NewRawStream starts reading size.X*4*size.Y-byte frames from r.
func NewRawStream(r io.Reader, size image.Point) *RawStream {
	s := &RawStream{size: size, closed: make(chan struct{})}
	go s.readLoop(r)
	return s
}

func (s *RawStream) readLoop(r io.Reader) {
	for {
		select {
		case <-s.closed:
			return
		default:
		}
		frame := pix.NewBuffer(pix.BGRA32, s.size.X, s.size.Y)
		if _, err := io.ReadFull(r, frame.Raw()); err != nil {
			log.Printf("capture: raw stream ended: %v", err)
			s.mu.Lock()
			s.err = fmt.Errorf("capture: raw stream: %w", err)
			s.mu.Unlock()
			return
		}
		s.mu.Lock()
		s.next = frame
		s.mu.Unlock()
	}
}

// Frame implements Source. It returns ErrNoFrame until the first complete
// frame has arrived, then always the latest one.
func (s *RawStream) Frame() (*pix.Image, error) {
	s.mu.Lock()
	if s.next != nil {
		s.current, s.next = s.next, nil
	}
	err := s.err
	s.mu.Unlock()

	if s.current == nil {
		if err != nil {
			return nil, err
		}
		return nil, ErrNoFrame
	}
	return s.current, nil
}

// Size implements Source.
func (s *RawStream) Size() image.Point { return s.size }

// Close stops the reader goroutine at its next frame boundary.
func (s *RawStream) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}
