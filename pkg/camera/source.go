package camera

import (
	"context"
	"errors"
	"image"
	"sync"
)

// ErrEndOfStream is returned by Next when a finite source is exhausted.
var ErrEndOfStream = errors.New("camera: end of stream")

// ErrClosed is returned by Next after Close.
var ErrClosed = errors.New("camera: source closed")

// Source produces frames one at a time.
type Source interface {
	// Next blocks until the next frame is available.
	Next(ctx context.Context) (image.Image, error)

	// Close releases the capture resources.
	Close() error
}

// SliceSource replays in-memory frames. Used by tests and dry runs.
type SliceSource struct {
	mu     sync.Mutex
	frames []image.Image
	pos    int
	loop   bool
	closed bool
}

// NewSliceSource creates a source over frames. With loop it never ends.
func NewSliceSource(frames []image.Image, loop bool) *SliceSource {
	return &SliceSource{frames: frames, loop: loop}
}

// Next returns the next frame or ErrEndOfStream.
func (s *SliceSource) Next(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if s.pos >= len(s.frames) {
		if !s.loop || len(s.frames) == 0 {
			return nil, ErrEndOfStream
		}
		s.pos = 0
	}

	frame := s.frames[s.pos]
	s.pos++
	return frame, nil
}

// Close stops the source.
func (s *SliceSource) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
