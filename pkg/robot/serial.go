package robot

import (
	"fmt"
	"io"
	"sync"

	"go.bug.st/serial"
)

// SerialController writes pan commands to the motor driver over a serial line.
type SerialController struct {
	path string

	mu     sync.Mutex
	port   io.WriteCloser
	closed bool
}

// NewSerialController opens the serial port at path.
func NewSerialController(path string, opts PortOptions) (*SerialController, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", path, err)
	}

	return &SerialController{path: path, port: port}, nil
}

// NewSerialControllerFromPort wraps an already open port.
func NewSerialControllerFromPort(path string, port io.WriteCloser) *SerialController {
	return &SerialController{path: path, port: port}
}

// SetPan writes one command line.
func (s *SerialController) SetPan(command float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrNotConnected
	}
	if _, err := s.port.Write(FormatPan(command)); err != nil {
		return fmt.Errorf("serial write to %s failed: %w", s.path, err)
	}
	return nil
}

// Close releases the port. Further commands return ErrNotConnected.
func (s *SerialController) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.port.Close()
}
