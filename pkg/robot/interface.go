// Package robot provides the pan motor transports for the turret.
//
// Every transport implements PanController. Consumers should depend only on
// SetPan; Close is for the process that owns the connection.
package robot

import (
	"errors"
	"io"
)

// ErrNotConnected is returned when a command is sent on a closed transport.
var ErrNotConnected = errors.New("robot: not connected")

// PanController drives the pan motor.
// Use this minimal interface when only motion is needed (e.g., tracking).
type PanController interface {
	SetPan(command float64) error
}

// Controller is a pan transport that owns a connection.
type Controller interface {
	PanController
	io.Closer
}

// Ensure every transport implements Controller
var (
	_ Controller = (*SerialController)(nil)
	_ Controller = (*UDPController)(nil)
	_ Controller = (*WebSocketController)(nil)
	_ Controller = (*HTTPController)(nil)
	_ Controller = (*LogController)(nil)
	_ Controller = (*Recorder)(nil)
)
