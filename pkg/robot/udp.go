package robot

import (
	"fmt"
	"net"
	"sync"
)

// UDPController sends one datagram per pan command to a networked motor driver.
type UDPController struct {
	addr string

	mu     sync.Mutex
	conn   net.Conn
	closed bool
}

// NewUDPController dials addr ("host:port").
func NewUDPController(addr string) (*UDPController, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial udp %s: %w", addr, err)
	}
	return &UDPController{addr: addr, conn: conn}, nil
}

// SetPan sends the command line as a single datagram.
func (u *UDPController) SetPan(command float64) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.closed {
		return ErrNotConnected
	}
	if _, err := u.conn.Write(FormatPan(command)); err != nil {
		return fmt.Errorf("udp send to %s failed: %w", u.addr, err)
	}
	return nil
}

// Close closes the socket.
func (u *UDPController) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.closed {
		return nil
	}
	u.closed = true
	return u.conn.Close()
}
