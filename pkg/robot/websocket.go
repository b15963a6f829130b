package robot

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketController streams pan commands as text messages to a motor bridge.
type WebSocketController struct {
	url string

	mu     sync.Mutex
	ws     *websocket.Conn
	closed bool
}

// NewWebSocketController connects to url (ws:// or wss://).
func NewWebSocketController(url string) (*WebSocketController, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	ws, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket connect to %s failed: %w", url, err)
	}

	return &WebSocketController{url: url, ws: ws}, nil
}

// SetPan sends one text message.
func (w *WebSocketController) SetPan(command float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrNotConnected
	}
	if err := w.ws.WriteMessage(websocket.TextMessage, FormatPan(command)); err != nil {
		return fmt.Errorf("websocket send failed: %w", err)
	}
	return nil
}

// Close sends a close frame and closes the connection.
func (w *WebSocketController) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = w.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return w.ws.Close()
}
