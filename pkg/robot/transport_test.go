package robot

import (
	"bytes"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePort is an in-memory serial port
type fakePort struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	closed bool
	err    error
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return 0, p.err
	}
	return p.buf.Write(b)
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func TestSerialController_WritesLines(t *testing.T) {
	port := &fakePort{}
	ctrl := NewSerialControllerFromPort("/dev/fake", port)

	require.NoError(t, ctrl.SetPan(61.2))
	require.NoError(t, ctrl.SetPan(0))

	assert.Equal(t, "PAN:61.20\nPAN:0.00\n", port.buf.String())
}

func TestSerialController_Closed(t *testing.T) {
	port := &fakePort{}
	ctrl := NewSerialControllerFromPort("/dev/fake", port)

	require.NoError(t, ctrl.Close())
	require.NoError(t, ctrl.Close())
	assert.True(t, port.closed)
	assert.ErrorIs(t, ctrl.SetPan(1), ErrNotConnected)
}

func TestSerialController_WriteError(t *testing.T) {
	cause := errors.New("device unplugged")
	ctrl := NewSerialControllerFromPort("/dev/fake", &fakePort{err: cause})

	err := ctrl.SetPan(1)
	assert.ErrorIs(t, err, cause)
}

func TestUDPController_SendsDatagram(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	ctrl, err := NewUDPController(pc.LocalAddr().String())
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.SetPan(-42.5))

	buf := make([]byte, 64)
	require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)

	v, err := ParsePan(string(buf[:n]))
	require.NoError(t, err)
	assert.Equal(t, -42.5, v)

	require.NoError(t, ctrl.Close())
	assert.ErrorIs(t, ctrl.SetPan(1), ErrNotConnected)
}

func TestWebSocketController_SendsText(t *testing.T) {
	received := make(chan string, 1)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		_, msg, err := ws.ReadMessage()
		if err == nil {
			received <- string(msg)
		}
	}))
	defer srv.Close()

	ctrl, err := NewWebSocketController("ws" + strings.TrimPrefix(srv.URL, "http"))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.SetPan(12.5))

	select {
	case msg := <-received:
		assert.Equal(t, "PAN:12.50\n", msg)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for websocket message")
	}
}

func TestHTTPController_PostsJSON(t *testing.T) {
	var got struct {
		Pan float64 `json:"pan"`
	}
	var path string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ctrl := NewHTTPController(srv.URL)
	require.NoError(t, ctrl.SetPan(-7.25))

	assert.Equal(t, "/api/pan", path)
	assert.Equal(t, -7.25, got.Pan)
}

func TestHTTPController_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	assert.Error(t, NewHTTPController(srv.URL).SetPan(1))
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()

	_, ok := r.Last()
	assert.False(t, ok)

	require.NoError(t, r.SetPan(1))
	require.NoError(t, r.SetPan(2))
	assert.Equal(t, []float64{1, 2}, r.Commands())

	cause := errors.New("boom")
	r.FailWith(cause)
	assert.ErrorIs(t, r.SetPan(3), cause)

	last, ok := r.Last()
	assert.True(t, ok)
	assert.Equal(t, 3.0, last)

	require.NoError(t, r.Close())
	assert.ErrorIs(t, r.SetPan(4), ErrNotConnected)
}

func TestOpen(t *testing.T) {
	ctrl, err := Open(Config{})
	require.NoError(t, err)
	assert.IsType(t, &LogController{}, ctrl)
	assert.NoError(t, ctrl.SetPan(1))

	ctrl, err = Open(Config{Transport: TransportHTTP, Addr: "http://127.0.0.1:1"})
	require.NoError(t, err)
	assert.IsType(t, &HTTPController{}, ctrl)

	_, err = Open(Config{Transport: "can"})
	assert.Error(t, err)

	_, err = Open(Config{Transport: TransportSerial})
	assert.Error(t, err)
}
