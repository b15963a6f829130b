package hub

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	h := New("test")
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h, cancel
}

func register(t *testing.T, h *Hub) *Client {
	t.Helper()
	c := newClient(h, nil)
	h.register <- c
	return c
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case msg, ok := <-c.send:
		if !ok {
			t.Fatal("client channel closed")
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return Message{}
}

func TestHub_BroadcastFanOut(t *testing.T) {
	h, _ := startHub(t)

	a := register(t, h)
	b := register(t, h)

	if err := h.Publish("telemetry", map[string]int{"frame": 1}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	for _, c := range []*Client{a, b} {
		var env struct {
			Type    string         `json:"type"`
			Payload map[string]int `json:"payload"`
		}
		if err := json.Unmarshal(receive(t, c).Data, &env); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if env.Type != "telemetry" || env.Payload["frame"] != 1 {
			t.Errorf("Unexpected envelope: %+v", env)
		}
	}
}

func TestHub_NewClientGetsLastMessage(t *testing.T) {
	h, _ := startHub(t)

	first := register(t, h)
	h.Broadcast(NewJSONMessage([]byte(`{"n":1}`)))
	receive(t, first)

	late := register(t, h)
	if got := string(receive(t, late).Data); got != `{"n":1}` {
		t.Errorf("Expected replay of last message, got %s", got)
	}

	last, ok := h.Last()
	if !ok || string(last.Data) != `{"n":1}` {
		t.Errorf("Unexpected Last(): %q %v", last.Data, ok)
	}
}

func TestHub_Unregister(t *testing.T) {
	h, _ := startHub(t)

	c := register(t, h)
	h.unregister <- c

	select {
	case _, ok := <-c.send:
		if ok {
			t.Error("Expected closed channel after unregister")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for close")
	}
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	h, cancel := startHub(t)

	c := register(t, h)
	if !h.IsRunning() {
		t.Error("Expected hub to be running")
	}
	cancel()

	select {
	case _, ok := <-c.send:
		if ok {
			t.Error("Expected closed channel after shutdown")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for shutdown")
	}

	<-h.done
	if h.IsRunning() {
		t.Error("Expected hub to be stopped")
	}
	if h.ClientCount() != 0 {
		t.Errorf("Expected no clients, got %d", h.ClientCount())
	}
}
