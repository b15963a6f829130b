package robot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/teslashibe/go-turret/internal/httpc"
)

// httpClient bounds every pan request so a dead driver cannot stall the frame loop.
var httpClient = httpc.NewClient(2 * time.Second)

// HTTPController posts pan commands to a motor driver's HTTP API.
type HTTPController struct {
	BaseURL string
}

// NewHTTPController creates a controller for the driver at baseURL
// (e.g., "http://192.168.1.40:8000").
func NewHTTPController(baseURL string) *HTTPController {
	return &HTTPController{BaseURL: baseURL}
}

// SetPan posts {"pan": command} to /api/pan.
func (r *HTTPController) SetPan(command float64) error {
	data, err := json.Marshal(map[string]float64{"pan": command})
	if err != nil {
		return fmt.Errorf("failed to marshal pan payload: %w", err)
	}

	resp, err := httpClient.Post(r.BaseURL+"/api/pan", "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("pan request failed: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("pan request failed: status %d", resp.StatusCode)
	}
	return nil
}

// Close is a no-op; the shared client keeps no per-controller state.
func (r *HTTPController) Close() error {
	return nil
}
