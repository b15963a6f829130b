// Package camera provides the frame sources feeding the tracker.
// This follows the same pattern as pkg/tracking for tunable parameters.
package camera

// Config holds all capture configuration parameters.
type Config struct {
	// Device is the capture device index or URL/path understood by OpenCV.
	// The court camera is device 0.
	Device string `json:"device"`

	// === Resolution ===
	Width     int `json:"width"`     // Requested frame width in pixels
	Height    int `json:"height"`    // Requested frame height in pixels
	Framerate int `json:"framerate"` // Requested FPS

	// === Replay ===
	// Dir holds an image sequence for offline runs.
	Dir string `json:"dir"`
	// Loop restarts the sequence instead of ending the stream.
	Loop bool `json:"loop"`
}

// Capture limits accepted by Validate
const (
	MaxWidth     = 4096
	MaxHeight    = 2160
	MaxFramerate = 240
)

// DefaultConfig returns the court camera configuration: device 0, 720p at 30 fps.
func DefaultConfig() Config {
	return Config{
		Device:    "0",
		Width:     1280,
		Height:    720,
		Framerate: 30,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
// Zero resolution or framerate keeps the driver default.
func (c *Config) Validate() []string {
	var errors []string

	if c.Width < 0 || c.Width > MaxWidth {
		errors = append(errors, "width must be between 0 and 4096")
	}
	if c.Height < 0 || c.Height > MaxHeight {
		errors = append(errors, "height must be between 0 and 2160")
	}
	if c.Framerate < 0 || c.Framerate > MaxFramerate {
		errors = append(errors, "framerate must be between 0 and 240")
	}

	return errors
}
