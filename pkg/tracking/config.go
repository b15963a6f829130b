package tracking

import (
	"fmt"
	"time"

	"github.com/teslashibe/go-turret/pkg/tracking/detection"
)

// Config holds all tunable parameters for pan tracking
type Config struct {
	// PID Controller
	Kp float64 // Proportional gain
	Ki float64 // Integral gain
	Kd float64 // Derivative gain

	// IntegralLimit bounds |integral| when > 0. Zero leaves the integral unbounded.
	IntegralLimit float64

	// Prediction
	LeadTime time.Duration // How far ahead to extrapolate the target

	// Safety
	MaxFramesWithoutDetection int     // Misses tolerated before the stop command
	MinCommand                float64 // Lower clamp for pan commands
	MaxCommand                float64 // Upper clamp for pan commands

	// Classes
	TargetClass  string // Class name of trackable players
	GestureClass string // Class name of the pass hand signal

	// GestureFrames is how many consecutive frames must show the hand signal before a
	// pass event fires. 1 fires on every frame that contains the signal.
	GestureFrames int

	// AlignTolerance marks the turret aligned when |error| is within it (pixels).
	AlignTolerance float64
}

// DefaultConfig returns the recommended configuration for court tracking
func DefaultConfig() Config {
	return Config{
		// PID - tuned on the half-court rig
		Kp: 0.5,
		Ki: 0.01,
		Kd: 0.1,

		// Prediction
		LeadTime: 500 * time.Millisecond,

		// Safety
		MaxFramesWithoutDetection: 15, // ~0.5 s at 30 fps
		MinCommand:                DefaultMinCommand,
		MaxCommand:                DefaultMaxCommand,

		// Classes
		TargetClass:   detection.ClassPlayer,
		GestureClass:  detection.ClassHandSignal,
		GestureFrames: 1,

		AlignTolerance: 10,
	}
}

// SlowConfig returns a configuration for slower, smoother tracking
func SlowConfig() Config {
	cfg := DefaultConfig()
	cfg.Kp = 0.3
	cfg.Ki = 0.005
	cfg.Kd = 0.15 // More dampening
	cfg.LeadTime = 300 * time.Millisecond
	cfg.MaxCommand = 180
	cfg.MinCommand = -180
	return cfg
}

// AggressiveConfig returns a configuration for very fast tracking
func AggressiveConfig() Config {
	cfg := DefaultConfig()
	cfg.Kp = 0.8
	cfg.Ki = 0.02
	cfg.Kd = 0.05 // Less dampening
	cfg.LeadTime = 700 * time.Millisecond
	cfg.MaxFramesWithoutDetection = 10
	return cfg
}

// Preset returns the named configuration: "default", "slow" or "aggressive".
func Preset(name string) (Config, bool) {
	switch name {
	case "", "default":
		return DefaultConfig(), true
	case "slow":
		return SlowConfig(), true
	case "aggressive":
		return AggressiveConfig(), true
	default:
		return Config{}, false
	}
}

// Validate checks that the configuration can drive the motor safely.
func (c Config) Validate() error {
	if !(c.MinCommand < c.MaxCommand) {
		return fmt.Errorf("tracking: min command %v must be below max command %v", c.MinCommand, c.MaxCommand)
	}
	if c.MaxFramesWithoutDetection < 0 {
		return fmt.Errorf("tracking: max frames without detection must be non-negative, got %d", c.MaxFramesWithoutDetection)
	}
	if c.GestureFrames < 1 {
		return fmt.Errorf("tracking: gesture frames must be at least 1, got %d", c.GestureFrames)
	}
	if c.LeadTime < 0 {
		return fmt.Errorf("tracking: lead time must be non-negative, got %s", c.LeadTime)
	}
	if c.IntegralLimit < 0 {
		return fmt.Errorf("tracking: integral limit must be non-negative, got %v", c.IntegralLimit)
	}
	return nil
}
