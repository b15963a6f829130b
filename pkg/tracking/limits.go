// Package tracking provides predictive pan tracking of a single player.
// This file defines the actuator command range.
package tracking

// Command range accepted by the pan motor driver (signed PWM duty).
const (
	// DefaultMinCommand is the most negative pan command sent to the motor.
	DefaultMinCommand = -255.0

	// DefaultMaxCommand is the most positive pan command sent to the motor.
	DefaultMaxCommand = 255.0

	// StopCommand is sent once when the target has been lost for too long.
	StopCommand = 0.0

	// stopWindow is the number of frames after MaxFramesWithoutDetection during
	// which the stop command may still be issued.
	stopWindow = 5
)

// clamp limits a value to a range
func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
