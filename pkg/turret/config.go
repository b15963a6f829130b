// Package turret wires capture, inference, tracking, the actuator, the event
// journal and the dashboard into one application.
package turret

import (
	"fmt"

	"github.com/teslashibe/go-turret/internal/config"
	"github.com/teslashibe/go-turret/pkg/camera"
	"github.com/teslashibe/go-turret/pkg/inference"
	"github.com/teslashibe/go-turret/pkg/robot"
	"github.com/teslashibe/go-turret/pkg/tracking"
)

// Engine selections.
const (
	EngineORT  = "ort"
	EngineDNN  = "dnn"
	EngineAuto = "auto" // onnxruntime first, OpenCV DNN as fallback
)

// Config holds all configuration for the turret application.
// Flag parsing is done in cmd/turret/main.go; this struct is data only.
type Config struct {
	// Debug enables verbose debug logging; DebugTracking adds per-frame traces.
	Debug         bool
	DebugTracking bool

	// Model
	ModelPath   string
	ClassesPath string // Names file; empty uses the court classes
	Engine      string // ort, dnn or auto
	UseCUDA     bool

	// Capture
	SourceKind string // device or dir
	Camera     camera.Config

	// Actuator
	Robot robot.Config

	// Tracking
	Preset     string // default, slow or aggressive
	TuningPath string // Optional JSON tuning file

	// Persistence and dashboard. Empty disables each.
	DBPath   string
	HTTPPort string

	// RecordCommands journals every pan command, not only stops and gestures.
	RecordCommands bool

	// InferenceEngine replaces model loading when set.
	InferenceEngine inference.Engine
}

// DefaultConfig returns defaults seeded from the environment.
func DefaultConfig() Config {
	return Config{
		ModelPath:   config.ModelPath(),
		ClassesPath: config.ClassesPath(),
		Engine:      EngineAuto,
		SourceKind:  camera.KindDevice,
		Camera:      camera.DefaultConfig(),
		Robot: robot.Config{
			Transport: config.Actuator(),
			Port:      config.SerialPort(),
		},
		Preset:   "default",
		DBPath:   config.DBPath(),
		HTTPPort: config.HTTPPort(),
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.InferenceEngine == nil {
		if c.ModelPath == "" {
			return &ConfigError{Field: "ModelPath", Message: "a model path is required (-model or TURRET_MODEL)"}
		}
		switch c.Engine {
		case EngineORT, EngineDNN, EngineAuto:
		default:
			return &ConfigError{Field: "Engine", Message: fmt.Sprintf("unknown engine %q (want ort, dnn or auto)", c.Engine)}
		}
	}
	if _, ok := tracking.Preset(c.Preset); !ok {
		return &ConfigError{Field: "Preset", Message: fmt.Sprintf("unknown tracking preset %q", c.Preset)}
	}
	if errs := c.Camera.Validate(); len(errs) > 0 {
		return &ConfigError{Field: "Camera", Message: "invalid camera config: " + errs[0]}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
