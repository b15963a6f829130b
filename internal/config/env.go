// Package config provides configuration helpers for go-turret commands.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Environment variables read by the turret binary.
const (
	EnvModel      = "TURRET_MODEL"
	EnvClasses    = "TURRET_CLASSES"
	EnvSerialPort = "TURRET_SERIAL_PORT"
	EnvActuator   = "TURRET_ACTUATOR"
	EnvDB         = "TURRET_DB"
	EnvHTTPPort   = "TURRET_HTTP_PORT"
)

// Defaults used when neither a flag nor the environment is set.
const (
	DefaultModel      = "best.onnx"
	DefaultSerialPort = "/dev/ttyUSB0"
	DefaultActuator   = "log"
	DefaultDB         = "turret.db"
	DefaultHTTPPort   = "8080"
)

// LoadEnv loads variables from .env files into the process environment.
// Existing variables win. A missing file is not an error.
func LoadEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// Env returns the named variable, or def when unset or empty.
func Env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// ModelPath returns the ONNX model path from TURRET_MODEL.
func ModelPath() string {
	return Env(EnvModel, DefaultModel)
}

// ClassesPath returns the class names file from TURRET_CLASSES.
// Empty means the built-in court classes.
func ClassesPath() string {
	return Env(EnvClasses, "")
}

// SerialPort returns the actuator serial device from TURRET_SERIAL_PORT.
func SerialPort() string {
	return Env(EnvSerialPort, DefaultSerialPort)
}

// Actuator returns the actuator transport from TURRET_ACTUATOR.
func Actuator() string {
	return Env(EnvActuator, DefaultActuator)
}

// DBPath returns the event journal path from TURRET_DB.
func DBPath() string {
	return Env(EnvDB, DefaultDB)
}

// HTTPPort returns the dashboard port from TURRET_HTTP_PORT.
func HTTPPort() string {
	return Env(EnvHTTPPort, DefaultHTTPPort)
}
