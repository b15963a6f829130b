// Package debug provides global verbosity flags for per-frame traces
package debug

import (
	"github.com/teslashibe/go-turret/internal/log"
)

// Enabled controls whether debug logging is active
var Enabled bool

// Tracking controls whether per-frame decoder and controller traces are shown.
// Use the --debug-tracking flag to enable these very verbose logs
var Tracking bool

// Log emits a debug-level record only if debug mode is enabled
func Log(msg string, args ...any) {
	if Enabled {
		log.Debug(msg, args...)
	}
}

// TrackLog emits a debug-level record only if tracking debug mode is enabled
func TrackLog(msg string, args ...any) {
	if Tracking {
		log.Debug(msg, append([]any{"trace", "tracking"}, args...)...)
	}
}
