package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/teslashibe/go-turret/pkg/tracking"
	"github.com/teslashibe/go-turret/pkg/tracking/detection"
)

// maxTuningFileSize bounds LoadTuning reads.
const maxTuningFileSize = 1 << 20

// Tuning is the startup tuning file. Omitted fields keep their defaults, so
// partial files are safe. Field names match the runtime tuning API.
type Tuning struct {
	// Decoder
	ConfidenceThresh *float64 `json:"confidence_thresh,omitempty"`
	NMSThresh        *float64 `json:"nms_thresh,omitempty"`

	// PID
	Kp            *float64 `json:"kp,omitempty"`
	Ki            *float64 `json:"ki,omitempty"`
	Kd            *float64 `json:"kd,omitempty"`
	IntegralLimit *float64 `json:"integral_limit,omitempty"`

	// LeadTime is a duration string like "500ms".
	LeadTime *string `json:"lead_time,omitempty"`

	// Safety
	MaxFramesWithoutDetection *int     `json:"max_frames_without_detection,omitempty"`
	MinCommand                *float64 `json:"min_command,omitempty"`
	MaxCommand                *float64 `json:"max_command,omitempty"`

	GestureFrames  *int     `json:"gesture_frames,omitempty"`
	AlignTolerance *float64 `json:"align_tolerance,omitempty"`
}

// LoadTuning reads a JSON tuning file.
func LoadTuning(path string) (*Tuning, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("tuning file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat tuning file: %w", err)
	}
	if info.Size() > maxTuningFileSize {
		return nil, fmt.Errorf("tuning file too large: %d bytes (max %d)", info.Size(), maxTuningFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read tuning file: %w", err)
	}

	t := &Tuning{}
	if err := json.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("failed to parse tuning JSON: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tuning: %w", err)
	}
	return t, nil
}

// Validate checks the values that are set.
func (t *Tuning) Validate() error {
	if t.ConfidenceThresh != nil && (*t.ConfidenceThresh < 0 || *t.ConfidenceThresh > 1) {
		return fmt.Errorf("confidence_thresh must be between 0 and 1, got %f", *t.ConfidenceThresh)
	}
	if t.NMSThresh != nil && (*t.NMSThresh < 0 || *t.NMSThresh > 1) {
		return fmt.Errorf("nms_thresh must be between 0 and 1, got %f", *t.NMSThresh)
	}
	if t.LeadTime != nil {
		d, err := time.ParseDuration(*t.LeadTime)
		if err != nil {
			return fmt.Errorf("invalid lead_time %q: %w", *t.LeadTime, err)
		}
		if d < 0 {
			return fmt.Errorf("lead_time must be non-negative, got %s", d)
		}
	}
	if t.MaxFramesWithoutDetection != nil && *t.MaxFramesWithoutDetection < 0 {
		return fmt.Errorf("max_frames_without_detection must be non-negative, got %d", *t.MaxFramesWithoutDetection)
	}
	if t.MinCommand != nil && t.MaxCommand != nil && *t.MinCommand >= *t.MaxCommand {
		return fmt.Errorf("min_command %f must be below max_command %f", *t.MinCommand, *t.MaxCommand)
	}
	if t.GestureFrames != nil && *t.GestureFrames < 1 {
		return fmt.Errorf("gesture_frames must be at least 1, got %d", *t.GestureFrames)
	}
	return nil
}

// Apply writes the set fields onto the decoder and tracker configs.
// Either config may be nil.
func (t *Tuning) Apply(det *detection.Config, trk *tracking.Config) {
	if det != nil {
		if t.ConfidenceThresh != nil {
			det.ConfidenceThresh = float32(*t.ConfidenceThresh)
		}
		if t.NMSThresh != nil {
			det.NMSThresh = float32(*t.NMSThresh)
		}
	}

	if trk == nil {
		return
	}
	setFloat(&trk.Kp, t.Kp)
	setFloat(&trk.Ki, t.Ki)
	setFloat(&trk.Kd, t.Kd)
	setFloat(&trk.IntegralLimit, t.IntegralLimit)
	setFloat(&trk.MinCommand, t.MinCommand)
	setFloat(&trk.MaxCommand, t.MaxCommand)
	setFloat(&trk.AlignTolerance, t.AlignTolerance)
	if t.LeadTime != nil {
		if d, err := time.ParseDuration(*t.LeadTime); err == nil {
			trk.LeadTime = d
		}
	}
	if t.MaxFramesWithoutDetection != nil {
		trk.MaxFramesWithoutDetection = *t.MaxFramesWithoutDetection
	}
	if t.GestureFrames != nil {
		trk.GestureFrames = *t.GestureFrames
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
