package pipeline

import (
	"time"

	"github.com/teslashibe/go-turret/pkg/tracking"
	"github.com/teslashibe/go-turret/pkg/tracking/detection"
)

// Frame is the telemetry published for every processed frame.
type Frame struct {
	Frame           uint64         `json:"frame"`
	At              time.Time      `json:"at"`
	Detections      int            `json:"detections"`
	Players         int            `json:"players"`
	Target          *detection.Box `json:"target,omitempty"`
	Command         *float64       `json:"command,omitempty"` // Nil when nothing was sent
	Stop            bool           `json:"stop"`
	Error           float64        `json:"error"`
	PredictedX      float64        `json:"predicted_x"`
	VelocityX       float64        `json:"velocity_x"`
	Aligned         bool           `json:"aligned"`
	FramesSinceSeen int            `json:"frames_since_seen"`
	Gesture         bool           `json:"gesture"`
	LatencyMs       float64        `json:"latency_ms"`
}

// Stats counts what the pipeline has done since Run started.
type Stats struct {
	StartedAt  time.Time `json:"started_at"`
	Frames     uint64    `json:"frames"`
	Detections uint64    `json:"detections"`
	Commands   uint64    `json:"commands"`
	Stops      uint64    `json:"stops"`
	Gestures   uint64    `json:"gestures"`
	SendErrors uint64    `json:"send_errors"`
	FPS        float64   `json:"fps"`
	Last       *Frame    `json:"last,omitempty"`
}

// newFrame builds telemetry for one frame. Players counts detections of the
// tracker's target class.
func newFrame(res tracking.Result, dets []detection.Detection, targetClass string, latency time.Duration) *Frame {
	f := &Frame{
		Frame:           res.Frame,
		At:              res.At,
		Detections:      len(dets),
		Players:         len(detection.Filter(dets, targetClass)),
		Stop:            res.Stop,
		FramesSinceSeen: res.FramesSinceSeen,
		Gesture:         res.Gesture != nil,
		LatencyMs:       float64(latency.Microseconds()) / 1000,
	}
	if res.Target != nil {
		target := *res.Target
		f.Target = &target
		f.Error = res.Error
		f.PredictedX = res.PredictedX
		f.VelocityX = res.VelocityX
		f.Aligned = res.Aligned
	}
	if res.Issued {
		cmd := res.Command
		f.Command = &cmd
	}
	return f
}
