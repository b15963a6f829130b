package tracking

import (
	"image"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/teslashibe/go-turret/internal/log"
	"github.com/teslashibe/go-turret/pkg/debug"
	"github.com/teslashibe/go-turret/pkg/tracking/detection"
)

// Actuator receives pan commands. SetPan blocks until the command is handed to the
// transport; the tracker neither retries nor verifies delivery.
type Actuator interface {
	SetPan(command float64) error
}

// Clock supplies timestamps carrying a monotonic reading.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// State is a snapshot of the tracker memory. Nil boxes mean no target.
type State struct {
	Tracked         *detection.Box
	Previous        *detection.Box
	LastSeen        time.Time // Zero until the first target is found
	FramesSinceSeen int
	Integral        float64
	LastError       float64
}

// PassGesture is emitted when the pass hand signal is seen.
type PassGesture struct {
	Frame     uint64
	At        time.Time
	Detection detection.Detection
}

// Result describes what one Update call decided.
type Result struct {
	Frame uint64
	At    time.Time

	// Command is valid only when Issued is true.
	Command float64
	Issued  bool
	Stop    bool  // Command is the lost-target stop
	SendErr error // Actuator failure, if any

	Target          *detection.Box
	FramesSinceSeen int

	// Control internals, set on frames with a target.
	RawCommand float64
	Error      float64
	PredictedX float64
	VelocityX  float64
	Aligned    bool

	Gesture *PassGesture
}

// Tracker selects the player to follow, predicts where they are heading and drives the
// pan motor through a PID loop. Update must be called from a single goroutine.
type Tracker struct {
	// mu guards config and PID gains against the tuning API.
	mu       sync.RWMutex
	config   Config
	pid      *PIDController
	actuator Actuator
	clock    Clock
	logger   *slog.Logger

	// State
	tracked         *detection.Box
	previous        *detection.Box
	lastSeen        time.Time
	framesSinceSeen int
	stopIssued      bool
	gestureStreak   int
	gestureFired    bool // Debounced event already sent for this streak
	frame           uint64

	gestureHandlers []func(PassGesture)
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source.
func WithClock(c Clock) Option {
	return func(t *Tracker) { t.clock = c }
}

// WithLogger overrides the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// New creates a tracker with empty state. actuator may be nil for dry runs.
func New(config Config, actuator Actuator, opts ...Option) *Tracker {
	t := &Tracker{
		config:   config,
		pid:      NewPIDController(config),
		actuator: actuator,
		clock:    systemClock{},
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = log.Component("tracking")
	}
	return t
}

// OnPassGesture registers a handler for pass gesture events.
func (t *Tracker) OnPassGesture(fn func(PassGesture)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gestureHandlers = append(t.gestureHandlers, fn)
}

// Config returns the active configuration.
func (t *Tracker) Config() Config {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.config
}

// Update processes the detections of one frame of the given size.
//
// Order per call: target selection, found/lost branch (PID step or safety stop), gesture
// scan. At most one command reaches the actuator.
func (t *Tracker) Update(dets []detection.Detection, frame image.Point) Result {
	t.mu.Lock()
	res := t.step(dets, frame)
	handlers := t.gestureHandlers
	t.mu.Unlock()

	if res.Issued && t.actuator != nil {
		if err := t.actuator.SetPan(res.Command); err != nil {
			res.SendErr = err
			t.logger.Warn("pan command not delivered", "pan", res.Command, "error", err)
		}
	}

	if res.Gesture != nil {
		t.logger.Info("pass gesture detected", "frame", res.Frame,
			"confidence", res.Gesture.Detection.Confidence)
		for _, fn := range handlers {
			fn(*res.Gesture)
		}
	}

	return res
}

func (t *Tracker) step(dets []detection.Detection, frame image.Point) Result {
	t.frame++
	now := t.clock.Now()
	res := Result{Frame: t.frame, At: now}

	t.findBestPlayer(dets)

	if t.tracked != nil {
		t.framesSinceSeen = 0
		t.stopIssued = false

		dt := 0.0
		if !t.lastSeen.IsZero() {
			dt = now.Sub(t.lastSeen).Seconds()
		}
		t.calculateCommand(*t.tracked, frame, dt, &res)
		t.lastSeen = now

		target := *t.tracked
		res.Target = &target
	} else {
		t.framesSinceSeen++
		limit := t.config.MaxFramesWithoutDetection
		if t.framesSinceSeen > limit && t.framesSinceSeen < limit+stopWindow && !t.stopIssued {
			t.logger.Warn("no player detected, stopping pan motor", "frames", t.framesSinceSeen)
			res.Command = StopCommand
			res.Issued = true
			res.Stop = true
			t.stopIssued = true
		}
		// A gap invalidates velocity estimation for the next sighting.
		t.previous = nil
	}
	res.FramesSinceSeen = t.framesSinceSeen

	res.Gesture = t.scanGesture(dets, now)
	return res
}

// findBestPlayer picks the largest target-class box. The first of equal areas wins and
// zero-area boxes are never selected.
func (t *Tracker) findBestPlayer(dets []detection.Detection) {
	var best *detection.Box
	maxArea := 0

	for i := range dets {
		if dets[i].ClassName != t.config.TargetClass {
			continue
		}
		if area := dets[i].Box.Area(); area > maxArea {
			maxArea = area
			box := dets[i].Box
			best = &box
		}
	}

	t.previous = t.tracked
	t.tracked = best
}

// calculateCommand runs prediction and the PID step for the tracked box.
func (t *Tracker) calculateCommand(target detection.Box, frame image.Point, dt float64, res *Result) {
	frameCenterX := float64(frame.X) / 2.0
	targetCenterX := target.CenterX()

	predictedX := targetCenterX
	velocityX := 0.0
	if t.previous != nil && dt > 0 {
		velocityX = (targetCenterX - t.previous.CenterX()) / dt // pixels per second
		predictedX = targetCenterX + velocityX*t.config.LeadTime.Seconds()
	}

	panError := predictedX - frameCenterX
	raw := t.pid.Update(panError, dt)
	command := clamp(raw, t.config.MinCommand, t.config.MaxCommand)

	res.Command = command
	res.Issued = true
	res.RawCommand = raw
	res.Error = panError
	res.PredictedX = predictedX
	res.VelocityX = velocityX
	res.Aligned = math.Abs(panError) <= t.config.AlignTolerance

	debug.TrackLog("pan step",
		"target_x", targetCenterX,
		"predicted_x", predictedX,
		"velocity", velocityX,
		"dt", dt,
		"error", panError,
		"command", command,
	)
}

// scanGesture looks for the pass hand signal. Only the first matching detection counts.
func (t *Tracker) scanGesture(dets []detection.Detection, now time.Time) *PassGesture {
	var signal *detection.Detection
	for i := range dets {
		if dets[i].ClassName == t.config.GestureClass {
			d := dets[i]
			signal = &d
			break
		}
	}

	if signal == nil {
		t.gestureStreak = 0
		t.gestureFired = false
		return nil
	}

	t.gestureStreak++
	if need := t.config.GestureFrames; need > 1 {
		// A streak fires once, even if GestureFrames is lowered below it mid-streak.
		if t.gestureStreak < need || t.gestureFired {
			return nil
		}
		t.gestureFired = true
	}
	return &PassGesture{Frame: t.frame, At: now, Detection: *signal}
}

// State returns a copy of the tracker memory.
func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := State{
		LastSeen:        t.lastSeen,
		FramesSinceSeen: t.framesSinceSeen,
		Integral:        t.pid.Integral(),
		LastError:       t.pid.LastError(),
	}
	if t.tracked != nil {
		b := *t.tracked
		s.Tracked = &b
	}
	if t.previous != nil {
		b := *t.previous
		s.Previous = &b
	}
	return s
}

// Reset returns the tracker to its start-up state. Gains are kept.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.tracked = nil
	t.previous = nil
	t.lastSeen = time.Time{}
	t.framesSinceSeen = 0
	t.stopIssued = false
	t.gestureStreak = 0
	t.gestureFired = false
	t.pid.Reset()
}
