package tracking

import (
	"errors"
	"image"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/teslashibe/go-turret/pkg/tracking/detection"
)

// mockActuator records pan commands for testing
type mockActuator struct {
	mu       sync.Mutex
	commands []float64
	err      error
}

func (m *mockActuator) SetPan(command float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands = append(m.commands, command)
	return m.err
}

func (m *mockActuator) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.commands)
}

func (m *mockActuator) last() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.commands) == 0 {
		return math.NaN()
	}
	return m.commands[len(m.commands)-1]
}

// fakeClock is advanced manually by tests
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

var frame640 = image.Pt(640, 480)

func player(x, y, w, h int) detection.Detection {
	return detection.Detection{
		ClassID:    1,
		ClassName:  detection.ClassPlayer,
		Confidence: 0.9,
		Box:        detection.Box{X: x, Y: y, W: w, H: h},
	}
}

func handSignal() detection.Detection {
	return detection.Detection{
		ClassID:    0,
		ClassName:  detection.ClassHandSignal,
		Confidence: 0.8,
		Box:        detection.Box{X: 10, Y: 10, W: 20, H: 20},
	}
}

func newTestTracker(cfg Config) (*Tracker, *mockActuator, *fakeClock) {
	act := &mockActuator{}
	clock := &fakeClock{now: time.Unix(1000, 0)}
	return New(cfg, act, WithClock(clock)), act, clock
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestTracker_FirstSightingHasNoDerivative(t *testing.T) {
	tracker, act, _ := newTestTracker(DefaultConfig())

	// Center x = 440, frame center = 320
	res := tracker.Update([]detection.Detection{player(400, 100, 80, 200)}, frame640)

	if !res.Issued {
		t.Fatal("Expected a command on first sighting")
	}
	if !floatEq(res.Error, 120) {
		t.Errorf("Expected error=120, got %v", res.Error)
	}
	// 0.5*120 + 0.01*120 + 0.1*0
	if !floatEq(res.Command, 61.2) {
		t.Errorf("Expected command=61.2, got %v", res.Command)
	}
	if res.VelocityX != 0 {
		t.Errorf("Expected no velocity on first sighting, got %v", res.VelocityX)
	}
	if act.callCount() != 1 || !floatEq(act.last(), 61.2) {
		t.Errorf("Expected actuator to receive 61.2 once, got %v", act.commands)
	}
}

func TestTracker_LeadPrediction(t *testing.T) {
	tracker, act, clock := newTestTracker(DefaultConfig())

	// Previous center 100
	tracker.Update([]detection.Detection{player(80, 100, 40, 100)}, frame640)
	clock.Advance(200 * time.Millisecond)

	// Current center 140, 0.2 s later
	res := tracker.Update([]detection.Detection{player(120, 100, 40, 100)}, frame640)

	if !floatEq(res.VelocityX, 200) {
		t.Errorf("Expected velocity=200 px/s, got %v", res.VelocityX)
	}
	if !floatEq(res.PredictedX, 240) {
		t.Errorf("Expected predicted x=240, got %v", res.PredictedX)
	}
	if !floatEq(res.Error, -80) {
		t.Errorf("Expected error=-80, got %v", res.Error)
	}

	// integral = -220 + -80, derivative = (-80 - -220) / 0.2
	want := 0.5*-80 + 0.01*-300 + 0.1*700
	if !floatEq(res.Command, want) {
		t.Errorf("Expected command=%v, got %v", want, res.Command)
	}
	if act.callCount() != 2 {
		t.Errorf("Expected 2 commands, got %d", act.callCount())
	}
}

func TestTracker_CommandClamped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Kp = 10
	tracker, _, _ := newTestTracker(cfg)

	res := tracker.Update([]detection.Detection{player(600, 100, 40, 100)}, frame640)
	if res.Command != DefaultMaxCommand {
		t.Errorf("Expected command clamped to %v, got %v", DefaultMaxCommand, res.Command)
	}
	if res.RawCommand <= DefaultMaxCommand {
		t.Errorf("Expected raw command above the limit, got %v", res.RawCommand)
	}

	res = tracker.Update([]detection.Detection{player(0, 100, 10, 100)}, frame640)
	if res.Command != DefaultMinCommand {
		t.Errorf("Expected command clamped to %v, got %v", DefaultMinCommand, res.Command)
	}
}

func TestTracker_SelectsLargestPlayer(t *testing.T) {
	tracker, _, _ := newTestTracker(DefaultConfig())

	dets := []detection.Detection{
		player(0, 0, 10, 10),
		{ClassName: detection.ClassHandSignal, Box: detection.Box{X: 0, Y: 0, W: 500, H: 400}},
		player(100, 0, 50, 60),
		player(300, 0, 60, 50), // same area, later
	}
	tracker.Update(dets, frame640)

	state := tracker.State()
	if state.Tracked == nil {
		t.Fatal("Expected a tracked target")
	}
	want := detection.Box{X: 100, Y: 0, W: 50, H: 60}
	if *state.Tracked != want {
		t.Errorf("Expected %+v, got %+v", want, *state.Tracked)
	}
}

func TestTracker_PreviousHoldsLastSelection(t *testing.T) {
	tracker, _, clock := newTestTracker(DefaultConfig())

	first := detection.Box{X: 100, Y: 0, W: 50, H: 60}
	tracker.Update([]detection.Detection{player(100, 0, 50, 60)}, frame640)
	if prev := tracker.State().Previous; prev != nil {
		t.Errorf("Expected no previous box after the first sighting, got %+v", *prev)
	}

	clock.Advance(100 * time.Millisecond)
	tracker.Update([]detection.Detection{player(200, 0, 30, 30), player(120, 0, 60, 90)}, frame640)

	state := tracker.State()
	if state.Previous == nil || *state.Previous != first {
		t.Errorf("Expected previous box %+v, got %+v", first, state.Previous)
	}
	want := detection.Box{X: 120, Y: 0, W: 60, H: 90}
	if state.Tracked == nil || *state.Tracked != want {
		t.Errorf("Expected tracked box %+v, got %+v", want, state.Tracked)
	}
}

func TestTracker_ZeroAreaNeverSelected(t *testing.T) {
	tracker, act, _ := newTestTracker(DefaultConfig())

	res := tracker.Update([]detection.Detection{player(100, 100, 0, 50)}, frame640)
	if res.Target != nil {
		t.Errorf("Expected no target for a zero-area box, got %+v", res.Target)
	}
	if act.callCount() != 0 {
		t.Errorf("Expected no command, got %v", act.commands)
	}
	if res.FramesSinceSeen != 1 {
		t.Errorf("Expected FramesSinceSeen=1, got %d", res.FramesSinceSeen)
	}
}

func TestTracker_SingleStopPerLoss(t *testing.T) {
	tracker, act, clock := newTestTracker(DefaultConfig())

	tracker.Update([]detection.Detection{player(400, 100, 80, 200)}, frame640)
	commandsBefore := act.callCount()

	stops := 0
	stopFrame := 0
	for i := 1; i <= 30; i++ {
		clock.Advance(33 * time.Millisecond)
		res := tracker.Update(nil, frame640)
		if res.FramesSinceSeen != i {
			t.Fatalf("Expected FramesSinceSeen=%d, got %d", i, res.FramesSinceSeen)
		}
		if res.Stop {
			stops++
			stopFrame = i
			if res.Command != StopCommand {
				t.Errorf("Expected stop command %v, got %v", StopCommand, res.Command)
			}
		} else if res.Issued {
			t.Errorf("Unexpected command %v on miss %d", res.Command, i)
		}
	}

	if stops != 1 {
		t.Errorf("Expected exactly one stop, got %d", stops)
	}
	if stopFrame != 16 {
		t.Errorf("Expected stop after 16 misses, got %d", stopFrame)
	}
	if act.callCount() != commandsBefore+1 || act.last() != StopCommand {
		t.Errorf("Expected one extra stop command, got %v", act.commands)
	}
}

func TestTracker_StopRearmsAfterReacquire(t *testing.T) {
	tracker, act, _ := newTestTracker(DefaultConfig())

	lose := func() {
		for i := 0; i < 20; i++ {
			tracker.Update(nil, frame640)
		}
	}

	tracker.Update([]detection.Detection{player(400, 100, 80, 200)}, frame640)
	lose()
	tracker.Update([]detection.Detection{player(400, 100, 80, 200)}, frame640)
	lose()

	stops := 0
	for _, c := range act.commands {
		if c == StopCommand {
			stops++
		}
	}
	if stops != 2 {
		t.Errorf("Expected 2 stops across 2 losses, got %d (%v)", stops, act.commands)
	}
}

func TestTracker_StopWithoutEverSeeingTarget(t *testing.T) {
	tracker, act, _ := newTestTracker(DefaultConfig())

	for i := 0; i < 40; i++ {
		tracker.Update(nil, frame640)
	}
	if act.callCount() != 1 || act.last() != StopCommand {
		t.Errorf("Expected a single stop command, got %v", act.commands)
	}
}

func TestTracker_GapResetsVelocity(t *testing.T) {
	tracker, _, clock := newTestTracker(DefaultConfig())

	tracker.Update([]detection.Detection{player(80, 100, 40, 100)}, frame640)
	clock.Advance(100 * time.Millisecond)
	tracker.Update(nil, frame640)

	if tracker.State().Previous != nil {
		t.Error("Expected previous box cleared after a miss")
	}

	clock.Advance(100 * time.Millisecond)
	res := tracker.Update([]detection.Detection{player(200, 100, 40, 100)}, frame640)

	if res.VelocityX != 0 {
		t.Errorf("Expected no velocity right after a gap, got %v", res.VelocityX)
	}
	if !floatEq(res.PredictedX, 220) {
		t.Errorf("Expected predicted x equal to center 220, got %v", res.PredictedX)
	}
}

func TestTracker_LastSeenUpdatedOnlyOnSighting(t *testing.T) {
	tracker, _, clock := newTestTracker(DefaultConfig())

	if !tracker.State().LastSeen.IsZero() {
		t.Error("Expected zero LastSeen before any sighting")
	}

	seen := clock.Now()
	tracker.Update([]detection.Detection{player(80, 100, 40, 100)}, frame640)
	clock.Advance(time.Second)
	tracker.Update(nil, frame640)

	if got := tracker.State().LastSeen; !got.Equal(seen) {
		t.Errorf("Expected LastSeen=%v, got %v", seen, got)
	}
}

func TestTracker_PassGestureEveryFrame(t *testing.T) {
	tracker, _, _ := newTestTracker(DefaultConfig())

	var events []PassGesture
	tracker.OnPassGesture(func(g PassGesture) {
		events = append(events, g)
	})

	dets := []detection.Detection{handSignal(), handSignal(), player(400, 100, 80, 200)}
	for i := 0; i < 3; i++ {
		res := tracker.Update(dets, frame640)
		if res.Gesture == nil {
			t.Errorf("Expected gesture on frame %d", i+1)
		}
	}
	tracker.Update([]detection.Detection{player(400, 100, 80, 200)}, frame640)

	if len(events) != 3 {
		t.Fatalf("Expected one event per signal frame (3), got %d", len(events))
	}
	if events[2].Frame != 3 {
		t.Errorf("Expected third event on frame 3, got %d", events[2].Frame)
	}
}

func TestTracker_PassGestureDebounced(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GestureFrames = 3
	tracker, _, _ := newTestTracker(cfg)

	count := 0
	tracker.OnPassGesture(func(PassGesture) { count++ })

	signal := []detection.Detection{handSignal()}
	for i := 0; i < 5; i++ {
		tracker.Update(signal, frame640)
	}
	if count != 1 {
		t.Errorf("Expected one event for a 5 frame streak, got %d", count)
	}

	tracker.Update(nil, frame640)
	tracker.Update(signal, frame640)
	tracker.Update(signal, frame640)
	if count != 1 {
		t.Errorf("Expected streak reset after a frame without signal, got %d events", count)
	}
	tracker.Update(signal, frame640)
	if count != 2 {
		t.Errorf("Expected second event after a new 3 frame streak, got %d", count)
	}
}

func TestTracker_GestureFramesLoweredMidStreak(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GestureFrames = 5
	tracker, _, _ := newTestTracker(cfg)

	count := 0
	tracker.OnPassGesture(func(PassGesture) { count++ })

	signal := []detection.Detection{handSignal()}
	for i := 0; i < 3; i++ {
		tracker.Update(signal, frame640)
	}
	if count != 0 {
		t.Fatalf("Expected no event before the streak is long enough, got %d", count)
	}

	tracker.SetTuningParams(TuningParams{GestureFrames: 2})
	res := tracker.Update(signal, frame640)
	if res.Gesture == nil || count != 1 {
		t.Errorf("Expected an event once the streak exceeds the lowered threshold, got %d", count)
	}

	tracker.Update(signal, frame640)
	if count != 1 {
		t.Errorf("Expected one event per streak, got %d", count)
	}
}

func TestTracker_ActuatorErrorDoesNotStopTracking(t *testing.T) {
	tracker, act, _ := newTestTracker(DefaultConfig())
	act.err = errors.New("port closed")

	res := tracker.Update([]detection.Detection{player(400, 100, 80, 200)}, frame640)
	if res.SendErr == nil {
		t.Error("Expected SendErr to be reported")
	}
	if tracker.State().Tracked == nil {
		t.Error("Expected state to update despite the send failure")
	}

	tracker.Update([]detection.Detection{player(400, 100, 80, 200)}, frame640)
	if act.callCount() != 2 {
		t.Errorf("Expected no retries, got %d calls", act.callCount())
	}
}

func TestTracker_Aligned(t *testing.T) {
	tracker, _, _ := newTestTracker(DefaultConfig())

	res := tracker.Update([]detection.Detection{player(305, 100, 40, 100)}, frame640)
	if !res.Aligned {
		t.Errorf("Expected aligned with error %v", res.Error)
	}

	tracker.Reset()
	res = tracker.Update([]detection.Detection{player(400, 100, 40, 100)}, frame640)
	if res.Aligned {
		t.Errorf("Expected not aligned with error %v", res.Error)
	}
}

func TestTracker_NilActuator(t *testing.T) {
	tracker := New(DefaultConfig(), nil)
	res := tracker.Update([]detection.Detection{player(400, 100, 80, 200)}, frame640)
	if !res.Issued {
		t.Error("Expected command to be computed without an actuator")
	}
}

func TestTracker_Reset(t *testing.T) {
	tracker, _, _ := newTestTracker(DefaultConfig())

	tracker.Update([]detection.Detection{player(400, 100, 80, 200)}, frame640)
	tracker.Update(nil, frame640)
	tracker.Reset()

	state := tracker.State()
	if state.Tracked != nil || state.Previous != nil {
		t.Error("Expected boxes cleared")
	}
	if !state.LastSeen.IsZero() || state.FramesSinceSeen != 0 {
		t.Errorf("Expected cleared timers, got %+v", state)
	}
	if state.Integral != 0 || state.LastError != 0 {
		t.Errorf("Expected PID memory cleared, got %+v", state)
	}
}
