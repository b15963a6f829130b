// Package pipeline runs the per-frame loop: capture, inference, decoding,
// tracking, then journaling and telemetry.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-turret/internal/log"
	"github.com/teslashibe/go-turret/pkg/camera"
	"github.com/teslashibe/go-turret/pkg/inference"
	"github.com/teslashibe/go-turret/pkg/journal"
	"github.com/teslashibe/go-turret/pkg/tracking"
	"github.com/teslashibe/go-turret/pkg/tracking/detection"
)

// TelemetryType tags per-frame telemetry on the hub.
const TelemetryType = "telemetry"

// Publisher broadcasts telemetry to dashboards.
type Publisher interface {
	Publish(msgType string, payload interface{}) error
}

// Recorder persists turret events.
type Recorder interface {
	Record(ctx context.Context, e journal.Event) (journal.Event, error)
}

// Config wires the pipeline stages. Journal and Publisher are optional.
type Config struct {
	Source    camera.Source
	Engine    inference.Engine
	Decoder   *detection.Decoder
	Tracker   *tracking.Tracker
	Journal   Recorder
	Publisher Publisher

	// RecordCommands journals every pan command. Stops and gestures are
	// always journaled.
	RecordCommands bool
}

// Pipeline drives one tracker from one frame source.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger

	mu    sync.RWMutex
	stats Stats
}

// New validates cfg and creates a pipeline.
func New(cfg Config) (*Pipeline, error) {
	switch {
	case cfg.Source == nil:
		return nil, errors.New("pipeline: source required")
	case cfg.Engine == nil:
		return nil, errors.New("pipeline: engine required")
	case cfg.Decoder == nil:
		return nil, errors.New("pipeline: decoder required")
	case cfg.Tracker == nil:
		return nil, errors.New("pipeline: tracker required")
	}

	return &Pipeline{
		cfg:    cfg,
		logger: log.Component("pipeline"),
	}, nil
}

// Run processes frames until ctx is canceled or the source ends, both of
// which return nil. Capture, inference and decoding errors end the run.
func (p *Pipeline) Run(ctx context.Context) error {
	p.mu.Lock()
	p.stats.StartedAt = time.Now()
	p.mu.Unlock()

	p.logger.Info("pipeline started", "engine", p.cfg.Engine.Name())

	for {
		if ctx.Err() != nil {
			p.logger.Info("pipeline stopped", "frames", p.Stats().Frames)
			return nil
		}

		if _, err := p.Step(ctx); err != nil {
			switch {
			case errors.Is(err, camera.ErrEndOfStream):
				p.logger.Info("capture ended", "frames", p.Stats().Frames)
				return nil
			case ctx.Err() != nil:
				p.logger.Info("pipeline stopped", "frames", p.Stats().Frames)
				return nil
			default:
				return err
			}
		}
	}
}

// Step processes exactly one frame.
func (p *Pipeline) Step(ctx context.Context) (*Frame, error) {
	start := time.Now()

	img, err := p.cfg.Source.Next(ctx)
	if err != nil {
		if errors.Is(err, camera.ErrEndOfStream) {
			return nil, err
		}
		return nil, fmt.Errorf("capture: %w", err)
	}

	out, err := p.cfg.Engine.Infer(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("inference: %w", err)
	}

	dets, err := p.cfg.Decoder.Decode(out.Data, out.Shape, out.Frame)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	res := p.cfg.Tracker.Update(dets, out.Frame)
	frame := newFrame(res, dets, p.cfg.Tracker.Config().TargetClass, time.Since(start))

	p.record(ctx, res)
	p.publish(frame)
	p.account(frame, res)

	return frame, nil
}

// record journals the decisions of one frame. Failures are logged only.
func (p *Pipeline) record(ctx context.Context, res tracking.Result) {
	if p.cfg.Journal == nil {
		return
	}

	var events []journal.Event
	if res.Issued && (res.Stop || p.cfg.RecordCommands) {
		kind := journal.KindCommand
		if res.Stop {
			kind = journal.KindStop
		}
		events = append(events, journal.Event{
			Kind:      kind,
			Frame:     res.Frame,
			Pan:       res.Command,
			TargetX:   targetX(res.Target),
			CreatedAt: res.At,
		})
	}
	if res.Gesture != nil {
		events = append(events, journal.Event{
			Kind:      journal.KindPassGesture,
			Frame:     res.Frame,
			TargetX:   targetX(res.Target),
			CreatedAt: res.Gesture.At,
		})
	}

	for _, e := range events {
		if _, err := p.cfg.Journal.Record(ctx, e); err != nil {
			p.logger.Warn("journal write failed", "kind", e.Kind, "error", err)
		}
	}
}

func (p *Pipeline) publish(frame *Frame) {
	if p.cfg.Publisher == nil {
		return
	}
	if err := p.cfg.Publisher.Publish(TelemetryType, frame); err != nil {
		p.logger.Debug("telemetry publish failed", "error", err)
	}
}

func (p *Pipeline) account(frame *Frame, res tracking.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := &p.stats
	s.Frames++
	s.Detections += uint64(frame.Detections)
	if res.Issued {
		s.Commands++
	}
	if res.Stop {
		s.Stops++
	}
	if res.SendErr != nil {
		s.SendErrors++
	}
	if res.Gesture != nil {
		s.Gestures++
	}
	s.Last = frame
}

// Stats returns a snapshot of the counters.
func (p *Pipeline) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := p.stats
	if s.Last != nil {
		last := *s.Last
		s.Last = &last
	}
	if !s.StartedAt.IsZero() {
		if elapsed := time.Since(s.StartedAt).Seconds(); elapsed > 0 {
			s.FPS = float64(s.Frames) / elapsed
		}
	}
	return s
}

func targetX(box *detection.Box) *float64 {
	if box == nil {
		return nil
	}
	x := box.CenterX()
	return &x
}
