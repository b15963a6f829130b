package turret

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/teslashibe/go-turret/internal/config"
	"github.com/teslashibe/go-turret/internal/log"
	"github.com/teslashibe/go-turret/pkg/camera"
	"github.com/teslashibe/go-turret/pkg/debug"
	"github.com/teslashibe/go-turret/pkg/hub"
	"github.com/teslashibe/go-turret/pkg/inference"
	"github.com/teslashibe/go-turret/pkg/journal"
	"github.com/teslashibe/go-turret/pkg/pipeline"
	"github.com/teslashibe/go-turret/pkg/robot"
	"github.com/teslashibe/go-turret/pkg/tracking"
	"github.com/teslashibe/go-turret/pkg/tracking/detection"
	"github.com/teslashibe/go-turret/pkg/web"
)

// App is the main turret application orchestrator.
// It manages all components and their lifecycle.
type App struct {
	config Config
	logger *slog.Logger

	// Frame loop
	source   camera.Source
	engine   inference.Engine
	decoder  *detection.Decoder
	tracker  *tracking.Tracker
	pipeline *pipeline.Pipeline

	// Actuator
	actuator robot.Controller

	// Journal and dashboard
	journal   *journal.Journal
	telemetry *hub.Hub
	webServer *web.Server
}

// New creates a new turret application with the given configuration.
func New(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	debug.Enabled = cfg.Debug
	debug.Tracking = cfg.DebugTracking

	return &App{
		config: cfg,
		logger: log.Component("turret"),
	}, nil
}

// Init initializes all components.
// Call this after New() and before Run(). On error, Shutdown releases
// whatever was opened.
func (a *App) Init() error {
	detCfg := detection.DefaultConfig()
	trkCfg, _ := tracking.Preset(a.config.Preset)

	if a.config.ClassesPath != "" {
		names, err := detection.LoadClassNames(a.config.ClassesPath)
		if err != nil {
			return fmt.Errorf("classes: %w", err)
		}
		detCfg.ClassNames = names
	}

	if a.config.TuningPath != "" {
		tuning, err := config.LoadTuning(a.config.TuningPath)
		if err != nil {
			return fmt.Errorf("tuning: %w", err)
		}
		tuning.Apply(&detCfg, &trkCfg)
		a.logger.Info("tuning file applied", "path", a.config.TuningPath)
	}
	// A partial tuning file can still leave the merged config inconsistent.
	if err := trkCfg.Validate(); err != nil {
		return fmt.Errorf("tuning: %w", err)
	}

	if err := a.initEngine(len(detCfg.ClassNames)); err != nil {
		return fmt.Errorf("inference: %w", err)
	}
	size := a.engine.InputSize()
	detCfg.InputWidth, detCfg.InputHeight = size.X, size.Y

	decoder, err := detection.NewDecoder(detCfg)
	if err != nil {
		return fmt.Errorf("decoder: %w", err)
	}
	a.decoder = decoder

	if a.source, err = camera.Open(a.config.SourceKind, a.config.Camera); err != nil {
		return fmt.Errorf("capture: %w", err)
	}

	if a.actuator, err = robot.Open(a.config.Robot); err != nil {
		return fmt.Errorf("actuator: %w", err)
	}
	a.logger.Info("actuator ready", "transport", transportName(a.config.Robot.Transport))

	a.tracker = tracking.New(trkCfg, a.actuator)
	a.tracker.OnPassGesture(func(g tracking.PassGesture) {
		a.logger.Info("pass", "frame", g.Frame, "confidence", g.Detection.Confidence)
	})

	if a.config.DBPath != "" {
		if a.journal, err = journal.Open(a.config.DBPath); err != nil {
			return fmt.Errorf("journal: %w", err)
		}
	}

	a.telemetry = hub.New("telemetry")

	pcfg := pipeline.Config{
		Source:         a.source,
		Engine:         a.engine,
		Decoder:        a.decoder,
		Tracker:        a.tracker,
		Publisher:      a.telemetry,
		RecordCommands: a.config.RecordCommands,
	}
	if a.journal != nil {
		pcfg.Journal = a.journal
	}
	if a.pipeline, err = pipeline.New(pcfg); err != nil {
		return err
	}

	if a.config.HTTPPort != "" {
		opts := web.Options{
			Port:      a.config.HTTPPort,
			Tuner:     a.tracker,
			Status:    a.pipeline,
			Telemetry: a.telemetry,
		}
		if a.journal != nil {
			opts.Events = a.journal
		}
		a.webServer = web.NewServer(opts)
	}

	return nil
}

// initEngine builds the configured engine. In auto mode an engine that fails
// to load is skipped.
func (a *App) initEngine(numClasses int) error {
	if a.config.InferenceEngine != nil {
		a.engine = a.config.InferenceEngine
		return nil
	}

	cfg := inference.DefaultConfig(
		inference.WithModelPath(a.config.ModelPath),
		inference.WithClasses(numClasses),
		inference.WithCUDA(a.config.UseCUDA),
		inference.WithLogger(a.logger),
	)

	switch a.config.Engine {
	case EngineORT:
		engine, err := inference.NewORTEngine(cfg)
		if err != nil {
			return err
		}
		a.engine = engine
	case EngineDNN:
		engine, err := inference.NewDNNEngine(cfg)
		if err != nil {
			return err
		}
		a.engine = engine
	default:
		var engines []inference.Engine
		if engine, err := inference.NewORTEngine(cfg); err != nil {
			a.logger.Warn("onnxruntime unavailable", "error", err)
		} else {
			engines = append(engines, engine)
		}
		if engine, err := inference.NewDNNEngine(cfg); err != nil {
			a.logger.Warn("opencv dnn unavailable", "error", err)
		} else {
			engines = append(engines, engine)
		}
		chain, err := inference.NewChainWithLogger(a.logger, engines...)
		if err != nil {
			return err
		}
		a.engine = chain
	}

	a.logger.Info("inference ready", "engine", a.engine.Name(), "model", a.config.ModelPath)
	return nil
}

// Run starts the dashboard and the frame loop.
// Blocks until ctx is cancelled or the source ends.
func (a *App) Run(ctx context.Context) error {
	if a.pipeline == nil {
		return errors.New("turret: Run called before Init")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.telemetry.Run(ctx)
	if a.webServer != nil {
		a.webServer.StartAsync(ctx)
	}

	return a.pipeline.Run(ctx)
}

// Stats returns the frame loop counters.
func (a *App) Stats() pipeline.Stats {
	if a.pipeline == nil {
		return pipeline.Stats{}
	}
	return a.pipeline.Stats()
}

// Shutdown stops the motor and releases every component.
func (a *App) Shutdown() error {
	var errs []error

	if a.actuator != nil {
		if err := a.actuator.SetPan(tracking.StopCommand); err != nil {
			a.logger.Warn("final stop not delivered", "error", err)
		}
		errs = append(errs, a.actuator.Close())
	}
	if a.source != nil {
		errs = append(errs, a.source.Close())
	}
	if a.engine != nil {
		errs = append(errs, a.engine.Close())
	}
	if a.journal != nil {
		errs = append(errs, a.journal.Close())
	}

	a.logger.Info("turret stopped", "frames", a.Stats().Frames)
	return errors.Join(errs...)
}

func transportName(t string) string {
	if t == "" {
		return robot.TransportLog
	}
	return t
}
