// Package web provides the turret dashboard: status, live tuning, the event
// journal and a telemetry websocket.
package web

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-turret/internal/log"
	"github.com/teslashibe/go-turret/pkg/hub"
	"github.com/teslashibe/go-turret/pkg/journal"
	"github.com/teslashibe/go-turret/pkg/pipeline"
	"github.com/teslashibe/go-turret/pkg/tracking"
)

// TuningType tags tuning changes on the telemetry hub.
const TuningType = "tuning"

// Tuner reads and adjusts tracking parameters at runtime.
type Tuner interface {
	GetTuningParams() tracking.TuningParams
	SetTuningParams(params tracking.TuningParams)
	ApplyConfig(cfg tracking.Config) error
	Reset()
}

// EventStore serves the event journal.
type EventStore interface {
	Recent(ctx context.Context, limit int) ([]journal.Event, error)
	CountByKind(ctx context.Context) (map[journal.Kind]int, error)
}

// StatusProvider reports pipeline counters.
type StatusProvider interface {
	Stats() pipeline.Stats
}

// Options configures the dashboard. Nil dependencies disable their routes
// with 503 Service Unavailable.
type Options struct {
	Port      string
	StaticDir string // Served at / when set

	Tuner     Tuner
	Events    EventStore
	Status    StatusProvider
	Telemetry *hub.Hub
}

// Server is the web dashboard server
type Server struct {
	app    *fiber.App
	opts   Options
	logger *slog.Logger
}

// NewServer creates a new web dashboard server
func NewServer(opts Options) *Server {
	if opts.Port == "" {
		opts.Port = "8080"
	}

	s := &Server{
		opts:   opts,
		logger: log.Component("web"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Turret Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	if opts.StaticDir != "" {
		app.Static("/", opts.StaticDir)
	}

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/tuning", s.handleGetTuning)
	api.Post("/tuning", s.handleSetTuning)
	api.Post("/tuning/preset/:name", s.handleApplyPreset)
	api.Post("/reset", s.handleReset)
	api.Get("/events", s.handleEvents)
	api.Get("/events/counts", s.handleEventCounts)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/telemetry", websocket.New(s.handleTelemetryWS))

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start serves until ctx is canceled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("web dashboard listening", "url", "http://localhost:"+s.opts.Port)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(":" + s.opts.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		if err := s.Shutdown(); err != nil {
			return err
		}
		return <-errCh
	}
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync(ctx context.Context) {
	go func() {
		if err := s.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("web server error", "error", err)
		}
	}()
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
