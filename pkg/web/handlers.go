package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-turret/pkg/hub"
	"github.com/teslashibe/go-turret/pkg/journal"
	"github.com/teslashibe/go-turret/pkg/tracking"
)

// maxEventLimit caps the events endpoint page size.
const maxEventLimit = 1000

func unavailable(c *fiber.Ctx, what string) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": what + " not configured",
	})
}

// handleStatus returns pipeline counters and the last frame
func (s *Server) handleStatus(c *fiber.Ctx) error {
	if s.opts.Status == nil {
		return unavailable(c, "pipeline")
	}
	resp := fiber.Map{"pipeline": s.opts.Status.Stats()}
	if s.opts.Telemetry != nil {
		resp["clients"] = s.opts.Telemetry.ClientCount()
		resp["dropped"] = s.opts.Telemetry.Dropped()
	}
	return c.JSON(resp)
}

func (s *Server) handleGetTuning(c *fiber.Ctx) error {
	if s.opts.Tuner == nil {
		return unavailable(c, "tracker")
	}
	return c.JSON(s.opts.Tuner.GetTuningParams())
}

// handleSetTuning applies the non-zero fields of the body
func (s *Server) handleSetTuning(c *fiber.Ctx) error {
	if s.opts.Tuner == nil {
		return unavailable(c, "tracker")
	}

	var params tracking.TuningParams
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid tuning body: " + err.Error(),
		})
	}

	return s.applyTuning(c, params)
}

func (s *Server) handleApplyPreset(c *fiber.Ctx) error {
	if s.opts.Tuner == nil {
		return unavailable(c, "tracker")
	}

	cfg, ok := tracking.Preset(c.Params("name"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "unknown preset " + c.Params("name"),
		})
	}

	// Presets replace every parameter, zero values included.
	if err := s.opts.Tuner.ApplyConfig(cfg); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return s.broadcastTuning(c)
}

func (s *Server) applyTuning(c *fiber.Ctx, params tracking.TuningParams) error {
	s.opts.Tuner.SetTuningParams(params)
	return s.broadcastTuning(c)
}

// broadcastTuning answers with the current parameters and publishes them.
func (s *Server) broadcastTuning(c *fiber.Ctx) error {
	current := s.opts.Tuner.GetTuningParams()

	if s.opts.Telemetry != nil {
		if err := s.opts.Telemetry.Publish(TuningType, current); err != nil {
			s.logger.Warn("tuning broadcast failed", "error", err)
		}
	}
	return c.JSON(current)
}

// handleReset clears tracker state and keeps the gains
func (s *Server) handleReset(c *fiber.Ctx) error {
	if s.opts.Tuner == nil {
		return unavailable(c, "tracker")
	}
	s.opts.Tuner.Reset()
	s.logger.Info("tracker reset from dashboard")
	return c.JSON(fiber.Map{"reset": true})
}

// handleEvents returns the newest journal events first
func (s *Server) handleEvents(c *fiber.Ctx) error {
	if s.opts.Events == nil {
		return unavailable(c, "journal")
	}

	limit := c.QueryInt("limit", journal.DefaultRecentLimit)
	if limit <= 0 || limit > maxEventLimit {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "limit must be between 1 and 1000",
		})
	}

	events, err := s.opts.Events.Recent(c.UserContext(), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(events)
}

func (s *Server) handleEventCounts(c *fiber.Ctx) error {
	if s.opts.Events == nil {
		return unavailable(c, "journal")
	}

	counts, err := s.opts.Events.CountByKind(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(counts)
}

// handleTelemetryWS streams per-frame telemetry until the socket closes
func (s *Server) handleTelemetryWS(c *websocket.Conn) {
	if s.opts.Telemetry == nil {
		_ = c.Close()
		return
	}
	hub.NewClient(s.opts.Telemetry, c).Run()
}
