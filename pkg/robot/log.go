package robot

import (
	"log/slog"

	"github.com/teslashibe/go-turret/internal/log"
)

// LogController prints commands instead of moving a motor. Used for bench runs
// without hardware attached.
type LogController struct {
	logger *slog.Logger
}

// NewLogController creates a controller logging at info level.
func NewLogController() *LogController {
	return &LogController{logger: log.Component("robot")}
}

// SetPan logs the command.
func (l *LogController) SetPan(command float64) error {
	l.logger.Info("pan", "command", command)
	return nil
}

// Close is a no-op.
func (l *LogController) Close() error {
	return nil
}
