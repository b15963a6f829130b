package tracking

import "time"

// TuningParams holds the real-time adjustable tracking parameters.
// These can be modified via the tuning API without restarting the turret.
type TuningParams struct {
	// PID Controller
	Kp            float64 `json:"kp"`             // Proportional gain
	Ki            float64 `json:"ki"`             // Integral gain
	Kd            float64 `json:"kd"`             // Derivative gain
	IntegralLimit float64 `json:"integral_limit"` // Anti-windup bound (0 = off)

	// Prediction
	LeadTimeSec float64 `json:"lead_time_sec"` // Extrapolation horizon (seconds)

	// Safety
	MaxFramesWithoutDetection int     `json:"max_frames_without_detection"`
	MinCommand                float64 `json:"min_command"`
	MaxCommand                float64 `json:"max_command"`

	// Gestures
	GestureFrames int `json:"gesture_frames"`

	AlignTolerance float64 `json:"align_tolerance"`
}

// ParamsFromConfig extracts the tunable subset of a configuration.
func ParamsFromConfig(cfg Config) TuningParams {
	return TuningParams{
		Kp:                        cfg.Kp,
		Ki:                        cfg.Ki,
		Kd:                        cfg.Kd,
		IntegralLimit:             cfg.IntegralLimit,
		LeadTimeSec:               cfg.LeadTime.Seconds(),
		MaxFramesWithoutDetection: cfg.MaxFramesWithoutDetection,
		MinCommand:                cfg.MinCommand,
		MaxCommand:                cfg.MaxCommand,
		GestureFrames:             cfg.GestureFrames,
		AlignTolerance:            cfg.AlignTolerance,
	}
}

// GetTuningParams returns current tuning parameters from the tracker.
func (t *Tracker) GetTuningParams() TuningParams {
	t.mu.RLock()
	defer t.mu.RUnlock()

	params := ParamsFromConfig(t.config)
	params.Kp, params.Ki, params.Kd = t.pid.Kp, t.pid.Ki, t.pid.Kd
	params.IntegralLimit = t.pid.IntegralLimit
	return params
}

// SetTuningParams updates tuning parameters at runtime.
// Only non-zero values are applied. A command range is applied only when the
// resulting minimum stays below the maximum.
func (t *Tracker) SetTuningParams(params TuningParams) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// PID Controller
	if params.Kp > 0 {
		t.pid.Kp = params.Kp
		t.config.Kp = params.Kp
	}
	if params.Ki > 0 {
		t.pid.Ki = params.Ki
		t.config.Ki = params.Ki
	}
	if params.Kd > 0 {
		t.pid.Kd = params.Kd
		t.config.Kd = params.Kd
	}
	if params.IntegralLimit > 0 {
		t.pid.IntegralLimit = params.IntegralLimit
		t.config.IntegralLimit = params.IntegralLimit
	}

	// Prediction
	if params.LeadTimeSec > 0 {
		t.config.LeadTime = time.Duration(params.LeadTimeSec * float64(time.Second))
	}

	// Safety
	if params.MaxFramesWithoutDetection > 0 {
		t.config.MaxFramesWithoutDetection = params.MaxFramesWithoutDetection
	}
	minCmd, maxCmd := t.config.MinCommand, t.config.MaxCommand
	if params.MinCommand != 0 {
		minCmd = params.MinCommand
	}
	if params.MaxCommand != 0 {
		maxCmd = params.MaxCommand
	}
	if minCmd < maxCmd {
		t.config.MinCommand = minCmd
		t.config.MaxCommand = maxCmd
	}

	if params.GestureFrames > 0 {
		t.config.GestureFrames = params.GestureFrames
	}
	if params.AlignTolerance > 0 {
		t.config.AlignTolerance = params.AlignTolerance
	}

	t.logger.Info("tuning updated",
		"kp", t.pid.Kp, "ki", t.pid.Ki, "kd", t.pid.Kd,
		"lead_time", t.config.LeadTime,
		"range", [2]float64{t.config.MinCommand, t.config.MaxCommand},
	)
}

// ApplyConfig replaces every tunable parameter with the values of cfg, zero
// values included. Class names and tracker state are kept. Used to switch presets.
func (t *Tracker) ApplyConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.pid.Kp, t.pid.Ki, t.pid.Kd = cfg.Kp, cfg.Ki, cfg.Kd
	t.pid.IntegralLimit = cfg.IntegralLimit

	cfg.TargetClass = t.config.TargetClass
	cfg.GestureClass = t.config.GestureClass
	t.config = cfg

	t.logger.Info("tracking config applied",
		"kp", cfg.Kp, "ki", cfg.Ki, "kd", cfg.Kd,
		"integral_limit", cfg.IntegralLimit,
		"lead_time", cfg.LeadTime,
		"range", [2]float64{cfg.MinCommand, cfg.MaxCommand},
	)
	return nil
}
