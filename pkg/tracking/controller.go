package tracking

// PIDController implements proportional-integral-derivative control for the pan axis
type PIDController struct {
	// Gains
	Kp float64 // Proportional gain
	Ki float64 // Integral gain
	Kd float64 // Derivative gain

	// IntegralLimit bounds |integral| when > 0
	IntegralLimit float64

	// State
	integral  float64
	lastError float64
}

// NewPIDController creates a new PID controller from the tracking config
func NewPIDController(config Config) *PIDController {
	return &PIDController{
		Kp:            config.Kp,
		Ki:            config.Ki,
		Kd:            config.Kd,
		IntegralLimit: config.IntegralLimit,
	}
}

// Update feeds one error sample taken dt seconds after the previous one and returns the
// unclamped output. With dt <= 0 the derivative term is zero.
//
// The integral keeps accumulating while the caller saturates the output, unless
// IntegralLimit is set.
func (c *PIDController) Update(err, dt float64) float64 {
	c.integral += err
	if c.IntegralLimit > 0 {
		c.integral = clamp(c.integral, -c.IntegralLimit, c.IntegralLimit)
	}

	derivative := 0.0
	if dt > 0 {
		derivative = (err - c.lastError) / dt
	}

	output := c.Kp*err + c.Ki*c.integral + c.Kd*derivative
	c.lastError = err
	return output
}

// Integral returns the accumulated error
func (c *PIDController) Integral() float64 {
	return c.integral
}

// LastError returns the error passed to the previous Update
func (c *PIDController) LastError() float64 {
	return c.lastError
}

// Reset clears the integral and derivative memory
func (c *PIDController) Reset() {
	c.integral = 0
	c.lastError = 0
}
