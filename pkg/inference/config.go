package inference

import (
	"image"
	"log/slog"
	"runtime"
)

// YOLOv8 emits 8400 proposals at 640x640 (80x80 + 40x40 + 20x20 anchors).
const defaultProposals = 8400

// Config holds engine configuration.
type Config struct {
	// Model
	ModelPath  string
	InputName  string // Input tensor name
	OutputName string // Output tensor name

	// Geometry
	InputWidth  int
	InputHeight int
	NumClasses  int // C in the (1, 4+C, N) output
	Proposals   int // N in the (1, 4+C, N) output

	// Runtime
	UseCUDA     bool
	Threads     int
	LibraryPath string // onnxruntime shared library (empty uses the system default)

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring engines.
type Option func(*Config)

// WithModelPath sets the ONNX model path.
func WithModelPath(path string) Option {
	return func(c *Config) { c.ModelPath = path }
}

// WithInputSize sets the model input resolution.
func WithInputSize(width, height int) Option {
	return func(c *Config) {
		c.InputWidth = width
		c.InputHeight = height
	}
}

// WithClasses sets the number of model classes.
func WithClasses(n int) Option {
	return func(c *Config) { c.NumClasses = n }
}

// WithProposals sets the number of proposals emitted by the model.
func WithProposals(n int) Option {
	return func(c *Config) { c.Proposals = n }
}

// WithCUDA enables the GPU execution provider or DNN target.
func WithCUDA(enabled bool) Option {
	return func(c *Config) { c.UseCUDA = enabled }
}

// WithThreads sets the intra-op thread count.
func WithThreads(n int) Option {
	return func(c *Config) { c.Threads = n }
}

// WithLibraryPath sets the onnxruntime shared library path.
func WithLibraryPath(path string) Option {
	return func(c *Config) { c.LibraryPath = path }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns defaults for a 640x640 two-class YOLOv8 export.
func DefaultConfig(opts ...Option) *Config {
	c := &Config{
		InputName:   "images",
		OutputName:  "output0",
		InputWidth:  640,
		InputHeight: 640,
		NumClasses:  2,
		Proposals:   defaultProposals,
		Threads:     runtime.NumCPU(),
		Logger:      slog.Default(),
	}
	c.Apply(opts...)
	return c
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// InputSize returns the input resolution as a point.
func (c *Config) InputSize() image.Point {
	return image.Pt(c.InputWidth, c.InputHeight)
}

// OutputShape returns the expected (1, 4+C, N) output shape.
func (c *Config) OutputShape() []int64 {
	return []int64{1, int64(4 + c.NumClasses), int64(c.Proposals)}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.ModelPath == "" {
		return ErrNoModel
	}
	if c.InputWidth <= 0 || c.InputHeight <= 0 {
		return WrapError("config", errInvalidInput)
	}
	if c.NumClasses <= 0 || c.Proposals <= 0 {
		return WrapError("config", errInvalidOutput)
	}
	return nil
}
