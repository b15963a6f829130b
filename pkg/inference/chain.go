package inference

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"strings"
	"sync"
)

// Chain tries multiple engines in order until one succeeds, then keeps using
// the engine that worked.
type Chain struct {
	engines []Engine
	logger  *slog.Logger

	mu     sync.Mutex
	active int
}

// NewChain creates an engine chain.
// At least one engine is required.
func NewChain(engines ...Engine) (*Chain, error) {
	if len(engines) == 0 {
		return nil, ErrNoEngine
	}
	return &Chain{
		engines: engines,
		logger:  slog.Default().With("component", "inference.chain"),
	}, nil
}

// NewChainWithLogger creates an engine chain with a custom logger.
func NewChainWithLogger(logger *slog.Logger, engines ...Engine) (*Chain, error) {
	chain, err := NewChain(engines...)
	if err != nil {
		return nil, err
	}
	chain.logger = logger.With("component", "inference.chain")
	return chain, nil
}

// Infer runs the active engine, falling through the rest on failure.
func (c *Chain) Infer(ctx context.Context, img image.Image) (*Output, error) {
	c.mu.Lock()
	start := c.active
	c.mu.Unlock()

	var errs []error
	for k := range c.engines {
		i := (start + k) % len(c.engines)
		e := c.engines[i]

		out, err := e.Infer(ctx, img)
		if err == nil {
			if i != start {
				c.logger.Info("switched to fallback engine",
					"engine", e.Name(),
					"engine_index", i,
				)
				c.mu.Lock()
				c.active = i
				c.mu.Unlock()
			}
			return out, nil
		}

		errs = append(errs, err)
		c.logger.Warn("engine failed, trying next",
			"engine", e.Name(),
			"engine_index", i,
			"error", err,
		)

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, &ChainError{Errors: errs}
}

// Active returns the engine currently in use.
func (c *Chain) Active() Engine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engines[c.active]
}

// InputSize returns the active engine's input resolution.
func (c *Chain) InputSize() image.Point {
	return c.Active().InputSize()
}

// Name lists the chained engines.
func (c *Chain) Name() string {
	names := make([]string, len(c.engines))
	for i, e := range c.engines {
		names[i] = e.Name()
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

// Engines returns the engines in order.
func (c *Chain) Engines() []Engine {
	result := make([]Engine, len(c.engines))
	copy(result, c.engines)
	return result
}

// Close closes all engines.
func (c *Chain) Close() error {
	var errs []error
	for _, e := range c.engines {
		if err := e.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Verify Chain implements Engine at compile time.
var _ Engine = (*Chain)(nil)
