package inference

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrNoEngine is returned when a chain is built without engines.
	ErrNoEngine = errors.New("inference: no engine available")

	// ErrAllEnginesFailed is returned when every engine in a chain fails.
	ErrAllEnginesFailed = errors.New("inference: all engines failed")

	// ErrClosed is returned when inferring on a closed engine.
	ErrClosed = errors.New("inference: engine closed")

	// ErrEmptyFrame is returned for a nil or zero-sized frame.
	ErrEmptyFrame = errors.New("inference: empty frame")

	// ErrNoModel is returned when the model path is missing.
	ErrNoModel = errors.New("inference: model path required")
)

// EngineError wraps an error with engine context.
type EngineError struct {
	Engine string
	Err    error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	return fmt.Sprintf("inference [%s]: %v", e.Engine, e.Err)
}

// Unwrap returns the underlying error.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with engine context.
func WrapError(engine string, err error) error {
	if err == nil {
		return nil
	}
	return &EngineError{Engine: engine, Err: err}
}

// ChainError aggregates errors from all engines in a chain.
type ChainError struct {
	Errors []error
}

// Error implements the error interface.
func (e *ChainError) Error() string {
	if len(e.Errors) == 0 {
		return "inference chain: no errors recorded"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("inference chain: %v", e.Errors[0])
	}
	return fmt.Sprintf("inference chain: all %d engines failed, last error: %v",
		len(e.Errors), e.Errors[len(e.Errors)-1])
}

// Is reports ErrAllEnginesFailed so callers need not know the concrete type.
func (e *ChainError) Is(target error) bool {
	return target == ErrAllEnginesFailed
}

// Unwrap returns the last error in the chain.
func (e *ChainError) Unwrap() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e.Errors[len(e.Errors)-1]
}

var (
	errInvalidInput  = errors.New("input size must be positive")
	errInvalidOutput = errors.New("class and proposal counts must be positive")
)
