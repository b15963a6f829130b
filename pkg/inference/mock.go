package inference

import (
	"context"
	"image"
	"sync"
	"time"
)

// Mock implements Engine for testing.
type Mock struct {
	// InferFunc is called when Infer is invoked.
	InferFunc func(ctx context.Context, img image.Image) (*Output, error)

	// CloseFunc is called when Close is invoked.
	CloseFunc func() error

	// MockName overrides the engine name.
	MockName string

	// Size is returned by InputSize.
	Size image.Point

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation.
type MockCall struct {
	Method string
	Time   time.Time
}

// NewMock creates a mock engine returning an all-zero tensor shaped like the
// default two-class model, which decodes to no detections.
func NewMock() *Mock {
	cfg := DefaultConfig()
	shape := cfg.OutputShape()
	return WithOutput(make([]float32, shape[1]*shape[2]), shape)
}

// WithOutput returns a mock that answers every frame with the given tensor.
func WithOutput(data []float32, shape []int64) *Mock {
	return &Mock{
		InferFunc: func(ctx context.Context, img image.Image) (*Output, error) {
			frame, ok := frameSize(img)
			if !ok {
				return nil, WrapError("mock", ErrEmptyFrame)
			}
			return &Output{
				Data:  append([]float32(nil), data...),
				Shape: append([]int64(nil), shape...),
				Frame: frame,
			}, nil
		},
	}
}

// WithError returns a mock that always returns the given error.
func WithError(err error) *Mock {
	return &Mock{
		InferFunc: func(ctx context.Context, img image.Image) (*Output, error) {
			return nil, err
		},
	}
}

// Infer calls InferFunc and records the call.
func (m *Mock) Infer(ctx context.Context, img image.Image) (*Output, error) {
	m.record("Infer")
	if m.InferFunc != nil {
		return m.InferFunc(ctx, img)
	}
	return nil, WrapError(m.Name(), ErrNoEngine)
}

// InputSize returns Size, or 640x640 when unset.
func (m *Mock) InputSize() image.Point {
	if m.Size == (image.Point{}) {
		return image.Pt(640, 640)
	}
	return m.Size
}

// Name returns MockName or "mock".
func (m *Mock) Name() string {
	if m.MockName != "" {
		return m.MockName
	}
	return "mock"
}

// Close calls CloseFunc and records the call.
func (m *Mock) Close() error {
	m.record("Close")
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// record adds a call to the tracking list.
func (m *Mock) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{
		Method: method,
		Time:   time.Now(),
	})
}

// Calls returns all recorded method calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockCall, len(m.calls))
	copy(result, m.calls)
	return result
}

// CallCount returns the number of times a method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if c.Method == method {
			count++
		}
	}
	return count
}

// Reset clears all recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// Verify Mock implements Engine at compile time.
var _ Engine = (*Mock)(nil)
