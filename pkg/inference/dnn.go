package inference

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// DNNEngine runs the model with the OpenCV DNN module.
type DNNEngine struct {
	config *Config

	mu     sync.Mutex
	net    gocv.Net
	closed bool
}

// NewDNNEngine loads the ONNX model into an OpenCV network.
func NewDNNEngine(cfg *Config) (*DNNEngine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Check if model file exists
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, WrapError("opencv-dnn", fmt.Errorf("model file not found: %s: %w", cfg.ModelPath, err))
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, WrapError("opencv-dnn", fmt.Errorf("failed to load model from %s", cfg.ModelPath))
	}

	// Set backend and target
	if cfg.UseCUDA {
		net.SetPreferableBackend(gocv.NetBackendCUDA)
		net.SetPreferableTarget(gocv.NetTargetCUDA)
	} else {
		net.SetPreferableBackend(gocv.NetBackendDefault)
		net.SetPreferableTarget(gocv.NetTargetCPU)
	}

	cfg.Logger.Info("opencv dnn engine ready",
		"model", cfg.ModelPath,
		"input", cfg.InputSize(),
		"cuda", cfg.UseCUDA,
	)

	return &DNNEngine{config: cfg, net: net}, nil
}

// Name identifies the engine.
func (e *DNNEngine) Name() string {
	if e.config.UseCUDA {
		return "opencv-dnn-cuda"
	}
	return "opencv-dnn"
}

// InputSize returns the model input resolution.
func (e *DNNEngine) InputSize() image.Point {
	return e.config.InputSize()
}

// Infer converts img to a blob and runs a forward pass.
func (e *DNNEngine) Infer(ctx context.Context, img image.Image) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	frame, ok := frameSize(img)
	if !ok {
		return nil, WrapError(e.Name(), ErrEmptyFrame)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, WrapError(e.Name(), ErrClosed)
	}

	// ImageToMatRGB yields a BGR Mat; the blob swaps it back to RGB.
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, WrapError(e.Name(), fmt.Errorf("convert frame: %w", err))
	}
	defer mat.Close()

	blob := gocv.BlobFromImage(mat, 1.0/255.0, e.config.InputSize(), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	e.net.SetInput(blob, "")

	output := e.net.Forward("")
	defer output.Close()

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, WrapError(e.Name(), fmt.Errorf("read output: %w", err))
	}

	dims := output.Size()
	shape := make([]int64, len(dims))
	for i, d := range dims {
		shape[i] = int64(d)
	}

	// DataPtrFloat32 aliases Mat memory that is released on return.
	return &Output{
		Data:  append([]float32(nil), data...),
		Shape: shape,
		Frame: frame,
	}, nil
}

// Close releases the network.
func (e *DNNEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	return e.net.Close()
}
