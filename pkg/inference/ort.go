package inference

import (
	"context"
	"fmt"
	"image"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// The onnxruntime environment is process-global; engines share it.
var (
	envMu    sync.Mutex
	envRefs  int
	envOwned bool
)

func acquireEnvironment(libraryPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if envRefs == 0 && !ort.IsInitialized() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("initialize onnxruntime: %w", err)
		}
		envOwned = true
	}
	envRefs++
	return nil
}

func releaseEnvironment() {
	envMu.Lock()
	defer envMu.Unlock()

	envRefs--
	if envRefs == 0 && envOwned {
		ort.DestroyEnvironment()
		envOwned = false
	}
}

// ORTEngine runs the model with ONNX Runtime using preallocated tensors.
type ORTEngine struct {
	config *Config

	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	closed  bool
}

// NewORTEngine loads the model and allocates the session tensors.
func NewORTEngine(cfg *Config) (*ORTEngine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := acquireEnvironment(cfg.LibraryPath); err != nil {
		return nil, WrapError("onnxruntime", err)
	}

	e, err := newORTSession(cfg)
	if err != nil {
		releaseEnvironment()
		return nil, WrapError("onnxruntime", err)
	}

	cfg.Logger.Info("onnxruntime engine ready",
		"model", cfg.ModelPath,
		"input", cfg.InputSize(),
		"output", cfg.OutputShape(),
		"cuda", cfg.UseCUDA,
	)
	return e, nil
}

func newORTSession(cfg *Config) (*ORTEngine, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("error creating session options: %w", err)
	}
	defer options.Destroy()

	if cfg.Threads > 0 {
		if err := options.SetIntraOpNumThreads(cfg.Threads); err != nil {
			return nil, fmt.Errorf("error setting thread count: %w", err)
		}
	}

	if cfg.UseCUDA {
		cudaOptions, err := ort.NewCUDAProviderOptions()
		if err != nil {
			return nil, fmt.Errorf("error creating CUDA options: %w", err)
		}
		defer cudaOptions.Destroy()

		if err := options.AppendExecutionProviderCUDA(cudaOptions); err != nil {
			return nil, fmt.Errorf("error enabling CUDA provider: %w", err)
		}
	}

	inputShape := ort.NewShape(1, 3, int64(cfg.InputHeight), int64(cfg.InputWidth))
	outputShape := ort.NewShape(cfg.OutputShape()...)

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("error creating input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("error creating output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		cfg.ModelPath,
		[]string{cfg.InputName},
		[]string{cfg.OutputName},
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{outputTensor},
		options,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("error creating session: %w", err)
	}

	return &ORTEngine{
		config:  cfg,
		session: session,
		input:   inputTensor,
		output:  outputTensor,
	}, nil
}

// Name identifies the engine.
func (e *ORTEngine) Name() string {
	if e.config.UseCUDA {
		return "onnxruntime-cuda"
	}
	return "onnxruntime"
}

// InputSize returns the model input resolution.
func (e *ORTEngine) InputSize() image.Point {
	return e.config.InputSize()
}

// Infer preprocesses img into the input tensor and runs the session.
func (e *ORTEngine) Infer(ctx context.Context, img image.Image) (*Output, error) {
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

	PreprocessInto(e.input.GetData(), img, e.config.InputSize())

	if err := e.session.Run(); err != nil {
		return nil, WrapError(e.Name(), fmt.Errorf("model inference: %w", err))
	}

	// The output tensor is reused on the next run.
	data := append([]float32(nil), e.output.GetData()...)
	shape := append([]int64(nil), e.output.GetShape()...)

	return &Output{Data: data, Shape: shape, Frame: frame}, nil
}

// Close destroys the session and tensors.
func (e *ORTEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	var err error
	if e.session != nil {
		err = e.session.Destroy()
	}
	if e.input != nil {
		e.input.Destroy()
	}
	if e.output != nil {
		e.output.Destroy()
	}
	releaseEnvironment()
	return err
}
