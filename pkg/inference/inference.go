// Package inference runs the YOLOv8 detector model on camera frames.
//
// The package hides the runtime behind a single Engine interface so the frame
// loop can switch between ONNX Runtime and OpenCV DNN, or fall back from one
// to the other, without changing the decoder.
//
// Example usage:
//
//	engine, _ := inference.NewORTEngine(inference.DefaultConfig(
//	    inference.WithModelPath("models/basketball.onnx"),
//	    inference.WithClasses(2),
//	))
//	defer engine.Close()
//
//	out, _ := engine.Infer(ctx, frame)
//	dets, _ := decoder.Decode(out.Data, out.Shape, out.Frame)
package inference

import (
	"context"
	"image"
)

// Engine runs the detector model on one frame at a time.
// All implementations must satisfy this interface.
type Engine interface {
	// Infer returns the raw (1, 4+C, N) output tensor for img.
	Infer(ctx context.Context, img image.Image) (*Output, error)

	// InputSize returns the model input resolution.
	InputSize() image.Point

	// Name identifies the engine in logs.
	Name() string

	// Close releases any resources held by the engine.
	Close() error
}

// Output is the raw model output for one frame.
type Output struct {
	Data  []float32   // Channel-major tensor values
	Shape []int64     // Tensor shape, normally (1, 4+C, N)
	Frame image.Point // Size of the frame that was fed to the model
}
