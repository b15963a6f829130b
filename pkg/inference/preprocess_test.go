package inference

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func TestPreprocess_LayoutAndScale(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.NRGBA{R: 255, G: 51, B: 0, A: 255})
		}
	}

	size := image.Pt(4, 2)
	data := Preprocess(img, size)

	if len(data) != 3*4*2 {
		t.Fatalf("Expected %d values, got %d", 3*4*2, len(data))
	}

	plane := 4 * 2
	for i := 0; i < plane; i++ {
		if data[i] != 1 {
			t.Errorf("R[%d] = %v, want 1", i, data[i])
		}
		if math.Abs(float64(data[plane+i])-0.2) > 1e-6 {
			t.Errorf("G[%d] = %v, want 0.2", i, data[plane+i])
		}
		if data[2*plane+i] != 0 {
			t.Errorf("B[%d] = %v, want 0", i, data[2*plane+i])
		}
	}
}

func TestPreprocess_Resizes(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1280, 720))
	data := Preprocess(img, image.Pt(640, 640))

	if len(data) != 3*640*640 {
		t.Errorf("Expected %d values, got %d", 3*640*640, len(data))
	}
}

func TestPreprocess_PixelOrder(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(1, 0, color.NRGBA{R: 255, A: 255})
	img.Set(0, 1, color.NRGBA{B: 255, A: 255})

	data := Preprocess(img, image.Pt(2, 2))

	// Row-major inside each plane: (x=1, y=0) is index 1, (x=0, y=1) is index 2
	if data[1] != 1 {
		t.Errorf("Expected red at plane index 1, got %v", data[:4])
	}
	if data[2*4+2] != 1 {
		t.Errorf("Expected blue at plane index 2, got %v", data[8:])
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != ErrNoModel {
		t.Errorf("Expected ErrNoModel, got %v", err)
	}

	cfg = DefaultConfig(WithModelPath("model.onnx"), WithClasses(0))
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for zero classes")
	}

	cfg = DefaultConfig(WithModelPath("model.onnx"), WithInputSize(320, 320), WithClasses(3))
	if err := cfg.Validate(); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	want := []int64{1, 7, 8400}
	got := cfg.OutputShape()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("OutputShape = %v, want %v", got, want)
		}
	}
	if cfg.InputSize() != image.Pt(320, 320) {
		t.Errorf("Unexpected input size %v", cfg.InputSize())
	}
}
