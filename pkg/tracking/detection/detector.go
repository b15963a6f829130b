// Package detection turns raw YOLOv8-style model output into de-duplicated object detections.
package detection

import (
	"errors"
	"image"
)

// UnknownClass is the label given to class ids outside the class table.
const UnknownClass = "Unknown"

// Class labels used by the court model.
const (
	ClassHandSignal = "Hand-Signal"
	ClassPlayer     = "Player"
)

// DefaultClassNames is the class table of the court model, indexed by class id.
var DefaultClassNames = []string{ClassHandSignal, ClassPlayer}

var (
	// ErrShapeMismatch is returned when a tensor's length disagrees with its declared shape.
	ErrShapeMismatch = errors.New("detection: tensor shape mismatch")

	// ErrNoClasses is returned when a decoder is built with an empty class table.
	ErrNoClasses = errors.New("detection: class table is empty")
)

// Box is an axis-aligned rectangle in source frame pixels, in corner form.
type Box struct {
	X, Y int // Top-left corner
	W, H int // Width and height
}

// Area returns W*H, or 0 for degenerate boxes.
func (b Box) Area() int {
	if b.W <= 0 || b.H <= 0 {
		return 0
	}
	return b.W * b.H
}

// CenterX returns the horizontal center of the box.
func (b Box) CenterX() float64 {
	return float64(b.X) + float64(b.W)/2.0
}

// CenterY returns the vertical center of the box.
func (b Box) CenterY() float64 {
	return float64(b.Y) + float64(b.H)/2.0
}

// Rect returns the box as an image.Rectangle. Degenerate boxes are not canonicalized,
// so they intersect nothing.
func (b Box) Rect() image.Rectangle {
	return image.Rectangle{
		Min: image.Pt(b.X, b.Y),
		Max: image.Pt(b.X+b.W, b.Y+b.H),
	}
}

// IoU returns the intersection-over-union of two boxes in [0, 1].
func (b Box) IoU(other Box) float64 {
	inter := b.Rect().Intersect(other.Rect())
	interArea := inter.Dx() * inter.Dy()
	union := b.Area() + other.Area() - interArea
	if union <= 0 {
		return 0
	}
	return float64(interArea) / float64(union)
}

// Detection is one decoded object. It is a value type and is never mutated after decoding.
type Detection struct {
	ClassID    int
	ClassName  string
	Confidence float32
	Box        Box
}

// Geometry relates the model input resolution to the source frame resolution.
type Geometry struct {
	InputWidth  int
	InputHeight int
	FrameWidth  int
	FrameHeight int
}

// Config holds decoder configuration
type Config struct {
	ConfidenceThresh float32  // Minimum class score, exclusive (default 0.5)
	NMSThresh        float32  // IoU at or above which the weaker box is dropped (default 0.2)
	InputWidth       int      // Model input width
	InputHeight      int      // Model input height
	ClassNames       []string // Class table indexed by class id
}

// DefaultConfig returns production defaults for the court model
func DefaultConfig() Config {
	return Config{
		ConfidenceThresh: 0.5,
		NMSThresh:        0.2,
		InputWidth:       640,
		InputHeight:      640,
		ClassNames:       append([]string(nil), DefaultClassNames...),
	}
}

// ClassName resolves a class id against the table, falling back to UnknownClass.
func ClassName(classNames []string, classID int) string {
	if classID < 0 || classID >= len(classNames) {
		return UnknownClass
	}
	return classNames[classID]
}

// Filter returns the detections whose class name matches.
func Filter(dets []Detection, className string) []Detection {
	var filtered []Detection
	for _, d := range dets {
		if d.ClassName == className {
			filtered = append(filtered, d)
		}
	}
	return filtered
}
