package detection

import (
	"fmt"
	"image"

	"github.com/teslashibe/go-turret/pkg/debug"
)

// Decoder decodes model output with a fixed configuration and class table.
type Decoder struct {
	config Config
}

// NewDecoder creates a decoder. The class table is copied.
func NewDecoder(cfg Config) (*Decoder, error) {
	if len(cfg.ClassNames) == 0 {
		return nil, ErrNoClasses
	}
	if cfg.InputWidth <= 0 || cfg.InputHeight <= 0 {
		return nil, fmt.Errorf("detection: invalid input size %dx%d", cfg.InputWidth, cfg.InputHeight)
	}
	cfg.ClassNames = append([]string(nil), cfg.ClassNames...)
	return &Decoder{config: cfg}, nil
}

// Config returns the decoder configuration.
func (d *Decoder) Config() Config {
	return d.config
}

// Decode validates the tensor against its shape and decodes it for a frame of the given size.
func (d *Decoder) Decode(raw []float32, shape []int64, frame image.Point) ([]Detection, error) {
	if _, _, err := proposalLayout(raw, shape); err != nil {
		return nil, err
	}
	geom := Geometry{
		InputWidth:  d.config.InputWidth,
		InputHeight: d.config.InputHeight,
		FrameWidth:  frame.X,
		FrameHeight: frame.Y,
	}
	return Decode(raw, shape, geom, d.config.ClassNames, d.config.ConfidenceThresh, d.config.NMSThresh), nil
}

// proposalLayout returns the channel and proposal counts of a (1, 4+C, N) tensor.
func proposalLayout(raw []float32, shape []int64) (channels, proposals int, err error) {
	if len(shape) != 3 || shape[0] != 1 || shape[1] < 5 || shape[2] < 0 {
		return 0, 0, fmt.Errorf("%w: want (1, 4+C, N), got %v", ErrShapeMismatch, shape)
	}
	channels = int(shape[1])
	proposals = int(shape[2])
	if len(raw) != channels*proposals {
		return 0, 0, fmt.Errorf("%w: shape %v needs %d values, got %d",
			ErrShapeMismatch, shape, channels*proposals, len(raw))
	}
	return channels, proposals, nil
}

// Decode converts a YOLOv8 output tensor into detections in frame pixel space.
//
// The tensor has shape (1, 4+C, N) and is channel-major: box parameter k of proposal i
// lives at k*N+i and class score j at (4+j)*N+i. A malformed tensor decodes to nothing.
func Decode(raw []float32, shape []int64, geom Geometry, classNames []string, confThresh, nmsThresh float32) []Detection {
	channels, n, err := proposalLayout(raw, shape)
	if err != nil {
		return nil
	}
	numClasses := channels - 4

	xFactor := float32(geom.FrameWidth) / float32(geom.InputWidth)
	yFactor := float32(geom.FrameHeight) / float32(geom.InputHeight)

	var boxes []Box
	var confidences []float32
	var classIDs []int

	for i := 0; i < n; i++ {
		// Strict > keeps the lowest class id on ties.
		maxScore := float32(0)
		classID := 0
		for j := 0; j < numClasses; j++ {
			score := raw[(4+j)*n+i]
			if score > maxScore {
				maxScore = score
				classID = j
			}
		}

		if !(maxScore > confThresh) {
			continue
		}

		cx := raw[0*n+i]
		cy := raw[1*n+i]
		w := raw[2*n+i]
		h := raw[3*n+i]

		boxes = append(boxes, Box{
			X: int((cx - w/2) * xFactor),
			Y: int((cy - h/2) * yFactor),
			W: int(w * xFactor),
			H: int(h * yFactor),
		})
		confidences = append(confidences, maxScore)
		classIDs = append(classIDs, classID)
	}

	debug.TrackLog("proposals before NMS", "count", len(confidences), "max_confidence", maxOf(confidences))

	if len(boxes) == 0 {
		return nil
	}

	indices := NMS(boxes, confidences, confThresh, nmsThresh)

	detections := make([]Detection, 0, len(indices))
	for _, idx := range indices {
		detections = append(detections, Detection{
			ClassID:    classIDs[idx],
			ClassName:  ClassName(classNames, classIDs[idx]),
			Confidence: confidences[idx],
			Box:        boxes[idx],
		})
	}
	return detections
}

func maxOf(values []float32) float32 {
	var m float32
	for _, v := range values {
		if v > m {
			m = v
		}
	}
	return m
}
