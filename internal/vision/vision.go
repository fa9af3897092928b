package vision

import (
	"context"
	"errors"
	"io"
)

// DetectionPrompt is the shared prompt used by all detection adapters. The
// labels match the COCO class names the material estimator understands.
const DetectionPrompt = `List every individual object you can see in this photo of a room being packed for a move.
Use COCO-style lowercase class names where possible (for example: cup, bowl, bottle,
wine glass, fork, knife, spoon, book, bed, chair, couch, dining table, potted plant, tv).
Output one line per object instance, even when several objects share a class.
Format each line as: class | confidence between 0 and 1`

// ErrUnavailable is returned by detectors that have no backend configured.
var ErrUnavailable = errors.New("object detection unavailable")

// Detector is the external object-detection capability. Results carry no
// ordering or de-duplication guarantee.
type Detector interface {
	Detect(ctx context.Context, r io.Reader, mimeType string) ([]Detection, error)
}

type Detection struct {
	Class string  `json:"class"`
	Score float64 `json:"score"`
}

// Unavailable is a Detector that always fails with ErrUnavailable.
type Unavailable struct{}

func (Unavailable) Detect(context.Context, io.Reader, string) ([]Detection, error) {
	return nil, ErrUnavailable
}
