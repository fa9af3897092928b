// Package imageprep normalises photos before they reach a detector: EXIF
// orientation is applied and large images are scaled down and re-encoded as
// JPEG. The decoded image is dropped as soon as the detector returns.
package imageprep

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/disintegration/imaging"

	"github.com/vbonduro/movequote/internal/vision"
)

const (
	DefaultMaxDimension = 1568
	jpegQuality         = 85
)

// Detector wraps another detector with image preparation.
type Detector struct {
	next         vision.Detector
	maxDimension int
	logger       *slog.Logger
}

func NewDetector(next vision.Detector, maxDimension int, logger *slog.Logger) *Detector {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{next: next, maxDimension: maxDimension, logger: logger}
}

// Detect prepares the image and forwards it. Formats the decoder does not
// understand are forwarded unchanged.
func (d *Detector) Detect(ctx context.Context, r io.Reader, mimeType string) ([]vision.Detection, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	prepared, err := d.prepare(raw)
	if err != nil {
		d.logger.Warn("forwarding image without preparation", "mime_type", mimeType, "error", err)
		return d.next.Detect(ctx, bytes.NewReader(raw), mimeType)
	}
	return d.next.Detect(ctx, bytes.NewReader(prepared), "image/jpeg")
}

func (d *Detector) prepare(raw []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	b := img.Bounds()
	if b.Dx() > d.maxDimension || b.Dy() > d.maxDimension {
		img = imaging.Fit(img, d.maxDimension, d.maxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
