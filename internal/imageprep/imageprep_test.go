package imageprep

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/movequote/internal/vision"
)

type captureDetector struct {
	data     []byte
	mimeType string
	err      error
}

func (c *captureDetector) Detect(_ context.Context, r io.Reader, mimeType string) ([]vision.Detection, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	c.data = data
	c.mimeType = mimeType
	if c.err != nil {
		return nil, c.err
	}
	return []vision.Detection{{Class: "cup", Score: 0.9}}, nil
}

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDetectDownscalesLargeImages(t *testing.T) {
	next := &captureDetector{}
	d := NewDetector(next, 100, nil)

	dets, err := d.Detect(context.Background(), bytes.NewReader(pngImage(t, 400, 200)), "image/png")
	require.NoError(t, err)
	assert.Len(t, dets, 1)
	assert.Equal(t, "image/jpeg", next.mimeType)

	out, err := imaging.Decode(bytes.NewReader(next.data))
	require.NoError(t, err)
	assert.Equal(t, 100, out.Bounds().Dx())
	assert.Equal(t, 50, out.Bounds().Dy())
}

func TestDetectKeepsSmallImageSize(t *testing.T) {
	next := &captureDetector{}
	d := NewDetector(next, 1000, nil)

	_, err := d.Detect(context.Background(), bytes.NewReader(pngImage(t, 40, 30)), "image/png")
	require.NoError(t, err)

	out, err := imaging.Decode(bytes.NewReader(next.data))
	require.NoError(t, err)
	assert.Equal(t, 40, out.Bounds().Dx())
	assert.Equal(t, 30, out.Bounds().Dy())
}

func TestDetectForwardsUndecodableInput(t *testing.T) {
	next := &captureDetector{}
	d := NewDetector(next, 100, nil)

	_, err := d.Detect(context.Background(), bytes.NewReader([]byte("RIFF....WEBP")), "image/webp")
	require.NoError(t, err)

	assert.Equal(t, "image/webp", next.mimeType)
	assert.Equal(t, []byte("RIFF....WEBP"), next.data)
}

func TestDetectPropagatesDetectorError(t *testing.T) {
	next := &captureDetector{err: errors.New("model offline")}
	d := NewDetector(next, 100, nil)

	_, err := d.Detect(context.Background(), bytes.NewReader(pngImage(t, 10, 10)), "image/png")
	assert.EqualError(t, err, "model offline")
}
