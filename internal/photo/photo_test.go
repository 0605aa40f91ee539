package photo

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checkin/internal/student"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDownscaleFitsLongEdge(t *testing.T) {
	out, err := Downscale(pngBytes(t, 2400, 1200), 1200, 80)
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 1200, img.Bounds().Dx())
	assert.Equal(t, 600, img.Bounds().Dy())
}

func TestDownscaleKeepsSmallImages(t *testing.T) {
	out, err := Downscale(pngBytes(t, 320, 240), 0, 0)
	require.NoError(t, err)
	img, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, image.Pt(320, 240), img.Bounds().Size())
}

func TestDownscaleRejectsNonImages(t *testing.T) {
	_, err := Downscale([]byte("definitely not a jpeg"), 1200, 80)
	assert.ErrorIs(t, err, student.ErrValidation)
}

type hostFunc func(ctx context.Context, name string, image []byte) (string, error)

func (f hostFunc) Upload(ctx context.Context, name string, image []byte) (string, error) {
	return f(ctx, name, image)
}

func TestPipelineUpload(t *testing.T) {
	var gotName string
	var gotSize int
	p := NewPipeline(hostFunc(func(_ context.Context, name string, img []byte) (string, error) {
		gotName = name
		gotSize = len(img)
		return "https://cdn/" + name, nil
	}))
	p.MaxDimension = 100

	url, err := p.Upload(context.Background(), "checkin/s1_1.jpg", pngBytes(t, 800, 800))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/checkin/s1_1.jpg", url)
	assert.Equal(t, "checkin/s1_1.jpg", gotName)
	assert.Positive(t, gotSize)

	failing := NewPipeline(hostFunc(func(context.Context, string, []byte) (string, error) {
		return "", errors.New("503")
	}))
	_, err = failing.Upload(context.Background(), "x.jpg", pngBytes(t, 10, 10))
	assert.Error(t, err)
}

func TestDisabled(t *testing.T) {
	_, err := Disabled{}.Upload(context.Background(), "x", nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
