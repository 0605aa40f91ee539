package photo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/disintegration/imaging"

	"checkin/internal/metrics"
	"checkin/internal/student"
)

const (
	DefaultMaxDimension = 1200
	DefaultQuality      = 80
)

// ErrNotConfigured is returned by Disabled.
var ErrNotConfigured = errors.New("photo storage not configured")

// Uploader is a remote image host.
type Uploader interface {
	Upload(ctx context.Context, name string, image []byte) (string, error)
}

// Pipeline downscales evidence photos before handing them to the host.
// Kiosk cameras produce multi-megabyte frames; the scan station only needs
// something recognisable.
type Pipeline struct {
	Host         Uploader
	MaxDimension int
	Quality      int
}

// NewPipeline creates a pipeline with the default size and quality.
func NewPipeline(host Uploader) *Pipeline {
	return &Pipeline{Host: host, MaxDimension: DefaultMaxDimension, Quality: DefaultQuality}
}

// Upload implements student.PhotoSink.
func (p *Pipeline) Upload(ctx context.Context, name string, img []byte) (string, error) {
	data, err := Downscale(img, p.MaxDimension, p.Quality)
	if err != nil {
		return "", err
	}
	start := time.Now()
	url, err := p.Host.Upload(ctx, name, data)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.PhotoUpload.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	return url, err
}

// Downscale fits img inside maxDim×maxDim keeping the aspect ratio and
// re-encodes it as JPEG. Images already small enough are only re-encoded.
func Downscale(img []byte, maxDim, quality int) ([]byte, error) {
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	src, err := imaging.Decode(bytes.NewReader(img), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: decode photo: %v", student.ErrValidation, err)
	}
	var out image.Image = src
	b := src.Bounds()
	if b.Dx() > maxDim || b.Dy() > maxDim {
		out = imaging.Fit(src, maxDim, maxDim, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode photo: %w", err)
	}
	return buf.Bytes(), nil
}

// Disabled rejects every upload.
type Disabled struct{}

func (Disabled) Upload(context.Context, string, []byte) (string, error) {
	return "", ErrNotConfigured
}
