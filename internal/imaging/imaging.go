// Package imaging turns uploaded element photos into a stored JPEG and a
// small thumbnail.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

const (
	// PhotoMaxDimension bounds the width and height of a stored photo.
	PhotoMaxDimension = 1024
	// ThumbnailMaxDimension bounds the width and height of a thumbnail.
	ThumbnailMaxDimension = 160
	// MaxUploadBytes is the largest upload accepted.
	MaxUploadBytes = 10 << 20

	photoQuality     = 85
	thumbnailQuality = 75

	// MIME is the type of every stored photo and thumbnail.
	MIME = "image/jpeg"
)

// ErrUnsupportedFormat is returned for uploads that are not JPEG, PNG or WebP.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// ErrTooLarge is returned for uploads over MaxUploadBytes.
var ErrTooLarge = errors.New("image too large")

var decoders = map[string]func(io.Reader) (image.Image, error){
	"image/jpeg": jpeg.Decode,
	"image/png":  png.Decode,
	"image/webp": webp.Decode,
}

// Photo is a processed upload.
type Photo struct {
	Image     []byte
	Thumbnail []byte
	MIME      string
}

// ProcessPhoto sniffs the upload's real format, bounds it to
// PhotoMaxDimension and re-encodes it as JPEG together with a thumbnail.
func ProcessPhoto(r io.Reader) (*Photo, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, ErrTooLarge
	}

	// Client-supplied content types are ignored.
	detected := http.DetectContentType(data)
	decode, ok := decoders[detected]
	if !ok {
		return nil, fmt.Errorf("%w: %s (JPEG, PNG or WebP accepted)", ErrUnsupportedFormat, detected)
	}

	img, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	photo, err := encodeJPEG(fit(img, PhotoMaxDimension, draw.CatmullRom), photoQuality)
	if err != nil {
		return nil, err
	}
	thumb, err := encodeJPEG(fit(img, ThumbnailMaxDimension, draw.ApproxBiLinear), thumbnailQuality)
	if err != nil {
		return nil, err
	}

	return &Photo{Image: photo, Thumbnail: thumb, MIME: MIME}, nil
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// fit scales img down so neither side exceeds maxDim, keeping the aspect
// ratio. Images already within bounds are returned as they are.
func fit(img image.Image, maxDim int, scaler draw.Scaler) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := maxDim, maxDim
	if w > h {
		newH = max(1, h*maxDim/w)
	} else {
		newW = max(1, w*maxDim/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	scaler.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
