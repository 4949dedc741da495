// Package imaging shrinks pet photos before upload. Compression is strictly
// best-effort: any failure hands the original bytes back to the caller, so
// an upload never aborts because a file would not compress.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

// maxDimension bounds the longer edge of an uploaded photo.
const maxDimension = 1920

// jpegQuality trades size for fidelity on re-encode.
const jpegQuality = 80

// Compress bounds the image's dimensions and re-encodes it in its original
// format. When the result would be larger than the input, or the bytes do
// not decode, the input is returned unchanged along with the error that
// stopped compression.
func Compress(data []byte, contentType string) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return data, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxDimension || bounds.Dy() > maxDimension {
		img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
	}

	encoded, err := encode(img, contentType)
	if err != nil {
		return data, err
	}
	if len(encoded) >= len(data) {
		return data, nil
	}
	return encoded, nil
}

func encode(img image.Image, contentType string) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch {
	case strings.Contains(contentType, "png"):
		err = imaging.Encode(&buf, img, imaging.PNG)
	default:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality))
	}
	if err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
