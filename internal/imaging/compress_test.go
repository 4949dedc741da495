package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
)

// noisyJPEG renders a poorly compressible image so re-encoding at a lower
// quality actually shrinks it.
func noisyJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x*7 + y*13) % 256),
				G: uint8((x * y) % 256),
				B: uint8((x + y*31) % 256),
				A: 255,
			})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func TestCompress_BoundsLargeImage(t *testing.T) {
	original := noisyJPEG(t, 2400, 1200)

	compressed, err := Compress(original, "image/jpeg")

	assert.NoError(t, err)
	assert.Less(t, len(compressed), len(original))

	img, _, err := image.Decode(bytes.NewReader(compressed))
	assert.NoError(t, err)
	assert.LessOrEqual(t, img.Bounds().Dx(), 1920)
	assert.LessOrEqual(t, img.Bounds().Dy(), 1920)
}

func TestCompress_UndecodableFallsBackToOriginal(t *testing.T) {
	original := []byte("definitely not an image")

	out, err := Compress(original, "image/jpeg")

	assert.Error(t, err)
	assert.Equal(t, original, out, "caller must receive the unmodified input")
}

func TestCompress_NeverGrowsOutput(t *testing.T) {
	// A tiny, already-dense file: re-encoding cannot beat it, so the
	// original bytes come back.
	original := noisyJPEG(t, 8, 8)

	out, err := Compress(original, "image/jpeg")

	assert.NoError(t, err)
	assert.LessOrEqual(t, len(out), len(original))
}
