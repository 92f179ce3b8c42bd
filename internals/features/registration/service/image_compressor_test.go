package service

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noisyImage defeats JPEG compression so the byte ceiling actually bites.
func noisyImage(width, height int) image.Image {
	rng := rand.New(rand.NewSource(42))
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 255,
			})
		}
	}
	return img
}

func flatImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 40, G: 90, B: 160, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	require.NoError(t, jpeg.Encode(buf, img, &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

func TestCompressStaysUnderCeiling(t *testing.T) {
	ic := NewImageCompressor(CompressorOptions{
		MaxBytes:     1 * 1024 * 1024,
		MaxWidth:     1600,
		MinWidth:     640,
		QualityStart: 80,
		QualityFloor: 40,
		QualityStep:  10,
		WidthDecay:   0.8,
	})

	input := encodeJPEG(t, noisyImage(2400, 1800))
	out, err := ic.Compress(input, "photo.jpg")
	require.NoError(t, err)

	assert.LessOrEqual(t, len(out.Bytes), 1*1024*1024)
	assert.Equal(t, "image/jpeg", out.ContentType)
	assert.LessOrEqual(t, out.Width, 1600)
}

func TestCompressNeverUpscales(t *testing.T) {
	ic := NewImageCompressor(CompressorOptions{
		MaxBytes:     1 * 1024 * 1024,
		MaxWidth:     1600,
		MinWidth:     640,
		QualityStart: 80,
		QualityFloor: 40,
		QualityStep:  10,
		WidthDecay:   0.8,
	})

	input := encodePNG(t, flatImage(320, 240))
	out, err := ic.Compress(input, "small.png")
	require.NoError(t, err)

	assert.Equal(t, 320, out.Width)
	assert.Equal(t, "image/jpeg", out.ContentType)
}

func TestCompressPngInputBecomesJpeg(t *testing.T) {
	ic := NewImageCompressor(DefaultCompressorOptions())

	input := encodePNG(t, flatImage(800, 600))
	out, err := ic.Compress(input, "screenshot.png")
	require.NoError(t, err)

	assert.Equal(t, "image/jpeg", out.ContentType)
	// JPEG magic
	require.GreaterOrEqual(t, len(out.Bytes), 2)
	assert.Equal(t, []byte{0xFF, 0xD8}, out.Bytes[:2])
}

func TestCompressGivesUpAtWidthFloor(t *testing.T) {
	// a ceiling nothing fits under
	ic := NewImageCompressor(CompressorOptions{
		MaxBytes:     64,
		MaxWidth:     128,
		MinWidth:     64,
		QualityStart: 80,
		QualityFloor: 40,
		QualityStep:  10,
		WidthDecay:   0.8,
	})

	input := encodeJPEG(t, noisyImage(256, 256))
	_, err := ic.Compress(input, "dense.jpg")
	assert.ErrorIs(t, err, ErrCompressionLimit)
}

func TestCompressRejectsNonImageBytes(t *testing.T) {
	ic := NewImageCompressor(DefaultCompressorOptions())

	_, err := ic.Compress([]byte("definitely not pixels"), "notes.txt")
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestCompressRejectsEmptyInput(t *testing.T) {
	ic := NewImageCompressor(DefaultCompressorOptions())

	_, err := ic.Compress(nil, "empty.jpg")
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}
