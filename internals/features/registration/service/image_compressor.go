package service

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"

	"sspl_backend/internals/configs"
)

// ErrCompressionLimit means no quality/width combination got the image under
// the byte ceiling. Mapped to 413 by the pipeline.
var ErrCompressionLimit = errors.New("unable to compress image under the size limit")

// ErrUnsupportedImage means the bytes could not be decoded as a known format.
var ErrUnsupportedImage = errors.New("unsupported image format")

const jpegMimeType = "image/jpeg"

// CompressorOptions mirror the observed deployment defaults; every knob is
// env-overridable.
type CompressorOptions struct {
	MaxBytes     int // byte ceiling for the encoded output
	MaxWidth     int // width held here during the quality ladder
	MinWidth     int // width floor during geometric descent
	QualityStart int
	QualityFloor int
	QualityStep  int
	WidthDecay   float64 // 0 < decay < 1, applied per width step
}

func DefaultCompressorOptions() CompressorOptions {
	return CompressorOptions{
		MaxBytes:     configs.EnvInt("IMAGE_MAX_BYTES", 1*1024*1024),
		MaxWidth:     configs.EnvInt("IMAGE_MAX_RESIZE_WIDTH", 1600),
		MinWidth:     configs.EnvInt("IMAGE_MIN_RESIZE_WIDTH", 640),
		QualityStart: 80,
		QualityFloor: 40,
		QualityStep:  10,
		WidthDecay:   0.8,
	}
}

// CompressedImage is the ready-to-upload result; content type is always JPEG
// regardless of the input format.
type CompressedImage struct {
	Bytes       []byte
	ContentType string
	Width       int
}

// ImageCompressor shrinks arbitrary input images under a byte ceiling while
// preserving orientation and aspect ratio.
type ImageCompressor struct {
	opts CompressorOptions
}

func NewImageCompressor(opts CompressorOptions) *ImageCompressor {
	if opts.MaxBytes <= 0 || opts.MaxWidth <= 0 || opts.MinWidth <= 0 {
		opts = DefaultCompressorOptions()
	}
	return &ImageCompressor{opts: opts}
}

// Compress re-encodes to JPEG under the ceiling. Quality is lowered first
// (it preserves geometry, which OCR needs, longer than downsampling does);
// only when the quality ladder bottoms out is the width shrunk geometrically,
// re-running the ladder at each width step. The image is never upscaled.
func (ic *ImageCompressor) Compress(input []byte, filename string) (*CompressedImage, error) {
	img, err := decodeImage(input, filename)
	if err != nil {
		return nil, err
	}
	img = applyExifOrientation(img, input)

	srcWidth := img.Bounds().Dx()
	width := ic.opts.MaxWidth
	if srcWidth < width {
		width = srcWidth
	}

	for {
		scaled := resizeToWidth(img, width)
		for q := ic.opts.QualityStart; q >= ic.opts.QualityFloor; q -= ic.opts.QualityStep {
			data, err := encodeJpeg(scaled, q)
			if err != nil {
				return nil, err
			}
			if len(data) <= ic.opts.MaxBytes {
				return &CompressedImage{Bytes: data, ContentType: jpegMimeType, Width: scaled.Bounds().Dx()}, nil
			}
		}

		if width <= ic.opts.MinWidth {
			return nil, ErrCompressionLimit
		}
		next := int(float64(width) * ic.opts.WidthDecay)
		if next < ic.opts.MinWidth {
			next = ic.opts.MinWidth
		}
		width = next
	}
}

func decodeImage(input []byte, filename string) (image.Image, error) {
	if len(input) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrUnsupportedImage)
	}
	head := input
	if len(head) > 512 {
		head = head[:512]
	}
	ct := http.DetectContentType(head)

	switch {
	case strings.Contains(ct, "jpeg"):
		return jpeg.Decode(bytes.NewReader(input))
	case strings.Contains(ct, "png"):
		return png.Decode(bytes.NewReader(input))
	case strings.Contains(ct, "webp"):
		return webp.Decode(bytes.NewReader(input))
	case strings.Contains(ct, "gif"):
		return gif.Decode(bytes.NewReader(input))
	}

	// sniffing failed, fall back to the extension
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return jpeg.Decode(bytes.NewReader(input))
	case ".png":
		return png.Decode(bytes.NewReader(input))
	case ".webp":
		return webp.Decode(bytes.NewReader(input))
	case ".gif":
		return gif.Decode(bytes.NewReader(input))
	}
	return nil, fmt.Errorf("%w: %s / %s", ErrUnsupportedImage, ct, filepath.Ext(filename))
}

// applyExifOrientation bakes the EXIF orientation into the pixels so the
// re-encoded JPEG (which carries no EXIF) still displays upright. Inputs
// without usable EXIF pass through untouched.
func applyExifOrientation(img image.Image, input []byte) image.Image {
	meta, err := exif.Decode(bytes.NewReader(input))
	if err != nil {
		return img
	}
	tag, err := meta.Get(exif.Orientation)
	if err != nil {
		return img
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return img
	}

	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	}
	return img
}

func resizeToWidth(img image.Image, width int) image.Image {
	if img.Bounds().Dx() <= width {
		return img
	}
	// height 0 keeps the aspect ratio
	return imaging.Resize(img, width, 0, imaging.Lanczos)
}

func encodeJpeg(img image.Image, quality int) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("jpeg encode: %w", err)
	}
	return buf.Bytes(), nil
}
