package ioutils

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // GIF decoder registration
	"image/jpeg"
	_ "image/png" // PNG decoder registration
	"strings"

	webpenc "github.com/chai2010/webp"
	_ "golang.org/x/image/bmp" // BMP decoder registration
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // WEBP decoder registration
)

// ErrUnsupportedFormat is returned when asked to encode into a format the
// service cannot produce.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// ImageFormat identifies an image encoding.
type ImageFormat string

const (
	FormatJPEG    ImageFormat = "jpeg"
	FormatPNG     ImageFormat = "png"
	FormatGIF     ImageFormat = "gif"
	FormatWEBP    ImageFormat = "webp"
	FormatBMP     ImageFormat = "bmp"
	FormatUnknown ImageFormat = "unknown"
)

// Extension returns the file extension for the format, without the dot.
func (f ImageFormat) Extension() string {
	switch f {
	case FormatJPEG:
		return "jpg"
	case FormatUnknown:
		return "bin"
	default:
		return string(f)
	}
}

// ParseImageFormat converts a format name or file extension to an ImageFormat.
func ParseImageFormat(s string) ImageFormat {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "jpeg", "jpg":
		return FormatJPEG
	case "png":
		return FormatPNG
	case "gif":
		return FormatGIF
	case "webp":
		return FormatWEBP
	case "bmp":
		return FormatBMP
	default:
		return FormatUnknown
	}
}

// DetectFormat sniffs the encoding of data from its header.
func DetectFormat(data []byte) ImageFormat {
	_, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return FormatUnknown
	}
	return ParseImageFormat(name)
}

// ImageService converts downloaded pages into the configured target format.
//
// Supported targets are WEBP (lossy, quality 90) and JPEG (quality 90).
// Sources may be anything the registered decoders understand.
//
// Example usage:
//
//	svc := NewImageService()
//	out, err := svc.Convert(data, ioutils.FormatPNG, ioutils.FormatWEBP)
type ImageService struct {
	quality int
}

// NewImageService creates a new ImageService.
func NewImageService() *ImageService {
	return &ImageService{quality: 90}
}

// Convert re-encodes data from src into target.
//
// When src equals target the input is returned unchanged, without decoding.
// Any target other than WEBP or JPEG yields ErrUnsupportedFormat.
func (s *ImageService) Convert(data []byte, src, target ImageFormat) ([]byte, error) {
	if src == target {
		return data, nil
	}
	if target != FormatWEBP && target != FormatJPEG {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, target)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", src, err)
	}

	var buf bytes.Buffer
	switch target {
	case FormatWEBP:
		rgba := image.NewRGBA(img.Bounds())
		draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
		if err := webpenc.Encode(&buf, rgba, &webpenc.Options{Quality: float32(s.quality)}); err != nil {
			return nil, fmt.Errorf("encode webp: %w", err)
		}
	case FormatJPEG:
		// JPEG has no alpha channel; flatten onto white like a reader would show it.
		canvas := image.NewRGBA(img.Bounds())
		draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
		draw.Draw(canvas, canvas.Bounds(), img, img.Bounds().Min, draw.Over)
		if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: s.quality}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	}

	return buf.Bytes(), nil
}
