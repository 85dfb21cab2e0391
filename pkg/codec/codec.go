// Package codec converts between encoded images and patterns.
//
// Decoding accepts every format registered with the image package, which
// includes BMP, TIFF and WebP through golang.org/x/image. Encoding supports
// PNG, JPEG, BMP and TIFF.
package codec

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"stereogram/pkg/pattern"
)

// ErrUnknownFormat is returned for an output format that cannot be encoded.
var ErrUnknownFormat = errors.New("codec: unknown image format")

// Format is an output image format.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	BMP  Format = "bmp"
	TIFF Format = "tiff"
)

// JPEGQuality is the quality used when encoding JPEG.
const JPEGQuality = 90

// ParseFormat returns the format named by s, accepting common aliases and a
// leading dot.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "bmp":
		return BMP, nil
	case "tif", "tiff":
		return TIFF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatFromPath returns the format matching the extension of path.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Ext returns the canonical file extension of f, including the dot.
func (f Format) Ext() string {
	if f == JPEG {
		return ".jpg"
	}
	return "." + string(f)
}

// Decode reads an image and converts it to a pattern. It also returns the
// name of the decoded format.
func Decode(r io.Reader) (*pattern.Pattern, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	p, err := pattern.FromImage(img)
	if err != nil {
		return nil, "", err
	}
	return p, format, nil
}

// DecodeImage reads an image without converting it, so callers can keep
// single channel depth maps single channel.
func DecodeImage(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// DecodeFile loads the image at path as a pattern.
func DecodeFile(path string) (*pattern.Pattern, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	p, _, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Encode writes p in format f.
func Encode(w io.Writer, p *pattern.Pattern, f Format) error {
	img := p.RGBA()

	var err error
	switch f {
	case PNG:
		err = png.Encode(w, img)
	case JPEG:
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: JPEGQuality})
	case BMP:
		err = bmp.Encode(w, img)
	case TIFF:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}

	if err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return nil
}

// EncodeFile writes p to path in the format given by the extension,
// creating parent directories as needed.
func EncodeFile(path string, p *pattern.Pattern) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}

	if err := Encode(file, p, f); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
