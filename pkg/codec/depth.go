package codec

import (
	"image"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"

	"stereogram/pkg/pattern"
)

// DepthFromImage wraps img as a z-buffer. Gray images share their pixels
// and have a single channel; anything else is converted to a 4 channel
// pattern, from which the caller picks the depth channel.
func DepthFromImage(img image.Image) (*pattern.ZBuffer, error) {
	if g, ok := img.(*image.Gray); ok {
		b := g.Bounds()
		return pattern.NewZBufferFromData(b.Dx(), b.Dy(), g.Stride, 1,
			g.Pix[g.PixOffset(b.Min.X, b.Min.Y):], false)
	}

	p, err := pattern.FromImage(img)
	if err != nil {
		return nil, err
	}
	return pattern.NewZBufferFromPattern(p), nil
}

// FitDepth scales a depth map to width x height with bilinear filtering.
// Gray input stays gray. img is returned unchanged if it already fits.
func FitDepth(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return img
	}

	rect := image.Rect(0, 0, width, height)
	var dst draw.Image
	if _, ok := img.(*image.Gray); ok {
		dst = image.NewGray(rect)
	} else {
		dst = image.NewRGBA(rect)
	}

	draw.BiLinear.Scale(dst, rect, img, b, draw.Src, nil)
	return dst
}

// ScaleTile resizes a background tile to width pixels, keeping its aspect
// ratio, with Lanczos filtering. p is returned unchanged if width is not
// positive or already matches.
func ScaleTile(p *pattern.Pattern, width int) (*pattern.Pattern, error) {
	if width <= 0 || width == p.Width {
		return p, nil
	}

	scaled := resize.Resize(uint(width), 0, p.RGBA(), resize.Lanczos3)
	return pattern.FromImage(scaled)
}
