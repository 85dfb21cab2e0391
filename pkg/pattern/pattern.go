// Package pattern holds the raster types shared by the effects and the
// stereogram synthesizer: Pattern, an RGBA8 image, and ZBuffer, a strided
// multichannel byte view from which one depth channel is read per pixel.
package pattern

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

// BytesPerPixel is the size of one RGBA8 pixel.
const BytesPerPixel = 4

// Gray is the colour a new Pattern is filled with.
var Gray = color.RGBA{R: 128, G: 128, B: 128, A: 255}

// ErrInvalidDimensions is returned when a width, height or channel count is
// not positive.
var ErrInvalidDimensions = errors.New("dimensions must be positive")

// Pattern is a fixed size RGBA8 raster stored row-major. Row y occupies
// Pix[y*Width*4 : (y+1)*Width*4].
type Pattern struct {
	Width  int
	Height int
	Pix    []uint8
}

// New creates a width x height pattern filled with Gray.
func New(width, height int) (*Pattern, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("pattern %dx%d: %w", width, height, ErrInvalidDimensions)
	}

	p := &Pattern{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*BytesPerPixel),
	}
	p.Fill(Gray)
	return p, nil
}

// FromImage copies img into a new pattern with the same dimensions.
func FromImage(img image.Image) (*Pattern, error) {
	b := img.Bounds()
	p, err := New(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}

	draw.Draw(p.RGBA(), p.RGBA().Bounds(), img, b.Min, draw.Src)
	return p, nil
}

// Stride returns the number of bytes between two rows.
func (p *Pattern) Stride() int {
	return p.Width * BytesPerPixel
}

// Row returns the pixels of row y. No bounds checking beyond the slice's own.
func (p *Pattern) Row(y int) []uint8 {
	i := y * p.Stride()
	return p.Pix[i : i+p.Stride() : i+p.Stride()]
}

// Pixel returns the four bytes of the pixel at (x, y).
func (p *Pattern) Pixel(x, y int) []uint8 {
	i := y*p.Stride() + x*BytesPerPixel
	return p.Pix[i : i+BytesPerPixel : i+BytesPerPixel]
}

// At returns the colour at (x, y).
func (p *Pattern) At(x, y int) color.RGBA {
	px := p.Pixel(x, y)
	return color.RGBA{R: px[0], G: px[1], B: px[2], A: px[3]}
}

// Set sets the colour at (x, y).
func (p *Pattern) Set(x, y int, c color.RGBA) {
	px := p.Pixel(x, y)
	px[0], px[1], px[2], px[3] = c.R, c.G, c.B, c.A
}

// Fill sets every pixel to c.
func (p *Pattern) Fill(c color.RGBA) {
	for i := 0; i < len(p.Pix); i += BytesPerPixel {
		p.Pix[i+0] = c.R
		p.Pix[i+1] = c.G
		p.Pix[i+2] = c.B
		p.Pix[i+3] = c.A
	}
}

// Clone returns a deep copy of the pattern.
func (p *Pattern) Clone() *Pattern {
	pix := make([]uint8, len(p.Pix))
	copy(pix, p.Pix)
	return &Pattern{Width: p.Width, Height: p.Height, Pix: pix}
}

// RGBA returns an *image.RGBA sharing the pattern's storage. Writes through
// either value are visible in both.
func (p *Pattern) RGBA() *image.RGBA {
	return &image.RGBA{
		Pix:    p.Pix,
		Stride: p.Stride(),
		Rect:   image.Rect(0, 0, p.Width, p.Height),
	}
}
