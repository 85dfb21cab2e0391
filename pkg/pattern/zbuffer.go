package pattern

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrInvalidStride is returned when |stride| < width*channels.
	ErrInvalidStride = errors.New("row stride smaller than a row")

	// ErrShortBuffer is returned when caller supplied data cannot hold
	// every row.
	ErrShortBuffer = errors.New("buffer too small for dimensions")
)

// rowAlign is the alignment of rows allocated by NewZBuffer.
const rowAlign = strconv.IntSize / 8

// ZBuffer is a strided view of width x height elements of Channels bytes
// each. One of the channels is used as depth.
//
// Stride may be negative to describe bottom-up layouts; row 0 then lives at
// the end of the underlying slice.
type ZBuffer struct {
	Width    int
	Height   int
	Stride   int
	Channels int

	data   []uint8
	origin int
	owns   bool
}

// NewZBuffer allocates a zeroed buffer. Rows are aligned on the size of int.
func NewZBuffer(width, height, channels int) (*ZBuffer, error) {
	if width <= 0 || height <= 0 || channels <= 0 {
		return nil, fmt.Errorf("zbuffer %dx%dx%d: %w", width, height, channels, ErrInvalidDimensions)
	}

	stride := width * channels
	if r := stride % rowAlign; r != 0 {
		stride += rowAlign - r
	}

	return &ZBuffer{
		Width:    width,
		Height:   height,
		Stride:   stride,
		Channels: channels,
		data:     make([]uint8, stride*height),
		owns:     true,
	}, nil
}

// NewZBufferFromData wraps data. data starts at the lowest addressed row,
// which is row 0 for a positive stride and row height-1 for a negative one.
//
// owns decides whether Free releases data.
func NewZBufferFromData(width, height, stride, channels int, data []uint8, owns bool) (*ZBuffer, error) {
	if width <= 0 || height <= 0 || channels <= 0 {
		return nil, fmt.Errorf("zbuffer %dx%dx%d: %w", width, height, channels, ErrInvalidDimensions)
	}

	abs := stride
	if abs < 0 {
		abs = -abs
	}
	if abs < width*channels {
		return nil, fmt.Errorf("zbuffer stride %d for %d bytes per row: %w", stride, width*channels, ErrInvalidStride)
	}

	need := (height-1)*abs + width*channels
	if len(data) < need {
		return nil, fmt.Errorf("zbuffer needs %d bytes, got %d: %w", need, len(data), ErrShortBuffer)
	}

	origin := 0
	if stride < 0 {
		origin = (height - 1) * abs
	}

	return &ZBuffer{
		Width:    width,
		Height:   height,
		Stride:   stride,
		Channels: channels,
		data:     data,
		origin:   origin,
		owns:     owns,
	}, nil
}

// NewZBufferFromPattern returns a 4 channel view sharing p's storage.
func NewZBufferFromPattern(p *Pattern) *ZBuffer {
	return &ZBuffer{
		Width:    p.Width,
		Height:   p.Height,
		Stride:   p.Stride(),
		Channels: BytesPerPixel,
		data:     p.Pix,
	}
}

// Row returns the Width*Channels bytes of row y.
func (z *ZBuffer) Row(y int) []uint8 {
	i := z.origin + y*z.Stride
	n := z.Width * z.Channels
	return z.data[i : i+n : i+n]
}

// Pixel returns the Channels bytes of the element at (x, y).
func (z *ZBuffer) Pixel(x, y int) []uint8 {
	i := z.origin + y*z.Stride + x*z.Channels
	return z.data[i : i+z.Channels : i+z.Channels]
}

// Depth returns channel of the element at (x, y).
func (z *ZBuffer) Depth(x, y, channel int) uint8 {
	return z.data[z.origin+y*z.Stride+x*z.Channels+channel]
}

// SetDepth sets channel of the element at (x, y).
func (z *ZBuffer) SetDepth(x, y, channel int, v uint8) {
	z.data[z.origin+y*z.Stride+x*z.Channels+channel] = v
}

// Owns reports whether Free releases the underlying data.
func (z *ZBuffer) Owns() bool {
	return z.owns
}

// Free releases the data if the buffer owns it. A buffer that does not own
// its data keeps referring to it, since the caller remains responsible.
func (z *ZBuffer) Free() {
	if z == nil || !z.owns {
		return
	}
	z.data = nil
	z.Width, z.Height = 0, 0
}
