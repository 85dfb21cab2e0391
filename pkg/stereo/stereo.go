// Package stereo synthesizes single image stereograms.
//
// Every output pixel is a copy of the pixel one repeat distance to its left
// in the same row, where the repeat distance is the background width plus
// a displacement looked up from the depth value. Pixels closer than one
// repeat distance to the left edge are taken from the tiled background.
package stereo

import (
	"errors"
	"fmt"

	"stereogram/internal/logging"
	"stereogram/pkg/fixed"
	"stereogram/pkg/para"
	"stereogram/pkg/pattern"
)

var (
	// ErrNilBackground is returned by New when no background is given.
	ErrNilBackground = errors.New("stereo: nil background pattern")

	// ErrNilZBuffer is returned by ApplyLines when no z-buffer is given.
	ErrNilZBuffer = errors.New("stereo: nil z-buffer")

	// ErrDimensionMismatch is returned when the z-buffer and the output
	// differ in size.
	ErrDimensionMismatch = errors.New("stereo: z-buffer dimensions differ from image")

	// ErrChannelRange is returned for a channel the z-buffer does not have.
	ErrChannelRange = errors.New("stereo: channel out of range")

	// ErrRowRange is returned unless start < end <= height.
	ErrRowRange = errors.New("stereo: invalid row range")
)

// Levels is the number of distinct depth values.
const Levels = 256

// Option configures New.
type Option func(*options)

type options struct {
	threads int
}

// WithThreads sets the number of threads used by ApplyLines. The default is
// para.ThreadCount.
func WithThreads(n int) Option {
	return func(o *options) {
		o.threads = n
	}
}

// Image is a stereogram under construction. It owns its output and its
// background pattern.
//
// ApplyLines may be called from several goroutines; calls are serialised.
// SetStrength must not run concurrently with ApplyLines.
type Image struct {
	output     *pattern.Pattern
	background *pattern.Pattern
	offsets    [Levels]int
	strength   float64
	inverted   bool
	exec       *para.Executor[*job]
}

// job is the state of one ApplyLines call.
type job struct {
	image   *Image
	zbuffer *pattern.ZBuffer
	channel int
}

// New creates a width x height stereogram drawn with background. The image
// takes ownership of background.
//
// strength scales the displacement of the deepest level, in pixels. When
// inverted is false depth 0 is displaced least and 255 most; inverted swaps
// the two. A negative strength links pixels to columns on their right, which
// still hold the previous frame when they are read.
func New(width, height int, background *pattern.Pattern, strength float64, inverted bool, opts ...Option) (*Image, error) {
	if background == nil {
		return nil, ErrNilBackground
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	output, err := pattern.New(width, height)
	if err != nil {
		return nil, fmt.Errorf("stereo: %w", err)
	}

	img := &Image{
		output:     output,
		background: background,
	}
	img.SetStrength(strength, inverted)
	img.exec = para.New[*job](nil, applyLines, o.threads)

	logging.Logger().Debug("stereo: image created", "width", width, "height", height,
		"tile", background.Width, "strength", strength, "inverted", inverted)
	return img, nil
}

// SetStrength rebuilds the displacement table. Only later ApplyLines calls
// are affected.
func (img *Image) SetStrength(strength float64, inverted bool) {
	img.strength, img.inverted = strength, inverted
	for i := range img.offsets {
		level := i
		if inverted {
			level = Levels - 1 - i
		}
		img.offsets[i] = int(strength * fixed.One * float64(level) / (Levels - 1))
	}
}

// Strength returns the values last passed to New or SetStrength.
func (img *Image) Strength() (strength float64, inverted bool) {
	return img.strength, img.inverted
}

// Offsets returns a copy of the fixed point displacement of every depth
// level.
func (img *Image) Offsets() [Levels]int {
	return img.offsets
}

// Output returns the stereogram.
func (img *Image) Output() *pattern.Pattern {
	return img.output
}

// Background returns the background pattern. Effects may draw on it between
// ApplyLines calls to animate the stereogram.
func (img *Image) Background() *pattern.Pattern {
	return img.background
}

// Apply renders every row. See ApplyLines.
func (img *Image) Apply(zbuffer *pattern.ZBuffer, channel int) error {
	return img.ApplyLines(zbuffer, channel, 0, img.output.Height)
}

// ApplyLines renders rows [start, end) of the stereogram using channel of
// zbuffer as depth. The image is not modified if an error is returned.
func (img *Image) ApplyLines(zbuffer *pattern.ZBuffer, channel, start, end int) error {
	if err := img.validate(zbuffer, channel, start, end); err != nil {
		logging.Logger().Debug("stereo: apply rejected", "error", err)
		return err
	}

	j := &job{image: img, zbuffer: zbuffer, channel: channel}
	if err := img.exec.ExecuteWithContext(j, start, end); err != nil {
		return fmt.Errorf("stereo: %w", err)
	}
	return nil
}

func (img *Image) validate(zbuffer *pattern.ZBuffer, channel, start, end int) error {
	out := img.output
	switch {
	case zbuffer == nil:
		return ErrNilZBuffer
	case zbuffer.Width != out.Width || zbuffer.Height != out.Height:
		return fmt.Errorf("%w: %dx%d, image is %dx%d", ErrDimensionMismatch,
			zbuffer.Width, zbuffer.Height, out.Width, out.Height)
	case channel < 0 || channel >= zbuffer.Channels:
		return fmt.Errorf("%w: %d of %d", ErrChannelRange, channel, zbuffer.Channels)
	case start < 0 || start >= end || end > out.Height:
		return fmt.Errorf("%w: [%d, %d) of %d rows", ErrRowRange, start, end, out.Height)
	}
	return nil
}

// Close stops the worker threads. The patterns stay readable.
func (img *Image) Close() error {
	if img == nil {
		return nil
	}
	return img.exec.Close()
}

// applyLines renders rows [start, end). Within a row columns are visited
// strictly left to right, since each pixel is blended from pixels already
// written further left in the same row.
func applyLines(j *job, start, end, _, _ int) {
	img, zb, channel := j.image, j.zbuffer, j.channel
	out, bg := img.output, img.background
	tile := fixed.ToFixed(bg.Width)

	// Depth level 0 lands exactly on the background's columns
	anchor := img.offsets[0]

	for y := start; y < end; y++ {
		row := out.Row(y)
		bgRow := bg.Row(y % bg.Height)

		for x := 0; x < out.Width; x++ {
			d := img.offsets[zb.Depth(x, y, channel)]
			target := fixed.ToFixed(x) - tile - d

			i := x * pattern.BytesPerPixel
			px := row[i : i+pattern.BytesPerPixel : i+pattern.BytesPerPixel]
			if target < 0 {
				pattern.Blend2(px, bgRow, target+tile+anchor, bg.Width)
			} else {
				pattern.Blend2(px, row, target, out.Width)
			}
		}
	}
}
